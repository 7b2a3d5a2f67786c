package matching

import "math"

// weightScale quantises edge weights to integer micro-units so dual variables stay
// exact throughout the primal-dual search.
const weightScale = 1e6

// WeightedEdge is an undirected solver edge between vertices U and V.
type WeightedEdge struct {
	U      int
	V      int
	Weight float64
}

// MaxWeightMatching computes a maximum weight matching of a general graph with
// vertices 0..n-1 using Edmonds' blossom algorithm in its O(n³) primal-dual form.
// When maxCardinality is set only maximum-cardinality matchings are considered and
// the heaviest of those is returned.
//
// The result maps each vertex to its partner, or -1 when it is unmatched. Self loops
// and out-of-range endpoints are ignored; parallel edges keep the largest weight.
func MaxWeightMatching(n int, edges []WeightedEdge, maxCardinality bool) []int {
	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	prepared := prepareEdges(n, edges)
	if n == 0 || len(prepared) == 0 {
		return result
	}

	s := newBlossomSolver(n, prepared, maxCardinality)
	s.run()

	for v := 0; v < n; v++ {
		if s.mate[v] >= 0 {
			result[v] = s.endpoint[s.mate[v]]
		}
	}
	return result
}

type solverEdge struct {
	u, v int
	w    int64
}

func prepareEdges(n int, edges []WeightedEdge) []solverEdge {
	seen := make(map[[2]int]int, len(edges))
	out := make([]solverEdge, 0, len(edges))
	for _, e := range edges {
		if e.U == e.V || e.U < 0 || e.V < 0 || e.U >= n || e.V >= n {
			continue
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			continue
		}
		u, v := e.U, e.V
		if u > v {
			u, v = v, u
		}
		w := int64(math.Round(e.Weight * weightScale))
		key := [2]int{u, v}
		if k, ok := seen[key]; ok {
			if w > out[k].w {
				out[k].w = w
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, solverEdge{u: u, v: v, w: w})
	}
	return out
}

// blossomSolver holds the state of one primal-dual run. Vertices are 0..n-1,
// non-trivial blossoms n..2n-1. Edge k has endpoints 2k (u side) and 2k+1 (v side).
// Labels: 0 free, 1 S (outer), 2 T (inner); 5 marks a blossom during scanBlossom.
type blossomSolver struct {
	n              int
	edges          []solverEdge
	maxCardinality bool

	endpoint  []int
	neighbend [][]int
	mate      []int

	label            []int
	labelend         []int
	inblossom        []int
	blossomparent    []int
	blossomchilds    [][]int
	blossombase      []int
	blossomendps     [][]int
	bestedge         []int
	blossombestedges [][]int
	unusedblossoms   []int
	dualvar          []int64
	allowedge        []bool
	queue            []int
}

func newBlossomSolver(n int, edges []solverEdge, maxCardinality bool) *blossomSolver {
	s := &blossomSolver{
		n:                n,
		edges:            edges,
		maxCardinality:   maxCardinality,
		endpoint:         make([]int, 2*len(edges)),
		neighbend:        make([][]int, n),
		mate:             filled(n, -1),
		label:            make([]int, 2*n),
		labelend:         filled(2*n, -1),
		inblossom:        make([]int, n),
		blossomparent:    filled(2*n, -1),
		blossomchilds:    make([][]int, 2*n),
		blossombase:      filled(2*n, -1),
		blossomendps:     make([][]int, 2*n),
		bestedge:         filled(2*n, -1),
		blossombestedges: make([][]int, 2*n),
		dualvar:          make([]int64, 2*n),
		allowedge:        make([]bool, len(edges)),
	}

	var maxWeight int64
	for k, e := range edges {
		s.endpoint[2*k] = e.u
		s.endpoint[2*k+1] = e.v
		s.neighbend[e.u] = append(s.neighbend[e.u], 2*k+1)
		s.neighbend[e.v] = append(s.neighbend[e.v], 2*k)
		if e.w > maxWeight {
			maxWeight = e.w
		}
	}
	for v := 0; v < n; v++ {
		s.inblossom[v] = v
		s.blossombase[v] = v
		s.dualvar[v] = maxWeight
	}
	s.unusedblossoms = make([]int, 0, n)
	for b := n; b < 2*n; b++ {
		s.unusedblossoms = append(s.unusedblossoms, b)
	}
	return s
}

func filled(size, value int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = value
	}
	return out
}

func (s *blossomSolver) slack(k int) int64 {
	e := s.edges[k]
	return s.dualvar[e.u] + s.dualvar[e.v] - 2*e.w
}

func (s *blossomSolver) leaves(b int) []int {
	if b < s.n {
		return []int{b}
	}
	var out []int
	for _, child := range s.blossomchilds[b] {
		if child < s.n {
			out = append(out, child)
		} else {
			out = append(out, s.leaves(child)...)
		}
	}
	return out
}

func (s *blossomSolver) assignLabel(w, t, p int) {
	b := s.inblossom[w]
	s.label[w], s.label[b] = t, t
	s.labelend[w], s.labelend[b] = p, p
	s.bestedge[w], s.bestedge[b] = -1, -1
	switch t {
	case 1:
		s.queue = append(s.queue, s.leaves(b)...)
	case 2:
		base := s.blossombase[b]
		s.assignLabel(s.endpoint[s.mate[base]], 1, s.mate[base]^1)
	}
}

// scanBlossom traces back from v and w towards the roots of their alternating
// trees. It returns the base of a new blossom, or -1 when the trees are disjoint
// and an augmenting path exists.
func (s *blossomSolver) scanBlossom(v, w int) int {
	var path []int
	base := -1
	for v != -1 || w != -1 {
		b := s.inblossom[v]
		if s.label[b]&4 != 0 {
			base = s.blossombase[b]
			break
		}
		path = append(path, b)
		s.label[b] = 5
		if s.labelend[b] == -1 {
			v = -1
		} else {
			v = s.endpoint[s.labelend[b]]
			b = s.inblossom[v]
			v = s.endpoint[s.labelend[b]]
		}
		if w != -1 {
			v, w = w, v
		}
	}
	for _, b := range path {
		s.label[b] = 1
	}
	return base
}

func (s *blossomSolver) addBlossom(base, k int) {
	v, w := s.edges[k].u, s.edges[k].v
	bb := s.inblossom[base]
	bv := s.inblossom[v]
	bw := s.inblossom[w]

	b := s.unusedblossoms[len(s.unusedblossoms)-1]
	s.unusedblossoms = s.unusedblossoms[:len(s.unusedblossoms)-1]
	s.blossombase[b] = base
	s.blossomparent[b] = -1
	s.blossomparent[bb] = b

	var path, endps []int
	for bv != bb {
		s.blossomparent[bv] = b
		path = append(path, bv)
		endps = append(endps, s.labelend[bv])
		v = s.endpoint[s.labelend[bv]]
		bv = s.inblossom[v]
	}
	path = append(path, bb)
	reverseInts(path)
	reverseInts(endps)
	endps = append(endps, 2*k)
	for bw != bb {
		s.blossomparent[bw] = b
		path = append(path, bw)
		endps = append(endps, s.labelend[bw]^1)
		w = s.endpoint[s.labelend[bw]]
		bw = s.inblossom[w]
	}
	s.blossomchilds[b] = path
	s.blossomendps[b] = endps

	s.label[b] = 1
	s.labelend[b] = s.labelend[bb]
	s.dualvar[b] = 0
	for _, leaf := range s.leaves(b) {
		if s.label[s.inblossom[leaf]] == 2 {
			// former T-vertices become S-vertices inside the new blossom
			s.queue = append(s.queue, leaf)
		}
		s.inblossom[leaf] = b
	}

	bestedgeto := filled(2*s.n, -1)
	for _, child := range path {
		var lists [][]int
		if s.blossombestedges[child] == nil {
			for _, leaf := range s.leaves(child) {
				list := make([]int, 0, len(s.neighbend[leaf]))
				for _, p := range s.neighbend[leaf] {
					list = append(list, p/2)
				}
				lists = append(lists, list)
			}
		} else {
			lists = [][]int{s.blossombestedges[child]}
		}
		for _, list := range lists {
			for _, e := range list {
				j := s.edges[e].v
				if s.inblossom[j] == b {
					j = s.edges[e].u
				}
				bj := s.inblossom[j]
				if bj != b && s.label[bj] == 1 && (bestedgeto[bj] == -1 || s.slack(e) < s.slack(bestedgeto[bj])) {
					bestedgeto[bj] = e
				}
			}
		}
		s.blossombestedges[child] = nil
		s.bestedge[child] = -1
	}

	best := make([]int, 0)
	for _, e := range bestedgeto {
		if e != -1 {
			best = append(best, e)
		}
	}
	s.blossombestedges[b] = best
	s.bestedge[b] = -1
	for _, e := range best {
		if s.bestedge[b] == -1 || s.slack(e) < s.slack(s.bestedge[b]) {
			s.bestedge[b] = e
		}
	}
}

func (s *blossomSolver) expandBlossom(b int, endstage bool) {
	for _, child := range s.blossomchilds[b] {
		s.blossomparent[child] = -1
		switch {
		case child < s.n:
			s.inblossom[child] = child
		case endstage && s.dualvar[child] == 0:
			s.expandBlossom(child, endstage)
		default:
			for _, leaf := range s.leaves(child) {
				s.inblossom[leaf] = child
			}
		}
	}

	if !endstage && s.label[b] == 2 {
		childs := s.blossomchilds[b]
		endps := s.blossomendps[b]
		size := len(childs)
		at := func(i int) int { return ((i % size) + size) % size }

		entrychild := s.inblossom[s.endpoint[s.labelend[b]^1]]
		j := indexOf(childs, entrychild)
		jstep, endptrick := -1, 1
		if j&1 != 0 {
			j -= size
			jstep, endptrick = 1, 0
		}

		p := s.labelend[b]
		for j != 0 {
			s.label[s.endpoint[p^1]] = 0
			s.label[s.endpoint[endps[at(j-endptrick)]^endptrick^1]] = 0
			s.assignLabel(s.endpoint[p^1], 2, p)
			s.allowedge[endps[at(j-endptrick)]/2] = true
			j += jstep
			p = endps[at(j-endptrick)] ^ endptrick
			s.allowedge[p/2] = true
			j += jstep
		}

		bv := childs[at(j)]
		s.label[s.endpoint[p^1]] = 2
		s.label[bv] = 2
		s.labelend[s.endpoint[p^1]] = p
		s.labelend[bv] = p
		s.bestedge[bv] = -1
		j += jstep

		for childs[at(j)] != entrychild {
			bv = childs[at(j)]
			if s.label[bv] == 1 {
				j += jstep
				continue
			}
			reached := -1
			for _, leaf := range s.leaves(bv) {
				if s.label[leaf] != 0 {
					reached = leaf
					break
				}
			}
			if reached != -1 {
				s.label[reached] = 0
				s.label[s.endpoint[s.mate[s.blossombase[bv]]]] = 0
				s.assignLabel(reached, 2, s.labelend[reached])
			}
			j += jstep
		}
	}

	s.label[b] = -1
	s.labelend[b] = -1
	s.blossomchilds[b] = nil
	s.blossomendps[b] = nil
	s.blossombase[b] = -1
	s.blossombestedges[b] = nil
	s.bestedge[b] = -1
	s.unusedblossoms = append(s.unusedblossoms, b)
}

// augmentBlossom flips the matched edges along the even path inside blossom b from
// vertex v to the base, then rotates the child list so v's sub-blossom is the base.
func (s *blossomSolver) augmentBlossom(b, v int) {
	t := v
	for s.blossomparent[t] != b {
		t = s.blossomparent[t]
	}
	if t >= s.n {
		s.augmentBlossom(t, v)
	}

	childs := s.blossomchilds[b]
	endps := s.blossomendps[b]
	size := len(childs)
	at := func(i int) int { return ((i % size) + size) % size }

	i := indexOf(childs, t)
	j := i
	jstep, endptrick := -1, 1
	if i&1 != 0 {
		j -= size
		jstep, endptrick = 1, 0
	}
	for j != 0 {
		j += jstep
		t = childs[at(j)]
		p := endps[at(j-endptrick)] ^ endptrick
		if t >= s.n {
			s.augmentBlossom(t, s.endpoint[p])
		}
		j += jstep
		t = childs[at(j)]
		if t >= s.n {
			s.augmentBlossom(t, s.endpoint[p^1])
		}
		s.mate[s.endpoint[p]] = p ^ 1
		s.mate[s.endpoint[p^1]] = p
	}

	s.blossomchilds[b] = rotate(childs, i)
	s.blossomendps[b] = rotate(endps, i)
	s.blossombase[b] = s.blossombase[s.blossomchilds[b][0]]
}

func (s *blossomSolver) augmentMatching(k int) {
	e := s.edges[k]
	starts := [2][2]int{{e.u, 2*k + 1}, {e.v, 2 * k}}
	for _, start := range starts {
		sv, p := start[0], start[1]
		for {
			bs := s.inblossom[sv]
			if bs >= s.n {
				s.augmentBlossom(bs, sv)
			}
			s.mate[sv] = p
			if s.labelend[bs] == -1 {
				// reached a tree root
				break
			}
			t := s.endpoint[s.labelend[bs]]
			bt := s.inblossom[t]
			sv = s.endpoint[s.labelend[bt]]
			j := s.endpoint[s.labelend[bt]^1]
			if bt >= s.n {
				s.augmentBlossom(bt, j)
			}
			s.mate[j] = s.labelend[bt]
			p = s.labelend[bt] ^ 1
		}
	}
}

func (s *blossomSolver) run() {
	n := s.n
	for stage := 0; stage < n; stage++ {
		for i := range s.label {
			s.label[i] = 0
			s.bestedge[i] = -1
		}
		for b := n; b < 2*n; b++ {
			s.blossombestedges[b] = nil
		}
		for k := range s.allowedge {
			s.allowedge[k] = false
		}
		s.queue = s.queue[:0]

		for v := 0; v < n; v++ {
			if s.mate[v] == -1 && s.label[s.inblossom[v]] == 0 {
				s.assignLabel(v, 1, -1)
			}
		}

		augmented := false
	substage:
		for {
			for len(s.queue) > 0 && !augmented {
				v := s.queue[len(s.queue)-1]
				s.queue = s.queue[:len(s.queue)-1]

				for _, p := range s.neighbend[v] {
					k := p / 2
					w := s.endpoint[p]
					if s.inblossom[v] == s.inblossom[w] {
						continue
					}
					var kslack int64
					if !s.allowedge[k] {
						kslack = s.slack(k)
						if kslack <= 0 {
							s.allowedge[k] = true
						}
					}
					switch {
					case s.allowedge[k]:
						switch {
						case s.label[s.inblossom[w]] == 0:
							s.assignLabel(w, 2, p^1)
						case s.label[s.inblossom[w]] == 1:
							if base := s.scanBlossom(v, w); base >= 0 {
								s.addBlossom(base, k)
							} else {
								s.augmentMatching(k)
								augmented = true
							}
						case s.label[w] == 0:
							s.label[w] = 2
							s.labelend[w] = p ^ 1
						}
					case s.label[s.inblossom[w]] == 1:
						b := s.inblossom[v]
						if s.bestedge[b] == -1 || kslack < s.slack(s.bestedge[b]) {
							s.bestedge[b] = k
						}
					case s.label[w] == 0:
						if s.bestedge[w] == -1 || kslack < s.slack(s.bestedge[w]) {
							s.bestedge[w] = k
						}
					}
					if augmented {
						break
					}
				}
			}
			if augmented {
				break
			}

			deltatype := -1
			var delta int64
			deltaedge, deltablossom := -1, -1

			if !s.maxCardinality {
				deltatype = 1
				delta = minInt64(s.dualvar[:n])
			}
			for v := 0; v < n; v++ {
				if s.label[s.inblossom[v]] == 0 && s.bestedge[v] != -1 {
					d := s.slack(s.bestedge[v])
					if deltatype == -1 || d < delta {
						delta, deltatype, deltaedge = d, 2, s.bestedge[v]
					}
				}
			}
			for b := 0; b < 2*n; b++ {
				if s.blossomparent[b] == -1 && s.label[b] == 1 && s.bestedge[b] != -1 {
					d := s.slack(s.bestedge[b]) / 2
					if deltatype == -1 || d < delta {
						delta, deltatype, deltaedge = d, 3, s.bestedge[b]
					}
				}
			}
			for b := n; b < 2*n; b++ {
				if s.blossombase[b] >= 0 && s.blossomparent[b] == -1 && s.label[b] == 2 &&
					(deltatype == -1 || s.dualvar[b] < delta) {
					delta, deltatype, deltablossom = s.dualvar[b], 4, b
				}
			}
			if deltatype == -1 {
				// maximum cardinality reached; one last dual update towards optimality
				deltatype = 1
				delta = minInt64(s.dualvar[:n])
				if delta < 0 {
					delta = 0
				}
			}

			for v := 0; v < n; v++ {
				switch s.label[s.inblossom[v]] {
				case 1:
					s.dualvar[v] -= delta
				case 2:
					s.dualvar[v] += delta
				}
			}
			for b := n; b < 2*n; b++ {
				if s.blossombase[b] >= 0 && s.blossomparent[b] == -1 {
					switch s.label[b] {
					case 1:
						s.dualvar[b] += delta
					case 2:
						s.dualvar[b] -= delta
					}
				}
			}

			switch deltatype {
			case 1:
				break substage
			case 2:
				s.allowedge[deltaedge] = true
				i, j := s.edges[deltaedge].u, s.edges[deltaedge].v
				if s.label[s.inblossom[i]] == 0 {
					i = j
				}
				s.queue = append(s.queue, i)
			case 3:
				s.allowedge[deltaedge] = true
				s.queue = append(s.queue, s.edges[deltaedge].u)
			case 4:
				s.expandBlossom(deltablossom, false)
			}
		}

		if !augmented {
			break
		}
		for b := n; b < 2*n; b++ {
			if s.blossomparent[b] == -1 && s.blossombase[b] >= 0 && s.label[b] == 1 && s.dualvar[b] == 0 {
				s.expandBlossom(b, true)
			}
		}
	}
}

func minInt64(values []int64) int64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func indexOf(items []int, target int) int {
	for i, item := range items {
		if item == target {
			return i
		}
	}
	return -1
}

func reverseInts(items []int) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func rotate(items []int, i int) []int {
	out := make([]int, 0, len(items))
	out = append(out, items[i:]...)
	return append(out, items[:i]...)
}
