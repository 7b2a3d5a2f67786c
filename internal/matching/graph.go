package matching

// Role distinguishes the two virtual nodes every user contributes to the graph.
type Role uint8

const (
	RoleTeacher Role = iota + 1
	RoleLearner
)

func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleLearner:
		return "learner"
	default:
		return "unknown"
	}
}

// RoleNode identifies one side of one user for the duration of a run.
type RoleNode struct {
	UserID string
	Role   Role
}

// Edge is a scored teacher to learner candidate pairing.
type Edge struct {
	Teacher RoleNode
	Learner RoleNode
	Weight  float64
}

// Graph is the bipartite candidate graph handed to the solver. Only role nodes
// with at least one incident edge are present.
type Graph struct {
	nodes []RoleNode
	index map[RoleNode]int
	edges []Edge
	pairs map[[2]int]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[RoleNode]int),
		pairs: make(map[[2]int]int),
	}
}

// AddEdge connects teacherID's teacher node to learnerID's learner node. Self
// pairs and negative weights are rejected; a repeated pair keeps the larger weight.
func (g *Graph) AddEdge(teacherID, learnerID string, weight float64) bool {
	if teacherID == learnerID || weight < 0 {
		return false
	}
	t := g.node(RoleNode{UserID: teacherID, Role: RoleTeacher})
	l := g.node(RoleNode{UserID: learnerID, Role: RoleLearner})
	key := [2]int{t, l}
	if existing, ok := g.pairs[key]; ok {
		if weight > g.edges[existing].Weight {
			g.edges[existing].Weight = weight
		}
		return true
	}
	g.pairs[key] = len(g.edges)
	g.edges = append(g.edges, Edge{Teacher: g.nodes[t], Learner: g.nodes[l], Weight: weight})
	return true
}

// Edges returns the candidate edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of role nodes with at least one edge.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of candidate edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) node(n RoleNode) int {
	if idx, ok := g.index[n]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.index[n] = idx
	return idx
}

// BuildGraph scores every ordered pair of distinct candidates. The enumeration is
// O(n²) in the number of users and is the scalability ceiling of a run.
func BuildGraph(candidates []Candidate, strategy Strategy) *Graph {
	g := NewGraph()
	for i := range candidates {
		teacher := &candidates[i]
		if len(teacher.Teaches) == 0 {
			continue
		}
		for j := range candidates {
			if i == j {
				continue
			}
			learner := &candidates[j]
			if len(learner.Learns) == 0 {
				continue
			}
			if weight, ok := strategy.Score(teacher, learner); ok {
				g.AddEdge(teacher.ID, learner.ID, weight)
			}
		}
	}
	return g
}

// Solve returns a maximum-cardinality matching of g with the largest total weight
// among all matchings of that size.
func Solve(g *Graph) []Edge {
	if g == nil || len(g.edges) == 0 {
		return nil
	}
	input := make([]WeightedEdge, len(g.edges))
	for k, e := range g.edges {
		input[k] = WeightedEdge{
			U:      g.index[e.Teacher],
			V:      g.index[e.Learner],
			Weight: e.Weight,
		}
	}
	mate := MaxWeightMatching(len(g.nodes), input, true)

	matched := make([]Edge, 0, len(mate)/2)
	for u, v := range mate {
		if v < 0 || v < u {
			continue
		}
		k, ok := g.pairs[[2]int{u, v}]
		if !ok {
			k, ok = g.pairs[[2]int{v, u}]
		}
		if !ok {
			continue
		}
		matched = append(matched, g.edges[k])
	}
	return matched
}
