package matching

import "sort"

// Pair is a recommended pairing of two people. UserA sorts before UserB.
type Pair struct {
	UserA  string  `json:"userA"`
	UserB  string  `json:"userB"`
	Weight float64 `json:"weight"`
}

// Key returns the canonical identity of the pair.
func (p Pair) Key() [2]string { return [2]string{p.UserA, p.UserB} }

// CanonicalPair orders two identities lexicographically.
func CanonicalPair(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Assemble turns matched role-node edges into person pairs. A pair reached through
// more than one edge keeps its largest weight. The result is ordered by weight
// descending, then by UserA and UserB ascending.
func Assemble(edges []Edge) []Pair {
	if len(edges) == 0 {
		return []Pair{}
	}
	index := make(map[[2]string]int, len(edges))
	pairs := make([]Pair, 0, len(edges))
	for _, e := range edges {
		key := CanonicalPair(e.Teacher.UserID, e.Learner.UserID)
		if i, ok := index[key]; ok {
			if e.Weight > pairs[i].Weight {
				pairs[i].Weight = e.Weight
			}
			continue
		}
		index[key] = len(pairs)
		pairs = append(pairs, Pair{UserA: key[0], UserB: key[1], Weight: e.Weight})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Weight != pairs[j].Weight {
			return pairs[i].Weight > pairs[j].Weight
		}
		if pairs[i].UserA != pairs[j].UserA {
			return pairs[i].UserA < pairs[j].UserA
		}
		return pairs[i].UserB < pairs[j].UserB
	})
	return pairs
}
