package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchingTotals(t *testing.T, n int, edges []WeightedEdge, mate []int) (int, float64) {
	t.Helper()
	require.Len(t, mate, n)
	best := make(map[[2]int]float64)
	for _, e := range edges {
		u, v := e.U, e.V
		if u > v {
			u, v = v, u
		}
		if w, ok := best[[2]int{u, v}]; !ok || e.Weight > w {
			best[[2]int{u, v}] = e.Weight
		}
	}
	count := 0
	total := 0.0
	for u, v := range mate {
		if v < 0 {
			continue
		}
		require.Equal(t, u, mate[v], "mate must be symmetric")
		if u < v {
			w, ok := best[[2]int{u, v}]
			require.True(t, ok, "matched pair %d-%d is not an edge", u, v)
			count++
			total += w
		}
	}
	return count, total
}

func bruteForce(n int, edges []WeightedEdge, maxCardinality bool) (int, float64) {
	used := make([]bool, n)
	bestCount, bestTotal := 0, 0.0
	var walk func(i, count int, total float64)
	walk = func(i, count int, total float64) {
		if i == len(edges) {
			better := total > bestTotal+1e-9
			if maxCardinality {
				better = count > bestCount || (count == bestCount && total > bestTotal+1e-9)
			}
			if better {
				bestCount, bestTotal = count, total
			}
			return
		}
		walk(i+1, count, total)
		e := edges[i]
		if e.U != e.V && !used[e.U] && !used[e.V] {
			used[e.U], used[e.V] = true, true
			walk(i+1, count+1, total+e.Weight)
			used[e.U], used[e.V] = false, false
		}
	}
	walk(0, 0, 0)
	return bestCount, bestTotal
}

func TestMaxWeightMatchingEmpty(t *testing.T) {
	assert.Equal(t, []int{}, MaxWeightMatching(0, nil, true))
	assert.Equal(t, []int{-1, -1, -1}, MaxWeightMatching(3, nil, true))
}

func TestMaxWeightMatchingSingleEdge(t *testing.T) {
	mate := MaxWeightMatching(2, []WeightedEdge{{U: 0, V: 1, Weight: 0}}, true)
	assert.Equal(t, []int{1, 0}, mate)
}

func TestMaxWeightMatchingPathKeepsHeavyEdge(t *testing.T) {
	// A=0, B=1, C=2
	mate := MaxWeightMatching(3, []WeightedEdge{{U: 0, V: 1, Weight: 100}, {U: 1, V: 2, Weight: 1}}, true)
	assert.Equal(t, []int{1, 0, -1}, mate)
}

func TestMaxWeightMatchingPrefersCardinality(t *testing.T) {
	edges := []WeightedEdge{
		{U: 0, V: 1, Weight: 1},
		{U: 1, V: 2, Weight: 100},
		{U: 2, V: 3, Weight: 1},
	}
	assert.Equal(t, []int{1, 0, 3, 2}, MaxWeightMatching(4, edges, true))
	assert.Equal(t, []int{-1, 2, 1, -1}, MaxWeightMatching(4, edges, false))
}

func TestMaxWeightMatchingOddCycle(t *testing.T) {
	// triangle with a pendant vertex forces a blossom
	edges := []WeightedEdge{
		{U: 0, V: 1, Weight: 8},
		{U: 1, V: 2, Weight: 9},
		{U: 0, V: 2, Weight: 10},
		{U: 2, V: 3, Weight: 7},
	}
	mate := MaxWeightMatching(4, edges, true)
	count, total := matchingTotals(t, 4, edges, mate)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 15.0, total, 1e-9)
}

func TestMaxWeightMatchingNestedBlossoms(t *testing.T) {
	edges := []WeightedEdge{
		{U: 1, V: 2, Weight: 19}, {U: 1, V: 3, Weight: 20}, {U: 1, V: 8, Weight: 8},
		{U: 2, V: 3, Weight: 25}, {U: 2, V: 4, Weight: 18}, {U: 3, V: 5, Weight: 18},
		{U: 4, V: 5, Weight: 13}, {U: 4, V: 7, Weight: 7}, {U: 5, V: 6, Weight: 7},
	}
	mate := MaxWeightMatching(9, edges, false)
	assert.Equal(t, []int{-1, 8, 3, 2, 7, 6, 5, 4, 1}, mate)
}

func TestMaxWeightMatchingIgnoresInvalidEdges(t *testing.T) {
	edges := []WeightedEdge{
		{U: 0, V: 0, Weight: 50},
		{U: 0, V: 7, Weight: 50},
		{U: 0, V: 1, Weight: 2},
		{U: 1, V: 0, Weight: 3},
		{U: 1, V: 2, Weight: math.NaN()},
	}
	mate := MaxWeightMatching(3, edges, true)
	assert.Equal(t, []int{1, 0, -1}, mate)
}

func TestMaxWeightMatchingAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 300; iter++ {
		n := 2 + rng.Intn(7)
		var edges []WeightedEdge
		for u := 0; u < n; u++ {
			for v := u + 1; v < n; v++ {
				if rng.Float64() < 0.45 {
					w := float64(rng.Intn(2000)) / 100
					edges = append(edges, WeightedEdge{U: u, V: v, Weight: w})
				}
			}
		}
		if len(edges) > 14 {
			edges = edges[:14]
		}

		for _, maxCard := range []bool{true, false} {
			mate := MaxWeightMatching(n, edges, maxCard)
			count, total := matchingTotals(t, n, edges, mate)
			wantCount, wantTotal := bruteForce(n, edges, maxCard)
			if maxCard {
				require.Equal(t, wantCount, count, "iteration %d cardinality", iter)
			}
			require.InDelta(t, wantTotal, total, 1e-6, "iteration %d maxCardinality=%v", iter, maxCard)
		}
	}
}
