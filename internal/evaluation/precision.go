// Package evaluation scores ranked matching output against labelled ground truth.
package evaluation

import (
	"github.com/noah-isme/skillbridge-matcher/internal/matching"
)

// DefaultMinScore is the label score at which a pair counts as good.
const DefaultMinScore = 2

// Label is one hand-scored pair from a ground-truth file.
type Label struct {
	Pair  [2]string
	Score float64
}

// PairSet is a set of canonical pairs.
type PairSet map[[2]string]struct{}

// Contains reports whether the canonical form of (a, b) is in the set.
func (s PairSet) Contains(a, b string) bool {
	_, ok := s[matching.CanonicalPair(a, b)]
	return ok
}

// GoodPairs returns the canonical pairs whose label score is at least minScore.
func GoodPairs(labels []Label, minScore float64) PairSet {
	good := make(PairSet, len(labels))
	for _, l := range labels {
		if l.Score >= minScore {
			good[matching.CanonicalPair(l.Pair[0], l.Pair[1])] = struct{}{}
		}
	}
	return good
}

// PrecisionAtK is the share of the top k ranked pairs found in good. The divisor is
// always k, even when fewer than k pairs were ranked; k <= 0 yields 0.
func PrecisionAtK(ranked []matching.Pair, good PairSet, k int) float64 {
	if k <= 0 {
		return 0
	}
	return float64(Hits(ranked, good, k)) / float64(k)
}

// Hits counts the top k ranked pairs found in good.
func Hits(ranked []matching.Pair, good PairSet, k int) int {
	if k > len(ranked) {
		k = len(ranked)
	}
	hits := 0
	for _, p := range ranked[:max(k, 0)] {
		if good.Contains(p.UserA, p.UserB) {
			hits++
		}
	}
	return hits
}
