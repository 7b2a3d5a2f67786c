package matching

import (
	"context"
	"fmt"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyLexical  = "lexical"
	StrategySemantic = "semantic"
)

// Policy holds the weighting constants folded into every edge weight.
type Policy struct {
	OverlapWeight       float64
	SimilarityWeight    float64
	RatingWeight        float64
	TimezoneMaxScore    float64
	SimilarityThreshold float64
}

// DefaultPolicy returns the stock weighting: 10 per shared skill, 100 per unit of
// similarity, the raw rating, up to 5 timezone points and a 0.55 similarity floor.
func DefaultPolicy() Policy {
	return Policy{
		OverlapWeight:       10,
		SimilarityWeight:    100,
		RatingWeight:        1,
		TimezoneMaxScore:    5,
		SimilarityThreshold: 0.55,
	}
}

// Strategy scores ordered (teacher, learner) pairs. Prepare runs once per matching
// run; Score must be a pure function of its two arguments.
type Strategy interface {
	Name() string
	Prepare(ctx context.Context, candidates []Candidate) error
	Score(teacher, learner *Candidate) (float64, bool)
}

// NewStrategy resolves a strategy by name. The provider is only required for the
// semantic strategy.
func NewStrategy(name string, policy Policy, provider embedding.Provider) (Strategy, error) {
	switch name {
	case "", StrategyLexical:
		return NewLexicalStrategy(policy), nil
	case StrategySemantic:
		if provider == nil {
			return nil, fmt.Errorf("semantic strategy: %w: no provider configured", embedding.ErrProviderUnavailable)
		}
		return NewSemanticStrategy(policy, provider), nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", name)
	}
}

// LexicalStrategy pairs people on exact, case-sensitive skill phrase overlap.
type LexicalStrategy struct {
	policy Policy
}

// NewLexicalStrategy builds a lexical strategy.
func NewLexicalStrategy(policy Policy) *LexicalStrategy {
	return &LexicalStrategy{policy: policy}
}

// Name implements Strategy.
func (s *LexicalStrategy) Name() string { return StrategyLexical }

// Prepare implements Strategy. Lexical scoring needs no preprocessing.
func (s *LexicalStrategy) Prepare(context.Context, []Candidate) error { return nil }

// Score implements Strategy.
func (s *LexicalStrategy) Score(teacher, learner *Candidate) (float64, bool) {
	overlap := 0
	for _, want := range learner.Learns {
		if _, ok := teacher.teachSet[want]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0, false
	}
	return s.policy.OverlapWeight*float64(overlap) + commonScore(s.policy, teacher, learner), true
}

// SemanticStrategy pairs people on the best cosine similarity between any taught
// and any desired phrase.
type SemanticStrategy struct {
	policy   Policy
	provider embedding.Provider
}

// NewSemanticStrategy builds a semantic strategy backed by provider.
func NewSemanticStrategy(policy Policy, provider embedding.Provider) *SemanticStrategy {
	return &SemanticStrategy{policy: policy, provider: provider}
}

// Name implements Strategy.
func (s *SemanticStrategy) Name() string { return StrategySemantic }

// Prepare embeds every candidate's phrases exactly once for the run. Provider
// failures are returned wrapped so callers can tell them apart from an empty result.
func (s *SemanticStrategy) Prepare(ctx context.Context, candidates []Candidate) error {
	cache := embedding.NewRunCache(s.provider)
	for i := range candidates {
		c := &candidates[i]
		teach, err := cache.Vectors(ctx, c.Teaches)
		if err != nil {
			return fmt.Errorf("embed taught skills for %s: %w", c.ID, err)
		}
		learn, err := cache.Vectors(ctx, c.Learns)
		if err != nil {
			return fmt.Errorf("embed desired skills for %s: %w", c.ID, err)
		}
		c.teachVectors = teach
		c.learnVectors = learn
	}
	return nil
}

// Score implements Strategy.
func (s *SemanticStrategy) Score(teacher, learner *Candidate) (float64, bool) {
	if len(teacher.teachVectors) == 0 || len(learner.learnVectors) == 0 {
		return 0, false
	}
	best := -1.0
	for _, t := range teacher.teachVectors {
		for _, l := range learner.learnVectors {
			if sim := embedding.Similarity(t, l); sim > best {
				best = sim
			}
		}
	}
	if best < s.policy.SimilarityThreshold {
		return 0, false
	}
	return s.policy.SimilarityWeight*best + commonScore(s.policy, teacher, learner), true
}

func commonScore(policy Policy, teacher, learner *Candidate) float64 {
	return policy.RatingWeight*teacher.Rating + offsetScore(teacher.Offset, learner.Offset, policy.TimezoneMaxScore)
}
