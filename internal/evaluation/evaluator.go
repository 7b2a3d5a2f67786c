package evaluation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/matching"
)

// Report is the outcome of evaluating one strategy.
type Report struct {
	Strategy  string          `json:"strategy"`
	K         int             `json:"k"`
	Hits      int             `json:"hits"`
	Precision float64         `json:"precision"`
	Pairs     []matching.Pair `json:"pairs"`
	Skipped   bool            `json:"skipped"`
	Reason    string          `json:"reason,omitempty"`
}

type pipeline interface {
	Run(ctx context.Context, users []matching.User, strategy matching.Strategy) (*matching.Result, error)
}

// Evaluator runs strategies over a fixed population and scores them.
type Evaluator struct {
	engine pipeline
	good   PairSet
	k      int
	logger *zap.Logger
}

// NewEvaluator builds an evaluator for the given good-pair set.
func NewEvaluator(engine pipeline, good PairSet, k int, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{engine: engine, good: good, k: k, logger: logger}
}

// Evaluate runs strategy over users. An unavailable embedding provider produces a
// skipped report instead of an error so the remaining strategies still run.
func (e *Evaluator) Evaluate(ctx context.Context, users []matching.User, strategy matching.Strategy) (Report, error) {
	report := Report{Strategy: strategy.Name(), K: e.k}
	result, err := e.engine.Run(ctx, users, strategy)
	if err != nil {
		if errors.Is(err, embedding.ErrProviderUnavailable) {
			e.logger.Warn("strategy skipped", zap.String("strategy", strategy.Name()), zap.Error(err))
			report.Skipped = true
			report.Reason = err.Error()
			return report, nil
		}
		return report, fmt.Errorf("run %s: %w", strategy.Name(), err)
	}
	report.Pairs = result.Pairs
	report.Hits = Hits(result.Pairs, e.good, e.k)
	report.Precision = PrecisionAtK(result.Pairs, e.good, e.k)
	e.logger.Info("strategy evaluated",
		zap.String("strategy", report.Strategy),
		zap.Int("k", report.K),
		zap.Int("pairs", len(report.Pairs)),
		zap.Float64("precision", report.Precision),
	)
	return report, nil
}
