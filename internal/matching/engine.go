package matching

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Stats summarises one matching run.
type Stats struct {
	Users    int           `json:"users"`
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Matched  int           `json:"matched"`
	Duration time.Duration `json:"duration"`
}

// Result is the ranked output of a run.
type Result struct {
	Strategy string `json:"strategy"`
	Pairs    []Pair `json:"pairs"`
	Stats    Stats  `json:"stats"`
}

// Engine runs the scoring, graph, solver and assembly pipeline. It holds no state
// between runs and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine constructs an engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, now: time.Now}
}

// Run matches users with the given strategy. An empty result is not an error;
// embedding failures during preparation are returned wrapped.
func (e *Engine) Run(ctx context.Context, users []User, strategy Strategy) (*Result, error) {
	if strategy == nil {
		return nil, fmt.Errorf("matching: nil strategy")
	}
	started := e.now()

	candidates := normalizeUsers(users)
	if err := strategy.Prepare(ctx, candidates); err != nil {
		return nil, fmt.Errorf("prepare %s strategy: %w", strategy.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	graph := BuildGraph(candidates, strategy)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Debug("candidate graph built",
		zap.String("strategy", strategy.Name()),
		zap.Int("users", len(candidates)),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)

	matched := Solve(graph)
	pairs := Assemble(matched)

	result := &Result{
		Strategy: strategy.Name(),
		Pairs:    pairs,
		Stats: Stats{
			Users:    len(candidates),
			Nodes:    graph.NodeCount(),
			Edges:    graph.EdgeCount(),
			Matched:  len(pairs),
			Duration: e.now().Sub(started),
		},
	}
	e.logger.Info("matching run completed",
		zap.String("strategy", result.Strategy),
		zap.Int("users", result.Stats.Users),
		zap.Int("edges", result.Stats.Edges),
		zap.Int("pairs", result.Stats.Matched),
		zap.Duration("duration", result.Stats.Duration),
	)
	return result, nil
}
