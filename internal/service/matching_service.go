package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/matching"
	"github.com/noah-isme/skillbridge-matcher/internal/models"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
	"github.com/noah-isme/skillbridge-matcher/pkg/jobs"
)

// JobTypeMatchRun identifies background matching runs on the queue.
const JobTypeMatchRun = "match_run"

type profileLister interface {
	ListActive(ctx context.Context) ([]models.UserProfile, error)
}

type matchStore interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, matches []models.Match) error
	ListByUser(ctx context.Context, userID string) ([]models.Match, error)
}

type matchEngine interface {
	Run(ctx context.Context, users []matching.User, strategy matching.Strategy) (*matching.Result, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type matchingMetrics interface {
	ObserveMatchingRun(strategy string, err error, pairs, edges int, duration time.Duration)
}

// MatchingServiceConfig carries the tunables of matching runs.
type MatchingServiceConfig struct {
	Policy          matching.Policy
	DefaultStrategy string
	RunTimeout      time.Duration
	ResultTTL       time.Duration
	PersistResults  bool
}

// MatchingService loads active profiles, runs the engine and keeps the ranked
// result around for polling. Persistence of pairs is optional.
type MatchingService struct {
	profiles  profileLister
	store     matchStore
	engine    matchEngine
	provider  embedding.Provider
	queue     jobDispatcher
	metrics   matchingMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       MatchingServiceConfig
	runs      *matchRunStore
	now       func() time.Time
}

// runPlan is the resolved form of a request, also used as the queue payload.
type runPlan struct {
	Strategy  string
	Threshold *float64
	Limit     int
	Persist   bool
}

// NewMatchingService wires the matching service. store, provider, queue and metrics
// may be nil.
func NewMatchingService(profiles profileLister, store matchStore, engine matchEngine, provider embedding.Provider, queue jobDispatcher, metrics matchingMetrics, validate *validator.Validate, logger *zap.Logger, cfg MatchingServiceConfig) *MatchingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = matching.StrategyLexical
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	if cfg.Policy == (matching.Policy{}) {
		cfg.Policy = matching.DefaultPolicy()
	}
	return &MatchingService{
		profiles:  profiles,
		store:     store,
		engine:    engine,
		provider:  provider,
		queue:     queue,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		runs:      newMatchRunStore(cfg.ResultTTL),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes a matching run synchronously and returns its ranked pairs.
func (s *MatchingService) Run(ctx context.Context, req dto.RunMatchingRequest) (*dto.MatchRunResponse, error) {
	plan, err := s.plan(req)
	if err != nil {
		return nil, err
	}
	run := s.register(plan, models.MatchRunRunning)
	resp, err := s.execute(ctx, run.RunID, plan)
	if err != nil {
		s.fail(run.RunID, err)
		return nil, err
	}
	return resp, nil
}

// Enqueue schedules a run on the background queue and returns its queued state.
func (s *MatchingService) Enqueue(ctx context.Context, req dto.RunMatchingRequest) (*dto.MatchRunResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrQueueUnavailable, "background matching is not configured")
	}
	plan, err := s.plan(req)
	if err != nil {
		return nil, err
	}
	run := s.register(plan, models.MatchRunQueued)
	if err := s.queue.Enqueue(jobs.Job{ID: run.RunID, Type: JobTypeMatchRun, Payload: plan}); err != nil {
		s.fail(run.RunID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrQueueUnavailable.Code, appErrors.ErrQueueUnavailable.Status, "failed to enqueue matching run")
	}
	s.logger.Info("matching run queued", zap.String("run_id", run.RunID), zap.String("strategy", plan.Strategy))
	return &run, nil
}

// Get returns a known run. Runs older than the result TTL are forgotten.
func (s *MatchingService) Get(_ context.Context, runID string) (*dto.MatchRunResponse, error) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "matching run not found")
	}
	return &run, nil
}

// MatchesForUser lists persisted matches involving userID.
func (s *MatchingService) MatchesForUser(ctx context.Context, userID string) ([]dto.UserMatch, error) {
	if s.store == nil {
		return nil, appErrors.ErrPersistenceDisabled
	}
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	matches, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matches")
	}
	out := make([]dto.UserMatch, 0, len(matches))
	for _, m := range matches {
		partner := m.UserB
		if m.UserB == userID {
			partner = m.UserA
		}
		out = append(out, dto.UserMatch{
			MatchID:   m.ID,
			RunID:     m.RunID,
			PartnerID: partner,
			Weight:    m.Weight,
			Rank:      m.Rank,
			Strategy:  m.Strategy,
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// MarkFailed records a run the queue gave up on.
func (s *MatchingService) MarkFailed(job jobs.Job, err error) {
	if job.Type != JobTypeMatchRun {
		return
	}
	s.fail(job.ID, err)
}

func (s *MatchingService) plan(req dto.RunMatchingRequest) (runPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return runPlan{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid matching request")
	}
	plan := runPlan{
		Strategy:  req.Strategy,
		Threshold: req.SimilarityThreshold,
		Limit:     req.Limit,
		Persist:   s.cfg.PersistResults,
	}
	if plan.Strategy == "" {
		plan.Strategy = s.cfg.DefaultStrategy
	}
	if req.Persist != nil {
		plan.Persist = *req.Persist
		if plan.Persist && s.store == nil {
			return runPlan{}, appErrors.ErrPersistenceDisabled
		}
	}
	if s.store == nil {
		plan.Persist = false
	}
	if _, err := s.strategy(plan); err != nil {
		return runPlan{}, translateError(err, "failed to resolve strategy")
	}
	return plan, nil
}

func (s *MatchingService) strategy(plan runPlan) (matching.Strategy, error) {
	policy := s.cfg.Policy
	if plan.Threshold != nil {
		policy.SimilarityThreshold = *plan.Threshold
	}
	strategy, err := matching.NewStrategy(plan.Strategy, policy, s.provider)
	if err != nil {
		if isUnavailable(err) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return strategy, nil
}

func (s *MatchingService) register(plan runPlan, status models.MatchRunStatus) dto.MatchRunResponse {
	run := dto.MatchRunResponse{
		RunID:       uuid.NewString(),
		Status:      status,
		Strategy:    plan.Strategy,
		Pairs:       []dto.RankedPair{},
		SubmittedAt: s.now(),
	}
	s.runs.Save(run)
	return run
}

func (s *MatchingService) fail(runID string, err error) {
	now := s.now()
	s.runs.Update(runID, func(run *dto.MatchRunResponse) {
		run.Status = models.MatchRunFailed
		run.Error = err.Error()
		run.CompletedAt = &now
	})
}

func (s *MatchingService) execute(ctx context.Context, runID string, plan runPlan) (*dto.MatchRunResponse, error) {
	strategy, err := s.strategy(plan)
	if err != nil {
		return nil, translateError(err, "failed to resolve strategy")
	}
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}
	s.runs.Update(runID, func(run *dto.MatchRunResponse) { run.Status = models.MatchRunRunning })

	profiles, err := s.profiles.ListActive(ctx)
	if err != nil {
		return nil, translateError(err, "failed to load profiles")
	}

	started := time.Now()
	result, err := s.engine.Run(ctx, models.ToMatchingUsers(profiles), strategy)
	if s.metrics != nil {
		pairs, edges := 0, 0
		if result != nil {
			pairs, edges = len(result.Pairs), result.Stats.Edges
		}
		s.metrics.ObserveMatchingRun(plan.Strategy, err, pairs, edges, time.Since(started))
	}
	if err != nil {
		s.logger.Warn("matching run failed", zap.String("run_id", runID), zap.String("strategy", plan.Strategy), zap.Error(err))
		return nil, translateError(err, "matching run failed")
	}

	ranked := dto.RankPairs(result.Pairs, plan.Limit)
	persisted := false
	if plan.Persist && len(ranked) > 0 {
		if err := s.persist(ctx, runID, result.Strategy, ranked); err != nil {
			return nil, translateError(err, "failed to persist matches")
		}
		persisted = true
	}

	completed := s.now()
	var resp dto.MatchRunResponse
	s.runs.Update(runID, func(run *dto.MatchRunResponse) {
		run.Status = models.MatchRunCompleted
		run.Strategy = result.Strategy
		run.Pairs = ranked
		run.Stats = dto.StatsFrom(result.Stats)
		run.Persisted = persisted
		run.Error = ""
		run.CompletedAt = &completed
		resp = *run
	})
	if resp.RunID == "" {
		resp = dto.MatchRunResponse{
			RunID:       runID,
			Status:      models.MatchRunCompleted,
			Strategy:    result.Strategy,
			Pairs:       ranked,
			Stats:       dto.StatsFrom(result.Stats),
			Persisted:   persisted,
			CompletedAt: &completed,
		}
	}
	return &resp, nil
}

func (s *MatchingService) persist(ctx context.Context, runID, strategy string, ranked []dto.RankedPair) (err error) {
	tx, err := s.store.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin match transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	matches := make([]models.Match, len(ranked))
	for i, p := range ranked {
		matches[i] = models.Match{
			RunID:    runID,
			UserA:    p.UserA,
			UserB:    p.UserB,
			Weight:   p.Weight,
			Rank:     p.Rank,
			Strategy: strategy,
		}
	}
	if err = s.store.InsertBatch(ctx, tx, matches); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit match transaction: %w", err)
	}
	return nil
}

// MatchRunWorker executes queued matching runs.
type MatchRunWorker struct {
	service *MatchingService
	logger  *zap.Logger
}

// NewMatchRunWorker constructs a worker.
func NewMatchRunWorker(service *MatchingService, logger *zap.Logger) *MatchRunWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchRunWorker{service: service, logger: logger}
}

// Handle processes a queue job. Returned errors are retried by the queue.
func (w *MatchRunWorker) Handle(ctx context.Context, job jobs.Job) error {
	plan, ok := job.Payload.(runPlan)
	if !ok {
		err := fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
		w.service.fail(job.ID, err)
		return nil
	}
	if _, err := w.service.execute(ctx, job.ID, plan); err != nil {
		w.logger.Warn("queued matching run failed", zap.String("run_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		return err
	}
	return nil
}
