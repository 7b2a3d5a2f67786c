package service

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/pkg/jobs"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runTotal        *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runPairs        *prometheus.HistogramVec
	runEdges        *prometheus.HistogramVec
	embedTotal      *prometheus.CounterVec
	embedDuration   *prometheus.HistogramVec
	searchTotal     *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	queueMu sync.RWMutex
	queues  map[string]func() jobs.Stats

	cacheHitCount   uint64
	cacheMissCount  uint64
	requestCount    uint64
	runCount        uint64
	runFailures     uint64
	pairsTotal      uint64
	embedCalls      uint64
	embedFailures   uint64
	searchCount     uint64
	runDurationNano uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		queues:   make(map[string]func() jobs.Stats),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_runs_total",
			Help: "Matching runs by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matching_run_duration_seconds",
			Help:    "Wall time of successful matching runs",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		runPairs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matching_run_pairs",
			Help:    "Recommended pairs produced per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"strategy"}),
		runEdges: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matching_run_candidate_edges",
			Help:    "Candidate edges scored per run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"strategy"}),
		embedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Embedding batches by provider and outcome",
		}, []string{"provider", "outcome"}),
		embedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Latency of embedding batches",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skill_search_requests_total",
			Help: "Skill searches by mode and outcome",
		}, []string{"mode", "outcome"}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "embedding_cache_hit_ratio",
			Help: "Ratio of embedding cache hits to total lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total embedding cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total embedding cache misses",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.runTotal, m.runDuration, m.runPairs, m.runEdges,
		m.embedTotal, m.embedDuration, m.searchTotal,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and additional collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TrackQueue exports the depth of a job queue and includes its counters in
// snapshots. Registering the same name twice is an error.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) error {
	if m == nil || stats == nil {
		return nil
	}
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "job_queue_pending",
		Help:        "Jobs waiting in an in-memory queue",
		ConstLabels: prometheus.Labels{"queue": name},
	}, func() float64 {
		return float64(stats().Pending)
	})
	if err := m.registry.Register(gauge); err != nil {
		return err
	}
	m.queueMu.Lock()
	m.queues[name] = stats
	m.queueMu.Unlock()
	return nil
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveMatchingRun records the outcome of one run. Pairs and edges are only
// meaningful for successful runs.
func (m *MetricsService) ObserveMatchingRun(strategy string, err error, pairs, edges int, duration time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.runCount, 1)
	if err != nil {
		m.runTotal.WithLabelValues(strategy, outcome(err)).Inc()
		atomic.AddUint64(&m.runFailures, 1)
		return
	}
	m.runTotal.WithLabelValues(strategy, "success").Inc()
	m.runDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.runPairs.WithLabelValues(strategy).Observe(float64(pairs))
	m.runEdges.WithLabelValues(strategy).Observe(float64(edges))
	atomic.AddUint64(&m.pairsTotal, uint64(pairs))
	atomic.AddUint64(&m.runDurationNano, uint64(duration.Nanoseconds()))
}

// ObserveEmbedding records one embedding batch.
func (m *MetricsService) ObserveEmbedding(provider string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.embedCalls, 1)
	if err != nil {
		atomic.AddUint64(&m.embedFailures, 1)
	}
	m.embedTotal.WithLabelValues(provider, outcome(err)).Inc()
	m.embedDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveSearch records one skill search.
func (m *MetricsService) ObserveSearch(mode string, err error) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.searchCount, 1)
	m.searchTotal.WithLabelValues(mode, outcome(err)).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// Snapshot returns aggregated counters for the metrics summary endpoint.
func (m *MetricsService) Snapshot() dto.MetricsSnapshot {
	if m == nil {
		return dto.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	runs := atomic.LoadUint64(&m.runCount)
	failures := atomic.LoadUint64(&m.runFailures)

	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	var avgRunMs float64
	if ok := runs - failures; ok > 0 {
		avgRunMs = float64(atomic.LoadUint64(&m.runDurationNano)) / float64(ok) / float64(time.Millisecond)
	}

	var queues map[string]jobs.Stats
	m.queueMu.RLock()
	if len(m.queues) > 0 {
		queues = make(map[string]jobs.Stats, len(m.queues))
		for name, stats := range m.queues {
			queues[name] = stats()
		}
	}
	m.queueMu.RUnlock()

	return dto.MetricsSnapshot{
		Queues:              queues,
		RequestsTotal:       atomic.LoadUint64(&m.requestCount),
		MatchingRuns:        runs,
		MatchingRunFailures: failures,
		PairsRecommended:    atomic.LoadUint64(&m.pairsTotal),
		AverageRunMs:        avgRunMs,
		EmbeddingCalls:      atomic.LoadUint64(&m.embedCalls),
		EmbeddingFailures:   atomic.LoadUint64(&m.embedFailures),
		Searches:            atomic.LoadUint64(&m.searchCount),
		CacheHitRatio:       ratio,
		Goroutines:          runtime.NumGoroutine(),
		GeneratedAt:         time.Now().UTC(),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case isUnavailable(err):
		return "unavailable"
	case isTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

// instrumentedProvider reports every embedding batch to the metrics service.
type instrumentedProvider struct {
	next    embedding.Provider
	metrics *MetricsService
}

// InstrumentProvider wraps p so each Embed call is timed and counted.
func InstrumentProvider(p embedding.Provider, metrics *MetricsService) embedding.Provider {
	if p == nil || metrics == nil {
		return p
	}
	return &instrumentedProvider{next: p, metrics: metrics}
}

func (p *instrumentedProvider) Name() string { return p.next.Name() }

func (p *instrumentedProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	start := time.Now()
	vectors, err := p.next.Embed(ctx, texts)
	p.metrics.ObserveEmbedding(p.next.Name(), err, time.Since(start))
	return vectors, err
}
