package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/pkg/jobs"
)

func TestMetricsServiceMatchingRunOutcomes(t *testing.T) {
	m := NewMetricsService()
	m.ObserveMatchingRun("lexical", nil, 4, 10, 30*time.Millisecond)
	m.ObserveMatchingRun("semantic", fmt.Errorf("prepare: %w", embedding.ErrProviderUnavailable), 0, 0, time.Millisecond)
	m.ObserveMatchingRun("lexical", context.DeadlineExceeded, 0, 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runTotal.WithLabelValues("lexical", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runTotal.WithLabelValues("semantic", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runTotal.WithLabelValues("lexical", "timeout")))

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.MatchingRuns)
	assert.Equal(t, uint64(2), snap.MatchingRunFailures)
	assert.Equal(t, uint64(4), snap.PairsRecommended)
	assert.InDelta(t, 30.0, snap.AverageRunMs, 0.001)
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(true)
	m.RecordCacheOperation(false)
	m.RecordCacheOperation(true)

	assert.InDelta(t, 0.75, testutil.ToFloat64(m.cacheHitRatio), 0.0001)
	assert.InDelta(t, 0.75, m.Snapshot().CacheHitRatio, 0.0001)
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
	m.ObserveSearch("learn", nil)
	m.RecordCacheOperation(true)
	assert.Equal(t, uint64(0), m.Snapshot().Searches)
}

func TestInstrumentProviderCountsBatches(t *testing.T) {
	m := NewMetricsService()
	p := InstrumentProvider(embedding.NewLexicalProvider(), m)
	assert.Equal(t, embedding.ProviderLexical, p.Name())

	_, err := p.Embed(context.Background(), []string{"Go", "Rust"})
	require.NoError(t, err)
	_, err = InstrumentProvider(downProvider{}, m).Embed(context.Background(), []string{"Go"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, embedding.ErrProviderUnavailable))

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.EmbeddingCalls)
	assert.Equal(t, uint64(1), snap.EmbeddingFailures)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.embedTotal.WithLabelValues("down", "unavailable")))
}

func TestMetricsServiceTrackQueue(t *testing.T) {
	m := NewMetricsService()
	stats := func() jobs.Stats { return jobs.Stats{Pending: 3, Succeeded: 7, GaveUp: 1} }

	require.NoError(t, m.TrackQueue("match-runs", stats))
	assert.Error(t, m.TrackQueue("match-runs", stats))

	snap := m.Snapshot()
	require.Contains(t, snap.Queues, "match-runs")
	assert.Equal(t, 3, snap.Queues["match-runs"].Pending)
	assert.Equal(t, uint64(7), snap.Queues["match-runs"].Succeeded)

	count, err := testutil.GatherAndCount(m.Registry(), "job_queue_pending")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
