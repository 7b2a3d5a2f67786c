package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Similarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Similarity([]float64{1, 1}, []float64{-1, -1}), 1e-9)
	assert.Equal(t, 0.0, Similarity([]float64{0, 0}, []float64{1, 0}))
	assert.InDelta(t, 1.0, Similarity([]float64{1}, []float64{1, 0, 0}), 1e-9)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
}

func TestLexicalProviderExactMatchOnly(t *testing.T) {
	p := NewLexicalProvider()
	vectors, err := p.Embed(context.Background(), []string{"python", "go", "python"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	more, err := p.Embed(context.Background(), []string{"Python"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, Similarity(vectors[0], vectors[2]))
	assert.Equal(t, 0.0, Similarity(vectors[0], vectors[1]))
	assert.Equal(t, 0.0, Similarity(vectors[0], more[0]))
}

func TestHashingProviderDeterministicAndUnit(t *testing.T) {
	p := NewHashingProvider(256)
	first, err := p.Embed(context.Background(), []string{"Machine Learning", "machine learning", "pottery"})
	require.NoError(t, err)
	second, err := NewHashingProvider(256).Embed(context.Background(), []string{"Machine Learning"})
	require.NoError(t, err)

	assert.Len(t, first[0], 256)
	assert.Equal(t, first[0], second[0])
	assert.InDelta(t, 1.0, norm(first[0]), 1e-9)
	assert.InDelta(t, 1.0, Similarity(first[0], first[1]), 1e-9)
	assert.Less(t, Similarity(first[0], first[2]), 0.55)
}

func TestHashingProviderDefaultsDimensions(t *testing.T) {
	assert.Equal(t, 384, NewHashingProvider(0).Dimensions())
}

type countingProvider struct {
	batches [][]string
	err     error
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	c.batches = append(c.batches, append([]string(nil), texts...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(len(texts[i])), 1}
	}
	return out, nil
}

func TestRunCacheEmbedsEachPhraseOnce(t *testing.T) {
	inner := &countingProvider{}
	cache := NewRunCache(inner)

	_, err := cache.Vectors(context.Background(), []string{"go", "sql", "go"})
	require.NoError(t, err)
	vectors, err := cache.Vectors(context.Background(), []string{"sql", "rust"})
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Equal(t, [][]string{{"go", "sql"}, {"rust"}}, inner.batches)
	assert.Equal(t, 2, cache.Calls())
	assert.Equal(t, 3, cache.Size())
}

func TestRunCachePropagatesProviderFailure(t *testing.T) {
	inner := &countingProvider{err: unavailable("model not loaded")}
	_, err := NewRunCache(inner).Vectors(context.Background(), []string{"go"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
}

type memoryStore struct {
	data map[string][]float64
	sets int
}

func (m *memoryStore) Get(_ context.Context, key string, dest interface{}) error {
	vec, ok := m.data[key]
	if !ok {
		return errors.New("miss")
	}
	*(dest.(*[]float64)) = vec
	return nil
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.data[key] = value.([]float64)
	m.sets++
	return nil
}

type hitCounter struct{ hits, misses int }

func (h *hitCounter) RecordCacheOperation(hit bool) {
	if hit {
		h.hits++
		return
	}
	h.misses++
}

func TestCachedProviderReadsThrough(t *testing.T) {
	inner := &countingProvider{}
	store := &memoryStore{data: map[string][]float64{}}
	counter := &hitCounter{}
	p := NewCachedProvider(inner, store, time.Hour, nil).WithObserver(counter)

	first, err := p.Embed(context.Background(), []string{"go", "sql"})
	require.NoError(t, err)
	second, err := p.Embed(context.Background(), []string{"sql", "go", "rust"})
	require.NoError(t, err)

	assert.Equal(t, first[0], second[1])
	assert.Equal(t, [][]string{{"go", "sql"}, {"rust"}}, inner.batches)
	assert.Equal(t, 3, store.sets)
	assert.Equal(t, "counting", p.Name())
	assert.Equal(t, 2, counter.hits)
	assert.Equal(t, 3, counter.misses)
}

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(Config{Provider: "lexical"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderLexical, p.Name())

	p, err = New(Config{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderHashing, p.Name())

	p, err = New(Config{Provider: "hashing", CacheEnabled: true}, &memoryStore{data: map[string][]float64{}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CachedProvider{}, p)

	_, err = New(Config{Provider: "http"}, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Provider: "word2vec"}, nil, nil)
	assert.Error(t, err)
}

func TestNewKeepsLexicalVectorsOutOfSharedStore(t *testing.T) {
	store := &memoryStore{data: map[string][]float64{}}
	cfg := Config{Provider: ProviderLexical, CacheEnabled: true}

	first, err := New(cfg, store, nil)
	require.NoError(t, err)
	assert.IsType(t, &LexicalProvider{}, first)
	_, err = first.Embed(context.Background(), []string{"go"})
	require.NoError(t, err)

	restarted, err := New(cfg, store, nil)
	require.NoError(t, err)
	vectors, err := restarted.Embed(context.Background(), []string{"piano", "go"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, Similarity(vectors[0], vectors[1]))
	assert.Zero(t, store.sets)
}
