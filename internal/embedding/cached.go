package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
)

// VectorStore is the key/value cache CachedProvider reads through. Any Get error
// is treated as a miss.
type VectorStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheObserver is told about every cache lookup.
type CacheObserver interface {
	RecordCacheOperation(hit bool)
}

// CachedProvider decorates a provider with a shared vector cache keyed by provider
// name and phrase. Cache failures fall through to the wrapped provider.
type CachedProvider struct {
	next     Provider
	store    VectorStore
	ttl      time.Duration
	logger   *zap.Logger
	observer CacheObserver
}

// NewCachedProvider wraps next with store.
func NewCachedProvider(next Provider, store VectorStore, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{next: next, store: store, ttl: ttl, logger: logger}
}

// WithObserver attaches a hit/miss observer and returns p.
func (p *CachedProvider) WithObserver(o CacheObserver) *CachedProvider {
	p.observer = o
	return p
}

// Name implements Provider.
func (p *CachedProvider) Name() string { return p.next.Name() }

// Embed implements Provider.
func (p *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		var vec []float64
		if err := p.store.Get(ctx, p.key(text), &vec); err == nil && len(vec) > 0 {
			p.record(true)
			out[i] = vec
			continue
		}
		p.record(false)
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	embedded, err := p.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := checkCount(missTexts, embedded); err != nil {
		return nil, err
	}
	for j, vec := range embedded {
		out[missIdx[j]] = vec
		if err := p.store.Set(ctx, p.key(missTexts[j]), vec, p.ttl); err != nil {
			p.logger.Warn("failed to cache embedding", zap.Error(err))
		}
	}
	return out, nil
}

func (p *CachedProvider) record(hit bool) {
	if p.observer != nil {
		p.observer.RecordCacheOperation(hit)
	}
}

func (p *CachedProvider) key(text string) string {
	sum := sha1.Sum([]byte(text))
	return "embedding:" + p.next.Name() + ":" + hex.EncodeToString(sum[:])
}
