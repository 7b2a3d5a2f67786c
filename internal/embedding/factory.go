package embedding

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config selects and tunes a provider.
type Config struct {
	Provider     string
	URL          string
	Timeout      time.Duration
	Dimensions   int
	RateLimit    float64
	CacheEnabled bool
	CacheTTL     time.Duration
	// Observer, when set, is told about cache hits and misses.
	Observer CacheObserver
}

// New builds the provider named by cfg.Provider. When caching is enabled and a
// store is supplied the provider is wrapped with CachedProvider, unless its
// vectors only mean something inside this process.
func New(cfg Config, store VectorStore, logger *zap.Logger) (Provider, error) {
	var (
		provider Provider
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderHashing:
		provider = NewHashingProvider(cfg.Dimensions)
	case ProviderLexical:
		provider = NewLexicalProvider()
	case ProviderHTTP:
		provider, err = NewHTTPProvider(HTTPConfig{URL: cfg.URL, Timeout: cfg.Timeout, RateLimit: cfg.RateLimit}, nil, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if cfg.CacheEnabled && store != nil && shareable(provider) {
		provider = NewCachedProvider(provider, store, cfg.CacheTTL, logger).WithObserver(cfg.Observer)
	}
	return provider, nil
}

// shareable reports whether vectors from p can be reused by other processes.
// Lexical axes are assigned in first-seen order, so a cached vector would point
// at a different phrase after a restart.
func shareable(p Provider) bool {
	_, local := p.(*LexicalProvider)
	return !local
}
