package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProviderHTTP names the remote embedding service provider.
const ProviderHTTP = "http"

// HTTPConfig configures a remote embedding service client.
type HTTPConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float64 `json:"vectors"`
}

// HTTPProvider calls a remote service that accepts {"texts": [...]} and answers
// {"vectors": [[...], ...]}. Calls pass through a circuit breaker and an optional
// client-side rate limiter.
type HTTPProvider struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[][]float64]
	logger  *zap.Logger
}

// NewHTTPProvider builds an HTTP provider. A nil client gets one with cfg.Timeout.
func NewHTTPProvider(cfg HTTPConfig, client *http.Client, logger *zap.Logger) (*HTTPProvider, error) {
	if cfg.URL == "" {
		return nil, errors.New("embedding url is required for the http provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	p := &HTTPProvider{url: cfg.URL, client: client, logger: logger}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	threshold := cfg.FailureThreshold
	p.breaker = gobreaker.NewCircuitBreaker[[][]float64](gobreaker.Settings{
		Name:        "embedding-http",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellations are not service failures.
		IsSuccessful: func(err error) bool {
			return err == nil || callerGone(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("embedding circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p, nil
}

// Name implements Provider.
func (p *HTTPProvider) Name() string { return ProviderHTTP }

// Embed implements Provider. A cancelled or expired ctx is returned as ctx.Err();
// every other failure, including an open breaker, wraps ErrProviderUnavailable.
func (p *HTTPProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, wrapUnavailable("rate limiter", err)
		}
	}
	vectors, err := p.breaker.Execute(func() ([][]float64, error) {
		vectors, err := p.call(ctx, texts)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return vectors, err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, wrapUnavailable("circuit breaker", err)
	}
	return vectors, nil
}

// callerGone matches the bare ctx.Err() returned from Embed's breaker closure.
// Wrapped client timeouts do not match and still count as failures.
func callerGone(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}

// State reports the breaker state for diagnostics.
func (p *HTTPProvider) State() gobreaker.State { return p.breaker.State() }

func (p *HTTPProvider) call(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, wrapUnavailable("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapUnavailable("post", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable("embedding service returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var payload embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, wrapUnavailable("decode response", err)
	}
	if err := checkCount(texts, payload.Vectors); err != nil {
		return nil, err
	}
	for i := range payload.Vectors {
		Normalize(payload.Vectors[i])
	}
	return payload.Vectors, nil
}
