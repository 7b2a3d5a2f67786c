package embedding

import (
	"context"
	"fmt"
)

// RunCache memoises phrase vectors for the lifetime of one matching run so that no
// phrase is sent to the provider twice. It is not safe for concurrent use.
type RunCache struct {
	provider Provider
	vectors  map[string][]float64
	calls    int
}

// NewRunCache wraps provider with an empty memo.
func NewRunCache(provider Provider) *RunCache {
	return &RunCache{provider: provider, vectors: make(map[string][]float64)}
}

// Vectors returns one vector per phrase, embedding only phrases not seen before.
func (c *RunCache) Vectors(ctx context.Context, phrases []string) ([][]float64, error) {
	if len(phrases) == 0 {
		return nil, nil
	}
	var missing []string
	queued := make(map[string]struct{})
	for _, phrase := range phrases {
		if _, ok := c.vectors[phrase]; ok {
			continue
		}
		if _, ok := queued[phrase]; ok {
			continue
		}
		queued[phrase] = struct{}{}
		missing = append(missing, phrase)
	}
	if len(missing) > 0 {
		embedded, err := c.provider.Embed(ctx, missing)
		c.calls++
		if err != nil {
			return nil, fmt.Errorf("embed %d phrases with %s: %w", len(missing), c.provider.Name(), err)
		}
		if err := checkCount(missing, embedded); err != nil {
			return nil, err
		}
		for i, phrase := range missing {
			c.vectors[phrase] = embedded[i]
		}
	}

	out := make([][]float64, len(phrases))
	for i, phrase := range phrases {
		out[i] = c.vectors[phrase]
	}
	return out, nil
}

// Calls reports how many batches were sent to the provider.
func (c *RunCache) Calls() int { return c.calls }

// Size reports how many distinct phrases are memoised.
func (c *RunCache) Size() int { return len(c.vectors) }
