package embedding

import (
	"context"
	"sync"
)

// ProviderLexical names the exact-match stand-in provider.
const ProviderLexical = "lexical"

// LexicalProvider is a stand-in capability: every distinct phrase gets its own
// axis, so identical phrases have similarity 1 and different phrases 0.
type LexicalProvider struct {
	mu    sync.Mutex
	index map[string]int
}

// NewLexicalProvider returns an empty lexical provider.
func NewLexicalProvider() *LexicalProvider {
	return &LexicalProvider{index: make(map[string]int)}
}

// Name implements Provider.
func (p *LexicalProvider) Name() string { return ProviderLexical }

// Embed implements Provider.
func (p *LexicalProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		axis, ok := p.index[text]
		if !ok {
			axis = len(p.index)
			p.index[text] = axis
		}
		vec := make([]float64, axis+1)
		vec[axis] = 1
		vectors[i] = vec
	}
	return vectors, nil
}
