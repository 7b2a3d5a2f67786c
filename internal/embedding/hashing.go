package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// ProviderHashing names the offline feature-hashing provider.
const ProviderHashing = "hashing"

const defaultHashingDimensions = 384

// HashingProvider embeds text by hashing word tokens and character trigrams into
// a fixed number of buckets. It needs no model and is deterministic across runs.
type HashingProvider struct {
	dimensions int
}

// NewHashingProvider builds a hashing provider; non-positive dimensions fall back
// to 384.
func NewHashingProvider(dimensions int) *HashingProvider {
	if dimensions <= 0 {
		dimensions = defaultHashingDimensions
	}
	return &HashingProvider{dimensions: dimensions}
}

// Name implements Provider.
func (p *HashingProvider) Name() string { return ProviderHashing }

// Dimensions reports the vector length.
func (p *HashingProvider) Dimensions() int { return p.dimensions }

// Embed implements Provider.
func (p *HashingProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = p.embedOne(text)
	}
	return vectors, nil
}

func (p *HashingProvider) embedOne(text string) []float64 {
	vec := make([]float64, p.dimensions)
	for _, token := range tokenize(text) {
		p.add(vec, "w:"+token, 1)
		padded := " " + token + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			p.add(vec, "g:"+string(runes[i:i+3]), 0.5)
		}
	}
	return Normalize(vec)
}

func (p *HashingProvider) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(p.dimensions))
	// the top bit picks a sign so collisions cancel instead of piling up
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
