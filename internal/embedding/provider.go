// Package embedding turns skill phrases into unit vectors. Providers are injected
// into the matching and search paths; none of them is a process-wide singleton.
package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrProviderUnavailable marks a failure of the embedding capability itself, as
// opposed to phrases that simply do not resemble each other.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// Provider embeds a batch of texts. Implementations return exactly one vector per
// input text, in order, and wrap capability failures with ErrProviderUnavailable.
type Provider interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Similarity returns the cosine similarity of u and v in [-1, 1]. Vectors of
// different length are compared as if the shorter one were zero padded; a zero
// vector has similarity 0 with everything.
func Similarity(u, v []float64) float64 {
	n := len(u)
	if len(v) < n {
		n = len(v)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += u[i] * v[i]
	}
	nu, nv := norm(u), norm(v)
	if nu == 0 || nv == 0 {
		return 0
	}
	sim := dot / (nu * nv)
	switch {
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// Normalize scales v to unit length in place and returns it. Zero vectors are
// returned unchanged.
func Normalize(v []float64) []float64 {
	n := norm(v)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] /= n
	}
	return v
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func checkCount(texts []string, vectors [][]float64) error {
	if len(texts) != len(vectors) {
		return unavailable("provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return nil
}
