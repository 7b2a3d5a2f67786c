package dto

import (
	"time"

	"github.com/noah-isme/skillbridge-matcher/pkg/jobs"
)

// MetricsSnapshot is a JSON summary of process counters.
type MetricsSnapshot struct {
	RequestsTotal       uint64                `json:"requestsTotal"`
	MatchingRuns        uint64                `json:"matchingRuns"`
	MatchingRunFailures uint64                `json:"matchingRunFailures"`
	PairsRecommended    uint64                `json:"pairsRecommended"`
	AverageRunMs        float64               `json:"averageRunMs"`
	EmbeddingCalls      uint64                `json:"embeddingCalls"`
	EmbeddingFailures   uint64                `json:"embeddingFailures"`
	Searches            uint64                `json:"searches"`
	CacheHitRatio       float64               `json:"cacheHitRatio"`
	Goroutines          int                   `json:"goroutines"`
	Queues              map[string]jobs.Stats `json:"queues,omitempty"`
	GeneratedAt         time.Time             `json:"generatedAt"`
}
