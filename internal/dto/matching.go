package dto

import (
	"time"

	"github.com/noah-isme/skillbridge-matcher/internal/matching"
	"github.com/noah-isme/skillbridge-matcher/internal/models"
)

// RunMatchingRequest starts a matching run over all active profiles.
type RunMatchingRequest struct {
	Strategy            string   `json:"strategy" validate:"omitempty,oneof=lexical semantic"`
	SimilarityThreshold *float64 `json:"similarityThreshold" validate:"omitempty,gte=-1,lte=1"`
	Limit               int      `json:"limit" validate:"omitempty,gte=1,lte=10000"`
	Persist             *bool    `json:"persist"`
}

// RankedPair is one recommended pair with its position in the run.
type RankedPair struct {
	Rank   int     `json:"rank"`
	UserA  string  `json:"userA"`
	UserB  string  `json:"userB"`
	Weight float64 `json:"weight"`
}

// MatchRunStats mirrors the engine statistics with a JSON friendly duration.
type MatchRunStats struct {
	Users      int   `json:"users"`
	Nodes      int   `json:"nodes"`
	Edges      int   `json:"edges"`
	Matched    int   `json:"matched"`
	DurationMS int64 `json:"durationMs"`
}

// MatchRunResponse describes a run and, once completed, its ranked pairs.
type MatchRunResponse struct {
	RunID       string                `json:"runId"`
	Status      models.MatchRunStatus `json:"status"`
	Strategy    string                `json:"strategy"`
	Pairs       []RankedPair          `json:"pairs"`
	Stats       *MatchRunStats        `json:"stats,omitempty"`
	Persisted   bool                  `json:"persisted"`
	Error       string                `json:"error,omitempty"`
	SubmittedAt time.Time             `json:"submittedAt"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
}

// RankPairs numbers pairs from 1 and truncates to limit when limit > 0.
func RankPairs(pairs []matching.Pair, limit int) []RankedPair {
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]RankedPair, len(pairs))
	for i, p := range pairs {
		out[i] = RankedPair{Rank: i + 1, UserA: p.UserA, UserB: p.UserB, Weight: p.Weight}
	}
	return out
}

// StatsFrom converts engine statistics.
func StatsFrom(s matching.Stats) *MatchRunStats {
	return &MatchRunStats{
		Users:      s.Users,
		Nodes:      s.Nodes,
		Edges:      s.Edges,
		Matched:    s.Matched,
		DurationMS: s.Duration.Milliseconds(),
	}
}

// UserMatch is a persisted match seen from one member's side.
type UserMatch struct {
	MatchID   string             `json:"matchId"`
	RunID     string             `json:"runId"`
	PartnerID string             `json:"partnerId"`
	Weight    float64            `json:"weight"`
	Rank      int                `json:"rank"`
	Strategy  string             `json:"strategy"`
	Status    models.MatchStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}
