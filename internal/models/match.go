package models

import "time"

// MatchStatus tracks whether a recommended pair was taken up.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusDeclined MatchStatus = "declined"
)

// Match is a persisted recommendation produced by a matching run.
type Match struct {
	ID        string      `db:"id" json:"id"`
	RunID     string      `db:"run_id" json:"run_id"`
	UserA     string      `db:"user_a" json:"user_a"`
	UserB     string      `db:"user_b" json:"user_b"`
	Weight    float64     `db:"weight" json:"weight"`
	Rank      int         `db:"rank" json:"rank"`
	Strategy  string      `db:"strategy" json:"strategy"`
	Status    MatchStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// MatchRunStatus is the lifecycle of a matching run.
type MatchRunStatus string

const (
	MatchRunQueued    MatchRunStatus = "queued"
	MatchRunRunning   MatchRunStatus = "running"
	MatchRunCompleted MatchRunStatus = "completed"
	MatchRunFailed    MatchRunStatus = "failed"
)
