package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/skillbridge-matcher/internal/matching"
)

// UserProfile is the skill-exchange view of a member.
type UserProfile struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Teaches   pq.StringArray  `db:"teaches" json:"teaches"`
	Learns    pq.StringArray  `db:"learns" json:"learns"`
	Rating    sql.NullFloat64 `db:"rating" json:"-"`
	Timezone  sql.NullString  `db:"timezone" json:"-"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ToMatchingUser converts the profile into engine input, defaulting a missing
// rating to 0 and a missing timezone to GMT+0.
func (p UserProfile) ToMatchingUser() matching.User {
	tz := matching.DefaultTimezone
	if p.Timezone.Valid && p.Timezone.String != "" {
		tz = p.Timezone.String
	}
	rating := 0.0
	if p.Rating.Valid {
		rating = p.Rating.Float64
	}
	return matching.User{
		ID:       p.ID,
		Teaches:  []string(p.Teaches),
		Learns:   []string(p.Learns),
		Rating:   rating,
		Timezone: tz,
	}
}

// ToMatchingUsers converts a slice of profiles.
func ToMatchingUsers(profiles []UserProfile) []matching.User {
	users := make([]matching.User, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, p.ToMatchingUser())
	}
	return users
}
