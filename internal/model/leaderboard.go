package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is a user's best recorded outcome for one exam, carrying
// a dense rank among that exam's participants. At most one entry exists per
// (exam, user) pair; ranks within an exam always form the sequence 1..N.
type LeaderboardEntry struct {
	ID               int64     `json:"id"`
	ExamID           uuid.UUID `json:"exam_id"`
	UserID           int       `json:"user_id"`
	Score            float64   `json:"score"`
	Percentage       float64   `json:"percentage"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	Rank             int       `json:"rank"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RankedEntry is a leaderboard row joined with the participant's identity,
// as served to presentation layers.
type RankedEntry struct {
	Rank             int     `json:"rank"`
	UserID           int     `json:"user_id"`
	Username         string  `json:"username"`
	Score            float64 `json:"score"`
	Percentage       float64 `json:"percentage"`
	TimeTakenSeconds int     `json:"time_taken_seconds"`
}
