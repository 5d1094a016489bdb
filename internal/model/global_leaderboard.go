package model

import "time"

// GlobalLeaderboardEntry is a user's lifetime statistics derived entirely
// from their LeaderboardEntry set. It is a materialized view: every field is
// recomputed from scratch whenever any of the user's results change.
// GlobalRank is nil until the user has at least one counted exam.
type GlobalLeaderboardEntry struct {
	UserID           int       `json:"user_id"`
	TotalExams       int       `json:"total_exams"`
	TotalScore       float64   `json:"total_score"`
	AverageScore     float64   `json:"average_score"`
	BestScore        float64   `json:"best_score"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
	GlobalRank       *int      `json:"global_rank,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GlobalRankedEntry is a global leaderboard row joined with the user's
// identity, as served to presentation layers.
type GlobalRankedEntry struct {
	GlobalRank       int     `json:"global_rank"`
	UserID           int     `json:"user_id"`
	Username         string  `json:"username"`
	TotalExams       int     `json:"total_exams"`
	AverageScore     float64 `json:"average_score"`
	BestScore        float64 `json:"best_score"`
	TotalTimeSeconds int     `json:"total_time_seconds"`
}
