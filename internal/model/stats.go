package model

import "github.com/google/uuid"

// ExamStatistics is the aggregate picture of one exam's submitted attempts.
type ExamStatistics struct {
	ExamID           uuid.UUID `json:"exam_id"`
	Title            string    `json:"title"`
	TotalAttempts    int       `json:"total_attempts"`
	AverageScore     float64   `json:"average_score"`
	HighestScore     float64   `json:"highest_score"`
	LowestScore      float64   `json:"lowest_score"`
	MedianScore      float64   `json:"median_score"`
	AveragePercent   float64   `json:"average_percentage"`
	AverageTimeTaken float64   `json:"average_time_seconds"`
	PassRate         float64   `json:"pass_rate"`
}

// UserExamResult is one row of a user's per-exam history.
type UserExamResult struct {
	ExamID     uuid.UUID `json:"exam_id"`
	Title      string    `json:"title"`
	Score      float64   `json:"score"`
	Percentage float64   `json:"percentage"`
	Rank       int       `json:"rank"`
	TimeTaken  int       `json:"time_taken_seconds"`
}

// PerformanceTrend labels the direction of a user's recent percentages.
type PerformanceTrend string

const (
	TrendImproving    PerformanceTrend = "IMPROVING"
	TrendDeclining    PerformanceTrend = "DECLINING"
	TrendStable       PerformanceTrend = "STABLE"
	TrendInsufficient PerformanceTrend = "INSUFFICIENT_DATA"
)

// UserSummary is a user's cross-exam performance report.
type UserSummary struct {
	UserID            int              `json:"user_id"`
	Username          string           `json:"username"`
	TotalExams        int              `json:"total_exams"`
	AverageScore      float64          `json:"average_score"`
	BestScore         float64          `json:"best_score"`
	BestRank          *int             `json:"best_rank"`
	GlobalRank        *int             `json:"global_rank"`
	TotalTimeSeconds  int              `json:"total_time_seconds"`
	AchievementsCount int              `json:"achievements_count"`
	Trend             PerformanceTrend `json:"trend"`
	RecentResults     []UserExamResult `json:"recent_results"`
}

// PlatformOverview is the admin-facing snapshot of platform activity.
type PlatformOverview struct {
	TotalUsers        int     `json:"total_users"`
	TotalExams        int     `json:"total_exams"`
	ActiveExams       int     `json:"active_exams"`
	TotalAttempts     int     `json:"total_attempts"`
	SubmittedAttempts int     `json:"submitted_attempts"`
	AverageScore      float64 `json:"average_score"`
	TotalAchievements int     `json:"total_achievements"`
}
