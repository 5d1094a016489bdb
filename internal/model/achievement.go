package model

import (
	"time"

	"github.com/google/uuid"
)

// AchievementKind enumerates the fixed set of grantable achievements.
// Values are stored as-is, so they stay lowercase snake_case on the wire.
type AchievementKind string

const (
	AchievementFirstPlace   AchievementKind = "first_place"
	AchievementTopThree     AchievementKind = "top_3"
	AchievementTopTen       AchievementKind = "top_10"
	AchievementPerfectScore AchievementKind = "perfect_score"
	AchievementSpeedDemon   AchievementKind = "speed_demon"
	AchievementConsistent   AchievementKind = "consistent"
)

// Achievement is an immutable, append-only grant. ExamID is nil for
// cross-exam kinds (currently only "consistent"). At most one grant exists
// per (user, kind, exam-or-nil); once granted it is never revoked.
type Achievement struct {
	ID          int64           `json:"id"`
	UserID      int             `json:"user_id"`
	Kind        AchievementKind `json:"kind"`
	ExamID      *uuid.UUID      `json:"exam_id,omitempty"`
	Description string          `json:"description"`
	EarnedAt    time.Time       `json:"earned_at"`
}
