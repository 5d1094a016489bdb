package service

import (
	"context"
	"errors"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
)

// Common ranking engine errors.
var (
	ErrExamNotFound   = errors.New("exam not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidOutcome = errors.New("invalid result outcome")
)

// The ranking engine reads and writes durable state only through the store
// interfaces below. Postgres implementations live in internal/repository;
// tests supply in-memory fakes. Lookups return (nil, nil) when no row exists.

// ResultStore persists per-exam leaderboard entries.
type ResultStore interface {
	GetByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) (*model.LeaderboardEntry, error)
	Insert(ctx context.Context, e *model.LeaderboardEntry) error
	// UpdateOutcome overwrites score, percentage and time-taken of an
	// existing entry. Rank is persisted separately via UpdateRanks.
	UpdateOutcome(ctx context.Context, e *model.LeaderboardEntry) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.LeaderboardEntry, error)
	ListByUser(ctx context.Context, userID int) ([]model.LeaderboardEntry, error)
	// UpdateRanks persists the Rank field of every given entry in one shot.
	UpdateRanks(ctx context.Context, examID uuid.UUID, entries []model.LeaderboardEntry) error
	CountByExam(ctx context.Context, examID uuid.UUID) (int, error)
	// CountTopRankedExams counts the distinct exams in which the user
	// currently holds a rank of maxRank or better.
	CountTopRankedExams(ctx context.Context, userID, maxRank int) (int, error)
	TopByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.RankedEntry, error)
}

// AggregateStore persists per-user lifetime aggregates.
type AggregateStore interface {
	GetByUser(ctx context.Context, userID int) (*model.GlobalLeaderboardEntry, error)
	// Upsert creates or fully overwrites the user's aggregate statistics.
	// GlobalRank is persisted separately via UpdateGlobalRanks.
	Upsert(ctx context.Context, e *model.GlobalLeaderboardEntry) error
	// ListQualifying returns all aggregates with total_exams > 0.
	ListQualifying(ctx context.Context) ([]model.GlobalLeaderboardEntry, error)
	UpdateGlobalRanks(ctx context.Context, entries []model.GlobalLeaderboardEntry) error
	TopGlobal(ctx context.Context, limit int) ([]model.GlobalRankedEntry, error)
}

// AchievementStore persists achievement grants.
type AchievementStore interface {
	// CreateIfAbsent inserts the grant unless one already exists for the
	// same (user, kind, exam-or-nil) triple. Returns true when the grant
	// was newly created. Losing a race to a concurrent grant is not an
	// error, only a false return.
	CreateIfAbsent(ctx context.Context, a *model.Achievement) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]model.Achievement, error)
	ListRecent(ctx context.Context, limit int) ([]model.Achievement, error)
	CountByUser(ctx context.Context, userID int) (int, error)
}

// ExamStore is the slice of exam metadata the ranking engine needs.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// UserStore is the slice of user data the ranking engine needs.
type UserStore interface {
	Exists(ctx context.Context, userID int) (bool, error)
}
