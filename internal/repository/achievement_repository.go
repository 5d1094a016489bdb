package repository

import (
	"context"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AchievementRepository handles achievement data access.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// CreateIfAbsent inserts a grant unless one already exists for the same
// (user, kind, exam-or-nil) triple. The unique index treats NULL exam IDs as
// equal, so cross-exam grants dedupe too. Returns true when newly created.
func (r *AchievementRepository) CreateIfAbsent(ctx context.Context, a *model.Achievement) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO achievements (user_id, kind, exam_id, description)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, kind, exam_id) DO NOTHING`,
		a.UserID, a.Kind, a.ExamID, a.Description)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser retrieves a user's achievements, newest first.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID int) ([]model.Achievement, error) {
	return r.list(ctx,
		`SELECT id, user_id, kind, exam_id, description, earned_at
		 FROM achievements WHERE user_id = $1
		 ORDER BY earned_at DESC`, userID)
}

// ListRecent retrieves the latest grants across all users.
func (r *AchievementRepository) ListRecent(ctx context.Context, limit int) ([]model.Achievement, error) {
	return r.list(ctx,
		`SELECT id, user_id, kind, exam_id, description, earned_at
		 FROM achievements
		 ORDER BY earned_at DESC
		 LIMIT $1`, limit)
}

func (r *AchievementRepository) list(ctx context.Context, query string, arg interface{}) ([]model.Achievement, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Kind, &a.ExamID,
			&a.Description, &a.EarnedAt); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// CountByUser returns how many achievements a user has earned.
func (r *AchievementRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM achievements WHERE user_id = $1`, userID,
	).Scan(&count)
	return count, err
}
