package repository

import (
	"context"
	"errors"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GlobalLeaderboardRepository handles per-user lifetime aggregate data access.
type GlobalLeaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewGlobalLeaderboardRepository creates a new GlobalLeaderboardRepository.
func NewGlobalLeaderboardRepository(pool *pgxpool.Pool) *GlobalLeaderboardRepository {
	return &GlobalLeaderboardRepository{pool: pool}
}

// GetByUser retrieves a user's aggregate, or nil when absent.
func (r *GlobalLeaderboardRepository) GetByUser(ctx context.Context, userID int) (*model.GlobalLeaderboardEntry, error) {
	e := &model.GlobalLeaderboardEntry{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, total_exams, total_score, average_score, best_score,
		        total_time_seconds, global_rank, created_at, updated_at
		 FROM global_leaderboards WHERE user_id = $1`, userID,
	).Scan(&e.UserID, &e.TotalExams, &e.TotalScore, &e.AverageScore, &e.BestScore,
		&e.TotalTimeSeconds, &e.GlobalRank, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Upsert creates or fully overwrites a user's aggregate statistics.
func (r *GlobalLeaderboardRepository) Upsert(ctx context.Context, e *model.GlobalLeaderboardEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO global_leaderboards (user_id, total_exams, total_score, average_score, best_score, total_time_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_exams = EXCLUDED.total_exams,
		     total_score = EXCLUDED.total_score,
		     average_score = EXCLUDED.average_score,
		     best_score = EXCLUDED.best_score,
		     total_time_seconds = EXCLUDED.total_time_seconds,
		     updated_at = NOW()`,
		e.UserID, e.TotalExams, e.TotalScore, e.AverageScore, e.BestScore, e.TotalTimeSeconds)
	return err
}

// ListQualifying returns all aggregates with at least one completed exam.
func (r *GlobalLeaderboardRepository) ListQualifying(ctx context.Context) ([]model.GlobalLeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, total_exams, total_score, average_score, best_score,
		        total_time_seconds, global_rank, created_at, updated_at
		 FROM global_leaderboards WHERE total_exams > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.GlobalLeaderboardEntry
	for rows.Next() {
		var e model.GlobalLeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalExams, &e.TotalScore, &e.AverageScore,
			&e.BestScore, &e.TotalTimeSeconds, &e.GlobalRank, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateGlobalRanks bulk-persists the global rank of every given entry.
func (r *GlobalLeaderboardRepository) UpdateGlobalRanks(ctx context.Context, entries []model.GlobalLeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	userIDs := make([]int, 0, len(entries))
	ranks := make([]*int, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
		ranks = append(ranks, e.GlobalRank)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE global_leaderboards AS g
		SET global_rank = t.global_rank, updated_at = NOW()
		FROM (
			SELECT u.user_id, u.global_rank
			FROM UNNEST($1::int[], $2::int[]) AS u (user_id, global_rank)
		) AS t
		WHERE g.user_id = t.user_id
	`, userIDs, ranks)
	return err
}

// TopGlobal retrieves the top globally ranked users with usernames resolved.
func (r *GlobalLeaderboardRepository) TopGlobal(ctx context.Context, limit int) ([]model.GlobalRankedEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.global_rank, g.user_id, u.username, g.total_exams, g.average_score,
		        g.best_score, g.total_time_seconds
		 FROM global_leaderboards g
		 JOIN users u ON u.id = g.user_id
		 WHERE g.global_rank IS NOT NULL
		 ORDER BY g.global_rank
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.GlobalRankedEntry
	for rows.Next() {
		var e model.GlobalRankedEntry
		if err := rows.Scan(&e.GlobalRank, &e.UserID, &e.Username, &e.TotalExams,
			&e.AverageScore, &e.BestScore, &e.TotalTimeSeconds); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
