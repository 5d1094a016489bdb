package repository

import (
	"context"
	"errors"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardRepository handles per-exam leaderboard data access.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

const leaderboardColumns = `id, exam_id, user_id, score, percentage, time_taken_seconds, rank, created_at, updated_at`

func scanEntry(row pgx.Row) (*model.LeaderboardEntry, error) {
	e := &model.LeaderboardEntry{}
	err := row.Scan(&e.ID, &e.ExamID, &e.UserID, &e.Score, &e.Percentage,
		&e.TimeTakenSeconds, &e.Rank, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByExamAndUser retrieves a user's entry on an exam, or nil when absent.
func (r *LeaderboardRepository) GetByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) (*model.LeaderboardEntry, error) {
	return scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+leaderboardColumns+` FROM leaderboards WHERE exam_id = $1 AND user_id = $2`,
		examID, userID))
}

// Insert creates a new leaderboard entry.
func (r *LeaderboardRepository) Insert(ctx context.Context, e *model.LeaderboardEntry) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO leaderboards (exam_id, user_id, score, percentage, time_taken_seconds, rank)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		e.ExamID, e.UserID, e.Score, e.Percentage, e.TimeTakenSeconds, e.Rank,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// UpdateOutcome overwrites an entry's score, percentage and time taken.
func (r *LeaderboardRepository) UpdateOutcome(ctx context.Context, e *model.LeaderboardEntry) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leaderboards
		 SET score = $3, percentage = $4, time_taken_seconds = $5, updated_at = NOW()
		 WHERE exam_id = $1 AND user_id = $2`,
		e.ExamID, e.UserID, e.Score, e.Percentage, e.TimeTakenSeconds)
	return err
}

// ListByExam retrieves all entries of an exam.
func (r *LeaderboardRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.LeaderboardEntry, error) {
	return r.list(ctx,
		`SELECT `+leaderboardColumns+` FROM leaderboards WHERE exam_id = $1`, examID)
}

// ListByUser retrieves all entries of a user across exams.
func (r *LeaderboardRepository) ListByUser(ctx context.Context, userID int) ([]model.LeaderboardEntry, error) {
	return r.list(ctx,
		`SELECT `+leaderboardColumns+` FROM leaderboards WHERE user_id = $1`, userID)
}

func (r *LeaderboardRepository) list(ctx context.Context, query string, arg interface{}) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.ExamID, &e.UserID, &e.Score, &e.Percentage,
			&e.TimeTakenSeconds, &e.Rank, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateRanks bulk-persists the rank of every given entry via UNNEST.
func (r *LeaderboardRepository) UpdateRanks(ctx context.Context, examID uuid.UUID, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	userIDs := make([]int, 0, len(entries))
	ranks := make([]int, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
		ranks = append(ranks, e.Rank)
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE leaderboards AS l
		SET rank = t.rank, updated_at = NOW()
		FROM (
			SELECT u.user_id, u.rank
			FROM UNNEST($2::int[], $3::int[]) AS u (user_id, rank)
		) AS t
		WHERE l.exam_id = $1
		  AND l.user_id = t.user_id
	`, examID, userIDs, ranks)
	return err
}

// CountByExam returns how many entries an exam's leaderboard has.
func (r *LeaderboardRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leaderboards WHERE exam_id = $1`, examID,
	).Scan(&count)
	return count, err
}

// CountTopRankedExams counts the distinct exams in which the user currently
// holds a rank of maxRank or better.
func (r *LeaderboardRepository) CountTopRankedExams(ctx context.Context, userID, maxRank int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT exam_id)
		 FROM leaderboards
		 WHERE user_id = $1 AND rank > 0 AND rank <= $2`,
		userID, maxRank,
	).Scan(&count)
	return count, err
}

// TopByExam retrieves the top entries of an exam with usernames resolved.
func (r *LeaderboardRepository) TopByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.RankedEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.rank, l.user_id, u.username, l.score, l.percentage, l.time_taken_seconds
		 FROM leaderboards l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.exam_id = $1 AND l.rank > 0
		 ORDER BY l.rank
		 LIMIT $2`, examID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.RankedEntry
	for rows.Next() {
		var e model.RankedEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Username, &e.Score,
			&e.Percentage, &e.TimeTakenSeconds); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
