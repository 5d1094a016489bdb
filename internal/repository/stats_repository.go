package repository

import (
	"context"
	"errors"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// passThreshold is the percentage at or above which an attempt counts as a
// pass in exam statistics.
const passThreshold = 50

// StatsRepository computes read-only statistics straight in SQL.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// ExamStatistics aggregates an exam's submitted attempts, or nil when the
// exam does not exist. An exam without submissions reports zeroes.
func (r *StatsRepository) ExamStatistics(ctx context.Context, examID uuid.UUID) (*model.ExamStatistics, error) {
	s := &model.ExamStatistics{ExamID: examID}
	err := r.pool.QueryRow(ctx, `
		SELECT e.title,
		       COUNT(a.id),
		       COALESCE(AVG(a.score), 0),
		       COALESCE(MAX(a.score), 0),
		       COALESCE(MIN(a.score), 0),
		       COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY a.score), 0),
		       COALESCE(AVG(a.percentage), 0),
		       COALESCE(AVG(a.time_taken_seconds), 0),
		       COALESCE(AVG(CASE WHEN a.percentage >= $2 THEN 100.0 ELSE 0.0 END), 0)
		FROM exams e
		LEFT JOIN exam_attempts a ON a.exam_id = e.id AND a.status = 'SUBMITTED'
		WHERE e.id = $1
		GROUP BY e.title
	`, examID, passThreshold,
	).Scan(&s.Title, &s.TotalAttempts, &s.AverageScore, &s.HighestScore, &s.LowestScore,
		&s.MedianScore, &s.AveragePercent, &s.AverageTimeTaken, &s.PassRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UserSummary assembles a user's headline numbers, or nil when the user does
// not exist. Recent results and trend are filled in by the service.
func (r *StatsRepository) UserSummary(ctx context.Context, userID int) (*model.UserSummary, error) {
	s := &model.UserSummary{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT u.username,
		       COALESCE(g.total_exams, 0),
		       COALESCE(g.average_score, 0),
		       COALESCE(g.best_score, 0),
		       COALESCE(g.total_time_seconds, 0),
		       g.global_rank,
		       (SELECT MIN(rank) FROM leaderboards WHERE user_id = u.id AND rank > 0),
		       (SELECT COUNT(*) FROM achievements WHERE user_id = u.id)
		FROM users u
		LEFT JOIN global_leaderboards g ON g.user_id = u.id
		WHERE u.id = $1
	`, userID,
	).Scan(&s.Username, &s.TotalExams, &s.AverageScore, &s.BestScore,
		&s.TotalTimeSeconds, &s.GlobalRank, &s.BestRank, &s.AchievementsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RecentResults lists the user's latest submitted attempts, newest first,
// with the current leaderboard rank joined in.
func (r *StatsRepository) RecentResults(ctx context.Context, userID, limit int) ([]model.UserExamResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.exam_id, e.title, a.score, a.percentage,
		       COALESCE(l.rank, 0), COALESCE(a.time_taken_seconds, 0)
		FROM exam_attempts a
		JOIN exams e ON e.id = a.exam_id
		LEFT JOIN leaderboards l ON l.exam_id = a.exam_id AND l.user_id = a.user_id
		WHERE a.user_id = $1 AND a.status = 'SUBMITTED'
		ORDER BY a.finished_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.UserExamResult
	for rows.Next() {
		var res model.UserExamResult
		if err := rows.Scan(&res.ExamID, &res.Title, &res.Score, &res.Percentage,
			&res.Rank, &res.TimeTaken); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Overview gathers the platform-wide snapshot in one query.
func (r *StatsRepository) Overview(ctx context.Context) (*model.PlatformOverview, error) {
	o := &model.PlatformOverview{}
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM exams),
		       (SELECT COUNT(*) FROM exams WHERE status = 'ACTIVE'),
		       (SELECT COUNT(*) FROM exam_attempts),
		       (SELECT COUNT(*) FROM exam_attempts WHERE status = 'SUBMITTED'),
		       COALESCE((SELECT AVG(score) FROM exam_attempts WHERE status = 'SUBMITTED'), 0),
		       (SELECT COUNT(*) FROM achievements)
	`).Scan(&o.TotalUsers, &o.TotalExams, &o.ActiveExams, &o.TotalAttempts,
		&o.SubmittedAttempts, &o.AverageScore, &o.TotalAchievements)
	if err != nil {
		return nil, err
	}
	return o, nil
}
