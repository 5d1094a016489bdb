package service

import (
	"context"
	"fmt"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// trendWindow is how many recent results feed the performance trend.
const trendWindow = 10

// StatsService assembles exam statistics and user performance summaries.
type StatsService struct {
	statsRepo *repository.StatsRepository
	log       zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(statsRepo *repository.StatsRepository, log zerolog.Logger) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		log:       log.With().Str("component", "stats_service").Logger(),
	}
}

// ExamStatistics returns the aggregate statistics of one exam's submitted
// attempts, or nil when the exam does not exist.
func (s *StatsService) ExamStatistics(ctx context.Context, examID uuid.UUID) (*model.ExamStatistics, error) {
	return s.statsRepo.ExamStatistics(ctx, examID)
}

// UserSummary builds a user's cross-exam performance report, including the
// trend over the last results.
func (s *StatsService) UserSummary(ctx context.Context, userID int) (*model.UserSummary, error) {
	summary, err := s.statsRepo.UserSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrUserNotFound
	}

	recent, err := s.statsRepo.RecentResults(ctx, userID, trendWindow)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	if recent == nil {
		recent = []model.UserExamResult{}
	}
	summary.RecentResults = recent
	summary.Trend = computeTrend(recent)
	return summary, nil
}

// Overview returns the platform-wide activity snapshot.
func (s *StatsService) Overview(ctx context.Context) (*model.PlatformOverview, error) {
	return s.statsRepo.Overview(ctx)
}

// computeTrend compares the average percentage of the newer half of the
// recent results (newest first) against the older half. A swing of more than
// five points in either direction counts as a trend.
func computeTrend(recent []model.UserExamResult) model.PerformanceTrend {
	if len(recent) < 4 {
		return model.TrendInsufficient
	}

	half := len(recent) / 2
	newer := averagePercentage(recent[:half])
	older := averagePercentage(recent[len(recent)-half:])

	switch {
	case newer-older > 5:
		return model.TrendImproving
	case older-newer > 5:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

func averagePercentage(results []model.UserExamResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Percentage
	}
	return sum / float64(len(results))
}
