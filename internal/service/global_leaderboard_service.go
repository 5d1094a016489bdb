package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// GlobalLeaderboardService maintains cross-exam user aggregates and the
// global ranking over them.
type GlobalLeaderboardService struct {
	aggregates AggregateStore
	results    ResultStore
	rdb        *redis.Client
	cacheTTL   time.Duration
	log        zerolog.Logger
}

// NewGlobalLeaderboardService creates a new GlobalLeaderboardService.
func NewGlobalLeaderboardService(aggregates AggregateStore, results ResultStore, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *GlobalLeaderboardService {
	return &GlobalLeaderboardService{
		aggregates: aggregates,
		results:    results,
		rdb:        rdb,
		cacheTTL:   cacheTTL,
		log:        log.With().Str("component", "global_leaderboard_service").Logger(),
	}
}

// RecomputeUserAggregate rebuilds the user's lifetime statistics strictly
// from their current leaderboard entries, discarding any previous values.
// A user with zero entries keeps an aggregate row with zeroed statistics.
func (s *GlobalLeaderboardService) RecomputeUserAggregate(ctx context.Context, userID int) (*model.GlobalLeaderboardEntry, error) {
	entries, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user entries: %w", err)
	}

	agg, err := s.aggregates.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}
	if agg == nil {
		agg = &model.GlobalLeaderboardEntry{UserID: userID}
	}

	agg.TotalExams = len(entries)
	agg.TotalScore = 0
	agg.BestScore = 0
	agg.TotalTimeSeconds = 0
	for i := range entries {
		agg.TotalScore += entries[i].Score
		if entries[i].Score > agg.BestScore {
			agg.BestScore = entries[i].Score
		}
		agg.TotalTimeSeconds += entries[i].TimeTakenSeconds
	}
	if agg.TotalExams > 0 {
		agg.AverageScore = agg.TotalScore / float64(agg.TotalExams)
	} else {
		agg.AverageScore = 0
	}

	if err := s.aggregates.Upsert(ctx, agg); err != nil {
		return nil, fmt.Errorf("upsert aggregate: %w", err)
	}
	return agg, nil
}

// RerankGlobal recomputes the global rank of every user with at least one
// counted exam: average score descending, then total exams descending, then
// total time ascending, then user ID for reproducibility. Users with zero
// exams are excluded and keep a null rank. The recomputation is total, never
// incremental.
func (s *GlobalLeaderboardService) RerankGlobal(ctx context.Context) error {
	entries, err := s.aggregates.ListQualifying(ctx)
	if err != nil {
		return fmt.Errorf("list aggregates: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		if a.TotalExams != b.TotalExams {
			return a.TotalExams > b.TotalExams
		}
		if a.TotalTimeSeconds != b.TotalTimeSeconds {
			return a.TotalTimeSeconds < b.TotalTimeSeconds
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		rank := i + 1
		entries[i].GlobalRank = &rank
	}

	if err := s.aggregates.UpdateGlobalRanks(ctx, entries); err != nil {
		return fmt.Errorf("update global ranks: %w", err)
	}

	key := config.CacheKey.GlobalLeaderboardKey()
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Global leaderboard cache invalidation failed")
	}
	return nil
}

// UserAggregate returns the user's aggregate row, or nil when the user has
// never completed an exam.
func (s *GlobalLeaderboardService) UserAggregate(ctx context.Context, userID int) (*model.GlobalLeaderboardEntry, error) {
	return s.aggregates.GetByUser(ctx, userID)
}

// TopGlobal returns the top-K globally ranked users, serving from the Redis
// cache when possible.
func (s *GlobalLeaderboardService) TopGlobal(ctx context.Context, limit int) ([]model.GlobalRankedEntry, error) {
	if limit <= 0 || limit > cacheTopLimit {
		limit = cacheTopLimit
	}

	key := config.CacheKey.GlobalLeaderboardKey()
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var rows []model.GlobalRankedEntry
		if json.Unmarshal([]byte(cached), &rows) == nil {
			if len(rows) > limit {
				rows = rows[:limit]
			}
			return rows, nil
		}
	}

	rows, err := s.aggregates.TopGlobal(ctx, cacheTopLimit)
	if err != nil {
		return nil, fmt.Errorf("top global: %w", err)
	}

	if raw, err := json.Marshal(rows); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Global leaderboard cache write failed")
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
