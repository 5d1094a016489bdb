package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// cacheTopLimit is how many ranked rows the Redis leaderboard caches hold.
// Handlers slice this down to the requested limit.
const cacheTopLimit = 100

// LeaderboardService maintains per-exam rankings: it records finalized
// attempt outcomes and recomputes dense ranks for a whole exam.
type LeaderboardService struct {
	results  ResultStore
	rdb      *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(results ResultStore, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		results:  results,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// validateOutcome rejects malformed result inputs before any state mutation.
func validateOutcome(score, percentage float64, timeTakenSeconds int) error {
	if timeTakenSeconds < 0 {
		return fmt.Errorf("%w: negative time taken (%d)", ErrInvalidOutcome, timeTakenSeconds)
	}
	if percentage < 0 || percentage > 100 {
		return fmt.Errorf("%w: percentage %.2f outside [0,100]", ErrInvalidOutcome, percentage)
	}
	if score < 0 {
		return fmt.Errorf("%w: negative score %.2f", ErrInvalidOutcome, score)
	}
	return nil
}

// RecordResult creates the (exam, user) leaderboard entry or updates it when
// the new outcome strictly dominates the stored one: higher score, or equal
// score in strictly less time. Anything else is a no-op, which makes the call
// safe to repeat on resubmissions and duplicate finalizations.
func (s *LeaderboardService) RecordResult(ctx context.Context, examID uuid.UUID, userID int, score, percentage float64, timeTakenSeconds int) (*model.LeaderboardEntry, error) {
	if err := validateOutcome(score, percentage, timeTakenSeconds); err != nil {
		return nil, err
	}

	existing, err := s.results.GetByExamAndUser(ctx, examID, userID)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	if existing == nil {
		entry := &model.LeaderboardEntry{
			ExamID:           examID,
			UserID:           userID,
			Score:            score,
			Percentage:       percentage,
			TimeTakenSeconds: timeTakenSeconds,
			// Rank is a placeholder until the next Rerank.
			Rank: 0,
		}
		if err := s.results.Insert(ctx, entry); err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}
		return entry, nil
	}

	dominates := score > existing.Score ||
		(score == existing.Score && timeTakenSeconds < existing.TimeTakenSeconds)
	if !dominates {
		return existing, nil
	}

	existing.Score = score
	existing.Percentage = percentage
	existing.TimeTakenSeconds = timeTakenSeconds
	if err := s.results.UpdateOutcome(ctx, existing); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return existing, nil
}

// Rerank recomputes ranks for every entry of the exam from scratch: score
// descending, ties broken by time-taken ascending, then by user ID so the
// order is reproducible when score and time are both equal. Dense ranks 1..N
// are persisted for all entries, including unchanged ones. Zero entries is a
// no-op.
func (s *LeaderboardService) Rerank(ctx context.Context, examID uuid.UUID) error {
	entries, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	sortEntriesForRank(entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if err := s.results.UpdateRanks(ctx, examID, entries); err != nil {
		return fmt.Errorf("update ranks: %w", err)
	}

	s.invalidateCache(ctx, examID)
	return nil
}

func sortEntriesForRank(entries []model.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TimeTakenSeconds != b.TimeTakenSeconds {
			return a.TimeTakenSeconds < b.TimeTakenSeconds
		}
		return a.UserID < b.UserID
	})
}

// UserEntry returns the user's leaderboard entry for an exam, or nil.
func (s *LeaderboardService) UserEntry(ctx context.Context, examID uuid.UUID, userID int) (*model.LeaderboardEntry, error) {
	return s.results.GetByExamAndUser(ctx, examID, userID)
}

// TopByExam returns the exam's top-K entries by rank, serving from the Redis
// cache when possible.
func (s *LeaderboardService) TopByExam(ctx context.Context, examID uuid.UUID, limit int) ([]model.RankedEntry, error) {
	if limit <= 0 || limit > cacheTopLimit {
		limit = cacheTopLimit
	}

	key := config.CacheKey.ExamLeaderboardKey(examID.String())
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var rows []model.RankedEntry
		if json.Unmarshal([]byte(cached), &rows) == nil {
			if len(rows) > limit {
				rows = rows[:limit]
			}
			return rows, nil
		}
	}

	rows, err := s.results.TopByExam(ctx, examID, cacheTopLimit)
	if err != nil {
		return nil, fmt.Errorf("top by exam: %w", err)
	}

	if raw, err := json.Marshal(rows); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Leaderboard cache write failed")
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *LeaderboardService) invalidateCache(ctx context.Context, examID uuid.UUID) {
	key := config.CacheKey.ExamLeaderboardKey(examID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Leaderboard cache invalidation failed")
	}
}
