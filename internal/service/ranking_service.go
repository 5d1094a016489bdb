package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RerankTask is the retry-queue payload for a ranking pipeline whose
// downstream stages failed after the result itself was persisted.
type RerankTask struct {
	ExamID   uuid.UUID `json:"exam_id"`
	UserID   int       `json:"user_id"`
	Attempts int       `json:"attempts"`
}

// RankingService drives the full pipeline triggered by a finalized attempt:
// record the per-exam result, rerank the exam, recompute the user's global
// aggregate, rerank the global board, and evaluate achievements. Every stage
// after the first is idempotent, so a failed pipeline is resumable from the
// persisted result alone.
type RankingService struct {
	exams        ExamStore
	users        UserStore
	leaderboard  *LeaderboardService
	global       *GlobalLeaderboardService
	achievements *AchievementService
	rdb          *redis.Client
	log          zerolog.Logger

	// examLocks serializes writers of the same exam's board, userLocks
	// serializes writers of the same user's aggregate, and globalMu
	// serializes global reranks. Distinct exams and users proceed in
	// parallel.
	examLocks *keyedMutex
	userLocks *keyedMutex
	globalMu  sync.Mutex
}

// NewRankingService creates a new RankingService.
func NewRankingService(
	exams ExamStore,
	users UserStore,
	leaderboard *LeaderboardService,
	global *GlobalLeaderboardService,
	achievements *AchievementService,
	rdb *redis.Client,
	log zerolog.Logger,
) *RankingService {
	return &RankingService{
		exams:        exams,
		users:        users,
		leaderboard:  leaderboard,
		global:       global,
		achievements: achievements,
		rdb:          rdb,
		log:          log.With().Str("component", "ranking_service").Logger(),
		examLocks:    newKeyedMutex(),
		userLocks:    newKeyedMutex(),
	}
}

// OnAttemptFinalized runs the pipeline for a finalized attempt outcome.
// Validation and existence failures leave no trace. Once the result is
// persisted and the exam reranked, any later stage failure enqueues a retry
// task and returns both the entry and the error; the persisted standings are
// never rolled back.
func (s *RankingService) OnAttemptFinalized(ctx context.Context, examID uuid.UUID, userID int, score, percentage float64, timeTakenSeconds int) (*model.LeaderboardEntry, error) {
	if err := validateOutcome(score, percentage, timeTakenSeconds); err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	lockKey := examID.String()
	s.examLocks.Lock(lockKey)
	entry, err := s.leaderboard.RecordResult(ctx, examID, userID, score, percentage, timeTakenSeconds)
	if err == nil {
		err = s.leaderboard.Rerank(ctx, examID)
	}
	s.examLocks.Unlock(lockKey)
	if err != nil {
		return nil, err
	}

	if err := s.resume(ctx, examID, userID); err != nil {
		s.log.Error().Err(err).
			Str("exam_id", examID.String()).
			Int("user_id", userID).
			Msg("Ranking pipeline incomplete, queueing retry")
		s.enqueueRetry(ctx, examID, userID, 0)
		return entry, err
	}
	return entry, nil
}

// Resume re-runs every pipeline stage after result persistence for the given
// exam and user. All stages recompute from persisted state, so resuming a
// pipeline that already completed is a no-op.
func (s *RankingService) Resume(ctx context.Context, examID uuid.UUID, userID int) error {
	lockKey := examID.String()
	s.examLocks.Lock(lockKey)
	err := s.leaderboard.Rerank(ctx, examID)
	s.examLocks.Unlock(lockKey)
	if err != nil {
		return err
	}
	return s.resume(ctx, examID, userID)
}

// resume runs the stages downstream of the exam rerank: global aggregate,
// global rerank, achievement evaluation, and the leaderboard event publish.
func (s *RankingService) resume(ctx context.Context, examID uuid.UUID, userID int) error {
	userKey := fmt.Sprintf("%d", userID)
	s.userLocks.Lock(userKey)
	_, err := s.global.RecomputeUserAggregate(ctx, userID)
	s.userLocks.Unlock(userKey)
	if err != nil {
		return fmt.Errorf("recompute aggregate: %w", err)
	}

	s.globalMu.Lock()
	err = s.global.RerankGlobal(ctx)
	s.globalMu.Unlock()
	if err != nil {
		return fmt.Errorf("rerank global: %w", err)
	}

	entry, err := s.leaderboard.UserEntry(ctx, examID, userID)
	if err != nil {
		return fmt.Errorf("get user entry: %w", err)
	}
	if entry != nil {
		if err := s.achievements.Evaluate(ctx, entry); err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
	}

	s.publishLeaderboardEvent(ctx, examID)
	return nil
}

// publishLeaderboardEvent notifies live subscribers that the exam's standings
// changed. Delivery is best effort; the persisted standings are the source of
// truth and a missed event only delays a websocket refresh.
func (s *RankingService) publishLeaderboardEvent(ctx context.Context, examID uuid.UUID) {
	channel := config.CacheKey.ExamLeaderboardChannel(examID.String())
	if err := s.rdb.Publish(ctx, channel, "updated").Err(); err != nil {
		s.log.Warn().Err(err).
			Str("exam_id", examID.String()).
			Msg("Failed to publish leaderboard event")
	}
}

// enqueueRetry pushes a resume task for the worker. A full queue or broken
// Redis just logs; the next finalized attempt for the exam repairs standings
// anyway since every stage is a full recompute.
func (s *RankingService) enqueueRetry(ctx context.Context, examID uuid.UUID, userID int, attempts int) {
	payload, err := json.Marshal(RerankTask{ExamID: examID, UserID: userID, Attempts: attempts})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal rerank task")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.RerankRetryQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).
			Str("exam_id", examID.String()).
			Int("user_id", userID).
			Msg("Failed to enqueue rerank retry")
	}
}

// EnqueueRetryTask re-queues a task with its attempt count already advanced.
// Used by the worker when a resume fails again.
func (s *RankingService) EnqueueRetryTask(ctx context.Context, task RerankTask) {
	s.enqueueRetry(ctx, task.ExamID, task.UserID, task.Attempts)
}
