package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	RerankPollTimeout = 1 * time.Second
	RerankMaxAttempts = 5
	RerankRetryDelay  = 500 * time.Millisecond
)

// RerankWorker drains the rerank retry queue and resumes incomplete ranking
// pipelines. Every resume is a full recompute, so replaying a task that
// already succeeded is harmless.
type RerankWorker struct {
	ranking *service.RankingService
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewRerankWorker creates a new RerankWorker.
func NewRerankWorker(ranking *service.RankingService, rdb *redis.Client, log zerolog.Logger) *RerankWorker {
	return &RerankWorker{
		ranking: ranking,
		rdb:     rdb,
		log:     log.With().Str("component", "rerank_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled.
func (w *RerankWorker) Start(ctx context.Context) {
	w.log.Info().Msg("RerankWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("RerankWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, RerankPollTimeout, config.WorkerKey.RerankRetryQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}
			w.handle(ctx, []byte(item[1]))
		}
	}
}

// handle resumes one task. A failed resume goes back on the queue with its
// attempt count advanced, up to RerankMaxAttempts; a malformed payload is
// dropped.
func (w *RerankWorker) handle(ctx context.Context, raw []byte) {
	var task service.RerankTask
	if err := json.Unmarshal(raw, &task); err != nil {
		w.log.Error().Err(err).Msg("Invalid rerank task payload, dropping")
		return
	}

	err := w.ranking.Resume(ctx, task.ExamID, task.UserID)
	if err == nil {
		w.log.Info().
			Str("exam_id", task.ExamID.String()).
			Int("user_id", task.UserID).
			Msg("Ranking pipeline resumed")
		return
	}

	task.Attempts++
	if task.Attempts >= RerankMaxAttempts {
		w.log.Error().Err(err).
			Str("exam_id", task.ExamID.String()).
			Int("user_id", task.UserID).
			Int("attempts", task.Attempts).
			Msg("Rerank task exhausted retries, dropping")
		return
	}

	w.log.Warn().Err(err).
		Str("exam_id", task.ExamID.String()).
		Int("user_id", task.UserID).
		Int("attempts", task.Attempts).
		Msg("Rerank resume failed, requeueing")

	// Small delay keeps a broken dependency from spinning the queue hot.
	select {
	case <-ctx.Done():
	case <-time.After(RerankRetryDelay):
	}
	w.ranking.EnqueueRetryTask(ctx, task)
}
