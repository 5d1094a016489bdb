package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/database"
	"github.com/examtaker/examtaker-backend/internal/handler"
	"github.com/examtaker/examtaker-backend/internal/logger"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/examtaker/examtaker-backend/internal/router"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/examtaker/examtaker-backend/internal/validator"
	"github.com/examtaker/examtaker-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamTaker Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)
	globalRepo := repository.NewGlobalLeaderboardRepository(pool)
	achievementRepo := repository.NewAchievementRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, authService, log)
	examService := service.NewExamService(examRepo, questionRepo, log)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, rdb, cfg.LeaderboardCacheTTL, log)
	globalService := service.NewGlobalLeaderboardService(globalRepo, leaderboardRepo, rdb, cfg.LeaderboardCacheTTL, log)
	achievementService := service.NewAchievementService(achievementRepo, leaderboardRepo, examRepo, log)
	rankingService := service.NewRankingService(
		examRepo, userRepo,
		leaderboardService, globalService, achievementService,
		rdb, log,
	)
	attemptService := service.NewAttemptService(attemptRepo, examRepo, questionRepo, rankingService, log)
	statsService := service.NewStatsService(statsRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, userService),
		Exam:        handler.NewExamHandler(examService, userService),
		Attempt:     handler.NewAttemptHandler(attemptService, userService),
		Leaderboard: handler.NewLeaderboardHandler(leaderboardService, globalService),
		Achievement: handler.NewAchievementHandler(achievementService),
		Stats:       handler.NewStatsHandler(statsService),
		WS:          handler.NewWSHandler(rdb, leaderboardService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	rerankWorker := worker.NewRerankWorker(rankingService, rdb, log)
	go rerankWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the rerank worker and let it finish its current task.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
