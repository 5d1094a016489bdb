package router

import (
	"net/http"
	"time"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/handler"
	"github.com/examtaker/examtaker-backend/internal/middleware"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/response"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Exam        *handler.ExamHandler
	Attempt     *handler.AttemptHandler
	Leaderboard *handler.LeaderboardHandler
	Achievement *handler.AchievementHandler
	Stats       *handler.StatsHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Compress large JSON payloads (leaderboards, question sets) for
	// clients that accept brotli.
	router.Use(middleware.Compress())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Authenticated API ──────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		// Exams: reading is open to all users, authoring is role-gated.
		api.GET("/exams", handlers.Exam.ListExams)
		api.GET("/exams/:exam_id", handlers.Exam.GetExam)
		api.GET("/exams/:exam_id/questions", handlers.Exam.ListQuestions)

		authoring := middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)
		api.POST("/exams", authoring, handlers.Exam.CreateExam)
		api.PUT("/exams/:exam_id", authoring, handlers.Exam.UpdateExam)
		api.PATCH("/exams/:exam_id/status", authoring, handlers.Exam.UpdateExamStatus)
		api.DELETE("/exams/:exam_id", authoring, handlers.Exam.DeleteExam)
		api.POST("/exams/:exam_id/questions", authoring, handlers.Exam.AddQuestion)
		api.DELETE("/exams/:exam_id/questions/:question_id", authoring, handlers.Exam.DeleteQuestion)

		// Exam taking.
		api.POST("/exams/:exam_id/attempts", handlers.Attempt.StartAttempt)
		api.POST("/attempts/:attempt_id/submit", handlers.Attempt.SubmitAttempt)
		api.GET("/attempts/:attempt_id/result", handlers.Attempt.GetResult)
		api.GET("/attempts/my", handlers.Attempt.MyAttempts)

		// Leaderboards.
		api.GET("/exams/:exam_id/leaderboard", handlers.Leaderboard.ExamLeaderboard)
		api.GET("/exams/:exam_id/leaderboard/me", handlers.Leaderboard.MyExamRank)
		api.GET("/leaderboard/global", handlers.Leaderboard.GlobalLeaderboard)
		api.GET("/leaderboard/global/me", handlers.Leaderboard.MyGlobalRank)

		// Achievements.
		api.GET("/achievements/my", handlers.Achievement.MyAchievements)
		api.GET("/achievements/recent", handlers.Achievement.RecentAchievements)
		api.GET("/users/:user_id/achievements", handlers.Achievement.UserAchievements)

		// Statistics.
		api.GET("/exams/:exam_id/statistics", handlers.Stats.ExamStatistics)
		api.GET("/stats/me", handlers.Stats.MySummary)
		api.GET("/users/:user_id/stats", handlers.Stats.UserSummary)
		api.GET("/stats/overview",
			middleware.RequireRole(model.RoleAdmin),
			handlers.Stats.Overview,
		)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exams/:exam_id/leaderboard", handlers.WS.LeaderboardStream)
	}

	return router
}
