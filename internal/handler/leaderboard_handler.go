package handler

import (
	"net/http"
	"strconv"

	"github.com/examtaker/examtaker-backend/internal/middleware"
	"github.com/examtaker/examtaker-backend/internal/response"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultTopLimit caps leaderboard reads when no limit is given.
const defaultTopLimit = 10

// LeaderboardHandler handles leaderboard read endpoints.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	global      *service.GlobalLeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboard *service.LeaderboardService, global *service.GlobalLeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		global:      global,
	}
}

// ExamLeaderboard godoc
// GET /api/v1/exams/:exam_id/leaderboard
func (h *LeaderboardHandler) ExamLeaderboard(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	entries, err := h.leaderboard.TopByExam(c.Request.Context(), examID, parseLimit(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// MyExamRank godoc
// GET /api/v1/exams/:exam_id/leaderboard/me
func (h *LeaderboardHandler) MyExamRank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	entry, err := h.leaderboard.UserEntry(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entry == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"entry": entry})
}

// GlobalLeaderboard godoc
// GET /api/v1/leaderboard/global
func (h *LeaderboardHandler) GlobalLeaderboard(c *gin.Context) {
	entries, err := h.global.TopGlobal(c.Request.Context(), parseLimit(c))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// MyGlobalRank godoc
// GET /api/v1/leaderboard/global/me
func (h *LeaderboardHandler) MyGlobalRank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	entry, err := h.global.UserAggregate(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entry == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"entry": entry})
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTopLimit)))
	if err != nil || limit < 1 {
		return defaultTopLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}
