package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/examtaker/examtaker-backend/internal/middleware"
	"github.com/examtaker/examtaker-backend/internal/response"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StatsHandler handles statistics endpoints.
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// ExamStatistics godoc
// GET /api/v1/exams/:exam_id/statistics
func (h *StatsHandler) ExamStatistics(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.statsService.ExamStatistics(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if stats == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// MySummary godoc
// GET /api/v1/stats/me
func (h *StatsHandler) MySummary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	h.userSummary(c, claims.UserID)
}

// UserSummary godoc
// GET /api/v1/users/:user_id/stats
func (h *StatsHandler) UserSummary(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil || userID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	h.userSummary(c, userID)
}

func (h *StatsHandler) userSummary(c *gin.Context, userID int) {
	summary, err := h.statsService.UserSummary(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// Overview godoc
// GET /api/v1/stats/overview
// Admin only.
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.statsService.Overview(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"overview": overview})
}
