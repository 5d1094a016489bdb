package handler

import (
	"net/http"
	"strconv"

	"github.com/examtaker/examtaker-backend/internal/middleware"
	"github.com/examtaker/examtaker-backend/internal/response"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AchievementHandler handles achievement read endpoints.
type AchievementHandler struct {
	achievementService *service.AchievementService
}

// NewAchievementHandler creates a new AchievementHandler.
func NewAchievementHandler(achievementService *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// MyAchievements godoc
// GET /api/v1/achievements/my
func (h *AchievementHandler) MyAchievements(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	achievements, err := h.achievementService.UserAchievements(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"achievements": achievements})
}

// UserAchievements godoc
// GET /api/v1/users/:user_id/achievements
func (h *AchievementHandler) UserAchievements(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil || userID < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	achievements, err := h.achievementService.UserAchievements(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"achievements": achievements})
}

// RecentAchievements godoc
// GET /api/v1/achievements/recent
func (h *AchievementHandler) RecentAchievements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	achievements, err := h.achievementService.RecentAchievements(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"achievements": achievements})
}
