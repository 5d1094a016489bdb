package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/examtaker/examtaker-backend/internal/middleware"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/response"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/examtaker/examtaker-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExamHandler handles exam and question management endpoints.
type ExamHandler struct {
	examService *service.ExamService
	userService *service.UserService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, userService *service.UserService) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		userService: userService,
	}
}

// ListExams godoc
// GET /api/v1/exams
// Lists public exams plus the caller's own, paginated.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	exams, pagination, err := h.examService.ListVisible(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exam == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/exams
// Creates a new draft exam. Teacher or admin only.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/exams/:exam_id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	actor, examID, ok := h.actorAndExamID(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), examID, actor, &req)
	if err != nil {
		h.failExamError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExamStatus godoc
// PATCH /api/v1/exams/:exam_id/status
func (h *ExamHandler) UpdateExamStatus(c *gin.Context) {
	actor, examID, ok := h.actorAndExamID(c)
	if !ok {
		return
	}

	var req model.UpdateExamStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.UpdateStatus(c.Request.Context(), examID, actor, req.Status)
	if err != nil {
		h.failExamError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/exams/:exam_id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	actor, examID, ok := h.actorAndExamID(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, actor); err != nil {
		h.failExamError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted"})
}

// AddQuestion godoc
// POST /api/v1/exams/:exam_id/questions
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	actor, examID, ok := h.actorAndExamID(c)
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.examService.AddQuestion(c.Request.Context(), examID, actor, &req)
	if err != nil {
		h.failExamError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/exams/:exam_id/questions/:question_id
func (h *ExamHandler) DeleteQuestion(c *gin.Context) {
	actor, examID, ok := h.actorAndExamID(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.RemoveQuestion(c.Request.Context(), examID, questionID, actor); err != nil {
		h.failExamError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// ListQuestions godoc
// GET /api/v1/exams/:exam_id/questions
// The exam author and admins see the answer key; everyone else gets the
// taker view.
func (h *ExamHandler) ListQuestions(c *gin.Context) {
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

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exam == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	withAnswers := exam.AuthorID == claims.UserID || claims.Role == model.RoleAdmin
	full, taker, err := h.examService.Questions(c.Request.Context(), examID, withAnswers)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if withAnswers {
		response.Success(c, http.StatusOK, gin.H{"questions": full})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": taker})
}

// actorAndExamID loads the caller's user record and parses the exam ID param.
func (h *ExamHandler) actorAndExamID(c *gin.Context) (*model.User, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}

	actor, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || actor == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil, uuid.Nil, false
	}
	return actor, examID, true
}

func (h *ExamHandler) failExamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotExamAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrAuthorAccessOnly)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, service.ErrInvalidTransition):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidTransition)
	case errors.Is(err, service.ErrExamNotEditable):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
