package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/examtaker/examtaker-backend/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrNotExamAuthor     = errors.New("not the author of this exam")
	ErrNoQuestions       = errors.New("exam has no questions, cannot activate")
	ErrInvalidTransition = errors.New("invalid exam status transition")
	ErrExamNotEditable   = errors.New("only draft or scheduled exams can be edited")
	ErrQuestionNotFound  = errors.New("question not found")
)

// validTransitions lists the allowed status moves. Terminal statuses have no
// entry.
var validTransitions = map[model.ExamStatus][]model.ExamStatus{
	model.ExamStatusDraft:     {model.ExamStatusScheduled, model.ExamStatusActive, model.ExamStatusCancelled},
	model.ExamStatusScheduled: {model.ExamStatusActive, model.ExamStatusCancelled},
	model.ExamStatusActive:    {model.ExamStatusCompleted, model.ExamStatusCancelled},
}

// ExamService handles exam and question authoring.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID, or nil when absent.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListVisible retrieves exams visible to the given user: public exams plus
// the user's own.
func (s *ExamService) ListVisible(ctx context.Context, userID, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.examRepo.ListVisiblePaginated(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// Create inserts a new exam as DRAFT owned by the author.
func (s *ExamService) Create(ctx context.Context, authorID int, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		AuthorID:        authorID,
		DurationMinutes: req.DurationMinutes,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		Difficulty:      req.Difficulty,
		IsPublic:        true,
		Status:          model.ExamStatusDraft,
	}
	if req.Difficulty == "" {
		exam.Difficulty = model.DifficultyMedium
	}
	if req.IsPublic != nil {
		exam.IsPublic = *req.IsPublic
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, err
	}
	s.log.Info().Str("exam_id", exam.ID.String()).Int("author_id", authorID).Msg("Exam created")
	return exam, nil
}

// Update modifies an exam's metadata. Only the author (or an admin) may edit,
// and only while the exam is still DRAFT or SCHEDULED.
func (s *ExamService) Update(ctx context.Context, examID uuid.UUID, actor *model.User, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.authorize(ctx, examID, actor)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft && exam.Status != model.ExamStatusScheduled {
		return nil, ErrExamNotEditable
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if req.StartTime != nil {
		exam.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = req.EndTime
	}
	if req.MaxParticipants > 0 {
		exam.MaxParticipants = req.MaxParticipants
	}
	if req.Difficulty != "" {
		exam.Difficulty = req.Difficulty
	}
	if req.IsPublic != nil {
		exam.IsPublic = *req.IsPublic
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// UpdateStatus moves an exam through its lifecycle. Activation requires at
// least one question.
func (s *ExamService) UpdateStatus(ctx context.Context, examID uuid.UUID, actor *model.User, next model.ExamStatus) (*model.Exam, error) {
	exam, err := s.authorize(ctx, examID, actor)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, st := range validTransitions[exam.Status] {
		if st == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, exam.Status, next)
	}

	if next == model.ExamStatusActive {
		count, err := s.questionRepo.CountByExam(ctx, examID)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		if count == 0 {
			return nil, ErrNoQuestions
		}
	}

	if err := s.examRepo.UpdateStatus(ctx, examID, next); err != nil {
		return nil, err
	}
	exam.Status = next

	s.log.Info().Str("exam_id", examID.String()).Str("status", string(next)).Msg("Exam status changed")
	return exam, nil
}

// Delete removes a DRAFT exam and its questions.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID, actor *model.User) error {
	exam, err := s.authorize(ctx, examID, actor)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotEditable
	}
	return s.examRepo.Delete(ctx, examID)
}

// AddQuestion appends a question to a DRAFT or SCHEDULED exam.
func (s *ExamService) AddQuestion(ctx context.Context, examID uuid.UUID, actor *model.User, req *model.CreateQuestionRequest) (*model.Question, error) {
	exam, err := s.authorize(ctx, examID, actor)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft && exam.Status != model.ExamStatusScheduled {
		return nil, ErrExamNotEditable
	}

	count, err := s.questionRepo.CountByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		QuestionType:  req.QuestionType,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
		Marks:         req.Marks,
		OrderNum:      count + 1,
	}
	if req.OrderNum > 0 {
		q.OrderNum = req.OrderNum
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// RemoveQuestion deletes a question from a DRAFT or SCHEDULED exam.
func (s *ExamService) RemoveQuestion(ctx context.Context, examID, questionID uuid.UUID, actor *model.User) error {
	exam, err := s.authorize(ctx, examID, actor)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft && exam.Status != model.ExamStatusScheduled {
		return ErrExamNotEditable
	}

	removed, err := s.questionRepo.Delete(ctx, examID, questionID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// Questions lists an exam's questions in order. When withAnswers is false the
// correct answers and explanations are stripped for takers.
func (s *ExamService) Questions(ctx context.Context, examID uuid.UUID, withAnswers bool) ([]model.Question, []model.QuestionForTaker, error) {
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	if withAnswers {
		return questions, nil, nil
	}
	taker := make([]model.QuestionForTaker, 0, len(questions))
	for _, q := range questions {
		taker = append(taker, q.ForTaker())
	}
	return nil, taker, nil
}

// authorize loads the exam and verifies the actor may manage it.
func (s *ExamService) authorize(ctx context.Context, examID uuid.UUID, actor *model.User) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}
	if exam.AuthorID != actor.ID && actor.Role != model.RoleAdmin {
		return nil, ErrNotExamAuthor
	}
	return exam, nil
}
