package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrExamNotActive         = errors.New("exam is not active")
	ErrExamWindowClosed      = errors.New("exam is outside its time window")
	ErrExamNotPublic         = errors.New("exam is not public")
	ErrExamFull              = errors.New("exam has reached its participant limit")
	ErrAttemptAlreadyStarted = errors.New("attempt already started for this exam")
	ErrAttemptNotFound       = errors.New("attempt not found")
	ErrAttemptNotOwned       = errors.New("attempt belongs to another user")
	ErrAttemptAlreadyDone    = errors.New("attempt already submitted")
	ErrAttemptNotSubmitted   = errors.New("attempt not yet submitted")
)

// AttemptService handles the exam-taking flow: start, submit with automatic
// grading, and result retrieval.
type AttemptService struct {
	attemptRepo  *repository.AttemptRepository
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	ranking      *RankingService
	log          zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	ranking *RankingService,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attemptRepo:  attemptRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		ranking:      ranking,
		log:          log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start opens an attempt for the user on an active exam. One attempt per
// (exam, user); starting twice is rejected.
func (s *AttemptService) Start(ctx context.Context, examID uuid.UUID, user *model.User) (*model.ExamAttempt, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}
	if exam.Status != model.ExamStatusActive {
		return nil, ErrExamNotActive
	}
	if !exam.WindowOpen(time.Now()) {
		return nil, ErrExamWindowClosed
	}
	if !exam.IsPublic && exam.AuthorID != user.ID && user.Role != model.RoleAdmin {
		return nil, ErrExamNotPublic
	}

	existing, err := s.attemptRepo.GetByExamAndUser(ctx, examID, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAttemptAlreadyStarted
	}

	if exam.MaxParticipants > 0 {
		count, err := s.attemptRepo.CountByExam(ctx, examID)
		if err != nil {
			return nil, err
		}
		if count >= exam.MaxParticipants {
			return nil, ErrExamFull
		}
	}

	attempt := &model.ExamAttempt{
		ExamID:    examID,
		UserID:    user.ID,
		StartedAt: time.Now(),
		Status:    model.AttemptStatusInProgress,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Int("user_id", user.ID).
		Msg("Attempt started")
	return attempt, nil
}

// Submit finalizes an in-progress attempt: grades the answers, persists the
// outcome, and feeds the ranking pipeline. Grading and persistence failures
// surface; a downstream ranking failure is logged and retried asynchronously,
// with the graded result still returned.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, userID int, req *model.SubmitAnswersRequest) (*model.SubmitResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptNotOwned
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptAlreadyDone
	}

	exam, err := s.examRepo.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return nil, ErrExamNotFound
	}

	questions, err := s.questionRepo.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	score, totalMarks, percentage := ScoreAnswers(questions, req.Answers)

	now := time.Now()
	timeTaken := int(now.Sub(attempt.StartedAt).Seconds())
	if limit := exam.DurationMinutes * 60; limit > 0 && timeTaken > limit {
		timeTaken = limit
	}
	if timeTaken < 0 {
		timeTaken = 0
	}

	attempt.FinishedAt = &now
	attempt.TimeTakenSeconds = &timeTaken
	attempt.Answers = req.Answers
	attempt.Score = score
	attempt.Percentage = percentage
	attempt.TotalMarks = totalMarks
	attempt.Status = model.AttemptStatusSubmitted
	if err := s.attemptRepo.Finalize(ctx, attempt); err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	result := &model.SubmitResult{
		Score:      score,
		Percentage: percentage,
		TotalMarks: totalMarks,
	}

	entry, err := s.ranking.OnAttemptFinalized(ctx, attempt.ExamID, userID, score, percentage, timeTaken)
	if err != nil {
		// The attempt itself is submitted either way; the worker repairs
		// incomplete standings.
		s.log.Error().Err(err).
			Str("attempt_id", attemptID.String()).
			Msg("Ranking pipeline failed after submit")
	}
	if entry != nil && entry.Rank > 0 {
		rank := entry.Rank
		result.Rank = &rank
	}
	return result, nil
}

// Result returns a submitted attempt with per-question answer breakdown.
func (s *AttemptService) Result(ctx context.Context, attemptID uuid.UUID, userID int) (*model.ExamAttempt, []model.AnswerDetail, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if attempt == nil {
		return nil, nil, ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, nil, ErrAttemptNotOwned
	}
	if attempt.Status != model.AttemptStatusSubmitted {
		return nil, nil, ErrAttemptNotSubmitted
	}

	questions, err := s.questionRepo.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, nil, err
	}

	details := make([]model.AnswerDetail, 0, len(questions))
	for _, q := range questions {
		answer := attempt.Answers[q.ID.String()]
		correct := answer != "" && isAnswerCorrect(&q, answer)
		marks := 0
		if correct {
			marks = q.Marks
		}
		details = append(details, model.AnswerDetail{
			QuestionID:    q.ID,
			QuestionText:  q.QuestionText,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Marks:         marks,
			Explanation:   q.Explanation,
		})
	}
	return attempt, details, nil
}

// MyAttempts lists the user's attempts, newest first.
func (s *AttemptService) MyAttempts(ctx context.Context, userID int) ([]model.ExamAttempt, error) {
	attempts, err := s.attemptRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []model.ExamAttempt{}
	}
	return attempts, nil
}
