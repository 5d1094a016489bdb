package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates exam attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
)

// ExamAttempt represents a user's attempt at one exam.
// Answers maps question ID to the submitted answer string.
type ExamAttempt struct {
	ID               uuid.UUID         `json:"id"`
	ExamID           uuid.UUID         `json:"exam_id"`
	UserID           int               `json:"user_id"`
	StartedAt        time.Time         `json:"started_at"`
	FinishedAt       *time.Time        `json:"finished_at,omitempty"`
	TimeTakenSeconds *int              `json:"time_taken_seconds,omitempty"`
	Answers          map[string]string `json:"answers,omitempty"`
	Score            float64           `json:"score"`
	Percentage       float64           `json:"percentage"`
	TotalMarks       int               `json:"total_marks"`
	Status           AttemptStatus     `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// SubmitAnswersRequest is the payload for submitting an attempt.
// Keys are question UUIDs, values the chosen/typed answers.
type SubmitAnswersRequest struct {
	Answers map[string]string `json:"answers" binding:"required,min=1"`
}

// SubmitResult summarizes a graded submission back to the taker.
type SubmitResult struct {
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	TotalMarks int     `json:"total_marks"`
	Rank       *int    `json:"rank,omitempty"`
}

// AnswerDetail describes how one question was answered, for result review.
type AnswerDetail struct {
	QuestionID    uuid.UUID `json:"question_id"`
	QuestionText  string    `json:"question_text"`
	UserAnswer    string    `json:"user_answer,omitempty"`
	CorrectAnswer string    `json:"correct_answer"`
	IsCorrect     bool      `json:"is_correct"`
	Marks         int       `json:"marks"`
	Explanation   string    `json:"explanation,omitempty"`
}
