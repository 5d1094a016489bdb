package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates supported question formats.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// Question represents a single exam question.
// CorrectAnswer holds the correct option index for multiple choice,
// "true"/"false" for true-false, or the expected text otherwise.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	ExamID        uuid.UUID       `json:"exam_id"`
	QuestionText  string          `json:"question_text"`
	QuestionType  QuestionType    `json:"question_type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer string          `json:"correct_answer,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
	Marks         int             `json:"marks"`
	OrderNum      int             `json:"order_num"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuestionForTaker is a question stripped of its correct answer and
// explanation, safe to send to exam takers.
type QuestionForTaker struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options,omitempty"`
	Marks        int             `json:"marks"`
	OrderNum     int             `json:"order_num"`
}

// ForTaker converts the question to its answer-free representation.
func (q *Question) ForTaker() QuestionForTaker {
	return QuestionForTaker{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		Marks:        q.Marks,
		OrderNum:     q.OrderNum,
	}
}

// CreateQuestionRequest is the payload for adding a question to an exam.
type CreateQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=3"`
	QuestionType  QuestionType    `json:"question_type" binding:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE SHORT_ANSWER ESSAY"`
	Options       json.RawMessage `json:"options" binding:"omitempty"`
	CorrectAnswer string          `json:"correct_answer" binding:"omitempty"`
	Explanation   string          `json:"explanation" binding:"omitempty"`
	Marks         int             `json:"marks" binding:"required,min=1,max=100"`
	OrderNum      int             `json:"order_num" binding:"omitempty,min=0"`
}
