package service

import (
	"testing"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
)

func question(qt model.QuestionType, correct string, marks int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionType:  qt,
		CorrectAnswer: correct,
		Marks:         marks,
	}
}

func TestScoreAnswers(t *testing.T) {
	mc := question(model.QuestionTypeMultipleChoice, "2", 10)
	tf := question(model.QuestionTypeTrueFalse, "true", 5)
	sa := question(model.QuestionTypeShortAnswer, "Goroutine", 10)
	essay := question(model.QuestionTypeEssay, "", 20)
	questions := []model.Question{mc, tf, sa, essay}

	answers := map[string]string{
		mc.ID.String():    "2",
		tf.ID.String():    "TRUE",
		sa.ID.String():    "  goroutine ",
		essay.ID.String(): "a thorough explanation",
	}

	score, totalMarks, percentage := ScoreAnswers(questions, answers)
	if score != 25 {
		t.Errorf("score = %v, want 25", score)
	}
	if totalMarks != 45 {
		t.Errorf("total marks = %d, want 45", totalMarks)
	}
	want := 25.0 / 45.0 * 100
	if percentage != want {
		t.Errorf("percentage = %v, want %v", percentage, want)
	}
}

func TestScoreAnswersWrongAndMissing(t *testing.T) {
	mc := question(model.QuestionTypeMultipleChoice, "1", 10)
	tf := question(model.QuestionTypeTrueFalse, "false", 10)
	questions := []model.Question{mc, tf}

	// The multiple-choice index must match exactly; "01" is not "1".
	answers := map[string]string{mc.ID.String(): "01"}
	score, totalMarks, percentage := ScoreAnswers(questions, answers)
	if score != 0 || totalMarks != 20 || percentage != 0 {
		t.Errorf("got score=%v total=%d pct=%v, want all zero score", score, totalMarks, percentage)
	}
}

func TestScoreAnswersNoGradableMarks(t *testing.T) {
	essay := question(model.QuestionTypeEssay, "", 0)
	score, totalMarks, percentage := ScoreAnswers([]model.Question{essay}, map[string]string{
		essay.ID.String(): "text",
	})
	if score != 0 || totalMarks != 0 || percentage != 0 {
		t.Errorf("zero-mark exam: score=%v total=%d pct=%v", score, totalMarks, percentage)
	}
}

func TestIsAnswerCorrectPerType(t *testing.T) {
	cases := []struct {
		name    string
		qt      model.QuestionType
		correct string
		answer  string
		want    bool
	}{
		{"mc exact", model.QuestionTypeMultipleChoice, "3", "3", true},
		{"mc case sensitive payload", model.QuestionTypeMultipleChoice, "3", " 3", false},
		{"tf case insensitive", model.QuestionTypeTrueFalse, "True", "tRuE", true},
		{"tf wrong", model.QuestionTypeTrueFalse, "true", "false", false},
		{"short trims and folds", model.QuestionTypeShortAnswer, "Paris", " PARIS  ", true},
		{"short wrong", model.QuestionTypeShortAnswer, "Paris", "London", false},
		{"essay never auto-graded", model.QuestionTypeEssay, "", "anything", false},
	}
	for _, tc := range cases {
		q := question(tc.qt, tc.correct, 1)
		if got := isAnswerCorrect(&q, tc.answer); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
