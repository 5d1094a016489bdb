package service

import (
	"strings"

	"github.com/examtaker/examtaker-backend/internal/model"
)

// ScoreAnswers grades a submitted answer set against the exam's questions.
// Unanswered questions earn zero. Essays are never auto-graded and always
// earn zero. Percentage is score over total marks, or zero for an exam with
// no gradable marks.
func ScoreAnswers(questions []model.Question, answers map[string]string) (score float64, totalMarks int, percentage float64) {
	for _, q := range questions {
		totalMarks += q.Marks
		answer, ok := answers[q.ID.String()]
		if !ok {
			continue
		}
		if isAnswerCorrect(&q, answer) {
			score += float64(q.Marks)
		}
	}
	if totalMarks > 0 {
		percentage = score / float64(totalMarks) * 100
	}
	return score, totalMarks, percentage
}

func isAnswerCorrect(q *model.Question, answer string) bool {
	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		// Answers reference the chosen option index as a string.
		return answer == q.CorrectAnswer
	case model.QuestionTypeTrueFalse:
		return strings.EqualFold(answer, q.CorrectAnswer)
	case model.QuestionTypeShortAnswer:
		return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
	case model.QuestionTypeEssay:
		return false
	default:
		return false
	}
}
