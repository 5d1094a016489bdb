package service

import (
	"testing"

	"github.com/examtaker/examtaker-backend/internal/model"
)

func resultsWithPercentages(percentages ...float64) []model.UserExamResult {
	out := make([]model.UserExamResult, len(percentages))
	for i, p := range percentages {
		out[i] = model.UserExamResult{Percentage: p}
	}
	return out
}

func TestComputeTrend(t *testing.T) {
	cases := []struct {
		name string
		// Newest result first, matching the repository ordering.
		percentages []float64
		want        model.PerformanceTrend
	}{
		{"no results", nil, model.TrendInsufficient},
		{"three results", []float64{90, 80, 70}, model.TrendInsufficient},
		{"improving", []float64{90, 85, 70, 60}, model.TrendImproving},
		{"declining", []float64{50, 55, 80, 90}, model.TrendDeclining},
		{"stable within swing", []float64{72, 70, 68, 70}, model.TrendStable},
		{"exact five point swing is stable", []float64{75, 75, 70, 70}, model.TrendStable},
		{"odd count ignores middle result", []float64{90, 90, 0, 60, 60}, model.TrendImproving},
	}
	for _, tc := range cases {
		if got := computeTrend(resultsWithPercentages(tc.percentages...)); got != tc.want {
			t.Errorf("%s: trend = %s, want %s", tc.name, got, tc.want)
		}
	}
}
