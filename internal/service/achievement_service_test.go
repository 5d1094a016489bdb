package service

import (
	"context"
	"testing"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
)

// seedRanked records an outcome and reranks, then returns the stored entry.
func seedRanked(t *testing.T, tr *testRanking, examID uuid.UUID, userID int, score float64, timeTaken int) *model.LeaderboardEntry {
	t.Helper()
	ctx := context.Background()
	if _, err := tr.leaderboard.RecordResult(ctx, examID, userID, score, score, timeTaken); err != nil {
		t.Fatalf("record result: %v", err)
	}
	if err := tr.leaderboard.Rerank(ctx, examID); err != nil {
		t.Fatalf("rerank: %v", err)
	}
	entry, err := tr.leaderboard.UserEntry(ctx, examID, userID)
	if err != nil || entry == nil {
		t.Fatalf("user entry: %v", err)
	}
	return entry
}

func TestEvaluateGrantsRankAchievements(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Calculus Final")

	seedRanked(t, tr, examID, 2, 70, 200)
	entry := seedRanked(t, tr, examID, 1, 100, 150)

	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	got := tr.grants.kinds(1)
	for _, kind := range []model.AchievementKind{
		model.AchievementFirstPlace,
		model.AchievementTopThree,
		model.AchievementTopTen,
		model.AchievementPerfectScore,
	} {
		if !got[kind] {
			t.Errorf("missing %s", kind)
		}
	}
	if got[model.AchievementSpeedDemon] {
		t.Error("speed_demon granted with fewer than 10 participants")
	}
	if got[model.AchievementConsistent] {
		t.Error("consistent granted from one exam")
	}
}

func TestEvaluateRunnerUpSkipsFirstPlace(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("History Quiz")

	seedRanked(t, tr, examID, 1, 95, 100)
	entry := seedRanked(t, tr, examID, 2, 90, 100)

	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	got := tr.grants.kinds(2)
	if got[model.AchievementFirstPlace] {
		t.Error("first_place granted to rank 2")
	}
	if !got[model.AchievementTopThree] || !got[model.AchievementTopTen] {
		t.Errorf("rank 2 missing top_3/top_10: %v", got)
	}
}

func TestEvaluateIsMonotonicAndIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Physics Midterm")

	entry := seedRanked(t, tr, examID, 1, 90, 100)
	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	before, err := tr.achievements.UserAchievements(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	// Re-evaluating the same standings issues no duplicate grants.
	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	after, err := tr.achievements.UserAchievements(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("duplicate grants: %d before, %d after", len(before), len(after))
	}

	// A better submission pushes user 1 down to rank 2; the earned
	// first_place grant must survive.
	entry2 := seedRanked(t, tr, examID, 2, 100, 50)
	if err := tr.achievements.Evaluate(ctx, entry2); err != nil {
		t.Fatalf("evaluate leader: %v", err)
	}
	demoted, err := tr.leaderboard.UserEntry(ctx, examID, 1)
	if err != nil || demoted == nil {
		t.Fatalf("user entry: %v", err)
	}
	if demoted.Rank != 2 {
		t.Fatalf("rank = %d, want 2", demoted.Rank)
	}
	if err := tr.achievements.Evaluate(ctx, demoted); err != nil {
		t.Fatalf("re-evaluate demoted: %v", err)
	}
	if !tr.grants.kinds(1)[model.AchievementFirstPlace] {
		t.Error("first_place revoked after rank drop")
	}
}

func TestSpeedDemonRequiresTenParticipants(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Small Exam")

	var entry *model.LeaderboardEntry
	for userID := 1; userID <= 9; userID++ {
		entry = seedRanked(t, tr, examID, userID, float64(100-userID), 100+userID)
	}
	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for userID := 1; userID <= 9; userID++ {
		if tr.grants.kinds(userID)[model.AchievementSpeedDemon] {
			t.Fatalf("speed_demon granted to user %d with 9 participants", userID)
		}
	}
}

func TestSpeedDemonFastestInTopSlice(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Big Exam")

	// 20 participants: the eligible slice is the top 2 scorers. User 2
	// (rank 1, 300s) is slower than user 1 (rank 2, 100s), so user 1 is
	// the fastest within the slice. User 3 is faster still but ranks 3rd
	// and stays ineligible.
	seedRanked(t, tr, examID, 2, 100, 300)
	seedRanked(t, tr, examID, 1, 95, 100)
	seedRanked(t, tr, examID, 3, 90, 10)
	for userID := 4; userID <= 20; userID++ {
		seedRanked(t, tr, examID, userID, float64(80-userID), 200)
	}

	for userID := 1; userID <= 3; userID++ {
		entry, err := tr.leaderboard.UserEntry(ctx, examID, userID)
		if err != nil || entry == nil {
			t.Fatalf("user entry %d: %v", userID, err)
		}
		if err := tr.achievements.Evaluate(ctx, entry); err != nil {
			t.Fatalf("evaluate user %d: %v", userID, err)
		}
	}

	if !tr.grants.kinds(1)[model.AchievementSpeedDemon] {
		t.Error("speed_demon not granted to fastest top-slice user")
	}
	if tr.grants.kinds(2)[model.AchievementSpeedDemon] {
		t.Error("speed_demon granted to slower rank-1 user")
	}
	if tr.grants.kinds(3)[model.AchievementSpeedDemon] {
		t.Error("speed_demon granted outside the top slice")
	}
}

func TestConsistentRequiresFiveTopThreeExams(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)

	var entry *model.LeaderboardEntry
	for i := 0; i < 4; i++ {
		examID := tr.exams.add("Exam")
		entry = seedRanked(t, tr, examID, 1, 90, 100)
	}
	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if tr.grants.kinds(1)[model.AchievementConsistent] {
		t.Fatal("consistent granted after 4 exams")
	}

	examID := tr.exams.add("Fifth Exam")
	entry = seedRanked(t, tr, examID, 1, 90, 100)
	if err := tr.achievements.Evaluate(ctx, entry); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !tr.grants.kinds(1)[model.AchievementConsistent] {
		t.Fatal("consistent not granted after 5 top-3 exams")
	}

	// The grant is cross-exam: no exam reference.
	all, err := tr.achievements.UserAchievements(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, a := range all {
		if a.Kind == model.AchievementConsistent && a.ExamID != nil {
			t.Errorf("consistent grant carries exam ID %v", a.ExamID)
		}
	}
}
