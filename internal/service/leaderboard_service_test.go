package service

import (
	"context"
	"testing"
)

func TestRerankAssignsDenseRanks(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Algebra I")

	outcomes := []struct {
		userID int
		score  float64
		time   int
	}{
		{1, 100, 300},
		{2, 100, 200},
		{3, 80, 100},
		{4, 60, 50},
	}
	for _, o := range outcomes {
		if _, err := tr.leaderboard.RecordResult(ctx, examID, o.userID, o.score, o.score, o.time); err != nil {
			t.Fatalf("record result for user %d: %v", o.userID, err)
		}
	}
	if err := tr.leaderboard.Rerank(ctx, examID); err != nil {
		t.Fatalf("rerank: %v", err)
	}

	wantRanks := map[int]int{2: 1, 1: 2, 3: 3, 4: 4}
	for userID, want := range wantRanks {
		entry, err := tr.leaderboard.UserEntry(ctx, examID, userID)
		if err != nil || entry == nil {
			t.Fatalf("user entry %d: %v", userID, err)
		}
		if entry.Rank != want {
			t.Errorf("user %d: rank = %d, want %d", userID, entry.Rank, want)
		}
	}
}

func TestRerankTieBreaksByUserID(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Tied Exam")

	// Identical score and time: lower user ID wins.
	for _, userID := range []int{7, 3, 5} {
		if _, err := tr.leaderboard.RecordResult(ctx, examID, userID, 90, 90, 120); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}
	if err := tr.leaderboard.Rerank(ctx, examID); err != nil {
		t.Fatalf("rerank: %v", err)
	}

	top, err := tr.leaderboard.TopByExam(ctx, examID, 10)
	if err != nil {
		t.Fatalf("top by exam: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	for i, wantUser := range []int{3, 5, 7} {
		if top[i].UserID != wantUser {
			t.Errorf("position %d: user = %d, want %d", i, top[i].UserID, wantUser)
		}
		if top[i].Rank != i+1 {
			t.Errorf("position %d: rank = %d, want %d", i, top[i].Rank, i+1)
		}
	}
}

func TestRecordResultDomination(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Retake Exam")

	if _, err := tr.leaderboard.RecordResult(ctx, examID, 1, 80, 80, 200); err != nil {
		t.Fatalf("initial record: %v", err)
	}

	// Lower score never regresses the stored entry.
	entry, err := tr.leaderboard.RecordResult(ctx, examID, 1, 70, 70, 100)
	if err != nil {
		t.Fatalf("record lower score: %v", err)
	}
	if entry.Score != 80 || entry.TimeTakenSeconds != 200 {
		t.Errorf("entry regressed: %+v", entry)
	}

	// Equal score in strictly less time dominates.
	entry, err = tr.leaderboard.RecordResult(ctx, examID, 1, 80, 80, 150)
	if err != nil {
		t.Fatalf("record faster time: %v", err)
	}
	if entry.TimeTakenSeconds != 150 {
		t.Errorf("time = %d, want 150", entry.TimeTakenSeconds)
	}

	// Replaying the identical outcome is a no-op.
	entry, err = tr.leaderboard.RecordResult(ctx, examID, 1, 80, 80, 150)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if entry.Score != 80 || entry.TimeTakenSeconds != 150 {
		t.Errorf("replay changed entry: %+v", entry)
	}
}

func TestRecordResultRejectsInvalidOutcome(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Validation Exam")

	cases := []struct {
		name       string
		score      float64
		percentage float64
		time       int
	}{
		{"negative time", 50, 50, -1},
		{"negative score", -5, 0, 60},
		{"percentage above 100", 50, 101, 60},
		{"negative percentage", 50, -1, 60},
	}
	for _, tc := range cases {
		if _, err := tr.leaderboard.RecordResult(ctx, examID, 1, tc.score, tc.percentage, tc.time); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	if n, _ := tr.results.CountByExam(ctx, examID); n != 0 {
		t.Errorf("invalid outcomes persisted %d entries", n)
	}
}

func TestTopByExamCacheInvalidatedOnRerank(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Cached Exam")

	if _, err := tr.leaderboard.RecordResult(ctx, examID, 1, 70, 70, 100); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tr.leaderboard.Rerank(ctx, examID); err != nil {
		t.Fatalf("rerank: %v", err)
	}

	// Prime the cache.
	if _, err := tr.leaderboard.TopByExam(ctx, examID, 10); err != nil {
		t.Fatalf("top: %v", err)
	}

	// A new leader must be visible immediately after the next rerank.
	if _, err := tr.leaderboard.RecordResult(ctx, examID, 2, 95, 95, 80); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tr.leaderboard.Rerank(ctx, examID); err != nil {
		t.Fatalf("rerank: %v", err)
	}

	top, err := tr.leaderboard.TopByExam(ctx, examID, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != 2 {
		t.Fatalf("stale leaderboard after rerank: %+v", top)
	}
}
