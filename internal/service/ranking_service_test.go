package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
)

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Championship Exam")
	tr.users.add(1)
	tr.users.add(2)
	tr.users.add(3)

	submissions := []struct {
		userID int
		score  float64
		time   int
	}{
		{1, 100, 300},
		{2, 100, 200},
		{3, 80, 100},
	}
	for _, sub := range submissions {
		if _, err := tr.ranking.OnAttemptFinalized(ctx, examID, sub.userID, sub.score, sub.score, sub.time); err != nil {
			t.Fatalf("finalize user %d: %v", sub.userID, err)
		}
	}

	// Per-exam standings: equal scores fall to the faster user.
	wantRanks := map[int]int{2: 1, 1: 2, 3: 3}
	for userID, want := range wantRanks {
		entry, err := tr.leaderboard.UserEntry(ctx, examID, userID)
		if err != nil || entry == nil {
			t.Fatalf("user entry %d: %v", userID, err)
		}
		if entry.Rank != want {
			t.Errorf("user %d: rank = %d, want %d", userID, entry.Rank, want)
		}
	}

	// Global aggregates and ranks follow from the single exam.
	for userID := 1; userID <= 3; userID++ {
		agg, err := tr.global.UserAggregate(ctx, userID)
		if err != nil || agg == nil {
			t.Fatalf("aggregate user %d: %v", userID, err)
		}
		if agg.TotalExams != 1 {
			t.Errorf("user %d: total exams = %d, want 1", userID, agg.TotalExams)
		}
		if agg.GlobalRank == nil {
			t.Errorf("user %d: no global rank", userID)
		}
	}
	top, err := tr.global.TopGlobal(ctx, 10)
	if err != nil {
		t.Fatalf("top global: %v", err)
	}
	// Averages 100, 100, 80 with the time tiebreak: user 2, then 1, then 3.
	if len(top) != 3 || top[0].UserID != 2 || top[1].UserID != 1 || top[2].UserID != 3 {
		t.Errorf("global order: %+v", top)
	}

	// Achievements land as part of the same pipeline run.
	if got := tr.grants.kinds(2); !got[model.AchievementFirstPlace] || !got[model.AchievementPerfectScore] {
		t.Errorf("user 2 grants: %v", got)
	}
	if got := tr.grants.kinds(1); got[model.AchievementFirstPlace] || !got[model.AchievementTopThree] {
		t.Errorf("user 1 grants: %v", got)
	}
	if got := tr.grants.kinds(3); !got[model.AchievementTopThree] || got[model.AchievementPerfectScore] {
		t.Errorf("user 3 grants: %v", got)
	}
}

func TestOnAttemptFinalizedRejections(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Guarded Exam")
	tr.users.add(1)

	if _, err := tr.ranking.OnAttemptFinalized(ctx, uuid.New(), 1, 50, 50, 60); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unknown exam: err = %v", err)
	}
	if _, err := tr.ranking.OnAttemptFinalized(ctx, examID, 99, 50, 50, 60); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: err = %v", err)
	}
	if _, err := tr.ranking.OnAttemptFinalized(ctx, examID, 1, 50, 50, -1); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("invalid outcome: err = %v", err)
	}

	// None of the rejections may leave partial state behind.
	if n, _ := tr.results.CountByExam(ctx, examID); n != 0 {
		t.Errorf("rejections persisted %d entries", n)
	}
}

func TestConcurrentFinalizationsKeepRanksDense(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Stress Exam")

	const users = 12
	for userID := 1; userID <= users; userID++ {
		tr.users.add(userID)
	}

	var wg sync.WaitGroup
	for userID := 1; userID <= users; userID++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			score := float64(50 + userID)
			if _, err := tr.ranking.OnAttemptFinalized(ctx, examID, userID, score, score, 100+userID); err != nil {
				t.Errorf("finalize user %d: %v", userID, err)
			}
		}(userID)
	}
	wg.Wait()

	entries, err := tr.results.ListByExam(ctx, examID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != users {
		t.Fatalf("entries = %d, want %d", len(entries), users)
	}
	seen := make(map[int]bool)
	for _, e := range entries {
		if e.Rank < 1 || e.Rank > users {
			t.Errorf("user %d: rank %d out of range", e.UserID, e.Rank)
		}
		if seen[e.Rank] {
			t.Errorf("duplicate rank %d", e.Rank)
		}
		seen[e.Rank] = true
	}
}

func TestResumeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Replay Exam")
	tr.users.add(1)

	if _, err := tr.ranking.OnAttemptFinalized(ctx, examID, 1, 85, 85, 90); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	before, err := tr.global.UserAggregate(ctx, 1)
	if err != nil || before == nil {
		t.Fatalf("aggregate: %v", err)
	}
	grantsBefore, _ := tr.grants.CountByUser(ctx, 1)

	// Resuming a pipeline that already completed changes nothing.
	for i := 0; i < 2; i++ {
		if err := tr.ranking.Resume(ctx, examID, 1); err != nil {
			t.Fatalf("resume %d: %v", i, err)
		}
	}

	after, err := tr.global.UserAggregate(ctx, 1)
	if err != nil || after == nil {
		t.Fatalf("aggregate: %v", err)
	}
	if after.TotalExams != before.TotalExams ||
		after.AverageScore != before.AverageScore ||
		after.TotalTimeSeconds != before.TotalTimeSeconds {
		t.Errorf("resume changed aggregate: before %+v after %+v", before, after)
	}
	if grantsAfter, _ := tr.grants.CountByUser(ctx, 1); grantsAfter != grantsBefore {
		t.Errorf("resume changed grants: %d -> %d", grantsBefore, grantsAfter)
	}
}

func TestPipelinePublishesLeaderboardEvent(t *testing.T) {
	ctx := context.Background()
	tr := newTestRanking(t)
	examID := tr.exams.add("Live Exam")
	tr.users.add(1)

	channel := "exam:" + examID.String() + ":leaderboard:events"
	sub := tr.rdb.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if _, err := tr.ranking.OnAttemptFinalized(ctx, examID, 1, 75, 75, 120); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.Payload != "updated" {
		t.Errorf("payload = %q, want %q", msg.Payload, "updated")
	}
}
