package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// stubResultStore is an empty result store whose ListByExam optionally fails,
// which makes every Resume fail at the per-exam rerank stage.
type stubResultStore struct {
	listErr error
}

func (s *stubResultStore) GetByExamAndUser(context.Context, uuid.UUID, int) (*model.LeaderboardEntry, error) {
	return nil, nil
}
func (s *stubResultStore) Insert(context.Context, *model.LeaderboardEntry) error { return nil }
func (s *stubResultStore) UpdateOutcome(context.Context, *model.LeaderboardEntry) error { return nil }
func (s *stubResultStore) ListByExam(context.Context, uuid.UUID) ([]model.LeaderboardEntry, error) {
	return nil, s.listErr
}
func (s *stubResultStore) ListByUser(context.Context, int) ([]model.LeaderboardEntry, error) {
	return nil, nil
}
func (s *stubResultStore) UpdateRanks(context.Context, uuid.UUID, []model.LeaderboardEntry) error {
	return nil
}
func (s *stubResultStore) CountByExam(context.Context, uuid.UUID) (int, error) { return 0, nil }
func (s *stubResultStore) CountTopRankedExams(context.Context, int, int) (int, error) {
	return 0, nil
}
func (s *stubResultStore) TopByExam(context.Context, uuid.UUID, int) ([]model.RankedEntry, error) {
	return nil, nil
}

type stubAggregateStore struct{}

func (stubAggregateStore) GetByUser(context.Context, int) (*model.GlobalLeaderboardEntry, error) {
	return nil, nil
}
func (stubAggregateStore) Upsert(context.Context, *model.GlobalLeaderboardEntry) error { return nil }
func (stubAggregateStore) ListQualifying(context.Context) ([]model.GlobalLeaderboardEntry, error) {
	return nil, nil
}
func (stubAggregateStore) UpdateGlobalRanks(context.Context, []model.GlobalLeaderboardEntry) error {
	return nil
}
func (stubAggregateStore) TopGlobal(context.Context, int) ([]model.GlobalRankedEntry, error) {
	return nil, nil
}

type stubAchievementStore struct{}

func (stubAchievementStore) CreateIfAbsent(context.Context, *model.Achievement) (bool, error) {
	return false, nil
}
func (stubAchievementStore) ListByUser(context.Context, int) ([]model.Achievement, error) {
	return nil, nil
}
func (stubAchievementStore) ListRecent(context.Context, int) ([]model.Achievement, error) {
	return nil, nil
}
func (stubAchievementStore) CountByUser(context.Context, int) (int, error) { return 0, nil }

type stubExamStore struct{}

func (stubExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	return &model.Exam{ID: id, Title: "Exam", Status: model.ExamStatusActive}, nil
}

type stubUserStore struct{}

func (stubUserStore) Exists(context.Context, int) (bool, error) { return true, nil }

func newTestWorker(t *testing.T, results *stubResultStore) (*RerankWorker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := zerolog.Nop()
	leaderboard := service.NewLeaderboardService(results, rdb, time.Minute, log)
	global := service.NewGlobalLeaderboardService(stubAggregateStore{}, results, rdb, time.Minute, log)
	achievements := service.NewAchievementService(stubAchievementStore{}, results, stubExamStore{}, log)
	ranking := service.NewRankingService(stubExamStore{}, stubUserStore{}, leaderboard, global, achievements, rdb, log)

	return NewRerankWorker(ranking, rdb, log), rdb
}

func queuedTasks(t *testing.T, rdb *redis.Client) []service.RerankTask {
	t.Helper()
	ctx := context.Background()
	raws, err := rdb.LRange(ctx, config.WorkerKey.RerankRetryQueue, 0, -1).Result()
	if err != nil {
		t.Fatalf("lrange: %v", err)
	}
	tasks := make([]service.RerankTask, 0, len(raws))
	for _, raw := range raws {
		var task service.RerankTask
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			t.Fatalf("unmarshal queued task: %v", err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	w, rdb := newTestWorker(t, &stubResultStore{})

	w.handle(context.Background(), []byte("{not json"))

	if tasks := queuedTasks(t, rdb); len(tasks) != 0 {
		t.Errorf("malformed payload requeued: %+v", tasks)
	}
}

func TestHandleResumeSuccessLeavesQueueEmpty(t *testing.T) {
	w, rdb := newTestWorker(t, &stubResultStore{})

	raw, _ := json.Marshal(service.RerankTask{ExamID: uuid.New(), UserID: 1})
	w.handle(context.Background(), raw)

	if tasks := queuedTasks(t, rdb); len(tasks) != 0 {
		t.Errorf("successful resume requeued: %+v", tasks)
	}
}

func TestHandleRequeuesFailureWithAdvancedAttempts(t *testing.T) {
	w, rdb := newTestWorker(t, &stubResultStore{listErr: errors.New("store down")})

	examID := uuid.New()
	raw, _ := json.Marshal(service.RerankTask{ExamID: examID, UserID: 1, Attempts: 2})
	w.handle(context.Background(), raw)

	tasks := queuedTasks(t, rdb)
	if len(tasks) != 1 {
		t.Fatalf("queue length = %d, want 1", len(tasks))
	}
	if tasks[0].ExamID != examID || tasks[0].UserID != 1 || tasks[0].Attempts != 3 {
		t.Errorf("requeued task = %+v", tasks[0])
	}
}

func TestHandleDropsExhaustedTask(t *testing.T) {
	w, rdb := newTestWorker(t, &stubResultStore{listErr: errors.New("store down")})

	raw, _ := json.Marshal(service.RerankTask{ExamID: uuid.New(), UserID: 1, Attempts: RerankMaxAttempts - 1})
	w.handle(context.Background(), raw)

	if tasks := queuedTasks(t, rdb); len(tasks) != 0 {
		t.Errorf("exhausted task requeued: %+v", tasks)
	}
}
