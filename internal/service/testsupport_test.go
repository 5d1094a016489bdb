package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// In-memory store fakes. All of them are safe for concurrent use so the
// pipeline tests can hammer them from multiple goroutines.

type memResultStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []model.LeaderboardEntry
}

func newMemResultStore() *memResultStore { return &memResultStore{} }

func (s *memResultStore) GetByExamAndUser(_ context.Context, examID uuid.UUID, userID int) (*model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ExamID == examID && s.entries[i].UserID == userID {
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (s *memResultStore) Insert(_ context.Context, e *model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	s.entries = append(s.entries, *e)
	return nil
}

func (s *memResultStore) UpdateOutcome(_ context.Context, e *model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ExamID == e.ExamID && s.entries[i].UserID == e.UserID {
			s.entries[i].Score = e.Score
			s.entries[i].Percentage = e.Percentage
			s.entries[i].TimeTakenSeconds = e.TimeTakenSeconds
			s.entries[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("entry not found")
}

func (s *memResultStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LeaderboardEntry
	for _, e := range s.entries {
		if e.ExamID == examID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memResultStore) ListByUser(_ context.Context, userID int) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LeaderboardEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memResultStore) UpdateRanks(_ context.Context, examID uuid.UUID, ranked []model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range ranked {
		for i := range s.entries {
			if s.entries[i].ExamID == examID && s.entries[i].UserID == r.UserID {
				s.entries[i].Rank = r.Rank
			}
		}
	}
	return nil
}

func (s *memResultStore) CountByExam(_ context.Context, examID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entries {
		if e.ExamID == examID {
			count++
		}
	}
	return count, nil
}

func (s *memResultStore) CountTopRankedExams(_ context.Context, userID, maxRank int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, e := range s.entries {
		if e.UserID == userID && e.Rank > 0 && e.Rank <= maxRank {
			count++
		}
	}
	return count, nil
}

func (s *memResultStore) TopByExam(_ context.Context, examID uuid.UUID, limit int) ([]model.RankedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ranked []model.RankedEntry
	for _, e := range s.entries {
		if e.ExamID == examID && e.Rank > 0 {
			ranked = append(ranked, model.RankedEntry{
				Rank:             e.Rank,
				UserID:           e.UserID,
				Username:         fmt.Sprintf("user%d", e.UserID),
				Score:            e.Score,
				Percentage:       e.Percentage,
				TimeTakenSeconds: e.TimeTakenSeconds,
			})
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

type memAggregateStore struct {
	mu         sync.Mutex
	aggregates map[int]model.GlobalLeaderboardEntry
}

func newMemAggregateStore() *memAggregateStore {
	return &memAggregateStore{aggregates: make(map[int]model.GlobalLeaderboardEntry)}
}

func (s *memAggregateStore) GetByUser(_ context.Context, userID int) (*model.GlobalLeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.aggregates[userID]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *memAggregateStore) Upsert(_ context.Context, e *model.GlobalLeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *e
	if prev, ok := s.aggregates[e.UserID]; ok {
		stored.GlobalRank = prev.GlobalRank
	}
	stored.UpdatedAt = time.Now()
	s.aggregates[e.UserID] = stored
	return nil
}

func (s *memAggregateStore) ListQualifying(_ context.Context) ([]model.GlobalLeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.GlobalLeaderboardEntry
	for _, e := range s.aggregates {
		if e.TotalExams > 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memAggregateStore) UpdateGlobalRanks(_ context.Context, entries []model.GlobalLeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range entries {
		if e, ok := s.aggregates[r.UserID]; ok {
			e.GlobalRank = r.GlobalRank
			s.aggregates[r.UserID] = e
		}
	}
	return nil
}

func (s *memAggregateStore) TopGlobal(_ context.Context, limit int) ([]model.GlobalRankedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ranked []model.GlobalRankedEntry
	for _, e := range s.aggregates {
		if e.GlobalRank == nil {
			continue
		}
		ranked = append(ranked, model.GlobalRankedEntry{
			GlobalRank:       *e.GlobalRank,
			UserID:           e.UserID,
			Username:         fmt.Sprintf("user%d", e.UserID),
			TotalExams:       e.TotalExams,
			AverageScore:     e.AverageScore,
			BestScore:        e.BestScore,
			TotalTimeSeconds: e.TotalTimeSeconds,
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].GlobalRank < ranked[j].GlobalRank })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

type memAchievementStore struct {
	mu     sync.Mutex
	nextID int64
	grants []model.Achievement
}

func newMemAchievementStore() *memAchievementStore { return &memAchievementStore{} }

func grantKey(a *model.Achievement) string {
	if a.ExamID == nil {
		return fmt.Sprintf("%d|%s|", a.UserID, a.Kind)
	}
	return fmt.Sprintf("%d|%s|%s", a.UserID, a.Kind, a.ExamID)
}

func (s *memAchievementStore) CreateIfAbsent(_ context.Context, a *model.Achievement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey(a)
	for i := range s.grants {
		if grantKey(&s.grants[i]) == key {
			return false, nil
		}
	}
	s.nextID++
	a.ID = s.nextID
	a.EarnedAt = time.Now()
	s.grants = append(s.grants, *a)
	return true, nil
}

func (s *memAchievementStore) ListByUser(_ context.Context, userID int) ([]model.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Achievement
	for _, a := range s.grants {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAchievementStore) ListRecent(_ context.Context, limit int) ([]model.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.Achievement(nil), s.grants...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memAchievementStore) CountByUser(_ context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.grants {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

// kinds returns the user's earned achievement kinds for easy assertions.
func (s *memAchievementStore) kinds(userID int) map[model.AchievementKind]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.AchievementKind]bool)
	for _, a := range s.grants {
		if a.UserID == userID {
			out[a.Kind] = true
		}
	}
	return out
}

type memExamStore struct {
	mu    sync.Mutex
	exams map[uuid.UUID]model.Exam
}

func newMemExamStore() *memExamStore {
	return &memExamStore{exams: make(map[uuid.UUID]model.Exam)}
}

func (s *memExamStore) add(title string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.exams[id] = model.Exam{ID: id, Title: title, Status: model.ExamStatusActive}
	return id
}

func (s *memExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.exams[id]; ok {
		return &e, nil
	}
	return nil, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[int]bool
}

func newMemUserStore(ids ...int) *memUserStore {
	s := &memUserStore{users: make(map[int]bool)}
	for _, id := range ids {
		s.users[id] = true
	}
	return s
}

func (s *memUserStore) add(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = true
}

func (s *memUserStore) Exists(_ context.Context, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

// testRanking bundles the full pipeline wired against fakes and miniredis.
type testRanking struct {
	ranking      *RankingService
	leaderboard  *LeaderboardService
	global       *GlobalLeaderboardService
	achievements *AchievementService
	results      *memResultStore
	aggregates   *memAggregateStore
	grants       *memAchievementStore
	exams        *memExamStore
	users        *memUserStore
	rdb          *redis.Client
	mr           *miniredis.Miniredis
}

func newTestRanking(t *testing.T) *testRanking {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := zerolog.Nop()
	results := newMemResultStore()
	aggregates := newMemAggregateStore()
	grants := newMemAchievementStore()
	exams := newMemExamStore()
	users := newMemUserStore()

	leaderboard := NewLeaderboardService(results, rdb, time.Minute, log)
	global := NewGlobalLeaderboardService(aggregates, results, rdb, time.Minute, log)
	achievements := NewAchievementService(grants, results, exams, log)
	ranking := NewRankingService(exams, users, leaderboard, global, achievements, rdb, log)

	return &testRanking{
		ranking:      ranking,
		leaderboard:  leaderboard,
		global:       global,
		achievements: achievements,
		results:      results,
		aggregates:   aggregates,
		grants:       grants,
		exams:        exams,
		users:        users,
		rdb:          rdb,
		mr:           mr,
	}
}
