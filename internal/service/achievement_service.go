package service

import (
	"context"
	"fmt"

	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/rs/zerolog"
)

// consistentExamThreshold is how many distinct top-3 finishes earn the
// "consistent" achievement.
const consistentExamThreshold = 5

// ruleContext carries everything a rule may inspect: the freshly reranked
// entry, exam metadata, the participant count, and (for cross-exam rules)
// access to the user's full result history.
type ruleContext struct {
	entry        *model.LeaderboardEntry
	examTitle    string
	participants int
	results      ResultStore
}

// achievementRule is one independent predicate over current standings.
// evaluate returns the grant to issue, or nil when the condition is unmet.
// Rules never revoke: an unmet condition is simply no new grant.
type achievementRule interface {
	kind() model.AchievementKind
	evaluate(ctx context.Context, rc *ruleContext) (*model.Achievement, error)
}

// ─── Per-exam rank rules ────────────────────────────────────────────

type rankRule struct {
	achievementKind model.AchievementKind
	maxRank         int
	label           string
}

func (r rankRule) kind() model.AchievementKind { return r.achievementKind }

func (r rankRule) evaluate(_ context.Context, rc *ruleContext) (*model.Achievement, error) {
	if rc.entry.Rank > r.maxRank {
		return nil, nil
	}
	examID := rc.entry.ExamID
	return &model.Achievement{
		UserID:      rc.entry.UserID,
		Kind:        r.achievementKind,
		ExamID:      &examID,
		Description: fmt.Sprintf("Achieved %s in %s", r.label, rc.examTitle),
	}, nil
}

// ─── Perfect score ──────────────────────────────────────────────────

type perfectScoreRule struct{}

func (perfectScoreRule) kind() model.AchievementKind { return model.AchievementPerfectScore }

func (perfectScoreRule) evaluate(_ context.Context, rc *ruleContext) (*model.Achievement, error) {
	if rc.entry.Percentage != 100 {
		return nil, nil
	}
	examID := rc.entry.ExamID
	return &model.Achievement{
		UserID:      rc.entry.UserID,
		Kind:        model.AchievementPerfectScore,
		ExamID:      &examID,
		Description: fmt.Sprintf("Achieved perfect score in %s", rc.examTitle),
	}, nil
}

// ─── Speed demon ────────────────────────────────────────────────────

// speedDemonRule grants the user with the minimum time-taken among the exam's
// top ⌈N/10⌉ scorers, evaluated only once the exam has at least ten
// participants. Time ties fall to the lower user ID so the winner is stable.
type speedDemonRule struct{}

func (speedDemonRule) kind() model.AchievementKind { return model.AchievementSpeedDemon }

func (speedDemonRule) evaluate(ctx context.Context, rc *ruleContext) (*model.Achievement, error) {
	if rc.participants < 10 {
		return nil, nil
	}
	topSlice := (rc.participants + 9) / 10

	entries, err := rc.results.ListByExam(ctx, rc.entry.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list exam entries: %w", err)
	}

	var fastest *model.LeaderboardEntry
	for i := range entries {
		e := &entries[i]
		if e.Rank == 0 || e.Rank > topSlice {
			continue
		}
		if fastest == nil ||
			e.TimeTakenSeconds < fastest.TimeTakenSeconds ||
			(e.TimeTakenSeconds == fastest.TimeTakenSeconds && e.UserID < fastest.UserID) {
			fastest = e
		}
	}
	if fastest == nil || fastest.UserID != rc.entry.UserID {
		return nil, nil
	}

	examID := rc.entry.ExamID
	return &model.Achievement{
		UserID:      rc.entry.UserID,
		Kind:        model.AchievementSpeedDemon,
		ExamID:      &examID,
		Description: fmt.Sprintf("Fastest completion time among top performers in %s", rc.examTitle),
	}, nil
}

// ─── Consistent performer ───────────────────────────────────────────

// consistentRule is the only cross-exam rule: rank ≤ 3 in at least five
// distinct exams. The grant is scope-free (no exam ID).
type consistentRule struct{}

func (consistentRule) kind() model.AchievementKind { return model.AchievementConsistent }

func (consistentRule) evaluate(ctx context.Context, rc *ruleContext) (*model.Achievement, error) {
	count, err := rc.results.CountTopRankedExams(ctx, rc.entry.UserID, 3)
	if err != nil {
		return nil, fmt.Errorf("count top-ranked exams: %w", err)
	}
	if count < consistentExamThreshold {
		return nil, nil
	}
	return &model.Achievement{
		UserID:      rc.entry.UserID,
		Kind:        model.AchievementConsistent,
		Description: fmt.Sprintf("Achieved top 3 in %d different exams", consistentExamThreshold),
	}, nil
}

// ─── Service ────────────────────────────────────────────────────────

// AchievementService evaluates the fixed rule set against updated standings
// and issues idempotent grants. Evaluation order is irrelevant; every rule is
// an independent predicate and grants are create-if-absent.
type AchievementService struct {
	achievements AchievementStore
	results      ResultStore
	exams        ExamStore
	rules        []achievementRule
	log          zerolog.Logger
}

// NewAchievementService creates a new AchievementService with the full rule set.
func NewAchievementService(achievements AchievementStore, results ResultStore, exams ExamStore, log zerolog.Logger) *AchievementService {
	return &AchievementService{
		achievements: achievements,
		results:      results,
		exams:        exams,
		rules: []achievementRule{
			rankRule{model.AchievementFirstPlace, 1, "1st place"},
			rankRule{model.AchievementTopThree, 3, "top 3"},
			rankRule{model.AchievementTopTen, 10, "top 10"},
			perfectScoreRule{},
			speedDemonRule{},
			consistentRule{},
		},
		log: log.With().Str("component", "achievement_service").Logger(),
	}
}

// Evaluate runs every rule against the given freshly reranked entry.
// Satisfied rules grant at most once per (user, kind, exam-or-nil); already
// granted achievements and unmet conditions are both no-ops.
func (s *AchievementService) Evaluate(ctx context.Context, entry *model.LeaderboardEntry) error {
	exam, err := s.exams.GetByID(ctx, entry.ExamID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam == nil {
		return ErrExamNotFound
	}

	participants, err := s.results.CountByExam(ctx, entry.ExamID)
	if err != nil {
		return fmt.Errorf("count participants: %w", err)
	}

	rc := &ruleContext{
		entry:        entry,
		examTitle:    exam.Title,
		participants: participants,
		results:      s.results,
	}

	for _, rule := range s.rules {
		grant, err := rule.evaluate(ctx, rc)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", rule.kind(), err)
		}
		if grant == nil {
			continue
		}

		created, err := s.achievements.CreateIfAbsent(ctx, grant)
		if err != nil {
			return fmt.Errorf("grant %s: %w", rule.kind(), err)
		}
		if created {
			s.log.Info().
				Int("user_id", grant.UserID).
				Str("kind", string(grant.Kind)).
				Str("exam_id", entry.ExamID.String()).
				Msg("Achievement granted")
		}
	}
	return nil
}

// UserAchievements returns all achievements earned by a user.
func (s *AchievementService) UserAchievements(ctx context.Context, userID int) ([]model.Achievement, error) {
	return s.achievements.ListByUser(ctx, userID)
}

// RecentAchievements returns the latest grants across all users.
func (s *AchievementService) RecentAchievements(ctx context.Context, limit int) ([]model.Achievement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.achievements.ListRecent(ctx, limit)
}
