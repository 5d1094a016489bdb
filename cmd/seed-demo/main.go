package main

import (
	"context"
	"fmt"
	"time"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/database"
	"github.com/examtaker/examtaker-backend/internal/logger"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/examtaker/examtaker-backend/internal/service"
)

// Seeds a demo teacher, a pool of takers, and one active exam so the
// leaderboard endpoints have something to show out of the box.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	authService := service.NewAuthService(cfg, nil)

	fmt.Println("=== Seeding Demo Data ===")

	hash, err := authService.HashPassword("password123")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}

	teacher := &model.User{
		Username:     "demo_teacher",
		Email:        "teacher@example.com",
		FullName:     "Demo Teacher",
		Role:         model.RoleTeacher,
		PasswordHash: hash,
	}
	if taken, _ := userRepo.IdentityTaken(ctx, teacher.Username, teacher.Email); taken {
		fmt.Println("Demo data already seeded, aborting")
		return
	}
	if err := userRepo.Create(ctx, teacher); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo teacher")
	}
	fmt.Printf("Created teacher (ID: %d)\n", teacher.ID)

	names := []string{
		"Alice Johnson", "Bob Smith", "Carol White", "David Brown", "Emma Davis",
		"Frank Miller", "Grace Wilson", "Henry Moore", "Iris Taylor", "Jack Anderson",
		"Karen Thomas", "Leo Jackson", "Mia Harris", "Noah Martin", "Olivia Clark",
	}
	for i, name := range names {
		taker := &model.User{
			Username:     fmt.Sprintf("taker%02d", i+1),
			Email:        fmt.Sprintf("taker%02d@example.com", i+1),
			FullName:     name,
			Role:         model.RoleNormal,
			PasswordHash: hash,
		}
		if err := userRepo.Create(ctx, taker); err != nil {
			log.Fatal().Err(err).Str("username", taker.Username).Msg("Failed to create taker")
		}
	}
	fmt.Printf("Created %d takers\n", len(names))

	exam := &model.Exam{
		Title:           "Go Fundamentals",
		Description:     "A quick check of Go basics.",
		AuthorID:        teacher.ID,
		DurationMinutes: 30,
		Difficulty:      model.DifficultyMedium,
		IsPublic:        true,
		Status:          model.ExamStatusDraft,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo exam")
	}

	questions := []model.Question{
		{
			QuestionText:  "Which keyword declares a new goroutine?",
			QuestionType:  model.QuestionTypeMultipleChoice,
			Options:       []byte(`["go", "async", "spawn", "thread"]`),
			CorrectAnswer: "0",
			Marks:         10,
		},
		{
			QuestionText:  "A nil map can be written to without panicking.",
			QuestionType:  model.QuestionTypeTrueFalse,
			CorrectAnswer: "false",
			Marks:         5,
		},
		{
			QuestionText:  "Name the builtin that returns the length of a slice.",
			QuestionType:  model.QuestionTypeShortAnswer,
			CorrectAnswer: "len",
			Marks:         5,
		},
		{
			QuestionText: "Explain how channels and mutexes differ for sharing state.",
			QuestionType: model.QuestionTypeEssay,
			Marks:        10,
		},
	}
	for i := range questions {
		questions[i].ExamID = exam.ID
		questions[i].OrderNum = i + 1
		if err := questionRepo.Create(ctx, &questions[i]); err != nil {
			log.Fatal().Err(err).Msg("Failed to create demo question")
		}
	}

	if err := examRepo.UpdateStatus(ctx, exam.ID, model.ExamStatusActive); err != nil {
		log.Fatal().Err(err).Msg("Failed to activate demo exam")
	}
	fmt.Printf("Created active exam %s with %d questions\n", exam.ID, len(questions))

	fmt.Printf("Demo login: demo_teacher / password123 (takers: taker01..taker%02d)\n", len(names))
}
