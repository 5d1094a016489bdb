package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/database"
	"github.com/examtaker/examtaker-backend/internal/logger"
	"github.com/examtaker/examtaker-backend/internal/model"
	"github.com/examtaker/examtaker-backend/internal/repository"
	"github.com/examtaker/examtaker-backend/internal/service"
	"golang.org/x/term"
)

// Creates a user with an elevated role from the terminal. Registration over
// the API only produces NORMAL users.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, nil)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Full Name: ")
	fullName, _ := reader.ReadString('\n')
	fullName = strings.TrimSpace(fullName)

	fmt.Print("Enter Role (NORMAL/TEACHER/ADMIN) [NORMAL]: ")
	roleInput, _ := reader.ReadString('\n')
	role := model.UserRole(strings.ToUpper(strings.TrimSpace(roleInput)))
	if role == "" {
		role = model.RoleNormal
	}
	if role != model.RoleNormal && role != model.RoleTeacher && role != model.RoleAdmin {
		fmt.Println("Error: Invalid role")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	// ─── Create User ───────────────────────────────────────────────────
	taken, err := userRepo.IdentityTaken(ctx, username, email)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if taken {
		fmt.Println("Error: Username or email already taken")
		return
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		return
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		fmt.Printf("Error creating user: %v\n", err)
		return
	}

	fmt.Printf("User created successfully (ID: %d, Role: %s)\n", user.ID, user.Role)
}
