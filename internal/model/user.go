package model

import "time"

// UserRole distinguishes what a user may do on the platform.
type UserRole string

const (
	RoleNormal  UserRole = "NORMAL"
	RoleTeacher UserRole = "TEACHER"
	RoleAdmin   UserRole = "ADMIN"
)

// User represents a registered account.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         UserRole  `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanAuthorExams reports whether the user may create and manage exams.
func (u *User) CanAuthorExams() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Phone    string `json:"phone" binding:"omitempty,e164"`
	Bio      string `json:"bio" binding:"omitempty,max=500"`
}

// LoginRequest is the payload for authentication.
// Identity may be a username or an email address.
type LoginRequest struct {
	Identity string `json:"identity" binding:"required,min=3,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
