package model

import "time"

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserSummary is the admin listing row: a user plus the derived number of
// recipes they own.
type UserSummary struct {
	ID          int64     `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	Email       string    `json:"email" db:"email"`
	IsAdmin     bool      `json:"is_admin" db:"is_admin"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	RecipeCount int       `json:"recipe_count" db:"recipe_count"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateUserStatusRequest uses a pointer so that an absent or non-boolean
// is_admin can be told apart from an explicit false.
type UpdateUserStatusRequest struct {
	IsAdmin *bool `json:"is_admin"`
}

// Session is returned by register, login and admin login.
type Session struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
	Token    string `json:"token"`
}

// Identity is the caller resolved from a verified token.
type Identity struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"is_admin"`
}
