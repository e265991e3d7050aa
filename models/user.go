package models

import "time"

// User represents a registered student
type User struct {
	ID        int          `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Language  string       `json:"language"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Progress  UserProgress `json:"progress"`
}

// RegisterRequest creates a new user account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Password string `json:"password"`
}

// LoginRequest authenticates an existing user
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
