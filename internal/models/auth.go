package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"jane@example.com"`
	Password string `json:"password" binding:"required" example:"S3cure!pass"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"jane@example.com"`
	Username string `json:"username" binding:"required,min=3,max=30" example:"jane_doe"`
	Password string `json:"password" binding:"required,min=8" example:"S3cure!pass"`
}

// AuthResponse represents a successful login
type AuthResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// RegisterResponse represents a successful registration
type RegisterResponse struct {
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// ProfileResponse wraps the authenticated user's profile
type ProfileResponse struct {
	User User `json:"user"`
}

// JWTClaims represents the claims of a backend-issued access token.
// The backend stores the user id as the subject.
type JWTClaims struct {
	Type  string `json:"type,omitempty"`
	Fresh bool   `json:"fresh,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo represents validated token information
type TokenInfo struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
