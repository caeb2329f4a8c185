package dto

import "time"

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MessageResponse carries a human-readable outcome for flows without a payload.
type MessageResponse struct {
	Message string `json:"message"`
}
