package services

import (
	"context"

	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/dto"
)

// UserReaderSvc defines read operations for user data.
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserWriterSvc defines registration and credential operations.
type UserWriterSvc interface {
	// RegisterUser creates a new applicant account with a hashed password.
	RegisterUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)

	// Authenticate verifies email+password and returns the matching user.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// PasswordResetSvc drives the emailed-code password reset flow.
type PasswordResetSvc interface {
	// StartPasswordReset issues a reset code and hands it to the notifier.
	StartPasswordReset(ctx context.Context, email string) error

	// VerifyResetCode checks a submitted code against the stored hash and expiry.
	VerifyResetCode(ctx context.Context, email, code string) error

	// ResetPassword replaces the password once the code has been verified.
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// UserSvcFacade combines all user-related service interfaces.
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	PasswordResetSvc
}
