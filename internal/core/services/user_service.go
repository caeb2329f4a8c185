package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/dto"
	"github.com/KnMBursary/bursary_backend/internal/mailer"
	"github.com/KnMBursary/bursary_backend/internal/utils"
)

// userServiceImpl implements the UserSvcFacade interface
type userServiceImpl struct {
	BaseService
	userRepo     portsrepo.UserRepositoryFacade
	notifier     ports.Notifier
	resetCodeTTL time.Duration
}

// NewUserServiceImpl creates the account and credential service.
func NewUserServiceImpl(repo portsrepo.UserRepositoryFacade, notifier ports.Notifier, resetCodeTTL time.Duration) portssvc.UserSvcFacade {
	if resetCodeTTL <= 0 {
		resetCodeTTL = 10 * time.Minute
	}
	return &userServiceImpl{userRepo: repo, notifier: notifier, resetCodeTTL: resetCodeTTL}
}

// Ensure userServiceImpl implements the UserSvcFacade interface
var _ portssvc.UserSvcFacade = (*userServiceImpl)(nil)

func (s *userServiceImpl) RegisterUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:        uuid.NewString(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          domain.RoleApplicant,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		s.LogError(ctx, err, "Failed to save user", slog.String("email", req.Email))
		return nil, err
	}

	s.LogInfo(ctx, "User registered", slog.String("user_id", user.UserID))
	return &user, nil
}

func (s *userServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			// Same error as a bad password so probing can't tell accounts apart.
			return nil, apperrors.ErrForbidden
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

func (s *userServiceImpl) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.FindUserByEmail(ctx, email)
}

func (s *userServiceImpl) StartPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			// Report success for unknown addresses too; the endpoint must not
			// reveal which emails have accounts.
			s.LogInfo(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate reset code")
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	now := time.Now()
	expires := now.Add(s.resetCodeTTL)
	user.ResetCodeHash = utils.HashResetCode(code)
	user.ResetCodeExpires = &expires
	user.IsCodeVerified = false
	user.LastUpdatedAt = now

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to store reset code", slog.String("user_id", user.UserID))
		return err
	}

	subject, text, html := mailer.PasswordResetEmail(user.FirstName, code, s.resetCodeTTL)
	if err := s.notifier.Send(ctx, user.Email, subject, text, html); err != nil {
		// The code is stored and valid; the user can retry from the same screen.
		s.LogError(ctx, err, "Failed to deliver reset code email", slog.String("user_id", user.UserID))
		return nil
	}

	s.LogInfo(ctx, "Password reset code sent", slog.String("user_id", user.UserID))
	return nil
}

func (s *userServiceImpl) VerifyResetCode(ctx context.Context, email, code string) error {
	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrForbidden
		}
		return err
	}

	if user.ResetCodeHash == "" || user.ResetCodeExpires == nil {
		return apperrors.ErrForbidden
	}
	if time.Now().After(*user.ResetCodeExpires) {
		return apperrors.ErrForbidden
	}

	submitted := utils.HashResetCode(code)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(user.ResetCodeHash)) != 1 {
		return apperrors.ErrForbidden
	}

	user.IsCodeVerified = true
	user.LastUpdatedAt = time.Now()
	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to mark reset code verified", slog.String("user_id", user.UserID))
		return err
	}
	return nil
}

func (s *userServiceImpl) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.userRepo.FindUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrForbidden
		}
		return err
	}

	if !user.IsCodeVerified || user.ResetCodeExpires == nil || time.Now().After(*user.ResetCodeExpires) {
		return apperrors.ErrForbidden
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash new password")
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	user.PasswordHash = hash
	user.ResetCodeHash = ""
	user.ResetCodeExpires = nil
	user.IsCodeVerified = false
	user.LastUpdatedAt = time.Now()

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to update password", slog.String("user_id", user.UserID))
		return err
	}

	s.LogInfo(ctx, "Password reset completed", slog.String("user_id", user.UserID))
	return nil
}
