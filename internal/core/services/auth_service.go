package services

import (
	"context"
	"time"

	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/platform/config"
	"github.com/KnMBursary/bursary_backend/internal/utils"
)

// tokenService implements the TokenSvcFacade for issuing JWT access tokens.
// It requires access to application configuration for the secret and expiry.
type tokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg}
}

// GenerateAccessToken creates a new JWT access token for the given user. The
// token carries the user's role so admin routes can gate on it.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	accessToken, expiryTime, err := utils.GenerateJWT(user.UserID, string(user.Role), s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiryTime, nil
}
