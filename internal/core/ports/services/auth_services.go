package services

import (
	"context"
	"time"

	"github.com/KnMBursary/bursary_backend/internal/core/domain"
)

// TokenSvcFacade issues and validates the service's access tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken signs a JWT for the user, role claim included.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
}
