package services

import (
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, docs ports.DocumentStore, notifier ports.Notifier) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Application = NewApplicationServiceImpl(repos.ApplicationRepo, docs)
	container.User = NewUserServiceImpl(repos.UserRepo, notifier, cfg.ResetCodeTTL)
	container.Token = NewTokenService(cfg)

	return container
}
