package pgsql

import (
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ApplicationRepo: NewPgxApplicationRepository(dbPool),
		UserRepo:        NewPgxUserRepository(dbPool),
	}
}
