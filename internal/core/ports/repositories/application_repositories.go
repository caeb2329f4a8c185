package repositories

import (
	"context"
	"time"

	"github.com/KnMBursary/bursary_backend/internal/core/domain"
)

// ApplicationListFilter narrows a paginated application listing. Zero values
// (and the literal "all") mean "no constraint".
type ApplicationListFilter struct {
	Search string // case-insensitive substring match on full name or email
	Status string
	Step   int // 0 = any
}

// ApplicationReader defines read operations for application data.
type ApplicationReader interface {
	// FindApplicationByID retrieves a specific application.
	FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error)

	// FindApplicationByApplicantID retrieves the single application owned by a user.
	FindApplicationByApplicantID(ctx context.Context, applicantID string) (*domain.Application, error)

	// ListApplications retrieves one page of applications matching the filter,
	// newest first, along with the total match count. Pages are 1-indexed.
	ListApplications(ctx context.Context, filter ApplicationListFilter, page, pageSize int) ([]domain.Application, int, error)

	// ListUnnotified retrieves applications not yet surfaced to the admin queue.
	ListUnnotified(ctx context.Context) ([]domain.Application, error)
}

// ApplicationWriter defines write operations for application data.
type ApplicationWriter interface {
	// SaveApplication persists a new application. Returns apperrors.ErrDuplicate
	// when the owner already has one.
	SaveApplication(ctx context.Context, app domain.Application) error

	// UpdateApplication replaces the stored record, embedded sub-collections
	// included, in a single atomic row update.
	UpdateApplication(ctx context.Context, app domain.Application) error

	// MarkNotified flips the admin-queue flag.
	MarkNotified(ctx context.Context, applicationID string, now time.Time) error
}

// ApplicationAggregator defines statistics aggregation over all applications.
type ApplicationAggregator interface {
	// CountByStatus returns the number of applications per status. Statuses with
	// no applications may be absent from the map.
	CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int, error)

	// CountByStep returns per-step counts for observed steps, ordered ascending.
	CountByStep(ctx context.Context) ([]domain.StepCount, error)
}

// ApplicationRepositoryFacade combines all application repository interfaces.
type ApplicationRepositoryFacade interface {
	ApplicationReader
	ApplicationWriter
	ApplicationAggregator
}
