package services

import (
	"context"

	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	"github.com/KnMBursary/bursary_backend/internal/dto"
)

// ApplicationReaderSvc defines read operations over applications.
type ApplicationReaderSvc interface {
	// GetApplicationByID retrieves a single application.
	GetApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error)

	// GetApplicationByApplicantID retrieves the application owned by a user.
	GetApplicationByApplicantID(ctx context.Context, applicantID string) (*domain.Application, error)

	// ListApplications retrieves one filtered page, newest first, with total count.
	ListApplications(ctx context.Context, filter portsrepo.ApplicationListFilter, page, pageSize int) ([]domain.Application, int, error)

	// ListUnnotified retrieves the admin "unseen new application" queue.
	ListUnnotified(ctx context.Context) ([]domain.Application, error)

	// GetStats aggregates status and step distributions across all applications.
	GetStats(ctx context.Context) (*domain.ApplicationStats, error)
}

// ApplicationSubmitSvc defines the applicant-facing submission operations.
type ApplicationSubmitSvc interface {
	// SubmitApplication creates the one application an applicant may own, storing
	// the uploaded file slots in the document store.
	SubmitApplication(ctx context.Context, applicantID string, req dto.CreateApplicationRequest, files dto.FileSlots) (*domain.Application, error)

	// UpdateDocuments replaces uploaded document slots on an unlocked application
	// owned by applicantID, releasing each replaced reference.
	UpdateDocuments(ctx context.Context, applicationID, applicantID string, files dto.FileSlots) (*domain.Application, error)
}

// ApplicationReviewSvc defines the admin review lifecycle operations.
type ApplicationReviewSvc interface {
	// UpdateStep moves the application to a pipeline step, appending to the audit trail.
	UpdateStep(ctx context.Context, applicationID string, step int, notes string) (*domain.Application, error)

	// UpdateStatus sets the application status, appending to the audit trail.
	UpdateStatus(ctx context.Context, applicationID string, status string, notes string) (*domain.Application, error)

	// MarkNotified removes the application from the unseen queue.
	MarkNotified(ctx context.Context, applicationID string) error
}

// ApplicationNotesSvc defines the admin annotation sub-lifecycle.
type ApplicationNotesSvc interface {
	AddAdminNote(ctx context.Context, applicationID, authorID, text string) (*domain.Application, error)
	ListAdminNotes(ctx context.Context, applicationID string) ([]domain.AdminNote, error)
	EditAdminNote(ctx context.Context, applicationID, noteID, authorID, text string) (*domain.Application, error)
	DeleteAdminNote(ctx context.Context, applicationID, noteID, authorID string) (*domain.Application, error)
}

// ApplicationSvcFacade combines all application service interfaces.
type ApplicationSvcFacade interface {
	ApplicationReaderSvc
	ApplicationSubmitSvc
	ApplicationReviewSvc
	ApplicationNotesSvc
}
