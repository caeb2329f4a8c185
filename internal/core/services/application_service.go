package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/dto"
)

// applicationServiceImpl implements the ApplicationSvcFacade interface
type applicationServiceImpl struct {
	BaseService
	appRepo portsrepo.ApplicationRepositoryFacade
	docs    ports.DocumentStore
}

// NewApplicationServiceImpl creates the application lifecycle service.
func NewApplicationServiceImpl(repo portsrepo.ApplicationRepositoryFacade, docs ports.DocumentStore) portssvc.ApplicationSvcFacade {
	return &applicationServiceImpl{appRepo: repo, docs: docs}
}

// Ensure applicationServiceImpl implements the ApplicationSvcFacade interface
var _ portssvc.ApplicationSvcFacade = (*applicationServiceImpl)(nil)

// storedUpload tracks one freshly stored document until the owning record is
// safely persisted.
type storedUpload struct {
	slot       string
	additional int // additional-doc index, -1 for named slots
	ref        domain.DocumentRef
}

// storeUploads pushes every slot in files to the document store. On any
// failure the uploads stored so far are released before the error returns.
func (s *applicationServiceImpl) storeUploads(ctx context.Context, files dto.FileSlots) ([]storedUpload, error) {
	stored := make([]storedUpload, 0, len(files.Named)+len(files.Additional))

	rollback := func() {
		for _, u := range stored {
			if err := s.docs.Release(ctx, u.ref); err != nil {
				s.LogWarn(ctx, "Failed to release document after aborted upload",
					slog.String("key", u.ref.Key),
					slog.String("error", err.Error()))
			}
		}
	}

	for _, slot := range domain.NamedSlots {
		file, ok := files.Named[slot]
		if !ok {
			continue
		}
		ref, err := s.docs.Store(ctx, slot, file)
		if err != nil {
			rollback()
			return nil, err
		}
		stored = append(stored, storedUpload{slot: slot, additional: -1, ref: ref})
	}

	for i := 0; i < domain.MaxAdditionalDocs; i++ {
		file, ok := files.Additional[i]
		if !ok {
			continue
		}
		ref, err := s.docs.Store(ctx, "additionalDocs", file)
		if err != nil {
			rollback()
			return nil, err
		}
		stored = append(stored, storedUpload{slot: "", additional: i, ref: ref})
	}

	return stored, nil
}

// storeUploadsIndependent pushes every slot to the document store in parallel.
// One slot's failure does not abort the others: each failure is logged, the
// successes come back, and an error is returned only when nothing was stored.
func (s *applicationServiceImpl) storeUploadsIndependent(ctx context.Context, files dto.FileSlots) ([]storedUpload, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		stored   []storedUpload
		firstErr error
	)

	upload := func(slot string, additional int, file ports.FileUpload) {
		defer wg.Done()
		storeSlot := slot
		if additional >= 0 {
			storeSlot = "additionalDocs"
		}
		ref, err := s.docs.Store(ctx, storeSlot, file)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.LogWarn(ctx, "Failed to store replacement document",
				slog.String("slot", storeSlot),
				slog.String("error", err.Error()))
			return
		}
		stored = append(stored, storedUpload{slot: slot, additional: additional, ref: ref})
	}

	for _, slot := range domain.NamedSlots {
		if file, ok := files.Named[slot]; ok {
			wg.Add(1)
			go upload(slot, -1, file)
		}
	}
	for i := 0; i < domain.MaxAdditionalDocs; i++ {
		if file, ok := files.Additional[i]; ok {
			wg.Add(1)
			go upload("", i, file)
		}
	}
	wg.Wait()

	if len(stored) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return stored, nil
}

// releaseRefs drops document store objects best effort. Orphaned objects are
// logged, never surfaced to the caller.
func (s *applicationServiceImpl) releaseRefs(ctx context.Context, refs []domain.DocumentRef) {
	for _, ref := range refs {
		if ref.Key == "" {
			continue
		}
		if err := s.docs.Release(ctx, ref); err != nil {
			s.LogWarn(ctx, "Failed to release replaced document",
				slog.String("key", ref.Key),
				slog.String("error", err.Error()))
		}
	}
}

func (s *applicationServiceImpl) SubmitApplication(ctx context.Context, applicantID string, req dto.CreateApplicationRequest, files dto.FileSlots) (*domain.Application, error) {
	if _, err := s.appRepo.FindApplicationByApplicantID(ctx, applicantID); err == nil {
		return nil, apperrors.ErrDuplicate
	} else if !isNotFound(err) {
		s.LogError(ctx, err, "Failed to check for existing application",
			slog.String("applicant_id", applicantID))
		return nil, err
	}

	app, err := req.ToDomain()
	if err != nil {
		return nil, err
	}

	stored, err := s.storeUploads(ctx, files)
	if err != nil {
		s.LogError(ctx, err, "Failed to store submission documents",
			slog.String("applicant_id", applicantID))
		return nil, err
	}

	now := time.Now()
	app.ApplicationID = uuid.NewString()
	app.ApplicantID = applicantID
	app.CreatedAt = now
	app.RecordStatus(domain.StatusPending, "Application submitted and pending review", now)
	app.RecordStep(domain.MinStep, "Initial application submission", now)
	for _, u := range stored {
		if u.additional >= 0 {
			app.Documents.SetAdditional(u.additional, u.ref)
			continue
		}
		if holder := app.Documents.Ref(u.slot); holder != nil {
			ref := u.ref
			*holder = &ref
		}
	}

	if err := s.appRepo.SaveApplication(ctx, *app); err != nil {
		refs := make([]domain.DocumentRef, len(stored))
		for i, u := range stored {
			refs[i] = u.ref
		}
		s.releaseRefs(ctx, refs)
		s.LogError(ctx, err, "Failed to save application",
			slog.String("applicant_id", applicantID))
		return nil, err
	}

	s.LogInfo(ctx, "Application submitted",
		slog.String("application_id", app.ApplicationID),
		slog.String("applicant_id", applicantID),
		slog.Int("documents", len(stored)))
	return app, nil
}

func (s *applicationServiceImpl) UpdateDocuments(ctx context.Context, applicationID, applicantID string, files dto.FileSlots) (*domain.Application, error) {
	if files.IsEmpty() {
		return nil, apperrors.ErrValidation
	}

	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != applicantID {
		return nil, apperrors.ErrForbidden
	}
	if app.Status.IsFinal() {
		return nil, apperrors.ErrLocked
	}

	stored, err := s.storeUploadsIndependent(ctx, files)
	if err != nil {
		s.LogError(ctx, err, "Failed to store replacement documents",
			slog.String("application_id", applicationID))
		return nil, err
	}

	// Swap the new references in, remembering what they displaced.
	replaced := make([]domain.DocumentRef, 0, len(stored))
	for _, u := range stored {
		if u.additional >= 0 {
			if old := app.Documents.AdditionalRef(u.additional); old != nil && old.Key != "" {
				replaced = append(replaced, *old)
			}
			app.Documents.SetAdditional(u.additional, u.ref)
			continue
		}
		holder := app.Documents.Ref(u.slot)
		if holder == nil {
			continue
		}
		if *holder != nil {
			replaced = append(replaced, **holder)
		}
		ref := u.ref
		*holder = &ref
	}

	if len(stored) > 0 {
		app.RecordDocumentsUpdated(time.Now())
	}
	if err := s.appRepo.UpdateApplication(ctx, *app); err != nil {
		refs := make([]domain.DocumentRef, len(stored))
		for i, u := range stored {
			refs[i] = u.ref
		}
		s.releaseRefs(ctx, refs)
		s.LogError(ctx, err, "Failed to persist document update",
			slog.String("application_id", applicationID))
		return nil, err
	}

	// The record now points at the new objects; the displaced ones are garbage.
	s.releaseRefs(ctx, replaced)

	s.LogInfo(ctx, "Application documents updated",
		slog.String("application_id", applicationID),
		slog.Int("replaced", len(replaced)),
		slog.Int("uploaded", len(stored)))
	return app, nil
}

func (s *applicationServiceImpl) GetApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	return s.appRepo.FindApplicationByID(ctx, applicationID)
}

func (s *applicationServiceImpl) GetApplicationByApplicantID(ctx context.Context, applicantID string) (*domain.Application, error) {
	return s.appRepo.FindApplicationByApplicantID(ctx, applicantID)
}

func (s *applicationServiceImpl) ListApplications(ctx context.Context, filter portsrepo.ApplicationListFilter, page, pageSize int) ([]domain.Application, int, error) {
	if filter.Step != 0 && !domain.IsValidStep(filter.Step) {
		return nil, 0, apperrors.ErrInvalidStep
	}
	if filter.Status != "" && filter.Status != "all" && !domain.ApplicationStatus(filter.Status).IsValid() {
		return nil, 0, apperrors.ErrInvalidStatus
	}
	return s.appRepo.ListApplications(ctx, filter, page, pageSize)
}

func (s *applicationServiceImpl) ListUnnotified(ctx context.Context) ([]domain.Application, error) {
	return s.appRepo.ListUnnotified(ctx)
}

func (s *applicationServiceImpl) GetStats(ctx context.Context) (*domain.ApplicationStats, error) {
	byStatus, err := s.appRepo.CountByStatus(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate application statuses")
		return nil, err
	}
	byStep, err := s.appRepo.CountByStep(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate application steps")
		return nil, err
	}

	stats := domain.ApplicationStats{
		StatusStats: domain.StatusStats{
			Pending:     byStatus[domain.StatusPending],
			UnderReview: byStatus[domain.StatusUnderReview],
			Approved:    byStatus[domain.StatusApproved],
			Rejected:    byStatus[domain.StatusRejected],
			Waitlisted:  byStatus[domain.StatusWaitlisted],
		},
		StepCounts: byStep,
	}
	for _, count := range byStatus {
		stats.Total += count
	}
	return &stats, nil
}

func (s *applicationServiceImpl) UpdateStep(ctx context.Context, applicationID string, step int, notes string) (*domain.Application, error) {
	if !domain.IsValidStep(step) {
		return nil, apperrors.ErrInvalidStep
	}

	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	app.RecordStep(step, notes, time.Now())
	if err := s.appRepo.UpdateApplication(ctx, *app); err != nil {
		s.LogError(ctx, err, "Failed to persist step update",
			slog.String("application_id", applicationID),
			slog.Int("step", step))
		return nil, err
	}

	s.LogInfo(ctx, "Application step updated",
		slog.String("application_id", applicationID),
		slog.Int("step", step))
	return app, nil
}

func (s *applicationServiceImpl) UpdateStatus(ctx context.Context, applicationID string, status string, notes string) (*domain.Application, error) {
	newStatus := domain.ApplicationStatus(status)
	if !newStatus.IsValid() {
		return nil, apperrors.ErrInvalidStatus
	}

	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	app.RecordStatus(newStatus, notes, time.Now())
	if err := s.appRepo.UpdateApplication(ctx, *app); err != nil {
		s.LogError(ctx, err, "Failed to persist status update",
			slog.String("application_id", applicationID),
			slog.String("status", status))
		return nil, err
	}

	s.LogInfo(ctx, "Application status updated",
		slog.String("application_id", applicationID),
		slog.String("status", status))
	return app, nil
}

func (s *applicationServiceImpl) MarkNotified(ctx context.Context, applicationID string) error {
	if err := s.appRepo.MarkNotified(ctx, applicationID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to mark application notified",
			slog.String("application_id", applicationID))
		return err
	}
	return nil
}

func (s *applicationServiceImpl) AddAdminNote(ctx context.Context, applicationID, authorID, text string) (*domain.Application, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyNote
	}

	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	app.AdminNotes = append(app.AdminNotes, domain.AdminNote{
		NoteID:    uuid.NewString(),
		Note:      text,
		CreatedBy: authorID,
		CreatedAt: now,
	})
	app.LastUpdatedAt = now

	if err := s.appRepo.UpdateApplication(ctx, *app); err != nil {
		s.LogError(ctx, err, "Failed to persist admin note",
			slog.String("application_id", applicationID))
		return nil, err
	}
	return app, nil
}

func (s *applicationServiceImpl) ListAdminNotes(ctx context.Context, applicationID string) ([]domain.AdminNote, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return app.AdminNotes, nil
}

func (s *applicationServiceImpl) EditAdminNote(ctx context.Context, applicationID, noteID, authorID, text string) (*domain.Application, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyNote
	}

	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	idx := app.NoteByID(noteID)
	if idx < 0 {
		return nil, apperrors.ErrNotFound
	}
	if app.AdminNotes[idx].CreatedBy != authorID {
		return nil, apperrors.ErrForbidden
	}

	now := time.Now()
	app.AdminNotes[idx].Note = text
	app.AdminNotes[idx].LastModified = &now
	app.AdminNotes[idx].IsEdited = true
	app.LastUpdatedAt = now

	if err := s.appRepo.UpdateApplication(ctx, *app); err != nil {
		s.LogError(ctx, err, "Failed to persist note edit",
			slog.String("application_id", applicationID),
			slog.String("note_id", noteID))
		return nil, err
	}
	return app, nil
}

func (s *applicationServiceImpl) DeleteAdminNote(ctx context.Context, applicationID, noteID, authorID string) (*domain.Application, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	idx := app.NoteByID(noteID)
	if idx < 0 {
		return nil, apperrors.ErrNotFound
	}
	if app.AdminNotes[idx].CreatedBy != authorID {
		return nil, apperrors.ErrForbidden
	}

	app.AdminNotes = append(app.AdminNotes[:idx], app.AdminNotes[idx+1:]...)
	app.LastUpdatedAt = time.Now()

	if err := s.appRepo.UpdateApplication(ctx, *app); err != nil {
		s.LogError(ctx, err, "Failed to persist note deletion",
			slog.String("application_id", applicationID),
			slog.String("note_id", noteID))
		return nil, err
	}
	return app, nil
}
