package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/dto"
	"github.com/KnMBursary/bursary_backend/internal/middleware"
)

// maxUploadBytes caps each uploaded document at 10MB.
const maxUploadBytes = 10 << 20

// applicationHandler handles HTTP requests for the applications resource.
type applicationHandler struct {
	appService portssvc.ApplicationSvcFacade
}

func newApplicationHandler(as portssvc.ApplicationSvcFacade) *applicationHandler {
	return &applicationHandler{appService: as}
}

// RegisterApplicationRoutes registers the applications resource. Admin-only
// endpoints carry the RequireAdmin middleware individually because the
// resource mixes applicant and reviewer operations.
func RegisterApplicationRoutes(rg *gin.RouterGroup, appService portssvc.ApplicationSvcFacade) {
	h := newApplicationHandler(appService)
	admin := middleware.RequireAdmin()

	apps := rg.Group("/applications")
	{
		apps.POST("", h.submitApplication)
		apps.GET("", admin, h.listApplications)
		apps.GET("/stats", admin, h.getStats)
		apps.GET("/unnotified", admin, h.listUnnotified)
		apps.GET("/user/:userID", h.getApplicationByUser)
		apps.GET("/:id", h.getApplication)
		apps.PUT("/:id/documents", h.updateDocuments)
		apps.PUT("/:id/notify", admin, h.markNotified)
		apps.PUT("/:id/step", admin, h.updateStep)
		apps.PUT("/:id/status", admin, h.updateStatus)

		apps.POST("/:id/notes", admin, h.addAdminNote)
		apps.GET("/:id/notes", admin, h.listAdminNotes)
		apps.PUT("/:id/notes/:noteID", admin, h.editAdminNote)
		apps.DELETE("/:id/notes/:noteID", admin, h.deleteAdminNote)
	}
}

// respondApplicationError maps service error kinds onto HTTP statuses.
func respondApplicationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Application not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "You do not have access to this application"})
	case errors.Is(err, apperrors.ErrLocked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Application has been finalized and can no longer be changed"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "An application already exists for this account"})
	case errors.Is(err, apperrors.ErrUploadRejected):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "Only PDF, JPEG and PNG documents are accepted"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}

// extractFileSlots reads the multipart form's document slots into FileSlots.
// The returned closer must run after the service call so upload readers stay
// open for the duration of the request.
func extractFileSlots(c *gin.Context) (dto.FileSlots, func(), error) {
	slots := dto.FileSlots{
		Named:      map[string]ports.FileUpload{},
		Additional: map[int]ports.FileUpload{},
	}
	var opened []multipart.File
	closer := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	form, err := c.MultipartForm()
	if err != nil {
		// A form without files is fine; the service decides whether that is valid.
		return slots, closer, nil
	}

	open := func(fh *multipart.FileHeader) (ports.FileUpload, error) {
		if fh.Size > maxUploadBytes {
			return ports.FileUpload{}, fmt.Errorf("%w: %s exceeds the 10MB limit", apperrors.ErrUploadRejected, fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			return ports.FileUpload{}, fmt.Errorf("%w: failed to read upload %s: %v", apperrors.ErrStorage, fh.Filename, err)
		}
		opened = append(opened, f)
		return ports.FileUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		}, nil
	}

	for _, slot := range domain.NamedSlots {
		fhs := form.File[slot]
		if len(fhs) == 0 {
			continue
		}
		upload, err := open(fhs[0])
		if err != nil {
			closer()
			return dto.FileSlots{}, func() {}, err
		}
		slots.Named[slot] = upload
	}

	for i := 0; i < domain.MaxAdditionalDocs; i++ {
		fhs := form.File[fmt.Sprintf("additionalDoc%d", i)]
		if len(fhs) == 0 {
			continue
		}
		upload, err := open(fhs[0])
		if err != nil {
			closer()
			return dto.FileSlots{}, func() {}, err
		}
		slots.Additional[i] = upload
	}

	return slots, closer, nil
}

// submitApplication godoc
// @Summary Submit a bursary application
// @Description Creates the single application the logged-in applicant may own. Expects a multipart form with the profile fields plus optional document slots.
// @Tags applications
// @Accept mpfd
// @Produce json
// @Success 201 {object} dto.ApplicationSummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Application already exists"
// @Failure 415 {object} ErrorResponse "Unsupported document type"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications [post]
func (h *applicationHandler) submitApplication(c *gin.Context) {
	applicantID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req dto.CreateApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid application form: " + err.Error()})
		return
	}

	files, closeFiles, err := extractFileSlots(c)
	if err != nil {
		respondApplicationError(c, err, "Failed to read uploaded documents")
		return
	}
	defer closeFiles()

	app, err := h.appService.SubmitApplication(c.Request.Context(), applicantID, req, files)
	if err != nil {
		// NotFound on submit means the owner account, not an application.
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Applicant account not found"})
			return
		}
		respondApplicationError(c, err, "Failed to submit application")
		return
	}

	c.JSON(http.StatusCreated, dto.ToApplicationSummaryResponse(app))
}

// listApplications godoc
// @Summary List applications
// @Description Returns one page of applications, newest first, with optional search and filters.
// @Tags applications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param search query string false "Case-insensitive match on name or email"
// @Param status query string false "Status filter, or 'all'"
// @Param step query int false "Step filter (1-7)"
// @Success 200 {object} dto.ListApplicationsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications [get]
func (h *applicationHandler) listApplications(c *gin.Context) {
	var params dto.ListApplicationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	filter := portsrepo.ApplicationListFilter{
		Search: params.Search,
		Status: params.Status,
	}
	// "all" and empty both mean unconstrained, matching the status filter.
	if params.Step != "" && params.Step != "all" {
		step, err := strconv.Atoi(params.Step)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "step must be a number"})
			return
		}
		filter.Step = step
	}

	apps, total, err := h.appService.ListApplications(c.Request.Context(), filter, params.Page, params.PageSize)
	if err != nil {
		respondApplicationError(c, err, "Failed to list applications")
		return
	}

	c.JSON(http.StatusOK, dto.ListApplicationsResponse{Applications: apps, Total: total})
}

// getStats godoc
// @Summary Application statistics
// @Description Aggregates counts by status and by current step across all applications.
// @Tags applications
// @Produce json
// @Success 200 {object} domain.ApplicationStats
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/stats [get]
func (h *applicationHandler) getStats(c *gin.Context) {
	stats, err := h.appService.GetStats(c.Request.Context())
	if err != nil {
		respondApplicationError(c, err, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// listUnnotified godoc
// @Summary List unseen applications
// @Description Returns applications no admin has acknowledged yet, newest first.
// @Tags applications
// @Produce json
// @Success 200 {array} domain.Application
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/unnotified [get]
func (h *applicationHandler) listUnnotified(c *gin.Context) {
	apps, err := h.appService.ListUnnotified(c.Request.Context())
	if err != nil {
		respondApplicationError(c, err, "Failed to list unnotified applications")
		return
	}
	c.JSON(http.StatusOK, apps)
}

// getApplicationByUser godoc
// @Summary Get a user's application
// @Description Returns the application owned by the given user. Applicants may only fetch their own.
// @Tags applications
// @Produce json
// @Param userID path string true "Applicant user ID"
// @Success 200 {object} domain.Application
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/user/{userID} [get]
func (h *applicationHandler) getApplicationByUser(c *gin.Context) {
	targetID := c.Param("userID")
	if !h.callerMayAccess(c, targetID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "You do not have access to this application"})
		return
	}

	app, err := h.appService.GetApplicationByApplicantID(c.Request.Context(), targetID)
	if err != nil {
		respondApplicationError(c, err, "Failed to fetch application")
		return
	}
	c.JSON(http.StatusOK, app)
}

// getApplication godoc
// @Summary Get an application by ID
// @Description Returns a single application. Applicants may only fetch their own.
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} domain.Application
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id} [get]
func (h *applicationHandler) getApplication(c *gin.Context) {
	app, err := h.appService.GetApplicationByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondApplicationError(c, err, "Failed to fetch application")
		return
	}

	if !h.callerMayAccess(c, app.ApplicantID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "You do not have access to this application"})
		return
	}
	c.JSON(http.StatusOK, app)
}

// callerMayAccess reports whether the caller is an admin or the owner.
func (h *applicationHandler) callerMayAccess(c *gin.Context, ownerID string) bool {
	role, _ := middleware.GetUserRoleFromContext(c)
	if role == string(domain.RoleAdmin) {
		return true
	}
	callerID, ok := middleware.GetUserIDFromContext(c)
	return ok && callerID == ownerID
}

// updateDocuments godoc
// @Summary Replace application documents
// @Description Replaces one or more document slots on an unlocked application. Displaced files are removed from storage.
// @Tags applications
// @Accept mpfd
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.DocumentsUpdatedResponse
// @Failure 400 {object} ErrorResponse "No files provided"
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Application finalized"
// @Failure 415 {object} ErrorResponse "Unsupported document type"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/documents [put]
func (h *applicationHandler) updateDocuments(c *gin.Context) {
	applicantID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	files, closeFiles, err := extractFileSlots(c)
	if err != nil {
		respondApplicationError(c, err, "Failed to read uploaded documents")
		return
	}
	defer closeFiles()

	app, err := h.appService.UpdateDocuments(c.Request.Context(), c.Param("id"), applicantID, files)
	if err != nil {
		respondApplicationError(c, err, "Failed to update documents")
		return
	}

	c.JSON(http.StatusOK, dto.DocumentsUpdatedResponse{
		ApplicationID: app.ApplicationID,
		Documents:     app.Documents,
		LastUpdatedAt: app.LastUpdatedAt,
	})
}

// markNotified godoc
// @Summary Acknowledge a new application
// @Description Removes the application from the unseen queue.
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/notify [put]
func (h *applicationHandler) markNotified(c *gin.Context) {
	if err := h.appService.MarkNotified(c.Request.Context(), c.Param("id")); err != nil {
		respondApplicationError(c, err, "Failed to mark application as seen")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Application acknowledged"})
}

// updateStep godoc
// @Summary Move an application along the review pipeline
// @Description Sets the current step (1-7) and appends to the step history.
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param step body dto.UpdateStepRequest true "Target step and optional notes"
// @Success 200 {object} domain.Application
// @Failure 400 {object} ErrorResponse "Step out of range"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/step [put]
func (h *applicationHandler) updateStep(c *gin.Context) {
	var req dto.UpdateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A step number is required"})
		return
	}

	app, err := h.appService.UpdateStep(c.Request.Context(), c.Param("id"), req.Step, req.Notes)
	if err != nil {
		respondApplicationError(c, err, "Failed to update step")
		return
	}
	c.JSON(http.StatusOK, app)
}

// updateStatus godoc
// @Summary Set an application's status
// @Description Sets the status (pending, under_review, approved, rejected, waitlisted) and appends to the status history.
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param status body dto.UpdateStatusRequest true "Target status and optional notes"
// @Success 200 {object} domain.Application
// @Failure 400 {object} ErrorResponse "Unknown status"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/status [put]
func (h *applicationHandler) updateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A status is required"})
		return
	}

	app, err := h.appService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		respondApplicationError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, app)
}

// addAdminNote godoc
// @Summary Add a reviewer note
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param note body dto.AdminNoteRequest true "Note text"
// @Success 201 {object} dto.AdminNotesResponse
// @Failure 400 {object} ErrorResponse "Blank note"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/notes [post]
func (h *applicationHandler) addAdminNote(c *gin.Context) {
	authorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req dto.AdminNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Note text is required"})
		return
	}

	app, err := h.appService.AddAdminNote(c.Request.Context(), c.Param("id"), authorID, req.Note)
	if err != nil {
		respondApplicationError(c, err, "Failed to add note")
		return
	}
	c.JSON(http.StatusCreated, dto.AdminNotesResponse{AdminNotes: app.AdminNotes})
}

// listAdminNotes godoc
// @Summary List reviewer notes
// @Tags notes
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.AdminNotesResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/notes [get]
func (h *applicationHandler) listAdminNotes(c *gin.Context) {
	notes, err := h.appService.ListAdminNotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondApplicationError(c, err, "Failed to list notes")
		return
	}
	c.JSON(http.StatusOK, dto.AdminNotesResponse{AdminNotes: notes})
}

// editAdminNote godoc
// @Summary Edit a reviewer note
// @Description Only the note's author may edit it. Edits set the isEdited flag and lastModified time.
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param noteID path string true "Note ID"
// @Param note body dto.AdminNoteRequest true "Replacement text"
// @Success 200 {object} dto.AdminNotesResponse
// @Failure 400 {object} ErrorResponse "Blank note"
// @Failure 403 {object} ErrorResponse "Not the author"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/notes/{noteID} [put]
func (h *applicationHandler) editAdminNote(c *gin.Context) {
	authorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req dto.AdminNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Note text is required"})
		return
	}

	app, err := h.appService.EditAdminNote(c.Request.Context(), c.Param("id"), c.Param("noteID"), authorID, req.Note)
	if err != nil {
		respondApplicationError(c, err, "Failed to edit note")
		return
	}
	c.JSON(http.StatusOK, dto.AdminNotesResponse{AdminNotes: app.AdminNotes})
}

// deleteAdminNote godoc
// @Summary Delete a reviewer note
// @Description Only the note's author may delete it.
// @Tags notes
// @Produce json
// @Param id path string true "Application ID"
// @Param noteID path string true "Note ID"
// @Success 200 {object} dto.AdminNotesResponse
// @Failure 403 {object} ErrorResponse "Not the author"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/notes/{noteID} [delete]
func (h *applicationHandler) deleteAdminNote(c *gin.Context) {
	authorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	app, err := h.appService.DeleteAdminNote(c.Request.Context(), c.Param("id"), c.Param("noteID"), authorID)
	if err != nil {
		respondApplicationError(c, err, "Failed to delete note")
		return
	}
	c.JSON(http.StatusOK, dto.AdminNotesResponse{AdminNotes: app.AdminNotes})
}
