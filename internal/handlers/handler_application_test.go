package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/dto"
	"github.com/KnMBursary/bursary_backend/internal/handlers"
	"github.com/KnMBursary/bursary_backend/internal/middleware"
	"github.com/KnMBursary/bursary_backend/internal/utils"
)

// --- Mock ApplicationService ---
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) GetApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) GetApplicationByApplicantID(ctx context.Context, applicantID string) (*domain.Application, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) ListApplications(ctx context.Context, filter portsrepo.ApplicationListFilter, page, pageSize int) ([]domain.Application, int, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Application), args.Int(1), args.Error(2)
}

func (m *MockApplicationService) ListUnnotified(ctx context.Context) ([]domain.Application, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *MockApplicationService) GetStats(ctx context.Context) (*domain.ApplicationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApplicationStats), args.Error(1)
}

func (m *MockApplicationService) SubmitApplication(ctx context.Context, applicantID string, req dto.CreateApplicationRequest, files dto.FileSlots) (*domain.Application, error) {
	args := m.Called(ctx, applicantID, req, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) UpdateDocuments(ctx context.Context, applicationID, applicantID string, files dto.FileSlots) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, applicantID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) UpdateStep(ctx context.Context, applicationID string, step int, notes string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, step, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) UpdateStatus(ctx context.Context, applicationID string, status string, notes string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, status, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) MarkNotified(ctx context.Context, applicationID string) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockApplicationService) AddAdminNote(ctx context.Context, applicationID, authorID, text string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, authorID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) ListAdminNotes(ctx context.Context, applicationID string) ([]domain.AdminNote, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AdminNote), args.Error(1)
}

func (m *MockApplicationService) EditAdminNote(ctx context.Context, applicationID, noteID, authorID, text string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, noteID, authorID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationService) DeleteAdminNote(ctx context.Context, applicationID, noteID, authorID string) (*domain.Application, error) {
	args := m.Called(ctx, applicationID, noteID, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.ApplicationSvcFacade = (*MockApplicationService)(nil)

// --- Test Suite ---
type ApplicationHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockApplicationService
	jwtSecret   string
}

func (suite *ApplicationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockService = new(MockApplicationService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterApplicationRoutes(v1, suite.mockService)
}

// generateTestToken signs a JWT carrying the given role.
func (suite *ApplicationHandlerTestSuite) generateTestToken(userID string, role domain.UserRole) string {
	token, _, err := utils.GenerateJWT(userID, string(role), suite.jwtSecret, time.Hour, "bursary-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *ApplicationHandlerTestSuite) doJSON(method, url, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Authorization gates ---

func (suite *ApplicationHandlerTestSuite) TestListApplications_RequiresAdmin() {
	token := suite.generateTestToken(uuid.NewString(), domain.RoleApplicant)

	w := suite.doJSON(http.MethodGet, "/api/v1/applications", token, nil)

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "ListApplications")
}

func (suite *ApplicationHandlerTestSuite) TestListApplications_NoToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/applications", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *ApplicationHandlerTestSuite) TestListApplications_AdminSuccess() {
	adminID := uuid.NewString()
	token := suite.generateTestToken(adminID, domain.RoleAdmin)

	apps := []domain.Application{{ApplicationID: uuid.NewString(), FullName: "Thandi Mokoena"}}
	suite.mockService.On("ListApplications",
		mock.Anything,
		mock.MatchedBy(func(f portsrepo.ApplicationListFilter) bool {
			return f.Search == "thandi" && f.Status == "pending" && f.Step == 2
		}),
		3, 25,
	).Return(apps, 51, nil).Once()

	url := "/api/v1/applications?page=3&limit=25&search=thandi&status=pending&step=2"
	w := suite.doJSON(http.MethodGet, url, token, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListApplicationsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(51, resp.Total)
	suite.Len(resp.Applications, 1)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *ApplicationHandlerTestSuite) TestListApplications_StepAllMeansNoConstraint() {
	token := suite.generateTestToken(uuid.NewString(), domain.RoleAdmin)

	suite.mockService.On("ListApplications",
		mock.Anything,
		mock.MatchedBy(func(f portsrepo.ApplicationListFilter) bool {
			return f.Step == 0 && f.Status == "all"
		}),
		1, 10,
	).Return([]domain.Application{}, 0, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/applications?step=all&status=all", token, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *ApplicationHandlerTestSuite) TestListApplications_NonNumericStepRejected() {
	token := suite.generateTestToken(uuid.NewString(), domain.RoleAdmin)

	w := suite.doJSON(http.MethodGet, "/api/v1/applications?step=three", token, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "ListApplications",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Step and status updates ---

func (suite *ApplicationHandlerTestSuite) TestUpdateStep_Success() {
	appID := uuid.NewString()
	token := suite.generateTestToken(uuid.NewString(), domain.RoleAdmin)

	updated := &domain.Application{ApplicationID: appID, CurrentStep: 4}
	suite.mockService.On("UpdateStep", mock.Anything, appID, 4, "financials in order").
		Return(updated, nil).Once()

	w := suite.doJSON(http.MethodPut, "/api/v1/applications/"+appID+"/step", token,
		dto.UpdateStepRequest{Step: 4, Notes: "financials in order"})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *ApplicationHandlerTestSuite) TestUpdateStep_OutOfRange() {
	appID := uuid.NewString()
	token := suite.generateTestToken(uuid.NewString(), domain.RoleAdmin)

	suite.mockService.On("UpdateStep", mock.Anything, appID, 9, "").
		Return(nil, apperrors.ErrInvalidStep).Once()

	w := suite.doJSON(http.MethodPut, "/api/v1/applications/"+appID+"/step", token,
		dto.UpdateStepRequest{Step: 9})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ApplicationHandlerTestSuite) TestUpdateStatus_UnknownApplication() {
	appID := uuid.NewString()
	token := suite.generateTestToken(uuid.NewString(), domain.RoleAdmin)

	suite.mockService.On("UpdateStatus", mock.Anything, appID, "approved", "").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doJSON(http.MethodPut, "/api/v1/applications/"+appID+"/status", token,
		dto.UpdateStatusRequest{Status: "approved"})

	suite.Equal(http.StatusNotFound, w.Code)
}

// --- Ownership ---

func (suite *ApplicationHandlerTestSuite) TestGetApplication_OwnerAllowed() {
	appID := uuid.NewString()
	ownerID := uuid.NewString()
	token := suite.generateTestToken(ownerID, domain.RoleApplicant)

	app := &domain.Application{ApplicationID: appID, ApplicantID: ownerID}
	suite.mockService.On("GetApplicationByID", mock.Anything, appID).Return(app, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/applications/"+appID, token, nil)

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *ApplicationHandlerTestSuite) TestGetApplication_StrangerForbidden() {
	appID := uuid.NewString()
	token := suite.generateTestToken(uuid.NewString(), domain.RoleApplicant)

	app := &domain.Application{ApplicationID: appID, ApplicantID: uuid.NewString()}
	suite.mockService.On("GetApplicationByID", mock.Anything, appID).Return(app, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/applications/"+appID, token, nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ApplicationHandlerTestSuite) TestGetApplicationByUser_OwnOnly() {
	callerID := uuid.NewString()
	token := suite.generateTestToken(callerID, domain.RoleApplicant)

	w := suite.doJSON(http.MethodGet, "/api/v1/applications/user/"+uuid.NewString(), token, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "GetApplicationByApplicantID")

	app := &domain.Application{ApplicationID: uuid.NewString(), ApplicantID: callerID}
	suite.mockService.On("GetApplicationByApplicantID", mock.Anything, callerID).Return(app, nil).Once()
	w = suite.doJSON(http.MethodGet, "/api/v1/applications/user/"+callerID, token, nil)
	suite.Equal(http.StatusOK, w.Code)
}

// --- Submission ---

func (suite *ApplicationHandlerTestSuite) TestSubmitApplication_MultipartSuccess() {
	applicantID := uuid.NewString()
	token := suite.generateTestToken(applicantID, domain.RoleApplicant)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"fullName": "Thandi Mokoena", "email": "thandi@example.com", "phone": "+27115550100",
		"dob": "2004-03-15", "gender": "female", "nationality": "South African",
		"country": "South Africa", "address1": "12 Vilakazi Street", "city": "Johannesburg",
		"state": "Gauteng", "postalCode": "2001", "highSchoolName": "Orlando High",
		"highSchoolMatricYear": "2022", "currentEducationLevel": "undergraduate",
		"numberOfMembers": "5", "parent1FirstName": "Naledi", "parent1LastName": "Mokoena",
		"parent1Gender": "female", "parent1Relationship": "mother",
		"parent1EmploymentStatus": "employed",
	}
	for k, v := range fields {
		suite.Require().NoError(writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("transcript", "transcript.pdf")
	suite.Require().NoError(err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	created := &domain.Application{
		ApplicationID: uuid.NewString(),
		ApplicantID:   applicantID,
		Status:        domain.StatusPending,
		CurrentStep:   1,
		CreatedAt:     time.Now(),
	}
	suite.mockService.On("SubmitApplication",
		mock.Anything,
		applicantID,
		mock.MatchedBy(func(req dto.CreateApplicationRequest) bool {
			return req.FullName == "Thandi Mokoena" && req.NumberOfMembers == 5
		}),
		mock.MatchedBy(func(files dto.FileSlots) bool {
			_, ok := files.Named[domain.SlotTranscript]
			return ok && len(files.Named) == 1
		}),
	).Return(created, nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ApplicationSummaryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(created.ApplicationID, resp.ApplicationID)
	suite.Equal("pending", resp.Status)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *ApplicationHandlerTestSuite) TestSubmitApplication_DuplicateConflict() {
	applicantID := uuid.NewString()
	token := suite.generateTestToken(applicantID, domain.RoleApplicant)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range map[string]string{
		"fullName": "Thandi Mokoena", "email": "thandi@example.com", "phone": "+27115550100",
		"dob": "2004-03-15", "gender": "female", "nationality": "South African",
		"country": "South Africa", "address1": "12 Vilakazi Street", "city": "Johannesburg",
		"state": "Gauteng", "postalCode": "2001", "highSchoolName": "Orlando High",
		"highSchoolMatricYear": "2022", "currentEducationLevel": "undergraduate",
		"numberOfMembers": "5", "parent1FirstName": "Naledi", "parent1LastName": "Mokoena",
		"parent1Gender": "female", "parent1Relationship": "mother",
		"parent1EmploymentStatus": "employed",
	} {
		suite.Require().NoError(writer.WriteField(k, v))
	}
	suite.Require().NoError(writer.Close())

	suite.mockService.On("SubmitApplication", mock.Anything, applicantID, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrDuplicate).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *ApplicationHandlerTestSuite) TestSubmitApplication_MissingAccountReported() {
	applicantID := uuid.NewString()
	token := suite.generateTestToken(applicantID, domain.RoleApplicant)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range map[string]string{
		"fullName": "Thandi Mokoena", "email": "thandi@example.com", "phone": "+27115550100",
		"dob": "2004-03-15", "gender": "female", "nationality": "South African",
		"country": "South Africa", "address1": "12 Vilakazi Street", "city": "Johannesburg",
		"state": "Gauteng", "postalCode": "2001", "highSchoolName": "Orlando High",
		"highSchoolMatricYear": "2022", "currentEducationLevel": "undergraduate",
		"numberOfMembers": "5", "parent1FirstName": "Naledi", "parent1LastName": "Mokoena",
		"parent1Gender": "female", "parent1Relationship": "mother",
		"parent1EmploymentStatus": "employed",
	} {
		suite.Require().NoError(writer.WriteField(k, v))
	}
	suite.Require().NoError(writer.Close())

	suite.mockService.On("SubmitApplication", mock.Anything, applicantID, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("applicant %s does not exist: %w", applicantID, apperrors.ErrNotFound)).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
	var resp handlers.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Applicant account not found", resp.Error)
}

// --- Notes ---

func (suite *ApplicationHandlerTestSuite) TestEditAdminNote_NotAuthor() {
	appID := uuid.NewString()
	noteID := uuid.NewString()
	adminID := uuid.NewString()
	token := suite.generateTestToken(adminID, domain.RoleAdmin)

	suite.mockService.On("EditAdminNote", mock.Anything, appID, noteID, adminID, "tampered").
		Return(nil, apperrors.ErrForbidden).Once()

	url := fmt.Sprintf("/api/v1/applications/%s/notes/%s", appID, noteID)
	w := suite.doJSON(http.MethodPut, url, token, dto.AdminNoteRequest{Note: "tampered"})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ApplicationHandlerTestSuite) TestAddAdminNote_Created() {
	appID := uuid.NewString()
	adminID := uuid.NewString()
	token := suite.generateTestToken(adminID, domain.RoleAdmin)

	updated := &domain.Application{
		ApplicationID: appID,
		AdminNotes:    []domain.AdminNote{{NoteID: uuid.NewString(), Note: "docs verified", CreatedBy: adminID}},
	}
	suite.mockService.On("AddAdminNote", mock.Anything, appID, adminID, "docs verified").
		Return(updated, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/applications/"+appID+"/notes", token,
		dto.AdminNoteRequest{Note: "docs verified"})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AdminNotesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.AdminNotes, 1)
}

// --- Stats ---

func (suite *ApplicationHandlerTestSuite) TestGetStats_Success() {
	token := suite.generateTestToken(uuid.NewString(), domain.RoleAdmin)

	stats := &domain.ApplicationStats{
		StatusStats: domain.StatusStats{Total: 12, Pending: 5, Approved: 4, Waitlisted: 3},
		StepCounts:  []domain.StepCount{{Step: 1, Count: 8}, {Step: 5, Count: 4}},
	}
	suite.mockService.On("GetStats", mock.Anything).Return(stats, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/applications/stats", token, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.ApplicationStats
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(12, resp.Total)
}

func TestApplicationHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationHandlerTestSuite))
}
