package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FileSlots carries uploads from the multipart boundary keyed by slot. Named
// slots use the canonical names from domain.NamedSlots; additional documents are
// keyed by their 0-based index.
type FileSlots struct {
	Named      map[string]ports.FileUpload
	Additional map[int]ports.FileUpload
}

// IsEmpty reports whether no slot carries an upload.
func (f FileSlots) IsEmpty() bool {
	return len(f.Named) == 0 && len(f.Additional) == 0
}

// CreateApplicationRequest binds the multipart submission form. Subjects and
// previous educations arrive as JSON-encoded strings inside the form, matching
// the browser client.
type CreateApplicationRequest struct {
	// Personal information
	FullName    string `form:"fullName" binding:"required"`
	Email       string `form:"email" binding:"required,email"`
	Phone       string `form:"phone" binding:"required"`
	DateOfBirth string `form:"dob" binding:"required"`
	Gender      string `form:"gender" binding:"required"`
	Nationality string `form:"nationality" binding:"required"`
	Country     string `form:"country" binding:"required"`
	Address1    string `form:"address1" binding:"required"`
	Address2    string `form:"address2"`
	City        string `form:"city" binding:"required"`
	State       string `form:"state" binding:"required"`
	PostalCode  string `form:"postalCode" binding:"required"`

	// Education information
	HighSchoolName         string `form:"highSchoolName" binding:"required"`
	HighSchoolMatricYear   string `form:"highSchoolMatricYear" binding:"required"`
	CurrentEducationLevel  string `form:"currentEducationLevel" binding:"required"`
	SubjectsJSON           string `form:"subjects"`
	PreviousEducationsJSON string `form:"previousEducations"`

	InstitutionName       string `form:"institutionName"`
	InstitutionDegreeType string `form:"institutionDegreeType"`
	InstitutionDegreeName string `form:"institutionDegreeName"`
	InstitutionMajor      string `form:"institutionMajor"`
	InstitutionStartYear  string `form:"institutionStartYear"`
	InstitutionEndYear    string `form:"institutionEndYear"`
	InstitutionGPA        string `form:"institutionGPA"`

	// Household information
	NumberOfMembers int `form:"numberOfMembers" binding:"required,min=1"`

	Parent1FirstName        string `form:"parent1FirstName" binding:"required"`
	Parent1LastName         string `form:"parent1LastName" binding:"required"`
	Parent1Gender           string `form:"parent1Gender" binding:"required"`
	Parent1Relationship     string `form:"parent1Relationship" binding:"required"`
	Parent1EmploymentStatus string `form:"parent1EmploymentStatus" binding:"required"`
	Parent1Occupation       string `form:"parent1Occupation"`
	Parent1MonthlyIncome    string `form:"parent1MonthlyIncome"`

	Parent2FirstName        string `form:"parent2FirstName"`
	Parent2LastName         string `form:"parent2LastName"`
	Parent2Gender           string `form:"parent2Gender"`
	Parent2Relationship     string `form:"parent2Relationship"`
	Parent2EmploymentStatus string `form:"parent2EmploymentStatus"`
	Parent2Occupation       string `form:"parent2Occupation"`
	Parent2MonthlyIncome    string `form:"parent2MonthlyIncome"`
}

// subjectPayload mirrors the browser's subjects JSON entries.
type subjectPayload struct {
	Name  string  `json:"name" validate:"required,min=2,max=100"`
	Grade float64 `json:"grade" validate:"min=0,max=100"`
}

var formValidator = validator.New()

// ToDomain parses the structured sub-fields and builds the domain application
// shell (no documents, histories or identity yet). Malformed JSON or invalid
// structured entries surface as apperrors.ErrValidation.
func (r CreateApplicationRequest) ToDomain() (*domain.Application, error) {
	dob, err := time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: dob must be YYYY-MM-DD", apperrors.ErrValidation)
	}

	var subjects []domain.Subject
	if r.SubjectsJSON != "" {
		var payload []subjectPayload
		if err := json.Unmarshal([]byte(r.SubjectsJSON), &payload); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON in subjects field", apperrors.ErrValidation)
		}
		for _, p := range payload {
			if err := formValidator.Struct(p); err != nil {
				return nil, fmt.Errorf("%w: subject %q: %v", apperrors.ErrValidation, p.Name, err)
			}
			subjects = append(subjects, domain.Subject{Name: p.Name, Grade: p.Grade})
		}
	}

	var previous []domain.EducationEntry
	if r.PreviousEducationsJSON != "" {
		if err := json.Unmarshal([]byte(r.PreviousEducationsJSON), &previous); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON in previousEducations field", apperrors.ErrValidation)
		}
	}

	parent1Income, err := parseOptionalDecimal(r.Parent1MonthlyIncome)
	if err != nil {
		return nil, fmt.Errorf("%w: parent1MonthlyIncome must be numeric", apperrors.ErrValidation)
	}
	parent2Income, err := parseOptionalDecimal(r.Parent2MonthlyIncome)
	if err != nil {
		return nil, fmt.Errorf("%w: parent2MonthlyIncome must be numeric", apperrors.ErrValidation)
	}

	return &domain.Application{
		FullName:    r.FullName,
		Email:       r.Email,
		Phone:       r.Phone,
		DateOfBirth: dob,
		Gender:      r.Gender,
		Nationality: r.Nationality,
		Country:     r.Country,
		Address1:    r.Address1,
		Address2:    r.Address2,
		City:        r.City,
		State:       r.State,
		PostalCode:  r.PostalCode,

		HighSchoolName:        r.HighSchoolName,
		HighSchoolMatricYear:  r.HighSchoolMatricYear,
		CurrentEducationLevel: r.CurrentEducationLevel,
		Subjects:              subjects,
		CurrentInstitution: domain.EducationEntry{
			InstitutionName:       r.InstitutionName,
			InstitutionDegreeType: r.InstitutionDegreeType,
			InstitutionDegreeName: r.InstitutionDegreeName,
			InstitutionMajor:      r.InstitutionMajor,
			InstitutionStartYear:  r.InstitutionStartYear,
			InstitutionEndYear:    r.InstitutionEndYear,
			InstitutionGPA:        r.InstitutionGPA,
		},
		PreviousEducations: previous,

		NumberOfMembers: r.NumberOfMembers,
		Parent1: domain.ParentInfo{
			FirstName:        r.Parent1FirstName,
			LastName:         r.Parent1LastName,
			Gender:           r.Parent1Gender,
			Relationship:     r.Parent1Relationship,
			EmploymentStatus: r.Parent1EmploymentStatus,
			Occupation:       r.Parent1Occupation,
			MonthlyIncome:    parent1Income,
		},
		Parent2: domain.ParentInfo{
			FirstName:        r.Parent2FirstName,
			LastName:         r.Parent2LastName,
			Gender:           r.Parent2Gender,
			Relationship:     r.Parent2Relationship,
			EmploymentStatus: r.Parent2EmploymentStatus,
			Occupation:       r.Parent2Occupation,
			MonthlyIncome:    parent2Income,
		},
	}, nil
}

func parseOptionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListApplicationsParams defines query parameters for the admin listing.
type ListApplicationsParams struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"limit,default=10"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Step     string `form:"step"`
}

// UpdateStepRequest moves an application along the review pipeline.
type UpdateStepRequest struct {
	Step  int    `json:"step" binding:"required"`
	Notes string `json:"notes"`
}

// UpdateStatusRequest sets an application's disposition.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// AdminNoteRequest carries a reviewer annotation body.
type AdminNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// ApplicationSummaryResponse is the trimmed record returned on submission.
type ApplicationSummaryResponse struct {
	ApplicationID string    `json:"id"`
	Status        string    `json:"status"`
	CurrentStep   int       `json:"currentStep"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToApplicationSummaryResponse trims an application down to its creation receipt.
func ToApplicationSummaryResponse(app *domain.Application) ApplicationSummaryResponse {
	return ApplicationSummaryResponse{
		ApplicationID: app.ApplicationID,
		Status:        string(app.Status),
		CurrentStep:   app.CurrentStep,
		CreatedAt:     app.CreatedAt,
	}
}

// ListApplicationsResponse wraps one page of applications with the total match count.
type ListApplicationsResponse struct {
	Applications []domain.Application `json:"applications"`
	Total        int                  `json:"total"`
}

// DocumentsUpdatedResponse is returned after an applicant replaces attachments.
type DocumentsUpdatedResponse struct {
	ApplicationID string             `json:"id"`
	Documents     domain.DocumentSet `json:"documents"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
}

// AdminNotesResponse wraps the notes sub-resource.
type AdminNotesResponse struct {
	AdminNotes []domain.AdminNote `json:"adminNotes"`
}
