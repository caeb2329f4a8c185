package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus is the coarse disposition of a bursary application.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusWaitlisted  ApplicationStatus = "waitlisted"
)

// AllStatuses lists every valid status, in reporting order.
var AllStatuses = []ApplicationStatus{
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusWaitlisted,
}

// IsValid reports whether s is one of the five enumerated statuses.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected, StatusWaitlisted:
		return true
	}
	return false
}

// IsFinal reports whether the application can no longer accept document updates.
func (s ApplicationStatus) IsFinal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Review pipeline step bounds.
const (
	MinStep = 1
	MaxStep = 7
)

var stepTitles = [MaxStep]string{
	"Application Submitted",
	"Document Verification",
	"Academic Review",
	"Financial Assessment",
	"Committee Review",
	"Decision Notification",
	"Fund Disbursement",
}

// StepTitle resolves the human-readable title for a pipeline step. Steps outside
// the known table fall back to a generic label.
func StepTitle(step int) string {
	if step >= MinStep && step <= MaxStep {
		return stepTitles[step-1]
	}
	return fmt.Sprintf("Step %d", step)
}

// IsValidStep reports whether step lies within the review pipeline range.
func IsValidStep(step int) bool {
	return step >= MinStep && step <= MaxStep
}

// DocumentRef points at a stored file in the document store. The content type is
// recorded at upload time so release is a single deterministic call.
type DocumentRef struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// Canonical named document slots.
const (
	SlotTranscript             = "transcript"
	SlotNationalIDCard         = "nationalIdCard"
	SlotProofOfResidence       = "proofOfResidence"
	SlotLetterOfRecommendation = "letterOfRecommendation"
	SlotResume                 = "resume"
	SlotCoverLetter            = "coverLetter"
	SlotPayslip                = "payslip"
)

// MaxAdditionalDocs caps the ordered list of free-form attachment slots.
const MaxAdditionalDocs = 5

// NamedSlots lists the fixed document slots in upload-form order.
var NamedSlots = []string{
	SlotTranscript,
	SlotNationalIDCard,
	SlotProofOfResidence,
	SlotLetterOfRecommendation,
	SlotResume,
	SlotCoverLetter,
	SlotPayslip,
}

// DocumentSet maps each attachment slot to at most one document store reference.
type DocumentSet struct {
	Transcript             *DocumentRef  `json:"transcript,omitempty"`
	NationalIDCard         *DocumentRef  `json:"nationalIdCard,omitempty"`
	ProofOfResidence       *DocumentRef  `json:"proofOfResidence,omitempty"`
	LetterOfRecommendation *DocumentRef  `json:"letterOfRecommendation,omitempty"`
	Resume                 *DocumentRef  `json:"resume,omitempty"`
	CoverLetter            *DocumentRef  `json:"coverLetter,omitempty"`
	Payslip                *DocumentRef  `json:"payslip,omitempty"`
	AdditionalDocs         []DocumentRef `json:"additionalDocs,omitempty"`
}

// Ref returns a pointer to the slot's reference holder, or nil for an unknown
// slot name. Additional docs are addressed via AdditionalRef.
func (d *DocumentSet) Ref(slot string) **DocumentRef {
	switch slot {
	case SlotTranscript:
		return &d.Transcript
	case SlotNationalIDCard:
		return &d.NationalIDCard
	case SlotProofOfResidence:
		return &d.ProofOfResidence
	case SlotLetterOfRecommendation:
		return &d.LetterOfRecommendation
	case SlotResume:
		return &d.Resume
	case SlotCoverLetter:
		return &d.CoverLetter
	case SlotPayslip:
		return &d.Payslip
	}
	return nil
}

// AdditionalRef returns the reference at the given additional-doc index, or nil
// if the index is unoccupied or out of range.
func (d *DocumentSet) AdditionalRef(i int) *DocumentRef {
	if i < 0 || i >= len(d.AdditionalDocs) {
		return nil
	}
	return &d.AdditionalDocs[i]
}

// SetAdditional places ref at index i, growing the list as needed up to
// MaxAdditionalDocs. Out-of-range indexes are ignored.
func (d *DocumentSet) SetAdditional(i int, ref DocumentRef) {
	if i < 0 || i >= MaxAdditionalDocs {
		return
	}
	for len(d.AdditionalDocs) <= i {
		d.AdditionalDocs = append(d.AdditionalDocs, DocumentRef{})
	}
	d.AdditionalDocs[i] = ref
}

// StepEntry is one immutable record in an application's step audit trail.
type StepEntry struct {
	Step      int       `json:"step"`
	Title     string    `json:"stepTitle"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// StatusEntry is one immutable record in an application's status audit trail.
type StatusEntry struct {
	Status    ApplicationStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Notes     string            `json:"notes,omitempty"`
}

// AdminNote is a reviewer annotation. Only its author may edit or delete it.
type AdminNote struct {
	NoteID       string     `json:"noteID"`
	Note         string     `json:"note"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	IsEdited     bool       `json:"isEdited"`
}

// Subject is a graded school subject on the academic record.
type Subject struct {
	Name  string  `json:"name"`
	Grade float64 `json:"grade"`
}

// EducationEntry describes one present or prior higher-education enrolment.
type EducationEntry struct {
	InstitutionName       string `json:"institutionName,omitempty"`
	InstitutionDegreeType string `json:"institutionDegreeType,omitempty"`
	InstitutionDegreeName string `json:"institutionDegreeName,omitempty"`
	InstitutionMajor      string `json:"institutionMajor,omitempty"`
	InstitutionStartYear  string `json:"institutionStartYear,omitempty"`
	InstitutionEndYear    string `json:"institutionEndYear,omitempty"`
	InstitutionGPA        string `json:"institutionGPA,omitempty"`
}

// ParentInfo captures one guardian's identity and financial standing.
type ParentInfo struct {
	FirstName        string           `json:"firstName,omitempty"`
	LastName         string           `json:"lastName,omitempty"`
	Gender           string           `json:"gender,omitempty"`
	Relationship     string           `json:"relationship,omitempty"`
	EmploymentStatus string           `json:"employmentStatus,omitempty"`
	Occupation       string           `json:"occupation,omitempty"`
	MonthlyIncome    *decimal.Decimal `json:"monthlyIncome,omitempty"`
}

// Application is a single bursary submission, one per applicant account. The
// histories, notes and document set are embedded so the whole record reads and
// writes atomically.
type Application struct {
	ApplicationID string `json:"applicationID"`
	ApplicantID   string `json:"applicantID"`

	// Personal information
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth time.Time `json:"dob"`
	Gender      string    `json:"gender"`
	Nationality string    `json:"nationality"`
	Country     string    `json:"country"`
	Address1    string    `json:"address1"`
	Address2    string    `json:"address2,omitempty"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postalCode"`

	// Education information
	HighSchoolName        string           `json:"highSchoolName"`
	HighSchoolMatricYear  string           `json:"highSchoolMatricYear"`
	CurrentEducationLevel string           `json:"currentEducationLevel"`
	Subjects              []Subject        `json:"subjects"`
	CurrentInstitution    EducationEntry   `json:"currentInstitution"`
	PreviousEducations    []EducationEntry `json:"previousEducations"`

	// Household information
	NumberOfMembers int        `json:"numberOfMembers"`
	Parent1         ParentInfo `json:"parent1"`
	Parent2         ParentInfo `json:"parent2"`

	Documents DocumentSet `json:"documents"`

	Status        ApplicationStatus `json:"status"`
	CurrentStep   int               `json:"currentStep"`
	StepHistory   []StepEntry       `json:"stepHistory"`
	StatusHistory []StatusEntry     `json:"statusHistory"`
	AdminNotes    []AdminNote       `json:"adminNotes"`
	IsNotified    bool              `json:"isNotified"`

	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// RecordStep moves the application to step and appends the matching audit entry.
// The history is an audit trail: re-applying the current step still appends.
func (a *Application) RecordStep(step int, notes string, now time.Time) {
	a.CurrentStep = step
	a.StepHistory = append(a.StepHistory, StepEntry{
		Step:      step,
		Title:     StepTitle(step),
		Timestamp: now,
		Notes:     notes,
	})
	a.LastUpdatedAt = now
}

// RecordStatus sets the status and appends the matching audit entry. Any status
// is reachable from any other; admins need to be able to correct mistakes.
func (a *Application) RecordStatus(status ApplicationStatus, notes string, now time.Time) {
	a.Status = status
	a.StatusHistory = append(a.StatusHistory, StatusEntry{
		Status:    status,
		Timestamp: now,
		Notes:     notes,
	})
	a.LastUpdatedAt = now
}

// RecordDocumentsUpdated notes a document change in the step trail without
// moving the application to a different step.
func (a *Application) RecordDocumentsUpdated(now time.Time) {
	a.StepHistory = append(a.StepHistory, StepEntry{
		Step:      a.CurrentStep,
		Title:     "Documents Updated",
		Timestamp: now,
		Notes:     "Supporting documents were updated by the applicant",
	})
	a.LastUpdatedAt = now
}

// NoteByID returns the index of the admin note with the given id, or -1.
func (a *Application) NoteByID(noteID string) int {
	for i := range a.AdminNotes {
		if a.AdminNotes[i].NoteID == noteID {
			return i
		}
	}
	return -1
}
