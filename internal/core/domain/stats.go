package domain

// StatusStats is the status distribution across all applications. Every status
// is reported, zero-filled when absent.
type StatusStats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Waitlisted  int `json:"waitlisted"`
}

// StepCount is one observed pipeline step and how many applications sit at it.
type StepCount struct {
	Step  int `json:"step"`
	Count int `json:"count"`
}

// ApplicationStats aggregates the current status and step distributions.
// StepCounts holds only observed steps, ordered ascending.
type ApplicationStats struct {
	StatusStats `json:"statusStats"`
	StepCounts  []StepCount `json:"stepStats"`
}
