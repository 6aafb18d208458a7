// Package fitscore compares an applicant profile with the admission requirements of a
// CRNA program and produces a 0-100 match score with a per-criterion breakdown.
package fitscore

// Status is the outcome of a single criterion.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
	StatusUnknown Status = "unknown"
	StatusBonus   Status = "bonus"
)

// School is a snapshot of a program's admission requirements.
type School struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`

	// MinimumGPA defaults to 3.0 when nil.
	MinimumGPA   *float64 `json:"minimumGpa,omitempty"`
	GRERequired  bool     `json:"greRequired,omitempty"`
	GREWaivedFor string   `json:"greWaivedFor,omitempty"`

	AcceptsNICU bool `json:"acceptsNicu,omitempty"`
	AcceptsPICU bool `json:"acceptsPicu,omitempty"`
	AcceptsER   bool `json:"acceptsEr,omitempty"`

	// MinimumExperience is measured in years and defaults to 1 when nil.
	MinimumExperience *float64 `json:"minimumExperience,omitempty"`
	CCRNRequired      bool     `json:"ccrnRequired,omitempty"`

	State string `json:"state,omitempty"`
	City  string `json:"city,omitempty"`
}

// Certification is a single credential held by the applicant, e.g. {ccrn, passed}.
type Certification struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// UserProfile is a snapshot of an applicant. Pointer fields are nil when the value was
// never provided, which is different from a provided zero.
type UserProfile struct {
	ScienceGPA *float64 `json:"scienceGpa,omitempty"`
	OverallGPA *float64 `json:"overallGpa,omitempty"`

	GREQuantitative *int `json:"greQuantitative,omitempty"`
	GREVerbal       *int `json:"greVerbal,omitempty"`

	PrimaryICUType       string   `json:"primaryIcuType,omitempty"`
	AdditionalICUTypes   []string `json:"additionalIcuTypes,omitempty"`
	TotalYearsExperience *float64 `json:"totalYearsExperience,omitempty"`

	Certifications []Certification `json:"certifications,omitempty"`

	State         string `json:"state,omitempty"`
	HospitalState string `json:"hospitalState,omitempty"`
}

// Criterion is one line of the breakdown.
type Criterion struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Status  Status `json:"status"`
	Icon    string `json:"icon"`
	Detail  string `json:"detail"`
	Points  int    `json:"points"`
	Display bool   `json:"display"`
}

// Result is the outcome of Calculate.
type Result struct {
	Score        int         `json:"score"`
	Breakdown    []Criterion `json:"breakdown"`
	Message      string      `json:"message"`
	EarnedPoints int         `json:"earnedPoints"`
	TotalPoints  int         `json:"totalPoints"`
}

// Warnings returns the displayed criteria with warning status.
func (r *Result) Warnings() []Criterion {
	warnings := make([]Criterion, 0)
	for _, c := range r.Breakdown {
		if c.Status == StatusWarning {
			warnings = append(warnings, c)
		}
	}
	return warnings
}

// Float64 and Int are small helpers for building profiles in code.
func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
