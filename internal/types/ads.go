package types

// Kind-specific payloads stored in the ads.details JSONB column.

type PersonnelDetails struct {
	Trade          string   `json:"trade"`
	Qualifications []string `json:"qualifications,omitempty"`
	HourlyRate     float64  `json:"hourly_rate,omitempty"`
	AvailableFrom  string   `json:"available_from,omitempty"`
}

type PositionDetails struct {
	Trade          string  `json:"trade"`
	EmploymentType string  `json:"employment_type"` // "full_time", "part_time", "contract"
	SalaryMin      float64 `json:"salary_min,omitempty"`
	SalaryMax      float64 `json:"salary_max,omitempty"`
}

type ProjectDetails struct {
	Budget       float64  `json:"budget,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	TradesNeeded []string `json:"trades_needed,omitempty"`
}

var AdKinds = map[string]bool{
	"personnel": true,
	"position":  true,
	"project":   true,
}
