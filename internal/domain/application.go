package domain

import "time"

// IndustrialApplication holds the applicant-supplied project details.
type IndustrialApplication struct {
	IndustryName    string `json:"industry_name" validate:"required"`
	SquareFeet      string `json:"square_feet" validate:"required"`
	WaterSource     string `json:"water_source" validate:"required"`
	Drainage        string `json:"drainage" validate:"required"`
	AirPollution    string `json:"air_pollution" validate:"required"`
	WasteManagement string `json:"waste_management" validate:"required"`
	NearbyHomes     string `json:"nearby_homes" validate:"required"`
	WaterLevelDepth string `json:"water_level_depth" validate:"required"`
}

// Fields returns the application as a flat field map for retrieval-query
// construction and prompt formatting.
func (a IndustrialApplication) Fields() map[string]string {
	return map[string]string{
		"industry_name":     a.IndustryName,
		"square_feet":       a.SquareFeet,
		"water_source":      a.WaterSource,
		"drainage":          a.Drainage,
		"air_pollution":     a.AirPollution,
		"waste_management":  a.WasteManagement,
		"nearby_homes":      a.NearbyHomes,
		"water_level_depth": a.WaterLevelDepth,
	}
}

// Workflow states of a saved application.
const (
	AppStatusSubmitted   = "submitted"
	AppStatusUnderReview = "under_review"
	AppStatusApproved    = "approved"
	AppStatusRejected    = "rejected"
)

// Officer review actions.
const (
	ReviewApprove = "approve"
	ReviewReject  = "reject"
	ReviewHold    = "hold"
)

// OfficerReview carries an officer's decision on an application.
type OfficerReview struct {
	Action          string `json:"action" validate:"required,oneof=approve reject hold"`
	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// SavedApplication is the persisted record: submission, its compliance
// report, workflow status, and officer decision fields.
type SavedApplication struct {
	ID               string                `json:"id" badgerhold:"key"`
	SubmittedAt      time.Time             `json:"submitted_at"`
	Status           string                `json:"status"`
	Application      IndustrialApplication `json:"application_data"`
	ComplianceReport ComplianceReport      `json:"compliance_report"`
	OfficerAction    string                `json:"officer_action,omitempty"`
	OfficerNotes     string                `json:"officer_notes,omitempty"`
	RejectionReason  string                `json:"rejection_reason,omitempty"`
	IssueOverrides   map[string]string     `json:"issue_overrides,omitempty"`
	TimeSavedSeconds float64               `json:"time_saved_seconds"`
}
