package models

// Requests for evaluation HTTP endpoints. Defined in domain for consistency and reuse.

type PeriodRequest struct {
	Period string `query:"period" json:"period" default:"ytd" validate:"oneof=mtd ytd"`
	Months int    `query:"months" json:"months" default:"12" validate:"gte=1,lte=36"`
}

type LatestRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

// ChecklistResponse is the configured compliance checklist with its counts.
type ChecklistResponse struct {
	Items   []ComplianceItem  `json:"items"`
	Summary ComplianceSummary `json:"summary"`
}
