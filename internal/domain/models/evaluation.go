package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EvaluationInput is everything both evaluators need for one run.
// Checklist is optional; when empty the configured checklist is used.
type EvaluationInput struct {
	Snapshot         FinancialSnapshot          `json:"snapshot"`
	Trend            []MonthlyPoint             `json:"trend"`
	Receivables      []ReceivableEntry          `json:"receivables"`
	Payables         []PayableEntry             `json:"payables"`
	WithholdingBases map[string]decimal.Decimal `json:"withholdingBases,omitempty"`
	Checklist        []ComplianceItem           `json:"checklist,omitempty"`
}

// Validate checks every monetary field of the input.
func (in *EvaluationInput) Validate() error {
	if in == nil {
		return InvalidInputf("evaluation input is nil")
	}
	if err := in.Snapshot.Validate(); err != nil {
		return err
	}
	if err := ValidateTrend(in.Trend); err != nil {
		return err
	}
	if err := ValidateReceivables(in.Receivables); err != nil {
		return err
	}
	return ValidatePayables(in.Payables)
}

// Evaluation is one stored and published evaluation run.
type Evaluation struct {
	ID          string              `json:"id"`
	Source      string              `json:"source"`
	EvaluatedAt time.Time           `json:"evaluatedAt"`
	Anomaly     AnomalyReport       `json:"anomaly"`
	Tax         TaxComplianceReport `json:"tax"`
}

// Summary reduces the evaluation to its headline figures.
func (e *Evaluation) Summary() EvaluationSummary {
	return EvaluationSummary{
		ID:            e.ID,
		Source:        e.Source,
		EvaluatedAt:   e.EvaluatedAt,
		RiskScore:     e.Anomaly.RiskScore,
		RiskLevel:     e.Anomaly.RiskLevel,
		FindingsCount: len(e.Anomaly.Findings),
		Critical:      e.Anomaly.Distribution.Critical,
		VatNetPayable: e.Tax.VatNetPayable,
		TotalTds:      e.Tax.TotalTds,
	}
}

// EvaluationSummary is the listing form of an evaluation.
type EvaluationSummary struct {
	ID            string          `json:"id"`
	Source        string          `json:"source"`
	EvaluatedAt   time.Time       `json:"evaluatedAt"`
	RiskScore     int             `json:"riskScore"`
	RiskLevel     RiskLevel       `json:"riskLevel"`
	FindingsCount int             `json:"findingsCount"`
	Critical      int             `json:"critical"`
	VatNetPayable decimal.Decimal `json:"vatNetPayable"`
	TotalTds      decimal.Decimal `json:"totalTds"`
}

// Evaluation sources.
const (
	SourceAPI       = "api"
	SourceKafka     = "kafka"
	SourceReporting = "reporting"
)

// NormalizeSource maps unknown sources to SourceAPI.
func NormalizeSource(s string) string {
	switch strings.ToLower(s) {
	case SourceKafka:
		return SourceKafka
	case SourceReporting:
		return SourceReporting
	default:
		return SourceAPI
	}
}
