package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight is the severity's contribution to the risk score.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 30
	case SeverityHigh:
		return 20
	case SeverityMedium:
		return 10
	default:
		return 2
	}
}

// Finding is one classified anomaly produced by a rule.
type Finding struct {
	ID             int             `json:"id"`
	Type           string          `json:"type"`
	Severity       Severity        `json:"severity"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Recommendation string          `json:"recommendation"`
	Category       string          `json:"category"`
	DetectedAt     time.Time       `json:"detectedAt"`
}

// SeverityDistribution counts findings per severity.
type SeverityDistribution struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Warnings is the number of high and medium findings.
func (d SeverityDistribution) Warnings() int { return d.High + d.Medium }

type RiskLevel string

const (
	RiskLevelHigh     RiskLevel = "High Risk"
	RiskLevelModerate RiskLevel = "Moderate Risk"
	RiskLevelLow      RiskLevel = "Low Risk"
)

// MonthlyAnomalyScore scores a month by its revenue change against the previous month.
type MonthlyAnomalyScore struct {
	Month         string          `json:"month"`
	Revenue       decimal.Decimal `json:"revenue"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	AnomalyScore  int             `json:"anomalyScore"`
}

// AnomalyReport is the output of the anomaly evaluator.
type AnomalyReport struct {
	Findings     []Finding             `json:"findings"`
	RiskScore    int                   `json:"riskScore"`
	RiskLevel    RiskLevel             `json:"riskLevel"`
	ExpenseRatio decimal.Decimal       `json:"expenseRatio"`
	Distribution SeverityDistribution  `json:"distribution"`
	Warnings     int                   `json:"warnings"`
	Trend        []MonthlyAnomalyScore `json:"trend"`
}
