package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithholdingCategory is one row of the statutory withholding (TDS) table.
type WithholdingCategory struct {
	Name        string          `json:"category" yaml:"name"`
	Rate        decimal.Decimal `json:"rate" yaml:"rate"`
	Section     string          `json:"section" yaml:"section"`
	Description string          `json:"description" yaml:"description"`
}

// TdsCategoryResult is the computed withholding for one category.
type TdsCategoryResult struct {
	Category    string          `json:"category"`
	Section     string          `json:"section"`
	BaseAmount  decimal.Decimal `json:"baseAmount"`
	RatePercent decimal.Decimal `json:"ratePercent"`
	TdsAmount   decimal.Decimal `json:"tdsAmount"`
	Description string          `json:"description"`
}

// MonthlyVat is the VAT position for one month of the trend series.
type MonthlyVat struct {
	Month          string          `json:"month"`
	VatCollected   decimal.Decimal `json:"vatCollected"`
	VatInputCredit decimal.Decimal `json:"vatInputCredit"`
	VatNetPayable  decimal.Decimal `json:"vatNetPayable"`
}

type ComplianceStatus string

const (
	ComplianceCompliant ComplianceStatus = "compliant"
	ComplianceAttention ComplianceStatus = "attention"
	ComplianceUpcoming  ComplianceStatus = "upcoming"
)

// Valid reports whether s is a known status bucket.
func (s ComplianceStatus) Valid() bool {
	switch s {
	case ComplianceCompliant, ComplianceAttention, ComplianceUpcoming:
		return true
	}
	return false
}

// ComplianceItem is one regulatory filing requirement. Status is computed by
// the caller from actual filing records.
type ComplianceItem struct {
	ID           int              `json:"id" yaml:"id"`
	Requirement  string           `json:"requirement" yaml:"requirement"`
	DeadlineRule string           `json:"deadline" yaml:"deadline"`
	DueDate      time.Time        `json:"dueDate" yaml:"due_date"`
	Status       ComplianceStatus `json:"status" yaml:"status"`
}

// ComplianceSummary counts checklist items per status.
type ComplianceSummary struct {
	Compliant int `json:"compliant"`
	Attention int `json:"attention"`
	Upcoming  int `json:"upcoming"`
}

// TaxFigure is a named headline figure of the tax summary.
type TaxFigure struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// TaxComplianceReport is the output of the tax-compliance evaluator.
type TaxComplianceReport struct {
	VatRate           decimal.Decimal     `json:"vatRate"`
	VatCollected      decimal.Decimal     `json:"vatCollected"`
	VatInputCredit    decimal.Decimal     `json:"vatInputCredit"`
	VatNetPayable     decimal.Decimal     `json:"vatNetPayable"`
	MonthlyVat        []MonthlyVat        `json:"monthlyVat"`
	Withholding       []TdsCategoryResult `json:"withholding"`
	TotalTds          decimal.Decimal     `json:"totalTds"`
	Summary           []TaxFigure         `json:"summary"`
	Checklist         []ComplianceItem    `json:"checklist"`
	ComplianceSummary ComplianceSummary   `json:"complianceSummary"`
}
