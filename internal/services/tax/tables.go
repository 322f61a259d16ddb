package tax

import (
	"time"

	"FinAudit/internal/domain/models"
	"github.com/shopspring/decimal"
)

var (
	// DefaultVATRate is the standard VAT rate on sales.
	DefaultVATRate = decimal.RequireFromString("0.15")
	// DefaultInputCreditFactor is the share of expenses assumed to carry
	// deductible input VAT. It is a modelling assumption, not a statutory rate.
	DefaultInputCreditFactor = decimal.RequireFromString("0.6")
)

func category(name, rate, section, description string) models.WithholdingCategory {
	return models.WithholdingCategory{
		Name:        name,
		Rate:        decimal.RequireFromString(rate),
		Section:     section,
		Description: description,
	}
}

// DefaultCategories returns the statutory withholding table.
func DefaultCategories() []models.WithholdingCategory {
	return []models.WithholdingCategory{
		category("Salary", "0.10", "52", "TDS on Salary"),
		category("Contractor", "0.07", "52AA", "TDS on Contractors"),
		category("Supplier", "0.05", "52", "TDS on Supplier Payments"),
		category("Rent", "0.05", "53A", "TDS on Rent"),
		category("Professional", "0.10", "52", "TDS on Professional Fees"),
		category("Interest", "0.10", "53B", "TDS on Interest Income"),
		category("Commission", "0.10", "53E", "TDS on Commission"),
		category("Royalty", "0.10", "53F", "TDS on Royalty"),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DefaultChecklist returns the reference NBR filing checklist used when no
// checklist is configured.
func DefaultChecklist() []models.ComplianceItem {
	return []models.ComplianceItem{
		{ID: 1, Requirement: "Monthly VAT Return (Mushak-9.1)", DeadlineRule: "15th of following month", DueDate: day(2026, time.February, 15), Status: models.ComplianceCompliant},
		{ID: 2, Requirement: "TDS Certificate Issuance", DeadlineRule: "Within 20 days of deduction", DueDate: day(2026, time.February, 20), Status: models.ComplianceCompliant},
		{ID: 3, Requirement: "Annual Income Tax Return", DeadlineRule: "30th September", DueDate: day(2026, time.September, 30), Status: models.ComplianceUpcoming},
		{ID: 4, Requirement: "Advance Income Tax Payment", DeadlineRule: "Quarterly", DueDate: day(2026, time.March, 15), Status: models.ComplianceCompliant},
		{ID: 5, Requirement: "VAT Registration Renewal", DeadlineRule: "Annual", DueDate: day(2026, time.December, 31), Status: models.ComplianceCompliant},
		{ID: 6, Requirement: "Transfer Pricing Documentation", DeadlineRule: "With return", DueDate: day(2026, time.September, 30), Status: models.ComplianceUpcoming},
		{ID: 7, Requirement: "Withholding Tax Statement (108)", DeadlineRule: "30th September", DueDate: day(2026, time.September, 30), Status: models.ComplianceCompliant},
		{ID: 8, Requirement: "Monthly Mushak-6.3 Filing", DeadlineRule: "15th of following month", DueDate: day(2026, time.February, 15), Status: models.ComplianceAttention},
	}
}
