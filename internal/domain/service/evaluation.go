package service

import (
	"context"

	"FinAudit/internal/domain/models"
	"github.com/shopspring/decimal"
)

// AnomalyEvaluator classifies a financial snapshot into findings and a risk score.
type AnomalyEvaluator interface {
	Evaluate(snapshot models.FinancialSnapshot, trend []models.MonthlyPoint, receivables []models.ReceivableEntry, payables []models.PayableEntry) (models.AnomalyReport, error)
}

// TaxEvaluator computes VAT and withholding figures and summarizes compliance status.
type TaxEvaluator interface {
	Evaluate(snapshot models.FinancialSnapshot, trend []models.MonthlyPoint, bases map[string]decimal.Decimal, checklist []models.ComplianceItem) (models.TaxComplianceReport, error)
	Categories() []models.WithholdingCategory
}

// ReportingSource fetches evaluation input from upstream financial reporting.
type ReportingSource interface {
	FetchInput(ctx context.Context, period string, months int) (*models.EvaluationInput, error)
}
