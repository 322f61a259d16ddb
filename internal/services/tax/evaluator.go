// Package tax computes VAT and withholding-tax figures from aggregated
// financials and summarizes a filing checklist.
package tax

import (
	"strings"

	"FinAudit/internal/domain/models"
	domsvc "FinAudit/internal/domain/service"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Option configures Evaluator.
type Option func(*Evaluator)

// WithVATRate overrides the VAT rate.
func WithVATRate(rate decimal.Decimal) Option {
	return func(e *Evaluator) { e.vatRate = rate }
}

// WithInputCreditFactor overrides the deductible share of expenses.
func WithInputCreditFactor(f decimal.Decimal) Option {
	return func(e *Evaluator) { e.inputCreditFactor = f }
}

// WithCategories replaces the withholding table. Order is preserved in reports.
func WithCategories(cats []models.WithholdingCategory) Option {
	return func(e *Evaluator) {
		if len(cats) > 0 {
			e.categories = append([]models.WithholdingCategory(nil), cats...)
		}
	}
}

// Evaluator holds only immutable rate tables and is safe for concurrent use.
type Evaluator struct {
	vatRate           decimal.Decimal
	inputCreditFactor decimal.Decimal
	categories        []models.WithholdingCategory
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		vatRate:           DefaultVATRate,
		inputCreditFactor: DefaultInputCreditFactor,
		categories:        DefaultCategories(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Categories returns a copy of the withholding table.
func (e *Evaluator) Categories() []models.WithholdingCategory {
	return append([]models.WithholdingCategory(nil), e.categories...)
}

// VAT holds the three VAT figures for one set of revenue and expenses.
type VAT struct {
	Collected   decimal.Decimal
	InputCredit decimal.Decimal
	NetPayable  decimal.Decimal
}

// ComputeVAT derives output VAT, input credit and the net position.
// NetPayable may be negative, meaning a credit carried forward.
func (e *Evaluator) ComputeVAT(revenue, expenses decimal.Decimal) VAT {
	collected := revenue.Mul(e.vatRate)
	credit := expenses.Mul(e.vatRate).Mul(e.inputCreditFactor)
	return VAT{
		Collected:   collected,
		InputCredit: credit,
		NetPayable:  collected.Sub(credit),
	}
}

// Evaluate computes the tax report. bases maps category name (case-insensitive)
// to the actual base amount paid in that category; missing categories count as 0.
func (e *Evaluator) Evaluate(
	snapshot models.FinancialSnapshot,
	trend []models.MonthlyPoint,
	bases map[string]decimal.Decimal,
	checklist []models.ComplianceItem,
) (models.TaxComplianceReport, error) {
	if err := snapshot.Validate(); err != nil {
		return models.TaxComplianceReport{}, err
	}
	if err := models.ValidateTrend(trend); err != nil {
		return models.TaxComplianceReport{}, err
	}
	normBases, err := e.normalizeBases(bases)
	if err != nil {
		return models.TaxComplianceReport{}, err
	}
	summary, err := SummarizeChecklist(checklist)
	if err != nil {
		return models.TaxComplianceReport{}, err
	}

	vat := e.ComputeVAT(snapshot.Revenue, snapshot.TotalExpenses())

	monthly := make([]models.MonthlyVat, 0, len(trend))
	for _, m := range trend {
		mv := e.ComputeVAT(m.Revenue, m.COGS)
		monthly = append(monthly, models.MonthlyVat{
			Month:          m.Month,
			VatCollected:   mv.Collected,
			VatInputCredit: mv.InputCredit,
			VatNetPayable:  mv.NetPayable,
		})
	}

	withholding := make([]models.TdsCategoryResult, 0, len(e.categories))
	totalTds := decimal.Zero
	for _, c := range e.categories {
		base, ok := normBases[strings.ToLower(c.Name)]
		if !ok {
			base = decimal.Zero
		}
		tds := base.Mul(c.Rate)
		totalTds = totalTds.Add(tds)
		withholding = append(withholding, models.TdsCategoryResult{
			Category:    c.Name,
			Section:     c.Section,
			BaseAmount:  base,
			RatePercent: c.Rate.Mul(hundred),
			TdsAmount:   tds,
			Description: c.Description,
		})
	}

	return models.TaxComplianceReport{
		VatRate:        e.vatRate,
		VatCollected:   vat.Collected,
		VatInputCredit: vat.InputCredit,
		VatNetPayable:  vat.NetPayable,
		MonthlyVat:     monthly,
		Withholding:    withholding,
		TotalTds:       totalTds,
		Summary: []models.TaxFigure{
			{Name: "VAT Collected", Value: vat.Collected},
			{Name: "VAT Input Credit", Value: vat.InputCredit},
			{Name: "VAT Net Payable", Value: vat.NetPayable},
			{Name: "TDS Deducted", Value: totalTds},
		},
		Checklist:         append([]models.ComplianceItem(nil), checklist...),
		ComplianceSummary: summary,
	}, nil
}

func (e *Evaluator) normalizeBases(bases map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	known := make(map[string]struct{}, len(e.categories))
	for _, c := range e.categories {
		known[strings.ToLower(c.Name)] = struct{}{}
	}
	out := make(map[string]decimal.Decimal, len(bases))
	for name, amount := range bases {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := known[key]; !ok {
			return nil, models.InvalidInputf("unknown withholding category %q", name)
		}
		if amount.IsNegative() {
			return nil, models.InvalidInputf("withholding base for %q must be >= 0, got %s", name, amount.String())
		}
		out[key] = out[key].Add(amount)
	}
	return out, nil
}

// SummarizeChecklist counts items per status bucket.
func SummarizeChecklist(items []models.ComplianceItem) (models.ComplianceSummary, error) {
	var s models.ComplianceSummary
	for _, it := range items {
		switch it.Status {
		case models.ComplianceCompliant:
			s.Compliant++
		case models.ComplianceAttention:
			s.Attention++
		case models.ComplianceUpcoming:
			s.Upcoming++
		default:
			return models.ComplianceSummary{}, models.InvalidInputf("checklist item %d has unknown status %q", it.ID, it.Status)
		}
	}
	return s, nil
}

var _ domsvc.TaxEvaluator = (*Evaluator)(nil)
