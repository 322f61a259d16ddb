// Package anomaly evaluates aggregated financial figures against a fixed,
// ordered set of threshold rules and folds the findings into a risk score.
package anomaly

import (
	"time"

	"FinAudit/internal/domain/models"
	domsvc "FinAudit/internal/domain/service"
	"FinAudit/internal/services/features"
	"github.com/shopspring/decimal"
)

// AllClearType is the type of the fallback finding emitted when no rule fires.
const AllClearType = "All Clear"

// Option configures Evaluator.
type Option func(*Evaluator)

// WithRules replaces the default rule set. Order is evaluation order.
func WithRules(rules ...Rule) Option {
	return func(e *Evaluator) {
		if len(rules) > 0 {
			e.rules = rules
		}
	}
}

// WithClock sets the time source used to stamp findings.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator is stateless and safe for concurrent use.
type Evaluator struct {
	rules []Rule
	now   func() time.Time
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		rules: DefaultRules(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate validates the input, runs every rule in order and scores the result.
// The returned findings are never empty.
func (e *Evaluator) Evaluate(
	snapshot models.FinancialSnapshot,
	trend []models.MonthlyPoint,
	receivables []models.ReceivableEntry,
	payables []models.PayableEntry,
) (models.AnomalyReport, error) {
	if err := snapshot.Validate(); err != nil {
		return models.AnomalyReport{}, err
	}
	if err := models.ValidateTrend(trend); err != nil {
		return models.AnomalyReport{}, err
	}
	if err := models.ValidateReceivables(receivables); err != nil {
		return models.AnomalyReport{}, err
	}
	if err := models.ValidatePayables(payables); err != nil {
		return models.AnomalyReport{}, err
	}

	in := &Input{
		Snapshot:    snapshot,
		Trend:       trend,
		Receivables: receivables,
		Payables:    payables,
		Now:         e.now().UTC(),
	}
	findings := make([]models.Finding, 0, len(e.rules))
	for _, r := range e.rules {
		findings = r.Apply(in, findings)
	}
	if len(findings) == 0 {
		findings = append(findings, allClear(in.Now))
	}

	score := RiskScore(findings)
	dist := Distribution(findings)
	return models.AnomalyReport{
		Findings:     findings,
		RiskScore:    score,
		RiskLevel:    RiskLevelFor(score),
		ExpenseRatio: expenseRatio(snapshot),
		Distribution: dist,
		Warnings:     dist.Warnings(),
		Trend:        features.ScoreMonthlyTrend(trend),
	}, nil
}

func expenseRatio(s models.FinancialSnapshot) decimal.Decimal {
	if !s.Revenue.IsPositive() {
		return decimal.Zero
	}
	return s.TotalExpenses().DivRound(s.Revenue, 4)
}

var _ domsvc.AnomalyEvaluator = (*Evaluator)(nil)
