package anomaly

import (
	"fmt"
	"strings"
	"time"

	"FinAudit/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Base finding IDs per rule. The duplicate-payment rule numbers its findings
// from its base plus the number of findings already emitted.
const (
	idAllClear       = 0
	idExpenseRatio   = 1
	idCollectionRisk = 2
	idRevenueDecline = 3
	idDuplicatePay   = 4
	idNegativeProfit = 10
)

// Input is the immutable snapshot every rule evaluates against.
type Input struct {
	Snapshot    models.FinancialSnapshot
	Trend       []models.MonthlyPoint
	Receivables []models.ReceivableEntry
	Payables    []models.PayableEntry
	Now         time.Time
}

// Rule inspects the input and appends zero or more findings to out.
type Rule interface {
	Name() string
	Apply(in *Input, out []models.Finding) []models.Finding
}

// DefaultRules returns the rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		ExpenseRatioRule{Threshold: decimal.RequireFromString("0.85")},
		CollectionRiskRule{MaxOverdue: 3},
		RevenueDeclineRule{Window: 3},
		DuplicatePaymentRule{MaxEntries: 5},
		NegativeProfitRule{},
	}
}

// ExpenseRatioRule fires when (cogs+opex)/revenue exceeds Threshold.
type ExpenseRatioRule struct {
	Threshold decimal.Decimal
}

func (ExpenseRatioRule) Name() string { return "expense_ratio" }

func (r ExpenseRatioRule) Apply(in *Input, out []models.Finding) []models.Finding {
	revenue := in.Snapshot.Revenue
	if !revenue.IsPositive() {
		return out
	}
	expenses := in.Snapshot.TotalExpenses()
	if !expenses.GreaterThan(revenue.Mul(r.Threshold)) {
		return out
	}
	ratio := expenses.Div(revenue).Mul(decimal.NewFromInt(100))
	return append(out, models.Finding{
		ID:       idExpenseRatio,
		Type:     "Expense Ratio Alert",
		Severity: models.SeverityHigh,
		Description: fmt.Sprintf("Expense-to-revenue ratio is %s%%, above the %s%% threshold.",
			ratio.StringFixed(1), r.Threshold.Mul(decimal.NewFromInt(100)).String()),
		Amount:         expenses,
		Recommendation: "Review expense categories for potential cost reduction opportunities.",
		Category:       "Expense",
		DetectedAt:     in.Now,
	})
}

// CollectionRiskRule fires when more than MaxOverdue receivables are overdue.
type CollectionRiskRule struct {
	MaxOverdue int
}

func (CollectionRiskRule) Name() string { return "collection_risk" }

func (r CollectionRiskRule) Apply(in *Input, out []models.Finding) []models.Finding {
	count := 0
	total := decimal.Zero
	for _, ar := range in.Receivables {
		if ar.Status != models.ReceivableOverdue {
			continue
		}
		count++
		total = total.Add(ar.Amount)
	}
	if count <= r.MaxOverdue {
		return out
	}
	return append(out, models.Finding{
		ID:       idCollectionRisk,
		Type:     "Collection Risk",
		Severity: models.SeverityCritical,
		Description: fmt.Sprintf("%d overdue receivables totaling %s. Possible collection fraud or process failure.",
			count, total.StringFixed(2)),
		Amount:         total,
		Recommendation: "Immediately review overdue accounts and initiate collection procedures.",
		Category:       "AR",
		DetectedAt:     in.Now,
	})
}

// RevenueDeclineRule fires when revenue strictly decreases across the last Window months.
type RevenueDeclineRule struct {
	Window int
}

func (RevenueDeclineRule) Name() string { return "revenue_decline" }

func (r RevenueDeclineRule) Apply(in *Input, out []models.Finding) []models.Finding {
	if r.Window < 2 || len(in.Trend) < r.Window {
		return out
	}
	last := in.Trend[len(in.Trend)-r.Window:]
	for i := 1; i < len(last); i++ {
		if !last[i].Revenue.LessThan(last[i-1].Revenue) {
			return out
		}
	}
	return append(out, models.Finding{
		ID:       idRevenueDecline,
		Type:     "Revenue Decline Pattern",
		Severity: models.SeverityHigh,
		Description: fmt.Sprintf("Revenue has been declining for %d consecutive months. This may indicate market issues or internal problems.",
			r.Window),
		Amount:         last[len(last)-1].Revenue,
		Recommendation: "Analyze sales pipeline and market conditions. Review pricing strategy.",
		Category:       "Revenue",
		DetectedAt:     in.Now,
	})
}

// DuplicatePaymentRule fires once per vendor with more than MaxEntries payables.
// Vendor names are matched case-insensitively but otherwise exactly, so "Acme"
// and "Acme " are different vendors. Empty names are skipped. Groups are
// reported in order of first appearance.
type DuplicatePaymentRule struct {
	MaxEntries int
}

func (DuplicatePaymentRule) Name() string { return "duplicate_payment" }

type vendorGroup struct {
	name  string
	count int
	total decimal.Decimal
}

func (r DuplicatePaymentRule) Apply(in *Input, out []models.Finding) []models.Finding {
	groups := make(map[string]*vendorGroup)
	order := make([]string, 0)
	for _, ap := range in.Payables {
		key := strings.ToLower(ap.VendorName)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &vendorGroup{name: key, total: decimal.Zero}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.total = g.total.Add(ap.Amount)
	}
	for _, key := range order {
		g := groups[key]
		if g.count <= r.MaxEntries {
			continue
		}
		out = append(out, models.Finding{
			ID:       idDuplicatePay + len(out),
			Type:     "Duplicate Payment Risk",
			Severity: models.SeverityMedium,
			Description: fmt.Sprintf("Vendor %q has %d payable entries. Review for potential duplicate payments.",
				g.name, g.count),
			Amount:         g.total,
			Recommendation: "Cross-reference invoices to identify and prevent duplicate payments.",
			Category:       "AP",
			DetectedAt:     in.Now,
		})
	}
	return out
}

// NegativeProfitRule fires when net profit is below zero.
type NegativeProfitRule struct{}

func (NegativeProfitRule) Name() string { return "negative_profit" }

func (NegativeProfitRule) Apply(in *Input, out []models.Finding) []models.Finding {
	np := in.Snapshot.NetProfit
	if !np.IsNegative() {
		return out
	}
	return append(out, models.Finding{
		ID:             idNegativeProfit,
		Type:           "Negative Profit Alert",
		Severity:       models.SeverityCritical,
		Description:    fmt.Sprintf("Net profit is negative at %s. Immediate attention required.", np.StringFixed(2)),
		Amount:         np.Abs(),
		Recommendation: "Conduct emergency cost review and revenue enhancement analysis.",
		Category:       "Profitability",
		DetectedAt:     in.Now,
	})
}

func allClear(now time.Time) models.Finding {
	return models.Finding{
		ID:             idAllClear,
		Type:           AllClearType,
		Severity:       models.SeverityLow,
		Description:    "No significant anomalies detected. All financial metrics are within expected ranges.",
		Amount:         decimal.Zero,
		Recommendation: "Continue regular monitoring.",
		Category:       "System",
		DetectedAt:     now,
	}
}
