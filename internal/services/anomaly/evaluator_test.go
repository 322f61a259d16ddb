package anomaly

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAudit/internal/domain/models"
)

var fixedNow = time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshot(revenue, cogs, opex, netProfit string) models.FinancialSnapshot {
	return models.FinancialSnapshot{Revenue: d(revenue), COGS: d(cogs), Opex: d(opex), NetProfit: d(netProfit)}
}

func newTestEvaluator() *Evaluator {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestEvaluateExpenseRatio(t *testing.T) {
	rep, err := newTestEvaluator().Evaluate(snapshot("1000000", "500000", "400000", "100000"), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)

	f := rep.Findings[0]
	assert.Equal(t, models.SeverityHigh, f.Severity)
	assert.Equal(t, "Expense", f.Category)
	assert.Equal(t, idExpenseRatio, f.ID)
	assert.True(t, f.Amount.Equal(d("900000")), "amount %s", f.Amount)
	assert.Contains(t, f.Description, "90.0%")
	assert.Equal(t, fixedNow, f.DetectedAt)
	assert.Equal(t, 20, rep.RiskScore)
	assert.Equal(t, models.RiskLevelLow, rep.RiskLevel)
	assert.True(t, rep.ExpenseRatio.Equal(d("0.9")))
}

func TestEvaluateNegativeProfitWithExpenseRatio(t *testing.T) {
	rep, err := newTestEvaluator().Evaluate(snapshot("1000000", "500000", "400000", "-50000"), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 2)

	assert.Equal(t, models.SeverityHigh, rep.Findings[0].Severity)
	assert.Equal(t, models.SeverityCritical, rep.Findings[1].Severity)
	assert.Equal(t, "Profitability", rep.Findings[1].Category)
	assert.True(t, rep.Findings[1].Amount.Equal(d("50000")))
	assert.Equal(t, 50, rep.RiskScore)
	assert.Equal(t, models.RiskLevelModerate, rep.RiskLevel)
	assert.Equal(t, 1, rep.Warnings)
}

func TestEvaluateCollectionRisk(t *testing.T) {
	receivables := []models.ReceivableEntry{
		{Counterparty: "a", Amount: d("10000"), Status: models.ReceivableOverdue},
		{Counterparty: "b", Amount: d("20000"), Status: models.ReceivableOverdue},
		{Counterparty: "c", Amount: d("30000"), Status: models.ReceivableOverdue},
		{Counterparty: "d", Amount: d("40000"), Status: models.ReceivableOverdue},
		{Counterparty: "e", Amount: d("99999"), Status: models.ReceivablePaid},
	}
	rep, err := newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), nil, receivables, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)

	f := rep.Findings[0]
	assert.Equal(t, "AR", f.Category)
	assert.Equal(t, models.SeverityCritical, f.Severity)
	assert.True(t, f.Amount.Equal(d("100000")))
	assert.Equal(t, 30, rep.RiskScore)
}

func TestEvaluateCollectionRiskAtThreshold(t *testing.T) {
	receivables := make([]models.ReceivableEntry, 3)
	for i := range receivables {
		receivables[i] = models.ReceivableEntry{Amount: d("1"), Status: models.ReceivableOverdue}
	}
	rep, err := newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), nil, receivables, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, AllClearType, rep.Findings[0].Type)
}

func TestEvaluateRevenueDecline(t *testing.T) {
	trend := []models.MonthlyPoint{
		{Month: "Jan", Revenue: d("300")},
		{Month: "Feb", Revenue: d("250")},
		{Month: "Mar", Revenue: d("200")},
		{Month: "Apr", Revenue: d("150")},
	}
	rep, err := newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), trend, nil, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)

	f := rep.Findings[0]
	assert.Equal(t, "Revenue", f.Category)
	assert.Equal(t, models.SeverityHigh, f.Severity)
	assert.True(t, f.Amount.Equal(d("150")))
	require.Len(t, rep.Trend, 4)
	assert.Equal(t, 20, rep.Trend[0].AnomalyScore)
	assert.Equal(t, 50, rep.Trend[1].AnomalyScore)
	assert.Equal(t, 80, rep.Trend[3].AnomalyScore)
}

func TestEvaluateRevenueDeclineRequiresStrictDecrease(t *testing.T) {
	trend := []models.MonthlyPoint{
		{Month: "Jan", Revenue: d("300")},
		{Month: "Feb", Revenue: d("300")},
		{Month: "Mar", Revenue: d("200")},
	}
	rep, err := newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), trend, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, AllClearType, rep.Findings[0].Type)

	short := trend[1:]
	rep, err = newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), short, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, AllClearType, rep.Findings[0].Type)
}

func TestEvaluateDuplicatePayments(t *testing.T) {
	var payables []models.PayableEntry
	for i := 0; i < 6; i++ {
		payables = append(payables, models.PayableEntry{VendorName: "Acme Ltd", Amount: d("100")})
	}
	payables[2].VendorName = "ACME LTD"
	for i := 0; i < 7; i++ {
		payables = append(payables, models.PayableEntry{VendorName: "Zeta", Amount: d("10")})
	}
	for i := 0; i < 5; i++ {
		payables = append(payables, models.PayableEntry{VendorName: "Beta", Amount: d("1")})
	}
	for i := 0; i < 8; i++ {
		payables = append(payables, models.PayableEntry{VendorName: "", Amount: d("1")})
	}

	rep, err := newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), nil, nil, payables)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 2)

	assert.Equal(t, "AP", rep.Findings[0].Category)
	assert.Equal(t, models.SeverityMedium, rep.Findings[0].Severity)
	assert.Contains(t, rep.Findings[0].Description, `"acme ltd"`)
	assert.True(t, rep.Findings[0].Amount.Equal(d("600")))
	assert.Contains(t, rep.Findings[1].Description, `"zeta"`)
	assert.True(t, rep.Findings[1].Amount.Equal(d("70")))
	assert.Equal(t, idDuplicatePay, rep.Findings[0].ID)
	assert.Equal(t, idDuplicatePay+1, rep.Findings[1].ID)
	assert.Equal(t, 20, rep.RiskScore)
}

func TestEvaluateDuplicatePayments_WhitespaceIsSignificant(t *testing.T) {
	var payables []models.PayableEntry
	for i := 0; i < 6; i++ {
		name := "Acme"
		if i%2 == 1 {
			name = "Acme "
		}
		payables = append(payables, models.PayableEntry{VendorName: name, Amount: d("1")})
	}

	rep, err := newTestEvaluator().Evaluate(snapshot("100", "10", "10", "80"), nil, nil, payables)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, AllClearType, rep.Findings[0].Type)
}

func TestEvaluateAllClear(t *testing.T) {
	rep, err := newTestEvaluator().Evaluate(snapshot("1000", "400", "400", "0"), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)

	f := rep.Findings[0]
	assert.Equal(t, AllClearType, f.Type)
	assert.Equal(t, models.SeverityLow, f.Severity)
	assert.Equal(t, "System", f.Category)
	assert.True(t, f.Amount.IsZero())
	assert.Equal(t, 2, rep.RiskScore)
	assert.Equal(t, 1, rep.Distribution.Low)
	assert.Empty(t, rep.Trend)
}

func TestEvaluateZeroRevenueSkipsExpenseRatio(t *testing.T) {
	rep, err := newTestEvaluator().Evaluate(snapshot("0", "500", "500", "0"), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, AllClearType, rep.Findings[0].Type)
	assert.True(t, rep.ExpenseRatio.IsZero())
}

func TestEvaluateRejectsInvalidInput(t *testing.T) {
	e := newTestEvaluator()
	cases := map[string]func() error{
		"negative revenue": func() error {
			_, err := e.Evaluate(snapshot("-1", "0", "0", "0"), nil, nil, nil)
			return err
		},
		"negative trend": func() error {
			_, err := e.Evaluate(snapshot("1", "0", "0", "0"), []models.MonthlyPoint{{Revenue: d("-5")}}, nil, nil)
			return err
		},
		"negative receivable": func() error {
			_, err := e.Evaluate(snapshot("1", "0", "0", "0"), nil, []models.ReceivableEntry{{Amount: d("-1")}}, nil)
			return err
		},
		"negative payable": func() error {
			_, err := e.Evaluate(snapshot("1", "0", "0", "0"), nil, nil, []models.PayableEntry{{VendorName: "x", Amount: d("-1")}})
			return err
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
		})
	}
}

func TestEvaluateCustomRules(t *testing.T) {
	e := New(
		WithClock(func() time.Time { return fixedNow }),
		WithRules(ExpenseRatioRule{Threshold: d("0.5")}),
	)
	rep, err := e.Evaluate(snapshot("100", "30", "30", "-10"), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "Expense", rep.Findings[0].Category)
}

func TestRiskScoreClampsAtHundred(t *testing.T) {
	findings := make([]models.Finding, 5)
	for i := range findings {
		findings[i].Severity = models.SeverityCritical
	}
	assert.Equal(t, 100, RiskScore(findings))
	assert.Equal(t, 0, RiskScore(nil))
}

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, models.RiskLevelHigh, RiskLevelFor(61))
	assert.Equal(t, models.RiskLevelModerate, RiskLevelFor(60))
	assert.Equal(t, models.RiskLevelModerate, RiskLevelFor(31))
	assert.Equal(t, models.RiskLevelLow, RiskLevelFor(30))
}

func TestDistribution(t *testing.T) {
	findings := []models.Finding{
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityHigh},
		{Severity: models.SeverityMedium},
		{Severity: models.SeverityMedium},
		{Severity: models.SeverityLow},
	}
	dist := Distribution(findings)
	assert.Equal(t, models.SeverityDistribution{Critical: 1, High: 1, Medium: 2, Low: 1}, dist)
	assert.Equal(t, 3, dist.Warnings())
}
