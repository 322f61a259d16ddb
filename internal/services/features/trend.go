package features

import (
	"github.com/shopspring/decimal"

	"FinAudit/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Anomaly score bands on absolute month-over-month revenue change.
const (
	scoreSharp    = 80
	scoreModerate = 50
	scoreCalm     = 20
)

var (
	sharpChange    = decimal.NewFromInt(20)
	moderateChange = decimal.NewFromInt(10)
)

// MonthOverMonthChanges returns revenue change percent against the previous month.
// The first month, and any month whose predecessor had no revenue, yields 0.
func MonthOverMonthChanges(trend []models.MonthlyPoint) []decimal.Decimal {
	out := make([]decimal.Decimal, len(trend))
	for i := range trend {
		if i == 0 {
			out[i] = decimal.Zero
			continue
		}
		prev := trend[i-1].Revenue
		if !prev.IsPositive() {
			out[i] = decimal.Zero
			continue
		}
		out[i] = trend[i].Revenue.Sub(prev).Div(prev).Mul(hundred)
	}
	return out
}

// AnomalyScoreForChange maps a change percent onto the 20/50/80 score bands.
func AnomalyScoreForChange(change decimal.Decimal) int {
	abs := change.Abs()
	switch {
	case abs.GreaterThan(sharpChange):
		return scoreSharp
	case abs.GreaterThan(moderateChange):
		return scoreModerate
	default:
		return scoreCalm
	}
}

// ScoreMonthlyTrend scores every month of the series.
func ScoreMonthlyTrend(trend []models.MonthlyPoint) []models.MonthlyAnomalyScore {
	changes := MonthOverMonthChanges(trend)
	out := make([]models.MonthlyAnomalyScore, 0, len(trend))
	for i, m := range trend {
		out = append(out, models.MonthlyAnomalyScore{
			Month:         m.Month,
			Revenue:       m.Revenue,
			ChangePercent: changes[i].Round(2),
			AnomalyScore:  AnomalyScoreForChange(changes[i]),
		})
	}
	return out
}
