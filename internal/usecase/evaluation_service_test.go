package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAudit/internal/domain/models"
	"FinAudit/pkg/cache"
)

func TestEvaluate_RecordsEverywhere(t *testing.T) {
	f := newFixture()

	ev, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), "API")
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, models.SourceAPI, ev.Source)
	assert.Equal(t, testNow, ev.EvaluatedAt)
	require.Len(t, ev.Anomaly.Findings, 1)
	assert.Equal(t, 20, ev.Anomaly.RiskScore)
	assert.True(t, ev.Tax.VatCollected.Equal(d("150000")))
	assert.True(t, ev.Tax.TotalTds.Equal(d("10000")))
	assert.Equal(t, models.ComplianceSummary{Compliant: 5, Attention: 1, Upcoming: 2}, ev.Tax.ComplianceSummary)

	assert.Equal(t, 1, f.store.count())
	assert.Len(t, f.pub.published, 1)
	assert.Len(t, f.bc.got, 1)
	assert.Equal(t, 1, f.metrics.evaluations["api:ok"])
	assert.Equal(t, 1, f.metrics.findings)
	assert.Equal(t, 20, f.metrics.lastScore)
}

func TestEvaluate_SideEffectFailuresAreNotFatal(t *testing.T) {
	f := newFixture()
	f.store.err = errUnavailable
	f.pub.err = errUnavailable

	ev, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), models.SourceKafka)
	require.NoError(t, err)
	require.NotNil(t, ev)

	assert.Equal(t, 1, f.metrics.errors["store"])
	assert.Equal(t, 1, f.metrics.errors["publish"])
	assert.Len(t, f.bc.got, 1)
}

func TestEvaluate_InvalidInput(t *testing.T) {
	f := newFixture()
	in := expenseHeavyInput()
	in.Snapshot.Opex = d("-1")

	_, err := f.svc.Evaluate(context.Background(), in, models.SourceAPI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Equal(t, 0, f.store.count())
	assert.Equal(t, 1, f.metrics.evaluations["api:fail"])
	assert.Equal(t, 1, f.metrics.errors["invalid_input"])
}

func TestEvaluate_UnknownWithholdingCategory(t *testing.T) {
	f := newFixture()
	in := expenseHeavyInput()
	in.WithholdingBases = map[string]decimal.Decimal{"Lottery": d("10")}

	_, err := f.svc.Evaluate(context.Background(), in, models.SourceAPI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Equal(t, 1, f.metrics.errors["invalid_input"])
	assert.Empty(t, f.pub.published)
}

func TestEvaluate_CachedByInput(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	f := newFixture(WithCache(mem, time.Minute))

	first, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), models.SourceAPI)
	require.NoError(t, err)
	second, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), models.SourceAPI)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Tax.VatNetPayable.Equal(second.Tax.VatNetPayable))
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 2, f.metrics.evaluations["api:ok"])

	other := expenseHeavyInput()
	other.Snapshot.Revenue = d("2000000")
	third, err := f.svc.Evaluate(context.Background(), other, models.SourceAPI)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 2, f.store.count())
}

func TestEvaluate_CacheIsPerSource(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	f := newFixture(WithCache(mem, time.Minute))

	fromKafka, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), models.SourceKafka)
	require.NoError(t, err)
	fromAPI, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), models.SourceAPI)
	require.NoError(t, err)

	assert.Equal(t, models.SourceKafka, fromKafka.Source)
	assert.Equal(t, models.SourceAPI, fromAPI.Source)
	assert.NotEqual(t, fromKafka.ID, fromAPI.ID)
	assert.Equal(t, 2, f.store.count())
	assert.Len(t, f.pub.published, 2)
	assert.Len(t, f.bc.got, 2)
}

func TestEvaluatePeriod_AlwaysRecorded(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	f := newFixture(WithCache(mem, time.Minute))
	f.reporting.in = expenseHeavyInput()

	_, err := f.svc.Evaluate(context.Background(), expenseHeavyInput(), models.SourceAPI)
	require.NoError(t, err)

	first, err := f.svc.EvaluatePeriod(context.Background(), "ytd", 12)
	require.NoError(t, err)
	require.NoError(t, NewPeriodJob(f.svc, "ytd", 12).Run(context.Background()))

	assert.Equal(t, models.SourceReporting, first.Source)
	assert.Equal(t, 3, f.store.count())
	assert.Len(t, f.pub.published, 3)
	last := f.pub.published[2]
	assert.Equal(t, models.SourceReporting, last.Source)
	assert.NotEqual(t, first.ID, last.ID)
}

func TestEvaluate_ExplicitChecklistWins(t *testing.T) {
	f := newFixture()
	in := expenseHeavyInput()
	in.Checklist = []models.ComplianceItem{{ID: 1, Requirement: "VAT return", Status: models.ComplianceAttention}}

	ev, err := f.svc.Evaluate(context.Background(), in, models.SourceAPI)
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceSummary{Attention: 1}, ev.Tax.ComplianceSummary)
	assert.Len(t, ev.Tax.Checklist, 1)
}

func TestEvaluatePeriod(t *testing.T) {
	f := newFixture()
	f.reporting.in = expenseHeavyInput()

	ev, err := f.svc.EvaluatePeriod(context.Background(), "mtd", 6)
	require.NoError(t, err)
	assert.Equal(t, models.SourceReporting, ev.Source)
	assert.Equal(t, "mtd", f.reporting.period)
	assert.Equal(t, 6, f.reporting.months)
}

func TestEvaluatePeriod_ReportingDown(t *testing.T) {
	f := newFixture()
	f.reporting.err = errUnavailable

	_, err := f.svc.EvaluatePeriod(context.Background(), "ytd", 12)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUnavailable))
	assert.Equal(t, 1, f.metrics.errors["reporting"])
}

func TestLatest(t *testing.T) {
	f := newFixture()
	f.store.latest = []models.EvaluationSummary{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	out, err := f.svc.Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
}

func TestChecklistAndCategories(t *testing.T) {
	f := newFixture()

	items, summary, err := f.svc.Checklist()
	require.NoError(t, err)
	assert.Len(t, items, 8)
	assert.Equal(t, 8, summary.Compliant+summary.Attention+summary.Upcoming)
	assert.Len(t, f.svc.Categories(), 8)
}

func TestPartialReports(t *testing.T) {
	f := newFixture()

	rep, err := f.svc.AnomalyReport(expenseHeavyInput())
	require.NoError(t, err)
	assert.Len(t, rep.Findings, 1)

	taxRep, err := f.svc.TaxReport(expenseHeavyInput())
	require.NoError(t, err)
	assert.True(t, taxRep.VatNetPayable.Equal(d("69000")))
	assert.Len(t, taxRep.Checklist, 8)

	assert.Equal(t, 0, f.store.count())
}

func TestPeriodJob(t *testing.T) {
	f := newFixture()
	f.reporting.in = expenseHeavyInput()

	job := NewPeriodJob(f.svc, "ytd", 12)
	assert.Equal(t, "evaluate_ytd", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, 1, f.metrics.evaluations["reporting:ok"])
}
