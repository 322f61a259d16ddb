package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"FinAudit/internal/domain/models"
	"FinAudit/internal/services/anomaly"
	"FinAudit/internal/services/tax"
)

var testNow = time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeStore struct {
	mu     sync.Mutex
	saved  []*models.Evaluation
	err    error
	latest []models.EvaluationSummary
}

func (f *fakeStore) Init(context.Context) error { return nil }

func (f *fakeStore) Save(_ context.Context, e *models.Evaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, e)
	return f.err
}

func (f *fakeStore) Latest(_ context.Context, limit int) ([]models.EvaluationSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.latest) {
		return f.latest[:limit], nil
	}
	return f.latest, nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Evaluation
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, e *models.Evaluation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, e)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

type fakeBroadcaster struct {
	mu  sync.Mutex
	got []*models.Evaluation
}

func (f *fakeBroadcaster) Broadcast(e *models.Evaluation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, e)
}

type fakeMetrics struct {
	mu          sync.Mutex
	evaluations map[string]int
	findings    int
	errors      map[string]int
	lastScore   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{evaluations: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordEvaluation(source string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.evaluations[source+":ok"]++
	} else {
		m.evaluations[source+":fail"]++
	}
}

func (m *fakeMetrics) RecordFinding(models.Severity, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings++
}

func (m *fakeMetrics) RecordRiskScore(_ string, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastScore = score
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakeReporting struct {
	in     *models.EvaluationInput
	err    error
	period string
	months int
}

func (f *fakeReporting) FetchInput(_ context.Context, period string, months int) (*models.EvaluationInput, error) {
	f.period, f.months = period, months
	return f.in, f.err
}

var errUnavailable = errors.New("connection refused")

type fixture struct {
	svc       *EvaluationService
	store     *fakeStore
	pub       *fakePublisher
	bc        *fakeBroadcaster
	metrics   *fakeMetrics
	reporting *fakeReporting
}

func newFixture(opts ...EvaluationOption) *fixture {
	f := &fixture{
		store:     &fakeStore{},
		pub:       &fakePublisher{},
		bc:        &fakeBroadcaster{},
		metrics:   newFakeMetrics(),
		reporting: &fakeReporting{},
	}
	clock := func() time.Time { return testNow }
	base := []EvaluationOption{
		WithBroadcaster(f.bc),
		WithChecklist(tax.DefaultChecklist()),
		WithClock(clock),
	}
	f.svc = NewEvaluationService(
		anomaly.New(anomaly.WithClock(clock)),
		tax.New(),
		f.reporting,
		f.store,
		f.pub,
		f.metrics,
		nil,
		append(base, opts...)...,
	)
	return f
}

// expenseHeavyInput trips only the expense ratio rule.
func expenseHeavyInput() *models.EvaluationInput {
	return &models.EvaluationInput{
		Snapshot: models.FinancialSnapshot{
			Revenue:   d("1000000"),
			COGS:      d("500000"),
			Opex:      d("400000"),
			NetProfit: d("100000"),
		},
		WithholdingBases: map[string]decimal.Decimal{"Salary": d("100000")},
	}
}
