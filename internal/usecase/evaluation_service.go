package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinAudit/internal/domain/models"
	domrepo "FinAudit/internal/domain/repository"
	domsvc "FinAudit/internal/domain/service"
	"FinAudit/internal/services/tax"
	"FinAudit/pkg/cache"
	applogger "FinAudit/pkg/logger"
)

type EvaluationOption func(*EvaluationService)

// WithCache caches evaluations by input fingerprint for ttl.
func WithCache(c cache.Service, ttl time.Duration) EvaluationOption {
	return func(s *EvaluationService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithBroadcaster(b domrepo.Broadcaster) EvaluationOption {
	return func(s *EvaluationService) { s.bc = b }
}

// WithChecklist sets the checklist used when an input carries none.
func WithChecklist(items []models.ComplianceItem) EvaluationOption {
	return func(s *EvaluationService) {
		s.checklist = append([]models.ComplianceItem(nil), items...)
	}
}

func WithClock(now func() time.Time) EvaluationOption {
	return func(s *EvaluationService) { s.now = now }
}

// EvaluationService runs both evaluators over one input and fans the result
// out to storage, Kafka, metrics and live subscribers.
type EvaluationService struct {
	anomaly   domsvc.AnomalyEvaluator
	tax       domsvc.TaxEvaluator
	reporting domsvc.ReportingSource
	store     domrepo.EvaluationStore
	pub       domrepo.EvaluationPublisher
	metrics   domrepo.Metrics
	bc        domrepo.Broadcaster
	cache     cache.Service
	cacheTTL  time.Duration
	checklist []models.ComplianceItem
	l         *applogger.Logger
	now       func() time.Time
}

func NewEvaluationService(
	anomaly domsvc.AnomalyEvaluator,
	taxEval domsvc.TaxEvaluator,
	reporting domsvc.ReportingSource,
	store domrepo.EvaluationStore,
	pub domrepo.EvaluationPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...EvaluationOption,
) *EvaluationService {
	s := &EvaluationService{
		anomaly:   anomaly,
		tax:       taxEval,
		reporting: reporting,
		store:     store,
		pub:       pub,
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.l == nil {
		s.l = applogger.NewNop()
	}
	return s
}

// Evaluate validates the input, runs both evaluators and records the result.
// Persistence and publishing failures are logged but do not fail the call.
// Results are cached per source and input; a cache hit is not recorded again.
func (s *EvaluationService) Evaluate(ctx context.Context, in *models.EvaluationInput, source string) (*models.Evaluation, error) {
	return s.evaluate(ctx, in, source, true)
}

func (s *EvaluationService) evaluate(ctx context.Context, in *models.EvaluationInput, source string, cached bool) (*models.Evaluation, error) {
	start := time.Now()
	source = models.NormalizeSource(source)

	if err := in.Validate(); err != nil {
		s.metrics.RecordEvaluation(source, false)
		s.metrics.RecordError("invalid_input")
		return nil, err
	}
	if len(in.Checklist) == 0 {
		resolved := *in
		resolved.Checklist = s.checklist
		in = &resolved
	}

	compute := func(context.Context) (*models.Evaluation, error) {
		return s.compute(in, source)
	}

	var (
		ev  *models.Evaluation
		hit bool
		err error
	)
	if cached && s.cache != nil {
		key, ferr := cache.Fingerprint(in)
		if ferr != nil {
			return nil, ferr
		}
		ev, hit, err = cache.GetOrLoad(ctx, s.cache, cache.GenerateKey("evaluation", source+":"+key), s.cacheTTL, compute)
		if err != nil && ev != nil {
			s.l.Warn("evaluation cache write failed", applogger.Error(err))
			s.metrics.RecordError("cache")
			err = nil
		}
	} else {
		ev, err = compute(ctx)
	}
	if err != nil {
		s.metrics.RecordEvaluation(source, false)
		if errors.Is(err, models.ErrInvalidInput) {
			s.metrics.RecordError("invalid_input")
		} else {
			s.metrics.RecordError("evaluate")
		}
		return nil, err
	}

	s.metrics.RecordEvaluation(source, true)
	if hit {
		s.l.Debug("evaluation served from cache", applogger.String("id", ev.ID))
		s.metrics.RecordLatency("evaluate_cached", time.Since(start).Seconds())
		return ev, nil
	}

	s.record(ctx, ev)
	s.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	return ev, nil
}

func (s *EvaluationService) compute(in *models.EvaluationInput, source string) (*models.Evaluation, error) {
	anomalyReport, err := s.anomaly.Evaluate(in.Snapshot, in.Trend, in.Receivables, in.Payables)
	if err != nil {
		return nil, fmt.Errorf("anomaly evaluation: %w", err)
	}
	taxReport, err := s.tax.Evaluate(in.Snapshot, in.Trend, in.WithholdingBases, in.Checklist)
	if err != nil {
		return nil, fmt.Errorf("tax evaluation: %w", err)
	}
	return &models.Evaluation{
		ID:          uuid.NewString(),
		Source:      source,
		EvaluatedAt: s.now().UTC(),
		Anomaly:     anomalyReport,
		Tax:         taxReport,
	}, nil
}

func (s *EvaluationService) record(ctx context.Context, ev *models.Evaluation) {
	for _, f := range ev.Anomaly.Findings {
		s.metrics.RecordFinding(f.Severity, f.Category)
	}
	s.metrics.RecordRiskScore(ev.Source, ev.Anomaly.RiskScore)

	if err := s.store.Save(ctx, ev); err != nil {
		s.l.Error("store evaluation failed", applogger.String("id", ev.ID), applogger.Error(err))
		s.metrics.RecordError("store")
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.l.Error("publish evaluation failed", applogger.String("id", ev.ID), applogger.Error(err))
		s.metrics.RecordError("publish")
	}
	if s.bc != nil {
		s.bc.Broadcast(ev)
	}

	s.l.Info("evaluation completed",
		applogger.String("id", ev.ID),
		applogger.String("source", ev.Source),
		applogger.Int("risk_score", ev.Anomaly.RiskScore),
		applogger.Int("findings", len(ev.Anomaly.Findings)),
		applogger.Decimal("vat_net_payable", ev.Tax.VatNetPayable),
	)
}

// EvaluatePeriod pulls input for period from the reporting service and evaluates it.
// Every call is recorded, so periodic runs are stored even when upstream data is unchanged.
func (s *EvaluationService) EvaluatePeriod(ctx context.Context, period string, months int) (*models.Evaluation, error) {
	start := time.Now()
	in, err := s.reporting.FetchInput(ctx, period, months)
	s.metrics.RecordLatency("reporting_fetch", time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordError("reporting")
		return nil, fmt.Errorf("fetch %s input: %w", period, err)
	}
	return s.evaluate(ctx, in, models.SourceReporting, false)
}

// AnomalyReport runs only the anomaly evaluator. Nothing is recorded.
func (s *EvaluationService) AnomalyReport(in *models.EvaluationInput) (models.AnomalyReport, error) {
	if err := in.Validate(); err != nil {
		return models.AnomalyReport{}, err
	}
	return s.anomaly.Evaluate(in.Snapshot, in.Trend, in.Receivables, in.Payables)
}

// TaxReport runs only the tax evaluator, falling back to the configured checklist.
func (s *EvaluationService) TaxReport(in *models.EvaluationInput) (models.TaxComplianceReport, error) {
	if in == nil {
		return models.TaxComplianceReport{}, models.InvalidInputf("evaluation input is nil")
	}
	checklist := in.Checklist
	if len(checklist) == 0 {
		checklist = s.checklist
	}
	return s.tax.Evaluate(in.Snapshot, in.Trend, in.WithholdingBases, checklist)
}

// Latest lists recent stored evaluations, newest first.
func (s *EvaluationService) Latest(ctx context.Context, limit int) ([]models.EvaluationSummary, error) {
	out, err := s.store.Latest(ctx, limit)
	if err != nil {
		s.metrics.RecordError("store_latest")
		return nil, err
	}
	return out, nil
}

func (s *EvaluationService) Categories() []models.WithholdingCategory {
	return s.tax.Categories()
}

// Checklist returns the configured checklist and its status counts.
func (s *EvaluationService) Checklist() ([]models.ComplianceItem, models.ComplianceSummary, error) {
	summary, err := tax.SummarizeChecklist(s.checklist)
	if err != nil {
		return nil, models.ComplianceSummary{}, err
	}
	return append([]models.ComplianceItem(nil), s.checklist...), summary, nil
}
