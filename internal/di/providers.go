package di

import (
	"context"
	"fmt"
	"time"

	"FinAudit/internal/domain/repository"
	domsvc "FinAudit/internal/domain/service"
	"FinAudit/internal/handler/api"
	"FinAudit/internal/handler/ws"
	internalrepo "FinAudit/internal/repository"
	"FinAudit/internal/service/ratelimit"
	"FinAudit/internal/services/anomaly"
	"FinAudit/internal/services/reporting"
	"FinAudit/internal/services/tax"
	"FinAudit/internal/usecase"
	"FinAudit/pkg/cache"
	pkgch "FinAudit/pkg/clickhouse"
	"FinAudit/pkg/config"
	xhttp "FinAudit/pkg/http"
	pkgkafka "FinAudit/pkg/kafka"
	applogger "FinAudit/pkg/logger"
	"FinAudit/pkg/metrics"
	"FinAudit/pkg/scheduler"
	"FinAudit/pkg/server"
)

func noop() {}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, noop, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the app logger and, when enabled, attaches the
// error collector that ships aggregated logs through the producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if !cfg.Logging.Collector.Enabled || producer == nil {
		return l, noop, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logging.Collector.FlushInterval,
		CountThreshold: cfg.Logging.Collector.Threshold,
		Topic:          cfg.Kafka.Topics.Logs,
		Publisher:      producer,
		Service:        "finaudit",
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideClickHouseClient connects to ClickHouse. Returns nil when disabled.
// The client connects to the default database; tables live in cfg.ClickHouse.Database.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, noop, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideEvaluationStore returns the ClickHouse store with its schema ready,
// or a no-op store when ClickHouse is disabled.
func ProvideEvaluationStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.EvaluationStore, error) {
	if ch == nil {
		return internalrepo.NopStore{}, nil
	}
	store := internalrepo.NewCHEvaluationStore(ch, cfg.ClickHouse.Database, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideEvaluationPublisher publishes to Kafka, or nowhere when Kafka is disabled.
func ProvideEvaluationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EvaluationPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaEvaluationPublisher(producer, cfg.Kafka.Topics.Evaluations)
}

// ProvideCache returns an in-memory cache, layered in front of Redis when enabled.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	var c cache.Service
	if cfg.Cache.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c = cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.Memory.MaxSize),
			cache.WithLayeredMemoryTTL(time.Minute),
		)
	} else {
		c = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
		)
	}
	return c, func() { _ = c.Close() }, nil
}

func ProvideReportingClient(cfg *config.Config, l *applogger.Logger) domsvc.ReportingSource {
	return reporting.New(cfg.Reporting.BaseURL,
		reporting.WithTimeout(cfg.Reporting.Timeout),
		reporting.WithRetry(cfg.Reporting.MaxRetries, cfg.Reporting.RetryDelay),
		reporting.WithLogger(l),
	)
}

// ProvideAnomalyEvaluator builds the rule set from the configured thresholds.
func ProvideAnomalyEvaluator(cfg *config.Config) domsvc.AnomalyEvaluator {
	a := cfg.Anomaly
	return anomaly.New(anomaly.WithRules(
		anomaly.ExpenseRatioRule{Threshold: a.ExpenseRatioThreshold},
		anomaly.CollectionRiskRule{MaxOverdue: a.MaxOverdueReceivables},
		anomaly.RevenueDeclineRule{Window: a.RevenueDeclineWindow},
		anomaly.DuplicatePaymentRule{MaxEntries: a.MaxVendorEntries},
		anomaly.NegativeProfitRule{},
	))
}

func ProvideTaxEvaluator(cfg *config.Config) domsvc.TaxEvaluator {
	return tax.New(
		tax.WithVATRate(cfg.Tax.VATRate),
		tax.WithInputCreditFactor(cfg.Tax.InputCreditFactor),
		tax.WithCategories(cfg.Tax.Categories),
	)
}

func ProvideFindingsHub(cfg *config.Config, l *applogger.Logger) *ws.FindingsHub {
	return ws.NewFindingsHub(l.With(applogger.String("component", "findings_hub")), cfg.Server.WSPingInterval)
}

// ProvideEvaluationService wires the evaluators to storage, fan-out and cache.
// The configured checklist wins; otherwise the built-in one is used.
func ProvideEvaluationService(
	cfg *config.Config,
	anomalyEval domsvc.AnomalyEvaluator,
	taxEval domsvc.TaxEvaluator,
	source domsvc.ReportingSource,
	store repository.EvaluationStore,
	pub repository.EvaluationPublisher,
	m repository.Metrics,
	c cache.Service,
	hub *ws.FindingsHub,
	l *applogger.Logger,
) *usecase.EvaluationService {
	checklist := cfg.Tax.Checklist
	if len(checklist) == 0 {
		checklist = tax.DefaultChecklist()
	}
	return usecase.NewEvaluationService(anomalyEval, taxEval, source, store, pub, m,
		l.With(applogger.String("component", "evaluation")),
		usecase.WithCache(c, cfg.Cache.TTL),
		usecase.WithBroadcaster(hub),
		usecase.WithChecklist(checklist),
	)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Burst)
}

func ProvideEvaluationHandler(l *applogger.Logger, svc *usecase.EvaluationService, limiter *ratelimit.Limiter) *api.EvaluationEchoHandler {
	return api.NewEvaluationEchoHandler(l, svc, limiter)
}

// ProvideKafkaConsumer creates the snapshot consumer. Returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l.With(applogger.String("component", "kafka_consumer")),
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceIDHook())
	return consumer, nil
}

func ProvideSnapshotHandler(cfg *config.Config, svc *usecase.EvaluationService, m repository.Metrics, l *applogger.Logger) *usecase.SnapshotHandler {
	return usecase.NewSnapshotHandler(cfg.Kafka.Topics.Snapshots, svc, m, l.With(applogger.String("component", "snapshot_handler")))
}

// ProvideScheduler registers the periodic reporting evaluation. Returns nil
// when no schedule is configured.
func ProvideScheduler(cfg *config.Config, svc *usecase.EvaluationService, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if cfg.Reporting.Schedule == "" {
		return nil, nil
	}
	s := scheduler.New(l, cfg.Reporting.JobTimeout)
	job := usecase.NewPeriodJob(svc, cfg.Reporting.Period, cfg.Reporting.Months)
	if err := s.AddJob(cfg.Reporting.Schedule, job); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideHTTPServer mounts the API and websocket routes and the dependency checks.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.EvaluationEchoHandler,
	hub *ws.FindingsHub,
	store repository.EvaluationStore,
	c cache.Service,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithHealthCheck("store", store.Health),
	}
	if h, ok := c.(interface{ Health(context.Context) error }); ok {
		opts = append(opts, xhttp.WithHealthCheck("cache", h.Health))
	}
	return xhttp.NewServer(l.With(applogger.String("component", "http")), []xhttp.Handler{handler, hub}, opts...)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	snapshots *usecase.SnapshotHandler,
	sched *scheduler.Scheduler,
	hub *ws.FindingsHub,
) *server.App {
	return server.New(cfg, l, httpServer,
		server.WithConsumer(consumer, snapshots),
		server.WithScheduler(sched),
		server.WithHub(hub),
	)
}
