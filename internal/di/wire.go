//go:build wireinject
// +build wireinject

package di

import (
	"FinAudit/pkg/config"
	"FinAudit/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation into wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideCache,

		// Repositories
		ProvideEvaluationStore,
		ProvideEvaluationPublisher,

		// Evaluators and sources
		ProvideReportingClient,
		ProvideAnomalyEvaluator,
		ProvideTaxEvaluator,

		// Use cases
		ProvideFindingsHub,
		ProvideEvaluationService,
		ProvideSnapshotHandler,
		ProvideScheduler,

		// Transport
		ProvideRateLimiter,
		ProvideEvaluationHandler,
		ProvideKafkaConsumer,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
