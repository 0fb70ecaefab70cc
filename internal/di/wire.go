//go:build wireinject
// +build wireinject

package di

import (
	"SentimentDesk/pkg/config"
	"SentimentDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideRegistry,
		ProvideMetrics,
		ProvideLogger,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideClickHouseClient,
		ProvideRedisQueue,
		ProvideSnapshotCache,

		// Repositories
		ProvideReportStore,
		ProvideSnapshotStore,
		ProvideJobQueue,
		ProvideEventPublisher,

		// Services
		ProvideHub,
		ProvideEventForwarder,
		ProvideFinnhub,
		ProvideSimFin,
		ProvideSnapshotFetcher,
		ProvideParser,
		ProvideRateLimiter,

		// Use cases
		ProvideReportService,
		ProvideProviderFetchJob,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
