package di

import (
	"context"
	"fmt"
	"time"

	"SentimentDesk/internal/domain/repository"
	domsvc "SentimentDesk/internal/domain/service"
	"SentimentDesk/internal/handler/api"
	internalrepo "SentimentDesk/internal/repository"
	"SentimentDesk/internal/service/finnhub"
	"SentimentDesk/internal/service/livefeed"
	"SentimentDesk/internal/service/provider"
	"SentimentDesk/internal/service/ratelimit"
	"SentimentDesk/internal/service/simfin"
	"SentimentDesk/internal/services/parsing"
	"SentimentDesk/internal/usecase"
	"SentimentDesk/pkg/cache"
	pkgch "SentimentDesk/pkg/clickhouse"
	"SentimentDesk/pkg/config"
	xhttp "SentimentDesk/pkg/http"
	pkgkafka "SentimentDesk/pkg/kafka"
	"SentimentDesk/pkg/logger"
	"SentimentDesk/pkg/metrics"
	"SentimentDesk/pkg/queue"
	"SentimentDesk/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// liveClientBuffer is the per-connection send buffer of the live feed.
const liveClientBuffer = 32

// ProvideRegistry creates the registry served on the metrics endpoint.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}

	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithBatching(p.BatchSize, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. Error logs are aggregated and shipped
// to Log.ErrorTopic when Kafka is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	lgr, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	if cfg.Log.ErrorTopic == "" || producer == nil {
		return lgr, func() {}, nil
	}

	lgr.AddCollector(&logger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Log.ErrorTopic,
		Publisher:      producer,
	})
	return lgr, lgr.RemoveCollector, nil
}

func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 5*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideSnapshotCache layers an in-process cache over Redis.
func ProvideSnapshotCache(cfg *config.Config, client *redis.Client) (cache.Service, func()) {
	layered := cache.NewLayeredCache(
		cache.NewRedisCache(client, cfg.Redis.Prefix+":snapshot"),
		cache.WithLayeredMemorySize(cfg.Providers.MemoryCacheSize),
		cache.WithLayeredMemoryTTL(time.Minute),
	)
	return layered, func() { _ = layered.Close() }
}

// ProvideClickHouseClient connects to ClickHouse and creates the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema(ch.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideReportStore(cfg *config.Config, ch *pkgch.Client) repository.ReportStore {
	return internalrepo.NewClickHouseReportStore(ch.DB(), cfg.ClickHouse.Database)
}

func ProvideSnapshotStore(cfg *config.Config, ch *pkgch.Client) repository.SnapshotStore {
	return internalrepo.NewClickHouseSnapshotStore(ch.DB(), cfg.ClickHouse.Database)
}

func ProvideHub(lgr *logger.Logger) *livefeed.Hub {
	return livefeed.NewHub(lgr, liveClientBuffer)
}

// ProvideEventPublisher publishes to Kafka when enabled. Otherwise events go straight
// to the live feed.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, hub *livefeed.Hub) repository.EventPublisher {
	if producer == nil {
		return hub
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the consumer that relays report events to the live feed,
// or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, lgr *logger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(lgr,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideEventForwarder(cfg *config.Config, hub *livefeed.Hub) *livefeed.EventForwarder {
	return livefeed.NewEventForwarder(cfg.Kafka.Topic, hub)
}

func ProvideRedisQueue(cfg *config.Config, lgr *logger.Logger, client *redis.Client) *queue.RedisQueue {
	q := cfg.Queue
	return queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    q.Workers,
		RetryLimit: q.RetryLimit,
		RetryDelay: q.RetryDelay,
		StatusTTL:  q.StatusTTL,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue:"+q.Name))
}

func ProvideJobQueue(q *queue.RedisQueue) repository.JobQueue {
	return internalrepo.NewRedisJobQueue(q)
}

func ProvideFinnhub(cfg *config.Config) *finnhub.Client {
	p := cfg.Providers.Finnhub
	return finnhub.New(p.APIKey, p.BaseURL, p.Rate, p.Timeout)
}

func ProvideSimFin(cfg *config.Config) *simfin.Client {
	p := cfg.Providers.SimFin
	return simfin.New(p.APIKey, p.BaseURL, p.Rate, p.Timeout)
}

// ProvideSnapshotFetcher builds the provider selector. Index symbols are always quoted
// from Finnhub.
func ProvideSnapshotFetcher(
	cfg *config.Config,
	fh *finnhub.Client,
	sf *simfin.Client,
	c cache.Service,
	m repository.Metrics,
	lgr *logger.Logger,
) domsvc.SnapshotFetcher {
	symbols := make([]string, 0, len(cfg.Providers.MarketIndexSymbols))
	for _, s := range cfg.Providers.MarketIndexSymbols {
		symbols = append(symbols, s.Symbol)
	}
	return provider.NewSelector(fh, sf, c, m, lgr, provider.Config{
		CacheTTL:     cfg.Providers.CacheTTL,
		ErrorTTL:     cfg.Providers.ErrorTTL,
		IndexSymbols: symbols,
	})
}

func ProvideParser(cfg *config.Config) domsvc.ReportParser {
	return parsing.New(cfg.Parser)
}

func ProvideReportService(
	cfg *config.Config,
	parser domsvc.ReportParser,
	reports repository.ReportStore,
	snapshots repository.SnapshotStore,
	jobs repository.JobQueue,
	events repository.EventPublisher,
	m repository.Metrics,
	lgr *logger.Logger,
) *usecase.ReportService {
	return usecase.NewReportService(parser, reports, snapshots, jobs, events, m, lgr, cfg)
}

func ProvideProviderFetchJob(
	cfg *config.Config,
	fetcher domsvc.SnapshotFetcher,
	reports repository.ReportStore,
	snapshots repository.SnapshotStore,
	events repository.EventPublisher,
	m repository.Metrics,
	lgr *logger.Logger,
) *usecase.ProviderFetchJob {
	return usecase.NewProviderFetchJob(fetcher, reports, snapshots, events, m, lgr, cfg.Providers.MarketIndexSymbols)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.ParseRate, cfg.Server.ParseBurst)
}

// ProvideHTTPServer registers the report API and the live feed.
func ProvideHTTPServer(
	cfg *config.Config,
	lgr *logger.Logger,
	reg *prometheus.Registry,
	reports *usecase.ReportService,
	limiter *ratelimit.Limiter,
	hub *livefeed.Hub,
	redisClient *redis.Client,
	reportStore repository.ReportStore,
) *xhttp.Server {
	checks := map[string]api.HealthCheck{
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"clickhouse": reportStore.Health,
	}

	handlers := []xhttp.Handler{
		api.NewReportsEchoHandler(lgr, reports, limiter.Middleware(), checks).WithMaxRawBytes(cfg.Parser.MaxInputBytes),
		api.NewLiveEchoHandler(lgr, hub),
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORS(true),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg))
	}
	return xhttp.NewServer(lgr, handlers, opts...)
}

// ProvideApp assembles the application. The Kafka consumer only runs when Kafka is
// enabled, relaying report events to the live feed.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	httpServer *xhttp.Server,
	q *queue.RedisQueue,
	job *usecase.ProviderFetchJob,
	consumer *pkgkafka.Consumer,
	forwarder *livefeed.EventForwarder,
	hub *livefeed.Hub,
) *server.App {
	opts := []server.Option{
		server.WithRunners(hub),
		server.WithQueue(q, job),
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, forwarder))
	}
	return server.New(cfg, lgr, httpServer, opts...)
}
