package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"SentimentDesk/pkg/config"
	xhttp "SentimentDesk/pkg/http"
	pkgkafka "SentimentDesk/pkg/kafka"
	"SentimentDesk/pkg/logger"
	"SentimentDesk/pkg/queue"
)

// slowMessage is the handling time above which consumed messages are logged as slow.
const slowMessage = time.Second

// Runner is a background loop that runs until its context is cancelled.
type Runner interface {
	Run(ctx context.Context)
}

// App encapsulates the application lifecycle: background loops, queue workers,
// the Kafka consumer and the HTTP server.
type App struct {
	cfg        *config.Config
	logger     *logger.Logger
	httpServer *xhttp.Server
	queue      *queue.RedisQueue
	jobs       []queue.Job
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	runners    []Runner

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type Option func(*App)

// WithQueue runs jobs on q's workers.
func WithQueue(q *queue.RedisQueue, jobs ...queue.Job) Option {
	return func(a *App) {
		a.queue = q
		a.jobs = append(a.jobs, jobs...)
	}
}

// WithConsumer starts c with the given handlers. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.handlers = append(a.handlers, handlers...)
	}
}

func WithRunners(runners ...Runner) Option {
	return func(a *App) { a.runners = append(a.runners, runners...) }
}

func New(cfg *config.Config, lgr *logger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	a := &App{cfg: cfg, logger: lgr, httpServer: httpServer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches every component and returns once they are running.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	for _, r := range a.runners {
		a.wg.Add(1)
		go func(r Runner) {
			defer a.wg.Done()
			r.Run(ctx)
		}(r)
	}

	if a.queue != nil {
		a.queue.RegisterJobs(a.jobs)
		if err := a.queue.Start(); err != nil {
			return fmt.Errorf("start queue: %w", err)
		}
		a.logger.Info("queue workers started", logger.Int("jobs", len(a.jobs)))
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		a.consumer.WithConsumerHook(pkgkafka.NewLoggingHook(a.logger, slowMessage))
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		a.logger.Error("startup failed", logger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	a.logger.Info("shutdown signal received", logger.String("signal", sig.String()))
	return a.Shutdown(context.Background())
}

// Shutdown stops intake first (HTTP, consumer), then workers, then background loops.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("http shutdown error", logger.Error(err))
		}
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", logger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.logger.Warn("queue stop error", logger.Error(err))
		}
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.logger.Info("shutdown complete")
	return nil
}
