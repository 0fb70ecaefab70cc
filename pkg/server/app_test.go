package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"SentimentDesk/pkg/config"
	xhttp "SentimentDesk/pkg/http"
	"SentimentDesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopRunner struct {
	started atomic.Bool
	stopped atomic.Bool
}

func (r *loopRunner) Run(ctx context.Context) {
	r.started.Store(true)
	<-ctx.Done()
	r.stopped.Store(true)
}

func TestAppStartAndShutdownStopsRunners(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 2 * time.Second
	lgr := logger.Nop()
	srv := xhttp.NewServer(lgr, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))

	r := &loopRunner{}
	app := New(cfg, lgr, srv, WithRunners(r))

	require.NoError(t, app.Start())
	assert.Eventually(t, r.started.Load, time.Second, 10*time.Millisecond)

	require.NoError(t, app.Shutdown(context.Background()))
	assert.True(t, r.stopped.Load())
}

func TestWithConsumerIgnoresNil(t *testing.T) {
	cfg := config.Default()
	lgr := logger.Nop()
	app := New(cfg, lgr, xhttp.NewServer(lgr, nil), WithConsumer(nil))
	assert.Nil(t, app.consumer)
	assert.Empty(t, app.handlers)
}
