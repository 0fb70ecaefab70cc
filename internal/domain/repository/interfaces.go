package repository

import (
	"context"
	"errors"
	"time"

	"SentimentDesk/internal/domain/models"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrJobNotFound    = errors.New("job not found")
	ErrEventsDisabled = errors.New("event publishing disabled")
)

// ReportStore persists one report per ISO week. Saving a week again replaces it.
type ReportStore interface {
	SaveReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, weekID string) (*models.Report, error)
	UpdateIndexMoves(ctx context.Context, weekID string, moves []models.IndexMove) error
	Health(ctx context.Context) error
}

// SnapshotStore persists market data snapshots, idempotent by cache key.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s *models.MarketDataSnapshot) error
	ListSnapshots(ctx context.Context, reportID string) ([]models.MarketDataSnapshot, error)
}

type EventPublisher interface {
	PublishReportEvent(ctx context.Context, ev models.ReportEvent) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error)
	Status(ctx context.Context, id string) (models.JobStatus, error)
}

// MarketDataProvider fetches one symbol's data for a week. A missing API key yields a
// stub snapshot, not an error.
type MarketDataProvider interface {
	Name() string
	Fetch(ctx context.Context, symbol, weekID string) (*models.MarketDataSnapshot, error)
}

type Metrics interface {
	RecordReportParsed(status string, composite float64)
	RecordStage(stage string, d time.Duration)
	RecordProviderFetch(provider, status string)
	RecordJobEnqueued(job string, err error)
	RecordEventPublished(eventType string, err error)
	RecordError(kind string)
}
