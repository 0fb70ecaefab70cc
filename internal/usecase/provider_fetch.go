package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SentimentDesk/internal/domain/models"
	domrepo "SentimentDesk/internal/domain/repository"
	domsvc "SentimentDesk/internal/domain/service"
	"SentimentDesk/pkg/config"
	"SentimentDesk/pkg/logger"
	"SentimentDesk/pkg/queue"
)

const ProviderFetchJobType = "provider_fetch"

// ProviderFetchJob loads market data for a report's symbols plus the configured index
// symbols, stores every snapshot and turns index quotes into market-context moves.
type ProviderFetchJob struct {
	fetcher      domsvc.SnapshotFetcher
	reports      domrepo.ReportStore
	snapshots    domrepo.SnapshotStore
	events       domrepo.EventPublisher
	metrics      domrepo.Metrics
	logger       *logger.Logger
	indexSymbols []config.IndexSymbol
	now          func() time.Time
}

func NewProviderFetchJob(
	fetcher domsvc.SnapshotFetcher,
	reports domrepo.ReportStore,
	snapshots domrepo.SnapshotStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
	indexSymbols []config.IndexSymbol,
) *ProviderFetchJob {
	return &ProviderFetchJob{
		fetcher:      fetcher,
		reports:      reports,
		snapshots:    snapshots,
		events:       events,
		metrics:      metrics,
		logger:       lgr.With(logger.String("job", ProviderFetchJobType)),
		indexSymbols: indexSymbols,
		now:          time.Now,
	}
}

func (j *ProviderFetchJob) Name() string { return "provider fetch" }

func (j *ProviderFetchJob) Type() string { return ProviderFetchJobType }

func (j *ProviderFetchJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.ProviderFetchPayload](payload)
	if err != nil {
		return err
	}
	if p.ReportID == "" || p.WeekID == "" {
		return fmt.Errorf("provider fetch: report_id and week_id are required")
	}

	start := j.now()
	report, err := j.reports.GetReport(ctx, p.WeekID)
	if errors.Is(err, domrepo.ErrReportNotFound) {
		// The report was never stored; retrying cannot help.
		j.logger.Warn("report gone, skipping provider fetch", logger.String("week_id", p.WeekID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load report %s: %w", p.WeekID, err)
	}

	indexSymbols := make([]string, 0, len(j.indexSymbols))
	for _, is := range j.indexSymbols {
		indexSymbols = append(indexSymbols, is.Symbol)
	}

	bySymbol := make(map[string]models.MarketDataSnapshot)
	saved := 0
	for _, symbol := range dedupe(p.Symbols, indexSymbols) {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := j.fetcher.FetchWithFallback(ctx, p.ReportID, symbol, p.WeekID)
		if err := j.snapshots.SaveSnapshot(ctx, &snap); err != nil {
			return fmt.Errorf("save snapshot %s: %w", snap.CacheKey, err)
		}
		bySymbol[symbol] = snap
		saved++
	}

	moves := IndexMovesFromSnapshots(j.indexSymbols, bySymbol)
	if len(moves) > 0 {
		if err := j.reports.UpdateIndexMoves(ctx, p.WeekID, moves); err != nil {
			return fmt.Errorf("update index moves %s: %w", p.WeekID, err)
		}
	}

	ev := models.ReportEvent{
		Type:           models.EventReportEnriched,
		ReportID:       p.ReportID,
		WeekID:         p.WeekID,
		Status:         report.Validation.Status,
		CompositeScore: report.Scores.CompositeScore,
		Snapshots:      saved,
		At:             j.now().UTC(),
	}
	err = j.events.PublishReportEvent(ctx, ev)
	if !errors.Is(err, domrepo.ErrEventsDisabled) {
		j.metrics.RecordEventPublished(ev.Type, err)
		if err != nil {
			j.logger.Warn("publish report event failed", logger.String("week_id", p.WeekID), logger.Error(err))
		}
	}

	j.metrics.RecordStage("provider_fetch", j.now().Sub(start))
	j.logger.Info("provider fetch finished",
		logger.String("report_id", p.ReportID),
		logger.String("week_id", p.WeekID),
		logger.Int("snapshots", saved),
		logger.Int("index_moves", len(moves)),
	)
	return nil
}

// IndexMovesFromSnapshots builds one move per configured index whose snapshot carries a
// points ("d") or percent ("dp") change. Direction follows points, then percent.
func IndexMovesFromSnapshots(indexes []config.IndexSymbol, bySymbol map[string]models.MarketDataSnapshot) []models.IndexMove {
	var moves []models.IndexMove
	for _, is := range indexes {
		snap, ok := bySymbol[is.Symbol]
		if !ok || len(snap.Payload) == 0 {
			continue
		}
		_, hasPoints := snap.Payload["d"]
		_, hasPercent := snap.Payload["dp"]
		if !hasPoints && !hasPercent {
			continue
		}
		points, pointsOK := toFloat(snap.Payload["d"])
		percent, percentOK := toFloat(snap.Payload["dp"])

		move := models.IndexMove{Index: is.Index, Evidence: []models.EvidenceMatch{}}
		if pointsOK {
			move.PointsChange = &points
		}
		if percentOK {
			move.PercentChange = &percent
		}

		dir := models.DirectionFlat
		switch {
		case pointsOK && points != 0:
			dir = models.DirectionOf(points)
		case percentOK && percent != 0:
			dir = models.DirectionOf(percent)
		}
		move.Direction = &dir
		moves = append(moves, move)
	}
	return moves
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
