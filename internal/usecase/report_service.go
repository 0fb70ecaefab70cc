package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SentimentDesk/internal/domain/models"
	domrepo "SentimentDesk/internal/domain/repository"
	domsvc "SentimentDesk/internal/domain/service"
	"SentimentDesk/internal/services/parsing"
	"SentimentDesk/internal/services/scoring"
	"SentimentDesk/internal/services/validation"
	"SentimentDesk/pkg/config"
	"SentimentDesk/pkg/logger"
	"SentimentDesk/pkg/util"

	"github.com/google/uuid"
)

// ErrValidationFailed is returned by Parse when reports.reject_on_fail is set and the
// report did not validate. The result is still returned; nothing is stored.
var ErrValidationFailed = errors.New("report validation failed")

// ReportService runs the parse-validate-score pipeline and hands the result to storage,
// the provider queue and the event stream.
type ReportService struct {
	parser    domsvc.ReportParser
	reports   domrepo.ReportStore
	snapshots domrepo.SnapshotStore
	jobs      domrepo.JobQueue
	events    domrepo.EventPublisher
	metrics   domrepo.Metrics
	logger    *logger.Logger
	scoring   config.ScoringConfig
	settings  config.ReportsConfig
	now       func() time.Time
	newID     func() string
}

func NewReportService(
	parser domsvc.ReportParser,
	reports domrepo.ReportStore,
	snapshots domrepo.SnapshotStore,
	jobs domrepo.JobQueue,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	lgr *logger.Logger,
	cfg *config.Config,
) *ReportService {
	return &ReportService{
		parser:    parser,
		reports:   reports,
		snapshots: snapshots,
		jobs:      jobs,
		events:    events,
		metrics:   metrics,
		logger:    lgr.With(logger.String("component", "report_service")),
		scoring:   cfg.Scoring,
		settings:  cfg.Reports,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Parse extracts, validates and scores raw, stores it as the report of weekID (the
// current ISO week when empty) and schedules the provider fetch.
func (s *ReportService) Parse(ctx context.Context, raw, weekID string) (*models.ParseResult, error) {
	start := s.now()
	if weekID == "" {
		weekID = util.ISOWeekID(start)
	}

	parsed := s.parser.Parse(raw)
	s.metrics.RecordStage("parse", s.now().Sub(start))

	layers := ApplyTickerOverrides(parsed.Layers, s.settings.TickerOverrides)
	result := &models.ParseResult{
		WeekID:      weekID,
		RawText:     raw,
		CleanedText: parsed.CleanedText,
		Layers:      layers,
		Evidence:    parsed.Evidence,
		Validation:  validation.Validate(layers, s.settings.RequireTickers),
		Scores:      scoring.Score(layers, s.scoring),
		Mentions:    parsing.ExtractMentions(parsed.CleanedText, layers.Valuation.OvervaluedStocks),
	}
	status := string(result.Validation.Status)

	if s.settings.RejectOnFail && result.Validation.Status == models.StatusFail {
		s.metrics.RecordReportParsed(status, result.Scores.CompositeScore)
		return result, ErrValidationFailed
	}

	report, err := s.store(ctx, result)
	if err != nil {
		s.metrics.RecordError("persist")
		s.logger.Error("save report failed", logger.String("week_id", weekID), logger.Error(err))
		return nil, err
	}
	result.ReportID = report.ID

	s.enqueueProviderFetch(ctx, result)
	s.publish(ctx, models.ReportEvent{
		Type:           models.EventReportParsed,
		ReportID:       report.ID,
		WeekID:         weekID,
		Status:         result.Validation.Status,
		CompositeScore: result.Scores.CompositeScore,
		At:             s.now().UTC(),
	})

	s.metrics.RecordReportParsed(status, result.Scores.CompositeScore)
	s.metrics.RecordStage("total", s.now().Sub(start))
	s.logger.Info("report parsed",
		logger.String("report_id", report.ID),
		logger.String("week_id", weekID),
		logger.String("status", status),
		logger.Float64("composite", result.Scores.CompositeScore),
		logger.Int("stocks", len(layers.Valuation.OvervaluedStocks)),
	)
	return result, nil
}

// store writes the report, keeping the id and creation time of an earlier parse of the same week.
func (s *ReportService) store(ctx context.Context, result *models.ParseResult) (*models.Report, error) {
	now := s.now().UTC()
	report := &models.Report{
		ID:          s.newID(),
		WeekID:      result.WeekID,
		RawText:     result.RawText,
		CleanedText: result.CleanedText,
		Layers:      result.Layers,
		Evidence:    result.Evidence,
		Validation:  result.Validation,
		Scores:      result.Scores,
		Mentions:    result.Mentions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.reports.GetReport(ctx, result.WeekID)
	switch {
	case err == nil:
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
	case errors.Is(err, domrepo.ErrReportNotFound):
	default:
		return nil, fmt.Errorf("load report %s: %w", result.WeekID, err)
	}

	if err := s.reports.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report %s: %w", result.WeekID, err)
	}
	return report, nil
}

func (s *ReportService) enqueueProviderFetch(ctx context.Context, result *models.ParseResult) {
	id, err := s.jobs.Enqueue(ctx, ProviderFetchJobType, models.ProviderFetchPayload{
		ReportID: result.ReportID,
		WeekID:   result.WeekID,
		Symbols:  ExtractSymbols(result.Layers.Valuation.OvervaluedStocks),
	})
	s.metrics.RecordJobEnqueued(ProviderFetchJobType, err)

	status := models.JobQueued
	if err != nil {
		s.logger.Error("enqueue provider fetch failed", logger.String("report_id", result.ReportID), logger.Error(err))
		status = models.JobFailed
	}
	if id != "" {
		result.ProviderJobID = &id
	}
	result.ProviderJobStatus = &status
}

func (s *ReportService) publish(ctx context.Context, ev models.ReportEvent) {
	err := s.events.PublishReportEvent(ctx, ev)
	if errors.Is(err, domrepo.ErrEventsDisabled) {
		return
	}
	s.metrics.RecordEventPublished(ev.Type, err)
	if err != nil {
		s.logger.Warn("publish report event failed",
			logger.String("type", ev.Type),
			logger.String("week_id", ev.WeekID),
			logger.Error(err),
		)
	}
}

// Score validates and scores manually supplied layers. requireTickers overrides the
// configured default when set.
func (s *ReportService) Score(rawText string, layers models.LayerInput, requireTickers *bool) models.ScoreOutcome {
	require := s.settings.RequireTickers
	if requireTickers != nil {
		require = *requireTickers
	}

	layers = ApplyTickerOverrides(layers, s.settings.TickerOverrides)
	return models.ScoreOutcome{
		CleanedText: parsing.Clean(rawText),
		Layers:      layers,
		Validation:  validation.Validate(layers, require),
		Scores:      scoring.Score(layers, s.scoring),
	}
}

func (s *ReportService) GetReport(ctx context.Context, weekID string) (*models.Report, error) {
	return s.reports.GetReport(ctx, weekID)
}

// ListSnapshots returns the market data stored for the report of weekID.
func (s *ReportService) ListSnapshots(ctx context.Context, weekID string) ([]models.MarketDataSnapshot, error) {
	report, err := s.reports.GetReport(ctx, weekID)
	if err != nil {
		return nil, err
	}
	return s.snapshots.ListSnapshots(ctx, report.ID)
}

func (s *ReportService) JobStatus(ctx context.Context, id string) (*models.JobInfo, error) {
	status, err := s.jobs.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.JobInfo{ID: id, Status: status}, nil
}
