package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SentimentDesk/internal/domain/models"
	domrepo "SentimentDesk/internal/domain/repository"
	"SentimentDesk/pkg/config"
	"SentimentDesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 21, 10, 30, 0, 0, time.UTC)

type serviceDeps struct {
	reports   *memReports
	snapshots *memSnapshots
	jobs      *fakeJobs
	events    *fakeEvents
	metrics   *countingMetrics
}

func newService(t *testing.T, mutate func(*config.Config)) (*ReportService, *serviceDeps) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	d := &serviceDeps{
		reports:   newMemReports(),
		snapshots: &memSnapshots{},
		jobs:      &fakeJobs{id: "job-1", status: models.JobQueued},
		events:    &fakeEvents{},
		metrics:   newCountingMetrics(),
	}
	s := NewReportService(stubParser{out: fiveStocks()}, d.reports, d.snapshots, d.jobs, d.events, d.metrics, logger.Nop(), cfg)
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "report-1" }
	return s, d
}

func TestParseStoresEnqueuesAndPublishes(t *testing.T) {
	s, d := newService(t, func(c *config.Config) {
		c.Reports.TickerOverrides = map[string]string{" palantir ": "pltr"}
	})

	res, err := s.Parse(context.Background(), "raw report", "2026-W03")
	require.NoError(t, err)

	assert.Equal(t, "report-1", res.ReportID)
	assert.Equal(t, "2026-W03", res.WeekID)
	assert.Equal(t, "raw report", res.RawText)
	assert.Equal(t, models.StatusOK, res.Validation.Status)
	assert.Equal(t, "PLTR", res.Layers.Valuation.OvervaluedStocks[2].TickerValue())
	assert.InDelta(t, 80.0, res.Scores.CompositeScore, 1e-9)
	assert.Equal(t, []string{"Nvidia bleibt stark, NVDA nahe Rekord."}, res.Mentions["NVDA"])
	assert.Equal(t, []string{"Palantir teuer."}, res.Mentions["PLTR"])

	require.NotNil(t, res.ProviderJobID)
	assert.Equal(t, "job-1", *res.ProviderJobID)
	assert.Equal(t, models.JobQueued, *res.ProviderJobStatus)
	require.Len(t, d.jobs.payloads, 1)
	assert.Equal(t, models.ProviderFetchPayload{
		ReportID: "report-1",
		WeekID:   "2026-W03",
		Symbols:  []string{"NVDA", "TSLA", "PLTR", "AAPL", "MSFT"},
	}, d.jobs.payloads[0])

	stored, err := d.reports.GetReport(context.Background(), "2026-W03")
	require.NoError(t, err)
	assert.Equal(t, "report-1", stored.ID)
	assert.Equal(t, fixedNow, stored.CreatedAt)

	require.Len(t, d.events.events, 1)
	ev := d.events.events[0]
	assert.Equal(t, models.EventReportParsed, ev.Type)
	assert.Equal(t, "2026-W03", ev.WeekID)
	assert.Equal(t, models.StatusOK, ev.Status)

	assert.Equal(t, 1, d.metrics.parsed["ok"])
	assert.Equal(t, 1, d.metrics.enqueued["provider_fetch/ok"])
	assert.Equal(t, 1, d.metrics.events["report.parsed/ok"])
}

func TestParseWithoutOverrideWarnsOnMissingTicker(t *testing.T) {
	s, d := newService(t, nil)

	res, err := s.Parse(context.Background(), "raw", "2026-W03")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWarn, res.Validation.Status)

	payload := d.jobs.payloads[0].(models.ProviderFetchPayload)
	assert.Equal(t, []string{"NVDA", "TSLA", "Palantir", "AAPL", "MSFT"}, payload.Symbols)
	assert.NotContains(t, res.Mentions, "PALANTIR")
}

func TestParseDefaultsToCurrentISOWeek(t *testing.T) {
	s, _ := newService(t, nil)

	res, err := s.Parse(context.Background(), "raw", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-W04", res.WeekID)
}

func TestParseReusesReportOfSameWeek(t *testing.T) {
	s, d := newService(t, nil)
	created := fixedNow.Add(-48 * time.Hour)
	require.NoError(t, d.reports.SaveReport(context.Background(), &models.Report{
		ID: "existing", WeekID: "2026-W04", CreatedAt: created, UpdatedAt: created,
	}))

	res, err := s.Parse(context.Background(), "raw", "2026-W04")
	require.NoError(t, err)
	assert.Equal(t, "existing", res.ReportID)

	stored, _ := d.reports.GetReport(context.Background(), "2026-W04")
	assert.Equal(t, created, stored.CreatedAt)
	assert.Equal(t, fixedNow, stored.UpdatedAt)
	assert.Equal(t, "raw", stored.RawText)
}

func TestParseQueueFailureDegrades(t *testing.T) {
	s, d := newService(t, nil)
	d.jobs.err = errors.New("redis down")

	res, err := s.Parse(context.Background(), "raw", "2026-W04")
	require.NoError(t, err)
	assert.Nil(t, res.ProviderJobID)
	assert.Equal(t, models.JobFailed, *res.ProviderJobStatus)
	assert.Equal(t, 1, d.metrics.enqueued["provider_fetch/error"])
	assert.Len(t, d.events.events, 1)
}

func TestParsePublishFailureDoesNotFail(t *testing.T) {
	s, d := newService(t, nil)
	d.events.err = errors.New("broker unavailable")

	_, err := s.Parse(context.Background(), "raw", "2026-W04")
	require.NoError(t, err)
	assert.Equal(t, 1, d.metrics.events["report.parsed/error"])
}

func TestParseEventsDisabledIsSilent(t *testing.T) {
	s, d := newService(t, nil)
	d.events.err = domrepo.ErrEventsDisabled

	_, err := s.Parse(context.Background(), "raw", "2026-W04")
	require.NoError(t, err)
	assert.Empty(t, d.metrics.events)
}

func TestParseStoreFailure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*memReports)
	}{
		{name: "load", mutate: func(m *memReports) { m.getErr = errors.New("clickhouse timeout") }},
		{name: "save", mutate: func(m *memReports) { m.saveErr = errors.New("clickhouse timeout") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newService(t, nil)
			tt.mutate(d.reports)

			res, err := s.Parse(context.Background(), "raw", "2026-W04")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), "clickhouse timeout")
			assert.Empty(t, d.jobs.payloads)
			assert.Empty(t, d.events.events)
			assert.Equal(t, 1, d.metrics.errors["persist"])
		})
	}
}

func TestParseRejectOnFail(t *testing.T) {
	s, d := newService(t, func(c *config.Config) {
		c.Reports.RequireTickers = true
		c.Reports.RejectOnFail = true
	})

	res, err := s.Parse(context.Background(), "raw", "2026-W04")
	require.ErrorIs(t, err, ErrValidationFailed)
	require.NotNil(t, res)
	assert.Equal(t, models.StatusFail, res.Validation.Status)
	assert.Zero(t, d.reports.saves)
	assert.Empty(t, d.jobs.payloads)
	assert.Equal(t, 1, d.metrics.parsed["fail"])
}

func TestScoreManualLayers(t *testing.T) {
	s, _ := newService(t, nil)
	layers := fiveStocks().Layers
	yes := true

	out := s.Score("  Hallo   Welt  ", layers, &yes)
	assert.Equal(t, "Hallo Welt", out.CleanedText)
	assert.Equal(t, models.StatusFail, out.Validation.Status)

	out = s.Score("", layers, nil)
	assert.Equal(t, models.StatusWarn, out.Validation.Status)
	assert.InDelta(t, 80.0, out.Scores.CompositeScore, 1e-9)
}

func TestApplyTickerOverridesDoesNotMutateInput(t *testing.T) {
	layers := fiveStocks().Layers
	out := ApplyTickerOverrides(layers, map[string]string{"NVIDIA": " nvda2 ", "Apple": ""})

	assert.Equal(t, "NVDA2", out.Valuation.OvervaluedStocks[0].TickerValue())
	assert.Equal(t, "AAPL", out.Valuation.OvervaluedStocks[3].TickerValue())
	assert.Equal(t, "NVDA", layers.Valuation.OvervaluedStocks[0].TickerValue())
}

func TestExtractSymbolsSkipsBlank(t *testing.T) {
	stocks := []models.OvervaluedStock{stock(1, "Nvidia", "NVDA"), stock(2, "  ", ""), stock(3, "SAP", " ")}
	assert.Equal(t, []string{"NVDA", "SAP"}, ExtractSymbols(stocks))
}

func TestListSnapshotsAndJobStatus(t *testing.T) {
	s, d := newService(t, nil)
	ctx := context.Background()

	_, err := s.ListSnapshots(ctx, "2026-W04")
	assert.ErrorIs(t, err, domrepo.ErrReportNotFound)

	_, err = s.Parse(ctx, "raw", "2026-W04")
	require.NoError(t, err)
	require.NoError(t, d.snapshots.SaveSnapshot(ctx, &models.MarketDataSnapshot{ReportID: "report-1", CacheKey: "finnhub:SPY:2026-W04"}))

	snaps, err := s.ListSnapshots(ctx, "2026-W04")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	info, err := s.JobStatus(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, &models.JobInfo{ID: "job-1", Status: models.JobQueued}, info)

	_, err = s.JobStatus(ctx, "nope")
	assert.ErrorIs(t, err, domrepo.ErrJobNotFound)
}
