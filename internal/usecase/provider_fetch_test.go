package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/pkg/config"
	"SentimentDesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	mu       sync.Mutex
	calls    []string
	payloads map[string]map[string]interface{}
}

func (f *scriptedFetcher) FetchWithFallback(_ context.Context, reportID, symbol, weekID string) models.MarketDataSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)

	payload, ok := f.payloads[symbol]
	status := models.SnapshotOK
	if !ok {
		payload = map[string]interface{}{}
		status = models.SnapshotStub
	}
	return models.MarketDataSnapshot{
		ReportID: reportID,
		Provider: models.ProviderFinnhub,
		Symbol:   symbol,
		CacheKey: models.SnapshotCacheKey(models.ProviderFinnhub, symbol, weekID),
		Payload:  payload,
		Status:   status,
	}
}

var testIndexes = []config.IndexSymbol{
	{Index: "S&P 500", Symbol: "SPY"},
	{Index: "Nasdaq", Symbol: "QQQ"},
	{Index: "DAX", Symbol: "EWG"},
}

type jobDeps struct {
	fetcher   *scriptedFetcher
	reports   *memReports
	snapshots *memSnapshots
	events    *fakeEvents
	metrics   *countingMetrics
}

func newJob(t *testing.T) (*ProviderFetchJob, *jobDeps) {
	t.Helper()
	d := &jobDeps{
		fetcher: &scriptedFetcher{payloads: map[string]map[string]interface{}{
			"SPY":  {"d": -3.25, "dp": -0.54},
			"QQQ":  {"d": 0.0, "dp": 0.35},
			"NVDA": {"c": 181.2},
		}},
		reports:   newMemReports(),
		snapshots: &memSnapshots{},
		events:    &fakeEvents{},
		metrics:   newCountingMetrics(),
	}
	d.reports.byWeek["2026-W04"] = &models.Report{
		ID:         "report-1",
		WeekID:     "2026-W04",
		Validation: models.ValidationResult{Status: models.StatusWarn},
		Scores:     models.ScoreResult{CompositeScore: 72},
		Layers: models.LayerInput{MarketContext: models.MarketContextLayer{IndexMoves: []models.IndexMove{
			{Index: "DAX", PercentChange: fptr(1.2)},
		}}},
	}
	job := NewProviderFetchJob(d.fetcher, d.reports, d.snapshots, d.events, d.metrics, logger.Nop(), testIndexes)
	return job, d
}

func TestProviderFetchStoresSnapshotsAndMoves(t *testing.T) {
	job, d := newJob(t)
	assert.Equal(t, ProviderFetchJobType, job.Type())

	err := job.Handle(context.Background(), models.ProviderFetchPayload{
		ReportID: "report-1",
		WeekID:   "2026-W04",
		Symbols:  []string{"NVDA", "TSLA", "NVDA", " ", "SPY"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NVDA", "TSLA", "SPY", "QQQ", "EWG"}, d.fetcher.calls)
	assert.Len(t, d.snapshots.byKey, 5)

	moves := d.reports.byWeek["2026-W04"].Layers.MarketContext.IndexMoves
	require.Len(t, moves, 2)

	assert.Equal(t, "S&P 500", moves[0].Index)
	assert.Equal(t, -3.25, *moves[0].PointsChange)
	assert.Equal(t, -0.54, *moves[0].PercentChange)
	assert.Equal(t, models.DirectionDown, *moves[0].Direction)
	assert.NotNil(t, moves[0].Evidence)

	assert.Equal(t, "Nasdaq", moves[1].Index)
	assert.Equal(t, models.DirectionUp, *moves[1].Direction)

	require.Len(t, d.events.events, 1)
	ev := d.events.events[0]
	assert.Equal(t, models.EventReportEnriched, ev.Type)
	assert.Equal(t, 5, ev.Snapshots)
	assert.Equal(t, 72.0, ev.CompositeScore)
	assert.Equal(t, models.StatusWarn, ev.Status)
}

func TestProviderFetchKeepsTextMovesWhenNoQuotes(t *testing.T) {
	job, d := newJob(t)
	d.fetcher.payloads = nil

	require.NoError(t, job.Handle(context.Background(), models.ProviderFetchPayload{ReportID: "report-1", WeekID: "2026-W04"}))

	moves := d.reports.byWeek["2026-W04"].Layers.MarketContext.IndexMoves
	require.Len(t, moves, 1)
	assert.Equal(t, "DAX", moves[0].Index)
}

func TestProviderFetchDecodesQueuePayload(t *testing.T) {
	job, d := newJob(t)

	var decoded interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"report_id":"report-1","week_id":"2026-W04","symbols":["AMD"]}`), &decoded))
	require.NoError(t, job.Handle(context.Background(), decoded))
	assert.Equal(t, "AMD", d.fetcher.calls[0])
}

func TestProviderFetchErrors(t *testing.T) {
	t.Run("missing ids", func(t *testing.T) {
		job, _ := newJob(t)
		assert.Error(t, job.Handle(context.Background(), models.ProviderFetchPayload{WeekID: "2026-W04"}))
	})

	t.Run("report gone", func(t *testing.T) {
		job, d := newJob(t)
		err := job.Handle(context.Background(), models.ProviderFetchPayload{ReportID: "x", WeekID: "2025-W01"})
		assert.NoError(t, err)
		assert.Empty(t, d.fetcher.calls)
	})

	t.Run("snapshot save", func(t *testing.T) {
		job, d := newJob(t)
		d.snapshots.err = errors.New("insert failed")
		err := job.Handle(context.Background(), models.ProviderFetchPayload{ReportID: "report-1", WeekID: "2026-W04"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finnhub:SPY:2026-W04")
		assert.Empty(t, d.events.events)
	})

	t.Run("update moves", func(t *testing.T) {
		job, d := newJob(t)
		d.reports.movesErr = errors.New("clickhouse down")
		err := job.Handle(context.Background(), models.ProviderFetchPayload{ReportID: "report-1", WeekID: "2026-W04"})
		assert.ErrorContains(t, err, "update index moves")
	})

	t.Run("cancelled", func(t *testing.T) {
		job, _ := newJob(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := job.Handle(ctx, models.ProviderFetchPayload{ReportID: "report-1", WeekID: "2026-W04"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIndexMovesFromSnapshots(t *testing.T) {
	bySymbol := map[string]models.MarketDataSnapshot{
		"SPY": {Payload: map[string]interface{}{"d": json.Number("0"), "dp": -0.1}},
		"QQQ": {Payload: map[string]interface{}{"c": 500.0}},
		"EWG": {Payload: map[string]interface{}{"dp": "n/a", "d": 0}},
	}
	moves := IndexMovesFromSnapshots(testIndexes, bySymbol)
	require.Len(t, moves, 2)

	assert.Equal(t, "S&P 500", moves[0].Index)
	assert.Equal(t, models.DirectionDown, *moves[0].Direction)
	assert.Equal(t, 0.0, *moves[0].PointsChange)

	assert.Equal(t, "DAX", moves[1].Index)
	assert.Nil(t, moves[1].PercentChange)
	assert.Equal(t, models.DirectionFlat, *moves[1].Direction)
}
