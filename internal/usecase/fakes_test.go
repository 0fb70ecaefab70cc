package usecase

import (
	"context"
	"sync"
	"time"

	"SentimentDesk/internal/domain/models"
	domrepo "SentimentDesk/internal/domain/repository"
)

func sptr(s string) *string { return &s }

func fptr(v float64) *float64 { return &v }

func stock(rank int, name, ticker string) models.OvervaluedStock {
	s := models.OvervaluedStock{Rank: rank, Name: name, Evidence: []models.EvidenceMatch{}}
	if ticker != "" {
		s.Ticker = sptr(ticker)
	}
	return s
}

type stubParser struct {
	out models.ParsedContent
}

func (p stubParser) Parse(raw string) models.ParsedContent { return p.out }

func fiveStocks() models.ParsedContent {
	return models.ParsedContent{
		CleanedText: "Nvidia bleibt stark, NVDA nahe Rekord.\nPalantir teuer.",
		Layers: models.LayerInput{
			Valuation: models.ValuationLayer{OvervaluedStocks: []models.OvervaluedStock{
				stock(1, "Nvidia", "NVDA"),
				stock(2, "Tesla", "TSLA"),
				stock(3, "Palantir", ""),
				stock(4, "Apple", "AAPL"),
				stock(5, "Microsoft", "MSFT"),
			}},
			MarketContext: models.MarketContextLayer{IndexMoves: []models.IndexMove{}},
		},
		Evidence: []models.EvidenceMatch{},
	}
}

type memReports struct {
	mu       sync.Mutex
	byWeek   map[string]*models.Report
	saves    int
	getErr   error
	saveErr  error
	movesErr error
}

func newMemReports() *memReports { return &memReports{byWeek: map[string]*models.Report{}} }

func (m *memReports) SaveReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *r
	m.byWeek[r.WeekID] = &cp
	m.saves++
	return nil
}

func (m *memReports) GetReport(_ context.Context, weekID string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.byWeek[weekID]
	if !ok {
		return nil, domrepo.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) UpdateIndexMoves(_ context.Context, weekID string, moves []models.IndexMove) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.movesErr != nil {
		return m.movesErr
	}
	r, ok := m.byWeek[weekID]
	if !ok {
		return domrepo.ErrReportNotFound
	}
	r.Layers.MarketContext.IndexMoves = moves
	return nil
}

func (m *memReports) Health(context.Context) error { return nil }

type memSnapshots struct {
	mu    sync.Mutex
	byKey map[string]models.MarketDataSnapshot
	err   error
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, s *models.MarketDataSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.byKey == nil {
		m.byKey = map[string]models.MarketDataSnapshot{}
	}
	if _, ok := m.byKey[s.CacheKey]; !ok {
		m.byKey[s.CacheKey] = *s
	}
	return nil
}

func (m *memSnapshots) ListSnapshots(_ context.Context, reportID string) ([]models.MarketDataSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MarketDataSnapshot
	for _, s := range m.byKey {
		if s.ReportID == reportID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeJobs struct {
	id       string
	err      error
	payloads []interface{}
	status   models.JobStatus
}

func (f *fakeJobs) Enqueue(_ context.Context, jobType string, payload interface{}) (string, error) {
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func (f *fakeJobs) Status(_ context.Context, id string) (models.JobStatus, error) {
	if id != f.id {
		return "", domrepo.ErrJobNotFound
	}
	return f.status, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.ReportEvent
	err    error
}

func (f *fakeEvents) PublishReportEvent(_ context.Context, ev models.ReportEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type countingMetrics struct {
	mu       sync.Mutex
	parsed   map[string]int
	errors   map[string]int
	enqueued map[string]int
	events   map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		parsed:   map[string]int{},
		errors:   map[string]int{},
		enqueued: map[string]int{},
		events:   map[string]int{},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *countingMetrics) RecordReportParsed(status string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsed[status]++
}

func (m *countingMetrics) RecordStage(string, time.Duration) {}

func (m *countingMetrics) RecordProviderFetch(string, string) {}

func (m *countingMetrics) RecordJobEnqueued(job string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued[job+"/"+result(err)]++
}

func (m *countingMetrics) RecordEventPublished(eventType string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventType+"/"+result(err)]++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
