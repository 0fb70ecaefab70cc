package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/internal/domain/repository"
	"SentimentDesk/pkg/cache"
	"SentimentDesk/pkg/logger"
)

type Config struct {
	CacheTTL     time.Duration
	ErrorTTL     time.Duration
	IndexSymbols []string
}

// Selector picks a provider per symbol and caches every snapshot it produces.
// Index symbols are quoted by Finnhub only. Anything else goes to SimFin first
// and falls back to Finnhub when SimFin has nothing for it.
type Selector struct {
	finnhub      repository.MarketDataProvider
	simfin       repository.MarketDataProvider
	cache        cache.Service
	metrics      repository.Metrics
	logger       *logger.Logger
	cacheTTL     time.Duration
	errorTTL     time.Duration
	indexSymbols map[string]struct{}
	now          func() time.Time
}

func NewSelector(
	finnhub, simfin repository.MarketDataProvider,
	c cache.Service,
	m repository.Metrics,
	lgr *logger.Logger,
	cfg Config,
) *Selector {
	idx := make(map[string]struct{}, len(cfg.IndexSymbols))
	for _, s := range cfg.IndexSymbols {
		idx[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return &Selector{
		finnhub:      finnhub,
		simfin:       simfin,
		cache:        c,
		metrics:      m,
		logger:       lgr.With(logger.String("component", "provider_selector")),
		cacheTTL:     cfg.CacheTTL,
		errorTTL:     cfg.ErrorTTL,
		indexSymbols: idx,
		now:          time.Now,
	}
}

func (s *Selector) IsIndexSymbol(symbol string) bool {
	_, ok := s.indexSymbols[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

func (s *Selector) FetchWithFallback(ctx context.Context, reportID, symbol, weekID string) models.MarketDataSnapshot {
	symbol = strings.TrimSpace(symbol)

	var snap models.MarketDataSnapshot
	if s.IsIndexSymbol(symbol) {
		snap = s.fetch(ctx, s.finnhub, symbol, weekID)
	} else {
		snap = s.fetch(ctx, s.simfin, symbol, weekID)
		if !snap.HasPayload() {
			snap = s.fetch(ctx, s.finnhub, symbol, weekID)
		}
	}
	snap.ReportID = reportID
	return snap
}

func (s *Selector) fetch(ctx context.Context, p repository.MarketDataProvider, symbol, weekID string) models.MarketDataSnapshot {
	key := models.SnapshotCacheKey(p.Name(), symbol, weekID)

	cached, err := cache.GetTyped[models.MarketDataSnapshot](ctx, s.cache, key)
	if err == nil {
		s.metrics.RecordProviderFetch(p.Name(), "cached")
		return cached
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("snapshot cache read failed", logger.String("key", key), logger.Error(err))
	}

	start := s.now()
	res, err := p.Fetch(ctx, symbol, weekID)
	s.metrics.RecordStage("provider_"+p.Name(), s.now().Sub(start))

	var snap models.MarketDataSnapshot
	if err != nil || res == nil {
		if err == nil {
			err = errors.New("provider returned no snapshot")
		}
		s.logger.Error("provider fetch failed",
			logger.String("provider", p.Name()),
			logger.String("symbol", symbol),
			logger.String("week_id", weekID),
			logger.Error(err),
		)
		snap = models.MarketDataSnapshot{
			Provider:  p.Name(),
			Symbol:    symbol,
			CacheKey:  key,
			Payload:   map[string]interface{}{},
			Status:    models.SnapshotError,
			FetchedAt: s.now().UTC(),
		}
	} else {
		snap = *res
	}
	s.metrics.RecordProviderFetch(p.Name(), snap.Status)

	ttl := s.cacheTTL
	if snap.Status != models.SnapshotOK {
		ttl = s.errorTTL
	}
	if err := s.cache.Set(ctx, key, snap, ttl); err != nil {
		s.logger.Warn("snapshot cache write failed", logger.String("key", key), logger.Error(err))
	}
	return snap
}
