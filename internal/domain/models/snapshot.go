package models

import (
	"fmt"
	"time"
)

const (
	ProviderFinnhub = "finnhub"
	ProviderSimFin  = "simfin"
)

const (
	SnapshotOK    = "ok"
	SnapshotStub  = "stub"
	SnapshotError = "error"
)

// MarketDataSnapshot is one provider response for a symbol in a given week.
type MarketDataSnapshot struct {
	ReportID  string                 `json:"report_id,omitempty"`
	Provider  string                 `json:"provider"`
	Symbol    string                 `json:"symbol"`
	CacheKey  string                 `json:"cache_key"`
	Payload   map[string]interface{} `json:"payload"`
	Status    string                 `json:"status"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// HasPayload reports whether the provider returned any data.
func (s *MarketDataSnapshot) HasPayload() bool {
	return s != nil && len(s.Payload) > 0
}

// SnapshotCacheKey builds the cache and idempotency key "<provider>:<symbol>:<week_id>".
func SnapshotCacheKey(provider, symbol, weekID string) string {
	return fmt.Sprintf("%s:%s:%s", provider, symbol, weekID)
}

// ProviderFetchPayload is the queue payload of the provider fetch job.
type ProviderFetchPayload struct {
	ReportID string   `json:"report_id"`
	WeekID   string   `json:"week_id"`
	Symbols  []string `json:"symbols"`
}
