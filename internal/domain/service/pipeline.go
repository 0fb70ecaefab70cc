package service

import (
	"context"

	"SentimentDesk/internal/domain/models"
)

// ReportParser turns raw report text into cleaned text, layers and evidence.
type ReportParser interface {
	Parse(raw string) models.ParsedContent
}

// SnapshotFetcher resolves market data for a symbol, choosing and falling back between
// providers. It always returns a snapshot, with status error when every provider failed.
type SnapshotFetcher interface {
	FetchWithFallback(ctx context.Context, reportID, symbol, weekID string) models.MarketDataSnapshot
}
