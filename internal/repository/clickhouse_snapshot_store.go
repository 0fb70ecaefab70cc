package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"SentimentDesk/internal/domain/models"
)

// ClickHouseSnapshotStore implements SnapshotStore.
type ClickHouseSnapshotStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseSnapshotStore(db *sql.DB, database string) *ClickHouseSnapshotStore {
	return &ClickHouseSnapshotStore{db: db, table: database + ".market_data_snapshots"}
}

func (s *ClickHouseSnapshotStore) SaveSnapshot(ctx context.Context, snap *models.MarketDataSnapshot) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (cache_key, report_id, provider, symbol, status, payload, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, q,
		snap.CacheKey,
		snap.ReportID,
		snap.Provider,
		snap.Symbol,
		snap.Status,
		string(payload),
		snap.FetchedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.CacheKey, err)
	}
	return nil
}

func (s *ClickHouseSnapshotStore) ListSnapshots(ctx context.Context, reportID string) ([]models.MarketDataSnapshot, error) {
	q := fmt.Sprintf(`SELECT cache_key, report_id, provider, symbol, status, payload, fetched_at
	FROM %s FINAL WHERE report_id = ? ORDER BY symbol, provider`, s.table)

	rows, err := s.db.QueryContext(ctx, q, reportID)
	if err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []models.MarketDataSnapshot{}
	for rows.Next() {
		var (
			snap    models.MarketDataSnapshot
			payload string
		)
		if err := rows.Scan(&snap.CacheKey, &snap.ReportID, &snap.Provider, &snap.Symbol,
			&snap.Status, &payload, &snap.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &snap.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", snap.CacheKey, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
