package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/internal/domain/repository"
)

// ClickHouseReportStore implements ReportStore. Structured fields are stored as JSON strings.
type ClickHouseReportStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

func NewClickHouseReportStore(db *sql.DB, database string) *ClickHouseReportStore {
	return &ClickHouseReportStore{db: db, table: database + ".reports", now: time.Now}
}

func (s *ClickHouseReportStore) SaveReport(ctx context.Context, r *models.Report) error {
	layers, err := json.Marshal(r.Layers)
	if err != nil {
		return fmt.Errorf("marshal layers: %w", err)
	}
	evidence, err := json.Marshal(r.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	validation, err := json.Marshal(r.Validation)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}
	scores, err := json.Marshal(r.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	mentions, err := json.Marshal(r.Mentions)
	if err != nil {
		return fmt.Errorf("marshal mentions: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (id, week_id, raw_text, cleaned_text, layers, evidence,
	validation_status, validation, composite_score, scores, mentions, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	_, err = s.db.ExecContext(ctx, q,
		r.ID,
		r.WeekID,
		r.RawText,
		r.CleanedText,
		string(layers),
		string(evidence),
		string(r.Validation.Status),
		string(validation),
		r.Scores.CompositeScore,
		string(scores),
		string(mentions),
		r.CreatedAt.UTC(),
		r.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.WeekID, err)
	}
	return nil
}

func (s *ClickHouseReportStore) GetReport(ctx context.Context, weekID string) (*models.Report, error) {
	q := fmt.Sprintf(`SELECT id, week_id, raw_text, cleaned_text, layers, evidence, validation,
	scores, mentions, created_at, updated_at
	FROM %s FINAL WHERE week_id = ? ORDER BY updated_at DESC LIMIT 1`, s.table)

	var (
		r                                             models.Report
		layers, evidence, validation, scores, mentions string
	)
	err := s.db.QueryRowContext(ctx, q, weekID).Scan(
		&r.ID, &r.WeekID, &r.RawText, &r.CleanedText,
		&layers, &evidence, &validation, &scores, &mentions,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrReportNotFound
		}
		return nil, fmt.Errorf("select report %s: %w", weekID, err)
	}

	for _, col := range []struct {
		name string
		raw  string
		dest interface{}
	}{
		{"layers", layers, &r.Layers},
		{"evidence", evidence, &r.Evidence},
		{"validation", validation, &r.Validation},
		{"scores", scores, &r.Scores},
		{"mentions", mentions, &r.Mentions},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("decode %s of report %s: %w", col.name, weekID, err)
		}
	}
	return &r, nil
}

// UpdateIndexMoves replaces the market-context index moves by writing a newer row version.
func (s *ClickHouseReportStore) UpdateIndexMoves(ctx context.Context, weekID string, moves []models.IndexMove) error {
	r, err := s.GetReport(ctx, weekID)
	if err != nil {
		return err
	}
	r.Layers.MarketContext.IndexMoves = moves
	r.UpdatedAt = s.now().UTC()
	return s.SaveReport(ctx, r)
}

func (s *ClickHouseReportStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
