package repository

import "fmt"

// Schema returns the idempotent DDL for the report tables in database.
// Both tables use ReplacingMergeTree so re-inserting a key replaces the row on merge;
// reads use FINAL.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.reports (
	id String,
	week_id String,
	raw_text String,
	cleaned_text String,
	layers String,
	evidence String,
	validation_status LowCardinality(String),
	validation String,
	composite_score Float64,
	scores String,
	mentions String,
	created_at DateTime64(3, 'UTC'),
	updated_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY week_id`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.market_data_snapshots (
	cache_key String,
	report_id String,
	provider LowCardinality(String),
	symbol String,
	status LowCardinality(String),
	payload String,
	fetched_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(fetched_at)
ORDER BY cache_key`, database),
	}
}
