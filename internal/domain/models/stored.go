package models

import "time"

// Report is the persisted form of one parsed weekly report. One report per week id.
type Report struct {
	ID          string              `json:"id"`
	WeekID      string              `json:"week_id"`
	RawText     string              `json:"raw_text"`
	CleanedText string              `json:"cleaned_text"`
	Layers      LayerInput          `json:"layers"`
	Evidence    []EvidenceMatch     `json:"evidence"`
	Validation  ValidationResult    `json:"validation"`
	Scores      ScoreResult         `json:"scores"`
	Mentions    map[string][]string `json:"mentions"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ParseResult is returned by the parse endpoint.
type ParseResult struct {
	ReportID          string              `json:"report_id"`
	WeekID            string              `json:"week_id"`
	RawText           string              `json:"raw_text"`
	CleanedText       string              `json:"cleaned_text"`
	Layers            LayerInput          `json:"layers"`
	Evidence          []EvidenceMatch     `json:"evidence"`
	Validation        ValidationResult    `json:"validation"`
	Scores            ScoreResult         `json:"scores"`
	Mentions          map[string][]string `json:"mentions"`
	ProviderJobID     *string             `json:"provider_job_id"`
	ProviderJobStatus *JobStatus          `json:"provider_job_status"`
}

// ScoreOutcome is returned for manually supplied layers.
type ScoreOutcome struct {
	CleanedText string           `json:"cleaned_text"`
	Layers      LayerInput       `json:"layers"`
	Validation  ValidationResult `json:"validation"`
	Scores      ScoreResult      `json:"scores"`
}

type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
)

// JobInfo describes a background job for the jobs endpoint.
type JobInfo struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

const (
	EventReportParsed   = "report.parsed"
	EventReportEnriched = "report.enriched"
)

// ReportEvent is published to the event stream and fanned out to live feed clients.
type ReportEvent struct {
	Type           string           `json:"type"`
	ReportID       string           `json:"report_id"`
	WeekID         string           `json:"week_id"`
	Status         ValidationStatus `json:"status,omitempty"`
	CompositeScore float64          `json:"composite_score"`
	Snapshots      int              `json:"snapshots,omitempty"`
	At             time.Time        `json:"at"`
}
