package models

// Requests for report HTTP endpoints.

type ParseRequest struct {
	RawText string `json:"raw_text" validate:"required"`
	WeekID  string `json:"week_id" validate:"omitempty,isoweek"`
}

type ScoreRequest struct {
	RawText        string      `json:"raw_text"`
	Layers         *LayerInput `json:"layers" validate:"required"`
	RequireTickers *bool       `json:"require_tickers"`
}

type WeekRequest struct {
	WeekID string `param:"week_id" validate:"required,isoweek"`
}

type JobRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}
