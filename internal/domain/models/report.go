package models

import "strings"

// EvidenceMatch records which rule and pattern produced an extracted field, with the matched text.
type EvidenceMatch struct {
	Field   string `json:"field"`
	RuleID  string `json:"rule_id"`
	Pattern string `json:"pattern"`
	Snippet string `json:"snippet"`
}

// RatioValue is a parsed valuation ratio. A nil Value means mentioned but not parsed.
type RatioValue struct {
	Value *float64 `json:"value"`
	Raw   *string  `json:"raw"`
}

type OvervaluedStock struct {
	Rank       int             `json:"rank"`
	Name       string          `json:"name"`
	Ticker     *string         `json:"ticker"`
	Commentary *string         `json:"commentary"`
	PERatio    *RatioValue     `json:"pe_ratio"`
	PBRatio    *RatioValue     `json:"pb_ratio"`
	PCFRatio   *RatioValue     `json:"pcf_ratio"`
	Evidence   []EvidenceMatch `json:"evidence"`
}

// TickerValue returns the trimmed ticker or "".
func (s OvervaluedStock) TickerValue() string {
	if s.Ticker == nil {
		return ""
	}
	return strings.TrimSpace(*s.Ticker)
}

type CapexItem struct {
	Company          string          `json:"company"`
	Year             *int            `json:"year"`
	AmountUSDBillion *float64        `json:"amount_usd_billion"`
	AISharePercent   *float64        `json:"ai_share_percent"`
	Evidence         []EvidenceMatch `json:"evidence"`
}

type RiskCluster struct {
	Label    string          `json:"label"`
	Count    int             `json:"count"`
	Evidence []EvidenceMatch `json:"evidence"`
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DirectionOf classifies a signed change.
func DirectionOf(v float64) Direction {
	switch {
	case v > 0:
		return DirectionUp
	case v < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

type IndexMove struct {
	Index         string          `json:"index"`
	PercentChange *float64        `json:"percent_change"`
	PointsChange  *float64        `json:"points_change"`
	Direction     *Direction      `json:"direction"`
	Evidence      []EvidenceMatch `json:"evidence"`
}

type ValuationLayer struct {
	OvervaluedStocks []OvervaluedStock `json:"overvalued_stocks"`
}

type CapexLayer struct {
	CapexItems           []CapexItem `json:"capex_items"`
	CapexTotalUSDBillion *float64    `json:"capex_total_usd_billion"`
	AISharePercent       *float64    `json:"ai_share_percent"`
}

type RiskLayer struct {
	RiskClusters []RiskCluster `json:"risk_clusters"`
}

type MarketContextLayer struct {
	WeekLabel  *string     `json:"week_label"`
	IndexMoves []IndexMove `json:"index_moves"`
}

// LayerInput is the aggregate of the four extracted layers.
type LayerInput struct {
	Valuation     ValuationLayer     `json:"valuation"`
	Capex         CapexLayer         `json:"capex"`
	Risk          RiskLayer          `json:"risk"`
	MarketContext MarketContextLayer `json:"market_context"`
}

type IssueLevel string

const (
	LevelWarn IssueLevel = "warn"
	LevelFail IssueLevel = "fail"
)

type ValidationStatus string

const (
	StatusOK   ValidationStatus = "ok"
	StatusWarn ValidationStatus = "warn"
	StatusFail ValidationStatus = "fail"
)

type ValidationIssue struct {
	Field   string     `json:"field"`
	Level   IssueLevel `json:"level"`
	Message string     `json:"message"`
}

type ValidationResult struct {
	Status ValidationStatus  `json:"status"`
	Issues []ValidationIssue `json:"issues"`
}

type RuleTraceEntry struct {
	RuleID string `json:"rule_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Detail string `json:"detail"`
}

type ScoreResult struct {
	ValuationScore float64          `json:"valuation_score"`
	CapexScore     float64          `json:"capex_score"`
	RiskScore      float64          `json:"risk_score"`
	CompositeScore float64          `json:"composite_score"`
	RuleTrace      []RuleTraceEntry `json:"rule_trace"`
}

// ParsedContent is the output of one parse: cleaned text, layers and the flat evidence list.
type ParsedContent struct {
	CleanedText string          `json:"cleaned_text"`
	Layers      LayerInput      `json:"layers"`
	Evidence    []EvidenceMatch `json:"evidence"`
}
