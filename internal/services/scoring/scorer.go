// Package scoring reduces validated layers to sub-scores, a weighted composite and a rule trace.
package scoring

import (
	"strconv"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/pkg/config"
)

const (
	valuationBase = 100.0
	capexBase     = 50.0
	riskBase      = 100.0
)

// Score is total: any layer input, including an empty one, yields a complete clamped result.
// Weights are applied as configured without renormalization.
func Score(layers models.LayerInput, settings config.ScoringConfig) models.ScoreResult {
	trace := make([]models.RuleTraceEntry, 0, len(layers.Valuation.OvervaluedStocks)+3)

	vt := settings.ValuationThresholds
	valuation := valuationBase
	for _, s := range layers.Valuation.OvervaluedStocks {
		if !overThreshold(s, vt) {
			continue
		}
		valuation -= vt.PerStockWeight
		trace = append(trace, models.RuleTraceEntry{
			RuleID: "valuation:over_threshold",
			Field:  "scores.valuation",
			Value:  s.Name,
			Detail: "Applied -" + fmtNum(vt.PerStockWeight) + " due to ratio thresholds.",
		})
	}
	valuation = clamp(valuation, 0, 100)

	ct := settings.CapexThresholds
	capex := capexBase
	if n := len(layers.Capex.CapexItems); n > 0 {
		inc := ct.PerItemWeight * float64(n)
		capex += inc
		trace = append(trace, models.RuleTraceEntry{
			RuleID: "capex:items",
			Field:  "scores.capex",
			Value:  strconv.Itoa(n),
			Detail: "Applied +" + fmtNum(inc) + " for capex items.",
		})
	}
	// The total bonus reuses the per-item weight.
	if total := layers.Capex.CapexTotalUSDBillion; total != nil && *total >= ct.TotalUSDBillion {
		capex += ct.PerItemWeight
		trace = append(trace, models.RuleTraceEntry{
			RuleID: "capex:total",
			Field:  "scores.capex",
			Value:  fmtNum(*total),
			Detail: "Applied +" + fmtNum(ct.PerItemWeight) + " for total capex threshold.",
		})
	}
	capex = clamp(capex, 0, 100)

	rt := settings.RiskThresholds
	hits := 0
	for _, c := range layers.Risk.RiskClusters {
		hits += c.Count
	}
	penalty := float64(hits) * rt.PerHitWeight
	risk := clamp(clamp(riskBase-penalty, 0, rt.MaxScore), 0, 100)
	trace = append(trace, models.RuleTraceEntry{
		RuleID: "risk:keyword_hits",
		Field:  "scores.risk",
		Value:  strconv.Itoa(hits),
		Detail: "Applied -" + fmtNum(penalty) + " for risk keyword hits.",
	})

	w := settings.Weights
	composite := clamp(w.Valuation*valuation+w.Capex*capex+w.Risk*risk, 0, 100)

	return models.ScoreResult{
		ValuationScore: valuation,
		CapexScore:     capex,
		RiskScore:      risk,
		CompositeScore: composite,
		RuleTrace:      trace,
	}
}

// overThreshold is true when any present ratio reaches its threshold.
func overThreshold(s models.OvervaluedStock, t config.ValuationThresholds) bool {
	return reaches(s.PERatio, t.PERatio) || reaches(s.PBRatio, t.PBRatio) || reaches(s.PCFRatio, t.PCFRatio)
}

func reaches(r *models.RatioValue, threshold float64) bool {
	return r != nil && r.Value != nil && *r.Value >= threshold
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
