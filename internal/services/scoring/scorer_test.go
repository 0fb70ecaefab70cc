package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/internal/services/parsing"
	"SentimentDesk/pkg/config"
)

func ptr[T any](v T) *T { return &v }

func settings() config.ScoringConfig { return config.Default().Scoring }

func ratio(v float64) *models.RatioValue { return &models.RatioValue{Value: ptr(v)} }

func TestScoreEmptyLayers(t *testing.T) {
	res := Score(models.LayerInput{}, settings())

	assert.Equal(t, 100.0, res.ValuationScore)
	assert.Equal(t, 50.0, res.CapexScore)
	assert.Equal(t, 100.0, res.RiskScore)
	assert.InDelta(t, 0.4*100+0.4*50+0.2*100, res.CompositeScore, 1e-9)
	require.Len(t, res.RuleTrace, 1)
	assert.Equal(t, models.RuleTraceEntry{
		RuleID: "risk:keyword_hits",
		Field:  "scores.risk",
		Value:  "0",
		Detail: "Applied -0 for risk keyword hits.",
	}, res.RuleTrace[0])
}

func TestScoreValuationOrSemantics(t *testing.T) {
	layers := models.LayerInput{Valuation: models.ValuationLayer{OvervaluedStocks: []models.OvervaluedStock{
		{Name: "Nvidia", PERatio: ratio(55), PBRatio: ratio(40)},
		{Name: "Tesla", PCFRatio: ratio(30)},
		{Name: "Apple", PERatio: ratio(49.9), PBRatio: ratio(9), PCFRatio: ratio(29)},
		{Name: "Meta", PERatio: &models.RatioValue{Raw: ptr("KGV n/a")}},
	}}}

	res := Score(layers, settings())

	assert.Equal(t, 80.0, res.ValuationScore)
	var named []string
	for _, e := range res.RuleTrace {
		if e.RuleID == "valuation:over_threshold" {
			named = append(named, e.Value)
			assert.Equal(t, "scores.valuation", e.Field)
			assert.Equal(t, "Applied -10 due to ratio thresholds.", e.Detail)
		}
	}
	assert.Equal(t, []string{"Nvidia", "Tesla"}, named)
}

func TestScoreCapex(t *testing.T) {
	layers := models.LayerInput{Capex: models.CapexLayer{
		CapexItems:           []models.CapexItem{{Company: "Amazon"}, {Company: "Meta"}, {Company: "Oracle"}},
		CapexTotalUSDBillion: ptr(300.0),
	}}

	res := Score(layers, settings())

	assert.Equal(t, 70.0, res.CapexScore)
	require.Len(t, res.RuleTrace, 3)
	assert.Equal(t, models.RuleTraceEntry{RuleID: "capex:items", Field: "scores.capex", Value: "3", Detail: "Applied +15 for capex items."}, res.RuleTrace[0])
	assert.Equal(t, models.RuleTraceEntry{RuleID: "capex:total", Field: "scores.capex", Value: "300", Detail: "Applied +5 for total capex threshold."}, res.RuleTrace[1])
}

func TestScoreCapexBelowTotalThreshold(t *testing.T) {
	layers := models.LayerInput{Capex: models.CapexLayer{CapexTotalUSDBillion: ptr(299.5)}}
	res := Score(layers, settings())
	assert.Equal(t, 50.0, res.CapexScore)
	assert.Len(t, res.RuleTrace, 1)
}

func TestScoreClamping(t *testing.T) {
	s := settings()
	s.RiskThresholds.MaxScore = 80
	s.Weights = config.WeightSettings{Valuation: 1, Capex: 1, Risk: 1}

	items := make([]models.CapexItem, 30)
	layers := models.LayerInput{
		Capex: models.CapexLayer{CapexItems: items},
		Risk:  models.RiskLayer{RiskClusters: []models.RiskCluster{{Label: "rates", Count: 3}}},
	}

	res := Score(layers, s)

	assert.Equal(t, 100.0, res.CapexScore)
	assert.Equal(t, 80.0, res.RiskScore)
	assert.Equal(t, 100.0, res.CompositeScore)

	layers.Risk.RiskClusters[0].Count = 500
	res = Score(layers, s)
	assert.Equal(t, 0.0, res.RiskScore)
}

func TestScoreBoundsProperty(t *testing.T) {
	weights := []config.WeightSettings{
		{Valuation: 0.4, Capex: 0.4, Risk: 0.2},
		{Valuation: 2, Capex: 2, Risk: 2},
		{},
		{Valuation: 0.1, Capex: 0.1, Risk: 0.1},
	}
	counts := []int{0, 1, 10, 1000, -5}
	for _, w := range weights {
		for _, c := range counts {
			s := settings()
			s.Weights = w
			layers := models.LayerInput{
				Valuation: models.ValuationLayer{OvervaluedStocks: make([]models.OvervaluedStock, 12)},
				Risk:      models.RiskLayer{RiskClusters: []models.RiskCluster{{Label: "x", Count: c}}},
			}
			for i := range layers.Valuation.OvervaluedStocks {
				layers.Valuation.OvervaluedStocks[i].PERatio = ratio(999)
			}

			res := Score(layers, s)
			for _, v := range []float64{res.ValuationScore, res.CapexScore, res.RiskScore, res.CompositeScore} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
			assert.LessOrEqual(t, res.RiskScore, s.RiskThresholds.MaxScore)
		}
	}
}

func TestScoreParsedKGV(t *testing.T) {
	text := "## Überbewertet\n1. Nvidia (NVDA)\nDas KGV von 55 ist hoch."
	parsed := parsing.New(config.Default().Parser).Parse(text)
	require.Len(t, parsed.Layers.Valuation.OvervaluedStocks, 1)

	res := Score(parsed.Layers, settings())

	assert.Equal(t, 90.0, res.ValuationScore)
	var over []models.RuleTraceEntry
	for _, e := range res.RuleTrace {
		if e.RuleID == "valuation:over_threshold" {
			over = append(over, e)
		}
	}
	require.Len(t, over, 1)
	assert.Equal(t, "Nvidia", over[0].Value)
}

func TestScoreParsedNoRiskHits(t *testing.T) {
	parsed := parsing.New(config.Default().Parser).Parse("Ruhige Woche ohne Besonderheiten.")
	res := Score(parsed.Layers, settings())

	assert.Equal(t, 100.0, res.RiskScore)
	var hits []models.RuleTraceEntry
	for _, e := range res.RuleTrace {
		if e.RuleID == "risk:keyword_hits" {
			hits = append(hits, e)
		}
	}
	require.Len(t, hits, 1)
	assert.Equal(t, "0", hits[0].Value)
}
