// Package validation checks structural invariants of extracted layers and grades them.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"SentimentDesk/internal/domain/models"
)

const expectedStocks = 5

const (
	fieldStocks        = "layers.valuation.overvalued_stocks"
	fieldStockName     = "layers.valuation.overvalued_stocks.name"
	fieldStockTicker   = "layers.valuation.overvalued_stocks.ticker"
	fieldCapexTotal    = "layers.capex.capex_total_usd_billion"
	fieldCapexAIShare  = "layers.capex.ai_share_percent"
	fieldItemAmount    = "layers.capex.capex_items.amount_usd_billion"
	fieldItemAIShare   = "layers.capex.capex_items.ai_share_percent"
	fieldClusterCount  = "layers.risk.risk_clusters.count"
	fieldStockRatioFmt = "layers.valuation.overvalued_stocks.%s"
)

// Validate never fails; problems are reported as issues. Status is fail if any issue
// is fail, warn if there is any issue, ok otherwise.
func Validate(layers models.LayerInput, requireTickers bool) models.ValidationResult {
	var issues []models.ValidationIssue
	add := func(field string, level models.IssueLevel, msg string) {
		issues = append(issues, models.ValidationIssue{Field: field, Level: level, Message: msg})
	}

	stocks := layers.Valuation.OvervaluedStocks
	if len(stocks) != expectedStocks {
		add(fieldStocks, models.LevelFail, "Expected exactly 5 stocks.")
	}

	var missingTickers []string
	blankName := false
	for _, s := range stocks {
		if strings.TrimSpace(s.Name) == "" {
			blankName = true
		}
		if s.TickerValue() == "" {
			missingTickers = append(missingTickers, s.Name)
		}
	}
	if blankName {
		add(fieldStockName, models.LevelFail, "Stock names are required.")
	}
	if len(missingTickers) > 0 {
		level := models.LevelWarn
		if requireTickers {
			level = models.LevelFail
		}
		add(fieldStockTicker, level, "Missing ticker for: "+strings.Join(missingTickers, ", "))
	}

	if dups := duplicateNames(stocks); len(dups) > 0 {
		add(fieldStockName, models.LevelWarn, "Duplicate stock names: "+strings.Join(dups, ", "))
	}

	for _, s := range stocks {
		for _, r := range []struct {
			field string
			ratio *models.RatioValue
		}{
			{"pe_ratio", s.PERatio},
			{"pb_ratio", s.PBRatio},
			{"pcf_ratio", s.PCFRatio},
		} {
			if r.ratio == nil || r.ratio.Value == nil || *r.ratio.Value >= 0 {
				continue
			}
			add(fmt.Sprintf(fieldStockRatioFmt, r.field), models.LevelWarn, s.Name+": ratio values must be positive.")
		}
	}

	capex := layers.Capex
	if capex.CapexTotalUSDBillion != nil && *capex.CapexTotalUSDBillion < 0 {
		add(fieldCapexTotal, models.LevelFail, "Capex total must be positive.")
	}
	if outOfPercentRange(capex.AISharePercent) {
		add(fieldCapexAIShare, models.LevelWarn, "AI share should be between 0 and 100.")
	}
	for _, item := range capex.CapexItems {
		if item.AmountUSDBillion != nil && *item.AmountUSDBillion < 0 {
			add(fieldItemAmount, models.LevelFail, item.Company+": capex amount must be positive.")
		}
		if outOfPercentRange(item.AISharePercent) {
			add(fieldItemAIShare, models.LevelWarn, item.Company+": AI share should be between 0 and 100.")
		}
	}

	for _, c := range layers.Risk.RiskClusters {
		if c.Count < 0 {
			add(fieldClusterCount, models.LevelFail, c.Label+": count must be positive.")
		}
	}

	return models.ValidationResult{Status: statusOf(issues), Issues: nonNil(issues)}
}

// duplicateNames returns the sorted set of names (trimmed, as written) that repeat an
// earlier name under case folding.
func duplicateNames(stocks []models.OvervaluedStock) []string {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(stocks))
	dupSet := make(map[string]struct{})
	for _, s := range stocks {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		key := folder.String(name)
		if _, ok := seen[key]; ok {
			dupSet[name] = struct{}{}
			continue
		}
		seen[key] = struct{}{}
	}
	dups := make([]string, 0, len(dupSet))
	for name := range dupSet {
		dups = append(dups, name)
	}
	sort.Strings(dups)
	return dups
}

func outOfPercentRange(v *float64) bool {
	return v != nil && (*v < 0 || *v > 100)
}

func statusOf(issues []models.ValidationIssue) models.ValidationStatus {
	status := models.StatusOK
	for _, i := range issues {
		if i.Level == models.LevelFail {
			return models.StatusFail
		}
		status = models.StatusWarn
	}
	return status
}

func nonNil(issues []models.ValidationIssue) []models.ValidationIssue {
	if issues == nil {
		return []models.ValidationIssue{}
	}
	return issues
}
