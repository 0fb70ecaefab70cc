package usecase

import (
	"strings"

	"SentimentDesk/internal/domain/models"
)

// ApplyTickerOverrides returns a copy of layers where every stock whose trimmed name
// matches an override key (case-insensitive) gets the upper-cased override ticker.
func ApplyTickerOverrides(layers models.LayerInput, overrides map[string]string) models.LayerInput {
	if len(overrides) == 0 {
		return layers
	}

	byName := make(map[string]string, len(overrides))
	for name, ticker := range overrides {
		t := strings.ToUpper(strings.TrimSpace(ticker))
		if t == "" {
			continue
		}
		byName[strings.ToLower(strings.TrimSpace(name))] = t
	}

	src := layers.Valuation.OvervaluedStocks
	stocks := make([]models.OvervaluedStock, len(src))
	copy(stocks, src)
	for i := range stocks {
		if t, ok := byName[strings.ToLower(strings.TrimSpace(stocks[i].Name))]; ok {
			t := t
			stocks[i].Ticker = &t
		}
	}
	layers.Valuation.OvervaluedStocks = stocks
	return layers
}

// ExtractSymbols lists "ticker or name" per stock, skipping stocks with neither.
func ExtractSymbols(stocks []models.OvervaluedStock) []string {
	symbols := make([]string, 0, len(stocks))
	for _, s := range stocks {
		symbol := s.TickerValue()
		if symbol == "" {
			symbol = strings.TrimSpace(s.Name)
		}
		if symbol == "" {
			continue
		}
		symbols = append(symbols, symbol)
	}
	return symbols
}

// dedupe keeps the first occurrence of every non-empty symbol.
func dedupe(symbols ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range symbols {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
