package parsing

import (
	"regexp"

	"SentimentDesk/internal/domain/models"
)

const weekPattern = `(KW\s*\d+\s*/\s*\d{4}|Woche\s+[0-9]{1,2}\s*[-\x{2013}]\s*[0-9]{1,2}\s+[\p{L}\p{N}_]+\s+\d{4})`

var weekRe = regexp.MustCompile(weekPattern)

type indexMatcher struct {
	name string
	re   *regexp.Regexp
}

// indexMovePattern matches "<name> ... <signed number>%" on one line. The gap is lazy and
// bounded so the sign of the first percentage after the name is kept.
func indexMovePattern(name string) string {
	return `(?i)` + regexp.QuoteMeta(name) + `[^\n%]{0,200}?([+-]?[0-9]+(?:[.,][0-9]+)?)\s*%`
}

// ExtractMarketContext finds the week label and the percentage move of each configured index.
// Indexes that are not mentioned are left out.
func (p *Parser) ExtractMarketContext(cleanedText string) (models.MarketContextLayer, []models.EvidenceMatch) {
	layer := models.MarketContextLayer{IndexMoves: []models.IndexMove{}}
	var ev Collector

	if m := weekRe.FindStringSubmatch(cleanedText); m != nil {
		label := m[1]
		layer.WeekLabel = &label
		ev.Add("market_context.week", "market:week", weekPattern, label)
	}

	for _, idx := range p.indexes {
		m := idx.re.FindStringSubmatch(cleanedText)
		if m == nil {
			continue
		}
		percent, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		dir := models.DirectionOf(percent)
		match := ev.Add("market_context.index", "market:index_move", idx.re.String(), m[0])
		layer.IndexMoves = append(layer.IndexMoves, models.IndexMove{
			Index:         idx.name,
			PercentChange: &percent,
			Direction:     &dir,
			Evidence:      []models.EvidenceMatch{match},
		})
	}

	return layer, ev.Items()
}
