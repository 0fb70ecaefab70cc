package parsing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"SentimentDesk/internal/domain/models"
)

const maxOvervaluedStocks = 5

var (
	valuationSectionKeywords = []string{"uberwert", "ubergewicht", "overvalu", "bewert"}

	stockHeaderRe = regexp.MustCompile(`(?i)^\s*(?:#+\s*)?\*{0,2}(?:Platz\s*)?(\d+)[.:)]?\s*\*{0,2}(.+?)\s*(?:\(([^)]+)\))?\s*(?:[-\x{2013}\x{2014}]\s*(.*))?$`)
	nameDashRe    = regexp.MustCompile(`\s*[-\x{2013}\x{2014}]\s*`)
	numberRe      = regexp.MustCompile(`[+-]?[0-9]+(?:[.,][0-9]+)?`)
)

// ratioRule is an ordered list of patterns for one ratio. The first pattern that matches
// anywhere in the block wins, so the order encodes precedence.
type ratioRule struct {
	field    string
	patterns []string
	compiled []*regexp.Regexp
}

func newRatioRule(field string, patterns ...string) ratioRule {
	r := ratioRule{field: field, patterns: patterns}
	for _, p := range patterns {
		r.compiled = append(r.compiled, regexp.MustCompile("(?i)"+p))
	}
	return r
}

const ratioNumber = `[0-9]+(?:[.,][0-9]+)?`

var (
	peRule = newRatioRule("valuation.pe_ratio",
		`\bKGV[^0-9]*`+ratioNumber,
		`\bP\s*/\s*E[^0-9]*`+ratioNumber,
		`price[- ]to[- ]earnings[^0-9]*`+ratioNumber,
	)
	pbRule = newRatioRule("valuation.pb_ratio",
		`\bKBV[^0-9]*`+ratioNumber,
		`\bP\s*/\s*B[^0-9]*`+ratioNumber,
		`price[- ]to[- ]book[^0-9]*`+ratioNumber,
	)
	pcfRule = newRatioRule("valuation.pcf_ratio",
		`\bKCV[^0-9]*`+ratioNumber,
		`\bP\s*/\s*CF[^0-9]*`+ratioNumber,
		`price[- ]to[- ]cash[- ]flow[^0-9]*`+ratioNumber,
	)
)

func (r ratioRule) extract(block string, ev *Collector) (*models.RatioValue, *models.EvidenceMatch) {
	for i, re := range r.compiled {
		span := re.FindString(block)
		if span == "" {
			continue
		}
		num := numberRe.FindString(span)
		if num == "" {
			continue
		}
		v, ok := parseNumber(num)
		if !ok {
			continue
		}
		raw := span
		match := ev.Add(r.field, "ratio:"+r.field, r.patterns[i], span)
		return &models.RatioValue{Value: &v, Raw: &raw}, &match
	}
	return nil, nil
}

type stockBlock struct {
	rank    int
	name    string
	ticker  string
	comment string
	lines   []string
}

// ExtractOvervaluedStocks reads the ranked stock picks from the valuation section text.
// Blocks are ordered by rank and capped at five.
func (p *Parser) ExtractOvervaluedStocks(sectionText string) ([]models.OvervaluedStock, []models.EvidenceMatch) {
	stocks := make([]models.OvervaluedStock, 0, maxOvervaluedStocks)
	var ev Collector
	if sectionText == "" {
		return stocks, ev.Items()
	}

	var (
		blocks  []*stockBlock
		current *stockBlock
	)
	for _, raw := range splitLines(sectionText) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if b, ok := parseStockHeader(strings.TrimSpace(strings.ReplaceAll(line, "**", ""))); ok {
			if b == nil {
				continue
			}
			if current != nil {
				blocks = append(blocks, current)
			}
			current = b
			continue
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	if current != nil {
		blocks = append(blocks, current)
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].rank < blocks[j].rank })
	if len(blocks) > maxOvervaluedStocks {
		blocks = blocks[:maxOvervaluedStocks]
	}

	for _, b := range blocks {
		body := strings.Join(b.lines, "\n")
		stock := models.OvervaluedStock{
			Rank:       b.rank,
			Name:       b.name,
			Commentary: joinCommentary(b.comment, b.lines),
			Evidence:   []models.EvidenceMatch{},
		}
		if b.ticker != "" {
			t := b.ticker
			stock.Ticker = &t
		}

		var match *models.EvidenceMatch
		if stock.PERatio, match = peRule.extract(body, &ev); match != nil {
			stock.Evidence = append(stock.Evidence, *match)
		}
		if stock.PBRatio, match = pbRule.extract(body, &ev); match != nil {
			stock.Evidence = append(stock.Evidence, *match)
		}
		if stock.PCFRatio, match = pcfRule.extract(body, &ev); match != nil {
			stock.Evidence = append(stock.Evidence, *match)
		}
		stocks = append(stocks, stock)
	}

	return stocks, ev.Items()
}

// parseStockHeader reports whether line is a stock header. A nil block with ok=true means
// the header is a generic lead-in ("die fünf ...") and must be dropped.
func parseStockHeader(line string) (*stockBlock, bool) {
	m := stockHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	rank, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	name := strings.TrimSpace(nameDashRe.Split(strings.TrimSpace(m[2]), 2)[0])
	if strings.Contains(strings.ToLower(name), "die fünf") {
		return nil, true
	}
	return &stockBlock{
		rank:    rank,
		name:    name,
		ticker:  strings.TrimSpace(m[3]),
		comment: strings.TrimSpace(m[4]),
	}, true
}

func joinCommentary(inline string, lines []string) *string {
	parts := make([]string, 0, 2)
	if inline != "" {
		parts = append(parts, inline)
	}
	if body := strings.Join(lines, " "); body != "" {
		parts = append(parts, body)
	}
	c := strings.TrimSpace(strings.Join(parts, " "))
	if c == "" {
		return nil
	}
	return &c
}
