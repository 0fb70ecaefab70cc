package parsing

import (
	"strconv"
	"strings"

	"SentimentDesk/internal/domain/models"
)

// Collector accumulates evidence for a single extractor call. Not safe for concurrent use;
// each extractor owns its own.
type Collector struct {
	items []models.EvidenceMatch
}

// Add records a match and returns it so callers can attach it to the extracted item too.
func (c *Collector) Add(field, ruleID, pattern, snippet string) models.EvidenceMatch {
	ev := models.EvidenceMatch{
		Field:   field,
		RuleID:  ruleID,
		Pattern: pattern,
		Snippet: strings.TrimSpace(snippet),
	}
	c.items = append(c.items, ev)
	return ev
}

// Items returns a copy of everything collected so far.
func (c *Collector) Items() []models.EvidenceMatch {
	out := make([]models.EvidenceMatch, len(c.items))
	copy(out, c.items)
	return out
}

// parseNumber reads a matched numeric token: "+" dropped, comma treated as decimal separator.
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(raw, "+", ""), ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
