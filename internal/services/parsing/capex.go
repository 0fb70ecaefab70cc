package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"SentimentDesk/internal/domain/models"
)

const (
	amountPattern  = `([0-9]{1,4}(?:[.,][0-9]+)?)\s*(?:mrd|milliarden|billion|bn|b)\b`
	percentPattern = `([0-9]{1,3}(?:[.,][0-9]+)?)\s*%`
)

var (
	amountRe  = regexp.MustCompile(`(?i)` + amountPattern)
	percentRe = regexp.MustCompile(percentPattern)
	yearRe    = regexp.MustCompile(`\b(20\d{2})\b`)

	// Checked in order; the first name found on a line wins.
	capexCompanies = []string{
		"Amazon",
		"Microsoft",
		"Google",
		"Meta",
		"Oracle",
		"Alphabet",
		"Apple",
		"Nvidia",
		"Tesla",
		"Palantir",
		"Broadcom",
	}
	capexTotalKeywords = []string{"aggreg", "gesamt", "total", "insgesamt"}
)

// ExtractCapex scans each line for an amount in billions. Lines naming a known company become
// items; otherwise total and AI-share lines set the layer values, the last one winning.
func (p *Parser) ExtractCapex(sectionText string) (models.CapexLayer, []models.EvidenceMatch) {
	layer := models.CapexLayer{CapexItems: []models.CapexItem{}}
	var ev Collector
	if sectionText == "" {
		return layer, ev.Items()
	}

	for _, raw := range splitLines(sectionText) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		m := amountRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amount, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		lower := strings.ToLower(line)

		if company := matchCompany(lower); company != "" {
			match := ev.Add("capex.item", "capex:amount", amountPattern, m[0])
			item := models.CapexItem{
				Company:          company,
				AmountUSDBillion: &amount,
				Evidence:         []models.EvidenceMatch{match},
			}
			if y := yearRe.FindStringSubmatch(line); y != nil {
				if year, err := strconv.Atoi(y[1]); err == nil {
					item.Year = &year
				}
			}
			layer.CapexItems = append(layer.CapexItems, item)
			continue
		}

		if containsAny(lower, capexTotalKeywords) {
			total := amount
			layer.CapexTotalUSDBillion = &total
			ev.Add("capex.total", "capex:total", amountPattern, m[0])
		}

		if strings.Contains(lower, "ai") {
			if pm := percentRe.FindStringSubmatch(line); pm != nil {
				if share, ok := parseNumber(pm[1]); ok {
					layer.AISharePercent = &share
					ev.Add("capex.ai_share", "capex:ai_share", percentPattern, pm[0])
				}
			}
		}
	}

	return layer, ev.Items()
}

func matchCompany(lowerLine string) string {
	for _, name := range capexCompanies {
		if strings.Contains(lowerLine, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
