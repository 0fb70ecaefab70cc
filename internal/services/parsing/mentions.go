package parsing

import (
	"regexp"
	"strings"

	"SentimentDesk/internal/domain/models"
)

type mentionTarget struct {
	ticker     string
	tickerRe   *regexp.Regexp
	foldedName string
}

// ExtractMentions collects, per ticker, the report lines that mention the stock either by
// ticker (whole word) or by its folded name. Stock header lines are skipped. Lines keep
// first-seen order and appear once per ticker.
func ExtractMentions(cleanedText string, stocks []models.OvervaluedStock) map[string][]string {
	mentions := make(map[string][]string)
	targets := make([]mentionTarget, 0, len(stocks))

	for _, s := range stocks {
		ticker := strings.ToUpper(s.TickerValue())
		name := strings.TrimSpace(s.Name)
		if ticker == "" || name == "" {
			continue
		}
		mentions[ticker] = []string{}
		targets = append(targets, mentionTarget{
			ticker:     ticker,
			tickerRe:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(ticker) + `\b`),
			foldedName: Fold(name),
		})
	}
	if len(targets) == 0 {
		return mentions
	}

	seen := make(map[string]map[string]struct{}, len(targets))
	for _, t := range targets {
		seen[t.ticker] = make(map[string]struct{})
	}

	for _, raw := range splitLines(cleanedText) {
		line := strings.TrimSpace(raw)
		if line == "" || stockHeaderRe.MatchString(line) {
			continue
		}
		folded := Fold(line)
		for _, t := range targets {
			if !t.tickerRe.MatchString(line) && !(t.foldedName != "" && strings.Contains(folded, t.foldedName)) {
				continue
			}
			if _, dup := seen[t.ticker][line]; dup {
				continue
			}
			seen[t.ticker][line] = struct{}{}
			mentions[t.ticker] = append(mentions[t.ticker], line)
		}
	}

	return mentions
}
