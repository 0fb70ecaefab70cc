package parsing

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/pkg/config"
)

var capexSectionKeywords = []string{"capex"}

// Parser turns raw report text into layers and evidence. It holds only configuration
// compiled at construction and is safe for concurrent use.
type Parser struct {
	riskClusters  []riskCluster
	indexes       []indexMatcher
	maxInputBytes int
}

// New compiles the parser configuration. Keywords are folded once here so matching
// is diacritic- and case-insensitive on both sides.
func New(cfg config.ParserConfig) *Parser {
	p := &Parser{maxInputBytes: cfg.MaxInputBytes}

	for _, c := range cfg.RiskKeywords {
		rc := riskCluster{label: c.Label, pattern: strings.Join(c.Keywords, "|")}
		for _, kw := range c.Keywords {
			if f := Fold(kw); f != "" {
				rc.folded = append(rc.folded, f)
			}
		}
		p.riskClusters = append(p.riskClusters, rc)
	}

	for _, name := range cfg.IndexNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p.indexes = append(p.indexes, indexMatcher{name: name, re: regexp.MustCompile(indexMovePattern(name))})
	}

	return p
}

// Parse runs normalization, segmentation and the four extractors. Evidence is concatenated
// in valuation, capex, risk, market order.
func (p *Parser) Parse(raw string) models.ParsedContent {
	cleaned := Clean(p.truncate(raw))
	sections := SplitSections(cleaned)

	valuationText := FindSectionText(sections, valuationSectionKeywords)
	if valuationText == "" {
		valuationText = cleaned
	}
	capexText := FindSectionText(sections, capexSectionKeywords)
	if capexText == "" {
		capexText = cleaned
	}

	stocks, valuationEv := p.ExtractOvervaluedStocks(valuationText)
	capex, capexEv := p.ExtractCapex(capexText)
	risk, riskEv := p.ExtractRiskClusters(cleaned)
	market, marketEv := p.ExtractMarketContext(cleaned)

	evidence := make([]models.EvidenceMatch, 0, len(valuationEv)+len(capexEv)+len(riskEv)+len(marketEv))
	evidence = append(evidence, valuationEv...)
	evidence = append(evidence, capexEv...)
	evidence = append(evidence, riskEv...)
	evidence = append(evidence, marketEv...)

	return models.ParsedContent{
		CleanedText: cleaned,
		Layers: models.LayerInput{
			Valuation:     models.ValuationLayer{OvervaluedStocks: stocks},
			Capex:         capex,
			Risk:          risk,
			MarketContext: market,
		},
		Evidence: evidence,
	}
}

// truncate cuts raw to maxInputBytes on a rune boundary. The API rejects larger input first.
func (p *Parser) truncate(raw string) string {
	if p.maxInputBytes <= 0 || len(raw) <= p.maxInputBytes {
		return raw
	}
	n := p.maxInputBytes
	for n > 0 && !utf8.RuneStart(raw[n]) {
		n--
	}
	return raw[:n]
}
