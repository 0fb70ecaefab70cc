package parsing

import (
	"strings"
	"unicode/utf8"

	"SentimentDesk/internal/domain/models"
)

// snippetPad is the number of folded characters kept on each side of a risk keyword hit.
const snippetPad = 40

type riskCluster struct {
	label   string
	pattern string
	folded  []string
}

// ExtractRiskClusters counts keyword hits per configured cluster over the whole cleaned text.
// Clusters without hits are omitted. One snippet is kept per cluster, taken around the first
// hit of the first keyword (in list order) that occurs at all.
func (p *Parser) ExtractRiskClusters(cleanedText string) (models.RiskLayer, []models.EvidenceMatch) {
	layer := models.RiskLayer{RiskClusters: []models.RiskCluster{}}
	var ev Collector

	folded, offsets := foldIndexed(cleanedText)

	for _, c := range p.riskClusters {
		count := 0
		snippet := ""
		found := false
		for _, kw := range c.folded {
			n := strings.Count(folded, kw)
			if n == 0 {
				continue
			}
			count += n
			if !found {
				found = true
				at := strings.Index(folded, kw)
				start := utf8.RuneCountInString(folded[:at])
				end := start + utf8.RuneCountInString(kw)
				snippet = window(cleanedText, offsets, start, end, snippetPad)
			}
		}
		if count == 0 {
			continue
		}

		cluster := models.RiskCluster{Label: c.label, Count: count, Evidence: []models.EvidenceMatch{}}
		if strings.TrimSpace(snippet) != "" {
			cluster.Evidence = append(cluster.Evidence, ev.Add("risk.cluster", "risk:"+c.label, c.pattern, snippet))
		}
		layer.RiskClusters = append(layer.RiskClusters, cluster)
	}

	return layer, ev.Items()
}
