package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SentimentDesk/internal/domain/models"
)

func strPtr(s string) *string { return &s }

func TestExtractMentions(t *testing.T) {
	stocks := []models.OvervaluedStock{
		{Rank: 1, Name: "Nvidia", Ticker: strPtr("NVDA")},
		{Rank: 2, Name: "Tesla", Ticker: strPtr(" tsla ")},
		{Rank: 3, Name: "Palantir"},
		{Rank: 4, Name: "  ", Ticker: strPtr("XXX")},
	}
	text := "1. Nvidia (NVDA)\n" +
		"NVDA bleibt stark.\n" +
		"\n" +
		"Nvidia bleibt stark.\n" +
		"NVDA bleibt stark.\n" +
		"Tesla und Nvidia schwächeln.\n" +
		"NVDAX ist kein Treffer.\n" +
		"Palantir ohne Ticker."

	got := ExtractMentions(text, stocks)

	assert.Equal(t, map[string][]string{
		"NVDA": {"NVDA bleibt stark.", "Nvidia bleibt stark.", "Tesla und Nvidia schwächeln."},
		"TSLA": {"Tesla und Nvidia schwächeln."},
	}, got)
}

func TestExtractMentionsFoldedName(t *testing.T) {
	stocks := []models.OvervaluedStock{{Rank: 1, Name: "Société Générale", Ticker: strPtr("GLE")}}
	got := ExtractMentions("Die SOCIETE GENERALE meldet Zahlen.", stocks)
	assert.Equal(t, []string{"Die SOCIETE GENERALE meldet Zahlen."}, got["GLE"])
}

func TestExtractMentionsNoTargets(t *testing.T) {
	got := ExtractMentions("irgendein Text", nil)
	assert.Empty(t, got)
}
