package simfin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SentimentDesk/internal/domain/models"
	xhttp "SentimentDesk/pkg/http"

	"golang.org/x/time/rate"
)

// Statements requested from /companies/statements/compact: income, balance sheet, cash flow.
const defaultStatements = "PL,BS,CF"

// CompanyStatements is one element of the compact statements response.
type CompanyStatements struct {
	Ticker     string             `json:"ticker"`
	Name       string             `json:"name"`
	Statements []CompactStatement `json:"statements"`
}

// CompactStatement keeps column names and rows side by side, as SimFin returns them.
type CompactStatement struct {
	Statement string          `json:"statement"`
	Columns   []string        `json:"columns"`
	Data      [][]interface{} `json:"data"`
}

type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func New(apiKey, baseURL string, ratePerSec float64, timeout time.Duration) *Client {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

func (c *Client) Name() string { return models.ProviderSimFin }

// Fetch returns the latest compact statements for symbol. A company SimFin does not
// cover yields an ok snapshot with an empty payload so callers can fall back.
func (c *Client) Fetch(ctx context.Context, symbol, weekID string) (*models.MarketDataSnapshot, error) {
	snap := &models.MarketDataSnapshot{
		Provider:  models.ProviderSimFin,
		Symbol:    symbol,
		CacheKey:  models.SnapshotCacheKey(models.ProviderSimFin, symbol, weekID),
		Payload:   map[string]interface{}{},
		Status:    models.SnapshotStub,
		FetchedAt: c.now().UTC(),
	}
	if c.apiKey == "" {
		return snap, nil
	}

	companies, err := c.Statements(ctx, symbol)
	if err != nil {
		return nil, err
	}
	snap.Status = models.SnapshotOK
	for _, company := range companies {
		if len(company.Statements) == 0 {
			continue
		}
		snap.Payload["ticker"] = company.Ticker
		snap.Payload["name"] = company.Name
		snap.Payload["statements"] = company.Statements
		break
	}
	return snap, nil
}

func (c *Client) Statements(ctx context.Context, symbol string) ([]CompanyStatements, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL:     c.baseURL + "/companies/statements/compact",
		Headers: map[string]string{"Authorization": "api-key " + c.apiKey},
		QueryParams: map[string][]string{
			"ticker":     {symbol},
			"statements": {defaultStatements},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("simfin statements %s: %w", symbol, err)
	}

	// Unknown tickers come back as an empty body or an empty array.
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var out []CompanyStatements
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("simfin statements %s: decode: %w", symbol, err)
	}
	return out, nil
}
