package finnhub

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SentimentDesk/internal/domain/models"
	xhttp "SentimentDesk/pkg/http"
	"SentimentDesk/pkg/util"

	"golang.org/x/time/rate"
)

// Quote is the /quote response. Fields are pointers so an absent value stays absent.
type Quote struct {
	Current       *float64 `json:"c"`
	Change        *float64 `json:"d"`
	PercentChange *float64 `json:"dp"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	Open          *float64 `json:"o"`
	PrevClose     *float64 `json:"pc"`
	Timestamp     int64    `json:"t"`
}

// Candles is the /stock/candle response.
type Candles struct {
	Close  []float64 `json:"c"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Open   []float64 `json:"o"`
	Time   []int64   `json:"t"`
	Volume []float64 `json:"v"`
	Status string    `json:"s"`
}

// Client is a Finnhub REST client. Requests share one token-bucket limiter.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// New builds a client. ratePerSec <= 0 disables client-side limiting.
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

func (c *Client) Name() string { return models.ProviderFinnhub }

// Fetch returns the current quote for symbol plus, when available, the candle of weekID.
// Without an API key the snapshot is a stub with an empty payload.
func (c *Client) Fetch(ctx context.Context, symbol, weekID string) (*models.MarketDataSnapshot, error) {
	snap := &models.MarketDataSnapshot{
		Provider:  models.ProviderFinnhub,
		Symbol:    symbol,
		CacheKey:  models.SnapshotCacheKey(models.ProviderFinnhub, symbol, weekID),
		Payload:   map[string]interface{}{},
		Status:    models.SnapshotStub,
		FetchedAt: c.now().UTC(),
	}
	if c.apiKey == "" {
		return snap, nil
	}

	q, err := c.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	putFloat(snap.Payload, "c", q.Current)
	putFloat(snap.Payload, "d", q.Change)
	putFloat(snap.Payload, "dp", q.PercentChange)
	putFloat(snap.Payload, "h", q.High)
	putFloat(snap.Payload, "l", q.Low)
	putFloat(snap.Payload, "o", q.Open)
	putFloat(snap.Payload, "pc", q.PrevClose)
	if q.Timestamp > 0 {
		snap.Payload["t"] = q.Timestamp
	}

	if from, to, err := util.WeekRange(weekID); err == nil {
		// Candles are a premium endpoint on some plans; the quote alone is enough.
		if candles, err := c.WeeklyCandles(ctx, symbol, from, to); err == nil && candles.Status == "ok" {
			snap.Payload["week_candle"] = candles
		}
	}

	snap.Status = models.SnapshotOK
	return snap, nil
}

func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, "/quote", map[string][]string{"symbol": {symbol}}, &q); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	return &q, nil
}

func (c *Client) WeeklyCandles(ctx context.Context, symbol string, from, to time.Time) (*Candles, error) {
	var out Candles
	err := c.get(ctx, "/stock/candle", map[string][]string{
		"symbol":     {symbol},
		"resolution": {"W"},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	query["token"] = []string{c.apiKey}
	return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, dest)
}

func putFloat(m map[string]interface{}, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
