package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"SentimentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weekBody struct {
	WeekID  string `param:"week_id" validate:"required,isoweek"`
	RawText string `json:"raw_text" validate:"required"`
	Limit   int    `json:"limit" default:"5" validate:"max=10"`
}

func bindRequest(t *testing.T, body string, week string) (interface{}, *weekBody) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("week_id")
	c.SetParamValues(week)

	out := &weekBody{}
	return ReadAndValidateRequest(c, out), out
}

func TestReadAndValidateRequestAppliesDefaults(t *testing.T) {
	verr, out := bindRequest(t, `{"raw_text":"KW 4/2026"}`, "2026-W04")
	require.Nil(t, verr)
	assert.Equal(t, 5, out.Limit)
	assert.Equal(t, "2026-W04", out.WeekID)
}

func TestReadAndValidateRequestReportsWireNames(t *testing.T) {
	verr, _ := bindRequest(t, `{"limit":11}`, "2026-W99")
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_ISOWEEK", byField["week_id"].Code)
	assert.Equal(t, "raw_text is required", byField["raw_text"].Message)
	assert.Equal(t, "10", byField["limit"].Params["max"])
}

func TestAppErrorResponseUsesStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, NotFoundErrorf("no report for week %s", "2026-W04")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
}

func TestServerServesMetricsAndEnvelopes404(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(logger.Nop(), nil, WithMetrics("/metrics", reg))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":404`)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "NVDA" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
			return
		}
		_, _ = w.Write([]byte(`{"c":181.2}`))
	}))
	defer srv.Close()

	c := NewClient()
	var out struct {
		C float64 `json:"c"`
	}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		URL:         srv.URL,
		QueryParams: map[string][]string{"symbol": {"NVDA"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 181.2, out.C)

	err = c.SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "slow down", se.Body)
}

func TestClientSendsRequestedMethod(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient()
	var out map[string]interface{}
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &out))
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{Method: MethodPost, URL: srv.URL, Body: map[string]string{"a": "b"}}, &out))
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{URL: srv.URL}, &out))

	assert.Equal(t, []string{http.MethodGet, http.MethodPost, http.MethodGet}, got)
}
