package simfin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SentimentDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		status      int
		body        string
		wantStatus  string
		wantPayload bool
		wantErr     bool
	}{
		{name: "no key", key: "", wantStatus: models.SnapshotStub},
		{
			name:        "statements",
			key:         "abc",
			status:      http.StatusOK,
			body:        `[{"ticker":"NVDA","name":"NVIDIA Corp","statements":[{"statement":"PL","columns":["Fiscal Year","Revenue"],"data":[[2025,130497000000]]}]}]`,
			wantStatus:  models.SnapshotOK,
			wantPayload: true,
		},
		{name: "unknown ticker", key: "abc", status: http.StatusOK, body: `[]`, wantStatus: models.SnapshotOK},
		{name: "empty body", key: "abc", status: http.StatusOK, body: ``, wantStatus: models.SnapshotOK},
		{name: "unauthorized", key: "abc", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/companies/statements/compact", r.URL.Path)
				assert.Equal(t, "api-key "+tt.key, r.Header.Get("Authorization"))
				assert.Equal(t, "NVDA", r.URL.Query().Get("ticker"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			snap, err := New(tt.key, srv.URL, 0, time.Second).Fetch(context.Background(), "NVDA", "2026-W04")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "simfin statements NVDA")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, snap.Status)
			assert.Equal(t, tt.wantPayload, snap.HasPayload())
			assert.Equal(t, "simfin:NVDA:2026-W04", snap.CacheKey)
			if tt.wantPayload {
				assert.Equal(t, "NVIDIA Corp", snap.Payload["name"])
			}
		})
	}
}
