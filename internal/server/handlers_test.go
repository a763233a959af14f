package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/floatlabs/floatchat/internal/argo"
	"github.com/floatlabs/floatchat/internal/chat"
	"github.com/floatlabs/floatchat/internal/store"
)

func fptr(v float64) *float64 { return &v }

func seedRecords() []store.Record {
	return []store.Record{
		{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), Latitude: 10.5, Longitude: 88.2, Depth: 5.2, Temperature: fptr(28.4), Salinity: fptr(34.1), Platform: "2902746"},
		{Time: time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC), Latitude: 11.0, Longitude: 88.9, Depth: 620.0, Temperature: fptr(4.7), Salinity: nil, Platform: "2902746"},
		{Time: time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC), Latitude: 11.4, Longitude: 89.3, Depth: 0, Temperature: fptr(29.1), Salinity: fptr(33.8), Platform: "2902755"},
	}
}

func newTestServer(t *testing.T, records []store.Record) *Server {
	t.Helper()

	mem := store.NewMemoryStore()
	require.NoError(t, mem.Insert(context.Background(), records))

	logger := slog.New(slog.DiscardHandler)
	srv, err := New(&Config{
		Logger:    logger,
		Clock:     clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		Store:     mem,
		Data:      argo.New(mem, logger),
		Responder: chat.NewRuleBasedResponder(),
		Version:   "test",
	})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var doc map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	}
	return rec, doc
}

func TestRoot(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, nil), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "floatchat-api", doc["service"])
	require.Equal(t, "test", doc["version"])
	require.Equal(t, "2025-06-01T00:00:00Z", doc["time"])
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", doc["status"])
}

func TestNotFoundJSON(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, nil), http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not found", doc["error"])
}

func TestChat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
		wantSubstr string
	}{
		{"valid question", `{"message": "how warm is the water?"}`, http.StatusOK, "reply", "temperature ranges"},
		{"missing message", `{}`, http.StatusBadRequest, "error", "Message is required"},
		{"blank message", `{"message": "   "}`, http.StatusBadRequest, "error", "Message is required"},
		{"malformed body", `{"message": `, http.StatusBadRequest, "error", "Invalid JSON body"},
		{"unknown keys ignored", `{"message": "depth?", "bogus": true}`, http.StatusOK, "reply", "dbar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, doc := doJSON(t, newTestServer(t, seedRecords()), http.MethodPost, "/api/chat", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Contains(t, doc[tt.wantField], tt.wantSubstr)
		})
	}
}

func TestChat_EmptyDataset(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, nil), http.MethodPost, "/api/chat", `{"message": "temperature?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, doc["reply"], "loaded yet")
}

func TestStats(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, seedRecords()), http.MethodGet, "/api/data/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 3, doc["total_records"])
	require.EqualValues(t, 2, doc["float_count"])

	depth := doc["depth_range"].(map[string]any)
	require.Equal(t, 0.0, depth["min"])
	require.Equal(t, 620.0, depth["max"])
	require.Equal(t, "dbar", depth["unit"])

	require.NotNil(t, doc["temperature"])
	require.NotNil(t, doc["salinity"])
}

func TestStats_Empty(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, nil), http.MethodGet, "/api/data/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, doc["total_records"])
	require.Equal(t, "No data available", doc["message"])
}

func TestQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantRows   int
	}{
		{"no filters", `{}`, http.StatusOK, 3},
		{"empty body defaults", ``, http.StatusOK, 3},
		{"depth filter", `{"max_depth": 100}`, http.StatusOK, 2},
		{"min depth zero includes surface", `{"min_depth": 0}`, http.StatusOK, 3},
		{"platform filter", `{"platform": "2902755"}`, http.StatusOK, 1},
		{"contradictory bounds", `{"min_depth": 500, "max_depth": 100}`, http.StatusOK, 0},
		{"limit", `{"limit": 1}`, http.StatusOK, 1},
		{"unknown keys ignored", `{"max_depth": 100, "bogus": 1}`, http.StatusOK, 2},
		{"malformed body", `{"max_depth": `, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, doc := doJSON(t, newTestServer(t, seedRecords()), http.MethodPost, "/api/data/query", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			data, ok := doc["data"].([]any)
			require.True(t, ok, "data must be an array, got %T", doc["data"])
			require.Len(t, data, tt.wantRows)
		})
	}
}

func TestQuery_RecordShape(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, seedRecords()), http.MethodPost, "/api/data/query", `{"platform": "2902746", "max_depth": 700, "min_depth": 100}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := doc["data"].([]any)
	require.Len(t, data, 1)
	row := data[0].(map[string]any)
	require.Equal(t, "2025-03-02T12:00:00Z", row["time"])
	require.Equal(t, 620.0, row["depth"])
	require.Equal(t, 4.7, row["temperature"])
	require.Nil(t, row["salinity"], "missing salinity must serialize as null")
	require.Equal(t, "2902746", row["platform"])
}

func TestQuery_OrderedNewestFirst(t *testing.T) {
	t.Parallel()

	rec, doc := doJSON(t, newTestServer(t, seedRecords()), http.MethodPost, "/api/data/query", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := doc["data"].([]any)
	var prev time.Time
	for i, raw := range data {
		row := raw.(map[string]any)
		ts, err := time.Parse(time.RFC3339, row["time"].(string))
		require.NoError(t, err)
		if i > 0 {
			require.False(t, ts.After(prev), "rows must be newest first")
		}
		prev = ts
	}
}

type failingStore struct{ store.Store }

func (failingStore) Summarize(context.Context) (*store.Summary, error) {
	return nil, errors.New("clickhouse down")
}

func TestStats_StoreErrorEnvelope(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	fs := failingStore{store.NewMemoryStore()}
	srv, err := New(&Config{
		Logger:    logger,
		Store:     fs,
		Data:      argo.New(fs, logger),
		Responder: chat.NewRuleBasedResponder(),
	})
	require.NoError(t, err)

	rec, doc := doJSON(t, srv, http.MethodGet, "/api/data/stats", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server error", doc["error"])
	require.True(t, strings.Contains(doc["details"].(string), "clickhouse down"))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	mem := store.NewMemoryStore()

	_, err := New(&Config{})
	require.ErrorContains(t, err, "logger is required")

	_, err = New(&Config{Logger: logger})
	require.ErrorContains(t, err, "store is required")

	_, err = New(&Config{Logger: logger, Store: mem})
	require.ErrorContains(t, err, "data service is required")

	_, err = New(&Config{Logger: logger, Store: mem, Data: argo.New(mem, logger)})
	require.ErrorContains(t, err, "responder is required")
}
