package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/config"
	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/reconcile"
	"github.com/autolot/inventory-sync/internal/store"
)

type fakeSyncer struct {
	summary inventory.SyncSummary
	calls   []string
}

func (f *fakeSyncer) SyncDealer(_ context.Context, dealerID string) inventory.SyncSummary {
	f.calls = append(f.calls, dealerID)
	out := f.summary
	out.DealerID = dealerID
	return out
}

func newTestServer(t *testing.T, syncer Syncer, dealers store.DealerStore, cfg config.Config) *httptest.Server {
	t.Helper()
	srv := NewServer(syncer, dealers, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func seedDealer(st *store.MemoryStore) inventory.Dealer {
	d := inventory.Dealer{
		ID:       "dealer-1",
		Name:     "Spokane Honda",
		City:     "Spokane",
		State:    "WA",
		FeedURL:  "https://www.spokanehonda.example",
		FeedType: inventory.FeedTypeDealerOn,
		Approved: true,
	}
	st.SeedDealer(d)
	return d
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeSyncer{}, store.NewMemoryStore(), config.Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeSyncer{}, store.NewMemoryStore(), config.Config{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTriggerSyncSuccess(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	seedDealer(st)
	syncer := &fakeSyncer{summary: inventory.SyncSummary{
		DealerName: "Spokane Honda",
		Success:    true,
		Stats:      inventory.SyncStats{Found: 3, Added: 1, Updated: 2},
		Duration:   1500 * time.Millisecond,
	}}
	ts := newTestServer(t, syncer, st, config.Config{})

	resp, err := http.Post(
		ts.URL+"/v1/sync",
		"application/json",
		bytes.NewBufferString(`{"dealer_id":"dealer-1"}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body syncSummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "dealer-1", body.DealerID)
	require.True(t, body.Success)
	require.Equal(t, 3, body.Found)
	require.Equal(t, 1, body.Added)
	require.Equal(t, 2, body.Updated)
	require.Equal(t, int64(1500), body.DurationMS)
	require.Equal(t, []string{"dealer-1"}, syncer.calls)
}

func TestTriggerSyncBadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing dealer id", body: `{}`},
		{name: "blank dealer id", body: `{"dealer_id":"  "}`},
	}

	st := store.NewMemoryStore()
	seedDealer(st)
	syncer := &fakeSyncer{}
	ts := newTestServer(t, syncer, st, config.Config{})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/sync", "application/json", bytes.NewBufferString(tc.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	require.Empty(t, syncer.calls)
}

func TestTriggerSyncUnknownDealer(t *testing.T) {
	t.Parallel()

	syncer := &fakeSyncer{}
	ts := newTestServer(t, syncer, store.NewMemoryStore(), config.Config{})

	resp, err := http.Post(
		ts.URL+"/v1/sync",
		"application/json",
		bytes.NewBufferString(`{"dealer_id":"missing"}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Empty(t, syncer.calls)
}

func TestTriggerSyncConflict(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	seedDealer(st)
	syncer := &fakeSyncer{summary: inventory.SyncSummary{
		Error: reconcile.ErrSyncInProgress.Error(),
	}}
	ts := newTestServer(t, syncer, st, config.Config{})

	resp, err := http.Post(
		ts.URL+"/v1/sync",
		"application/json",
		bytes.NewBufferString(`{"dealer_id":"dealer-1"}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTriggerSyncRunFailure(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	seedDealer(st)
	syncer := &fakeSyncer{summary: inventory.SyncSummary{
		Error: "scrape inventory: connection refused",
	}}
	ts := newTestServer(t, syncer, st, config.Config{})

	resp, err := http.Post(
		ts.URL+"/v1/sync",
		"application/json",
		bytes.NewBufferString(`{"dealer_id":"dealer-1"}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body syncSummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "scrape inventory: connection refused", body.Error)
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	d := seedDealer(st)
	at := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	require.NoError(t, st.RecordSyncResult(
		context.Background(), d.ID, inventory.SyncStatusSuccess, "Added: 2, Updated: 1, Sold: 0", at,
	))
	ts := newTestServer(t, &fakeSyncer{}, st, config.Config{})

	resp, err := http.Get(ts.URL + "/v1/dealers/dealer-1/sync")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dealerSyncResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "dealer-1", body.DealerID)
	require.Equal(t, string(inventory.SyncStatusSuccess), body.LastSyncStatus)
	require.Equal(t, "Added: 2, Updated: 1, Sold: 0", body.LastSyncMessage)
	require.NotNil(t, body.LastSyncAt)
	require.True(t, body.LastSyncAt.Equal(at))
}

func TestGetSyncStatusUnknownDealer(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeSyncer{}, store.NewMemoryStore(), config.Config{})

	resp, err := http.Get(ts.URL + "/v1/dealers/nope/sync")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	seedDealer(st)
	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "sekret"
	ts := newTestServer(t, &fakeSyncer{summary: inventory.SyncSummary{Success: true}}, st, cfg)

	// No key.
	resp, err := http.Post(ts.URL+"/v1/sync", "application/json", bytes.NewBufferString(`{"dealer_id":"dealer-1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Correct key via header.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/sync", bytes.NewBufferString(`{"dealer_id":"dealer-1"}`))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "sekret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open.
	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
