package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/reconcile"
	"github.com/autolot/inventory-sync/internal/store"
)

const (
	// syncTimeout bounds a manually triggered run; a large dealer with
	// photo rehosting can take several minutes.
	syncTimeout   = 10 * time.Minute
	statusTimeout = 3 * time.Second
)

// Syncer runs one dealer sync and reports its outcome.
type Syncer interface {
	SyncDealer(ctx context.Context, dealerID string) inventory.SyncSummary
}

// SyncHandler exposes the manual sync trigger and sync status endpoints.
type SyncHandler struct {
	syncer  Syncer
	dealers store.DealerStore
	logger  *zap.Logger
}

// NewSyncHandler wires the syncer, dealer store, and logger.
func NewSyncHandler(syncer Syncer, dealers store.DealerStore, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{syncer: syncer, dealers: dealers, logger: logger}
}

type triggerSyncRequest struct {
	DealerID string `json:"dealer_id"`
}

type syncSummaryResponse struct {
	DealerID   string `json:"dealer_id"`
	DealerName string `json:"dealer_name,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Found      int    `json:"found"`
	Added      int    `json:"added"`
	Updated    int    `json:"updated"`
	MarkedSold int    `json:"marked_sold"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// TriggerSync handles POST /v1/sync. The body names one dealer; the run
// executes inline and the response carries its full summary. It returns
// 400 for a bad body, 404 for an unknown dealer, 409 when another run
// already owns the dealer, and 502 when the run itself fails.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req triggerSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.DealerID) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "dealer_id required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()

	if _, err := h.dealers.Get(ctx, req.DealerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "dealer not found")
			return
		}
		h.logger.Error("load dealer failed", zap.String("dealer_id", req.DealerID), zap.Error(err))
		writeError(h.logger, w, http.StatusInternalServerError, "failed to load dealer")
		return
	}

	summary := h.syncer.SyncDealer(ctx, req.DealerID)
	status := http.StatusOK
	if !summary.Success {
		status = http.StatusBadGateway
		if summary.Error == reconcile.ErrSyncInProgress.Error() {
			status = http.StatusConflict
		}
	}
	writeJSON(h.logger, w, status, toSummaryResponse(summary))
}

type dealerSyncResponse struct {
	DealerID        string     `json:"dealer_id"`
	LastSyncAt      *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus  string     `json:"last_sync_status,omitempty"`
	LastSyncMessage string     `json:"last_sync_message,omitempty"`
}

// GetSyncStatus handles GET /v1/dealers/{dealer_id}/sync and returns the
// dealer's persisted last sync status, or 404 for an unknown dealer.
func (h *SyncHandler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	dealerID := chi.URLParam(r, "dealer_id")

	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	dealer, err := h.dealers.Get(ctx, dealerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "dealer not found")
			return
		}
		h.logger.Error("load dealer failed", zap.String("dealer_id", dealerID), zap.Error(err))
		writeError(h.logger, w, http.StatusInternalServerError, "failed to load dealer")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, dealerSyncResponse{
		DealerID:        dealer.ID,
		LastSyncAt:      dealer.LastSyncAt,
		LastSyncStatus:  string(dealer.LastSyncStatus),
		LastSyncMessage: dealer.LastSyncMessage,
	})
}

func toSummaryResponse(s inventory.SyncSummary) syncSummaryResponse {
	return syncSummaryResponse{
		DealerID:   s.DealerID,
		DealerName: s.DealerName,
		Success:    s.Success,
		Error:      s.Error,
		Found:      s.Stats.Found,
		Added:      s.Stats.Added,
		Updated:    s.Stats.Updated,
		MarkedSold: s.Stats.MarkedSold,
		Failed:     s.Stats.Failed,
		DurationMS: s.Duration.Milliseconds(),
	}
}
