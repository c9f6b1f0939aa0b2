package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/amaumene/strmarr/internal/controllers"
	"github.com/amaumene/strmarr/internal/strm"
	"github.com/sirupsen/logrus"
)

// RefreshHandler triggers a manual on-demand refresh cycle. Safe to run
// concurrently with a scheduled refresh; the document-store locks serialize
// conflicting writes.
type RefreshHandler struct {
	refreshCtrl *controllers.RefreshController
	strmService *strm.Service
	logger      *logrus.Logger

	running atomic.Bool
}

// NewRefreshHandler creates a new manual refresh handler
func NewRefreshHandler(refreshCtrl *controllers.RefreshController, strmService *strm.Service, logger *logrus.Logger) *RefreshHandler {
	return &RefreshHandler{
		refreshCtrl: refreshCtrl,
		strmService: strmService,
		logger:      logger,
	}
}

// ServeHTTP handles the manual refresh endpoint
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		http.Error(w, "Refresh already in progress", http.StatusConflict)
		return
	}

	go func() {
		defer h.running.Store(false)

		h.logger.Info("Received manual refresh request")
		count := h.refreshCtrl.RefreshAll(context.Background())
		if err := h.strmService.Sync(); err != nil {
			h.logger.WithError(err).Error("Strm sync after manual refresh failed")
		}
		h.logger.WithField("records", count).Info("Manual refresh completed")
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "refresh started"})
}
