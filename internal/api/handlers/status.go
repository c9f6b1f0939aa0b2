package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/strmarr/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler reports record counts per download type plus cache size
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: logger}
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	downloads := make(map[string]int)
	for _, downloadType := range models.AllDownloadTypes() {
		count, err := h.db.CountDownloads(downloadType)
		if err != nil {
			h.logger.WithError(err).WithField("type", downloadType).Error("Failed to count downloads")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		downloads[string(downloadType)] = count
	}

	cacheEntries, err := h.db.CountCacheEntries()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count cache entries")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"downloads":     downloads,
		"cache_entries": cacheEntries,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
