package controllers

import (
	"context"

	"github.com/amaumene/strmarr/internal/models"
	"github.com/sirupsen/logrus"
)

// RefreshController runs the full refresh cycle: for each download type,
// clear its persisted records and rebuild them from a fresh listing pass.
// One failing type never stops the others.
type RefreshController struct {
	db        *models.Database
	fetchCtrl *FetchController
	logger    *logrus.Logger
}

// NewRefreshController creates a refresh controller
func NewRefreshController(db *models.Database, fetchCtrl *FetchController, logger *logrus.Logger) *RefreshController {
	return &RefreshController{
		db:        db,
		fetchCtrl: fetchCtrl,
		logger:    logger,
	}
}

// RefreshAll refreshes every download type and returns the total number of
// records written
func (c *RefreshController) RefreshAll(ctx context.Context) int {
	total := 0

	for _, downloadType := range models.AllDownloadTypes() {
		log := c.logger.WithField("type", downloadType)

		log.Debug("Clearing records")
		if err := c.db.ClearDownloads(downloadType); err != nil {
			log.WithError(err).Error("Failed to clear records")
			continue
		}

		log.Debug("Fetching downloads")
		records, ok, detail := c.fetchCtrl.FetchDownloads(ctx, downloadType)
		if !ok {
			log.WithField("detail", detail).Error("Failed to fetch downloads")
			continue
		}
		if len(records) == 0 {
			log.Info("No downloads found")
			continue
		}

		total += len(records)
		log.WithField("count", len(records)).Info("Refreshed downloads")
	}

	return total
}
