package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/strmarr/internal/controllers"
	"github.com/amaumene/strmarr/internal/strm"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages the periodic refresh and strm sync cycles
type Scheduler struct {
	cron            *cron.Cron
	refreshCtrl     *controllers.RefreshController
	strmService     *strm.Service
	refreshHours    int
	strmSyncMinutes int
	logger          *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(refreshCtrl *controllers.RefreshController, strmService *strm.Service, refreshHours, strmSyncMinutes int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		refreshCtrl:     refreshCtrl,
		strmService:     strmService,
		refreshHours:    refreshHours,
		strmSyncMinutes: strmSyncMinutes,
		logger:          logger,
	}
}

// Start starts the scheduler and runs an initial refresh immediately
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %dh", s.refreshHours), func() {
		s.runRefresh()
	})
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	_, err = s.cron.AddFunc(fmt.Sprintf("@every %dm", s.strmSyncMinutes), func() {
		s.runStrmSync()
	})
	if err != nil {
		return fmt.Errorf("failed to add strm sync job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run initial refresh and strm sync immediately
	go func() {
		s.runRefresh()
		s.runStrmSync()
	}()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runRefresh executes the full refresh cycle
func (s *Scheduler) runRefresh() {
	s.logger.Info("Running scheduled refresh")
	ctx := context.Background()

	count := s.refreshCtrl.RefreshAll(ctx)
	s.logger.WithField("records", count).Info("Refresh cycle completed")
}

// runStrmSync rewrites the strm library from the current records
func (s *Scheduler) runStrmSync() {
	s.logger.Debug("Running strm sync")

	if err := s.strmService.Sync(); err != nil {
		s.logger.WithError(err).Error("Strm sync failed")
	}
}
