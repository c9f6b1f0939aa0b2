package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/amaumene/strmarr/internal/api"
	"github.com/amaumene/strmarr/internal/config"
	"github.com/amaumene/strmarr/internal/controllers"
	"github.com/amaumene/strmarr/internal/metadata"
	"github.com/amaumene/strmarr/internal/models"
	"github.com/amaumene/strmarr/internal/scheduler"
	"github.com/amaumene/strmarr/internal/services/torbox"
	"github.com/amaumene/strmarr/internal/strm"
	"github.com/amaumene/strmarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting strmarr")
	logger.WithField("mount_path", cfg.MountPath).Info("Configuration loaded")

	writePidFile(cfg.PIDFile)
	defer removePidFile(cfg.PIDFile)

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize services
	torboxClient, err := torbox.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TorBox client: %w", err)
	}
	logger.Info("TorBox client initialized")

	metadataCache := metadata.NewCache(db, logger)
	resolver := metadata.NewResolver(controllers.NewMetadataSearcher(torboxClient), metadataCache, cfg.ScanMetadata, logger)

	strmService := strm.NewService(db, cfg, logger)
	if err := strmService.InitializeFolders(); err != nil {
		return fmt.Errorf("failed to initialize mount folders: %w", err)
	}
	logger.Info("Mount folders initialized")

	// 5. Initialize controllers
	processor := controllers.NewProcessor(db, torboxClient, resolver, cfg.ScanMetadata, cfg.EnableAudio, logger)
	fetchCtrl := controllers.NewFetchController(torboxClient, processor, metadataCache, cfg.ScanMetadata, logger)
	refreshCtrl := controllers.NewRefreshController(db, fetchCtrl, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler
	sched := scheduler.NewScheduler(refreshCtrl, strmService, cfg.MountRefreshHours, cfg.StrmSyncMinutes, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, db, refreshCtrl, strmService, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("strmarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
		strmService.Unmount()
	}

	logger.Info("strmarr stopped")
	return nil
}

func writePidFile(path string) {
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to write PID file: %v\n", err)
	}
}

func removePidFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Unable to remove PID file: %v\n", err)
	}
}
