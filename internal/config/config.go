package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TorBox
	TorBoxAPIKey string

	// Metadata
	ScanMetadata bool
	EnableAudio  bool

	// Mount
	MountPath         string
	MountRefreshHours int
	StrmSyncMinutes   int
	RawMode           bool

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/strmarr.db
	PIDFile      string // $CONFIG_DIR/strmarr.pid

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("SCAN_METADATA", true)
	viper.SetDefault("ENABLE_AUDIO", false)
	viper.SetDefault("MOUNT_REFRESH_HOURS", 1)
	viper.SetDefault("STRM_SYNC_MINUTES", 5)
	viper.SetDefault("RAW_MODE", false)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "strmarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	mountPath := viper.GetString("MOUNT_PATH")
	if mountPath == "" {
		mountPath = filepath.Join(configDir, "mount")
	}

	config := &Config{
		TorBoxAPIKey: viper.GetString("TORBOX_API_KEY"),

		ScanMetadata: viper.GetBool("SCAN_METADATA"),
		EnableAudio:  viper.GetBool("ENABLE_AUDIO"),

		MountPath:         mountPath,
		MountRefreshHours: viper.GetInt("MOUNT_REFRESH_HOURS"),
		StrmSyncMinutes:   viper.GetInt("STRM_SYNC_MINUTES"),
		RawMode:           viper.GetBool("RAW_MODE"),

		ServerPort: viper.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "strmarr.db"),
		PIDFile:      filepath.Join(configDir, "strmarr.pid"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if config.TorBoxAPIKey == "" {
		return nil, fmt.Errorf("TORBOX_API_KEY is required")
	}
	if config.MountRefreshHours < 1 {
		return nil, fmt.Errorf("MOUNT_REFRESH_HOURS must be at least 1")
	}

	return config, nil
}
