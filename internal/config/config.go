// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool
	Backup   *BackupConfig
}

// BackupConfig holds cloud backup configuration for the sqlite databases.
// Backups go to any S3-compatible store (AWS S3, Cloudflare R2, MinIO).
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string // Custom endpoint for S3-compatible stores; empty for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetainCount     int // Number of backups to keep in the bucket
}

// Load reads configuration from environment variables.
// A .env file is honored if present; explicit environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("PLATFORM_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8040),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Backup:   loadBackupConfig(),
	}

	return cfg, nil
}

// loadBackupConfig loads cloud backup settings. Backups are disabled unless a
// bucket and credentials are configured.
func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		Region:          getEnv("BACKUP_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		RetainCount:     getEnvAsInt("BACKUP_RETAIN_COUNT", 14),
	}

	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		cfg.Enabled = false
	}

	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
