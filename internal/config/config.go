package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port          int
	Password      string
	SettingsPath  string
	MaskPath      string
	StorageRoot   string
	IncomingRoot  string
	LogDirectory  string
	DBPath        string
	SweepInterval int // seconds between incoming-directory sweeps
	RetentionDays int
}

func Load() *Config {
	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		Password:      getEnv("PASSWORD", "snowwatch"),
		SettingsPath:  getEnv("SETTINGS_PATH", filepath.Join(".", "config", "settings.json")),
		MaskPath:      getEnv("MASK_PATH", filepath.Join(".", "config", "mask.png")),
		StorageRoot:   getEnv("STORAGE_ROOT", filepath.Join(".", "storage", "archive")),
		IncomingRoot:  getEnv("FTP_INCOMING", filepath.Join(".", "ftp_data", "incoming")),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DBPath:        getEnv("DB_PATH", filepath.Join(".", "storage", "snowwatch.db")),
		SweepInterval: getEnvAsInt("SWEEP_INTERVAL", 10),
		RetentionDays: getEnvAsInt("RETENTION_DAYS", 90),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
