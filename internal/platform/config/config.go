package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Defaulter reconciliation defaults.
	GracePeriodDays      int
	ReminderIntervalDays int
	// DefaulterSyncInterval drives the background sync job; zero disables it.
	DefaulterSyncInterval time.Duration

	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("GRACE_PERIOD_DAYS", 7)
	viper.SetDefault("REMINDER_INTERVAL_DAYS", 7)
	viper.SetDefault("DEFAULTER_SYNC_INTERVAL", "0")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.GracePeriodDays = viper.GetInt("GRACE_PERIOD_DAYS")
	if cfg.GracePeriodDays < 0 {
		log.Printf("Warning: GRACE_PERIOD_DAYS is negative (%d). Defaulting to 7.\n", cfg.GracePeriodDays)
		cfg.GracePeriodDays = 7
	}

	cfg.ReminderIntervalDays = viper.GetInt("REMINDER_INTERVAL_DAYS")
	if cfg.ReminderIntervalDays <= 0 {
		log.Printf("Warning: REMINDER_INTERVAL_DAYS invalid (%d). Defaulting to 7.\n", cfg.ReminderIntervalDays)
		cfg.ReminderIntervalDays = 7
	}

	syncIntervalStr := viper.GetString("DEFAULTER_SYNC_INTERVAL")
	syncInterval, err := time.ParseDuration(syncIntervalStr)
	if err != nil {
		if syncIntervalStr != "" && syncIntervalStr != "0" {
			log.Printf("Warning: Invalid value for DEFAULTER_SYNC_INTERVAL ('%s'). Background sync disabled.\n", syncIntervalStr)
		}
		syncInterval = 0
	}
	cfg.DefaulterSyncInterval = syncInterval

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}
