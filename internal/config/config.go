package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
)

// Store backends
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	MatchSchedule string // "daily" or "weekly"
	TimeZone      string

	// Store configuration
	StoreBackend       string
	SupabaseURL        string
	SupabaseServiceKey string
	DatabaseURL        string
	DatabaseMaxConns   int
	StoreTimeout       time.Duration

	// Azure Storage configuration for the run archive
	StorageAccount   string
	StorageContainer string
	ArchiveRetention time.Duration

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Matching settings
	MaxCampaigns          int
	MinCompatibilityScore float64
	CampaignDurationDays  int
	AutoApprove           bool
	SkipExistingPairs     bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	defaults := models.DefaultMatchingSettings()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Debug:         getBoolEnv("DEBUG", false),
		MatchSchedule: getEnv("MATCH_SCHEDULE", "weekly"),
		TimeZone:      getEnv("TIMEZONE", "UTC"),

		StoreBackend:       getEnv("STORE_BACKEND", BackendSupabase),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:   getIntEnv("DATABASE_MAX_CONNS", 10),
		StoreTimeout:       getDurationEnv("STORE_TIMEOUT", 10*time.Second),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "match-runs"),
		ArchiveRetention: getDurationEnv("ARCHIVE_RETENTION", 90*24*time.Hour),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		MaxCampaigns:          getIntEnv("MAX_CAMPAIGNS", defaults.MaxCampaigns),
		MinCompatibilityScore: getFloatEnv("MIN_COMPATIBILITY_SCORE", defaults.MinCompatibilityScore),
		CampaignDurationDays:  getIntEnv("CAMPAIGN_DURATION_DAYS", defaults.CampaignDurationDays),
		AutoApprove:           getBoolEnv("AUTO_APPROVE", defaults.AutoApprove),
		SkipExistingPairs:     getBoolEnv("SKIP_EXISTING_PAIRS", defaults.SkipExistingPairs),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Settings returns the configured campaign synthesis settings
func (c *Config) Settings() models.MatchingSettings {
	return models.MatchingSettings{
		MaxCampaigns:          c.MaxCampaigns,
		MinCompatibilityScore: c.MinCompatibilityScore,
		CampaignDurationDays:  c.CampaignDurationDays,
		AutoApprove:           c.AutoApprove,
		SkipExistingPairs:     c.SkipExistingPairs,
	}
}

func (c *Config) validate() error {
	if c.MatchSchedule != "daily" && c.MatchSchedule != "weekly" {
		return fmt.Errorf("MATCH_SCHEDULE must be 'daily' or 'weekly'")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE is not a known location: %w", err)
	}

	switch c.StoreBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of supabase, postgres or memory")
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	if c.ArchiveRetention < 0 {
		return fmt.Errorf("ARCHIVE_RETENTION must not be negative")
	}

	if c.MaxCampaigns < 1 {
		return fmt.Errorf("MAX_CAMPAIGNS must be at least 1")
	}

	if c.MinCompatibilityScore < 0 || c.MinCompatibilityScore > 1 {
		return fmt.Errorf("MIN_COMPATIBILITY_SCORE must be between 0 and 1")
	}

	if c.CampaignDurationDays < 1 {
		return fmt.Errorf("CAMPAIGN_DURATION_DAYS must be at least 1")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
