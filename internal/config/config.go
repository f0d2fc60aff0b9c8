package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
)

// Language selects the texts used in reminder emails
type Language string

const (
	LanguageTR Language = "tr"
	LanguageEN Language = "en"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBConn         string
	LogLevel       string
	JWTSecret      string
	EncryptionKey  string
	Language       Language
	MigrateOnStart bool

	ReminderCron       string
	UpcomingWindowDays int
	NotifyEmail        string

	SenderEmail  string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=construction sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		Language:      Language(getEnv("MAIL_LANGUAGE", string(LanguageTR))),
		ReminderCron:  getEnv("REMINDER_CRON", "0 8 * * *"),
		NotifyEmail:   getEnv("NOTIFY_EMAIL", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "noreply@construction.local"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
	}

	var err error
	cfg.UpcomingWindowDays, err = strconv.Atoi(getEnv("UPCOMING_WINDOW_DAYS", "7"))
	if err != nil || cfg.UpcomingWindowDays < 0 {
		return nil, fmt.Errorf("UPCOMING_WINDOW_DAYS must be a non-negative integer")
	}
	cfg.MigrateOnStart, err = strconv.ParseBool(getEnv("MIGRATE_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("MIGRATE_ON_START must be a boolean: %w", err)
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be a hex encoded 16, 24 or 32 byte key")
	}
	if cfg.Language != LanguageTR && cfg.Language != LanguageEN {
		return nil, fmt.Errorf("MAIL_LANGUAGE must be %q or %q, got %q", LanguageTR, LanguageEN, cfg.Language)
	}
	if _, err := cron.ParseStandard(cfg.ReminderCron); err != nil {
		return nil, fmt.Errorf("REMINDER_CRON is invalid: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
