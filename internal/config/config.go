package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Admin     AdminConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	Alerts    AlertsConfig
	MongoDB   MongoDBConfig
	Backup    BackupConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	BindAddr string
	Port     string
	GinMode  string
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return s.BindAddr + ":" + s.Port
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path                 string
	EncryptionKey        string
	MortalityCostPerBird float64
}

// AdminConfig seeds the operator account.
type AdminConfig struct {
	Username string
	Password string
}

// UsesDefaultPassword reports whether the seeded password was never changed from the default.
func (a AdminConfig) UsesDefaultPassword() bool {
	return a.Password == defaultAdminPassword
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	GroupID       string
	ManagerID     string
}

// Enabled reports whether the WhatsApp channel is configured.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ReportRange     string
}

func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DailyCronSchedule  string
	WeeklyCronSchedule string
	Timezone           string
}

// AlertsConfig controls the threshold checker.
type AlertsConfig struct {
	CronSchedule   string
	ThresholdsFile string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

func (m MongoDBConfig) Enabled() bool {
	return m.URI != ""
}

// BackupConfig holds the local backup directory and the optional S3 copy target.
type BackupConfig struct {
	Dir        string
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string
}

func (b BackupConfig) S3Enabled() bool {
	return b.S3Bucket != ""
}

// LogConfig sets the zap level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

const defaultAdminPassword = "admin"

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment carries the configuration.
		_ = godotenv.Load()
	}

	mortalityCost, err := getenvFloat("MORTALITY_COST_PER_BIRD", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getenvWithDefault("APP_BIND_ADDR", "127.0.0.1"),
			Port:     getenvWithDefault("APP_PORT", "8080"),
			GinMode:  getenvWithDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Path:                 getenvWithDefault("DB_PATH", "dash_poultry.db"),
			EncryptionKey:        os.Getenv("DB_ENCRYPTION_KEY"),
			MortalityCostPerBird: mortalityCost,
		},
		Admin: AdminConfig{
			Username: getenvWithDefault("ADMIN_USERNAME", "admin"),
			Password: getenvWithDefault("ADMIN_PASSWORD", defaultAdminPassword),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			GroupID:       os.Getenv("WHATSAPP_GROUP_ID"),
			ManagerID:     os.Getenv("WHATSAPP_MANAGER_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ReportRange:     getenvWithDefault("GOOGLE_SHEET_REPORT_RANGE", "Reports!A:J"),
		},
		Reporting: ReportingConfig{
			DailyCronSchedule:  getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			WeeklyCronSchedule: getenvWithDefault("WEEKLY_REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:           getenvWithDefault("TIMEZONE", "UTC"),
		},
		Alerts: AlertsConfig{
			CronSchedule:   getenvWithDefault("ALERT_CRON_SCHEDULE", "*/5 * * * *"),
			ThresholdsFile: os.Getenv("ALERT_THRESHOLDS_FILE"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "dashpoultry"),
		},
		Backup: BackupConfig{
			Dir:        getenvWithDefault("BACKUP_DIR", "backups"),
			S3Bucket:   os.Getenv("BACKUP_S3_BUCKET"),
			S3Prefix:   getenvWithDefault("BACKUP_S3_PREFIX", "dashpoultry/"),
			S3Region:   getenvWithDefault("BACKUP_S3_REGION", "us-east-1"),
			S3Endpoint: os.Getenv("BACKUP_S3_ENDPOINT"),
		},
		Log: LogConfig{
			Level:  getenvWithDefault("LOG_LEVEL", "info"),
			Format: getenvWithDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that optional
// integrations are either fully configured or left out.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.Database.MortalityCostPerBird < 0 {
		return errors.New("MORTALITY_COST_PER_BIRD must not be negative")
	}
	if c.Admin.Username == "" || c.Admin.Password == "" {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	schedules := map[string]string{
		"REPORT_CRON_SCHEDULE":        c.Reporting.DailyCronSchedule,
		"WEEKLY_REPORT_CRON_SCHEDULE": c.Reporting.WeeklyCronSchedule,
		"ALERT_CRON_SCHEDULE":         c.Alerts.CronSchedule,
	}
	for key, spec := range schedules {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s is not a valid cron expression: %w", key, err)
		}
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("LOG_FORMAT %q must be json or console", c.Log.Format)
	}

	return nil
}

// Location resolves the reporting timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}
