package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Auth      AuthConfig
	Reporting ReportingConfig
	Cache     CacheConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	WhatsApp  WhatsAppConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// APIConfig points at the station API that serves the record sets.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds where the token pair is persisted between runs.
type AuthConfig struct {
	TokenFile string
}

// ReportingConfig holds scheduler and aggregation settings. Timezone is the
// local zone used to read the calendar day of every record.
type ReportingConfig struct {
	CronSchedule  string
	Timezone      string
	DefaultMetric string
}

// CacheConfig controls the redis cache in front of the station API.
type CacheConfig struct {
	Enabled  bool
	RedisURL string
	TTL      time.Duration
}

// MongoDBConfig holds settings for the KPI snapshot history.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	KPIRange        string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken      string
	PhoneNumberID    string
	VerifyToken      string
	BaseURL          string
	APIVersion       string
	ManagerRecipient string
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string
}

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
		// Missing .env files are fine when the environment is set directly.
		_ = godotenv.Load()
	}

	apiTimeout, err := getenvDuration("STATION_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cacheEnabled, err := getenvBool("CACHE_ENABLED", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getenvInt("CACHE_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		API: APIConfig{
			BaseURL: getenvWithDefault("STATION_API_BASE_URL", "http://localhost:8000"),
			Timeout: apiTimeout,
		},
		Auth: AuthConfig{
			TokenFile: getenvWithDefault("TOKEN_FILE", defaultTokenFile()),
		},
		Reporting: ReportingConfig{
			CronSchedule:  getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:      getenvWithDefault("TIMEZONE", "Africa/Accra"),
			DefaultMetric: getenvWithDefault("DEFAULT_METRIC", models.MetricNetSales),
		},
		Cache: CacheConfig{
			Enabled:  cacheEnabled,
			RedisURL: getenvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      time.Duration(cacheTTL) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stationdash"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
			KPIRange:        getenvWithDefault("GOOGLE_SHEET_KPI_RANGE", "KPIs!A:J"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:      os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:    os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:      os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:          getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:       getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerRecipient: os.Getenv("WHATSAPP_MANAGER_RECIPIENT"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
// Optional integrations only fail validation when half configured.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.API.BaseURL == "" {
		return errors.New("STATION_API_BASE_URL must be provided")
	}
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("STATION_API_BASE_URL is invalid: %w", err)
	}

	if c.Auth.TokenFile == "" {
		return errors.New("TOKEN_FILE must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := c.Reporting.Location(); err != nil {
		return err
	}
	if _, ok := models.LookupMetric(c.Reporting.DefaultMetric); !ok {
		return fmt.Errorf("DEFAULT_METRIC %q is not a known metric", c.Reporting.DefaultMetric)
	}

	if c.Cache.Enabled {
		if c.Cache.RedisURL == "" {
			return errors.New("REDIS_URL must be provided when CACHE_ENABLED is set")
		}
		if c.Cache.TTL <= 0 {
			return errors.New("CACHE_TTL_SECONDS must be positive")
		}
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided with GOOGLE_SHEET_ID")
	}

	if c.WhatsApp.AccessToken != "" {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q must be one of debug, info, warn, error", c.Log.Level)
	}

	return nil
}

// Location resolves the reporting time zone.
func (r ReportingConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return nil, errors.New("TIMEZONE must be provided")
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q is invalid: %w", r.Timezone, err)
	}
	return loc, nil
}

// Enabled reports whether snapshots should be persisted.
func (m MongoDBConfig) Enabled() bool { return m.URI != "" }

// Enabled reports whether KPI rows should be appended to a sheet.
func (s SheetsConfig) Enabled() bool { return s.SpreadsheetID != "" }

// Enabled reports whether the WhatsApp integration is configured.
func (w WhatsAppConfig) Enabled() bool { return w.AccessToken != "" }

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".stationdash-token.json"
	}
	return filepath.Join(dir, "stationdash", "token.json")
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
