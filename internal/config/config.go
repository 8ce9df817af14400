package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	CORS         CORSConfig
	Storage      StorageConfig
	Realtime     RealtimeConfig
	Holiday      HolidayConfig
	Notification NotificationConfig
	Telemetry    TelemetryConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32

	// AutoMigrate applies the schema on start.
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Port     int
	Env      string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// StorageConfig selects the backing store. The memory driver keeps
// everything in process and is meant for local runs and demos.
type StorageConfig struct {
	Driver   string
	SeedFile string
}

type RealtimeConfig struct {
	SSEBuffer    int
	SockJSPrefix string
}

// HolidayConfig holds the holiday alert settings. Locale is an IANA zone
// name; "today" is the calendar date in that zone.
type HolidayConfig struct {
	Locale        string
	MarkerPath    string
	CheckInterval time.Duration
}

type NotificationConfig struct {
	WorkerCount int
	QueueSize   int
}

type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "schedule_core"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),

		AutoMigrate: getEnv("DB_AUTO_MIGRATE", "true") == "true",
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "schedule-core"),
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	config.Storage = StorageConfig{
		Driver:   getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		SeedFile: getEnv("MEMORY_SEED_FILE", ""),
	}

	// Realtime configuration
	sseBuffer, err := strconv.Atoi(getEnv("SSE_BUFFER_SIZE", "16"))
	if err != nil {
		return nil, fmt.Errorf("invalid SSE_BUFFER_SIZE: %w", err)
	}
	config.Realtime = RealtimeConfig{
		SSEBuffer:    sseBuffer,
		SockJSPrefix: getEnv("SOCKJS_PREFIX", "/realtime"),
	}

	// Holiday configuration
	checkInterval, err := time.ParseDuration(getEnv("HOLIDAY_CHECK_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAY_CHECK_INTERVAL: %w", err)
	}
	config.Holiday = HolidayConfig{
		Locale:        getEnv("HOLIDAY_LOCALE", "Asia/Manila"),
		MarkerPath:    getEnv("HOLIDAY_MARKER_PATH", "holiday_markers.db"),
		CheckInterval: checkInterval,
	}

	// Notification configuration
	workers, err := strconv.Atoi(getEnv("NOTIFICATION_WORKERS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_WORKERS: %w", err)
	}
	queueSize, err := strconv.Atoi(getEnv("NOTIFICATION_QUEUE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_QUEUE_SIZE: %w", err)
	}
	config.Notification = NotificationConfig{
		WorkerCount: workers,
		QueueSize:   queueSize,
	}

	config.Telemetry = TelemetryConfig{
		Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure: getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false") == "true",
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: postgres, memory")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.Holiday.Locale); err != nil {
		return fmt.Errorf("invalid HOLIDAY_LOCALE: %w", err)
	}
	if c.Holiday.CheckInterval <= 0 {
		return fmt.Errorf("HOLIDAY_CHECK_INTERVAL must be positive")
	}
	if c.Holiday.MarkerPath == "" {
		return fmt.Errorf("HOLIDAY_MARKER_PATH is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the holiday locale. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Holiday.Locale)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
