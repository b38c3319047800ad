package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Resolution   ResolutionConfig
	Notification NotificationConfig
	CORS         CORSConfig
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
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	StoreDriver string
}

// ResolutionConfig tunes the open punch sweeps
type ResolutionConfig struct {
	DefaultTimezone      string
	RolloverInterval     time.Duration
	SafetyInterval       time.Duration
	RolloverLookbackDays int
	SafetyScanWindow     time.Duration
	OrgConcurrency       int
	JobTimeout           time.Duration
}

type NotificationConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// .env is optional; deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var p parser
	config := &Config{}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.int("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(p.int("DB_MAX_CONNS", 25)),
		MinConns: int32(p.int("DB_MIN_CONNS", 5)),
	}

	// Application configuration
	config.App = AppConfig{
		Port:        p.int("APP_PORT", 8081),
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: getEnv("STORE_DRIVER", StoreDriverPostgres),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Resolution sweeps
	config.Resolution = ResolutionConfig{
		DefaultTimezone:      getEnv("DEFAULT_TIMEZONE", "UTC"),
		RolloverInterval:     p.duration("ROLLOVER_INTERVAL", time.Hour),
		SafetyInterval:       p.duration("SAFETY_INTERVAL", 15*time.Minute),
		RolloverLookbackDays: p.int("ROLLOVER_LOOKBACK_DAYS", 7),
		SafetyScanWindow:     p.duration("SAFETY_SCAN_WINDOW", 7*24*time.Hour),
		OrgConcurrency:       p.int("ORG_CONCURRENCY", 4),
		JobTimeout:           p.duration("JOB_TIMEOUT", 10*time.Minute),
	}

	// Notification delivery
	config.Notification = NotificationConfig{
		BatchSize:     p.int("NOTIFY_BATCH_SIZE", 100),
		FlushInterval: p.duration("NOTIFY_FLUSH_INTERVAL", 5*time.Second),
		WorkerCount:   p.int("NOTIFY_WORKERS", 2),
		QueueSize:     p.int("NOTIFY_QUEUE_SIZE", 1000),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.StoreDriver {
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if c.Resolution.RolloverInterval <= 0 || c.Resolution.SafetyInterval <= 0 {
		return fmt.Errorf("ROLLOVER_INTERVAL and SAFETY_INTERVAL must be positive")
	}
	if c.Resolution.RolloverLookbackDays < 1 || c.Resolution.RolloverLookbackDays > 31 {
		return fmt.Errorf("ROLLOVER_LOOKBACK_DAYS must be between 1 and 31")
	}
	if c.Resolution.OrgConcurrency < 1 {
		return fmt.Errorf("ORG_CONCURRENCY must be at least 1")
	}
	if _, err := time.LoadLocation(c.Resolution.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE is invalid: %w", err)
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

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
		}
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("invalid %s: %w", key, err)
		}
		return fallback
	}
	return v
}
