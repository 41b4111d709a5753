package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	API    APIConfig
	Store  StoreConfig
	Device DeviceConfig
	Sync   SyncConfig
}

// AppConfig holds local HTTP API configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	// UIOrigins are the webview origins allowed by CORS.
	UIOrigins []string
}

// APIConfig points at the HRIS backend consumed by the sync path
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// StoreConfig selects the local durable store backend
type StoreConfig struct {
	// Driver is "sqlite" (embedded, default) or "postgres"
	// (kiosk fleets backed by a site-local database).
	Driver string

	// SQLite
	Path string

	// PostgreSQL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DeviceConfig binds the agent to one employee and secures the local API
type DeviceConfig struct {
	EmployeeID string
	JWTSecret  string
	// SupervisorPINHash is an optional bcrypt hash guarding the manual
	// sync endpoint on shared kiosks.
	SupervisorPINHash string
}

type SyncConfig struct {
	Interval              time.Duration
	ProbeInterval         time.Duration
	PunchRetentionDays    int
	DayStateRetentionDays int
}

func Load() (*Config, error) {
	// A missing .env file is fine on provisioned kiosks where the
	// environment comes from the service unit.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("AGENT_PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGENT_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:      appPort,
		Env:       getEnv("AGENT_ENV", "production"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		UIOrigins: []string{getEnv("UI_ORIGIN", "http://localhost:3000")},
	}

	apiTimeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	config.API = APIConfig{
		BaseURL: getEnv("API_BASE_URL", ""),
		Token:   getEnv("API_TOKEN", ""),
		Timeout: apiTimeout,
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Store = StoreConfig{
		Driver:   getEnv("STORE_DRIVER", "sqlite"),
		Path:     getEnv("STORE_PATH", "attendance-agent.db"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_agent"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.Device = DeviceConfig{
		EmployeeID:        getEnv("EMPLOYEE_ID", ""),
		JWTSecret:         getEnv("DEVICE_JWT_SECRET", ""),
		SupervisorPINHash: getEnv("SUPERVISOR_PIN_HASH", ""),
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	probeInterval, err := time.ParseDuration(getEnv("CONNECTIVITY_PROBE_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONNECTIVITY_PROBE_INTERVAL: %w", err)
	}

	punchRetention, err := strconv.Atoi(getEnv("PUNCH_RETENTION_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_RETENTION_DAYS: %w", err)
	}

	dayStateRetention, err := strconv.Atoi(getEnv("DAY_STATE_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAY_STATE_RETENTION_DAYS: %w", err)
	}

	config.Sync = SyncConfig{
		Interval:              syncInterval,
		ProbeInterval:         probeInterval,
		PunchRetentionDays:    punchRetention,
		DayStateRetentionDays: dayStateRetention,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.API.Token == "" {
		return fmt.Errorf("API_TOKEN is required")
	}
	if c.Device.EmployeeID == "" {
		return fmt.Errorf("EMPLOYEE_ID is required")
	}
	if c.Device.JWTSecret == "" {
		return fmt.Errorf("DEVICE_JWT_SECRET is required")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.Store.Driver)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Store.User,
		c.Store.Password,
		c.Store.Host,
		c.Store.Port,
		c.Store.Name,
		c.Store.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
