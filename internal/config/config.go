package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	NewRelic NewRelicConfig
	Geocoder GeocoderConfig
	Pricing  PricingConfig
	Tracking TrackingConfig
	Search   SearchConfig
	History  HistoryConfig
	Redis    RedisConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type LogConfig struct {
	Level  string
	Format string
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

type GeocoderConfig struct {
	APIKey string
	Region string
}

type PricingConfig struct {
	BaseFare struct {
		Bike float64
		Car  float64
		XL   float64
	}
	PerKMRate struct {
		Bike float64
		Car  float64
		XL   float64
	}
	Currency       string
	MinutesPerKm   float64
	MinDurationMin int
}

type TrackingConfig struct {
	AssignAfter   time.Duration
	AcceptAfter   time.Duration
	StartAfter    time.Duration
	CompleteAfter time.Duration
	MoveInterval  time.Duration
	JitterDegrees float64
}

type SearchConfig struct {
	Debounce    time.Duration
	MinQueryLen int
	Timeout     time.Duration
}

// HistoryConfig selects the ride history backend. "memory" is the default;
// "redis" and "postgres" are optional deployment backends.
type HistoryConfig struct {
	Backend    string
	MaxEntries int
	TTL        time.Duration
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "UrbanGo-RideEngine"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
		},
		Geocoder: GeocoderConfig{
			APIKey: getEnv("GEOCODER_API_KEY", ""),
			Region: getEnv("GEOCODER_REGION", "in"),
		},
		Tracking: TrackingConfig{
			AssignAfter:   getEnvAsDuration("TRACKING_ASSIGN_AFTER", 3*time.Second),
			AcceptAfter:   getEnvAsDuration("TRACKING_ACCEPT_AFTER", 8*time.Second),
			StartAfter:    getEnvAsDuration("TRACKING_START_AFTER", 15*time.Second),
			CompleteAfter: getEnvAsDuration("TRACKING_COMPLETE_AFTER", 45*time.Second),
			MoveInterval:  getEnvAsDuration("TRACKING_MOVE_INTERVAL", 5*time.Second),
			JitterDegrees: getEnvAsFloat64("TRACKING_JITTER_DEGREES", 0.001),
		},
		Search: SearchConfig{
			Debounce:    getEnvAsDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
			MinQueryLen: getEnvAsInt("SEARCH_MIN_QUERY_LEN", 3),
			Timeout:     getEnvAsDuration("SEARCH_TIMEOUT", 10*time.Second),
		},
		History: HistoryConfig{
			Backend:    getEnv("HISTORY_BACKEND", "memory"),
			MaxEntries: getEnvAsInt("HISTORY_MAX_ENTRIES", 100),
			TTL:        getEnvAsDuration("HISTORY_TTL", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 100),
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "urbango"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdle:  getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
		},
	}

	// Fixed rate table: three classes, no dynamic extension
	cfg.Pricing.BaseFare.Bike = getEnvAsFloat64("BASE_FARE_BIKE", 25)
	cfg.Pricing.BaseFare.Car = getEnvAsFloat64("BASE_FARE_CAR", 50)
	cfg.Pricing.BaseFare.XL = getEnvAsFloat64("BASE_FARE_XL", 75)

	cfg.Pricing.PerKMRate.Bike = getEnvAsFloat64("PER_KM_RATE_BIKE", 8)
	cfg.Pricing.PerKMRate.Car = getEnvAsFloat64("PER_KM_RATE_CAR", 15)
	cfg.Pricing.PerKMRate.XL = getEnvAsFloat64("PER_KM_RATE_XL", 20)

	cfg.Pricing.Currency = getEnv("PRICING_CURRENCY", "INR")
	cfg.Pricing.MinutesPerKm = getEnvAsFloat64("PRICING_MINUTES_PER_KM", 2.5)
	cfg.Pricing.MinDurationMin = getEnvAsInt("PRICING_MIN_DURATION_MIN", 5)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Search.MinQueryLen < 1 {
		return fmt.Errorf("SEARCH_MIN_QUERY_LEN must be positive")
	}
	if c.Tracking.MoveInterval <= 0 {
		return fmt.Errorf("TRACKING_MOVE_INTERVAL must be positive")
	}
	switch c.History.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("HISTORY_BACKEND must be memory, redis or postgres")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
