package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database       DatabaseConfig  `yaml:"database"`
	Source         SourceConfig    `yaml:"source"`
	Search         SearchConfig    `yaml:"search"`
	Cache          CacheConfig     `yaml:"cache"`
	Server         ServerConfig    `yaml:"server"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Pipeline       PipelineConfig  `yaml:"pipeline"`
	Model          ModelConfig     `yaml:"model"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
	Logging        LoggingConfig   `yaml:"logging"`
	MasterDataPath string          `yaml:"master_data_path"`
}

// DatabaseConfig contains warehouse database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLiteConfig contains the SQLite file location
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig selects where raw transaction records are read from.
// Type is "json" (an exported API dump) or "postgres" (a landing table).
type SourceConfig struct {
	Type     string         `yaml:"type"`
	Path     string         `yaml:"path"`
	Table    string         `yaml:"table"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
}

// CacheConfig contains prediction cache settings
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig contains rate limiting settings for the prediction API
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// PipelineConfig contains the offline build settings
type PipelineConfig struct {
	HighTierThreshold      float64 `yaml:"high_tier_threshold"`
	MidTierThreshold       float64 `yaml:"mid_tier_threshold"`
	MinBuildingAge         int     `yaml:"min_building_age"`
	MaxBuildingAge         int     `yaml:"max_building_age"`
	MinArea                float64 `yaml:"min_area"`
	MaxArea                float64 `yaml:"max_area"`
	StationPriceMultiplier float64 `yaml:"station_price_multiplier"`
	DefaultStationMinutes  float64 `yaml:"default_station_minutes"`
}

// ModelConfig contains training and artifact settings
type ModelConfig struct {
	Dir            string  `yaml:"dir"`
	Name           string  `yaml:"name"`
	NEstimators    int     `yaml:"n_estimators"`
	MaxDepth       int     `yaml:"max_depth"`
	LearningRate   float64 `yaml:"learning_rate"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf"`
	TestRatio      float64 `yaml:"test_ratio"`
	Seed           int64   `yaml:"seed"`
	Retention      int     `yaml:"retention"`
	MaxServingAge  int     `yaml:"max_serving_age"`
	ProjectionStep int     `yaml:"projection_step"`
}

// SchedulerConfig contains scheduled rebuild settings
type SchedulerConfig struct {
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:   "sqlite",
			SQLite: SQLiteConfig{Path: "data/warehouse.db"},
		},
		Source: SourceConfig{
			Type:  "json",
			Path:  "data/raw/transactions.json",
			Table: "raw_transactions",
		},
		Cache: CacheConfig{
			Redis: RedisConfig{
				Host:       "localhost",
				Port:       6379,
				TTLSeconds: 3600,
			},
		},
		Server: ServerConfig{
			Port:           "8084",
			AllowedOrigins: []string{"http://localhost:8501"},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			RequestsPerHour:   1800,
			RequestsPerDay:    20000,
		},
		Pipeline: PipelineConfig{
			HighTierThreshold:      500000,
			MidTierThreshold:       300000,
			MinBuildingAge:         0,
			MaxBuildingAge:         100,
			MinArea:                10,
			MaxArea:                500,
			StationPriceMultiplier: 1.1,
			DefaultStationMinutes:  10,
		},
		Model: ModelConfig{
			Dir:            "models",
			Name:           "gradient_boosting",
			NEstimators:    200,
			MaxDepth:       5,
			LearningRate:   0.1,
			MinSamplesLeaf: 5,
			TestRatio:      0.2,
			Seed:           42,
			Retention:      10,
			MaxServingAge:  50,
			ProjectionStep: 5,
		},
		Scheduler: SchedulerConfig{
			DailyRunEnabled: false,
			DailyRunTime:    "03:00",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings the pipeline and engine depend on
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.MidTierThreshold > p.HighTierThreshold {
		return fmt.Errorf("%w: mid_tier_threshold %.0f exceeds high_tier_threshold %.0f",
			ErrInvalidConfig, p.MidTierThreshold, p.HighTierThreshold)
	}
	if p.MinBuildingAge > p.MaxBuildingAge {
		return fmt.Errorf("%w: building age bounds [%d, %d]", ErrInvalidConfig, p.MinBuildingAge, p.MaxBuildingAge)
	}
	if p.MinArea > p.MaxArea {
		return fmt.Errorf("%w: area bounds [%.1f, %.1f]", ErrInvalidConfig, p.MinArea, p.MaxArea)
	}
	if c.Model.ProjectionStep <= 0 {
		return fmt.Errorf("%w: projection_step must be positive", ErrInvalidConfig)
	}
	if c.Model.MaxServingAge <= 0 || c.Model.MaxServingAge > p.MaxBuildingAge {
		return fmt.Errorf("%w: max_serving_age %d outside (0, %d]", ErrInvalidConfig, c.Model.MaxServingAge, p.MaxBuildingAge)
	}
	return nil
}

// GetTTL returns the cache entry lifetime as a duration
func (c *RedisConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Addr returns the host:port pair for the Redis client
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
