// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// SourceKind selects where raw survey rows are read from.
type SourceKind string

const (
	// SourcePostgres reads the raw table straight from the Dataport
	// PostgreSQL database.
	SourcePostgres SourceKind = "postgres"
	// SourceSnowflake reads from a warehouse copy of the raw table.
	SourceSnowflake SourceKind = "snowflake"
)

// Config represents the application configuration
type Config struct {
	// Database connections. Postgres is always required (it is the sink);
	// Snowflake only when it is the source.
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig

	// Source selection
	Source       SourceKind
	SourceSchema string
	SourceTable  string

	// Sink tables
	SinkSchema    string
	SinkTable     string
	CoercionTable string

	// Rule table; empty means the built-in 2014 survey encoding.
	RuleFile string

	// Normalization settings
	BatchSize      int
	WorkerPoolSize int

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		Source:         SourceKind(getEnv("SURVEY_SOURCE", string(SourcePostgres))),
		SourceSchema:   getEnv("SURVEY_SOURCE_SCHEMA", "university"),
		SourceTable:    getEnv("SURVEY_SOURCE_TABLE", "survey_2014_all_participants"),
		SinkSchema:     getEnv("SURVEY_SINK_SCHEMA", "public"),
		SinkTable:      getEnv("SURVEY_SINK_TABLE", "survey_2014_normalized"),
		CoercionTable:  getEnv("SURVEY_COERCION_TABLE", "survey_coercions"),
		RuleFile:       getEnv("SURVEY_RULE_FILE", ""),
		BatchSize:      getEnvAsInt("BATCH_SIZE", 1000),
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 0), // 0 means use runtime.NumCPU()
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	if cfg.Source == SourceSnowflake {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	switch c.Source {
	case SourcePostgres:
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required when it is the source")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source)
	}

	if c.SourceSchema == "" || c.SourceTable == "" {
		return errors.New("source schema and table are required")
	}

	if c.SinkSchema == "" || c.SinkTable == "" {
		return errors.New("sink schema and table are required")
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
