// Package config loads bookmatch settings from defaults, an optional YAML file
// and the environment, in increasing order of priority.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"bookmatch/internal/game"
	"bookmatch/internal/validation"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `koanf:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	DatabaseType string `koanf:"db_type" validate:"omitempty,oneof=sqlite sqlite3 postgres postgresql mysql"`
	DatabasePath string `koanf:"db_path"`
	DatabaseURL  string `koanf:"database_url"`

	// CatalogPath replaces the embedded book catalog when set
	CatalogPath string `koanf:"catalog_path"`

	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn warning error disabled off"`
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"gte=0"`

	AWSRegion    string `koanf:"aws_region"`
	SESFromEmail string `koanf:"ses_from_email" validate:"omitempty,email"`
	SESFromName  string `koanf:"ses_from_name"`

	SavedSessionLimit int `koanf:"saved_session_limit" validate:"gte=1"`

	// RandomSeed makes candidate draws and shared scores reproducible; 0 seeds from the clock
	RandomSeed uint64 `koanf:"random_seed"`

	Game GameSettings `koanf:"game"`
}

// GameSettings are the tunable parts of the elicitation game
type GameSettings struct {
	GridTimeLimit       time.Duration `koanf:"grid_time_limit" validate:"gt=0"`
	ComparisonTimeLimit time.Duration `koanf:"comparison_time_limit" validate:"gt=0"`
	TotalComparisons    int           `koanf:"total_comparisons" validate:"gte=1"`
	AgeTolerance        int           `koanf:"age_tolerance" validate:"gte=0"`
	// IdleTimeout drops live sessions nobody has touched for this long
	IdleTimeout time.Duration `koanf:"idle_timeout" validate:"gt=0"`
}

// Default returns the built-in configuration
func Default() *Config {
	g := game.DefaultConfig()
	return &Config{
		ServerPort:        "8080",
		ShutdownTimeout:   10 * time.Second,
		DatabaseType:      "sqlite",
		DatabasePath:      "./bookmatch.db",
		LogLevel:          "info",
		LogFormat:         "json",
		RateLimitRPS:      10,
		RateLimitBurst:    20,
		AWSRegion:         "us-east-1",
		SESFromName:       "Bookmatch",
		SavedSessionLimit: 10,
		Game: GameSettings{
			GridTimeLimit:       g.Grid.TimeLimit,
			ComparisonTimeLimit: g.Comparison.TimeLimit,
			TotalComparisons:    g.Comparison.TotalComparisons,
			AgeTolerance:        g.AgeTolerance,
			IdleTimeout:         time.Hour,
		},
	}
}

// envKeys maps environment variable names to config keys
var envKeys = map[string]string{
	"PORT":                       "port",
	"SHUTDOWN_TIMEOUT":           "shutdown_timeout",
	"DB_TYPE":                    "db_type",
	"DB_PATH":                    "db_path",
	"DATABASE_URL":               "database_url",
	"CATALOG_PATH":               "catalog_path",
	"LOG_LEVEL":                  "log_level",
	"LOG_FORMAT":                 "log_format",
	"RATE_LIMIT_RPS":             "rate_limit_rps",
	"RATE_LIMIT_BURST":           "rate_limit_burst",
	"AWS_REGION":                 "aws_region",
	"SES_FROM_EMAIL":             "ses_from_email",
	"SES_FROM_NAME":              "ses_from_name",
	"SAVED_SESSION_LIMIT":        "saved_session_limit",
	"RANDOM_SEED":                "random_seed",
	"GAME_GRID_TIME_LIMIT":       "game.grid_time_limit",
	"GAME_COMPARISON_TIME_LIMIT": "game.comparison_time_limit",
	"GAME_TOTAL_COMPARISONS":     "game.total_comparisons",
	"GAME_AGE_TOLERANCE":         "game.age_tolerance",
	"GAME_IDLE_TIMEOUT":          "game.idle_timeout",
}

// envKey returns the config key for an environment variable, or "" to skip it
func envKey(name string) string {
	return envKeys[strings.ToUpper(name)]
}

// Load reads configuration. The YAML file named by CONFIG_FILE is optional;
// environment variables override it.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit config file path ("" for none)
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and that remote databases have a URL
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return err
	}

	switch strings.ToLower(c.DatabaseType) {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		if c.DatabasePath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	}
	return nil
}

// EmailEnabled reports whether a sender address is configured for SES
func (c *Config) EmailEnabled() bool {
	return c.SESFromEmail != ""
}

// GameConfig applies the tunable settings over the standard game rules
func (c *Config) GameConfig() game.Config {
	g := game.DefaultConfig()
	g.Grid.TimeLimit = c.Game.GridTimeLimit
	g.Comparison.TimeLimit = c.Game.ComparisonTimeLimit
	g.Comparison.TotalComparisons = c.Game.TotalComparisons
	g.AgeTolerance = c.Game.AgeTolerance
	return g
}
