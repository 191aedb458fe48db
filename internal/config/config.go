package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Credia/internal/scoring"
)

// DefaultEnvFile is read when CREDIA_ENV_FILE is unset. A missing default file
// is not an error.
const DefaultEnvFile = ".env"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Demo     DemoConfig     `yaml:"demo"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	MetricsPort        int    `yaml:"metrics_port"`
	AdminToken         string `yaml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

// DatabaseConfig selects the store. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// HermesConfig points at NATS. An empty URL disables events.
type HermesConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	ApproveThreshold     int      `yaml:"approve_threshold"`
	RequestDocsThreshold int      `yaml:"request_docs_threshold"`
	MinFeePercent        float64  `yaml:"min_fee_percent"`
	MaxFeePercent        float64  `yaml:"max_fee_percent"`
	TierAPayers          []string `yaml:"tier_a_payers"`
	TierBPayers          []string `yaml:"tier_b_payers"`
}

type DemoConfig struct {
	Seed bool `yaml:"seed"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScoringPolicy projects the thresholds and fee band into a scoring.Policy.
func (c *Config) ScoringPolicy() scoring.Policy {
	return scoring.Policy{
		ApproveAt:     c.Scoring.ApproveThreshold,
		RequestDocsAt: c.Scoring.RequestDocsThreshold,
		MinFeePercent: c.Scoring.MinFeePercent,
		MaxFeePercent: c.Scoring.MaxFeePercent,
	}
}

func (c *Config) PayerDirectory() scoring.PayerDirectory {
	return scoring.NewPayerDirectory(c.Scoring.TierAPayers, c.Scoring.TierBPayers)
}

// SlogLevel parses Logging.Level. Validate has already rejected bad values.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Logging.Level))
	return level
}

func (c *Config) Validate() error {
	if err := c.ScoringPolicy().Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging format must be json or text, got %q", c.Logging.Format)
	}
	if c.Server.Port <= 0 || c.Server.MetricsPort <= 0 {
		return fmt.Errorf("ports must be positive, got %d and %d", c.Server.Port, c.Server.MetricsPort)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 120,
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Scoring: ScoringConfig{
			ApproveThreshold:     scoring.ApproveThreshold,
			RequestDocsThreshold: scoring.RequestDocsThreshold,
			MinFeePercent:        scoring.MinFeePercent,
			MaxFeePercent:        scoring.MaxFeePercent,
			TierAPayers:          append([]string(nil), scoring.DefaultTierAPayers...),
			TierBPayers:          append([]string(nil), scoring.DefaultTierBPayers...),
		},
		Demo: DemoConfig{
			Seed: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the config from defaults, then the YAML file at path (if any),
// then the env file, then CREDIA_* environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadEnvFile populates the process environment from the env file. Variables
// already set win.
func loadEnvFile() error {
	path := os.Getenv("CREDIA_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CREDIA_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CREDIA_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("CREDIA_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("CREDIA_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CREDIA_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CREDIA_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.AutoMigrate = b
		}
	}
	if v := os.Getenv("CREDIA_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("CREDIA_APPROVE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.ApproveThreshold = n
		}
	}
	if v := os.Getenv("CREDIA_REQUEST_DOCS_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.RequestDocsThreshold = n
		}
	}
	if v := os.Getenv("CREDIA_MIN_FEE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.MinFeePercent = f
		}
	}
	if v := os.Getenv("CREDIA_MAX_FEE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.MaxFeePercent = f
		}
	}
	if v := os.Getenv("CREDIA_TIER_A_PAYERS"); v != "" {
		cfg.Scoring.TierAPayers = splitList(v)
	}
	if v := os.Getenv("CREDIA_TIER_B_PAYERS"); v != "" {
		cfg.Scoring.TierBPayers = splitList(v)
	}
	if v := os.Getenv("CREDIA_DEMO_SEED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Demo.Seed = b
		}
	}
	if v := os.Getenv("CREDIA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CREDIA_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
