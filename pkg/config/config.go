// Package config loads orchestrator settings from a YAML file with
// environment overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration parses YAML values like "5m" or "2s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// PipelineConfig points at the remote pipeline executor and catalog.
type PipelineConfig struct {
	BaseURL        string   `yaml:"baseUrl"`
	RequestTimeout Duration `yaml:"requestTimeout"`
}

// OrchestratorConfig holds the scheduling and discovery tunables.
type OrchestratorConfig struct {
	ConcurrencyLimit int      `yaml:"concurrencyLimit"`
	ExtendedEnabled  bool     `yaml:"extendedEnabled"`
	PageSize         int      `yaml:"pageSize"`
	BatchCeiling     int      `yaml:"batchCeiling"`
	StreamTimeout    Duration `yaml:"streamTimeout"`
	DiscoveryBackoff Duration `yaml:"discoveryBackoff"`
	StatusInterval   Duration `yaml:"statusInterval"`
}

// RepairConfig holds the remediation path tunables.
type RepairConfig struct {
	Concurrency int      `yaml:"concurrency"`
	Stagger     Duration `yaml:"stagger"`
}

// RedisConfig configures the optional status cache. Empty Addr disables it.
type RedisConfig struct {
	Addr string   `yaml:"addr"`
	DB   int      `yaml:"db"`
	TTL  Duration `yaml:"ttl"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"outputPaths"`
}

type Config struct {
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Repair       RepairConfig       `yaml:"repair"`
	Redis        RedisConfig        `yaml:"redis"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			RequestTimeout: Duration(30 * time.Second),
		},
		Orchestrator: OrchestratorConfig{
			ConcurrencyLimit: 5,
			PageSize:         50,
			BatchCeiling:     500,
			StreamTimeout:    Duration(5 * time.Minute),
			DiscoveryBackoff: Duration(2 * time.Second),
			StatusInterval:   Duration(time.Second),
		},
		Repair: RepairConfig{
			Concurrency: 5,
			Stagger:     Duration(2 * time.Second),
		},
		Redis: RedisConfig{
			TTL: Duration(24 * time.Hour),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout", "logs/orchestrator.log"},
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; the defaults and
// environment still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables still win.
	_ = godotenv.Load()
	applyEnv(cfg)

	if cfg.Pipeline.BaseURL == "" {
		return nil, fmt.Errorf("pipeline.baseUrl is required")
	}
	if cfg.Orchestrator.ConcurrencyLimit < 1 {
		return nil, fmt.Errorf("orchestrator.concurrencyLimit must be at least 1")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PIPELINE_BASE_URL"); v != "" {
		cfg.Pipeline.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CONCURRENCY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Orchestrator.ConcurrencyLimit = n
		}
	}
	if v := os.Getenv("EXTENDED_STAGES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Orchestrator.ExtendedEnabled = b
		}
	}
}
