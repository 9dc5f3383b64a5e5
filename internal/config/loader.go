package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingServerURL indicates the graph server URL was not configured.
var ErrMissingServerURL = errors.New("graph server url is required")

// Config holds the configuration for the graph server connection and the
// optional Neo4j mirror.
type Config struct {
	ServerURL string `yaml:"server_url" validate:"required,url"`
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=json console"`

	Neo4jURI      string `yaml:"neo4j_uri" validate:"omitempty,uri"`
	Neo4jUser     string `yaml:"neo4j_user"`
	Neo4jPassword string `yaml:"neo4j_password"`
	Neo4jDatabase string `yaml:"neo4j_database"`
}

var envKeys = map[string]func(*Config) *string{
	"INDRADB_SERVER": func(c *Config) *string { return &c.ServerURL },
	"LOG_LEVEL":      func(c *Config) *string { return &c.LogLevel },
	"LOG_FORMAT":     func(c *Config) *string { return &c.LogFormat },
	"NEO4J_URI":      func(c *Config) *string { return &c.Neo4jURI },
	"NEO4J_USER":     func(c *Config) *string { return &c.Neo4jUser },
	"NEO4J_PASSWORD": func(c *Config) *string { return &c.Neo4jPassword },
	"NEO4J_DATABASE": func(c *Config) *string { return &c.Neo4jDatabase },
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() Config {
	var cfg Config
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads a YAML configuration file. Environment variables that are
// set take precedence over values from the file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for key, field := range envKeys {
		if v := os.Getenv(key); v != "" {
			*field(cfg) = v
		}
	}
}

// Validate checks the configuration. A missing server URL is reported as
// ErrMissingServerURL.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return ErrMissingServerURL
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadEnv loads environment variables from a .env file, searching up the directory tree.
func LoadEnv() error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// Found it
			return godotenv.Load(envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached root
		}
		dir = parent
	}

	// Not found is fine
	return nil
}
