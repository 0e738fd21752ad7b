package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration. Command-line flags override it.
type Config struct {
	// Store is a directory, s3://bucket/prefix or minio://bucket/prefix.
	Store string `yaml:"store"`

	// CacheSize enables an LRU block cache of this many bytes in front of
	// the store.
	CacheSize int64 `yaml:"cache_size,omitempty"`

	// Compression is none, lz4 or zstd.
	Compression string `yaml:"compression,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty"`

	Query QueryConfig `yaml:"query,omitempty"`
	S3    S3Config    `yaml:"s3,omitempty"`
	MinIO MinIOConfig `yaml:"minio,omitempty"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	Limit         uint64        `yaml:"limit,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	Algorithm     string        `yaml:"algorithm,omitempty"`
	Strategy      string        `yaml:"strategy,omitempty"`
	MaxConcurrent int64         `yaml:"max_concurrent,omitempty"`
}

// S3Config configures s3:// stores. Credentials come from the default AWS
// chain.
type S3Config struct {
	Region       string `yaml:"region,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	UsePathStyle bool   `yaml:"use_path_style,omitempty"`
	// DDBTable, when set, keeps CURRENT in this DynamoDB table.
	DDBTable string `yaml:"ddb_table,omitempty"`
}

// MinIOConfig configures minio:// stores.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store:       ".",
		Compression: "zstd",
		LogLevel:    "warn",
		Query: QueryConfig{
			Timeout:   600 * time.Second,
			Algorithm: "ltj",
			Strategy:  "adaptive",
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is an error only
// when required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}

	return level, nil
}
