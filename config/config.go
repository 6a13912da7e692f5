// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads and validates the noteshelf configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/noteshelf/reindex"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the configuration file.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string        `toml:"log_level" validate:"oneof=debug info warn error"`
	Storage  StorageConfig `toml:"storage"`
	Server   ServerConfig  `toml:"server"`
	Search   SearchConfig  `toml:"search"`
	Reindex  ReindexConfig `toml:"reindex"`
}

// StorageConfig selects and locates the store backend.
type StorageConfig struct {
	Backend string `toml:"backend" validate:"oneof=badger sqlite"`
	// Path is a directory for badger and a file for sqlite.
	// Ignored when InMemory is set.
	Path     string `toml:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `toml:"in_memory"`
}

type ServerConfig struct {
	Listen          string   `toml:"listen" validate:"required,hostname_port"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type SearchConfig struct {
	// PoolSize is the number of workers running store lookups.
	PoolSize int `toml:"pool_size" validate:"min=1"`
}

type ReindexConfig struct {
	BatchSize      int      `toml:"batch_size" validate:"min=1"`
	ReportInterval int      `toml:"report_interval" validate:"min=1"`
	MaxRetries     int      `toml:"max_retries" validate:"min=1"`
	RetryDelay     Duration `toml:"retry_delay"`
}

// Duration reads and writes time.Duration as text such as "5s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend selects the storage backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Storage.Backend = backend
	}
}

// WithStoragePath sets the database location.
func WithStoragePath(path string) ConfigOption {
	return func(c *Config) {
		c.Storage.Path = path
	}
}

// WithInMemory keeps all data in memory.
func WithInMemory() ConfigOption {
	return func(c *Config) {
		c.Storage.InMemory = true
	}
}

// WithListen sets the HTTP listen address.
func WithListen(addr string) ConfigOption {
	return func(c *Config) {
		c.Server.Listen = addr
	}
}

// WithPoolSize sets the search worker pool size.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.Search.PoolSize = size
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// DefaultStoragePath returns the default badger directory under the user's
// data directory.
func DefaultStoragePath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "noteshelf-data"
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "noteshelf", "db")
}

// DefaultConfig returns a Config using badger under DefaultStoragePath.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    DefaultStoragePath(),
		},
		Server: ServerConfig{
			Listen:          "localhost:8080",
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Search: SearchConfig{
			PoolSize: max(3, runtime.NumCPU()/2),
		},
		Reindex: ReindexConfig{
			BatchSize:      100,
			ReportInterval: 100,
			MaxRetries:     3,
			RetryDelay:     Duration{500 * time.Millisecond},
		},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads the TOML file at path over the defaults and validates the result.
// A missing file yields the defaults.
func Load(path string, opts ...ConfigOption) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ReindexerConfig converts the reindex section for the reindex package.
func (c *Config) ReindexerConfig() *reindex.Config {
	return &reindex.Config{
		BatchSize:      c.Reindex.BatchSize,
		ReportInterval: c.Reindex.ReportInterval,
		MaxRetries:     c.Reindex.MaxRetries,
		RetryDelay:     c.Reindex.RetryDelay.Duration,
	}
}
