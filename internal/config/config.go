// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// Config is the top-level tally configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Server    ServerConfig    `mapstructure:"server"`
}

// EmbeddingConfig selects the embedding backend for the search index.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SetDefaults registers default values on a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("embedding.provider", "local")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("server.listen", "127.0.0.1:8461")
}

// SetupEnv binds environment variable overrides (prefix TALLY_, dots
// become underscores, e.g. TALLY_EMBEDDING_PROVIDER).
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates a Config from a prepared Viper
// instance. An empty data_dir resolves to ~/.tally.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, tallyerr.Errorf(tallyerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".tally")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Load reads configuration from the given path (or defaults only when path
// is empty) with environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, tallyerr.Errorf(tallyerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// LedgerPath returns the path of the JSON ledger file.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "transactions.json")
}

// IndexDir returns the directory holding the embedded vector-index database.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "financial_data")
}

// IndexPath returns the path of the vector-index database file.
func (c *Config) IndexPath() string {
	return filepath.Join(c.IndexDir(), "index.db")
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	validProviders := map[string]bool{"local": true, "openai": true, "google": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [local, openai, google], got %q",
			c.Embedding.Provider,
		))
	}

	if c.Embedding.Dimensions < 0 {
		errs = append(errs, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must not be negative, got %d",
			c.Embedding.Dimensions,
		))
	}

	if c.Server.Listen == "" {
		errs = append(errs, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
	} else {
		_, portStr, err := net.SplitHostPort(c.Server.Listen)
		if err != nil {
			errs = append(errs, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue,
				"config: server.listen must be a valid host:port address, got %q: %w",
				c.Server.Listen, err,
			))
		} else {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				errs = append(errs, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be a number, got %q", portStr))
			} else if port < 1 || port > 65535 {
				errs = append(errs, tallyerr.Errorf(tallyerr.CodeConfigValidateInvalidValue,
					"config: server.listen port must be between 1 and 65535, got %d", port))
			}
		}
	}

	return errs
}
