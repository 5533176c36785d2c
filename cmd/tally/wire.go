// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/tally-dev/tally/internal/config"
	"github.com/tally-dev/tally/internal/embed"
	"github.com/tally-dev/tally/internal/index"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/secrets"
	"github.com/tally-dev/tally/internal/tracker"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// app holds the wired subsystems behind every command that touches the
// stores. Store handles live here, never in package globals.
type app struct {
	cfg     *config.Config
	tracker *tracker.Service
	index   *index.SQLite
	logger  *slog.Logger
}

// wireApp resolves configuration from the prepared global Viper, opens both
// stores under the data directory, and wires the tracker service.
func wireApp() (*app, error) {
	v := viper.GetViper()

	// Resolve keyring:// URIs (e.g. the embedding API key) before the
	// config is unmarshalled.
	secrets.ResolveViperSecrets(v, secretStoreFactory())

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}

	logger := newLogger(v.GetBool("verbose"))

	if err := os.MkdirAll(cfg.IndexDir(), 0o700); err != nil {
		return nil, tallyerr.Errorf(tallyerr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	embedder, err := embed.New(embed.Config{
		Provider:   cfg.Embedding.Provider,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	idx, err := index.NewSQLite(cfg.IndexPath(), embedder)
	if err != nil {
		return nil, err
	}

	ls := ledger.NewStore(cfg.LedgerPath(), logger)

	return &app{
		cfg:     cfg,
		tracker: tracker.New(ls, idx, logger),
		index:   idx,
		logger:  logger,
	}, nil
}

// Close releases the index database handle. The ledger needs no teardown,
// each operation opens and closes the file itself.
func (a *app) Close() error {
	return a.index.Close()
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
