// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

// Package tracker implements the consistency protocol between the two
// stores: the JSON ledger (source of truth) and the semantic search index.
// Records are created only via ingestion and removed only via the delete
// protocol; there is no update, correcting a record means delete + re-ingest.
package tracker

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/index"
	"github.com/tally-dev/tally/internal/ledger"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// Service coordinates the ledger and the search index. Store handles are
// injected, never process-global.
//
// Ledger mutations are load-then-overwrite with no locking: two concurrent
// mutators both load pre-mutation state and the second Save discards the
// first writer's change. Deployments with concurrent callers must serialize
// ingest/delete calls around this service.
type Service struct {
	ledger *ledger.Store
	index  index.Index
	logger *slog.Logger
}

// New creates a Service over the given stores.
func New(ls *ledger.Store, idx index.Index, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: ls, index: idx, logger: logger}
}

// StoreTransactions validates and normalizes a batch of raw records,
// assigns each a unique id, and writes the batch to both stores. The index
// insertion goes first: if it fails, the ledger is untouched, so the ledger
// never holds a record with no index entry. Returns the number of records
// stored.
func (s *Service) StoreTransactions(ctx context.Context, records []ledger.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	entries := make([]index.Entry, len(records))
	for i := range records {
		if records[i].Date == "" {
			return 0, tallyerr.New(tallyerr.CodeIngestInvalidInput,
				"transaction is missing a date", tallyerr.FieldPosition(i))
		}
		if records[i].Description == "" {
			return 0, tallyerr.New(tallyerr.CodeIngestInvalidInput,
				"transaction is missing a description", tallyerr.FieldPosition(i))
		}
		if records[i].Category == "" {
			records[i].Category = "unknown"
		}
		records[i].ID = uuid.NewString()
		entries[i] = index.NewEntry(records[i].ID, records[i])
	}

	if err := s.index.Insert(ctx, entries); err != nil {
		return 0, err
	}

	existing, err := s.ledger.Load()
	if err != nil {
		return 0, err
	}
	if err := s.ledger.Save(append(existing, records...)); err != nil {
		return 0, err
	}

	return len(records), nil
}
