// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

// Package index is the semantic search side of the dual store: a vector
// collection keyed by opaque ids, holding a rendered document per
// transaction plus the transaction's fields as an equality-filterable
// attribute bag. It is eventually consistent with the ledger; the ledger
// remains the source of truth.
package index

import (
	"context"
	"strconv"

	"github.com/tally-dev/tally/internal/ledger"
)

// Entry is one record prepared for insertion: the generated id, the
// rendered document text that gets embedded, and the record itself.
type Entry struct {
	ID       string
	Document string
	Record   ledger.Record
}

// Index is the search-index contract the tracker operates against.
type Index interface {
	// Insert embeds and stores a batch of entries as one unit.
	Insert(ctx context.Context, entries []Entry) error

	// Query returns up to k records nearest to the query text, ordered by
	// similarity rank. All top-k are returned even if weakly relevant.
	Query(ctx context.Context, text string, k int) ([]ledger.Record, error)

	// DeleteWhere removes every entry whose stored fields equal rec's
	// transaction fields exactly (id excluded) and returns how many were
	// removed. Two entries with fully identical field values are
	// indistinguishable to this filter: deleting one by value deletes both.
	// Prefer DeleteByID when the record carries an id.
	DeleteWhere(ctx context.Context, rec ledger.Record) (int, error)

	// DeleteByID removes entries by exact id.
	DeleteByID(ctx context.Context, ids []string) error

	// IDs returns the ids of all stored entries.
	IDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Reset drops and recreates the collection. Resetting an empty or
	// missing collection is not an error.
	Reset(ctx context.Context) error

	Close() error
}

// Render produces the document text for a record in the fixed template the
// index embeds and stores.
func Render(rec ledger.Record) string {
	category := rec.Category
	if category == "" {
		category = "unknown"
	}
	return "Date: " + rec.Date +
		" Amount: " + strconv.FormatFloat(rec.Amount, 'f', -1, 64) +
		" Description: " + rec.Description +
		" Category: " + category
}

// NewEntry renders a record into an insertable entry.
func NewEntry(id string, rec ledger.Record) Entry {
	return Entry{ID: id, Document: Render(rec), Record: rec}
}
