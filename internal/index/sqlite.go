// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tally-dev/tally/internal/embed"
	"github.com/tally-dev/tally/internal/ledger"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ Index = (*SQLite)(nil)

// SQLite implements Index backed by SQLite with sqlite-vec. Embeddings live
// in a vec0 virtual table; the attribute bag lives in a companion entries
// table keyed by the same id, with the transaction fields as columns so
// value-equality deletion is a plain WHERE clause.
type SQLite struct {
	db       *sql.DB
	embedder embed.Embedder
}

// NewSQLite opens (or creates) the index database at dbPath and initialises
// the vec0 virtual table and companion entries table. Vector dimensions
// follow the embedder.
func NewSQLite(dbPath string, embedder embed.Embedder) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexOpenFailure, "opening index db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexOpenFailure, "pinging index db %s", dbPath)
	}

	if err := migrate(db, embedder.Dimensions()); err != nil {
		_ = db.Close()
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexOpenFailure, "migrating index tables")
	}

	return &SQLite{db: db, embedder: embedder}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d])`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("creating vectors virtual table: %w", err)
	}

	const entriesDDL = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	txn_date    TEXT NOT NULL DEFAULT '',
	amount      REAL NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	document    TEXT NOT NULL DEFAULT ''
)`
	if _, err := db.Exec(entriesDDL); err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}

	return nil
}

// Insert embeds the batch documents and stores vectors and attribute bags
// in one transaction. Re-inserting an existing id replaces it.
func (s *SQLite) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.Document
	}

	vecs, err := s.embedder.Embed(ctx, docs)
	if err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "embedding %d documents", len(entries))
	}
	if len(vecs) != len(entries) {
		return tallyerr.Errorf(tallyerr.CodeIndexInsertFailure,
			"embedder returned %d vectors for %d documents", len(vecs), len(entries))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for i, e := range entries {
		blob, err := sqlite_vec.SerializeFloat32(vecs[i])
		if err != nil {
			return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "serializing embedding %s", e.ID)
		}

		// vec0 does not support ON CONFLICT; delete first for upsert.
		if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, e.ID); err != nil {
			return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "deleting existing vector %s", e.ID)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO vectors(id, embedding) VALUES (?, ?)`, e.ID, blob); err != nil {
			return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "inserting vector %s", e.ID)
		}

		const entryQ = `INSERT INTO entries(id, txn_date, amount, description, category, document)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	txn_date = excluded.txn_date,
	amount = excluded.amount,
	description = excluded.description,
	category = excluded.category,
	document = excluded.document`
		if _, err := tx.ExecContext(ctx, entryQ,
			e.ID, e.Record.Date, e.Record.Amount, e.Record.Description, e.Record.Category, e.Document,
		); err != nil {
			return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "upserting entry %s", e.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexInsertFailure, "committing insert of %d entries", len(entries))
	}
	return nil
}

// Query embeds the text and performs a k-nearest-neighbor search, returning
// the stored attribute bags ordered by distance (most similar first).
func (s *SQLite) Query(ctx context.Context, text string, k int) ([]ledger.Record, error) {
	if k <= 0 {
		return nil, nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "embedding query text")
	}
	blob, err := sqlite_vec.SerializeFloat32(vecs[0])
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "serializing query vector")
	}

	const q = `SELECT v.id, e.txn_date, e.amount, e.description, e.category
FROM vectors v
LEFT JOIN entries e ON e.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`

	rows, err := s.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "searching vectors")
	}
	defer func() { _ = rows.Close() }()

	var records []ledger.Record
	for rows.Next() {
		var (
			rec      ledger.Record
			date     sql.NullString
			amount   sql.NullFloat64
			desc     sql.NullString
			category sql.NullString
		)
		if err := rows.Scan(&rec.ID, &date, &amount, &desc, &category); err != nil {
			return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "scanning query result")
		}
		rec.Date = date.String
		rec.Amount = amount.Float64
		rec.Description = desc.String
		rec.Category = category.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "iterating query results")
	}

	return records, nil
}

// DeleteWhere removes every entry whose stored transaction fields equal
// rec's exactly and reports how many were removed.
func (s *SQLite) DeleteWhere(ctx context.Context, rec ledger.Record) (int, error) {
	const matchQ = `SELECT id FROM entries WHERE txn_date = ? AND amount = ? AND description = ? AND category = ?`

	rows, err := s.db.QueryContext(ctx, matchQ, rec.Date, rec.Amount, rec.Description, rec.Category)
	if err != nil {
		return 0, tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "matching entries by value")
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "scanning matched id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "iterating matched ids")
	}

	if err := s.DeleteByID(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteByID removes entries and their vectors by id.
func (s *SQLite) DeleteByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "deleting vectors")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "deleting entries")
	}

	if err := tx.Commit(); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexDeleteFailure, "committing delete")
	}
	return nil
}

// IDs returns all stored entry ids.
func (s *SQLite) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM entries`)
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "listing entry ids")
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "scanning entry id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "iterating entry ids")
	}

	return ids, nil
}

// Count returns the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, tallyerr.Wrapf(err, tallyerr.CodeIndexQueryFailure, "counting entries")
	}
	return n, nil
}

// Reset drops and recreates both tables. Dropping tables that do not exist
// is a no-op, so Reset is idempotent.
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS vectors`); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexResetFailure, "dropping vectors table")
	}
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS entries`); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexResetFailure, "dropping entries table")
	}
	if err := migrate(s.db, s.embedder.Dimensions()); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeIndexResetFailure, "recreating index tables")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
