// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

// Package ledger persists the ordered sequence of transaction records that
// is the system's source of truth. The ledger is a single pretty-printed
// JSON array, rewritten wholesale on every mutation.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// Record is a single financial transaction. ID is assigned at ingestion;
// records written by older versions may not carry one.
type Record struct {
	ID          string  `json:"id,omitempty"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
}

// FieldsEqual reports whether two records have identical transaction fields,
// ignoring the generated ID. This is the equality the index uses for
// value-match deletion.
func (r Record) FieldsEqual(other Record) bool {
	return r.Date == other.Date &&
		r.Amount == other.Amount &&
		r.Description == other.Description &&
		r.Category == other.Category
}

// Store reads and writes the ledger file.
//
// Mutations are load-then-overwrite with no file locking: two concurrent
// mutators can both load the same state and the second Save silently
// discards the first writer's change (last write wins). Callers with
// concurrent writers must serialize mutations themselves.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the ledger file at path. The file need not
// exist yet; the parent directory is created on first Save.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current record sequence. A missing file reads as an
// empty ledger. A file that exists but does not parse also reads as empty:
// the damaged file is moved aside with a timestamped .corrupt suffix and a
// warning is logged, so the data stays recoverable while the service stays
// available.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, tallyerr.Wrapf(err, tallyerr.CodeLedgerReadFailure, "reading ledger %s", s.path)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.quarantine(err)
		return []Record{}, nil
	}
	if records == nil {
		records = []Record{}
	}

	return records, nil
}

// Save atomically replaces the ledger with the given sequence. The file is
// written pretty-printed for human inspection, to a temp file first, then
// renamed over the previous state.
func (s *Store) Save(records []Record) error {
	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeLedgerWriteFailure, "encoding %d records", len(records))
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeLedgerWriteFailure, "creating ledger directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return tallyerr.Wrapf(err, tallyerr.CodeLedgerWriteFailure, "creating temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return tallyerr.Wrapf(err, tallyerr.CodeLedgerWriteFailure, "writing ledger temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return tallyerr.Wrapf(err, tallyerr.CodeLedgerWriteFailure, "closing ledger temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return tallyerr.Wrapf(err, tallyerr.CodeLedgerWriteFailure, "replacing ledger %s", s.path)
	}

	return nil
}

// quarantine moves an unparseable ledger file aside so the next Save does
// not destroy it.
func (s *Store) quarantine(cause error) {
	backup := fmt.Sprintf("%s.%s.corrupt", s.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(s.path, backup); err != nil {
		s.logger.Warn("ledger file is corrupt and could not be moved aside",
			"path", s.path,
			"parse_error", cause,
			"rename_error", err,
		)
		return
	}
	s.logger.Warn("ledger file is corrupt, starting from an empty ledger",
		"path", s.path,
		"backup", backup,
		"parse_error", cause,
	)
}
