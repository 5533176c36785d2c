// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package tracker

import (
	"context"
	"fmt"

	"github.com/tally-dev/tally/internal/ledger"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// DeleteOpts parameterize DeleteTransactions. Indices are ledger positions
// from a current listing; All wipes the whole ledger and index. Confirm
// must be set or nothing is mutated.
type DeleteOpts struct {
	Indices []int
	All     bool
	Confirm bool
}

const noDeleteMatchMessage = "No transactions matched the given indices."

// DeleteTransactions removes records from the ledger and cleans up their
// index entries. The ledger write commits first; per-record index cleanup
// failures are swallowed (logged) so an index-side error never loses the
// ledger mutation. The index may retain stale entries after such a failure;
// Reconcile repairs that drift.
func (s *Service) DeleteTransactions(ctx context.Context, opts DeleteOpts) (string, error) {
	if !opts.Confirm {
		return "", tallyerr.New(tallyerr.CodeDeleteNotConfirmed,
			"deletion requires confirm=true; nothing was deleted")
	}

	if opts.All {
		return s.deleteAll(ctx)
	}

	if len(opts.Indices) == 0 {
		return "", tallyerr.New(tallyerr.CodeDeleteInvalidInput,
			"provide indices to delete, or set delete_all")
	}

	records, err := s.ledger.Load()
	if err != nil {
		return "", err
	}

	drop := make(map[int]bool, len(opts.Indices))
	for _, i := range opts.Indices {
		drop[i] = true
	}

	remaining := make([]ledger.Record, 0, len(records))
	var removed []ledger.Record
	for i, rec := range records {
		if drop[i] {
			removed = append(removed, rec)
			continue
		}
		remaining = append(remaining, rec)
	}

	if len(removed) == 0 {
		return noDeleteMatchMessage, nil
	}

	if err := s.ledger.Save(remaining); err != nil {
		return "", err
	}

	for _, rec := range removed {
		if err := s.removeFromIndex(ctx, rec); err != nil {
			// Ledger consistency wins: the record is gone from the ledger
			// even if its index entry lingers.
			s.logger.Warn("index cleanup failed for deleted record",
				"record_id", rec.ID,
				"date", rec.Date,
				"error", err,
			)
		}
	}

	return fmt.Sprintf("Deleted %d transaction(s).", len(removed)), nil
}

func (s *Service) deleteAll(ctx context.Context) (string, error) {
	records, err := s.ledger.Load()
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "No transactions to delete.", nil
	}

	if err := s.ledger.Save(nil); err != nil {
		return "", err
	}

	if err := s.index.Reset(ctx); err != nil {
		s.logger.Warn("index reset failed after ledger wipe", "error", err)
	}

	return fmt.Sprintf("Deleted all %d transactions.", len(records)), nil
}

// removeFromIndex deletes a record's index entry by id when the record
// carries one, falling back to value-equality matching for records written
// before ids were persisted in the ledger.
func (s *Service) removeFromIndex(ctx context.Context, rec ledger.Record) error {
	if rec.ID != "" {
		return s.index.DeleteByID(ctx, []string{rec.ID})
	}
	_, err := s.index.DeleteWhere(ctx, rec)
	return err
}
