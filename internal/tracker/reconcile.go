// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package tracker

import (
	"context"

	"github.com/google/uuid"

	"github.com/tally-dev/tally/internal/index"
)

// ReconcileReport summarizes a reconciliation pass.
type ReconcileReport struct {
	LedgerCount int `json:"ledger_count"`
	IndexCount  int `json:"index_count"`
	Reinserted  int `json:"reinserted"`
	Removed     int `json:"removed"`
}

// Reconcile repairs drift between the two stores. The ledger is the source
// of truth: ledger records missing from the index are re-inserted, and
// index entries whose id no longer appears in the ledger are removed.
// Legacy ledger records without an id are assigned one first (and the
// ledger re-saved) so they become diffable.
//
// There is no cross-store transaction anywhere in the pipeline, so a crash
// between an index write and a ledger write leaves exactly the kind of
// drift this pass repairs.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	records, err := s.ledger.Load()
	if err != nil {
		return nil, err
	}

	dirty := false
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
			dirty = true
		}
	}
	if dirty {
		if err := s.ledger.Save(records); err != nil {
			return nil, err
		}
	}

	indexIDs, err := s.index.IDs(ctx)
	if err != nil {
		return nil, err
	}

	indexed := make(map[string]bool, len(indexIDs))
	for _, id := range indexIDs {
		indexed[id] = true
	}

	var missing []index.Entry
	inLedger := make(map[string]bool, len(records))
	for _, rec := range records {
		inLedger[rec.ID] = true
		if !indexed[rec.ID] {
			missing = append(missing, index.NewEntry(rec.ID, rec))
		}
	}

	var orphans []string
	for _, id := range indexIDs {
		if !inLedger[id] {
			orphans = append(orphans, id)
		}
	}

	if len(missing) > 0 {
		if err := s.index.Insert(ctx, missing); err != nil {
			return nil, err
		}
	}
	if len(orphans) > 0 {
		if err := s.index.DeleteByID(ctx, orphans); err != nil {
			return nil, err
		}
	}

	report := &ReconcileReport{
		LedgerCount: len(records),
		IndexCount:  len(indexIDs),
		Reinserted:  len(missing),
		Removed:     len(orphans),
	}

	if report.Reinserted > 0 || report.Removed > 0 {
		s.logger.Info("reconciled ledger and index",
			"reinserted", report.Reinserted,
			"removed", report.Removed,
		)
	}

	return report, nil
}
