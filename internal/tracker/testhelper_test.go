// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package tracker_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tally-dev/tally/internal/embed"
	"github.com/tally-dev/tally/internal/index"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/tracker"
)

// fixture bundles a service with direct handles on its stores so tests can
// inspect and perturb them.
type fixture struct {
	svc    *tracker.Service
	ledger *ledger.Store
	index  *index.SQLite
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	ls := ledger.NewStore(filepath.Join(dir, "transactions.json"), nil)

	idx, err := index.NewSQLite(filepath.Join(dir, "index.db"), embed.NewLocal(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	return &fixture{
		svc:    tracker.New(ls, idx, nil),
		ledger: ls,
		index:  idx,
	}
}

func (f *fixture) mustStore(t *testing.T, records ...ledger.Record) {
	t.Helper()
	n, err := f.svc.StoreTransactions(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, len(records), n)
}

func (f *fixture) ledgerRecords(t *testing.T) []ledger.Record {
	t.Helper()
	records, err := f.ledger.Load()
	require.NoError(t, err)
	return records
}

func (f *fixture) indexCount(t *testing.T) int {
	t.Helper()
	n, err := f.index.Count(context.Background())
	require.NoError(t, err)
	return n
}

func txn(date string, amount float64, description, category string) ledger.Record {
	return ledger.Record{Date: date, Amount: amount, Description: description, Category: category}
}
