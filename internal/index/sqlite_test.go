// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally-dev/tally/internal/embed"
	"github.com/tally-dev/tally/internal/index"
	"github.com/tally-dev/tally/internal/ledger"
)

// testDir creates a temp directory for a test and returns cleanup func.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tally-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func testIndex(t *testing.T, name string) *index.SQLite {
	t.Helper()
	idx, err := index.NewSQLite(filepath.Join(testDir(t), name+".db"), embed.NewLocal(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func coffeeRecord(id string) ledger.Record {
	return ledger.Record{ID: id, Date: "2026-01-02", Amount: -4.50, Description: "espresso at corner coffee shop", Category: "Food"}
}

func rentRecord(id string) ledger.Record {
	return ledger.Record{ID: id, Date: "2026-01-01", Amount: -1200, Description: "monthly rent payment", Category: "Housing"}
}

func TestInsertAndQueryReturnsAttributeBags(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "insert-query")

	coffee := coffeeRecord("c1")
	rent := rentRecord("r1")
	require.NoError(t, idx.Insert(ctx, []index.Entry{
		index.NewEntry(coffee.ID, coffee),
		index.NewEntry(rent.ID, rent),
	}))

	results, err := idx.Query(ctx, "espresso coffee", 10)
	require.NoError(t, err)
	require.Len(t, results, 2) // all top-k returned even if weakly relevant

	// Similarity rank: the coffee record comes first.
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, coffee.Date, results[0].Date)
	assert.Equal(t, coffee.Amount, results[0].Amount)
	assert.Equal(t, coffee.Description, results[0].Description)
	assert.Equal(t, coffee.Category, results[0].Category)
}

func TestQueryEmptyIndex(t *testing.T) {
	idx := testIndex(t, "query-empty")

	results, err := idx.Query(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryRespectsK(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "query-k")

	var entries []index.Entry
	for _, rec := range []ledger.Record{coffeeRecord("a"), coffeeRecord("b"), rentRecord("c")} {
		entries = append(entries, index.NewEntry(rec.ID, rec))
	}
	// Distinct ids, so all three are stored.
	entries[1].Record.Description = "espresso to go"
	entries[1].Document = index.Render(entries[1].Record)
	require.NoError(t, idx.Insert(ctx, entries))

	results, err := idx.Query(ctx, "coffee", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDeleteWhereRemovesValueDuplicates(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "delete-where")

	// Two entries with identical transaction fields, different ids.
	first := coffeeRecord("dup1")
	second := coffeeRecord("dup2")
	other := rentRecord("keep")
	require.NoError(t, idx.Insert(ctx, []index.Entry{
		index.NewEntry(first.ID, first),
		index.NewEntry(second.ID, second),
		index.NewEntry(other.ID, other),
	}))

	removed, err := idx.DeleteWhere(ctx, ledger.Record{
		Date: first.Date, Amount: first.Amount, Description: first.Description, Category: first.Category,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, removed) // value equality cannot tell duplicates apart

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteWhereNoMatch(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "delete-where-none")

	rec := coffeeRecord("c1")
	require.NoError(t, idx.Insert(ctx, []index.Entry{index.NewEntry(rec.ID, rec)}))

	removed, err := idx.DeleteWhere(ctx, rentRecord(""))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteByIDRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "delete-by-id")

	// Identical field values; id-based deletion disambiguates.
	first := coffeeRecord("dup1")
	second := coffeeRecord("dup2")
	require.NoError(t, idx.Insert(ctx, []index.Entry{
		index.NewEntry(first.ID, first),
		index.NewEntry(second.ID, second),
	}))

	require.NoError(t, idx.DeleteByID(ctx, []string{"dup1"}))

	ids, err := idx.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup2"}, ids)
}

func TestDeleteByIDEmpty(t *testing.T) {
	idx := testIndex(t, "delete-by-id-empty")
	require.NoError(t, idx.DeleteByID(context.Background(), nil))
	require.NoError(t, idx.DeleteByID(context.Background(), []string{}))
}

func TestInsertUpsertsByID(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "upsert")

	rec := coffeeRecord("c1")
	require.NoError(t, idx.Insert(ctx, []index.Entry{index.NewEntry(rec.ID, rec)}))

	rec.Description = "espresso and a croissant"
	require.NoError(t, idx.Insert(ctx, []index.Entry{index.NewEntry(rec.ID, rec)}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := idx.Query(ctx, "croissant", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "espresso and a croissant", results[0].Description)
}

func TestResetClearsAndRecreates(t *testing.T) {
	ctx := context.Background()
	idx := testIndex(t, "reset")

	rec := coffeeRecord("c1")
	require.NoError(t, idx.Insert(ctx, []index.Entry{index.NewEntry(rec.ID, rec)}))

	require.NoError(t, idx.Reset(ctx))
	// Idempotent: resetting an already-empty collection succeeds.
	require.NoError(t, idx.Reset(ctx))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Collection is usable again after reset.
	require.NoError(t, idx.Insert(ctx, []index.Entry{index.NewEntry(rec.ID, rec)}))
	results, err := idx.Query(ctx, "coffee", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRenderTemplate(t *testing.T) {
	rec := ledger.Record{Date: "2026-01-02", Amount: -12.5, Description: "taxi", Category: "Transport"}
	assert.Equal(t, "Date: 2026-01-02 Amount: -12.5 Description: taxi Category: Transport", index.Render(rec))

	rec.Category = ""
	assert.Equal(t, "Date: 2026-01-02 Amount: -12.5 Description: taxi Category: unknown", index.Render(rec))
}

func TestInsertEmptyBatch(t *testing.T) {
	idx := testIndex(t, "insert-empty")
	require.NoError(t, idx.Insert(context.Background(), nil))
}
