// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package tracker

import (
	"context"
	"strings"

	"github.com/tally-dev/tally/internal/ledger"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// defaultListLimit is the page size when the caller does not set one.
const defaultListLimit = 20

// ListOpts are pagination and filter parameters for ListTransactions.
type ListOpts struct {
	Limit    int
	Offset   int
	Category string
}

// ListedRecord is a record tagged with its current ledger position. The
// position is recomputed on every read and invalidated by any mutation; it
// must only be used within a single list-then-delete round trip.
type ListedRecord struct {
	Position int `json:"index"`
	ledger.Record
}

// Page is one page of listed transactions.
type Page struct {
	Total        int            `json:"total"`
	Offset       int            `json:"offset"`
	Limit        int            `json:"limit"`
	Transactions []ListedRecord `json:"transactions"`
	HasMore      bool           `json:"has_more"`
}

// ListTransactions loads the ledger, tags each record with its current
// position, optionally filters by case-insensitive exact category match,
// and returns the slice [offset, offset+limit) of the filtered sequence.
// Total counts all filtered records, not just the returned page.
func (s *Service) ListTransactions(_ context.Context, opts ListOpts) (*Page, error) {
	if opts.Limit < 0 {
		return nil, tallyerr.Errorf(tallyerr.CodeListInvalidInput, "limit must not be negative, got %d", opts.Limit)
	}
	if opts.Offset < 0 {
		return nil, tallyerr.Errorf(tallyerr.CodeListInvalidInput, "offset must not be negative, got %d", opts.Offset)
	}
	if opts.Limit == 0 {
		opts.Limit = defaultListLimit
	}

	records, err := s.ledger.Load()
	if err != nil {
		return nil, err
	}

	// Positions are assigned against the full ledger order, then filtered,
	// so a filtered listing still reports positions usable for deletion.
	filtered := make([]ListedRecord, 0, len(records))
	for i, rec := range records {
		if opts.Category != "" && !strings.EqualFold(rec.Category, opts.Category) {
			continue
		}
		filtered = append(filtered, ListedRecord{Position: i, Record: rec})
	}

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return &Page{
		Total:        total,
		Offset:       opts.Offset,
		Limit:        opts.Limit,
		Transactions: filtered[start:end],
		HasMore:      opts.Offset+opts.Limit < total,
	}, nil
}
