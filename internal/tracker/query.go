// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package tracker

import (
	"context"
	"fmt"
	"strings"
)

const (
	// queryResults is the number of nearest neighbors requested per query.
	queryResults = 10
	// queryDisplayLimit caps how many result lines the summary renders.
	queryDisplayLimit = 5
)

const noMatchMessage = "No matching transactions found."

// QueryFinancialHistory runs a nearest-neighbor search over the index and
// renders a human-readable summary: match count, total amount, and up to
// five result lines in similarity order (not chronological order).
func (s *Service) QueryFinancialHistory(ctx context.Context, query string) (string, error) {
	results, err := s.index.Query(ctx, query, queryResults)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return noMatchMessage, nil
	}

	var total float64
	for _, rec := range results {
		// A record with no amount contributes zero to the total.
		total += rec.Amount
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant transactions.\n", len(results))
	fmt.Fprintf(&b, "Total amount: $%.2f\n\n", total)
	b.WriteString("Recent transactions:\n")

	shown := results
	if len(shown) > queryDisplayLimit {
		shown = shown[:queryDisplayLimit]
	}
	for _, rec := range shown {
		fmt.Fprintf(&b, "- %s: $%.2f - %s\n", rec.Date, rec.Amount, rec.Description)
	}

	return b.String(), nil
}
