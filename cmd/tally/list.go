// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/tracker"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored transactions",
		Long: "List transactions in ledger order. Each line starts with the transaction's " +
			"current position, which the delete command accepts as an index.",
		RunE: runList,
	}

	cmd.Flags().Int("limit", 0, "page size (default 20)")
	cmd.Flags().Int("offset", 0, "number of records to skip")
	cmd.Flags().String("category", "", "filter by category (case-insensitive exact match)")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	category, _ := cmd.Flags().GetString("category")

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	page, err := a.tracker.ListTransactions(cmd.Context(), tracker.ListOpts{
		Limit:    limit,
		Offset:   offset,
		Category: category,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if page.Total == 0 {
		_, err := fmt.Fprintln(out, "No transactions stored.")
		return err
	}

	for _, rec := range page.Transactions {
		if _, err := fmt.Fprintf(out, "[%d] %s  %10.2f  %s  (%s)\n",
			rec.Position, rec.Date, rec.Amount, rec.Description, rec.Category); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(out, "Showing %d of %d transaction(s).\n", len(page.Transactions), page.Total); err != nil {
		return err
	}
	if page.HasMore {
		if _, err := fmt.Fprintf(out, "More available: rerun with --offset %d\n", page.Offset+page.Limit); err != nil {
			return err
		}
	}

	return nil
}
