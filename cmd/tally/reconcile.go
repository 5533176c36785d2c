// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair drift between the ledger and the search index",
		Long: "Re-insert ledger records missing from the search index and remove index " +
			"entries whose record is gone from the ledger.",
		RunE: runReconcile,
	}
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	report, err := a.tracker.Reconcile(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, err = fmt.Fprintf(out,
		"Ledger records: %d\nIndex entries:  %d\nRe-inserted:    %d\nRemoved:        %d\n",
		report.LedgerCount, report.IndexCount, report.Reinserted, report.Removed)
	return err
}
