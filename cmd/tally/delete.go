// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/tracker"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete transactions by position, or all of them",
		Long: "Delete transactions at the given ledger positions (see tally list), or every " +
			"transaction with --all. Nothing is deleted unless --confirm is set.",
		RunE: runDelete,
	}

	cmd.Flags().IntSlice("indices", nil, "ledger positions to delete, from a current listing")
	cmd.Flags().Bool("all", false, "delete all transactions")
	cmd.Flags().Bool("confirm", false, "actually perform the deletion")

	return cmd
}

func runDelete(cmd *cobra.Command, _ []string) error {
	indices, _ := cmd.Flags().GetIntSlice("indices")
	all, _ := cmd.Flags().GetBool("all")
	confirm, _ := cmd.Flags().GetBool("confirm")

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	message, err := a.tracker.DeleteTransactions(cmd.Context(), tracker.DeleteOpts{
		Indices: indices,
		All:     all,
		Confirm: confirm,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), message)
	return err
}
