// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>...",
		Short: "Query financial history in natural language",
		Long:  "Run a semantic search over stored transactions and print a summary of the matches.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuery,
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	summary, err := a.tracker.QueryFinancialHistory(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
	return err
}
