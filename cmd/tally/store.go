// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/ledger"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store one or more transactions",
		Long: "Store a single transaction given via flags, or a batch read as a JSON array " +
			"from a file (--file, use - for stdin).",
		RunE: runStore,
	}

	cmd.Flags().StringP("file", "f", "", "JSON file with an array of transactions, - for stdin")
	cmd.Flags().String("date", "", "transaction date (e.g. 2026-01-15)")
	cmd.Flags().Float64("amount", 0, "signed amount, negative for spending")
	cmd.Flags().String("description", "", "free-text description")
	cmd.Flags().String("category", "", "category label")

	return cmd
}

func runStore(cmd *cobra.Command, _ []string) error {
	records, err := collectRecords(cmd)
	if err != nil {
		return err
	}

	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	n, err := a.tracker.StoreTransactions(cmd.Context(), records)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Successfully stored %d transaction(s).\n", n)
	return err
}

func collectRecords(cmd *cobra.Command) ([]ledger.Record, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		return readRecords(cmd, file)
	}

	date, _ := cmd.Flags().GetString("date")
	amount, _ := cmd.Flags().GetFloat64("amount")
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")

	if date == "" && description == "" {
		return nil, tallyerr.New(tallyerr.CodeCLIInputInvalid,
			"provide --file, or --date and --description for a single transaction")
	}

	return []ledger.Record{{
		Date:        date,
		Amount:      amount,
		Description: description,
		Category:    category,
	}}, nil
}

func readRecords(cmd *cobra.Command, file string) ([]ledger.Record, error) {
	var r io.Reader
	if file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, tallyerr.Errorf(tallyerr.CodeCLIInputInvalid, "opening %s: %w", file, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var records []ledger.Record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, tallyerr.Errorf(tallyerr.CodeCLIInputInvalid, "parsing transactions from %s: %w", file, err)
	}

	// Ids are always assigned server-side, even if the input carries them.
	for i := range records {
		records[i].ID = ""
	}

	return records, nil
}
