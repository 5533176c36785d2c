// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/secrets"
	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// serviceName is the keyring service name under which tally stores secrets.
const serviceName = "tally"

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets stored in the OS keyring",
		Long: "Store, read, and delete secrets under the tally service in the operating " +
			"system keyring. Config values may then reference them as keyring://tally/<name>.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretGetCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretSet,
	}
}

func newSecretGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a secret value",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretGet,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	// The value comes from stdin so it never lands in shell history.
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return tallyerr.Errorf(tallyerr.CodeCLIInputInvalid, "reading secret value from stdin: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return tallyerr.New(tallyerr.CodeCLIInputInvalid, "secret value must not be empty")
	}

	store := secretStoreFactory()
	if err := store.Store(serviceName, name, value); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(),
		"Stored secret %s. Reference it in config as keyring://%s/%s\n", name, serviceName, name)
	return err
}

func runSecretGet(cmd *cobra.Command, args []string) error {
	name := args[0]

	store := secretStoreFactory()
	value, err := store.Retrieve(serviceName, name)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
	return err
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	store := secretStoreFactory()
	if err := store.Delete(serviceName, name); err != nil {
		return err
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return err
}
