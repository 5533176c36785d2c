// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tally-dev/tally/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tally HTTP API",
		Long:  "Load configuration, open the stores, and serve the HTTP API until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := wireApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := server.New(server.Config{
		ListenAddr:  a.cfg.Server.Listen,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, a.tracker)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Serving tally API on %s\n", a.cfg.Server.Listen); err != nil {
		return err
	}

	return srv.Start(ctx)
}
