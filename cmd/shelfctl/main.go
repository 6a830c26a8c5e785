// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package main implements shelfctl, the operator CLI of a Shelfwise server.
//
// Every command except token talks to the HTTP API; token signs a tenant
// token locally with the server's JWT secret.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL of the Shelfwise HTTP server
	serverURL string
	// apiToken is sent as a bearer token
	apiToken string
	// requestTimeout bounds each HTTP request
	requestTimeout time.Duration

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shelfctl",
	Short: "Operate a Shelfwise recommendation server",
	Long: `shelfctl issues tenant tokens, bulk-imports catalogs and orders,
triggers rule learning and checks the health of a Shelfwise server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SHELFWISE_URL", "http://localhost:3860"), "Shelfwise server URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("SHELFWISE_TOKEN"), "bearer token (default $SHELFWISE_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 60*time.Second, "timeout of each request")

	rootCmd.AddCommand(tokenCmd, healthCmd, statsCmd, learnCmd, importCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newClient() *client {
	return newAPIClient(serverURL, apiToken, requestTimeout)
}
