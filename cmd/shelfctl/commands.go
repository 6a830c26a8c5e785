// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfwise/internal/api"
	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

var (
	tokenTenant  string
	tokenRole    string
	tokenSubject string

	statsTenant string

	learnTenant        string
	learnSince         time.Duration
	learnLimit         int
	learnMinSupport    float64
	learnMinConfidence float64
)

func init() {
	tokenCmd.Flags().StringVar(&tokenTenant, "tenant", "", "tenant the token grants access to, or * for all tenants (admin only)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleReader, "role: admin, ingest or reader")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "shelfctl", "token subject")
	_ = tokenCmd.MarkFlagRequired("tenant") //nolint:errcheck // flag exists

	statsCmd.Flags().StringVar(&statsTenant, "tenant", "", "show one tenant instead of the global statistics")

	learnCmd.Flags().StringVar(&learnTenant, "tenant", "", "tenant to learn rules for")
	learnCmd.Flags().DurationVar(&learnSince, "since", 0, "only use orders newer than this (e.g. 720h); 0 uses the server default")
	learnCmd.Flags().IntVar(&learnLimit, "limit", 0, "maximum number of recent orders; 0 uses the server default")
	learnCmd.Flags().Float64Var(&learnMinSupport, "min-support", 0, "override the minimum pair support; negative disables it")
	learnCmd.Flags().Float64Var(&learnMinConfidence, "min-confidence", 0, "override the minimum confidence; negative disables it")
	_ = learnCmd.MarkFlagRequired("tenant") //nolint:errcheck // flag exists
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a tenant token",
	Long: `Sign a JWT with the server's secret (JWT_SECRET or the config file).

Examples:
  # Read-only token for one shop
  shelfctl token --tenant shop-42

  # Token for a catalog sync job
  shelfctl token --tenant shop-42 --role ingest

  # Cross-tenant admin token
  shelfctl token --tenant '*' --role admin`,
	RunE: runToken,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server readiness",
	RunE:  runHealth,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and rule statistics",
	RunE:  runStats,
}

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Learn association rules from stored orders",
	Long: `Mine "frequently bought together" rules from the order history the
server stored for a tenant.

Examples:
  shelfctl learn --tenant shop-42
  shelfctl learn --tenant shop-42 --since 2160h --min-confidence 0.2`,
	RunE: runLearn,
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	token, err := issueToken(&cfg.Security, tokenSubject, tokenTenant, tokenRole)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func issueToken(cfg *config.SecurityConfig, subject, tenant, role string) (string, error) {
	manager, err := auth.NewJWTManager(cfg)
	if err != nil {
		return "", err
	}
	return manager.GenerateToken(subject, tenant, role)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	data, status, err := newClient().do(cmd.Context(), http.MethodGet, "/api/v1/health/ready", nil)
	if len(data) > 0 {
		if printErr := printJSON(cmd.OutOrStdout(), data); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Server ready (HTTP %d)\n", status)
	return err
}

func runStats(cmd *cobra.Command, _ []string) error {
	path := "/api/v1/stats"
	if statsTenant != "" {
		path = tenantPath(statsTenant, "/catalog/stats")
	}
	data, _, err := newClient().do(cmd.Context(), http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), data)
}

func runLearn(cmd *cobra.Command, _ []string) error {
	data, _, err := newClient().do(cmd.Context(), http.MethodPost, tenantPath(learnTenant, "/orders/learn"), learnRequest(time.Now()))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), data)
}

// learnRequest builds the request from the learn flags. Unset options keep
// the server configuration.
func learnRequest(now time.Time) *api.LearnRequest {
	req := &api.LearnRequest{Limit: learnLimit}
	if learnSince > 0 {
		since := now.Add(-learnSince).UTC()
		req.Since = &since
	}
	if learnMinSupport != 0 || learnMinConfidence != 0 {
		opts := rules.DefaultOptions()
		if learnMinSupport != 0 {
			opts.MinSupport = learnMinSupport
		}
		if learnMinConfidence != 0 {
			opts.MinConfidence = learnMinConfidence
		}
		req.Options = &opts
	}
	return req
}
