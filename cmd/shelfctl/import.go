// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfwise/internal/api"
	"github.com/tomtom215/shelfwise/internal/recommend"
	"github.com/tomtom215/shelfwise/internal/recommend/rules"
)

var (
	importTenant    string
	importBatchSize int
	importAsync     bool
)

func init() {
	importCmd.PersistentFlags().StringVar(&importTenant, "tenant", "", "tenant to import into")
	importCmd.PersistentFlags().IntVar(&importBatchSize, "batch-size", 500, "records per request")
	importCmd.PersistentFlags().BoolVar(&importAsync, "async", false, "queue batches on the event bus instead of applying them inline")
	_ = importCmd.MarkPersistentFlagRequired("tenant") //nolint:errcheck // flag exists

	importCmd.AddCommand(importProductsCmd, importOrdersCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import products or orders",
	Long: `Import a JSON array or a JSON Lines file ("-" reads stdin) in batches.

Examples:
  # Index a storefront export; products without a vector are embedded by the server
  shelfctl import products --tenant shop-42 products.json

  # Append order history for rule learning
  shelfctl import orders --tenant shop-42 --batch-size 1000 orders.jsonl`,
}

var importProductsCmd = &cobra.Command{
	Use:   "products [file]",
	Short: "Import catalog products",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := readRecords[recommend.Product](args[0])
		if err != nil {
			return err
		}
		return importBatches(cmd.Context(), cmd.OutOrStdout(), newClient(), tenantPath(importTenant, "/catalog/products"), products,
			func(batch []recommend.Product) any {
				return &api.IngestProductsRequest{Products: batch, Async: importAsync}
			})
	},
}

var importOrdersCmd = &cobra.Command{
	Use:   "orders [file]",
	Short: "Import order history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orders, err := readRecords[rules.Order](args[0])
		if err != nil {
			return err
		}
		return importBatches(cmd.Context(), cmd.OutOrStdout(), newClient(), tenantPath(importTenant, "/orders"), orders,
			func(batch []rules.Order) any {
				return &api.RecordOrdersRequest{Orders: batch, Async: importAsync}
			})
	},
}

// importBatches posts records in batches of importBatchSize and stops at
// the first failed batch.
func importBatches[T any](ctx context.Context, out io.Writer, c *client, path string, records []T, build func([]T) any) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to import")
	}
	size := importBatchSize
	if size < 1 {
		size = len(records)
	}

	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		data, _, err := c.do(ctx, http.MethodPost, path, build(records[start:end]))
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if _, err := fmt.Fprintf(out, "records %d-%d: %s\n", start, end, bytes.TrimSpace(data)); err != nil {
			return err
		}
	}
	return nil
}

// readRecords parses a JSON array or JSON Lines from path, or stdin for "-".
func readRecords[T any](path string) ([]T, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close() //nolint:errcheck // read-only
		r = f
	}
	return decodeRecords[T](r)
}

func decodeRecords[T any](r io.Reader) ([]T, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	if bytes.HasPrefix(raw, []byte("[")) {
		var records []T
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
		return records, nil
	}

	var records []T
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(text, &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return records, nil
}
