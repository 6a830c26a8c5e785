// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

var errNotPositive = errors.New("must be a positive integer")

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errNotPositive
	}
	return n, nil
}

// parseCommaSeparated parses a comma-separated string into a slice
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// filterFromQuery builds a metadata filter from the category, brand,
// in_stock, min_price and max_price query parameters. Categories and brands
// may be comma-separated lists.
func filterFromQuery(r *http.Request) (vectorindex.Filter, error) {
	q := r.URL.Query()
	filter := vectorindex.Filter{}

	for _, field := range []string{"category", "brand"} {
		switch values := parseCommaSeparated(q.Get(field)); len(values) {
		case 0:
		case 1:
			filter[field] = values[0]
		default:
			list := make([]any, len(values))
			for i, v := range values {
				list[i] = v
			}
			filter[field] = list
		}
	}

	if raw := q.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("in_stock must be a boolean")
		}
		filter["inStock"] = inStock
	}

	price := map[string]any{}
	for param, op := range map[string]string{"min_price": vectorindex.OpGTE, "max_price": vectorindex.OpLTE} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New(param + " must be a number")
		}
		price[op] = v
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if len(filter) == 0 {
		return nil, nil
	}
	return filter, nil
}
