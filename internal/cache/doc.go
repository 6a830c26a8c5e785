// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package cache provides a thread-safe, bounded LRU cache with TTL support.

The embedding client uses it to avoid re-embedding identical texts, such as
the user summaries of returning shoppers or unchanged catalog products.

# Usage Example

	c := cache.NewLRU[string, []float32](1000, time.Hour)

	if v, ok := c.Get(text); ok {
	    return v, nil
	}
	v, err := provider.Embed(ctx, text)
	if err == nil {
	    c.Add(text, v)
	}

# Expiration

Entries expire lazily: an expired entry is dropped when it is next read.
CleanupExpired removes every expired entry at once and can be called from a
periodic job.

# Thread Safety

All methods are safe for concurrent use.
*/
package cache
