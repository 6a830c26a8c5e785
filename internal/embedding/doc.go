// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package embedding provides the client for the external text embedding
provider.

The client speaks the Text Embeddings Inference (TEI) protocol: a POST to
{url}/embed with {"inputs": "...", "truncate": true} returns a JSON array of
vectors. Every vector must have the configured dimension.

# Resilience

Calls go through, in order:

  - an LRU cache keyed by text, so repeated summaries are embedded once
  - a token bucket limiter (golang.org/x/time/rate)
  - a circuit breaker (sony/gobreaker) that fails fast while the provider is down
  - exponential backoff retries (cenkalti/backoff) for transport errors,
    429 and 5xx responses

Any failure surfaces as an error wrapping ErrUnavailable. Callers treat it
as "no embedding" and skip the signal that needed it.

# Usage

	client, err := embedding.NewClient(cfg, logger)
	if err != nil {
	    return err
	}
	vector, err := client.Embed(ctx, "gold customer. interested in shoes")
*/
package embedding
