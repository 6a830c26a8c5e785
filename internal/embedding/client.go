// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/shelfwise/internal/cache"
	"github.com/tomtom215/shelfwise/internal/metrics"
)

var (
	// ErrUnavailable is returned when no embedding could be produced.
	ErrUnavailable = errors.New("embedding unavailable")

	// ErrEmptyInput is returned for blank texts.
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidConfig is returned by NewClient for unusable settings.
	ErrInvalidConfig = errors.New("invalid embedding configuration")
)

const maxErrorBody = 512

// Config configures the embedding client.
type Config struct {
	// URL is the provider base URL; the client posts to URL + "/embed".
	URL string `koanf:"url" json:"url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key" json:"-"`

	// Dimension is the expected vector length.
	Dimension int `koanf:"dimension" json:"dimension"`

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64 `koanf:"max_retries" json:"max_retries"`

	// RequestsPerSecond and Burst shape outgoing traffic.
	RequestsPerSecond float64 `koanf:"requests_per_second" json:"requests_per_second"`
	Burst             int     `koanf:"burst" json:"burst"`

	// CacheSize and CacheTTL bound the text-to-vector cache. A zero size
	// disables caching.
	CacheSize int           `koanf:"cache_size" json:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl" json:"cache_ttl"`
}

// DefaultConfig returns defaults for a local TEI instance.
func DefaultConfig() Config {
	return Config{
		URL:               "http://localhost:8080",
		Dimension:         768,
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		RequestsPerSecond: 50,
		Burst:             10,
		CacheSize:         5000,
		CacheTTL:          time.Hour,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	if c.Dimension < 1 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, c.Dimension)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	}
	if c.RequestsPerSecond <= 0 || c.Burst < 1 {
		return fmt.Errorf("%w: rate limit requires positive requests_per_second and burst", ErrInvalidConfig)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// teiRequest is the request body of the TEI embed endpoint.
type teiRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
}

// statusError is an unexpected HTTP status from the provider.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.code, e.body)
}

// retryable reports whether another attempt may succeed.
func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Client calls a TEI-compatible embedding provider. It is safe for
// concurrent use.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]float32]
	cache      *cache.LRU[string, []float32]
	logger     zerolog.Logger

	// newBackOff is replaced in tests to avoid real sleeps.
	newBackOff func() backoff.BackOff
}

// NewClient creates a client from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/embed",
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:     logger.With().Str("component", "embedding").Logger(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
	if cfg.CacheSize > 0 {
		c.cache = cache.NewLRU[string, []float32](cfg.CacheSize, cfg.CacheTTL)
	}
	c.breaker = newBreaker(breakerName, c.logger)

	return c, nil
}

// Dimension returns the configured vector length.
func (c *Client) Dimension() int {
	return c.cfg.Dimension
}

// Embed returns the embedding of text. The returned slice is owned by the
// caller.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrEmptyInput)
	}

	if c.cache != nil {
		if v, ok := c.cache.Get(text); ok {
			metrics.RecordEmbeddingCache(true)
			return slices.Clone(v), nil
		}
		metrics.RecordEmbeddingCache(false)
	}

	start := time.Now()
	vector, err := c.breaker.Execute(func() ([]float32, error) {
		v, err := c.embedWithRetry(ctx, text)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, err)
		}
		return v, err
	})
	metrics.RecordEmbeddingRequest(time.Since(start), err)
	recordBreakerResult(breakerName, err)
	if err != nil {
		c.logger.Warn().Err(err).Int("text_len", len(text)).Msg("Embedding request failed")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if c.cache != nil {
		c.cache.Add(text, slices.Clone(vector))
	}
	return vector, nil
}

func (c *Client) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		v, err := c.embedOnce(ctx, text)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && !se.retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		vector = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.cfg.MaxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Debug().Err(err).Dur("retry_in", wait).Msg("Retrying embedding request")
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: text, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(vectors) == 0 {
		return nil, backoff.Permanent(errors.New("provider returned no vectors"))
	}
	if len(vectors[0]) != c.cfg.Dimension {
		return nil, backoff.Permanent(fmt.Errorf("provider returned %d dimensions, want %d", len(vectors[0]), c.cfg.Dimension))
	}
	return vectors[0], nil
}
