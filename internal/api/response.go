// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/validation"
	"github.com/tomtom215/shelfwise/internal/vectorindex"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodePersistence        = "PERSISTENCE_ERROR"
	ErrCodeEventPublish       = "EVENT_PUBLISH_FAILED"
)

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess sends data with the elapsed time since start.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   logging.RequestIDFromContext(r.Context()),
		},
	})
}

// respondError sends an error response. err, when set, is logged with the
// request context and never returned to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Err(err).
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("API error")
	}
	respondAPIError(w, r, status, &APIError{Code: code, Message: message})
}

func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError) {
	respondJSON(w, status, &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: apiErr,
	})
}

// respondDomainError maps index and storage errors to HTTP statuses.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, vectorindex.ErrDimensionMismatch), errors.Is(err, vectorindex.ErrInvalidVector),
		errors.Is(err, vectorindex.ErrEmptyID):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
	case errors.Is(err, vectorindex.ErrPersistence):
		respondError(w, r, http.StatusInternalServerError, ErrCodePersistence, "Snapshot storage failed", err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}

// validateRequest validates a struct using go-playground/validator.
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	out := &APIError{Code: apiErr.Code, Message: apiErr.Message}
	if len(apiErr.Details) > 0 {
		out.Details = apiErr.Details
	}
	return out
}

// decodeJSON reads a bounded JSON body into dst and validates it.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Request body is required", nil)
		return false
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer func() { _ = body.Close() }() //nolint:errcheck // body fully consumed or rejected

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err)
		return false
	}

	if apiErr := validateRequest(dst); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return false
	}
	return true
}

// sanitizeLogValue replaces control characters so request data cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
