// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the API and the event handlers.
// Field names in errors use the json tag so messages match request bodies,
// and a "tenantid" tag checks tenant identifiers.
//
//	type searchRequest struct {
//	    Vector []float32 `json:"vector" validate:"required,min=1"`
//	    TopK   int       `json:"top_k" validate:"omitempty,min=1,max=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
