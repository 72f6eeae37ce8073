// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the storefront admin panel.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/hierarchy"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeJSON sends data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("write json response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeFailure maps a service error to a response. Rejections become
// client errors carrying their reason; anything else is logged and
// reported as a 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var rej *hierarchy.Rejection
	if errors.As(err, &rej) {
		writeJSON(w, statusForReason(rej.Reason), errorBody{
			Error:  rejectionMessage(rej.Reason),
			Reason: string(rej.Reason),
		})
		return
	}

	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func statusForReason(reason hierarchy.Reason) int {
	switch reason {
	case hierarchy.ReasonNotFound:
		return http.StatusNotFound
	case hierarchy.ReasonSelfReference, hierarchy.ReasonEmptyName:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

func rejectionMessage(reason hierarchy.Reason) string {
	switch reason {
	case hierarchy.ReasonNotFound:
		return "Category not found."
	case hierarchy.ReasonAlreadyChild:
		return "This category is already attached to another category."
	case hierarchy.ReasonChildHasChildren:
		return "A category with its own children cannot become a child."
	case hierarchy.ReasonSelfReference:
		return "A category cannot be attached to itself."
	case hierarchy.ReasonNotAChild:
		return "This category is not attached to any category."
	case hierarchy.ReasonEmptyName:
		return "Name is required."
	case hierarchy.ReasonParentIsChild:
		return "The target is itself a child and cannot take children."
	case hierarchy.ReasonHasChildren:
		return "Detach the children of this category before deleting it."
	}
	return "The change was rejected."
}

// decodeJSON reads a JSON body into v, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return errors.New("decode body: unexpected trailing data")
	}
	return nil
}

// uuidParam parses a chi URL parameter as a UUID. It writes a 400 and
// returns false when the value is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s.", name))
		return uuid.Nil, false
	}
	return id, true
}
