// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the printforge server.
// Handlers are grouped by concern (public, dashboard, draft) and receive
// their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"printforge/internal/models"
)

// writeJSON serializes a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// kindParam parses the {kind} route parameter, writing a 404 on failure.
// Unknown kinds are a wrong URL, not a bad request.
func kindParam(w http.ResponseWriter, r *http.Request) (models.EntryKind, bool) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return kind, true
}
