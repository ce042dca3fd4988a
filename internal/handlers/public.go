// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"printforge/internal/cache"
	"printforge/internal/markdown"
	"printforge/internal/models"
	"printforge/internal/store"
)

// defaultPageSize is the storefront list page size.
const defaultPageSize = 24

// Public groups handlers for the storefront API. List and detail
// responses go through the Valkey response cache; dashboard mutations
// invalidate it per kind.
type Public struct {
	entryStore    *store.EntryStore
	categoryStore *store.CategoryStore
	respCache     *cache.ResponseCache
}

// NewPublic creates a new Public handler group.
func NewPublic(entryStore *store.EntryStore, categoryStore *store.CategoryStore, respCache *cache.ResponseCache) *Public {
	return &Public{
		entryStore:    entryStore,
		categoryStore: categoryStore,
		respCache:     respCache,
	}
}

// List serves the active entries of a kind, filtered by category and
// search query, paginated.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	key := cache.ListKey(string(kind), category, query, page)
	if cached, hit := p.respCache.Get(ctx, key); hit {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	items, total, err := p.entryStore.ListSummaries(kind, store.ListFilter{
		CategoryID: category,
		Query:      query,
		Page:       page,
		PageSize:   defaultPageSize,
		ActiveOnly: true,
	})
	if err != nil {
		slog.Error("list entries failed", "kind", kind, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.EntrySummary{}
	}

	body, err := json.Marshal(map[string]any{
		"items": items,
		"total": total,
		"page":  page,
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.respCache.Set(ctx, key, body)

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Detail serves one active entry with its gallery, files, and the blurb
// rendered to HTML.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	key := cache.DetailKey(string(kind), id.String())
	if cached, hit := p.respCache.Get(ctx, key); hit {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	entry, err := p.entryStore.FindByID(kind, id)
	if err != nil {
		slog.Error("find entry failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if entry == nil || !entry.Active {
		http.NotFound(w, r)
		return
	}

	blurbHTML, err := markdown.ToHTML(entry.Blurb)
	if err != nil {
		slog.Warn("blurb render failed", "id", id, "error", err)
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(map[string]any{
		"entry":      entry,
		"blurb_html": blurbHTML,
	}); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.respCache.Set(ctx, key, body.Bytes())

	w.Header().Set("Content-Type", "application/json")
	w.Write(body.Bytes())
}

// Categories serves the category list with usage counts. Categories are
// few and change rarely, so this skips the response cache.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := p.categoryStore.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
