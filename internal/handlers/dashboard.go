// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"printforge/internal/cache"
	"printforge/internal/catalog"
	"printforge/internal/models"
	"printforge/internal/store"
)

// Dashboard groups the owner-facing handlers: entry CRUD, direct asset
// operations on persisted entries, category management, and the draft
// routes in draft.go.
type Dashboard struct {
	entryStore    *store.EntryStore
	categoryStore *store.CategoryStore
	uploads       *catalog.Uploads
	cascade       *catalog.Cascade
	draft         *catalog.Draft
	listCache     *catalog.ListCache
	respCache     *cache.ResponseCache
}

// NewDashboard creates a new Dashboard handler group.
func NewDashboard(entryStore *store.EntryStore, categoryStore *store.CategoryStore, uploads *catalog.Uploads, cascade *catalog.Cascade, draft *catalog.Draft, listCache *catalog.ListCache, respCache *cache.ResponseCache) *Dashboard {
	return &Dashboard{
		entryStore:    entryStore,
		categoryStore: categoryStore,
		uploads:       uploads,
		cascade:       cascade,
		draft:         draft,
		listCache:     listCache,
		respCache:     respCache,
	}
}

// EntryList serves the dashboard grid for a kind, inactive entries
// included. The result seeds the in-memory list cache so later draft
// mutations can patch it instead of refetching.
func (d *Dashboard) EntryList(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	if items, hit := d.listCache.Get(kind); hit {
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}

	items, _, err := d.entryStore.ListSummaries(kind, store.ListFilter{PageSize: 500})
	if err != nil {
		slog.Error("dashboard list failed", "kind", kind, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.EntrySummary{}
	}
	d.listCache.Set(kind, items)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// EntryCreate persists a new entry directly from one multipart request:
// core fields plus the thumbnail file. The draft flow in draft.go is the
// richer path; this one serves scripted imports.
func (d *Dashboard) EntryCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	thumb, ok := readImageUpload(w, r, "thumbnail")
	if !ok {
		return
	}
	title := r.FormValue("title")
	if title == "" {
		writeError(w, "title is required", http.StatusBadRequest)
		return
	}
	categoryID := r.FormValue("category_id")
	if categoryID == "" {
		categoryID = models.UncategorizedID
	}

	entry := &models.Entry{
		Kind:       kind,
		Title:      title,
		Blurb:      r.FormValue("blurb"),
		PriceLabel: r.FormValue("price_label"),
		CategoryID: categoryID,
		Active:     r.FormValue("active") != "false",
	}

	created, err := d.uploads.CreateEntry(r.Context(), entry, downscaleThumb(thumb))
	if err != nil {
		slog.Error("entry create failed", "kind", kind, "error", err)
		writeError(w, "Failed to create entry.", http.StatusInternalServerError)
		return
	}

	d.listCache.Upsert(created.Summary())
	d.respCache.InvalidateKind(r.Context(), string(kind))
	writeJSON(w, http.StatusCreated, created)
}

// EntryUpdate applies core-field changes from a JSON body.
func (d *Dashboard) EntryUpdate(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var fields catalog.CoreFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}

	entry, err := d.entryStore.FindByID(kind, id)
	if err != nil {
		slog.Error("find entry failed", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	if fields.Title != nil {
		entry.Title = *fields.Title
	}
	if fields.Blurb != nil {
		entry.Blurb = *fields.Blurb
	}
	if fields.PriceLabel != nil {
		entry.PriceLabel = *fields.PriceLabel
	}
	if fields.CategoryID != nil {
		entry.CategoryID = *fields.CategoryID
	}
	if fields.SortOrder != nil {
		entry.SortOrder = *fields.SortOrder
	}
	if fields.Active != nil {
		entry.Active = *fields.Active
	}
	if entry.Title == "" {
		writeError(w, "title is required", http.StatusBadRequest)
		return
	}

	if err := d.entryStore.Update(entry); err != nil {
		slog.Error("entry update failed", "id", id, "error", err)
		writeError(w, "Failed to update entry.", http.StatusInternalServerError)
		return
	}

	d.listCache.Upsert(entry.Summary())
	d.respCache.InvalidateKind(r.Context(), string(kind))
	writeJSON(w, http.StatusOK, entry)
}

// deleteOptions is the optional JSON body for EntryDelete.
type deleteOptions struct {
	DeleteAssets *bool  `json:"delete_assets"`
	ThumbLocator string `json:"thumb_locator"`
}

// EntryDelete runs the deletion cascade. The response reports blobs that
// survived cleanup; their keys are logged for a later sweep.
func (d *Dashboard) EntryDelete(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	opts := deleteOptions{}
	// Body is optional; decode errors on an empty body are fine.
	json.NewDecoder(r.Body).Decode(&opts)

	req := catalog.DeleteRequest{
		ID:           id,
		ThumbLocator: opts.ThumbLocator,
		DeleteAssets: opts.DeleteAssets == nil || *opts.DeleteAssets,
	}
	report, err := d.cascade.Delete(r.Context(), req)
	if err != nil {
		slog.Error("entry delete failed", "id", id, "error", err)
		writeError(w, "Failed to delete entry.", http.StatusInternalServerError)
		return
	}

	d.listCache.Remove(kind, id)
	d.respCache.InvalidateKind(r.Context(), string(kind))

	failed := make([]map[string]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		failed = append(failed, map[string]string{"bucket": f.Bucket, "key": f.Key})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":         true,
		"cleanup_partial": report.Partial(),
		"failed_objects":  failed,
	})
}

// AddImage uploads a gallery image straight onto a persisted entry.
func (d *Dashboard) AddImage(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	up, ok := readImageUpload(w, r, "file")
	if !ok {
		return
	}

	added, err := d.uploads.AttachImage(r.Context(), kind, id, up)
	if err != nil {
		slog.Error("add image failed", "entry", id, "error", err)
		writeError(w, "Failed to add image.", http.StatusInternalServerError)
		return
	}

	d.listCache.Mutate(kind, id, func(s *models.EntrySummary) { s.ImageCount++ })
	d.respCache.InvalidateKind(r.Context(), string(kind))
	writeJSON(w, http.StatusCreated, added)
}

// AddFile uploads a downloadable print file onto a persisted entry.
func (d *Dashboard) AddFile(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	up, ok := readFileUpload(w, r, "file")
	if !ok {
		return
	}

	added, err := d.uploads.AttachFile(r.Context(), kind, id, up, r.FormValue("label"))
	if err != nil {
		slog.Error("add file failed", "entry", id, "error", err)
		writeError(w, "Failed to add file.", http.StatusInternalServerError)
		return
	}

	d.listCache.Mutate(kind, id, func(s *models.EntrySummary) { s.FileCount++ })
	d.respCache.InvalidateKind(r.Context(), string(kind))
	writeJSON(w, http.StatusCreated, added)
}

// assetRef is the JSON body naming an asset to remove.
type assetRef struct {
	AssetID string `json:"asset_id"`
}

// RemoveImage deletes a gallery image row and its blob.
func (d *Dashboard) RemoveImage(w http.ResponseWriter, r *http.Request) {
	d.removeAsset(w, r, d.uploads.RemoveImage, func(s *models.EntrySummary) { s.ImageCount-- })
}

// RemoveFile deletes a downloadable-file row and its blob.
func (d *Dashboard) RemoveFile(w http.ResponseWriter, r *http.Request) {
	d.removeAsset(w, r, d.uploads.RemoveFile, func(s *models.EntrySummary) { s.FileCount-- })
}

func (d *Dashboard) removeAsset(w http.ResponseWriter, r *http.Request, remove func(ctx context.Context, id uuid.UUID) error, patch func(*models.EntrySummary)) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var ref assetRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	assetID, err := models.ParseAssetID(ref.AssetID)
	if err != nil {
		writeError(w, "Invalid asset id.", http.StatusBadRequest)
		return
	}
	remote, ok := assetID.Remote()
	if !ok {
		// Draft-local ids never refer to stored rows.
		writeError(w, "Asset id does not name a stored asset.", http.StatusBadRequest)
		return
	}

	if err := remove(r.Context(), remote); err != nil {
		slog.Error("remove asset failed", "asset", remote, "error", err)
		writeError(w, "Failed to remove asset.", http.StatusInternalServerError)
		return
	}

	d.listCache.Mutate(kind, entryID, patch)
	d.respCache.InvalidateKind(r.Context(), string(kind))
	w.WriteHeader(http.StatusNoContent)
}

// UpdateThumb replaces a persisted entry's thumbnail.
func (d *Dashboard) UpdateThumb(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	up, ok := readImageUpload(w, r, "file")
	if !ok {
		return
	}

	url, err := d.uploads.ReplaceThumb(r.Context(), kind, id, downscaleThumb(up))
	if err != nil {
		slog.Error("update thumb failed", "entry", id, "error", err)
		writeError(w, "Failed to update thumbnail.", http.StatusInternalServerError)
		return
	}

	d.listCache.Mutate(kind, id, func(s *models.EntrySummary) { s.ThumbURL = url })
	d.respCache.InvalidateKind(r.Context(), string(kind))
	writeJSON(w, http.StatusOK, map[string]string{"thumb_url": url})
}

// CategoryCreate creates (or returns) a category from a label.
func (d *Dashboard) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}

	created, err := d.categoryStore.CreateOrGet(body.Label)
	if err != nil {
		if errors.Is(err, store.ErrEmptyLabel) {
			writeError(w, "A category label is required.", http.StatusBadRequest)
			return
		}
		slog.Error("category create failed", "label", body.Label, "error", err)
		writeError(w, "Failed to create category.", http.StatusInternalServerError)
		return
	}

	d.respCache.InvalidateAll(r.Context())
	writeJSON(w, http.StatusCreated, created)
}

// CategoryDelete removes a category, reassigning its entries. With no
// reassignment target in the body, entries move to "uncategorized".
func (d *Dashboard) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		ReassignTo string `json:"reassign_to"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	err := d.categoryStore.DeleteWithReassign(id, body.ReassignTo)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrSentinelCategory), errors.Is(err, store.ErrReassignSelf):
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, store.ErrCategoryNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
		return
	default:
		slog.Error("category delete failed", "id", id, "error", err)
		writeError(w, "Failed to delete category.", http.StatusInternalServerError)
		return
	}

	d.respCache.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
