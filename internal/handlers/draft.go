// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"printforge/internal/catalog"
	"printforge/internal/models"
)

// DraftStartNew opens a blank draft for a kind. Any previous draft is
// discarded, matching the dashboard's one-editor-at-a-time model.
func (d *Dashboard) DraftStartNew(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	d.draft.StartNew(kind)
	d.writeDraftState(w, http.StatusCreated)
}

// DraftStartEdit opens a draft over an existing entry, gallery and files
// included.
func (d *Dashboard) DraftStartEdit(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := d.draft.StartEdit(kind, id); err != nil {
		if errors.Is(err, catalog.ErrEntryNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("draft edit failed", "id", id, "error", err)
		writeError(w, "Failed to open entry for editing.", http.StatusInternalServerError)
		return
	}
	d.writeDraftState(w, http.StatusOK)
}

// DraftSetFields applies partial field changes to the open draft.
func (d *Dashboard) DraftSetFields(w http.ResponseWriter, r *http.Request) {
	var fields catalog.CoreFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, "Invalid JSON body.", http.StatusBadRequest)
		return
	}
	if err := d.draft.SetFields(fields); err != nil {
		writeDraftError(w, err)
		return
	}
	d.writeDraftState(w, http.StatusOK)
}

// DraftThumbnail stages a thumbnail for the open draft.
func (d *Dashboard) DraftThumbnail(w http.ResponseWriter, r *http.Request) {
	up, ok := readImageUpload(w, r, "file")
	if !ok {
		return
	}
	if err := d.draft.PickThumbnail(downscaleThumb(up)); err != nil {
		writeDraftError(w, err)
		return
	}
	d.writeDraftState(w, http.StatusOK)
}

// DraftAddGallery attaches a gallery image to the open draft.
func (d *Dashboard) DraftAddGallery(w http.ResponseWriter, r *http.Request) {
	up, ok := readImageUpload(w, r, "file")
	if !ok {
		return
	}
	asset, err := d.draft.AddGalleryAsset(r.Context(), up)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// DraftAddFile attaches a downloadable print file to the open draft.
func (d *Dashboard) DraftAddFile(w http.ResponseWriter, r *http.Request) {
	up, ok := readFileUpload(w, r, "file")
	if !ok {
		return
	}
	asset, err := d.draft.AddFileAsset(r.Context(), up, r.FormValue("label"))
	if err != nil {
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// DraftRemoveAsset drops an asset, draft-local or stored, from the draft.
func (d *Dashboard) DraftRemoveAsset(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseAssetID(chi.URLParam(r, "assetId"))
	if err != nil {
		writeError(w, "Invalid asset id.", http.StatusBadRequest)
		return
	}
	if err := d.draft.RemoveAsset(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrAssetNotInDraft) {
			http.NotFound(w, r)
			return
		}
		writeDraftError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DraftSave commits the open draft and reconciles the caches.
func (d *Dashboard) DraftSave(w http.ResponseWriter, r *http.Request) {
	saved, err := d.draft.Save(r.Context())
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": verr.Error(),
				"field": verr.Field,
			})
			return
		}
		if errors.Is(err, catalog.ErrNoDraft) {
			writeDraftError(w, err)
			return
		}
		slog.Error("draft save failed", "error", err)
		writeError(w, "Failed to save. The draft is preserved, try again.", http.StatusInternalServerError)
		return
	}

	d.respCache.InvalidateKind(r.Context(), string(saved.Kind))
	writeJSON(w, http.StatusOK, saved)
}

// DraftCancel discards the open draft. Cancelling with no draft open is
// a no-op.
func (d *Dashboard) DraftCancel(w http.ResponseWriter, r *http.Request) {
	d.draft.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// DraftShow returns the current draft state.
func (d *Dashboard) DraftShow(w http.ResponseWriter, r *http.Request) {
	d.writeDraftState(w, http.StatusOK)
}

// DraftPreview serves the raw bytes of a pending asset. These locators
// are process-local and stop resolving once the draft closes.
func (d *Dashboard) DraftPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assetId")
	up, ok := d.draft.PendingPreview(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", up.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(up.Data)
}

func (d *Dashboard) writeDraftState(w http.ResponseWriter, status int) {
	entry, open := d.draft.Snapshot()
	if !open {
		writeError(w, "no draft in progress", http.StatusNotFound)
		return
	}
	writeJSON(w, status, map[string]any{"draft": entry})
}

// writeDraftError maps draft controller errors to HTTP statuses.
func writeDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNoDraft) {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	slog.Error("draft operation failed", "error", err)
	writeError(w, "Draft operation failed.", http.StatusInternalServerError)
}
