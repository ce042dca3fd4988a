// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"printforge/internal/models"
)

// Draft controller errors.
var (
	ErrNoDraft         = errors.New("no draft in progress")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrAssetNotInDraft = errors.New("asset is not part of the draft")
)

// ValidationError blocks a save until the named field is provided. It is
// fully recoverable: the draft stays open.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// PreviewPathPrefix is where the dashboard serves pending asset bytes
// from. A draft-local asset's locator is transient and process-local: it
// stops resolving the moment the draft is saved or cancelled.
const PreviewPathPrefix = "/dashboard/draft/preview/"

// pendingAsset pairs a queued byte payload with the draft-local id that
// represents it in the draft until save promotes it.
type pendingAsset struct {
	id     models.AssetID
	upload Upload
	label  string
}

// CoreFields carries partial field mutations into the draft. Nil fields
// are left untouched.
type CoreFields struct {
	Title      *string `json:"title"`
	Blurb      *string `json:"blurb"`
	PriceLabel *string `json:"price_label"`
	CategoryID *string `json:"category_id"`
	SortOrder  *int    `json:"sort_order"`
	Active     *bool   `json:"active"`
}

// Draft owns the in-progress edit buffer for one catalog entry. Field
// mutations are purely in-memory. Assets added while the entry has no
// persistent id are queued and promoted, strictly in order, when save
// creates the entry; assets added to an already-persisted entry are
// uploaded immediately. The dashboard is single-writer, so one Draft per
// process is enough; the mutex only guards against overlapping HTTP
// requests from the same user.
type Draft struct {
	mu      sync.Mutex
	uploads *Uploads
	entries EntryRepository
	cache   *ListCache

	editing        bool
	entry          models.Entry
	pendingThumb   *pendingAsset
	pendingGallery []pendingAsset
	pendingFiles   []pendingAsset
}

// NewDraft creates a draft controller in the Empty state.
func NewDraft(uploads *Uploads, entries EntryRepository, cache *ListCache) *Draft {
	return &Draft{uploads: uploads, entries: entries, cache: cache}
}

// StartNew seeds a blank draft with no id, the default category, and
// empty asset lists. Any previous draft is discarded.
func (d *Draft) StartNew(kind models.EntryKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset()
	d.editing = true
	d.entry = models.Entry{
		Kind:       kind,
		CategoryID: models.UncategorizedID,
		Active:     true,
	}
}

// StartEdit fetches the full entry (gallery and files included, which
// list views omit) and copies it into the draft.
func (d *Draft) StartEdit(kind models.EntryKind, id uuid.UUID) error {
	e, err := d.entries.FindByID(kind, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEntryNotFound
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset()
	d.editing = true
	d.entry = *e
	return nil
}

// SetFields applies field mutations to the in-memory draft. No network
// call happens until save.
func (d *Draft) SetFields(f CoreFields) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return ErrNoDraft
	}
	if f.Title != nil {
		d.entry.Title = *f.Title
	}
	if f.Blurb != nil {
		d.entry.Blurb = *f.Blurb
	}
	if f.PriceLabel != nil {
		d.entry.PriceLabel = *f.PriceLabel
	}
	if f.CategoryID != nil {
		d.entry.CategoryID = *f.CategoryID
	}
	if f.SortOrder != nil {
		d.entry.SortOrder = *f.SortOrder
	}
	if f.Active != nil {
		d.entry.Active = *f.Active
	}
	return nil
}

// PickThumbnail stages a thumbnail payload and swaps the draft's
// thumbnail locator to a transient preview. Re-picking keeps only the
// last choice; the persisted thumbnail is replaced only on save.
func (d *Draft) PickThumbnail(up Upload) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return ErrNoDraft
	}
	id := models.NewLocalAssetID()
	d.pendingThumb = &pendingAsset{id: id, upload: up}
	d.entry.ThumbURL = PreviewPathPrefix + id.String()
	return nil
}

// AddGalleryAsset attaches an image to the draft. With a persisted owner
// it uploads immediately and reconciles the list-view cache; without one
// it queues the payload and hands back a draft-local asset.
func (d *Draft) AddGalleryAsset(ctx context.Context, up Upload) (models.Asset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return models.Asset{}, ErrNoDraft
	}

	if d.entry.ID != uuid.Nil {
		added, err := d.uploads.AttachImage(ctx, d.entry.Kind, d.entry.ID, up)
		if err != nil {
			return models.Asset{}, err
		}
		d.entry.Gallery = append(d.entry.Gallery, *added)
		d.cache.Mutate(d.entry.Kind, d.entry.ID, func(s *models.EntrySummary) {
			s.ImageCount++
		})
		return *added, nil
	}

	id := models.NewLocalAssetID()
	a := models.Asset{
		ID:       id,
		URL:      PreviewPathPrefix + id.String(),
		Position: len(d.entry.Gallery),
	}
	d.pendingGallery = append(d.pendingGallery, pendingAsset{id: id, upload: up})
	d.entry.Gallery = append(d.entry.Gallery, a)
	return a, nil
}

// AddFileAsset attaches a downloadable file to the draft, following the
// same branch as AddGalleryAsset.
func (d *Draft) AddFileAsset(ctx context.Context, up Upload, label string) (models.Asset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return models.Asset{}, ErrNoDraft
	}
	if label == "" {
		label = up.Filename
	}

	if d.entry.ID != uuid.Nil {
		added, err := d.uploads.AttachFile(ctx, d.entry.Kind, d.entry.ID, up, label)
		if err != nil {
			return models.Asset{}, err
		}
		d.entry.Files = append(d.entry.Files, *added)
		d.cache.Mutate(d.entry.Kind, d.entry.ID, func(s *models.EntrySummary) {
			s.FileCount++
		})
		return *added, nil
	}

	id := models.NewLocalAssetID()
	a := models.Asset{
		ID:          id,
		URL:         PreviewPathPrefix + id.String(),
		Label:       label,
		ContentType: up.ContentType,
		Position:    len(d.entry.Files),
	}
	d.pendingFiles = append(d.pendingFiles, pendingAsset{id: id, upload: up, label: label})
	d.entry.Files = append(d.entry.Files, a)
	return a, nil
}

// RemoveAsset drops an asset from the draft. Draft-local assets are
// simply forgotten, payload included. Server assets are removed
// optimistically from the draft and the list-view cache first; a failure
// of the remote removal is logged but does not restore the asset.
func (d *Draft) RemoveAsset(ctx context.Context, id models.AssetID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return ErrNoDraft
	}

	if idx := findAsset(d.entry.Gallery, id); idx >= 0 {
		d.entry.Gallery = append(d.entry.Gallery[:idx], d.entry.Gallery[idx+1:]...)
		if id.IsLocal() {
			d.pendingGallery = dropPending(d.pendingGallery, id)
			return nil
		}
		d.cache.Mutate(d.entry.Kind, d.entry.ID, func(s *models.EntrySummary) {
			s.ImageCount--
		})
		remote, _ := id.Remote()
		if err := d.uploads.RemoveImage(ctx, remote); err != nil {
			slog.Warn("gallery asset removal failed", "asset", id, "error", err)
		}
		return nil
	}

	if idx := findAsset(d.entry.Files, id); idx >= 0 {
		d.entry.Files = append(d.entry.Files[:idx], d.entry.Files[idx+1:]...)
		if id.IsLocal() {
			d.pendingFiles = dropPending(d.pendingFiles, id)
			return nil
		}
		d.cache.Mutate(d.entry.Kind, d.entry.ID, func(s *models.EntrySummary) {
			s.FileCount--
		})
		remote, _ := id.Remote()
		if err := d.uploads.RemoveFile(ctx, remote); err != nil {
			slog.Warn("file asset removal failed", "asset", id, "error", err)
		}
		return nil
	}

	return ErrAssetNotInDraft
}

// Save commits the draft. For a new entry it creates the row with the
// thumbnail, then promotes every pending asset one at a time in queue
// order — sequential by design, so gallery ordering is deterministic and
// the storage adapter sees bounded load. A pending upload failure is
// logged and skipped; the entry is already persisted, so the save itself
// still succeeds. For an existing entry it updates core fields and, if a
// thumbnail was staged, replaces it. On success the draft returns to
// Empty and the list-view cache is the source of truth.
func (d *Draft) Save(ctx context.Context) (*models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return nil, ErrNoDraft
	}
	if d.entry.Title == "" {
		return nil, &ValidationError{Field: "title"}
	}

	if d.entry.ID == uuid.Nil {
		return d.saveNew(ctx)
	}
	return d.saveExisting(ctx)
}

func (d *Draft) saveNew(ctx context.Context) (*models.Entry, error) {
	if d.pendingThumb == nil {
		return nil, &ValidationError{Field: "thumbnail"}
	}

	// Local placeholders stay out of the create payload; they are
	// replaced by real rows during promotion below.
	core := d.entry
	core.Gallery = nil
	core.Files = nil

	created, err := d.uploads.CreateEntry(ctx, &core, d.pendingThumb.upload)
	if err != nil {
		// Draft is preserved so the user can retry.
		return nil, err
	}

	for _, p := range d.pendingGallery {
		added, err := d.uploads.AttachImage(ctx, created.Kind, created.ID, p.upload)
		if err != nil {
			slog.Warn("pending gallery upload failed, skipping",
				"entry", created.ID, "filename", p.upload.Filename, "error", err)
			continue
		}
		created.Gallery = append(created.Gallery, *added)
	}
	for _, p := range d.pendingFiles {
		added, err := d.uploads.AttachFile(ctx, created.Kind, created.ID, p.upload, p.label)
		if err != nil {
			slog.Warn("pending file upload failed, skipping",
				"entry", created.ID, "filename", p.upload.Filename, "error", err)
			continue
		}
		created.Files = append(created.Files, *added)
	}

	d.cache.Upsert(created.Summary())
	d.reset()
	return created, nil
}

func (d *Draft) saveExisting(ctx context.Context) (*models.Entry, error) {
	core := d.entry
	if err := d.entries.Update(&core); err != nil {
		// Blocking failure: keep the draft for retry.
		return nil, err
	}

	if d.pendingThumb != nil {
		url, err := d.uploads.ReplaceThumb(ctx, core.Kind, core.ID, d.pendingThumb.upload)
		if err != nil {
			// The core update already landed; a stale thumbnail is an
			// inconvenience, not a lost entry.
			slog.Warn("thumbnail replace failed, keeping previous",
				"entry", core.ID, "error", err)
			prev, findErr := d.entries.FindByID(core.Kind, core.ID)
			if findErr == nil && prev != nil {
				core.ThumbURL = prev.ThumbURL
			}
		} else {
			core.ThumbURL = url
		}
	}

	d.cache.Upsert(core.Summary())
	d.reset()
	result := core
	return &result, nil
}

// Cancel discards the draft and every queued payload without any network
// effect. Preview locators stop resolving immediately.
func (d *Draft) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Snapshot returns a copy of the working entry, or false when no draft
// is open.
func (d *Draft) Snapshot() (models.Entry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return models.Entry{}, false
	}
	e := d.entry
	e.Gallery = append([]models.Asset(nil), d.entry.Gallery...)
	e.Files = append([]models.Asset(nil), d.entry.Files...)
	return e, true
}

// PendingPreview resolves a transient preview locator to its queued
// bytes. Returns false after save or cancel, and for any non-pending id.
func (d *Draft) PendingPreview(id string) (Upload, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editing {
		return Upload{}, false
	}
	if d.pendingThumb != nil && d.pendingThumb.id.String() == id {
		return d.pendingThumb.upload, true
	}
	for _, p := range d.pendingGallery {
		if p.id.String() == id {
			return p.upload, true
		}
	}
	for _, p := range d.pendingFiles {
		if p.id.String() == id {
			return p.upload, true
		}
	}
	return Upload{}, false
}

// reset clears all draft state. Callers hold the mutex.
func (d *Draft) reset() {
	d.editing = false
	d.entry = models.Entry{}
	d.pendingThumb = nil
	d.pendingGallery = nil
	d.pendingFiles = nil
}

func findAsset(assets []models.Asset, id models.AssetID) int {
	for i, a := range assets {
		if a.ID.String() == id.String() {
			return i
		}
	}
	return -1
}

func dropPending(queue []pendingAsset, id models.AssetID) []pendingAsset {
	out := queue[:0]
	for _, p := range queue {
		if p.id.String() != id.String() {
			out = append(out, p)
		}
	}
	return out
}
