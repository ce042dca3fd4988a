// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"printforge/internal/models"
)

// Uploads orchestrates the two-store writes behind every asset
// operation: put the blob, then write the row, and never leave a row
// pointing at a blob that was not stored. Blob cleanup after a row
// failure is best-effort; a leaked blob is cleanup debt, a dangling row
// is a bug.
type Uploads struct {
	entries EntryRepository
	assets  AssetRepository
	blobs   BlobStore
}

// NewUploads creates the upload orchestrator.
func NewUploads(entries EntryRepository, assets AssetRepository, blobs BlobStore) *Uploads {
	return &Uploads{entries: entries, assets: assets, blobs: blobs}
}

// CreateEntry persists a brand-new entry together with its thumbnail.
// The entry id is assigned up front so the thumbnail key can carry the
// owner before the row exists. If the row insert fails, the already
// uploaded thumbnail blob is removed best-effort and the error is
// returned so the caller can retry the whole create.
func (u *Uploads) CreateEntry(ctx context.Context, e *models.Entry, thumb Upload) (*models.Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	key := objectKey(e.Kind, e.ID, thumb.Filename)
	if err := u.blobs.Upload(ctx, key, thumb.ContentType, bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}
	e.ThumbBucket = u.blobs.Bucket()
	e.ThumbKey = key
	e.ThumbURL = u.blobs.FileURL(key)

	created, err := u.entries.Create(e)
	if err != nil {
		if rmErr := u.blobs.Remove(ctx, "", key); rmErr != nil {
			slog.Warn("orphaned thumbnail cleanup failed", "key", key, "error", rmErr)
		}
		return nil, err
	}
	return created, nil
}

// AttachImage uploads a gallery image for an already-persisted entry and
// records its row. Returns the stored asset with its server-issued id.
func (u *Uploads) AttachImage(ctx context.Context, kind models.EntryKind, entryID uuid.UUID, up Upload) (*models.Asset, error) {
	key := objectKey(kind, entryID, up.Filename)
	if err := u.blobs.Upload(ctx, key, up.ContentType, bytes.NewReader(up.Data), int64(len(up.Data))); err != nil {
		return nil, fmt.Errorf("upload gallery image: %w", err)
	}

	a := &models.Asset{Bucket: u.blobs.Bucket(), Key: key, URL: u.blobs.FileURL(key)}
	added, err := u.assets.AddImage(entryID, a)
	if err != nil {
		if rmErr := u.blobs.Remove(ctx, "", key); rmErr != nil {
			slog.Warn("orphaned image cleanup failed", "key", key, "error", rmErr)
		}
		return nil, err
	}
	return added, nil
}

// AttachFile uploads a downloadable file for an already-persisted entry.
func (u *Uploads) AttachFile(ctx context.Context, kind models.EntryKind, entryID uuid.UUID, up Upload, label string) (*models.Asset, error) {
	key := objectKey(kind, entryID, up.Filename)
	if err := u.blobs.Upload(ctx, key, up.ContentType, bytes.NewReader(up.Data), int64(len(up.Data))); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	if label == "" {
		label = up.Filename
	}
	a := &models.Asset{
		Bucket:      u.blobs.Bucket(),
		Key:         key,
		URL:         u.blobs.FileURL(key),
		Label:       label,
		ContentType: up.ContentType,
	}
	added, err := u.assets.AddFile(entryID, a)
	if err != nil {
		if rmErr := u.blobs.Remove(ctx, "", key); rmErr != nil {
			slog.Warn("orphaned file cleanup failed", "key", key, "error", rmErr)
		}
		return nil, err
	}
	return added, nil
}

// ReplaceThumb uploads a new thumbnail for an existing entry, points the
// row at it, and removes the previous blob best-effort. Returns the new
// public locator.
func (u *Uploads) ReplaceThumb(ctx context.Context, kind models.EntryKind, entryID uuid.UUID, up Upload) (string, error) {
	e, err := u.entries.FindByID(kind, entryID)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", fmt.Errorf("entry %s not found", entryID)
	}

	key := objectKey(kind, entryID, up.Filename)
	if err := u.blobs.Upload(ctx, key, up.ContentType, bytes.NewReader(up.Data), int64(len(up.Data))); err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}

	url := u.blobs.FileURL(key)
	if err := u.entries.UpdateThumb(entryID, u.blobs.Bucket(), key, url); err != nil {
		if rmErr := u.blobs.Remove(ctx, "", key); rmErr != nil {
			slog.Warn("orphaned thumbnail cleanup failed", "key", key, "error", rmErr)
		}
		return "", err
	}

	// Old blob is dead weight now; losing it is not a correctness problem.
	old := models.Asset{Bucket: e.ThumbBucket, Key: e.ThumbKey, URL: e.ThumbURL}
	if bucket, oldKey, ok := resolveLocator(u.blobs, old); ok && oldKey != key {
		if err := u.blobs.Remove(ctx, bucket, oldKey); err != nil {
			slog.Warn("previous thumbnail cleanup failed", "bucket", bucket, "key", oldKey, "error", err)
		}
	}
	return url, nil
}

// RemoveImage deletes a gallery image row and its blob. Removing an
// already-removed asset is a no-op success. A blob-side failure after
// the row is gone is logged, not surfaced.
func (u *Uploads) RemoveImage(ctx context.Context, id uuid.UUID) error {
	a, err := u.assets.DeleteImage(id)
	if err != nil {
		return err
	}
	u.removeBlob(ctx, a)
	return nil
}

// RemoveFile deletes a downloadable-file row and its blob, with the same
// idempotency and failure policy as RemoveImage.
func (u *Uploads) RemoveFile(ctx context.Context, id uuid.UUID) error {
	a, err := u.assets.DeleteFile(id)
	if err != nil {
		return err
	}
	u.removeBlob(ctx, a)
	return nil
}

func (u *Uploads) removeBlob(ctx context.Context, a *models.Asset) {
	if a == nil {
		return
	}
	bucket, key, ok := resolveLocator(u.blobs, *a)
	if !ok {
		slog.Warn("asset locator unresolvable, blob left behind", "url", a.URL)
		return
	}
	if err := u.blobs.Remove(ctx, bucket, key); err != nil {
		slog.Warn("asset blob removal failed", "bucket", bucket, "key", key, "error", err)
	}
}
