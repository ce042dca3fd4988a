// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog keeps catalog entries consistent with their dependent
// assets across three loosely-coupled stores: the relational rows, the
// object-storage blobs, and the in-memory draft/list state the dashboard
// edits against. It owns the draft controller, the upload orchestration,
// and the deletion cascade.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"printforge/internal/models"
)

// EntryRepository is the persistence seam for catalog entries.
// *store.EntryStore satisfies it; tests use in-memory fakes.
type EntryRepository interface {
	Create(e *models.Entry) (*models.Entry, error)
	Update(e *models.Entry) error
	UpdateThumb(id uuid.UUID, bucket, key, url string) error
	FindByID(kind models.EntryKind, id uuid.UUID) (*models.Entry, error)
	Delete(id uuid.UUID) (*models.Entry, error)
}

// AssetRepository is the persistence seam for gallery and file rows.
type AssetRepository interface {
	AddImage(entryID uuid.UUID, a *models.Asset) (*models.Asset, error)
	AddFile(entryID uuid.UUID, a *models.Asset) (*models.Asset, error)
	DeleteImage(id uuid.UUID) (*models.Asset, error)
	DeleteFile(id uuid.UUID) (*models.Asset, error)
	DeleteByEntry(entryID uuid.UUID) ([]models.Asset, error)
}

// BlobStore is the object-storage seam. *storage.Client satisfies it.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Remove(ctx context.Context, bucket, key string) error
	RemoveBatch(ctx context.Context, bucket string, keys []string) error
	FileURL(key string) string
	Bucket() string
	ParseLocator(raw string) (bucket, key string, ok bool)
}

// Upload is a raw byte payload handed in by the dashboard, either
// uploaded immediately or held as a pending asset until the owning
// entry exists.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// objectKey builds the storage key for an asset:
// {kind}/{ownerId}/{timestamp}-{filename}.
func objectKey(kind models.EntryKind, ownerID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%d-%s", kind, ownerID, time.Now().UnixNano(), sanitizeFilename(filename))
}

// sanitizeFilename strips path separators and whitespace so user-chosen
// names cannot escape the owner's key prefix.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" {
		name = "file"
	}
	return name
}

// resolveLocator maps an asset row to its storage object. Rows written
// by this service carry bucket+key; older rows only carry a public URL
// that has to be parsed back into a location.
func resolveLocator(blobs BlobStore, a models.Asset) (bucket, key string, ok bool) {
	if a.Key != "" {
		bucket = a.Bucket
		if bucket == "" {
			bucket = blobs.Bucket()
		}
		return bucket, a.Key, true
	}
	return blobs.ParseLocator(a.URL)
}
