// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"printforge/internal/models"
)

// DeleteRequest identifies an entry to cascade-delete. ThumbLocator may
// carry the thumbnail's storage path or public URL when the client knows
// it; otherwise the deleted row provides it. DeleteAssets false skips
// storage cleanup entirely.
type DeleteRequest struct {
	ID           uuid.UUID
	ThumbLocator string
	DeleteAssets bool
}

// FailedObject records one storage object that survived cleanup.
type FailedObject struct {
	Bucket string
	Key    string
	Err    error
}

// CleanupReport is the named outcome of a cascade: the relational rows
// are gone, and Failed lists any blobs that could not be removed.
// Callers treat a partial report as a warning, never as a failed delete.
type CleanupReport struct {
	Failed []FailedObject
}

// Partial reports whether any storage object was left behind.
func (r *CleanupReport) Partial() bool {
	return len(r.Failed) > 0
}

// Cascade removes a catalog entry and everything it owns. The relational
// row is the source of truth for existence, so the cascade never
// proceeds to storage cleanup unless the row deletion succeeded: a
// leaked blob is cleanup debt, a dangling row would be a correctness
// problem.
type Cascade struct {
	entries EntryRepository
	assets  AssetRepository
	blobs   BlobStore
}

// NewCascade creates the deletion cascade.
func NewCascade(entries EntryRepository, assets AssetRepository, blobs BlobStore) *Cascade {
	return &Cascade{entries: entries, assets: assets, blobs: blobs}
}

// Delete runs the cascade: child rows first, then the entry row, then
// best-effort storage cleanup grouped by bucket. Deleting an entry that
// is already gone is a no-op success, so invoking the cascade twice on
// the same id is harmless.
func (c *Cascade) Delete(ctx context.Context, req DeleteRequest) (*CleanupReport, error) {
	// Child rows are deleted first and returned so their storage
	// locators can be resolved for cleanup.
	children, err := c.assets.DeleteByEntry(req.ID)
	if err != nil {
		return nil, fmt.Errorf("delete dependent rows: %w", err)
	}

	entry, err := c.entries.Delete(req.ID)
	if err != nil {
		// The entry still logically exists; storage cleanup must not run.
		return nil, fmt.Errorf("delete entry row: %w", err)
	}

	report := &CleanupReport{}
	if entry == nil && len(children) == 0 {
		return report, nil
	}
	if !req.DeleteAssets {
		return report, nil
	}

	// Group objects by bucket. Rows that only recorded a public URL are
	// parsed back into a location; URLs pointing at a non-default bucket
	// get their own group so they are cleaned from the right place.
	groups := make(map[string][]string)
	add := func(a models.Asset) {
		bucket, key, ok := resolveLocator(c.blobs, a)
		if !ok {
			slog.Warn("asset locator unresolvable, blob left behind", "url", a.URL)
			return
		}
		groups[bucket] = append(groups[bucket], key)
	}

	for _, a := range children {
		add(a)
	}
	thumb := models.Asset{URL: req.ThumbLocator}
	if req.ThumbLocator == "" && entry != nil {
		thumb = models.Asset{Bucket: entry.ThumbBucket, Key: entry.ThumbKey, URL: entry.ThumbURL}
	}
	if thumb.Key != "" || thumb.URL != "" {
		add(thumb)
	}

	// One removal call per bucket; a failed group never stops the next.
	buckets := make([]string, 0, len(groups))
	for b := range groups {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)

	for _, bucket := range buckets {
		keys := groups[bucket]
		if err := c.blobs.RemoveBatch(ctx, bucket, keys); err != nil {
			slog.Warn("storage cleanup failed for bucket",
				"bucket", bucket, "objects", len(keys), "error", err)
			for _, k := range keys {
				report.Failed = append(report.Failed, FailedObject{Bucket: bucket, Key: k, Err: err})
			}
		}
	}

	return report, nil
}
