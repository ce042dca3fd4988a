// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"printforge/internal/models"
)

func newDraftHarness() (*Draft, *fakeEntries, *fakeAssets, *fakeBlobs, *ListCache) {
	entries := newFakeEntries()
	assets := newFakeAssets()
	blobs := newFakeBlobs()
	cache := NewListCache()
	d := NewDraft(NewUploads(entries, assets, blobs), entries, cache)
	return d, entries, assets, blobs, cache
}

func seedEntry(t *testing.T, entries *fakeEntries, kind models.EntryKind) *models.Entry {
	t.Helper()
	created, err := entries.Create(&models.Entry{
		Kind:        kind,
		Title:       "Existing",
		CategoryID:  models.UncategorizedID,
		Active:      true,
		ThumbBucket: "content",
		ThumbKey:    "design/existing/1-old.png",
		ThumbURL:    "https://cdn.test/design/existing/1-old.png",
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return created
}

func strPtr(s string) *string { return &s }

func TestDraftSaveNewPromotesPendingInOrder(t *testing.T) {
	d, _, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)
	if err := d.SetFields(CoreFields{Title: strPtr("Widget")}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}
	if err := d.PickThumbnail(upload("a.png")); err != nil {
		t.Fatalf("PickThumbnail: %v", err)
	}
	for _, name := range []string{"b.png", "c.png"} {
		a, err := d.AddGalleryAsset(ctx, upload(name))
		if err != nil {
			t.Fatalf("AddGalleryAsset(%s): %v", name, err)
		}
		if !a.ID.IsLocal() {
			t.Errorf("asset %s should be draft-local before save", name)
		}
	}

	// Nothing touches storage until save.
	if len(blobs.uploads) != 0 {
		t.Fatalf("expected no uploads before save, got %v", blobs.uploads)
	}

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Fatal("saved entry has no id")
	}
	if len(saved.Gallery) != 2 {
		t.Fatalf("gallery len = %d, want 2", len(saved.Gallery))
	}
	if !strings.HasSuffix(saved.Gallery[0].Key, "-b.png") || !strings.HasSuffix(saved.Gallery[1].Key, "-c.png") {
		t.Errorf("gallery order broken: %s, %s", saved.Gallery[0].Key, saved.Gallery[1].Key)
	}
	for _, a := range saved.Gallery {
		if a.ID.IsLocal() {
			t.Errorf("local id survived save: %s", a.ID)
		}
	}
	if saved.ThumbKey == "" || strings.HasPrefix(saved.ThumbURL, PreviewPathPrefix) {
		t.Errorf("thumbnail not persisted: key=%q url=%q", saved.ThumbKey, saved.ThumbURL)
	}

	// Thumbnail first, then pending assets in queue order.
	if len(blobs.uploads) != 3 {
		t.Fatalf("uploads = %v, want thumb + 2 gallery", blobs.uploads)
	}
	if !strings.HasSuffix(blobs.uploads[0], "-a.png") ||
		!strings.HasSuffix(blobs.uploads[1], "-b.png") ||
		!strings.HasSuffix(blobs.uploads[2], "-c.png") {
		t.Errorf("upload order = %v", blobs.uploads)
	}

	if _, open := d.Snapshot(); open {
		t.Error("draft still open after save")
	}
}

func TestDraftSaveNewWithoutPendingAssets(t *testing.T) {
	d, entries, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindBundle)
	d.SetFields(CoreFields{Title: strPtr("Starter Bundle")})
	d.PickThumbnail(upload("cover.png"))

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(blobs.uploads) != 1 {
		t.Errorf("uploads = %v, want thumbnail only", blobs.uploads)
	}
	if got, _ := entries.FindByID(models.KindBundle, saved.ID); got == nil {
		t.Error("entry row not created")
	}
}

func TestDraftSaveValidation(t *testing.T) {
	d, _, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)

	var verr *ValidationError
	if _, err := d.Save(ctx); !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("save without title: got %v, want title validation error", err)
	}

	d.SetFields(CoreFields{Title: strPtr("Widget")})
	if _, err := d.Save(ctx); !errors.As(err, &verr) || verr.Field != "thumbnail" {
		t.Fatalf("save without thumbnail: got %v, want thumbnail validation error", err)
	}

	// Both failures are recoverable: the draft stays open and a fixed-up
	// save goes through.
	if _, open := d.Snapshot(); !open {
		t.Fatal("draft closed by validation failure")
	}
	d.PickThumbnail(upload("a.png"))
	if _, err := d.Save(ctx); err != nil {
		t.Fatalf("save after fixing validation: %v", err)
	}
	if len(blobs.uploads) != 1 {
		t.Errorf("uploads = %v", blobs.uploads)
	}
}

func TestDraftSaveNewPendingFailureSkipsAsset(t *testing.T) {
	d, _, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)
	d.SetFields(CoreFields{Title: strPtr("Widget")})
	d.PickThumbnail(upload("a.png"))
	d.AddGalleryAsset(ctx, upload("b.png"))
	d.AddGalleryAsset(ctx, upload("c.png"))

	blobs.failUploadSubstr = "b.png"

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(saved.Gallery) != 1 || !strings.HasSuffix(saved.Gallery[0].Key, "-c.png") {
		t.Errorf("gallery after skipped upload = %+v, want only c.png", saved.Gallery)
	}
}

func TestDraftSaveNewCreateFailurePreservesDraft(t *testing.T) {
	d, entries, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)
	d.SetFields(CoreFields{Title: strPtr("Widget")})
	d.PickThumbnail(upload("a.png"))
	d.AddGalleryAsset(ctx, upload("b.png"))

	entries.createErr = errors.New("db down")
	if _, err := d.Save(ctx); err == nil {
		t.Fatal("expected create failure")
	}

	// Draft intact for retry, orphaned thumbnail rolled back.
	snap, open := d.Snapshot()
	if !open || snap.Title != "Widget" || len(snap.Gallery) != 1 {
		t.Fatalf("draft not preserved: open=%v entry=%+v", open, snap)
	}
	if len(blobs.removed) != 1 || !strings.HasSuffix(blobs.removed[0], "-a.png") {
		t.Errorf("thumbnail rollback = %v", blobs.removed)
	}

	entries.createErr = nil
	if _, err := d.Save(ctx); err != nil {
		t.Fatalf("retry after create failure: %v", err)
	}
}

func TestDraftAddUploadsImmediatelyForPersistedEntry(t *testing.T) {
	d, entries, assets, blobs, cache := newDraftHarness()
	ctx := context.Background()

	existing := seedEntry(t, entries, models.KindDesign)
	cache.Set(models.KindDesign, []models.EntrySummary{existing.Summary()})

	if err := d.StartEdit(models.KindDesign, existing.ID); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}

	a, err := d.AddGalleryAsset(ctx, upload("new.png"))
	if err != nil {
		t.Fatalf("AddGalleryAsset: %v", err)
	}
	if a.ID.IsLocal() {
		t.Error("asset on a persisted entry should get a server id")
	}
	if blobs.uploadCount("new.png") != 1 {
		t.Errorf("uploads = %v, want immediate upload", blobs.uploads)
	}
	if len(assets.images[existing.ID]) != 1 {
		t.Error("image row not written")
	}

	// List-view cache reconciled without a refetch.
	list, _ := cache.Get(models.KindDesign)
	if list[0].ImageCount != 1 {
		t.Errorf("cached ImageCount = %d, want 1", list[0].ImageCount)
	}
}

func TestDraftRemoveLocalAssetIsPureMemory(t *testing.T) {
	d, _, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)
	d.SetFields(CoreFields{Title: strPtr("Widget")})
	d.PickThumbnail(upload("a.png"))
	b, _ := d.AddGalleryAsset(ctx, upload("b.png"))
	d.AddGalleryAsset(ctx, upload("c.png"))

	if err := d.RemoveAsset(ctx, b.ID); err != nil {
		t.Fatalf("RemoveAsset: %v", err)
	}
	if _, ok := d.PendingPreview(strings.TrimPrefix(b.URL, PreviewPathPrefix)); ok {
		t.Error("removed pending asset still previewable")
	}

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(saved.Gallery) != 1 || !strings.HasSuffix(saved.Gallery[0].Key, "-c.png") {
		t.Errorf("gallery = %+v, want only c.png", saved.Gallery)
	}
	if len(blobs.removed) != 0 {
		t.Errorf("removing a draft-local asset made storage calls: %v", blobs.removed)
	}
}

func TestDraftRemoveRemoteAssetIsOptimistic(t *testing.T) {
	d, entries, assets, blobs, cache := newDraftHarness()
	ctx := context.Background()

	existing := seedEntry(t, entries, models.KindDesign)
	cache.Set(models.KindDesign, []models.EntrySummary{existing.Summary()})
	d.StartEdit(models.KindDesign, existing.ID)
	a, err := d.AddGalleryAsset(ctx, upload("pic.png"))
	if err != nil {
		t.Fatalf("AddGalleryAsset: %v", err)
	}

	// Remote removal failing must not resurrect the asset in the draft.
	blobs.removeErr = errors.New("s3 down")
	if err := d.RemoveAsset(ctx, a.ID); err != nil {
		t.Fatalf("RemoveAsset: %v", err)
	}

	snap, _ := d.Snapshot()
	if len(snap.Gallery) != 0 {
		t.Errorf("gallery = %+v, want empty after optimistic removal", snap.Gallery)
	}
	if len(assets.images[existing.ID]) != 0 {
		t.Error("image row survived removal")
	}
	list, _ := cache.Get(models.KindDesign)
	if list[0].ImageCount != 0 {
		t.Errorf("cached ImageCount = %d, want 0", list[0].ImageCount)
	}

	if err := d.RemoveAsset(ctx, a.ID); !errors.Is(err, ErrAssetNotInDraft) {
		t.Errorf("second removal: got %v, want ErrAssetNotInDraft", err)
	}
}

func TestDraftEditReplaceThumbAndAddFile(t *testing.T) {
	d, entries, assets, blobs, _ := newDraftHarness()
	ctx := context.Background()

	existing := seedEntry(t, entries, models.KindDesign)
	d.StartEdit(models.KindDesign, existing.ID)

	if err := d.PickThumbnail(upload("d.png")); err != nil {
		t.Fatalf("PickThumbnail: %v", err)
	}
	fileE, err := d.AddFileAsset(ctx, Upload{Filename: "e.stl", ContentType: "model/stl", Data: []byte("solid")}, "")
	if err != nil {
		t.Fatalf("AddFileAsset: %v", err)
	}
	if fileE.ID.IsLocal() {
		t.Error("file on a persisted entry should get a server id")
	}
	if fileE.Label != "e.stl" {
		t.Errorf("label = %q, want filename fallback", fileE.Label)
	}

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(saved.ThumbURL, "-d.png") {
		t.Errorf("thumb url = %q, want replaced thumbnail", saved.ThumbURL)
	}
	// Previous thumbnail blob cleaned up best-effort.
	if len(blobs.removed) != 1 || !strings.HasSuffix(blobs.removed[0], "-old.png") {
		t.Errorf("old thumb cleanup = %v", blobs.removed)
	}
	if len(assets.files[existing.ID]) != 1 {
		t.Error("file row not written")
	}

	row, _ := entries.FindByID(models.KindDesign, existing.ID)
	if !strings.HasSuffix(row.ThumbURL, "-d.png") {
		t.Errorf("persisted thumb url = %q", row.ThumbURL)
	}
}

func TestDraftSaveExistingThumbFailureKeepsPrevious(t *testing.T) {
	d, entries, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	existing := seedEntry(t, entries, models.KindDesign)
	d.StartEdit(models.KindDesign, existing.ID)
	d.SetFields(CoreFields{Title: strPtr("Renamed")})
	d.PickThumbnail(upload("d.png"))

	blobs.failUploadSubstr = "d.png"

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Title != "Renamed" {
		t.Errorf("core update lost: title = %q", saved.Title)
	}
	if saved.ThumbURL != existing.ThumbURL {
		t.Errorf("thumb url = %q, want previous %q", saved.ThumbURL, existing.ThumbURL)
	}
}

func TestDraftCancelDiscardsEverything(t *testing.T) {
	d, entries, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)
	d.SetFields(CoreFields{Title: strPtr("Widget")})
	d.PickThumbnail(upload("a.png"))
	b, _ := d.AddGalleryAsset(ctx, upload("b.png"))

	previewID := strings.TrimPrefix(b.URL, PreviewPathPrefix)
	if _, ok := d.PendingPreview(previewID); !ok {
		t.Fatal("pending asset not previewable before cancel")
	}

	d.Cancel()

	if _, open := d.Snapshot(); open {
		t.Error("draft open after cancel")
	}
	if _, ok := d.PendingPreview(previewID); ok {
		t.Error("preview locator resolves after cancel")
	}
	if len(blobs.uploads) != 0 || len(blobs.removed) != 0 {
		t.Errorf("cancel made storage calls: up=%v rm=%v", blobs.uploads, blobs.removed)
	}
	if len(entries.rows) != 0 {
		t.Error("cancel wrote a row")
	}

	if err := d.SetFields(CoreFields{Title: strPtr("x")}); !errors.Is(err, ErrNoDraft) {
		t.Errorf("SetFields after cancel: got %v, want ErrNoDraft", err)
	}
}

func TestDraftRepickThumbnailKeepsLast(t *testing.T) {
	d, _, _, blobs, _ := newDraftHarness()
	ctx := context.Background()

	d.StartNew(models.KindDesign)
	d.SetFields(CoreFields{Title: strPtr("Widget")})
	d.PickThumbnail(upload("first.png"))
	d.PickThumbnail(upload("second.png"))

	saved, err := d.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(saved.ThumbKey, "-second.png") {
		t.Errorf("thumb key = %q, want last pick", saved.ThumbKey)
	}
	if blobs.uploadCount("first.png") != 0 {
		t.Error("discarded thumbnail pick was uploaded")
	}
}

func TestDraftStartEditUnknownEntry(t *testing.T) {
	d, _, _, _, _ := newDraftHarness()
	if err := d.StartEdit(models.KindDesign, uuid.New()); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got %v, want ErrEntryNotFound", err)
	}
}
