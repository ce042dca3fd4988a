// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"printforge/internal/models"
)

func newUploadsHarness() (*Uploads, *fakeEntries, *fakeAssets, *fakeBlobs) {
	entries := newFakeEntries()
	assets := newFakeAssets()
	blobs := newFakeBlobs()
	return NewUploads(entries, assets, blobs), entries, assets, blobs
}

func TestUploadsRemoveImageIdempotent(t *testing.T) {
	u, entries, _, blobs := newUploadsHarness()
	ctx := context.Background()

	e := seedEntry(t, entries, models.KindDesign)
	a, err := u.AttachImage(ctx, models.KindDesign, e.ID, upload("pic.png"))
	if err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	id, _ := a.ID.Remote()

	if err := u.RemoveImage(ctx, id); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if err := u.RemoveImage(ctx, id); err != nil {
		t.Fatalf("second remove must be a no-op success: %v", err)
	}
	if len(blobs.removed) != 1 {
		t.Errorf("blob removals = %v, want exactly one", blobs.removed)
	}
}

func TestUploadsAttachRollsBackBlobOnRowFailure(t *testing.T) {
	u, entries, assets, blobs := newUploadsHarness()
	ctx := context.Background()

	e := seedEntry(t, entries, models.KindDesign)
	assets.addErr = errors.New("db down")

	if _, err := u.AttachImage(ctx, models.KindDesign, e.ID, upload("pic.png")); err == nil {
		t.Fatal("expected row failure")
	}
	if len(blobs.removed) != 1 || !strings.HasSuffix(blobs.removed[0], "-pic.png") {
		t.Errorf("orphaned blob not rolled back: %v", blobs.removed)
	}
}

func TestUploadsRemoveBlobFailureNotSurfaced(t *testing.T) {
	u, entries, _, blobs := newUploadsHarness()
	ctx := context.Background()

	e := seedEntry(t, entries, models.KindDesign)
	a, err := u.AttachFile(ctx, models.KindDesign, e.ID, upload("part.stl"), "Part")
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	// Row removal wins; a storage failure afterwards is cleanup debt.
	blobs.removeErr = errors.New("s3 down")
	id, _ := a.ID.Remote()
	if err := u.RemoveFile(ctx, id); err != nil {
		t.Errorf("RemoveFile surfaced a blob-side failure: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"model.stl":          "model.stl",
		"../../etc/passwd":   "passwd",
		`C:\files\part.3mf`:  "part.3mf",
		"  my part.stl  ":    "my-part.stl",
		"":                   "file",
		"nested/dir/a b.png": "a-b.png",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
