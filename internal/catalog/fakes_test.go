// fakes_test.go provides in-memory fakes for the repository and storage
// seams so draft and cascade behavior is testable without Postgres or S3.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"printforge/internal/models"
)

type fakeEntries struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]models.Entry
	createErr error
	updateErr error
	deleteErr error
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{rows: make(map[uuid.UUID]models.Entry)}
}

func (f *fakeEntries) Create(e *models.Entry) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.rows[e.ID] = *e
	out := *e
	return &out, nil
}

func (f *fakeEntries) Update(e *models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	row, ok := f.rows[e.ID]
	if !ok {
		return fmt.Errorf("entry %s not found", e.ID)
	}
	row.Title = e.Title
	row.Blurb = e.Blurb
	row.PriceLabel = e.PriceLabel
	row.CategoryID = e.CategoryID
	row.SortOrder = e.SortOrder
	row.Active = e.Active
	f.rows[e.ID] = row
	return nil
}

func (f *fakeEntries) UpdateThumb(id uuid.UUID, bucket, key, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("entry %s not found", id)
	}
	row.ThumbBucket, row.ThumbKey, row.ThumbURL = bucket, key, url
	f.rows[id] = row
	return nil
}

func (f *fakeEntries) FindByID(kind models.EntryKind, id uuid.UUID) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.Kind != kind {
		return nil, nil
	}
	out := row
	return &out, nil
}

func (f *fakeEntries) Delete(id uuid.UUID) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	delete(f.rows, id)
	out := row
	return &out, nil
}

type fakeAssets struct {
	mu     sync.Mutex
	images map[uuid.UUID][]models.Asset
	files  map[uuid.UUID][]models.Asset
	addErr error
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{
		images: make(map[uuid.UUID][]models.Asset),
		files:  make(map[uuid.UUID][]models.Asset),
	}
}

func (f *fakeAssets) add(table map[uuid.UUID][]models.Asset, entryID uuid.UUID, a *models.Asset) (*models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	a.ID = models.RemoteAssetID(uuid.New())
	a.Position = len(table[entryID])
	a.CreatedAt = time.Now()
	table[entryID] = append(table[entryID], *a)
	out := *a
	return &out, nil
}

func (f *fakeAssets) AddImage(entryID uuid.UUID, a *models.Asset) (*models.Asset, error) {
	return f.add(f.images, entryID, a)
}

func (f *fakeAssets) AddFile(entryID uuid.UUID, a *models.Asset) (*models.Asset, error) {
	return f.add(f.files, entryID, a)
}

func (f *fakeAssets) del(table map[uuid.UUID][]models.Asset, id uuid.UUID) (*models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := models.RemoteAssetID(id).String()
	for entryID, assets := range table {
		for i, a := range assets {
			if a.ID.String() == want {
				table[entryID] = append(assets[:i], assets[i+1:]...)
				out := a
				return &out, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeAssets) DeleteImage(id uuid.UUID) (*models.Asset, error) {
	return f.del(f.images, id)
}

func (f *fakeAssets) DeleteFile(id uuid.UUID) (*models.Asset, error) {
	return f.del(f.files, id)
}

func (f *fakeAssets) DeleteByEntry(entryID uuid.UUID) ([]models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := append([]models.Asset(nil), f.images[entryID]...)
	all = append(all, f.files[entryID]...)
	delete(f.images, entryID)
	delete(f.files, entryID)
	return all, nil
}

// fakeBlobs records storage traffic. Keys are shaped like the real
// adapter's ({kind}/{owner}/{ts}-{filename}), so tests can match on the
// filename suffix.
type fakeBlobs struct {
	mu               sync.Mutex
	uploads          []string
	removed          []string
	batches          map[string][]string
	failUploadSubstr string
	removeErr        error
	batchErr         map[string]error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{batches: make(map[string][]string), batchErr: make(map[string]error)}
}

func (f *fakeBlobs) Upload(_ context.Context, key, _ string, _ io.Reader, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUploadSubstr != "" && strings.Contains(key, f.failUploadSubstr) {
		return fmt.Errorf("simulated upload failure for %s", key)
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeBlobs) Remove(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bucket == "" {
		bucket = "content"
	}
	f.removed = append(f.removed, bucket+"/"+key)
	return f.removeErr
}

func (f *fakeBlobs) RemoveBatch(_ context.Context, bucket string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bucket == "" {
		bucket = "content"
	}
	f.batches[bucket] = append(f.batches[bucket], keys...)
	return f.batchErr[bucket]
}

func (f *fakeBlobs) FileURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeBlobs) Bucket() string {
	return "content"
}

func (f *fakeBlobs) ParseLocator(raw string) (string, string, bool) {
	switch {
	case raw == "":
		return "", "", false
	case !strings.Contains(raw, "://"):
		return "content", raw, true
	case strings.HasPrefix(raw, "https://cdn.test/"):
		return "content", strings.TrimPrefix(raw, "https://cdn.test/"), true
	case strings.HasPrefix(raw, "https://s3.test/"):
		rest := strings.TrimPrefix(raw, "https://s3.test/")
		slash := strings.IndexByte(rest, '/')
		if slash <= 0 || slash == len(rest)-1 {
			return "", "", false
		}
		return rest[:slash], rest[slash+1:], true
	}
	return "", "", false
}

// uploadCount returns how many recorded uploads end in -name.
func (f *fakeBlobs) uploadCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.uploads {
		if strings.HasSuffix(k, "-"+name) {
			n++
		}
	}
	return n
}

func upload(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Data: []byte(name + " bytes")}
}
