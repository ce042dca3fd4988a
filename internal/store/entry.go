// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"printforge/internal/models"
)

// EntryStore handles all catalog-entry database operations. It serves
// both designs and bundles through the unified entries table.
type EntryStore struct {
	db *sql.DB
}

// NewEntryStore creates a new EntryStore with the given database connection.
func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

// entryColumns lists the columns selected in entry queries.
const entryColumns = `id, kind, title, blurb, price_label, category_id,
	thumb_bucket, thumb_key, thumb_url, sort_order, active, created_at, updated_at`

// scanEntry scans an entry row from the result set.
func scanEntry(scanner interface{ Scan(...any) error }) (*models.Entry, error) {
	var e models.Entry
	err := scanner.Scan(
		&e.ID, &e.Kind, &e.Title, &e.Blurb, &e.PriceLabel, &e.CategoryID,
		&e.ThumbBucket, &e.ThumbKey, &e.ThumbURL, &e.SortOrder, &e.Active,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new entry and returns it with timestamps filled in.
// Callers may pre-assign the ID (the draft controller does, so asset
// storage keys can reference the owner before the row exists); a nil ID
// is generated here.
func (s *EntryStore) Create(e *models.Entry) (*models.Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CategoryID == "" {
		e.CategoryID = models.UncategorizedID
	}

	row := s.db.QueryRow(`
		INSERT INTO entries (id, kind, title, blurb, price_label, category_id,
			thumb_bucket, thumb_key, thumb_url, sort_order, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+entryColumns,
		e.ID, e.Kind, e.Title, e.Blurb, e.PriceLabel, e.CategoryID,
		e.ThumbBucket, e.ThumbKey, e.ThumbURL, e.SortOrder, e.Active,
	)
	created, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return created, nil
}

// FindByID retrieves a full entry including its gallery and file rows.
// List views never include children; detail reads always do. Returns nil
// if not found.
func (s *EntryStore) FindByID(kind models.EntryKind, id uuid.UUID) (*models.Entry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE kind = $1 AND id = $2`, kind, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entry by id: %w", err)
	}

	if e.Gallery, err = s.childAssets(id, "entry_images", false); err != nil {
		return nil, err
	}
	if e.Files, err = s.childAssets(id, "entry_files", true); err != nil {
		return nil, err
	}
	return e, nil
}

// childAssets loads the ordered asset rows of one child table.
func (s *EntryStore) childAssets(entryID uuid.UUID, table string, withMeta bool) ([]models.Asset, error) {
	cols := `id, bucket, s3_key, url, position, created_at`
	if withMeta {
		cols = `id, bucket, s3_key, url, label, content_type, position, created_at`
	}
	rows, err := s.db.Query(
		`SELECT `+cols+` FROM `+table+` WHERE entry_id = $1 ORDER BY position, created_at`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var items []models.Asset
	for rows.Next() {
		var a models.Asset
		var rowID uuid.UUID
		if withMeta {
			err = rows.Scan(&rowID, &a.Bucket, &a.Key, &a.URL, &a.Label, &a.ContentType, &a.Position, &a.CreatedAt)
		} else {
			err = rows.Scan(&rowID, &a.Bucket, &a.Key, &a.URL, &a.Position, &a.CreatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		a.ID = models.RemoteAssetID(rowID)
		items = append(items, a)
	}
	return items, rows.Err()
}

// Update modifies the core fields of an existing entry. Thumbnail and
// child assets have their own operations.
func (s *EntryStore) Update(e *models.Entry) error {
	_, err := s.db.Exec(`
		UPDATE entries SET
			title = $1, blurb = $2, price_label = $3, category_id = $4,
			sort_order = $5, active = $6, updated_at = NOW()
		WHERE id = $7
	`, e.Title, e.Blurb, e.PriceLabel, e.CategoryID, e.SortOrder, e.Active, e.ID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// UpdateThumb replaces the thumbnail locator of an entry.
func (s *EntryStore) UpdateThumb(id uuid.UUID, bucket, key, url string) error {
	_, err := s.db.Exec(`
		UPDATE entries SET thumb_bucket = $1, thumb_key = $2, thumb_url = $3, updated_at = NOW()
		WHERE id = $4
	`, bucket, key, url, id)
	if err != nil {
		return fmt.Errorf("update entry thumb: %w", err)
	}
	return nil
}

// Delete removes an entry row and returns it so the caller can clean up
// the thumbnail object. Returns nil if the row was already gone.
func (s *EntryStore) Delete(id uuid.UUID) (*models.Entry, error) {
	row := s.db.QueryRow(`DELETE FROM entries WHERE id = $1 RETURNING `+entryColumns, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete entry: %w", err)
	}
	return e, nil
}

// ListFilter narrows and pages a summary listing. Page is 1-based.
type ListFilter struct {
	CategoryID string
	Query      string
	Page       int
	PageSize   int
	ActiveOnly bool
}

// ListSummaries returns the list-view projection of entries of one kind,
// with image/file counts, plus the unpaged total for the filter.
func (s *EntryStore) ListSummaries(kind models.EntryKind, f ListFilter) ([]models.EntrySummary, int, error) {
	where := `WHERE e.kind = $1`
	args := []any{kind}

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where += fmt.Sprintf(" AND e.category_id = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where += fmt.Sprintf(" AND e.title ILIKE $%d", len(args))
	}
	if f.ActiveOnly {
		where += " AND e.active"
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries e `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	if f.PageSize <= 0 {
		f.PageSize = 50
	}
	if f.Page < 1 {
		f.Page = 1
	}
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT e.id, e.kind, e.title, e.price_label, e.category_id, e.thumb_url,
		       e.sort_order, e.active,
		       (SELECT COUNT(*) FROM entry_images i WHERE i.entry_id = e.id) AS image_count,
		       (SELECT COUNT(*) FROM entry_files fl WHERE fl.entry_id = e.id) AS file_count
		FROM entries e
		%s
		ORDER BY e.sort_order, e.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list entry summaries: %w", err)
	}
	defer rows.Close()

	var items []models.EntrySummary
	for rows.Next() {
		var es models.EntrySummary
		if err := rows.Scan(
			&es.ID, &es.Kind, &es.Title, &es.PriceLabel, &es.CategoryID,
			&es.ThumbURL, &es.SortOrder, &es.Active, &es.ImageCount, &es.FileCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan entry summary: %w", err)
		}
		items = append(items, es)
	}
	return items, total, rows.Err()
}
