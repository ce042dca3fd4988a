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

// AssetStore handles the gallery-image and downloadable-file child rows
// of catalog entries. The two tables share a shape; files additionally
// carry a display label and a MIME hint.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore creates a new AssetStore with the given database connection.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// AddImage appends a gallery image row for an entry, assigning the next
// position so display order matches insertion order.
func (s *AssetStore) AddImage(entryID uuid.UUID, a *models.Asset) (*models.Asset, error) {
	var rowID uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO entry_images (entry_id, bucket, s3_key, url, position)
		VALUES ($1, $2, $3, $4,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM entry_images WHERE entry_id = $1))
		RETURNING id, position, created_at
	`, entryID, a.Bucket, a.Key, a.URL).Scan(&rowID, &a.Position, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add entry image: %w", err)
	}
	a.ID = models.RemoteAssetID(rowID)
	return a, nil
}

// AddFile appends a downloadable-file row for an entry.
func (s *AssetStore) AddFile(entryID uuid.UUID, a *models.Asset) (*models.Asset, error) {
	var rowID uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO entry_files (entry_id, bucket, s3_key, url, label, content_type, position)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM entry_files WHERE entry_id = $1))
		RETURNING id, position, created_at
	`, entryID, a.Bucket, a.Key, a.URL, a.Label, a.ContentType).Scan(&rowID, &a.Position, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add entry file: %w", err)
	}
	a.ID = models.RemoteAssetID(rowID)
	return a, nil
}

// DeleteImage removes a gallery image row and returns it so the caller
// can clean up the storage object. Returns nil if already gone.
func (s *AssetStore) DeleteImage(id uuid.UUID) (*models.Asset, error) {
	return s.deleteAsset(id, "entry_images")
}

// DeleteFile removes a downloadable-file row, returning it like DeleteImage.
func (s *AssetStore) DeleteFile(id uuid.UUID) (*models.Asset, error) {
	return s.deleteAsset(id, "entry_files")
}

func (s *AssetStore) deleteAsset(id uuid.UUID, table string) (*models.Asset, error) {
	var a models.Asset
	var rowID uuid.UUID
	err := s.db.QueryRow(
		`DELETE FROM `+table+` WHERE id = $1 RETURNING id, bucket, s3_key, url, position, created_at`, id,
	).Scan(&rowID, &a.Bucket, &a.Key, &a.URL, &a.Position, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", table, err)
	}
	a.ID = models.RemoteAssetID(rowID)
	return &a, nil
}

// DeleteByEntry removes every gallery and file row of an entry and
// returns them so the deletion cascade can resolve storage locators.
func (s *AssetStore) DeleteByEntry(entryID uuid.UUID) ([]models.Asset, error) {
	var all []models.Asset
	for _, table := range []string{"entry_images", "entry_files"} {
		rows, err := s.db.Query(
			`DELETE FROM `+table+` WHERE entry_id = $1 RETURNING id, bucket, s3_key, url`, entryID)
		if err != nil {
			return nil, fmt.Errorf("delete %s by entry: %w", table, err)
		}
		for rows.Next() {
			var a models.Asset
			var rowID uuid.UUID
			if err := rows.Scan(&rowID, &a.Bucket, &a.Key, &a.URL); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan deleted %s: %w", table, err)
			}
			a.ID = models.RemoteAssetID(rowID)
			all = append(all, a)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return all, nil
}
