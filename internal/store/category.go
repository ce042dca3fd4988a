// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"printforge/internal/models"
	"printforge/internal/slug"
)

// Category registry errors surfaced to handlers for 4xx responses.
var (
	ErrSentinelCategory = errors.New("the uncategorized category cannot be deleted")
	ErrReassignSelf     = errors.New("cannot reassign entries to the category being deleted")
	ErrCategoryNotFound = errors.New("category not found")
	ErrEmptyLabel       = errors.New("category label produces an empty slug")
)

// CategoryStore manages the labeled-category set. Category ids are slugs
// derived from labels; the sentinel "uncategorized" row always exists.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns all categories ordered by label, with the number of
// catalog entries referencing each.
func (s *CategoryStore) List() ([]models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.label, c.created_at, COUNT(e.id) AS usage_count
		FROM categories c
		LEFT JOIN entries e ON e.category_id = c.id
		GROUP BY c.id
		ORDER BY c.label
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Label, &c.CreatedAt, &c.UsageCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by its slug id. Returns nil if not found.
func (s *CategoryStore) FindByID(id string) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(
		`SELECT id, label, created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Label, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &c, nil
}

// CreateOrGet inserts a category with a slug id derived from the label.
// If the slug already exists the existing category is returned instead;
// category names are effectively unique by slug, so a duplicate create
// is a selection, not an error.
func (s *CategoryStore) CreateOrGet(label string) (*models.Category, error) {
	id := slug.Generate(label)
	if id == "" {
		return nil, ErrEmptyLabel
	}

	_, err := s.db.Exec(`
		INSERT INTO categories (id, label) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, label)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	c, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %q missing after insert", id)
	}
	return c, nil
}

// DeleteWithReassign removes a category after moving every entry that
// references it to reassignTo (defaults to the sentinel). The update and
// the delete run in one transaction so no entry is ever left pointing at
// a nonexistent category. The sentinel itself is undeletable.
func (s *CategoryStore) DeleteWithReassign(id, reassignTo string) error {
	if id == models.UncategorizedID {
		return ErrSentinelCategory
	}
	if reassignTo == "" {
		reassignTo = models.UncategorizedID
	}
	if reassignTo == id {
		return ErrReassignSelf
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Both rows must exist before anything moves.
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return ErrCategoryNotFound
	}
	if err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, reassignTo).Scan(&exists); err != nil {
		return fmt.Errorf("check reassign target: %w", err)
	}
	if !exists {
		return fmt.Errorf("reassign target %q: %w", reassignTo, ErrCategoryNotFound)
	}

	if _, err := tx.Exec(`UPDATE entries SET category_id = $1 WHERE category_id = $2`, reassignTo, id); err != nil {
		return fmt.Errorf("reassign entries: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	return tx.Commit()
}
