// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// UncategorizedID is the sentinel category every entry can fall back to.
// It is seeded at migration time and can never be deleted.
const UncategorizedID = "uncategorized"

// Category is a labeled bucket for catalog entries. Its ID is a slug
// derived from the label, so names are unique by slug.
type Category struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`

	// UsageCount is derived by the store, never persisted.
	UsageCount int `json:"usage_count"`
}

// IsSentinel reports whether this is the undeletable fallback category.
func (c *Category) IsSentinel() bool {
	return c.ID == UncategorizedID
}
