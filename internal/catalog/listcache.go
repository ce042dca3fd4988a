// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"sync"

	"github.com/google/uuid"

	"printforge/internal/models"
)

// ListCache mirrors the dashboard's list views in memory so the grid and
// the open draft never diverge: the draft controller patches it on every
// mutation instead of refetching. It holds one unfiltered summary slice
// per kind.
type ListCache struct {
	mu     sync.RWMutex
	byKind map[models.EntryKind][]models.EntrySummary
}

// NewListCache creates an empty list-view cache.
func NewListCache() *ListCache {
	return &ListCache{byKind: make(map[models.EntryKind][]models.EntrySummary)}
}

// Set replaces the cached list for a kind, usually after a store read.
func (c *ListCache) Set(kind models.EntryKind, items []models.EntrySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKind[kind] = append([]models.EntrySummary(nil), items...)
}

// Get returns a copy of the cached list for a kind.
func (c *ListCache) Get(kind models.EntryKind) ([]models.EntrySummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items, ok := c.byKind[kind]
	if !ok {
		return nil, false
	}
	return append([]models.EntrySummary(nil), items...), true
}

// Upsert replaces the summary for an entry, or prepends it when new.
func (c *ListCache) Upsert(s models.EntrySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.byKind[s.Kind]
	if !ok {
		return // nothing cached for this kind yet
	}
	for i := range items {
		if items[i].ID == s.ID {
			items[i] = s
			return
		}
	}
	c.byKind[s.Kind] = append([]models.EntrySummary{s}, items...)
}

// Mutate patches one cached summary in place. Reports whether the entry
// was cached.
func (c *ListCache) Mutate(kind models.EntryKind, id uuid.UUID, fn func(*models.EntrySummary)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.byKind[kind]
	for i := range items {
		if items[i].ID == id {
			fn(&items[i])
			return true
		}
	}
	return false
}

// Remove drops an entry from the cached list.
func (c *ListCache) Remove(kind models.EntryKind, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.byKind[kind]
	for i := range items {
		if items[i].ID == id {
			c.byKind[kind] = append(items[:i], items[i+1:]...)
			return
		}
	}
}
