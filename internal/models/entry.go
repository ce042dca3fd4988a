// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryKind discriminates the two catalog entry types. Both kinds share
// every code path; the kind only selects rows and routes.
type EntryKind string

const (
	KindDesign EntryKind = "design"
	KindBundle EntryKind = "bundle"
)

// ParseKind validates a kind from a URL segment.
func ParseKind(s string) (EntryKind, error) {
	switch EntryKind(s) {
	case KindDesign, KindBundle:
		return EntryKind(s), nil
	}
	return "", fmt.Errorf("unknown catalog kind %q", s)
}

// Entry is a catalog entry (a printable design or a bundle of designs).
// Gallery and Files are loaded on detail reads only; list views carry
// counts instead, to keep payloads small.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Kind       EntryKind `json:"kind"`
	Title      string    `json:"title"`
	Blurb      string    `json:"blurb"`
	PriceLabel string    `json:"price_label"`
	CategoryID string    `json:"category_id"`

	// Thumbnail locator. Bucket/Key are set for entries created through
	// this service; older rows may only carry a public URL.
	ThumbBucket string `json:"thumb_bucket,omitempty"`
	ThumbKey    string `json:"thumb_key,omitempty"`
	ThumbURL    string `json:"thumb_url"`

	SortOrder int       `json:"sort_order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Gallery []Asset `json:"gallery,omitempty"`
	Files   []Asset `json:"files,omitempty"`
}

// Summary projects the entry into its list-view shape.
func (e *Entry) Summary() EntrySummary {
	return EntrySummary{
		ID:         e.ID,
		Kind:       e.Kind,
		Title:      e.Title,
		PriceLabel: e.PriceLabel,
		CategoryID: e.CategoryID,
		ThumbURL:   e.ThumbURL,
		SortOrder:  e.SortOrder,
		Active:     e.Active,
		ImageCount: len(e.Gallery),
		FileCount:  len(e.Files),
	}
}

// EntrySummary is the list-view projection of an entry. It deliberately
// excludes gallery and file rows.
type EntrySummary struct {
	ID         uuid.UUID `json:"id"`
	Kind       EntryKind `json:"kind"`
	Title      string    `json:"title"`
	PriceLabel string    `json:"price_label"`
	CategoryID string    `json:"category_id"`
	ThumbURL   string    `json:"thumb_url"`
	SortOrder  int       `json:"sort_order"`
	Active     bool      `json:"active"`
	ImageCount int       `json:"image_count"`
	FileCount  int       `json:"file_count"`
}
