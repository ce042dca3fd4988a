// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// localIDPrefix marks draft-local asset ids on the wire. The prefix only
// exists in the JSON encoding; code decides "is this persisted yet" by
// calling IsLocal, never by inspecting the string.
const localIDPrefix = "local-"

// AssetID identifies an asset either by its database UUID or by a
// draft-local token that exists only until the owning entry is saved.
// The zero value is neither local nor remote.
type AssetID struct {
	remote uuid.UUID
	local  string
}

// RemoteAssetID wraps a database UUID.
func RemoteAssetID(id uuid.UUID) AssetID {
	return AssetID{remote: id}
}

// NewLocalAssetID issues a fresh draft-local id. Local ids are never
// reused as remote ids.
func NewLocalAssetID() AssetID {
	return AssetID{local: localIDPrefix + uuid.NewString()}
}

// ParseAssetID decodes the wire form: either a local token or a UUID.
func ParseAssetID(s string) (AssetID, error) {
	if s == "" {
		return AssetID{}, fmt.Errorf("empty asset id")
	}
	if strings.HasPrefix(s, localIDPrefix) {
		return AssetID{local: s}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return AssetID{}, fmt.Errorf("parse asset id %q: %w", s, err)
	}
	return AssetID{remote: id}, nil
}

// IsLocal reports whether the asset has not been persisted yet.
func (id AssetID) IsLocal() bool { return id.local != "" }

// IsZero reports whether the id is unset.
func (id AssetID) IsZero() bool { return id.local == "" && id.remote == uuid.Nil }

// Remote returns the database UUID and true when the asset is persisted.
func (id AssetID) Remote() (uuid.UUID, bool) {
	if id.IsLocal() || id.remote == uuid.Nil {
		return uuid.Nil, false
	}
	return id.remote, true
}

// String returns the wire form of the id.
func (id AssetID) String() string {
	if id.IsLocal() {
		return id.local
	}
	if id.remote == uuid.Nil {
		return ""
	}
	return id.remote.String()
}

// MarshalJSON encodes the id as its wire string.
func (id AssetID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the wire string form.
func (id *AssetID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Asset is a binary object owned by a catalog entry: a gallery image or
// a downloadable file. The bytes live in object storage; this row holds
// the locator. Draft-local assets have an empty bucket/key and a
// transient preview URL.
type Asset struct {
	ID          AssetID   `json:"id"`
	Bucket      string    `json:"bucket,omitempty"`
	Key         string    `json:"s3_key,omitempty"`
	URL         string    `json:"url"`
	Label       string    `json:"label,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}
