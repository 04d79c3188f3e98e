package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gosimple/slug"
)

// NewSlugID builds a stable entity id from a display name: the slugified
// name plus a random suffix. Collisions are not checked here; suffix entropy
// is relied upon and the caller verifies the id is free before commit.
func NewSlugID(name string) string {
	bytes := make([]byte, 6)
	_, _ = rand.Read(bytes)
	base := slug.Make(name)
	if base == "" {
		base = "untitled"
	}
	return base + "-" + hex.EncodeToString(bytes)
}

// NewID returns a random identifier with an optional prefix.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
