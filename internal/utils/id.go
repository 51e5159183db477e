package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewConnID returns a fresh opaque connection identifier. Identifiers
// are never reused while a connection is registered.
func NewConnID() string {
	return uuid.NewString()
}

// NewStreamKey returns a 16-character uppercase stream key.
func NewStreamKey() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:16])
}
