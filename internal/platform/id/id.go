// Package id generates compact, URL-safe identifiers for blocks and views.
// Identifiers are UUIDv4 bytes encoded as lowercase unpadded base32, which
// keeps them 26 characters long and free of characters that need escaping.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new 26-character identifier.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}
