// Package ident generates the fixed-length opaque identifiers used as
// primary keys across the entity tables and the change ledger.
package ident

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// alphabet matches the URL-safe set used when the original rows were seeded,
// so freshly generated ids sort and validate uniformly with existing data.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

const (
	// EntityIDLength is the id length of every entity table and the ledger.
	EntityIDLength = 12
	// ExternalIDLength is the length of external identity-provider ids.
	ExternalIDLength = 32
)

// New returns a fresh 12-character entity identifier.
func New() string {
	return NewLen(EntityIDLength)
}

// NewLen returns a fresh identifier of the given length.
func NewLen(length int) string {
	if length <= 0 {
		panic(fmt.Sprintf("ident: invalid identifier length %d", length))
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; if it does the
		// process has no entropy source and cannot safely mint ids.
		panic(fmt.Sprintf("ident: reading random bytes: %v", err))
	}

	out := make([]byte, length)
	for i, b := range buf {
		// 64-character alphabet, so masking the low six bits is uniform.
		out[i] = alphabet[b&63]
	}
	return string(out)
}

// Valid reports whether id is a well-formed entity identifier.
func Valid(id string) bool {
	if len(id) != EntityIDLength {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
