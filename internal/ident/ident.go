// Package ident provides id generation for operation log records.
//
// The suffix source is an interface so tests can supply deterministic
// ids instead of random ones.
package ident

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SuffixLen is the length of the random portion of an operation id.
const SuffixLen = 8

// Source produces short unique suffixes for operation ids.
type Source interface {
	Suffix() string
}

// UUIDSource derives suffixes from UUID v4 values.
type UUIDSource struct{}

// NewUUIDSource creates the default production suffix source.
func NewUUIDSource() *UUIDSource {
	return &UUIDSource{}
}

// Suffix returns the first SuffixLen hex characters of a fresh UUID.
func (s *UUIDSource) Suffix() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return raw[:SuffixLen]
}

// OperationID formats an operation id from a millisecond timestamp and
// a suffix drawn from src.
func OperationID(millis int64, src Source) string {
	return fmt.Sprintf("op_%d_%s", millis, src.Suffix())
}
