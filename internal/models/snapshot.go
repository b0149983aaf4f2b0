// Package models provides data model definitions for room synchronization.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Snapshot is an opaque serialized document tree. The engine stores and
// returns it verbatim; the only structure it ever reads is the size of
// the top-level node collection, for UI summaries.
type Snapshot []byte

// MarshalJSON returns the snapshot bytes verbatim, or JSON null when empty.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON stores a copy of the raw bytes.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	if s == nil {
		return errors.New("models: UnmarshalJSON on nil Snapshot")
	}
	*s = append((*s)[0:0], data...)
	return nil
}

// IsZero reports whether the snapshot is absent or JSON null.
func (s Snapshot) IsZero() bool {
	return len(s) == 0 || bytes.Equal(bytes.TrimSpace(s), []byte("null"))
}

// Clone returns an independent copy of the snapshot. Later mutation of
// the original bytes never affects the copy.
func (s Snapshot) Clone() Snapshot {
	if len(s) == 0 {
		return nil
	}
	dup := make(Snapshot, len(s))
	copy(dup, s)
	return dup
}

// NodeCount returns the number of entries in the snapshot's top-level
// node collection. Absent or malformed snapshots count as zero.
func (s Snapshot) NodeCount() int {
	if s.IsZero() {
		return 0
	}
	var doc struct {
		NodeMap map[string]json.RawMessage `json:"nodeMap"`
	}
	if err := json.Unmarshal(s, &doc); err != nil {
		return 0
	}
	return len(doc.NodeMap)
}
