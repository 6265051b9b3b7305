package core

import "github.com/oklog/ulid/v2"

// NewID returns a new lexicographically sortable record id.
func NewID() string {
	return ulid.Make().String()
}

// ValidID reports whether s parses as a ULID.
func ValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
