package domain

import "strings"

// Status is the closed safety verdict assigned to an ingredient or answer.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusCaution Status = "caution"
	StatusAvoid   Status = "avoid"
)

// Valid reports whether s is one of the three known verdicts.
func (s Status) Valid() bool {
	switch s {
	case StatusSafe, StatusCaution, StatusAvoid:
		return true
	}
	return false
}

// ParseStatus maps an exact (case-insensitive) verdict name onto a Status.
// Anything else resolves to caution, never to safe.
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if s.Valid() {
		return s, true
	}
	return StatusCaution, false
}
