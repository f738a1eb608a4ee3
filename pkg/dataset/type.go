package dataset

import (
	"slices"
	"strings"
)

// Type is the closed set of dataset kinds the processor knows how to handle.
type Type string

// Data types.
const (
	TypeBudget        Type = "budget"
	TypeParticipation Type = "participation"
	TypeTransport     Type = "transport"
	TypeGeneral       Type = "general"
)

// String returns the string representation of a data type.
func (t Type) String() string {
	return string(t)
}

// Types returns every known data type.
func Types() []Type {
	return []Type{TypeBudget, TypeParticipation, TypeTransport, TypeGeneral}
}

// IsValid reports whether t is one of the known data types.
func (t Type) IsValid() bool {
	return slices.Contains(Types(), t)
}

// ParseType returns the data type named s, or TypeGeneral.
func ParseType(s string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if t.IsValid() {
		return t
	}
	return TypeGeneral
}

// TypeForSource infers a data type from a source key.
func TypeForSource(key string) Type {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "budget"):
		return TypeBudget
	case strings.Contains(k, "participation"):
		return TypeParticipation
	case strings.Contains(k, "transport"):
		return TypeTransport
	default:
		return TypeGeneral
	}
}
