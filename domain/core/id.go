package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	FileID       ID
	MergedFileID ID
	ProjectID    ID
	PinID        ID
)

// String conversions for domain IDs
func (id FileID) String() string       { return ID(id).String() }
func (id MergedFileID) String() string { return ID(id).String() }
func (id ProjectID) String() string    { return ID(id).String() }
func (id PinID) String() string        { return ID(id).String() }

// ParseFileID parses a string into FileID
func ParseFileID(s string) (FileID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("file ID cannot be empty")
	}
	return FileID(s), nil
}

// ParseMergedFileID parses a string into MergedFileID
func ParseMergedFileID(s string) (MergedFileID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("merged file ID cannot be empty")
	}
	return MergedFileID(s), nil
}
