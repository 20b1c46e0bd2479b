package models

import (
	"strings"

	"github.com/google/uuid"

	"github.com/prompt2production/needled-mobile-sub000/internal/constants"
)

// NewClientID returns a provisional identifier for a record that has not been
// confirmed by the server yet. It is only valid until the server ID arrives.
func NewClientID() string {
	return constants.ProvisionalPrefix + uuid.New().String()
}

// IsClientID reports whether id was produced by NewClientID.
func IsClientID(id string) bool {
	return strings.HasPrefix(id, constants.ProvisionalPrefix)
}
