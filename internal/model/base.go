package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Entity-level errors. The service layer exposes them as part of its
// error taxonomy.
var (
	ErrValidation = errors.New("validation error")
	ErrCapability = errors.New("capability error")
)

// newID returns a time-ordered UUIDv7 so that ordering by id is creation order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Photo columns shared by every photo table. Key is the blob store object key.
type Photo struct {
	URL string `gorm:"type:text;not null" json:"url"`
	Key string `gorm:"type:text;not null" json:"-"`
}
