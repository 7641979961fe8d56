package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Capability names a board feature that posts and comments may use.
type Capability string

const (
	CapabilityHashtags      Capability = "hashtags"
	CapabilityPostPhotos    Capability = "post_photos"
	CapabilityCommentPhotos Capability = "comment_photos"
	CapabilityComments      Capability = "comments"
)

type Board struct {
	ID                    string    `gorm:"type:uuid;primary_key" json:"id"`
	Name                  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	SupportsHashtags      bool      `gorm:"not null;default:false" json:"supports_hashtags"`
	SupportsPostPhotos    bool      `gorm:"not null;default:false" json:"supports_post_photos"`
	SupportsCommentPhotos bool      `gorm:"not null;default:false" json:"supports_comment_photos"`
	SupportsComments      bool      `gorm:"not null;default:false" json:"supports_comments"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = newID()
	}
	return nil
}

func (Board) TableName() string {
	return "boards"
}

// Capabilities returns the set of features this board enables.
func (b *Board) Capabilities() map[Capability]bool {
	return map[Capability]bool{
		CapabilityHashtags:      b.SupportsHashtags,
		CapabilityPostPhotos:    b.SupportsPostPhotos,
		CapabilityCommentPhotos: b.SupportsCommentPhotos,
		CapabilityComments:      b.SupportsComments,
	}
}

// Require is the single capability gate. It fails with ErrCapability when
// the board does not enable c.
func (b *Board) Require(c Capability) error {
	if !b.Capabilities()[c] {
		return fmt.Errorf("%w: board %q does not support %s", ErrCapability, b.Name, c)
	}
	return nil
}
