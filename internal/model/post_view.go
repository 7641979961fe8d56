package model

import (
	"time"

	"gorm.io/gorm"
)

// PostView records that a user has viewed a post. One row per viewer.
type PostView struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	PostID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_post_viewer" json:"post_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_post_viewer" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook to generate UUID
func (pv *PostView) BeforeCreate(tx *gorm.DB) error {
	if pv.ID == "" {
		pv.ID = newID()
	}
	return nil
}

func (PostView) TableName() string {
	return "post_views"
}
