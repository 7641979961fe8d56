package model

import (
	"time"

	"gorm.io/gorm"
)

type Follow struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	FollowerID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Follower  *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"follower,omitempty"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"following,omitempty"`
}

// BeforeCreate hook to generate UUID
func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = newID()
	}
	return nil
}

func (Follow) TableName() string {
	return "follows"
}
