package model

import (
	"time"

	"gorm.io/gorm"
)

// Like is a user's like on any counter-bearing target. The target is
// polymorphic (TargetType + TargetID) so there is no foreign key on it.
type Like struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_target" json:"user_id"`
	TargetType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_user_target;index:idx_like_target" json:"target_type"`
	TargetID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_user_target;index:idx_like_target" json:"target_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook to generate UUID
func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = newID()
	}
	return nil
}

func (Like) TableName() string {
	return "likes"
}

// Target types
const (
	TargetTypePost          = "post"
	TargetTypePostComment   = "post_comment"
	TargetTypeForest        = "forest"
	TargetTypeForestComment = "forest_comment"
	TargetTypeCuration      = "curation"
	TargetTypePlace         = "place"
)

// likeTargetTables maps a like target type to the table holding its like_count.
var likeTargetTables = map[string]string{
	TargetTypePost:          "posts",
	TargetTypePostComment:   "post_comments",
	TargetTypeForest:        "forests",
	TargetTypeForestComment: "forest_comments",
	TargetTypeCuration:      "curations",
	TargetTypePlace:         "places",
}

// LikeTargetTable returns the table for a target type.
func LikeTargetTable(targetType string) (string, bool) {
	t, ok := likeTargetTables[targetType]
	return t, ok
}
