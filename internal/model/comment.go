package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostComment is a comment on a community post. A parent comment has
// IsParent set and no ParentID; a reply points at a parent comment.
// Replies to replies do not exist.
type PostComment struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	PostID    string    `gorm:"type:uuid;not null;index" json:"post_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsParent  bool      `gorm:"not null;default:false" json:"is_parent"`
	ParentID  *string   `gorm:"type:uuid;index" json:"parent_id"`
	WriterID  *string   `gorm:"type:uuid;index" json:"writer_id"`
	MentionID *string   `gorm:"type:uuid;index" json:"mention_id,omitempty"`
	LikeCount int64     `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Post    *Post              `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Parent  *PostComment       `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Writer  *User              `gorm:"foreignKey:WriterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"writer,omitempty"`
	Mention *User              `gorm:"foreignKey:MentionID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"mention,omitempty"`
	Photos  []PostCommentPhoto `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"photos"`

	// Filled by ListByPost.
	Group     string `gorm:"column:thread_group;->;-:migration" json:"group,omitempty"`
	LikedByMe bool   `gorm:"-" json:"liked_by_me"`
}

// BeforeCreate hook to generate UUID
func (c *PostComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

// BeforeSave rejects blank content.
func (c *PostComment) BeforeSave(tx *gorm.DB) error {
	if Blank(c.Content) {
		return fmt.Errorf("%w: content must not be blank", ErrValidation)
	}
	return nil
}

func (PostComment) TableName() string {
	return "post_comments"
}

// ThreadGroup is the key comments are grouped by when listed: a parent (or a
// reply whose parent was deleted) is its own group, a reply joins its parent's.
func (c *PostComment) ThreadGroup() string {
	if c.IsParent || c.ParentID == nil {
		return c.ID
	}
	return *c.ParentID
}

func (c *PostComment) IsWrittenBy(userID string) bool {
	return c.WriterID != nil && *c.WriterID == userID
}

type PostCommentPhoto struct {
	ID        string `gorm:"type:uuid;primary_key" json:"id"`
	CommentID string `gorm:"type:uuid;not null;index" json:"-"`
	Photo
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (p *PostCommentPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (PostCommentPhoto) TableName() string {
	return "post_comment_photos"
}
