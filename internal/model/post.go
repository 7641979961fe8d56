package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Post is a community post on a board.
type Post struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	BoardID   string    `gorm:"type:uuid;not null;index" json:"board_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	WriterID  *string   `gorm:"type:uuid;index" json:"writer_id"`
	LikeCount int64     `gorm:"not null;default:0" json:"like_count"`
	ViewCount int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Board    *Board        `gorm:"foreignKey:BoardID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"board,omitempty"`
	Writer   *User         `gorm:"foreignKey:WriterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"writer,omitempty"`
	Hashtags []PostHashtag `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"hashtags"`
	Photos   []PostPhoto   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"photos"`

	// Read-only, filled by list queries.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
	LikedByMe    bool  `gorm:"-" json:"liked_by_me"`
}

// BeforeCreate hook to generate UUID
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

// BeforeSave rejects blank title or content.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if Blank(p.Title) {
		return fmt.Errorf("%w: title must not be blank", ErrValidation)
	}
	if Blank(p.Content) {
		return fmt.Errorf("%w: content must not be blank", ErrValidation)
	}
	return nil
}

func (Post) TableName() string {
	return "posts"
}

// IsWrittenBy reports whether userID is the (still existing) writer.
func (p *Post) IsWrittenBy(userID string) bool {
	return p.WriterID != nil && *p.WriterID == userID
}

// HashtagNames returns the hashtag names in insertion order.
func (p *Post) HashtagNames() []string {
	names := make([]string, 0, len(p.Hashtags))
	for _, h := range p.Hashtags {
		names = append(names, h.Name)
	}
	return names
}

type PostHashtag struct {
	ID     string `gorm:"type:uuid;primary_key" json:"-"`
	PostID string `gorm:"type:uuid;not null;uniqueIndex:idx_post_hashtag" json:"-"`
	Name   string `gorm:"type:varchar(50);not null;uniqueIndex:idx_post_hashtag;index" json:"name"`
}

func (h *PostHashtag) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = newID()
	}
	return nil
}

func (PostHashtag) TableName() string {
	return "post_hashtags"
}

type PostPhoto struct {
	ID     string `gorm:"type:uuid;primary_key" json:"id"`
	PostID string `gorm:"type:uuid;not null;index" json:"-"`
	Photo
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (p *PostPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (PostPhoto) TableName() string {
	return "post_photos"
}
