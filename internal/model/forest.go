package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID   string `gorm:"type:uuid;primary_key" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

func (Category) TableName() string {
	return "forest_categories"
}

type SemiCategory struct {
	ID         string `gorm:"type:uuid;primary_key" json:"id"`
	CategoryID string `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string `gorm:"type:varchar(50);not null" json:"name"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *SemiCategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}

func (SemiCategory) TableName() string {
	return "forest_semi_categories"
}

// Forest is a long-form article. Content is stored as sanitised HTML.
type Forest struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	Title      string    `gorm:"type:varchar(200);not null" json:"title"`
	Subtitle   string    `gorm:"type:varchar(200)" json:"subtitle"`
	Preview    string    `gorm:"type:varchar(300)" json:"preview"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CategoryID *string   `gorm:"type:uuid;index" json:"category_id"`
	WriterID   *string   `gorm:"type:uuid;index" json:"writer_id"`
	LikeCount  int64     `gorm:"not null;default:0" json:"like_count"`
	ViewCount  int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Category       *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	SemiCategories []SemiCategory  `gorm:"many2many:forest_semi_category_links;constraint:OnDelete:CASCADE" json:"semi_categories"`
	Writer         *User           `gorm:"foreignKey:WriterID;constraint:OnDelete:SET NULL" json:"writer,omitempty"`
	Hashtags       []ForestHashtag `gorm:"foreignKey:ForestID;constraint:OnDelete:CASCADE" json:"hashtags"`
	Photos         []ForestPhoto   `gorm:"foreignKey:ForestID;constraint:OnDelete:CASCADE" json:"photos"`

	LikedByMe bool `gorm:"-" json:"liked_by_me"`
}

// BeforeCreate hook to generate UUID
func (f *Forest) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = newID()
	}
	return nil
}

func (f *Forest) BeforeSave(tx *gorm.DB) error {
	if Blank(f.Title) {
		return fmt.Errorf("%w: title must not be blank", ErrValidation)
	}
	if Blank(f.Content) {
		return fmt.Errorf("%w: content must not be blank", ErrValidation)
	}
	return nil
}

func (Forest) TableName() string {
	return "forests"
}

func (f *Forest) IsWrittenBy(userID string) bool {
	return f.WriterID != nil && *f.WriterID == userID
}

type ForestHashtag struct {
	ID       string `gorm:"type:uuid;primary_key" json:"-"`
	ForestID string `gorm:"type:uuid;not null;uniqueIndex:idx_forest_hashtag" json:"-"`
	Name     string `gorm:"type:varchar(50);not null;uniqueIndex:idx_forest_hashtag;index" json:"name"`
}

func (h *ForestHashtag) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = newID()
	}
	return nil
}

func (ForestHashtag) TableName() string {
	return "forest_hashtags"
}

type ForestPhoto struct {
	ID       string `gorm:"type:uuid;primary_key" json:"id"`
	ForestID string `gorm:"type:uuid;not null;index" json:"-"`
	Photo
}

func (p *ForestPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (ForestPhoto) TableName() string {
	return "forest_photos"
}

// ForestComment is a flat comment on a forest article.
type ForestComment struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	ForestID  string    `gorm:"type:uuid;not null;index" json:"forest_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	WriterID  *string   `gorm:"type:uuid;index" json:"writer_id"`
	LikeCount int64     `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Forest *Forest `gorm:"foreignKey:ForestID;constraint:OnDelete:CASCADE" json:"-"`
	Writer *User   `gorm:"foreignKey:WriterID;constraint:OnDelete:SET NULL" json:"writer,omitempty"`

	LikedByMe bool `gorm:"-" json:"liked_by_me"`
}

func (c *ForestComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

func (c *ForestComment) BeforeSave(tx *gorm.DB) error {
	if Blank(c.Content) {
		return fmt.Errorf("%w: content must not be blank", ErrValidation)
	}
	return nil
}

func (ForestComment) TableName() string {
	return "forest_comments"
}

func (c *ForestComment) IsWrittenBy(userID string) bool {
	return c.WriterID != nil && *c.WriterID == userID
}
