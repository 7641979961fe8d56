package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Curation is a story that strings together a set of places.
type Curation struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	Title      string    `gorm:"type:varchar(200);not null" json:"title"`
	Contents   string    `gorm:"type:text;not null" json:"contents"`
	RepPicURL  string    `gorm:"type:text" json:"rep_pic"`
	RepPicKey  string    `gorm:"type:text" json:"-"`
	IsReleased bool      `gorm:"not null;default:false;index" json:"is_released"`
	IsSelected bool      `gorm:"not null;default:false;index" json:"is_selected"`
	WriterID   *string   `gorm:"type:uuid;index" json:"writer_id"`
	LikeCount  int64     `gorm:"not null;default:0" json:"like_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Writer *User         `gorm:"foreignKey:WriterID;constraint:OnDelete:SET NULL" json:"writer,omitempty"`
	Maps   []CurationMap `gorm:"foreignKey:CurationID;constraint:OnDelete:CASCADE" json:"places"`

	LikedByMe bool `gorm:"-" json:"liked_by_me"`
}

// BeforeCreate hook to generate UUID
func (c *Curation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

func (c *Curation) BeforeSave(tx *gorm.DB) error {
	if Blank(c.Title) {
		return fmt.Errorf("%w: title must not be blank", ErrValidation)
	}
	if Blank(c.Contents) {
		return fmt.Errorf("%w: contents must not be blank", ErrValidation)
	}
	return nil
}

func (Curation) TableName() string {
	return "curations"
}

func (c *Curation) IsWrittenBy(userID string) bool {
	return c.WriterID != nil && *c.WriterID == userID
}

type CurationMap struct {
	ID            string `gorm:"type:uuid;primary_key" json:"-"`
	CurationID    string `gorm:"type:uuid;not null;uniqueIndex:idx_curation_place" json:"-"`
	PlaceID       string `gorm:"type:uuid;not null;uniqueIndex:idx_curation_place;index" json:"place_id"`
	ShortCuration string `gorm:"type:text" json:"short_curation"`

	Place *Place `gorm:"foreignKey:PlaceID;constraint:OnDelete:CASCADE" json:"place,omitempty"`
}

func (m *CurationMap) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}

func (CurationMap) TableName() string {
	return "curation_maps"
}
