package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Place struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;index" json:"name"`
	Address     string    `gorm:"type:varchar(255)" json:"address"`
	Category    string    `gorm:"type:varchar(50);index" json:"category"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	PlaceReview string    `gorm:"type:text" json:"place_review"`
	RepPic      string    `gorm:"type:text" json:"rep_pic"`
	LikeCount   int64     `gorm:"not null;default:0" json:"like_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	LikedByMe bool `gorm:"-" json:"liked_by_me"`
}

// BeforeCreate hook to generate UUID
func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (Place) TableName() string {
	return "places"
}

// VisitorReview is a user's review of a place. Tags holds a JSON array of
// review categories ("vibe", "clean", ...).
type VisitorReview struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	PlaceID   string    `gorm:"type:uuid;not null;index" json:"place_id"`
	VisitorID *string   `gorm:"type:uuid;index" json:"visitor_id"`
	Contents  string    `gorm:"type:text;not null" json:"contents"`
	Tags      string    `gorm:"type:jsonb;default:'[]'" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Place   *Place               `gorm:"foreignKey:PlaceID;constraint:OnDelete:CASCADE" json:"-"`
	Visitor *User                `gorm:"foreignKey:VisitorID;constraint:OnDelete:SET NULL" json:"visitor,omitempty"`
	Photos  []VisitorReviewPhoto `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"photos"`
}

func (r *VisitorReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}

func (r *VisitorReview) BeforeSave(tx *gorm.DB) error {
	if Blank(r.Contents) {
		return fmt.Errorf("%w: contents must not be blank", ErrValidation)
	}
	if r.Tags == "" {
		r.Tags = "[]"
	}
	return nil
}

func (VisitorReview) TableName() string {
	return "visitor_reviews"
}

func (r *VisitorReview) IsWrittenBy(userID string) bool {
	return r.VisitorID != nil && *r.VisitorID == userID
}

// GetTags returns Tags as a slice
func (r *VisitorReview) GetTags() []string {
	if r.Tags == "" || r.Tags == "[]" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}

// SetTags stores tags as a JSON array
func (r *VisitorReview) SetTags(tags []string) error {
	if len(tags) == 0 {
		r.Tags = "[]"
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	r.Tags = string(b)
	return nil
}

// MarshalJSON exposes Tags as an array instead of the raw JSON string.
func (r VisitorReview) MarshalJSON() ([]byte, error) {
	type Alias VisitorReview
	return json.Marshal(&struct {
		Tags []string `json:"tags"`
		Alias
	}{
		Tags:  r.GetTags(),
		Alias: Alias(r),
	})
}

type VisitorReviewPhoto struct {
	ID       string `gorm:"type:uuid;primary_key" json:"id"`
	ReviewID string `gorm:"type:uuid;not null;index" json:"-"`
	Photo
}

func (p *VisitorReviewPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}

func (VisitorReviewPhoto) TableName() string {
	return "visitor_review_photos"
}

// Review tags accepted from clients.
var ReviewTags = []string{"vibe", "clean", "kind", "price", "food", "accessible"}
