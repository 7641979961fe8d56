package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"type:uuid;primary_key" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"nickname"`
	ProfileImage string    `gorm:"type:text" json:"profile_image,omitempty"`
	ProfileKey   string    `gorm:"type:text" json:"-"`
	Introduction string    `gorm:"type:text" json:"introduction,omitempty"`
	UserType     string    `gorm:"type:varchar(20);default:'member'" json:"user_type"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the public part of a user embedded in other responses.
type UserSummary struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Nickname: u.Nickname, ProfileImage: u.ProfileImage}
}

const (
	UserTypeMember = "member"
	UserTypeAdmin  = "admin"
)
