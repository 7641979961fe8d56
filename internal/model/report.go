package model

import (
	"time"

	"gorm.io/gorm"
)

type Report struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	TargetType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_report_once" json:"target_type"`
	TargetID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_report_once" json:"target_id"`
	ReporterID string    `gorm:"type:uuid;not null;uniqueIndex:idx_report_once" json:"reporter_id"`
	Category   string    `gorm:"type:varchar(50);not null" json:"category"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Reporter *User `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}

func (Report) TableName() string {
	return "reports"
}

// Report categories accepted from clients.
var ReportCategories = []string{
	"spam",
	"abuse",
	"obscene",
	"illegal",
	"privacy",
	"etc",
}
