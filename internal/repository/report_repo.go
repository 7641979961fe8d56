package repository

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository interface {
	Create(report *model.Report) error
	CountByTarget(targetType, targetID string) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create stores the report, returning ErrDuplicate when this reporter has
// already reported the target.
func (r *reportRepository) Create(report *model.Report) error {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(report)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *reportRepository) CountByTarget(targetType, targetID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Report{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error
	return count, err
}
