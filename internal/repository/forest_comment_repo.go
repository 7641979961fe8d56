package repository

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ForestCommentRepository interface {
	Create(comment *model.ForestComment) error
	FindByID(id string) (*model.ForestComment, error)
	Update(comment *model.ForestComment) error
	Delete(id string) error
	ListByForest(forestID string, limit, offset int) ([]*model.ForestComment, int64, error)
}

type forestCommentRepository struct {
	db *gorm.DB
}

func NewForestCommentRepository(db *gorm.DB) ForestCommentRepository {
	return &forestCommentRepository{db: db}
}

func (r *forestCommentRepository) Create(comment *model.ForestComment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

func (r *forestCommentRepository) FindByID(id string) (*model.ForestComment, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var comment model.ForestComment
	if err := r.db.Preload("Writer").Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *forestCommentRepository) Update(comment *model.ForestComment) error {
	return r.db.Model(comment).Select("content", "updated_at").Updates(comment).Error
}

func (r *forestCommentRepository) Delete(id string) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.ForestComment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteTargetRows(tx, model.TargetTypeForestComment, []string{id})
	})
}

// ListByForest returns comments oldest first.
func (r *forestCommentRepository) ListByForest(forestID string, limit, offset int) ([]*model.ForestComment, int64, error) {
	query := r.db.Model(&model.ForestComment{}).Where("forest_id = ?", forestID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*model.ForestComment
	err := query.Preload("Writer").Order("id ASC").Scopes(paginate(limit, offset)).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
