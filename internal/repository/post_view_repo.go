package repository

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostViewRepository interface {
	Record(postID, userID string) (counted bool, err error)
	HasViewed(postID, userID string) (bool, error)
}

type postViewRepository struct {
	db *gorm.DB
}

func NewPostViewRepository(db *gorm.DB) PostViewRepository {
	return &postViewRepository{db: db}
}

// Record stores a view once per (post, user). Only the first view increments
// posts.view_count; repeat views are no-ops.
func (r *postViewRepository) Record(postID, userID string) (bool, error) {
	var counted bool

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.PostView{PostID: postID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		counted = true
		return tx.Model(&model.Post{}).
			Where("id = ?", postID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	})
	return counted, err
}

func (r *postViewRepository) HasViewed(postID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.PostView{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}
