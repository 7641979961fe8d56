package repository

import (
	"fmt"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository interface {
	Toggle(targetType, targetID, userID string) (liked bool, count int64, err error)
	Exists(userID, targetType, targetID string) (bool, error)
	FindUserLikedTargets(userID, targetType string, targetIDs []string) (map[string]bool, error)
}

type likeRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

func NewLikeRepository(db *gorm.DB, redis *util.RedisClient) LikeRepository {
	return &likeRepository{
		db:    db,
		redis: redis,
	}
}

// Toggle flips the user's like on a target and keeps the target's like_count
// in step. The target row is locked FOR UPDATE for the whole transaction so
// concurrent toggles on the same target serialise; the counter never drops
// below zero. A missing target yields gorm.ErrRecordNotFound.
func (r *likeRepository) Toggle(targetType, targetID, userID string) (bool, int64, error) {
	table, ok := model.LikeTargetTable(targetType)
	if !ok {
		return false, 0, fmt.Errorf("unknown like target type %q", targetType)
	}
	if !validID(targetID) {
		return false, 0, gorm.ErrRecordNotFound
	}

	var (
		liked bool
		count int64
	)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var target struct {
			ID        string
			LikeCount int64
		}
		err := tx.Table(table).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id, like_count").
			Where("id = ?", targetID).
			Take(&target).Error
		if err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			Delete(&model.Like{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			liked = false
			if err := tx.Table(table).Where("id = ?", targetID).
				UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - ?, 0)", res.RowsAffected)).Error; err != nil {
				return err
			}
		} else {
			liked = true
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Like{
				UserID:     userID,
				TargetType: targetType,
				TargetID:   targetID,
			})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected > 0 {
				if err := tx.Table(table).Where("id = ?", targetID).
					UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
					return err
				}
			}
		}

		return tx.Table(table).Select("like_count").Where("id = ?", targetID).Scan(&count).Error
	})
	if err != nil {
		return false, 0, err
	}

	r.invalidateTarget(targetType, targetID)
	return liked, count, nil
}

func (r *likeRepository) Exists(userID, targetType, targetID string) (bool, error) {
	if !validID(targetID) {
		return false, nil
	}
	var count int64
	err := r.db.Model(&model.Like{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Count(&count).Error
	return count > 0, err
}

// FindUserLikedTargets checks which of targetIDs the user has liked.
func (r *likeRepository) FindUserLikedTargets(userID, targetType string, targetIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(targetIDs))
	if userID == "" || len(targetIDs) == 0 {
		return result, nil
	}

	var liked []string
	err := r.db.Model(&model.Like{}).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, targetType, targetIDs).
		Pluck("target_id", &liked).Error
	if err != nil {
		return nil, err
	}
	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}

// invalidateTarget drops caches that embed the target's like_count.
func (r *likeRepository) invalidateTarget(targetType, targetID string) {
	if r.redis == nil {
		return
	}

	switch targetType {
	case model.TargetTypePost:
		r.redis.Delete(postCachePrefix + targetID)
	case model.TargetTypePostComment:
		var postIDs []string
		if err := r.db.Model(&model.PostComment{}).Where("id = ?", targetID).Pluck("post_id", &postIDs).Error; err == nil && len(postIDs) > 0 {
			r.redis.DeletePattern(commentListCachePrefix + postIDs[0] + ":*")
		}
	case model.TargetTypePlace:
		r.redis.Delete(placeCachePrefix + targetID)
	}
}
