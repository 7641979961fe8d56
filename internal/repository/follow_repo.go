package repository

import (
	"strconv"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository interface {
	Toggle(followerID, followingID string) (following bool, err error)
	IsFollowing(followerID, followingID string) (bool, error)
	CountFollowers(userID string) (int64, error)
	CountFollowing(userID string) (int64, error)
	ListFollowers(userID, nickname string, limit, offset int) ([]*model.User, int64, error)
	ListFollowing(userID, nickname string, limit, offset int) ([]*model.User, int64, error)
}

type followRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	followerCountCachePrefix  = "follow:count:followers:"
	followingCountCachePrefix = "follow:count:following:"
	followCacheExpiration     = 10 * time.Minute
)

func NewFollowRepository(db *gorm.DB, redis *util.RedisClient) FollowRepository {
	return &followRepository{
		db:    db,
		redis: redis,
	}
}

// Toggle follows or unfollows. The followed user's row is locked so that two
// concurrent toggles by the same pair cannot both insert or both delete.
func (r *followRepository) Toggle(followerID, followingID string) (bool, error) {
	if !validID(followingID) {
		return false, gorm.ErrRecordNotFound
	}
	var following bool

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var target model.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", followingID).
			Take(&target).Error
		if err != nil {
			return err
		}

		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			following = false
			return nil
		}

		following = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Follow{FollowerID: followerID, FollowingID: followingID}).Error
	})
	if err != nil {
		return false, err
	}

	r.redis.Delete(followerCountCachePrefix+followingID, followingCountCachePrefix+followerID)
	return following, nil
}

func (r *followRepository) IsFollowing(followerID, followingID string) (bool, error) {
	if !validID(followingID) {
		return false, nil
	}
	var count int64
	err := r.db.Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) CountFollowers(userID string) (int64, error) {
	return r.cachedCount(followerCountCachePrefix+userID, "following_id = ?", userID)
}

func (r *followRepository) CountFollowing(userID string) (int64, error) {
	return r.cachedCount(followingCountCachePrefix+userID, "follower_id = ?", userID)
}

func (r *followRepository) cachedCount(key, cond, userID string) (int64, error) {
	if cached, err := r.redis.Get(key); err == nil {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return n, nil
		}
	}

	var count int64
	if err := r.db.Model(&model.Follow{}).Where(cond, userID).Count(&count).Error; err != nil {
		return 0, err
	}

	r.redis.Set(key, strconv.FormatInt(count, 10), followCacheExpiration)
	return count, nil
}

// ListFollowers lists users following userID, optionally filtered by nickname.
func (r *followRepository) ListFollowers(userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	return r.listUsers("follows.follower_id", "follows.following_id", userID, nickname, limit, offset)
}

// ListFollowing lists users that userID follows.
func (r *followRepository) ListFollowing(userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	return r.listUsers("follows.following_id", "follows.follower_id", userID, nickname, limit, offset)
}

func (r *followRepository) listUsers(joinCol, whereCol, userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	query := r.db.Model(&model.User{}).
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(whereCol+" = ?", userID)
	if nickname != "" {
		query = query.Where("users.nickname ILIKE ?", likePattern(nickname))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*model.User
	err := query.Select("users.*").
		Order("follows.id DESC").
		Scopes(paginate(limit, offset)).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
