package repository

import (
	"strconv"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *model.Notification) error
	FindByUserID(userID string, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error)
	CountUnreadByUserID(userID string) (int64, error)
	MarkAsRead(id, userID string) error
	MarkAllAsRead(userID string) error
	Delete(id, userID string) error
}

type notificationRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	notificationCountCachePrefix = "notification:count:"
	notificationCacheExpiration  = 10 * time.Minute
)

func NewNotificationRepository(db *gorm.DB, redis *util.RedisClient) NotificationRepository {
	return &notificationRepository{
		db:    db,
		redis: redis,
	}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	if err := r.db.Omit("User", "Sender").Create(notification).Error; err != nil {
		return err
	}
	r.invalidateCountCache(notification.UserID)
	return nil
}

// FindByUserID lists a user's notifications, newest first.
func (r *notificationRepository) FindByUserID(userID string, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error) {
	query := r.db.Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []*model.Notification
	err := query.Preload("Sender").
		Order("id DESC").
		Scopes(paginate(limit, offset)).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) CountUnreadByUserID(userID string) (int64, error) {
	if cached, err := r.redis.Get(notificationCountCachePrefix + userID); err == nil {
		if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return count, nil
		}
	}

	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	r.redis.Set(notificationCountCachePrefix+userID, strconv.FormatInt(count, 10), notificationCacheExpiration)
	return count, nil
}

// MarkAsRead marks one of the user's notifications as read.
func (r *notificationRepository) MarkAsRead(id, userID string) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	res := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateCountCache(userID)
	return nil
}

func (r *notificationRepository) MarkAllAsRead(userID string) error {
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		}).Error
	if err != nil {
		return err
	}

	r.invalidateCountCache(userID)
	return nil
}

func (r *notificationRepository) Delete(id, userID string) error {
	if !validID(id) {
		return gorm.ErrRecordNotFound
	}
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateCountCache(userID)
	return nil
}

func (r *notificationRepository) invalidateCountCache(userID string) {
	r.redis.Delete(notificationCountCachePrefix + userID)
}
