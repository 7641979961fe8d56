package repository

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	Search(keyword string, limit, offset int) ([]*model.User, int64, error)
	Update(user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Search matches active users by nickname or email.
func (r *userRepository) Search(keyword string, limit, offset int) ([]*model.User, int64, error) {
	pattern := likePattern(keyword)
	query := r.db.Model(&model.User{}).
		Where("is_active = ?", true).
		Where("nickname ILIKE ? OR email ILIKE ?", pattern, pattern)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*model.User
	err := query.Order("nickname ASC").Scopes(paginate(limit, offset)).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Model(user).Select("nickname", "profile_image", "profile_key", "introduction").Updates(user).Error
}
