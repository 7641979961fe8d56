package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"

	"gorm.io/gorm"
)

type UserService interface {
	GetUser(userID string) (*model.User, error)
	SearchUsers(keyword string, limit, offset int) ([]*model.User, int64, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest, image *storage.Upload) (*model.User, error)
}

type UpdateProfileRequest struct {
	Nickname     *string `json:"nickname,omitempty" form:"nickname" binding:"omitempty,min=2,max=50"`
	Introduction *string `json:"introduction,omitempty" form:"introduction" binding:"omitempty,max=500"`
}

type userService struct {
	userRepo repository.UserRepository
	blobs    storage.BlobStore
}

func NewUserService(userRepo repository.UserRepository, blobs storage.BlobStore) UserService {
	return &userService{
		userRepo: userRepo,
		blobs:    blobs,
	}
}

func (s *userService) GetUser(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

func (s *userService) SearchUsers(keyword string, limit, offset int) ([]*model.User, int64, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, 0, validationError("search keyword is required")
	}
	return s.userRepo.Search(keyword, limit, offset)
}

// UpdateProfile changes nickname, introduction and the profile image. The
// previous image blob is removed once the new one is saved.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest, image *storage.Upload) (*model.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if nickname == "" {
			return nil, validationError("nickname must not be blank")
		}
		user.Nickname = nickname
	}
	if req.Introduction != nil {
		user.Introduction = strings.TrimSpace(*req.Introduction)
	}

	var (
		oldKey string
		stored []storage.Stored
	)
	if image != nil {
		var photos []model.Photo
		photos, stored, err = uploadPhotos(ctx, s.blobs, blobPrefixProfiles, []storage.Upload{*image})
		if err != nil {
			return nil, err
		}
		oldKey = user.ProfileKey
		user.ProfileImage = photos[0].URL
		user.ProfileKey = photos[0].Key
	}

	if err := s.userRepo.Update(user); err != nil {
		discardUploads(s.blobs, stored)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError("nickname is already taken")
		}
		return nil, storeError(err, "user")
	}

	if oldKey != "" {
		removeBlobs(s.blobs, []string{oldKey})
	}
	return user, nil
}
