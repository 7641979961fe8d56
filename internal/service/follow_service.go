package service

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
)

type FollowService interface {
	Toggle(followerID, targetUserID string) (*FollowResult, error)
	IsFollowing(followerID, targetUserID string) (bool, error)
	GetFollowers(userID, nickname string, limit, offset int) ([]*model.User, int64, error)
	GetFollowing(userID, nickname string, limit, offset int) ([]*model.User, int64, error)
}

type FollowResult struct {
	UserID         string `json:"user_id"`
	Following      bool   `json:"following"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
}

type followService struct {
	followRepo          repository.FollowRepository
	userRepo            repository.UserRepository
	notificationService NotificationService
	async               goAsync
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notificationService NotificationService,
) FollowService {
	return &followService{
		followRepo:          followRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		async:               runInBackground,
	}
}

// Toggle follows targetUserID, or unfollows when already following.
func (s *followService) Toggle(followerID, targetUserID string) (*FollowResult, error) {
	if followerID == targetUserID {
		return nil, validationError("cannot follow yourself")
	}

	following, err := s.followRepo.Toggle(followerID, targetUserID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	followers, err := s.followRepo.CountFollowers(targetUserID)
	if err != nil {
		return nil, err
	}
	followingCount, err := s.followRepo.CountFollowing(targetUserID)
	if err != nil {
		return nil, err
	}

	if following && s.notificationService != nil {
		if sender, err := s.userRepo.FindByID(followerID); err == nil {
			s.async(func() {
				logBackground("send follow notification",
					s.notificationService.SendFollowNotification(targetUserID, sender))
			})
		}
	}

	return &FollowResult{
		UserID:         targetUserID,
		Following:      following,
		FollowerCount:  followers,
		FollowingCount: followingCount,
	}, nil
}

func (s *followService) IsFollowing(followerID, targetUserID string) (bool, error) {
	if followerID == "" || followerID == targetUserID {
		return false, nil
	}
	return s.followRepo.IsFollowing(followerID, targetUserID)
}

// GetFollowers lists who follows userID, optionally filtered by nickname.
func (s *followService) GetFollowers(userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, 0, storeError(err, "user")
	}
	return s.followRepo.ListFollowers(userID, nickname, limit, offset)
}

func (s *followService) GetFollowing(userID, nickname string, limit, offset int) ([]*model.User, int64, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, 0, storeError(err, "user")
	}
	return s.followRepo.ListFollowing(userID, nickname, limit, offset)
}
