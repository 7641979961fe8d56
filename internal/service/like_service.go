package service

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
)

type LikeService interface {
	Toggle(userID, targetType, targetID string) (*LikeResult, error)
	CheckUserLiked(userID, targetType, targetID string) (bool, error)
}

// LikeResult is the state after a toggle.
type LikeResult struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Liked      bool   `json:"liked"`
	LikeCount  int64  `json:"like_count"`
}

type likeService struct {
	likeRepo repository.LikeRepository
	postRepo repository.PostRepository
}

func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository) LikeService {
	return &likeService{
		likeRepo: likeRepo,
		postRepo: postRepo,
	}
}

// Toggle likes the target when the user has not liked it yet and unlikes it
// otherwise. Calling it twice restores the original count.
func (s *likeService) Toggle(userID, targetType, targetID string) (*LikeResult, error) {
	if _, ok := model.LikeTargetTable(targetType); !ok {
		return nil, validationError("unknown like target %q", targetType)
	}

	liked, count, err := s.likeRepo.Toggle(targetType, targetID, userID)
	if err != nil {
		return nil, storeError(err, targetType)
	}

	if targetType == model.TargetTypePost {
		s.postRepo.UpdateEngagementScore(targetID)
	}

	return &LikeResult{
		TargetType: targetType,
		TargetID:   targetID,
		Liked:      liked,
		LikeCount:  count,
	}, nil
}

func (s *likeService) CheckUserLiked(userID, targetType, targetID string) (bool, error) {
	if _, ok := model.LikeTargetTable(targetType); !ok {
		return false, validationError("unknown like target %q", targetType)
	}
	return s.likeRepo.Exists(userID, targetType, targetID)
}
