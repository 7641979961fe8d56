package service

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
)

type PostViewService interface {
	TrackView(userID, postID string) (counted bool, err error)
	HasUserViewed(userID, postID string) (bool, error)
}

type postViewService struct {
	viewRepo repository.PostViewRepository
	postRepo repository.PostRepository
}

func NewPostViewService(viewRepo repository.PostViewRepository, postRepo repository.PostRepository) PostViewService {
	return &postViewService{
		viewRepo: viewRepo,
		postRepo: postRepo,
	}
}

// TrackView counts the first view of a post by a user. Repeat views are
// accepted and ignored.
func (s *postViewService) TrackView(userID, postID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	counted, err := s.viewRepo.Record(postID, userID)
	if err != nil {
		return false, storeError(err, "post view")
	}

	// Only a new view moves the hot score.
	if counted {
		s.postRepo.UpdateEngagementScore(postID)
	}
	return counted, nil
}

func (s *postViewService) HasUserViewed(userID, postID string) (bool, error) {
	return s.viewRepo.HasViewed(postID, userID)
}
