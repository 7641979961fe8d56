package service

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
)

// MypageService aggregates what a user wrote and liked.
type MypageService interface {
	GetProfile(userID, viewerID string) (*MypageProfile, error)

	LikedPlaces(userID string, limit, offset int) ([]*model.Place, int64, error)
	LikedCurations(userID string, limit, offset int) ([]*model.Curation, int64, error)
	LikedForests(userID string, limit, offset int) ([]*model.Forest, int64, error)
	LikedPosts(userID string, limit, offset int) ([]*model.Post, int64, error)

	MyPosts(userID string, limit, offset int) ([]*model.Post, int64, error)
	MyComments(userID string, limit, offset int) ([]*model.PostComment, int64, error)
	MyCurations(userID, viewerID string, limit, offset int) ([]*model.Curation, int64, error)
	MyForests(userID string, limit, offset int) ([]*model.Forest, int64, error)
	MyReviews(userID string, limit, offset int) ([]*model.VisitorReview, int64, error)
}

type MypageProfile struct {
	User           *model.User `json:"user"`
	FollowerCount  int64       `json:"follower_count"`
	FollowingCount int64       `json:"following_count"`
	PostCount      int64       `json:"post_count"`
	IsFollowing    bool        `json:"is_following"`
}

type mypageService struct {
	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
	forestRepo   repository.ForestRepository
	curationRepo repository.CurationRepository
	placeRepo    repository.PlaceRepository
}

func NewMypageService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	forestRepo repository.ForestRepository,
	curationRepo repository.CurationRepository,
	placeRepo repository.PlaceRepository,
) MypageService {
	return &mypageService{
		userRepo:     userRepo,
		followRepo:   followRepo,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		forestRepo:   forestRepo,
		curationRepo: curationRepo,
		placeRepo:    placeRepo,
	}
}

func (s *mypageService) GetProfile(userID, viewerID string) (*MypageProfile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	profile := &MypageProfile{User: user}
	if profile.FollowerCount, err = s.followRepo.CountFollowers(userID); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = s.followRepo.CountFollowing(userID); err != nil {
		return nil, err
	}
	if profile.PostCount, err = s.postRepo.CountByWriter(userID); err != nil {
		return nil, err
	}
	if viewerID != "" && viewerID != userID {
		if profile.IsFollowing, err = s.followRepo.IsFollowing(viewerID, userID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *mypageService) LikedPlaces(userID string, limit, offset int) ([]*model.Place, int64, error) {
	places, total, err := s.placeRepo.List(repository.PlaceFilter{LikedBy: userID}, limit, offset)
	for _, p := range places {
		p.LikedByMe = true
	}
	return places, total, err
}

func (s *mypageService) LikedCurations(userID string, limit, offset int) ([]*model.Curation, int64, error) {
	curations, total, err := s.curationRepo.List(repository.CurationFilter{LikedBy: userID, ViewerID: userID}, limit, offset)
	for _, c := range curations {
		c.LikedByMe = true
	}
	return curations, total, err
}

func (s *mypageService) LikedForests(userID string, limit, offset int) ([]*model.Forest, int64, error) {
	forests, total, err := s.forestRepo.List(repository.ForestFilter{LikedBy: userID}, limit, offset)
	for _, f := range forests {
		f.LikedByMe = true
	}
	return forests, total, err
}

func (s *mypageService) LikedPosts(userID string, limit, offset int) ([]*model.Post, int64, error) {
	posts, total, err := s.postRepo.List(repository.PostFilter{LikedBy: userID}, limit, offset)
	for _, p := range posts {
		p.LikedByMe = true
	}
	return posts, total, err
}

func (s *mypageService) MyPosts(userID string, limit, offset int) ([]*model.Post, int64, error) {
	return s.postRepo.List(repository.PostFilter{WriterID: userID}, limit, offset)
}

func (s *mypageService) MyComments(userID string, limit, offset int) ([]*model.PostComment, int64, error) {
	return s.commentRepo.ListByWriter(userID, limit, offset)
}

// MyCurations includes drafts only when the writer is looking.
func (s *mypageService) MyCurations(userID, viewerID string, limit, offset int) ([]*model.Curation, int64, error) {
	return s.curationRepo.List(repository.CurationFilter{
		WriterID:     userID,
		IncludeDraft: userID == viewerID,
	}, limit, offset)
}

func (s *mypageService) MyForests(userID string, limit, offset int) ([]*model.Forest, int64, error) {
	return s.forestRepo.List(repository.ForestFilter{WriterID: userID}, limit, offset)
}

func (s *mypageService) MyReviews(userID string, limit, offset int) ([]*model.VisitorReview, int64, error) {
	return s.placeRepo.ListReviewsByVisitor(userID, limit, offset)
}
