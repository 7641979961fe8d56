package service

import (
	"context"
	"slices"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
)

type PlaceService interface {
	CreatePlace(req CreatePlaceRequest) (*model.Place, error)
	GetPlace(placeID, viewerID string) (*model.Place, error)
	ListPlaces(req ListPlacesRequest, viewerID string, limit, offset int) ([]*model.Place, int64, error)

	CreateReview(ctx context.Context, userID, placeID string, req ReviewRequest, photos []storage.Upload) (*model.VisitorReview, error)
	UpdateReview(ctx context.Context, userID, reviewID string, req ReviewRequest, photos []storage.Upload) (*model.VisitorReview, error)
	DeleteReview(userID, reviewID string) error
	ListReviews(placeID string, limit, offset int) ([]*model.VisitorReview, int64, error)
}

// CreatePlaceRequest carries caller supplied coordinates; nothing is geocoded.
type CreatePlaceRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Address     string  `json:"address" binding:"max=255"`
	Category    string  `json:"category" binding:"max=50"`
	Latitude    float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" binding:"min=-180,max=180"`
	PlaceReview string  `json:"place_review"`
	RepPic      string  `json:"rep_pic"`
}

type ListPlacesRequest struct {
	Query    string `form:"query"`
	Category string `form:"category"`
}

type ReviewRequest struct {
	Contents      string   `json:"contents" form:"contents" binding:"required"`
	Tags          []string `json:"tags" form:"tags"`
	ReplacePhotos bool     `json:"replace_photos,omitempty" form:"replace_photos"`
}

type placeService struct {
	placeRepo repository.PlaceRepository
	likeRepo  repository.LikeRepository
	blobs     storage.BlobStore
}

func NewPlaceService(placeRepo repository.PlaceRepository, likeRepo repository.LikeRepository, blobs storage.BlobStore) PlaceService {
	return &placeService{
		placeRepo: placeRepo,
		likeRepo:  likeRepo,
		blobs:     blobs,
	}
}

func (s *placeService) CreatePlace(req CreatePlaceRequest) (*model.Place, error) {
	if model.Blank(req.Name) {
		return nil, validationError("name must not be blank")
	}
	place := &model.Place{
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		Category:    strings.TrimSpace(req.Category),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PlaceReview: req.PlaceReview,
		RepPic:      req.RepPic,
	}
	if err := s.placeRepo.Create(place); err != nil {
		return nil, storeError(err, "place")
	}
	return place, nil
}

func (s *placeService) GetPlace(placeID, viewerID string) (*model.Place, error) {
	place, err := s.placeRepo.FindByID(placeID)
	if err != nil {
		return nil, storeError(err, "place")
	}
	if viewerID != "" {
		liked, err := s.likeRepo.Exists(viewerID, model.TargetTypePlace, placeID)
		if err != nil {
			return nil, err
		}
		place.LikedByMe = liked
	}
	return place, nil
}

func (s *placeService) ListPlaces(req ListPlacesRequest, viewerID string, limit, offset int) ([]*model.Place, int64, error) {
	places, total, err := s.placeRepo.List(repository.PlaceFilter{
		Query:    strings.TrimSpace(req.Query),
		Category: strings.TrimSpace(req.Category),
	}, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := markPlacesLiked(s.likeRepo, viewerID, places); err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

func (s *placeService) CreateReview(ctx context.Context, userID, placeID string, req ReviewRequest, uploads []storage.Upload) (*model.VisitorReview, error) {
	if _, err := s.placeRepo.FindByID(placeID); err != nil {
		return nil, storeError(err, "place")
	}

	review := &model.VisitorReview{
		PlaceID:   placeID,
		VisitorID: &userID,
	}
	if err := fillReview(review, req); err != nil {
		return nil, err
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixReviews, uploads)
	if err != nil {
		return nil, err
	}
	if err := s.placeRepo.CreateReview(review, reviewPhotos(photos)); err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "review")
	}
	return s.placeRepo.FindReview(review.ID)
}

func (s *placeService) UpdateReview(ctx context.Context, userID, reviewID string, req ReviewRequest, uploads []storage.Upload) (*model.VisitorReview, error) {
	review, err := s.placeRepo.FindReview(reviewID)
	if err != nil {
		return nil, storeError(err, "review")
	}
	if !review.IsWrittenBy(userID) {
		return nil, authorizationError("only the visitor can edit this review")
	}
	if err := fillReview(review, req); err != nil {
		return nil, err
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixReviews, uploads)
	if err != nil {
		return nil, err
	}
	removed, err := s.placeRepo.UpdateReview(review, reviewPhotos(photos), req.ReplacePhotos || len(uploads) > 0)
	if err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "review")
	}

	keys := make([]string, 0, len(removed))
	for _, p := range removed {
		keys = append(keys, p.Key)
	}
	removeBlobs(s.blobs, keys)

	return s.placeRepo.FindReview(review.ID)
}

func (s *placeService) DeleteReview(userID, reviewID string) error {
	review, err := s.placeRepo.FindReview(reviewID)
	if err != nil {
		return storeError(err, "review")
	}
	if !review.IsWrittenBy(userID) {
		return authorizationError("only the visitor can delete this review")
	}

	keys, err := s.placeRepo.DeleteReview(reviewID)
	if err != nil {
		return storeError(err, "review")
	}
	removeBlobs(s.blobs, keys)
	return nil
}

func (s *placeService) ListReviews(placeID string, limit, offset int) ([]*model.VisitorReview, int64, error) {
	if _, err := s.placeRepo.FindByID(placeID); err != nil {
		return nil, 0, storeError(err, "place")
	}
	return s.placeRepo.ListReviews(placeID, limit, offset)
}

func fillReview(review *model.VisitorReview, req ReviewRequest) error {
	if model.Blank(req.Contents) {
		return validationError("contents must not be blank")
	}
	tags := dedupe(req.Tags)
	for _, t := range tags {
		if !slices.Contains(model.ReviewTags, t) {
			return validationError("unknown review tag %q", t)
		}
	}
	review.Contents = strings.TrimSpace(req.Contents)
	return review.SetTags(tags)
}

func reviewPhotos(photos []model.Photo) []model.VisitorReviewPhoto {
	rows := make([]model.VisitorReviewPhoto, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, model.VisitorReviewPhoto{Photo: p})
	}
	return rows
}

func markPlacesLiked(likes repository.LikeRepository, viewerID string, places []*model.Place) error {
	if viewerID == "" || len(places) == 0 {
		return nil
	}
	ids := make([]string, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	liked, err := likes.FindUserLikedTargets(viewerID, model.TargetTypePlace, ids)
	if err != nil {
		return err
	}
	for _, p := range places {
		p.LikedByMe = liked[p.ID]
	}
	return nil
}
