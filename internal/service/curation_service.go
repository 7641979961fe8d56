package service

import (
	"context"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
)

type CurationService interface {
	CreateCuration(ctx context.Context, userID string, req CreateCurationRequest, repPic *storage.Upload) (*model.Curation, error)
	GetCuration(curationID, viewerID string) (*model.Curation, error)
	ListCurations(req ListCurationsRequest, viewerID string, limit, offset int) ([]*model.Curation, int64, error)
	ListSelected(viewerID string, limit, offset int) ([]*model.Curation, int64, error)
	UpdateCuration(ctx context.Context, userID, curationID string, req UpdateCurationRequest, repPic *storage.Upload) (*model.Curation, error)
	DeleteCuration(userID, curationID string) error
}

type CurationPlace struct {
	PlaceID       string `json:"place_id" binding:"required"`
	ShortCuration string `json:"short_curation"`
}

type CreateCurationRequest struct {
	Title      string          `json:"title" form:"title" binding:"required,max=200"`
	Contents   string          `json:"contents" form:"contents" binding:"required"`
	IsReleased bool            `json:"is_released" form:"is_released"`
	Places     []CurationPlace `json:"places" form:"-" binding:"dive"`
}

type UpdateCurationRequest struct {
	Title      *string          `json:"title,omitempty" form:"title" binding:"omitempty,max=200"`
	Contents   *string          `json:"contents,omitempty" form:"contents"`
	IsReleased *bool            `json:"is_released,omitempty" form:"is_released"`
	Places     *[]CurationPlace `json:"places,omitempty" form:"-"`
}

type ListCurationsRequest struct {
	Query    string `form:"query"`
	Order    string `form:"order" binding:"omitempty,oneof=latest likes"`
	WriterID string `form:"writer"`
}

type curationService struct {
	curationRepo repository.CurationRepository
	placeRepo    repository.PlaceRepository
	likeRepo     repository.LikeRepository
	blobs        storage.BlobStore
}

func NewCurationService(
	curationRepo repository.CurationRepository,
	placeRepo repository.PlaceRepository,
	likeRepo repository.LikeRepository,
	blobs storage.BlobStore,
) CurationService {
	return &curationService{
		curationRepo: curationRepo,
		placeRepo:    placeRepo,
		likeRepo:     likeRepo,
		blobs:        blobs,
	}
}

func (s *curationService) CreateCuration(ctx context.Context, userID string, req CreateCurationRequest, repPic *storage.Upload) (*model.Curation, error) {
	if model.Blank(req.Title) {
		return nil, validationError("title must not be blank")
	}
	if model.Blank(req.Contents) {
		return nil, validationError("contents must not be blank")
	}
	maps, err := s.curationMaps(req.Places)
	if err != nil {
		return nil, err
	}

	curation := &model.Curation{
		Title:      strings.TrimSpace(req.Title),
		Contents:   req.Contents,
		IsReleased: req.IsReleased,
		WriterID:   &userID,
	}

	stored, err := s.storeRepPic(ctx, curation, repPic)
	if err != nil {
		return nil, err
	}

	if err := s.curationRepo.Create(curation, maps); err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "curation")
	}
	return s.curationRepo.FindByID(curation.ID)
}

// GetCuration hides unreleased curations from everyone but their writer.
func (s *curationService) GetCuration(curationID, viewerID string) (*model.Curation, error) {
	curation, err := s.curationRepo.FindByID(curationID)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	if !curation.IsReleased && !curation.IsWrittenBy(viewerID) {
		return nil, notFoundError("curation")
	}

	if viewerID != "" {
		liked, err := s.likeRepo.Exists(viewerID, model.TargetTypeCuration, curationID)
		if err != nil {
			return nil, err
		}
		curation.LikedByMe = liked
	}
	return curation, nil
}

func (s *curationService) ListCurations(req ListCurationsRequest, viewerID string, limit, offset int) ([]*model.Curation, int64, error) {
	return s.list(repository.CurationFilter{
		Query:    strings.TrimSpace(req.Query),
		Order:    req.Order,
		WriterID: req.WriterID,
		ViewerID: viewerID,
	}, viewerID, limit, offset)
}

// ListSelected returns released curations picked by admins.
func (s *curationService) ListSelected(viewerID string, limit, offset int) ([]*model.Curation, int64, error) {
	return s.list(repository.CurationFilter{SelectedOnly: true}, viewerID, limit, offset)
}

func (s *curationService) list(filter repository.CurationFilter, viewerID string, limit, offset int) ([]*model.Curation, int64, error) {
	curations, total, err := s.curationRepo.List(filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := markCurationsLiked(s.likeRepo, viewerID, curations); err != nil {
		return nil, 0, err
	}
	return curations, total, nil
}

func (s *curationService) UpdateCuration(ctx context.Context, userID, curationID string, req UpdateCurationRequest, repPic *storage.Upload) (*model.Curation, error) {
	curation, err := s.curationRepo.FindByID(curationID)
	if err != nil {
		return nil, storeError(err, "curation")
	}
	if !curation.IsWrittenBy(userID) {
		return nil, authorizationError("only the writer can edit this curation")
	}

	if req.Title != nil {
		if model.Blank(*req.Title) {
			return nil, validationError("title must not be blank")
		}
		curation.Title = strings.TrimSpace(*req.Title)
	}
	if req.Contents != nil {
		if model.Blank(*req.Contents) {
			return nil, validationError("contents must not be blank")
		}
		curation.Contents = *req.Contents
	}
	if req.IsReleased != nil {
		curation.IsReleased = *req.IsReleased
	}

	var maps []model.CurationMap
	if req.Places != nil {
		if maps, err = s.curationMaps(*req.Places); err != nil {
			return nil, err
		}
	}

	oldKey := curation.RepPicKey
	stored, err := s.storeRepPic(ctx, curation, repPic)
	if err != nil {
		return nil, err
	}

	if err := s.curationRepo.Update(curation, maps, req.Places != nil); err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "curation")
	}
	if len(stored) > 0 && oldKey != "" {
		removeBlobs(s.blobs, []string{oldKey})
	}
	return s.curationRepo.FindByID(curation.ID)
}

func (s *curationService) DeleteCuration(userID, curationID string) error {
	curation, err := s.curationRepo.FindByID(curationID)
	if err != nil {
		return storeError(err, "curation")
	}
	if !curation.IsWrittenBy(userID) {
		return authorizationError("only the writer can delete this curation")
	}

	key, err := s.curationRepo.Delete(curationID)
	if err != nil {
		return storeError(err, "curation")
	}
	if key != "" {
		removeBlobs(s.blobs, []string{key})
	}
	return nil
}

// curationMaps checks that every place exists and appears once.
func (s *curationService) curationMaps(places []CurationPlace) ([]model.CurationMap, error) {
	if len(places) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(places))
	seen := make(map[string]bool, len(places))
	for _, p := range places {
		id := strings.TrimSpace(p.PlaceID)
		if id == "" {
			return nil, validationError("place_id is required")
		}
		if seen[id] {
			return nil, validationError("place %s is listed twice", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	found, err := s.placeRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, notFoundError("place")
	}

	maps := make([]model.CurationMap, 0, len(places))
	for i, p := range places {
		maps = append(maps, model.CurationMap{
			PlaceID:       ids[i],
			ShortCuration: strings.TrimSpace(p.ShortCuration),
		})
	}
	return maps, nil
}

func (s *curationService) storeRepPic(ctx context.Context, curation *model.Curation, repPic *storage.Upload) ([]storage.Stored, error) {
	if repPic == nil {
		return nil, nil
	}
	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixCuration, []storage.Upload{*repPic})
	if err != nil {
		return nil, err
	}
	curation.RepPicURL = photos[0].URL
	curation.RepPicKey = photos[0].Key
	return stored, nil
}

func markCurationsLiked(likes repository.LikeRepository, viewerID string, curations []*model.Curation) error {
	if viewerID == "" || len(curations) == 0 {
		return nil
	}
	ids := make([]string, 0, len(curations))
	for _, c := range curations {
		ids = append(ids, c.ID)
	}
	liked, err := likes.FindUserLikedTargets(viewerID, model.TargetTypeCuration, ids)
	if err != nil {
		return err
	}
	for _, c := range curations {
		c.LikedByMe = liked[c.ID]
	}
	return nil
}
