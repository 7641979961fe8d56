package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"
)

const forestPreviewLength = 150

type ForestService interface {
	CreateForest(ctx context.Context, userID string, req CreateForestRequest, photos []storage.Upload) (*model.Forest, error)
	GetForest(forestID, viewerID string) (*model.Forest, error)
	ListForests(req ListForestsRequest, viewerID string, limit, offset int) ([]*model.Forest, int64, error)
	UpdateForest(ctx context.Context, userID, forestID string, req UpdateForestRequest, photos []storage.Upload) (*model.Forest, error)
	DeleteForest(userID, forestID string) error

	ListCategories() ([]*model.Category, error)
	ListSemiCategories(categoryID string) ([]*model.SemiCategory, error)

	CreateComment(userID, forestID, content string) (*model.ForestComment, error)
	UpdateComment(userID, commentID, content string) (*model.ForestComment, error)
	DeleteComment(userID, commentID string) error
	ListComments(forestID, viewerID string, limit, offset int) ([]*model.ForestComment, int64, error)
}

type CreateForestRequest struct {
	Title           string   `json:"title" form:"title" binding:"required,max=200"`
	Subtitle        string   `json:"subtitle" form:"subtitle" binding:"max=200"`
	Content         string   `json:"content" form:"content" binding:"required"`
	ContentFormat   string   `json:"content_format" form:"content_format" binding:"omitempty,oneof=html markdown"`
	CategoryID      string   `json:"category_id" form:"category_id" binding:"required"`
	SemiCategoryIDs []string `json:"semi_category_ids" form:"semi_category_ids"`
	Hashtags        []string `json:"hashtags" form:"hashtags"`
}

type UpdateForestRequest struct {
	Title           *string   `json:"title,omitempty" form:"title" binding:"omitempty,max=200"`
	Subtitle        *string   `json:"subtitle,omitempty" form:"subtitle" binding:"omitempty,max=200"`
	Content         *string   `json:"content,omitempty" form:"content"`
	ContentFormat   string    `json:"content_format,omitempty" form:"content_format" binding:"omitempty,oneof=html markdown"`
	CategoryID      *string   `json:"category_id,omitempty" form:"category_id"`
	SemiCategoryIDs *[]string `json:"semi_category_ids,omitempty" form:"semi_category_ids"`
	Hashtags        *[]string `json:"hashtags,omitempty" form:"hashtags"`
	ReplacePhotos   bool      `json:"replace_photos,omitempty" form:"replace_photos"`
}

type ListForestsRequest struct {
	CategoryID     string `form:"category"`
	SemiCategoryID string `form:"semi_category"`
	Query          string `form:"query"`
	Order          string `form:"order" binding:"omitempty,oneof=latest hot likes"`
	WriterID       string `form:"writer"`
}

type forestService struct {
	forestRepo  repository.ForestRepository
	commentRepo repository.ForestCommentRepository
	likeRepo    repository.LikeRepository
	blobs       storage.BlobStore
}

func NewForestService(
	forestRepo repository.ForestRepository,
	commentRepo repository.ForestCommentRepository,
	likeRepo repository.LikeRepository,
	blobs storage.BlobStore,
) ForestService {
	return &forestService{
		forestRepo:  forestRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		blobs:       blobs,
	}
}

func (s *forestService) CreateForest(ctx context.Context, userID string, req CreateForestRequest, uploads []storage.Upload) (*model.Forest, error) {
	if model.Blank(req.Title) {
		return nil, validationError("title must not be blank")
	}

	content, err := renderForestContent(req.Content, req.ContentFormat)
	if err != nil {
		return nil, err
	}

	category, err := s.forestRepo.FindCategory(req.CategoryID)
	if err != nil {
		return nil, storeError(err, "category")
	}
	semis, err := s.semiCategoriesOf(category.ID, req.SemiCategoryIDs)
	if err != nil {
		return nil, err
	}

	forest := &model.Forest{
		Title:          strings.TrimSpace(req.Title),
		Subtitle:       strings.TrimSpace(req.Subtitle),
		Content:        content,
		Preview:        util.PlainPreview(content, forestPreviewLength),
		CategoryID:     &category.ID,
		SemiCategories: semis,
		WriterID:       &userID,
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixForests, uploads)
	if err != nil {
		return nil, err
	}

	if err := s.forestRepo.Create(forest, req.Hashtags, forestPhotos(photos)); err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "forest")
	}
	return s.forestRepo.FindByID(forest.ID)
}

// GetForest counts every read as a view.
func (s *forestService) GetForest(forestID, viewerID string) (*model.Forest, error) {
	forest, err := s.forestRepo.FindByID(forestID)
	if err != nil {
		return nil, storeError(err, "forest")
	}
	if err := s.forestRepo.IncrementViewCount(forestID); err != nil {
		return nil, err
	}
	forest.ViewCount++

	if viewerID != "" {
		liked, err := s.likeRepo.Exists(viewerID, model.TargetTypeForest, forestID)
		if err != nil {
			return nil, err
		}
		forest.LikedByMe = liked
	}
	return forest, nil
}

func (s *forestService) ListForests(req ListForestsRequest, viewerID string, limit, offset int) ([]*model.Forest, int64, error) {
	forests, total, err := s.forestRepo.List(repository.ForestFilter{
		CategoryID:     req.CategoryID,
		SemiCategoryID: req.SemiCategoryID,
		Query:          strings.TrimSpace(req.Query),
		Order:          req.Order,
		WriterID:       req.WriterID,
	}, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := markForestsLiked(s.likeRepo, viewerID, forests); err != nil {
		return nil, 0, err
	}
	return forests, total, nil
}

func (s *forestService) UpdateForest(ctx context.Context, userID, forestID string, req UpdateForestRequest, uploads []storage.Upload) (*model.Forest, error) {
	forest, err := s.forestRepo.FindByID(forestID)
	if err != nil {
		return nil, storeError(err, "forest")
	}
	if !forest.IsWrittenBy(userID) {
		return nil, authorizationError("only the writer can edit this forest")
	}

	if req.Title != nil {
		if model.Blank(*req.Title) {
			return nil, validationError("title must not be blank")
		}
		forest.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subtitle != nil {
		forest.Subtitle = strings.TrimSpace(*req.Subtitle)
	}
	if req.Content != nil {
		content, err := renderForestContent(*req.Content, req.ContentFormat)
		if err != nil {
			return nil, err
		}
		forest.Content = content
		forest.Preview = util.PlainPreview(content, forestPreviewLength)
	}

	upd := repository.ForestUpdate{}
	if req.CategoryID != nil {
		category, err := s.forestRepo.FindCategory(*req.CategoryID)
		if err != nil {
			return nil, storeError(err, "category")
		}
		forest.CategoryID = &category.ID
		forest.Category = category
	}
	if req.SemiCategoryIDs != nil || req.CategoryID != nil {
		categoryID := ""
		if forest.CategoryID != nil {
			categoryID = *forest.CategoryID
		}
		// A new category drops the old semi categories unless new ones are given.
		var ids []string
		if req.SemiCategoryIDs != nil {
			ids = *req.SemiCategoryIDs
		}
		semis, err := s.semiCategoriesOf(categoryID, ids)
		if err != nil {
			return nil, err
		}
		upd.SemiCategories = semis
		upd.ReplaceSemis = true
	}
	if req.Hashtags != nil {
		upd.Hashtags = *req.Hashtags
		upd.ReplaceHashtags = true
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixForests, uploads)
	if err != nil {
		return nil, err
	}
	upd.Photos = forestPhotos(photos)
	upd.ReplacePhotos = req.ReplacePhotos || len(uploads) > 0

	removed, err := s.forestRepo.Update(forest, upd)
	if err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "forest")
	}

	keys := make([]string, 0, len(removed))
	for _, p := range removed {
		keys = append(keys, p.Key)
	}
	removeBlobs(s.blobs, keys)

	return s.forestRepo.FindByID(forest.ID)
}

func (s *forestService) DeleteForest(userID, forestID string) error {
	forest, err := s.forestRepo.FindByID(forestID)
	if err != nil {
		return storeError(err, "forest")
	}
	if !forest.IsWrittenBy(userID) {
		return authorizationError("only the writer can delete this forest")
	}

	keys, err := s.forestRepo.Delete(forestID)
	if err != nil {
		return storeError(err, "forest")
	}
	removeBlobs(s.blobs, keys)
	return nil
}

func (s *forestService) ListCategories() ([]*model.Category, error) {
	return s.forestRepo.ListCategories()
}

func (s *forestService) ListSemiCategories(categoryID string) ([]*model.SemiCategory, error) {
	return s.forestRepo.ListSemiCategories(categoryID)
}

func (s *forestService) CreateComment(userID, forestID, content string) (*model.ForestComment, error) {
	if _, err := s.forestRepo.FindByID(forestID); err != nil {
		return nil, storeError(err, "forest")
	}
	if model.Blank(content) {
		return nil, validationError("content must not be blank")
	}

	comment := &model.ForestComment{
		ForestID: forestID,
		Content:  strings.TrimSpace(content),
		WriterID: &userID,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, storeError(err, "forest comment")
	}
	return s.commentRepo.FindByID(comment.ID)
}

func (s *forestService) UpdateComment(userID, commentID, content string) (*model.ForestComment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, storeError(err, "forest comment")
	}
	if !comment.IsWrittenBy(userID) {
		return nil, authorizationError("only the writer can edit this comment")
	}
	if model.Blank(content) {
		return nil, validationError("content must not be blank")
	}

	comment.Content = strings.TrimSpace(content)
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, storeError(err, "forest comment")
	}
	return comment, nil
}

func (s *forestService) DeleteComment(userID, commentID string) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return storeError(err, "forest comment")
	}
	if !comment.IsWrittenBy(userID) {
		return authorizationError("only the writer can delete this comment")
	}
	return storeError(s.commentRepo.Delete(commentID), "forest comment")
}

func (s *forestService) ListComments(forestID, viewerID string, limit, offset int) ([]*model.ForestComment, int64, error) {
	if _, err := s.forestRepo.FindByID(forestID); err != nil {
		return nil, 0, storeError(err, "forest")
	}

	comments, total, err := s.commentRepo.ListByForest(forestID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if viewerID != "" && len(comments) > 0 {
		ids := make([]string, 0, len(comments))
		for _, c := range comments {
			ids = append(ids, c.ID)
		}
		liked, err := s.likeRepo.FindUserLikedTargets(viewerID, model.TargetTypeForestComment, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, c := range comments {
			c.LikedByMe = liked[c.ID]
		}
	}
	return comments, total, nil
}

// semiCategoriesOf resolves ids and checks each belongs to categoryID.
func (s *forestService) semiCategoriesOf(categoryID string, ids []string) ([]model.SemiCategory, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	semis, err := s.forestRepo.FindSemiCategories(ids)
	if err != nil {
		return nil, err
	}
	if len(semis) != len(ids) {
		return nil, notFoundError("semi category")
	}
	for _, sc := range semis {
		if sc.CategoryID != categoryID {
			return nil, validationError("semi category %q is not in the chosen category", sc.Name)
		}
	}
	return semis, nil
}

func renderForestContent(content, format string) (string, error) {
	if model.Blank(content) {
		return "", validationError("content must not be blank")
	}
	html, err := util.RenderContent(content, format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if model.Blank(html) {
		return "", validationError("content must not be blank")
	}
	return html, nil
}

func markForestsLiked(likes repository.LikeRepository, viewerID string, forests []*model.Forest) error {
	if viewerID == "" || len(forests) == 0 {
		return nil
	}
	ids := make([]string, 0, len(forests))
	for _, f := range forests {
		ids = append(ids, f.ID)
	}
	liked, err := likes.FindUserLikedTargets(viewerID, model.TargetTypeForest, ids)
	if err != nil {
		return err
	}
	for _, f := range forests {
		f.LikedByMe = liked[f.ID]
	}
	return nil
}

func forestPhotos(photos []model.Photo) []model.ForestPhoto {
	rows := make([]model.ForestPhoto, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, model.ForestPhoto{Photo: p})
	}
	return rows
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
