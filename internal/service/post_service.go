package service

import (
	"context"
	"slices"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
)

type PostService interface {
	GetBoards() ([]*model.Board, error)
	GetBoard(boardID string) (*model.Board, error)
	CreateBoard(req CreateBoardRequest) (*model.Board, error)
	CreatePost(ctx context.Context, userID string, req CreatePostRequest, photos []storage.Upload) (*model.Post, error)
	GetPostByID(postID, viewerID string) (*model.Post, error)
	ListPosts(req ListPostsRequest, viewerID string, limit, offset int) ([]*model.Post, int64, error)
	UpdatePost(ctx context.Context, userID, postID string, req UpdatePostRequest, photos []storage.Upload) (*model.Post, error)
	DeletePost(userID, postID string) error
	Report(userID string, req ReportRequest) (*model.Report, error)
}

type postService struct {
	postRepo    repository.PostRepository
	boardRepo   repository.BoardRepository
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	reportRepo  repository.ReportRepository
	viewService PostViewService
	blobs       storage.BlobStore
}

type CreateBoardRequest struct {
	Name                  string `json:"name" binding:"required,max=50"`
	SupportsHashtags      bool   `json:"supports_hashtags"`
	SupportsPostPhotos    bool   `json:"supports_post_photos"`
	SupportsCommentPhotos bool   `json:"supports_comment_photos"`
	SupportsComments      bool   `json:"supports_comments"`
}

type CreatePostRequest struct {
	BoardID  string   `json:"board_id" form:"board_id" binding:"required"`
	Title    string   `json:"title" form:"title" binding:"required,max=200"`
	Content  string   `json:"content" form:"content" binding:"required"`
	Hashtags []string `json:"hashtags,omitempty" form:"hashtags"`
}

// UpdatePostRequest leaves nil fields untouched. Hashtags replaces the whole
// set when present; photos replace the whole set when ReplacePhotos is set.
type UpdatePostRequest struct {
	Title         *string   `json:"title,omitempty" form:"title" binding:"omitempty,max=200"`
	Content       *string   `json:"content,omitempty" form:"content"`
	Hashtags      *[]string `json:"hashtags,omitempty" form:"hashtags"`
	ReplacePhotos bool      `json:"replace_photos,omitempty" form:"replace_photos"`
}

type ListPostsRequest struct {
	BoardID  string `form:"board"`
	Query    string `form:"query"`
	Order    string `form:"order" binding:"omitempty,oneof=latest hot likes"`
	WriterID string `form:"writer"`
}

type ReportRequest struct {
	TargetType string `json:"target_type" binding:"required,oneof=post post_comment"`
	TargetID   string `json:"target_id" binding:"required"`
	Category   string `json:"category" binding:"required"`
}

func NewPostService(
	postRepo repository.PostRepository,
	boardRepo repository.BoardRepository,
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	reportRepo repository.ReportRepository,
	viewService PostViewService,
	blobs storage.BlobStore,
) PostService {
	return &postService{
		postRepo:    postRepo,
		boardRepo:   boardRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		reportRepo:  reportRepo,
		viewService: viewService,
		blobs:       blobs,
	}
}

func (s *postService) GetBoards() ([]*model.Board, error) {
	return s.boardRepo.FindAll()
}

func (s *postService) GetBoard(boardID string) (*model.Board, error) {
	board, err := s.boardRepo.FindByID(boardID)
	if err != nil {
		return nil, storeError(err, "board")
	}
	return board, nil
}

func (s *postService) CreateBoard(req CreateBoardRequest) (*model.Board, error) {
	if model.Blank(req.Name) {
		return nil, validationError("name must not be blank")
	}
	board := &model.Board{
		Name:                  strings.TrimSpace(req.Name),
		SupportsHashtags:      req.SupportsHashtags,
		SupportsPostPhotos:    req.SupportsPostPhotos,
		SupportsCommentPhotos: req.SupportsCommentPhotos,
		SupportsComments:      req.SupportsComments,
	}
	if err := s.boardRepo.Create(board); err != nil {
		return nil, storeError(err, "board")
	}
	return board, nil
}

// CreatePost checks the board's capabilities for hashtags and photos before
// anything is written.
func (s *postService) CreatePost(ctx context.Context, userID string, req CreatePostRequest, uploads []storage.Upload) (*model.Post, error) {
	board, err := s.GetBoard(req.BoardID)
	if err != nil {
		return nil, err
	}
	if model.Blank(req.Title) {
		return nil, validationError("title must not be blank")
	}
	if model.Blank(req.Content) {
		return nil, validationError("content must not be blank")
	}
	hashtags := repository.HashtagNames(req.Hashtags)
	if err := requirePostFeatures(board, hashtags, uploads); err != nil {
		return nil, err
	}

	post := &model.Post{
		BoardID:  board.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		WriterID: &userID,
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixPosts, uploads)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(post, hashtags, postPhotos(photos)); err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "post")
	}

	return s.postRepo.FindByID(post.ID)
}

// GetPostByID returns the post and, for a signed-in viewer, records the view
// and whether they liked it.
func (s *postService) GetPostByID(postID, viewerID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, storeError(err, "post")
	}
	if viewerID == "" {
		return post, nil
	}

	counted, err := s.viewService.TrackView(viewerID, postID)
	if err != nil {
		return nil, err
	}
	if counted {
		post.ViewCount++
	}

	liked, err := s.likeRepo.Exists(viewerID, model.TargetTypePost, postID)
	if err != nil {
		return nil, err
	}
	post.LikedByMe = liked
	return post, nil
}

func (s *postService) ListPosts(req ListPostsRequest, viewerID string, limit, offset int) ([]*model.Post, int64, error) {
	filter := repository.PostFilter{
		BoardID:  req.BoardID,
		Query:    strings.TrimSpace(req.Query),
		Order:    req.Order,
		WriterID: req.WriterID,
	}
	if filter.Order == "" {
		filter.Order = repository.OrderLatest
	}

	posts, total, err := s.postRepo.List(filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.markLiked(viewerID, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *postService) markLiked(viewerID string, posts []*model.Post) error {
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	liked, err := s.likeRepo.FindUserLikedTargets(viewerID, model.TargetTypePost, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.LikedByMe = liked[p.ID]
	}
	return nil
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID string, req UpdatePostRequest, uploads []storage.Upload) (*model.Post, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, storeError(err, "post")
	}
	if !post.IsWrittenBy(userID) {
		return nil, authorizationError("only the writer can edit this post")
	}
	board, err := s.GetBoard(post.BoardID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if model.Blank(*req.Title) {
			return nil, validationError("title must not be blank")
		}
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if model.Blank(*req.Content) {
			return nil, validationError("content must not be blank")
		}
		post.Content = *req.Content
	}

	var hashtags []string
	if req.Hashtags != nil {
		hashtags = repository.HashtagNames(*req.Hashtags)
	}
	if err := requirePostFeatures(board, hashtags, uploads); err != nil {
		return nil, err
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixPosts, uploads)
	if err != nil {
		return nil, err
	}

	upd := repository.PostUpdate{
		Hashtags:        hashtags,
		ReplaceHashtags: req.Hashtags != nil,
		Photos:          postPhotos(photos),
		ReplacePhotos:   req.ReplacePhotos || len(uploads) > 0,
	}
	removed, err := s.postRepo.Update(post, upd)
	if err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "post")
	}

	keys := make([]string, 0, len(removed))
	for _, p := range removed {
		keys = append(keys, p.Key)
	}
	removeBlobs(s.blobs, keys)

	return s.postRepo.FindByID(post.ID)
}

// DeletePost removes the post with its comments and photos.
func (s *postService) DeletePost(userID, postID string) error {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return storeError(err, "post")
	}
	if !post.IsWrittenBy(userID) {
		return authorizationError("only the writer can delete this post")
	}

	keys, err := s.postRepo.Delete(postID)
	if err != nil {
		return storeError(err, "post")
	}
	removeBlobs(s.blobs, keys)
	return nil
}

// Report files one report per user per post or comment.
func (s *postService) Report(userID string, req ReportRequest) (*model.Report, error) {
	if !slices.Contains(model.ReportCategories, req.Category) {
		return nil, validationError("unknown report category %q", req.Category)
	}

	switch req.TargetType {
	case model.TargetTypePost:
		if _, err := s.postRepo.FindByID(req.TargetID); err != nil {
			return nil, storeError(err, "post")
		}
	case model.TargetTypePostComment:
		if _, err := s.commentRepo.FindByID(req.TargetID); err != nil {
			return nil, storeError(err, "comment")
		}
	default:
		return nil, validationError("cannot report a %s", req.TargetType)
	}

	report := &model.Report{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		ReporterID: userID,
		Category:   req.Category,
	}
	if err := s.reportRepo.Create(report); err != nil {
		return nil, storeError(err, "report")
	}
	return report, nil
}

// requirePostFeatures gates hashtags and photos on the board. Empty lists
// never need a capability; hashtags arrive already normalised.
func requirePostFeatures(board *model.Board, hashtags []string, uploads []storage.Upload) error {
	if len(hashtags) > 0 {
		if err := board.Require(model.CapabilityHashtags); err != nil {
			return err
		}
	}
	if len(uploads) > 0 {
		if err := board.Require(model.CapabilityPostPhotos); err != nil {
			return err
		}
	}
	return nil
}

func postPhotos(photos []model.Photo) []model.PostPhoto {
	rows := make([]model.PostPhoto, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, model.PostPhoto{Photo: p})
	}
	return rows
}
