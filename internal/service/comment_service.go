package service

import (
	"context"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
)

type CommentService interface {
	CreateComment(ctx context.Context, userID string, req CreateCommentRequest, photos []storage.Upload) (*model.PostComment, error)
	GetCommentByID(commentID string) (*model.PostComment, error)
	GetCommentsByPostID(postID, viewerID string, limit, offset int) ([]*model.PostComment, int64, error)
	UpdateComment(userID, commentID string, req UpdateCommentRequest) (*model.PostComment, error)
	DeleteComment(userID, commentID string) error
}

type commentService struct {
	commentRepo         repository.CommentRepository
	userRepo            repository.UserRepository
	postRepo            repository.PostRepository
	boardRepo           repository.BoardRepository
	likeRepo            repository.LikeRepository
	blobs               storage.BlobStore
	notificationService NotificationService
	async               goAsync
}

type CreateCommentRequest struct {
	PostID   string  `json:"post_id" form:"post_id" binding:"required"`
	IsParent bool    `json:"is_parent" form:"is_parent"`
	ParentID *string `json:"parent_id,omitempty" form:"parent_id"`
	Content  string  `json:"content" form:"content" binding:"required"`
	// Mention is the email (or id) of a user to mention.
	Mention string `json:"mention,omitempty" form:"mention"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
	// Mention replaces the mentioned user; empty clears it.
	Mention string `json:"mention,omitempty"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	boardRepo repository.BoardRepository,
	likeRepo repository.LikeRepository,
	blobs storage.BlobStore,
	notificationService NotificationService,
) CommentService {
	return &commentService{
		commentRepo:         commentRepo,
		userRepo:            userRepo,
		postRepo:            postRepo,
		boardRepo:           boardRepo,
		likeRepo:            likeRepo,
		blobs:               blobs,
		notificationService: notificationService,
		async:               runInBackground,
	}
}

// CreateComment validates the thread shape and persists the comment with its
// photos. Replies only attach to parent comments of the same post.
func (s *commentService) CreateComment(ctx context.Context, userID string, req CreateCommentRequest, uploads []storage.Upload) (*model.PostComment, error) {
	post, err := s.postRepo.FindByID(req.PostID)
	if err != nil {
		return nil, storeError(err, "post")
	}
	board, err := s.boardRepo.FindByID(post.BoardID)
	if err != nil {
		return nil, storeError(err, "board")
	}
	if err := board.Require(model.CapabilityComments); err != nil {
		return nil, err
	}
	if model.Blank(req.Content) {
		return nil, validationError("content must not be blank")
	}

	parentID := ""
	if req.ParentID != nil {
		parentID = strings.TrimSpace(*req.ParentID)
	}

	var parent *model.PostComment
	switch {
	case req.IsParent && parentID != "":
		return nil, validationError("a parent comment cannot have a parent")
	case !req.IsParent && parentID == "":
		return nil, validationError("a reply needs a parent comment")
	case !req.IsParent:
		parent, err = s.commentRepo.FindByID(parentID)
		if err != nil {
			return nil, storeError(err, "parent comment")
		}
		if parent.PostID != post.ID {
			return nil, validationError("parent comment belongs to another post")
		}
		if !parent.IsParent {
			return nil, validationError("cannot reply to a reply")
		}
	}

	var mention *model.User
	if strings.TrimSpace(req.Mention) != "" {
		if mention, err = resolveUser(s.userRepo, req.Mention); err != nil {
			return nil, err
		}
	}

	if len(uploads) > 0 {
		if err := board.Require(model.CapabilityCommentPhotos); err != nil {
			return nil, err
		}
	}

	comment := &model.PostComment{
		PostID:   post.ID,
		Content:  strings.TrimSpace(req.Content),
		IsParent: req.IsParent,
		WriterID: &userID,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if mention != nil {
		comment.MentionID = &mention.ID
	}

	photos, stored, err := uploadPhotos(ctx, s.blobs, blobPrefixComments, uploads)
	if err != nil {
		return nil, err
	}
	rows := make([]model.PostCommentPhoto, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, model.PostCommentPhoto{Photo: p})
	}

	if err := s.commentRepo.Create(comment, rows); err != nil {
		discardUploads(s.blobs, stored)
		return nil, storeError(err, "comment")
	}

	s.postRepo.UpdateEngagementScore(post.ID)
	s.notify(userID, comment, parent, mention)

	return s.commentRepo.FindByID(comment.ID)
}

// notify tells the parent's writer about a reply and the mentioned user about
// a mention. Nobody is notified about their own comment.
func (s *commentService) notify(userID string, comment *model.PostComment, parent *model.PostComment, mention *model.User) {
	if s.notificationService == nil {
		return
	}

	replyTo := ""
	if parent != nil && parent.WriterID != nil && *parent.WriterID != userID {
		replyTo = *parent.WriterID
	}
	mentioned := ""
	if mention != nil && mention.ID != userID && mention.ID != replyTo {
		mentioned = mention.ID
	}
	if replyTo == "" && mentioned == "" {
		return
	}

	sender, err := s.userRepo.FindByID(userID)
	if err != nil {
		logBackground("load comment writer for notification", err)
		return
	}

	s.async(func() {
		if replyTo != "" {
			logBackground("send comment reply notification",
				s.notificationService.SendCommentReplyNotification(replyTo, sender, comment))
		}
		if mentioned != "" {
			logBackground("send comment mention notification",
				s.notificationService.SendCommentMentionNotification(mentioned, sender, comment))
		}
	})
}

func (s *commentService) GetCommentByID(commentID string) (*model.PostComment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, storeError(err, "comment")
	}
	return comment, nil
}

// GetCommentsByPostID lists a post's comments grouped by thread.
func (s *commentService) GetCommentsByPostID(postID, viewerID string, limit, offset int) ([]*model.PostComment, int64, error) {
	if _, err := s.postRepo.FindByID(postID); err != nil {
		return nil, 0, storeError(err, "post")
	}

	comments, total, err := s.commentRepo.ListByPost(postID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if viewerID != "" && len(comments) > 0 {
		ids := make([]string, 0, len(comments))
		for _, c := range comments {
			ids = append(ids, c.ID)
		}
		liked, err := s.likeRepo.FindUserLikedTargets(viewerID, model.TargetTypePostComment, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, c := range comments {
			c.LikedByMe = liked[c.ID]
		}
	}
	return comments, total, nil
}

func (s *commentService) UpdateComment(userID, commentID string, req UpdateCommentRequest) (*model.PostComment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, storeError(err, "comment")
	}
	if !comment.IsWrittenBy(userID) {
		return nil, authorizationError("only the writer can edit this comment")
	}
	if model.Blank(req.Content) {
		return nil, validationError("content must not be blank")
	}

	comment.Content = strings.TrimSpace(req.Content)
	comment.MentionID = nil
	comment.Mention = nil
	if strings.TrimSpace(req.Mention) != "" {
		mention, err := resolveUser(s.userRepo, req.Mention)
		if err != nil {
			return nil, err
		}
		comment.MentionID = &mention.ID
	}

	if err := s.commentRepo.Update(comment); err != nil {
		return nil, storeError(err, "comment")
	}
	return s.commentRepo.FindByID(comment.ID)
}

// DeleteComment removes the comment row. Its replies stay and lose their
// parent through the foreign key.
func (s *commentService) DeleteComment(userID, commentID string) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return storeError(err, "comment")
	}
	if !comment.IsWrittenBy(userID) {
		return authorizationError("only the writer can delete this comment")
	}

	keys, err := s.commentRepo.Delete(commentID)
	if err != nil {
		return storeError(err, "comment")
	}

	removeBlobs(s.blobs, keys)
	s.postRepo.UpdateEngagementScore(comment.PostID)
	return nil
}
