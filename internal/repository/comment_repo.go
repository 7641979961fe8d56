package repository

import (
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository interface {
	Create(comment *model.PostComment, photos []model.PostCommentPhoto) error
	FindByID(id string) (*model.PostComment, error)
	Update(comment *model.PostComment) error
	Delete(id string) (blobKeys []string, err error)
	ListByPost(postID string, limit, offset int) ([]*model.PostComment, int64, error)
	ListByWriter(userID string, limit, offset int) ([]*model.PostComment, int64, error)
}

type commentRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	commentListCachePrefix = "comment:post:"
	commentCacheExpiration = 5 * time.Minute

	// threadGroupSQL keys a parent (or an orphaned reply) on its own id and a
	// reply on its parent's id.
	threadGroupSQL = "CASE WHEN post_comments.is_parent OR post_comments.parent_id IS NULL " +
		"THEN post_comments.id ELSE post_comments.parent_id END"
)

func NewCommentRepository(db *gorm.DB, redis *util.RedisClient) CommentRepository {
	return &commentRepository{
		db:    db,
		redis: redis,
	}
}

type commentPage struct {
	Comments []*model.PostComment `json:"comments"`
	Total    int64                `json:"total"`
}

// Create inserts the comment and its photos in one transaction.
func (r *commentRepository) Create(comment *model.PostComment, photos []model.PostCommentPhoto) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		if len(photos) == 0 {
			return nil
		}
		for i := range photos {
			photos[i].CommentID = comment.ID
		}
		if err := tx.Create(&photos).Error; err != nil {
			return err
		}
		comment.Photos = photos
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidatePostCache(comment.PostID)
	return nil
}

func (r *commentRepository) FindByID(id string) (*model.PostComment, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var comment model.PostComment
	err := r.db.Preload("Writer").Preload("Mention").Preload("Photos").
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update writes content and mention only.
func (r *commentRepository) Update(comment *model.PostComment) error {
	err := r.db.Model(comment).
		Select("content", "mention_id", "updated_at").
		Updates(comment).Error
	if err != nil {
		return err
	}

	r.invalidatePostCache(comment.PostID)
	return nil
}

// Delete hard-deletes the comment row. Replies are not touched here: the
// parent_id foreign key is ON DELETE SET NULL, so the database orphans them.
// Photo rows cascade; their blob keys are returned.
func (r *commentRepository) Delete(id string) ([]string, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var (
		keys   []string
		postID string
	)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&model.PostComment{}).Where("id = ?", id).Pluck("post_id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) == 0 {
			return gorm.ErrRecordNotFound
		}
		postID = postIDs[0]
		if err := tx.Model(&model.PostCommentPhoto{}).Where("comment_id = ?", id).Pluck("key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.PostComment{}).Error; err != nil {
			return err
		}
		return deleteTargetRows(tx, model.TargetTypePostComment, []string{id})
	})
	if err != nil {
		return nil, err
	}

	r.invalidatePostCache(postID)
	return keys, nil
}

// ListByPost returns the comments of a post decorated with their thread
// group and ordered by (group, id): every parent is followed by its replies
// in creation order.
func (r *commentRepository) ListByPost(postID string, limit, offset int) ([]*model.PostComment, int64, error) {
	if !validID(postID) {
		return []*model.PostComment{}, 0, nil
	}
	cacheKey := commentListCachePrefix + postID + ":" + itoa(limit) + ":" + itoa(offset)
	var cached commentPage
	if r.redis.GetJSON(cacheKey, &cached) {
		return cached.Comments, cached.Total, nil
	}

	var total int64
	if err := r.db.Model(&model.PostComment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*model.PostComment
	err := r.db.Model(&model.PostComment{}).
		Select("post_comments.*, "+threadGroupSQL+" AS thread_group").
		Preload("Writer").
		Preload("Mention").
		Preload("Photos").
		Where("post_comments.post_id = ?", postID).
		Order("thread_group ASC").
		Order("post_comments.id ASC").
		Scopes(paginate(limit, offset)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	r.redis.Set(cacheKey, commentPage{Comments: comments, Total: total}, commentCacheExpiration)
	return comments, total, nil
}

func (r *commentRepository) ListByWriter(userID string, limit, offset int) ([]*model.PostComment, int64, error) {
	if !validID(userID) {
		return []*model.PostComment{}, 0, nil
	}
	query := r.db.Model(&model.PostComment{}).Where("writer_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*model.PostComment
	err := query.Preload("Photos").
		Order("id DESC").
		Scopes(paginate(limit, offset)).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) invalidatePostCache(postID string) {
	r.redis.DeletePattern(commentListCachePrefix + postID + ":*")
}
