package repository

import (
	"fmt"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostFilter struct {
	BoardID  string
	Query    string
	Order    string
	WriterID string
	// LikedBy keeps posts liked by this user.
	LikedBy string
}

// PostUpdate describes the child rows replaced together with a post.
// A nil slice with Replace* false leaves that set untouched.
type PostUpdate struct {
	Hashtags        []string
	ReplaceHashtags bool
	Photos          []model.PostPhoto
	ReplacePhotos   bool
}

type PostRepository interface {
	Create(post *model.Post, hashtags []string, photos []model.PostPhoto) error
	FindByID(id string) (*model.Post, error)
	Update(post *model.Post, upd PostUpdate) (removed []model.PostPhoto, err error)
	Delete(id string) (blobKeys []string, err error)
	List(filter PostFilter, limit, offset int) ([]*model.Post, int64, error)
	CountByWriter(userID string) (int64, error)
	UpdateEngagementScore(postID string)
}

type postRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	postCachePrefix         = "post:"
	postHotSortedSetKey     = "post:engagement:sorted"
	postCacheExpiration     = 15 * time.Minute
	postCommentCountSQL     = "(SELECT COUNT(*) FROM post_comments pc WHERE pc.post_id = posts.id)"
	postEngagementScoreExpr = "posts.like_count * 2 + " + postCommentCountSQL + " * 3 + posts.view_count"
)

func NewPostRepository(db *gorm.DB, redis *util.RedisClient) PostRepository {
	return &postRepository{
		db:    db,
		redis: redis,
	}
}

// Create inserts the post with its hashtags and photos in one transaction.
func (r *postRepository) Create(post *model.Post, hashtags []string, photos []model.PostPhoto) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := replacePostHashtags(tx, post.ID, hashtags); err != nil {
			return err
		}
		return insertPostPhotos(tx, post.ID, photos)
	})
	if err != nil {
		return err
	}

	r.redis.ZAdd(postHotSortedSetKey, 0, post.ID)
	return nil
}

// FindByID loads a post with its board, writer, hashtags, photos and comment count.
func (r *postRepository) FindByID(id string) (*model.Post, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var post model.Post
	if r.redis.GetJSON(postCachePrefix+id, &post) {
		return &post, nil
	}

	err := r.db.Model(&model.Post{}).
		Select("posts.*, "+postCommentCountSQL+" AS comment_count").
		Preload("Board").
		Preload("Writer").
		Preload("Hashtags", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, err
	}

	r.redis.Set(postCachePrefix+id, &post, postCacheExpiration)
	return &post, nil
}

// Update saves title/content and replaces hashtags/photos as requested.
// Photos that were replaced are returned so their blobs can be removed.
func (r *postRepository) Update(post *model.Post, upd PostUpdate) ([]model.PostPhoto, error) {
	var removed []model.PostPhoto

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Select("title", "content", "updated_at").Updates(post).Error; err != nil {
			return err
		}
		if upd.ReplaceHashtags {
			if err := replacePostHashtags(tx, post.ID, upd.Hashtags); err != nil {
				return err
			}
		}
		if upd.ReplacePhotos {
			if err := tx.Where("post_id = ?", post.ID).Find(&removed).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", post.ID).Delete(&model.PostPhoto{}).Error; err != nil {
				return err
			}
			if err := insertPostPhotos(tx, post.ID, upd.Photos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidatePost(post.ID)
	return removed, nil
}

// Delete removes the post. Hashtags, photos, comments and comment photos go
// with it through ON DELETE CASCADE; their blob keys are returned. Likes and
// reports on the post and its comments are removed in the same transaction.
func (r *postRepository) Delete(id string) ([]string, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var keys []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var photoKeys, commentPhotoKeys, commentIDs []string
		if err := tx.Model(&model.PostPhoto{}).Where("post_id = ?", id).Pluck("key", &photoKeys).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.PostCommentPhoto{}).
			Joins("JOIN post_comments ON post_comments.id = post_comment_photos.comment_id").
			Where("post_comments.post_id = ?", id).
			Pluck("post_comment_photos.key", &commentPhotoKeys).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.PostComment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := deleteTargetRows(tx, model.TargetTypePost, []string{id}); err != nil {
			return err
		}
		if err := deleteTargetRows(tx, model.TargetTypePostComment, commentIDs); err != nil {
			return err
		}

		keys = append(photoKeys, commentPhotoKeys...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidatePost(id)
	r.redis.ZRem(postHotSortedSetKey, id)
	return keys, nil
}

// List filters by board, writer and a substring/hashtag query.
// Orders: latest (default), likes, hot.
func (r *postRepository) List(filter PostFilter, limit, offset int) ([]*model.Post, int64, error) {
	if !validFilterIDs(filter.BoardID, filter.WriterID, filter.LikedBy) {
		return []*model.Post{}, 0, nil
	}
	query := r.db.Model(&model.Post{})
	if filter.BoardID != "" {
		query = query.Where("posts.board_id = ?", filter.BoardID)
	}
	if filter.WriterID != "" {
		query = query.Where("posts.writer_id = ?", filter.WriterID)
	}
	if filter.LikedBy != "" {
		query = query.Where(likedByClause("posts", model.TargetTypePost), filter.LikedBy)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where(
			"posts.title ILIKE ? OR posts.content ILIKE ? OR EXISTS (SELECT 1 FROM post_hashtags ph WHERE ph.post_id = posts.id AND ph.name = ?)",
			pattern, pattern, hashtagName(filter.Query),
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Unfiltered hot pages come from the Redis sorted set when it is populated.
	if filter.Order == OrderHot && filter.BoardID == "" && filter.WriterID == "" && filter.LikedBy == "" && filter.Query == "" {
		if posts, ok := r.listHotFromCache(total, limit, offset); ok {
			return posts, total, nil
		}
	}

	switch filter.Order {
	case OrderHot:
		query = query.Order(postEngagementScoreExpr + " DESC").Order("posts.id DESC")
	case OrderLikes:
		query = query.Order("posts.like_count DESC").Order("posts.id DESC")
	default:
		query = query.Order("posts.id DESC")
	}

	var posts []*model.Post
	err := query.
		Select("posts.*, " + postCommentCountSQL + " AS comment_count").
		Preload("Writer").
		Preload("Hashtags").
		Preload("Photos").
		Scopes(paginate(limit, offset)).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) listHotFromCache(total int64, limit, offset int) ([]*model.Post, bool) {
	// The set is only trusted when it tracks every post.
	if card, err := r.redis.ZCard(postHotSortedSetKey); err != nil || card != total {
		return nil, false
	}

	ids, err := r.redis.ZRevRange(postHotSortedSetKey, int64(offset), int64(offset+limit-1))
	if err != nil || len(ids) == 0 {
		return nil, false
	}

	var posts []*model.Post
	err = r.db.Model(&model.Post{}).
		Select("posts.*, "+postCommentCountSQL+" AS comment_count").
		Preload("Writer").
		Preload("Hashtags").
		Preload("Photos").
		Where("posts.id IN ?", ids).
		Find(&posts).Error
	if err != nil || len(posts) != len(ids) {
		return nil, false
	}

	byID := make(map[string]*model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered, true
}

func (r *postRepository) CountByWriter(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Post{}).Where("writer_id = ?", userID).Count(&count).Error
	return count, err
}

// UpdateEngagementScore recomputes the hot score of a post in Redis and drops
// its cached detail. Called after likes, views and comments change.
func (r *postRepository) UpdateEngagementScore(postID string) {
	r.invalidatePost(postID)
	if r.redis == nil {
		return
	}

	var score float64
	err := r.db.Model(&model.Post{}).
		Select(postEngagementScoreExpr).
		Where("posts.id = ?", postID).
		Scan(&score).Error
	if err != nil {
		return
	}

	// Ties break towards newer posts.
	tieBreak := float64(time.Now().Unix()) / 1e10
	r.redis.ZAdd(postHotSortedSetKey, score+tieBreak, postID)
}

func (r *postRepository) invalidatePost(id string) {
	r.redis.Delete(postCachePrefix + id)
}

func replacePostHashtags(tx *gorm.DB, postID string, names []string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&model.PostHashtag{}).Error; err != nil {
		return err
	}
	names = HashtagNames(names)
	if len(names) == 0 {
		return nil
	}
	tags := make([]model.PostHashtag, 0, len(names))
	for _, n := range names {
		tags = append(tags, model.PostHashtag{PostID: postID, Name: n})
	}
	return tx.Create(&tags).Error
}

func insertPostPhotos(tx *gorm.DB, postID string, photos []model.PostPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	for i := range photos {
		photos[i].PostID = postID
	}
	if err := tx.Create(&photos).Error; err != nil {
		return fmt.Errorf("insert post photos: %w", err)
	}
	return nil
}
