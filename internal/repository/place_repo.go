package repository

import (
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlaceFilter struct {
	Query    string
	Category string
	LikedBy  string
}

type PlaceRepository interface {
	Create(place *model.Place) error
	FindByID(id string) (*model.Place, error)
	FindByIDs(ids []string) ([]*model.Place, error)
	List(filter PlaceFilter, limit, offset int) ([]*model.Place, int64, error)

	CreateReview(review *model.VisitorReview, photos []model.VisitorReviewPhoto) error
	FindReview(id string) (*model.VisitorReview, error)
	UpdateReview(review *model.VisitorReview, photos []model.VisitorReviewPhoto, replacePhotos bool) (removed []model.VisitorReviewPhoto, err error)
	DeleteReview(id string) (blobKeys []string, err error)
	ListReviews(placeID string, limit, offset int) ([]*model.VisitorReview, int64, error)
	ListReviewsByVisitor(userID string, limit, offset int) ([]*model.VisitorReview, int64, error)
}

type placeRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	placeCachePrefix     = "place:"
	placeCacheExpiration = 30 * time.Minute
)

func NewPlaceRepository(db *gorm.DB, redis *util.RedisClient) PlaceRepository {
	return &placeRepository{
		db:    db,
		redis: redis,
	}
}

func (r *placeRepository) Create(place *model.Place) error {
	return r.db.Create(place).Error
}

func (r *placeRepository) FindByID(id string) (*model.Place, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var place model.Place
	if r.redis.GetJSON(placeCachePrefix+id, &place) {
		return &place, nil
	}

	if err := r.db.Where("id = ?", id).First(&place).Error; err != nil {
		return nil, err
	}

	r.redis.Set(placeCachePrefix+id, &place, placeCacheExpiration)
	return &place, nil
}

func (r *placeRepository) FindByIDs(ids []string) ([]*model.Place, error) {
	var places []*model.Place
	if len(ids) == 0 {
		return places, nil
	}
	err := r.db.Where("id IN ?", onlyValidIDs(ids)).Find(&places).Error
	return places, err
}

// List searches name and address; category is an exact match.
func (r *placeRepository) List(filter PlaceFilter, limit, offset int) ([]*model.Place, int64, error) {
	if !validFilterIDs(filter.LikedBy) {
		return []*model.Place{}, 0, nil
	}
	query := r.db.Model(&model.Place{})
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where("places.name ILIKE ? OR places.address ILIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("places.category = ?", filter.Category)
	}
	if filter.LikedBy != "" {
		query = query.Where(likedByClause("places", model.TargetTypePlace), filter.LikedBy)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var places []*model.Place
	err := query.Order("places.name ASC").Order("places.id ASC").Scopes(paginate(limit, offset)).Find(&places).Error
	if err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

func (r *placeRepository) CreateReview(review *model.VisitorReview, photos []model.VisitorReviewPhoto) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			return err
		}
		if err := insertReviewPhotos(tx, review.ID, photos); err != nil {
			return err
		}
		review.Photos = photos
		return nil
	})
}

func (r *placeRepository) FindReview(id string) (*model.VisitorReview, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var review model.VisitorReview
	err := r.db.Preload("Visitor").Preload("Photos").Where("id = ?", id).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *placeRepository) UpdateReview(review *model.VisitorReview, photos []model.VisitorReviewPhoto, replacePhotos bool) ([]model.VisitorReviewPhoto, error) {
	var removed []model.VisitorReviewPhoto

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(review).Select("contents", "tags", "updated_at").Updates(review).Error; err != nil {
			return err
		}
		if !replacePhotos {
			return nil
		}
		if err := tx.Where("review_id = ?", review.ID).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", review.ID).Delete(&model.VisitorReviewPhoto{}).Error; err != nil {
			return err
		}
		if err := insertReviewPhotos(tx, review.ID, photos); err != nil {
			return err
		}
		review.Photos = photos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *placeRepository) DeleteReview(id string) ([]string, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var keys []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.VisitorReviewPhoto{}).Where("review_id = ?", id).Pluck("key", &keys).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.VisitorReview{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *placeRepository) ListReviews(placeID string, limit, offset int) ([]*model.VisitorReview, int64, error) {
	if !validID(placeID) {
		return []*model.VisitorReview{}, 0, nil
	}
	return r.listReviews(r.db.Where("place_id = ?", placeID), limit, offset)
}

func (r *placeRepository) ListReviewsByVisitor(userID string, limit, offset int) ([]*model.VisitorReview, int64, error) {
	if !validID(userID) {
		return []*model.VisitorReview{}, 0, nil
	}
	return r.listReviews(r.db.Where("visitor_id = ?", userID), limit, offset)
}

func (r *placeRepository) listReviews(scope *gorm.DB, limit, offset int) ([]*model.VisitorReview, int64, error) {
	query := r.db.Model(&model.VisitorReview{}).Where(scope)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []*model.VisitorReview
	err := query.Preload("Visitor").Preload("Photos").
		Order("id DESC").
		Scopes(paginate(limit, offset)).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func insertReviewPhotos(tx *gorm.DB, reviewID string, photos []model.VisitorReviewPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	for i := range photos {
		photos[i].ReviewID = reviewID
	}
	return tx.Create(&photos).Error
}
