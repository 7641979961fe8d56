package repository

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ForestFilter struct {
	CategoryID     string
	SemiCategoryID string
	Query          string
	Order          string
	WriterID       string
	LikedBy        string
}

type ForestUpdate struct {
	Hashtags        []string
	ReplaceHashtags bool
	SemiCategories  []model.SemiCategory
	ReplaceSemis    bool
	Photos          []model.ForestPhoto
	ReplacePhotos   bool
}

type ForestRepository interface {
	Create(forest *model.Forest, hashtags []string, photos []model.ForestPhoto) error
	FindByID(id string) (*model.Forest, error)
	Update(forest *model.Forest, upd ForestUpdate) (removed []model.ForestPhoto, err error)
	Delete(id string) (blobKeys []string, err error)
	List(filter ForestFilter, limit, offset int) ([]*model.Forest, int64, error)
	IncrementViewCount(id string) error

	FindCategory(id string) (*model.Category, error)
	ListCategories() ([]*model.Category, error)
	FindSemiCategories(ids []string) ([]model.SemiCategory, error)
	ListSemiCategories(categoryID string) ([]*model.SemiCategory, error)
}

type forestRepository struct {
	db *gorm.DB
}

func NewForestRepository(db *gorm.DB) ForestRepository {
	return &forestRepository{db: db}
}

// Create inserts the forest, its semi-category links, hashtags and photos
// in one transaction.
func (r *forestRepository) Create(forest *model.Forest, hashtags []string, photos []model.ForestPhoto) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		semis := forest.SemiCategories
		if err := tx.Omit(clause.Associations).Create(forest).Error; err != nil {
			return err
		}
		if len(semis) > 0 {
			if err := tx.Model(forest).Association("SemiCategories").Replace(semis); err != nil {
				return err
			}
		}
		if err := replaceForestHashtags(tx, forest.ID, hashtags); err != nil {
			return err
		}
		return insertForestPhotos(tx, forest.ID, photos)
	})
}

func (r *forestRepository) FindByID(id string) (*model.Forest, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var forest model.Forest
	err := r.db.Preload("Category").
		Preload("SemiCategories").
		Preload("Writer").
		Preload("Hashtags").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&forest).Error
	if err != nil {
		return nil, err
	}
	return &forest, nil
}

func (r *forestRepository) Update(forest *model.Forest, upd ForestUpdate) ([]model.ForestPhoto, error) {
	var removed []model.ForestPhoto

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(forest).
			Select("title", "subtitle", "preview", "content", "category_id", "updated_at").
			Updates(forest).Error
		if err != nil {
			return err
		}
		if upd.ReplaceSemis {
			assoc := tx.Model(forest).Association("SemiCategories")
			var err error
			if len(upd.SemiCategories) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(upd.SemiCategories)
			}
			if err != nil {
				return err
			}
		}
		if upd.ReplaceHashtags {
			if err := replaceForestHashtags(tx, forest.ID, upd.Hashtags); err != nil {
				return err
			}
		}
		if upd.ReplacePhotos {
			if err := tx.Where("forest_id = ?", forest.ID).Find(&removed).Error; err != nil {
				return err
			}
			if err := tx.Where("forest_id = ?", forest.ID).Delete(&model.ForestPhoto{}).Error; err != nil {
				return err
			}
			return insertForestPhotos(tx, forest.ID, upd.Photos)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *forestRepository) Delete(id string) ([]string, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var keys []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ForestPhoto{}).Where("forest_id = ?", id).Pluck("key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM forest_semi_category_links WHERE forest_id = ?", id).Error; err != nil {
			return err
		}
		var commentIDs []string
		if err := tx.Model(&model.ForestComment{}).Where("forest_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if err := deleteTargetRows(tx, model.TargetTypeForestComment, commentIDs); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Forest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteTargetRows(tx, model.TargetTypeForest, []string{id})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *forestRepository) List(filter ForestFilter, limit, offset int) ([]*model.Forest, int64, error) {
	if !validFilterIDs(filter.CategoryID, filter.SemiCategoryID, filter.WriterID, filter.LikedBy) {
		return []*model.Forest{}, 0, nil
	}
	query := r.db.Model(&model.Forest{})
	if filter.CategoryID != "" {
		query = query.Where("forests.category_id = ?", filter.CategoryID)
	}
	if filter.SemiCategoryID != "" {
		query = query.Where("EXISTS (SELECT 1 FROM forest_semi_category_links l WHERE l.forest_id = forests.id AND l.semi_category_id = ?)", filter.SemiCategoryID)
	}
	if filter.WriterID != "" {
		query = query.Where("forests.writer_id = ?", filter.WriterID)
	}
	if filter.LikedBy != "" {
		query = query.Where(likedByClause("forests", model.TargetTypeForest), filter.LikedBy)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where(
			"forests.title ILIKE ? OR forests.subtitle ILIKE ? OR forests.content ILIKE ? OR EXISTS (SELECT 1 FROM forest_hashtags fh WHERE fh.forest_id = forests.id AND fh.name = ?)",
			pattern, pattern, pattern, hashtagName(filter.Query),
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Order {
	case OrderLikes, OrderHot:
		query = query.Order("forests.like_count DESC").Order("forests.id DESC")
	default:
		query = query.Order("forests.id DESC")
	}

	var forests []*model.Forest
	err := query.Preload("Category").
		Preload("SemiCategories").
		Preload("Writer").
		Preload("Hashtags").
		Preload("Photos").
		Scopes(paginate(limit, offset)).
		Find(&forests).Error
	if err != nil {
		return nil, 0, err
	}
	return forests, total, nil
}

func (r *forestRepository) IncrementViewCount(id string) error {
	return r.db.Model(&model.Forest{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *forestRepository) FindCategory(id string) (*model.Category, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var category model.Category
	if err := r.db.Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *forestRepository) ListCategories() ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *forestRepository) FindSemiCategories(ids []string) ([]model.SemiCategory, error) {
	var semis []model.SemiCategory
	if len(ids) == 0 {
		return semis, nil
	}
	err := r.db.Where("id IN ?", onlyValidIDs(ids)).Find(&semis).Error
	return semis, err
}

func (r *forestRepository) ListSemiCategories(categoryID string) ([]*model.SemiCategory, error) {
	var semis []*model.SemiCategory
	query := r.db.Order("name ASC")
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	err := query.Find(&semis).Error
	return semis, err
}

func replaceForestHashtags(tx *gorm.DB, forestID string, names []string) error {
	if err := tx.Where("forest_id = ?", forestID).Delete(&model.ForestHashtag{}).Error; err != nil {
		return err
	}
	names = HashtagNames(names)
	if len(names) == 0 {
		return nil
	}
	tags := make([]model.ForestHashtag, 0, len(names))
	for _, n := range names {
		tags = append(tags, model.ForestHashtag{ForestID: forestID, Name: n})
	}
	return tx.Create(&tags).Error
}

func insertForestPhotos(tx *gorm.DB, forestID string, photos []model.ForestPhoto) error {
	if len(photos) == 0 {
		return nil
	}
	for i := range photos {
		photos[i].ForestID = forestID
	}
	return tx.Create(&photos).Error
}
