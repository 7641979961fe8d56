package repository

import (
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CurationFilter struct {
	Query    string
	Order    string
	WriterID string
	LikedBy  string
	// ViewerID sees their own unreleased curations in addition to released ones.
	ViewerID     string
	IncludeDraft bool
	SelectedOnly bool
}

type CurationRepository interface {
	Create(curation *model.Curation, maps []model.CurationMap) error
	FindByID(id string) (*model.Curation, error)
	Update(curation *model.Curation, maps []model.CurationMap, replaceMaps bool) error
	Delete(id string) (repPicKey string, err error)
	List(filter CurationFilter, limit, offset int) ([]*model.Curation, int64, error)
}

type curationRepository struct {
	db *gorm.DB
}

func NewCurationRepository(db *gorm.DB) CurationRepository {
	return &curationRepository{db: db}
}

func (r *curationRepository) Create(curation *model.Curation, maps []model.CurationMap) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(curation).Error; err != nil {
			return err
		}
		return insertCurationMaps(tx, curation.ID, maps)
	})
}

func (r *curationRepository) FindByID(id string) (*model.Curation, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var curation model.Curation
	err := r.db.Preload("Writer").
		Preload("Maps", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Maps.Place").
		Where("id = ?", id).
		First(&curation).Error
	if err != nil {
		return nil, err
	}
	return &curation, nil
}

func (r *curationRepository) Update(curation *model.Curation, maps []model.CurationMap, replaceMaps bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(curation).
			Select("title", "contents", "rep_pic_url", "rep_pic_key", "is_released", "updated_at").
			Updates(curation).Error
		if err != nil {
			return err
		}
		if !replaceMaps {
			return nil
		}
		if err := tx.Where("curation_id = ?", curation.ID).Delete(&model.CurationMap{}).Error; err != nil {
			return err
		}
		return insertCurationMaps(tx, curation.ID, maps)
	})
}

func (r *curationRepository) Delete(id string) (string, error) {
	if !validID(id) {
		return "", gorm.ErrRecordNotFound
	}
	var curation model.Curation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "rep_pic_key").Where("id = ?", id).First(&curation).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.Curation{}).Error; err != nil {
			return err
		}
		return deleteTargetRows(tx, model.TargetTypeCuration, []string{id})
	})
	if err != nil {
		return "", err
	}
	return curation.RepPicKey, nil
}

func (r *curationRepository) List(filter CurationFilter, limit, offset int) ([]*model.Curation, int64, error) {
	if !validFilterIDs(filter.ViewerID, filter.WriterID, filter.LikedBy) {
		return []*model.Curation{}, 0, nil
	}
	query := r.db.Model(&model.Curation{})
	switch {
	case filter.IncludeDraft:
	case filter.ViewerID != "":
		query = query.Where("curations.is_released = ? OR curations.writer_id = ?", true, filter.ViewerID)
	default:
		query = query.Where("curations.is_released = ?", true)
	}
	if filter.SelectedOnly {
		query = query.Where("curations.is_selected = ?", true)
	}
	if filter.WriterID != "" {
		query = query.Where("curations.writer_id = ?", filter.WriterID)
	}
	if filter.LikedBy != "" {
		query = query.Where(likedByClause("curations", model.TargetTypeCuration), filter.LikedBy)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where("curations.title ILIKE ? OR curations.contents ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Order == OrderLikes {
		query = query.Order("curations.like_count DESC")
	}

	var curations []*model.Curation
	err := query.Preload("Writer").
		Order("curations.id DESC").
		Scopes(paginate(limit, offset)).
		Find(&curations).Error
	if err != nil {
		return nil, 0, err
	}
	return curations, total, nil
}

func insertCurationMaps(tx *gorm.DB, curationID string, maps []model.CurationMap) error {
	if len(maps) == 0 {
		return nil
	}
	for i := range maps {
		maps[i].CurationID = curationID
		maps[i].Place = nil
	}
	return tx.Create(&maps).Error
}
