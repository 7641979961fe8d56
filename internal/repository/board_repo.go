package repository

import (
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"gorm.io/gorm"
)

type BoardRepository interface {
	Create(board *model.Board) error
	FindByID(id string) (*model.Board, error)
	FindAll() ([]*model.Board, error)
}

type boardRepository struct {
	db    *gorm.DB
	cache *util.LocalCache[string, model.Board]
}

const (
	boardCacheSize = 128
	boardCacheTTL  = 5 * time.Minute
)

func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{
		db:    db,
		cache: util.NewLocalCache[string, model.Board](boardCacheSize, boardCacheTTL),
	}
}

func (r *boardRepository) Create(board *model.Board) error {
	if err := r.db.Create(board).Error; err != nil {
		return err
	}
	r.cache.Set(board.ID, *board)
	return nil
}

// FindByID is hit on every post and comment write, so boards are kept in
// a process-local cache.
func (r *boardRepository) FindByID(id string) (*model.Board, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	if b, ok := r.cache.Get(id); ok {
		return &b, nil
	}

	var board model.Board
	if err := r.db.Where("id = ?", id).First(&board).Error; err != nil {
		return nil, err
	}
	r.cache.Set(board.ID, board)
	return &board, nil
}

func (r *boardRepository) FindAll() ([]*model.Board, error) {
	var boards []*model.Board
	err := r.db.Order("name ASC").Find(&boards).Error
	return boards, err
}
