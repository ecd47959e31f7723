package repository

import (
	"context"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TreeTypeRepository interface {
	Get(ctx context.Context, id string) (*model.TreeType, error)
	List(ctx context.Context) ([]model.TreeType, error)
	Upsert(ctx context.Context, tt *model.TreeType) error
}

type treeTypeRepository struct {
	db *gorm.DB
}

func NewTreeTypeRepository(db *gorm.DB) TreeTypeRepository {
	return &treeTypeRepository{db: db}
}

func (r *treeTypeRepository) Get(ctx context.Context, id string) (*model.TreeType, error) {
	var tt model.TreeType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tt).Error; err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *treeTypeRepository) List(ctx context.Context) ([]model.TreeType, error) {
	var list []model.TreeType
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *treeTypeRepository) Upsert(ctx context.Context, tt *model.TreeType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(tt).Error
}
