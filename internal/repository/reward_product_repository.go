package repository

import (
	"context"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"gorm.io/gorm"
)

type RewardProductRepository interface {
	Create(ctx context.Context, p *model.RewardProduct) error
	FindByID(ctx context.Context, id uint64) (*model.RewardProduct, error)
	List(ctx context.Context) ([]model.RewardProduct, error)
	// DecrementStock takes qty off the shelf only while enough remains.
	DecrementStock(ctx context.Context, id uint64, qty int) (int64, error)
}

type rewardProductRepository struct {
	db *gorm.DB
}

func NewRewardProductRepository(db *gorm.DB) RewardProductRepository {
	return &rewardProductRepository{db: db}
}

func (r *rewardProductRepository) Create(ctx context.Context, p *model.RewardProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *rewardProductRepository) FindByID(ctx context.Context, id uint64) (*model.RewardProduct, error) {
	var p model.RewardProduct
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *rewardProductRepository) List(ctx context.Context) ([]model.RewardProduct, error) {
	var list []model.RewardProduct
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *rewardProductRepository) DecrementStock(ctx context.Context, id uint64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.RewardProduct{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	return res.RowsAffected, res.Error
}
