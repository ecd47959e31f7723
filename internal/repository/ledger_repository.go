package repository

import (
	"context"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Create(ctx context.Context, e *model.LedgerEntry) error
	ListByUser(ctx context.Context, uid string, limit int) ([]model.LedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, e *model.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ledgerRepository) ListByUser(ctx context.Context, uid string, limit int) ([]model.LedgerEntry, error) {
	var list []model.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
