package repository

import (
	"context"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRepository interface {
	Get(ctx context.Context, uid string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	// AddBalance and AddPoints apply a signed delta guarded so the result
	// never goes negative. The returned count is 0 when the guard (or the
	// uid) did not match.
	AddBalance(ctx context.Context, uid string, delta decimal.Decimal) (int64, error)
	AddPoints(ctx context.Context, uid string, delta int64) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) AddBalance(ctx context.Context, uid string, delta decimal.Decimal) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ? AND balance + ? >= 0", uid, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	return res.RowsAffected, res.Error
}

func (r *userRepository) AddPoints(ctx context.Context, uid string, delta int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ? AND points + ? >= 0", uid, delta).
		Update("points", gorm.Expr("points + ?", delta))
	return res.RowsAffected, res.Error
}
