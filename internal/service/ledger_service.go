package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService is the user-facing side of the ledger: wallet reads, top-ups,
// balance-to-points conversion, farmer point grants and history. The engine
// services reuse the same debit/credit helpers inside their own transactions.
type LedgerService interface {
	Wallet(ctx context.Context, uid string) (*model.User, error)
	TopUp(ctx context.Context, uid string, amount decimal.Decimal) (*model.User, error)
	ConvertToPoints(ctx context.Context, uid string, amount decimal.Decimal) (*model.User, error)
	GrantPoints(ctx context.Context, granterUID, uid string, points int64) (*model.User, error)
	History(ctx context.Context, uid string, limit int) ([]model.LedgerEntry, error)
}

type ledgerService struct {
	repos repository.Repos
	txm   repository.TxManager
	cfg   GrowthConfig
}

func NewLedgerService(repos repository.Repos, txm repository.TxManager, cfg GrowthConfig) LedgerService {
	return &ledgerService{repos: repos, txm: txm, cfg: cfg}
}

func (s *ledgerService) Wallet(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.repos.Users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *ledgerService) TopUp(ctx context.Context, uid string, amount decimal.Decimal) (*model.User, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}
	var out *model.User
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		if _, err := r.Users.Get(ctx, uid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := creditBalance(ctx, r, uid, amount, "balance top-up"); err != nil {
			return err
		}
		u, err := r.Users.Get(ctx, uid)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (s *ledgerService) ConvertToPoints(ctx context.Context, uid string, amount decimal.Decimal) (*model.User, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}
	points := PointsPrice(amount, s.cfg.PointsRate)
	var out *model.User
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		if _, err := r.Users.Get(ctx, uid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := debitBalance(ctx, r, uid, amount, "convert to points"); err != nil {
			return err
		}
		if err := creditPoints(ctx, r, uid, points, "convert from balance"); err != nil {
			return err
		}
		u, err := r.Users.Get(ctx, uid)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	if err == nil {
		zap.L().Info("balance converted to points",
			zap.String("uid", uid),
			zap.String("amount", amount.String()),
			zap.Int64("points", points))
	}
	return out, err
}

func (s *ledgerService) GrantPoints(ctx context.Context, granterUID, uid string, points int64) (*model.User, error) {
	if points <= 0 {
		return nil, errors.New("points must be positive")
	}
	var out *model.User
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		granter, err := r.Users.Get(ctx, granterUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if granter.Role != model.RoleFarmer {
			return ErrForbidden
		}
		if _, err := r.Users.Get(ctx, uid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := creditPoints(ctx, r, uid, points, "granted by "+granterUID); err != nil {
			return err
		}
		u, err := r.Users.Get(ctx, uid)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (s *ledgerService) History(ctx context.Context, uid string, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.Ledger.ListByUser(ctx, uid, limit)
}

// Helpers below run inside a caller-owned transaction; each pairs a guarded
// balance mutation with a history entry. Callers must have verified the user
// exists, so a zero row count means the non-negativity guard failed.

func debitBalance(ctx context.Context, r repository.Repos, uid string, amount decimal.Decimal, memo string) error {
	rows, err := r.Users.AddBalance(ctx, uid, amount.Neg())
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientFunds
	}
	return r.Ledger.Create(ctx, &model.LedgerEntry{
		Reference: uuid.NewString(),
		UserID:    uid,
		Unit:      model.UnitBalance,
		Amount:    amount.Neg(),
		Memo:      memo,
	})
}

func creditBalance(ctx context.Context, r repository.Repos, uid string, amount decimal.Decimal, memo string) error {
	rows, err := r.Users.AddBalance(ctx, uid, amount)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return r.Ledger.Create(ctx, &model.LedgerEntry{
		Reference: uuid.NewString(),
		UserID:    uid,
		Unit:      model.UnitBalance,
		Amount:    amount,
		Memo:      memo,
	})
}

func debitPoints(ctx context.Context, r repository.Repos, uid string, points int64, memo string) error {
	rows, err := r.Users.AddPoints(ctx, uid, -points)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientFunds
	}
	return r.Ledger.Create(ctx, &model.LedgerEntry{
		Reference: uuid.NewString(),
		UserID:    uid,
		Unit:      model.UnitPoints,
		Points:    -points,
		Memo:      memo,
	})
}

func creditPoints(ctx context.Context, r repository.Repos, uid string, points int64, memo string) error {
	rows, err := r.Users.AddPoints(ctx, uid, points)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return r.Ledger.Create(ctx, &model.LedgerEntry{
		Reference: uuid.NewString(),
		UserID:    uid,
		Unit:      model.UnitPoints,
		Points:    points,
		Memo:      memo,
	})
}
