package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles one repository per aggregate. Composite operations receive a
// Repos bound to a single transaction so tree, device and ledger writes
// commit or roll back together.
type Repos struct {
	Users     UserRepository
	Trees     TreeRepository
	Devices   DeviceRepository
	TreeTypes TreeTypeRepository
	Rewards   RewardProductRepository
	Ledger    LedgerRepository
}

func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Users:     NewUserRepository(db),
		Trees:     NewTreeRepository(db),
		Devices:   NewDeviceRepository(db),
		TreeTypes: NewTreeTypeRepository(db),
		Rewards:   NewRewardProductRepository(db),
		Ledger:    NewLedgerRepository(db),
	}
}

type TxManager interface {
	Do(ctx context.Context, fn func(Repos) error) error
}

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) Do(ctx context.Context, fn func(Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}
