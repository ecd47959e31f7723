package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleFarmer   UserRole = "farmer"
)

// User carries the two spendable balances: currency (2-decimal) and points.
// Both are kept non-negative by conditional updates in the repository.
type User struct {
	UID       string          `gorm:"column:uid;primaryKey;size:128"`
	Name      string          `gorm:"size:120;not null"`
	Role      UserRole        `gorm:"size:16;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Points    int64           `gorm:"not null;default:0"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
