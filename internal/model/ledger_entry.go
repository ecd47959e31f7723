package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerUnit string

const (
	UnitBalance LedgerUnit = "balance"
	UnitPoints  LedgerUnit = "points"
)

// LedgerEntry is one line of a user's transaction history. Amount is signed:
// debits are negative, credits positive. Exactly one of Amount/Points is
// non-zero depending on Unit.
type LedgerEntry struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Reference string          `gorm:"size:36;not null"`
	UserID    string          `gorm:"column:user_id;size:128;index;not null"`
	Unit      LedgerUnit      `gorm:"size:16;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Points    int64           `gorm:"not null;default:0"`
	Memo      string          `gorm:"size:255"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
