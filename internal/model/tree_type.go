package model

import "github.com/shopspring/decimal"

// TreeType is static catalog data: what a tree costs to plant and the
// investment value it returns at maturity.
type TreeType struct {
	ID               string          `gorm:"primaryKey;size:64"`
	Name             string          `gorm:"size:120;not null"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	InvestmentReturn decimal.Decimal `gorm:"column:investment_return;type:decimal(12,2);not null"`
}

func (TreeType) TableName() string {
	return "tree_types"
}
