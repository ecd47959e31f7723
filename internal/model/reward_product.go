package model

import "time"

// RewardProduct is a farmer-listed item redeemable with points.
type RewardProduct struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	FarmerID  string    `gorm:"column:farmer_id;size:128;index;not null"`
	Name      string    `gorm:"size:120;not null"`
	Points    int64     `gorm:"not null"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (RewardProduct) TableName() string {
	return "reward_products"
}
