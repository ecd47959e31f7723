package model

import "time"

type TreePhase string

const (
	PhaseSeedling    TreePhase = "Seedling"
	PhasePlant       TreePhase = "Plant"
	PhaseGrowingTree TreePhase = "Growing Tree"
	PhaseMatureTree  TreePhase = "Mature Tree"
	PhaseDead        TreePhase = "Dead"
)

// NextPhase returns the successor in the fixed growth sequence. The second
// return is false for Mature Tree (claim territory) and Dead.
func NextPhase(p TreePhase) (TreePhase, bool) {
	switch p {
	case PhaseSeedling:
		return PhasePlant, true
	case PhasePlant:
		return PhaseGrowingTree, true
	case PhaseGrowingTree:
		return PhaseMatureTree, true
	default:
		return p, false
	}
}

// Tree is the single authoritative record of one planted investment.
// PlantedOn marks the start of the current phase; remaining time is always
// derived from it, never stored.
type Tree struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	TypeID     string     `gorm:"column:type_id;size:64;not null"`
	CustomerID string     `gorm:"column:customer_id;size:128;index;not null"`
	FarmerID   string     `gorm:"column:farmer_id;size:128;index;not null"`
	DeviceID   *string    `gorm:"column:device_id;size:64;index"`
	Phase      TreePhase  `gorm:"size:32;not null"`
	Health     int        `gorm:"not null"`
	Watered    bool       `gorm:"not null;default:false"`
	Fertilized bool       `gorm:"not null;default:false"`
	PlantedOn  time.Time  `gorm:"column:planted_on;not null"`
	KillReason string     `gorm:"column:kill_reason;size:255"`
	Notified   bool       `gorm:"not null;default:false"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

func (Tree) TableName() string {
	return "trees"
}

func (t *Tree) Terminal() bool {
	return t.Phase == PhaseDead
}

// TimeRemaining computes the derived countdown for the current phase.
func (t *Tree) TimeRemaining(now time.Time, phaseDuration time.Duration) time.Duration {
	rem := phaseDuration - now.Sub(t.PlantedOn)
	if rem < 0 {
		return 0
	}
	return rem
}
