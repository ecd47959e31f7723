package service

import (
	"time"

	"github.com/greenbasket/plantfuture-backend/internal/config"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/shopspring/decimal"
)

// GrowthConfig holds the tuning constants of the tree lifecycle.
type GrowthConfig struct {
	PhaseDuration    time.Duration
	WaterCost        decimal.Decimal
	FertilizeCost    decimal.Decimal
	PointsRate       int64
	PayoutMultiplier int64
	InitialHealth    int
	SignupPoints     int64
}

func GrowthFromConfig(cfg *config.Config) GrowthConfig {
	return GrowthConfig{
		PhaseDuration:    cfg.PhaseDuration,
		WaterCost:        decimal.NewFromFloat(cfg.WaterCost),
		FertilizeCost:    decimal.NewFromFloat(cfg.FertilizeCost),
		PointsRate:       cfg.PointsConversionRate,
		PayoutMultiplier: cfg.PayoutMultiplier,
		InitialHealth:    cfg.InitialHealth,
		SignupPoints:     cfg.SignupPoints,
	}
}

// PointsPrice converts a currency price into its point-denominated cost.
func PointsPrice(price decimal.Decimal, rate int64) int64 {
	return price.Mul(decimal.NewFromInt(rate)).IntPart()
}

type TickOutcome struct {
	Decayed bool
	Died    bool
	Ready   bool
}

// Tick evaluates elapsed-time effects on a tree in memory. There is no live
// timer anywhere: callers invoke Tick on read paths and persist the result.
// A neglected tree loses one health per elapsed phase period; PlantedOn
// advances to now so the same period cannot be charged twice. A tended tree
// past its deadline is only flagged ready. Dead trees are left untouched.
func Tick(t *model.Tree, now time.Time, phaseDuration time.Duration) TickOutcome {
	if t.Phase == model.PhaseDead {
		return TickOutcome{}
	}
	if now.Sub(t.PlantedOn) < phaseDuration {
		return TickOutcome{}
	}
	if t.Watered && t.Fertilized {
		return TickOutcome{Ready: true}
	}
	out := TickOutcome{Decayed: true}
	t.Health--
	t.PlantedOn = now
	if t.Health <= 0 {
		t.Health = 0
		t.Phase = model.PhaseDead
		out.Died = true
	}
	return out
}
