package repository

import (
	"context"
	"time"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"gorm.io/gorm"
)

// TreeRepository mutates trees through conditional updates: every write that
// depends on prior state carries that state in its WHERE clause and reports
// rows affected, so racing writers cannot both win.
type TreeRepository interface {
	Create(ctx context.Context, t *model.Tree) error
	FindByID(ctx context.Context, id uint64) (*model.Tree, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Tree, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]model.Tree, error)
	MarkWatered(ctx context.Context, id uint64) (int64, error)
	MarkFertilized(ctx context.Context, id uint64) (int64, error)
	AdvancePhase(ctx context.Context, id uint64, from, to model.TreePhase, now time.Time) (int64, error)
	ApplyDecay(ctx context.Context, id uint64, seenPlantedOn time.Time, health int, phase model.TreePhase, now time.Time) (int64, error)
	SetKilled(ctx context.Context, id uint64, reason string) (int64, error)
	MarkNotified(ctx context.Context, id uint64) error
	SetDevice(ctx context.Context, id uint64, deviceID *string) error
	DeleteClaimed(ctx context.Context, id uint64) (int64, error)
	Delete(ctx context.Context, id uint64) error
}

type treeRepository struct {
	db *gorm.DB
}

func NewTreeRepository(db *gorm.DB) TreeRepository {
	return &treeRepository{db: db}
}

func (r *treeRepository) Create(ctx context.Context, t *model.Tree) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *treeRepository) FindByID(ctx context.Context, id uint64) (*model.Tree, error) {
	var t model.Tree
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *treeRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Tree, error) {
	var list []model.Tree
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *treeRepository) ListByFarmer(ctx context.Context, farmerID string) ([]model.Tree, error) {
	var list []model.Tree
	if err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *treeRepository) MarkWatered(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ? AND watered = ? AND phase <> ?", id, false, model.PhaseDead).
		Update("watered", true)
	return res.RowsAffected, res.Error
}

func (r *treeRepository) MarkFertilized(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ? AND fertilized = ? AND phase <> ?", id, false, model.PhaseDead).
		Update("fertilized", true)
	return res.RowsAffected, res.Error
}

func (r *treeRepository) AdvancePhase(ctx context.Context, id uint64, from, to model.TreePhase, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ? AND phase = ? AND watered = ? AND fertilized = ?", id, from, true, true).
		Updates(map[string]interface{}{
			"phase":      to,
			"watered":    false,
			"fertilized": false,
			"planted_on": now,
		})
	return res.RowsAffected, res.Error
}

func (r *treeRepository) ApplyDecay(ctx context.Context, id uint64, seenPlantedOn time.Time, health int, phase model.TreePhase, now time.Time) (int64, error) {
	updates := map[string]interface{}{
		"health":     health,
		"phase":      phase,
		"planted_on": now,
	}
	// A dead tree no longer occupies its slot; drop the reference together
	// with the phase change so no later operation can release the device
	// after it has been reassigned.
	if phase == model.PhaseDead {
		updates["device_id"] = nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ? AND planted_on = ? AND phase <> ?", id, seenPlantedOn, model.PhaseDead).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *treeRepository) SetKilled(ctx context.Context, id uint64, reason string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ? AND phase <> ?", id, model.PhaseDead).
		Updates(map[string]interface{}{
			"phase":       model.PhaseDead,
			"kill_reason": reason,
			"notified":    false,
			"device_id":   nil,
		})
	return res.RowsAffected, res.Error
}

func (r *treeRepository) MarkNotified(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ?", id).
		Update("notified", true).Error
}

func (r *treeRepository) SetDevice(ctx context.Context, id uint64, deviceID *string) error {
	return r.db.WithContext(ctx).
		Model(&model.Tree{}).
		Where("id = ?", id).
		Update("device_id", deviceID).Error
}

func (r *treeRepository) DeleteClaimed(ctx context.Context, id uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND phase = ? AND watered = ? AND fertilized = ?", id, model.PhaseMatureTree, true, true).
		Delete(&model.Tree{})
	return res.RowsAffected, res.Error
}

func (r *treeRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.Tree{}, id).Error
}
