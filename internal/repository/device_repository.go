package repository

import (
	"context"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"gorm.io/gorm"
)

type DeviceRepository interface {
	Create(ctx context.Context, d *model.Device) error
	Get(ctx context.Context, id string) (*model.Device, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListByFarmer(ctx context.Context, farmerID string) ([]model.Device, error)
	// FindFree returns the lowest-id Active unassigned device of the farmer.
	FindFree(ctx context.Context, farmerID string) (*model.Device, error)
	Assign(ctx context.Context, id, customerID string) (int64, error)
	Release(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status model.DeviceStatus) (int64, error)
	LogFailure(ctx context.Context, f *model.DeviceFailure) error
	ListFailures(ctx context.Context, deviceID string) ([]model.DeviceFailure, error)
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Create(ctx context.Context, d *model.Device) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deviceRepository) Get(ctx context.Context, id string) (*model.Device, error) {
	var d model.Device
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deviceRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *deviceRepository) ListByFarmer(ctx context.Context, farmerID string) ([]model.Device, error) {
	var list []model.Device
	if err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *deviceRepository) FindFree(ctx context.Context, farmerID string) (*model.Device, error) {
	var d model.Device
	if err := r.db.WithContext(ctx).
		Where("farmer_id = ? AND status = ? AND assigned_user IS NULL", farmerID, model.DeviceActive).
		Order("id ASC").
		First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deviceRepository) Assign(ctx context.Context, id, customerID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ? AND status = ? AND assigned_user IS NULL", id, model.DeviceActive).
		Update("assigned_user", customerID)
	return res.RowsAffected, res.Error
}

func (r *deviceRepository) Release(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Update("assigned_user", nil).Error
}

func (r *deviceRepository) SetStatus(ctx context.Context, id string, status model.DeviceStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *deviceRepository) LogFailure(ctx context.Context, f *model.DeviceFailure) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *deviceRepository) ListFailures(ctx context.Context, deviceID string) ([]model.DeviceFailure, error) {
	var list []model.DeviceFailure
	if err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
