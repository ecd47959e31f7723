package service

import (
	"context"
	"errors"
	"strings"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeviceService is the registry of farmer-owned IoT slots. Marking a device
// faulty records a failure event but does not move the tree growing on it;
// that is an explicit move on the lifecycle engine.
type DeviceService interface {
	Register(ctx context.Context, farmerID, deviceID string) (*model.Device, error)
	ListMine(ctx context.Context, farmerID string) ([]model.Device, error)
	MarkFaulty(ctx context.Context, farmerID, deviceID, failureType string) (*model.Device, error)
	Failures(ctx context.Context, farmerID, deviceID string) ([]model.DeviceFailure, error)
}

type deviceService struct {
	repos repository.Repos
	txm   repository.TxManager
}

func NewDeviceService(repos repository.Repos, txm repository.TxManager) DeviceService {
	return &deviceService{repos: repos, txm: txm}
}

func (s *deviceService) Register(ctx context.Context, farmerID, deviceID string) (*model.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" || len(deviceID) > 64 {
		return nil, errors.New("invalid device id")
	}
	var out *model.Device
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		if err := requireFarmer(ctx, r, farmerID); err != nil {
			return err
		}
		taken, err := r.Devices.Exists(ctx, deviceID)
		if err != nil {
			return err
		}
		if taken {
			return ErrAlreadyRegistered
		}
		d := &model.Device{
			ID:       deviceID,
			FarmerID: farmerID,
			Status:   model.DeviceActive,
		}
		if err := r.Devices.Create(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err == nil {
		zap.L().Info("device registered", zap.String("device_id", deviceID), zap.String("farmer_id", farmerID))
	}
	return out, err
}

func (s *deviceService) ListMine(ctx context.Context, farmerID string) ([]model.Device, error) {
	return s.repos.Devices.ListByFarmer(ctx, farmerID)
}

func (s *deviceService) MarkFaulty(ctx context.Context, farmerID, deviceID, failureType string) (*model.Device, error) {
	failureType = strings.TrimSpace(failureType)
	if failureType == "" {
		failureType = "unspecified"
	}
	var out *model.Device
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		d, err := r.Devices.Get(ctx, deviceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if d.FarmerID != farmerID {
			return ErrForbidden
		}
		if _, err := r.Devices.SetStatus(ctx, deviceID, model.DeviceFaulty); err != nil {
			return err
		}
		if err := r.Devices.LogFailure(ctx, &model.DeviceFailure{
			DeviceID:    deviceID,
			FailureType: failureType,
			Status:      "Pending",
		}); err != nil {
			return err
		}
		d.Status = model.DeviceFaulty
		out = d
		return nil
	})
	if err == nil {
		zap.L().Warn("device marked faulty",
			zap.String("device_id", deviceID),
			zap.String("failure_type", failureType))
	}
	return out, err
}

func (s *deviceService) Failures(ctx context.Context, farmerID, deviceID string) ([]model.DeviceFailure, error) {
	d, err := s.repos.Devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.FarmerID != farmerID {
		return nil, ErrForbidden
	}
	return s.repos.Devices.ListFailures(ctx, deviceID)
}

func requireFarmer(ctx context.Context, r repository.Repos, uid string) error {
	u, err := r.Users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if u.Role != model.RoleFarmer {
		return ErrForbidden
	}
	return nil
}
