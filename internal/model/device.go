package model

import "time"

type DeviceStatus string

const (
	DeviceActive DeviceStatus = "Active"
	DeviceFaulty DeviceStatus = "Faulty"
)

// Device is a farmer-owned sensor slot. AssignedUser is the customer whose
// tree currently occupies it; nil means the slot is free.
type Device struct {
	ID           string       `gorm:"primaryKey;size:64"`
	FarmerID     string       `gorm:"column:farmer_id;size:128;index;not null"`
	Status       DeviceStatus `gorm:"size:16;not null"`
	AssignedUser *string      `gorm:"column:assigned_user;size:128"`
	CreatedAt    time.Time    `gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime"`
}

func (Device) TableName() string {
	return "iot_devices"
}

// DeviceFailure logs one failure event for a device.
type DeviceFailure struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	DeviceID    string    `gorm:"column:device_id;size:64;index;not null"`
	FailureType string    `gorm:"column:failure_type;size:64;not null"`
	Status      string    `gorm:"size:32;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (DeviceFailure) TableName() string {
	return "device_failures"
}
