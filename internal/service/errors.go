package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoAvailableDevice = errors.New("no available device")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrAlreadyDone       = errors.New("already done")
	ErrNotReady          = errors.New("not ready")
	ErrInvalidPhase      = errors.New("invalid phase transition")
	ErrOutOfStock        = errors.New("out of stock")
)
