package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, uid, name string, role model.UserRole) (*model.User, error)
	Get(ctx context.Context, uid string) (*model.User, error)
}

type userService struct {
	txm   repository.TxManager
	repos repository.Repos
	cfg   GrowthConfig
}

func NewUserService(repos repository.Repos, txm repository.TxManager, cfg GrowthConfig) UserService {
	return &userService{repos: repos, txm: txm, cfg: cfg}
}

func (s *userService) Register(ctx context.Context, uid, name string, role model.UserRole) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 120 {
		return nil, errors.New("invalid name")
	}
	if role != model.RoleCustomer && role != model.RoleFarmer {
		return nil, errors.New("invalid role")
	}
	var out *model.User
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		u := &model.User{
			UID:    uid,
			Name:   name,
			Role:   role,
			Points: s.cfg.SignupPoints,
		}
		// The primary key is the authority here: concurrent first calls
		// race the insert, and the loser gets the duplicate-key error.
		if err := r.Users.Create(ctx, u); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return err
		}
		if s.cfg.SignupPoints > 0 {
			if err := r.Ledger.Create(ctx, &model.LedgerEntry{
				Reference: uuid.NewString(),
				UserID:    uid,
				Unit:      model.UnitPoints,
				Points:    s.cfg.SignupPoints,
				Memo:      "signup bonus",
			}); err != nil {
				return err
			}
		}
		out = u
		return nil
	})
	return out, err
}

func (s *userService) Get(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.repos.Users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
