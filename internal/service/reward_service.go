package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"gorm.io/gorm"
)

type RewardService interface {
	List(ctx context.Context) ([]model.RewardProduct, error)
	Add(ctx context.Context, farmerID, name string, points int64, quantity int) (*model.RewardProduct, error)
	Redeem(ctx context.Context, customerID string, productID uint64, quantity int) (*model.RewardProduct, error)
}

type rewardService struct {
	repos repository.Repos
	txm   repository.TxManager
}

func NewRewardService(repos repository.Repos, txm repository.TxManager) RewardService {
	return &rewardService{repos: repos, txm: txm}
}

func (s *rewardService) List(ctx context.Context) ([]model.RewardProduct, error) {
	return s.repos.Rewards.List(ctx)
}

func (s *rewardService) Add(ctx context.Context, farmerID, name string, points int64, quantity int) (*model.RewardProduct, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 120 {
		return nil, errors.New("invalid name")
	}
	if points <= 0 {
		return nil, errors.New("points must be positive")
	}
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	var out *model.RewardProduct
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		if err := requireFarmer(ctx, r, farmerID); err != nil {
			return err
		}
		p := &model.RewardProduct{
			FarmerID: farmerID,
			Name:     name,
			Points:   points,
			Quantity: quantity,
		}
		if err := r.Rewards.Create(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *rewardService) Redeem(ctx context.Context, customerID string, productID uint64, quantity int) (*model.RewardProduct, error) {
	if quantity <= 0 {
		quantity = 1
	}
	var out *model.RewardProduct
	err := s.txm.Do(ctx, func(r repository.Repos) error {
		p, err := r.Rewards.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if _, err := r.Users.Get(ctx, customerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		rows, err := r.Rewards.DecrementStock(ctx, productID, quantity)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOutOfStock
		}
		cost := p.Points * int64(quantity)
		memo := fmt.Sprintf("redeem %dx %s", quantity, p.Name)
		if err := debitPoints(ctx, r, customerID, cost, memo); err != nil {
			return err
		}
		p.Quantity -= quantity
		out = p
		return nil
	})
	return out, err
}
