package service

import (
	"context"
	"errors"

	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"gorm.io/gorm"
)

type CatalogService interface {
	List(ctx context.Context) ([]model.TreeType, error)
	Get(ctx context.Context, id string) (*model.TreeType, error)
}

type catalogService struct {
	repos repository.Repos
}

func NewCatalogService(repos repository.Repos) CatalogService {
	return &catalogService{repos: repos}
}

func (s *catalogService) List(ctx context.Context) ([]model.TreeType, error) {
	return s.repos.TreeTypes.List(ctx)
}

func (s *catalogService) Get(ctx context.Context, id string) (*model.TreeType, error) {
	tt, err := s.repos.TreeTypes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tt, nil
}
