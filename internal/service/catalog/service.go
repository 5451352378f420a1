package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
)

type Service struct {
	repo repository.CatalogRepository
}

func NewService(repo repository.CatalogRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCategory(ctx context.Context, tenantID uuid.UUID, name string, description *string) (*model.Category, error) {
	category := &model.Category{
		Name:        name,
		Description: description,
	}
	category.TenantID = tenantID
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]*model.Category, error) {
	return s.repo.ListCategories(ctx, tenantID)
}

func (s *Service) CreateCarType(ctx context.Context, tenantID uuid.UUID, name string) (*model.CarType, error) {
	carType := &model.CarType{Name: name}
	carType.TenantID = tenantID
	if err := s.repo.CreateCarType(ctx, carType); err != nil {
		return nil, err
	}
	return carType, nil
}

func (s *Service) ListCarTypes(ctx context.Context, tenantID uuid.UUID) ([]*model.CarType, error) {
	return s.repo.ListCarTypes(ctx, tenantID)
}

func (s *Service) CreateService(ctx context.Context, tenantID uuid.UUID, req *model.CreateServiceRequest) (*model.Service, error) {
	svc := &model.Service{
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	}
	svc.TenantID = tenantID
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) GetService(ctx context.Context, tenantID, id uuid.UUID) (*model.Service, error) {
	return s.repo.GetService(ctx, tenantID, id)
}

func (s *Service) ListServices(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error) {
	return s.repo.ListServices(ctx, tenantID)
}

func (s *Service) UpdateService(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.repo.GetService(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		svc.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = req.Description
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) DeleteService(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteService(ctx, tenantID, id)
}

func (s *Service) CreateServicePrice(ctx context.Context, tenantID, serviceID uuid.UUID, req *model.CreateServicePriceRequest) (*model.ServicePrice, error) {
	// Fail early on an unknown service so the error reads as NOT_FOUND
	// rather than a foreign key violation.
	if _, err := s.repo.GetService(ctx, tenantID, serviceID); err != nil {
		return nil, err
	}

	price := &model.ServicePrice{
		ServiceID:       serviceID,
		CarTypeID:       req.CarTypeID,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	}
	price.TenantID = tenantID
	if err := s.repo.CreateServicePrice(ctx, price); err != nil {
		return nil, err
	}
	return price, nil
}

func (s *Service) ListServicePrices(ctx context.Context, tenantID, serviceID uuid.UUID) ([]*model.ServicePrice, error) {
	return s.repo.ListServicePrices(ctx, tenantID, serviceID)
}
