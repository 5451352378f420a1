package customer

import (
	"context"

	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
)

type Service struct {
	repo repository.CustomerRepository
}

func NewService(repo repository.CustomerRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateCustomerRequest) (*model.Customer, error) {
	customer := &model.Customer{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		IsCorporate: req.IsCorporate,
	}
	customer.TenantID = tenantID

	if req.Car == nil {
		if err := s.repo.Create(ctx, customer); err != nil {
			return nil, err
		}
		return customer, nil
	}

	car := &model.Car{
		Make:        req.Car.Make,
		Model:       req.Car.Model,
		PlateNumber: req.Car.PlateNumber,
		Color:       req.Car.Color,
		Year:        req.Car.Year,
		CarType:     req.Car.CarType,
	}
	car.TenantID = tenantID

	// Customer and first car land in one transaction; a failed car
	// insert must not leave an orphan customer behind.
	if err := s.repo.CreateWithCar(ctx, customer, car); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Customer, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, search string, p model.Pagination) ([]*model.Customer, error) {
	return s.repo.List(ctx, tenantID, search, p)
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateCustomerRequest) (*model.Customer, error) {
	customer, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		customer.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		customer.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		customer.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		customer.Email = req.Email
	}
	if req.Address != nil {
		customer.Address = req.Address
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}

// Search matches customers by name or phone and by vehicle plate,
// returning each hit with its vehicles attached.
func (s *Service) Search(ctx context.Context, tenantID uuid.UUID, query string) ([]*model.CustomerSearchResult, error) {
	return s.repo.Search(ctx, tenantID, query)
}

func (s *Service) AddCar(ctx context.Context, tenantID, customerID uuid.UUID, req *model.CreateCarRequest) (*model.Car, error) {
	if _, err := s.repo.Get(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	car := &model.Car{
		CustomerID:  customerID,
		Make:        req.Make,
		Model:       req.Model,
		PlateNumber: req.PlateNumber,
		Color:       req.Color,
		Year:        req.Year,
		CarType:     req.CarType,
	}
	car.TenantID = tenantID
	if err := s.repo.CreateCar(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (s *Service) GetCar(ctx context.Context, tenantID, id uuid.UUID) (*model.Car, error) {
	return s.repo.GetCar(ctx, tenantID, id)
}

func (s *Service) ListCars(ctx context.Context, tenantID, customerID uuid.UUID) ([]*model.Car, error) {
	return s.repo.ListCars(ctx, tenantID, customerID)
}
