package visit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/internal/service/pricing"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type Service struct {
	repo         repository.VisitRepository
	customerRepo repository.CustomerRepository
	pricingSvc   *pricing.Service
}

func NewService(repo repository.VisitRepository, customerRepo repository.CustomerRepository, pricingSvc *pricing.Service) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		pricingSvc:   pricingSvc,
	}
}

// Create checks a car in at the front desk. Registered visits snapshot the
// customer and car so the ticket stays readable even if records change
// later; guest visits carry the identity inline.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateVisitRequest) (*model.Visit, error) {
	visit := &model.Visit{
		CustomerType: req.CustomerType,
		Status:       model.VisitStatusCheckedIn,
		Subtotal:     decimal.Zero,
		Tax:          decimal.Zero,
		Tip:          decimal.Zero,
		Total:        decimal.Zero,
		CheckedInAt:  time.Now(),
		PhoneNumber:  req.PhoneNumber,
		CarPlate:     req.CarPlate,
		CarType:      req.CarType,
	}
	visit.TenantID = tenantID

	switch req.CustomerType {
	case model.VisitCustomerRegistered:
		if req.CustomerID == nil {
			return nil, apperr.Validation("customer is required for a registered visit")
		}
		customer, err := s.customerRepo.Get(ctx, tenantID, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		visit.CustomerID = req.CustomerID
		visit.CustomerName = customer.FullName()
		if visit.PhoneNumber == nil {
			visit.PhoneNumber = &customer.PhoneNumber
		}

		if req.CarID != nil {
			car, err := s.customerRepo.GetCar(ctx, tenantID, *req.CarID)
			if err != nil {
				return nil, err
			}
			if car.CustomerID != *req.CustomerID {
				return nil, apperr.Validation("car does not belong to customer")
			}
			visit.CarID = req.CarID
			visit.CarInfo = car.Make + " " + car.Model
			visit.CarPlate = &car.PlateNumber
			visit.CarType = car.CarType
		} else if req.CarInfo != nil {
			visit.CarInfo = *req.CarInfo
		}

	case model.VisitCustomerGuest:
		if req.CustomerName == nil || strings.TrimSpace(*req.CustomerName) == "" {
			return nil, apperr.Validation("customer_name is required for a guest visit")
		}
		if req.CarInfo == nil || strings.TrimSpace(*req.CarInfo) == "" {
			return nil, apperr.Validation("car_info is required for a guest visit")
		}
		visit.CustomerName = *req.CustomerName
		visit.CarInfo = *req.CarInfo

	default:
		return nil, apperr.Validation("invalid customer_type")
	}

	if err := s.repo.Create(ctx, visit); err != nil {
		return nil, err
	}

	if visit.CustomerID != nil {
		if err := s.customerRepo.RecordVisit(ctx, tenantID, *visit.CustomerID, visit.CheckedInAt); err != nil {
			return nil, err
		}
	}
	return visit, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Visit, error) {
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, status model.VisitStatus, p model.Pagination) ([]*model.Visit, error) {
	return s.repo.List(ctx, tenantID, status, p)
}

// visitRank orders the workflow; transitions may only move forward.
var visitRank = map[model.VisitStatus]int{
	model.VisitStatusCheckedIn:              0,
	model.VisitStatusInProgress:             1,
	model.VisitStatusCompletedWaitingPickup: 2,
	model.VisitStatusPaid:                   3,
}

// UpdateStatus advances the visit, stamping the matching timestamp once.
// Re-applying the current status is a no-op, not an error.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, req *model.UpdateVisitRequest) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != visit.Status {
		from, to := visitRank[visit.Status], visitRank[*req.Status]
		if to < from {
			return nil, apperr.InvalidState(fmt.Sprintf("cannot move visit from %s back to %s", visit.Status, *req.Status))
		}
		if *req.Status == model.VisitStatusPaid {
			return nil, apperr.InvalidState("use the payment endpoint to mark a visit paid")
		}

		now := time.Now()
		visit.Status = *req.Status
		switch visit.Status {
		case model.VisitStatusInProgress:
			if visit.StartedAt == nil {
				visit.StartedAt = &now
			}
		case model.VisitStatusCompletedWaitingPickup:
			if visit.StartedAt == nil {
				visit.StartedAt = &now
			}
			if visit.CompletedAt == nil {
				visit.CompletedAt = &now
			}
		}
	}
	if req.Notes != nil {
		visit.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// AddServices adds service lines, skipping any already on the visit, then
// recomputes the totals. Prices are resolved for the visit's car type.
func (s *Service) AddServices(ctx context.Context, tenantID, id uuid.UUID, req *model.AddVisitServicesRequest) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if visit.Status == model.VisitStatusPaid {
		return nil, apperr.InvalidState("cannot add services to a paid visit")
	}

	carType := ""
	if visit.CarType != nil {
		carType = *visit.CarType
	}

	for _, serviceID := range req.ServiceIDs {
		exists, err := s.repo.HasService(ctx, tenantID, id, serviceID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		resolved, err := s.pricingSvc.Resolve(ctx, tenantID, serviceID, carType)
		if err != nil {
			return nil, err
		}

		vs := &model.VisitService{
			VisitID:     id,
			ServiceID:   resolved.ServiceID,
			ServiceName: resolved.ServiceName,
			Price:       resolved.Price,
			IsAddon:     visit.Status != model.VisitStatusCheckedIn,
		}
		vs.TenantID = tenantID
		if err := s.repo.AddService(ctx, vs); err != nil {
			return nil, err
		}
	}

	return s.recalculate(ctx, visit)
}

// recalculate rebuilds subtotal, tax and total from the service lines and
// the current tip.
func (s *Service) recalculate(ctx context.Context, visit *model.Visit) (*model.Visit, error) {
	services, err := s.repo.ListServices(ctx, visit.TenantID, visit.ID)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, vs := range services {
		subtotal = subtotal.Add(vs.Price)
	}

	visit.Subtotal = subtotal
	visit.Tax = subtotal.Mul(model.VisitTaxRate)
	visit.Total = visit.Subtotal.Add(visit.Tax).Add(visit.Tip)

	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}
	visit.Services = services
	return visit, nil
}

// ProcessPayment settles the visit and stamps paid_at. Earlier workflow
// timestamps that were skipped at the counter get backfilled.
func (s *Service) ProcessPayment(ctx context.Context, tenantID, id uuid.UUID, req *model.ProcessVisitPaymentRequest) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if visit.Status == model.VisitStatusPaid {
		return nil, apperr.InvalidState("visit is already paid")
	}

	if req.Tip != nil {
		visit.Tip = *req.Tip
	}
	method := req.PaymentMethod
	visit.PaymentMethod = &method
	visit.PaymentConfirmation = req.PaymentConfirmation

	now := time.Now()
	if visit.StartedAt == nil {
		visit.StartedAt = &now
	}
	if visit.CompletedAt == nil {
		visit.CompletedAt = &now
	}
	visit.Status = model.VisitStatusPaid
	visit.PaidAt = &now

	return s.recalculate(ctx, visit)
}

// ConvertToCustomer registers a guest visit's walk-in as a real customer
// (with their car when details are known) and links the visit to them.
func (s *Service) ConvertToCustomer(ctx context.Context, tenantID, id uuid.UUID, req *model.ConvertToCustomerRequest) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if visit.CustomerType != model.VisitCustomerGuest {
		return nil, apperr.InvalidState("visit is already linked to a registered customer")
	}

	customer := &model.Customer{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	}
	customer.TenantID = tenantID

	var car *model.Car
	if req.CarMake != nil && req.CarModel != nil && visit.CarPlate != nil {
		car = &model.Car{
			Make:        *req.CarMake,
			Model:       *req.CarModel,
			PlateNumber: *visit.CarPlate,
			Color:       req.CarColor,
			CarType:     visit.CarType,
		}
		car.TenantID = tenantID
	}

	if car != nil {
		if err := s.customerRepo.CreateWithCar(ctx, customer, car); err != nil {
			return nil, err
		}
		visit.CarID = &car.ID
	} else {
		if err := s.customerRepo.Create(ctx, customer); err != nil {
			return nil, err
		}
	}

	visit.CustomerType = model.VisitCustomerRegistered
	visit.CustomerID = &customer.ID
	visit.CustomerName = customer.FullName()
	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}

	if err := s.customerRepo.RecordVisit(ctx, tenantID, customer.ID, visit.CheckedInAt); err != nil {
		return nil, err
	}
	return visit, nil
}

// LinkCustomer attaches an existing customer (and optionally one of their
// cars) to a guest visit.
func (s *Service) LinkCustomer(ctx context.Context, tenantID, id uuid.UUID, req *model.LinkCustomerRequest) (*model.Visit, error) {
	visit, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if visit.CustomerType != model.VisitCustomerGuest {
		return nil, apperr.InvalidState("visit is already linked to a registered customer")
	}

	customer, err := s.customerRepo.Get(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if req.CarID != nil {
		car, err := s.customerRepo.GetCar(ctx, tenantID, *req.CarID)
		if err != nil {
			return nil, err
		}
		if car.CustomerID != req.CustomerID {
			return nil, apperr.Validation("car does not belong to customer")
		}
		visit.CarID = req.CarID
		visit.CarInfo = car.Make + " " + car.Model
		visit.CarPlate = &car.PlateNumber
		visit.CarType = car.CarType
	}

	visit.CustomerType = model.VisitCustomerRegistered
	visit.CustomerID = &customer.ID
	visit.CustomerName = customer.FullName()
	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, err
	}

	if err := s.customerRepo.RecordVisit(ctx, tenantID, customer.ID, visit.CheckedInAt); err != nil {
		return nil, err
	}
	return visit, nil
}
