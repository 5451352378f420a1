package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

// PriceSource says where a resolved price came from.
type PriceSource string

const (
	SourceOverride PriceSource = "CAR_TYPE_OVERRIDE"
	SourceBase     PriceSource = "BASE"
)

// ResolvedPrice is the outcome of a lookup for a service and car type.
type ResolvedPrice struct {
	ServiceID       uuid.UUID       `json:"service_id"`
	ServiceName     string          `json:"service_name"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	Source          PriceSource     `json:"source"`
}

type Service struct {
	catalogRepo repository.CatalogRepository
}

func NewService(catalogRepo repository.CatalogRepository) *Service {
	return &Service{catalogRepo: catalogRepo}
}

// Resolve returns the price for a service when performed on the given car
// type. A car type specific override wins; otherwise the service base price
// applies. A missing override is not an error.
func (s *Service) Resolve(ctx context.Context, tenantID, serviceID uuid.UUID, carType string) (*ResolvedPrice, error) {
	svc, err := s.catalogRepo.GetService(ctx, tenantID, serviceID)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedPrice{
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		Price:           svc.Price,
		DurationMinutes: svc.DurationMinutes,
		Source:          SourceBase,
	}

	if carType == "" {
		return resolved, nil
	}

	override, err := s.catalogRepo.GetServicePriceByCarType(ctx, tenantID, serviceID, carType)
	if err != nil {
		return nil, err
	}
	if override != nil {
		resolved.Price = override.Price
		resolved.Source = SourceOverride
		if override.DurationMinutes != nil {
			resolved.DurationMinutes = *override.DurationMinutes
		}
	}

	return resolved, nil
}

// ResolveAll resolves a batch of services against one car type, failing on
// the first unknown service.
func (s *Service) ResolveAll(ctx context.Context, tenantID uuid.UUID, serviceIDs []uuid.UUID, carType string) ([]*ResolvedPrice, error) {
	if len(serviceIDs) == 0 {
		return nil, apperr.Validation("at least one service is required")
	}

	resolved := make([]*ResolvedPrice, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		rp, err := s.Resolve(ctx, tenantID, id, carType)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rp)
	}
	return resolved, nil
}

// Quote prices a service list for one car type, returning line prices and
// the subtotal.
func (s *Service) Quote(ctx context.Context, tenantID uuid.UUID, serviceIDs []uuid.UUID, carType string) ([]*ResolvedPrice, decimal.Decimal, error) {
	resolved, err := s.ResolveAll(ctx, tenantID, serviceIDs, carType)
	if err != nil {
		return nil, decimal.Zero, err
	}

	subtotal := decimal.Zero
	for _, rp := range resolved {
		subtotal = subtotal.Add(rp.Price)
	}
	return resolved, subtotal, nil
}
