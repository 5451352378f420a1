package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type fakeCatalogRepo struct {
	services  map[uuid.UUID]*model.Service
	overrides map[uuid.UUID]map[string]*model.ServicePrice
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		services:  make(map[uuid.UUID]*model.Service),
		overrides: make(map[uuid.UUID]map[string]*model.ServicePrice),
	}
}

func (f *fakeCatalogRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	return nil
}
func (f *fakeCatalogRepo) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]*model.Category, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) CreateCarType(ctx context.Context, carType *model.CarType) error { return nil }
func (f *fakeCatalogRepo) ListCarTypes(ctx context.Context, tenantID uuid.UUID) ([]*model.CarType, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) CreateService(ctx context.Context, service *model.Service) error {
	service.ID = uuid.New()
	f.services[service.ID] = service
	return nil
}

func (f *fakeCatalogRepo) GetService(ctx context.Context, tenantID, id uuid.UUID) (*model.Service, error) {
	service, ok := f.services[id]
	if !ok {
		return nil, apperr.NotFound("service")
	}
	return service, nil
}

func (f *fakeCatalogRepo) ListServices(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) UpdateService(ctx context.Context, service *model.Service) error {
	return nil
}
func (f *fakeCatalogRepo) DeleteService(ctx context.Context, tenantID, id uuid.UUID) error {
	return nil
}

func (f *fakeCatalogRepo) CreateServicePrice(ctx context.Context, price *model.ServicePrice) error {
	if f.overrides[price.ServiceID] == nil {
		f.overrides[price.ServiceID] = make(map[string]*model.ServicePrice)
	}
	f.overrides[price.ServiceID][price.CarTypeName] = price
	return nil
}
func (f *fakeCatalogRepo) ListServicePrices(ctx context.Context, tenantID, serviceID uuid.UUID) ([]*model.ServicePrice, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) GetServicePriceByCarType(ctx context.Context, tenantID, serviceID uuid.UUID, carTypeName string) (*model.ServicePrice, error) {
	return f.overrides[serviceID][carTypeName], nil
}

func seedService(t *testing.T, repo *fakeCatalogRepo, name, price string, duration int) *model.Service {
	t.Helper()
	svc := &model.Service{CategoryID: uuid.New(), Name: name, Price: decimal.RequireFromString(price), DurationMinutes: duration}
	require.NoError(t, repo.CreateService(context.Background(), svc))
	return svc
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("base price when no override exists", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo)
		wash := seedService(t, repo, "Exterior Wash", "25", 30)

		resolved, err := svc.Resolve(ctx, tenantID, wash.ID, "SUV")
		require.NoError(t, err)

		assert.Equal(t, SourceBase, resolved.Source)
		assert.True(t, resolved.Price.Equal(decimal.RequireFromString("25")))
		assert.Equal(t, 30, resolved.DurationMinutes)
	})

	t.Run("override wins and may carry its own duration", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo)
		wash := seedService(t, repo, "Exterior Wash", "25", 30)

		duration := 45
		require.NoError(t, repo.CreateServicePrice(ctx, &model.ServicePrice{
			ServiceID:       wash.ID,
			CarTypeName:     "SUV",
			Price:           decimal.RequireFromString("35"),
			DurationMinutes: &duration,
		}))

		resolved, err := svc.Resolve(ctx, tenantID, wash.ID, "SUV")
		require.NoError(t, err)

		assert.Equal(t, SourceOverride, resolved.Source)
		assert.True(t, resolved.Price.Equal(decimal.RequireFromString("35")))
		assert.Equal(t, 45, resolved.DurationMinutes)
	})

	t.Run("empty car type skips the override lookup", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo)
		wash := seedService(t, repo, "Exterior Wash", "25", 30)
		require.NoError(t, repo.CreateServicePrice(ctx, &model.ServicePrice{
			ServiceID:   wash.ID,
			CarTypeName: "SUV",
			Price:       decimal.RequireFromString("35"),
		}))

		resolved, err := svc.Resolve(ctx, tenantID, wash.ID, "")
		require.NoError(t, err)
		assert.Equal(t, SourceBase, resolved.Source)
	})

	t.Run("unknown service", func(t *testing.T) {
		svc := NewService(newFakeCatalogRepo())
		_, err := svc.Resolve(ctx, tenantID, uuid.New(), "")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("sums resolved lines", func(t *testing.T) {
		repo := newFakeCatalogRepo()
		svc := NewService(repo)
		wash := seedService(t, repo, "Exterior Wash", "25", 30)
		wax := seedService(t, repo, "Wax", "40", 20)
		require.NoError(t, repo.CreateServicePrice(ctx, &model.ServicePrice{
			ServiceID:   wash.ID,
			CarTypeName: "Truck",
			Price:       decimal.RequireFromString("45"),
		}))

		lines, subtotal, err := svc.Quote(ctx, tenantID, []uuid.UUID{wash.ID, wax.ID}, "Truck")
		require.NoError(t, err)

		assert.Len(t, lines, 2)
		assert.True(t, subtotal.Equal(decimal.RequireFromString("85")), "subtotal %s", subtotal)
	})

	t.Run("empty list is a validation error", func(t *testing.T) {
		svc := NewService(newFakeCatalogRepo())
		_, _, err := svc.Quote(ctx, tenantID, nil, "")
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})
}
