package visit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/service/pricing"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type fakeVisitRepo struct {
	visits   map[uuid.UUID]*model.Visit
	services []*model.VisitService
	seq      int
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{visits: make(map[uuid.UUID]*model.Visit)}
}

func (f *fakeVisitRepo) Create(ctx context.Context, visit *model.Visit) error {
	f.seq++
	visit.ID = uuid.New()
	visit.TicketID = fmt.Sprintf("V-%03d", f.seq)
	f.visits[visit.ID] = visit
	return nil
}

func (f *fakeVisitRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Visit, error) {
	visit, ok := f.visits[id]
	if !ok {
		return nil, apperr.NotFound("visit")
	}
	return visit, nil
}

func (f *fakeVisitRepo) List(ctx context.Context, tenantID uuid.UUID, status model.VisitStatus, p model.Pagination) ([]*model.Visit, error) {
	return nil, nil
}

func (f *fakeVisitRepo) Update(ctx context.Context, visit *model.Visit) error {
	f.visits[visit.ID] = visit
	return nil
}

func (f *fakeVisitRepo) AddService(ctx context.Context, vs *model.VisitService) error {
	vs.ID = uuid.New()
	f.services = append(f.services, vs)
	return nil
}

func (f *fakeVisitRepo) ListServices(ctx context.Context, tenantID, visitID uuid.UUID) ([]*model.VisitService, error) {
	var services []*model.VisitService
	for _, vs := range f.services {
		if vs.VisitID == visitID {
			services = append(services, vs)
		}
	}
	return services, nil
}

func (f *fakeVisitRepo) HasService(ctx context.Context, tenantID, visitID, serviceID uuid.UUID) (bool, error) {
	for _, vs := range f.services {
		if vs.VisitID == visitID && vs.ServiceID == serviceID {
			return true, nil
		}
	}
	return false, nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	cars      map[uuid.UUID]*model.Car
	visits    map[uuid.UUID]int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		customers: make(map[uuid.UUID]*model.Customer),
		cars:      make(map[uuid.UUID]*model.Car),
		visits:    make(map[uuid.UUID]int),
	}
}

func (f *fakeCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	customer.ID = uuid.New()
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) CreateWithCar(ctx context.Context, customer *model.Customer, car *model.Car) error {
	if err := f.Create(ctx, customer); err != nil {
		return err
	}
	car.CustomerID = customer.ID
	return f.CreateCar(ctx, car)
}

func (f *fakeCustomerRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, apperr.NotFound("customer")
	}
	return customer, nil
}

func (f *fakeCustomerRepo) List(ctx context.Context, tenantID uuid.UUID, search string, p model.Pagination) ([]*model.Customer, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) Update(ctx context.Context, customer *model.Customer) error { return nil }

func (f *fakeCustomerRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error { return nil }

func (f *fakeCustomerRepo) Search(ctx context.Context, tenantID uuid.UUID, query string) ([]*model.CustomerSearchResult, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) RecordVisit(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) error {
	f.visits[customerID]++
	return nil
}

func (f *fakeCustomerRepo) CreateCar(ctx context.Context, car *model.Car) error {
	car.ID = uuid.New()
	f.cars[car.ID] = car
	return nil
}

func (f *fakeCustomerRepo) GetCar(ctx context.Context, tenantID, id uuid.UUID) (*model.Car, error) {
	car, ok := f.cars[id]
	if !ok {
		return nil, apperr.NotFound("car")
	}
	return car, nil
}

func (f *fakeCustomerRepo) ListCars(ctx context.Context, tenantID, customerID uuid.UUID) ([]*model.Car, error) {
	return nil, nil
}

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

type fixture struct {
	svc       *Service
	visits    *fakeVisitRepo
	customers *fakeCustomerRepo
	catalog   *fakeCatalogRepo
	tenantID  uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	visits := newFakeVisitRepo()
	customers := newFakeCustomerRepo()
	catalog := newFakeCatalogRepo()
	return &fixture{
		svc:       NewService(visits, customers, pricing.NewService(catalog)),
		visits:    visits,
		customers: customers,
		catalog:   catalog,
		tenantID:  uuid.New(),
	}
}

func (fx *fixture) guestVisit(t *testing.T) *model.Visit {
	t.Helper()
	name := "Walk In"
	carInfo := "Blue Honda Civic"
	plate := "GH-4521"
	visit, err := fx.svc.Create(context.Background(), fx.tenantID, &model.CreateVisitRequest{
		CustomerType: model.VisitCustomerGuest,
		CustomerName: &name,
		CarInfo:      &carInfo,
		CarPlate:     &plate,
	})
	require.NoError(t, err)
	return visit
}

func (fx *fixture) addService(t *testing.T, name, price string) *model.Service {
	t.Helper()
	svc := &model.Service{CategoryID: uuid.New(), Name: name, Price: decimal.RequireFromString(price), DurationMinutes: 30}
	require.NoError(t, fx.catalog.CreateService(context.Background(), svc))
	return svc
}

func TestCreateVisit(t *testing.T) {
	ctx := context.Background()

	t.Run("guest visit gets a ticket and checked in status", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		assert.Equal(t, "V-001", visit.TicketID)
		assert.Equal(t, model.VisitStatusCheckedIn, visit.Status)
		assert.Equal(t, "Walk In", visit.CustomerName)
		assert.True(t, visit.Total.IsZero())
	})

	t.Run("guest requires name and car info", func(t *testing.T) {
		fx := setup(t)
		blank := "   "
		carInfo := "Red Golf"
		_, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateVisitRequest{
			CustomerType: model.VisitCustomerGuest,
			CustomerName: &blank,
			CarInfo:      &carInfo,
		})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})

	t.Run("registered visit snapshots customer and car", func(t *testing.T) {
		fx := setup(t)
		customer := &model.Customer{FirstName: "Ama", LastName: "Owusu", PhoneNumber: "555-0100"}
		require.NoError(t, fx.customers.Create(ctx, customer))
		suv := "SUV"
		car := &model.Car{CustomerID: customer.ID, Make: "Kia", Model: "Sportage", PlateNumber: "GR-881", CarType: &suv}
		require.NoError(t, fx.customers.CreateCar(ctx, car))

		visit, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateVisitRequest{
			CustomerType: model.VisitCustomerRegistered,
			CustomerID:   &customer.ID,
			CarID:        &car.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, "Ama Owusu", visit.CustomerName)
		assert.Equal(t, "Kia Sportage", visit.CarInfo)
		assert.Equal(t, "GR-881", *visit.CarPlate)
		assert.Equal(t, "SUV", *visit.CarType)
		assert.Equal(t, "555-0100", *visit.PhoneNumber)
		assert.Equal(t, 1, fx.customers.visits[customer.ID])
	})

	t.Run("registered visit rejects someone else's car", func(t *testing.T) {
		fx := setup(t)
		customer := &model.Customer{FirstName: "Ama", LastName: "Owusu", PhoneNumber: "555-0100"}
		require.NoError(t, fx.customers.Create(ctx, customer))
		car := &model.Car{CustomerID: uuid.New(), Make: "Kia", Model: "Rio", PlateNumber: "GR-882"}
		require.NoError(t, fx.customers.CreateCar(ctx, car))

		_, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateVisitRequest{
			CustomerType: model.VisitCustomerRegistered,
			CustomerID:   &customer.ID,
			CarID:        &car.ID,
		})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("forward transition stamps timestamps once", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		inProgress := model.VisitStatusInProgress
		updated, err := fx.svc.UpdateStatus(ctx, fx.tenantID, visit.ID, &model.UpdateVisitRequest{Status: &inProgress})
		require.NoError(t, err)
		require.NotNil(t, updated.StartedAt)
		started := *updated.StartedAt

		done := model.VisitStatusCompletedWaitingPickup
		updated, err = fx.svc.UpdateStatus(ctx, fx.tenantID, visit.ID, &model.UpdateVisitRequest{Status: &done})
		require.NoError(t, err)
		assert.Equal(t, started, *updated.StartedAt)
		assert.NotNil(t, updated.CompletedAt)
	})

	t.Run("backward transition is rejected", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		inProgress := model.VisitStatusInProgress
		_, err := fx.svc.UpdateStatus(ctx, fx.tenantID, visit.ID, &model.UpdateVisitRequest{Status: &inProgress})
		require.NoError(t, err)

		back := model.VisitStatusCheckedIn
		_, err = fx.svc.UpdateStatus(ctx, fx.tenantID, visit.ID, &model.UpdateVisitRequest{Status: &back})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})

	t.Run("paid is reserved for the payment endpoint", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		paid := model.VisitStatusPaid
		_, err := fx.svc.UpdateStatus(ctx, fx.tenantID, visit.ID, &model.UpdateVisitRequest{Status: &paid})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestAddServices(t *testing.T) {
	ctx := context.Background()

	t.Run("recalculates totals with fixed visit tax", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		wash := fx.addService(t, "Exterior Wash", "50")
		wax := fx.addService(t, "Wax", "25")

		updated, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{
			ServiceIDs: []uuid.UUID{wash.ID, wax.ID},
		})
		require.NoError(t, err)

		assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(75)))
		assert.True(t, updated.Tax.Equal(decimal.RequireFromString("11.25")), "tax %s", updated.Tax)
		assert.True(t, updated.Total.Equal(decimal.RequireFromString("86.25")), "total %s", updated.Total)
		assert.Len(t, updated.Services, 2)
	})

	t.Run("duplicate services are skipped", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		wash := fx.addService(t, "Exterior Wash", "50")

		_, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{ServiceIDs: []uuid.UUID{wash.ID}})
		require.NoError(t, err)
		updated, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{ServiceIDs: []uuid.UUID{wash.ID}})
		require.NoError(t, err)

		assert.Len(t, updated.Services, 1)
		assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(50)))
	})

	t.Run("services added after check in are addons", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		wash := fx.addService(t, "Exterior Wash", "50")
		wax := fx.addService(t, "Wax", "25")

		_, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{ServiceIDs: []uuid.UUID{wash.ID}})
		require.NoError(t, err)

		inProgress := model.VisitStatusInProgress
		_, err = fx.svc.UpdateStatus(ctx, fx.tenantID, visit.ID, &model.UpdateVisitRequest{Status: &inProgress})
		require.NoError(t, err)

		updated, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{ServiceIDs: []uuid.UUID{wax.ID}})
		require.NoError(t, err)

		byName := map[string]bool{}
		for _, vs := range updated.Services {
			byName[vs.ServiceName] = vs.IsAddon
		}
		assert.False(t, byName["Exterior Wash"])
		assert.True(t, byName["Wax"])
	})

	t.Run("paid visit rejects services", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		wash := fx.addService(t, "Exterior Wash", "50")
		visit.Status = model.VisitStatusPaid

		_, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{ServiceIDs: []uuid.UUID{wash.ID}})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("settles with tip and backfills timestamps", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		wash := fx.addService(t, "Exterior Wash", "50")
		_, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{ServiceIDs: []uuid.UUID{wash.ID}})
		require.NoError(t, err)

		tip := decimal.NewFromInt(10)
		paid, err := fx.svc.ProcessPayment(ctx, fx.tenantID, visit.ID, &model.ProcessVisitPaymentRequest{
			PaymentMethod: model.PaymentMethodCash,
			Tip:           &tip,
		})
		require.NoError(t, err)

		assert.Equal(t, model.VisitStatusPaid, paid.Status)
		assert.NotNil(t, paid.StartedAt)
		assert.NotNil(t, paid.CompletedAt)
		assert.NotNil(t, paid.PaidAt)
		// 50 + 7.50 tax + 10 tip
		assert.True(t, paid.Total.Equal(decimal.RequireFromString("67.5")), "total %s", paid.Total)
	})

	t.Run("two services with a five dollar tip", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)
		wash := fx.addService(t, "Exterior Wash", "50")
		wax := fx.addService(t, "Wax", "25")
		_, err := fx.svc.AddServices(ctx, fx.tenantID, visit.ID, &model.AddVisitServicesRequest{
			ServiceIDs: []uuid.UUID{wash.ID, wax.ID},
		})
		require.NoError(t, err)

		tip := decimal.NewFromInt(5)
		paid, err := fx.svc.ProcessPayment(ctx, fx.tenantID, visit.ID, &model.ProcessVisitPaymentRequest{
			PaymentMethod: model.PaymentMethodCard,
			Tip:           &tip,
		})
		require.NoError(t, err)

		assert.True(t, paid.Subtotal.Equal(decimal.NewFromInt(75)))
		assert.True(t, paid.Tax.Equal(decimal.RequireFromString("11.25")), "tax %s", paid.Tax)
		assert.True(t, paid.Total.Equal(decimal.RequireFromString("91.25")), "total %s", paid.Total)
	})

	t.Run("double payment is rejected", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		_, err := fx.svc.ProcessPayment(ctx, fx.tenantID, visit.ID, &model.ProcessVisitPaymentRequest{PaymentMethod: model.PaymentMethodCash})
		require.NoError(t, err)
		_, err = fx.svc.ProcessPayment(ctx, fx.tenantID, visit.ID, &model.ProcessVisitPaymentRequest{PaymentMethod: model.PaymentMethodCash})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestConvertToCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("creates customer with car from visit snapshot", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		carMake := "Honda"
		carModel := "Civic"
		converted, err := fx.svc.ConvertToCustomer(ctx, fx.tenantID, visit.ID, &model.ConvertToCustomerRequest{
			FirstName:   "Kwame",
			LastName:    "Asante",
			PhoneNumber: "555-0199",
			CarMake:     &carMake,
			CarModel:    &carModel,
		})
		require.NoError(t, err)

		assert.Equal(t, model.VisitCustomerRegistered, converted.CustomerType)
		require.NotNil(t, converted.CustomerID)
		assert.Equal(t, "Kwame Asante", converted.CustomerName)
		require.NotNil(t, converted.CarID)

		car := fx.customers.cars[*converted.CarID]
		require.NotNil(t, car)
		assert.Equal(t, "GH-4521", car.PlateNumber)
		assert.Equal(t, *converted.CustomerID, car.CustomerID)
		assert.Equal(t, 1, fx.customers.visits[*converted.CustomerID])
	})

	t.Run("registered visit cannot convert", func(t *testing.T) {
		fx := setup(t)
		customer := &model.Customer{FirstName: "Ama", LastName: "Owusu", PhoneNumber: "555-0100"}
		require.NoError(t, fx.customers.Create(ctx, customer))
		visit, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateVisitRequest{
			CustomerType: model.VisitCustomerRegistered,
			CustomerID:   &customer.ID,
		})
		require.NoError(t, err)

		_, err = fx.svc.ConvertToCustomer(ctx, fx.tenantID, visit.ID, &model.ConvertToCustomerRequest{
			FirstName: "X", LastName: "Y", PhoneNumber: "1",
		})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestLinkCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("links existing customer and car", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		customer := &model.Customer{FirstName: "Ama", LastName: "Owusu", PhoneNumber: "555-0100"}
		require.NoError(t, fx.customers.Create(ctx, customer))
		sedan := "Sedan"
		car := &model.Car{CustomerID: customer.ID, Make: "Toyota", Model: "Corolla", PlateNumber: "GT-100", CarType: &sedan}
		require.NoError(t, fx.customers.CreateCar(ctx, car))

		linked, err := fx.svc.LinkCustomer(ctx, fx.tenantID, visit.ID, &model.LinkCustomerRequest{
			CustomerID: customer.ID,
			CarID:      &car.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, model.VisitCustomerRegistered, linked.CustomerType)
		assert.Equal(t, "Ama Owusu", linked.CustomerName)
		assert.Equal(t, "Toyota Corolla", linked.CarInfo)
		assert.Equal(t, "Sedan", *linked.CarType)
	})

	t.Run("car ownership is enforced", func(t *testing.T) {
		fx := setup(t)
		visit := fx.guestVisit(t)

		customer := &model.Customer{FirstName: "Ama", LastName: "Owusu", PhoneNumber: "555-0100"}
		require.NoError(t, fx.customers.Create(ctx, customer))
		car := &model.Car{CustomerID: uuid.New(), Make: "Toyota", Model: "Corolla", PlateNumber: "GT-100"}
		require.NoError(t, fx.customers.CreateCar(ctx, car))

		_, err := fx.svc.LinkCustomer(ctx, fx.tenantID, visit.ID, &model.LinkCustomerRequest{
			CustomerID: customer.ID,
			CarID:      &car.ID,
		})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})
}
