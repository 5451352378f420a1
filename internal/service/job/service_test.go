package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/internal/service/pricing"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type fakeJobRepo struct {
	jobs  map[uuid.UUID]*model.Job
	items map[uuid.UUID]*model.JobItem
	tasks map[uuid.UUID]*model.JobTask
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:  make(map[uuid.UUID]*model.Job),
		items: make(map[uuid.UUID]*model.JobItem),
		tasks: make(map[uuid.UUID]*model.JobTask),
	}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *model.Job) error {
	job.ID = uuid.New()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job")
	}
	return job, nil
}

func (f *fakeJobRepo) GetWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	return f.Get(ctx, tenantID, id)
}

func (f *fakeJobRepo) List(ctx context.Context, tenantID uuid.UUID, filters repository.JobFilters, p model.Pagination) ([]*model.Job, error) {
	return nil, nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *model.Job) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) CreateItem(ctx context.Context, item *model.JobItem) error {
	item.ID = uuid.New()
	f.items[item.ID] = item
	return nil
}

func (f *fakeJobRepo) ListItems(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobItem, error) {
	var items []*model.JobItem
	for _, item := range f.items {
		if item.JobID == jobID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeJobRepo) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*model.JobItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperr.NotFound("job item")
	}
	return item, nil
}

func (f *fakeJobRepo) CreateTask(ctx context.Context, task *model.JobTask) error {
	task.ID = uuid.New()
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeJobRepo) GetTask(ctx context.Context, tenantID, id uuid.UUID) (*model.JobTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task")
	}
	return task, nil
}

func (f *fakeJobRepo) UpdateTask(ctx context.Context, task *model.JobTask) error {
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeJobRepo) ListTasksByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobTask, error) {
	var tasks []*model.JobTask
	for _, task := range f.tasks {
		if item, ok := f.items[task.JobItemID]; ok && item.JobID == jobID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (f *fakeJobRepo) GetJobByTask(ctx context.Context, tenantID, taskID uuid.UUID) (*model.Job, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, apperr.NotFound("task")
	}
	item, ok := f.items[task.JobItemID]
	if !ok {
		return nil, apperr.NotFound("job item")
	}
	return f.Get(ctx, tenantID, item.JobID)
}

func (f *fakeJobRepo) ListCompletedInPeriod(ctx context.Context, tenantID, customerID uuid.UUID, start, end time.Time) ([]*model.Job, error) {
	return nil, nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	cars      map[uuid.UUID]*model.Car
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		customers: make(map[uuid.UUID]*model.Customer),
		cars:      make(map[uuid.UUID]*model.Car),
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

func (f *fakeCustomerRepo) Update(ctx context.Context, customer *model.Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	delete(f.customers, id)
	return nil
}

func (f *fakeCustomerRepo) Search(ctx context.Context, tenantID uuid.UUID, query string) ([]*model.CustomerSearchResult, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) RecordVisit(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) error {
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
	var cars []*model.Car
	for _, car := range f.cars {
		if car.CustomerID == customerID {
			cars = append(cars, car)
		}
	}
	return cars, nil
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
func (f *fakeCatalogRepo) CreateCarType(ctx context.Context, carType *model.CarType) error {
	return nil
}
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
	svc      *Service
	jobs     *fakeJobRepo
	catalog  *fakeCatalogRepo
	tenantID uuid.UUID
	customer *model.Customer
	car      *model.Car
}

func setup(t *testing.T) *fixture {
	t.Helper()
	jobs := newFakeJobRepo()
	customers := newFakeCustomerRepo()
	catalog := newFakeCatalogRepo()
	svc := NewService(jobs, customers, pricing.NewService(catalog))

	tenantID := uuid.New()
	customer := &model.Customer{FirstName: "Amina", LastName: "Diallo", PhoneNumber: "555-0100"}
	require.NoError(t, customers.Create(context.Background(), customer))

	suv := "SUV"
	car := &model.Car{CustomerID: customer.ID, Make: "Toyota", Model: "RAV4", PlateNumber: "AB-123", CarType: &suv}
	require.NoError(t, customers.CreateCar(context.Background(), car))

	return &fixture{svc: svc, jobs: jobs, catalog: catalog, tenantID: tenantID, customer: customer, car: car}
}

func (fx *fixture) addService(t *testing.T, name, price string) *model.Service {
	t.Helper()
	svc := &model.Service{CategoryID: uuid.New(), Name: name, Price: decimal.RequireFromString(price), DurationMinutes: 30}
	require.NoError(t, fx.catalog.CreateService(context.Background(), svc))
	return svc
}

func TestCreateJob(t *testing.T) {
	ctx := context.Background()

	t.Run("starts pending", func(t *testing.T) {
		fx := setup(t)
		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{
			CustomerID: fx.customer.ID,
			CarID:      fx.car.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, job.Status)
	})

	t.Run("rejects car owned by someone else", func(t *testing.T) {
		fx := setup(t)
		other := &model.Customer{FirstName: "Kofi", LastName: "Mensah", PhoneNumber: "555-0101"}
		require.NoError(t, fx.svc.customerRepo.Create(ctx, other))

		_, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{
			CustomerID: other.ID,
			CarID:      fx.car.ID,
		})
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	})

	t.Run("unknown customer", func(t *testing.T) {
		fx := setup(t)
		_, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{
			CustomerID: uuid.New(),
			CarID:      fx.car.ID,
		})
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots the car type override price", func(t *testing.T) {
		fx := setup(t)
		service := fx.addService(t, "Exterior Wash", "25")
		require.NoError(t, fx.catalog.CreateServicePrice(ctx, &model.ServicePrice{
			ServiceID:   service.ID,
			CarTypeName: "SUV",
			Price:       decimal.RequireFromString("35"),
		}))

		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{CustomerID: fx.customer.ID, CarID: fx.car.ID})
		require.NoError(t, err)

		item, err := fx.svc.AddItem(ctx, fx.tenantID, job.ID, &model.AddJobItemRequest{ServiceID: service.ID})
		require.NoError(t, err)
		assert.Equal(t, "Exterior Wash", item.ServiceName)
		assert.True(t, item.Price.Equal(decimal.RequireFromString("35")))
	})

	t.Run("falls back to base price", func(t *testing.T) {
		fx := setup(t)
		service := fx.addService(t, "Wax", "40")

		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{CustomerID: fx.customer.ID, CarID: fx.car.ID})
		require.NoError(t, err)

		item, err := fx.svc.AddItem(ctx, fx.tenantID, job.ID, &model.AddJobItemRequest{ServiceID: service.ID})
		require.NoError(t, err)
		assert.True(t, item.Price.Equal(decimal.RequireFromString("40")))
	})

	t.Run("terminal job rejects items", func(t *testing.T) {
		fx := setup(t)
		service := fx.addService(t, "Wax", "40")

		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{CustomerID: fx.customer.ID, CarID: fx.car.ID})
		require.NoError(t, err)
		job.Status = model.JobStatusCancelled

		_, err = fx.svc.AddItem(ctx, fx.tenantID, job.ID, &model.AddJobItemRequest{ServiceID: service.ID})
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()

	startedJob := func(t *testing.T, fx *fixture) (*model.Job, *model.JobTask) {
		t.Helper()
		service := fx.addService(t, "Interior Detail", "60")
		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{CustomerID: fx.customer.ID, CarID: fx.car.ID})
		require.NoError(t, err)
		item, err := fx.svc.AddItem(ctx, fx.tenantID, job.ID, &model.AddJobItemRequest{ServiceID: service.ID})
		require.NoError(t, err)
		task, err := fx.svc.AddTask(ctx, fx.tenantID, &model.CreateJobTaskRequest{JobItemID: item.ID, TaskName: "Vacuum"})
		require.NoError(t, err)
		return job, task
	}

	t.Run("starting first task moves job to in progress", func(t *testing.T) {
		fx := setup(t)
		job, task := startedJob(t, fx)

		started, err := fx.svc.StartTask(ctx, fx.tenantID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobTaskStatusInProgress, started.Status)
		assert.NotNil(t, started.StartTime)
		assert.Equal(t, model.JobStatusInProgress, fx.jobs.jobs[job.ID].Status)
	})

	t.Run("started task cannot start again", func(t *testing.T) {
		fx := setup(t)
		_, task := startedJob(t, fx)

		_, err := fx.svc.StartTask(ctx, fx.tenantID, task.ID)
		require.NoError(t, err)
		_, err = fx.svc.StartTask(ctx, fx.tenantID, task.ID)
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})

	t.Run("completing an unstarted task backfills start time", func(t *testing.T) {
		fx := setup(t)
		_, task := startedJob(t, fx)

		done, err := fx.svc.CompleteTask(ctx, fx.tenantID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobTaskStatusDone, done.Status)
		assert.NotNil(t, done.StartTime)
		assert.NotNil(t, done.EndTime)
	})

	t.Run("done task stays done", func(t *testing.T) {
		fx := setup(t)
		_, task := startedJob(t, fx)

		_, err := fx.svc.CompleteTask(ctx, fx.tenantID, task.ID)
		require.NoError(t, err)
		_, err = fx.svc.CompleteTask(ctx, fx.tenantID, task.ID)
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})

	t.Run("cancelled job rejects task completion", func(t *testing.T) {
		fx := setup(t)
		job, task := startedJob(t, fx)

		_, err := fx.svc.Cancel(ctx, fx.tenantID, job.ID)
		require.NoError(t, err)
		_, err = fx.svc.CompleteTask(ctx, fx.tenantID, task.ID)
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
		assert.Equal(t, model.JobTaskStatusPending, fx.jobs.tasks[task.ID].Status)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed from non terminal states", func(t *testing.T) {
		fx := setup(t)
		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{CustomerID: fx.customer.ID, CarID: fx.car.ID})
		require.NoError(t, err)

		cancelled, err := fx.svc.Cancel(ctx, fx.tenantID, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCancelled, cancelled.Status)
	})

	t.Run("paid job cannot be cancelled", func(t *testing.T) {
		fx := setup(t)
		job, err := fx.svc.Create(ctx, fx.tenantID, &model.CreateJobRequest{CustomerID: fx.customer.ID, CarID: fx.car.ID})
		require.NoError(t, err)
		job.Status = model.JobStatusPaid

		_, err = fx.svc.Cancel(ctx, fx.tenantID, job.ID)
		assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	})
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, model.JobStatusPaid.Terminal())
	assert.True(t, model.JobStatusCancelled.Terminal())
	assert.False(t, model.JobStatusPending.Terminal())
	assert.False(t, model.JobStatusInProgress.Terminal())
	assert.False(t, model.JobStatusQC.Terminal())
	assert.False(t, model.JobStatusCompleted.Terminal())
}
