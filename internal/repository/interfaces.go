package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
)

type TenantRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	// CreateWithCar creates the customer and their first car atomically.
	CreateWithCar(ctx context.Context, customer *model.Customer, car *model.Car) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, tenantID uuid.UUID, search string, p model.Pagination) ([]*model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// Search matches customers by name or phone, and by car plate.
	Search(ctx context.Context, tenantID uuid.UUID, query string) ([]*model.CustomerSearchResult, error)
	RecordVisit(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) error

	CreateCar(ctx context.Context, car *model.Car) error
	GetCar(ctx context.Context, tenantID, id uuid.UUID) (*model.Car, error)
	ListCars(ctx context.Context, tenantID, customerID uuid.UUID) ([]*model.Car, error)
}

type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]*model.Category, error)

	CreateCarType(ctx context.Context, carType *model.CarType) error
	ListCarTypes(ctx context.Context, tenantID uuid.UUID) ([]*model.CarType, error)

	CreateService(ctx context.Context, service *model.Service) error
	GetService(ctx context.Context, tenantID, id uuid.UUID) (*model.Service, error)
	ListServices(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error)
	UpdateService(ctx context.Context, service *model.Service) error
	DeleteService(ctx context.Context, tenantID, id uuid.UUID) error

	CreateServicePrice(ctx context.Context, price *model.ServicePrice) error
	ListServicePrices(ctx context.Context, tenantID, serviceID uuid.UUID) ([]*model.ServicePrice, error)
	// GetServicePriceByCarType matches the car type name case-insensitively.
	// Returns (nil, nil) when no override exists.
	GetServicePriceByCarType(ctx context.Context, tenantID, serviceID uuid.UUID, carTypeName string) (*model.ServicePrice, error)
}

type JobFilters struct {
	Status     model.JobStatus
	CustomerID uuid.UUID
}

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error)
	GetWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, tenantID uuid.UUID, filters JobFilters, p model.Pagination) ([]*model.Job, error)
	Update(ctx context.Context, job *model.Job) error

	CreateItem(ctx context.Context, item *model.JobItem) error
	ListItems(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobItem, error)
	GetItem(ctx context.Context, tenantID, id uuid.UUID) (*model.JobItem, error)

	CreateTask(ctx context.Context, task *model.JobTask) error
	GetTask(ctx context.Context, tenantID, id uuid.UUID) (*model.JobTask, error)
	UpdateTask(ctx context.Context, task *model.JobTask) error
	ListTasksByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobTask, error)
	// GetJobByTask resolves the owning job of a task.
	GetJobByTask(ctx context.Context, tenantID, taskID uuid.UUID) (*model.Job, error)

	// ListCompletedInPeriod returns COMPLETED jobs, items included, for
	// the customer with created_at within [start, end].
	ListCompletedInPeriod(ctx context.Context, tenantID, customerID uuid.UUID, start, end time.Time) ([]*model.Job, error)
}

type VisitRepository interface {
	// Create allocates the tenant-scoped ticket number and inserts the
	// visit atomically; concurrent creations never share a ticket.
	Create(ctx context.Context, visit *model.Visit) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Visit, error)
	List(ctx context.Context, tenantID uuid.UUID, status model.VisitStatus, p model.Pagination) ([]*model.Visit, error)
	Update(ctx context.Context, visit *model.Visit) error

	AddService(ctx context.Context, vs *model.VisitService) error
	ListServices(ctx context.Context, tenantID, visitID uuid.UUID) ([]*model.VisitService, error)
	HasService(ctx context.Context, tenantID, visitID, serviceID uuid.UUID) (bool, error)
}

type QCRepository interface {
	CreateChecklistItem(ctx context.Context, item *model.QCChecklistItem) error
	ListChecklistItems(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*model.QCChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item *model.QCChecklistItem) error
	DeleteChecklistItem(ctx context.Context, tenantID, id uuid.UUID) error
	// ListApplicableItems returns active global items plus items scoped
	// to any of the given services, deduplicated.
	ListApplicableItems(ctx context.Context, tenantID uuid.UUID, serviceIDs []uuid.UUID) ([]*model.QCChecklistItem, error)

	GetRecordByJob(ctx context.Context, tenantID, jobID uuid.UUID) (*model.JobQCRecord, error)
	CreateRecord(ctx context.Context, record *model.JobQCRecord) error
	UpdateRecord(ctx context.Context, record *model.JobQCRecord) error

	// CreateResponseIfAbsent inserts the response unless one already
	// exists for (qc_record, checklist_item).
	CreateResponseIfAbsent(ctx context.Context, response *model.QCChecklistResponse) error
	ListResponses(ctx context.Context, tenantID, recordID uuid.UUID) ([]*model.QCChecklistResponse, error)
	GetResponse(ctx context.Context, tenantID, id uuid.UUID) (*model.QCChecklistResponse, error)
	UpdateResponse(ctx context.Context, response *model.QCChecklistResponse) error
}

// InvoiceEventFunc builds the outbox event for a freshly numbered
// invoice. A nil return skips event creation.
type InvoiceEventFunc func(invoice *model.Invoice) (*model.OutboxEvent, error)

type BillingRepository interface {
	CreateTaxConfiguration(ctx context.Context, cfg *model.TaxConfiguration) error
	ListTaxConfigurations(ctx context.Context, tenantID uuid.UUID) ([]*model.TaxConfiguration, error)
	// GetActiveTaxConfiguration returns the first active configuration,
	// or (nil, nil) when none is active.
	GetActiveTaxConfiguration(ctx context.Context, tenantID uuid.UUID) (*model.TaxConfiguration, error)

	CreateDiscount(ctx context.Context, discount *model.Discount) error
	GetDiscount(ctx context.Context, tenantID, id uuid.UUID) (*model.Discount, error)
	ListDiscounts(ctx context.Context, tenantID uuid.UUID) ([]*model.Discount, error)

	// CreateReceipt inserts the receipt and the outbox event atomically.
	CreateReceipt(ctx context.Context, receipt *model.Receipt, event *model.OutboxEvent) error
	GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*model.Receipt, error)
	GetReceiptByJob(ctx context.Context, tenantID, jobID uuid.UUID) (*model.Receipt, error)
	ListReceipts(ctx context.Context, tenantID uuid.UUID, p model.Pagination) ([]*model.Receipt, error)

	// CreateInvoice assigns the tenant's next invoice number under a
	// per-tenant lock, then inserts the invoice, its line items and the
	// outbox event in one transaction. eventFn runs after the number is
	// assigned so the payload can reference it.
	CreateInvoice(ctx context.Context, invoice *model.Invoice, items []*model.InvoiceLineItem, eventFn InvoiceEventFunc) error
	GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID, status model.InvoiceStatus, p model.Pagination) ([]*model.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, tenantID, id uuid.UUID, status model.InvoiceStatus) error

	// RecordJobPayment inserts the payment and marks the job PAID in one
	// transaction.
	RecordJobPayment(ctx context.Context, payment *model.Payment) error
	// RecordInvoicePayment inserts the payment and marks the invoice PAID
	// in one transaction.
	RecordInvoicePayment(ctx context.Context, payment *model.Payment) error
	ListPayments(ctx context.Context, tenantID uuid.UUID, p model.Pagination) ([]*model.Payment, error)
}

// LoyaltyTxOps exposes the mutations allowed while the customer's
// loyalty row is locked.
type LoyaltyTxOps interface {
	UpdateLoyalty(ctx context.Context, loyalty *model.CustomerLoyalty) error
	CreateTransaction(ctx context.Context, txn *model.PointTransaction) error
	CreateOutboxEvent(ctx context.Context, event *model.OutboxEvent) error
}

type LoyaltyRepository interface {
	GetConfiguration(ctx context.Context, tenantID uuid.UUID) (*model.LoyaltyConfiguration, error)
	UpsertConfiguration(ctx context.Context, cfg *model.LoyaltyConfiguration) error

	CreateTier(ctx context.Context, tier *model.LoyaltyTier) error
	// ListTiers returns tiers ordered by min_points_required ascending.
	ListTiers(ctx context.Context, tenantID uuid.UUID) ([]*model.LoyaltyTier, error)

	GetLoyaltyByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*model.CustomerLoyalty, error)
	// WithLockedLoyalty runs fn with the customer's loyalty row locked
	// (SELECT ... FOR UPDATE), creating the row first if absent. All
	// mutations made through ops commit or roll back together.
	WithLockedLoyalty(ctx context.Context, tenantID, customerID uuid.UUID, fn func(ops LoyaltyTxOps, loyalty *model.CustomerLoyalty) error) error
	ListTransactions(ctx context.Context, tenantID, loyaltyID uuid.UUID) ([]*model.PointTransaction, error)

	CreateRedemptionOption(ctx context.Context, option *model.RedemptionOption) error
	GetRedemptionOption(ctx context.Context, tenantID, id uuid.UUID) (*model.RedemptionOption, error)
	ListRedemptionOptions(ctx context.Context, tenantID uuid.UUID) ([]*model.RedemptionOption, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	// GetPendingWithLock claims up to limit due events with
	// FOR UPDATE SKIP LOCKED semantics.
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
