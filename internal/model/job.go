package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusQC         JobStatus = "QC"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusPaid       JobStatus = "PAID"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusPaid || s == JobStatusCancelled
}

type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "CASH"
	PaymentMethodMobileTransfer PaymentMethod = "MOBILE_TRANSFER"
	PaymentMethodMobileBanking  PaymentMethod = "MOBILE_BANKING"
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodOther          PaymentMethod = "OTHER"
)

// Job is one vehicle visit's body of work for a customer and car.
type Job struct {
	Base
	CustomerID    uuid.UUID      `json:"customer_id" db:"customer_id"`
	CarID         uuid.UUID      `json:"car_id" db:"car_id"`
	Status        JobStatus      `json:"status" db:"status"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty" db:"completed_at"`

	Items []*JobItem `json:"items,omitempty" db:"-"`
}

// JobItem is a priced service line within a job. Price is a snapshot
// taken at booking time and never re-reads the service catalog.
type JobItem struct {
	Base
	JobID       uuid.UUID       `json:"job_id" db:"job_id"`
	ServiceID   uuid.UUID       `json:"service_id" db:"service_id"`
	ServiceName string          `json:"service_name" db:"service_name"`
	Price       decimal.Decimal `json:"price" db:"price"`

	Tasks []*JobTask `json:"tasks,omitempty" db:"-"`
}

type JobTaskStatus string

const (
	JobTaskStatusPending    JobTaskStatus = "PENDING"
	JobTaskStatusInProgress JobTaskStatus = "IN_PROGRESS"
	JobTaskStatusDone       JobTaskStatus = "DONE"
)

// JobTask is a staff-assignable unit of work within a job item.
type JobTask struct {
	Base
	JobItemID uuid.UUID     `json:"job_item_id" db:"job_item_id"`
	StaffID   *uuid.UUID    `json:"staff_id,omitempty" db:"staff_id"`
	TaskName  string        `json:"task_name" db:"task_name"`
	Status    JobTaskStatus `json:"status" db:"status"`
	StartTime *time.Time    `json:"start_time,omitempty" db:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty" db:"end_time"`
}

type CreateJobRequest struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
	CarID      uuid.UUID `json:"car_id" validate:"required"`
}

type AddJobItemRequest struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
}

type CreateJobTaskRequest struct {
	JobItemID uuid.UUID  `json:"job_item_id" validate:"required"`
	StaffID   *uuid.UUID `json:"staff_id"`
	TaskName  string     `json:"task_name" validate:"required,max=100"`
}

type RecordPaymentRequest struct {
	JobID                *uuid.UUID      `json:"job_id"`
	InvoiceID            *uuid.UUID      `json:"invoice_id"`
	Amount               decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod        PaymentMethod   `json:"payment_method" validate:"required,oneof=CASH MOBILE_TRANSFER MOBILE_BANKING CARD OTHER"`
	TransactionReference *string         `json:"transaction_reference"`
	Notes                *string         `json:"notes"`
}
