package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxConfiguration is a tenant-level tax rate, e.g. 0.15 for 15% VAT.
// Only the first active configuration is consulted when billing.
type TaxConfiguration struct {
	Base
	Name     string          `json:"name" db:"name"`
	Rate     decimal.Decimal `json:"rate" db:"rate"`
	IsActive bool            `json:"is_active" db:"is_active"`
}

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

type Discount struct {
	Base
	Name         string          `json:"name" db:"name"`
	DiscountType DiscountType    `json:"discount_type" db:"discount_type"`
	Value        decimal.Decimal `json:"value" db:"value"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	ValidFrom    *time.Time      `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil   *time.Time      `json:"valid_until,omitempty" db:"valid_until"`
}

// Receipt is an immutable financial snapshot of one completed job.
// Corrections require a new adjustment entity, never an update.
type Receipt struct {
	Base
	JobID          uuid.UUID       `json:"job_id" db:"job_id"`
	ReceiptNumber  string          `json:"receipt_number" db:"receipt_number"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	Total          decimal.Decimal `json:"total" db:"total"`
	IssuedDate     time.Time       `json:"issued_date" db:"issued_date"`
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice aggregates completed jobs for one customer over a billing period.
type Invoice struct {
	Base
	CustomerID         uuid.UUID       `json:"customer_id" db:"customer_id"`
	InvoiceNumber      string          `json:"invoice_number" db:"invoice_number"`
	BillingPeriodStart time.Time       `json:"billing_period_start" db:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end" db:"billing_period_end"`
	Subtotal           decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount          decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	DiscountAmount     decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	Total              decimal.Decimal `json:"total" db:"total"`
	IssuedDate         time.Time       `json:"issued_date" db:"issued_date"`
	DueDate            time.Time       `json:"due_date" db:"due_date"`
	Status             InvoiceStatus   `json:"status" db:"status"`

	LineItems []*InvoiceLineItem `json:"line_items,omitempty" db:"-"`
}

type InvoiceLineItem struct {
	Base
	InvoiceID   uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	JobID       uuid.UUID       `json:"job_id" db:"job_id"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
}

// Payment records money received against exactly one of job or invoice.
type Payment struct {
	Base
	JobID                *uuid.UUID      `json:"job_id,omitempty" db:"job_id"`
	InvoiceID            *uuid.UUID      `json:"invoice_id,omitempty" db:"invoice_id"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod        PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentDate          time.Time       `json:"payment_date" db:"payment_date"`
	TransactionReference *string         `json:"transaction_reference,omitempty" db:"transaction_reference"`
	Notes                *string         `json:"notes,omitempty" db:"notes"`
}

type GenerateReceiptRequest struct {
	DiscountID *uuid.UUID `json:"discount_id"`
}

type GenerateInvoiceRequest struct {
	CustomerID  uuid.UUID  `json:"customer_id" validate:"required"`
	PeriodStart time.Time  `json:"period_start" validate:"required"`
	PeriodEnd   time.Time  `json:"period_end" validate:"required,gtfield=PeriodStart"`
	DiscountID  *uuid.UUID `json:"discount_id"`
}

type CreateTaxConfigurationRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Rate     decimal.Decimal `json:"rate" validate:"required"`
	IsActive *bool           `json:"is_active"`
}

type CreateDiscountRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	DiscountType DiscountType    `json:"discount_type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value        decimal.Decimal `json:"value" validate:"required"`
	IsActive     *bool           `json:"is_active"`
	ValidFrom    *time.Time      `json:"valid_from"`
	ValidUntil   *time.Time      `json:"valid_until"`
}
