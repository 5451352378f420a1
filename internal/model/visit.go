package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VisitStatus string

const (
	VisitStatusCheckedIn              VisitStatus = "CHECKED_IN"
	VisitStatusInProgress             VisitStatus = "IN_PROGRESS"
	VisitStatusCompletedWaitingPickup VisitStatus = "COMPLETED_WAITING_PICKUP"
	VisitStatusPaid                   VisitStatus = "PAID"
)

type VisitCustomerType string

const (
	VisitCustomerRegistered VisitCustomerType = "REGISTERED"
	VisitCustomerGuest      VisitCustomerType = "GUEST"
)

// VisitTaxRate is the fixed tax applied to visit totals. Jobs and
// invoices use the tenant's TaxConfiguration instead; the two paths
// are intentionally kept separate pending product sign-off.
var VisitTaxRate = decimal.NewFromFloat(0.15)

// Visit is the front-desk workflow. Guest visits carry a denormalized
// snapshot of customer and car identity so no Customer/Car row is needed.
type Visit struct {
	Base
	TicketID     string            `json:"ticket_id" db:"ticket_id"`
	CustomerType VisitCustomerType `json:"customer_type" db:"customer_type"`
	CustomerID   *uuid.UUID        `json:"customer,omitempty" db:"customer_id"`
	CustomerName string            `json:"customer_name" db:"customer_name"`
	CarID        *uuid.UUID        `json:"car,omitempty" db:"car_id"`
	CarInfo      string            `json:"car_info" db:"car_info"`
	CarPlate     *string           `json:"car_plate,omitempty" db:"car_plate"`
	CarType      *string           `json:"car_type,omitempty" db:"car_type"`
	PhoneNumber  *string           `json:"phone_number,omitempty" db:"phone_number"`
	Status       VisitStatus       `json:"status" db:"status"`

	Subtotal decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax      decimal.Decimal `json:"tax" db:"tax"`
	Tip      decimal.Decimal `json:"tip" db:"tip"`
	Total    decimal.Decimal `json:"total" db:"total"`

	PaymentMethod       *PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	PaymentConfirmation *string        `json:"payment_confirmation,omitempty" db:"payment_confirmation"`
	Notes               *string        `json:"notes,omitempty" db:"notes"`

	CheckedInAt time.Time  `json:"checked_in_at" db:"checked_in_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty" db:"paid_at"`

	Services []*VisitService `json:"services,omitempty" db:"-"`
}

// VisitService is a priced service line within a visit. One line per
// (visit, service); price snapshotted at add time.
type VisitService struct {
	Base
	VisitID     uuid.UUID       `json:"visit_id" db:"visit_id"`
	ServiceID   uuid.UUID       `json:"service" db:"service_id"`
	ServiceName string          `json:"service_name" db:"service_name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	IsAddon     bool            `json:"is_addon" db:"is_addon"`
}

type CreateVisitRequest struct {
	CustomerType VisitCustomerType `json:"customer_type" validate:"required,oneof=REGISTERED GUEST"`
	CustomerID   *uuid.UUID        `json:"customer"`
	CustomerName *string           `json:"customer_name"`
	CarID        *uuid.UUID        `json:"car"`
	CarInfo      *string           `json:"car_info"`
	CarPlate     *string           `json:"car_plate"`
	CarType      *string           `json:"car_type"`
	PhoneNumber  *string           `json:"phone_number"`
}

type UpdateVisitRequest struct {
	Status *VisitStatus `json:"status" validate:"omitempty,oneof=CHECKED_IN IN_PROGRESS COMPLETED_WAITING_PICKUP PAID"`
	Notes  *string      `json:"notes"`
}

type AddVisitServicesRequest struct {
	ServiceIDs []uuid.UUID `json:"service_ids" validate:"required,min=1"`
}

type ProcessVisitPaymentRequest struct {
	PaymentMethod       PaymentMethod    `json:"payment_method" validate:"required,oneof=CASH MOBILE_TRANSFER MOBILE_BANKING CARD OTHER"`
	Tip                 *decimal.Decimal `json:"tip"`
	PaymentConfirmation *string          `json:"payment_confirmation"`
}

type ConvertToCustomerRequest struct {
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	PhoneNumber string  `json:"phone_number" validate:"required,max=20"`
	Email       *string `json:"email" validate:"omitempty,email"`
	CarMake     *string `json:"car_make"`
	CarModel    *string `json:"car_model"`
	CarColor    *string `json:"car_color"`
}

type LinkCustomerRequest struct {
	CustomerID uuid.UUID  `json:"customer_id" validate:"required"`
	CarID      *uuid.UUID `json:"car_id"`
}
