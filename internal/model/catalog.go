package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	Base
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

// CarType is a tenant-configurable vehicle class, e.g. Sedan, SUV, Truck.
type CarType struct {
	Base
	Name string `json:"name" db:"name"`
}

type Service struct {
	Base
	CategoryID      uuid.UUID       `json:"category_id" db:"category_id"`
	Name            string          `json:"name" db:"name"`
	Description     *string         `json:"description,omitempty" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
}

// ServicePrice overrides a service's base price for one car type.
// At most one override exists per (service, car_type) pair.
type ServicePrice struct {
	Base
	ServiceID       uuid.UUID       `json:"service_id" db:"service_id"`
	CarTypeID       uuid.UUID       `json:"car_type_id" db:"car_type_id"`
	CarTypeName     string          `json:"car_type_name" db:"car_type_name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DurationMinutes *int            `json:"duration_minutes,omitempty" db:"duration_minutes"`
}

type CreateServiceRequest struct {
	CategoryID      uuid.UUID       `json:"category_id" validate:"required"`
	Name            string          `json:"name" validate:"required,max=200"`
	Description     *string         `json:"description"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0"`
}

type UpdateServiceRequest struct {
	CategoryID      *uuid.UUID       `json:"category_id"`
	Name            *string          `json:"name" validate:"omitempty,max=200"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	DurationMinutes *int             `json:"duration_minutes" validate:"omitempty,gt=0"`
}

type CreateServicePriceRequest struct {
	CarTypeID       uuid.UUID       `json:"car_type_id" validate:"required"`
	Price           decimal.Decimal `json:"price" validate:"required"`
	DurationMinutes *int            `json:"duration_minutes" validate:"omitempty,gt=0"`
}
