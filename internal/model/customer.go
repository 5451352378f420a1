package model

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	Base
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	PhoneNumber string     `json:"phone_number" db:"phone_number"`
	Email       *string    `json:"email,omitempty" db:"email"`
	Address     *string    `json:"address,omitempty" db:"address"`
	IsCorporate bool       `json:"is_corporate" db:"is_corporate"`
	VisitCount  int        `json:"visit_count" db:"visit_count"`
	LastVisit   *time.Time `json:"last_visit,omitempty" db:"last_visit"`
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

type Car struct {
	Base
	CustomerID  uuid.UUID `json:"customer_id" db:"customer_id"`
	Make        string    `json:"make" db:"make"`
	Model       string    `json:"model" db:"model"`
	PlateNumber string    `json:"plate_number" db:"plate_number"`
	Color       *string   `json:"color,omitempty" db:"color"`
	Year        *int      `json:"year,omitempty" db:"year"`
	CarType     *string   `json:"car_type,omitempty" db:"car_type"`
}

type CreateCustomerRequest struct {
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	PhoneNumber string  `json:"phone_number" validate:"required,max=20"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Address     *string `json:"address"`
	IsCorporate bool    `json:"is_corporate"`
	Car         *CreateCarRequest `json:"car"`
}

type UpdateCustomerRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Address     *string `json:"address"`
}

type CreateCarRequest struct {
	CustomerID  uuid.UUID `json:"customer_id"`
	Make        string    `json:"make" validate:"required,max=100"`
	Model       string    `json:"model" validate:"required,max=100"`
	PlateNumber string    `json:"plate_number" validate:"required,max=20"`
	Color       *string   `json:"color"`
	Year        *int      `json:"year"`
	CarType     *string   `json:"car_type" validate:"omitempty,max=50"`
}

// CustomerSearchResult groups a customer with their vehicles for
// the front-desk search endpoint.
type CustomerSearchResult struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Vehicles     []*Car    `json:"vehicles"`
}
