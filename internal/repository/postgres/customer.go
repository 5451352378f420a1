package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type customerRepository struct {
	BaseRepository
}

func NewCustomerRepository(base BaseRepository) repository.CustomerRepository {
	return &customerRepository{base}
}

const customerColumns = `
	id, tenant_id, first_name, last_name, phone_number, email, address,
	is_corporate, visit_count, last_visit, created_at, updated_at
`

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return r.createTx(ctx, tx, customer)
	})
}

func (r *customerRepository) createTx(ctx context.Context, tx *sqlx.Tx, customer *model.Customer) error {
	query := `
		INSERT INTO customers (
			id, tenant_id, first_name, last_name, phone_number, email, address,
			is_corporate, visit_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	customer.ID = uuid.New()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		customer.ID,
		customer.TenantID,
		customer.FirstName,
		customer.LastName,
		customer.PhoneNumber,
		customer.Email,
		customer.Address,
		customer.IsCorporate,
		customer.VisitCount,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *customerRepository) CreateWithCar(ctx context.Context, customer *model.Customer, car *model.Car) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.createTx(ctx, tx, customer); err != nil {
			return err
		}
		car.CustomerID = customer.ID
		car.TenantID = customer.TenantID
		return r.createCarTx(ctx, tx, car)
	})
}

func (r *customerRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND tenant_id = $2`

	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("customer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, tenantID uuid.UUID, search string, p model.Pagination) ([]*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 2

	if search != "" {
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR phone_number ILIKE $%d)", argCount, argCount, argCount)
		args = append(args, "%"+search+"%")
		argCount++
	}

	query += " ORDER BY created_at DESC"
	if p.PageSize > 0 {
		offset := 0
		if p.Page > 1 {
			offset = (p.Page - 1) * p.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, p.PageSize, offset)
	}

	var customers []*model.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1, last_name = $2, phone_number = $3, email = $4,
			address = $5, is_corporate = $6, updated_at = $7
		WHERE id = $8 AND tenant_id = $9
	`
	customer.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		customer.FirstName,
		customer.LastName,
		customer.PhoneNumber,
		customer.Email,
		customer.Address,
		customer.IsCorporate,
		customer.UpdatedAt,
		customer.ID,
		customer.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("customer")
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("customer")
	}
	return nil
}

func (r *customerRepository) Search(ctx context.Context, tenantID uuid.UUID, search string) ([]*model.CustomerSearchResult, error) {
	query := `
		SELECT DISTINCT c.id, c.first_name, c.last_name, c.phone_number
		FROM customers c
		LEFT JOIN cars cr ON cr.customer_id = c.id
		WHERE c.tenant_id = $1
		AND (
			c.phone_number ILIKE $2
			OR c.first_name ILIKE $2
			OR c.last_name ILIKE $2
			OR cr.plate_number ILIKE $2
		)
		LIMIT 10
	`
	rows, err := r.db.QueryxContext(ctx, query, tenantID, "%"+search+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	var results []*model.CustomerSearchResult
	for rows.Next() {
		var id uuid.UUID
		var first, last, phone string
		if err := rows.Scan(&id, &first, &last, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &model.CustomerSearchResult{
			CustomerID:   id,
			CustomerName: first + " " + last,
			Phone:        phone,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}

	for _, res := range results {
		cars, err := r.ListCars(ctx, tenantID, res.CustomerID)
		if err != nil {
			return nil, err
		}
		res.Vehicles = cars
	}
	return results, nil
}

func (r *customerRepository) RecordVisit(ctx context.Context, tenantID, customerID uuid.UUID, at time.Time) error {
	query := `
		UPDATE customers
		SET visit_count = visit_count + 1, last_visit = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, at, time.Now(), customerID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

const carColumns = `
	id, tenant_id, customer_id, make, model, plate_number, color, year,
	car_type, created_at, updated_at
`

func (r *customerRepository) CreateCar(ctx context.Context, car *model.Car) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return r.createCarTx(ctx, tx, car)
	})
}

func (r *customerRepository) createCarTx(ctx context.Context, tx *sqlx.Tx, car *model.Car) error {
	query := `
		INSERT INTO cars (
			id, tenant_id, customer_id, make, model, plate_number, color, year,
			car_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	car.ID = uuid.New()
	car.CreatedAt = time.Now()
	car.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		car.ID,
		car.TenantID,
		car.CustomerID,
		car.Make,
		car.Model,
		car.PlateNumber,
		car.Color,
		car.Year,
		car.CarType,
		car.CreatedAt,
		car.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

func (r *customerRepository) GetCar(ctx context.Context, tenantID, id uuid.UUID) (*model.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1 AND tenant_id = $2`

	var car model.Car
	err := r.db.GetContext(ctx, &car, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("car")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return &car, nil
}

func (r *customerRepository) ListCars(ctx context.Context, tenantID, customerID uuid.UUID) ([]*model.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE customer_id = $1 AND tenant_id = $2 ORDER BY created_at`

	var cars []*model.Car
	if err := r.db.SelectContext(ctx, &cars, query, customerID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	return cars, nil
}
