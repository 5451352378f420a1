package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, tenant_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	category.ID = uuid.New()
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.TenantID, category.Name, category.Description,
		category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *catalogRepository) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]*model.Category, error) {
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM categories WHERE tenant_id = $1 ORDER BY name
	`
	var categories []*model.Category
	if err := r.db.SelectContext(ctx, &categories, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *catalogRepository) CreateCarType(ctx context.Context, carType *model.CarType) error {
	query := `
		INSERT INTO car_types (id, tenant_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	carType.ID = uuid.New()
	carType.CreatedAt = time.Now()
	carType.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		carType.ID, carType.TenantID, carType.Name, carType.CreatedAt, carType.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create car type: %w", err)
	}
	return nil
}

func (r *catalogRepository) ListCarTypes(ctx context.Context, tenantID uuid.UUID) ([]*model.CarType, error) {
	query := `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM car_types WHERE tenant_id = $1 ORDER BY name
	`
	var carTypes []*model.CarType
	if err := r.db.SelectContext(ctx, &carTypes, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list car types: %w", err)
	}
	return carTypes, nil
}

const serviceColumns = `
	id, tenant_id, category_id, name, description, price, duration_minutes,
	created_at, updated_at
`

func (r *catalogRepository) CreateService(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (
			id, tenant_id, category_id, name, description, price, duration_minutes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	service.ID = uuid.New()
	service.CreatedAt = time.Now()
	service.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		service.ID,
		service.TenantID,
		service.CategoryID,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.CreatedAt,
		service.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *catalogRepository) GetService(ctx context.Context, tenantID, id uuid.UUID) (*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1 AND tenant_id = $2`

	var service model.Service
	err := r.db.GetContext(ctx, &service, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("service")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}

func (r *catalogRepository) ListServices(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE tenant_id = $1 ORDER BY name`

	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, service *model.Service) error {
	query := `
		UPDATE services
		SET category_id = $1, name = $2, description = $3, price = $4,
			duration_minutes = $5, updated_at = $6
		WHERE id = $7 AND tenant_id = $8
	`
	service.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		service.CategoryID,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.UpdatedAt,
		service.ID,
		service.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("service")
	}
	return nil
}

func (r *catalogRepository) DeleteService(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("service")
	}
	return nil
}

func (r *catalogRepository) CreateServicePrice(ctx context.Context, price *model.ServicePrice) error {
	query := `
		INSERT INTO service_prices (
			id, tenant_id, service_id, car_type_id, price, duration_minutes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	price.ID = uuid.New()
	price.CreatedAt = time.Now()
	price.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		price.ID,
		price.TenantID,
		price.ServiceID,
		price.CarTypeID,
		price.Price,
		price.DurationMinutes,
		price.CreatedAt,
		price.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("price override already exists for this car type")
	}
	if err != nil {
		return fmt.Errorf("failed to create service price: %w", err)
	}
	return nil
}

func (r *catalogRepository) ListServicePrices(ctx context.Context, tenantID, serviceID uuid.UUID) ([]*model.ServicePrice, error) {
	query := `
		SELECT sp.id, sp.tenant_id, sp.service_id, sp.car_type_id, ct.name AS car_type_name,
			   sp.price, sp.duration_minutes, sp.created_at, sp.updated_at
		FROM service_prices sp
		JOIN car_types ct ON ct.id = sp.car_type_id
		WHERE sp.service_id = $1 AND sp.tenant_id = $2
		ORDER BY ct.name
	`
	var prices []*model.ServicePrice
	if err := r.db.SelectContext(ctx, &prices, query, serviceID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list service prices: %w", err)
	}
	return prices, nil
}

func (r *catalogRepository) GetServicePriceByCarType(ctx context.Context, tenantID, serviceID uuid.UUID, carTypeName string) (*model.ServicePrice, error) {
	query := `
		SELECT sp.id, sp.tenant_id, sp.service_id, sp.car_type_id, ct.name AS car_type_name,
			   sp.price, sp.duration_minutes, sp.created_at, sp.updated_at
		FROM service_prices sp
		JOIN car_types ct ON ct.id = sp.car_type_id
		WHERE sp.service_id = $1 AND sp.tenant_id = $2 AND LOWER(ct.name) = LOWER($3)
		LIMIT 1
	`
	var price model.ServicePrice
	err := r.db.GetContext(ctx, &price, query, serviceID, tenantID, carTypeName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service price: %w", err)
	}
	return &price, nil
}
