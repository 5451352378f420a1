package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type visitRepository struct {
	BaseRepository
}

func NewVisitRepository(base BaseRepository) repository.VisitRepository {
	return &visitRepository{base}
}

const visitColumns = `
	id, tenant_id, ticket_id, customer_type, customer_id, customer_name, car_id,
	car_info, car_plate, car_type, phone_number, status, subtotal, tax, tip, total,
	payment_method, payment_confirmation, notes, checked_in_at, started_at,
	completed_at, paid_at, created_at, updated_at
`

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Per-tenant serialized critical section so concurrent check-ins
		// never allocate the same ticket number.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "visit_ticket:"+visit.TenantID.String()); err != nil {
			return fmt.Errorf("failed to acquire ticket lock: %w", err)
		}

		var lastTicket sql.NullString
		err := tx.GetContext(ctx, &lastTicket, `
			SELECT ticket_id FROM visits
			WHERE tenant_id = $1 AND ticket_id LIKE 'V-%'
			ORDER BY checked_in_at DESC, created_at DESC
			LIMIT 1
		`, visit.TenantID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up last ticket: %w", err)
		}

		visit.TicketID = nextTicketID(lastTicket.String)
		visit.ID = uuid.New()
		visit.CreatedAt = time.Now()
		visit.UpdatedAt = time.Now()
		if visit.CheckedInAt.IsZero() {
			visit.CheckedInAt = visit.CreatedAt
		}

		query := `
			INSERT INTO visits (
				id, tenant_id, ticket_id, customer_type, customer_id, customer_name,
				car_id, car_info, car_plate, car_type, phone_number, status,
				subtotal, tax, tip, total, notes, checked_in_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		`
		_, err = tx.ExecContext(ctx, query,
			visit.ID,
			visit.TenantID,
			visit.TicketID,
			visit.CustomerType,
			visit.CustomerID,
			visit.CustomerName,
			visit.CarID,
			visit.CarInfo,
			visit.CarPlate,
			visit.CarType,
			visit.PhoneNumber,
			visit.Status,
			visit.Subtotal,
			visit.Tax,
			visit.Tip,
			visit.Total,
			visit.Notes,
			visit.CheckedInAt,
			visit.CreatedAt,
			visit.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return apperr.Conflict("ticket number already taken")
		}
		if err != nil {
			return fmt.Errorf("failed to create visit: %w", err)
		}
		return nil
	})
}

// nextTicketID parses the numeric suffix of the last V-NNN ticket and
// increments it; an absent or malformed last ticket restarts at 1.
func nextTicketID(last string) string {
	n := 0
	if suffix, ok := strings.CutPrefix(last, "V-"); ok {
		if parsed, err := strconv.Atoi(suffix); err == nil {
			n = parsed
		}
	}
	return fmt.Sprintf("V-%03d", n+1)
}

func (r *visitRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1 AND tenant_id = $2`

	var visit model.Visit
	err := r.db.GetContext(ctx, &visit, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("visit")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	services, err := r.ListServices(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	visit.Services = services
	return &visit, nil
}

func (r *visitRepository) List(ctx context.Context, tenantID uuid.UUID, status model.VisitStatus, p model.Pagination) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, status)
		argCount++
	}

	query += " ORDER BY checked_in_at DESC"
	if p.PageSize > 0 {
		offset := 0
		if p.Page > 1 {
			offset = (p.Page - 1) * p.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, p.PageSize, offset)
	}

	var visits []*model.Visit
	if err := r.db.SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) error {
	query := `
		UPDATE visits
		SET customer_type = $1, customer_id = $2, customer_name = $3, car_id = $4,
			car_info = $5, car_plate = $6, car_type = $7, phone_number = $8,
			status = $9, subtotal = $10, tax = $11, tip = $12, total = $13,
			payment_method = $14, payment_confirmation = $15, notes = $16,
			started_at = $17, completed_at = $18, paid_at = $19, updated_at = $20
		WHERE id = $21 AND tenant_id = $22
	`
	visit.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		visit.CustomerType,
		visit.CustomerID,
		visit.CustomerName,
		visit.CarID,
		visit.CarInfo,
		visit.CarPlate,
		visit.CarType,
		visit.PhoneNumber,
		visit.Status,
		visit.Subtotal,
		visit.Tax,
		visit.Tip,
		visit.Total,
		visit.PaymentMethod,
		visit.PaymentConfirmation,
		visit.Notes,
		visit.StartedAt,
		visit.CompletedAt,
		visit.PaidAt,
		visit.UpdatedAt,
		visit.ID,
		visit.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("visit")
	}
	return nil
}

const visitServiceColumns = `
	id, tenant_id, visit_id, service_id, service_name, price, is_addon,
	created_at, updated_at
`

func (r *visitRepository) AddService(ctx context.Context, vs *model.VisitService) error {
	query := `
		INSERT INTO visit_services (
			id, tenant_id, visit_id, service_id, service_name, price, is_addon,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	vs.ID = uuid.New()
	vs.CreatedAt = time.Now()
	vs.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		vs.ID,
		vs.TenantID,
		vs.VisitID,
		vs.ServiceID,
		vs.ServiceName,
		vs.Price,
		vs.IsAddon,
		vs.CreatedAt,
		vs.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("service already added to visit")
	}
	if err != nil {
		return fmt.Errorf("failed to add visit service: %w", err)
	}
	return nil
}

func (r *visitRepository) ListServices(ctx context.Context, tenantID, visitID uuid.UUID) ([]*model.VisitService, error) {
	query := `SELECT ` + visitServiceColumns + ` FROM visit_services WHERE visit_id = $1 AND tenant_id = $2 ORDER BY created_at`

	var services []*model.VisitService
	if err := r.db.SelectContext(ctx, &services, query, visitID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list visit services: %w", err)
	}
	return services, nil
}

func (r *visitRepository) HasService(ctx context.Context, tenantID, visitID, serviceID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM visit_services
			WHERE visit_id = $1 AND service_id = $2 AND tenant_id = $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, visitID, serviceID, tenantID); err != nil {
		return false, fmt.Errorf("failed to check visit service: %w", err)
	}
	return exists, nil
}
