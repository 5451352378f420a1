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

type billingRepository struct {
	BaseRepository
}

func NewBillingRepository(base BaseRepository) repository.BillingRepository {
	return &billingRepository{base}
}

func (r *billingRepository) CreateTaxConfiguration(ctx context.Context, cfg *model.TaxConfiguration) error {
	query := `
		INSERT INTO tax_configurations (
			id, tenant_id, name, rate, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	cfg.ID = uuid.New()
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		cfg.ID, cfg.TenantID, cfg.Name, cfg.Rate, cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tax configuration: %w", err)
	}
	return nil
}

func (r *billingRepository) ListTaxConfigurations(ctx context.Context, tenantID uuid.UUID) ([]*model.TaxConfiguration, error) {
	query := `
		SELECT id, tenant_id, name, rate, is_active, created_at, updated_at
		FROM tax_configurations WHERE tenant_id = $1 ORDER BY created_at
	`
	var configs []*model.TaxConfiguration
	if err := r.db.SelectContext(ctx, &configs, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list tax configurations: %w", err)
	}
	return configs, nil
}

func (r *billingRepository) GetActiveTaxConfiguration(ctx context.Context, tenantID uuid.UUID) (*model.TaxConfiguration, error) {
	query := `
		SELECT id, tenant_id, name, rate, is_active, created_at, updated_at
		FROM tax_configurations
		WHERE tenant_id = $1 AND is_active = TRUE
		ORDER BY created_at
		LIMIT 1
	`
	var cfg model.TaxConfiguration
	err := r.db.GetContext(ctx, &cfg, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active tax configuration: %w", err)
	}
	return &cfg, nil
}

const discountColumns = `
	id, tenant_id, name, discount_type, value, is_active, valid_from, valid_until,
	created_at, updated_at
`

func (r *billingRepository) CreateDiscount(ctx context.Context, discount *model.Discount) error {
	query := `
		INSERT INTO discounts (
			id, tenant_id, name, discount_type, value, is_active, valid_from,
			valid_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	discount.ID = uuid.New()
	discount.CreatedAt = time.Now()
	discount.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		discount.ID,
		discount.TenantID,
		discount.Name,
		discount.DiscountType,
		discount.Value,
		discount.IsActive,
		discount.ValidFrom,
		discount.ValidUntil,
		discount.CreatedAt,
		discount.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create discount: %w", err)
	}
	return nil
}

func (r *billingRepository) GetDiscount(ctx context.Context, tenantID, id uuid.UUID) (*model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1 AND tenant_id = $2`

	var discount model.Discount
	err := r.db.GetContext(ctx, &discount, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("discount")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	return &discount, nil
}

func (r *billingRepository) ListDiscounts(ctx context.Context, tenantID uuid.UUID) ([]*model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE tenant_id = $1 ORDER BY created_at`

	var discounts []*model.Discount
	if err := r.db.SelectContext(ctx, &discounts, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	return discounts, nil
}

const receiptColumns = `
	id, tenant_id, job_id, receipt_number, subtotal, tax_amount, discount_amount,
	total, issued_date, created_at, updated_at
`

func (r *billingRepository) CreateReceipt(ctx context.Context, receipt *model.Receipt, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO receipts (
				id, tenant_id, job_id, receipt_number, subtotal, tax_amount,
				discount_amount, total, issued_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		receipt.ID = uuid.New()
		receipt.CreatedAt = time.Now()
		receipt.UpdatedAt = time.Now()
		if receipt.IssuedDate.IsZero() {
			receipt.IssuedDate = receipt.CreatedAt
		}

		_, err := tx.ExecContext(ctx, query,
			receipt.ID,
			receipt.TenantID,
			receipt.JobID,
			receipt.ReceiptNumber,
			receipt.Subtotal,
			receipt.TaxAmount,
			receipt.DiscountAmount,
			receipt.Total,
			receipt.IssuedDate,
			receipt.CreatedAt,
			receipt.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return apperr.Conflict("receipt already exists for job")
		}
		if err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}

		if event != nil {
			if err := createOutboxEventTx(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *billingRepository) GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*model.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1 AND tenant_id = $2`

	var receipt model.Receipt
	err := r.db.GetContext(ctx, &receipt, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("receipt")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (r *billingRepository) GetReceiptByJob(ctx context.Context, tenantID, jobID uuid.UUID) (*model.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE job_id = $1 AND tenant_id = $2`

	var receipt model.Receipt
	err := r.db.GetContext(ctx, &receipt, query, jobID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("receipt")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return &receipt, nil
}

func (r *billingRepository) ListReceipts(ctx context.Context, tenantID uuid.UUID, p model.Pagination) ([]*model.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE tenant_id = $1 ORDER BY issued_date DESC`
	args := []interface{}{tenantID}

	if p.PageSize > 0 {
		offset := 0
		if p.Page > 1 {
			offset = (p.Page - 1) * p.PageSize
		}
		query += " LIMIT $2 OFFSET $3"
		args = append(args, p.PageSize, offset)
	}

	var receipts []*model.Receipt
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, nil
}

const invoiceColumns = `
	id, tenant_id, customer_id, invoice_number, billing_period_start,
	billing_period_end, subtotal, tax_amount, discount_amount, total,
	issued_date, due_date, status, created_at, updated_at
`

func (r *billingRepository) CreateInvoice(ctx context.Context, invoice *model.Invoice, items []*model.InvoiceLineItem, eventFn repository.InvoiceEventFunc) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Per-tenant serialized critical section so concurrent generations
		// never read the same invoice count.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "invoice_number:"+invoice.TenantID.String()); err != nil {
			return fmt.Errorf("failed to acquire invoice number lock: %w", err)
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices WHERE tenant_id = $1`, invoice.TenantID); err != nil {
			return fmt.Errorf("failed to count invoices: %w", err)
		}

		invoice.ID = uuid.New()
		invoice.CreatedAt = time.Now()
		invoice.UpdatedAt = time.Now()
		if invoice.IssuedDate.IsZero() {
			invoice.IssuedDate = invoice.CreatedAt
		}
		invoice.InvoiceNumber = fmt.Sprintf("INV-%s-%03d", invoice.IssuedDate.Format("200601"), count+1)

		query := `
			INSERT INTO invoices (
				id, tenant_id, customer_id, invoice_number, billing_period_start,
				billing_period_end, subtotal, tax_amount, discount_amount, total,
				issued_date, due_date, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`

		_, err := tx.ExecContext(ctx, query,
			invoice.ID,
			invoice.TenantID,
			invoice.CustomerID,
			invoice.InvoiceNumber,
			invoice.BillingPeriodStart,
			invoice.BillingPeriodEnd,
			invoice.Subtotal,
			invoice.TaxAmount,
			invoice.DiscountAmount,
			invoice.Total,
			invoice.IssuedDate,
			invoice.DueDate,
			invoice.Status,
			invoice.CreatedAt,
			invoice.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return apperr.Conflict("invoice number already taken")
		}
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		itemQuery := `
			INSERT INTO invoice_line_items (
				id, tenant_id, invoice_id, job_id, description, amount, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, item := range items {
			item.ID = uuid.New()
			item.InvoiceID = invoice.ID
			item.TenantID = invoice.TenantID
			item.CreatedAt = time.Now()
			item.UpdatedAt = time.Now()

			_, err := tx.ExecContext(ctx, itemQuery,
				item.ID,
				item.TenantID,
				item.InvoiceID,
				item.JobID,
				item.Description,
				item.Amount,
				item.CreatedAt,
				item.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create invoice line item: %w", err)
			}
		}

		if eventFn != nil {
			event, err := eventFn(invoice)
			if err != nil {
				return err
			}
			if event != nil {
				if err := createOutboxEventTx(ctx, tx, event); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *billingRepository) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND tenant_id = $2`

	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("invoice")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	itemQuery := `
		SELECT id, tenant_id, invoice_id, job_id, description, amount, created_at, updated_at
		FROM invoice_line_items
		WHERE invoice_id = $1 AND tenant_id = $2
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &invoice.LineItems, itemQuery, id, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list invoice line items: %w", err)
	}
	return &invoice, nil
}

func (r *billingRepository) ListInvoices(ctx context.Context, tenantID uuid.UUID, status model.InvoiceStatus, p model.Pagination) ([]*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, status)
		argCount++
	}

	query += " ORDER BY issued_date DESC"
	if p.PageSize > 0 {
		offset := 0
		if p.Page > 1 {
			offset = (p.Page - 1) * p.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, p.PageSize, offset)
	}

	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

func (r *billingRepository) UpdateInvoiceStatus(ctx context.Context, tenantID, id uuid.UUID, status model.InvoiceStatus) error {
	query := `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("invoice")
	}
	return nil
}

func (r *billingRepository) RecordJobPayment(ctx context.Context, payment *model.Payment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := createPaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		query := `
			UPDATE jobs SET status = $1, payment_method = $2, updated_at = $3
			WHERE id = $4 AND tenant_id = $5
		`
		result, err := tx.ExecContext(ctx, query,
			model.JobStatusPaid, payment.PaymentMethod, time.Now(),
			payment.JobID, payment.TenantID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark job paid: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperr.NotFound("job")
		}
		return nil
	})
}

func (r *billingRepository) RecordInvoicePayment(ctx context.Context, payment *model.Payment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := createPaymentTx(ctx, tx, payment); err != nil {
			return err
		}
		query := `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`
		result, err := tx.ExecContext(ctx, query,
			model.InvoiceStatusPaid, time.Now(), payment.InvoiceID, payment.TenantID,
		)
		if err != nil {
			return fmt.Errorf("failed to mark invoice paid: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperr.NotFound("invoice")
		}
		return nil
	})
}

func createPaymentTx(ctx context.Context, tx *sqlx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, tenant_id, job_id, invoice_id, amount, payment_method, payment_date,
			transaction_reference, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = payment.CreatedAt
	}

	_, err := tx.ExecContext(ctx, query,
		payment.ID,
		payment.TenantID,
		payment.JobID,
		payment.InvoiceID,
		payment.Amount,
		payment.PaymentMethod,
		payment.PaymentDate,
		payment.TransactionReference,
		payment.Notes,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *billingRepository) ListPayments(ctx context.Context, tenantID uuid.UUID, p model.Pagination) ([]*model.Payment, error) {
	query := `
		SELECT id, tenant_id, job_id, invoice_id, amount, payment_method, payment_date,
			   transaction_reference, notes, created_at, updated_at
		FROM payments WHERE tenant_id = $1 ORDER BY payment_date DESC
	`
	args := []interface{}{tenantID}

	if p.PageSize > 0 {
		offset := 0
		if p.Page > 1 {
			offset = (p.Page - 1) * p.PageSize
		}
		query += " LIMIT $2 OFFSET $3"
		args = append(args, p.PageSize, offset)
	}

	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
