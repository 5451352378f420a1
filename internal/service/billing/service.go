package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/internal/service/loyalty"
	"github.com/washbay/washbay-api/pkg/apperr"
)

// invoiceDueDays is how long after issue an invoice falls due.
const invoiceDueDays = 30

type Service struct {
	repo       repository.BillingRepository
	jobRepo    repository.JobRepository
	outboxRepo repository.OutboxRepository
	loyaltySvc *loyalty.Service
}

func NewService(repo repository.BillingRepository, jobRepo repository.JobRepository, outboxRepo repository.OutboxRepository, loyaltySvc *loyalty.Service) *Service {
	return &Service{
		repo:       repo,
		jobRepo:    jobRepo,
		outboxRepo: outboxRepo,
		loyaltySvc: loyaltySvc,
	}
}

// ComputeTotals applies the discount and then taxes the discounted base.
// Percentage discounts take value as a percent of the subtotal; fixed
// discounts are capped at the subtotal so the total never goes negative.
func ComputeTotals(subtotal decimal.Decimal, discount *model.Discount, taxRate decimal.Decimal) (discountAmount, taxAmount, total decimal.Decimal) {
	discountAmount = decimal.Zero
	if discount != nil {
		switch discount.DiscountType {
		case model.DiscountTypePercentage:
			discountAmount = subtotal.Mul(discount.Value).Div(decimal.NewFromInt(100))
		case model.DiscountTypeFixed:
			discountAmount = discount.Value
			if discountAmount.GreaterThan(subtotal) {
				discountAmount = subtotal
			}
		}
	}

	taxable := subtotal.Sub(discountAmount)
	taxAmount = taxable.Mul(taxRate)
	total = taxable.Add(taxAmount)
	return discountAmount, taxAmount, total
}

func (s *Service) CreateTaxConfiguration(ctx context.Context, tenantID uuid.UUID, req *model.CreateTaxConfigurationRequest) (*model.TaxConfiguration, error) {
	cfg := &model.TaxConfiguration{
		Name:     req.Name,
		Rate:     req.Rate,
		IsActive: true,
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}
	cfg.TenantID = tenantID
	if err := s.repo.CreateTaxConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Service) ListTaxConfigurations(ctx context.Context, tenantID uuid.UUID) ([]*model.TaxConfiguration, error) {
	return s.repo.ListTaxConfigurations(ctx, tenantID)
}

func (s *Service) CreateDiscount(ctx context.Context, tenantID uuid.UUID, req *model.CreateDiscountRequest) (*model.Discount, error) {
	discount := &model.Discount{
		Name:         req.Name,
		DiscountType: req.DiscountType,
		Value:        req.Value,
		IsActive:     true,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
	}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}
	discount.TenantID = tenantID
	if err := s.repo.CreateDiscount(ctx, discount); err != nil {
		return nil, err
	}
	return discount, nil
}

func (s *Service) ListDiscounts(ctx context.Context, tenantID uuid.UUID) ([]*model.Discount, error) {
	return s.repo.ListDiscounts(ctx, tenantID)
}

// taxRate returns the tenant's active tax rate, zero when none is configured.
func (s *Service) taxRate(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	cfg, err := s.repo.GetActiveTaxConfiguration(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	if cfg == nil {
		return decimal.Zero, nil
	}
	return cfg.Rate, nil
}

func (s *Service) resolveDiscount(ctx context.Context, tenantID uuid.UUID, discountID *uuid.UUID) (*model.Discount, error) {
	if discountID == nil {
		return nil, nil
	}
	discount, err := s.repo.GetDiscount(ctx, tenantID, *discountID)
	if err != nil {
		return nil, err
	}
	if !discount.IsActive {
		return nil, apperr.InvalidState("discount is not active")
	}
	now := time.Now()
	if discount.ValidFrom != nil && now.Before(*discount.ValidFrom) {
		return nil, apperr.InvalidState("discount is not yet valid")
	}
	if discount.ValidUntil != nil && now.After(*discount.ValidUntil) {
		return nil, apperr.InvalidState("discount has expired")
	}
	return discount, nil
}

// GenerateReceipt issues the immutable financial snapshot for a completed
// job. The receipt and its notification event commit together.
func (s *Service) GenerateReceipt(ctx context.Context, tenantID, jobID uuid.UUID, req *model.GenerateReceiptRequest) (*model.Receipt, error) {
	job, err := s.jobRepo.GetWithItems(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted && job.Status != model.JobStatusPaid {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot issue a receipt for a %s job", job.Status))
	}

	subtotal := decimal.Zero
	for _, item := range job.Items {
		subtotal = subtotal.Add(item.Price)
	}

	discount, err := s.resolveDiscount(ctx, tenantID, req.DiscountID)
	if err != nil {
		return nil, err
	}
	rate, err := s.taxRate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	discountAmount, taxAmount, total := ComputeTotals(subtotal, discount, rate)

	receipt := &model.Receipt{
		JobID:          jobID,
		ReceiptNumber:  documentNumber("RCP"),
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		Total:          total,
		IssuedDate:     time.Now(),
	}
	receipt.TenantID = tenantID

	event, err := documentEvent(model.EventReceiptCreated, tenantID, job.CustomerID, "receipt", receipt.ReceiptNumber, total)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateReceipt(ctx, receipt, event); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *Service) GetReceipt(ctx context.Context, tenantID, id uuid.UUID) (*model.Receipt, error) {
	return s.repo.GetReceipt(ctx, tenantID, id)
}

func (s *Service) GetReceiptByJob(ctx context.Context, tenantID, jobID uuid.UUID) (*model.Receipt, error) {
	return s.repo.GetReceiptByJob(ctx, tenantID, jobID)
}

func (s *Service) ListReceipts(ctx context.Context, tenantID uuid.UUID, p model.Pagination) ([]*model.Receipt, error) {
	return s.repo.ListReceipts(ctx, tenantID, p)
}

// GenerateInvoice aggregates a customer's completed jobs over the billing
// period. No qualifying jobs means no invoice is created at all.
func (s *Service) GenerateInvoice(ctx context.Context, tenantID uuid.UUID, req *model.GenerateInvoiceRequest) (*model.Invoice, error) {
	jobs, err := s.jobRepo.ListCompletedInPeriod(ctx, tenantID, req.CustomerID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, apperr.NotFound("completed jobs in billing period")
	}

	subtotal := decimal.Zero
	lineItems := make([]*model.InvoiceLineItem, 0, len(jobs))
	for _, job := range jobs {
		amount := decimal.Zero
		description := fmt.Sprintf("Job %s", shortID(job.ID))
		for i, item := range job.Items {
			amount = amount.Add(item.Price)
			if i == 0 {
				description = fmt.Sprintf("Job %s: %s", shortID(job.ID), item.ServiceName)
			}
		}
		subtotal = subtotal.Add(amount)

		li := &model.InvoiceLineItem{
			JobID:       job.ID,
			Description: description,
			Amount:      amount,
		}
		li.TenantID = tenantID
		lineItems = append(lineItems, li)
	}

	discount, err := s.resolveDiscount(ctx, tenantID, req.DiscountID)
	if err != nil {
		return nil, err
	}
	rate, err := s.taxRate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	discountAmount, taxAmount, total := ComputeTotals(subtotal, discount, rate)

	now := time.Now()
	invoice := &model.Invoice{
		CustomerID:         req.CustomerID,
		BillingPeriodStart: req.PeriodStart,
		BillingPeriodEnd:   req.PeriodEnd,
		Subtotal:           subtotal,
		TaxAmount:          taxAmount,
		DiscountAmount:     discountAmount,
		Total:              total,
		IssuedDate:         now,
		DueDate:            now.AddDate(0, 0, invoiceDueDays),
		Status:             model.InvoiceStatusDraft,
	}
	invoice.TenantID = tenantID

	// The repository assigns the invoice number under a per-tenant lock,
	// so the event payload is built once the number exists.
	eventFn := func(inv *model.Invoice) (*model.OutboxEvent, error) {
		return documentEvent(model.EventInvoiceCreated, tenantID, req.CustomerID, "invoice", inv.InvoiceNumber, total)
	}
	if err := s.repo.CreateInvoice(ctx, invoice, lineItems, eventFn); err != nil {
		return nil, err
	}
	invoice.LineItems = lineItems
	return invoice, nil
}

func (s *Service) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	return s.repo.GetInvoice(ctx, tenantID, id)
}

func (s *Service) ListInvoices(ctx context.Context, tenantID uuid.UUID, status model.InvoiceStatus, p model.Pagination) ([]*model.Invoice, error) {
	return s.repo.ListInvoices(ctx, tenantID, status, p)
}

// SendInvoice moves a draft invoice to SENT and queues the notification.
func (s *Service) SendInvoice(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != model.InvoiceStatusDraft {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot send a %s invoice", invoice.Status))
	}

	if err := s.repo.UpdateInvoiceStatus(ctx, tenantID, id, model.InvoiceStatusSent); err != nil {
		return nil, err
	}
	invoice.Status = model.InvoiceStatusSent

	event, err := documentEvent(model.EventInvoiceSent, tenantID, invoice.CustomerID, "invoice", invoice.InvoiceNumber, invoice.Total)
	if err != nil {
		return nil, err
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return invoice, nil
}

// RecordPayment settles either a job or an invoice, never both. A paid
// registered customer earns loyalty points on the amount.
func (s *Service) RecordPayment(ctx context.Context, tenantID uuid.UUID, req *model.RecordPaymentRequest) (*model.Payment, error) {
	if (req.JobID == nil) == (req.InvoiceID == nil) {
		return nil, apperr.Validation("exactly one of job_id or invoice_id is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.Validation("amount must be positive")
	}

	payment := &model.Payment{
		JobID:                req.JobID,
		InvoiceID:            req.InvoiceID,
		Amount:               req.Amount,
		PaymentMethod:        req.PaymentMethod,
		PaymentDate:          time.Now(),
		TransactionReference: req.TransactionReference,
		Notes:                req.Notes,
	}
	payment.TenantID = tenantID

	var customerID uuid.UUID
	if req.JobID != nil {
		job, err := s.jobRepo.Get(ctx, tenantID, *req.JobID)
		if err != nil {
			return nil, err
		}
		if job.Status != model.JobStatusCompleted {
			return nil, apperr.InvalidState(fmt.Sprintf("cannot record payment for a %s job", job.Status))
		}
		if err := s.repo.RecordJobPayment(ctx, payment); err != nil {
			return nil, err
		}
		customerID = job.CustomerID
	} else {
		invoice, err := s.repo.GetInvoice(ctx, tenantID, *req.InvoiceID)
		if err != nil {
			return nil, err
		}
		switch invoice.Status {
		case model.InvoiceStatusPaid, model.InvoiceStatusCancelled:
			return nil, apperr.InvalidState(fmt.Sprintf("cannot record payment for a %s invoice", invoice.Status))
		}
		if err := s.repo.RecordInvoicePayment(ctx, payment); err != nil {
			return nil, err
		}
		customerID = invoice.CustomerID
	}

	// Accrual runs in its own transaction after the payment has committed.
	// An Earn failure surfaces to the caller while the payment stands;
	// missing points are recovered with a manual adjustment.
	if err := s.loyaltySvc.Earn(ctx, tenantID, customerID, req.Amount, req.JobID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context, tenantID uuid.UUID, p model.Pagination) ([]*model.Payment, error) {
	return s.repo.ListPayments(ctx, tenantID, p)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// documentNumber builds a human readable reference like RCP-202608-1A2B3C4D.
func documentNumber(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("200601"), shortID(uuid.New()))
}

func documentEvent(eventType string, tenantID, customerID uuid.UUID, docType, number string, total decimal.Decimal) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(model.DocumentReadyPayload{
		TenantID:       tenantID,
		CustomerID:     customerID,
		DocumentType:   docType,
		DocumentNumber: number,
		Total:          total.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", docType, err)
	}
	return &model.OutboxEvent{
		TenantID:  tenantID,
		EventType: eventType,
		Payload:   payload,
	}, nil
}
