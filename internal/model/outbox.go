package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types emitted by the workflow core. Consumed fire-and-forget
// by the notification collaborator.
const (
	EventReceiptCreated = "billing.receipt.created"
	EventInvoiceCreated = "billing.invoice.created"
	EventInvoiceSent    = "billing.invoice.sent"
	EventTierChanged    = "loyalty.tier.changed"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	TenantID     uuid.UUID       `db:"tenant_id" json:"tenant_id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// DocumentReadyPayload is the payload for receipt/invoice events.
type DocumentReadyPayload struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	DocumentType   string    `json:"document_type"`
	DocumentNumber string    `json:"document_number"`
	Total          string    `json:"total"`
}

// TierChangedPayload is the payload for loyalty tier change events.
type TierChangedPayload struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	OldTier     *TierName `json:"old_tier,omitempty"`
	NewTier     TierName  `json:"new_tier"`
	TotalPoints int       `json:"total_points"`
}
