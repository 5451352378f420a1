package model

import (
	"time"

	"github.com/google/uuid"
)

// QCChecklistItem is a tenant-configurable checklist entry. A nil
// ServiceID makes the item global: it applies to every job.
type QCChecklistItem struct {
	Base
	ServiceID *uuid.UUID `json:"service_id,omitempty" db:"service_id"`
	Name      string     `json:"name" db:"name"`
	SortOrder int        `json:"order" db:"sort_order"`
	IsActive  bool       `json:"is_active" db:"is_active"`
}

// JobQCRecord records QC completion for a job, one per job. Passed is
// nil until FinishQC is called.
type JobQCRecord struct {
	Base
	JobID     uuid.UUID  `json:"job_id" db:"job_id"`
	CheckedBy *uuid.UUID `json:"checked_by,omitempty" db:"checked_by"`
	CheckedAt time.Time  `json:"checked_at" db:"checked_at"`
	Passed    *bool      `json:"passed,omitempty" db:"passed"`
	Notes     *string    `json:"notes,omitempty" db:"notes"`

	Responses []*QCChecklistResponse `json:"responses,omitempty" db:"-"`
}

type QCChecklistResponse struct {
	Base
	QCRecordID      uuid.UUID `json:"qc_record_id" db:"qc_record_id"`
	ChecklistItemID uuid.UUID `json:"checklist_item_id" db:"checklist_item_id"`
	ItemName        string    `json:"item_name" db:"item_name"`
	Checked         bool      `json:"checked" db:"checked"`
	Notes           string    `json:"notes" db:"notes"`
}

type CreateQCChecklistItemRequest struct {
	ServiceID *uuid.UUID `json:"service_id"`
	Name      string     `json:"name" validate:"required,max=200"`
	SortOrder int        `json:"order"`
	IsActive  *bool      `json:"is_active"`
}

type QCResponseUpdate struct {
	ID      uuid.UUID `json:"id" validate:"required"`
	Checked *bool     `json:"checked"`
	Notes   *string   `json:"notes"`
}

type UpdateQCResponsesRequest struct {
	Updates []QCResponseUpdate `json:"updates" validate:"required,min=1,dive"`
}

type FinishQCRequest struct {
	Passed bool    `json:"passed"`
	Notes  *string `json:"notes"`
}
