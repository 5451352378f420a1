package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type qcRepository struct {
	BaseRepository
}

func NewQCRepository(base BaseRepository) repository.QCRepository {
	return &qcRepository{base}
}

const checklistItemColumns = `
	id, tenant_id, service_id, name, sort_order, is_active, created_at, updated_at
`

func (r *qcRepository) CreateChecklistItem(ctx context.Context, item *model.QCChecklistItem) error {
	query := `
		INSERT INTO qc_checklist_items (
			id, tenant_id, service_id, name, sort_order, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.TenantID,
		item.ServiceID,
		item.Name,
		item.SortOrder,
		item.IsActive,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create checklist item: %w", err)
	}
	return nil
}

func (r *qcRepository) ListChecklistItems(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*model.QCChecklistItem, error) {
	query := `SELECT ` + checklistItemColumns + ` FROM qc_checklist_items WHERE tenant_id = $1`
	if activeOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY sort_order, name"

	var items []*model.QCChecklistItem
	if err := r.db.SelectContext(ctx, &items, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	return items, nil
}

func (r *qcRepository) UpdateChecklistItem(ctx context.Context, item *model.QCChecklistItem) error {
	query := `
		UPDATE qc_checklist_items
		SET service_id = $1, name = $2, sort_order = $3, is_active = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
	`
	item.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		item.ServiceID, item.Name, item.SortOrder, item.IsActive, item.UpdatedAt,
		item.ID, item.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update checklist item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("checklist item")
	}
	return nil
}

func (r *qcRepository) DeleteChecklistItem(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM qc_checklist_items WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete checklist item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("checklist item")
	}
	return nil
}

func (r *qcRepository) ListApplicableItems(ctx context.Context, tenantID uuid.UUID, serviceIDs []uuid.UUID) ([]*model.QCChecklistItem, error) {
	query := `
		SELECT DISTINCT ` + checklistItemColumns + `
		FROM qc_checklist_items
		WHERE tenant_id = $1 AND is_active = TRUE
		AND (service_id IS NULL OR service_id = ANY($2))
		ORDER BY sort_order, name
	`
	var items []*model.QCChecklistItem
	if err := r.db.SelectContext(ctx, &items, query, tenantID, pq.Array(serviceIDs)); err != nil {
		return nil, fmt.Errorf("failed to list applicable checklist items: %w", err)
	}
	return items, nil
}

const qcRecordColumns = `
	id, tenant_id, job_id, checked_by, checked_at, passed, notes, created_at, updated_at
`

func (r *qcRepository) GetRecordByJob(ctx context.Context, tenantID, jobID uuid.UUID) (*model.JobQCRecord, error) {
	query := `SELECT ` + qcRecordColumns + ` FROM job_qc_records WHERE job_id = $1 AND tenant_id = $2`

	var record model.JobQCRecord
	err := r.db.GetContext(ctx, &record, query, jobID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("qc record")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get qc record: %w", err)
	}
	return &record, nil
}

func (r *qcRepository) CreateRecord(ctx context.Context, record *model.JobQCRecord) error {
	query := `
		INSERT INTO job_qc_records (
			id, tenant_id, job_id, checked_by, checked_at, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	if record.CheckedAt.IsZero() {
		record.CheckedAt = record.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.TenantID,
		record.JobID,
		record.CheckedBy,
		record.CheckedAt,
		record.Notes,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("qc record already exists for job")
	}
	if err != nil {
		return fmt.Errorf("failed to create qc record: %w", err)
	}
	return nil
}

func (r *qcRepository) UpdateRecord(ctx context.Context, record *model.JobQCRecord) error {
	query := `
		UPDATE job_qc_records
		SET checked_by = $1, passed = $2, notes = $3, updated_at = $4
		WHERE id = $5 AND tenant_id = $6
	`
	record.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		record.CheckedBy, record.Passed, record.Notes, record.UpdatedAt,
		record.ID, record.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update qc record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("qc record")
	}
	return nil
}

func (r *qcRepository) CreateResponseIfAbsent(ctx context.Context, response *model.QCChecklistResponse) error {
	query := `
		INSERT INTO qc_checklist_responses (
			id, tenant_id, qc_record_id, checklist_item_id, checked, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (qc_record_id, checklist_item_id) DO NOTHING
	`
	response.ID = uuid.New()
	response.CreatedAt = time.Now()
	response.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		response.ID,
		response.TenantID,
		response.QCRecordID,
		response.ChecklistItemID,
		response.Checked,
		response.Notes,
		response.CreatedAt,
		response.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create checklist response: %w", err)
	}
	return nil
}

const qcResponseColumns = `
	r.id, r.tenant_id, r.qc_record_id, r.checklist_item_id, i.name AS item_name,
	r.checked, r.notes, r.created_at, r.updated_at
`

func (r *qcRepository) ListResponses(ctx context.Context, tenantID, recordID uuid.UUID) ([]*model.QCChecklistResponse, error) {
	query := `
		SELECT ` + qcResponseColumns + `
		FROM qc_checklist_responses r
		JOIN qc_checklist_items i ON i.id = r.checklist_item_id
		WHERE r.qc_record_id = $1 AND r.tenant_id = $2
		ORDER BY i.sort_order, i.name
	`
	var responses []*model.QCChecklistResponse
	if err := r.db.SelectContext(ctx, &responses, query, recordID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list checklist responses: %w", err)
	}
	return responses, nil
}

func (r *qcRepository) GetResponse(ctx context.Context, tenantID, id uuid.UUID) (*model.QCChecklistResponse, error) {
	query := `
		SELECT ` + qcResponseColumns + `
		FROM qc_checklist_responses r
		JOIN qc_checklist_items i ON i.id = r.checklist_item_id
		WHERE r.id = $1 AND r.tenant_id = $2
	`
	var response model.QCChecklistResponse
	err := r.db.GetContext(ctx, &response, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("checklist response")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist response: %w", err)
	}
	return &response, nil
}

func (r *qcRepository) UpdateResponse(ctx context.Context, response *model.QCChecklistResponse) error {
	query := `
		UPDATE qc_checklist_responses
		SET checked = $1, notes = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5
	`
	response.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		response.Checked, response.Notes, response.UpdatedAt,
		response.ID, response.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update checklist response: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("checklist response")
	}
	return nil
}
