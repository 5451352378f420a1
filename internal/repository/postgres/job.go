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

type jobRepository struct {
	BaseRepository
}

func NewJobRepository(base BaseRepository) repository.JobRepository {
	return &jobRepository{base}
}

const jobColumns = `
	id, tenant_id, customer_id, car_id, status, payment_method, completed_at,
	created_at, updated_at
`

func (r *jobRepository) Create(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			id, tenant_id, customer_id, car_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	job.ID = uuid.New()
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.TenantID,
		job.CustomerID,
		job.CarID,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 AND tenant_id = $2`

	var job model.Job
	err := r.db.GetContext(ctx, &job, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("job")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) GetWithItems(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	job, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	job.Items = items
	return job, nil
}

func (r *jobRepository) List(ctx context.Context, tenantID uuid.UUID, filters repository.JobFilters, p model.Pagination) ([]*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	argCount := 2

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.CustomerID != uuid.Nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argCount)
		args = append(args, filters.CustomerID)
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

	var jobs []*model.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) Update(ctx context.Context, job *model.Job) error {
	query := `
		UPDATE jobs
		SET status = $1, payment_method = $2, completed_at = $3, updated_at = $4
		WHERE id = $5 AND tenant_id = $6
	`
	job.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		job.Status,
		job.PaymentMethod,
		job.CompletedAt,
		job.UpdatedAt,
		job.ID,
		job.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("job")
	}
	return nil
}

const jobItemColumns = `
	id, tenant_id, job_id, service_id, service_name, price, created_at, updated_at
`

func (r *jobRepository) CreateItem(ctx context.Context, item *model.JobItem) error {
	query := `
		INSERT INTO job_items (
			id, tenant_id, job_id, service_id, service_name, price, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.TenantID,
		item.JobID,
		item.ServiceID,
		item.ServiceName,
		item.Price,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job item: %w", err)
	}
	return nil
}

func (r *jobRepository) ListItems(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobItem, error) {
	query := `SELECT ` + jobItemColumns + ` FROM job_items WHERE job_id = $1 AND tenant_id = $2 ORDER BY created_at`

	var items []*model.JobItem
	if err := r.db.SelectContext(ctx, &items, query, jobID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list job items: %w", err)
	}
	return items, nil
}

func (r *jobRepository) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*model.JobItem, error) {
	query := `SELECT ` + jobItemColumns + ` FROM job_items WHERE id = $1 AND tenant_id = $2`

	var item model.JobItem
	err := r.db.GetContext(ctx, &item, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("job item")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job item: %w", err)
	}
	return &item, nil
}

const jobTaskColumns = `
	id, tenant_id, job_item_id, staff_id, task_name, status, start_time, end_time,
	created_at, updated_at
`

func (r *jobRepository) CreateTask(ctx context.Context, task *model.JobTask) error {
	query := `
		INSERT INTO job_tasks (
			id, tenant_id, job_item_id, staff_id, task_name, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.TenantID,
		task.JobItemID,
		task.StaffID,
		task.TaskName,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job task: %w", err)
	}
	return nil
}

func (r *jobRepository) GetTask(ctx context.Context, tenantID, id uuid.UUID) (*model.JobTask, error) {
	query := `SELECT ` + jobTaskColumns + ` FROM job_tasks WHERE id = $1 AND tenant_id = $2`

	var task model.JobTask
	err := r.db.GetContext(ctx, &task, query, id, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *jobRepository) UpdateTask(ctx context.Context, task *model.JobTask) error {
	query := `
		UPDATE job_tasks
		SET staff_id = $1, status = $2, start_time = $3, end_time = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
	`
	task.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		task.StaffID,
		task.Status,
		task.StartTime,
		task.EndTime,
		task.UpdatedAt,
		task.ID,
		task.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("task")
	}
	return nil
}

func (r *jobRepository) ListTasksByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobTask, error) {
	query := `
		SELECT t.id, t.tenant_id, t.job_item_id, t.staff_id, t.task_name, t.status,
			   t.start_time, t.end_time, t.created_at, t.updated_at
		FROM job_tasks t
		JOIN job_items i ON i.id = t.job_item_id
		WHERE i.job_id = $1 AND t.tenant_id = $2
		ORDER BY t.created_at
	`
	var tasks []*model.JobTask
	if err := r.db.SelectContext(ctx, &tasks, query, jobID, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list job tasks: %w", err)
	}
	return tasks, nil
}

func (r *jobRepository) GetJobByTask(ctx context.Context, tenantID, taskID uuid.UUID) (*model.Job, error) {
	query := `
		SELECT j.id, j.tenant_id, j.customer_id, j.car_id, j.status, j.payment_method,
			   j.completed_at, j.created_at, j.updated_at
		FROM jobs j
		JOIN job_items i ON i.job_id = j.id
		JOIN job_tasks t ON t.job_item_id = i.id
		WHERE t.id = $1 AND j.tenant_id = $2
	`
	var job model.Job
	err := r.db.GetContext(ctx, &job, query, taskID, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("job")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job by task: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) ListCompletedInPeriod(ctx context.Context, tenantID, customerID uuid.UUID, start, end time.Time) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE tenant_id = $1 AND customer_id = $2 AND status = $3
		AND created_at >= $4 AND created_at <= $5
		ORDER BY created_at
	`
	var jobs []*model.Job
	err := r.db.SelectContext(ctx, &jobs, query, tenantID, customerID, model.JobStatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed jobs: %w", err)
	}
	if len(jobs) == 0 {
		return jobs, nil
	}

	jobIDs := make([]uuid.UUID, len(jobs))
	byID := make(map[uuid.UUID]*model.Job, len(jobs))
	for i, job := range jobs {
		jobIDs[i] = job.ID
		byID[job.ID] = job
	}

	itemQuery := `SELECT ` + jobItemColumns + ` FROM job_items WHERE tenant_id = $1 AND job_id = ANY($2) ORDER BY created_at`
	var items []*model.JobItem
	if err := r.db.SelectContext(ctx, &items, itemQuery, tenantID, pq.Array(jobIDs)); err != nil {
		return nil, fmt.Errorf("failed to list job items: %w", err)
	}
	for _, item := range items {
		if job, ok := byID[item.JobID]; ok {
			job.Items = append(job.Items, item)
		}
	}
	return jobs, nil
}
