package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/internal/service/pricing"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type Service struct {
	repo         repository.JobRepository
	customerRepo repository.CustomerRepository
	pricingSvc   *pricing.Service
}

func NewService(repo repository.JobRepository, customerRepo repository.CustomerRepository, pricingSvc *pricing.Service) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		pricingSvc:   pricingSvc,
	}
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateJobRequest) (*model.Job, error) {
	if _, err := s.customerRepo.Get(ctx, tenantID, req.CustomerID); err != nil {
		return nil, err
	}
	car, err := s.customerRepo.GetCar(ctx, tenantID, req.CarID)
	if err != nil {
		return nil, err
	}
	if car.CustomerID != req.CustomerID {
		return nil, apperr.Validation("car does not belong to customer")
	}

	job := &model.Job{
		CustomerID: req.CustomerID,
		CarID:      req.CarID,
		Status:     model.JobStatusPending,
	}
	job.TenantID = tenantID
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	return s.repo.GetWithItems(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filters repository.JobFilters, p model.Pagination) ([]*model.Job, error) {
	return s.repo.List(ctx, tenantID, filters, p)
}

// AddItem attaches a service line to the job, snapshotting the price
// resolved for the job's car type. Later catalog edits never touch it.
func (s *Service) AddItem(ctx context.Context, tenantID, jobID uuid.UUID, req *model.AddJobItemRequest) (*model.JobItem, error) {
	job, err := s.repo.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot add items to a %s job", job.Status))
	}

	car, err := s.customerRepo.GetCar(ctx, tenantID, job.CarID)
	if err != nil {
		return nil, err
	}
	carType := ""
	if car.CarType != nil {
		carType = *car.CarType
	}

	resolved, err := s.pricingSvc.Resolve(ctx, tenantID, req.ServiceID, carType)
	if err != nil {
		return nil, err
	}

	item := &model.JobItem{
		JobID:       jobID,
		ServiceID:   resolved.ServiceID,
		ServiceName: resolved.ServiceName,
		Price:       resolved.Price,
	}
	item.TenantID = tenantID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) AddTask(ctx context.Context, tenantID uuid.UUID, req *model.CreateJobTaskRequest) (*model.JobTask, error) {
	item, err := s.repo.GetItem(ctx, tenantID, req.JobItemID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.Get(ctx, tenantID, item.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot add tasks to a %s job", job.Status))
	}

	task := &model.JobTask{
		JobItemID: req.JobItemID,
		StaffID:   req.StaffID,
		TaskName:  req.TaskName,
		Status:    model.JobTaskStatusPending,
	}
	task.TenantID = tenantID
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// StartTask moves the task to IN_PROGRESS and stamps its start time.
// Starting the first task of a PENDING job moves the job to IN_PROGRESS.
func (s *Service) StartTask(ctx context.Context, tenantID, taskID uuid.UUID) (*model.JobTask, error) {
	task, err := s.repo.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.JobTaskStatusPending {
		return nil, apperr.InvalidState(fmt.Sprintf("task is already %s", task.Status))
	}

	job, err := s.repo.GetJobByTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot start tasks on a %s job", job.Status))
	}

	now := time.Now()
	task.Status = model.JobTaskStatusInProgress
	task.StartTime = &now
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	if job.Status == model.JobStatusPending {
		job.Status = model.JobStatusInProgress
		if err := s.repo.Update(ctx, job); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *Service) CompleteTask(ctx context.Context, tenantID, taskID uuid.UUID) (*model.JobTask, error) {
	task, err := s.repo.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == model.JobTaskStatusDone {
		return nil, apperr.InvalidState("task is already done")
	}

	job, err := s.repo.GetJobByTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot complete tasks on a %s job", job.Status))
	}

	now := time.Now()
	if task.StartTime == nil {
		task.StartTime = &now
	}
	task.Status = model.JobTaskStatusDone
	task.EndTime = &now
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, tenantID, jobID uuid.UUID) ([]*model.JobTask, error) {
	return s.repo.ListTasksByJob(ctx, tenantID, jobID)
}

// Cancel is allowed from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, tenantID, jobID uuid.UUID) (*model.Job, error) {
	job, err := s.repo.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot cancel a %s job", job.Status))
	}

	job.Status = model.JobStatusCancelled
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}
