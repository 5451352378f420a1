package qc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/washbay/washbay-api/internal/model"
	"github.com/washbay/washbay-api/internal/repository"
	"github.com/washbay/washbay-api/pkg/apperr"
)

type Service struct {
	repo    repository.QCRepository
	jobRepo repository.JobRepository
}

func NewService(repo repository.QCRepository, jobRepo repository.JobRepository) *Service {
	return &Service{repo: repo, jobRepo: jobRepo}
}

func (s *Service) CreateChecklistItem(ctx context.Context, tenantID uuid.UUID, req *model.CreateQCChecklistItemRequest) (*model.QCChecklistItem, error) {
	item := &model.QCChecklistItem{
		ServiceID: req.ServiceID,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		IsActive:  true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.TenantID = tenantID
	if err := s.repo.CreateChecklistItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) ListChecklistItems(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*model.QCChecklistItem, error) {
	return s.repo.ListChecklistItems(ctx, tenantID, activeOnly)
}

func (s *Service) DeleteChecklistItem(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteChecklistItem(ctx, tenantID, id)
}

// StartQC moves the job into QC and populates the checklist. Safe to call
// again: the existing record is returned and only missing responses are
// added, so answered items are never reset.
func (s *Service) StartQC(ctx context.Context, tenantID, jobID uuid.UUID, checkedBy *uuid.UUID) (*model.JobQCRecord, error) {
	job, err := s.jobRepo.GetWithItems(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot start QC on a %s job", job.Status))
	}

	record, err := s.repo.GetRecordByJob(ctx, tenantID, jobID)
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		return nil, err
	}
	if record == nil {
		record = &model.JobQCRecord{
			JobID:     jobID,
			CheckedBy: checkedBy,
			CheckedAt: time.Now(),
		}
		record.TenantID = tenantID
		if err := s.repo.CreateRecord(ctx, record); err != nil {
			return nil, err
		}
	}

	serviceIDs := make([]uuid.UUID, 0, len(job.Items))
	for _, item := range job.Items {
		serviceIDs = append(serviceIDs, item.ServiceID)
	}

	items, err := s.repo.ListApplicableItems(ctx, tenantID, serviceIDs)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		response := &model.QCChecklistResponse{
			QCRecordID:      record.ID,
			ChecklistItemID: item.ID,
			Checked:         false,
		}
		response.TenantID = tenantID
		if err := s.repo.CreateResponseIfAbsent(ctx, response); err != nil {
			return nil, err
		}
	}

	if job.Status != model.JobStatusQC {
		job.Status = model.JobStatusQC
		if err := s.jobRepo.Update(ctx, job); err != nil {
			return nil, err
		}
	}

	record.Responses, err = s.repo.ListResponses(ctx, tenantID, record.ID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) GetRecord(ctx context.Context, tenantID, jobID uuid.UUID) (*model.JobQCRecord, error) {
	record, err := s.repo.GetRecordByJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	record.Responses, err = s.repo.ListResponses(ctx, tenantID, record.ID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateResponses applies the given updates. An unknown response ID fails
// the whole call so a mistyped ID never goes silently unrecorded.
func (s *Service) UpdateResponses(ctx context.Context, tenantID, jobID uuid.UUID, req *model.UpdateQCResponsesRequest) (*model.JobQCRecord, error) {
	record, err := s.repo.GetRecordByJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	for _, update := range req.Updates {
		response, err := s.repo.GetResponse(ctx, tenantID, update.ID)
		if err != nil {
			return nil, err
		}
		if response.QCRecordID != record.ID {
			return nil, apperr.NotFound("checklist response")
		}
		if update.Checked != nil {
			response.Checked = *update.Checked
		}
		if update.Notes != nil {
			response.Notes = *update.Notes
		}
		if err := s.repo.UpdateResponse(ctx, response); err != nil {
			return nil, err
		}
	}

	record.Responses, err = s.repo.ListResponses(ctx, tenantID, record.ID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FinishQC closes the gate. Passing requires every checklist response to
// be checked; a pass completes the job, a fail sends it back to the floor.
func (s *Service) FinishQC(ctx context.Context, tenantID, jobID uuid.UUID, req *model.FinishQCRequest) (*model.JobQCRecord, error) {
	job, err := s.jobRepo.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusQC {
		return nil, apperr.InvalidState(fmt.Sprintf("job is %s, not in QC", job.Status))
	}

	record, err := s.repo.GetRecordByJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	responses, err := s.repo.ListResponses(ctx, tenantID, record.ID)
	if err != nil {
		return nil, err
	}
	if req.Passed {
		for _, response := range responses {
			if !response.Checked {
				return nil, apperr.InvalidState("cannot pass QC with unchecked items")
			}
		}
	}

	passed := req.Passed
	record.Passed = &passed
	record.Notes = req.Notes
	record.CheckedAt = time.Now()
	if err := s.repo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	if passed {
		now := time.Now()
		job.Status = model.JobStatusCompleted
		job.CompletedAt = &now
	} else {
		job.Status = model.JobStatusInProgress
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, err
	}

	record.Responses = responses
	return record, nil
}
