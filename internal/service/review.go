package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/review"
	"github.com/hackvision/vision/internal/store"
	"github.com/hackvision/vision/internal/store/model"
)

const terminalJobsListLimit = 100

// ReviewForm is one submission record to review. Mapping overrides
// individual submission field names; blanks use the defaults.
type ReviewForm struct {
	BaseID   string              `json:"base_id"`
	Table    string              `json:"table"`
	RecordID string              `json:"record_id"`
	Mapping  review.FieldMapping `json:"mapping"`
}

// BulkReviewForm fans out one independent job per record id.
type BulkReviewForm struct {
	BaseID    string              `json:"base_id"`
	Table     string              `json:"table"`
	RecordIDs []string            `json:"record_ids"`
	Mapping   review.FieldMapping `json:"mapping"`
}

// ReviewService owns the review job lifecycle: starting jobs, fanning out
// bulk submissions and the status/cancel/delete surface. Jobs run in
// background goroutines; callers get the job id back immediately.
type ReviewService struct {
	store   store.Store
	runner  *review.Runner
	maxBulk int
}

func NewReviewService(store store.Store, runner *review.Runner, cfg *config.Config) *ReviewService {
	return &ReviewService{
		store:   store,
		runner:  runner,
		maxBulk: cfg.Review.MaxBulkRecords,
	}
}

// StartReview creates the job row and fires the pipeline. The runner gets
// a fresh background context so the job outlives the HTTP request.
func (s *ReviewService) StartReview(ctx context.Context, userID string, form ReviewForm) (*model.ReviewJob, error) {
	if form.BaseID == "" || form.Table == "" || form.RecordID == "" {
		return nil, NewErrInvalidForm("base_id, table and record_id are required")
	}

	mapping, err := json.Marshal(form.Mapping)
	if err != nil {
		return nil, fmt.Errorf("encoding field mapping: %w", err)
	}

	job, err := s.store.Job().Create(ctx, model.NewReviewJob(userID, form.BaseID, form.Table, form.RecordID, mapping))
	if err != nil {
		return nil, err
	}

	go s.runner.Run(context.Background(), job)

	return job, nil
}

// BulkReview starts one independent job per record. The job rows are
// created in a single transaction so a bulk request is all-or-nothing;
// runners start only after commit. Records are not deduplicated and jobs
// for the same record may run concurrently; the decision rules keep the
// outcome safe either way.
func (s *ReviewService) BulkReview(ctx context.Context, userID string, form BulkReviewForm) ([]model.ReviewJob, error) {
	if form.BaseID == "" || form.Table == "" || len(form.RecordIDs) == 0 {
		return nil, NewErrInvalidForm("base_id, table and at least one record_id are required")
	}
	if len(form.RecordIDs) > s.maxBulk {
		return nil, NewErrTooManyRecords(len(form.RecordIDs), s.maxBulk)
	}

	mapping, err := json.Marshal(form.Mapping)
	if err != nil {
		return nil, fmt.Errorf("encoding field mapping: %w", err)
	}

	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]model.ReviewJob, 0, len(form.RecordIDs))
	for _, recordID := range form.RecordIDs {
		job, err := s.store.Job().Create(txCtx, model.NewReviewJob(userID, form.BaseID, form.Table, recordID, mapping))
		if err != nil {
			zap.S().Named("service").Errorw("failed to create bulk review job", "record_id", recordID, "error", err)
			if _, rbErr := store.Rollback(txCtx); rbErr != nil {
				zap.S().Named("service").Errorw("failed to rollback bulk review", "error", rbErr)
			}
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}

	for i := range jobs {
		job := jobs[i]
		go s.runner.Run(context.Background(), &job)
	}
	return jobs, nil
}

func (s *ReviewService) GetJob(ctx context.Context, userID string, id uuid.UUID) (*model.ReviewJob, error) {
	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	if job.UserID != userID {
		return nil, NewErrJobAccessForbidden(id)
	}
	return job, nil
}

// ListJobs returns the user's running jobs plus their most recent terminal
// jobs, newest first.
func (s *ReviewService) ListJobs(ctx context.Context, userID string) (model.ReviewJobList, error) {
	running, err := s.store.Job().List(ctx,
		store.NewJobQueryFilter().ByUserID(userID).ByStatus(model.JobStatusRunning),
		store.NewJobQueryOptions().WithSortOrder(store.SortByNewest))
	if err != nil {
		return nil, err
	}

	terminal, err := s.store.Job().List(ctx,
		store.NewJobQueryFilter().ByUserID(userID).ByStatuses([]string{
			model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled,
		}),
		store.NewJobQueryOptions().WithSortOrder(store.SortByNewest).WithLimit(terminalJobsListLimit))
	if err != nil {
		return nil, err
	}

	return append(running, terminal...), nil
}

// Cancel sets the job's cancel flag. The owning worker observes it before
// its next step; an already terminal job cannot be cancelled.
func (s *ReviewService) Cancel(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.GetJob(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.Job().RequestCancel(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobNotRunning(id)
		}
		return err
	}
	return nil
}

// DeleteJob removes a terminal job. Running jobs are rejected.
func (s *ReviewService) DeleteJob(ctx context.Context, userID string, id uuid.UUID) error {
	job, err := s.GetJob(ctx, userID, id)
	if err != nil {
		return err
	}
	if job.Status == model.JobStatusRunning {
		return NewErrJobRunning(id)
	}

	if err := s.store.Job().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobRunning(id)
		}
		return err
	}
	return nil
}
