package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hackvision/vision/internal/store/model"
)

// Job holds the durable state of review jobs. Mutations follow a
// single-writer-per-job discipline: only the worker executing a job calls
// AppendStep/SetTerminal for it. RequestCancel is the one exception and may
// be called by any authorized caller; workers poll CancelRequested between
// steps.
type Job interface {
	Create(ctx context.Context, job *model.ReviewJob) (*model.ReviewJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ReviewJob, error)
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.ReviewJobList, error)
	AppendStep(ctx context.Context, id uuid.UUID, currentStep string, details []byte) error
	SetTerminal(ctx context.Context, id uuid.UUID, status, currentStep string, result, details []byte) error
	RequestCancel(ctx context.Context, id uuid.UUID) error
	CancelRequested(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	InitialMigration() error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.ReviewJob{})
}

func (s *JobStore) Create(ctx context.Context, job *model.ReviewJob) (*model.ReviewJob, error) {
	result := s.getDB(ctx).Create(job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating review job: %w", result.Error)
	}
	return job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.ReviewJob, error) {
	var job model.ReviewJob
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying review job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.ReviewJobList, error) {
	tx := s.getDB(ctx).Model(&model.ReviewJob{})

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	var jobs model.ReviewJobList
	if result := tx.Find(&jobs); result.Error != nil {
		return nil, fmt.Errorf("listing review jobs: %w", result.Error)
	}
	return jobs, nil
}

// AppendStep persists the job snapshot after a pipeline step: the grown
// step list plus the progress marker. The write is what lets a job survive
// a process restart mid-pipeline.
func (s *JobStore) AppendStep(ctx context.Context, id uuid.UUID, currentStep string, details []byte) error {
	result := s.getDB(ctx).Model(&model.ReviewJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusRunning).
		Updates(map[string]any{
			"current_step": currentStep,
			"details":      details,
		})
	if result.Error != nil {
		return fmt.Errorf("updating review job steps: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStore) SetTerminal(ctx context.Context, id uuid.UUID, status, currentStep string, result, details []byte) error {
	if !model.JobStatusIsTerminal(status) {
		return fmt.Errorf("status %q is not terminal", status)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":       status,
		"current_step": currentStep,
		"details":      details,
		"completed_at": &now,
	}
	if result != nil {
		updates["result"] = result
	}

	res := s.getDB(ctx).Model(&model.ReviewJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("terminating review job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStore) RequestCancel(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Model(&model.ReviewJob{}).
		Where("id = ? AND status = ?", id, model.JobStatusRunning).
		Update("cancel_requested", true)
	if result.Error != nil {
		return fmt.Errorf("requesting job cancellation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStore) CancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	var flag bool
	result := s.getDB(ctx).Model(&model.ReviewJob{}).
		Select("cancel_requested").
		Where("id = ?", id).
		Scan(&flag)
	if result.Error != nil {
		return false, fmt.Errorf("reading cancel flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, ErrRecordNotFound
	}
	return flag, nil
}

// Delete removes a terminal job. Running jobs are protected at the store
// level as well as in the service layer.
func (s *JobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).
		Where("id = ? AND status <> ?", id, model.JobStatusRunning).
		Delete(&model.ReviewJob{})
	if result.Error != nil {
		return fmt.Errorf("deleting review job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
