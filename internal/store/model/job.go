package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Review job lifecycle states. A job starts as running and reaches exactly
// one terminal state; terminal jobs are never transitioned again.
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

func JobStatusIsTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// ReviewJob is one attempt to review one submission record.
//
// Details holds the append-only step records as JSON ({"steps": [...]}),
// Result holds the final verdict once the job is terminal. Only the worker
// owning the job mutates the row, except for CancelRequested which may be
// set by any authorized caller and is polled between steps.
type ReviewJob struct {
	ID              uuid.UUID `gorm:"primaryKey"`
	UserID          string    `gorm:"index;not null"`
	BaseID          string    `gorm:"not null"`
	Table           string    `gorm:"column:table_name;not null"`
	RecordID        string    `gorm:"not null"`
	Status          string    `gorm:"index;not null"`
	CurrentStep     string
	Mapping         []byte `gorm:"type:jsonb"`
	Details         []byte `gorm:"type:jsonb"`
	Result          []byte `gorm:"type:jsonb"`
	CancelRequested bool   `gorm:"not null;default:false"`
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

func (ReviewJob) TableName() string {
	return "review_jobs"
}

type ReviewJobList []ReviewJob

func (j ReviewJob) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

func NewReviewJob(userID, baseID, table, recordID string, mapping []byte) *ReviewJob {
	return &ReviewJob{
		ID:          uuid.New(),
		UserID:      userID,
		BaseID:      baseID,
		Table:       table,
		RecordID:    recordID,
		Status:      JobStatusRunning,
		CurrentStep: "Initializing",
		Mapping:     mapping,
		Details:     []byte(`{"steps":[]}`),
	}
}
