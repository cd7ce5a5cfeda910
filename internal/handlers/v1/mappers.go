package v1

import (
	"encoding/json"
	"time"

	"github.com/hackvision/vision/internal/store/model"
)

// Job is the API representation of a review job. Details and Result pass
// through as raw JSON; the store already keeps them in their wire shape.
type Job struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	BaseID      string          `json:"base_id"`
	Table       string          `json:"table"`
	RecordID    string          `json:"record_id"`
	Status      string          `json:"status"`
	CurrentStep string          `json:"current_step"`
	Details     json.RawMessage `json:"details,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func JobToApi(job *model.ReviewJob) Job {
	return Job{
		ID:          job.ID.String(),
		UserID:      job.UserID,
		BaseID:      job.BaseID,
		Table:       job.Table,
		RecordID:    job.RecordID,
		Status:      job.Status,
		CurrentStep: job.CurrentStep,
		Details:     json.RawMessage(job.Details),
		Result:      json.RawMessage(job.Result),
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}

func JobListToApi(jobs model.ReviewJobList) []Job {
	out := make([]Job, 0, len(jobs))
	for i := range jobs {
		out = append(out, JobToApi(&jobs[i]))
	}
	return out
}
