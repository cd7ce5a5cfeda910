package review

import (
	"encoding/json"
	"fmt"

	"github.com/hackvision/vision/internal/gather"
)

// Final verdict outcomes.
const (
	VerdictApproved = "Approved"
	VerdictRejected = "Rejected"
	VerdictFlagged  = "Flagged"
)

// Commit patterns the analyzer may assign.
const (
	CommitPatternConsistent = "consistent"
	CommitPatternBulk       = "bulk"
	CommitPatternSparse     = "sparse"
	CommitPatternSuspicious = "suspicious"
)

// Verdict is the final decision payload of a review job.
type Verdict struct {
	Status          string `json:"status"`
	ConfidenceScore int    `json:"confidence_score"`
	ReviewNotes     string `json:"review_notes"`
	UserFeedback    string `json:"user_feedback"`
}

// StepRecord is the result of one pipeline stage, appended in execution
// order. A stage that errored still produces a record with Error set.
type StepRecord struct {
	Name   string          `json:"name"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// JobDetails is the append-only step log stored in the job row.
type JobDetails struct {
	Steps []StepRecord `json:"steps"`
}

func (d *JobDetails) Append(record StepRecord) {
	d.Steps = append(d.Steps, record)
}

func (d *JobDetails) Marshal() []byte {
	raw, _ := json.Marshal(d)
	return raw
}

// TechnicalDetails carries the measured page signals into the project
// verdict.
type TechnicalDetails struct {
	Forms      int      `json:"forms"`
	Buttons    int      `json:"buttons"`
	Inputs     int      `json:"inputs"`
	Scripts    int      `json:"scripts"`
	Frameworks []string `json:"frameworks"`
}

// ProjectVerdict is the scored judgment of the project-test step.
type ProjectVerdict struct {
	IsWorking        bool             `json:"is_working"`
	IsLegitimate     bool             `json:"is_legitimate"`
	OriginalityScore int              `json:"originality_score" validate:"min=1,max=10"`
	QualityScore     int              `json:"quality_score" validate:"min=1,max=10"`
	RedFlags         []string         `json:"red_flags"`
	Assessment       string           `json:"assessment"`
	Features         []string         `json:"features"`
	TechnicalDetails TechnicalDetails `json:"technical_details"`
}

// CommitVerdict is the scored judgment of the commit-analysis step.
type CommitVerdict struct {
	CommitsMatchHours     bool                   `json:"commits_match_hours"`
	CommitPattern         string                 `json:"commit_pattern" validate:"oneof=consistent bulk sparse suspicious"`
	CommitQualityScore    int                    `json:"commit_quality_score" validate:"min=1,max=10"`
	CodeVolumeAppropriate bool                   `json:"code_volume_appropriate"`
	EstimatedActualHours  float64                `json:"estimated_actual_hours"`
	RedFlags              []string               `json:"red_flags"`
	Assessment            string                 `json:"assessment"`
	Metadata              *gather.CommitEvidence `json:"metadata,omitempty"`
}

// MalformedJudgmentError marks a collaborator payload that could not be
// parsed or carried out-of-range fields. It aborts the job and is not
// retried.
type MalformedJudgmentError struct {
	Reason string
	Err    error
}

func (e *MalformedJudgmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed judgment: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed judgment: %s", e.Reason)
}

func (e *MalformedJudgmentError) Unwrap() error {
	return e.Err
}

func NewMalformedJudgmentError(reason string, err error) *MalformedJudgmentError {
	return &MalformedJudgmentError{Reason: reason, Err: err}
}
