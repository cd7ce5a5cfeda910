package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hackvision/vision/internal/airtable"
	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/gather"
	"github.com/hackvision/vision/internal/store"
	"github.com/hackvision/vision/internal/store/model"
	"github.com/hackvision/vision/pkg/metrics"
)

// Pipeline step names, in execution order. They double as the job's
// current_step progress marker.
const (
	StepFetchRecord    = "fetch_record"
	StepURLValidation  = "url_validation"
	StepDuplicateCheck = "duplicate_check"
	StepProjectTest    = "project_test"
	StepCommitAnalysis = "commit_analysis"
	StepFinalDecision  = "final_decision"
)

// Step record statuses.
const (
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
)

// FieldMapping names the submission record's fields the pipeline reads
// and writes. Callers may override any of them per request; blanks fall
// back to the defaults.
type FieldMapping struct {
	CodeURL      string `json:"code_url,omitempty"`
	PlayableURL  string `json:"playable_url,omitempty"`
	ClaimedHours string `json:"claimed_hours,omitempty"`
	Description  string `json:"description,omitempty"`
	ReviewNotes  string `json:"review_notes,omitempty"`
	UserFeedback string `json:"user_feedback,omitempty"`
	ReviewTag    string `json:"review_tag,omitempty"`
}

func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		CodeURL:      "Code URL",
		PlayableURL:  "Playable URL",
		ClaimedHours: "Hackatime Hours",
		Description:  "Description",
		ReviewNotes:  "Review Notes",
		UserFeedback: "Feedback",
		ReviewTag:    "Review Tag",
	}
}

// WithDefaults fills blank field names from DefaultFieldMapping.
func (m FieldMapping) WithDefaults() FieldMapping {
	defaults := DefaultFieldMapping()
	if m.CodeURL == "" {
		m.CodeURL = defaults.CodeURL
	}
	if m.PlayableURL == "" {
		m.PlayableURL = defaults.PlayableURL
	}
	if m.ClaimedHours == "" {
		m.ClaimedHours = defaults.ClaimedHours
	}
	if m.Description == "" {
		m.Description = defaults.Description
	}
	if m.ReviewNotes == "" {
		m.ReviewNotes = defaults.ReviewNotes
	}
	if m.UserFeedback == "" {
		m.UserFeedback = defaults.UserFeedback
	}
	if m.ReviewTag == "" {
		m.ReviewTag = defaults.ReviewTag
	}
	return m
}

// Runner executes one review job end to end. It is the only writer of the
// job's row while the job runs; cancellation arrives through the store's
// cancel flag, polled between steps.
type Runner struct {
	store    store.Store
	airtable airtable.Client
	checker  *gather.DuplicateChecker
	content  *gather.ContentFetcher
	commits  *gather.CommitFetcher
	tester   *ProjectTester
	analyzer *CommitAnalyzer
	narrator *Narrator
	policy   *config.ReviewPolicy

	writebackTimeout time.Duration
	log              *zap.SugaredLogger
}

func NewRunner(
	st store.Store,
	at airtable.Client,
	checker *gather.DuplicateChecker,
	content *gather.ContentFetcher,
	commits *gather.CommitFetcher,
	tester *ProjectTester,
	analyzer *CommitAnalyzer,
	narrator *Narrator,
	cfg *config.Config,
) *Runner {
	return &Runner{
		store:            st,
		airtable:         at,
		checker:          checker,
		content:          content,
		commits:          commits,
		tester:           tester,
		analyzer:         analyzer,
		narrator:         narrator,
		policy:           cfg.Review,
		writebackTimeout: cfg.Airtable.Timeout,
		log:              zap.S().Named("runner"),
	}
}

// run carries the per-job mutable state so each step helper stays small.
type run struct {
	job      *model.ReviewJob
	mapping  FieldMapping
	details  JobDetails
	lastStep string
	log      *zap.SugaredLogger
}

// Run drives a review job through the pipeline: url validation, duplicate
// check, project test, commit analysis, final decision. The cancel flag is
// checked before every step; the step log is persisted after every step so
// a crash leaves the job inspectable mid-pipeline. Run never returns an
// error: every outcome ends in a terminal job row.
func (r *Runner) Run(ctx context.Context, job *model.ReviewJob) {
	var mapping FieldMapping
	if len(job.Mapping) > 0 {
		if err := json.Unmarshal(job.Mapping, &mapping); err != nil {
			r.log.Warnw("ignoring unreadable field mapping", "job_id", job.ID.String(), "error", err)
		}
	}

	rn := &run{
		job:      job,
		mapping:  mapping.WithDefaults(),
		details:  JobDetails{Steps: []StepRecord{}},
		lastStep: job.CurrentStep,
		log:      r.log.With("job_id", job.ID.String(), "record_id", job.RecordID),
	}
	rn.log.Info("starting review job")
	metrics.IncreaseReviewJobsStartedMetric()

	record, err := r.airtable.GetRecord(ctx, job.BaseID, job.Table, job.RecordID)
	if err != nil {
		r.failJob(ctx, rn, StepFetchRecord, fmt.Errorf("fetching submission record: %w", err))
		return
	}

	codeURL := record.StringField(rn.mapping.CodeURL)
	playableURL := record.StringField(rn.mapping.PlayableURL)
	claimedHours := record.NumberField(rn.mapping.ClaimedHours)
	description := record.StringField(rn.mapping.Description)

	// Step 1: url validation. A non-GitHub code URL terminates the job as
	// completed/Flagged without running any further step.
	if r.finishedByCancel(ctx, rn, StepURLValidation) {
		return
	}
	started := time.Now()
	isGitHub := gather.IsGitHubURL(codeURL)
	canonicalURL := gather.CanonicalGitHubURL(codeURL)
	r.appendStep(ctx, rn, StepURLValidation, started, map[string]any{
		"is_github": isGitHub,
		"code_url":  canonicalURL,
	}, nil)
	if !isGitHub {
		verdict := &Verdict{
			Status:          VerdictFlagged,
			ConfidenceScore: 10,
			ReviewNotes:     fmt.Sprintf("Code URL %q is not a GitHub repository link; commit history cannot be verified.", codeURL),
			UserFeedback:    "I couldn't find a GitHub repo in your Code URL field. I need a GitHub link so I can look at your commits and code. If your code lives somewhere else, please upload it to GitHub and resubmit!",
		}
		r.completeJob(ctx, rn, StepURLValidation, verdict)
		return
	}

	// Step 2: duplicate check. Registry errors are soft: the job continues
	// treating the submission as non-duplicate, with the error on record.
	if r.finishedByCancel(ctx, rn, StepDuplicateCheck) {
		return
	}
	started = time.Now()
	isDuplicate, dupErr := r.checker.IsDuplicate(ctx, canonicalURL, playableURL)
	if dupErr != nil {
		isDuplicate = false
	}
	r.appendStep(ctx, rn, StepDuplicateCheck, started, map[string]any{
		"is_duplicate": isDuplicate,
		"code_url":     canonicalURL,
		"playable_url": playableURL,
	}, dupErr)

	// Step 3: project test. Video demos and app submissions skip web
	// testing with a neutral verdict; an unreachable live site ends the
	// job as Flagged for human review instead of counting against it.
	if r.finishedByCancel(ctx, rn, StepProjectTest) {
		return
	}
	started = time.Now()
	var project *ProjectVerdict
	if gather.IsVideoOrAppURL(playableURL) {
		project = AppDemoVerdict()
		r.appendStep(ctx, rn, StepProjectTest, started, project, nil)
	} else {
		page, fetchErr := r.content.Fetch(ctx, playableURL)
		if fetchErr != nil {
			r.appendStep(ctx, rn, StepProjectTest, started, nil, fetchErr)
			r.completeJob(ctx, rn, StepProjectTest, unreachableSiteVerdict(playableURL, fetchErr))
			return
		}
		project, err = r.tester.Evaluate(ctx, page, description)
		if err != nil {
			r.failJob(ctx, rn, StepProjectTest, err)
			return
		}
		r.appendStep(ctx, rn, StepProjectTest, started, project, nil)
	}

	// Step 4: commit analysis. An unreadable repository yields empty
	// evidence; the analyzer then short-circuits to its no-commits verdict.
	if r.finishedByCancel(ctx, rn, StepCommitAnalysis) {
		return
	}
	started = time.Now()
	hasRepo := false
	var evidence *gather.CommitEvidence
	var commitErr error
	if owner, repo, ok := gather.OwnerRepo(canonicalURL); ok {
		exists, existsErr := r.commits.RepoExists(ctx, owner, repo)
		commitErr = existsErr
		if existsErr == nil && exists {
			hasRepo = true
			evidence, commitErr = r.commits.Fetch(ctx, owner, repo)
			if commitErr != nil {
				evidence = nil
			}
		}
	}
	commitVerdict, err := r.analyzer.Evaluate(ctx, evidence, claimedHours)
	if err != nil {
		r.failJob(ctx, rn, StepCommitAnalysis, err)
		return
	}
	r.appendStep(ctx, rn, StepCommitAnalysis, started, commitVerdict, commitErr)

	// Step 5: final decision and narrative.
	if r.finishedByCancel(ctx, rn, StepFinalDecision) {
		return
	}
	started = time.Now()
	outcome := Decide(DecisionInput{
		IsDuplicate:  isDuplicate,
		Project:      project,
		Commits:      commitVerdict,
		HasRepo:      hasRepo,
		HasCommits:   evidence != nil && evidence.TotalCommits > 0,
		ClaimedHours: claimedHours,
	}, r.policy)
	verdict, err := r.narrator.Narrate(ctx, outcome, project, commitVerdict, claimedHours)
	if err != nil {
		r.failJob(ctx, rn, StepFinalDecision, err)
		return
	}
	r.appendStep(ctx, rn, StepFinalDecision, started, verdict, nil)
	r.completeJob(ctx, rn, StepFinalDecision, verdict)
}

// appendStep records a step outcome and persists the grown snapshot.
// softErr, when set, marks an absorbed external failure; the record keeps
// the error text while the pipeline moves on.
func (r *Runner) appendStep(ctx context.Context, rn *run, name string, started time.Time, result any, softErr error) {
	record := StepRecord{Name: name, Status: StepStatusCompleted}
	if result != nil {
		raw, err := json.Marshal(result)
		if err == nil {
			record.Result = raw
		}
	}
	if softErr != nil {
		record.Error = softErr.Error()
		rn.log.Warnw("step absorbed an external failure", "step", name, "error", softErr)
	}
	rn.details.Append(record)

	if err := r.store.Job().AppendStep(ctx, rn.job.ID, name, rn.details.Marshal()); err != nil {
		rn.log.Errorw("failed to persist step snapshot", "step", name, "error", err)
	}
	rn.lastStep = name
	metrics.ObserveReviewStepDurationMetric(name, time.Since(started))
}

// finishedByCancel polls the cancel flag before a step. A set flag moves
// the job to cancelled with the steps recorded so far and no verdict.
func (r *Runner) finishedByCancel(ctx context.Context, rn *run, nextStep string) bool {
	requested, err := r.store.Job().CancelRequested(ctx, rn.job.ID)
	if err != nil {
		rn.log.Errorw("failed to read cancel flag", "error", err)
		return false
	}
	if !requested {
		return false
	}

	rn.log.Infow("cancellation requested, stopping", "next_step", nextStep)
	if err := r.store.Job().SetTerminal(ctx, rn.job.ID, model.JobStatusCancelled, rn.lastStep, nil, rn.details.Marshal()); err != nil {
		rn.log.Errorw("failed to mark job cancelled", "error", err)
	}
	metrics.IncreaseReviewJobsFinishedMetric(model.JobStatusCancelled)
	return true
}

func (r *Runner) failJob(ctx context.Context, rn *run, step string, cause error) {
	rn.log.Errorw("review step failed", "step", step, "error", cause)
	rn.details.Append(StepRecord{Name: step, Status: StepStatusFailed, Error: cause.Error()})

	if err := r.store.Job().SetTerminal(ctx, rn.job.ID, model.JobStatusFailed, step, nil, rn.details.Marshal()); err != nil {
		rn.log.Errorw("failed to mark job failed", "error", err)
	}
	metrics.IncreaseReviewJobsFinishedMetric(model.JobStatusFailed)
}

func (r *Runner) completeJob(ctx context.Context, rn *run, step string, verdict *Verdict) {
	result, err := json.Marshal(verdict)
	if err != nil {
		r.failJob(ctx, rn, step, fmt.Errorf("encoding verdict: %w", err))
		return
	}

	if err := r.store.Job().SetTerminal(ctx, rn.job.ID, model.JobStatusCompleted, step, result, rn.details.Marshal()); err != nil {
		rn.log.Errorw("failed to mark job completed", "error", err)
		return
	}
	rn.log.Infow("review job completed", "verdict", verdict.Status, "confidence", verdict.ConfidenceScore)
	metrics.IncreaseReviewJobsFinishedMetric(model.JobStatusCompleted)
	metrics.IncreaseReviewVerdictsMetric(verdict.Status)

	r.writeBack(rn, verdict)
}

// unreachableSiteVerdict resolves a dead live site as unverifiable rather
// than broken: the job completes Flagged so a human checks the project.
func unreachableSiteVerdict(playableURL string, cause error) *Verdict {
	return &Verdict{
		Status:          VerdictFlagged,
		ConfidenceScore: 10,
		ReviewNotes:     fmt.Sprintf("Unable to access the playable URL %q: %v", playableURL, cause),
		UserFeedback:    "I tried visiting your project's website but couldn't get through. It might be down, need a login, or just not like robots very much! I'm sending this to a human reviewer so they can check it out properly.",
	}
}

// writeBack pushes the verdict into the submission record. Best effort
// with its own deadline: a write failure is logged, never fatal, and
// cancelled jobs never reach here.
func (r *Runner) writeBack(rn *run, verdict *Verdict) {
	fields := map[string]any{}
	if rn.mapping.ReviewNotes != "" {
		fields[rn.mapping.ReviewNotes] = verdict.ReviewNotes
	}
	if rn.mapping.UserFeedback != "" {
		fields[rn.mapping.UserFeedback] = verdict.UserFeedback
	}
	if rn.mapping.ReviewTag != "" {
		fields[rn.mapping.ReviewTag] = verdict.Status
	}
	if len(fields) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.writebackTimeout)
	defer cancel()
	if err := r.airtable.UpdateRecord(ctx, rn.job.BaseID, rn.job.Table, rn.job.RecordID, fields); err != nil {
		rn.log.Warnw("failed to write verdict back to submission record", "error", err)
	}
}
