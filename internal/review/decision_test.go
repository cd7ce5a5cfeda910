package review_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/review"
)

func testPolicy(t *testing.T) *config.ReviewPolicy {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	return cfg.Review
}

// approvableInput satisfies every approval condition; tests flip one
// condition at a time.
func approvableInput() review.DecisionInput {
	return review.DecisionInput{
		IsDuplicate: false,
		Project: &review.ProjectVerdict{
			IsWorking:        true,
			IsLegitimate:     true,
			QualityScore:     8,
			OriginalityScore: 7,
			RedFlags:         []string{},
		},
		Commits: &review.CommitVerdict{
			CommitsMatchHours:     true,
			CommitPattern:         review.CommitPatternConsistent,
			CommitQualityScore:    7,
			CodeVolumeAppropriate: true,
			EstimatedActualHours:  10,
			RedFlags:              []string{},
		},
		HasRepo:      true,
		HasCommits:   true,
		ClaimedHours: 10,
	}
}

func TestDecideApprovesWhenAllConditionsHold(t *testing.T) {
	outcome := review.Decide(approvableInput(), testPolicy(t))
	require.Equal(t, review.VerdictApproved, outcome.Status)
	require.Empty(t, outcome.Reasons)
}

func TestDecideRejectionRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*review.DecisionInput)
	}{
		{"duplicate", func(in *review.DecisionInput) { in.IsDuplicate = true }},
		{"not working", func(in *review.DecisionInput) { in.Project.IsWorking = false }},
		{"not legitimate", func(in *review.DecisionInput) { in.Project.IsLegitimate = false }},
		{"quality below reject floor", func(in *review.DecisionInput) { in.Project.QualityScore = 3 }},
		{"originality below reject floor", func(in *review.DecisionInput) { in.Project.OriginalityScore = 2 }},
		{"missing repo", func(in *review.DecisionInput) { in.HasRepo = false }},
		{"no commits", func(in *review.DecisionInput) { in.HasCommits = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := approvableInput()
			tt.mutate(&in)

			outcome := review.Decide(in, testPolicy(t))
			require.Equal(t, review.VerdictRejected, outcome.Status)
			require.Len(t, outcome.Reasons, 1)
		})
	}
}

func TestDecideFlagRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*review.DecisionInput)
	}{
		{"hour mismatch", func(in *review.DecisionInput) { in.Commits.EstimatedActualHours = 2 }},
		{"bulk pattern", func(in *review.DecisionInput) { in.Commits.CommitPattern = review.CommitPatternBulk }},
		{"suspicious pattern", func(in *review.DecisionInput) { in.Commits.CommitPattern = review.CommitPatternSuspicious }},
		{"low commit quality", func(in *review.DecisionInput) { in.Commits.CommitQualityScore = 4 }},
		{"borderline quality", func(in *review.DecisionInput) { in.Project.QualityScore = 5 }},
		{"borderline originality", func(in *review.DecisionInput) { in.Project.OriginalityScore = 4 }},
		{"project red flag", func(in *review.DecisionInput) { in.Project.RedFlags = []string{"placeholder content"} }},
		{"commit red flag", func(in *review.DecisionInput) { in.Commits.RedFlags = []string{"single massive commit"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := approvableInput()
			tt.mutate(&in)

			outcome := review.Decide(in, testPolicy(t))
			require.Equal(t, review.VerdictFlagged, outcome.Status)
			require.NotEmpty(t, outcome.Reasons)
		})
	}
}

func TestDecideRejectTakesPrecedenceOverFlag(t *testing.T) {
	in := approvableInput()
	in.Project.IsWorking = false
	in.Commits.CommitPattern = review.CommitPatternBulk
	in.Commits.RedFlags = []string{"bulk upload"}

	outcome := review.Decide(in, testPolicy(t))
	require.Equal(t, review.VerdictRejected, outcome.Status)
}

func TestDecideDefaultsToFlagged(t *testing.T) {
	// A sparse pattern fires no flag rule but fails an approval condition.
	in := approvableInput()
	in.Commits.CommitPattern = review.CommitPatternSparse

	outcome := review.Decide(in, testPolicy(t))
	require.Equal(t, review.VerdictFlagged, outcome.Status)
	require.NotEmpty(t, outcome.Reasons)
}

func TestDecideFlagsMismatchedCodeVolume(t *testing.T) {
	in := approvableInput()
	in.Commits.CodeVolumeAppropriate = false

	outcome := review.Decide(in, testPolicy(t))
	require.Equal(t, review.VerdictFlagged, outcome.Status)
}
