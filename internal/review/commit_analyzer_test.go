package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackvision/vision/internal/ai"
	"github.com/hackvision/vision/internal/gather"
	"github.com/hackvision/vision/internal/review"
)

type fakeAI struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeAI) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	f.calls++
	f.lastPrompt = req.Prompt
	return f.response, f.err
}

func someCommitEvidence() *gather.CommitEvidence {
	return &gather.CommitEvidence{
		Commits: []gather.CommitInfo{
			{Message: "initial commit", Author: "acme", Additions: 120, Deletions: 0},
			{Message: "add game loop", Author: "acme", Additions: 200, Deletions: 40},
		},
		TotalCommits:   2,
		TotalAuthors:   1,
		TimeSpanDays:   3,
		TotalAdditions: 320,
		TotalDeletions: 40,
	}
}

func TestCommitAnalyzerShortCircuitsOnZeroCommits(t *testing.T) {
	spy := &fakeAI{}
	analyzer := review.NewCommitAnalyzer(spy, testPolicy(t))

	for _, evidence := range []*gather.CommitEvidence{nil, {TotalCommits: 0}} {
		verdict, err := analyzer.Evaluate(context.Background(), evidence, 10)
		require.NoError(t, err)
		require.Equal(t, review.CommitPatternSuspicious, verdict.CommitPattern)
		require.False(t, verdict.CommitsMatchHours)
		require.Equal(t, 1, verdict.CommitQualityScore)
		require.Contains(t, verdict.RedFlags, "no commits found")
	}
	require.Zero(t, spy.calls, "zero-commit histories must not reach the collaborator")
}

func TestCommitAnalyzerRecomputesHourMatch(t *testing.T) {
	// The collaborator claims a match, but its own estimate is 20 hours off;
	// the threshold comparison wins.
	spy := &fakeAI{response: `{"commits_match_hours": true, "commit_pattern": "consistent",
		"commit_quality_score": 7, "code_volume_appropriate": true,
		"estimated_actual_hours": 30, "red_flags": [], "assessment": "solid history"}`}
	analyzer := review.NewCommitAnalyzer(spy, testPolicy(t))

	verdict, err := analyzer.Evaluate(context.Background(), someCommitEvidence(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, spy.calls)
	require.False(t, verdict.CommitsMatchHours)
	require.Equal(t, float64(30), verdict.EstimatedActualHours)
	require.NotNil(t, verdict.Metadata)

	spy.response = `{"commits_match_hours": false, "commit_pattern": "consistent",
		"commit_quality_score": 7, "code_volume_appropriate": true,
		"estimated_actual_hours": 12, "red_flags": [], "assessment": "solid history"}`
	verdict, err = analyzer.Evaluate(context.Background(), someCommitEvidence(), 10)
	require.NoError(t, err)
	require.True(t, verdict.CommitsMatchHours, "a 2 hour delta is within the threshold")
}

func TestCommitAnalyzerAcceptsFencedJSON(t *testing.T) {
	spy := &fakeAI{response: "```json\n{\"commits_match_hours\": true, \"commit_pattern\": \"consistent\", \"commit_quality_score\": 6, \"code_volume_appropriate\": true, \"estimated_actual_hours\": 10, \"red_flags\": [], \"assessment\": \"ok\"}\n```"}
	analyzer := review.NewCommitAnalyzer(spy, testPolicy(t))

	verdict, err := analyzer.Evaluate(context.Background(), someCommitEvidence(), 10)
	require.NoError(t, err)
	require.Equal(t, 6, verdict.CommitQualityScore)
}

func TestCommitAnalyzerRejectsMalformedJudgments(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "the commits look fine to me"},
		{"score out of range", `{"commits_match_hours": true, "commit_pattern": "consistent", "commit_quality_score": 15, "code_volume_appropriate": true, "estimated_actual_hours": 10, "red_flags": [], "assessment": "ok"}`},
		{"unknown pattern", `{"commits_match_hours": true, "commit_pattern": "erratic", "commit_quality_score": 7, "code_volume_appropriate": true, "estimated_actual_hours": 10, "red_flags": [], "assessment": "ok"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := review.NewCommitAnalyzer(&fakeAI{response: tt.response}, testPolicy(t))

			_, err := analyzer.Evaluate(context.Background(), someCommitEvidence(), 10)
			var malformed *review.MalformedJudgmentError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestCommitAnalyzerPromptCarriesEvidence(t *testing.T) {
	spy := &fakeAI{response: `{"commits_match_hours": true, "commit_pattern": "consistent", "commit_quality_score": 7, "code_volume_appropriate": true, "estimated_actual_hours": 10, "red_flags": [], "assessment": "ok"}`}
	analyzer := review.NewCommitAnalyzer(spy, testPolicy(t))

	_, err := analyzer.Evaluate(context.Background(), someCommitEvidence(), 10)
	require.NoError(t, err)
	require.Contains(t, spy.lastPrompt, "add game loop")
	require.Contains(t, spy.lastPrompt, "Total Commits: 2")
}
