package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackvision/vision/internal/gather"
	"github.com/hackvision/vision/internal/review"
)

func TestProjectTesterFillsTechnicalDetails(t *testing.T) {
	spy := &fakeAI{response: `{"is_working": true, "is_legitimate": true, "originality_score": 7,
		"quality_score": 8, "red_flags": [], "assessment": "custom quiz app", "features": ["scoring"]}`}
	tester := review.NewProjectTester(spy)

	page := gather.PageEvidence{
		URL:        "https://widget.example.com",
		Content:    "<html>...</html>",
		Forms:      2,
		Buttons:    5,
		Inputs:     3,
		Scripts:    4,
		Frameworks: []string{"React"},
	}
	verdict, err := tester.Evaluate(context.Background(), page, "a quiz game")
	require.NoError(t, err)
	require.Equal(t, 1, spy.calls)
	require.True(t, verdict.IsWorking)
	require.Equal(t, 8, verdict.QualityScore)
	require.Equal(t, 2, verdict.TechnicalDetails.Forms)
	require.Equal(t, []string{"React"}, verdict.TechnicalDetails.Frameworks)
	require.Contains(t, spy.lastPrompt, "a quiz game")
}

func TestProjectTesterRejectsOutOfRangeScores(t *testing.T) {
	spy := &fakeAI{response: `{"is_working": true, "is_legitimate": true, "originality_score": 0,
		"quality_score": 8, "red_flags": [], "assessment": "bad score", "features": []}`}
	tester := review.NewProjectTester(spy)

	_, err := tester.Evaluate(context.Background(), gather.PageEvidence{}, "")
	var malformed *review.MalformedJudgmentError
	require.ErrorAs(t, err, &malformed)
}

func TestAppDemoVerdictScoresNeutrally(t *testing.T) {
	verdict := review.AppDemoVerdict()
	require.True(t, verdict.IsWorking)
	require.True(t, verdict.IsLegitimate)
	require.Equal(t, 7, verdict.QualityScore)
	require.Equal(t, 7, verdict.OriginalityScore)
	require.Empty(t, verdict.RedFlags)
	require.Contains(t, verdict.Assessment, "cannot be tested")
}
