package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackvision/vision/internal/review"
)

func TestNarratorSuppliesFallbackFeedback(t *testing.T) {
	spy := &fakeAI{response: `{"confidence_score": 8, "review_notes": "needs a human look", "user_feedback": ""}`}
	narrator := review.NewNarrator(spy, testPolicy(t))

	in := approvableInput()
	verdict, err := narrator.Narrate(context.Background(), review.Outcome{Status: review.VerdictFlagged}, in.Project, in.Commits, 10)
	require.NoError(t, err)
	require.Equal(t, review.VerdictFlagged, verdict.Status)
	require.NotEmpty(t, verdict.UserFeedback, "non-approved verdicts must always tell the student something")
}

func TestNarratorKeepsProvidedFeedback(t *testing.T) {
	spy := &fakeAI{response: `{"confidence_score": 7, "review_notes": "hour mismatch", "user_feedback": "your hours look off, double-check your tracker"}`}
	narrator := review.NewNarrator(spy, testPolicy(t))

	in := approvableInput()
	verdict, err := narrator.Narrate(context.Background(), review.Outcome{Status: review.VerdictRejected}, in.Project, in.Commits, 10)
	require.NoError(t, err)
	require.Equal(t, "your hours look off, double-check your tracker", verdict.UserFeedback)
}

func TestNarratorClearsFeedbackOnApproval(t *testing.T) {
	spy := &fakeAI{response: `{"confidence_score": 9, "review_notes": "all good", "user_feedback": "great job"}`}
	narrator := review.NewNarrator(spy, testPolicy(t))

	in := approvableInput()
	verdict, err := narrator.Narrate(context.Background(), review.Outcome{Status: review.VerdictApproved}, in.Project, in.Commits, 10)
	require.NoError(t, err)
	require.Equal(t, review.VerdictApproved, verdict.Status)
	require.Empty(t, verdict.UserFeedback)
}
