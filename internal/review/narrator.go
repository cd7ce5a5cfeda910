package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackvision/vision/internal/ai"
	"github.com/hackvision/vision/internal/config"
)

// Narrator turns the decision outcome and its supporting evidence into the
// reviewer-facing notes and the user-facing feedback.
type Narrator struct {
	ai       ai.Client
	policy   *config.ReviewPolicy
	validate *validator.Validate
}

func NewNarrator(client ai.Client, policy *config.ReviewPolicy) *Narrator {
	return &Narrator{
		ai:       client,
		policy:   policy,
		validate: validator.New(),
	}
}

type narrative struct {
	ConfidenceScore int    `json:"confidence_score" validate:"min=1,max=10"`
	ReviewNotes     string `json:"review_notes"`
	UserFeedback    string `json:"user_feedback"`
}

// Narrate produces the final verdict payload. Approved submissions carry
// no user feedback. A confidence below the floor downgrades an approval
// to Flagged for human review; lower statuses are never changed.
func (n *Narrator) Narrate(ctx context.Context, outcome Outcome, project *ProjectVerdict, commits *CommitVerdict, claimedHours float64) (*Verdict, error) {
	content, err := n.ai.Complete(ctx, ai.CompletionRequest{
		Prompt:      narrativePrompt(outcome, project, commits, claimedHours),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	var parsed narrative
	if err := decodeJudgment(content, &parsed, n.validate); err != nil {
		return nil, err
	}

	verdict := &Verdict{
		Status:          outcome.Status,
		ConfidenceScore: parsed.ConfidenceScore,
		ReviewNotes:     parsed.ReviewNotes,
		UserFeedback:    parsed.UserFeedback,
	}

	if verdict.Status == VerdictApproved && verdict.ConfidenceScore < n.policy.ConfidenceFloor {
		verdict.Status = VerdictFlagged
		verdict.ReviewNotes = fmt.Sprintf("Confidence %d is below the review floor. %s", verdict.ConfidenceScore, verdict.ReviewNotes)
	}
	if verdict.Status == VerdictApproved {
		verdict.UserFeedback = ""
	} else if verdict.UserFeedback == "" {
		verdict.UserFeedback = fallbackFeedback
	}

	return verdict, nil
}

// fallbackFeedback guarantees every non-approved verdict tells the
// student something, even when the collaborator returns nothing usable.
const fallbackFeedback = "Thanks for submitting! Your project needs a closer look before it can be approved, so a human reviewer will follow up with more details."

func narrativePrompt(outcome Outcome, project *ProjectVerdict, commits *CommitVerdict, claimedHours float64) string {
	var b strings.Builder

	b.WriteString("You are writing the review summary for a student project submission. The decision is already made; do not change it.\n\n")
	fmt.Fprintf(&b, "DECISION: %s\n", outcome.Status)
	if len(outcome.Reasons) > 0 {
		fmt.Fprintf(&b, "DECISION REASONS:\n- %s\n", strings.Join(outcome.Reasons, "\n- "))
	}
	fmt.Fprintf(&b, "\nPROJECT TEST:\nWorking: %t\nLegitimate: %t\nQuality: %d/10\nOriginality: %d/10\nAssessment: %s\n",
		project.IsWorking, project.IsLegitimate, project.QualityScore, project.OriginalityScore, project.Assessment)
	if len(project.RedFlags) > 0 {
		fmt.Fprintf(&b, "Project red flags: %s\n", strings.Join(project.RedFlags, "; "))
	}
	fmt.Fprintf(&b, "\nCOMMIT ANALYSIS:\nPattern: %s\nCommit quality: %d/10\nEstimated hours: %g (claimed %g)\nAssessment: %s\n",
		commits.CommitPattern, commits.CommitQualityScore, commits.EstimatedActualHours, claimedHours, commits.Assessment)
	if len(commits.RedFlags) > 0 {
		fmt.Fprintf(&b, "Commit red flags: %s\n", strings.Join(commits.RedFlags, "; "))
	}

	b.WriteString(`
WRITE:
- confidence_score: 1-10, how confident you are in this decision given the evidence
- review_notes: 2-4 sentences for the human review team summarizing the evidence
- user_feedback: 1-3 friendly, constructive sentences addressed to the student explaining the outcome and what to improve

Respond with ONLY valid JSON, no markdown, no code blocks, no explanations:
`)
	b.WriteString(`{"confidence_score": 1-10, "review_notes": "...", "user_feedback": "..."}`)

	return b.String()
}
