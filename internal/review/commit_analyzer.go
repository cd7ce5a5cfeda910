package review

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackvision/vision/internal/ai"
	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/gather"
)

// CommitAnalyzer judges whether the commit history matches the claimed
// development time.
type CommitAnalyzer struct {
	ai       ai.Client
	policy   *config.ReviewPolicy
	validate *validator.Validate
}

func NewCommitAnalyzer(client ai.Client, policy *config.ReviewPolicy) *CommitAnalyzer {
	return &CommitAnalyzer{
		ai:       client,
		policy:   policy,
		validate: validator.New(),
	}
}

// Evaluate produces the commit verdict. An empty history short-circuits to
// a suspicious verdict without a collaborator call. For non-empty
// histories the collaborator estimates actual hours; commits_match_hours
// is then recomputed locally so the threshold is applied deterministically.
func (a *CommitAnalyzer) Evaluate(ctx context.Context, evidence *gather.CommitEvidence, claimedHours float64) (*CommitVerdict, error) {
	if evidence == nil || evidence.TotalCommits == 0 {
		return &CommitVerdict{
			CommitsMatchHours:     false,
			CommitPattern:         CommitPatternSuspicious,
			CommitQualityScore:    1,
			CodeVolumeAppropriate: false,
			EstimatedActualHours:  0,
			RedFlags:              []string{"no commits found"},
			Assessment:            "Repository has no commits to analyze.",
			Metadata:              evidence,
		}, nil
	}

	content, err := a.ai.Complete(ctx, ai.CompletionRequest{
		Prompt:      commitAnalysisPrompt(evidence, claimedHours),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	var verdict CommitVerdict
	if err := decodeJudgment(content, &verdict, a.validate); err != nil {
		return nil, err
	}

	verdict.CommitsMatchHours = math.Abs(verdict.EstimatedActualHours-claimedHours) <= a.policy.HourMismatchThreshold
	verdict.Metadata = evidence
	return &verdict, nil
}

func commitAnalysisPrompt(evidence *gather.CommitEvidence, claimedHours float64) string {
	var b strings.Builder

	commitJSON, _ := json.MarshalIndent(evidence.Commits, "", "  ")

	b.WriteString("You are reviewing a student's GitHub commits. Be fair but thorough.\n\n")
	fmt.Fprintf(&b, "COMMIT DATA:\nTotal Commits: %d\nTime Span: %d days\nTotal Code Changes: +%d -%d\nAuthors: %d\nClaimed Hours: %g\n\n",
		evidence.TotalCommits, evidence.TimeSpanDays, evidence.TotalAdditions, evidence.TotalDeletions, evidence.TotalAuthors, claimedHours)
	fmt.Fprintf(&b, "DETAILED COMMITS:\n%s\n\n", commitJSON)

	fmt.Fprintf(&b, `EVALUATION:
1. Time analysis: does %g claimed hours match the commit pattern?
2. Commit pattern:
   - "consistent": regular work across multiple sessions
   - "bulk": most code landed in one or two massive commits
   - "sparse": very few commits over a long period
   - "suspicious": the history does not look like iterative human work
3. code_volume_appropriate: expect roughly 20-50 changed lines per claimed hour
4. Estimate the actual hours of work the history represents

RED FLAGS (mark if found):
- Commit messages or authors mention automated tooling
- Claimed many hours but all code in 1-2 massive commits
- 1000+ line changes in single commit with a generic message

Respond with ONLY valid JSON, no markdown, no code blocks, no explanations:
`, claimedHours)
	b.WriteString(`{"commits_match_hours": true/false, "commit_pattern": "consistent/bulk/sparse/suspicious", "commit_quality_score": 1-10, "code_volume_appropriate": true/false, "estimated_actual_hours": number, "red_flags": ["specific indicators found"], "assessment": "1-2 sentences"}`)

	return b.String()
}
