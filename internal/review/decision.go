package review

import (
	"fmt"
	"math"

	"github.com/hackvision/vision/internal/config"
)

// DecisionInput is everything the decision engine sees: the duplicate
// check result, both evaluator verdicts and the repository facts.
type DecisionInput struct {
	IsDuplicate  bool
	Project      *ProjectVerdict
	Commits      *CommitVerdict
	HasRepo      bool
	HasCommits   bool
	ClaimedHours float64
}

// Outcome is the engine's deterministic result: the final status plus the
// rules that produced it.
type Outcome struct {
	Status  string
	Reasons []string
}

// Decide combines the step verdicts into the final outcome. Rules are
// evaluated in fixed precedence: rejection rules first in order, then flag
// rules, then the approval conditions; anything ambiguous falls back to
// Flagged, never to a silent approval.
func Decide(in DecisionInput, policy *config.ReviewPolicy) Outcome {
	if reason, rejected := firstRejection(in, policy); rejected {
		return Outcome{Status: VerdictRejected, Reasons: []string{reason}}
	}

	if reasons := flagReasons(in, policy); len(reasons) > 0 {
		return Outcome{Status: VerdictFlagged, Reasons: reasons}
	}

	if approvable(in, policy) {
		return Outcome{Status: VerdictApproved}
	}

	return Outcome{Status: VerdictFlagged, Reasons: []string{"submission did not meet all approval conditions"}}
}

func firstRejection(in DecisionInput, policy *config.ReviewPolicy) (string, bool) {
	switch {
	case in.IsDuplicate:
		return "project was already submitted", true
	case !in.Project.IsWorking:
		return "project is not working", true
	case !in.Project.IsLegitimate:
		return "project does not show legitimate original work", true
	case in.Project.QualityScore < policy.QualityRejectBelow:
		return fmt.Sprintf("quality score %d is below the minimum of %d", in.Project.QualityScore, policy.QualityRejectBelow), true
	case in.Project.OriginalityScore < policy.OriginalityRejectBelow:
		return fmt.Sprintf("originality score %d is below the minimum of %d", in.Project.OriginalityScore, policy.OriginalityRejectBelow), true
	case !in.HasRepo:
		return "code repository is missing or inaccessible", true
	case !in.HasCommits:
		return "repository has no commits", true
	}
	return "", false
}

func flagReasons(in DecisionInput, policy *config.ReviewPolicy) []string {
	var reasons []string

	if math.Abs(in.Commits.EstimatedActualHours-in.ClaimedHours) > policy.HourMismatchThreshold {
		reasons = append(reasons, fmt.Sprintf("estimated %g hours of work versus %g claimed", in.Commits.EstimatedActualHours, in.ClaimedHours))
	}
	if in.Commits.CommitPattern == CommitPatternBulk || in.Commits.CommitPattern == CommitPatternSuspicious {
		reasons = append(reasons, fmt.Sprintf("commit pattern is %s", in.Commits.CommitPattern))
	}
	if in.Commits.CommitQualityScore < policy.CommitQualityFlagBelow {
		reasons = append(reasons, fmt.Sprintf("commit quality score %d is low", in.Commits.CommitQualityScore))
	}
	if in.Project.QualityScore >= policy.QualityRejectBelow && in.Project.QualityScore <= policy.QualityFlagMax {
		reasons = append(reasons, fmt.Sprintf("quality score %d is borderline", in.Project.QualityScore))
	}
	if in.Project.OriginalityScore >= policy.OriginalityRejectBelow && in.Project.OriginalityScore <= policy.OriginalityFlagMax {
		reasons = append(reasons, fmt.Sprintf("originality score %d is borderline", in.Project.OriginalityScore))
	}
	if len(in.Project.RedFlags) > 0 {
		reasons = append(reasons, fmt.Sprintf("project red flags: %v", in.Project.RedFlags))
	}
	if len(in.Commits.RedFlags) > 0 {
		reasons = append(reasons, fmt.Sprintf("commit red flags: %v", in.Commits.RedFlags))
	}

	return reasons
}

func approvable(in DecisionInput, policy *config.ReviewPolicy) bool {
	return !in.IsDuplicate &&
		in.Project.IsWorking &&
		in.Project.IsLegitimate &&
		in.Project.QualityScore >= policy.QualityApproveMin &&
		in.Project.OriginalityScore >= policy.OriginalityApproveMin &&
		in.Commits.CommitsMatchHours &&
		in.Commits.CommitPattern == CommitPatternConsistent &&
		in.Commits.CommitQualityScore >= policy.CommitQualityApproveMin &&
		in.Commits.CodeVolumeAppropriate &&
		len(in.Project.RedFlags) == 0 &&
		len(in.Commits.RedFlags) == 0
}
