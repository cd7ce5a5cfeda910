package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackvision/vision/internal/ai"
	"github.com/hackvision/vision/internal/gather"
)

// ProjectTester judges whether the live deployment works and shows
// original effort, based on the gathered page evidence.
type ProjectTester struct {
	ai       ai.Client
	validate *validator.Validate
}

func NewProjectTester(client ai.Client) *ProjectTester {
	return &ProjectTester{
		ai:       client,
		validate: validator.New(),
	}
}

func (t *ProjectTester) Evaluate(ctx context.Context, page gather.PageEvidence, description string) (*ProjectVerdict, error) {
	content, err := t.ai.Complete(ctx, ai.CompletionRequest{
		Prompt:      projectTestPrompt(page, description),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	var verdict ProjectVerdict
	if err := decodeJudgment(content, &verdict, t.validate); err != nil {
		return nil, err
	}

	verdict.TechnicalDetails = TechnicalDetails{
		Forms:      page.Forms,
		Buttons:    page.Buttons,
		Inputs:     page.Inputs,
		Scripts:    page.Scripts,
		Frameworks: page.Frameworks,
	}
	return &verdict, nil
}

// AppDemoVerdict is the stand-in for desktop or mobile apps and video
// demos: web functionality cannot be tested, so the project step scores
// neutrally without a collaborator call and the decision leans on the
// commit analysis.
func AppDemoVerdict() *ProjectVerdict {
	return &ProjectVerdict{
		IsWorking:        true,
		IsLegitimate:     true,
		OriginalityScore: 7,
		QualityScore:     7,
		RedFlags:         []string{},
		Features:         []string{"Desktop/mobile application"},
		Assessment:       "Desktop/mobile app or video demo, web functionality cannot be tested. Relying on commit analysis and code review.",
		TechnicalDetails: TechnicalDetails{Frameworks: []string{}},
	}
}

func projectTestPrompt(page gather.PageEvidence, description string) string {
	var b strings.Builder

	b.WriteString("You are reviewing a student's web project. Analyze the actual page content thoroughly.\n\n")
	fmt.Fprintf(&b, "CLAIMED DESCRIPTION:\n%s\n\n", description)
	fmt.Fprintf(&b, "PAGE CONTENT (%s, first %d chars):\n%s\n\n", page.URL, len(page.Content), page.Content)
	fmt.Fprintf(&b, "TECHNICAL SIGNALS:\nForms: %d\nButtons: %d\nInputs: %d\nScript tags: %d\nFrameworks detected: %s\n\n",
		page.Forms, page.Buttons, page.Inputs, page.Scripts, strings.Join(page.Frameworks, ", "))

	b.WriteString(`EVALUATION CRITERIA:
- is_working: true if the page loads and has functional elements
- is_legitimate: true if it shows original work or customization, not an unmodified template
- quality_score: 3-4 basic/incomplete, 5-6 decent effort, 7-8 good work, 9-10 excellent
- originality_score: 3-4 mostly template, 5-6 some customization, 7-8 original, 9-10 very creative

RED FLAGS (only if clearly serious):
- Completely unmodified templates
- Obviously broken core functionality
- Placeholder content everywhere

Respond with ONLY valid JSON, no markdown, no code blocks, no explanations:
`)
	b.WriteString(`{"is_working": true/false, "is_legitimate": true/false, "originality_score": 1-10, "quality_score": 1-10, "red_flags": ["flag if serious"], "assessment": "2-3 sentences", "features": ["specific feature"]}`)

	return b.String()
}
