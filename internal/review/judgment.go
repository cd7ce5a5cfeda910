package review

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

// decodeJudgment parses a collaborator completion into the target schema
// and validates its declared field ranges. Models occasionally wrap the
// JSON in markdown code fences; those are stripped before decoding.
func decodeJudgment(content string, target any, validate *validator.Validate) error {
	payload := stripCodeFences(content)

	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return NewMalformedJudgmentError("response is not valid JSON", err)
	}
	if err := validate.Struct(target); err != nil {
		return NewMalformedJudgmentError("response fields out of range", err)
	}
	return nil
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
