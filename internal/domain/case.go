package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinCaseLength is the minimum number of characters a case description needs
// after surrounding whitespace is removed.
const MinCaseLength = 50

// CaseInput is a submitted legal case.
type CaseInput struct {
	Description string `json:"case_description"`
	UserID      string `json:"user_id,omitempty"`
}

// Validate rejects descriptions that are too short to analyze.
func (c CaseInput) Validate() error {
	desc := strings.TrimSpace(c.Description)
	if utf8.RuneCountInString(desc) < MinCaseLength {
		return &ValidationError{
			Field:   "case_description",
			Message: fmt.Sprintf("Case description must be at least %d characters long", MinCaseLength),
		}
	}
	return nil
}

// Normalized returns a copy with the description trimmed and a default user.
func (c CaseInput) Normalized() CaseInput {
	out := CaseInput{
		Description: strings.TrimSpace(c.Description),
		UserID:      strings.TrimSpace(c.UserID),
	}
	if out.UserID == "" {
		out.UserID = "anonymous"
	}
	return out
}
