// File: api/schemas/testcase.go
package schemas

import "strings"

// Category is the test type assigned to a synthesized test case.
type Category string

const (
	CategoryPerformance Category = "performance"
	CategoryUI          Category = "ui"
	CategoryIntegration Category = "integration"
	CategorySecurity    Category = "security"
	CategorySmoke       Category = "smoke"
	CategoryRegression  Category = "regression"
	// CategoryFunctional is the universal fallback.
	CategoryFunctional Category = "functional"
)

// Categories lists every valid category, fallback last.
var Categories = []Category{
	CategoryPerformance,
	CategoryUI,
	CategoryIntegration,
	CategorySecurity,
	CategorySmoke,
	CategoryRegression,
	CategoryFunctional,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority is the relative importance carried over from a user story.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes free-form priority text. Anything unrecognized
// (including the empty string) becomes medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Step actions emitted by the synthesizers.
const (
	ActionSetup      = "setup"
	ActionVerify     = "verify"
	ActionCleanup    = "cleanup"
	ActionNavigate   = "navigate"
	ActionAPI        = "api"
	ActionClick      = "click"
	ActionType       = "type"
	ActionFormSubmit = "form_submit"
)

// TestStep is a single ordered action within a TestCase.
type TestStep struct {
	ID             string `json:"id"`
	Action         string `json:"action"`
	Description    string `json:"description"`
	Selector       string `json:"selector,omitempty"`
	Value          string `json:"value,omitempty"`
	ExpectedResult string `json:"expectedResult,omitempty"`
}

// TestCase is the canonical output unit of a generation run.
// Priority is empty for interaction-derived cases.
type TestCase struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     Category   `json:"type"`
	Priority Priority   `json:"priority,omitempty"`
	Steps    []TestStep `json:"steps"`
}

// UserStory is the normalized record produced by a DocumentReader.
type UserStory struct {
	ID                 string   `json:"id" yaml:"id"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"`
	AcceptanceCriteria string   `json:"acceptanceCriteria" yaml:"acceptanceCriteria"`
	Priority           Priority `json:"priority" yaml:"priority"`
}

// Credentials are optional login details for a recording session.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Empty reports whether either half of the pair is missing.
func (c *Credentials) Empty() bool {
	return c == nil || c.Username == "" || c.Password == ""
}
