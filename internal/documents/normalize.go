// File: internal/documents/normalize.go
package documents

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// record is one row or object of a structured document, keyed by its
// original field names.
type record map[string]interface{}

// Field aliases, in lookup order.
var (
	idFields          = []string{"ID", "id", "storyId"}
	titleFields       = []string{"Title", "title", "name", "summary"}
	descriptionFields = []string{"Description", "description", "desc"}
	criteriaFields    = []string{"Acceptance Criteria", "acceptanceCriteria", "criteria"}
	priorityFields    = []string{"Priority", "priority"}
)

func normalize(records []record) []schemas.UserStory {
	stories := make([]schemas.UserStory, 0, len(records))
	for i, rec := range records {
		story := schemas.UserStory{
			ID:                 rec.first(idFields),
			Title:              rec.first(titleFields),
			Description:        rec.first(descriptionFields),
			AcceptanceCriteria: rec.first(criteriaFields),
		}
		if story.ID == "" {
			story.ID = fmt.Sprintf("US%d", i+1)
		}
		if p := rec.first(priorityFields); p != "" {
			story.Priority = schemas.ParsePriority(p)
		} else {
			story.Priority = extractPriority(story.Description)
		}
		stories = append(stories, story)
	}
	return stories
}

// first returns the first non-empty value among keys.
func (r record) first(keys []string) string {
	for _, k := range keys {
		if s := stringify(r[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []interface{}:
		// Criteria are often given as a list; one per line.
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// extractPriority reads a priority out of free text.
func extractPriority(text string) schemas.Priority {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "high priority"), strings.Contains(lower, "critical"):
		return schemas.PriorityHigh
	case strings.Contains(lower, "medium"), strings.Contains(lower, "moderate"):
		return schemas.PriorityMedium
	case strings.Contains(lower, "low priority"):
		return schemas.PriorityLow
	default:
		return schemas.PriorityMedium
	}
}
