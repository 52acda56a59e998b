// File: internal/synthesis/synthesizer.go
package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
	"github.com/xkilldash9x/caseforge-cli/internal/segmentation"
)

const (
	setupDescription   = "Initialize test environment"
	cleanupDescription = "Cleanup test environment"
	randomIDLength     = 9
)

// map keys are sorted, which keeps form step descriptions stable.
var stepJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Synthesizer builds test cases from user stories and from segmented
// interaction groups.
type Synthesizer struct {
	logger      *zap.Logger
	classifier  schemas.IntentClassifier
	concurrency int

	// now and randomID are replaceable in tests.
	now      func() time.Time
	randomID func() string
}

// New creates a Synthesizer. classifier is only used for story-derived cases.
func New(logger *zap.Logger, classifier schemas.IntentClassifier, cfg config.SynthesisConfig) *Synthesizer {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Synthesizer{
		logger:      logger.Named("synthesis"),
		classifier:  classifier,
		concurrency: concurrency,
		now:         time.Now,
		randomID:    uuidFragment,
	}
}

// FromStories converts each story into one test case, preserving input order.
// Classification runs concurrently; the only error is context cancellation.
func (s *Synthesizer) FromStories(ctx context.Context, stories []schemas.UserStory) ([]schemas.TestCase, error) {
	cases := make([]schemas.TestCase, len(stories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range stories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cases[i] = s.FromStory(stories[i], i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("story synthesis interrupted: %w", err)
	}

	s.logger.Debug("Synthesized test cases from stories.", zap.Int("count", len(cases)))
	return cases, nil
}

// FromStory builds a setup / verify... / cleanup test case for a single story.
// position distinguishes cases created within the same millisecond.
func (s *Synthesizer) FromStory(story schemas.UserStory, position int) schemas.TestCase {
	ms := s.now().UnixMilli()

	steps := []schemas.TestStep{{
		ID:          fmt.Sprintf("step1_%d", ms),
		Action:      schemas.ActionSetup,
		Description: setupDescription,
	}}
	for _, line := range strings.Split(story.AcceptanceCriteria, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		steps = append(steps, schemas.TestStep{
			ID:             fmt.Sprintf("step%d_%d", len(steps)+1, ms),
			Action:         schemas.ActionVerify,
			Description:    line,
			ExpectedResult: line,
		})
	}
	steps = append(steps, schemas.TestStep{
		ID:          fmt.Sprintf("step%d_%d", len(steps)+1, ms),
		Action:      schemas.ActionCleanup,
		Description: cleanupDescription,
	})

	priority := story.Priority
	if priority == "" {
		priority = schemas.PriorityMedium
	}

	return schemas.TestCase{
		ID:       fmt.Sprintf("TC%d_%d", ms, position),
		Name:     "Test: " + story.Title,
		Type:     s.classifier.Classify(story.Description),
		Priority: priority,
		Steps:    steps,
	}
}

// FromGroups converts each interaction group into one test case.
func (s *Synthesizer) FromGroups(groups []segmentation.Group) []schemas.TestCase {
	cases := make([]schemas.TestCase, 0, len(groups))
	for _, g := range groups {
		if len(g.Interactions) == 0 {
			continue
		}
		cases = append(cases, s.FromGroup(g, len(cases)))
	}
	return cases
}

// FromGroup builds a test case with one step per interaction. The case has
// no priority.
func (s *Synthesizer) FromGroup(group segmentation.Group, position int) schemas.TestCase {
	ms := s.now().UnixMilli()
	kind := group.Kind()

	steps := make([]schemas.TestStep, 0, len(group.Interactions))
	for _, in := range group.Interactions {
		step := s.stepFor(in)
		step.ID = fmt.Sprintf("step_%d_%s", ms, s.randomID())
		steps = append(steps, step)
	}

	return schemas.TestCase{
		ID:    fmt.Sprintf("TC%d_%d", ms, position),
		Name:  strings.TrimSpace(fmt.Sprintf("Test Case: %s %s", kind, group.FirstText())),
		Type:  CategoryForKind(kind),
		Steps: steps,
	}
}

// CategoryForKind maps the dominant interaction kind of a group to a category.
func CategoryForKind(kind schemas.InteractionKind) schemas.Category {
	switch kind {
	case schemas.KindFormSubmit:
		return schemas.CategoryIntegration
	case schemas.KindClick:
		return schemas.CategoryUI
	default:
		return schemas.CategoryFunctional
	}
}

func (s *Synthesizer) stepFor(in schemas.Interaction) schemas.TestStep {
	switch d := in.Detail.(type) {
	case schemas.Click:
		selector := Selector(d.Target)
		label := d.Target.Text
		if label == "" {
			label = selector
		}
		return schemas.TestStep{
			Action:      schemas.ActionClick,
			Description: fmt.Sprintf(`Click on element "%s"`, label),
			Selector:    selector,
		}
	case schemas.FormSubmit:
		data, err := stepJSON.Marshal(d.Inputs)
		if err != nil || d.Inputs == nil {
			data = []byte("{}")
		}
		step := schemas.TestStep{
			Action:      schemas.ActionFormSubmit,
			Description: "Submit form with data: " + string(data),
		}
		if d.FormID != "" {
			step.Selector = "#" + d.FormID
		}
		return step
	case schemas.Navigation:
		return schemas.TestStep{
			Action:      schemas.ActionNavigate,
			Description: "Navigate to " + d.URL,
			Value:       d.URL,
		}
	case schemas.APICall:
		return schemas.TestStep{
			Action:      schemas.ActionAPI,
			Description: fmt.Sprintf("Perform api action: %s %s", d.Method, d.URL),
			Value:       d.URL,
		}
	default:
		kind := string(in.Kind())
		return schemas.TestStep{
			Action:      kind,
			Description: fmt.Sprintf("Perform %s action", kind),
		}
	}
}

// Selector derives a CSS selector for a clicked element: #id when present,
// otherwise tag followed by its classes.
func Selector(t schemas.ElementTarget) string {
	if t.ID != "" {
		return "#" + t.ID
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(t.Tag))
	for _, class := range t.Classes {
		if class = strings.TrimSpace(class); class != "" {
			b.WriteString(".")
			b.WriteString(class)
		}
	}
	return b.String()
}

func uuidFragment() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:randomIDLength]
}
