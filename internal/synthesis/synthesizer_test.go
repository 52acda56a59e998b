package synthesis

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/classifier"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
	"github.com/xkilldash9x/caseforge-cli/internal/segmentation"
)

var fixedNow = time.UnixMilli(1700000000000)

type stubClassifier struct {
	category schemas.Category
	calls    atomic.Int32
}

func (s *stubClassifier) Classify(string) schemas.Category {
	s.calls.Add(1)
	return s.category
}

func newTestSynthesizer(t *testing.T, c schemas.IntentClassifier) *Synthesizer {
	t.Helper()
	s := New(zaptest.NewLogger(t), c, config.SynthesisConfig{Concurrency: 2})
	s.now = func() time.Time { return fixedNow }
	var n atomic.Int32
	s.randomID = func() string { return fmt.Sprintf("r%08d", n.Add(1)) }
	return s
}

func TestFromStory(t *testing.T) {
	cls, err := classifier.New(zaptest.NewLogger(t), config.NewDefaultConfig().Classifier)
	require.NoError(t, err)
	s := newTestSynthesizer(t, cls)

	story := schemas.UserStory{
		ID:                 "US1",
		Title:              "Login",
		Description:        "verify authentication",
		AcceptanceCriteria: "User can log in\n\n  \nUser sees dashboard  ",
		Priority:           schemas.PriorityHigh,
	}

	tc := s.FromStory(story, 0)

	assert.Equal(t, "TC1700000000000_0", tc.ID)
	assert.Equal(t, "Test: Login", tc.Name)
	assert.Equal(t, schemas.CategorySecurity, tc.Type)
	assert.Equal(t, schemas.PriorityHigh, tc.Priority)
	require.Len(t, tc.Steps, 4)

	assert.Equal(t, schemas.ActionSetup, tc.Steps[0].Action)
	assert.Equal(t, "Initialize test environment", tc.Steps[0].Description)
	assert.Equal(t, "step1_1700000000000", tc.Steps[0].ID)
	assert.Equal(t, schemas.ActionVerify, tc.Steps[1].Action)
	assert.Equal(t, "User can log in", tc.Steps[1].Description)
	assert.Equal(t, "User sees dashboard", tc.Steps[2].Description)
	assert.Equal(t, "step3_1700000000000", tc.Steps[2].ID)
	assert.Equal(t, schemas.ActionCleanup, tc.Steps[3].Action)
	assert.Equal(t, "Cleanup test environment", tc.Steps[3].Description)
	assert.Equal(t, "step4_1700000000000", tc.Steps[3].ID)
}

func TestFromStoryStepCount(t *testing.T) {
	s := newTestSynthesizer(t, &stubClassifier{category: schemas.CategoryFunctional})

	for k := 0; k < 6; k++ {
		lines := make([]string, 0, k)
		for i := 0; i < k; i++ {
			lines = append(lines, fmt.Sprintf("criterion %d", i))
		}
		tc := s.FromStory(schemas.UserStory{Title: "t", AcceptanceCriteria: strings.Join(lines, "\n")}, k)
		assert.Len(t, tc.Steps, k+2)
		assert.Equal(t, schemas.PriorityMedium, tc.Priority, "missing priority defaults to medium")

		ids := map[string]bool{}
		for _, st := range tc.Steps {
			assert.False(t, ids[st.ID], "duplicate step id %s", st.ID)
			ids[st.ID] = true
		}
	}
}

func TestFromStoriesPreservesOrder(t *testing.T) {
	stub := &stubClassifier{category: schemas.CategorySmoke}
	s := newTestSynthesizer(t, stub)

	var stories []schemas.UserStory
	for i := 0; i < 20; i++ {
		stories = append(stories, schemas.UserStory{ID: fmt.Sprintf("US%d", i), Title: fmt.Sprintf("Story %d", i)})
	}

	cases, err := s.FromStories(context.Background(), stories)
	require.NoError(t, err)
	require.Len(t, cases, len(stories))
	for i, tc := range cases {
		assert.Equal(t, fmt.Sprintf("Test: Story %d", i), tc.Name)
		assert.Equal(t, fmt.Sprintf("TC1700000000000_%d", i), tc.ID)
	}
	assert.EqualValues(t, len(stories), stub.calls.Load())
}

func TestFromStoriesCancelled(t *testing.T) {
	s := newTestSynthesizer(t, &stubClassifier{category: schemas.CategorySmoke})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FromStories(ctx, []schemas.UserStory{{Title: "a"}, {Title: "b"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromGroups(t *testing.T) {
	s := newTestSynthesizer(t, &stubClassifier{})

	interactions := []schemas.Interaction{
		{Timestamp: 0, Detail: schemas.Click{Target: schemas.ElementTarget{Tag: "BUTTON", ID: "save", Text: "Save"}}},
		{Timestamp: 100, Detail: schemas.Click{Target: schemas.ElementTarget{Tag: "a", Classes: []string{"nav", "primary"}}}},
		{Timestamp: 200, Detail: schemas.FormSubmit{FormID: "login", Inputs: map[string]string{"user": "bob", "password": "******"}}},
	}
	groups := segmentation.Default().Segment(interactions)
	cases := s.FromGroups(groups)

	require.Len(t, cases, 2)

	clickCase := cases[0]
	assert.Equal(t, "TC1700000000000_0", clickCase.ID)
	assert.Equal(t, schemas.CategoryUI, clickCase.Type)
	assert.Equal(t, "Test Case: click Save", clickCase.Name)
	assert.Empty(t, clickCase.Priority)
	require.Len(t, clickCase.Steps, 2)
	assert.Equal(t, `Click on element "Save"`, clickCase.Steps[0].Description)
	assert.Equal(t, "#save", clickCase.Steps[0].Selector)
	assert.Equal(t, `Click on element "a.nav.primary"`, clickCase.Steps[1].Description)
	assert.Equal(t, "a.nav.primary", clickCase.Steps[1].Selector)
	assert.Equal(t, "step_1700000000000_r00000001", clickCase.Steps[0].ID)
	assert.NotEqual(t, clickCase.Steps[0].ID, clickCase.Steps[1].ID)

	formCase := cases[1]
	assert.Equal(t, "TC1700000000000_1", formCase.ID)
	assert.Equal(t, schemas.CategoryIntegration, formCase.Type)
	assert.Equal(t, "Test Case: form_submit", formCase.Name)
	require.Len(t, formCase.Steps, 1)
	assert.Equal(t, `Submit form with data: {"password":"******","user":"bob"}`, formCase.Steps[0].Description)
	assert.Equal(t, "#login", formCase.Steps[0].Selector)
}

func TestStepDescriptions(t *testing.T) {
	s := newTestSynthesizer(t, &stubClassifier{})

	tests := []struct {
		detail schemas.Detail
		action string
		desc   string
	}{
		{schemas.Navigation{URL: "https://example.com/a"}, schemas.ActionNavigate, "Navigate to https://example.com/a"},
		{schemas.APICall{Method: "POST", URL: "https://example.com/api"}, schemas.ActionAPI, "Perform api action: POST https://example.com/api"},
		{schemas.Generic{Name: "scroll"}, "scroll", "Perform scroll action"},
		{schemas.FormSubmit{}, schemas.ActionFormSubmit, "Submit form with data: {}"},
	}
	for _, tt := range tests {
		t.Run(string(tt.detail.Kind()), func(t *testing.T) {
			step := s.stepFor(schemas.Interaction{Detail: tt.detail})
			assert.Equal(t, tt.action, step.Action)
			assert.Equal(t, tt.desc, step.Description)
		})
	}
}

func TestCategoryForKind(t *testing.T) {
	assert.Equal(t, schemas.CategoryIntegration, CategoryForKind(schemas.KindFormSubmit))
	assert.Equal(t, schemas.CategoryUI, CategoryForKind(schemas.KindClick))
	assert.Equal(t, schemas.CategoryFunctional, CategoryForKind(schemas.KindNavigation))
	assert.Equal(t, schemas.CategoryFunctional, CategoryForKind(schemas.KindAPI))
}

func TestUUIDFragment(t *testing.T) {
	a, b := uuidFragment(), uuidFragment()
	assert.Len(t, a, randomIDLength)
	assert.NotEqual(t, a, b)
}
