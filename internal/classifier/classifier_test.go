package classifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(zaptest.NewLogger(t), config.NewDefaultConfig().Classifier)
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		text string
		want schemas.Category
	}{
		{"verify authentication", schemas.CategorySecurity},
		{"Validate authorization for admin users", schemas.CategorySecurity},
		{"smoke test", schemas.CategorySmoke},
		{"regression testing", schemas.CategoryRegression},
		{"validate layout", schemas.CategoryUI},
		{"check response time under load", schemas.CategoryPerformance},
		{"test integration with payment API", schemas.CategoryIntegration},
		{"VERIFY AUTHENTICATION", schemas.CategorySecurity},
		// Story boilerplate carries no vote.
		{"As a user I want to check authentication", schemas.CategorySecurity},
		{"As a user I want to log in with my password", schemas.CategoryFunctional},
		{"As a user I want to validate the layout", schemas.CategoryUI},
		// Ambiguous single word spread across classes.
		{"verify", schemas.CategoryFunctional},
		// Nothing in the vocabulary.
		{"hello world", schemas.CategoryFunctional},
		{"", schemas.CategoryFunctional},
		{"!!! ??? ...", schemas.CategoryFunctional},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestTokenizeDropsStopWords(t *testing.T) {
	assert.Equal(t, []string{"search", "products"}, tokenize(normalize("As a user, I want to search products")))
	assert.Empty(t, tokenize("as a user"))
}

func TestClassifyIsTotal(t *testing.T) {
	c := newTestClassifier(t)
	inputs := []string{"", " ", "\x00\xff", "ｖｅｒｉｆｙ ａｕｔｈｅｎｔｉｃａｔｉｏｎ", "load load load load", "日本語のテキスト"}
	for _, in := range inputs {
		assert.True(t, c.Classify(in).Valid(), "input %q produced an invalid category", in)
	}
	// NFKC folds full-width characters onto the trained vocabulary.
	assert.Equal(t, schemas.CategorySecurity, c.Classify("ｖｅｒｉｆｙ ａｕｔｈｅｎｔｉｃａｔｉｏｎ"))
}

func TestClassifyConfidenceThreshold(t *testing.T) {
	cfg := config.NewDefaultConfig().Classifier
	cfg.MinConfidence = 0.1
	c, err := New(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)

	// "testing" leans to regression but stays under the default threshold.
	assert.Equal(t, schemas.CategoryFunctional, newTestClassifier(t).Classify("testing"))
	// With a permissive threshold the weak winner is accepted.
	assert.Equal(t, schemas.CategoryRegression, c.Classify("testing"))
}

func TestClassifyRecoversFromPanic(t *testing.T) {
	c := newTestClassifier(t)
	c.Initialize()
	c.model = nil

	assert.Equal(t, schemas.CategoryFunctional, c.Classify("verify authentication"))
}

func TestClassifyCache(t *testing.T) {
	c := newTestClassifier(t)
	require.NotNil(t, c.cache)

	assert.Equal(t, schemas.CategorySmoke, c.Classify("Smoke Test"))
	cached, ok := c.cache.Get("smoke test")
	require.True(t, ok)
	assert.Equal(t, schemas.CategorySmoke, cached)

	cfg := config.NewDefaultConfig().Classifier
	cfg.CacheSize = 0
	uncached, err := New(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Nil(t, uncached.cache)
	assert.Equal(t, schemas.CategorySmoke, uncached.Classify("Smoke Test"))
}

func TestInitializeIsIdempotentAndConcurrent(t *testing.T) {
	c := newTestClassifier(t)

	var wg sync.WaitGroup
	results := make([]schemas.Category, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Classify("verify authentication")
		}(i)
	}
	wg.Wait()

	first := c.model
	c.Initialize()
	assert.Same(t, first, c.model, "second Initialize must not retrain")
	for _, r := range results {
		assert.Equal(t, schemas.CategorySecurity, r)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.NewDefaultConfig().Classifier
	cfg.Smoothing = 0
	_, err := New(zaptest.NewLogger(t), cfg)
	assert.Error(t, err)
}
