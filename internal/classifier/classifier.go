// File: internal/classifier/classifier.go
package classifier

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/config"
)

// model is a trained multinomial naive Bayes model. It is immutable after training.
type model struct {
	// order fixes iteration so ties resolve deterministically.
	order       []schemas.Category
	logPrior    map[schemas.Category]float64
	tokenCounts map[schemas.Category]map[string]int
	totalTokens map[schemas.Category]int
	vocabulary  map[string]struct{}
}

// Classifier maps free text to a test category. Training happens once, lazily
// or through Initialize, and every Classify call waits for it.
type Classifier struct {
	logger        *zap.Logger
	minConfidence float64
	smoothing     float64

	once  sync.Once
	model *model

	// cache is nil when caching is disabled.
	cache *lru.Cache[string, schemas.Category]
}

var _ schemas.IntentClassifier = (*Classifier)(nil)

// New creates an untrained classifier.
func New(logger *zap.Logger, cfg config.ClassifierConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	c := &Classifier{
		logger:        logger.Named("classifier"),
		minConfidence: cfg.MinConfidence,
		smoothing:     cfg.Smoothing,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, schemas.Category](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create classification cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Initialize trains the model. Repeated calls are no-ops.
func (c *Classifier) Initialize() {
	c.once.Do(func() {
		c.model = train(seedCorpus)
		c.logger.Debug("Classifier trained.",
			zap.Int("phrases", len(seedCorpus)),
			zap.Int("vocabulary", len(c.model.vocabulary)))
	})
}

// Classify returns the most probable category for text. It never fails:
// unknown vocabulary, low confidence and internal errors all yield functional.
func (c *Classifier) Classify(text string) (category schemas.Category) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recovered from panic during classification.", zap.Any("panic", r))
			category = schemas.CategoryFunctional
		}
	}()

	c.Initialize()

	key := normalize(text)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached
		}
	}

	category = c.classify(key)
	if c.cache != nil {
		c.cache.Add(key, category)
	}
	return category
}

func (c *Classifier) classify(normalized string) schemas.Category {
	m := c.model
	var known []string
	for _, tok := range tokenize(normalized) {
		if _, ok := m.vocabulary[tok]; ok {
			known = append(known, tok)
		}
	}
	if len(known) == 0 {
		return schemas.CategoryFunctional
	}

	vocabSize := float64(len(m.vocabulary))
	scores := make([]float64, len(m.order))
	best := 0
	for i, cat := range m.order {
		score := m.logPrior[cat]
		denom := float64(m.totalTokens[cat]) + c.smoothing*vocabSize
		for _, tok := range known {
			score += math.Log((float64(m.tokenCounts[cat][tok]) + c.smoothing) / denom)
		}
		scores[i] = score
		if score > scores[best] {
			best = i
		}
	}

	// Softmax of the winner against all classes.
	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - scores[best])
	}
	posterior := 1 / sum

	if posterior < c.minConfidence {
		c.logger.Debug("Low confidence classification, using fallback.",
			zap.String("candidate", string(m.order[best])),
			zap.Float64("posterior", posterior))
		return schemas.CategoryFunctional
	}
	return m.order[best]
}

func train(corpus []seedPhrase) *model {
	m := &model{
		logPrior:    make(map[schemas.Category]float64),
		tokenCounts: make(map[schemas.Category]map[string]int),
		totalTokens: make(map[schemas.Category]int),
		vocabulary:  make(map[string]struct{}),
	}
	docs := make(map[schemas.Category]int)

	for _, seed := range corpus {
		if _, seen := docs[seed.Category]; !seen {
			m.order = append(m.order, seed.Category)
			m.tokenCounts[seed.Category] = make(map[string]int)
		}
		docs[seed.Category]++
		for _, tok := range tokenize(normalize(seed.Text)) {
			m.tokenCounts[seed.Category][tok]++
			m.totalTokens[seed.Category]++
			m.vocabulary[tok] = struct{}{}
		}
	}

	for cat, n := range docs {
		m.logPrior[cat] = math.Log(float64(n) / float64(len(corpus)))
	}
	return m
}

// normalize applies NFKC and Unicode case folding. A fresh Caser is used per
// call because Casers are stateful.
func normalize(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// stopWords are function words and user-story boilerplate ("As a user I
// want to ... so that ...") that say nothing about the kind of test.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "be": {}, "can": {}, "for": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "my": {}, "of": {}, "on": {},
	"or": {}, "so": {}, "that": {}, "the": {}, "to": {}, "user": {},
	"want": {}, "we": {}, "with": {},
}

// tokenize splits on anything that is not a letter or digit and drops stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; !stop {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
