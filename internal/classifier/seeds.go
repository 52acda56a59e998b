package classifier

import "github.com/xkilldash9x/caseforge-cli/api/schemas"

// seedPhrase is a labelled training example.
type seedPhrase struct {
	Category schemas.Category
	Text     string
}

// seedCorpus is the fixed training set. Functional has no seeds; it is the
// fallback when nothing else is confident.
var seedCorpus = []seedPhrase{
	{schemas.CategoryPerformance, "verify system performance under load"},
	{schemas.CategoryPerformance, "check response time"},
	{schemas.CategoryPerformance, "load testing"},

	{schemas.CategoryUI, "verify user interface"},
	{schemas.CategoryUI, "check display"},
	{schemas.CategoryUI, "validate layout"},

	{schemas.CategoryIntegration, "test integration"},
	{schemas.CategoryIntegration, "verify API connection"},
	{schemas.CategoryIntegration, "check third-party integration"},

	{schemas.CategorySecurity, "verify security"},
	{schemas.CategorySecurity, "check authentication"},
	{schemas.CategorySecurity, "validate authorization"},

	{schemas.CategorySmoke, "smoke test"},
	{schemas.CategorySmoke, "basic functionality"},

	{schemas.CategoryRegression, "regression testing"},
	{schemas.CategoryRegression, "verify existing functionality"},
}
