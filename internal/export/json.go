package export

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

var exportJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// encodeJSON writes the full case structure with two-space indentation.
func encodeJSON(cases []schemas.TestCase) ([]byte, error) {
	return exportJSON.MarshalIndent(cases, "", "  ")
}
