// File: internal/export/export.go
package export

import (
	"strings"
	"time"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported export format.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX}

const defaultContentType = "application/octet-stream"

var contentTypes = map[Format]string{
	FormatJSON: "application/json",
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// encoder turns a non-empty case list into bytes.
type encoder func(cases []schemas.TestCase) ([]byte, error)

var encoders = map[Format]encoder{
	FormatJSON: encodeJSON,
	FormatCSV:  encodeCSV,
	FormatXLSX: encodeXLSX,
}

// Artifact is an encoded export ready to be written or served.
type Artifact struct {
	Bytes       []byte
	ContentType string
	FileName    string
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := encoders[f]; !ok {
		return "", schemas.NewValidationError(schemas.ErrCodeUnsupportedFormat, "unsupported export format: %q", s)
	}
	return f, nil
}

// Encode serializes cases in the requested format. It fails with
// ErrEmptyInput for an empty list, ErrUnsupportedFormat for an unknown format,
// and an *schemas.ExportError when the encoder itself fails.
func Encode(cases []schemas.TestCase, format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, schemas.NewValidationError(schemas.ErrCodeEmptyInput, "no test cases to export")
	}
	data, err := encoders[f](cases)
	if err != nil {
		return nil, &schemas.ExportError{Format: string(f), Err: err}
	}
	return data, nil
}

// Export encodes cases and attaches the content type and a timestamped file name.
func Export(cases []schemas.TestCase, format string, now time.Time) (*Artifact, error) {
	data, err := Encode(cases, format)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Bytes:       data,
		ContentType: ContentType(format),
		FileName:    FileName(format, now),
	}, nil
}

// ContentType returns the media type for format, or application/octet-stream.
func ContentType(format string) string {
	if ct, ok := contentTypes[Format(strings.ToLower(format))]; ok {
		return ct
	}
	return defaultContentType
}

// FileName returns test-cases-<ISO-8601 UTC timestamp>.<format> with ':' and
// '.' in the timestamp replaced by '-'.
func FileName(format string, now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "test-cases-" + stamp + "." + strings.ToLower(format)
}

// stepLines renders each step as "<action>: <description>".
func stepLines(tc schemas.TestCase) []string {
	lines := make([]string, len(tc.Steps))
	for i, st := range tc.Steps {
		lines[i] = st.Action + ": " + st.Description
	}
	return lines
}

// columns is the fixed tabular layout shared by CSV and XLSX.
var columns = []string{"ID", "Name", "Type", "Priority", "Steps"}

// row flattens a case into the tabular column order.
func row(tc schemas.TestCase, stepSep string) []string {
	return []string{tc.ID, tc.Name, string(tc.Type), string(tc.Priority), strings.Join(stepLines(tc), stepSep)}
}
