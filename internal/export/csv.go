package export

import (
	"strings"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// encodeCSV writes a header and one row per case. Every present value is
// quoted; an absent value is an empty unquoted field. Rows are separated by
// "\n" with no trailing newline.
func encodeCSV(cases []schemas.TestCase) ([]byte, error) {
	var b strings.Builder
	writeCSVRecord(&b, columns)
	for _, tc := range cases {
		b.WriteByte('\n')
		writeCSVRecord(&b, row(tc, "; "))
	}
	return []byte(b.String()), nil
}

func writeCSVRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if f == "" {
			continue
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}
