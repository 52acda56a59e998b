// File: internal/documents/formats.go
package documents

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/titanous/json5"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

const utf8BOM = "\ufeff"

func invalid(format string, args ...interface{}) error {
	return schemas.NewValidationError(schemas.ErrCodeInvalidDocumentContent, format, args...)
}

// readSpreadsheet reads the first worksheet; the first row is the header.
func readSpreadsheet(data []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalid("spreadsheet has no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, invalid("failed to read worksheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return tableRecords(rows[0], rows[1:]), nil
}

// readCSV reads a header row followed by story rows. The header must name
// an ID or Description column.
func readCSV(data []byte) ([]record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalid("CSV document is empty")
	}
	if err != nil {
		return nil, invalid("failed to parse CSV header: %v", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	if !hasAnyColumn(header, idFields) && !hasAnyColumn(header, descriptionFields) {
		return nil, invalid("CSV header must contain an ID or Description column")
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, invalid("failed to parse CSV: %v", err)
	}
	return tableRecords(header, rows), nil
}

func hasAnyColumn(header []string, names []string) bool {
	for _, h := range header {
		h = strings.TrimSpace(h)
		for _, n := range names {
			if h == n {
				return true
			}
		}
	}
	return false
}

// tableRecords pairs each row with the header. Short rows are padded with
// empty values and blank rows are skipped.
func tableRecords(header []string, rows [][]string) []record {
	records := make([]record, 0, len(rows))
	for _, row := range rows {
		blank := true
		rec := make(record, len(header))
		for i, col := range header {
			col = strings.TrimSpace(col)
			if col == "" {
				continue
			}
			var v string
			if i < len(row) {
				v = strings.TrimSpace(row[i])
			}
			if v != "" {
				blank = false
			}
			rec[col] = v
		}
		if !blank {
			records = append(records, rec)
		}
	}
	return records
}

// readJSON accepts a single story object or an array of them. Comments and
// trailing commas are tolerated.
func readJSON(data []byte) ([]record, error) {
	var v interface{}
	if err := json5.Unmarshal(data, &v); err != nil {
		return nil, invalid("failed to parse JSON: %v", err)
	}
	return objectRecords(v)
}

// readYAML accepts a single story mapping or a sequence of them.
func readYAML(data []byte) ([]record, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, invalid("failed to parse YAML: %v", err)
	}
	return objectRecords(v)
}

func objectRecords(v interface{}) ([]record, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		records := make([]record, 0, len(t))
		for i, item := range t {
			rec, ok := asRecord(item)
			if !ok {
				return nil, invalid("story %d is not an object", i+1)
			}
			records = append(records, rec)
		}
		return records, nil
	default:
		rec, ok := asRecord(t)
		if !ok {
			return nil, invalid("document must be an object or a list of objects, got %T", v)
		}
		return []record{rec}, nil
	}
}

func asRecord(v interface{}) (record, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return record(m), true
	case map[interface{}]interface{}:
		rec := make(record, len(m))
		for k, val := range m {
			rec[fmt.Sprint(k)] = val
		}
		return rec, true
	default:
		return nil, false
	}
}
