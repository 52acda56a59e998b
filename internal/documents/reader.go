// File: internal/documents/reader.go
package documents

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// Accepted document media types.
const (
	MediaTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeXLS      = "application/vnd.ms-excel"
	MediaTypeCSV      = "text/csv"
	MediaTypeJSON     = "application/json"
	MediaTypeYAML     = "application/x-yaml"
	MediaTypeYAMLText = "text/yaml"
	MediaTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensionTypes = map[string]string{
	".xlsx": MediaTypeXLSX,
	".xls":  MediaTypeXLS,
	".csv":  MediaTypeCSV,
	".json": MediaTypeJSON,
	".yaml": MediaTypeYAML,
	".yml":  MediaTypeYAML,
	".docx": MediaTypeDOCX,
}

// MediaTypeForPath infers a document media type from a file extension.
func MediaTypeForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt, nil
	}
	return "", schemas.NewValidationError(schemas.ErrCodeUnsupportedMediaType, "cannot infer a document type from %q", filepath.Base(path))
}

type decodeFunc func(data []byte) ([]record, error)

// Reader parses user-story documents in every supported format.
type Reader struct {
	logger   *zap.Logger
	decoders map[string]decodeFunc
}

var _ schemas.DocumentReader = (*Reader)(nil)

func NewReader(logger *zap.Logger) *Reader {
	return &Reader{
		logger: logger.Named("documents"),
		decoders: map[string]decodeFunc{
			MediaTypeXLSX:     readSpreadsheet,
			MediaTypeXLS:      readSpreadsheet,
			MediaTypeCSV:      readCSV,
			MediaTypeJSON:     readJSON,
			MediaTypeYAML:     readYAML,
			MediaTypeYAMLText: readYAML,
		},
	}
}

// Read parses data according to mediaType. Media type parameters such as
// charset are ignored.
func (r *Reader) Read(ctx context.Context, data []byte, mediaType string) ([]schemas.UserStory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mt = parsed
	}

	if mt == MediaTypeDOCX {
		stories, err := readWord(data)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("Read Word document.", zap.Int("stories", len(stories)))
		return stories, nil
	}

	decode, ok := r.decoders[mt]
	if !ok {
		return nil, schemas.NewValidationError(schemas.ErrCodeUnsupportedMediaType, "unsupported file type: %s", mediaType)
	}
	records, err := decode(data)
	if err != nil {
		return nil, err
	}
	stories := normalize(records)
	r.logger.Debug("Read document.", zap.String("media_type", mt), zap.Int("stories", len(stories)))
	return stories, nil
}
