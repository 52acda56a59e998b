package capture

import (
	_ "embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// BindingName is the page-callable function the recorder script reports through.
const BindingName = "__caseforgeRecord"

//go:embed recorder.js
var recorderSource string

// ScriptOptions tunes the in-page recorder.
type ScriptOptions struct {
	ShowIndicator bool
	MaxTextLength int
}

type scriptConfig struct {
	Binding       string `json:"binding"`
	ShowIndicator bool   `json:"showIndicator"`
	MaxTextLength int    `json:"maxTextLength"`
}

// RecorderScript returns the init script that reports clicks and form
// submissions through BindingName.
func RecorderScript(opts ScriptOptions) (string, error) {
	cfg, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(scriptConfig{
		Binding:       BindingName,
		ShowIndicator: opts.ShowIndicator,
		MaxTextLength: opts.MaxTextLength,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode recorder config: %w", err)
	}
	return fmt.Sprintf("window.__caseforgeConfig = %s;\n%s", cfg, recorderSource), nil
}
