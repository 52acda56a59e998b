// File: internal/capture/capturer.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

const redacted = "******"

var payloadJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// pagePayload is the JSON shape posted by recorder.js.
type pagePayload struct {
	Type   string                `json:"type"`
	Target *schemas.ElementTarget `json:"target"`
	FormID string                `json:"formId"`
	Action string                `json:"action"`
	Inputs map[string]string     `json:"inputs"`
}

// Capturer turns browser signals into interactions appended to a Buffer.
type Capturer struct {
	logger  *zap.Logger
	buffer  *Buffer
	options ScriptOptions
}

// NewCapturer creates a capturer writing into buffer.
func NewCapturer(logger *zap.Logger, buffer *Buffer, opts ScriptOptions) *Capturer {
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = 100
	}
	return &Capturer{
		logger:  logger.Named("capture"),
		buffer:  buffer,
		options: opts,
	}
}

// Install subscribes to controller signals, exposes the recorder binding and
// registers the recorder script for every new document. It must run before
// the first navigation.
func (c *Capturer) Install(ctx context.Context, controller schemas.BrowserController) error {
	controller.OnSignal(c.Handle)

	if err := controller.ExposeBinding(ctx, BindingName); err != nil {
		return fmt.Errorf("failed to expose recorder binding: %w", err)
	}
	script, err := RecorderScript(c.options)
	if err != nil {
		return err
	}
	if err := controller.AddInitScript(ctx, script); err != nil {
		return fmt.Errorf("failed to install recorder script: %w", err)
	}
	return nil
}

// Handle normalizes a single signal. Signals that do not map to an
// interaction are ignored; malformed page payloads are logged and skipped.
func (c *Capturer) Handle(sig schemas.Signal) {
	detail, err := c.normalize(sig)
	if err != nil {
		c.logger.Warn("Skipping malformed interaction.", zap.Error(err))
		return
	}
	if detail == nil {
		return
	}
	if !c.buffer.Append(detail) {
		c.logger.Debug("Dropped interaction after capture was detached.", zap.String("kind", string(detail.Kind())))
	}
}

func (c *Capturer) normalize(sig schemas.Signal) (schemas.Detail, error) {
	switch sig.Kind {
	case schemas.SignalFrameNavigated:
		if !sig.MainFrame || sig.URL == "" {
			return nil, nil
		}
		return schemas.Navigation{URL: sig.URL}, nil

	case schemas.SignalRequest:
		if sig.ResourceType != schemas.ResourceXHR && sig.ResourceType != schemas.ResourceFetch {
			return nil, nil
		}
		return schemas.APICall{Method: strings.ToUpper(sig.Method), URL: sig.URL}, nil

	case schemas.SignalBinding:
		if sig.Binding != BindingName {
			return nil, nil
		}
		return c.decodePayload(sig.Payload)
	}
	return nil, nil
}

func (c *Capturer) decodePayload(raw string) (schemas.Detail, error) {
	var p pagePayload
	if err := payloadJSON.UnmarshalFromString(raw, &p); err != nil {
		return nil, &schemas.CaptureError{Source: BindingName, Err: err}
	}

	switch schemas.InteractionKind(p.Type) {
	case schemas.KindClick:
		if p.Target == nil {
			return nil, &schemas.CaptureError{Source: BindingName, Err: errors.New("click payload without target")}
		}
		target := *p.Target
		target.Text = truncateRunes(strings.TrimSpace(target.Text), c.options.MaxTextLength)
		return schemas.Click{Target: target}, nil

	case schemas.KindFormSubmit:
		return schemas.FormSubmit{FormID: p.FormID, Action: p.Action, Inputs: redactInputs(p.Inputs)}, nil

	case "":
		return nil, &schemas.CaptureError{Source: BindingName, Err: errors.New("payload without type")}

	default:
		return schemas.Generic{Name: p.Type}, nil
	}
}

// redactInputs masks any field whose name marks it as a password, in case the
// page script could not see the input type.
func redactInputs(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if strings.Contains(strings.ToLower(k), "password") {
			v = redacted
		}
		out[k] = v
	}
	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
