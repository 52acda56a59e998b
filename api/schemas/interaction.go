// File: api/schemas/interaction.go
package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// InteractionKind identifies the variant of an observed interaction.
type InteractionKind string

const (
	KindNavigation InteractionKind = "navigation"
	KindAPI        InteractionKind = "api"
	KindClick      InteractionKind = "click"
	KindFormSubmit InteractionKind = "form_submit"
)

// Detail is the kind-specific payload of an Interaction. The set of
// implementations is closed to this package; unknown kinds are carried
// by Generic.
type Detail interface {
	Kind() InteractionKind
	isDetail()
}

// Navigation is a full-document navigation of the top-level frame.
type Navigation struct {
	URL string `json:"url"`
}

// APICall is a programmatic (XHR/fetch) request. Bodies are never recorded.
type APICall struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// ElementTarget describes the element a click landed on.
type ElementTarget struct {
	Tag     string   `json:"tag,omitempty"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Text    string   `json:"text,omitempty"`
	Href    string   `json:"href,omitempty"`
}

// Click is a user click on a page element.
type Click struct {
	Target ElementTarget `json:"target"`
}

// FormSubmit is a form submission. Password inputs are redacted before
// they reach this struct.
type FormSubmit struct {
	FormID string            `json:"formId,omitempty"`
	Action string            `json:"action,omitempty"`
	Inputs map[string]string `json:"inputs,omitempty"`
}

// Generic carries interactions whose kind has no dedicated variant.
type Generic struct {
	Name string `json:"name"`
}

func (Navigation) Kind() InteractionKind { return KindNavigation }
func (APICall) Kind() InteractionKind    { return KindAPI }
func (Click) Kind() InteractionKind      { return KindClick }
func (FormSubmit) Kind() InteractionKind { return KindFormSubmit }
func (g Generic) Kind() InteractionKind  { return InteractionKind(g.Name) }

func (Navigation) isDetail() {}
func (APICall) isDetail()    {}
func (Click) isDetail()      {}
func (FormSubmit) isDetail() {}
func (Generic) isDetail()    {}

// Interaction is one normalized event observed during a recording session.
// Timestamp is in milliseconds relative to the start of the session.
type Interaction struct {
	Timestamp int64
	Detail    Detail
}

// Kind returns the variant tag of the interaction.
func (i Interaction) Kind() InteractionKind {
	if i.Detail == nil {
		return ""
	}
	return i.Detail.Kind()
}

// Text returns the visible element text captured with the interaction, if any.
func (i Interaction) Text() string {
	if c, ok := i.Detail.(Click); ok {
		return c.Target.Text
	}
	return ""
}

// interactionWire is the flat JSON shape used to persist or debug-dump interactions.
type interactionWire struct {
	Kind      InteractionKind     `json:"kind"`
	Timestamp int64               `json:"timestamp"`
	Detail    jsoniter.RawMessage `json:"detail,omitempty"`
}

var wireJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON encodes the interaction as {kind, timestamp, detail}.
func (i Interaction) MarshalJSON() ([]byte, error) {
	w := interactionWire{Kind: i.Kind(), Timestamp: i.Timestamp}
	if i.Detail != nil {
		raw, err := wireJSON.Marshal(i.Detail)
		if err != nil {
			return nil, err
		}
		w.Detail = raw
	}
	return wireJSON.Marshal(w)
}

// UnmarshalJSON decodes the {kind, timestamp, detail} shape back into the
// matching Detail variant.
func (i *Interaction) UnmarshalJSON(data []byte) error {
	var w interactionWire
	if err := wireJSON.Unmarshal(data, &w); err != nil {
		return err
	}
	detail, err := decodeDetail(w.Kind, w.Detail)
	if err != nil {
		return err
	}
	i.Timestamp = w.Timestamp
	i.Detail = detail
	return nil
}

func decodeDetail(kind InteractionKind, raw jsoniter.RawMessage) (Detail, error) {
	var target Detail
	switch kind {
	case KindNavigation:
		var d Navigation
		if err := unmarshalOptional(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case KindAPI:
		var d APICall
		if err := unmarshalOptional(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case KindClick:
		var d Click
		if err := unmarshalOptional(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case KindFormSubmit:
		var d FormSubmit
		if err := unmarshalOptional(raw, &d); err != nil {
			return nil, err
		}
		target = d
	case "":
		return nil, fmt.Errorf("interaction kind is missing")
	default:
		target = Generic{Name: string(kind)}
	}
	return target, nil
}

func unmarshalOptional(raw jsoniter.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return wireJSON.Unmarshal(raw, v)
}
