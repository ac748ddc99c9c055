package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageTemplate is the pseudo-component name under which page template examples run.
const PageTemplate = "page-template"

// Example is a named parameter set used to render a component or the page template.
type Example struct {
	Name string         `yaml:"name" json:"name"`
	Data map[string]any `yaml:"data" json:"data"`
}

// RenderRequest is handed to a candidate renderer. Exactly one of Component
// and Template is set.
type RenderRequest struct {
	Component string         `json:"component,omitempty"`
	Template  bool           `json:"template,omitempty"`
	Params    map[string]any `json:"params"`
}

// ComponentRequest builds a request for a single component.
func ComponentRequest(component string, params map[string]any) RenderRequest {
	return RenderRequest{Component: component, Params: params}
}

// TemplateRequest builds a request for the page template.
func TemplateRequest(params map[string]any) RenderRequest {
	return RenderRequest{Template: true, Params: params}
}

// Validate checks that exactly one render mode is selected.
func (r RenderRequest) Validate() error {
	switch {
	case r.Component != "" && r.Template:
		return fmt.Errorf("render request sets both component %q and template", r.Component)
	case r.Component == "" && !r.Template:
		return fmt.Errorf("render request sets neither component nor template")
	}
	return nil
}

// Target names what the request renders, for logs and errors.
func (r RenderRequest) Target() string {
	if r.Template {
		return PageTemplate
	}
	return r.Component
}

// ParamsJSON encodes Params the way candidates receive them. A nil map is
// encoded as an empty object.
func (r RenderRequest) ParamsJSON() (string, error) {
	params := r.Params
	if params == nil {
		params = map[string]any{}
	}
	data, err := encodeJSON(params)
	if err != nil {
		return "", fmt.Errorf("encode params for %s: %w", r.Target(), err)
	}
	return string(data), nil
}

// JSON encodes the whole request, as posted to HTTP candidates.
func (r RenderRequest) JSON() ([]byte, error) {
	if r.Params == nil {
		r.Params = map[string]any{}
	}
	data, err := encodeJSON(r)
	if err != nil {
		return nil, fmt.Errorf("encode request for %s: %w", r.Target(), err)
	}
	return data, nil
}

// encodeJSON is json.Marshal without HTML escaping, so markup in params
// reaches candidates as written.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
