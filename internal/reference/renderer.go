// Package reference renders components and the page template of a reference
// bundle. Its output defines the correct markup for every example.
package reference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/mitchellh/copystructure"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/models"
)

// maxNesting bounds component helper recursion.
const maxNesting = 16

// Renderer executes bundle templates. Templates are parsed once on first use
// and shared; it is safe for concurrent use.
type Renderer struct {
	bundle *bundle.Bundle

	mu         sync.Mutex
	components map[string]*template.Template
	page       *template.Template
}

// New creates a Renderer for b.
func New(b *bundle.Bundle) *Renderer {
	return &Renderer{
		bundle:     b,
		components: make(map[string]*template.Template),
	}
}

// RenderComponent renders a component with params nested under the "params"
// key of the template context.
func (r *Renderer) RenderComponent(name string, params map[string]any) (string, error) {
	return r.renderComponent(name, params, 0)
}

func (r *Renderer) renderComponent(name string, params map[string]any, depth int) (string, error) {
	if depth > maxNesting {
		return "", fmt.Errorf("component %s: nesting deeper than %d", name, maxNesting)
	}

	tmpl, err := r.component(name)
	if err != nil {
		return "", err
	}

	exec, err := tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("component %s: %w", name, err)
	}
	exec.Funcs(r.nestingFuncs(depth))

	params, err = isolate(params)
	if err != nil {
		return "", fmt.Errorf("component %s: %w", name, err)
	}
	var out strings.Builder
	if err := exec.Execute(&out, map[string]any{"params": params}); err != nil {
		return "", fmt.Errorf("render component %s: %w", name, err)
	}
	return strings.TrimSpace(out.String()), nil
}

// RenderPage renders the page template against the flat params. Every
// region whose name has a non-empty string value in params is replaced by
// that value; the others keep their default content.
func (r *Renderer) RenderPage(params map[string]any) (string, error) {
	tmpl, err := r.pageTemplate()
	if err != nil {
		return "", err
	}
	params, err = isolate(params)
	if err != nil {
		return "", fmt.Errorf("page template: %w", err)
	}

	exec, err := tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("page template: %w", err)
	}
	exec.Funcs(r.nestingFuncs(0))
	exec.Funcs(template.FuncMap{
		"blockOverride": func(region string) string {
			s, _ := params[region].(string)
			return s
		},
	})

	for _, region := range Regions(tmpl) {
		if s, ok := params[region].(string); !ok || s == "" {
			continue
		}
		if _, err := exec.New(region).Parse(fmt.Sprintf("{{blockOverride %q}}", region)); err != nil {
			return "", fmt.Errorf("override region %s: %w", region, err)
		}
	}

	var out strings.Builder
	if err := exec.Execute(&out, params); err != nil {
		return "", fmt.Errorf("render page template: %w", err)
	}
	return out.String(), nil
}

// isolate deep-copies params. Sprig's map helpers mutate their argument and
// must not write back into the caller's example data.
func isolate(params map[string]any) (map[string]any, error) {
	if params == nil {
		return map[string]any{}, nil
	}
	c, err := copystructure.Copy(params)
	if err != nil {
		return nil, fmt.Errorf("copy params: %w", err)
	}
	return c.(map[string]any), nil
}

// Render dispatches a render request, so the reference can stand in for a
// candidate renderer.
func (r *Renderer) Render(_ context.Context, req models.RenderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.Template {
		return r.RenderPage(req.Params)
	}
	return r.RenderComponent(req.Component, req.Params)
}

// Regions lists the overridable regions of a page template: every template
// in its set other than the root.
func Regions(tmpl *template.Template) []string {
	var names []string
	for _, t := range tmpl.Templates() {
		if t.Name() != tmpl.Name() && t.Tree != nil {
			names = append(names, t.Name())
		}
	}
	return names
}

func (r *Renderer) nestingFuncs(depth int) template.FuncMap {
	return template.FuncMap{
		"component": func(name string, params any) (string, error) {
			m, ok := params.(map[string]any)
			if !ok && params != nil {
				return "", fmt.Errorf("component %s: params must be a mapping, got %T", name, params)
			}
			return r.renderComponent(name, m, depth+1)
		},
	}
}

func (r *Renderer) component(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.components[name]; ok {
		return tmpl, nil
	}

	path, err := r.bundle.TemplatePath(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := parseFile(name, path)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", name, err)
	}
	r.components[name] = tmpl
	return tmpl, nil
}

func (r *Renderer) pageTemplate() (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.page != nil {
		return r.page, nil
	}

	path := r.bundle.PageTemplatePath()
	tmpl, err := parseFile(filepath.Base(path), path)
	if err != nil {
		return nil, fmt.Errorf("page template: %w", err)
	}
	r.page = tmpl
	return tmpl, nil
}

func parseFile(name, path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template %s not found", path)
		}
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(funcMap()).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return tmpl, nil
}
