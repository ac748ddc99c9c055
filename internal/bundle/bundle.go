// Package bundle materializes version-pinned reference bundles: component
// templates, their example definitions and the page template.
package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/harrison/frontend-diff/internal/models"
)

// Layout locates the pieces of a bundle relative to its root. All paths use
// forward slashes.
type Layout struct {
	ComponentsDir string
	TemplateFile  string
	ExamplesFile  string // {name} is replaced by the component name
	PageTemplate  string
}

// DefaultLayout returns the layout used when none is configured.
func DefaultLayout() Layout {
	return Layout{
		ComponentsDir: "src/components",
		TemplateFile:  "template.tmpl",
		ExamplesFile:  "{name}.yaml",
		PageTemplate:  "src/template.tmpl",
	}
}

// Bundle is a materialized reference bundle for one version. It is read-only
// once returned by a Provider and safe for concurrent use.
type Bundle struct {
	Version string
	Root    string
	Layout  Layout
}

// Open returns a Bundle over an existing directory.
func Open(root, version string, layout Layout) (*Bundle, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrAcquisition, root)
	}
	return &Bundle{Version: version, Root: root, Layout: layout}, nil
}

// Components lists the component names of the bundle in sorted order. A
// component is a directory under the components directory that holds a
// template file.
func (b *Bundle) Components() ([]string, error) {
	dir := filepath.Join(b.Root, filepath.FromSlash(b.Layout.ComponentsDir))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: components directory %s not found", ErrCatalog, b.Layout.ComponentsDir)
	}

	pattern := path.Join(b.Layout.ComponentsDir, "*", b.Layout.TemplateFile)
	matches, err := doublestar.Glob(os.DirFS(b.Root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, path.Base(path.Dir(m)))
	}
	sort.Strings(names)
	return names, nil
}

// ComponentDir returns the directory of a component.
func (b *Bundle) ComponentDir(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("invalid component name %q", name)
	}
	return filepath.Join(b.Root, filepath.FromSlash(b.Layout.ComponentsDir), name), nil
}

// TemplatePath returns the template file of a component.
func (b *Bundle) TemplatePath(name string) (string, error) {
	dir, err := b.ComponentDir(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, b.Layout.TemplateFile), nil
}

// PageTemplatePath returns the page template file.
func (b *Bundle) PageTemplatePath() string {
	return filepath.Join(b.Root, filepath.FromSlash(b.Layout.PageTemplate))
}

type examplesFile struct {
	Examples []models.Example `yaml:"examples"`
}

// Examples loads the examples of a component in declaration order. A missing
// or malformed examples file yields a *SetupError.
func (b *Bundle) Examples(name string) ([]models.Example, error) {
	dir, err := b.ComponentDir(name)
	if err != nil {
		return nil, &SetupError{Component: name, Err: err}
	}

	file := filepath.Join(dir, strings.ReplaceAll(b.Layout.ExamplesFile, "{name}", name))
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("examples file %s not found", filepath.Base(file))
		}
		return nil, &SetupError{Component: name, Err: err}
	}

	var parsed examplesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, &SetupError{Component: name, Err: fmt.Errorf("parse %s: %w", filepath.Base(file), err)}
	}

	for i := range parsed.Examples {
		ex := &parsed.Examples[i]
		if strings.TrimSpace(ex.Name) == "" {
			return nil, &SetupError{Component: name, Err: fmt.Errorf("example %d has no name", i+1)}
		}
		if ex.Data == nil {
			ex.Data = map[string]any{}
		}
	}
	return parsed.Examples, nil
}

// validName rejects names that would escape the components directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && fs.ValidPath(name)
}
