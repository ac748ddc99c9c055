package reference

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// funcMap returns the helpers available to bundle templates. component and
// blockOverride are placeholders rebound for every execution.
func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	helpers := template.FuncMap{
		"escape": escape,
		"safe":   func(v any) any { return v },
		"attrs":  attrs,
		"camel":  camel,
		"component": func(name string, _ any) (string, error) {
			return "", fmt.Errorf("component %q: nesting is not available here", name)
		},
		"blockOverride": func(name string) (string, error) {
			return "", fmt.Errorf("region %q is not overridden", name)
		},
	}
	for name, fn := range helpers {
		fm[name] = fn
	}
	return fm
}

// escape HTML-escapes a value; nil renders as the empty string.
func escape(v any) string {
	if v == nil {
		return ""
	}
	return template.HTMLEscapeString(fmt.Sprint(v))
}

// attrs renders a mapping as sorted ` key="value"` pairs. A true value renders
// a bare attribute; false and nil values are omitted.
func attrs(v any) string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch val := m[k].(type) {
		case nil:
		case bool:
			if val {
				b.WriteString(" " + escape(k))
			}
		default:
			fmt.Fprintf(&b, ` %s="%s"`, escape(k), escape(val))
		}
	}
	return b.String()
}

// camel converts a hyphenated name to upper camel case: character-count
// becomes CharacterCount.
func camel(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	parts := strings.Split(s, "-")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "")
}
