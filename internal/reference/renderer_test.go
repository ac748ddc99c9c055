package reference

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/frontend-diff/internal/bundle"
	"github.com/harrison/frontend-diff/internal/models"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="{{ default "en" .htmlLang }}"{{ with .htmlClasses }} class="{{ . }}"{{ end }}>
<head><title>{{block "pageTitle" .}}Reference{{end}}</title>{{block "head" .}}{{end}}</head>
<body{{ attrs .bodyAttributes }}>
{{block "header" .}}<header>Default header</header>{{end}}
{{block "main" .}}<main>{{block "beforeContent" .}}{{end}}{{block "content" .}}<p>Default content</p>{{end}}</main>{{end}}
{{block "footer" .}}<footer>Default footer</footer>{{end}}
</body>
</html>
`

func newBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/template.tmpl": pageTemplate,
		"src/components/button/template.tmpl": `
<button type="{{ default "submit" .params.type }}" class="govuk-button{{ with .params.classes }} {{ . }}{{ end }}"{{ if .params.disabled }} disabled{{ end }}>
  {{ escape .params.text }}
</button>
`,
		"src/components/panel/template.tmpl":   `<div class="panel">{{ component "button" (dict "text" .params.label) }}</div>`,
		"src/components/loop/template.tmpl":    `{{ component "loop" .params }}`,
		"src/components/set/template.tmpl":     `{{ $_ := set .params "type" "reset" }}<button type="{{ .params.type }}">{{ .params.text }}</button>`,
		"src/components/broken/template.tmpl":  `{{ if }}`,
		"src/components/failing/template.tmpl": `{{ fail "boom" }}`,
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	b, err := bundle.Open(root, "test", bundle.DefaultLayout())
	require.NoError(t, err)
	return b
}

func TestRenderComponent(t *testing.T) {
	r := New(newBundle(t))

	tests := []struct {
		name     string
		params   map[string]any
		expected string
	}{
		{
			name:     "defaults",
			params:   map[string]any{"text": "Save"},
			expected: "<button type=\"submit\" class=\"govuk-button\">\n  Save\n</button>",
		},
		{
			name:     "all options",
			params:   map[string]any{"text": "Save & continue", "type": "button", "classes": "extra", "disabled": true},
			expected: "<button type=\"button\" class=\"govuk-button extra\" disabled>\n  Save &amp; continue\n</button>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.RenderComponent("button", tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestRenderComponentNesting(t *testing.T) {
	r := New(newBundle(t))

	out, err := r.RenderComponent("panel", map[string]any{"label": "Go"})
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="panel"><button type="submit" class="govuk-button">`)
	assert.Contains(t, out, "Go")

	_, err = r.RenderComponent("loop", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting deeper than")
}

func TestRenderComponentLeavesParamsUntouched(t *testing.T) {
	r := New(newBundle(t))
	params := map[string]any{"text": "Save", "nested": map[string]any{"a": 1}}

	out, err := r.RenderComponent("set", params)
	require.NoError(t, err)
	assert.Equal(t, `<button type="reset">Save</button>`, out)
	assert.Equal(t, map[string]any{"text": "Save", "nested": map[string]any{"a": 1}}, params)

	out, err = r.RenderComponent("set", nil)
	require.NoError(t, err)
	assert.Equal(t, `<button type="reset"></button>`, out)
}

func TestRenderPageLeavesParamsUntouched(t *testing.T) {
	r := New(newBundle(t))
	params := map[string]any{"content": "<p>x</p>", "bodyAttributes": map[string]any{"foo": "bar"}}

	_, err := r.RenderPage(params)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"content": "<p>x</p>", "bodyAttributes": map[string]any{"foo": "bar"}}, params)
}

func TestRenderComponentErrors(t *testing.T) {
	r := New(newBundle(t))

	tests := []struct {
		component string
		errSubstr string
	}{
		{component: "missing", errSubstr: "not found"},
		{component: "broken", errSubstr: "parse template.tmpl"},
		{component: "failing", errSubstr: "boom"},
		{component: "../button", errSubstr: "invalid component name"},
	}
	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			_, err := r.RenderComponent(tt.component, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestRenderPageDefaults(t *testing.T) {
	r := New(newBundle(t))

	out, err := r.RenderPage(map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, `<html lang="en">`)
	assert.Contains(t, out, "<title>Reference</title>")
	assert.Contains(t, out, "<header>Default header</header>")
	assert.Contains(t, out, "<main><p>Default content</p></main>")
	assert.Contains(t, out, "<footer>Default footer</footer>")
	assert.Contains(t, out, "<body>")
}

func TestRenderPageExamples(t *testing.T) {
	r := New(newBundle(t))
	examples := PageExamples()
	require.Len(t, examples, 3)

	t.Run("simple overrides", func(t *testing.T) {
		out, err := r.RenderPage(examples[0].Data)
		require.NoError(t, err)
		assert.Contains(t, out, "<title><p>pageTitle</p></title>")
		assert.Contains(t, out, "<p>header</p>")
		assert.Contains(t, out, "<main><p>content</p></main>")
		assert.Contains(t, out, "<p>footer</p>")
		assert.NotContains(t, out, "Default")
	})

	t.Run("everything except main", func(t *testing.T) {
		out, err := r.RenderPage(examples[1].Data)
		require.NoError(t, err)
		assert.Contains(t, out, `<html lang="htmlLang" class="htmlClasses">`)
		assert.Contains(t, out, `<body foo="bar" wibble="bob">`)
		assert.Contains(t, out, "<p>head</p>")
		assert.Contains(t, out, "<main><p>beforeContent</p><p>content</p></main>")
	})

	t.Run("override main block", func(t *testing.T) {
		out, err := r.RenderPage(examples[2].Data)
		require.NoError(t, err)
		assert.Contains(t, out, "\n<p>footer</p>\n")
		assert.NotContains(t, out, "<main>")
		assert.Contains(t, out, "<header>Default header</header>")
		assert.Contains(t, out, "<footer>Default footer</footer>")
		assert.Contains(t, out, "<title>Reference</title>")
	})
}

func TestRenderPageIgnoresEmptyAndNonStringOverrides(t *testing.T) {
	r := New(newBundle(t))

	out, err := r.RenderPage(map[string]any{"header": "", "footer": 42})
	require.NoError(t, err)
	assert.Contains(t, out, "<header>Default header</header>")
	assert.Contains(t, out, "<footer>Default footer</footer>")
}

func TestRenderPageDoesNotLeakOverrides(t *testing.T) {
	r := New(newBundle(t))

	_, err := r.RenderPage(map[string]any{"content": "<p>first</p>"})
	require.NoError(t, err)

	out, err := r.RenderPage(map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "<p>Default content</p>")
	assert.NotContains(t, out, "first")
}

func TestRegions(t *testing.T) {
	r := New(newBundle(t))
	tmpl, err := r.pageTemplate()
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"pageTitle", "head", "header", "main", "beforeContent", "content", "footer"},
		Regions(tmpl))
}

func TestRenderDispatch(t *testing.T) {
	r := New(newBundle(t))
	ctx := context.Background()

	out, err := r.Render(ctx, models.ComponentRequest("button", map[string]any{"text": "Go"}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<button"))

	out, err = r.Render(ctx, models.TemplateRequest(map[string]any{"main": "<p>x</p>"}))
	require.NoError(t, err)
	assert.Contains(t, out, "<p>x</p>")

	_, err = r.Render(ctx, models.RenderRequest{})
	assert.Error(t, err)
}

func TestRendererConcurrentUse(t *testing.T) {
	r := New(newBundle(t))

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = r.RenderComponent("panel", map[string]any{"label": "x"})
			} else {
				_, errs[i] = r.RenderPage(map[string]any{"content": "<p>y</p>"})
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
