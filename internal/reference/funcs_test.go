package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamel(t *testing.T) {
	tests := map[string]string{
		"character-count": "CharacterCount",
		"button":          "Button",
		"date-input":      "DateInput",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, camel(in), in)
	}
}

func TestAttrs(t *testing.T) {
	got := attrs(map[string]any{
		"wibble":  "bob",
		"foo":     "bar",
		"hidden":  true,
		"skipped": false,
		"nothing": nil,
		"data-q":  `a"b`,
	})
	assert.Equal(t, ` data-q="a&#34;b" foo="bar" hidden wibble="bob"`, got)

	assert.Equal(t, "", attrs(nil))
	assert.Equal(t, "", attrs("not a map"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Tom &amp; Jerry&lt;/b&gt;", escape("<b>Tom & Jerry</b>"))
	assert.Equal(t, "42", escape(42))
	assert.Equal(t, "", escape(nil))
}

func TestFuncMapIncludesSprig(t *testing.T) {
	fm := funcMap()
	for _, name := range []string{"default", "dict", "trim", "escape", "safe", "attrs", "camel", "component", "blockOverride"} {
		assert.Contains(t, fm, name)
	}
}
