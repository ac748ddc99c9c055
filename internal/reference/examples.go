package reference

import "github.com/harrison/frontend-diff/internal/models"

// PageExamples returns the fixed page template scenarios. Region overrides
// are HTML fragments; the remaining keys are plain template variables.
func PageExamples() []models.Example {
	return []models.Example{
		{
			Name: "simple use case overriding the most common elements",
			Data: map[string]any{
				"pageTitle": "<p>pageTitle</p>",
				"header":    "<p>header</p>",
				"content":   "<p>content</p>",
				"footer":    "<p>footer</p>",
			},
		},
		{
			Name: "everything overridden except main block",
			Data: map[string]any{
				// Variables
				"htmlLang":      "htmlLang",
				"htmlClasses":   "htmlClasses",
				"pageTitleLang": "pageTitleLang",
				"themeColor":    "themeColor",
				"bodyClasses":   "bodyClasses",
				"bodyAttributes": map[string]any{
					"foo":    "bar",
					"wibble": "bob",
				},
				"containerClasses": "containerClasses",
				"mainClasses":      "mainClasses",
				"mainLang":         "mainLang",
				// Blocks
				"pageTitle":     "<p>pageTitle</p>",
				"headIcons":     "<p>headIcons</p>",
				"head":          "<p>head</p>",
				"bodyStart":     "<p>bodyStart</p>",
				"skipLink":      "<p>skipLink</p>",
				"header":        "<p>header</p>",
				"beforeContent": "<p>beforeContent</p>",
				"content":       "<p>content</p>",
				"footer":        "<p>footer</p>",
				"bodyEnd":       "<p>bodyEnd</p>",
			},
		},
		{
			Name: "override main block",
			Data: map[string]any{
				"main": "<p>footer</p>",
			},
		},
	}
}
