package executor

import "github.com/harrison/frontend-diff/internal/models"

// Filter keeps the names that pass include (when non-empty) and are not
// listed in exclude, preserving their order. The page template is never
// restricted by include; only exclude removes it.
func Filter(names, include, exclude []string) []string {
	inc := toSet(include)
	exc := toSet(exclude)

	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != models.PageTemplate && len(inc) > 0 && !inc[name] {
			continue
		}
		if exc[name] {
			continue
		}
		out = append(out, name)
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
