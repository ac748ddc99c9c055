package markup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/harrison/frontend-diff/internal/models"
)

// summaryLimit bounds the text quoted in a change record.
const summaryLimit = 80

// Differ compares canonical markup structurally. It holds no mutable state
// and is safe for concurrent use.
type Differ struct {
	ignored     map[string]bool
	contextLine int
	comments    bool
}

// Option configures a Differ.
type Option func(*Differ)

// WithIgnoredAttributes excludes the named attributes from comparison.
func WithIgnoredAttributes(names ...string) Option {
	return func(d *Differ) {
		for _, n := range names {
			n = strings.ToLower(strings.TrimSpace(n))
			if n != "" {
				d.ignored[n] = true
			}
		}
	}
}

// WithContextLines sets the context size of the unified diff.
func WithContextLines(n int) Option {
	return func(d *Differ) {
		if n >= 0 {
			d.contextLine = n
		}
	}
}

// WithComments makes comment nodes significant. By default they are dropped
// before comparison.
func WithComments() Option {
	return func(d *Differ) {
		d.comments = true
	}
}

// NewDiffer returns a Differ. By default every attribute is significant and
// comments are ignored.
func NewDiffer(opts ...Option) *Differ {
	d := &Differ{
		ignored:     make(map[string]bool),
		contextLine: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// IsEqual reports whether expected and actual are structurally equivalent.
// It agrees with Diff returning no changes.
func (d *Differ) IsEqual(expected, actual string) (bool, error) {
	report, err := d.Diff(expected, actual)
	if err != nil {
		return false, err
	}
	return report.Empty(), nil
}

// Diff lists the structural differences between the reference markup
// (expected) and the candidate markup (actual). Changes are ordered by
// position in the reference tree.
func (d *Differ) Diff(expected, actual string) (models.DiffReport, error) {
	exp, err := parse(expected, d.comments)
	if err != nil {
		return models.DiffReport{}, fmt.Errorf("expected markup: %w", err)
	}
	act, err := parse(actual, d.comments)
	if err != nil {
		return models.DiffReport{}, fmt.Errorf("actual markup: %w", err)
	}

	expText := render(exp)
	actText := render(act)

	c := &collector{differ: d, changes: []models.Change{}}
	c.children(exp, act, "")

	report := models.DiffReport{Changes: c.changes}
	if len(c.changes) > 0 {
		unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(expText),
			B:        difflib.SplitLines(actText),
			FromFile: "reference",
			ToFile:   "candidate",
			Context:  d.contextLine,
		})
		if err != nil {
			return models.DiffReport{}, fmt.Errorf("unified diff: %w", err)
		}
		report.Unified = unified
	}
	return report, nil
}

type collector struct {
	differ  *Differ
	changes []models.Change
}

func (c *collector) add(ch models.Change) {
	c.changes = append(c.changes, ch)
}

// children aligns two sibling lists by their longest common subsequence of
// node identities, then recurses into matched pairs.
func (c *collector) children(exp, act []*node, parent string) {
	expPaths := siblingPaths(exp, parent)
	actPaths := siblingPaths(act, parent)

	for _, op := range align(exp, act) {
		switch {
		case op.exp >= 0 && op.act >= 0:
			c.pair(exp[op.exp], act[op.act], expPaths[op.exp])
		case op.exp >= 0:
			n := exp[op.exp]
			c.add(models.Change{
				Kind:         models.ChangeRemoved,
				Path:         expPaths[op.exp],
				Expected:     summary(n),
				ExpectedLine: n.line,
			})
		default:
			n := act[op.act]
			c.add(models.Change{
				Kind:       models.ChangeAdded,
				Path:       actPaths[op.act],
				Actual:     summary(n),
				ActualLine: n.line,
			})
		}
	}
}

func (c *collector) pair(e, a *node, path string) {
	switch e.kind {
	case elementNode:
		c.attributes(e, a, path)
		c.children(e.children, a.children, path)
	case textNode, commentNode:
		if e.text != a.text {
			c.add(models.Change{
				Kind:         models.ChangeTextChanged,
				Path:         path,
				Expected:     truncate(e.text),
				Actual:       truncate(a.text),
				ExpectedLine: e.line,
				ActualLine:   a.line,
			})
		}
	case doctypeNode:
		if e.tag != a.tag {
			c.add(models.Change{
				Kind:         models.ChangeTextChanged,
				Path:         path,
				Expected:     e.tag,
				Actual:       a.tag,
				ExpectedLine: e.line,
				ActualLine:   a.line,
			})
		}
	}
}

func (c *collector) attributes(e, a *node, path string) {
	expAttrs := c.attrMap(e)
	actAttrs := c.attrMap(a)

	names := make([]string, 0, len(expAttrs)+len(actAttrs))
	for name := range expAttrs {
		names = append(names, name)
	}
	for name := range actAttrs {
		if _, ok := expAttrs[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ev, inExp := expAttrs[name]
		av, inAct := actAttrs[name]
		ch := models.Change{
			Path:         path,
			Attribute:    name,
			ExpectedLine: e.line,
			ActualLine:   a.line,
		}
		switch {
		case inExp && !inAct:
			ch.Kind = models.ChangeAttributeRemoved
			ch.Expected = ev
		case !inExp && inAct:
			ch.Kind = models.ChangeAttributeAdded
			ch.Actual = av
		case ev != av:
			ch.Kind = models.ChangeAttributeChanged
			ch.Expected = ev
			ch.Actual = av
		default:
			continue
		}
		c.add(ch)
	}
}

func (c *collector) attrMap(n *node) map[string]string {
	m := make(map[string]string, len(n.attrs))
	for _, a := range n.attrs {
		name := attrName(a)
		if c.differ.ignored[strings.ToLower(name)] {
			continue
		}
		if _, dup := m[name]; dup {
			continue
		}
		m[name] = a.Val
	}
	return m
}

// identity decides whether two nodes may be paired.
func identity(n *node) string {
	switch n.kind {
	case elementNode:
		return "<" + n.tag
	case textNode:
		return "#text"
	case commentNode:
		return "#comment"
	default:
		return "!doctype"
	}
}

type alignOp struct {
	exp, act int // -1 when absent on that side
}

func align(exp, act []*node) []alignOp {
	n, m := len(exp), len(act)
	// lcs[i][j] is the LCS length of exp[i:] and act[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if identity(exp[i]) == identity(act[j]) {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	ops := make([]alignOp, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case identity(exp[i]) == identity(act[j]):
			ops = append(ops, alignOp{exp: i, act: j})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, alignOp{exp: i, act: -1})
			i++
		default:
			ops = append(ops, alignOp{exp: -1, act: j})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, alignOp{exp: i, act: -1})
	}
	for ; j < m; j++ {
		ops = append(ops, alignOp{exp: -1, act: j})
	}
	return ops
}

// siblingPaths labels each sibling, adding a 1-based index when labels repeat.
func siblingPaths(nodes []*node, parent string) []string {
	labels := make([]string, len(nodes))
	counts := make(map[string]int)
	for i, n := range nodes {
		labels[i] = label(n)
		counts[labels[i]]++
	}

	seen := make(map[string]int)
	paths := make([]string, len(nodes))
	for i, l := range labels {
		seen[l]++
		if counts[l] > 1 {
			l = fmt.Sprintf("%s[%d]", l, seen[l])
		}
		if parent == "" {
			paths[i] = l
		} else {
			paths[i] = parent + " > " + l
		}
	}
	return paths
}

func label(n *node) string {
	switch n.kind {
	case textNode:
		return "#text"
	case commentNode:
		return "#comment"
	case doctypeNode:
		return "!doctype"
	}

	l := n.tag
	for _, a := range n.attrs {
		if a.Namespace != "" {
			continue
		}
		switch a.Key {
		case "id":
			if a.Val != "" {
				return l + "#" + a.Val
			}
		case "class":
			if first, _, _ := strings.Cut(a.Val, " "); first != "" {
				l = n.tag + "." + first
			}
		}
	}
	return l
}

func summary(n *node) string {
	switch n.kind {
	case elementNode:
		return truncate(openTag(n))
	case commentNode:
		return truncate("<!--" + n.text + "-->")
	case doctypeNode:
		return "<!DOCTYPE " + n.tag + ">"
	default:
		return truncate(n.text)
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= summaryLimit {
		return s
	}
	return string(r[:summaryLimit]) + "…"
}
