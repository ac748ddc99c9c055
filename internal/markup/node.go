package markup

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

type nodeKind int

const (
	elementNode nodeKind = iota
	textNode
	commentNode
	doctypeNode
)

// node is the canonical tree. Attributes are sorted and text is already
// normalized, so rendering a node is a pure function of its fields.
type node struct {
	kind     nodeKind
	tag      string
	attrs    []html.Attribute
	text     string
	children []*node
	line     int // first line of the node in the rendered output
}

// voidElements never have children or closing tags.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// verbatimElements keep their content byte for byte.
var verbatimElements = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
	"noscript": true, "iframe": true, "noembed": true, "noframes": true,
	"xmp": true, "plaintext": true,
}

// rawTextElements hold text that is never entity-escaped. The parser
// treats their content as text, noscript included since scripting is on.
var rawTextElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"noembed": true, "noframes": true, "xmp": true, "plaintext": true,
}

// parse reads markup into the canonical tree. Inputs that start with a
// doctype or an <html> element are parsed as documents, everything else as
// a fragment of <body>. Without keepComments, comment nodes are dropped and
// the text around them is joined.
func parse(raw string, keepComments bool) ([]*node, error) {
	var roots []*html.Node

	if isDocument(raw) {
		doc, err := html.Parse(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			roots = append(roots, c)
		}
	} else {
		body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		nodes, err := html.ParseFragment(strings.NewReader(raw), body)
		if err != nil {
			return nil, fmt.Errorf("parse fragment: %w", err)
		}
		roots = nodes
	}

	if !keepComments {
		roots = dropComments(roots)
	}
	var out []*node
	for _, r := range roots {
		if n := convert(r, false, keepComments); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// isDocument skips leading whitespace and comments and checks for a doctype
// or <html> start tag.
func isDocument(raw string) bool {
	s := raw
	for {
		s = strings.TrimLeft(s, " \t\n\f\r")
		if !strings.HasPrefix(s, "<!--") {
			break
		}
		end := strings.Index(s, "-->")
		if end < 0 {
			return false
		}
		s = s[end+3:]
	}
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}

func convert(h *html.Node, verbatim, keepComments bool) *node {
	switch h.Type {
	case html.TextNode:
		text := norm.NFC.String(h.Data)
		if !verbatim {
			text = collapseSpace(text)
		}
		if text == "" {
			return nil
		}
		return &node{kind: textNode, text: text}

	case html.CommentNode:
		return &node{kind: commentNode, text: collapseSpace(norm.NFC.String(h.Data))}

	case html.DoctypeNode:
		return &node{kind: doctypeNode, tag: strings.ToLower(h.Data)}

	case html.ElementNode:
		n := &node{kind: elementNode, tag: h.Data}
		for _, a := range h.Attr {
			a.Val = norm.NFC.String(a.Val)
			if a.Namespace == "" && a.Key == "class" {
				a.Val = collapseSpace(a.Val)
			}
			n.attrs = append(n.attrs, a)
		}
		sort.SliceStable(n.attrs, func(i, j int) bool {
			return attrName(n.attrs[i]) < attrName(n.attrs[j])
		})

		var kids []*html.Node
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			kids = append(kids, c)
		}
		if !keepComments {
			kids = dropComments(kids)
		}
		childVerbatim := verbatim || verbatimElements[n.tag]
		for _, c := range kids {
			if child := convert(c, childVerbatim, keepComments); child != nil {
				n.children = append(n.children, child)
			}
		}
		return n
	}

	return nil
}

// dropComments removes comment nodes from a sibling list and merges the text
// nodes that become adjacent.
func dropComments(nodes []*html.Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == html.CommentNode {
			continue
		}
		if last := len(out) - 1; n.Type == html.TextNode && last >= 0 && out[last].Type == html.TextNode {
			out[last] = &html.Node{Type: html.TextNode, Data: out[last].Data + n.Data}
			continue
		}
		out = append(out, n)
	}
	return out
}

func attrName(a html.Attribute) string {
	if a.Namespace == "" {
		return a.Key
	}
	return a.Namespace + ":" + a.Key
}

func isHTMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\f' || r == '\r'
}

// collapseSpace trims and folds runs of HTML whitespace into one space.
// Non-breaking spaces are content and survive.
func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isHTMLSpace), " ")
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "\"", "&quot;", "\u00a0", "&nbsp;")
)

// renderer writes the canonical form and records line numbers on nodes.
type renderer struct {
	b    strings.Builder
	line int
	eof  bool // a <plaintext> element ran to the end of the input
}

func render(nodes []*node) string {
	r := &renderer{line: 1}
	for _, n := range nodes {
		r.node(n, 0)
	}
	return r.b.String()
}

func (r *renderer) writeLine(depth int, content string) {
	if r.eof {
		return
	}
	r.b.WriteString(strings.Repeat("  ", depth))
	r.b.WriteString(content)
	r.b.WriteByte('\n')
	r.line += 1 + strings.Count(content, "\n")
}

// writeTail writes the content of an open <plaintext> element. The parser
// reads everything after that tag as its text, so nothing may follow it.
func (r *renderer) writeTail(depth int, content string) {
	if r.eof {
		return
	}
	r.b.WriteString(strings.Repeat("  ", depth))
	r.b.WriteString(content)
	r.line += strings.Count(content, "\n")
	r.eof = true
}

func (r *renderer) node(n *node, depth int) {
	n.line = r.line

	switch n.kind {
	case doctypeNode:
		r.writeLine(depth, "<!DOCTYPE "+n.tag+">")
	case commentNode:
		r.writeLine(depth, "<!--"+n.text+"-->")
	case textNode:
		r.writeLine(depth, textEscaper.Replace(n.text))
	case elementNode:
		open := openTag(n)
		switch {
		case voidElements[n.tag]:
			r.writeLine(depth, open)
		case verbatimElements[n.tag]:
			var inner strings.Builder
			eof := n.tag == "plaintext"
			for i, c := range n.children {
				if i == 0 && c.kind == textNode && strings.HasPrefix(c.text, "\n") && !rawTextElements[n.tag] {
					// The parser drops one newline directly after <pre> and <textarea>.
					inner.WriteByte('\n')
				}
				if writeInline(&inner, c, rawTextElements[n.tag]) {
					eof = true
					break
				}
			}
			if eof {
				r.writeTail(depth, open+inner.String())
				return
			}
			r.writeLine(depth, open+inner.String()+"</"+n.tag+">")
		case len(n.children) == 0:
			r.writeLine(depth, open+"</"+n.tag+">")
		default:
			r.writeLine(depth, open)
			for _, c := range n.children {
				r.node(c, depth+1)
			}
			r.writeLine(depth, "</"+n.tag+">")
		}
	}
}

// writeInline renders a subtree without adding any whitespace. It reports
// whether a <plaintext> element was written, after which the parser reads
// everything as text.
func writeInline(b *strings.Builder, n *node, raw bool) bool {
	switch n.kind {
	case textNode:
		if raw {
			b.WriteString(n.text)
		} else {
			b.WriteString(textEscaper.Replace(n.text))
		}
	case commentNode:
		b.WriteString("<!--" + n.text + "-->")
	case elementNode:
		b.WriteString(openTag(n))
		if voidElements[n.tag] {
			return false
		}
		for _, c := range n.children {
			if writeInline(b, c, raw || rawTextElements[n.tag]) {
				return true
			}
		}
		if n.tag == "plaintext" {
			return true
		}
		b.WriteString("</" + n.tag + ">")
	}
	return false
}

func openTag(n *node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.tag)
	for _, a := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(attrName(a))
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}
