// Package richtext cleans editor HTML before it is stored.
package richtext

import (
	"bytes"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedElements maps each permitted element to the attributes it may keep
// beyond globalAttrs. Anything else is unwrapped or dropped.
var allowedElements = map[atom.Atom][]string{
	atom.P: nil, atom.Br: nil, atom.Hr: nil, atom.Div: nil, atom.Span: nil,
	atom.H1: nil, atom.H2: nil, atom.H3: nil, atom.H4: nil, atom.H5: nil, atom.H6: nil,
	atom.B: nil, atom.Strong: nil, atom.I: nil, atom.Em: nil, atom.U: nil,
	atom.S: nil, atom.Strike: nil, atom.Del: nil, atom.Ins: nil, atom.Mark: nil,
	atom.Small: nil, atom.Sub: nil, atom.Sup: nil, atom.Code: nil, atom.Pre: nil,
	atom.Abbr: nil, atom.Cite: nil,
	atom.Blockquote: {"cite"}, atom.Q: {"cite"},
	atom.Ul: nil, atom.Ol: {"start"}, atom.Li: nil,
	atom.Dl: nil, atom.Dt: nil, atom.Dd: nil,
	atom.Figure: nil, atom.Figcaption: nil,
	atom.Table: nil, atom.Caption: nil, atom.Thead: nil, atom.Tbody: nil, atom.Tfoot: nil,
	atom.Tr: nil, atom.Th: {"colspan", "rowspan"}, atom.Td: {"colspan", "rowspan"},
	atom.A:   {"href"},
	atom.Img: {"src", "alt", "width", "height"},
}

var globalAttrs = []string{"title", "class", "dir", "lang"}

// dropped along with their content; other unknown elements keep their children
var strippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Applet:   true,
	atom.Svg:      true,
	atom.Math:     true,
	atom.Head:     true,
	atom.Title:    true,
	atom.Textarea: true,
	atom.Select:   true,
	atom.Option:   true,
	atom.Button:   true,
	atom.Noembed:  true,
	atom.Noframes: true,
	atom.Xmp:      true,
}

var urlAttrs = map[string]bool{"href": true, "src": true, "cite": true}

var safeSchemes = map[string]bool{"http": true, "https": true, "mailto": true, "tel": true}

var safeImageTypes = []string{"data:image/png", "data:image/jpeg", "data:image/gif", "data:image/webp"}

type verdict int

const (
	keep verdict = iota
	unwrap
	drop
)

// Sanitize reduces an HTML fragment to an allow-list of formatting elements
// and attributes. SVG and MathML subtrees, scripting elements and comments are
// removed; URLs must be relative or http, https, mailto or tel (raster
// data:image URLs are kept for pasted images). Links get rel="noopener noreferrer".
func Sanitize(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("richtext: parse: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	cleanChildren(body)

	var buf bytes.Buffer
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("richtext: render: %w", err)
		}
	}
	return buf.String(), nil
}

func cleanChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch classify(c) {
		case drop:
			n.RemoveChild(c)
		case unwrap:
			cleanChildren(c)
			for gc := c.FirstChild; gc != nil; {
				after := gc.NextSibling
				c.RemoveChild(gc)
				n.InsertBefore(gc, c)
				gc = after
			}
			n.RemoveChild(c)
		default:
			if c.Type == html.ElementNode {
				scrubAttrs(c)
			}
			cleanChildren(c)
		}
		c = next
	}
}

func classify(n *html.Node) verdict {
	switch n.Type {
	case html.TextNode:
		return keep
	case html.ElementNode:
		// foreign content (svg, math) never survives
		if n.Namespace != "" || strippedElements[n.DataAtom] {
			return drop
		}
		if _, ok := allowedElements[n.DataAtom]; ok {
			return keep
		}
		return unwrap
	}
	return drop
}

func scrubAttrs(n *html.Node) {
	allowed := allowedElements[n.DataAtom]
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" || !(slices.Contains(globalAttrs, key) || slices.Contains(allowed, key)) {
			continue
		}
		if urlAttrs[key] && !safeURL(a.Val) {
			continue
		}
		kept = append(kept, html.Attribute{Key: key, Val: a.Val})
	}
	n.Attr = kept
	if n.DataAtom == atom.A {
		n.Attr = append(n.Attr, html.Attribute{Key: "rel", Val: "noopener noreferrer"})
	}
}

func safeURL(raw string) bool {
	v := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "data:") {
		for _, prefix := range safeImageTypes {
			if strings.HasPrefix(lower, prefix+";") || strings.HasPrefix(lower, prefix+",") {
				return true
			}
		}
		return false
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		// a colon before any slash would be read as a scheme by browsers
		return !strings.Contains(strings.SplitN(lower, "/", 2)[0], ":")
	}
	return safeSchemes[strings.ToLower(u.Scheme)]
}

// PlainText returns the visible text of a fragment, used for excerpts.
func PlainText(fragment string, limit int) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return truncate(strings.Join(strings.Fields(b.String()), " "), limit)
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}
