package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/reviewscope/crawler/internal/platform"
)

// Document wraps one parsed HTML page so CSS and XPath selectors can be
// evaluated against the same tree. Parsing happens once; everything
// downstream is side-effect free.
type Document struct {
	gq   *goquery.Document
	root *html.Node
}

// ParseDocument parses rendered page HTML.
func ParseDocument(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return &Document{
		gq:   goquery.NewDocumentFromNode(root),
		root: root,
	}, nil
}

// First evaluates a single selector and returns the first non-empty
// match, or "" when the element is absent. Selector misses are routine
// on these storefronts and never an error.
func (d *Document) First(sel platform.Selector) string {
	switch sel.Type {
	case platform.XPath:
		nodes, err := htmlquery.QueryAll(d.root, sel.Query)
		if err != nil {
			return ""
		}
		for _, node := range nodes {
			var val string
			if sel.Attr == "" {
				val = strings.TrimSpace(htmlquery.InnerText(node))
			} else {
				val = strings.TrimSpace(htmlquery.SelectAttr(node, sel.Attr))
			}
			if val != "" {
				return val
			}
		}
		return ""
	default: // CSS
		var found string
		d.gq.Find(sel.Query).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var val string
			if sel.Attr == "" {
				val = strings.TrimSpace(s.Text())
			} else {
				val, _ = s.Attr(sel.Attr)
				val = strings.TrimSpace(val)
			}
			if val != "" {
				found = val
				return false
			}
			return true
		})
		return found
	}
}

// FirstMatch tries each selector in priority order and returns the first
// non-empty result. This is the whole fallback policy: ordered list,
// first hit wins.
func (d *Document) FirstMatch(sels []platform.Selector) string {
	for _, sel := range sels {
		if val := d.First(sel); val != "" {
			return val
		}
	}
	return ""
}

// digitsOnly strips everything but ASCII digits.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
