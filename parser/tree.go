package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Query selects element nodes by exact equality.
// Empty Class means no class constraint; nil Attrs means no attribute constraint.
// Class is compared against the whole class attribute, not a single token.
type Query struct {
	Tag   string
	Class string
	Attrs map[string]string
}

// Parse builds a node tree from (possibly malformed) markup
func Parse(page string) (*html.Node, error) {
	return html.Parse(strings.NewReader(page))
}

// Find returns every element under root (root included) matching q,
// in pre-order: a node comes before its descendants.
func Find(root *html.Node, q Query) []*html.Node {
	var result []*html.Node
	find(root, q, &result)
	return result
}

func find(node *html.Node, q Query, result *[]*html.Node) {
	if node == nil {
		return
	}
	if matches(node, q) {
		*result = append(*result, node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		find(child, q, result)
	}
}

func matches(node *html.Node, q Query) bool {
	if node.Type != html.ElementNode || node.Data != q.Tag {
		return false
	}
	if q.Class != "" {
		class, ok := attr(node, "class")
		if !ok || class != q.Class {
			return false
		}
	}
	for key, value := range q.Attrs {
		v, ok := attr(node, key)
		if !ok || v != value {
			return false
		}
	}
	return true
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the trimmed text of node and all its descendants
func Text(node *html.Node) string {
	return strings.TrimSpace(goquery.NewDocumentFromNode(node).Text())
}

// Rows returns the rows that belong to table itself, looking through
// thead/tbody/tfoot but not into nested tables
func Rows(table *html.Node) []*html.Node {
	rows := make([]*html.Node, 0)
	for child := table.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		switch child.Data {
		case "tr":
			rows = append(rows, child)
		case "thead", "tbody", "tfoot":
			rows = append(rows, Rows(child)...)
		}
	}
	return rows
}

// Cells returns the direct td children of a row
func Cells(row *html.Node) []*html.Node {
	cells := make([]*html.Node, 0)
	for child := row.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "td" {
			cells = append(cells, child)
		}
	}
	return cells
}
