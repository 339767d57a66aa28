package sei

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// htmlToText reduces portal markup to readable text: scripts, styles and
// other noise are dropped, block elements become line breaks, and runs of
// whitespace collapse. Used by DocumentContent, where callers want the
// document body, not the viewer chrome.
func htmlToText(raw string) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var b strings.Builder
	collectText(doc, &b)
	return tidyText(b.String()), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.CommentNode {
		return
	}
	if n.Type == html.ElementNode && isNoiseElement(n.Data) {
		return
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
	if n.Type == html.ElementNode && isBlockElement(n.Data) {
		b.WriteString("\n")
	}
}

func isNoiseElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "script", "style", "noscript", "iframe", "object", "embed", "head":
		return true
	}
	return false
}

func isBlockElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "br", "tr", "li", "table", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
		return true
	}
	return false
}

// tidyText collapses horizontal whitespace and squeezes blank-line runs.
func tidyText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// tableRows extracts the cell texts of every row in the first table found
// in raw markup. The portal renders all of its listings as plain
// table/row/cell structure, so this is the one extraction primitive every
// read-model query shares. Header rows (th cells) are skipped.
func tableRows(raw string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse table HTML: %w", err)
	}

	table := findElement(doc, "table")
	if table == nil {
		return nil, nil
	}

	var rows [][]string
	walkElements(table, "tr", func(tr *html.Node) {
		var cells []string
		header := false
		walkElements(tr, "td,th", func(cell *html.Node) {
			if cell.Data == "th" {
				header = true
			}
			var b strings.Builder
			collectText(cell, &b)
			cells = append(cells, tidyText(b.String()))
		})
		if !header && len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows, nil
}

// rowLinks extracts href/text pairs of every anchor in raw markup, in
// document order. The tree frame exposes document ids only through link
// targets, so queries pair this with tableRows.
func rowLinks(raw string) ([]linkRef, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse link HTML: %w", err)
	}

	var links []linkRef
	walkElements(doc, "a", func(a *html.Node) {
		var href string
		for _, attr := range a.Attr {
			if attr.Key == "href" {
				href = attr.Val
			}
		}
		var b strings.Builder
		collectText(a, &b)
		links = append(links, linkRef{Href: href, Text: tidyText(b.String())})
	})
	return links, nil
}

type linkRef struct {
	Href string
	Text string
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// walkElements calls fn for every element whose tag is in the comma-joined
// tags list. It does not descend into a matched element, so nested tables
// stay inside their parent row's cell text.
func walkElements(n *html.Node, tags string, fn func(*html.Node)) {
	match := func(tag string) bool {
		for _, t := range strings.Split(tags, ",") {
			if tag == t {
				return true
			}
		}
		return false
	}
	var walk func(*html.Node, bool)
	walk = func(node *html.Node, root bool) {
		if !root && node.Type == html.ElementNode && match(node.Data) {
			fn(node)
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child, false)
		}
	}
	walk(n, true)
}
