package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

type treeWriter struct {
	w *strings.Builder
}

func (tw treeWriter) line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Dump returns indented element tree with element states and text, used
// for troubleshooting.
func (d *Document) Dump() string {
	tw := treeWriter{w: &strings.Builder{}}
	if root := d.Root(); root != nil {
		d.dump(tw, root.node, 0)
	}
	return tw.w.String()
}

func (d *Document) dump(tw treeWriter, n *html.Node, depth int) {
	switch n.Type {
	case html.ElementNode:
		el := d.byNode[n]
		if s := el.State(); !s.Empty() {
			tw.line(depth, "%s [%s]", el, s)
		} else {
			tw.line(depth, "%s", el)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.dump(tw, c, depth+1)
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			tw.line(depth, "%s", strconv.Quote(text))
		}
	}
}
