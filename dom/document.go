// Package dom adapts golang.org/x/net/html trees to the selector matching
// interfaces and keeps per-element dynamic state.
package dom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"servosel/css"
	"servosel/elementstate"
	"servosel/selectorimpl"
	"servosel/selectors"
)

// ErrNotHTML is returned when the input is recognized as binary content.
var ErrNotHTML = errors.New("input is not an HTML document")

// sniffLen is how many leading bytes filetype matchers need.
const sniffLen = 262

// Document is a parsed HTML document. Its elements are created once, only
// their dynamic state changes afterwards.
type Document struct {
	root     *html.Node
	elements []*Element
	byNode   map[*html.Node]*Element
}

// Parse reads an HTML document. Character encoding is detected from
// contentType (may be empty), byte order marks and meta tags.
func Parse(r io.Reader, contentType string) (*Document, error) {
	br, err := sniff(r)
	if err != nil {
		return nil, err
	}
	cr, err := charset.NewReader(br, contentType)
	if errors.Is(err, io.EOF) {
		// empty input, nothing to decode
		return parse(br)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	return parse(cr)
}

// ParseWithEncoding reads an HTML document forcing the encoding with the
// given WHATWG label (for example "windows-1251").
func ParseWithEncoding(r io.Reader, label string) (*Document, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding '%s': %w", label, err)
	}
	br, err := sniff(r)
	if err != nil {
		return nil, err
	}
	return parse(enc.NewDecoder().Reader(br))
}

func sniff(r io.Reader) (*bufio.Reader, error) {
	br := bufio.NewReaderSize(r, 4096)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return nil, fmt.Errorf("%w: detected %s", ErrNotHTML, kind.MIME.Value)
	}
	return br, nil
}

func parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}
	doc := &Document{root: root, byNode: make(map[*html.Node]*Element)}
	doc.build(root, nil)
	return doc, nil
}

func (d *Document) build(n *html.Node, parent *Element) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			d.build(c, parent)
			continue
		}
		el := &Element{node: c, parent: parent}
		el.state = initialState(el)
		d.elements = append(d.elements, el)
		d.byNode[c] = el
		d.build(c, el)
	}
}

// Root returns the document element or nil for an empty document.
func (d *Document) Root() *Element {
	if len(d.elements) == 0 {
		return nil
	}
	return d.elements[0]
}

// Elements returns all elements in tree order.
func (d *Document) Elements() []*Element {
	return d.elements
}

// ElementFor returns the element wrapping the node.
func (d *Document) ElementFor(n *html.Node) (*Element, bool) {
	el, ok := d.byNode[n]
	return el, ok
}

// SetState replaces the dynamic state of the element and returns the
// previous one.
func (d *Document) SetState(el *Element, s elementstate.ElementState) elementstate.ElementState {
	old := el.state
	el.state = s
	return old
}

// State returns the dynamic state of the element.
func (d *Document) State(el *Element) elementstate.ElementState {
	return el.state
}

// Links returns elements which are hyperlink source anchors.
func (d *Document) Links() []*Element {
	var links []*Element
	for _, el := range d.elements {
		if selectorimpl.IsLink(el) {
			links = append(links, el)
		}
	}
	return links
}

// StyleSheets returns text of all CSS <style> elements in tree order.
func (d *Document) StyleSheets() []string {
	var sheets []string
	for _, el := range d.elements {
		if el.node.DataAtom != atom.Style {
			continue
		}
		if typ, ok := el.Attr("type"); ok && typ != "" && selectors.ToASCIILower(strings.TrimSpace(typ)) != "text/css" {
			continue
		}
		var sb strings.Builder
		for c := el.node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		sheets = append(sheets, sb.String())
	}
	return sheets
}

// QuerySelectorAll returns elements matching the selector list in tree
// order. Pseudo-elements are not allowed.
func (d *Document) QuerySelectorAll(text string) ([]*Element, error) {
	list, err := selectors.ParseSelectorList(selectorimpl.ServoSelectorImpl{}, css.OriginAuthor.ParserContext(), text)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].HasPseudoElement {
			return nil, fmt.Errorf("%w: pseudo-element in '%s'", selectors.ErrSyntax, text)
		}
	}

	var found []*Element
	for _, el := range d.elements {
		for i := range list {
			if list[i].Matches(el) {
				found = append(found, el)
				break
			}
		}
	}
	return found, nil
}
