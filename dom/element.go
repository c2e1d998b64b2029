package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"servosel/elementstate"
	"servosel/selectorimpl"
	"servosel/selectors"
)

// Element wraps an element node of a Document.
type Element struct {
	node   *html.Node
	parent *Element
	state  elementstate.ElementState
}

// Node returns the wrapped node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Parent returns the parent element or nil for the document element.
func (e *Element) Parent() *Element {
	return e.parent
}

// State returns the dynamic state of the element.
func (e *Element) State() elementstate.ElementState {
	return e.state
}

func (e *Element) LocalName() string {
	return e.node.Data
}

func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// HasClass reports whether the class attribute contains the name. Class
// names are case-sensitive.
func (e *Element) HasClass(name string) bool {
	classes, ok := e.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == name {
			return true
		}
	}
	return false
}

// Attr returns the value of the attribute without namespace. HTML
// attribute names are ASCII case-insensitive.
func (e *Element) Attr(name string) (string, bool) {
	name = selectors.ToASCIILower(name)
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Element) ParentElement() (selectorimpl.Element, bool) {
	if e.parent == nil {
		return nil, false
	}
	return e.parent, true
}

func (e *Element) MatchNonTSPseudoClass(pc selectorimpl.NonTSPseudoClass) bool {
	switch pc {
	case selectorimpl.NonTSPseudoClassAnyLink, selectorimpl.NonTSPseudoClassLink:
		return e.isHyperlink()
	case selectorimpl.NonTSPseudoClassVisited:
		// history is not tracked
		return false
	case selectorimpl.NonTSPseudoClassServoNonZeroBorder:
		return e.hasNonZeroBorder()
	case selectorimpl.NonTSPseudoClassReadOnly:
		return !e.state.Contains(elementstate.InReadWriteState)
	default:
		flag := pc.StateFlag()
		return !flag.Empty() && e.state.Contains(flag)
	}
}

func (e *Element) isHyperlink() bool {
	switch e.node.DataAtom {
	case atom.A, atom.Area, atom.Link:
		_, ok := e.Attr("href")
		return ok
	}
	return false
}

// hasNonZeroBorder follows HTML presentational hints: a border attribute
// which does not parse as an integer counts as non-zero.
func (e *Element) hasNonZeroBorder() bool {
	if e.node.DataAtom != atom.Table {
		return false
	}
	border, ok := e.Attr("border")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(border))
	return err != nil || n != 0
}

// String returns a short description like "input#name.wide".
func (e *Element) String() string {
	var sb strings.Builder
	sb.WriteString(e.node.Data)
	if id := e.ID(); id != "" {
		sb.WriteByte('#')
		sb.WriteString(id)
	}
	if classes, ok := e.Attr("class"); ok {
		for _, c := range strings.Fields(classes) {
			sb.WriteByte('.')
			sb.WriteString(c)
		}
	}
	return sb.String()
}

var _ selectorimpl.Element = (*Element)(nil)
