package selectors

import (
	"strings"

	"servosel/elementstate"
)

// Combinator joins two compound selectors.
type Combinator int

const (
	CombinatorDescendant Combinator = iota
	CombinatorChild
)

func (c Combinator) String() string {
	if c == CombinatorChild {
		return ">"
	}
	return " "
}

// AttrOp is the operator of an attribute selector.
type AttrOp int

const (
	AttrExists AttrOp = iota
	AttrEquals
)

type AttrSelector struct {
	Name  string // lowercase
	Value string // only for AttrEquals
	Op    AttrOp
}

func (a AttrSelector) matches(value string, ok bool) bool {
	if !ok {
		return false
	}
	return a.Op == AttrExists || value == a.Value
}

// Compound is a sequence of simple selectors applying to one element.
type Compound[PC comparable] struct {
	LocalName     string // empty matches any element
	ID            string
	Classes       []string
	Attrs         []AttrSelector
	PseudoClasses []PC
}

// IsUniversal reports whether the compound places no constraint on the
// element.
func (c *Compound[PC]) IsUniversal() bool {
	return c.LocalName == "" && c.ID == "" && len(c.Classes) == 0 &&
		len(c.Attrs) == 0 && len(c.PseudoClasses) == 0
}

func (c *Compound[PC]) matches(el Element[PC]) bool {
	if c.LocalName != "" && c.LocalName != el.LocalName() {
		return false
	}
	if c.ID != "" && c.ID != el.ID() {
		return false
	}
	for _, class := range c.Classes {
		if !el.HasClass(class) {
			return false
		}
	}
	for _, attr := range c.Attrs {
		if !attr.matches(el.Attr(attr.Name)) {
			return false
		}
	}
	for _, pc := range c.PseudoClasses {
		if !el.MatchNonTSPseudoClass(pc) {
			return false
		}
	}
	return true
}

// Selector is a complex selector. Compounds are stored left to right and
// Combinators[i] joins Compounds[i] and Compounds[i+1].
type Selector[PE, PC comparable] struct {
	Raw              string
	Compounds        []Compound[PC]
	Combinators      []Combinator
	PseudoElement    PE
	HasPseudoElement bool
}

// SelectorList is a comma separated group of selectors.
type SelectorList[PE, PC comparable] []Selector[PE, PC]

// Matches reports whether el is the subject of the selector. The
// pseudo-element part is not considered, callers select rules by it.
func (s *Selector[PE, PC]) Matches(el Element[PC]) bool {
	if len(s.Compounds) == 0 {
		return false
	}
	return s.matchFrom(len(s.Compounds)-1, el)
}

func (s *Selector[PE, PC]) matchFrom(i int, el Element[PC]) bool {
	if !s.Compounds[i].matches(el) {
		return false
	}
	if i == 0 {
		return true
	}
	switch s.Combinators[i-1] {
	case CombinatorChild:
		parent, ok := el.ParentElement()
		return ok && s.matchFrom(i-1, parent)
	default:
		for parent, ok := el.ParentElement(); ok; parent, ok = parent.ParentElement() {
			if s.matchFrom(i-1, parent) {
				return true
			}
		}
		return false
	}
}

// IsUniversal reports whether the selector matches every element, as in
// "*" or "*|*::pseudo".
func (s *Selector[PE, PC]) IsUniversal() bool {
	return len(s.Compounds) == 1 && s.Compounds[0].IsUniversal()
}

// StateDependencies returns the union of element-state flags the
// selector's pseudo-classes depend on.
func (s *Selector[PE, PC]) StateDependencies(flag func(PC) elementstate.ElementState) elementstate.ElementState {
	var deps elementstate.ElementState
	for i := range s.Compounds {
		for _, pc := range s.Compounds[i].PseudoClasses {
			deps = deps.Insert(flag(pc))
		}
	}
	return deps
}

func (s *Selector[PE, PC]) String() string {
	return s.Raw
}

func (l SelectorList[PE, PC]) String() string {
	parts := make([]string, 0, len(l))
	for i := range l {
		parts = append(parts, l[i].Raw)
	}
	return strings.Join(parts, ", ")
}
