// Package selectorimpl supplies this engine's pseudo-element and
// pseudo-class vocabulary to the generic selectors package, and the
// stylesheet tables the style system cascades with.
package selectorimpl

import "fmt"

// PseudoElement is a pseudo-element known to the engine.
type PseudoElement int

const (
	PseudoElementBefore PseudoElement = iota
	PseudoElementAfter
	PseudoElementSelection
	PseudoElementDetailsSummary
	PseudoElementDetailsContent
	pseudoElementCount
)

var pseudoElementNames = [pseudoElementCount]string{
	PseudoElementBefore:         "before",
	PseudoElementAfter:          "after",
	PseudoElementSelection:      "selection",
	PseudoElementDetailsSummary: "-servo-details-summary",
	PseudoElementDetailsContent: "-servo-details-content",
}

// String returns the canonical selector name without colons.
func (p PseudoElement) String() string {
	if p < 0 || p >= pseudoElementCount {
		return fmt.Sprintf("PseudoElement(%d)", int(p))
	}
	return pseudoElementNames[p]
}

// IsEagerlyCascaded reports whether the pseudo-element goes through the
// full cascade like a regular element. Pseudo-elements that are not eagerly
// cascaded get their style from global rules ("*|*::name") applied on top
// of the parent style. Only engine-internal pseudo-elements may be lazy:
// anything authors can style needs the full cascade.
func (p PseudoElement) IsEagerlyCascaded() bool {
	switch p {
	case PseudoElementBefore, PseudoElementAfter, PseudoElementSelection, PseudoElementDetailsSummary:
		return true
	case PseudoElementDetailsContent:
		return false
	default:
		// this should never happen
		panic(fmt.Sprintf("unknown pseudo-element %d", int(p)))
	}
}

// IsUserAgentOnly reports whether the name may appear only in user-agent
// stylesheets.
func (p PseudoElement) IsUserAgentOnly() bool {
	return p == PseudoElementDetailsSummary || p == PseudoElementDetailsContent
}

// PseudoElementNames returns canonical names of all pseudo-elements.
func PseudoElementNames() []string {
	names := make([]string, len(pseudoElementNames))
	copy(names, pseudoElementNames[:])
	return names
}
