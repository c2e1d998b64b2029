// Package style cascades stylesheets against elements using the pseudo
// vocabulary of a selector implementation.
package style

import (
	"servosel/css"
	"servosel/elementstate"
	"servosel/selectors"
)

// SelectorImplExt is what the style system needs from a selector
// implementation beyond parsing.
type SelectorImplExt[PE, PC comparable] interface {
	selectors.Impl[PE, PC]

	// EachPseudoElement visits every pseudo-element in a stable order.
	EachPseudoElement(fn func(PE))
	// IsEagerlyCascadedPseudoElement reports whether the pseudo-element
	// takes part in the full cascade. The others are styled from universal
	// user-agent rules layered on top of the parent style.
	IsEagerlyCascadedPseudoElement(pe PE) bool
	// PseudoClassStateFlag returns state bits the pseudo-class depends on.
	PseudoClassStateFlag(pc PC) elementstate.ElementState
	// UserOrUserAgentStylesheets returns stylesheets applied to every
	// document.
	UserOrUserAgentStylesheets() []*css.Stylesheet[PE, PC]
	// QuirksModeStylesheet returns the extra stylesheet for quirks mode
	// documents, or nil.
	QuirksModeStylesheet() *css.Stylesheet[PE, PC]
}

// EachEagerlyCascadedPseudoElement visits eagerly cascaded pseudo-elements
// in the implementation order.
func EachEagerlyCascadedPseudoElement[PE, PC comparable](impl SelectorImplExt[PE, PC], fn func(PE)) {
	impl.EachPseudoElement(func(pe PE) {
		if impl.IsEagerlyCascadedPseudoElement(pe) {
			fn(pe)
		}
	})
}

// EachNonEagerlyCascadedPseudoElement visits pseudo-elements styled
// without a cascade in the implementation order.
func EachNonEagerlyCascadedPseudoElement[PE, PC comparable](impl SelectorImplExt[PE, PC], fn func(PE)) {
	impl.EachPseudoElement(func(pe PE) {
		if !impl.IsEagerlyCascadedPseudoElement(pe) {
			fn(pe)
		}
	})
}
