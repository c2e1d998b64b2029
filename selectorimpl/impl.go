package selectorimpl

import (
	"servosel/css"
	"servosel/elementstate"
	"servosel/selectors"
)

type (
	// Stylesheet is a stylesheet parsed with this vocabulary.
	Stylesheet = css.Stylesheet[PseudoElement, NonTSPseudoClass]
	// Element is an element the generic matcher can test this vocabulary
	// against.
	Element = selectors.Element[NonTSPseudoClass]
	// SelectorList is a selector list parsed with this vocabulary.
	SelectorList = selectors.SelectorList[PseudoElement, NonTSPseudoClass]
)

// pseudoElementOrder is the enumeration order of EachPseudoElement.
var pseudoElementOrder = [...]PseudoElement{
	PseudoElementBefore,
	PseudoElementAfter,
	PseudoElementDetailsContent,
	PseudoElementDetailsSummary,
	PseudoElementSelection,
}

// ServoSelectorImpl plugs the engine's pseudo vocabulary into the generic
// selector parser and the style system. It carries no state.
type ServoSelectorImpl struct{}

func (ServoSelectorImpl) ParsePseudoElement(ctx *selectors.ParserContext, name string) (PseudoElement, error) {
	return ParsePseudoElement(ctx, name)
}

func (ServoSelectorImpl) ParseNonTSPseudoClass(ctx *selectors.ParserContext, name string) (NonTSPseudoClass, error) {
	return ParseNonTSPseudoClass(ctx, name)
}

// EachPseudoElement calls fn once per pseudo-element, always in the same
// order.
func (ServoSelectorImpl) EachPseudoElement(fn func(PseudoElement)) {
	for _, pe := range pseudoElementOrder {
		fn(pe)
	}
}

func (ServoSelectorImpl) IsEagerlyCascadedPseudoElement(pe PseudoElement) bool {
	return pe.IsEagerlyCascaded()
}

func (impl ServoSelectorImpl) EachEagerlyCascadedPseudoElement(fn func(PseudoElement)) {
	impl.EachPseudoElement(func(pe PseudoElement) {
		if impl.IsEagerlyCascadedPseudoElement(pe) {
			fn(pe)
		}
	})
}

func (impl ServoSelectorImpl) EachNonEagerlyCascadedPseudoElement(fn func(PseudoElement)) {
	impl.EachPseudoElement(func(pe PseudoElement) {
		if !impl.IsEagerlyCascadedPseudoElement(pe) {
			fn(pe)
		}
	})
}

func (ServoSelectorImpl) PseudoClassStateFlag(pc NonTSPseudoClass) elementstate.ElementState {
	return pc.StateFlag()
}

// UserOrUserAgentStylesheets returns the process-wide user-agent and user
// stylesheets. They are built on first call.
func (ServoSelectorImpl) UserOrUserAgentStylesheets() []*Stylesheet {
	return defaultTables.userOrUserAgent()
}

// QuirksModeStylesheet returns the process-wide quirks-mode stylesheet,
// built on first call.
func (ServoSelectorImpl) QuirksModeStylesheet() *Stylesheet {
	return defaultTables.quirksMode()
}

var _ selectors.Impl[PseudoElement, NonTSPseudoClass] = ServoSelectorImpl{}
