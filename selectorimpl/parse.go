package selectorimpl

import (
	"fmt"

	"servosel/selectors"
)

var (
	pseudoElementByName    = indexNames[PseudoElement](pseudoElementNames[:])
	nonTSPseudoClassByName = indexNames[NonTSPseudoClass](nonTSPseudoClassNames[:])
)

func indexNames[T ~int](names []string) map[string]T {
	m := make(map[string]T, len(names))
	for i, name := range names {
		if _, dup := m[name]; dup {
			// this should never happen
			panic("duplicate selector name " + name)
		}
		m[name] = T(i)
	}
	return m
}

func unrecognized(name string) error {
	return fmt.Errorf("%w: %q", selectors.ErrUnrecognized, name)
}

// ParsePseudoElement resolves a pseudo-element name (without colons)
// ASCII case-insensitively. Internal names resolve only in a user-agent
// context. Every failure wraps selectors.ErrUnrecognized.
func ParsePseudoElement(ctx *selectors.ParserContext, name string) (PseudoElement, error) {
	pe, ok := pseudoElementByName[selectors.ToASCIILower(name)]
	if !ok || (pe.IsUserAgentOnly() && !ctx.Trusted()) {
		return 0, unrecognized(name)
	}
	return pe, nil
}

// ParseNonTSPseudoClass resolves a pseudo-class name (without colon)
// ASCII case-insensitively. Internal names resolve only in a user-agent
// context. Every failure wraps selectors.ErrUnrecognized.
func ParseNonTSPseudoClass(ctx *selectors.ParserContext, name string) (NonTSPseudoClass, error) {
	pc, ok := nonTSPseudoClassByName[selectors.ToASCIILower(name)]
	if !ok || (pc.IsUserAgentOnly() && !ctx.Trusted()) {
		return 0, unrecognized(name)
	}
	return pc, nil
}
