package selectorimpl

// IsLink reports whether the element is the source anchor of a hyperlink,
// that is whether it matches :any-link.
func IsLink(e Element) bool {
	return e.MatchNonTSPseudoClass(NonTSPseudoClassAnyLink)
}
