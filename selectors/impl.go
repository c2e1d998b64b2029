package selectors

// Impl is the capability a concrete browser profile provides to resolve
// pseudo-element and non-tree-structural pseudo-class names. Parsers must be
// pure functions of their inputs and return an error wrapping
// ErrUnrecognized on failure.
type Impl[PE, PC comparable] interface {
	ParsePseudoElement(ctx *ParserContext, name string) (PE, error)
	ParseNonTSPseudoClass(ctx *ParserContext, name string) (PC, error)
}

// Element is what the matcher needs from a document element.
type Element[PC comparable] interface {
	// LocalName returns the lowercase element name.
	LocalName() string
	ID() string
	HasClass(name string) bool
	Attr(name string) (string, bool)
	ParentElement() (Element[PC], bool)
	MatchNonTSPseudoClass(pc PC) bool
}
