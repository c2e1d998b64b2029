package selectors

import (
	"errors"
	"strings"
)

var (
	// ErrUnrecognized is returned by Impl parsers for any pseudo name that
	// cannot be resolved. Unknown names and names not allowed in the current
	// context are reported the same way.
	ErrUnrecognized = errors.New("unrecognized selector component")
	// ErrSyntax is returned for malformed selector text.
	ErrSyntax = errors.New("invalid selector syntax")
)

// ParserContext carries per-parse information for pseudo name resolution.
type ParserContext struct {
	// InUserAgentStylesheet is set when selector text comes from a trusted
	// built-in stylesheet and may use internal names.
	InUserAgentStylesheet bool
}

// Trusted reports whether internal names may be resolved. A nil context is
// never trusted.
func (c *ParserContext) Trusted() bool {
	return c != nil && c.InUserAgentStylesheet
}

// ToASCIILower lowercases ASCII letters only. CSS identifiers are matched
// ASCII case-insensitively, so Unicode folding must not apply here.
func ToASCIILower(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			return strings.Map(func(r rune) rune {
				if 'A' <= r && r <= 'Z' {
					return r + ('a' - 'A')
				}
				return r
			}, s)
		}
	}
	return s
}
