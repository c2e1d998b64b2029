package css

import (
	"fmt"
	"io"
	"maps"
	"sort"
	"strings"

	"servosel/selectors"
)

// Origin is the cascade origin of a stylesheet.
type Origin int

const (
	OriginUserAgent Origin = iota
	OriginUser
	OriginAuthor
)

func (o Origin) String() string {
	switch o {
	case OriginUserAgent:
		return "user-agent"
	case OriginUser:
		return "user"
	case OriginAuthor:
		return "author"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// ParserContext returns the selector parsing context for the origin. Only
// user-agent stylesheets are trusted with internal pseudo names.
func (o Origin) ParserContext() *selectors.ParserContext {
	return &selectors.ParserContext{InUserAgentStylesheet: o == OriginUserAgent}
}

// MediaQuery represents a parsed @media query condition.
type MediaQuery struct {
	Raw      string // Original media query string
	Type     string // Media type (e.g., "screen", "print", "all")
	Negated  bool   // true if "not" modifier was used on main type
	Features bool   // true if query has media features we do not evaluate
}

// Evaluate returns true if this media query matches the given media type.
// Queries with media features never match.
func (mq MediaQuery) Evaluate(mediaType string) bool {
	if mq.Features {
		return false
	}
	var typeMatches bool
	switch mq.Type {
	case "", "all":
		typeMatches = true
	default:
		typeMatches = mq.Type == mediaType
	}
	if mq.Negated {
		typeMatches = !typeMatches
	}
	return typeMatches
}

// Value is a raw CSS property value. Values are not interpreted.
type Value struct {
	Raw       string // value text without !important
	Important bool
}

// Declarations maps property names to values.
type Declarations map[string]Value

// Clone returns a copy which can be modified independently.
func (d Declarations) Clone() Declarations {
	if d == nil {
		return Declarations{}
	}
	return maps.Clone(d)
}

// Rule represents a single CSS rule (selector list + declarations).
type Rule[PE, PC comparable] struct {
	Selectors    selectors.SelectorList[PE, PC]
	Declarations Declarations
}

// MediaBlock represents a @media block with its query and nested rules.
type MediaBlock[PE, PC comparable] struct {
	Query MediaQuery
	Rules []Rule[PE, PC]
}

// StylesheetItem is a single top-level item in a stylesheet.
// Exactly one of Rule or MediaBlock is non-nil.
type StylesheetItem[PE, PC comparable] struct {
	Rule       *Rule[PE, PC]
	MediaBlock *MediaBlock[PE, PC]
}

// Stylesheet represents a parsed CSS stylesheet. It is not modified after
// parsing.
type Stylesheet[PE, PC comparable] struct {
	Origin   Origin
	Source   string
	Items    []StylesheetItem[PE, PC] // All top-level items in source order
	Warnings []string                 // Dropped rules and unsupported features
}

// EachRule calls fn for every rule effective for mediaType in source order.
func (s *Stylesheet[PE, PC]) EachRule(mediaType string, fn func(*Rule[PE, PC])) {
	for _, item := range s.Items {
		switch {
		case item.Rule != nil:
			fn(item.Rule)
		case item.MediaBlock != nil && item.MediaBlock.Query.Evaluate(mediaType):
			for i := range item.MediaBlock.Rules {
				fn(&item.MediaBlock.Rules[i])
			}
		}
	}
}

// RuleCount returns number of rules including rules inside @media blocks.
func (s *Stylesheet[PE, PC]) RuleCount() int {
	var n int
	for _, item := range s.Items {
		switch {
		case item.Rule != nil:
			n++
		case item.MediaBlock != nil:
			n += len(item.MediaBlock.Rules)
		}
	}
	return n
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Property order within a rule is sorted alphabetically for deterministic output.
func (s *Stylesheet[PE, PC]) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var n int
		var err error

		switch {
		case item.MediaBlock != nil:
			n, err = writeMediaBlock(w, item.MediaBlock)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, "")
		}

		total += int64(n)
		if err != nil {
			return total, err
		}

		if i < len(s.Items)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet[PE, PC]) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule[PE, PC comparable](w io.Writer, rule *Rule[PE, PC], indent string) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, rule.Selectors.String())
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeDeclarations(w, rule.Declarations, indent+"  ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += n
	return total, err
}

// writeDeclarations writes property declarations sorted alphabetically.
func writeDeclarations(w io.Writer, decls Declarations, indent string) (int, error) {
	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	sort.Strings(names)

	var total int
	for _, name := range names {
		val := decls[name]
		important := ""
		if val.Important {
			important = " !important"
		}
		n, err := fmt.Fprintf(w, "%s%s: %s%s;\n", indent, name, val.Raw, important)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func writeMediaBlock[PE, PC comparable](w io.Writer, mb *MediaBlock[PE, PC]) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@media %s {\n", mb.Query.Raw)
	total += n
	if err != nil {
		return total, err
	}

	for i := range mb.Rules {
		n, err = writeRule(w, &mb.Rules[i], "  ")
		total += n
		if err != nil {
			return total, err
		}
		// Blank line between rules in a media block (except after last)
		if i < len(mb.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
