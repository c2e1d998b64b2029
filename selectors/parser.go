package selectors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// legacyPseudoElements may be written with a single colon.
var legacyPseudoElements = []string{"before", "after", "first-line", "first-letter"}

type token struct {
	tt   css.TokenType
	data string
}

var eof = token{tt: css.ErrorToken}

func tokenize(text string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(text))
	var toks []token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			return toks, nil
		case css.CommentToken:
			continue
		}
		toks = append(toks, token{tt: tt, data: string(data)})
	}
}

// ParseSelectorList parses a comma separated selector list, resolving pseudo
// names through impl. Any failure rejects the whole list.
func ParseSelectorList[PE, PC comparable](impl Impl[PE, PC], ctx *ParserContext, text string) (SelectorList[PE, PC], error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &selectorParser[PE, PC]{impl: impl, ctx: ctx, toks: toks}
	return p.parseList()
}

type selectorParser[PE, PC comparable] struct {
	impl Impl[PE, PC]
	ctx  *ParserContext
	toks []token
	pos  int
}

func (p *selectorParser[PE, PC]) peek() token {
	if p.pos >= len(p.toks) {
		return eof
	}
	return p.toks[p.pos]
}

func (p *selectorParser[PE, PC]) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *selectorParser[PE, PC]) skipWhitespace() bool {
	skipped := false
	for p.peek().tt == css.WhitespaceToken {
		p.pos++
		skipped = true
	}
	return skipped
}

func (p *selectorParser[PE, PC]) raw(start, end int) string {
	var sb strings.Builder
	for _, t := range p.toks[start:end] {
		sb.WriteString(t.data)
	}
	return strings.TrimSpace(sb.String())
}

func isDelim(t token, d string) bool {
	return t.tt == css.DelimToken && t.data == d
}

func syntaxError(t token, what string) error {
	if t.tt == css.ErrorToken {
		return fmt.Errorf("%w: %s, got end of input", ErrSyntax, what)
	}
	return fmt.Errorf("%w: %s, got %q", ErrSyntax, what, t.data)
}

func (p *selectorParser[PE, PC]) parseList() (SelectorList[PE, PC], error) {
	var list SelectorList[PE, PC]
	for {
		p.skipWhitespace()
		start := p.pos
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		sel.Raw = p.raw(start, p.pos)
		list = append(list, sel)

		p.skipWhitespace()
		switch t := p.next(); t.tt {
		case css.ErrorToken:
			return list, nil
		case css.CommaToken:
		default:
			return nil, syntaxError(t, "expected ',' or end of selector")
		}
	}
}

func (p *selectorParser[PE, PC]) parseSelector() (Selector[PE, PC], error) {
	var sel Selector[PE, PC]
	for {
		c, err := p.parseCompound(&sel)
		if err != nil {
			return sel, err
		}
		sel.Compounds = append(sel.Compounds, c)
		if sel.HasPseudoElement {
			// pseudo-element ends the selector
			return sel, nil
		}

		save := p.pos
		ws := p.skipWhitespace()
		t := p.peek()
		switch {
		case t.tt == css.ErrorToken || t.tt == css.CommaToken:
			p.pos = save
			return sel, nil
		case isDelim(t, ">"):
			p.next()
			p.skipWhitespace()
			sel.Combinators = append(sel.Combinators, CombinatorChild)
		case isDelim(t, "+") || isDelim(t, "~"):
			return sel, syntaxError(t, "unsupported combinator")
		case ws:
			sel.Combinators = append(sel.Combinators, CombinatorDescendant)
		default:
			return sel, syntaxError(t, "expected combinator")
		}
	}
}

func (p *selectorParser[PE, PC]) parseCompound(sel *Selector[PE, PC]) (Compound[PC], error) {
	var c Compound[PC]
	empty := true

	t := p.peek()
	switch {
	case isDelim(t, "*"):
		p.next()
		empty = false
		if isDelim(p.peek(), "|") {
			p.next()
			switch name := p.next(); {
			case isDelim(name, "*"):
			case name.tt == css.IdentToken:
				c.LocalName = ToASCIILower(name.data)
			default:
				return c, syntaxError(name, "expected element name after namespace")
			}
		}
	case t.tt == css.IdentToken:
		p.next()
		empty = false
		c.LocalName = ToASCIILower(t.data)
	}

	for {
		t := p.peek()
		switch {
		case t.tt == css.HashToken:
			p.next()
			c.ID = strings.TrimPrefix(t.data, "#")
		case isDelim(t, "."):
			p.next()
			name := p.next()
			if name.tt != css.IdentToken {
				return c, syntaxError(name, "expected class name")
			}
			c.Classes = append(c.Classes, name.data)
		case t.tt == css.LeftBracketToken:
			p.next()
			attr, err := p.parseAttr()
			if err != nil {
				return c, err
			}
			c.Attrs = append(c.Attrs, attr)
		case t.tt == css.ColonToken:
			p.next()
			done, err := p.parsePseudo(&c, sel)
			if err != nil {
				return c, err
			}
			if done {
				return c, nil
			}
		default:
			if empty {
				return c, syntaxError(t, "expected selector")
			}
			return c, nil
		}
		empty = false
	}
}

// parsePseudo handles everything after a colon. It returns true once a
// pseudo-element has been consumed.
func (p *selectorParser[PE, PC]) parsePseudo(c *Compound[PC], sel *Selector[PE, PC]) (bool, error) {
	if p.peek().tt == css.ColonToken {
		p.next()
		name := p.next()
		if name.tt != css.IdentToken {
			return false, syntaxError(name, "expected pseudo-element name")
		}
		pe, err := p.impl.ParsePseudoElement(p.ctx, name.data)
		if err != nil {
			return false, err
		}
		sel.PseudoElement, sel.HasPseudoElement = pe, true
		return true, nil
	}

	name := p.next()
	if name.tt != css.IdentToken {
		return false, syntaxError(name, "expected pseudo-class name")
	}
	pc, err := p.impl.ParseNonTSPseudoClass(p.ctx, name.data)
	if err == nil {
		c.PseudoClasses = append(c.PseudoClasses, pc)
		return false, nil
	}
	lower := ToASCIILower(name.data)
	for _, legacy := range legacyPseudoElements {
		if lower == legacy {
			pe, perr := p.impl.ParsePseudoElement(p.ctx, name.data)
			if perr != nil {
				return false, perr
			}
			sel.PseudoElement, sel.HasPseudoElement = pe, true
			return true, nil
		}
	}
	return false, err
}

func (p *selectorParser[PE, PC]) parseAttr() (AttrSelector, error) {
	var attr AttrSelector
	p.skipWhitespace()
	name := p.next()
	if name.tt != css.IdentToken {
		return attr, syntaxError(name, "expected attribute name")
	}
	attr.Name = ToASCIILower(name.data)
	p.skipWhitespace()

	t := p.next()
	switch {
	case t.tt == css.RightBracketToken:
		return attr, nil
	case isDelim(t, "="):
		attr.Op = AttrEquals
	default:
		return attr, syntaxError(t, "unsupported attribute operator")
	}

	p.skipWhitespace()
	switch v := p.next(); v.tt {
	case css.IdentToken:
		attr.Value = v.data
	case css.StringToken:
		attr.Value = unquote(v.data)
	default:
		return attr, syntaxError(v, "expected attribute value")
	}
	p.skipWhitespace()
	if t := p.next(); t.tt != css.RightBracketToken {
		return attr, syntaxError(t, "expected ']'")
	}
	return attr, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
