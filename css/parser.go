package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"servosel/selectors"
)

// Parser parses CSS stylesheets into rules, resolving pseudo names with the
// selector implementation it was created for.
type Parser[PE, PC comparable] struct {
	impl selectors.Impl[PE, PC]
	log  *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser[PE, PC comparable](impl selectors.Impl[PE, PC], log *zap.Logger) *Parser[PE, PC] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser[PE, PC]{impl: impl, log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet of the given origin. Rules whose
// selector list cannot be parsed are dropped as a whole and reported in
// Warnings. The optional source parameter identifies what's being parsed.
func (p *Parser[PE, PC]) Parse(data []byte, origin Origin, source ...string) *Stylesheet[PE, PC] {
	sheet := &Stylesheet[PE, PC]{
		Origin:   origin,
		Items:    make([]StylesheetItem[PE, PC], 0),
		Warnings: make([]string, 0),
	}
	if len(source) > 0 && source[0] != "" {
		sheet.Source = source[0]
	}
	p.log.Debug("Parsing CSS", zap.String("source", sheet.Source), zap.Stringer("origin", origin), zap.Int("bytes", len(data)))

	ctx := origin.ParserContext()
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				sheet.Warnings = append(sheet.Warnings, "parse error: "+err.Error())
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := selectors.ToASCIILower(string(data))
			switch atRule {
			case "@media":
				mq := parseMediaQuery(parser.Values())
				rules := p.parseMediaBlockRules(parser, sheet, ctx)
				p.log.Debug("Parsed @media block", zap.String("query", mq.Raw), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem[PE, PC]{
					MediaBlock: &MediaBlock[PE, PC]{Query: mq, Rules: rules},
				})
			default:
				p.skipAtRuleBlock(parser)
				sheet.Warnings = append(sheet.Warnings, "unsupported at-rule: "+atRule)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			atRule := selectors.ToASCIILower(string(data))
			sheet.Warnings = append(sheet.Warnings, "unsupported at-rule: "+atRule)
			p.log.Debug("Skipping @-rule", zap.String("rule", atRule))

		case css.BeginRulesetGrammar:
			if rule, ok := p.parseRuleset(parser, data, sheet, ctx); ok {
				sheet.Items = append(sheet.Items, StylesheetItem[PE, PC]{Rule: rule})
			}

		case css.QualifiedRuleGrammar:
			// selector without a block
			sheet.Warnings = append(sheet.Warnings, "rule without declaration block: "+selectorText(data, parser.Values()))
		}
	}
}

// parseRuleset reads declarations of the current ruleset and resolves its
// selector list. The whole rule is dropped if any selector is invalid.
func (p *Parser[PE, PC]) parseRuleset(parser *css.Parser, data []byte, sheet *Stylesheet[PE, PC], ctx *selectors.ParserContext) (*Rule[PE, PC], bool) {
	text := selectorText(data, parser.Values())
	decls := p.parseDeclarations(parser)

	list, err := selectors.ParseSelectorList(p.impl, ctx, text)
	if err != nil {
		sheet.Warnings = append(sheet.Warnings, "dropping rule '"+text+"': "+err.Error())
		p.log.Debug("Dropping rule with invalid selector list", zap.String("selector", text), zap.Error(err))
		return nil, false
	}
	return &Rule[PE, PC]{Selectors: list, Declarations: decls}, true
}

// selectorText builds full selector string from token data and values.
func selectorText(data []byte, values []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return strings.TrimSpace(sb.String())
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser[PE, PC]) parseDeclarations(parser *css.Parser) Declarations {
	decls := make(Declarations)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar:
			values := parser.Values()
			if len(values) == 0 {
				continue
			}
			name, val := selectors.ToASCIILower(string(data)), parseValue(values)
			// a later normal declaration never overrides an important one
			if cur, ok := decls[name]; ok && cur.Important && !val.Important {
				continue
			}
			decls[name] = val

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) - skip for now
			continue
		}
	}
}

// parseValue joins value tokens into raw text and strips a trailing
// !important marker.
func parseValue(tokens []css.Token) Value {
	end := len(tokens)
	trim := func() {
		for end > 0 && tokens[end-1].TokenType == css.WhitespaceToken {
			end--
		}
	}

	var val Value
	trim()
	if end >= 2 && tokens[end-1].TokenType == css.IdentToken &&
		selectors.ToASCIILower(string(tokens[end-1].Data)) == "important" {
		bang := end - 2
		for bang >= 0 && tokens[bang].TokenType == css.WhitespaceToken {
			bang--
		}
		if bang >= 0 && tokens[bang].TokenType == css.DelimToken && string(tokens[bang].Data) == "!" {
			val.Important = true
			end = bang
			trim()
		}
	}

	var rawParts []string
	for _, t := range tokens[:end] {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			// Add space between non-whitespace tokens
			rawParts = append(rawParts, " ")
		}
	}
	val.Raw = strings.TrimSpace(strings.Join(rawParts, ""))
	return val
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser[PE, PC]) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseMediaQuery parses a media query from CSS tokens.
// Format: [not|only] type [and (feature)]...
func parseMediaQuery(tokens []css.Token) MediaQuery {
	mq := MediaQuery{}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
		if t.TokenType == css.LeftParenthesisToken || t.TokenType == css.CommaToken {
			mq.Features = true
		}
	}
	mq.Raw = strings.TrimSpace(strings.Join(rawParts, ""))

	var idents []string
	for _, t := range tokens {
		if t.TokenType == css.IdentToken {
			idents = append(idents, selectors.ToASCIILower(string(t.Data)))
		}
	}
	if len(idents) == 0 {
		return mq
	}

	i := 0
	switch idents[i] {
	case "not":
		mq.Negated = true
		i++
	case "only":
		i++
	}
	if i < len(idents) {
		mq.Type = idents[i]
		i++
	}
	if i < len(idents) {
		// "and" followed by something we do not understand
		mq.Features = true
	}
	return mq
}

// parseMediaBlockRules parses rules inside an @media block and returns them.
func (p *Parser[PE, PC]) parseMediaBlockRules(parser *css.Parser, sheet *Stylesheet[PE, PC], ctx *selectors.ParserContext) []Rule[PE, PC] {
	var rules []Rule[PE, PC]

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, "nested at-rule is not supported: "+string(data))

		case css.BeginRulesetGrammar:
			if rule, ok := p.parseRuleset(parser, data, sheet, ctx); ok {
				rules = append(rules, *rule)
			}
		}
	}
}
