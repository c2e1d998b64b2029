package style

import (
	"sync/atomic"

	"go.uber.org/zap"

	"servosel/css"
	"servosel/elementstate"
	"servosel/selectors"
)

type ruleEntry[PE, PC comparable] struct {
	selector *selectors.Selector[PE, PC]
	decl     ApplicableDeclaration
}

// ruleData is built by Update and never modified afterwards.
type ruleData[PE, PC comparable] struct {
	mediaType   string
	quirksMode  bool
	element     []ruleEntry[PE, PC]
	pseudo      map[PE][]ruleEntry[PE, PC]
	precomputed map[PE]css.Declarations
	stateDeps   elementstate.ElementState
	ignored     int
}

// Stats describes rules the stylist currently holds.
type Stats[PE comparable] struct {
	MediaType    string
	QuirksMode   bool
	ElementRules int
	PseudoRules  map[PE]int
	Precomputed  map[PE]int // number of precomputed declarations
	Ignored      int        // rules which can never apply
}

// Stylist sorts rules of all origins into buckets and computes styles.
// Methods are safe for concurrent use. Until the first Update no rules
// apply.
type Stylist[PE, PC comparable] struct {
	impl SelectorImplExt[PE, PC]
	log  *zap.Logger
	data atomic.Pointer[ruleData[PE, PC]]
}

// NewStylist creates an empty stylist.
func NewStylist[PE, PC comparable](impl SelectorImplExt[PE, PC], log *zap.Logger) *Stylist[PE, PC] {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Stylist[PE, PC]{impl: impl, log: log.Named("stylist")}
	s.data.Store(&ruleData[PE, PC]{
		pseudo:      make(map[PE][]ruleEntry[PE, PC]),
		precomputed: make(map[PE]css.Declarations),
	})
	return s
}

// Update rebuilds rule buckets from user-agent and user stylesheets of the
// implementation, the quirks-mode stylesheet when requested, and the
// author stylesheets, keeping rules effective for the media type.
func (s *Stylist[PE, PC]) Update(authorSheets []*css.Stylesheet[PE, PC], quirksMode bool, mediaType string) {
	sheets := s.impl.UserOrUserAgentStylesheets()
	if quirksMode {
		if qs := s.impl.QuirksModeStylesheet(); qs != nil {
			sheets = append(sheets[:len(sheets):len(sheets)], qs)
		}
	}
	sheets = append(sheets[:len(sheets):len(sheets)], authorSheets...)

	d := &ruleData[PE, PC]{
		mediaType:   mediaType,
		quirksMode:  quirksMode,
		pseudo:      make(map[PE][]ruleEntry[PE, PC]),
		precomputed: make(map[PE]css.Declarations),
	}
	lazy := make(map[PE][]ApplicableDeclaration)

	var order int
	for _, sheet := range sheets {
		if sheet == nil {
			continue
		}
		sheet.EachRule(mediaType, func(rule *css.Rule[PE, PC]) {
			for i := range rule.Selectors {
				sel := &rule.Selectors[i]
				order++
				entry := ruleEntry[PE, PC]{
					selector: sel,
					decl: ApplicableDeclaration{
						Origin:       sheet.Origin,
						Source:       sheet.Source,
						Selector:     sel.Raw,
						Declarations: rule.Declarations,
						order:        order,
					},
				}
				d.stateDeps = d.stateDeps.Insert(sel.StateDependencies(s.impl.PseudoClassStateFlag))

				switch {
				case !sel.HasPseudoElement:
					d.element = append(d.element, entry)
				case s.impl.IsEagerlyCascadedPseudoElement(sel.PseudoElement):
					d.pseudo[sel.PseudoElement] = append(d.pseudo[sel.PseudoElement], entry)
				case sel.IsUniversal() && sheet.Origin != css.OriginAuthor:
					lazy[sel.PseudoElement] = append(lazy[sel.PseudoElement], entry.decl)
				default:
					d.ignored++
					s.log.Warn("Ignoring non-universal rule for lazily styled pseudo-element",
						zap.String("selector", sel.Raw), zap.String("source", sheet.Source))
				}
			}
		})
	}

	EachNonEagerlyCascadedPseudoElement(s.impl, func(pe PE) {
		d.precomputed[pe] = Cascade(nil, lazy[pe])
	})

	s.data.Store(d)
	s.log.Debug("Stylist updated",
		zap.Int("sheets", len(sheets)),
		zap.Int("element rules", len(d.element)),
		zap.Int("pseudo rules", len(d.pseudo)),
		zap.Bool("quirks", quirksMode),
		zap.String("media", mediaType),
		zap.Stringer("state dependencies", d.stateDeps))
}

func match[PE, PC comparable](entries []ruleEntry[PE, PC], el selectors.Element[PC]) []ApplicableDeclaration {
	var decls []ApplicableDeclaration
	for i := range entries {
		if entries[i].selector.Matches(el) {
			decls = append(decls, entries[i].decl)
		}
	}
	sortDeclarations(decls)
	return decls
}

// MatchElement returns declarations of rules matching the element in
// ascending cascade order, ignoring importance.
func (s *Stylist[PE, PC]) MatchElement(el selectors.Element[PC]) []ApplicableDeclaration {
	return match(s.data.Load().element, el)
}

// MatchPseudo returns declarations of rules matching the eagerly cascaded
// pseudo-element of the element.
func (s *Stylist[PE, PC]) MatchPseudo(el selectors.Element[PC], pe PE) []ApplicableDeclaration {
	return match(s.data.Load().pseudo[pe], el)
}

// ComputeStyle cascades rules matching the element on top of the parent
// style.
func (s *Stylist[PE, PC]) ComputeStyle(el selectors.Element[PC], parent css.Declarations) css.Declarations {
	return Cascade(parent, s.MatchElement(el))
}

// ComputePseudoStyles cascades every eagerly cascaded pseudo-element of the
// element which has matching rules. Pseudo-elements inherit from the
// element style.
func (s *Stylist[PE, PC]) ComputePseudoStyles(el selectors.Element[PC], style css.Declarations) map[PE]css.Declarations {
	styles := make(map[PE]css.Declarations)
	EachEagerlyCascadedPseudoElement(s.impl, func(pe PE) {
		if decls := s.MatchPseudo(el, pe); len(decls) > 0 {
			styles[pe] = Cascade(style, decls)
		}
	})
	return styles
}

// PrecomputedPseudoStyle returns the style of a lazily styled
// pseudo-element: universal rules for it layered on top of the parent
// style. It returns false for eagerly cascaded pseudo-elements.
func (s *Stylist[PE, PC]) PrecomputedPseudoStyle(pe PE, parent css.Declarations) (css.Declarations, bool) {
	if s.impl.IsEagerlyCascadedPseudoElement(pe) {
		return nil, false
	}
	result := Inherit(parent)
	for name, val := range s.data.Load().precomputed[pe] {
		result[name] = val
	}
	return result, true
}

// StateDependencies returns the union of element state flags any selector
// depends on.
func (s *Stylist[PE, PC]) StateDependencies() elementstate.ElementState {
	return s.data.Load().stateDeps
}

// RestyleNeeded reports whether an element state change may change which
// rules match.
func (s *Stylist[PE, PC]) RestyleNeeded(prev, next elementstate.ElementState) bool {
	return (prev ^ next).Intersects(s.data.Load().stateDeps)
}

// Stats returns counters of the current rule buckets.
func (s *Stylist[PE, PC]) Stats() Stats[PE] {
	d := s.data.Load()
	st := Stats[PE]{
		MediaType:    d.mediaType,
		QuirksMode:   d.quirksMode,
		ElementRules: len(d.element),
		PseudoRules:  make(map[PE]int),
		Precomputed:  make(map[PE]int),
		Ignored:      d.ignored,
	}
	for pe, entries := range d.pseudo {
		st.PseudoRules[pe] = len(entries)
	}
	for pe, decls := range d.precomputed {
		st.Precomputed[pe] = len(decls)
	}
	return st
}
