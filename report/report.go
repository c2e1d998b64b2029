// Package report renders computed styles of a document with text templates.
package report

import (
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"
	"github.com/maruel/natural"

	"servosel/css"
	"servosel/dom"
	"servosel/selectorimpl"
	"servosel/style"
)

//go:embed restyle.tmpl
var DefaultTemplate string

type Property struct {
	Name      string
	Value     string
	Important bool
}

type Pseudo struct {
	Name       string
	Eager      bool
	Properties []Property
}

type Element struct {
	Path       string // ancestors joined with " > "
	Name       string
	State      string
	Link       bool
	Properties []Property
	Pseudos    []Pseudo
}

// Document is the data passed to report templates.
type Document struct {
	ID                string
	Generated         time.Time
	Source            string
	MediaType         string
	QuirksMode        bool
	StateDependencies string
	Stylesheets       []string
	Warnings          []string
	Links             []string
	Elements          []Element
}

// Options select what gets collected.
type Options struct {
	Source string
	// Selector limits reported elements, all elements are reported when
	// empty.
	Selector    string
	Stylesheets []string
	Warnings    []string
}

// lazyHosts lists elements lazily styled pseudo-elements are generated for.
var lazyHosts = map[selectorimpl.PseudoElement]string{
	selectorimpl.PseudoElementDetailsContent: "details",
}

// Collect computes styles of document elements in tree order.
func Collect(doc *dom.Document, st *style.Stylist[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass], opts Options) (*Document, error) {
	stats := st.Stats()
	out := &Document{
		ID:                uuid.NewString(),
		Generated:         time.Now(),
		Source:            opts.Source,
		MediaType:         stats.MediaType,
		QuirksMode:        stats.QuirksMode,
		StateDependencies: st.StateDependencies().String(),
		Stylesheets:       opts.Stylesheets,
		Warnings:          opts.Warnings,
	}
	for _, el := range doc.Links() {
		out.Links = append(out.Links, el.String())
	}

	selected := doc.Elements()
	if opts.Selector != "" {
		var err error
		if selected, err = doc.QuerySelectorAll(opts.Selector); err != nil {
			return nil, fmt.Errorf("bad element selector '%s': %w", opts.Selector, err)
		}
	}
	want := make(map[*dom.Element]bool, len(selected))
	for _, el := range selected {
		want[el] = true
	}

	// parents precede children in tree order
	styles := make(map[*dom.Element]css.Declarations, len(doc.Elements()))
	impl := selectorimpl.ServoSelectorImpl{}
	for _, el := range doc.Elements() {
		var parent css.Declarations
		if p := el.Parent(); p != nil {
			parent = styles[p]
		}
		styles[el] = st.ComputeStyle(el, parent)
		if !want[el] {
			continue
		}

		rep := Element{
			Path:       path(el),
			Name:       el.String(),
			State:      el.State().String(),
			Link:       selectorimpl.IsLink(el),
			Properties: properties(styles[el]),
		}
		pseudo := st.ComputePseudoStyles(el, styles[el])
		impl.EachPseudoElement(func(pe selectorimpl.PseudoElement) {
			decls, ok := pseudo[pe]
			if !ok && lazyHosts[pe] == el.LocalName() {
				decls, ok = st.PrecomputedPseudoStyle(pe, styles[el])
			}
			if ok {
				rep.Pseudos = append(rep.Pseudos, Pseudo{
					Name:       pe.String(),
					Eager:      pe.IsEagerlyCascaded(),
					Properties: properties(decls),
				})
			}
		})
		out.Elements = append(out.Elements, rep)
	}
	return out, nil
}

func path(el *dom.Element) string {
	var parts []string
	for ; el != nil; el = el.Parent() {
		parts = append(parts, el.String())
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}

func properties(decls css.Declarations) []Property {
	props := make([]Property, 0, len(decls))
	for name, val := range decls {
		props = append(props, Property{Name: name, Value: val.Raw, Important: val.Important})
	}
	slices.SortFunc(props, func(a, b Property) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})
	return props
}

// Render executes the template, DefaultTemplate when text is empty, with
// slim-sprig functions available.
func Render(w io.Writer, text string, doc *Document) error {
	if text == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("report").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("unable to parse report template: %w", err)
	}
	if err := tmpl.Execute(w, doc); err != nil {
		return fmt.Errorf("unable to render report: %w", err)
	}
	return nil
}
