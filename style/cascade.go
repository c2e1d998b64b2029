package style

import (
	"slices"

	"servosel/css"
)

// ApplicableDeclaration is a block of declarations from a rule whose
// selector matched.
type ApplicableDeclaration struct {
	Origin       css.Origin
	Source       string // stylesheet the rule came from
	Selector     string
	Declarations css.Declarations

	order int
}

// precedence orders origins and importance: normal declarations by
// origin, then important ones in reverse origin order.
func precedence(origin css.Origin, important bool) uint8 {
	switch {
	case !important && origin == css.OriginUserAgent:
		return 1
	case !important && origin == css.OriginUser:
		return 2
	case !important:
		return 3
	case origin == css.OriginAuthor:
		return 4
	case origin == css.OriginUser:
		return 5
	default:
		return 6
	}
}

type weight struct {
	precedence uint8
	order      int
}

func (w weight) less(other weight) bool {
	if w.precedence != other.precedence {
		return w.precedence < other.precedence
	}
	return w.order < other.order
}

func sortDeclarations(decls []ApplicableDeclaration) {
	slices.SortStableFunc(decls, func(a, b ApplicableDeclaration) int {
		wa := weight{precedence(a.Origin, false), a.order}
		wb := weight{precedence(b.Origin, false), b.order}
		switch {
		case wa.less(wb):
			return -1
		case wb.less(wa):
			return 1
		}
		return 0
	})
}

// Cascade resolves the winning value of every property declared in decls
// and puts it on top of inherited properties of parent (which may be nil).
func Cascade(parent css.Declarations, decls []ApplicableDeclaration) css.Declarations {
	result := Inherit(parent)
	winners := make(map[string]weight)
	for i := range decls {
		d := &decls[i]
		for name, val := range d.Declarations {
			w := weight{precedence(d.Origin, val.Important), d.order}
			if cur, ok := winners[name]; ok && w.less(cur) {
				continue
			}
			winners[name] = w
			result[name] = val
		}
	}
	return result
}

// inherited lists properties which inherit by default.
var inherited = map[string]bool{
	"border-collapse":     true,
	"border-spacing":      true,
	"caption-side":        true,
	"color":               true,
	"cursor":              true,
	"direction":           true,
	"empty-cells":         true,
	"font":                true,
	"font-family":         true,
	"font-size":           true,
	"font-style":          true,
	"font-variant":        true,
	"font-weight":         true,
	"letter-spacing":      true,
	"line-height":         true,
	"list-style":          true,
	"list-style-image":    true,
	"list-style-position": true,
	"list-style-type":     true,
	"quotes":              true,
	"text-align":          true,
	"text-indent":         true,
	"text-transform":      true,
	"visibility":          true,
	"white-space":         true,
	"word-spacing":        true,
}

// IsInherited reports whether the property inherits by default.
func IsInherited(name string) bool {
	return inherited[name]
}

// Inherit returns inherited properties of the parent style as a new
// style.
func Inherit(parent css.Declarations) css.Declarations {
	result := make(css.Declarations, len(parent))
	for name, val := range parent {
		if inherited[name] {
			result[name] = val
		}
	}
	return result
}
