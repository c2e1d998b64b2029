package dom

import (
	"golang.org/x/net/html/atom"

	"servosel/elementstate"
	"servosel/selectors"
)

// initialState derives state implied by markup: form controls are enabled
// or disabled, checkable inputs may be checked and editable controls are
// read-write.
func initialState(e *Element) elementstate.ElementState {
	var s elementstate.ElementState

	switch e.node.DataAtom {
	case atom.Button, atom.Input, atom.Select, atom.Textarea, atom.Option, atom.Optgroup, atom.Fieldset:
		if _, disabled := e.Attr("disabled"); disabled {
			s = s.Insert(elementstate.InDisabledState)
		} else {
			s = s.Insert(elementstate.InEnabledState)
		}
	}

	switch e.node.DataAtom {
	case atom.Input:
		typ, _ := e.Attr("type")
		typ = selectors.ToASCIILower(typ)
		switch typ {
		case "checkbox", "radio":
			if _, checked := e.Attr("checked"); checked {
				s = s.Insert(elementstate.InCheckedState)
			}
		}
		if textLike(typ) && editable(e, s) {
			s = s.Insert(elementstate.InReadWriteState)
		}
	case atom.Textarea:
		if editable(e, s) {
			s = s.Insert(elementstate.InReadWriteState)
		}
	case atom.Option:
		if _, selected := e.Attr("selected"); selected {
			s = s.Insert(elementstate.InCheckedState)
		}
	default:
		if ce, ok := e.Attr("contenteditable"); ok {
			switch selectors.ToASCIILower(ce) {
			case "", "true", "plaintext-only":
				s = s.Insert(elementstate.InReadWriteState)
			}
		}
	}
	return s
}

func textLike(typ string) bool {
	switch typ {
	case "", "text", "search", "url", "tel", "email", "password", "number",
		"date", "month", "week", "time", "datetime-local":
		return true
	}
	return false
}

func editable(e *Element, s elementstate.ElementState) bool {
	_, readonly := e.Attr("readonly")
	return !readonly && !s.Contains(elementstate.InDisabledState)
}
