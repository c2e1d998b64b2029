package selectorimpl

import (
	"fmt"

	"servosel/elementstate"
)

// NonTSPseudoClass is a pseudo-class which does not depend on tree
// structure.
type NonTSPseudoClass int

const (
	NonTSPseudoClassAnyLink NonTSPseudoClass = iota
	NonTSPseudoClassLink
	NonTSPseudoClassVisited
	NonTSPseudoClassActive
	NonTSPseudoClassFocus
	NonTSPseudoClassHover
	NonTSPseudoClassEnabled
	NonTSPseudoClassDisabled
	NonTSPseudoClassChecked
	NonTSPseudoClassIndeterminate
	NonTSPseudoClassServoNonZeroBorder
	NonTSPseudoClassReadWrite
	NonTSPseudoClassReadOnly
	nonTSPseudoClassCount
)

var nonTSPseudoClassNames = [nonTSPseudoClassCount]string{
	NonTSPseudoClassAnyLink:            "any-link",
	NonTSPseudoClassLink:               "link",
	NonTSPseudoClassVisited:            "visited",
	NonTSPseudoClassActive:             "active",
	NonTSPseudoClassFocus:              "focus",
	NonTSPseudoClassHover:              "hover",
	NonTSPseudoClassEnabled:            "enabled",
	NonTSPseudoClassDisabled:           "disabled",
	NonTSPseudoClassChecked:            "checked",
	NonTSPseudoClassIndeterminate:      "indeterminate",
	NonTSPseudoClassServoNonZeroBorder: "-servo-nonzero-border",
	NonTSPseudoClassReadWrite:          "read-write",
	NonTSPseudoClassReadOnly:           "read-only",
}

func (pc NonTSPseudoClass) String() string {
	if pc < 0 || pc >= nonTSPseudoClassCount {
		return fmt.Sprintf("NonTSPseudoClass(%d)", int(pc))
	}
	return nonTSPseudoClassNames[pc]
}

// StateFlag returns the element state bit the pseudo-class tests. Classes
// that do not depend on dynamic element state return an empty set.
// :read-only matches when the read-write bit is clear, so both share it.
func (pc NonTSPseudoClass) StateFlag() elementstate.ElementState {
	switch pc {
	case NonTSPseudoClassActive:
		return elementstate.InActiveState
	case NonTSPseudoClassFocus:
		return elementstate.InFocusState
	case NonTSPseudoClassHover:
		return elementstate.InHoverState
	case NonTSPseudoClassEnabled:
		return elementstate.InEnabledState
	case NonTSPseudoClassDisabled:
		return elementstate.InDisabledState
	case NonTSPseudoClassChecked:
		return elementstate.InCheckedState
	case NonTSPseudoClassIndeterminate:
		return elementstate.InIndeterminateState
	case NonTSPseudoClassReadWrite, NonTSPseudoClassReadOnly:
		return elementstate.InReadWriteState
	case NonTSPseudoClassAnyLink, NonTSPseudoClassLink, NonTSPseudoClassVisited, NonTSPseudoClassServoNonZeroBorder:
		return 0
	default:
		// this should never happen
		panic(fmt.Sprintf("unknown pseudo-class %d", int(pc)))
	}
}

// IsUserAgentOnly reports whether the name may appear only in user-agent
// stylesheets.
func (pc NonTSPseudoClass) IsUserAgentOnly() bool {
	return pc == NonTSPseudoClassServoNonZeroBorder
}

// NonTSPseudoClassNames returns canonical names of all pseudo-classes.
func NonTSPseudoClassNames() []string {
	names := make([]string, len(nonTSPseudoClassNames))
	copy(names, nonTSPseudoClassNames[:])
	return names
}

// NonTSPseudoClasses returns all pseudo-classes in declaration order.
func NonTSPseudoClasses() []NonTSPseudoClass {
	all := make([]NonTSPseudoClass, 0, nonTSPseudoClassCount)
	for pc := range nonTSPseudoClassCount {
		all = append(all, pc)
	}
	return all
}
