// Package elementstate defines the dynamic per-element state bits tracked
// for incremental restyling.
package elementstate

import "strings"

// ElementState is a set of dynamic boolean element flags.
type ElementState uint16

const (
	InActiveState ElementState = 1 << iota
	InFocusState
	InHoverState
	InEnabledState
	InDisabledState
	InCheckedState
	InIndeterminateState
	InReadWriteState
)

var flagNames = []struct {
	flag ElementState
	name string
}{
	{InActiveState, "active"},
	{InFocusState, "focus"},
	{InHoverState, "hover"},
	{InEnabledState, "enabled"},
	{InDisabledState, "disabled"},
	{InCheckedState, "checked"},
	{InIndeterminateState, "indeterminate"},
	{InReadWriteState, "read-write"},
}

// All returns every known flag.
func All() ElementState {
	var s ElementState
	for _, f := range flagNames {
		s |= f.flag
	}
	return s
}

func (s ElementState) Empty() bool {
	return s == 0
}

// Contains reports whether all flags of other are set in s.
func (s ElementState) Contains(other ElementState) bool {
	return s&other == other
}

// Intersects reports whether s and other share at least one flag.
func (s ElementState) Intersects(other ElementState) bool {
	return s&other != 0
}

func (s ElementState) Insert(other ElementState) ElementState {
	return s | other
}

func (s ElementState) Remove(other ElementState) ElementState {
	return s &^ other
}

// String lists set flag names separated by '|', or "empty".
func (s ElementState) String() string {
	if s.Empty() {
		return "empty"
	}
	var names []string
	for _, f := range flagNames {
		if s.Contains(f.flag) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// Parse converts a flag name as returned by String into its flag.
func Parse(name string) (ElementState, bool) {
	for _, f := range flagNames {
		if f.name == name {
			return f.flag, true
		}
	}
	return 0, false
}
