// Package selectors is the engine-agnostic side of selector handling. It
// parses selector lists and matches them against elements while delegating
// every pseudo-element and non-tree-structural pseudo-class name to a
// concrete Impl supplied by the browser profile.
package selectors
