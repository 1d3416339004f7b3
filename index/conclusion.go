// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package index implements the inverted term index: term -> { event-uid
// -> IndexedConclusion }, with boolean merge and incremental diff-apply.
// No example repo in the pack carries a generic set/index library, so
// this is built directly on plain Go maps (see DESIGN.md).
package index

import "time"

// Shape distinguishes the two IndexedConclusion variants.
type Shape bool

const (
	// Include means the term applies to every occurrence except those
	// listed in Exceptions.
	Include Shape = false
	// Exclude means the term applies to no occurrence except those
	// listed in Exceptions.
	Exclude Shape = true
)

// Conclusion is the sum type telling how broadly a term applies across
// one event's occurrences. The exception set is always minimal: it
// never contains a timestamp already implied by Shape alone.
type Conclusion struct {
	Shape      Shape
	Exceptions map[time.Time]struct{}
}

// IncludeAll is the conclusion meaning "applies to every occurrence",
// the starting point for a base event's own indexed terms.
func IncludeAll() Conclusion {
	return Conclusion{Shape: Include}
}

// ExcludeAll is the conclusion meaning "applies to no occurrence",
// equivalent to the term not being present at all.
func ExcludeAll() Conclusion {
	return Conclusion{Shape: Exclude}
}

// Admits reports whether the conclusion applies to occurrence t.
func (c Conclusion) Admits(t time.Time) bool {
	_, excepted := c.Exceptions[t]
	if c.Shape == Include {
		return !excepted
	}
	return excepted
}

// IsEmpty reports whether the conclusion admits no occurrence at all
// (Exclude with no exceptions); the executor can skip full expansion
// in this case.
func (c Conclusion) IsEmpty() bool {
	return c.Shape == Exclude && len(c.Exceptions) == 0
}

// WithException returns a copy of c with t added to its exception set.
// t is always added; c itself is left unchanged.
func (c Conclusion) WithException(t time.Time) Conclusion {
	out := Conclusion{Shape: c.Shape, Exceptions: cloneExceptions(c.Exceptions)}
	if out.Exceptions == nil {
		out.Exceptions = make(map[time.Time]struct{}, 1)
	}
	out.Exceptions[t] = struct{}{}
	return out
}

// Equal reports structural equality (same shape, same exception set).
func (c Conclusion) Equal(o Conclusion) bool {
	if c.Shape != o.Shape || len(c.Exceptions) != len(o.Exceptions) {
		return false
	}
	for t := range c.Exceptions {
		if _, ok := o.Exceptions[t]; !ok {
			return false
		}
	}
	return true
}

func cloneExceptions(m map[time.Time]struct{}) map[time.Time]struct{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[time.Time]struct{}, len(m))
	for t := range m {
		out[t] = struct{}{}
	}
	return out
}

// And combines two conclusions for the same (term, uid) under AND
// semantics: include∧include narrows exceptions to the union; an
// occurrence is admitted only when both sides admit it.
func (c Conclusion) And(o Conclusion) Conclusion {
	switch {
	case c.Shape == Include && o.Shape == Include:
		return Conclusion{Shape: Include, Exceptions: unionExceptions(c.Exceptions, o.Exceptions)}
	case c.Shape == Exclude && o.Shape == Exclude:
		return Conclusion{Shape: Exclude, Exceptions: intersectExceptions(c.Exceptions, o.Exceptions)}
	case c.Shape == Include && o.Shape == Exclude:
		return Conclusion{Shape: Exclude, Exceptions: subtractExceptions(o.Exceptions, c.Exceptions)}
	default: // Exclude, Include
		return Conclusion{Shape: Exclude, Exceptions: subtractExceptions(c.Exceptions, o.Exceptions)}
	}
}

// Or combines two conclusions under OR semantics, broadening coverage:
// an occurrence is admitted when either side admits it.
func (c Conclusion) Or(o Conclusion) Conclusion {
	switch {
	case c.Shape == Include && o.Shape == Include:
		return Conclusion{Shape: Include, Exceptions: intersectExceptions(c.Exceptions, o.Exceptions)}
	case c.Shape == Exclude && o.Shape == Exclude:
		return Conclusion{Shape: Exclude, Exceptions: unionExceptions(c.Exceptions, o.Exceptions)}
	case c.Shape == Include && o.Shape == Exclude:
		return Conclusion{Shape: Include, Exceptions: subtractExceptions(c.Exceptions, o.Exceptions)}
	default:
		return Conclusion{Shape: Include, Exceptions: subtractExceptions(o.Exceptions, c.Exceptions)}
	}
}

func unionExceptions(a, b map[time.Time]struct{}) map[time.Time]struct{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[time.Time]struct{}, len(a)+len(b))
	for t := range a {
		out[t] = struct{}{}
	}
	for t := range b {
		out[t] = struct{}{}
	}
	return out
}

func intersectExceptions(a, b map[time.Time]struct{}) map[time.Time]struct{} {
	var out map[time.Time]struct{}
	for t := range a {
		if _, ok := b[t]; ok {
			if out == nil {
				out = make(map[time.Time]struct{})
			}
			out[t] = struct{}{}
		}
	}
	return out
}

// subtractExceptions returns the members of a not present in b: used
// when flipping Include's exceptions into an Exclude conclusion's
// admitted set (a occurrence admitted by Include-minus-b's-exclusion).
func subtractExceptions(a, b map[time.Time]struct{}) map[time.Time]struct{} {
	var out map[time.Time]struct{}
	for t := range a {
		if _, ok := b[t]; !ok {
			if out == nil {
				out = make(map[time.Time]struct{})
			}
			out[t] = struct{}{}
		}
	}
	return out
}
