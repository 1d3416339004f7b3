// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package model holds the Event/Override data model and the overlay
// that turns a base Event plus its per-occurrence Overrides into a
// concrete EventInstance.
package model

import (
	"sort"
	"time"

	"github.com/redical-go/redical/icaldur"
	"github.com/redical-go/redical/property"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

// PassiveProperty is a non-indexed, non-schedule property held
// verbatim: SUMMARY, DESCRIPTION, LOCATION, URL, and any vendor
// property. Parameters travel atomically with the value — an override
// that shadows a passive property replaces the whole (Params, Value)
// pair, never merges parameter-by-parameter.
type PassiveProperty struct {
	Name   string
	Params []property.Param
	Value  string
}

// Event is a calendar's base recurring event: identity, a recurrence
// schedule, the four indexed dimensions, passive properties, and the
// per-occurrence overrides keyed by occurrence DTSTART instant.
type Event struct {
	UID      string
	Schedule schedule.Schedule

	Categories   value.Categories
	RelatedTo    value.RelatedTo
	Geo          *value.GeoPoint
	Class        value.Classification
	LocationType value.Categories

	Passive      []PassiveProperty
	LastModified time.Time

	// Overrides is keyed by the occurrence's UTC instant. Use
	// OrderedOccurrences for a stable ascending walk.
	Overrides map[time.Time]*Override
}

// Override is a partial event pinned to one occurrence. A nil field
// means "not replaced, fall back to the base event"; for the two
// set-typed dimensions (Categories, LocationType) a non-nil-but-empty
// map is a deliberate, explicit "no terms for this occurrence",
// distinct from "not replaced" (nil).
type Override struct {
	// DTStart, if present, must equal the occurrence timestamp this
	// override is keyed by.
	DTStart *value.DateTime
	DTEnd   *value.DateTime
	Duration *icaldur.Duration

	Categories   value.Categories
	RelatedTo    value.RelatedTo
	Geo          *value.GeoPoint
	Class        *value.Classification
	LocationType value.Categories

	Passive      []PassiveProperty
	LastModified time.Time
}

// OrderedOccurrences returns the event's override occurrence instants
// in ascending order.
func (e *Event) OrderedOccurrences() []time.Time {
	out := make([]time.Time, 0, len(e.Overrides))
	for t := range e.Overrides {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// SetOverride installs ov at occurrence t, applying LAST-MODIFIED
// precedence: if an override already exists at t and its LAST-MODIFIED
// is newer than ov's, the call is a no-op and applied is false. Does
// not check that t is actually an occurrence of e's schedule; callers
// that can expand the schedule should do that check first and fail
// with ErrNoSuchOccurrence before calling SetOverride.
func (e *Event) SetOverride(t time.Time, ov *Override) (applied bool, err error) {
	if ov.DTStart != nil && !ov.DTStart.Instant.Equal(t) {
		return false, ErrOverrideDTStartMismatch
	}
	if existing, ok := e.Overrides[t]; ok && Newer(existing.LastModified, ov.LastModified) {
		return false, nil
	}
	if e.Overrides == nil {
		e.Overrides = make(map[time.Time]*Override)
	}
	e.Overrides[t] = ov
	return true, nil
}

// DeleteOverride removes the override at t, reporting whether one was
// present to remove.
func (e *Event) DeleteOverride(t time.Time) bool {
	if _, ok := e.Overrides[t]; !ok {
		return false
	}
	delete(e.Overrides, t)
	return true
}

// Newer reports whether a's LAST-MODIFIED is strictly newer than b's.
// An absent (zero) timestamp on either side always loses: a missing a
// is never newer, a missing b always loses to any present a.
func Newer(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.After(b)
}
