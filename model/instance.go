// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package model

import (
	"sort"

	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

// EventInstance is the materialised output of one occurrence: the base
// Event overlaid with its Override, if any, at that timestamp.
// Immutable once produced.
type EventInstance struct {
	UID          string
	DTStart      value.DateTime
	DTEnd        value.DateTime
	Geo          *value.GeoPoint
	Categories   value.Categories
	RelatedTo    value.RelatedTo
	Class        value.Classification
	LocationType value.Categories
	Passive      []PassiveProperty
	// RecurrenceID is DTStart's instant, repeated here to make an
	// instance self-describing independent of how it was produced.
	RecurrenceID value.DateTime
}

// Overlay builds the EventInstance for occ, applying e's Override at
// that timestamp if one exists. UID is always the base event's; each
// replaceable dimension falls back to the base unless the override
// defines it; passive properties are overlaid by name.
func Overlay(e *Event, occ schedule.Occurrence) EventInstance {
	inst := EventInstance{
		UID:          e.UID,
		DTStart:      occ.Start,
		DTEnd:        occ.End,
		Geo:          e.Geo,
		Categories:   e.Categories,
		RelatedTo:    e.RelatedTo,
		Class:        e.Class,
		LocationType: e.LocationType,
		Passive:      e.Passive,
		RecurrenceID: occ.Start,
	}

	ov, ok := e.Overrides[occ.Start.Instant]
	if !ok {
		return inst
	}

	if ov.Categories != nil {
		inst.Categories = ov.Categories
	}
	if ov.RelatedTo != nil {
		inst.RelatedTo = ov.RelatedTo
	}
	if ov.Geo != nil {
		inst.Geo = ov.Geo
	}
	if ov.Class != nil {
		inst.Class = *ov.Class
	}
	if ov.LocationType != nil {
		inst.LocationType = ov.LocationType
	}
	if len(ov.Passive) > 0 {
		inst.Passive = overlayPassive(e.Passive, ov.Passive)
	}
	if ov.DTEnd != nil {
		inst.DTEnd = *ov.DTEnd
	} else if ov.Duration != nil {
		if end, err := occ.Start.Add(ov.Duration.AsTimeDuration(), value.DefaultTZResolver); err == nil {
			inst.DTEnd = end
		}
	}

	return inst
}

// overlayPassive starts from the override's passive set and appends
// every base passive property whose name the override didn't shadow,
// then sorts the result by name as the overlay contract requires.
func overlayPassive(base, override []PassiveProperty) []PassiveProperty {
	shadowed := make(map[string]struct{}, len(override))
	for _, p := range override {
		shadowed[p.Name] = struct{}{}
	}

	out := make([]PassiveProperty, 0, len(base)+len(override))
	out = append(out, override...)
	for _, p := range base {
		if _, ok := shadowed[p.Name]; !ok {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
