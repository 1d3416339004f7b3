// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/redical-go/redical/icaldur"
	"github.com/redical-go/redical/property"
	"github.com/redical-go/redical/rrule"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

// fields is the shared set of already-parsed property values BuildEvent
// and BuildOverride both assemble from a []property.Line before
// shaping them into their respective structs: an Event always carries
// its indexed dimensions, an Override only carries the ones it
// actually redefines.
type fields struct {
	dtstart  *value.DateTime
	dtend    *value.DateTime
	duration *icaldur.Duration
	rrules   []rrule.RRule
	exrules  []rrule.RRule
	rdates   []value.DateTime
	exdates  []value.DateTime

	categories   value.Categories
	hasCats      bool
	relatedTo    value.RelatedTo
	hasRelatedTo bool
	geo          *value.GeoPoint
	class        *value.Classification
	locationType value.Categories
	hasLocType   bool

	lastModified time.Time
	passive      []PassiveProperty
}

// parseFields walks lines once, dispatching each by its property name,
// and returns the shared intermediate shape BuildEvent/BuildOverride
// each finish assembling. resolve is used for any floating DATE-TIME
// value carrying a TZID param.
func parseFields(lines []property.Line, resolve value.TZResolver) (*fields, error) {
	f := &fields{relatedTo: value.NewRelatedTo()}

	for _, line := range lines {
		name := property.Name(line.Name)
		switch name {
		case property.NameDTStart:
			dt, err := parseDTValue(line, resolve)
			if err != nil {
				return nil, err
			}
			f.dtstart = &dt
		case property.NameDTEnd:
			dt, err := parseDTValue(line, resolve)
			if err != nil {
				return nil, err
			}
			f.dtend = &dt
		case property.NameDuration:
			d, err := icaldur.ParseICalDuration(line.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: DURATION: %s", ErrInvalidProperty, err)
			}
			f.duration = &d
		case property.NameRRule:
			r, err := rrule.ParseRRule(line.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: RRULE: %s", ErrInvalidProperty, err)
			}
			f.rrules = append(f.rrules, *r)
		case property.NameExRule:
			r, err := rrule.ParseRRule(line.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: EXRULE: %s", ErrInvalidProperty, err)
			}
			f.exrules = append(f.exrules, *r)
		case property.NameRDate:
			dt, err := parseDTValue(line, resolve)
			if err != nil {
				return nil, err
			}
			f.rdates = append(f.rdates, dt)
		case property.NameExDate:
			dt, err := parseDTValue(line, resolve)
			if err != nil {
				return nil, err
			}
			f.exdates = append(f.exdates, dt)
		case property.NameCategories:
			if !f.hasCats {
				f.categories = value.NewCategories()
				f.hasCats = true
			}
			for term := range value.ParseCategories(line.Value) {
				f.categories[term] = struct{}{}
			}
		case property.NameRelatedTo:
			relType, _ := line.Get("RELTYPE")
			for _, uid := range strings.Split(line.Value, ",") {
				if uid == "" {
					continue
				}
				f.relatedTo.Add(relType, uid)
			}
			f.hasRelatedTo = true
		case property.NameGeo:
			g, err := value.ParseGeo(line.Value)
			if err != nil {
				return nil, err
			}
			f.geo = &g
		case property.NameClass:
			cl, err := value.ParseClassification(line.Value)
			if err != nil {
				return nil, err
			}
			f.class = &cl
		case property.NameLocationType:
			if !f.hasLocType {
				f.locationType = value.NewCategories()
				f.hasLocType = true
			}
			for term := range value.ParseCategories(line.Value) {
				f.locationType[term] = struct{}{}
			}
		case property.NameLastModified:
			dt, err := parseDTValue(line, resolve)
			if err != nil {
				return nil, err
			}
			f.lastModified = dt.Instant
		case property.NameUID, property.NameRecurrenceID:
			// Identity properties are supplied by the caller, not
			// carried in the passive set.
		default:
			f.passive = append(f.passive, PassiveProperty{
				Name:   line.Name,
				Params: line.Params,
				Value:  line.Value,
			})
		}
	}
	return f, nil
}

func parseDTValue(line property.Line, resolve value.TZResolver) (value.DateTime, error) {
	isDate := false
	if v, ok := line.Get("VALUE"); ok && strings.EqualFold(v, "DATE") {
		isDate = true
	}
	tzid, _ := line.Get("TZID")
	return value.ParseDateTime(line.Value, isDate, tzid, resolve)
}

// BuildEvent assembles a base Event from its already-tokenized property
// lines. uid comes from the caller rather than from within the lines
// (UID and RECURRENCE-ID lines are ignored), mirroring how the host
// key-value store addresses an event independent of its body; the
// last-modified time is read from a LAST-MODIFIED line when present.
func BuildEvent(uid string, lines []property.Line, resolve value.TZResolver) (*Event, error) {
	f, err := parseFields(lines, resolve)
	if err != nil {
		return nil, err
	}
	if f.dtstart == nil {
		return nil, fmt.Errorf("%w: missing DTSTART", ErrInvalidProperty)
	}

	ev := &Event{
		UID: uid,
		Schedule: schedule.Schedule{
			DTStart:  *f.dtstart,
			DTEnd:    f.dtend,
			Duration: f.duration,
			RRules:   f.rrules,
			ExRules:  f.exrules,
			RDates:   f.rdates,
			ExDates:  f.exdates,
		},
		Class:        value.DefaultClassification,
		LocationType: f.locationType,
		Passive:      f.passive,
		LastModified: f.lastModified,
		Overrides:    make(map[time.Time]*Override),
	}
	if f.hasCats {
		ev.Categories = f.categories
	}
	if f.hasRelatedTo {
		ev.RelatedTo = f.relatedTo
	}
	ev.Geo = f.geo
	if f.class != nil {
		ev.Class = *f.class
	}
	return ev, nil
}

// BuildOverride assembles an Override from its property lines. Unlike
// BuildEvent, an absent dimension stays nil (meaning "not replaced,
// fall back to the base") rather than defaulting, since replace-or-
// fall-through is the whole point of an override.
func BuildOverride(lines []property.Line, resolve value.TZResolver) (*Override, error) {
	f, err := parseFields(lines, resolve)
	if err != nil {
		return nil, err
	}
	ov := &Override{
		DTStart:      f.dtstart,
		DTEnd:        f.dtend,
		Duration:     f.duration,
		Geo:          f.geo,
		Class:        f.class,
		Passive:      f.passive,
		LastModified: f.lastModified,
	}
	if f.hasCats {
		ov.Categories = f.categories
	}
	if f.hasRelatedTo {
		ov.RelatedTo = f.relatedTo
	}
	if f.hasLocType {
		ov.LocationType = f.locationType
	}
	return ov, nil
}
