// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redical-go/redical/calendar"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/value"
)

// Persisted §6.4 framing markers. The host's own serialization
// callbacks are out of scope (spec.md §1); this is the textual
// rendering of the (uid, [property-line]*, [serialized-child]*) triple
// the section describes, letting the property renderer (RenderEvent/
// RenderOverride) stay the single source of truth for the property
// lines themselves rather than a separate binary format.
const (
	markerCalendar     = "CALENDAR"
	markerEndCalendar  = "END-CALENDAR"
	markerEvent        = "EVENT"
	markerEndEvent     = "END-EVENT"
	markerOverride     = "OVERRIDE"
	markerEndOverride  = "END-OVERRIDE"
)

// Persist renders cal as newline-delimited §6.4 text: a calendar
// header, then per event (sorted by UID for a stable byte-identical
// save) a header plus its property lines, then each of its overrides
// (ascending by occurrence) as a nested block.
func Persist(cal *calendar.Calendar) []string {
	lines := []string{markerCalendar + ":" + cal.UID}

	uids := make([]string, 0, len(cal.Events))
	for uid := range cal.Events {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	for _, uid := range uids {
		ev := cal.Events[uid]
		lines = append(lines, markerEvent+":"+uid)
		lines = append(lines, model.RenderEvent(ev)...)
		for _, t := range ev.OrderedOccurrences() {
			ov := ev.Overrides[t]
			lines = append(lines, markerOverride+":"+value.NewUTC(t).Render())
			lines = append(lines, model.RenderOverride(ov)...)
			lines = append(lines, markerEndOverride)
		}
		lines = append(lines, markerEndEvent)
	}
	lines = append(lines, markerEndCalendar)
	return lines
}

// eventBlock is one EVENT..END-EVENT span, extracted by a single
// sequential scan of lines before the per-event bodies are parsed
// concurrently (see Load).
type eventBlock struct {
	uid       string
	propLines []string
	overrides []overrideBlock
}

type overrideBlock struct {
	ts        string
	propLines []string
}

// Load rebuilds a Calendar from Persist's textual layout. Per §6.4,
// each event's body is independent of every other, so their property
// lines are parsed concurrently; the final RebuildIndexes pass (§4.G)
// stays a single sequential step once every event is built. A
// ParseError's Location is "calendar_uid -> event_uid" (just the
// calendar UID for a layout error); it does not name an override's
// occurrence timestamp. Only a bad occurrence timestamp or a DTSTART
// mismatch puts that timestamp at the front of the cause's text.
func Load(lines []string, resolve value.TZResolver) (*calendar.Calendar, error) {
	if len(lines) == 0 || !strings.HasPrefix(lines[0], markerCalendar+":") {
		return nil, newErr(KindParseError, fmt.Errorf("missing %s header", markerCalendar))
	}
	calUID := strings.TrimPrefix(lines[0], markerCalendar+":")

	blocks, err := scanEventBlocks(lines[1:])
	if err != nil {
		return nil, newLocatedErr(KindParseError, calUID, err)
	}

	cal := calendar.New(calUID, resolve)

	type built struct {
		ev  *model.Event
		err error
		loc string
	}
	results := make([]built, len(blocks))
	var wg sync.WaitGroup
	for i, b := range blocks {
		wg.Add(1)
		go func(i int, b eventBlock) {
			defer wg.Done()
			ev, err := buildEventBlock(b, resolve)
			results[i] = built{ev: ev, err: err, loc: calUID + " -> " + b.uid}
		}(i, b)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, newLocatedErr(KindParseError, r.loc, r.err)
		}
		cal.Events[r.ev.UID] = r.ev
	}

	if err := cal.RebuildIndexes(); err != nil {
		return nil, classifyScheduleErr(err)
	}
	return cal, nil
}

func buildEventBlock(b eventBlock, resolve value.TZResolver) (*model.Event, error) {
	lines, err := parseLines(b.propLines)
	if err != nil {
		return nil, err
	}
	ev, err := model.BuildEvent(b.uid, lines, resolve)
	if err != nil {
		return nil, err
	}
	ev.Overrides = make(map[time.Time]*model.Override, len(b.overrides))
	for _, ob := range b.overrides {
		t, err := parseOccurrenceTS(ob.ts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ob.ts, err)
		}
		ovLines, err := parseLines(ob.propLines)
		if err != nil {
			return nil, err
		}
		ov, err := model.BuildOverride(ovLines, resolve)
		if err != nil {
			return nil, err
		}
		if _, err := ev.SetOverride(t, ov); err != nil {
			return nil, fmt.Errorf("%s: %w", ob.ts, err)
		}
	}
	return ev, nil
}

// scanEventBlocks splits the calendar body (everything after the
// CALENDAR header, up to and including END-CALENDAR) into one
// eventBlock per EVENT..END-EVENT span.
func scanEventBlocks(lines []string) ([]eventBlock, error) {
	var blocks []eventBlock
	i := 0
	for i < len(lines) {
		line := lines[i]
		if line == markerEndCalendar {
			return blocks, nil
		}
		if !strings.HasPrefix(line, markerEvent+":") {
			return nil, fmt.Errorf("expected %s, got %q", markerEvent, line)
		}
		b := eventBlock{uid: strings.TrimPrefix(line, markerEvent+":")}
		i++
		for i < len(lines) && lines[i] != markerEndEvent {
			if strings.HasPrefix(lines[i], markerOverride+":") {
				ob := overrideBlock{ts: strings.TrimPrefix(lines[i], markerOverride+":")}
				i++
				for i < len(lines) && lines[i] != markerEndOverride {
					ob.propLines = append(ob.propLines, lines[i])
					i++
				}
				if i >= len(lines) {
					return nil, fmt.Errorf("unterminated %s in event %s", markerOverride, b.uid)
				}
				i++ // consume END-OVERRIDE
				b.overrides = append(b.overrides, ob)
				continue
			}
			b.propLines = append(b.propLines, lines[i])
			i++
		}
		if i >= len(lines) {
			return nil, fmt.Errorf("unterminated %s %s", markerEvent, b.uid)
		}
		i++ // consume END-EVENT
		blocks = append(blocks, b)
	}
	return nil, fmt.Errorf("missing %s", markerEndCalendar)
}
