// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package command implements the §6.2 command surface: the conceptual
// host-facing operations (calendar-get/set, event-get/set/del/list,
// override-set/del/list, calendar-query, idx-disable/rebuild) layered
// on top of the calendar aggregate and query engine. This is the one
// place in the repo that stands in for the host key-value store's
// command dispatch, which spec.md §1 places out of scope; Store here
// is an in-process harness for exercising the core, used by
// cmd/redicli and by this package's own tests.
package command

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redical-go/redical/calendar"
	"github.com/redical-go/redical/config"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/property"
	"github.com/redical-go/redical/query"
	"github.com/redical-go/redical/value"
)

// Store owns every calendar currently referenced by UID, mirroring the
// host key-value store's "one key, one Calendar" keyspace. It is not
// safe for concurrent use by multiple goroutines on the same
// calendar; spec.md §5 places that serialisation in the host.
type Store struct {
	calendars map[string]*calendar.Calendar
	resolve   value.TZResolver
	cfg       *config.Config
}

// NewStore returns an empty Store. A nil cfg falls back to the
// package's compiled-in defaults.
func NewStore(cfg *config.Config) *Store {
	if cfg == nil {
		cfg = &config.Config{QueryParseTimeout: query.DefaultParseTimeout, OccurrenceCap: 10_000}
	}
	return &Store{
		calendars: make(map[string]*calendar.Calendar),
		resolve:   value.DefaultTZResolver,
		cfg:       cfg,
	}
}

func (s *Store) lookup(calUID string) (*calendar.Calendar, error) {
	cal, ok := s.calendars[calUID]
	if !ok {
		return nil, newErr(KindNotFound, calendar.ErrCalendarNotFound)
	}
	return cal, nil
}

// CalendarGet returns cal's rendered property lines. Calendars carry
// no passive properties of their own in this data model (spec.md §3
// names none), so the line list is always empty; the call still
// fails with NotFound per §6.2 when the calendar doesn't exist.
func (s *Store) CalendarGet(calUID string) ([]string, error) {
	if _, err := s.lookup(calUID); err != nil {
		return nil, err
	}
	return nil, nil
}

// CalendarSet creates an empty calendar at calUID if absent; it never
// fails, per §6.2's table ("never"). Returns whether a new calendar
// was created.
func (s *Store) CalendarSet(calUID string) bool {
	if _, ok := s.calendars[calUID]; ok {
		return false
	}
	s.calendars[calUID] = calendar.New(calUID, s.resolve)
	return true
}

// EventGet returns the rendered property lines of eventUID within
// calUID.
func (s *Store) EventGet(calUID, eventUID string) ([]string, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return nil, err
	}
	ev, ok := cal.Events[eventUID]
	if !ok {
		return nil, newErr(KindNotFound, calendar.ErrEventNotFound)
	}
	return model.RenderEvent(ev), nil
}

// EventSet parses icalBody, validates the resulting schedule, and
// upserts it as eventUID within calUID, applying LAST-MODIFIED
// precedence (§4.G). applied is false, with no error, when the
// incoming event is stale.
func (s *Store) EventSet(calUID, eventUID string, icalBody []string) (applied bool, err error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return false, err
	}

	lines, err := parseLines(icalBody)
	if err != nil {
		return false, newLocatedErr(KindParseError, calUID+" -> "+eventUID, err)
	}

	ev, err := model.BuildEvent(eventUID, lines, s.resolve)
	if err != nil {
		return false, newLocatedErr(KindParseError, calUID+" -> "+eventUID, err)
	}

	applied, err = cal.SetEvent(ev)
	if err != nil {
		return false, classifyScheduleErr(err)
	}
	return applied, nil
}

// EventDelete removes eventUID from calUID, reporting whether it was
// present.
func (s *Store) EventDelete(calUID, eventUID string) (bool, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return false, err
	}
	return cal.DeleteEvent(eventUID), nil
}

// EventList returns up to count event UIDs starting at offset, stably
// ordered by UID.
func (s *Store) EventList(calUID string, offset, count int) ([]string, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(cal.Events))
	for uid := range cal.Events {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return paginate(uids, offset, count), nil
}

// OverrideSet parses icalBody and installs it as an override on
// eventUID at occurrenceTS (a rendered UTC timestamp, e.g.
// "20210105T183000Z"), applying LAST-MODIFIED precedence.
func (s *Store) OverrideSet(calUID, eventUID, occurrenceTS string, icalBody []string) (applied bool, err error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return false, err
	}
	t, err := parseOccurrenceTS(occurrenceTS)
	if err != nil {
		return false, newLocatedErr(KindParseError, calUID+" -> "+eventUID+" -> "+occurrenceTS, err)
	}

	lines, err := parseLines(icalBody)
	if err != nil {
		return false, newLocatedErr(KindParseError, calUID+" -> "+eventUID+" -> "+occurrenceTS, err)
	}
	ov, err := model.BuildOverride(lines, s.resolve)
	if err != nil {
		return false, newLocatedErr(KindParseError, calUID+" -> "+eventUID+" -> "+occurrenceTS, err)
	}

	applied, err = cal.SetOverride(eventUID, t, ov)
	if err != nil {
		return false, classifyOverrideErr(err)
	}
	return applied, nil
}

// OverrideDelete removes the override at occurrenceTS on eventUID.
func (s *Store) OverrideDelete(calUID, eventUID, occurrenceTS string) (bool, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return false, err
	}
	t, err := parseOccurrenceTS(occurrenceTS)
	if err != nil {
		return false, newErr(KindParseError, err)
	}
	return cal.DeleteOverride(eventUID, t)
}

// OverrideList returns up to count rendered occurrence timestamps for
// eventUID's overrides, ascending, starting at offset.
func (s *Store) OverrideList(calUID, eventUID string, offset, count int) ([]string, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return nil, err
	}
	ev, ok := cal.Events[eventUID]
	if !ok {
		return nil, newErr(KindNotFound, calendar.ErrEventNotFound)
	}
	occs := ev.OrderedOccurrences()
	rendered := make([]string, len(occs))
	for i, t := range occs {
		rendered[i] = value.NewUTC(t).Render()
	}
	return paginate(rendered, offset, count), nil
}

// CalendarQuery parses queryString under the configured parse timeout
// and executes it against calUID.
func (s *Store) CalendarQuery(calUID, queryString string) ([]query.Result, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return nil, err
	}
	if !cal.IndexesActive() {
		return nil, newErr(KindIndexesDisabled, calendar.ErrIndexesDisabled)
	}

	q, err := query.ParseWithTimeout(queryString, s.resolve, s.cfg.QueryParseTimeout)
	if err != nil {
		if errors.Is(err, query.ErrQueryParseTimeout) {
			return nil, newErr(KindQueryParseTimeout, err)
		}
		return nil, newErr(KindParseError, err)
	}

	results, err := query.Execute(cal, q)
	if err != nil {
		return nil, newErr(KindInternal, err)
	}
	return results, nil
}

// IdxDisable drops calUID's index memory, returning false if it was
// already disabled.
func (s *Store) IdxDisable(calUID string) (bool, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return false, err
	}
	return cal.DisableIndexes(), nil
}

// IdxRebuild walks every event in calUID, recomputing and reapplying
// its indexed-term snapshots.
func (s *Store) IdxRebuild(calUID string) error {
	cal, err := s.lookup(calUID)
	if err != nil {
		return err
	}
	if err := cal.RebuildIndexes(); err != nil {
		return classifyScheduleErr(err)
	}
	return nil
}

// NewUID returns a fresh random UID for a calendar or event created
// without an explicit one, per SPEC_FULL.md's domain-stack wiring of
// google/uuid.
func NewUID() string { return uuid.NewString() }

// Persist renders calUID's full §6.4 textual layout, for a caller that
// wants to write it out to durable storage itself.
func (s *Store) Persist(calUID string) ([]string, error) {
	cal, err := s.lookup(calUID)
	if err != nil {
		return nil, err
	}
	return Persist(cal), nil
}

// LoadInto decodes lines (as produced by Persist) and installs the
// resulting calendar under calUID, overwriting any calendar already
// held at that UID.
func (s *Store) LoadInto(lines []string, calUID string) error {
	cal, err := Load(lines, s.resolve)
	if err != nil {
		return err
	}
	cal.UID = calUID
	s.calendars[calUID] = cal
	return nil
}

func parseLines(raw []string) ([]property.Line, error) {
	lines := make([]property.Line, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		l, err := property.Parse(r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func parseOccurrenceTS(raw string) (time.Time, error) {
	dt, err := value.ParseDateTime(raw, false, "", value.DefaultTZResolver)
	if err != nil {
		return time.Time{}, err
	}
	return dt.Instant, nil
}

func paginate[T any](items []T, offset, count int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if count >= 0 && count < len(items) {
		items = items[:count]
	}
	return items
}

func classifyScheduleErr(err error) error {
	return newErr(KindInvalidSchedule, err)
}

func classifyOverrideErr(err error) error {
	if errors.Is(err, model.ErrNoSuchOccurrence) {
		return newErr(KindNoSuchOccurrence, err)
	}
	return newErr(KindInvalidSchedule, err)
}
