// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redical-go/redical/calendar"
	"github.com/redical-go/redical/value"
)

func TestCalendarSetGetIsIdempotent(t *testing.T) {
	s := NewStore(nil)
	require.True(t, s.CalendarSet("cal-1"))
	require.False(t, s.CalendarSet("cal-1"))

	lines, err := s.CalendarGet("cal-1")
	require.NoError(t, err)
	require.Empty(t, lines)

	_, err = s.CalendarGet("missing")
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindNotFound, cmdErr.Kind)
}

func TestEventSetGetDeleteRoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	applied, err := s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"CATEGORIES:WORK,HOME",
		"SUMMARY:Standup",
	})
	require.NoError(t, err)
	require.True(t, applied)

	lines, err := s.EventGet("cal-1", "E1")
	require.NoError(t, err)
	assert.Contains(t, lines, "DTSTART:20210105T183000Z")

	uids, err := s.EventList("cal-1", 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"E1"}, uids)

	ok, err := s.EventDelete("cal-1", "E1")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.EventGet("cal-1", "E1")
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindNotFound, cmdErr.Kind)
}

func TestEventSetMissingDTStartIsParseError(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	_, err := s.EventSet("cal-1", "E1", []string{"CATEGORIES:WORK"})
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindParseError, cmdErr.Kind)
	require.Equal(t, "cal-1 -> E1", cmdErr.Location)
}

func TestEventSetStaleUpdateIsNotApplied(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	applied, err := s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"LAST-MODIFIED:20210110T000000Z",
	})
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"LAST-MODIFIED:20210101T000000Z",
	})
	require.NoError(t, err)
	require.False(t, applied)
}

func TestOverrideSetDeleteListRoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	_, err := s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"RRULE:FREQ=WEEKLY;INTERVAL=1;UNTIL=20210202T183000Z",
		"CATEGORIES:WORK",
	})
	require.NoError(t, err)

	applied, err := s.OverrideSet("cal-1", "E1", "20210105T183000Z", []string{
		"CATEGORIES:WORK,URGENT",
	})
	require.NoError(t, err)
	require.True(t, applied)

	occs, err := s.OverrideList("cal-1", "E1", 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"20210105T183000Z"}, occs)

	ok, err := s.OverrideDelete("cal-1", "E1", "20210105T183000Z")
	require.NoError(t, err)
	require.True(t, ok)

	occs, err = s.OverrideList("cal-1", "E1", 0, 10)
	require.NoError(t, err)
	require.Empty(t, occs)
}

func TestOverrideSetNoSuchOccurrence(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	_, err := s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"RRULE:FREQ=WEEKLY;INTERVAL=1;UNTIL=20210202T183000Z",
	})
	require.NoError(t, err)

	_, err = s.OverrideSet("cal-1", "E1", "20210106T183000Z", []string{"CATEGORIES:WORK"})
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindNoSuchOccurrence, cmdErr.Kind)
}

func TestCalendarQueryFailsWhenIndexesDisabled(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")
	_, err := s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"CATEGORIES:WORK",
	})
	require.NoError(t, err)

	disabled, err := s.IdxDisable("cal-1")
	require.NoError(t, err)
	require.True(t, disabled)

	_, err = s.CalendarQuery("cal-1", "X-CATEGORIES:WORK")
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindIndexesDisabled, cmdErr.Kind)
	require.True(t, errors.Is(err, calendar.ErrIndexesDisabled))
}

// TestRebuildIndexesMatchesIncremental is spec.md §8 scenario 6: a
// calendar built incrementally must answer the same query identically
// after its indexes are disabled and then rebuilt.
func TestRebuildIndexesMatchesIncremental(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	for i, uid := range []string{"E1", "E2", "E3"} {
		_, err := s.EventSet("cal-1", uid, []string{
			fmt.Sprintf("DTSTART:202101%02dT183000Z", 5+i),
			"CATEGORIES:WORK",
		})
		require.NoError(t, err)
	}

	before, err := s.CalendarQuery("cal-1", "X-CATEGORIES:WORK")
	require.NoError(t, err)

	s.IdxDisable("cal-1")
	require.NoError(t, s.IdxRebuild("cal-1"))

	after, err := s.CalendarQuery("cal-1", "X-CATEGORIES:WORK")
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Instance.UID, after[i].Instance.UID)
		assert.Equal(t, before[i].Instance.DTStart, after[i].Instance.DTStart)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.CalendarSet("cal-1")

	_, err := s.EventSet("cal-1", "E1", []string{
		"DTSTART:20210105T183000Z",
		"RRULE:FREQ=WEEKLY;INTERVAL=1;UNTIL=20210202T183000Z",
		"CATEGORIES:WORK",
	})
	require.NoError(t, err)
	_, err = s.OverrideSet("cal-1", "E1", "20210105T183000Z", []string{"CATEGORIES:WORK,URGENT"})
	require.NoError(t, err)

	cal, err := s.lookup("cal-1")
	require.NoError(t, err)

	lines := Persist(cal)
	require.NotEmpty(t, lines)

	loaded, err := Load(lines, s.resolve)
	require.NoError(t, err)
	require.Equal(t, "cal-1", loaded.UID)
	require.Contains(t, loaded.Events, "E1")
	require.Len(t, loaded.Events["E1"].Overrides, 1)
}

func TestLoadRejectsMalformedInput(t *testing.T) {
	_, err := Load([]string{"NOT-A-HEADER"}, nil)
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindParseError, cmdErr.Kind)
}

func TestLoadAnnotatesLocationOnBadEventBody(t *testing.T) {
	lines := []string{
		"CALENDAR:cal-1",
		"EVENT:E1",
		"CATEGORIES:WORK",
		"END-EVENT",
		"END-CALENDAR",
	}
	_, err := Load(lines, value.DefaultTZResolver)
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, KindParseError, cmdErr.Kind)
	require.Contains(t, cmdErr.Location, "cal-1 -> E1")
}
