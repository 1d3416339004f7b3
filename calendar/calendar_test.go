// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/rrule"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

func dt(t *testing.T, raw string) value.DateTime {
	t.Helper()
	d, err := value.ParseDateTime(raw, false, "", value.DefaultTZResolver)
	require.NoError(t, err)
	return d
}

func weeklyEvent(t *testing.T, uid string) *model.Event {
	return &model.Event{
		UID: uid,
		Schedule: schedule.Schedule{
			DTStart: dt(t, "20210105T183000Z"),
			RRules:  []rrule.RRule{{Frequency: rrule.FrequencyWeekly, Interval: 1, Count: intp(3)}},
		},
		Categories: value.NewCategories("WORK"),
		Class:      value.ClassPublic,
	}
}

func intp(v int) *int { return &v }

func TestSetEventIndexesNewEvent(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")

	applied, err := c.SetEvent(ev)
	require.NoError(t, err)
	assert.True(t, applied)

	term, err := c.LookupTerm(model.DimensionCategories, "WORK")
	require.NoError(t, err)
	require.Contains(t, term, "E1")
	assert.Equal(t, index.Include, term["E1"].Shape)
}

func TestSetEventStalePreservesExisting(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	ev.LastModified = time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	stale := weeklyEvent(t, "E1")
	stale.Categories = value.NewCategories("OTHER")
	stale.LastModified = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	applied, err := c.SetEvent(stale)
	require.NoError(t, err)
	assert.False(t, applied)

	term, err := c.LookupTerm(model.DimensionCategories, "WORK")
	require.NoError(t, err)
	assert.Contains(t, term, "E1")
}

func TestDeleteEventRemovesIndexContributions(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	removed := c.DeleteEvent("E1")
	assert.True(t, removed)

	term, err := c.LookupTerm(model.DimensionCategories, "WORK")
	require.NoError(t, err)
	assert.Empty(t, term)

	assert.False(t, c.DeleteEvent("E1"))
}

func TestSetOverrideRequiresKnownEvent(t *testing.T) {
	c := New("cal-1", nil)
	occStart := dt(t, "20210105T183000Z").Instant
	_, err := c.SetOverride("missing", occStart, &model.Override{})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSetOverrideRequiresRealOccurrence(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	notAnOccurrence := dt(t, "20210106T183000Z").Instant
	_, err = c.SetOverride("E1", notAnOccurrence, &model.Override{})
	assert.ErrorIs(t, err, model.ErrNoSuchOccurrence)
}

func TestSetOverrideReindexesChangedDimension(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	occStart := dt(t, "20210105T183000Z").Instant
	applied, err := c.SetOverride("E1", occStart, &model.Override{Categories: value.NewCategories("SPECIAL")})
	require.NoError(t, err)
	assert.True(t, applied)

	work, err := c.LookupTerm(model.DimensionCategories, "WORK")
	require.NoError(t, err)
	assert.False(t, work["E1"].Admits(occStart))

	special, err := c.LookupTerm(model.DimensionCategories, "SPECIAL")
	require.NoError(t, err)
	assert.True(t, special["E1"].Admits(occStart))
}

func TestDeleteOverrideRequiresKnownEvent(t *testing.T) {
	c := New("cal-1", nil)
	_, err := c.DeleteOverride("missing", time.Now())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteOverrideRestoresBaseIndexing(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	occStart := dt(t, "20210105T183000Z").Instant
	_, err = c.SetOverride("E1", occStart, &model.Override{Categories: value.NewCategories("SPECIAL")})
	require.NoError(t, err)

	removed, err := c.DeleteOverride("E1", occStart)
	require.NoError(t, err)
	assert.True(t, removed)

	work, err := c.LookupTerm(model.DimensionCategories, "WORK")
	require.NoError(t, err)
	assert.True(t, work["E1"].Admits(occStart))
}

func TestDisableIndexesBlocksLookups(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	assert.True(t, c.DisableIndexes())
	assert.False(t, c.IndexesActive())
	assert.False(t, c.DisableIndexes())

	_, err = c.LookupTerm(model.DimensionCategories, "WORK")
	assert.ErrorIs(t, err, ErrIndexesDisabled)

	_, err = c.LocateWithinDistance(value.GeoPoint{}, 10)
	assert.ErrorIs(t, err, ErrIndexesDisabled)
}

func TestRebuildIndexesRestoresEquivalentState(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	occStart := dt(t, "20210105T183000Z").Instant
	_, err = c.SetOverride("E1", occStart, &model.Override{Categories: value.NewCategories("SPECIAL")})
	require.NoError(t, err)

	before, err := c.LookupTerm(model.DimensionCategories, "SPECIAL")
	require.NoError(t, err)

	require.True(t, c.DisableIndexes())
	_, err = c.LookupTerm(model.DimensionCategories, "SPECIAL")
	require.ErrorIs(t, err, ErrIndexesDisabled)

	require.NoError(t, c.RebuildIndexes())
	assert.True(t, c.IndexesActive())

	after, err := c.LookupTerm(model.DimensionCategories, "SPECIAL")
	require.NoError(t, err)
	assert.Equal(t, before["E1"].Shape, after["E1"].Shape)
	assert.True(t, after["E1"].Admits(occStart))
}

func TestEventHasOccurrenceBoundedSchedule(t *testing.T) {
	c := New("cal-1", nil)
	ev := weeklyEvent(t, "E1")

	onSchedule := dt(t, "20210112T183000Z").Instant
	offSchedule := dt(t, "20210113T183000Z").Instant

	assert.True(t, c.eventHasOccurrence(ev, onSchedule))
	assert.False(t, c.eventHasOccurrence(ev, offSchedule))
}

func TestEventHasOccurrenceUnboundedSchedule(t *testing.T) {
	c := New("cal-1", nil)
	ev := &model.Event{
		UID: "E2",
		Schedule: schedule.Schedule{
			DTStart: dt(t, "20210105T183000Z"),
			RRules:  []rrule.RRule{{Frequency: rrule.FrequencyDaily, Interval: 1}},
		},
	}

	farFuture := dt(t, "20210201T183000Z").Instant
	assert.True(t, c.eventHasOccurrence(ev, farFuture))
}
