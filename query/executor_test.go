// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redical-go/redical/calendar"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/rrule"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

func parseDT(t *testing.T, raw string) value.DateTime {
	t.Helper()
	d, err := value.ParseDateTime(raw, false, "", value.DefaultTZResolver)
	require.NoError(t, err)
	return d
}

// TestWeeklyWithOverrideCategoriesQuery is spec.md §8 scenario 1.
func TestWeeklyWithOverrideCategoriesQuery(t *testing.T) {
	c := calendar.New("cal-1", nil)

	until := parseDT(t, "20210202T183000Z").Instant
	ev := &model.Event{
		UID: "E1",
		Schedule: schedule.Schedule{
			DTStart: parseDT(t, "20210105T183000Z"),
			DTEnd:   ptrDT(parseDT(t, "20210105T190000Z")),
			RRules:  []rrule.RRule{{Frequency: rrule.FrequencyWeekly, Interval: 1, Until: &until}},
		},
		Categories: value.NewCategories("B1", "B2"),
		Class:      value.ClassPublic,
	}
	_, err := c.SetEvent(ev)
	require.NoError(t, err)

	occ := parseDT(t, "20210105T183000Z").Instant
	applied, err := c.SetOverride("E1", occ, &model.Override{Categories: value.NewCategories("B1", "O1")})
	require.NoError(t, err)
	require.True(t, applied)

	q, err := Parse("X-CATEGORIES:O1", value.DefaultTZResolver)
	require.NoError(t, err)

	results, err := Execute(c, q)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "20210105T183000Z", results[0].Instance.DTStart.Render())
}

func ptrDT(d value.DateTime) *value.DateTime { return &d }

// TestGeoOrderedQuery is spec.md §8 scenario 2.
func TestGeoOrderedQuery(t *testing.T) {
	c := calendar.New("cal-1", nil)

	geoFor := map[string]string{
		"E2": "51.8994;-2.0783", // Cheltenham
		"E3": "51.7520;-1.2577", // Oxford
		"E4": "51.4543;-0.9781", // Reading
	}
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []string{"E1", "E2", "E3", "E4"} {
		ev := &model.Event{
			UID: uid,
			Schedule: schedule.Schedule{
				DTStart: value.NewUTC(start.Add(time.Duration(i) * 100 * time.Second)),
			},
			Class: value.ClassPublic,
		}
		if raw, ok := geoFor[uid]; ok {
			g, err := value.ParseGeo(raw)
			require.NoError(t, err)
			ev.Geo = &g
		}
		_, err := c.SetEvent(ev)
		require.NoError(t, err)
	}

	q, err := Parse("X-ORDER-BY;GEO=51.5055296;-0.0758252:GEO-DIST-DTSTART X-LIMIT:50", value.DefaultTZResolver)
	require.NoError(t, err)

	results, err := Execute(c, q)
	require.NoError(t, err)
	require.Len(t, results, 4)

	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Instance.UID
	}
	require.Equal(t, []string{"E4", "E3", "E2", "E1"}, got)
}

// TestDistinctUIDQuery is spec.md §8 scenario 3.
func TestDistinctUIDQuery(t *testing.T) {
	c := calendar.New("cal-1", nil)

	until := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, uid := range []string{"E1", "E2"} {
		ev := &model.Event{
			UID: uid,
			Schedule: schedule.Schedule{
				DTStart: parseDT(t, "20210105T183000Z"),
				RRules:  []rrule.RRule{{Frequency: rrule.FrequencyDaily, Interval: 1, Until: &until}},
			},
			Class: value.ClassPublic,
		}
		_, err := c.SetEvent(ev)
		require.NoError(t, err)
	}

	q, err := Parse("X-DISTINCT:UID X-LIMIT:5", value.DefaultTZResolver)
	require.NoError(t, err)

	results, err := Execute(c, q)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

// TestOffsetQuery is spec.md §8 scenario 4.
func TestOffsetQuery(t *testing.T) {
	c := calendar.New("cal-1", nil)
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []string{"E1", "E2", "E3", "E4"} {
		ev := &model.Event{
			UID: uid,
			Schedule: schedule.Schedule{
				DTStart: value.NewUTC(base.Add(time.Duration(i+1) * 100 * time.Second)),
			},
			Class: value.ClassPublic,
		}
		_, err := c.SetEvent(ev)
		require.NoError(t, err)
	}

	q, err := Parse("X-LIMIT:2 X-OFFSET:2", value.DefaultTZResolver)
	require.NoError(t, err)

	results, err := Execute(c, q)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "E3", results[0].Instance.UID)
	require.Equal(t, "E4", results[1].Instance.UID)
}

func TestExecuteFailsWhenIndexesDisabled(t *testing.T) {
	c := calendar.New("cal-1", nil)
	c.DisableIndexes()

	q, err := Parse("X-CATEGORIES:WORK", value.DefaultTZResolver)
	require.NoError(t, err)

	_, err = Execute(c, q)
	require.ErrorIs(t, err, calendar.ErrIndexesDisabled)
}
