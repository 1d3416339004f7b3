package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redical-go/redical/icaldur"
	"github.com/redical-go/redical/rrule"
	"github.com/redical-go/redical/value"
)

func mustDateTime(t *testing.T, raw string) value.DateTime {
	t.Helper()
	dt, err := value.ParseDateTime(raw, false, "", value.DefaultTZResolver)
	require.NoError(t, err)
	return dt
}

func TestExpandWeeklyUntil(t *testing.T) {
	dtstart := mustDateTime(t, "20210105T183000Z")
	dtend := mustDateTime(t, "20210105T190000Z")
	rr, err := rrule.ParseRRule("FREQ=WEEKLY;UNTIL=20210202T183000Z;INTERVAL=1")
	require.NoError(t, err)

	sched := Schedule{DTStart: dtstart, DTEnd: &dtend, RRules: []rrule.RRule{*rr}}
	it, err := Expand(sched, nil, nil, value.DefaultTZResolver, 0)
	require.NoError(t, err)

	var starts []string
	for {
		occ, ok := it.Next()
		if !ok {
			break
		}
		starts = append(starts, occ.Start.Render())
	}
	assert.Equal(t, []string{
		"20210105T183000Z",
		"20210112T183000Z",
		"20210119T183000Z",
		"20210126T183000Z",
		"20210202T183000Z",
	}, starts)
}

func TestExpandDTEndBeforeDTStartFails(t *testing.T) {
	dtstart := mustDateTime(t, "20210105T183000Z")
	dtend := mustDateTime(t, "20210105T170000Z")
	sched := Schedule{DTStart: dtstart, DTEnd: &dtend}
	_, err := Expand(sched, nil, nil, value.DefaultTZResolver, 0)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestExpandBothDurationAndEndFails(t *testing.T) {
	dtstart := mustDateTime(t, "20210105T183000Z")
	dtend := mustDateTime(t, "20210105T190000Z")
	dur := icaldur.Duration{Minutes: 30}
	sched := Schedule{DTStart: dtstart, DTEnd: &dtend, Duration: &dur}
	_, err := Expand(sched, nil, nil, value.DefaultTZResolver, 0)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestExpandUnboundedWithoutUpperFails(t *testing.T) {
	dtstart := mustDateTime(t, "20210105T183000Z")
	rr, err := rrule.ParseRRule("FREQ=DAILY")
	require.NoError(t, err)
	sched := Schedule{DTStart: dtstart, RRules: []rrule.RRule{*rr}}
	_, err = Expand(sched, nil, nil, value.DefaultTZResolver, 5)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestExpandUnboundedWithUpperSucceeds(t *testing.T) {
	dtstart := mustDateTime(t, "20210105T183000Z")
	rr, err := rrule.ParseRRule("FREQ=DAILY")
	require.NoError(t, err)
	sched := Schedule{DTStart: dtstart, RRules: []rrule.RRule{*rr}}
	upper := &UpperBound{Prop: PropertyDTStart, Op: LT, At: time.Date(2021, 1, 8, 18, 30, 0, 0, time.UTC)}
	it, err := Expand(sched, nil, upper, value.DefaultTZResolver, 0)
	require.NoError(t, err)

	var count int
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestExpandLowerBoundSkips(t *testing.T) {
	dtstart := mustDateTime(t, "20210105T183000Z")
	rr, err := rrule.ParseRRule("FREQ=DAILY;COUNT=5")
	require.NoError(t, err)
	sched := Schedule{DTStart: dtstart, RRules: []rrule.RRule{*rr}}
	lower := &LowerBound{Prop: PropertyDTStart, Op: GT, At: time.Date(2021, 1, 6, 18, 30, 0, 0, time.UTC)}
	it, err := Expand(sched, lower, nil, value.DefaultTZResolver, 0)
	require.NoError(t, err)

	var count int
	for {
		_, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}
