// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package schedule

import (
	"time"

	rrulego "github.com/teambition/rrule-go"

	"github.com/redical-go/redical/rrule"
	"github.com/redical-go/redical/value"
)

// Iterator is the sequence of occurrences Expand produces. The only
// implementation walks a slice that Expand fills in full before it
// returns, so every sequence is finite; an unbounded rule with no upper
// bound fails in Expand instead. Iterators are not restartable: callers that
// need to scan the sequence twice re-open it via Expand.
type Iterator interface {
	// Next returns the next occurrence, or ok=false when the sequence
	// is exhausted.
	Next() (Occurrence, bool)
}

// sliceIterator is the concrete Iterator this package returns.
// Expand pulls candidates from rrule-go's set iterator until the upper
// bound is passed or the set is exhausted (or fails at the occurrence
// cap for an unbounded rule), materialises them once per schedule, and
// this iterator then walks that slice.
type sliceIterator struct {
	occurrences []Occurrence
	pos         int
}

func (it *sliceIterator) Next() (Occurrence, bool) {
	if it.pos >= len(it.occurrences) {
		return Occurrence{}, false
	}
	o := it.occurrences[it.pos]
	it.pos++
	return o, true
}

// Expand produces the occurrence iterator for sched, applying lower
// and upper bounds and the set of exclusions. occurrenceCap defensively
// bounds expansion of a schedule that has neither COUNT nor UNTIL and
// no upper bound; if the cap is reached
// in that situation, Expand fails with ErrUnboundedExpansion instead of
// silently truncating.
func Expand(sched Schedule, lower *LowerBound, upper *UpperBound, resolve value.TZResolver, occurrenceCap int) (Iterator, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}

	dtstartLocal, err := toLocalTime(sched.DTStart, resolve)
	if err != nil {
		return nil, err
	}

	hasUnboundedRule := false
	for _, r := range sched.RRules {
		if r.Count == nil && r.Until == nil {
			hasUnboundedRule = true
		}
	}
	unbounded := upper == nil && hasUnboundedRule

	set := rrulego.Set{}
	set.DTStart(dtstartLocal)

	for _, r := range sched.RRules {
		ro, err := toROption(r, dtstartLocal)
		if err != nil {
			return nil, err
		}
		rule, err := rrulego.NewRRule(ro)
		if err != nil {
			return nil, err
		}
		set.RRule(rule)
	}

	for _, r := range sched.ExRules {
		ro, err := toROption(r, dtstartLocal)
		if err != nil {
			return nil, err
		}
		rule, err := rrulego.NewRRule(ro)
		if err != nil {
			return nil, err
		}
		set.ExRule(rule)
	}
	for _, rd := range sched.RDates {
		t, err := toLocalTime(rd, resolve)
		if err != nil {
			return nil, err
		}
		set.RDate(t)
	}
	for _, ed := range sched.ExDates {
		t, err := toLocalTime(ed, resolve)
		if err != nil {
			return nil, err
		}
		set.ExDate(t)
	}
	// DTSTART always participates as an implicit RDATE.
	set.RDate(dtstartLocal)

	duration := sched.OccurrenceDuration()

	if occurrenceCap <= 0 {
		occurrenceCap = DefaultOccurrenceCap
	}

	// Walk rrule-go's pull-based iterator directly rather than
	// materialising the whole set with All()/Between(): that keeps an
	// upper bound from forcing an unbounded rule to be fully expanded
	// first. The defensive cap is checked only when a rule has neither
	// COUNT nor UNTIL and no upper bound was given.
	candidates := make([]time.Time, 0, 64)
	next := set.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if upper != nil {
			at := t.UTC()
			if violatesUpper(upper, at, at.Add(duration)) {
				break
			}
		}
		candidates = append(candidates, t)
		if unbounded && len(candidates) > occurrenceCap {
			return nil, wrap(ErrUnboundedExpansion)
		}
	}

	// set.Iterator() already yields candidates in strictly increasing
	// order; the upper bound was already enforced above, so only the
	// DST-collapse and lower-bound filter remain to apply here.
	occurrences := make([]Occurrence, 0, len(candidates))
	var lastInstant time.Time
	first := true
	for _, t := range candidates {
		instant := t.UTC()
		if !first && instant.Equal(lastInstant) {
			continue // collapse occurrences that collide under a DST transition
		}
		first = false
		lastInstant = instant

		start := fromLocalTime(t, sched.DTStart)
		end := start
		if duration != 0 {
			end, err = start.Add(duration, resolve)
			if err != nil {
				return nil, err
			}
		}
		occ := Occurrence{Start: start, End: end}

		if lower != nil && !lower.satisfies(occ) {
			continue
		}
		occurrences = append(occurrences, occ)
	}

	return &sliceIterator{occurrences: occurrences}, nil
}

// DefaultOccurrenceCap bounds an unbounded recurrence's expansion when
// no caller-supplied upper bound limits it. Overridable per call.
const DefaultOccurrenceCap = 10_000

// violatesUpper reports whether either candidate instant (start, or
// start+duration when the bound is keyed on DTEND) fails the bound.
func violatesUpper(upper *UpperBound, start, end time.Time) bool {
	at := start
	if upper.Prop == PropertyDTEnd {
		at = end
	}
	if upper.Op == LTE {
		return at.After(upper.At)
	}
	return !at.Before(upper.At)
}

func toLocalTime(dt value.DateTime, resolve value.TZResolver) (time.Time, error) {
	switch dt.Kind {
	case value.KindFloating:
		loc, err := resolve(dt.TZID)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, loc), nil
	case value.KindDate:
		return time.Date(dt.Year, time.Month(dt.Month), dt.Day, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, time.UTC), nil
	}
}

// fromLocalTime rebuilds a value.DateTime of the same Kind/TZID as
// template from a time.Time rrule-go produced (which carries
// template's Location).
func fromLocalTime(t time.Time, template value.DateTime) value.DateTime {
	switch template.Kind {
	case value.KindFloating:
		return value.NewFloating(template.TZID, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Location())
	case value.KindDate:
		return value.NewDate(t.Year(), int(t.Month()), t.Day())
	default:
		return value.NewUTC(t)
	}
}

func toROption(r rrule.RRule, dtstart time.Time) (rrulego.ROption, error) {
	freq, err := toFrequency(r.Frequency)
	if err != nil {
		return rrulego.ROption{}, err
	}
	ro := rrulego.ROption{
		Freq:     freq,
		Dtstart:  dtstart,
		Interval: r.Interval,
	}
	if r.Count != nil {
		ro.Count = *r.Count
	}
	if r.Until != nil {
		ro.Until = *r.Until
	}
	if r.Wkst != "" {
		ro.Wkst = toWeekday(r.Wkst, 0)
	}
	for _, d := range r.Weekday {
		ro.Byweekday = append(ro.Byweekday, toWeekday(d.Weekday, d.Interval))
	}
	ro.Bymonth = r.Month
	ro.Bymonthday = r.Monthday
	ro.Byyearday = r.YearDay
	ro.Byweekno = r.WeekNo
	ro.Bysetpos = r.SetPos
	ro.Byhour = r.Hour
	ro.Byminute = r.Minute
	ro.Bysecond = r.Second
	return ro, nil
}

func toFrequency(f rrule.Frequency) (rrulego.Frequency, error) {
	switch f {
	case rrule.FrequencySecondly:
		return rrulego.SECONDLY, nil
	case rrule.FrequencyMinutely:
		return rrulego.MINUTELY, nil
	case rrule.FrequencyHourly:
		return rrulego.HOURLY, nil
	case rrule.FrequencyDaily:
		return rrulego.DAILY, nil
	case rrule.FrequencyWeekly:
		return rrulego.WEEKLY, nil
	case rrule.FrequencyMonthly:
		return rrulego.MONTHLY, nil
	case rrule.FrequencyYearly:
		return rrulego.YEARLY, nil
	default:
		return 0, wrap(ErrUnsupportedFreq)
	}
}

func toWeekday(wd rrule.Weekday, interval int) rrulego.Weekday {
	var base rrulego.Weekday
	switch wd {
	case rrule.WeekdayMonday:
		base = rrulego.MO
	case rrule.WeekdayTuesday:
		base = rrulego.TU
	case rrule.WeekdayWednesday:
		base = rrulego.WE
	case rrule.WeekdayThursday:
		base = rrulego.TH
	case rrule.WeekdayFriday:
		base = rrulego.FR
	case rrule.WeekdaySaturday:
		base = rrulego.SA
	default:
		base = rrulego.SU
	}
	if interval != 0 {
		return base.Nth(interval)
	}
	return base
}
