// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package rrule parses and renders the iCal RRULE/EXRULE property value.
// It only holds the property-level representation (round-trippable
// parse/render); expanding a rule into concrete occurrence timestamps is
// the job of the schedule package, which translates an RRule into
// github.com/teambition/rrule-go options.
// https://datatracker.ietf.org/doc/html/rfc5545#section-3.3.10
package rrule

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// untilFormat is the UTC form RFC 5545 requires for RRULE/EXRULE UNTIL
// values (always a date-time with a trailing 'Z').
const untilFormat = "20060102T150405Z"

type Frequency string

const (
	FrequencySecondly Frequency = "SECONDLY"
	FrequencyMinutely Frequency = "MINUTELY"
	FrequencyHourly   Frequency = "HOURLY"
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
	FrequencyYearly   Frequency = "YEARLY"
)

type Weekday string

const (
	WeekdayMonday    Weekday = "MO"
	WeekdayTuesday   Weekday = "TU"
	WeekdayWednesday Weekday = "WE"
	WeekdayThursday  Weekday = "TH"
	WeekdayFriday    Weekday = "FR"
	WeekdaySaturday  Weekday = "SA"
	WeekdaySunday    Weekday = "SU"
)

// weekdayOrder gives BYDAY/WKST their canonical MO..SU ordering for
// stable rendering.
var weekdayOrder = map[Weekday]int{
	WeekdayMonday: 0, WeekdayTuesday: 1, WeekdayWednesday: 2, WeekdayThursday: 3,
	WeekdayFriday: 4, WeekdaySaturday: 5, WeekdaySunday: 6,
}

// ByDay is one BYDAY entry: an optional ordinal (e.g. "2" in "2MO", "-1" in
// "-1FR") plus the weekday it qualifies.
type ByDay struct {
	// Weekday this entry refers to.
	Weekday Weekday
	// Interval is the leading ordinal, if any was present ("20MO" -> 20).
	// Zero means no ordinal was given.
	Interval int
}

// RRule is the parsed form of an RFC 5545 recurrence rule.
type RRule struct {
	Frequency Frequency
	Interval  int
	Count     *int
	Until     *time.Time
	Weekday   []ByDay
	Month     []int
	Monthday  []int
	YearDay   []int
	WeekNo    []int
	SetPos    []int
	Hour      []int
	Minute    []int
	Second    []int
	// Wkst is the start-of-week day (WKST=); empty means the RFC default (MO).
	Wkst Weekday
}

// ParseRRule takes an iCal recurrence rule string and parses it into an
// RRule struct.
// https://datatracker.ietf.org/doc/html/rfc5545#section-3.3.10
func ParseRRule(rruleString string) (*RRule, error) {
	rr := &RRule{Interval: 1}
	for part := range strings.SplitSeq(rruleString, ";") {
		tag, value, found := strings.Cut(part, "=")
		if !found {
			return nil, ErrInvalidRRuleString
		}
		switch tag {
		case "FREQ":
			rr.Frequency = Frequency(value)
		case "INTERVAL":
			interval, err := strconv.Atoi(value)
			if err != nil {
				return nil, err
			}
			rr.Interval = interval
		case "COUNT":
			count, err := strconv.Atoi(value)
			if err != nil {
				return nil, err
			}
			rr.Count = &count
		case "UNTIL":
			until, err := time.Parse(untilFormat, value)
			if err != nil {
				return nil, err
			}
			rr.Until = &until
		case "WKST":
			if !isValidWeekday(Weekday(value)) {
				return nil, ErrInvalidByDayString
			}
			rr.Wkst = Weekday(value)
		case "BYDAY":
			days, err := parseByDayList(value)
			if err != nil {
				return nil, err
			}
			rr.Weekday = days
		case "BYMONTH":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.Month = ints
		case "BYMONTHDAY":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.Monthday = ints
		case "BYYEARDAY":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.YearDay = ints
		case "BYWEEKNO":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.WeekNo = ints
		case "BYSETPOS":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.SetPos = ints
		case "BYHOUR":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.Hour = ints
		case "BYMINUTE":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.Minute = ints
		case "BYSECOND":
			ints, err := parseIntList(value)
			if err != nil {
				return nil, err
			}
			rr.Second = ints
		}
	}
	if err := validateRRule(rr); err != nil {
		return nil, err
	}
	return rr, nil
}

func parseIntList(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseByDayList(value string) ([]ByDay, error) {
	weekdays := strings.Split(value, ",")
	out := make([]ByDay, 0, len(weekdays))
	for _, weekday := range weekdays {
		interval, wd, err := ParseByDay(weekday)
		if err != nil {
			return nil, err
		}
		out = append(out, ByDay{Weekday: wd, Interval: interval})
	}
	return out, nil
}

func validateRRule(rrule *RRule) error {
	if rrule.Frequency == "" {
		return ErrFrequencyRequired
	}
	if rrule.Count != nil && rrule.Until != nil {
		return ErrCountAndUntilBothSet
	}
	if rrule.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

// String renders the RRule back to its "FREQ=...;..." wire form. Field
// order matches the order RFC 5545 examples typically use, which keeps
// round-tripped output diffable against hand-written fixtures.
func (r RRule) String() string {
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(string(r.Frequency))
	if r.Interval != 1 {
		b.WriteString(";INTERVAL=")
		b.WriteString(strconv.Itoa(r.Interval))
	}
	if len(r.Weekday) > 0 {
		b.WriteString(";BYDAY=")
		parts := make([]string, len(r.Weekday))
		for i, d := range r.Weekday {
			if d.Interval != 0 {
				parts[i] = strconv.Itoa(d.Interval) + string(d.Weekday)
			} else {
				parts[i] = string(d.Weekday)
			}
		}
		b.WriteString(strings.Join(parts, ","))
	}
	writeInts(&b, ";BYMONTHDAY=", r.Monthday)
	writeInts(&b, ";BYMONTH=", r.Month)
	writeInts(&b, ";BYYEARDAY=", r.YearDay)
	writeInts(&b, ";BYWEEKNO=", r.WeekNo)
	writeInts(&b, ";BYSETPOS=", r.SetPos)
	writeInts(&b, ";BYHOUR=", r.Hour)
	writeInts(&b, ";BYMINUTE=", r.Minute)
	writeInts(&b, ";BYSECOND=", r.Second)
	if r.Wkst != "" {
		b.WriteString(";WKST=")
		b.WriteString(string(r.Wkst))
	}
	if r.Count != nil {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(*r.Count))
	}
	if r.Until != nil {
		b.WriteString(";UNTIL=")
		b.WriteString(r.Until.UTC().Format(untilFormat))
	}
	return b.String()
}

func writeInts(b *strings.Builder, prefix string, values []int) {
	if len(values) == 0 {
		return
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	b.WriteString(prefix)
	for i, v := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
}

// ParseByDay parses a BYDAY value string and returns the interval and
// weekday. The string can be in the format "20MO" (interval + weekday) or
// just "MO" (weekday only); no interval present returns interval 0 (not 1)
// so a rule with a bare BYDAY doesn't silently claim an ordinal.
func ParseByDay(byDayString string) (int, Weekday, error) {
	if byDayString == "" {
		return 0, "", ErrInvalidByDayString
	}

	if len(byDayString) > 0 && (byDayString[0] >= '0' && byDayString[0] <= '9' || byDayString[0] == '-') {
		digitEnd := 0
		for i, char := range byDayString {
			if char < '0' || char > '9' {
				if char == '-' && i == 0 {
					continue
				}
				digitEnd = i
				break
			}
			digitEnd = i + 1
		}

		intervalStr := byDayString[:digitEnd]
		weekday := Weekday(byDayString[digitEnd:])

		if !isValidWeekday(weekday) {
			return 0, "", ErrInvalidByDayString
		}

		interval, err := strconv.Atoi(intervalStr)
		if err != nil {
			return 0, "", ErrInvalidByDayString
		}

		return interval, weekday, nil
	}

	if !isValidWeekday(Weekday(byDayString)) {
		return 0, "", ErrInvalidByDayString
	}

	return 0, Weekday(byDayString), nil
}

func isValidWeekday(weekday Weekday) bool {
	_, ok := weekdayOrder[weekday]
	return ok
}
