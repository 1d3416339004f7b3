// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package value holds the typed property values the calendar core
// operates on: date-times, geo points, classification, categories,
// and related-to maps. These are the leaves the schedule, model,
// geoindex, calendar and query packages build on.
package value

import (
	"errors"
	"fmt"
	"time"
)

// Kind distinguishes the three DATE-TIME/DATE shapes RFC 5545 allows.
type Kind int

const (
	// KindUTC is an absolute instant, rendered with a trailing 'Z'.
	KindUTC Kind = iota
	// KindFloating is a wall-clock time in a named zone (TZID param).
	KindFloating
	// KindDate is a date with no time-of-day component (VALUE=DATE).
	KindDate
)

var (
	ErrUnknownTZID    = errors.New("unknown TZID")
	ErrInvalidDate    = errors.New("invalid date value")
	ErrInvalidTime    = errors.New("invalid date-time value")
	ErrNaNComponent   = errors.New("NaN is not a valid coordinate")
	ErrOutOfRangeLat  = errors.New("latitude out of range")
	ErrOutOfRangeLong = errors.New("longitude out of range")
)

const (
	dateOnlyLayout  = "20060102"
	utcLayout       = "20060102T150405Z"
	floatingLayout  = "20060102T150405"
)

// TZResolver looks up an IANA zone by its TZID. The core never
// maintains the tz database itself; it is handed a
// resolver backed by a read-only database at construction time.
type TZResolver func(tzid string) (*time.Location, error)

// DefaultTZResolver resolves TZID values through the Go standard
// library's embedded copy of the IANA database (time.LoadLocation).
func DefaultTZResolver(tzid string) (*time.Location, error) {
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTZID, tzid)
	}
	return loc, nil
}

// DateTime is a normalised iCal date or date-time value. Comparison
// and ordering always use Instant; the other fields exist so the
// value can be re-rendered exactly as it was parsed.
type DateTime struct {
	Kind Kind
	// TZID is set only when Kind == KindFloating.
	TZID string
	// Instant is the UTC timestamp used for comparison. For KindDate
	// it is midnight UTC on that date, used only for ordering/bounds.
	Instant time.Time
	// Year..Second are the wall-clock components as written, used for
	// re-rendering without drifting through a second zone conversion.
	Year, Month, Day, Hour, Minute, Second int
}

// Before, After and Equal compare two DateTime values by Instant,
// per the "comparison is on the UTC timestamp" rule.
func (d DateTime) Before(o DateTime) bool { return d.Instant.Before(o.Instant) }
func (d DateTime) After(o DateTime) bool  { return d.Instant.After(o.Instant) }
func (d DateTime) Equal(o DateTime) bool  { return d.Instant.Equal(o.Instant) }

// IsZero reports whether this is the unset DateTime.
func (d DateTime) IsZero() bool { return d.Instant.IsZero() && d.Kind == KindUTC && d.TZID == "" }

// Add returns a DateTime offset by duration d, keeping the same Kind
// and TZID but recomputing the wall-clock components from the new
// instant (for KindFloating, reinterpreted in TZID; for KindDate, days
// only).
func (d DateTime) Add(delta time.Duration, resolve TZResolver) (DateTime, error) {
	switch d.Kind {
	case KindDate:
		days := int(delta / (24 * time.Hour))
		t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	case KindFloating:
		loc, err := resolve(d.TZID)
		if err != nil {
			return DateTime{}, err
		}
		wall := time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, loc).Add(delta)
		return NewFloating(d.TZID, wall.Year(), int(wall.Month()), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), loc), nil
	default:
		t := d.Instant.Add(delta)
		return NewUTC(t), nil
	}
}

// NewUTC builds an absolute-instant DateTime from a time.Time.
func NewUTC(t time.Time) DateTime {
	u := t.UTC()
	return DateTime{
		Kind: KindUTC, Instant: u,
		Year: u.Year(), Month: int(u.Month()), Day: u.Day(),
		Hour: u.Hour(), Minute: u.Minute(), Second: u.Second(),
	}
}

// NewDate builds a date-only DateTime.
func NewDate(year, month, day int) DateTime {
	instant := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return DateTime{Kind: KindDate, Instant: instant, Year: year, Month: month, Day: day}
}

// NewFloating builds a wall-clock DateTime tied to tzid, given its
// already-resolved *time.Location (so callers that resolved it once
// for validation don't pay twice).
func NewFloating(tzid string, year, month, day, hour, minute, second int, loc *time.Location) DateTime {
	instant := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc).UTC()
	return DateTime{
		Kind: KindFloating, TZID: tzid, Instant: instant,
		Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second,
	}
}

// ParseDateTime parses an iCal DATE or DATE-TIME value. isDate is true
// when the property carried VALUE=DATE; tzid is the TZID param, if
// any (only meaningful when isDate is false).
func ParseDateTime(raw string, isDate bool, tzid string, resolve TZResolver) (DateTime, error) {
	if isDate {
		t, err := time.Parse(dateOnlyLayout, raw)
		if err != nil {
			return DateTime{}, fmt.Errorf("%w: %s", ErrInvalidDate, raw)
		}
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	if tzid != "" {
		loc, err := resolve(tzid)
		if err != nil {
			return DateTime{}, err
		}
		t, err := time.ParseInLocation(floatingLayout, raw, loc)
		if err != nil {
			return DateTime{}, fmt.Errorf("%w: %s", ErrInvalidTime, raw)
		}
		return NewFloating(tzid, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), loc), nil
	}
	t, err := time.Parse(utcLayout, raw)
	if err != nil {
		return DateTime{}, fmt.Errorf("%w: %s", ErrInvalidTime, raw)
	}
	return NewUTC(t), nil
}

// Render returns the iCal VALUE text for this DateTime (without the
// surrounding NAME;PARAMS: wrapper, which the property package adds).
func (d DateTime) Render() string {
	switch d.Kind {
	case KindDate:
		return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
	case KindFloating:
		return fmt.Sprintf("%04d%02d%02dT%02d%02d%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	default:
		return fmt.Sprintf("%04d%02d%02dT%02d%02d%02dZ", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	}
}
