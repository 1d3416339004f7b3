// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package schedule

import "errors"

// ErrInvalidSchedule and its wrapped reasons are the structural
// validation failures a recurrence schedule can have.
var ErrInvalidSchedule = errors.New("invalid schedule")

var (
	ErrDTEndBeforeDTStart  = errors.New("DTEND is before DTSTART")
	ErrBothDurationAndEnd  = errors.New("DURATION and DTEND are mutually exclusive")
	ErrUnboundedExpansion  = errors.New("recurrence has neither COUNT nor UNTIL and no bound was given to stop expansion")
	ErrMissingDTStart      = errors.New("scheduled events require DTSTART")
	ErrUnsupportedFreq     = errors.New("unsupported RRULE frequency")
)
