// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package model

import "errors"

var (
	// ErrOverrideDTStartMismatch is returned when an override's own
	// DTSTART is present but disagrees with the occurrence timestamp
	// key it is being installed under.
	ErrOverrideDTStartMismatch = errors.New("override DTSTART does not match its occurrence timestamp")
	// ErrNoSuchOccurrence is returned when an override targets a
	// timestamp the event's schedule does not actually produce.
	ErrNoSuchOccurrence = errors.New("no such occurrence")
	// ErrInvalidProperty is returned when a property line fails to
	// parse into the value BuildEvent/BuildOverride expect.
	ErrInvalidProperty = errors.New("invalid property")
)
