// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package calendar

import "errors"

// ErrEventNotFound is returned by operations that target an event UID
// the calendar does not hold.
var ErrEventNotFound = errors.New("event not found")

// ErrCalendarNotFound is returned by the command layer when a
// calendar UID has no Calendar created for it yet.
var ErrCalendarNotFound = errors.New("calendar not found")

// ErrIndexesDisabled is returned by any read that requires the
// inverted/geo indexes and they have been turned off by DisableIndexes.
var ErrIndexesDisabled = errors.New("indexes are disabled")
