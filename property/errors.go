// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package property

import "errors"

var (
	ErrInvalidPropertyLine = errors.New("invalid property line")
	ErrInvalidParameter    = errors.New("invalid property parameter")
	ErrDuplicateProperty   = errors.New("duplicate property")
	ErrUnknownProperty     = errors.New("unknown property")
)
