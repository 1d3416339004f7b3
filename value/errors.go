// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package value

import "errors"

var (
	ErrInvalidGeo           = errors.New("GEO must be two floats separated by a semicolon")
	ErrInvalidGeoLatitude   = errors.New("GEO latitude must be a float")
	ErrInvalidGeoLongitude  = errors.New("GEO longitude must be a float")
	ErrInvalidClassification = errors.New("invalid CLASS value")
)
