// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package schedule

import (
	"time"

	"github.com/redical-go/redical/value"
)

// Property selects which of an occurrence's two timestamps a Bound
// constrains.
type Property int

const (
	PropertyDTStart Property = iota
	PropertyDTEnd
)

// LowerOp is GT or GTE for a LowerBound.
type LowerOp int

const (
	GT LowerOp = iota
	GTE
)

// UpperOp is LT or LTE for an UpperBound.
type UpperOp int

const (
	LT UpperOp = iota
	LTE
)

// LowerBound is a "strictly greater than T" / "greater or equal to T"
// filter, keyed on either DTSTART or DTEND.
type LowerBound struct {
	Prop Property
	Op   LowerOp
	At   time.Time
}

// UpperBound is the symmetric upper filter.
type UpperBound struct {
	Prop Property
	Op   UpperOp
	At   time.Time
}

// satisfies reports whether an occurrence's relevant instant
// passes this bound.
func (b *LowerBound) satisfies(o Occurrence) bool {
	t := b.instant(o)
	if b.Op == GTE {
		return !t.Before(b.At)
	}
	return t.After(b.At)
}

func (b *LowerBound) instant(o Occurrence) time.Time {
	if b.Prop == PropertyDTEnd {
		return o.End.Instant
	}
	return o.Start.Instant
}

func (b *UpperBound) satisfies(o Occurrence) bool {
	t := b.instant(o)
	if b.Op == LTE {
		return !t.After(b.At)
	}
	return t.Before(b.At)
}

func (b *UpperBound) instant(o Occurrence) time.Time {
	if b.Prop == PropertyDTEnd {
		return o.End.Instant
	}
	return o.Start.Instant
}

// Occurrence is one concrete occurrence's start/end timestamps,
// before override overlay.
type Occurrence struct {
	Start value.DateTime
	End   value.DateTime
}
