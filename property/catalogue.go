// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package property

// Name is the iCal property name the calendar core treats specially.
// Adapted from the teacher's model.EventToken enum: that type named
// every VEVENT property this same parser recognised; Name keeps the
// shape but narrows the set to the properties a VEVENT-only calendar
// core needs (no VTODO, VJOURNAL, VALARM, VFREEBUSY, or VTIMEZONE
// properties — those components are out of scope).
type Name string

const (
	NameUID          Name = "UID"
	NameDTStart      Name = "DTSTART"
	NameDTEnd        Name = "DTEND"
	NameDuration     Name = "DURATION"
	NameRRule        Name = "RRULE"
	NameExRule       Name = "EXRULE"
	NameRDate        Name = "RDATE"
	NameExDate       Name = "EXDATE"
	NameCategories   Name = "CATEGORIES"
	NameRelatedTo    Name = "RELATED-TO"
	NameGeo          Name = "GEO"
	NameClass        Name = "CLASS"
	NameLocationType Name = "LOCATION-TYPE"
	NameSummary      Name = "SUMMARY"
	NameDescription  Name = "DESCRIPTION"
	NameLocation     Name = "LOCATION"
	NameURL          Name = "URL"
	NameLastModified Name = "LAST-MODIFIED"
	NameRecurrenceID Name = "RECURRENCE-ID"
)

// Kind says which of identity, schedule, indexed, or passive an
// Event's fields a given property name belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindIdentity
	KindSchedule
	KindIndexed
	KindPassive
)

var kinds = map[Name]Kind{
	NameUID:          KindIdentity,
	NameDTStart:      KindSchedule,
	NameDTEnd:        KindSchedule,
	NameDuration:     KindSchedule,
	NameRRule:        KindSchedule,
	NameExRule:       KindSchedule,
	NameRDate:        KindSchedule,
	NameExDate:       KindSchedule,
	NameCategories:   KindIndexed,
	NameRelatedTo:    KindIndexed,
	NameGeo:          KindIndexed,
	NameClass:        KindIndexed,
	NameLocationType: KindIndexed,
	NameLastModified: KindIdentity,
	NameRecurrenceID: KindIdentity,
}

// KindOf classifies a property name; names outside the catalogue
// (SUMMARY, DESCRIPTION, LOCATION, URL, X-* vendor properties, and any
// other non-indexed property) are passive.
func KindOf(name Name) Kind {
	if k, ok := kinds[name]; ok {
		return k
	}
	return KindPassive
}

// IndexedDimensions lists the four inverted-index dimensions in a
// fixed order, used wherever code needs to iterate "every dimension".
var IndexedDimensions = []Name{NameCategories, NameRelatedTo, NameClass, NameLocationType}
