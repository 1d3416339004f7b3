// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package value

import "sort"

// DefaultRelType is used when a RELATED-TO property carries no RELTYPE
// parameter.
const DefaultRelType = "PARENT"

// RelatedTo is the RELATED-TO property value: a mapping of RELTYPE to
// the set of UIDs related under that type. An event may have several
// RELATED-TO lines; they accumulate into one RelatedTo per event.
type RelatedTo map[string]map[string]struct{}

// NewRelatedTo builds an empty RelatedTo map.
func NewRelatedTo() RelatedTo {
	return make(RelatedTo)
}

// Add records uid under relType (defaulting to DefaultRelType).
func (r RelatedTo) Add(relType, uid string) {
	if relType == "" {
		relType = DefaultRelType
	}
	if r[relType] == nil {
		r[relType] = make(map[string]struct{})
	}
	r[relType][uid] = struct{}{}
}

// UIDs returns the UIDs related under relType, sorted.
func (r RelatedTo) UIDs(relType string) []string {
	if relType == "" {
		relType = DefaultRelType
	}
	set := r[relType]
	out := make([]string, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// RelTypes returns every RELTYPE present, sorted.
func (r RelatedTo) RelTypes() []string {
	out := make([]string, 0, len(r))
	for t := range r {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Equal compares two RelatedTo values for equal content.
func (r RelatedTo) Equal(o RelatedTo) bool {
	if len(r) != len(o) {
		return false
	}
	for relType, uids := range r {
		otherUIDs, ok := o[relType]
		if !ok || len(uids) != len(otherUIDs) {
			return false
		}
		for uid := range uids {
			if _, ok := otherUIDs[uid]; !ok {
				return false
			}
		}
	}
	return true
}
