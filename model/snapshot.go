// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package model

import (
	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/property"
)

// Dimension names one of the four inverted-index dimensions a Calendar
// maintains.
type Dimension int

const (
	DimensionCategories Dimension = iota
	DimensionRelatedTo
	DimensionClass
	DimensionLocationType
)

// baseTerms returns the set of terms the base event itself carries for
// dimension, independent of any override.
func baseTerms(e *Event, dim Dimension) []string {
	switch dim {
	case DimensionCategories:
		return e.Categories.Terms()
	case DimensionLocationType:
		return e.LocationType.Terms()
	case DimensionClass:
		return []string{string(e.Class)}
	case DimensionRelatedTo:
		var out []string
		for _, relType := range e.RelatedTo.RelTypes() {
			for _, uid := range e.RelatedTo.UIDs(relType) {
				out = append(out, relType+":"+uid)
			}
		}
		return out
	default:
		return nil
	}
}

// overrideTerms returns the terms an override explicitly defines for
// dimension, and whether the override touches that dimension at all.
func overrideTerms(ov *Override, dim Dimension) ([]string, bool) {
	switch dim {
	case DimensionCategories:
		if ov.Categories == nil {
			return nil, false
		}
		return ov.Categories.Terms(), true
	case DimensionLocationType:
		if ov.LocationType == nil {
			return nil, false
		}
		return ov.LocationType.Terms(), true
	case DimensionClass:
		if ov.Class == nil {
			return nil, false
		}
		return []string{string(*ov.Class)}, true
	case DimensionRelatedTo:
		if ov.RelatedTo == nil {
			return nil, false
		}
		var out []string
		for _, relType := range ov.RelatedTo.RelTypes() {
			for _, uid := range ov.RelatedTo.UIDs(relType) {
				out = append(out, relType+":"+uid)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// BuildSnapshot computes an event's indexed-term snapshot for one
// dimension: every term mentioned by the base event or by any of its
// overrides, each annotated with the IndexedConclusion describing
// which occurrences it applies to.
//
// Starting point: every base term gets Include(∅) — applies everywhere.
// For each override that redefines the dimension: a term the override
// adds that the base lacks starts at Exclude(∅) (applies nowhere yet)
// and gains T as an admitted exception; a base term the override drops
// gets T appended to its Include exception set (no longer applies at
// T); a term present on both sides is untouched by this override.
func BuildSnapshot(e *Event, dim Dimension) map[string]index.Conclusion {
	snapshot := make(map[string]index.Conclusion)
	for _, term := range baseTerms(e, dim) {
		snapshot[term] = index.IncludeAll()
	}

	for _, t := range e.OrderedOccurrences() {
		ov := e.Overrides[t]
		overrideSet, touched := overrideTerms(ov, dim)
		if !touched {
			continue
		}
		present := make(map[string]struct{}, len(overrideSet))
		for _, term := range overrideSet {
			present[term] = struct{}{}
			c, ok := snapshot[term]
			switch {
			case !ok:
				snapshot[term] = index.ExcludeAll().WithException(t)
			case c.Shape == index.Exclude:
				snapshot[term] = c.WithException(t)
			}
		}
		for term, c := range snapshot {
			if _, stillPresent := present[term]; stillPresent {
				continue
			}
			if c.Shape == index.Include {
				snapshot[term] = c.WithException(t)
			}
		}
	}

	return snapshot
}

// DimensionName maps a Dimension to the property name used as its
// inverted-index key namespace, distinguishing RELATED-TO's
// relType:uid terms from the other three dimensions' bare terms.
func DimensionName(dim Dimension) property.Name {
	switch dim {
	case DimensionCategories:
		return property.NameCategories
	case DimensionRelatedTo:
		return property.NameRelatedTo
	case DimensionClass:
		return property.NameClass
	case DimensionLocationType:
		return property.NameLocationType
	default:
		return ""
	}
}
