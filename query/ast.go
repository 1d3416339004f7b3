// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package query is the query language (component H) and executor
// (component I): parsing the X-prefixed clause grammar into a typed
// plan, evaluating its where-conditional against a calendar's indexes
// to a candidate set, expanding and ordering the matching instances.
package query

import (
	"github.com/redical-go/redical/calendar"
	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

// Op is the combination mode a multi-term leaf clause applies across
// its own term list (X-CATEGORIES;OP=...:a,b,c and friends).
type Op int

const (
	// OpOr is the default: the clause matches a term if the event
	// carries any of its listed terms.
	OpOr Op = iota
	OpAnd
)

// OrderMode is one of the three result orderings §4.H names.
type OrderMode int

const (
	OrderDTStart OrderMode = iota
	OrderDTStartThenGeoDist
	OrderGeoDistThenDTStart
)

// Ordering is the query's result ordering; GeoCenter is set only for
// the two geo-aware modes.
type Ordering struct {
	Mode      OrderMode
	GeoCenter *value.GeoPoint
}

// Cond is the where-conditional tree: a boolean algebra over index
// leaf predicates.
type Cond interface {
	evaluate(c *calendar.Calendar) (index.Term, error)
}

// AndCond is the conjunction of two conditions: merge_and of their
// candidate terms.
type AndCond struct{ Left, Right Cond }

func (n AndCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	l, err := n.Left.evaluate(c)
	if err != nil {
		return nil, err
	}
	r, err := n.Right.evaluate(c)
	if err != nil {
		return nil, err
	}
	return index.MergeAnd(l, r), nil
}

// OrCond is the disjunction of two conditions: merge_or of their
// candidate terms.
type OrCond struct{ Left, Right Cond }

func (n OrCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	l, err := n.Left.evaluate(c)
	if err != nil {
		return nil, err
	}
	r, err := n.Right.evaluate(c)
	if err != nil {
		return nil, err
	}
	return index.MergeOr(l, r), nil
}

// GroupCond wraps a parenthesised subexpression. Grouping only affects
// parse-time precedence (how the parser builds And/Or out of the
// tokens inside the parens); evaluation simply delegates.
type GroupCond struct{ Inner Cond }

func (n GroupCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	return n.Inner.evaluate(c)
}

// CategoriesCond matches events whose CATEGORIES snapshot contains any
// (OpOr) or all (OpAnd) of Terms.
type CategoriesCond struct {
	Op    Op
	Terms []string
}

func (n CategoriesCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	return mergeTerms(c, model.DimensionCategories, n.Terms, n.Op)
}

// RelatedToCond matches events related under RelType (default
// value.DefaultRelType) to any/all of UIDs.
type RelatedToCond struct {
	Op      Op
	RelType string
	UIDs    []string
}

func (n RelatedToCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	relType := n.RelType
	if relType == "" {
		relType = value.DefaultRelType
	}
	terms := make([]string, len(n.UIDs))
	for i, uid := range n.UIDs {
		terms[i] = relType + ":" + uid
	}
	return mergeTerms(c, model.DimensionRelatedTo, terms, n.Op)
}

// ClassCond matches events whose CLASS is any/all (meaningless for a
// single-valued property beyond the first match, but Op is still
// honoured for uniformity) of Classes.
type ClassCond struct {
	Op      Op
	Classes []string
}

func (n ClassCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	return mergeTerms(c, model.DimensionClass, n.Classes, n.Op)
}

// LocationTypeCond matches events whose LOCATION-TYPE snapshot
// contains any/all of Terms.
type LocationTypeCond struct {
	Op    Op
	Terms []string
}

func (n LocationTypeCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	return mergeTerms(c, model.DimensionLocationType, n.Terms, n.Op)
}

// GeoCond matches events within RadiusKM of Center.
type GeoCond struct {
	Center   value.GeoPoint
	RadiusKM float64
}

func (n GeoCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	return c.LocateWithinDistance(n.Center, n.RadiusKM)
}

// UIDCond restricts the candidate set to exactly one event UID. Not
// part of the grammar table in §6.3; a supplemental clause (see
// SPEC_FULL.md) useful for UID-scoped lookups layered on the query
// engine.
type UIDCond struct{ UID string }

func (n UIDCond) evaluate(c *calendar.Calendar) (index.Term, error) {
	if _, ok := c.Events[n.UID]; !ok {
		return index.Term{}, nil
	}
	return index.Term{n.UID: index.IncludeAll()}, nil
}

func mergeTerms(c *calendar.Calendar, dim model.Dimension, terms []string, op Op) (index.Term, error) {
	var out index.Term
	for i, term := range terms {
		t, err := c.LookupTerm(dim, term)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out = t
			continue
		}
		if op == OpAnd {
			out = index.MergeAnd(out, t)
		} else {
			out = index.MergeOr(out, t)
		}
	}
	if out == nil {
		out = index.Term{}
	}
	return out, nil
}

// Query is one parsed calendar-query: a where-conditional plus the
// bounds, ordering, and output-shaping clauses of §6.3.
type Query struct {
	Where       Cond
	Order       Ordering
	Lower       *schedule.LowerBound
	Upper       *schedule.UpperBound
	TZID        string
	DistinctUID bool
	Offset      int
	Limit       int
}

// Defaults per §6.3: limit 50, offset 0, distinct false, tz UTC, order
// DTSTART.
const (
	DefaultLimit = 50
	DefaultTZID  = "UTC"
)
