// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package query

import (
	"sort"

	"github.com/redical-go/redical/calendar"
	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/merge"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

// Result is one emitted row of a query's output.
type Result struct {
	Instance model.EventInstance
	// DistanceKM is set only under the two geo-aware orderings, and
	// only when the instance carries a GEO.
	DistanceKM *float64
}

// candidateIterator wraps one event's occurrence expander plus its
// IndexedConclusion, overlaying each admitted occurrence into an
// EventInstance as it is pulled. This is the per-candidate source
// the merge package's k-way merge runs over (component I step 2).
type candidateIterator struct {
	ev         *model.Event
	conclusion index.Conclusion
	occ        schedule.Iterator
}

func (it *candidateIterator) Next() (model.EventInstance, bool) {
	for {
		occ, ok := it.occ.Next()
		if !ok {
			return model.EventInstance{}, false
		}
		if !it.conclusion.Admits(occ.Start.Instant) {
			continue
		}
		return model.Overlay(it.ev, occ), true
	}
}

// openCandidates opens one candidateIterator per (uid, conclusion) in
// candidates, skipping any conclusion proven empty (Exclude with no
// exceptions admits nothing, so there is nothing to expand) and any
// uid the calendar no longer actually holds.
func openCandidates(c *calendar.Calendar, candidates index.Term, lower *schedule.LowerBound, upper *schedule.UpperBound, occurrenceCap int) ([]*candidateIterator, error) {
	out := make([]*candidateIterator, 0, len(candidates))
	for uid, conclusion := range candidates {
		if conclusion.IsEmpty() {
			continue
		}
		ev, ok := c.Events[uid]
		if !ok {
			continue
		}
		it, err := schedule.Expand(ev.Schedule, lower, upper, c.Resolve, occurrenceCap)
		if err != nil {
			return nil, err
		}
		out = append(out, &candidateIterator{ev: ev, conclusion: conclusion, occ: it})
	}
	return out, nil
}

// Execute runs the full §4.I pipeline for q against c and returns the
// materialised result rows.
func Execute(c *calendar.Calendar, q *Query) ([]Result, error) {
	var candidates index.Term
	var err error
	if q.Where == nil {
		candidates, err = c.AllTerm()
	} else {
		candidates, err = q.Where.evaluate(c)
	}
	if err != nil {
		return nil, err
	}

	switch q.Order.Mode {
	case OrderDTStartThenGeoDist:
		return executeDTStartThenGeoDist(c, q, candidates)
	case OrderGeoDistThenDTStart:
		return executeGeoDistThenDTStart(c, q, candidates)
	default:
		return executeDTStart(c, q, candidates)
	}
}

func executeDTStart(c *calendar.Calendar, q *Query, candidates index.Term) ([]Result, error) {
	iterators, err := openCandidates(c, candidates, q.Lower, q.Upper, 0)
	if err != nil {
		return nil, err
	}
	sources := make([]merge.Source[model.EventInstance], len(iterators))
	for i, it := range iterators {
		sources[i] = it
	}
	m := merge.New(sources, instanceCmp)
	return drain(m, q, nil)
}

// executeDTStartThenGeoDist implements §4.I's DtStartThenGeoDist mode:
// merge by DtStart as usual, but once `limit` admitted instances are
// collected, keep pulling while the next candidate shares the same
// dtstart_ts as the last admitted one so a same-timestamp cohort isn't
// clipped arbitrarily; then re-sort every collected instance by
// (dtstart_ts, distance, uid), so each same-timestamp cohort is
// ordered by distance.
func executeDTStartThenGeoDist(c *calendar.Calendar, q *Query, candidates index.Term) ([]Result, error) {
	iterators, err := openCandidates(c, candidates, q.Lower, q.Upper, 0)
	if err != nil {
		return nil, err
	}
	sources := make([]merge.Source[model.EventInstance], len(iterators))
	for i, it := range iterators {
		sources[i] = it
	}
	m := merge.New(sources, instanceCmp)

	target := q.Offset + q.Limit
	var admitted []model.EventInstance
	seen := map[string]struct{}{}
	for {
		inst, ok := m.Next()
		if !ok {
			break
		}
		if q.DistinctUID {
			if _, dup := seen[inst.UID]; dup {
				continue
			}
			seen[inst.UID] = struct{}{}
		}
		admitted = append(admitted, inst)
		if len(admitted) < target {
			continue
		}
		// Reached the target count; keep pulling only while the
		// cohort at the boundary shares the same dtstart_ts.
		last := admitted[len(admitted)-1].DTStart.Instant
		for {
			peek, ok := m.Next()
			if !ok {
				break
			}
			if !peek.DTStart.Instant.Equal(last) {
				// Belongs to the next cohort; nothing pulled here can
				// be re-fed into the merger, so it is simply dropped
				// once admitted/limit decide the final cut below.
				break
			}
			if q.DistinctUID {
				if _, dup := seen[peek.UID]; dup {
					continue
				}
				seen[peek.UID] = struct{}{}
			}
			admitted = append(admitted, peek)
		}
		break
	}

	// Re-sort the whole collected run by (dtstart_ts asc, distance
	// asc with None last, uid) as §4.I specifies, then cut to
	// [offset:offset+limit).
	center := *q.Order.GeoCenter
	sort.SliceStable(admitted, func(i, j int) bool {
		a, b := admitted[i], admitted[j]
		if !a.DTStart.Instant.Equal(b.DTStart.Instant) {
			return a.DTStart.Instant.Before(b.DTStart.Instant)
		}
		da, hasA := distanceOf(center, a)
		db, hasB := distanceOf(center, b)
		switch {
		case hasA && hasB && da != db:
			return da < db
		case hasA != hasB:
			return hasA
		default:
			return a.UID < b.UID
		}
	})

	return cutAndAnnotate(admitted, q, center)
}

// executeGeoDistThenDTStart implements §4.I's GeoDistThenDtStart mode:
// walk the geo index in nearest-neighbour order, intersecting each
// visited point's term with the where candidate set and expanding
// admitted events, in (distance asc, dtstart_ts asc, uid) order.
// Events with no GEO never appear in the geo index's own walk, so they
// are appended at the end (None-last) ordered by dtstart_ts/uid.
func executeGeoDistThenDTStart(c *calendar.Calendar, q *Query, candidates index.Term) ([]Result, error) {
	center := *q.Order.GeoCenter
	nn, err := c.NearestNeighbourIterator(center)
	if err != nil {
		return nil, err
	}

	target := q.Offset + q.Limit
	var withGeo []Result
	seen := map[string]struct{}{}
	geoUIDs := map[string]struct{}{}

	for len(withGeo) < target {
		n, ok := nn.Next()
		if !ok {
			break
		}
		matched := index.MergeAnd(candidates, n.Term)
		iterators, err := openCandidates(c, matched, q.Lower, q.Upper, 0)
		if err != nil {
			return nil, err
		}
		var instances []model.EventInstance
		for _, it := range iterators {
			for {
				inst, ok := it.Next()
				if !ok {
					break
				}
				instances = append(instances, inst)
			}
		}
		sort.SliceStable(instances, func(i, j int) bool {
			if !instances[i].DTStart.Instant.Equal(instances[j].DTStart.Instant) {
				return instances[i].DTStart.Instant.Before(instances[j].DTStart.Instant)
			}
			return instances[i].UID < instances[j].UID
		})
		dist := n.DistanceKM
		for _, inst := range instances {
			geoUIDs[inst.UID] = struct{}{}
			if q.DistinctUID {
				if _, dup := seen[inst.UID]; dup {
					continue
				}
				seen[inst.UID] = struct{}{}
			}
			d := dist
			withGeo = append(withGeo, Result{Instance: inst, DistanceKM: &d})
		}
	}

	if len(withGeo) >= target {
		return applyOffsetLimit(withGeo, q), nil
	}

	// Geo index exhausted before reaching the target: fall back to
	// every remaining matched candidate with no GEO, ordered by
	// dtstart_ts then uid, appended after every geo-located result
	// (None sorts last).
	noGeo := make(index.Term)
	for uid, concl := range candidates {
		if _, hasGeo := geoUIDs[uid]; hasGeo {
			continue
		}
		noGeo[uid] = concl
	}
	iterators, err := openCandidates(c, noGeo, q.Lower, q.Upper, 0)
	if err != nil {
		return nil, err
	}
	sources := make([]merge.Source[model.EventInstance], len(iterators))
	for i, it := range iterators {
		sources[i] = it
	}
	m := merge.New(sources, dtStartThenUIDCmp)
	for {
		inst, ok := m.Next()
		if !ok {
			break
		}
		if q.DistinctUID {
			if _, dup := seen[inst.UID]; dup {
				continue
			}
			seen[inst.UID] = struct{}{}
		}
		withGeo = append(withGeo, Result{Instance: inst})
		if len(withGeo) >= target {
			break
		}
	}

	return applyOffsetLimit(withGeo, q), nil
}

func distanceOf(center value.GeoPoint, inst model.EventInstance) (float64, bool) {
	if inst.Geo == nil {
		return 0, false
	}
	return value.HaversineKM(center, *inst.Geo), true
}

func cutAndAnnotate(admitted []model.EventInstance, q *Query, center value.GeoPoint) ([]Result, error) {
	out := make([]Result, 0, len(admitted))
	for _, inst := range admitted {
		r := Result{Instance: inst}
		if d, ok := distanceOf(center, inst); ok {
			dv := d
			r.DistanceKM = &dv
		}
		out = append(out, r)
	}
	return applyOffsetLimit(out, q), nil
}

// applyOffsetLimit skips q.Offset rows and truncates to q.Limit,
// matching §4.I step 4: offset is counted after ordering and distinct
// filtering, not before.
func applyOffsetLimit(rows []Result, q *Query) []Result {
	if q.Offset >= len(rows) {
		return nil
	}
	rows = rows[q.Offset:]
	if q.Limit >= 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	return rows
}

// drain pulls admitted rows (applying distinct-uid filtering) from m
// until limit+offset rows are collected or m is exhausted, then
// applies offset/limit.
func drain(m *merge.Merger[model.EventInstance], q *Query, center *value.GeoPoint) ([]Result, error) {
	target := q.Offset + q.Limit
	seen := map[string]struct{}{}
	var out []Result
	for len(out) < target {
		inst, ok := m.Next()
		if !ok {
			break
		}
		if q.DistinctUID {
			if _, dup := seen[inst.UID]; dup {
				continue
			}
			seen[inst.UID] = struct{}{}
		}
		r := Result{Instance: inst}
		if center != nil {
			if d, ok := distanceOf(*center, inst); ok {
				r.DistanceKM = &d
			}
		}
		out = append(out, r)
	}
	return applyOffsetLimit(out, q), nil
}

func instanceCmp(a, b model.EventInstance) int { return dtStartFullCmp(a, b) }

func dtStartThenUIDCmp(a, b model.EventInstance) int {
	if !a.DTStart.Instant.Equal(b.DTStart.Instant) {
		if a.DTStart.Instant.Before(b.DTStart.Instant) {
			return -1
		}
		return 1
	}
	return compareString(a.UID, b.UID)
}

func dtStartFullCmp(a, b model.EventInstance) int {
	if !a.DTStart.Instant.Equal(b.DTStart.Instant) {
		if a.DTStart.Instant.Before(b.DTStart.Instant) {
			return -1
		}
		return 1
	}
	if !a.DTEnd.Instant.Equal(b.DTEnd.Instant) {
		if a.DTEnd.Instant.Before(b.DTEnd.Instant) {
			return -1
		}
		return 1
	}
	return compareString(a.UID, b.UID)
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
