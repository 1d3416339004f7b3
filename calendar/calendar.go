// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package calendar is the calendar aggregate (component G): it owns a
// set of events and the four inverted indexes plus the geo index,
// and coordinates every mutation so they stay consistent with the
// events' current indexed-term snapshots.
package calendar

import (
	"time"

	"github.com/redical-go/redical/geoindex"
	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/model"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

// Calendar owns one key's worth of events and indexes.
type Calendar struct {
	UID    string
	Events map[string]*model.Event

	indexesActive bool
	categories    *index.Index
	relatedTo     *index.Index
	class         *index.Index
	locationType  *index.Index
	geo           *geoindex.GeoIndex

	Resolve value.TZResolver
}

// New returns an empty calendar with indexes active.
func New(uid string, resolve value.TZResolver) *Calendar {
	if resolve == nil {
		resolve = value.DefaultTZResolver
	}
	return &Calendar{
		UID:           uid,
		Events:        make(map[string]*model.Event),
		indexesActive: true,
		categories:    index.NewIndex(),
		relatedTo:     index.NewIndex(),
		class:         index.NewIndex(),
		locationType:  index.NewIndex(),
		geo:           geoindex.New(),
		Resolve:       resolve,
	}
}

// IndexesActive reports whether index maintenance is currently on.
func (c *Calendar) IndexesActive() bool { return c.indexesActive }

func (c *Calendar) indexFor(dim model.Dimension) *index.Index {
	switch dim {
	case model.DimensionCategories:
		return c.categories
	case model.DimensionRelatedTo:
		return c.relatedTo
	case model.DimensionClass:
		return c.class
	case model.DimensionLocationType:
		return c.locationType
	default:
		return nil
	}
}

// AllTerm returns every event uid in the calendar bound to
// index.IncludeAll(), the candidate set a query with no where-clause
// starts from. Fails with ErrIndexesDisabled like every other index
// read.
func (c *Calendar) AllTerm() (index.Term, error) {
	if !c.indexesActive {
		return nil, ErrIndexesDisabled
	}
	out := make(index.Term, len(c.Events))
	for uid := range c.Events {
		out[uid] = index.IncludeAll()
	}
	return out, nil
}

// LookupTerm returns a snapshot of term's bindings in dimension dim.
// Fails with ErrIndexesDisabled if indexes are currently off.
func (c *Calendar) LookupTerm(dim model.Dimension, term string) (index.Term, error) {
	if !c.indexesActive {
		return nil, ErrIndexesDisabled
	}
	return c.indexFor(dim).Lookup(term), nil
}

// LocateWithinDistance delegates to the geo index. Fails with
// ErrIndexesDisabled if indexes are currently off.
func (c *Calendar) LocateWithinDistance(center value.GeoPoint, radiusKM float64) (index.Term, error) {
	if !c.indexesActive {
		return nil, ErrIndexesDisabled
	}
	return c.geo.LocateWithinDistance(center, radiusKM), nil
}

// NearestNeighbourIterator delegates to the geo index. Fails with
// ErrIndexesDisabled if indexes are currently off.
func (c *Calendar) NearestNeighbourIterator(center value.GeoPoint) (*geoindex.NeighbourIterator, error) {
	if !c.indexesActive {
		return nil, ErrIndexesDisabled
	}
	return c.geo.NearestNeighbourIterator(center), nil
}

// snapshots computes every dimension's indexed-term snapshot for ev,
// plus its geo point contribution (nil if ev has none).
func snapshots(ev *model.Event) (byDim map[model.Dimension]map[string]index.Conclusion, geo *value.GeoPoint) {
	byDim = make(map[model.Dimension]map[string]index.Conclusion, 4)
	for _, dim := range []model.Dimension{
		model.DimensionCategories, model.DimensionRelatedTo,
		model.DimensionClass, model.DimensionLocationType,
	} {
		byDim[dim] = model.BuildSnapshot(ev, dim)
	}
	return byDim, ev.Geo
}

// applyEventDiff diffs ev's old and new snapshots per dimension and
// geo, applying every change. oldSnap/oldGeo are nil for a brand-new
// event (everything is "added"); passing nil new* values removes ev's
// contribution entirely (used by DeleteEvent).
func (c *Calendar) applyEventDiff(uid string, oldSnap map[model.Dimension]map[string]index.Conclusion, oldGeo *value.GeoPoint, newSnap map[model.Dimension]map[string]index.Conclusion, newGeo *value.GeoPoint) {
	for _, dim := range []model.Dimension{
		model.DimensionCategories, model.DimensionRelatedTo,
		model.DimensionClass, model.DimensionLocationType,
	} {
		var prev, next map[string]index.Conclusion
		if oldSnap != nil {
			prev = oldSnap[dim]
		}
		if newSnap != nil {
			next = newSnap[dim]
		}
		d := index.DiffTerms(prev, next)
		c.indexFor(dim).Apply(uid, d)
	}

	if oldGeo != nil {
		c.geo.Remove(*oldGeo, uid)
	}
	if newGeo != nil {
		c.geo.Insert(*newGeo, uid, index.IncludeAll())
	}
}

// SetEvent upserts ev, applying LAST-MODIFIED precedence against any
// stored event of the same UID. Returns applied=false (not an error)
// when the incoming event is stale.
func (c *Calendar) SetEvent(ev *model.Event) (applied bool, err error) {
	if err := ev.Schedule.Validate(); err != nil {
		return false, err
	}

	existing, had := c.Events[ev.UID]
	if had && model.Newer(existing.LastModified, ev.LastModified) {
		return false, nil
	}

	if c.indexesActive {
		var oldSnap map[model.Dimension]map[string]index.Conclusion
		var oldGeo *value.GeoPoint
		if had {
			oldSnap, oldGeo = snapshots(existing)
		}
		newSnap, newGeo := snapshots(ev)
		c.applyEventDiff(ev.UID, oldSnap, oldGeo, newSnap, newGeo)
	}

	c.Events[ev.UID] = ev
	return true, nil
}

// DeleteEvent removes ev and its index contributions, reporting
// whether it was present.
func (c *Calendar) DeleteEvent(uid string) bool {
	ev, ok := c.Events[uid]
	if !ok {
		return false
	}
	if c.indexesActive {
		oldSnap, oldGeo := snapshots(ev)
		c.applyEventDiff(uid, oldSnap, oldGeo, nil, nil)
	}
	delete(c.Events, uid)
	return true
}

// SetOverride installs ov on event eventUID at occurrence t, failing
// with model.ErrNoSuchOccurrence if t is not actually produced by the
// event's schedule. Rebuilds and re-diffs the event's snapshots on
// success.
func (c *Calendar) SetOverride(eventUID string, t time.Time, ov *model.Override) (applied bool, err error) {
	ev, ok := c.Events[eventUID]
	if !ok {
		return false, ErrEventNotFound
	}
	if !c.eventHasOccurrence(ev, t) {
		return false, model.ErrNoSuchOccurrence
	}

	var oldSnap map[model.Dimension]map[string]index.Conclusion
	var oldGeo *value.GeoPoint
	if c.indexesActive {
		oldSnap, oldGeo = snapshots(ev)
	}

	applied, err = ev.SetOverride(t, ov)
	if err != nil || !applied {
		return applied, err
	}

	if c.indexesActive {
		newSnap, newGeo := snapshots(ev)
		c.applyEventDiff(eventUID, oldSnap, oldGeo, newSnap, newGeo)
	}
	return true, nil
}

// DeleteOverride removes the override at t on event eventUID.
func (c *Calendar) DeleteOverride(eventUID string, t time.Time) (bool, error) {
	ev, ok := c.Events[eventUID]
	if !ok {
		return false, ErrEventNotFound
	}

	var oldSnap map[model.Dimension]map[string]index.Conclusion
	var oldGeo *value.GeoPoint
	if c.indexesActive {
		oldSnap, oldGeo = snapshots(ev)
	}

	removed := ev.DeleteOverride(t)
	if !removed {
		return false, nil
	}

	if c.indexesActive {
		newSnap, newGeo := snapshots(ev)
		c.applyEventDiff(eventUID, oldSnap, oldGeo, newSnap, newGeo)
	}
	return true, nil
}

// eventHasOccurrence reports whether t is one of ev's occurrence
// start instants, without expanding further than necessary: the
// expander is called with t itself as both lower and upper bound.
func (c *Calendar) eventHasOccurrence(ev *model.Event, t time.Time) bool {
	lower := &schedule.LowerBound{Prop: schedule.PropertyDTStart, Op: schedule.GTE, At: t}
	upper := &schedule.UpperBound{Prop: schedule.PropertyDTStart, Op: schedule.LTE, At: t}
	it, err := schedule.Expand(ev.Schedule, lower, upper, c.Resolve, 0)
	if err != nil {
		return false
	}
	for {
		occ, ok := it.Next()
		if !ok {
			return false
		}
		if occ.Start.Instant.Equal(t) {
			return true
		}
	}
}

// DisableIndexes drops all index memory; queries fail until a
// RebuildIndexes call. Mutations continue to succeed without index
// maintenance. Returns false if indexes were already disabled.
func (c *Calendar) DisableIndexes() bool {
	if !c.indexesActive {
		return false
	}
	c.categories = index.NewIndex()
	c.relatedTo = index.NewIndex()
	c.class = index.NewIndex()
	c.locationType = index.NewIndex()
	c.geo = geoindex.New()
	c.indexesActive = false
	return true
}

// RebuildIndexes walks every event, recomputes its snapshots, and
// applies them to freshly emptied indexes. If any event fails schedule
// revalidation it fails before touching anything, leaving the indexes
// and their active flag as they were.
func (c *Calendar) RebuildIndexes() error {
	for _, ev := range c.Events {
		if err := ev.Schedule.Validate(); err != nil {
			return err
		}
	}

	c.categories = index.NewIndex()
	c.relatedTo = index.NewIndex()
	c.class = index.NewIndex()
	c.locationType = index.NewIndex()
	c.geo = geoindex.New()

	for uid, ev := range c.Events {
		newSnap, newGeo := snapshots(ev)
		c.applyEventDiff(uid, nil, nil, newSnap, newGeo)
	}
	c.indexesActive = true
	return nil
}
