// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package geoindex is the geospatial index (component F): a spatial
// structure keyed by lat/long point, each point holding an inverted
// term of the events located there. No example repo in the pack
// imports an R-tree or spatial-index library, so this is built
// directly on a point map plus a sort-on-query nearest-neighbour walk
// (see DESIGN.md).
package geoindex

import (
	"sort"

	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/value"
)

type entry struct {
	point value.GeoPoint
	term  index.Term
}

// GeoIndex maps points to inverted terms. Insert and Remove mutate a
// single bucket in place; no full rebuild is needed for either.
type GeoIndex struct {
	buckets map[string]*entry
}

// New returns an empty, ready-to-use GeoIndex.
func New() *GeoIndex {
	return &GeoIndex{buckets: make(map[string]*entry)}
}

func key(p value.GeoPoint) string { return p.Render() }

// Insert adds uid at point with conclusion c, broadening an existing
// binding the same way index.Index.Insert does.
func (g *GeoIndex) Insert(point value.GeoPoint, uid string, c index.Conclusion) {
	k := key(point)
	e, ok := g.buckets[k]
	if !ok {
		e = &entry{point: point, term: make(index.Term)}
		g.buckets[k] = e
	}
	if existing, ok := e.term[uid]; ok {
		e.term[uid] = existing.Or(c)
	} else {
		e.term[uid] = c
	}
}

// Remove drops uid's binding at point, dropping the point bucket
// entirely once it becomes empty.
func (g *GeoIndex) Remove(point value.GeoPoint, uid string) {
	k := key(point)
	e, ok := g.buckets[k]
	if !ok {
		return
	}
	delete(e.term, uid)
	if len(e.term) == 0 {
		delete(g.buckets, k)
	}
}

// LocateWithinDistance returns the union (merge_or) of every point's
// term within radiusKM of center.
func (g *GeoIndex) LocateWithinDistance(center value.GeoPoint, radiusKM float64) index.Term {
	out := make(index.Term)
	for _, e := range g.buckets {
		if value.HaversineKM(center, e.point) <= radiusKM {
			out = index.MergeOr(out, e.term)
		}
	}
	return out
}

// Neighbour is one stop of a nearest-neighbour walk.
type Neighbour struct {
	Point      value.GeoPoint
	Term       index.Term
	DistanceKM float64
}

// NeighbourIterator yields points in non-decreasing distance from the
// center the iterator was opened with.
type NeighbourIterator struct {
	neighbours []Neighbour
	pos        int
}

// Next returns the next-nearest point, or ok=false when every point
// in the index has been visited.
func (it *NeighbourIterator) Next() (Neighbour, bool) {
	if it.pos >= len(it.neighbours) {
		return Neighbour{}, false
	}
	n := it.neighbours[it.pos]
	it.pos++
	return n, true
}

// NearestNeighbourIterator opens a nearest-neighbour walk from center.
// It is not incremental: the distance ranking of every indexed point
// is computed once at open time (no
// spatial index in the pack supports true incremental NN search); the
// index's own buckets are never rebuilt to answer this.
func (g *GeoIndex) NearestNeighbourIterator(center value.GeoPoint) *NeighbourIterator {
	neighbours := make([]Neighbour, 0, len(g.buckets))
	for _, e := range g.buckets {
		neighbours = append(neighbours, Neighbour{
			Point:      e.point,
			Term:       e.term.Clone(),
			DistanceKM: value.HaversineKM(center, e.point),
		})
	}
	sort.Slice(neighbours, func(i, j int) bool {
		if neighbours[i].DistanceKM != neighbours[j].DistanceKM {
			return neighbours[i].DistanceKM < neighbours[j].DistanceKM
		}
		return key(neighbours[i].Point) < key(neighbours[j].Point)
	})
	return &NeighbourIterator{neighbours: neighbours}
}
