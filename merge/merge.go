// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package merge is the generic k-way merge iterator (component J): it
// pulls from several already-ordered sources and yields their items in
// one combined order, advancing only the source an item came from.
// The query executor uses it to merge one instance iterator per
// candidate event under whichever ordering mode the query asked for.
package merge

import "container/heap"

// Source is one already-ordered input sequence.
type Source[T any] interface {
	// Next returns the next item, or ok=false when exhausted.
	Next() (T, bool)
}

// Comparator reports the relative order of two items, matching the
// standard library's three-way convention: negative if a sorts before
// b, zero if equal, positive if a sorts after b.
type Comparator[T any] func(a, b T) int

// Merger performs a k-way merge over a fixed set of sources. It is not
// safe for concurrent use.
type Merger[T any] struct {
	h *entryHeap[T]
}

// New opens a Merger over sources, pulling one item from each to seed
// the heap. Sources that are already exhausted are simply absent from
// every subsequent Next call. Ties under cmp break on source index
// (the order sources were passed in), so the merge is stable.
func New[T any](sources []Source[T], cmp Comparator[T]) *Merger[T] {
	h := &entryHeap[T]{cmp: cmp}
	for i, s := range sources {
		if item, ok := s.Next(); ok {
			h.entries = append(h.entries, entry[T]{item: item, source: s, idx: i})
		}
	}
	heap.Init(h)
	return &Merger[T]{h: h}
}

// Next pops the minimum remaining item under cmp and refills from
// that item's source.
func (m *Merger[T]) Next() (T, bool) {
	if m.h.Len() == 0 {
		var zero T
		return zero, false
	}
	top := heap.Pop(m.h).(entry[T])
	if next, ok := top.source.Next(); ok {
		heap.Push(m.h, entry[T]{item: next, source: top.source, idx: top.idx})
	}
	return top.item, true
}

type entry[T any] struct {
	item   T
	source Source[T]
	idx    int
}

// entryHeap implements container/heap.Interface. There is no generic
// heap in the standard library or anywhere in the pack, so this
// package supplies its own thin adapter rather than duplicating
// container/heap's algorithm.
type entryHeap[T any] struct {
	entries []entry[T]
	cmp     Comparator[T]
}

func (h *entryHeap[T]) Len() int { return len(h.entries) }

func (h *entryHeap[T]) Less(i, j int) bool {
	if c := h.cmp(h.entries[i].item, h.entries[j].item); c != 0 {
		return c < 0
	}
	return h.entries[i].idx < h.entries[j].idx
}

func (h *entryHeap[T]) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *entryHeap[T]) Push(x any) { h.entries = append(h.entries, x.(entry[T])) }

func (h *entryHeap[T]) Pop() any {
	n := len(h.entries)
	item := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return item
}
