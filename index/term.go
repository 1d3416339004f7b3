// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package index

// Term is an InvertedIndexTerm snapshot: event-uid -> Conclusion. It is
// always handled by value; callers that read one from an Index get an
// independent copy, never a live reference into index internals.
type Term map[string]Conclusion

// Clone returns an independent copy of t.
func (t Term) Clone() Term {
	if t == nil {
		return nil
	}
	out := make(Term, len(t))
	for uid, c := range t {
		out[uid] = c
	}
	return out
}

// MergeAnd keeps only uids present in both a and b; for a shared uid
// the conclusions are intersected.
func MergeAnd(a, b Term) Term {
	out := make(Term)
	for uid, ca := range a {
		if cb, ok := b[uid]; ok {
			out[uid] = ca.And(cb)
		}
	}
	return out
}

// MergeOr unions the uids of a and b; shared uids have their
// conclusions unioned.
func MergeOr(a, b Term) Term {
	out := make(Term, len(a)+len(b))
	for uid, c := range a {
		out[uid] = c
	}
	for uid, c := range b {
		if existing, ok := out[uid]; ok {
			out[uid] = existing.Or(c)
		} else {
			out[uid] = c
		}
	}
	return out
}

// Index maps term -> Term. Build one with NewIndex: the zero value has
// no term map, so Insert on it panics.
type Index struct {
	terms map[string]Term
}

// NewIndex returns an empty, ready-to-use Index.
func NewIndex() *Index {
	return &Index{terms: make(map[string]Term)}
}

// Lookup returns a snapshot of term's bindings, empty if absent.
func (idx *Index) Lookup(term string) Term {
	return idx.terms[term].Clone()
}

// Insert adds uid under term with conclusion c, broadening an existing
// binding with Or semantics rather than overwriting it.
func (idx *Index) Insert(term, uid string, c Conclusion) {
	bucket, ok := idx.terms[term]
	if !ok {
		bucket = make(Term)
		idx.terms[term] = bucket
	}
	if existing, ok := bucket[uid]; ok {
		bucket[uid] = existing.Or(c)
	} else {
		bucket[uid] = c
	}
}

// Remove drops uid's binding under term, dropping the term entry
// entirely once its bucket becomes empty.
func (idx *Index) Remove(term, uid string) {
	bucket, ok := idx.terms[term]
	if !ok {
		return
	}
	delete(bucket, uid)
	if len(bucket) == 0 {
		delete(idx.terms, term)
	}
}

// Diff is the result of comparing one event's previous and next
// per-term conclusions for a single dimension: which terms were
// added, removed outright, or kept with a changed conclusion.
type Diff struct {
	Added    map[string]Conclusion
	Removed  []string
	Modified map[string]Conclusion
}

// DiffTerms compares prev and next (both term -> conclusion for one
// event) and emits the three-way diff Apply needs.
func DiffTerms(prev, next map[string]Conclusion) Diff {
	d := Diff{Added: map[string]Conclusion{}, Modified: map[string]Conclusion{}}
	for term, nc := range next {
		pc, existed := prev[term]
		switch {
		case !existed:
			d.Added[term] = nc
		case !pc.Equal(nc):
			d.Modified[term] = nc
		}
	}
	for term := range prev {
		if _, stillThere := next[term]; !stillThere {
			d.Removed = append(d.Removed, term)
		}
	}
	return d
}

// Apply applies a per-event term diff: added terms are inserted,
// modified terms are replaced, and removed terms are dropped. None of
// these steps can fail, so a diff is always applied in full. The
// calendar package calls it from applyEventDiff.
func (idx *Index) Apply(uid string, d Diff) {
	for term, c := range d.Added {
		idx.Insert(term, uid, c)
	}
	for term, c := range d.Modified {
		idx.Remove(term, uid)
		idx.Insert(term, uid, c)
	}
	for _, term := range d.Removed {
		idx.Remove(term, uid)
	}
}
