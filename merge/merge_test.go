// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	values []int
	pos    int
}

func (s *sliceSource) Next() (int, bool) {
	if s.pos >= len(s.values) {
		return 0, false
	}
	v := s.values[s.pos]
	s.pos++
	return v, true
}

func intCmp(a, b int) int { return a - b }

func drain[T any](m *Merger[T]) []T {
	var out []T
	for {
		v, ok := m.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func TestMergeOrdersAcrossSources(t *testing.T) {
	a := &sliceSource{values: []int{1, 4, 9}}
	b := &sliceSource{values: []int{2, 3, 10}}
	c := &sliceSource{values: []int{5, 6, 7, 8}}

	m := New([]Source[int]{a, b, c}, intCmp)
	got := drain(m)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
}

func TestMergeEmptySources(t *testing.T) {
	m := New([]Source[int]{}, intCmp)
	_, ok := m.Next()
	assert.False(t, ok)
}

func TestMergeOneExhaustedSource(t *testing.T) {
	a := &sliceSource{values: []int{}}
	b := &sliceSource{values: []int{1, 2}}
	m := New([]Source[int]{a, b}, intCmp)
	assert.Equal(t, []int{1, 2}, drain(m))
}

func TestMergeStableTieBreakOnSourceIndex(t *testing.T) {
	// two sources whose leading values tie under the comparator (it
	// compares tens only) but are still distinguishable: the earlier
	// source (lower index) must come first on a tie.
	a := &sliceSource{values: []int{51}}
	b := &sliceSource{values: []int{50}}
	m := New([]Source[int]{a, b}, func(x, y int) int { return x/10 - y/10 })

	first, ok := m.Next()
	require.True(t, ok)
	assert.Equal(t, 51, first)
	second, ok := m.Next()
	require.True(t, ok)
	assert.Equal(t, 50, second)
	_, ok = m.Next()
	assert.False(t, ok)
}
