// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redical-go/redical/index"
	"github.com/redical-go/redical/schedule"
	"github.com/redical-go/redical/value"
)

func dt(t *testing.T, raw string) value.DateTime {
	t.Helper()
	d, err := value.ParseDateTime(raw, false, "", value.DefaultTZResolver)
	require.NoError(t, err)
	return d
}

func baseEvent(t *testing.T) *Event {
	return &Event{
		UID:        "E1",
		Categories: value.NewCategories("B1", "B2"),
		Class:      value.ClassPublic,
		Passive: []PassiveProperty{
			{Name: "SUMMARY", Value: "Weekly sync"},
			{Name: "LOCATION", Value: "Room 1"},
		},
	}
}

func TestOverlayNoOverride(t *testing.T) {
	e := baseEvent(t)
	occ := schedule.Occurrence{Start: dt(t, "20210105T183000Z"), End: dt(t, "20210105T190000Z")}
	inst := Overlay(e, occ)
	assert.Equal(t, "E1", inst.UID)
	assert.True(t, inst.Categories.Equal(value.NewCategories("B1", "B2")))
	assert.Equal(t, value.ClassPublic, inst.Class)
	assert.Len(t, inst.Passive, 2)
}

func TestOverlayReplacesIndexedDimension(t *testing.T) {
	e := baseEvent(t)
	occStart := dt(t, "20210105T183000Z")
	e.Overrides = map[time.Time]*Override{
		occStart.Instant: {Categories: value.NewCategories("B1", "O1")},
	}
	occ := schedule.Occurrence{Start: occStart, End: dt(t, "20210105T190000Z")}
	inst := Overlay(e, occ)
	assert.True(t, inst.Categories.Equal(value.NewCategories("B1", "O1")))
	assert.Equal(t, value.ClassPublic, inst.Class) // untouched dimension falls back to base
}

func TestOverlayPassiveShadowsByName(t *testing.T) {
	e := baseEvent(t)
	occStart := dt(t, "20210105T183000Z")
	e.Overrides = map[time.Time]*Override{
		occStart.Instant: {Passive: []PassiveProperty{{Name: "SUMMARY", Value: "Special session"}}},
	}
	occ := schedule.Occurrence{Start: occStart, End: dt(t, "20210105T190000Z")}
	inst := Overlay(e, occ)
	require.Len(t, inst.Passive, 2)
	assert.Equal(t, "LOCATION", inst.Passive[0].Name)
	assert.Equal(t, "SUMMARY", inst.Passive[1].Name)
	assert.Equal(t, "Special session", inst.Passive[1].Value)
}

func TestEventSetOverrideLastModifiedPrecedence(t *testing.T) {
	e := baseEvent(t)
	t1 := dt(t, "20210105T183000Z").Instant
	older := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)

	applied, err := e.SetOverride(t1, &Override{LastModified: newer})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = e.SetOverride(t1, &Override{LastModified: older})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, newer, e.Overrides[t1].LastModified)
}

func TestEventSetOverrideDTStartMismatch(t *testing.T) {
	e := baseEvent(t)
	t1 := dt(t, "20210105T183000Z")
	wrong := dt(t, "20210112T183000Z")
	_, err := e.SetOverride(t1.Instant, &Override{DTStart: &wrong})
	assert.ErrorIs(t, err, ErrOverrideDTStartMismatch)
}

func TestBuildSnapshotCategories(t *testing.T) {
	e := baseEvent(t)
	t1 := dt(t, "20210105T183000Z").Instant
	t2 := dt(t, "20210112T183000Z").Instant
	e.Overrides = map[time.Time]*Override{
		t1: {Categories: value.NewCategories("B1", "O1")},
		t2: {Categories: value.NewCategories("B2")},
	}

	snap := BuildSnapshot(e, DimensionCategories)

	b1 := snap["B1"]
	assert.Equal(t, index.Include, b1.Shape)
	assert.True(t, b1.Admits(t1))
	assert.False(t, b1.Admits(t2))

	b2 := snap["B2"]
	assert.Equal(t, index.Include, b2.Shape)
	assert.False(t, b2.Admits(t1))
	assert.True(t, b2.Admits(t2))

	o1 := snap["O1"]
	assert.Equal(t, index.Exclude, o1.Shape)
	assert.True(t, o1.Admits(t1))
	assert.False(t, o1.Admits(t2))
}
