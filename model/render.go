// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package model

import (
	"sort"
	"strings"

	"github.com/redical-go/redical/property"
	"github.com/redical-go/redical/value"
)

// RenderEvent renders ev's property lines in a stable order: schedule
// properties first, then the four indexed dimensions, then LAST-
// MODIFIED, then passive properties sorted by name. Round-tripping
// these lines back through BuildEvent reproduces ev's schedule,
// indexed dimensions, LAST-MODIFIED and passive properties (the latter
// in sorted order). The UID and the overrides are not part of these
// lines; the command layer writes both separately.
func RenderEvent(ev *Event) []string {
	var lines []string
	lines = append(lines, renderDTValue(string(property.NameDTStart), ev.Schedule.DTStart))
	if ev.Schedule.DTEnd != nil {
		lines = append(lines, renderDTValue(string(property.NameDTEnd), *ev.Schedule.DTEnd))
	}
	if ev.Schedule.Duration != nil {
		lines = append(lines, string(property.NameDuration)+":"+ev.Schedule.Duration.String())
	}
	for _, r := range ev.Schedule.RRules {
		lines = append(lines, string(property.NameRRule)+":"+r.String())
	}
	for _, r := range ev.Schedule.ExRules {
		lines = append(lines, string(property.NameExRule)+":"+r.String())
	}
	for _, d := range ev.Schedule.RDates {
		lines = append(lines, renderDTValue(string(property.NameRDate), d))
	}
	for _, d := range ev.Schedule.ExDates {
		lines = append(lines, renderDTValue(string(property.NameExDate), d))
	}

	if len(ev.Categories) > 0 {
		lines = append(lines, string(property.NameCategories)+":"+ev.Categories.Render())
	}
	lines = append(lines, renderRelatedTo(ev.RelatedTo)...)
	if ev.Geo != nil {
		lines = append(lines, string(property.NameGeo)+":"+ev.Geo.Render())
	}
	if ev.Class != "" {
		lines = append(lines, string(property.NameClass)+":"+string(ev.Class))
	}
	if len(ev.LocationType) > 0 {
		lines = append(lines, string(property.NameLocationType)+":"+ev.LocationType.Render())
	}
	if !ev.LastModified.IsZero() {
		lines = append(lines, renderDTValue(string(property.NameLastModified), value.NewUTC(ev.LastModified)))
	}
	lines = append(lines, renderPassive(ev.Passive)...)
	return lines
}

// RenderOverride is RenderEvent's symmetric counterpart for an
// Override: only the dimensions the override actually replaces are
// emitted, plus whichever of DTSTART/DTEND/DURATION it carries.
func RenderOverride(ov *Override) []string {
	var lines []string
	if ov.DTStart != nil {
		lines = append(lines, renderDTValue(string(property.NameDTStart), *ov.DTStart))
	}
	if ov.DTEnd != nil {
		lines = append(lines, renderDTValue(string(property.NameDTEnd), *ov.DTEnd))
	}
	if ov.Duration != nil {
		lines = append(lines, string(property.NameDuration)+":"+ov.Duration.String())
	}
	if ov.Categories != nil {
		lines = append(lines, string(property.NameCategories)+":"+ov.Categories.Render())
	}
	if ov.RelatedTo != nil {
		lines = append(lines, renderRelatedTo(ov.RelatedTo)...)
	}
	if ov.Geo != nil {
		lines = append(lines, string(property.NameGeo)+":"+ov.Geo.Render())
	}
	if ov.Class != nil {
		lines = append(lines, string(property.NameClass)+":"+string(*ov.Class))
	}
	if ov.LocationType != nil {
		lines = append(lines, string(property.NameLocationType)+":"+ov.LocationType.Render())
	}
	if !ov.LastModified.IsZero() {
		lines = append(lines, renderDTValue(string(property.NameLastModified), value.NewUTC(ov.LastModified)))
	}
	lines = append(lines, renderPassive(ov.Passive)...)
	return lines
}

func renderDTValue(name string, d value.DateTime) string {
	var params []property.Param
	if d.Kind == value.KindDate {
		params = append(params, property.Param{Name: "VALUE", Value: "DATE"})
	}
	if d.Kind == value.KindFloating {
		params = append(params, property.Param{Name: "TZID", Value: d.TZID})
	}
	return property.Line{Name: name, Params: params, Value: d.Render()}.Render()
}

// renderRelatedTo emits one RELATED-TO line per RELTYPE, comma-joining
// that type's UIDs. The RELTYPE param is only written when it is not
// the default (PARENT), matching how the default is conventionally
// left implicit on the wire.
func renderRelatedTo(r value.RelatedTo) []string {
	var lines []string
	for _, relType := range r.RelTypes() {
		var params []property.Param
		if relType != value.DefaultRelType {
			params = append(params, property.Param{Name: "RELTYPE", Value: relType})
		}
		uids := r.UIDs(relType)
		lines = append(lines, property.Line{
			Name: string(property.NameRelatedTo), Params: params, Value: strings.Join(uids, ","),
		}.Render())
	}
	return lines
}

func renderPassive(props []PassiveProperty) []string {
	ordered := append([]PassiveProperty(nil), props...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	lines := make([]string, len(ordered))
	for i, p := range ordered {
		lines[i] = property.Line{Name: p.Name, Params: p.Params, Value: p.Value}.Render()
	}
	return lines
}
