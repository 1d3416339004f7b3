// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package property tokenizes and renders individual iCal property
// lines ("NAME;PARAM=VALUE:VALUE") and catalogues which property
// names the calendar core treats as schedule, indexed, or passive.
// The surrounding VCALENDAR/VEVENT block grammar and line unfolding
// are the host's lexer's concern; this package only
// knows how to split and rejoin one already-unfolded line.
package property

import (
	"sort"
	"strings"
)

// Param is one NAME=VALUE parameter on a property line. Quoted values
// keep their surrounding quotes in Value, matching how they appeared
// on the wire, so re-rendering doesn't have to guess whether quoting
// is required.
type Param struct {
	Name  string
	Value string
}

// canonicalParamOrder is the fixed position of the well-known
// parameters in rendered output; everything else (X-* vendor params)
// sorts after them by name, giving every render a single stable
// ordering.
var canonicalParamOrder = map[string]int{
	"VALUE":    0,
	"TZID":     1,
	"RELTYPE":  2,
	"ALTREP":   3,
	"LANGUAGE": 4,
}

// Line is a tokenized property line.
type Line struct {
	Name   string
	Params []Param
	Value  string
}

// Parse splits a single unfolded property line into name, parameters,
// and value. Grounded on the teacher's hand-rolled line tokenizer
// (parseIcalLine/splitParameters/findUnquotedColonIndex) — this is the
// same "no grammar library" posture the teacher itself takes, since
// the underlying unfolding/lexing is assumed done upstream.
func Parse(line string) (Line, error) {
	colon := findUnquotedColonIndex(line)
	if colon == -1 {
		return Line{}, ErrInvalidPropertyLine
	}

	beforeColon := line[:colon]
	value := line[colon+1:]

	name := beforeColon
	var params []Param
	if semi := strings.IndexByte(beforeColon, ';'); semi != -1 {
		name = beforeColon[:semi]
		for _, raw := range splitParameters(beforeColon[semi+1:]) {
			pname, pvalue, ok := strings.Cut(raw, "=")
			if !ok {
				return Line{}, ErrInvalidParameter
			}
			params = append(params, Param{Name: pname, Value: pvalue})
		}
	}

	return Line{Name: strings.ToUpper(name), Params: params, Value: value}, nil
}

// Get returns the value of the named parameter (case-insensitive) and
// whether it was present.
func (l Line) Get(name string) (string, bool) {
	for _, p := range l.Params {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Render re-serializes the line in canonical parameter order: the
// named parameters first in a fixed sequence, then any X-* vendor
// parameters sorted by name.
func (l Line) Render() string {
	var b strings.Builder
	b.WriteString(l.Name)

	ordered := append([]Param(nil), l.Params...)
	sort.SliceStable(ordered, func(i, j int) bool {
		oi, iKnown := canonicalParamOrder[strings.ToUpper(ordered[i].Name)]
		oj, jKnown := canonicalParamOrder[strings.ToUpper(ordered[j].Name)]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return ordered[i].Name < ordered[j].Name
		}
	})

	for _, p := range ordered {
		b.WriteByte(';')
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(p.Value))
	}
	b.WriteByte(':')
	b.WriteString(l.Value)
	return b.String()
}

// splitParameters splits a parameter string by semicolons, respecting
// quoted values (a quoted value may itself contain ';' or ':').
func splitParameters(paramString string) []string {
	var params []string
	var current strings.Builder
	inQuotes := false

	for _, c := range paramString {
		switch {
		case c == '"':
			inQuotes = !inQuotes
			current.WriteRune(c)
		case c == ';' && !inQuotes:
			if current.Len() > 0 {
				params = append(params, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}
	if current.Len() > 0 {
		params = append(params, current.String())
	}
	return params
}

// findUnquotedColonIndex finds the first colon not inside a quoted
// parameter value.
func findUnquotedColonIndex(line string) int {
	inQuotes := false
	for i, c := range line {
		if c == '"' {
			inQuotes = !inQuotes
		} else if c == ':' && !inQuotes {
			return i
		}
	}
	return -1
}

// quoteIfNeeded wraps a parameter value in DQUOTEs if it contains a
// character (';', ':', ',') that the bare param-value grammar forbids.
// RFC 5545 quoted-strings carry no escape mechanism of their own — a
// DQUOTE simply can't appear inside one — so this only ever adds the
// surrounding quotes, never rewrites the content.
func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, `;:,`) && !strings.HasPrefix(v, `"`) {
		return `"` + v + `"`
	}
	return v
}
