// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package vectorindex

import (
	"reflect"
	"strconv"
	"strings"
)

// Metadata is the free-form attribute map stored alongside a vector.
// Values are scalars (string, number, bool) or slices of scalars.
type Metadata map[string]any

// Clone returns a shallow copy of the map. Slice values are shared.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Text returns the value under key when it is a string.
func (m Metadata) Text(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Number returns the value under key as a float64. Numeric strings are parsed.
func (m Metadata) Number(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// Filter restricts results to records whose metadata satisfies every entry.
//
// A scalar value requires equality, a slice value requires the stored field
// to be one of its elements, and a map value is read as comparison operators
// ($gte, $lte, $gt, $lt, $ne). Unrecognised operators are ignored. A nil value
// requires the field to be absent or nil.
type Filter map[string]any

// Filter operators.
const (
	OpGTE = "$gte"
	OpLTE = "$lte"
	OpGT  = "$gt"
	OpLT  = "$lt"
	OpNE  = "$ne"
)

// Matches reports whether md satisfies the filter. An empty filter matches everything.
func (f Filter) Matches(md Metadata) bool {
	for key, want := range f {
		have, present := md[key]
		if !matchValue(have, present, want) {
			return false
		}
	}
	return true
}

func matchValue(have any, present bool, want any) bool {
	switch w := want.(type) {
	case nil:
		return !present || have == nil
	case map[string]any:
		return matchOperators(have, present, w)
	case Filter:
		return matchOperators(have, present, w)
	}

	if !present {
		return false
	}
	if options, ok := asSlice(want); ok {
		for _, option := range options {
			if equalValues(have, option) {
				return true
			}
		}
		return false
	}
	return equalValues(have, want)
}

func matchOperators(have any, present bool, ops map[string]any) bool {
	for op, arg := range ops {
		switch op {
		case OpNE:
			if present && equalValues(have, arg) {
				return false
			}
		case OpGTE, OpLTE, OpGT, OpLT:
			if !present {
				return false
			}
			cmp, ok := compareValues(have, arg)
			if !ok {
				return false
			}
			switch {
			case op == OpGTE && cmp < 0,
				op == OpLTE && cmp > 0,
				op == OpGT && cmp <= 0,
				op == OpLT && cmp >= 0:
				return false
			}
		}
	}
	return true
}

// equalValues compares two metadata values. Numbers are compared by value
// across Go numeric types.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if _, ok := toFloat(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders a against b. Strings compare lexically; anything else
// must be numeric, and numeric strings are accepted when the other side is a number.
func compareValues(a, b any) (int, bool) {
	sa, aIsString := a.(string)
	sb, bIsString := b.(string)
	if aIsString && bIsString {
		return strings.Compare(sa, sb), true
	}

	fa, ok := toNumber(a)
	if !ok {
		return 0, false
	}
	fb, ok := toNumber(b)
	if !ok {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}

// toFloat converts Go numeric types to float64. Strings are not numbers here.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toNumber is toFloat that also parses numeric strings.
func toNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return toFloat(v)
}

// ToNumber exposes the numeric coercion used by filters to other packages
// that read prices and scores out of metadata.
func ToNumber(v any) (float64, bool) {
	return toNumber(v)
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case string, []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
