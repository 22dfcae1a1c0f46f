// Package flatten converts nested mappings to single-level rows with compound
// column names and back.
//
// A nested mapping {"meta": {"camera": "x"}, "tags": ["a", "b"]} flattens to
// {"meta::camera": "x", "tags::0": "a", "tags::1": "b"} with the default
// separator.
//
// The separator must never appear inside a single field name. This is not
// checked: a colliding separator silently splits the name into two segments.
package flatten

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultSeparator joins the segments of a compound column name.
const DefaultSeparator = "::"

// Row is a single-level mapping from compound column name to scalar value.
type Row map[string]any

// Flatten walks m and returns its leaves keyed by compound name.
//
// m may be a map[string]any or an ordered map; nested mappings and sequences
// of either kind are descended into. Empty mappings and sequences are kept as
// nil leaves so that "no nested data" stays distinguishable from "absent".
func Flatten(m any, sep string) Row {
	out := Row{}
	switch t := m.(type) {
	case map[string]any:
		for k, v := range t {
			flattenInto(out, k, v, sep)
		}
	case *orderedmap.OrderedMap[string, any]:
		if t != nil {
			for p := t.Oldest(); p != nil; p = p.Next() {
				flattenInto(out, p.Key, p.Value, sep)
			}
		}
	}
	return out
}

func flattenInto(out Row, key string, v any, sep string) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			out[key] = nil
			return
		}
		for k, e := range t {
			flattenInto(out, key+sep+k, e, sep)
		}
	case *orderedmap.OrderedMap[string, any]:
		if t == nil || t.Len() == 0 {
			out[key] = nil
			return
		}
		for p := t.Oldest(); p != nil; p = p.Next() {
			flattenInto(out, key+sep+p.Key, p.Value, sep)
		}
	case []any:
		if len(t) == 0 {
			out[key] = nil
			return
		}
		for i, e := range t {
			flattenInto(out, key+sep+strconv.Itoa(i), e, sep)
		}
	case []byte:
		out[key] = string(t)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if rv.Len() == 0 {
				out[key] = nil
				return
			}
			for i := range rv.Len() {
				flattenInto(out, key+sep+strconv.Itoa(i), rv.Index(i).Interface(), sep)
			}
			return
		}
		out[key] = v
	}
}

// Unflatten rebuilds the nested mapping encoded in row.
//
// Nodes whose segments are all non-negative integers become sequences ordered
// by index. Blank elements are trimmed from rebuilt sequences: nil, "", and
// mappings or sequences whose leaves are all blank. A sequence therefore cannot
// carry empty-string elements through a table. When a key is both a leaf and a
// prefix of other keys, the nested form wins; see Shadowed.
func Unflatten(row Row, sep string) map[string]any {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	root := map[string]any{}
	for _, k := range keys {
		parts := strings.Split(k, sep)
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		last := parts[len(parts)-1]
		if _, ok := node[last].(map[string]any); ok {
			continue
		}
		node[last] = row[k]
	}
	for k, v := range root {
		root[k] = toSequences(v)
	}
	return root
}

// toSequences converts index-keyed nodes to slices, depth first.
func toSequences(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, e := range m {
		m[k] = toSequences(e)
	}
	if len(m) == 0 {
		return m
	}
	type entry struct {
		index int
		key   string
	}
	entries := make([]entry, 0, len(m))
	for k := range m {
		i, ok := index(k)
		if !ok {
			return m
		}
		entries = append(entries, entry{i, k})
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.index - b.index })
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if isBlank(m[e.key]) {
			continue
		}
		out = append(out, m[e.key])
	}
	return out
}

// index parses a segment made only of ASCII digits.
func index(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isBlank reports whether v holds no value at any depth. Padding cells of a
// reconciled run decode to such values.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		for _, e := range t {
			if !isBlank(e) {
				return false
			}
		}
		return true
	case []any:
		for _, e := range t {
			if !isBlank(e) {
				return false
			}
		}
		return true
	}
	return false
}

// Shadowed returns, sorted, the keys of row that hold a non-blank leaf value
// but are also a prefix of compound keys. Unflatten discards these values.
func Shadowed(row Row, sep string) []string {
	var out []string
	for k, v := range row {
		if isBlank(v) {
			continue
		}
		prefix := k + sep
		for other := range row {
			if strings.HasPrefix(other, prefix) {
				out = append(out, k)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}
