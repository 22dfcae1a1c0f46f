package record

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MapRecord is a record accepting arbitrary attributes instead of a declared
// field set. Keys are record keys (underscore-separated).
type MapRecord interface {
	Record
	SetAttr(key string, v any)
	Attrs() *orderedmap.OrderedMap[string, any]
}

// Row is a schemaless record. Its attributes keep insertion order.
type Row struct {
	Base
	attrs *orderedmap.OrderedMap[string, any]
}

// NewRow returns an empty row with the given ID.
func NewRow(id ID) *Row {
	return &Row{Base: Base{ID: id}}
}

// Get returns the attribute stored under key.
func (r *Row) Get(key string) (any, bool) {
	if r.attrs == nil {
		return nil, false
	}
	return r.attrs.Get(key)
}

// SetAttr implements MapRecord. Setting "id" is ignored; use SetID.
func (r *Row) SetAttr(key string, v any) {
	if key == "id" {
		return
	}
	if r.attrs == nil {
		r.attrs = orderedmap.New[string, any]()
	}
	r.attrs.Set(key, v)
}

// Attrs implements MapRecord. The returned map is owned by the row.
func (r *Row) Attrs() *orderedmap.OrderedMap[string, any] {
	if r.attrs == nil {
		r.attrs = orderedmap.New[string, any]()
	}
	return r.attrs
}

// Len returns the number of attributes, not counting the ID.
func (r *Row) Len() int {
	if r.attrs == nil {
		return 0
	}
	return r.attrs.Len()
}

// Hash implements Hasher. It covers every attribute in key order and ignores
// the ID, so two rows holding the same data under different IDs collide.
func (r *Row) Hash() string {
	if r.attrs == nil {
		return Fingerprint()
	}
	keys := make([]string, 0, r.attrs.Len())
	for p := r.attrs.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	slices.Sort(keys)
	parts := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		v, _ := r.attrs.Get(k)
		parts = append(parts, k, v)
	}
	return Fingerprint(parts...)
}
