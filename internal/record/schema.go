// Builds the per-type field registry from struct reflection.

package record

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/maruel/recset/internal/normalize"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	idType              = reflect.TypeFor[ID]()
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	encodableType       = reflect.TypeFor[normalize.Encodable]()
	mapRecordType       = reflect.TypeFor[MapRecord]()
)

// Field describes one declared attribute of a record type.
type Field struct {
	// Name is the storage name, e.g. "taken-at".
	Name string
	// Key is the record name, e.g. "taken_at".
	Key         string
	Type        reflect.Type
	Description string
	// Required is set by the `jsonschema:"required"` tag.
	Required bool

	index []int
}

// structInfo is the field registry of one struct type.
type structInfo struct {
	typ    reflect.Type
	fields []*Field
	byKey  map[string]*Field
}

var structInfos sync.Map

func structInfoOf(t reflect.Type) *structInfo {
	if v, ok := structInfos.Load(t); ok {
		return v.(*structInfo)
	}
	info := &structInfo{typ: t, byKey: make(map[string]*Field)}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("json") == "" {
			// Promoted fields follow.
			continue
		}
		if !sf.IsExported() || !settable(t, sf.Index) || !supported(sf.Type) {
			continue
		}
		name := jsonFieldName(&sf)
		if name == "-" {
			continue
		}
		key := normalize.ToRecordKey(name)
		if _, ok := info.byKey[key]; ok {
			continue
		}
		f := &Field{
			Name:  normalize.ToStorageKey(name),
			Key:   key,
			Type:  sf.Type,
			index: sf.Index,
		}
		info.fields = append(info.fields, f)
		info.byKey[key] = f
	}
	info.describe()
	v, _ := structInfos.LoadOrStore(t, info)
	return v.(*structInfo)
}

// describe fills descriptions and required flags from the JSON Schema of the
// type.
func (info *structInfo) describe() {
	r := jsonschema.Reflector{Anonymous: true, ExpandedStruct: true, RequiredFromJSONSchemaTags: true}
	s := r.ReflectFromType(info.typ)
	if s == nil || s.Properties == nil {
		return
	}
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		f := info.byKey[normalize.ToRecordKey(pair.Key)]
		if f == nil {
			continue
		}
		f.Description = pair.Value.Description
		f.Required = slices.Contains(s.Required, pair.Key)
	}
}

// settable reports whether the field at index can be set through a value of
// type t: every intermediate struct must be embedded by value.
func settable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		sf := t.Field(i)
		if sf.Type.Kind() != reflect.Struct {
			return false
		}
		t = sf.Type
	}
	return true
}

func supported(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Uintptr,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return supported(t.Elem())
	case reflect.Map:
		return t.Key().Kind() == reflect.String && supported(t.Elem())
	default:
		return true
	}
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(field *reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	if tag == "-" {
		return "-"
	}
	// Handle "name,omitempty" format
	for i, c := range tag {
		if c == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}

// Schema is the field registry of the record type T. It is safe for
// concurrent use.
type Schema[T Record] struct {
	elem reflect.Type
	info *structInfo
	open bool
	opts Options
}

// SchemaOf returns the registry of T, which must be a pointer to a struct.
func SchemaOf[T Record](opts Options) (*Schema[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("record type must be a pointer to struct, got %s", t)
	}
	return &Schema[T]{
		elem: t.Elem(),
		info: structInfoOf(t.Elem()),
		open: t.Implements(mapRecordType),
		opts: opts,
	}, nil
}

// New returns a zero record.
func (s *Schema[T]) New() T {
	return reflect.New(s.elem).Interface().(T)
}

// Open reports whether T accepts arbitrary attributes (see [MapRecord]).
func (s *Schema[T]) Open() bool {
	return s.open
}

// TypeName returns the Go name of the record type.
func (s *Schema[T]) TypeName() string {
	return s.elem.String()
}

// FieldNames returns the declared storage names in declaration order.
func (s *Schema[T]) FieldNames() []string {
	out := make([]string, len(s.info.fields))
	for i, f := range s.info.fields {
		out[i] = f.Name
	}
	return out
}

// Fields returns the declared attributes in declaration order.
func (s *Schema[T]) Fields() []Field {
	out := make([]Field, len(s.info.fields))
	for i, f := range s.info.fields {
		out[i] = *f
	}
	return out
}

// JSONSchema returns the JSON Schema of T.
func (s *Schema[T]) JSONSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{Anonymous: true, RequiredFromJSONSchemaTags: true}
	return r.ReflectFromType(s.elem)
}

// Decode builds a record from a loosely-typed mapping. It never fails: keys
// that are not declared and values that cannot be converted are logged and
// dropped.
func (s *Schema[T]) Decode(m map[string]any) T {
	r := s.New()
	d := decoder{opts: &s.opts}
	if mr, ok := any(r).(MapRecord); ok {
		d.decodeOpen(mr, m)
		return r
	}
	d.decodeStruct(reflect.ValueOf(r).Elem(), s.info, m)
	return r
}

// Encode returns the canonical storage mapping of r: every declared attribute
// keyed by storage name, in declaration order, with values in storage form.
func (s *Schema[T]) Encode(r T) *orderedmap.OrderedMap[string, any] {
	e := encoder{out: normalize.Outbound{Calendar: s.opts.calendar(), Standard: s.opts.Standard}}
	if mr, ok := any(r).(MapRecord); ok {
		return e.encodeOpen(mr)
	}
	v := reflect.ValueOf(r)
	if v.IsNil() {
		return orderedmap.New[string, any]()
	}
	return e.encodeStruct(v.Elem(), s.info)
}
