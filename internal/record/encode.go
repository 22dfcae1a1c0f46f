// Renders typed record fields to their storage form.

package record

import (
	"encoding/json"
	"reflect"
	"slices"

	"github.com/maruel/recset/internal/normalize"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var jsonNumberType = reflect.TypeFor[json.Number]()

type encoder struct {
	out normalize.Outbound
}

func (e *encoder) encodeStruct(v reflect.Value, info *structInfo) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any](len(info.fields))
	for _, f := range info.fields {
		om.Set(f.Name, e.value(v.FieldByIndex(f.index)))
	}
	return om
}

func (e *encoder) encodeOpen(r MapRecord) *orderedmap.OrderedMap[string, any] {
	attrs := r.Attrs()
	om := orderedmap.New[string, any](attrs.Len() + 1)
	om.Set("id", r.GetID().Value())
	for p := attrs.Oldest(); p != nil; p = p.Next() {
		om.Set(normalize.ToStorageKey(p.Key), e.any(p.Value))
	}
	return om
}

func (e *encoder) any(x any) any {
	if x == nil {
		return nil
	}
	return e.value(reflect.ValueOf(x))
}

func (e *encoder) ordered(in *orderedmap.OrderedMap[string, any]) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any](in.Len())
	for p := in.Oldest(); p != nil; p = p.Next() {
		om.Set(p.Key, e.any(p.Value))
	}
	return om
}

func (e *encoder) value(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if om, ok := v.Interface().(*orderedmap.OrderedMap[string, any]); ok {
			return e.ordered(om)
		}
		return e.value(v.Elem())
	}
	t := v.Type()
	switch {
	case t == idType:
		return v.Interface().(ID).Value()
	case t == jsonNumberType:
		return v.Interface()
	case t == timeType, t == durationType:
		return e.out.Coerce(v.Interface())
	case t.Implements(encodableType), t.Implements(textMarshalerType):
		return e.out.Coerce(v.Interface())
	}
	switch v.Kind() {
	case reflect.Bool:
		return e.out.Coerce(v.Bool())
	case reflect.String:
		return v.String()
	case reflect.Struct:
		return e.encodeStruct(v, structInfoOf(t))
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = e.value(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		om := orderedmap.New[string, any](len(keys))
		for _, k := range keys {
			om.Set(k, e.value(v.MapIndex(reflect.ValueOf(k).Convert(t.Key()))))
		}
		return om
	}
	return e.out.Coerce(v.Interface())
}
