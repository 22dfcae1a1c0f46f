// Assigns loosely-typed storage values to typed record fields.

package record

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/maruel/recset/internal/normalize"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var errUnsupportedType = errors.New("unsupported field type")

type decoder struct {
	opts *Options
}

func (d *decoder) decodeStruct(dst reflect.Value, info *structInfo, m map[string]any) {
	seen := make(map[string]bool, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		key := normalize.ToRecordKey(k)
		f := info.byKey[key]
		if f == nil {
			d.opts.logger().Warn("unknown field dropped", "type", info.typ.String(), "field", key, "value", m[k])
			continue
		}
		seen[key] = true
		if err := d.assign(dst.FieldByIndex(f.index), normalize.CoerceInbound(m[k])); err != nil {
			d.opts.logger().Warn("invalid value dropped", "type", info.typ.String(), "field", key, "value", m[k], "err", err)
		}
	}
	for _, f := range info.fields {
		if f.Required && !seen[f.Key] {
			d.opts.logger().Warn("required field missing", "type", info.typ.String(), "field", f.Key)
		}
	}
}

func (d *decoder) decodeOpen(r MapRecord, m map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		key := normalize.ToRecordKey(k)
		v := coerceDeep(m[k])
		if key != "id" {
			r.SetAttr(key, v)
			continue
		}
		id, ok := IDFrom(v)
		if !ok {
			d.opts.logger().Warn("invalid value dropped", "type", fmt.Sprintf("%T", r), "field", key, "value", m[k])
			continue
		}
		r.SetID(id)
	}
}

// coerceDeep applies normalize.CoerceInbound to v and every nested value.
func coerceDeep(v any) any {
	v = normalize.CoerceInbound(v)
	switch t := v.(type) {
	case []any:
		for i, e := range t {
			t[i] = coerceDeep(e)
		}
	case map[string]any:
		for k, e := range t {
			t[k] = coerceDeep(e)
		}
	}
	return v
}

// assign stores v into dst, converting as needed. nil resets dst to its zero
// value.
func (d *decoder) assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	t := dst.Type()
	switch t {
	case idType:
		id, ok := IDFrom(v)
		if !ok {
			return fmt.Errorf("cannot use %T as ID", v)
		}
		dst.Set(reflect.ValueOf(id))
		return nil
	case timeType:
		switch x := v.(type) {
		case time.Time:
			dst.Set(reflect.ValueOf(x))
			return nil
		case string:
			ts, err := d.opts.calendar().Parse(x, d.opts.Standard)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(ts))
			return nil
		}
		return fmt.Errorf("cannot use %T as time", v)
	case durationType:
		dur, err := toDuration(v)
		if err != nil {
			return err
		}
		dst.SetInt(int64(dur))
		return nil
	}
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		if err := d.assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	if isScalar(v) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text(v)))
	}

	switch t.Kind() {
	case reflect.String:
		dst.SetString(text(v))
	case reflect.Bool:
		b, err := toBool(v)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(v)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, t)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt(v)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, t)
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			dst.SetBytes([]byte(text(v)))
			return nil
		}
		items, err := toList(v)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(t, 0, len(items))
		for i, item := range items {
			ev := reflect.New(t.Elem()).Elem()
			if err := d.assign(ev, normalize.CoerceInbound(item)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			out = reflect.Append(out, ev)
		}
		dst.Set(out)
	case reflect.Array:
		items, err := toList(v)
		if err != nil {
			return err
		}
		if len(items) > t.Len() {
			return fmt.Errorf("%d elements overflow %s", len(items), t)
		}
		dst.SetZero()
		for i, item := range items {
			if err := d.assign(dst.Index(i), normalize.CoerceInbound(item)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	case reflect.Map:
		m, err := toMap(v)
		if err != nil {
			return err
		}
		out := reflect.MakeMapWithSize(t, len(m))
		for k, e := range m {
			ev := reflect.New(t.Elem()).Elem()
			if err := d.assign(ev, normalize.CoerceInbound(e)); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		dst.Set(out)
	case reflect.Struct:
		m, err := toMap(v)
		if err != nil {
			return err
		}
		d.decodeStruct(dst, structInfoOf(t), m)
	case reflect.Interface:
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(t) {
			return fmt.Errorf("cannot use %T as %s", v, t)
		}
		dst.Set(rv)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedType, t)
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case []any, map[string]any, *orderedmap.OrderedMap[string, any]:
		return false
	}
	return true
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	case json.Number:
		f, err := t.Float64()
		return f != 0, err
	case float64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case int64:
		return t != 0, nil
	}
	return false, fmt.Errorf("cannot use %T as bool", v)
}

// toInt truncates fractional numbers like the integer column affinity does.
func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case float64:
		return floatToInt(t)
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", t)
		}
		return floatToInt(f)
	}
	return 0, fmt.Errorf("cannot use %T as integer", v)
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, fmt.Errorf("%v is out of integer range", f)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot use %T as float", v)
}

// toDuration reads whole or fractional seconds, or a Go duration string.
func toDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(f * float64(time.Second)), nil
		}
		return time.ParseDuration(s)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("cannot use %T as duration", v)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// toList accepts a sequence, a JSON array rendered as text, or a single
// scalar standing for a one-element sequence.
func toList(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case string:
		if strings.HasPrefix(strings.TrimSpace(t), "[") {
			var out []any
			if err := decodeJSONText(t, &out); err != nil {
				return nil, err
			}
			return normalize.CoerceInbound(out).([]any), nil
		}
	case map[string]any, *orderedmap.OrderedMap[string, any]:
		return nil, fmt.Errorf("cannot use %T as sequence", v)
	}
	return []any{v}, nil
}

// toMap accepts a mapping or a JSON object rendered as text.
func toMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case *orderedmap.OrderedMap[string, any]:
		out := make(map[string]any, t.Len())
		for p := t.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = p.Value
		}
		return out, nil
	case string:
		if strings.HasPrefix(strings.TrimSpace(t), "{") {
			var out map[string]any
			if err := decodeJSONText(t, &out); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as mapping", v)
}

func decodeJSONText(s string, out any) error {
	d := json.NewDecoder(bytes.NewReader([]byte(s)))
	d.UseNumber()
	if err := d.Decode(out); err != nil {
		return fmt.Errorf("invalid embedded JSON: %w", err)
	}
	return nil
}
