// Package normalize translates field names and values between their storage
// form (dash-separated keys, loosely-typed strings) and their record form
// (underscore-separated keys, typed values).
package normalize

import (
	"encoding"
	"math"
	"strings"
	"time"

	"github.com/maruel/recset/internal/calendar"
)

// ToRecordKey converts a storage key ("Taken-At") to a record key ("taken_at").
func ToRecordKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "-", "_")
}

// ToStorageKey converts a record key ("taken_at") to a storage key ("taken-at").
func ToStorageKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "_", "-")
}

// EnumName returns the canonical encodable form of an enumeration member
// name: "DEFAULT_VERSION" becomes "default-version".
func EnumName(name string) string {
	return ToStorageKey(name)
}

// CoerceInbound maps a raw storage value to its record form.
//
// Sequences lose their empty-string elements, the empty string becomes nil
// (absent) and the literals "true"/"false" (any case) become booleans.
func CoerceInbound(raw any) any {
	switch v := raw.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s == "" {
				continue
			}
			out = append(out, e)
		}
		return out
	case []string:
		out := make([]any, 0, len(v))
		for _, e := range v {
			if e != "" {
				out = append(out, e)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		if strings.EqualFold(v, "true") {
			return true
		}
		if strings.EqualFold(v, "false") {
			return false
		}
		return v
	}
	return raw
}

// Encodable is implemented by enumeration-like values. The returned member
// name is canonicalized with [EnumName].
type Encodable interface {
	Encodable() string
}

// Path is a filesystem path field. It is stored as a plain string.
type Path string

// String implements fmt.Stringer.
func (p Path) String() string {
	return string(p)
}

// Outbound converts typed record values to their storage form.
type Outbound struct {
	Calendar calendar.Calendar
	Standard calendar.Standard
}

// Coerce returns the storage form of v.
//
//   - time.Time: formatted by the Calendar in the display Standard; zero is nil.
//   - time.Duration: whole seconds.
//   - Encodable: canonical lower-dash name.
//   - encoding.TextMarshaler: its text.
//   - bool: "TRUE" or "FALSE".
//   - Path: plain string.
//
// Anything else is returned unchanged.
func (o Outbound) Coerce(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		cal := o.Calendar
		if cal == nil {
			cal = calendar.Excel{}
		}
		return cal.Format(t, o.Standard)
	case time.Duration:
		return int64(math.Round(t.Seconds()))
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case Path:
		return string(t)
	case Encodable:
		return EnumName(t.Encodable())
	case encoding.TextMarshaler:
		b, err := t.MarshalText()
		if err != nil {
			return nil
		}
		return string(b)
	}
	return v
}
