package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/invopop/jsonschema"
)

// ID identifies a record within its collection. It holds either an integer or
// a string. The zero value is the absent ID of a record never saved.
//
// Comparison with == distinguishes IntID(7) from StringID("7"); use
// [ID.Equal] to compare the textual forms.
type ID struct {
	s   string
	n   int64
	num bool
}

// IntID returns an integer ID.
func IntID(n int64) ID {
	return ID{n: n, num: true}
}

// StringID returns a string ID. The empty string is the zero ID.
func StringID(s string) ID {
	return ID{s: s}
}

// IDFrom converts a loosely-typed value to an ID.
func IDFrom(v any) (ID, bool) {
	switch t := v.(type) {
	case nil:
		return ID{}, true
	case ID:
		return t, true
	case string:
		return StringID(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return IntID(n), true
		}
		return StringID(t.String()), true
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && !math.IsNaN(t) {
			return IntID(int64(t)), true
		}
		return StringID(strconv.FormatFloat(t, 'f', -1, 64)), true
	case int:
		return IntID(int64(t)), true
	case int64:
		return IntID(t), true
	case int32:
		return IntID(int64(t)), true
	case uint32:
		return IntID(int64(t)), true
	}
	return ID{}, false
}

// IsZero reports whether the ID is absent.
func (id ID) IsZero() bool {
	return !id.num && id.s == ""
}

// IsInt reports whether the ID holds an integer.
func (id ID) IsInt() bool {
	return id.num
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id.num {
		return strconv.FormatInt(id.n, 10)
	}
	return id.s
}

// GoString implements fmt.GoStringer.
func (id ID) GoString() string {
	if id.num {
		return fmt.Sprintf("record.IntID(%d)", id.n)
	}
	return fmt.Sprintf("record.StringID(%q)", id.s)
}

// Digits returns the ID as an integer when its textual form is made only of
// ASCII digits.
func (id ID) Digits() (int64, bool) {
	s := id.String()
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Equal compares the textual forms so that IntID(7) equals StringID("7").
func (id ID) Equal(other ID) bool {
	return id.String() == other.String()
}

// Value returns the ID as an int64, a string or nil.
func (id ID) Value() any {
	if id.num {
		return id.n
	}
	if id.s == "" {
		return nil
	}
	return id.s
}

// MarshalJSON implements json.Marshaler. Integers are numbers, the zero ID is
// null.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return err
	}
	parsed, ok := IDFrom(v)
	if !ok {
		return fmt.Errorf("invalid ID %s", data)
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The result is always a
// string ID.
func (id *ID) UnmarshalText(b []byte) error {
	*id = StringID(string(b))
	return nil
}

// JSONSchema implements jsonschema's custom schema hook.
func (ID) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "integer"},
		},
	}
}
