// Package calendar renders and parses timestamps in a small, closed set of
// display time standards.
//
// Records carry time.Time values; storage files carry excel-safe strings such
// as "2024-01-02 15:04:05" without a zone. The [Standard] decides which wall
// clock those strings are expressed in.
package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Shanghai must resolve on hosts without zoneinfo.

	"github.com/araddon/dateparse"
)

const (
	// ExcelLayout is the fixed layout spreadsheet tools parse without guessing.
	ExcelLayout = "2006-01-02 15:04:05"
	// ReadableLayout includes the weekday.
	ReadableLayout = "2006-01-02 Mon 15:04:05"
)

// Standard is a display time standard.
type Standard uint8

const (
	// UTC is Coordinated Universal Time.
	UTC Standard = iota
	// CST is China Standard Time (Asia/Shanghai).
	CST
	// Local is the host's local time zone.
	Local
)

const (
	utcStr   = "utc"
	cstStr   = "cst"
	localStr = "local"
)

var cstLocation = loadCST()

func loadCST() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// ParseStandard parses a case-insensitive standard name.
func ParseStandard(s string) (Standard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case utcStr:
		return UTC, nil
	case cstStr:
		return CST, nil
	case localStr:
		return Local, nil
	default:
		return UTC, fmt.Errorf("unknown time standard %q (valid: %s, %s, %s)", s, utcStr, cstStr, localStr)
	}
}

// String implements fmt.Stringer.
func (s Standard) String() string {
	switch s {
	case UTC:
		return utcStr
	case CST:
		return cstStr
	case Local:
		return localStr
	default:
		return fmt.Sprintf("Standard(%d)", uint8(s))
	}
}

// Location returns the time zone of the standard.
func (s Standard) Location() *time.Location {
	switch s {
	case CST:
		return cstLocation
	case Local:
		return time.Local
	default:
		return time.UTC
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Standard) MarshalText() ([]byte, error) {
	switch s {
	case UTC, CST, Local:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid time standard %d", uint8(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Standard) UnmarshalText(b []byte) error {
	v, err := ParseStandard(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Calendar converts timestamps to and from their storage representation.
type Calendar interface {
	// Format renders t in the wall clock of std.
	Format(t time.Time, std Standard) string
	// Parse reads s. A string without zone information is interpreted in std;
	// a zoned string is converted to std.
	Parse(s string, std Standard) (time.Time, error)
}

// Excel is the default Calendar. It writes [ExcelLayout] and reads anything
// dateparse recognizes.
type Excel struct{}

// Format implements Calendar.
func (Excel) Format(t time.Time, std Standard) string {
	return t.In(std.Location()).Format(ExcelLayout)
}

// Parse implements Calendar.
func (Excel) Parse(s string, std Standard) (time.Time, error) {
	loc := std.Location()
	t, err := dateparse.ParseIn(strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t.In(loc), nil
}

// FormatISO renders t as RFC 3339 with second precision in std.
func FormatISO(t time.Time, std Standard) string {
	return t.In(std.Location()).Format(time.RFC3339)
}

// FormatReadable renders t with the weekday in std.
func FormatReadable(t time.Time, std Standard) string {
	return t.In(std.Location()).Format(ReadableLayout)
}
