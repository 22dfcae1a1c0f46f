package calendar

import (
	"testing"
	"time"
)

func TestParseStandard(t *testing.T) {
	tests := []struct {
		in      string
		want    Standard
		wantErr bool
	}{
		{"utc", UTC, false},
		{"  CST ", CST, false},
		{"Local", Local, false},
		{"pst", UTC, true},
		{"", UTC, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStandard(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStandard(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStandard(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStandardText(t *testing.T) {
	for _, s := range []Standard{UTC, CST, Local} {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) failed: %v", s, err)
		}
		var got Standard
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q) failed: %v", b, err)
		}
		if got != s {
			t.Errorf("round trip of %v = %v", s, got)
		}
	}
	if _, err := Standard(42).MarshalText(); err == nil {
		t.Error("MarshalText(42) succeeded, want error")
	}
}

func TestExcelFormat(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cal := Excel{}
	if got, want := cal.Format(ts, UTC), "2024-01-02 03:04:05"; got != want {
		t.Errorf("Format(UTC) = %q, want %q", got, want)
	}
	if got, want := cal.Format(ts, CST), "2024-01-02 11:04:05"; got != want {
		t.Errorf("Format(CST) = %q, want %q", got, want)
	}
}

func TestExcelParse(t *testing.T) {
	cal := Excel{}
	t.Run("Naive", func(t *testing.T) {
		got, err := cal.Parse("2024-01-02 11:04:05", CST)
		if err != nil {
			t.Fatal(err)
		}
		want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("Parse = %v, want %v", got, want)
		}
		if got.Location() != CST.Location() {
			t.Errorf("Parse location = %v, want %v", got.Location(), CST.Location())
		}
	})
	t.Run("Zoned", func(t *testing.T) {
		got, err := cal.Parse("2024-01-02T03:04:05Z", CST)
		if err != nil {
			t.Fatal(err)
		}
		if s := cal.Format(got, CST); s != "2024-01-02 11:04:05" {
			t.Errorf("Format(Parse) = %q", s)
		}
	})
	t.Run("Invalid", func(t *testing.T) {
		if _, err := cal.Parse("not a date", UTC); err == nil {
			t.Error("Parse succeeded, want error")
		}
	})
	t.Run("RoundTrip", func(t *testing.T) {
		ts := time.Date(2023, 12, 31, 23, 59, 59, 0, CST.Location())
		got, err := cal.Parse(cal.Format(ts, CST), CST)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(ts) {
			t.Errorf("round trip = %v, want %v", got, ts)
		}
	})
}

func TestFormatters(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got, want := FormatISO(ts, UTC), "2024-01-02T03:04:05Z"; got != want {
		t.Errorf("FormatISO = %q, want %q", got, want)
	}
	if got, want := FormatReadable(ts, UTC), "2024-01-02 Tue 03:04:05"; got != want {
		t.Errorf("FormatReadable = %q, want %q", got, want)
	}
}
