package recordset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the storage format of a datasource.
type Format uint8

const (
	// CSV is a flat table with a header row.
	CSV Format = iota + 1
	// JSON is a top-level array of objects.
	JSON
)

// FormatOf selects the format from the file extension, ignoring case.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}
