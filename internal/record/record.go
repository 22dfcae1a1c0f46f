// Package record defines identified records and the per-type field registry
// that builds them from loosely-typed mappings and renders them back to
// canonical storage mappings.
//
// A record type is a pointer to a struct embedding [Base]:
//
//	type Photo struct {
//		record.Base
//		Title string    `json:"title" jsonschema:"required"`
//		Tags  []string  `json:"tags"`
//		Taken time.Time `json:"taken_at"`
//		Meta  PhotoMeta `json:"meta"`
//	}
//
// Declared attributes are the exported fields, named by their json tag. The
// storage name of "taken_at" is "taken-at".
package record

import (
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"github.com/maruel/recset/internal/calendar"
)

// Record is an identified entity. Uniqueness of the ID is owned by the
// collection holding the record, not by the record.
type Record interface {
	GetID() ID
	SetID(ID)
}

// Hasher is a record exposing a content fingerprint. Hash must be a pure
// function of the record's content.
type Hasher interface {
	Record
	Hash() string
}

// Base declares the id attribute. Embed it in record structs.
type Base struct {
	ID ID `json:"id" jsonschema:"description=Record identifier unique within its collection"`
}

// GetID implements Record.
func (b *Base) GetID() ID {
	return b.ID
}

// SetID implements Record.
func (b *Base) SetID(id ID) {
	b.ID = id
}

// Options configures value conversion.
type Options struct {
	// Calendar renders and parses timestamps. Defaults to calendar.Excel.
	Calendar calendar.Calendar
	// Standard is the display time standard of stored timestamps.
	Standard calendar.Standard
	// Logger receives warnings about dropped keys and values. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

func (o *Options) calendar() calendar.Calendar {
	if o.Calendar == nil {
		return calendar.Excel{}
	}
	return o.Calendar
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Fingerprint hashes parts into a stable hex digest. Each part is rendered
// with fmt and framed as a netstring so that ("ab", "c") and ("a", "bc")
// differ.
func Fingerprint(parts ...any) string {
	d := xxhash.New()
	for _, p := range parts {
		s := fmt.Sprint(p)
		_, _ = fmt.Fprintf(d, "%d:%s,", len(s), s)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
