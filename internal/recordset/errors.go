package recordset

import (
	"errors"
	"fmt"

	"github.com/maruel/recset/internal/record"
)

var (
	// ErrUnsupportedFormat is returned for a datasource whose extension is
	// neither .csv nor .json.
	ErrUnsupportedFormat = errors.New("unsupported datasource format")
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguous is returned when more than one record matches a lookup.
	ErrAmbiguous = errors.New("more than one record found")
	// ErrNoHeader is returned for a CSV datasource without a header row.
	ErrNoHeader = errors.New("missing csv header")
	// ErrMissingID is returned for a JSON element without an id.
	ErrMissingID = errors.New("missing id")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrNoDatasource is returned by Encode when no path is known.
	ErrNoDatasource = errors.New("no datasource")
)

// LookupError reports an exactly-one lookup that matched zero or several
// records.
type LookupError struct {
	ID    record.ID
	Count int
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("id %q: %v (%d matches)", e.ID.String(), e.Err, e.Count)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
