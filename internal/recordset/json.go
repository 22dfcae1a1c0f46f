// Reads and writes JSON datasources.

package recordset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/maruel/recset/internal/normalize"
)

func (c *Collection[T]) decodeJSON(r io.Reader) error {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return fmt.Errorf("failed to read json: %w", err)
	}
	d := json.NewDecoder(br)
	d.UseNumber()
	var elems []map[string]any
	if err := d.Decode(&elems); err != nil {
		return fmt.Errorf("failed to parse json: %w", err)
	}
	for i, m := range elems {
		if !hasID(m) {
			return fmt.Errorf("element %d: %w", i, ErrMissingID)
		}
		c.Update(c.schema.Decode(m))
	}
	return nil
}

func hasID(m map[string]any) bool {
	for k := range m {
		if normalize.ToRecordKey(k) == "id" {
			return true
		}
	}
	return false
}

func (c *Collection[T]) encodeJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetEscapeHTML(false)
	e.SetIndent("", strings.Repeat(" ", c.cfg.JSONIndent))
	if err := e.Encode(c.canonical()); err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	return nil
}
