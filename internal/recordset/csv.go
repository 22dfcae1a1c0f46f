// Reads and writes CSV datasources.

package recordset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/maruel/recset/internal/flatten"
	"github.com/maruel/recset/internal/normalize"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const bom = "\ufeff"

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r *bufio.Reader) error {
	b, err := r.Peek(len(bom))
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if string(b) == bom {
		_, err = r.Discard(len(bom))
		return err
	}
	return nil
}

func (c *Collection[T]) decodeCSV(r io.Reader) error {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return fmt.Errorf("failed to read csv: %w", err)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read csv header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = c.columnKey(h)
	}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read csv row: %w", err)
		}
		row := make(flatten.Row, len(names))
		for i, name := range names {
			if name == "" {
				continue
			}
			if i < len(fields) {
				row[name] = fields[i]
			} else {
				row[name] = ""
			}
		}
		var m map[string]any
		if c.cfg.Flatten {
			for _, k := range flatten.Shadowed(row, c.cfg.Separator) {
				c.log.Warn("leaf column shadowed by nested columns", "datasource", c.datasource, "column", k, "value", row[k])
			}
			m = flatten.Unflatten(row, c.cfg.Separator)
		} else {
			m = row
		}
		c.Update(c.schema.Decode(m))
	}
}

// columnKey translates the first segment of a compound column name to its
// record form. Nested segments are kept verbatim: struct fields match them
// when decoding and open mappings must write them back unchanged. Empty names
// are dropped.
func (c *Collection[T]) columnKey(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	base, rest, nested := strings.Cut(h, c.cfg.Separator)
	base = normalize.ToRecordKey(base)
	if !nested {
		return base
	}
	return base + c.cfg.Separator + rest
}

// table returns the header and rows Encode writes.
func (c *Collection[T]) table() ([]string, []flatten.Row) {
	maps := c.canonical()
	names := c.baseNames(maps)
	rows := make([]flatten.Row, 0, len(maps))
	if !c.cfg.Flatten {
		for _, om := range maps {
			row := make(flatten.Row, om.Len())
			for p := om.Oldest(); p != nil; p = p.Next() {
				row[p.Key] = p.Value
			}
			rows = append(rows, row)
		}
		return names, rows
	}
	for _, om := range maps {
		rows = append(rows, flatten.Flatten(om, c.cfg.Separator))
	}
	return flatten.ReconcileColumns(names, rows, c.cfg.Separator), rows
}

func (c *Collection[T]) encodeCSV(w io.Writer) error {
	header, rows := c.table()
	if c.cfg.CSVBOM {
		if _, err := io.WriteString(w, bom); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	fields := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			s, err := cell(row[col])
			if err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			fields[i] = s
		}
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cell renders a storage value as CSV text. Nested values left by the
// unflattened mode are written as JSON.
func cell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case []any, map[string]any, *orderedmap.OrderedMap[string, any]:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}
