// Package recordset persists keyed collections of records as CSV tables or
// JSON arrays.
//
// A collection owns the identity of its records: it maps each ID to one
// record, allocates numeric IDs and picks the codec from the datasource
// extension. It is not safe for concurrent use.
package recordset

import (
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/maruel/recset/internal/record"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// noAutoIncrement is the allocation counter once a non-numeric ID was seen.
const noAutoIncrement = -1

// Collection is a keyed set of records of type T.
type Collection[T record.Record] struct {
	cfg        Config
	schema     *record.Schema[T]
	log        *slog.Logger
	datasource string

	items map[record.ID]T
	order []record.ID
	idSeq int64
}

// New returns an empty collection.
func New[T record.Record](cfg Config) (*Collection[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := record.SchemaOf[T](cfg.recordOptions())
	if err != nil {
		return nil, err
	}
	return &Collection[T]{
		cfg:    cfg,
		schema: s,
		log:    cfg.logger(),
		items:  make(map[record.ID]T),
	}, nil
}

// Load returns a collection populated from path.
func Load[T record.Record](path string, cfg Config) (*Collection[T], error) {
	c, err := New[T](cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Decode(path); err != nil {
		return nil, err
	}
	return c, nil
}

// Schema returns the field registry of T.
func (c *Collection[T]) Schema() *record.Schema[T] {
	return c.schema
}

// Datasource returns the path of the last decoded file.
func (c *Collection[T]) Datasource() string {
	return c.datasource
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	return len(c.order)
}

// All iterates over the records in insertion order.
func (c *Collection[T]) All() iter.Seq2[record.ID, T] {
	return func(yield func(record.ID, T) bool) {
		for _, id := range c.order {
			if !yield(id, c.items[id]) {
				return
			}
		}
	}
}

// IDs returns the record IDs in insertion order.
func (c *Collection[T]) IDs() []record.ID {
	out := make([]record.ID, len(c.order))
	copy(out, c.order)
	return out
}

// Update inserts r or replaces the record holding the same ID. A replaced
// record keeps its position.
func (c *Collection[T]) Update(r T) {
	id := r.GetID()
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = r
}

// NextID allocates the next numeric ID. When the collection holds a
// non-numeric ID, allocation is disabled: it logs a warning and returns "-1".
func (c *Collection[T]) NextID() string {
	if c.idSeq == noAutoIncrement {
		c.log.Warn("id auto-increment is not supported: collection holds non-numeric ids", "datasource", c.datasource)
		return strconv.Itoa(noAutoIncrement)
	}
	c.idSeq++
	return strconv.FormatInt(c.idSeq, 10)
}

// GetByID returns the only record whose ID has the textual form of id, so
// that IntID(7) finds a record stored under StringID("7").
//
// The returned error is a *LookupError wrapping ErrNotFound or ErrAmbiguous.
func (c *Collection[T]) GetByID(id record.ID) (T, error) {
	var found T
	n := 0
	for _, k := range c.order {
		if k.Equal(id) {
			found = c.items[k]
			n++
		}
	}
	switch n {
	case 0:
		var zero T
		return zero, &LookupError{ID: id, Count: n, Err: ErrNotFound}
	case 1:
		return found, nil
	default:
		var zero T
		return zero, &LookupError{ID: id, Count: n, Err: ErrAmbiguous}
	}
}

// Filter returns the records matching pred in insertion order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	var out []T
	for _, id := range c.order {
		if r := c.items[id]; pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Decode merges the records stored at path into the collection and makes
// path the datasource. A failed decode leaves the records read so far.
//
// When a flattened CSV row has both a leaf column "k" and compound "k::..."
// columns, the compound columns win and the leaf value is dropped with a
// warning.
func (c *Collection[T]) Decode(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	c.datasource = path
	f, err := os.Open(path) //nolint:gosec // G304: path is provided by the caller
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	switch format {
	case CSV:
		err = c.decodeCSV(f)
	case JSON:
		err = c.decodeJSON(f)
	}
	c.resetIDSeq()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	c.log.Info("decoded datasource", "path", path, "format", format, "items", c.Len())
	return nil
}

// Encode writes every record to path, or to the datasource when path is
// empty. The file is replaced atomically and keeps the permissions of the
// file it replaces; new files are created 0644.
func (c *Collection[T]) Encode(path string) error {
	if path == "" {
		path = c.datasource
	}
	if path == "" {
		return ErrNoDatasource
	}
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		// No-op once renamed.
		_ = os.Remove(tmp.Name())
	}()
	switch format {
	case CSV:
		err = c.encodeCSV(tmp)
	case JSON:
		err = c.encodeJSON(tmp)
	}
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	c.log.Info("encoded datasource", "path", path, "format", format, "items", c.Len())
	return nil
}

// Columns returns the CSV header Encode would write for the current records.
func (c *Collection[T]) Columns() []string {
	header, _ := c.table()
	return header
}

// resetIDSeq sets the allocation counter to the largest numeric ID, or
// disables allocation if any ID is not made only of digits.
func (c *Collection[T]) resetIDSeq() {
	c.idSeq = 0
	for _, id := range c.order {
		n, ok := id.Digits()
		if !ok {
			c.idSeq = noAutoIncrement
			return
		}
		c.idSeq = max(c.idSeq, n)
	}
}

// canonical returns the storage mapping of every record in insertion order.
func (c *Collection[T]) canonical() []*orderedmap.OrderedMap[string, any] {
	out := make([]*orderedmap.OrderedMap[string, any], 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.schema.Encode(c.items[id]))
	}
	return out
}

// baseNames returns the declared storage names followed by any other
// top-level key, in first-seen order.
func (c *Collection[T]) baseNames(maps []*orderedmap.OrderedMap[string, any]) []string {
	names := c.schema.FieldNames()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, om := range maps {
		for p := om.Oldest(); p != nil; p = p.Next() {
			if !seen[p.Key] {
				seen[p.Key] = true
				names = append(names, p.Key)
			}
		}
	}
	return names
}
