// Keeps a set of content fingerprints alongside a collection.

package recordset

import (
	"maps"

	"github.com/maruel/recset/internal/record"
)

// Hashed is a collection that also indexes the content fingerprint of every
// record it ever held. Replacing a record keeps the fingerprint of the old
// content.
type Hashed[T record.Hasher] struct {
	*Collection[T]
	hashes map[string]struct{}
}

// NewHashed returns an empty hashed collection.
func NewHashed[T record.Hasher](cfg Config) (*Hashed[T], error) {
	c, err := New[T](cfg)
	if err != nil {
		return nil, err
	}
	return &Hashed[T]{Collection: c, hashes: map[string]struct{}{}}, nil
}

// LoadHashed returns a hashed collection populated from path.
func LoadHashed[T record.Hasher](path string, cfg Config) (*Hashed[T], error) {
	h, err := NewHashed[T](cfg)
	if err != nil {
		return nil, err
	}
	if err := h.Decode(path); err != nil {
		return nil, err
	}
	return h, nil
}

// Decode merges the records stored at path and rebuilds the fingerprint set,
// also when decoding fails midway.
func (h *Hashed[T]) Decode(path string) error {
	err := h.Collection.Decode(path)
	h.RefreshHashes()
	return err
}

// Update records the fingerprint of r, then inserts or replaces it.
func (h *Hashed[T]) Update(r T) {
	h.hashes[r.Hash()] = struct{}{}
	h.Collection.Update(r)
}

// RefreshHashes rebuilds the fingerprint set from the current records.
func (h *Hashed[T]) RefreshHashes() {
	h.hashes = make(map[string]struct{}, h.Len())
	for _, r := range h.All() {
		h.hashes[r.Hash()] = struct{}{}
	}
}

// HasHash reports whether hash is in the fingerprint set.
func (h *Hashed[T]) HasHash(hash string) bool {
	_, ok := h.hashes[hash]
	return ok
}

// Hashes returns a snapshot of the fingerprint set.
func (h *Hashed[T]) Hashes() map[string]struct{} {
	return maps.Clone(h.hashes)
}
