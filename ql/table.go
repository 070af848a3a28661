package ql

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sw965/wren/matrix"
)

// Table is the value store. Get never fails for a missing key: it returns a
// zero vector of the table's action count. Set replaces the whole vector.
type Table interface {
	Get(matrix.Key) ([]float64, error)
	Set(matrix.Key, []float64) error
}

// MapTable is an in-memory Table. It has no locking: concurrent Get calls are
// fine, anything mixed with Set must be serialized by the caller.
type MapTable struct {
	n       int
	entries map[matrix.Key][]float64
}

// NewMapTable returns an empty table whose entries hold n action values.
func NewMapTable(n int) *MapTable {
	return &MapTable{n: n, entries: map[matrix.Key][]float64{}}
}

func (t *MapTable) ActionCount() int {
	return t.n
}

func (t *MapTable) Get(k matrix.Key) ([]float64, error) {
	v, ok := t.entries[k]
	if !ok {
		return make([]float64, t.n), nil
	}
	if len(v) != t.n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEntrySize, len(v), t.n)
	}
	return slices.Clone(v), nil
}

func (t *MapTable) Set(k matrix.Key, v []float64) error {
	if len(v) != t.n {
		return fmt.Errorf("%w: got %d, want %d", ErrEntrySize, len(v), t.n)
	}
	t.entries[k] = slices.Clone(v)
	return nil
}

func (t *MapTable) Len() int {
	return len(t.entries)
}

// Keys returns the stored keys in sorted order.
func (t *MapTable) Keys() []matrix.Key {
	return slices.Sorted(maps.Keys(t.entries))
}

// CopyTable writes every entry of src into dst, for example to load a
// pre-trained table into a persistent store.
func CopyTable(dst Table, src *MapTable) error {
	for _, k := range src.Keys() {
		v, err := src.Get(k)
		if err != nil {
			return err
		}
		if err := dst.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}
