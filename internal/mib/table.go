// Package mib holds the Mission Information Base data model: ordered tables,
// the record types produced by the extractors, their column layouts and the
// [EXPORT] annotation grammar embedded in source comments.
package mib

import (
	"iter"
	"slices"
)

// Table is the ordered, append-only result of one extraction pass.
// Keys are entry indexes starting at 1 and are always exactly 1..Len().
type Table[R any] struct {
	records []R
}

// NewTable creates an empty table.
func NewTable[R any]() *Table[R] {
	return &Table[R]{}
}

// Append adds a record and returns its key.
func (t *Table[R]) Append(r R) int {
	t.records = append(t.records, r)
	return len(t.records)
}

// Set overwrites the record stored under an existing key.
// Returns false if the key is not part of the table.
func (t *Table[R]) Set(key int, r R) bool {
	if key < 1 || key > len(t.records) {
		return false
	}
	t.records[key-1] = r
	return true
}

// Get returns the record stored under key.
func (t *Table[R]) Get(key int) (R, bool) {
	if key < 1 || key > len(t.records) {
		var zero R
		return zero, false
	}
	return t.records[key-1], true
}

// Len returns the number of entries.
func (t *Table[R]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Keys returns all keys in ascending order.
func (t *Table[R]) Keys() []int {
	keys := make([]int, len(t.records))
	for i := range t.records {
		keys[i] = i + 1
	}
	return keys
}

// All iterates over (key, record) pairs in key order.
func (t *Table[R]) All() iter.Seq2[int, R] {
	return func(yield func(int, R) bool) {
		if t == nil {
			return
		}
		for i, r := range t.records {
			if !yield(i+1, r) {
				return
			}
		}
	}
}

// Records returns a copy of all records in key order.
func (t *Table[R]) Records() []R {
	if t == nil {
		return nil
	}
	return slices.Clone(t.records)
}

// Update replaces every record with the result of fn. Used by finalisation
// passes that fill derived fields before a table is handed out.
func (t *Table[R]) Update(fn func(key int, r R) R) {
	for i, r := range t.records {
		t.records[i] = fn(i+1, r)
	}
}

// SortedBy returns a new table holding the records ordered by cmp.
// Records comparing equal keep their original relative order.
func SortedBy[R any](t *Table[R], cmp func(a, b R) int) *Table[R] {
	records := t.Records()
	slices.SortStableFunc(records, cmp)
	return &Table[R]{records: records}
}
