// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"github.com/google/btree"
)

// Entry is a single (key, value) pair, the unit the double-array builder
// consumes. Keys are non-empty byte sequences; see spec.md §3.1.
type Entry[V any] struct {
	Key   []byte
	Value V
}

// OrderedMap is an ordered key→value mapping backed by a B-tree, used to
// satisfy the "ordered finite mapping" input contract of the builder
// (spec.md §4.3 item 1) without requiring callers to assemble and sort a
// slice themselves. Keys are compared lexicographically byte-wise, matching
// spec.md §3.1.
type OrderedMap[V any] struct {
	tree *btree.BTreeG[mapItem[V]]
}

type mapItem[V any] struct {
	key   []byte
	value V
}

func lessMapItems[V any](a, b mapItem[V]) bool {
	return compareBytes(a.key, b.key) < 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{tree: btree.NewG(32, lessMapItems[V])}
}

// Put inserts or overwrites the value for key. It reports whether a value
// for key already existed.
func (m *OrderedMap[V]) Put(key []byte, value V) bool {
	keyCopy := append([]byte(nil), key...)
	_, existed := m.tree.ReplaceOrInsert(mapItem[V]{key: keyCopy, value: value})
	return existed
}

// Len returns the number of entries in the map.
func (m *OrderedMap[V]) Len() int { return m.tree.Len() }

// Entries returns the map's (key, value) pairs in lexicographic key order,
// ready to hand to [Build].
func (m *OrderedMap[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], 0, m.tree.Len())
	m.tree.Ascend(func(item mapItem[V]) bool {
		entries = append(entries, Entry[V]{Key: item.key, Value: item.value})
		return true
	})
	return entries
}
