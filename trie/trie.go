// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"fmt"
	"io"
)

// Trie is a read-only double-array trie over []byte keys, as
// described by spec.md §4.4. The zero value is not usable; obtain one from
// [Build], [Deserialize], or [Open].
type Trie[V any] struct {
	storage    Storage
	serializer ValueSerializer[V]
	root       int
}

// Root returns the node index a caller should start from when driving
// [Trie.Step] itself, e.g. a trie-backed Vocabulary (spec.md §6) doing its
// own longest-prefix/common-prefix matching. It is 0 for a trie obtained
// from [Build]/[Deserialize]/[Open], and the node [Trie.Subtrie] walked to
// for a subtrie view.
func (t *Trie[V]) Root() int { return t.root }

// Step follows the transition from node on byte b, returning the target
// node index and whether the transition exists, per spec.md §4.4. b may be
// [EOK] to test for a stored key ending at node. Callers hold node opaquely
// (the root is [Trie.Root]); Step is the primitive searches and
// longest-prefix scans drive themselves, the same primitive Lookup and
// CommonPrefixSearch are built from.
func (t *Trie[V]) Step(node int, b byte) (int, bool, error) {
	return t.step(node, b)
}

// step follows the transition from node on byte b, returning the target
// node index and whether the transition exists. b may be the EOK sentinel
// (0x00) to test for a stored key ending at node.
func (t *Trie[V]) step(node int, b byte) (int, bool, error) {
	base, err := t.storage.BaseAt(node)
	if err != nil {
		return 0, false, err
	}
	if base < 0 {
		// node is a leaf encoding a value index; it has no children.
		return 0, false, nil
	}
	target := int(base) + int(b) + 1
	if target < 0 || target >= t.storage.Size() {
		return 0, false, nil
	}
	check, err := t.storage.CheckAt(target)
	if err != nil {
		return 0, false, err
	}
	if check != int32(node+1) {
		return 0, false, nil
	}
	return target, true, nil
}

// decodeLeaf reads and decodes the value stored at leaf, a node index whose
// base encodes a negative value-table index per spec.md §3.1.
func (t *Trie[V]) decodeLeaf(leaf int) (V, error) {
	var zero V
	base, err := t.storage.BaseAt(leaf)
	if err != nil {
		return zero, err
	}
	if base >= 0 {
		return zero, fmt.Errorf("%w: node %d is not a leaf", ErrCorruptFormat, leaf)
	}
	vindex := int(-base) - 1
	encoded, present, err := t.storage.ValueAt(vindex)
	if err != nil {
		return zero, err
	}
	if !present {
		return zero, fmt.Errorf("%w: value[%d] absent", ErrCorruptFormat, vindex)
	}
	value, err := t.serializer.Decode(encoded)
	if err != nil {
		return zero, fmt.Errorf("%w: decoding value[%d]: %w", ErrCorruptFormat, vindex, err)
	}
	return value, nil
}

// Lookup returns the value stored for key, and reports whether key is
// present. It returns ErrInvalidOperation if key contains the reserved EOK
// sentinel byte (0x00), which per spec.md §3.1 never appears in a real key.
func (t *Trie[V]) Lookup(key []byte) (V, bool, error) {
	var zero V
	node := t.root
	for _, b := range key {
		if b == EOK {
			return zero, false, fmt.Errorf("%w: key contains reserved byte 0x00", ErrInvalidOperation)
		}
		next, ok, err := t.step(node, b)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			return zero, false, nil
		}
		node = next
	}
	leaf, ok, err := t.step(node, EOK)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	value, err := t.decodeLeaf(leaf)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// CommonPrefixSearch returns an [Iterator] over every stored key beginning
// with prefix, depth-first in lexicographic (EOK-first) order, per
// spec.md §4.4.
func (t *Trie[V]) CommonPrefixSearch(prefix []byte) *Iterator[V] {
	node := t.root
	for _, b := range prefix {
		if b == EOK {
			return &Iterator[V]{err: fmt.Errorf("%w: prefix contains reserved byte 0x00", ErrInvalidOperation)}
		}
		next, ok, err := t.step(node, b)
		if err != nil {
			return &Iterator[V]{err: err}
		}
		if !ok {
			return &Iterator[V]{}
		}
		node = next
	}
	prefixCopy := append([]byte(nil), prefix...)
	return &Iterator[V]{trie: t, prefix: prefixCopy, stack: []iterFrame{{node: node, next: 0}}}
}

// Subtrie returns a view of t rooted at the node reached by following
// prefix, sharing the same underlying storage. It reports ok=false if
// prefix does not lead to an existing node.
func (t *Trie[V]) Subtrie(prefix []byte) (sub *Trie[V], ok bool, err error) {
	node := t.root
	for _, b := range prefix {
		if b == EOK {
			return nil, false, fmt.Errorf("%w: prefix contains reserved byte 0x00", ErrInvalidOperation)
		}
		next, stepOK, stepErr := t.step(node, b)
		if stepErr != nil {
			return nil, false, stepErr
		}
		if !stepOK {
			return nil, false, nil
		}
		node = next
	}
	return &Trie[V]{storage: t.storage, serializer: t.serializer, root: node}, true, nil
}

// Size returns the number of keys stored in the trie.
func (t *Trie[V]) Size() int { return t.storage.ValueCount() }

// IsEmpty reports whether the trie holds no keys.
func (t *Trie[V]) IsEmpty() bool { return t.Size() == 0 }

// Serialize writes t to w in the wire format of SPEC_FULL.md §4.2.
func (t *Trie[V]) Serialize(w io.Writer, opts ...SerializeOption) (int64, error) {
	return t.storage.Serialize(w, opts...)
}

// SizeOfSerialized reports how many bytes Serialize would write, without
// writing them.
func (t *Trie[V]) SizeOfSerialized(opts ...SerializeOption) (int64, error) {
	return t.storage.SizeOfSerialized(opts...)
}

// Deserialize reads a trie previously written by Serialize from r into an
// in-memory [DenseStorage] backing.
func Deserialize[V any](r io.Reader, serializer ValueSerializer[V]) (*Trie[V], error) {
	storage, err := DeserializeDenseStorage(r)
	if err != nil {
		return nil, err
	}
	return &Trie[V]{storage: storage, serializer: serializer}, nil
}

// Open memory-maps path read-only and returns a Trie backed by it. Callers
// must call Close when done; a Trie obtained from Open is read-only, so
// calls that would mutate its storage return ErrInvalidOperation (there are
// none exported directly on Trie, but the underlying storage enforces this
// if accessed through a type assertion).
func Open[V any](path string, serializer ValueSerializer[V]) (*Trie[V], error) {
	storage, err := OpenMmapStorage(path)
	if err != nil {
		return nil, err
	}
	return &Trie[V]{storage: storage, serializer: serializer}, nil
}

// Close releases resources held by a Trie obtained from [Open]. It is a
// no-op for tries obtained from [Build] or [Deserialize].
func (t *Trie[V]) Close() error {
	if closer, ok := t.storage.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
