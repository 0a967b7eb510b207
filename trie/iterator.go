// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

// Iterator enumerates the entries found by [Trie.CommonPrefixSearch]: every
// stored key beginning with the search prefix, depth-first with children
// ordered by byte value (EOK first), yielding each key exactly once. It is
// lazy (each Next call traverses only as far as the next matching entry), finite
// (bounded by the subtree's key count), and safe to abandon early. A new
// call to CommonPrefixSearch always starts a fresh Iterator, so recalling a
// search never observes state left behind by a previous one.
type Iterator[V any] struct {
	trie   *Trie[V]
	prefix []byte
	path   []byte // suffix bytes traversed past prefix on the current DFS path
	stack  []iterFrame
	err    error
}

// iterFrame is one node on the current depth-first path. next is the next
// byte value (0..256, 0 being the EOK sentinel) to try a transition on;
// 256 means every transition from this node has been tried.
type iterFrame struct {
	node int
	next int
}

// Next advances the iterator and returns the next matching entry, in
// depth-first, EOK-first order. It returns ok=false (with a nil error)
// once every key beginning with the search prefix has been returned.
func (it *Iterator[V]) Next() (Entry[V], bool, error) {
	if it.err != nil {
		return Entry[V]{}, false, it.err
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.next > 255 {
			it.stack = it.stack[:len(it.stack)-1]
			if len(it.path) > 0 {
				it.path = it.path[:len(it.path)-1]
			}
			continue
		}

		b := byte(top.next)
		child, ok, err := it.trie.step(top.node, b)
		top.next++
		if err != nil {
			it.err = err
			return Entry[V]{}, false, err
		}
		if !ok {
			continue
		}

		if b == EOK {
			value, err := it.trie.decodeLeaf(child)
			if err != nil {
				it.err = err
				return Entry[V]{}, false, err
			}
			key := make([]byte, 0, len(it.prefix)+len(it.path))
			key = append(key, it.prefix...)
			key = append(key, it.path...)
			return Entry[V]{Key: key, Value: value}, true, nil
		}

		it.path = append(it.path, b)
		it.stack = append(it.stack, iterFrame{node: child, next: 0})
	}
	return Entry[V]{}, false, nil
}
