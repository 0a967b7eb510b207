// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"fmt"
	"log"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pbnjay/memory"
)

// ProgressFunc is called after each leaf is placed during a build, with the
// number of keys placed so far and the total key count. done is
// monotonically non-decreasing and done==total on the final call.
type ProgressFunc func(done, total int)

// BuildOption configures a call to [Build].
type BuildOption func(*buildOptions)

type buildOptions struct {
	progress      ProgressFunc
	metrics       *BuildMetrics
	sizeHintBytes int // initial base/check capacity hint, in slots; 0 = derive automatically
}

// WithProgress registers a callback invoked after each key is placed,
// satisfying the monotonic (done_keys, total_keys) progress contract of
// spec.md §4.3 item 4.
func WithProgress(fn ProgressFunc) BuildOption {
	return func(o *buildOptions) { o.progress = fn }
}

// WithMetrics records build duration and throughput to m, if non-nil.
func WithMetrics(m *BuildMetrics) BuildOption {
	return func(o *buildOptions) { o.metrics = m }
}

// WithInitialCapacity replaces the builder's automatic capacity hint with
// an explicit slot count. The hint is reported in the build log only; the
// base/check arrays start at a single slot and grow on demand whatever its
// value.
func WithInitialCapacity(slots int) BuildOption {
	return func(o *buildOptions) { o.sizeHintBytes = slots }
}

// defaultInitialCapacity derives the builder's capacity hint from the key
// count, padded generously, and capped against a fraction of free system
// memory. Build reports the hint in its log; it does not pre-size the
// base/check arrays.
func defaultInitialCapacity(keyCount int) int {
	const perKeyEstimate = 4 // average observed slots per key in a byte-keyed double array
	want := keyCount*perKeyEstimate + 256
	if free := memory.FreeMemory(); free > 0 {
		// Cap the hint at ~1/8th of free memory's worth of int32 pairs
		// (8 bytes/slot).
		capSlots := int(free / 8 / 8)
		if capSlots > 0 && want > capSlots {
			want = capSlots
		}
	}
	if want < 256 {
		want = 256
	}
	return want
}

// Build constructs a [Trie] from a sorted, duplicate-free set of entries
// using the double-array algorithm of spec.md §4.3: group by common-prefix
// depth, search upward from a cached free cursor for a base value placing
// every child at an unoccupied slot (tie-break smallest base), and recurse.
//
// entries need not be pre-sorted; Build sorts a copy lexicographically by
// key before building, then rejects exact duplicate keys with
// ErrDuplicateKey.
func Build[V any](entries []Entry[V], serializer ValueSerializer[V], opts ...BuildOption) (*Trie[V], error) {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	sorted := make([]Entry[V], len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return compareBytes(sorted[i].Key, sorted[j].Key) < 0
	})
	for i := 1; i < len(sorted); i++ {
		if compareBytes(sorted[i-1].Key, sorted[i].Key) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, sorted[i].Key)
		}
	}

	storage := NewDenseStorage()
	b := &builder[V]{
		storage:    storage,
		serializer: serializer,
		occupied:   roaring.New(),
		total:      len(sorted),
		progress:   o.progress,
	}

	capacityHint := o.sizeHintBytes
	if capacityHint == 0 {
		capacityHint = defaultInitialCapacity(len(sorted))
	}
	b.densityFactor = uint32(capacityHint)
	log.Printf("trie: building from %d keys (initial capacity hint %d slots)", len(sorted), capacityHint)

	stopTimer := func() {}
	if o.metrics != nil {
		stopTimer = o.metrics.startBuild(len(sorted))
	}

	items := make([]itemRef, len(sorted))
	b.values = make([]V, len(sorted))
	for i, e := range sorted {
		items[i] = itemRef{key: e.Key, index: i}
		b.values[i] = e.Value
	}

	if err := b.buildNode(0, items, 0); err != nil {
		stopTimer()
		return nil, err
	}
	stopTimer()
	if o.metrics != nil {
		o.metrics.observeSlots(storage.Size())
	}

	log.Printf("trie: build complete, %d slots used", storage.Size())

	return &Trie[V]{storage: storage, serializer: serializer}, nil
}

// itemRef is one (key, value-index-into-builder.values) pair flowing
// through the recursive partitioning; the value itself is looked up from
// builder.values only once its leaf is reached, to avoid copying V
// repeatedly through recursion.
type itemRef struct {
	key   []byte
	index int
}

type builder[V any] struct {
	storage       *DenseStorage
	serializer    ValueSerializer[V]
	values        []V
	occupied      *roaring.Bitmap
	total         int
	done          int
	progress      ProgressFunc
	densityFactor uint32
	cursor        int // free-slot search resumes here, advanced monotonically across calls
}

// buildNode places the children of the node at nodeIndex, derived by
// grouping items by the byte at position depth (or the EOK sentinel, byte
// value 0, for items whose key ends at depth), then recurses into any
// non-leaf child.
func (b *builder[V]) buildNode(nodeIndex int, items []itemRef, depth int) error {
	groups := groupByNextByte(items, depth)
	if len(groups) == 0 {
		return nil
	}

	base, err := b.findBase(groups)
	if err != nil {
		return err
	}
	if err := b.storage.SetBaseAt(nodeIndex, int32(base)); err != nil {
		return err
	}

	for _, g := range groups {
		t := base + int(g.b) + 1
		if err := b.storage.SetCheckAt(t, int32(nodeIndex+1)); err != nil {
			return err
		}
		b.occupied.Add(uint32(t))

		if g.b == EOK {
			if len(g.items) != 1 {
				return fmt.Errorf("%w: %q", ErrDuplicateKey, g.items[0].key)
			}
			item := g.items[0]
			encoded, err := b.serializer.Encode(b.values[item.index])
			if err != nil {
				return fmt.Errorf("encoding value for %q: %w", item.key, err)
			}
			vindex, err := b.storage.AddValue(encoded)
			if err != nil {
				return err
			}
			if err := b.storage.SetBaseAt(t, int32(-(vindex + 1))); err != nil {
				return err
			}
			b.done++
			if b.progress != nil {
				b.progress(b.done, b.total)
			}
			continue
		}

		if err := b.buildNode(t, g.items, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// EOK is the end-of-key sentinel byte value, conventionally 0x00 and never
// appearing inside a real key, per spec.md §3.1. It marks the transition a
// leaf's value hangs off of; external callers driving [Trie.Step]
// themselves (e.g. a trie-backed Vocabulary doing longest-prefix matching)
// use it to test for a stored key ending at a node.
const EOK byte = 0x00

type byteGroup struct {
	b     byte
	items []itemRef
}

// groupByNextByte partitions items into contiguous runs sharing the same
// byte at position depth (EOK first, then ascending byte value), matching
// the lexicographic, EOK-first child ordering spec.md §4.4 requires of
// common_prefix_search.
func groupByNextByte(items []itemRef, depth int) []byteGroup {
	var eokItems []itemRef
	byByte := make(map[byte][]itemRef)
	var order []byte

	for _, it := range items {
		if len(it.key) == depth {
			eokItems = append(eokItems, it)
			continue
		}
		c := it.key[depth]
		if _, ok := byByte[c]; !ok {
			order = append(order, c)
		}
		byByte[c] = append(byByte[c], it)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	groups := make([]byteGroup, 0, len(order)+1)
	if len(eokItems) > 0 {
		groups = append(groups, byteGroup{b: EOK, items: eokItems})
	}
	for _, c := range order {
		groups = append(groups, byteGroup{b: c, items: byByte[c]})
	}
	return groups
}

// findBase searches upward from a cached free cursor for the smallest base
// such that every group's slot base+b+1 is unoccupied, matching the
// free-cursor heuristic of spec.md §4.3 item 2. Occupancy is tested against
// a roaring bitmap mirror of the check array's nonzero slots, rather than
// the storage itself, so membership tests stay O(1) regardless of how
// sparse the array is.
func (b *builder[V]) findBase(groups []byteGroup) (int, error) {
	firstByte := int(groups[0].b)
	lastByte := int(groups[len(groups)-1].b)

	candidate := b.cursor
	for {
		base := candidate - firstByte
		if base < 0 {
			candidate++
			continue
		}
		maxSlot := base + lastByte + 1
		if maxSlot >= b.storage.Size() {
			if err := b.growStorage(maxSlot + 1); err != nil {
				return 0, err
			}
		}

		ok := true
		for _, g := range groups {
			if b.occupied.Contains(uint32(base + int(g.b) + 1)) {
				ok = false
				break
			}
		}
		if ok {
			b.cursor = candidate
			return base, nil
		}
		candidate++
	}
}

// growStorage extends the dense storage's base/check arrays to at least n
// slots by writing a sentinel at the new high-water mark, which also
// forces DenseStorage.ensureSize to expand.
func (b *builder[V]) growStorage(n int) error {
	return b.storage.SetCheckAt(n-1, 0)
}
