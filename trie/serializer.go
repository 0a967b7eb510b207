// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"encoding/binary"
	"fmt"
)

// ValueSerializer is the pluggable per-value codec contract of the trie's
// value table: Encode produces the bytes stored for a value, and Decode
// recovers a value from those bytes. Implementations must be total over
// their domain/codomain; a Decode failure surfaces to callers as
// [ErrCorruptFormat].
//
// FixedSize reports the encoded width in bytes, or 0 if values in this
// codec may have different encoded lengths. The storage layer does not
// consult it: it uses the contiguous values-section layout when every
// stored value has the same encoded width, and the offset-table layout
// otherwise.
type ValueSerializer[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(b []byte) (V, error)
	FixedSize() int
}

// Uint32Serializer encodes values as 4-byte big-endian unsigned integers.
type Uint32Serializer struct{}

func (Uint32Serializer) Encode(v uint32) ([]byte, error) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b, nil
}

func (Uint32Serializer) Decode(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: expected 4 bytes, got %d", ErrCorruptFormat, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func (Uint32Serializer) FixedSize() int { return 4 }

// Int64Serializer encodes values as 8-byte big-endian two's-complement
// integers. This is the natural codec for lattice path costs stored
// alongside a key in a dictionary-backed Vocabulary.
type Int64Serializer struct{}

func (Int64Serializer) Encode(v int64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b, nil
}

func (Int64Serializer) Decode(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: expected 8 bytes, got %d", ErrCorruptFormat, len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (Int64Serializer) FixedSize() int { return 8 }

// StringSerializer encodes strings as their raw UTF-8 bytes, with no length
// prefix of its own; FixedSize reports 0. The storage layer tracks each
// value's length itself: strings of differing lengths are stored with the
// offset-table values-section layout, and strings that all share one length
// with the contiguous fixed-width layout.
type StringSerializer struct{}

func (StringSerializer) Encode(v string) ([]byte, error) {
	return []byte(v), nil
}

func (StringSerializer) Decode(b []byte) (string, error) {
	return string(b), nil
}

func (StringSerializer) FixedSize() int { return 0 }

// TuplePair is the value type produced by TupleSerializer2: a pair of
// heterogeneous fields, such as the (cost, ID) shape a lattice Vocabulary
// favors when looking up dictionary entries by key.
type TuplePair[A, B any] struct {
	First  A
	Second B
}

// TupleSerializer2 composes two fixed-width serializers into a codec for
// TuplePair[A, B]. Both component serializers must report a non-zero
// FixedSize; TupleSerializer2 itself is then fixed-width, the sum of the
// two.
type TupleSerializer2[A, B any] struct {
	First  ValueSerializer[A]
	Second ValueSerializer[B]
}

func (t TupleSerializer2[A, B]) Encode(v TuplePair[A, B]) ([]byte, error) {
	firstBytes, err := t.First.Encode(v.First)
	if err != nil {
		return nil, fmt.Errorf("encoding first field: %w", err)
	}
	secondBytes, err := t.Second.Encode(v.Second)
	if err != nil {
		return nil, fmt.Errorf("encoding second field: %w", err)
	}
	return append(firstBytes, secondBytes...), nil
}

func (t TupleSerializer2[A, B]) Decode(b []byte) (TuplePair[A, B], error) {
	var zero TuplePair[A, B]
	firstSize := t.First.FixedSize()
	secondSize := t.Second.FixedSize()
	if firstSize == 0 || secondSize == 0 {
		return zero, fmt.Errorf("%w: TupleSerializer2 requires fixed-width components", ErrInvalidOperation)
	}
	if len(b) != firstSize+secondSize {
		return zero, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptFormat, firstSize+secondSize, len(b))
	}
	first, err := t.First.Decode(b[:firstSize])
	if err != nil {
		return zero, fmt.Errorf("decoding first field: %w", err)
	}
	second, err := t.Second.Decode(b[firstSize:])
	if err != nil {
		return zero, fmt.Errorf("decoding second field: %w", err)
	}
	return TuplePair[A, B]{First: first, Second: second}, nil
}

func (t TupleSerializer2[A, B]) FixedSize() int {
	a, b := t.First.FixedSize(), t.Second.FixedSize()
	if a == 0 || b == 0 {
		return 0
	}
	return a + b
}
