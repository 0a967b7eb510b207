// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"fmt"
	"io"
)

// DenseStorage is the in-memory [Storage] backing: base and check as
// growable slices of signed 32-bit integers, and the value table as an
// ordered slice of encoded values (or nil for an absent slot). It supports
// both building (via SetBaseAt/SetCheckAt/AddValue) and read access.
type DenseStorage struct {
	base      []int32
	check     []int32
	values    [][]byte
	present   []bool
	fixedSize int // 0 until the first value is added, and once added values differ in width
}

// NewDenseStorage returns an empty DenseStorage with a single root slot
// (index 0), matching the legal empty-trie shape of spec.md §4.4.
func NewDenseStorage() *DenseStorage {
	return &DenseStorage{
		base:  []int32{0},
		check: []int32{0},
	}
}

func (s *DenseStorage) Size() int { return len(s.base) }

func (s *DenseStorage) ensureSize(n int) {
	if n <= len(s.base) {
		return
	}
	grown := make([]int32, n)
	copy(grown, s.base)
	s.base = grown

	grownCheck := make([]int32, n)
	copy(grownCheck, s.check)
	s.check = grownCheck
}

func (s *DenseStorage) BaseAt(i int) (int32, error) {
	if i < 0 || i >= len(s.base) {
		return 0, fmt.Errorf("%w: base[%d], size=%d", ErrOutOfRange, i, len(s.base))
	}
	return s.base[i], nil
}

func (s *DenseStorage) CheckAt(i int) (int32, error) {
	if i < 0 || i >= len(s.check) {
		return 0, fmt.Errorf("%w: check[%d], size=%d", ErrOutOfRange, i, len(s.check))
	}
	return s.check[i], nil
}

func (s *DenseStorage) SetBaseAt(i int, v int32) error {
	if i < 0 {
		return fmt.Errorf("%w: negative index %d", ErrOutOfRange, i)
	}
	s.ensureSize(i + 1)
	s.base[i] = v
	return nil
}

func (s *DenseStorage) SetCheckAt(i int, v int32) error {
	if i < 0 {
		return fmt.Errorf("%w: negative index %d", ErrOutOfRange, i)
	}
	s.ensureSize(i + 1)
	s.check[i] = v
	return nil
}

func (s *DenseStorage) ValueCount() int { return len(s.values) }

func (s *DenseStorage) ValueAt(vindex int) ([]byte, bool, error) {
	if vindex < 0 || vindex >= len(s.values) {
		return nil, false, fmt.Errorf("%w: value[%d], count=%d", ErrOutOfRange, vindex, len(s.values))
	}
	return s.values[vindex], s.present[vindex], nil
}

func (s *DenseStorage) AddValue(b []byte) (int, error) {
	if len(s.values) == 0 {
		s.fixedSize = len(b)
	} else if s.fixedSize != len(b) {
		s.fixedSize = 0 // mixed widths: falls back to variable-width layout
	}
	s.values = append(s.values, b)
	s.present = append(s.present, true)
	return len(s.values) - 1, nil
}

func (s *DenseStorage) Serialize(w io.Writer, opts ...SerializeOption) (int64, error) {
	return serializeArrays(w, s.base, s.check, s.values, s.fixedSize, opts...)
}

func (s *DenseStorage) SizeOfSerialized(opts ...SerializeOption) (int64, error) {
	return sizeOfSerializedArrays(s.base, s.check, s.values, s.fixedSize, opts...)
}

// DeserializeDenseStorage reads the wire format of SPEC_FULL.md §4.2 from r
// into a fully in-memory DenseStorage.
func DeserializeDenseStorage(r io.Reader) (*DenseStorage, error) {
	parsed, err := deserializeArrays(r)
	if err != nil {
		return nil, err
	}
	present := make([]bool, len(parsed.values))
	for i := range present {
		present[i] = true
	}
	return &DenseStorage{
		base:      parsed.base,
		check:     parsed.check,
		values:    parsed.values,
		present:   present,
		fixedSize: parsed.fixedSize,
	}, nil
}
