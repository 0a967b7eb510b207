// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
)

// MmapStorage is the read-only, memory-mapped [Storage] backing of
// spec.md §4.2. SetBaseAt, SetCheckAt, and AddValue return
// ErrInvalidOperation, since the mapping is opened read-only.
//
// The OS mapping's lifetime is bound to the MmapStorage value; Close
// releases it (and the advisory file lock taken alongside it) on every
// exit path. The base/check arrays and the value table are parsed into
// heap memory at open time, so byte slices returned by ValueAt do not
// borrow from the mapping.
type MmapStorage struct {
	file   *os.File
	lock   *flock.Flock
	mapped mmap.MMap

	base       []int32
	check      []int32
	values     [][]byte
	valueCount int
	fixedSize  int
}

// OpenMmapStorage memory-maps path read-only and takes a shared advisory
// lock for the mapping's lifetime, per the resource policy of
// SPEC_FULL.md §4.2. The checksum trailer is verified once, at open time.
func OpenMmapStorage(path string) (*MmapStorage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrCorruptFormat, path, err)
	}

	lock := flock.New(path)
	locked, err := lock.TryRLock()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		file.Close()
		return nil, fmt.Errorf("%w: could not acquire shared lock on %s", ErrInvalidOperation, path)
	}

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		lock.Unlock()
		file.Close()
		return nil, fmt.Errorf("%w: mapping %s: %v", ErrCorruptFormat, path, err)
	}

	storage, err := newMmapStorage(file, lock, mapped)
	if err != nil {
		mapped.Unmap()
		lock.Unlock()
		file.Close()
		return nil, err
	}
	return storage, nil
}

// newMmapStorage parses the mapping's bytes once at open time. The parsed
// base/check/value slices are then indexed directly on every read; the
// mapping itself is retained only for its lifetime-ownership semantics
// (Close unmaps and releases the lock).
func newMmapStorage(file *os.File, lock *flock.Flock, mapped mmap.MMap) (*MmapStorage, error) {
	parsed, err := deserializeArrays(&mmapByteReader{data: mapped})
	if err != nil {
		return nil, err
	}
	return &MmapStorage{
		file:       file,
		lock:       lock,
		mapped:     mapped,
		base:       parsed.base,
		check:      parsed.check,
		values:     parsed.values,
		valueCount: len(parsed.values),
		fixedSize:  parsed.fixedSize,
	}, nil
}

// mmapByteReader adapts the mapped bytes to io.Reader for
// deserializeArrays, which reads the whole stream into heap memory before
// parsing it.
type mmapByteReader struct {
	data []byte
	pos  int
}

func (r *mmapByteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (s *MmapStorage) Size() int { return len(s.base) }

func (s *MmapStorage) BaseAt(i int) (int32, error) {
	if i < 0 || i >= len(s.base) {
		return 0, fmt.Errorf("%w: base[%d], size=%d", ErrOutOfRange, i, len(s.base))
	}
	return s.base[i], nil
}

func (s *MmapStorage) CheckAt(i int) (int32, error) {
	if i < 0 || i >= len(s.check) {
		return 0, fmt.Errorf("%w: check[%d], size=%d", ErrOutOfRange, i, len(s.check))
	}
	return s.check[i], nil
}

func (s *MmapStorage) SetBaseAt(i int, v int32) error {
	return fmt.Errorf("%w: MmapStorage is read-only", ErrInvalidOperation)
}

func (s *MmapStorage) SetCheckAt(i int, v int32) error {
	return fmt.Errorf("%w: MmapStorage is read-only", ErrInvalidOperation)
}

func (s *MmapStorage) ValueCount() int { return s.valueCount }

func (s *MmapStorage) ValueAt(vindex int) ([]byte, bool, error) {
	if vindex < 0 || vindex >= s.valueCount {
		return nil, false, fmt.Errorf("%w: value[%d], count=%d", ErrOutOfRange, vindex, s.valueCount)
	}
	return s.values[vindex], true, nil
}

func (s *MmapStorage) AddValue(b []byte) (int, error) {
	return 0, fmt.Errorf("%w: MmapStorage is read-only", ErrInvalidOperation)
}

func (s *MmapStorage) Serialize(w io.Writer, opts ...SerializeOption) (int64, error) {
	return serializeArrays(w, s.base, s.check, s.values, s.fixedSize, opts...)
}

func (s *MmapStorage) SizeOfSerialized(opts ...SerializeOption) (int64, error) {
	return sizeOfSerializedArrays(s.base, s.check, s.values, s.fixedSize, opts...)
}

// Close releases the OS mapping and the advisory lock taken in
// OpenMmapStorage, on every exit path. Value-table slices previously
// returned by ValueAt are heap copies and stay valid after Close.
func (s *MmapStorage) Close() error {
	var firstErr error
	if err := s.mapped.Unmap(); err != nil {
		firstErr = err
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
