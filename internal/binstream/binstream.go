// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

// Package binstream provides the byte-sequence serialization helpers used
// by the trie core's storage format: fixed-width big-endian integers and
// length-prefixed byte slices, read from or written to a flat stream. All
// integers on the wire are big-endian, per the storage format.
package binstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ErrTruncated is wrapped by any read that runs out of bytes before
// completing a field. Callers of this package typically translate it to a
// CorruptFormat error at the package boundary.
var ErrTruncated = fmt.Errorf("truncated byte stream")

// WriteUint32 writes v to w as a 4-byte big-endian integer.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a 4-byte big-endian integer from r.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteInt32 writes v to w as a 4-byte big-endian two's-complement integer.
func WriteInt32(w io.Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

// ReadInt32 reads a 4-byte big-endian two's-complement integer from r.
func ReadInt32(r io.Reader) (int32, error) {
	u, err := ReadUint32(r)
	return int32(u), err
}

// WriteUint64 writes v to w as an 8-byte big-endian integer.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint64 reads an 8-byte big-endian integer from r.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteBytes writes a uint32 big-endian length prefix followed by p.
func WriteBytes(w io.Writer, p []byte) error {
	if err := WriteUint32(w, uint32(len(p))); err != nil {
		return err
	}
	_, err := w.Write(p)
	return err
}

// ReadBytes reads a uint32 big-endian length prefix followed by that many
// bytes.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return buf, nil
}

// Uint32At decodes a big-endian uint32 at byte offset off within buf without
// bounds assertions beyond the slice itself; callers that read from a
// memory-mapped region are expected to have already validated off+4 is in
// range.
func Uint32At(buf []byte, off int) uint32 {
	return binary.BigEndian.Uint32(buf[off : off+4])
}

// Int32At decodes a big-endian two's-complement int32 at byte offset off.
func Int32At(buf []byte, off int) int32 {
	return int32(Uint32At(buf, off))
}

// PutUint32At encodes v as big-endian at byte offset off within buf.
func PutUint32At(buf []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(buf[off:off+4], v)
}

// PutInt32At encodes v as big-endian two's-complement at byte offset off.
func PutInt32At(buf []byte, off int, v int32) {
	PutUint32At(buf, off, uint32(v))
}
