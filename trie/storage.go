// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/tetengo-go/tetengo/internal/binstream"
)

// Storage is the capability set both trie storage backings (dense,
// memory-mapped) implement: random access to the base/check arrays, random
// access to an append-only value table, and the ability to serialize
// themselves to the wire format below.
//
// SetBaseAt, SetCheckAt, and AddValue are build-time operations. The
// memory-mapped backing (obtained from Open) is read-only and returns
// [ErrInvalidOperation] for all three; a DenseStorage, including one
// obtained from Deserialize, accepts them.
type Storage interface {
	// Size returns the number of slots in the base/check arrays.
	Size() int
	// BaseAt returns base[i]. It returns ErrOutOfRange if i is out of
	// bounds.
	BaseAt(i int) (int32, error)
	// CheckAt returns check[i]. It returns ErrOutOfRange if i is out of
	// bounds.
	CheckAt(i int) (int32, error)
	// SetBaseAt sets base[i], growing the array if necessary. Build-time
	// only.
	SetBaseAt(i int, v int32) error
	// SetCheckAt sets check[i], growing the array if necessary. Build-time
	// only.
	SetCheckAt(i int, v int32) error
	// ValueCount returns the number of entries in the value table.
	ValueCount() int
	// ValueAt returns the encoded bytes for value index vindex, and
	// whether a value is present at that index (a slot may be absent in
	// the in-memory backing during an in-progress build).
	ValueAt(vindex int) ([]byte, bool, error)
	// AddValue appends an encoded value to the value table and returns
	// its index. Build-time only.
	AddValue(b []byte) (int, error)
	// Serialize writes this storage to w in the wire format described by
	// SPEC_FULL.md §4.2, returning the number of bytes written.
	Serialize(w io.Writer, opts ...SerializeOption) (int64, error)
	// SizeOfSerialized reports how many bytes Serialize would write,
	// without writing them.
	SizeOfSerialized(opts ...SerializeOption) (int64, error)
}

// serializeOptions collects the functional options accepted by Serialize.
type serializeOptions struct {
	densityFactor uint32
	compress      bool
}

// SerializeOption configures a call to Storage.Serialize.
type SerializeOption func(*serializeOptions)

// WithDensityFactor sets the informational density_factor header field.
// Per spec.md §9, readers never branch on this value; it exists purely as
// a build-time tuning hint recorded for diagnostic tooling.
func WithDensityFactor(factor uint32) SerializeOption {
	return func(o *serializeOptions) { o.densityFactor = factor }
}

// WithCompression wraps the variable-width values section (if any) with
// zstd compression. It has no effect when every value is the same fixed
// width, since that layout depends on contiguous, uncompressed slicing for
// O(1) random access.
func WithCompression() SerializeOption {
	return func(o *serializeOptions) { o.compress = true }
}

// compression flags recorded in the wire format immediately before the
// values section.
const (
	compressionNone byte = 0
	compressionZstd byte = 1
)

// checksumSize is the width, in bytes, of the big-endian xxHash64 (XXH64)
// trailer appended after the values section.
const checksumSize = 8

// serializeArrays is the shared implementation behind both storage
// backings' Serialize: it writes the header, interleaved base/check pairs,
// and the values section (fixed-width contiguous, or variable-width with a
// prefix-sum offset table), then a checksum trailer covering everything
// written before it.
func serializeArrays(w io.Writer, base, check []int32, values [][]byte, fixedSize int, opts ...SerializeOption) (int64, error) {
	o := serializeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	if err := binstream.WriteUint32(&buf, o.densityFactor); err != nil {
		return 0, err
	}
	if err := binstream.WriteUint32(&buf, uint32(len(base))); err != nil {
		return 0, err
	}
	for i := range base {
		if err := binstream.WriteInt32(&buf, base[i]); err != nil {
			return 0, err
		}
		if err := binstream.WriteInt32(&buf, check[i]); err != nil {
			return 0, err
		}
	}
	if err := binstream.WriteUint32(&buf, uint32(len(values))); err != nil {
		return 0, err
	}
	if err := binstream.WriteUint32(&buf, uint32(fixedSize)); err != nil {
		return 0, err
	}

	if fixedSize != 0 {
		buf.WriteByte(compressionNone)
		for _, v := range values {
			if len(v) != fixedSize {
				return 0, fmt.Errorf("%w: fixed value size mismatch: expected %d, got %d", ErrInvalidOperation, fixedSize, len(v))
			}
			buf.Write(v)
		}
	} else {
		offsets := make([]uint32, len(values)+1)
		packed := bytes.Buffer{}
		for i, v := range values {
			offsets[i] = uint32(packed.Len())
			packed.Write(v)
		}
		offsets[len(values)] = uint32(packed.Len())

		packedBytes := packed.Bytes()
		if o.compress {
			compressed, err := zstdCompress(packedBytes)
			if err != nil {
				return 0, fmt.Errorf("compressing values section: %w", err)
			}
			buf.WriteByte(compressionZstd)
			for _, off := range offsets {
				if err := binstream.WriteUint32(&buf, off); err != nil {
					return 0, err
				}
			}
			if err := binstream.WriteUint32(&buf, uint32(len(compressed))); err != nil {
				return 0, err
			}
			buf.Write(compressed)
		} else {
			buf.WriteByte(compressionNone)
			for _, off := range offsets {
				if err := binstream.WriteUint32(&buf, off); err != nil {
					return 0, err
				}
			}
			buf.Write(packedBytes)
		}
	}

	sum := xxhash.Sum64(buf.Bytes())
	if err := writeChecksum(&buf, sum); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// sizeOfSerializedArrays mirrors serializeArrays' output size without
// writing anything, by serializing to a discard buffer. Building the
// format is cheap relative to I/O, so this is not a separate size formula
// that could drift out of sync with serializeArrays.
func sizeOfSerializedArrays(base, check []int32, values [][]byte, fixedSize int, opts ...SerializeOption) (int64, error) {
	return serializeArrays(io.Discard, base, check, values, fixedSize, opts...)
}

func writeChecksum(w io.Writer, sum uint64) error {
	return binstream.WriteUint64(w, sum)
}

func zstdCompress(p []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(p, nil), nil
}

func zstdDecompress(p []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(p, nil)
}

// deserializedArrays is the parsed form of the wire format, shared by both
// storage backings' Deserialize/Open paths.
type deserializedArrays struct {
	densityFactor uint32
	base          []int32
	check         []int32
	values        [][]byte
	fixedSize     int
}

// deserializeArrays parses the wire format from r, verifying the checksum
// trailer and rejecting truncated input with ErrCorruptFormat.
func deserializeArrays(r io.Reader) (*deserializedArrays, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFormat, err)
	}
	if len(all) < checksumSize {
		return nil, fmt.Errorf("%w: stream shorter than checksum trailer", ErrCorruptFormat)
	}
	body, trailer := all[:len(all)-checksumSize], all[len(all)-checksumSize:]
	wantSum := xxhash.Sum64(body)
	gotSum, err := binstream.ReadUint64(bytes.NewReader(trailer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFormat, err)
	}
	if gotSum != wantSum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptFormat)
	}

	r2 := bytes.NewReader(body)
	densityFactor, err := binstream.ReadUint32(r2)
	if err != nil {
		return nil, fmt.Errorf("%w: reading density_factor: %v", ErrCorruptFormat, err)
	}
	arrayLen, err := binstream.ReadUint32(r2)
	if err != nil {
		return nil, fmt.Errorf("%w: reading array_len: %v", ErrCorruptFormat, err)
	}
	base := make([]int32, arrayLen)
	check := make([]int32, arrayLen)
	for i := range base {
		b, err := binstream.ReadInt32(r2)
		if err != nil {
			return nil, fmt.Errorf("%w: reading base[%d]: %v", ErrCorruptFormat, i, err)
		}
		c, err := binstream.ReadInt32(r2)
		if err != nil {
			return nil, fmt.Errorf("%w: reading check[%d]: %v", ErrCorruptFormat, i, err)
		}
		base[i], check[i] = b, c
	}
	valueCount, err := binstream.ReadUint32(r2)
	if err != nil {
		return nil, fmt.Errorf("%w: reading value_count: %v", ErrCorruptFormat, err)
	}
	fixedSize, err := binstream.ReadUint32(r2)
	if err != nil {
		return nil, fmt.Errorf("%w: reading fixed_value_size: %v", ErrCorruptFormat, err)
	}

	compressionFlag := make([]byte, 1)
	if _, err := io.ReadFull(r2, compressionFlag); err != nil {
		return nil, fmt.Errorf("%w: reading compression flag: %v", ErrCorruptFormat, err)
	}

	values := make([][]byte, valueCount)
	if fixedSize != 0 {
		for i := range values {
			v := make([]byte, fixedSize)
			if _, err := io.ReadFull(r2, v); err != nil {
				return nil, fmt.Errorf("%w: reading value[%d]: %v", ErrCorruptFormat, i, err)
			}
			values[i] = v
		}
	} else {
		offsets := make([]uint32, valueCount+1)
		for i := range offsets {
			off, err := binstream.ReadUint32(r2)
			if err != nil {
				return nil, fmt.Errorf("%w: reading offset[%d]: %v", ErrCorruptFormat, i, err)
			}
			offsets[i] = off
		}

		var packed []byte
		switch compressionFlag[0] {
		case compressionNone:
			packed, err = io.ReadAll(r2)
			if err != nil {
				return nil, fmt.Errorf("%w: reading packed values: %v", ErrCorruptFormat, err)
			}
		case compressionZstd:
			compressedLen, err := binstream.ReadUint32(r2)
			if err != nil {
				return nil, fmt.Errorf("%w: reading compressed length: %v", ErrCorruptFormat, err)
			}
			compressed := make([]byte, compressedLen)
			if _, err := io.ReadFull(r2, compressed); err != nil {
				return nil, fmt.Errorf("%w: reading compressed values: %v", ErrCorruptFormat, err)
			}
			packed, err = zstdDecompress(compressed)
			if err != nil {
				return nil, fmt.Errorf("%w: decompressing values: %v", ErrCorruptFormat, err)
			}
		default:
			return nil, fmt.Errorf("%w: unknown compression flag %d", ErrCorruptFormat, compressionFlag[0])
		}

		for i := 0; i < int(valueCount); i++ {
			lo, hi := offsets[i], offsets[i+1]
			if int(hi) > len(packed) || lo > hi {
				return nil, fmt.Errorf("%w: value[%d] offsets out of range", ErrCorruptFormat, i)
			}
			values[i] = packed[lo:hi]
		}
	}

	return &deserializedArrays{
		densityFactor: densityFactor,
		base:          base,
		check:         check,
		values:        values,
		fixedSize:     int(fixedSize),
	}, nil
}
