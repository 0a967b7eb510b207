// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetengo-go/tetengo/trie"
)

func TestUint32SerializerRoundTrip(t *testing.T) {
	s := trie.Uint32Serializer{}
	assert.Equal(t, 4, s.FixedSize())

	encoded, err := s.Encode(24)
	require.NoError(t, err)
	decoded, err := s.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), decoded)
}

func TestUint32SerializerDecodeWrongSize(t *testing.T) {
	_, err := trie.Uint32Serializer{}.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, trie.ErrCorruptFormat)
}

func TestStringSerializerRoundTrip(t *testing.T) {
	s := trie.StringSerializer{}
	assert.Equal(t, 0, s.FixedSize())

	encoded, err := s.Encode("Akasaka")
	require.NoError(t, err)
	decoded, err := s.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "Akasaka", decoded)
}

func TestTupleSerializer2RoundTrip(t *testing.T) {
	s := trie.TupleSerializer2[uint32, int64]{
		First:  trie.Uint32Serializer{},
		Second: trie.Int64Serializer{},
	}
	assert.Equal(t, 12, s.FixedSize())

	encoded, err := s.Encode(trie.TuplePair[uint32, int64]{First: 24, Second: -7})
	require.NoError(t, err)
	decoded, err := s.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), decoded.First)
	assert.Equal(t, int64(-7), decoded.Second)
}

func TestTupleSerializer2RequiresFixedWidthComponents(t *testing.T) {
	s := trie.TupleSerializer2[uint32, string]{
		First:  trie.Uint32Serializer{},
		Second: trie.StringSerializer{},
	}
	assert.Equal(t, 0, s.FixedSize())

	_, err := s.Decode([]byte{0, 0, 0, 24})
	assert.ErrorIs(t, err, trie.ErrInvalidOperation)
}
