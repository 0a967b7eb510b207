// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetengo-go/tetengo/trie"
)

func TestDenseStorageSizeOfSerializedMatchesSerialize(t *testing.T) {
	s := trie.NewDenseStorage()
	require.NoError(t, s.SetBaseAt(0, -1))
	_, err := s.AddValue([]byte("hello"))
	require.NoError(t, err)

	want, err := s.SizeOfSerialized()
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := s.Serialize(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, n)
	assert.Equal(t, int(want), buf.Len())
}

func TestDenseStorageMixedValueWidthsFallBackToVariable(t *testing.T) {
	s := trie.NewDenseStorage()
	_, err := s.AddValue([]byte("ab"))
	require.NoError(t, err)
	_, err = s.AddValue([]byte("abc"))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = s.Serialize(&buf)
	require.NoError(t, err)

	restored, err := trie.DeserializeDenseStorage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	v0, ok, err := restored.ValueAt(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ab", string(v0))

	v1, ok, err := restored.ValueAt(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(v1))
}

func TestDenseStorageOutOfRangeAccess(t *testing.T) {
	s := trie.NewDenseStorage()
	_, err := s.BaseAt(100)
	assert.ErrorIs(t, err, trie.ErrOutOfRange)

	_, err = s.CheckAt(100)
	assert.ErrorIs(t, err, trie.ErrOutOfRange)

	_, _, err = s.ValueAt(0)
	assert.ErrorIs(t, err, trie.ErrOutOfRange)
}
