// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package trie_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetengo-go/tetengo/trie"
)

func addresses() []trie.Entry[uint32] {
	return []trie.Entry[uint32]{
		{Key: []byte("Akamatsu"), Value: 24},
		{Key: []byte("Akaoka"), Value: 2},
		{Key: []byte("Akasaka"), Value: 28},
	}
}

func buildAddresses(t *testing.T) *trie.Trie[uint32] {
	t.Helper()
	tr, err := trie.Build(addresses(), trie.Uint32Serializer{})
	require.NoError(t, err)
	return tr
}

func TestLookup(t *testing.T) {
	tr := buildAddresses(t)

	value, found, err := tr.Lookup([]byte("Akasaka"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(28), value)

	_, found, err = tr.Lookup([]byte("Aka"))
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = tr.Lookup([]byte("Shibuya"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCommonPrefixSearch(t *testing.T) {
	tr := buildAddresses(t)

	it := tr.CommonPrefixSearch([]byte("Aka"))
	var got []trie.Entry[uint32]
	for {
		e, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, e)
	}

	require.Len(t, got, 3)
	assert.Equal(t, "Akamatsu", string(got[0].Key))
	assert.Equal(t, uint32(24), got[0].Value)
	assert.Equal(t, "Akaoka", string(got[1].Key))
	assert.Equal(t, uint32(2), got[1].Value)
	assert.Equal(t, "Akasaka", string(got[2].Key))
	assert.Equal(t, uint32(28), got[2].Value)
}

func TestCommonPrefixSearchNoMatch(t *testing.T) {
	tr := buildAddresses(t)
	it := tr.CommonPrefixSearch([]byte("Shibuya"))
	_, ok, err := it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommonPrefixSearchIsRestartable(t *testing.T) {
	tr := buildAddresses(t)

	first := tr.CommonPrefixSearch([]byte("Aka"))
	_, _, _ = first.Next()

	second := tr.CommonPrefixSearch([]byte("Aka"))
	e, ok, err := second.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Akamatsu", string(e.Key))
}

// TestStepComposition drives Step directly, folding it over a key's bytes
// plus the EOK sentinel to reach the leaf that Lookup builds on internally,
// exercising the step-composition property of spec.md §8.
func TestStepComposition(t *testing.T) {
	tr := buildAddresses(t)

	node := tr.Root()
	for _, b := range []byte("Akasaka") {
		next, ok, err := tr.Step(node, b)
		require.NoError(t, err)
		require.True(t, ok, "byte %q", b)
		node = next
	}
	leaf, ok, err := tr.Step(node, trie.EOK)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, tr.Root(), leaf)

	value, found, err := tr.Lookup([]byte("Akasaka"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(28), value)

	_, ok, err = tr.Step(tr.Root(), 'Z')
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubtrie(t *testing.T) {
	tr := buildAddresses(t)

	sub, ok, err := tr.Subtrie([]byte("Aka"))
	require.NoError(t, err)
	require.True(t, ok)

	value, found, err := sub.Lookup([]byte("saka"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(28), value)

	_, ok, err = tr.Subtrie([]byte("Shibuya"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSizeAndIsEmpty(t *testing.T) {
	tr := buildAddresses(t)
	assert.Equal(t, 3, tr.Size())
	assert.False(t, tr.IsEmpty())

	empty, err := trie.Build([]trie.Entry[uint32]{}, trie.Uint32Serializer{})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestBuildRejectsDuplicateKeys(t *testing.T) {
	_, err := trie.Build([]trie.Entry[uint32]{
		{Key: []byte("Akasaka"), Value: 1},
		{Key: []byte("Akasaka"), Value: 2},
	}, trie.Uint32Serializer{})
	assert.ErrorIs(t, err, trie.ErrDuplicateKey)
}

func TestBuildProgressIsMonotonicAndComplete(t *testing.T) {
	var calls [][2]int
	_, err := trie.Build(addresses(), trie.Uint32Serializer{}, trie.WithProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))
	require.NoError(t, err)
	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, i+1, c[0])
		assert.Equal(t, 3, c[1])
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	tr := buildAddresses(t)

	var buf bytes.Buffer
	n, err := tr.Serialize(&buf, trie.WithDensityFactor(100))
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	restored, err := trie.Deserialize(&buf, trie.Uint32Serializer{})
	require.NoError(t, err)

	value, found, err := restored.Lookup([]byte("Akasaka"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint32(28), value)
	assert.Equal(t, 3, restored.Size())
}

func TestSerializeWithCompressionRoundTrip(t *testing.T) {
	tr, err := trie.Build([]trie.Entry[string]{
		{Key: []byte("Akamatsu"), Value: "Setagaya"},
		{Key: []byte("Akaoka"), Value: "Minato"},
	}, trie.StringSerializer{})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = tr.Serialize(&buf, trie.WithCompression())
	require.NoError(t, err)

	restored, err := trie.Deserialize(&buf, trie.StringSerializer{})
	require.NoError(t, err)

	value, found, err := restored.Lookup([]byte("Akamatsu"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Setagaya", value)
}

func TestDeserializeRejectsCorruptChecksum(t *testing.T) {
	tr := buildAddresses(t)
	var buf bytes.Buffer
	_, err := tr.Serialize(&buf)
	require.NoError(t, err)

	corrupt := buf.Bytes()
	corrupt[0] ^= 0xFF

	_, err = trie.Deserialize(bytes.NewReader(corrupt), trie.Uint32Serializer{})
	assert.ErrorIs(t, err, trie.ErrCorruptFormat)
}

func TestOpenMmapMatchesDenseLookup(t *testing.T) {
	tr := buildAddresses(t)

	var buf bytes.Buffer
	_, err := tr.Serialize(&buf)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "addresses.trie")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	mapped, err := trie.Open(path, trie.Uint32Serializer{})
	require.NoError(t, err)
	defer mapped.Close()

	for _, want := range addresses() {
		value, found, err := mapped.Lookup(want.Key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want.Value, value)
	}

	_, found, err := mapped.Lookup([]byte("Aka"))
	require.NoError(t, err)
	assert.False(t, found)
}
