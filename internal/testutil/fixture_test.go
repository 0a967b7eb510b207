// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetengo-go/tetengo/internal/testutil"
)

func writeFixtureFiles(t *testing.T, inputs, expected []string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.txt")
	expectedPath := filepath.Join(dir, "expected.txt")

	require.NoError(t, os.WriteFile(inputPath, []byte(joinLines(inputs)), 0o644))
	require.NoError(t, os.WriteFile(expectedPath, []byte(joinLines(expected)), 0o644))
	return inputPath, expectedPath
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func TestFixtureReader(t *testing.T) {
	inputPath, expectedPath := writeFixtureFiles(t,
		[]string{"Akamatsu", "Akaoka", "Akasaka"},
		[]string{"24", "2", "28"},
	)

	fr, err := testutil.NewFixtureReader[int](inputPath, expectedPath)
	require.NoError(t, err)
	defer fr.Close()

	pair, err := fr.Next()
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.Equal(t, "Akamatsu", pair.Input)
	require.Equal(t, 24, pair.Expected)
	require.Equal(t, 1, fr.Line())
	require.Equal(t, "input.txt#1", fr.CaseName())

	for i := 0; i < 2; i++ {
		pair, err = fr.Next()
		require.NoError(t, err)
		require.NotNil(t, pair)
	}

	pair, err = fr.Next()
	require.NoError(t, err)
	require.Nil(t, pair)

	fr.Close() // safe twice
}

func TestFixtureReaderMissingFile(t *testing.T) {
	_, err := testutil.NewFixtureReader[int]("::does-not-exist::", "::also-missing::")
	require.Error(t, err)
}

func TestFixtureReaderBadJSON(t *testing.T) {
	inputPath, expectedPath := writeFixtureFiles(t, []string{"a"}, []string{"not-json"})
	fr, err := testutil.NewFixtureReader[int](inputPath, expectedPath)
	require.NoError(t, err)
	defer fr.Close()

	_, err = fr.Next()
	require.Error(t, err)
}
