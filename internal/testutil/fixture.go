// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

// Package testutil provides golden-fixture readers for the trie test suite:
// paired "input" / "expected" line files, read one case at a time.
package testutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Pair is one fixture case: a raw input line and its JSON-decoded expected
// value.
type Pair[E any] struct {
	Input    string
	Expected E
}

// FixtureReader reads a pair of text files that hold golden test cases: one
// line of raw input per line of JSON-encoded expected output, read
// side-by-side.
type FixtureReader[E any] struct {
	inputScanner    *bufio.Scanner
	expectedScanner *bufio.Scanner
	inputF          *os.File
	expectedF       *os.File
	nameBase        string
	line            int
	closed          bool
}

// NewFixtureReader opens inputFile (one test case per line) and
// expectedFile (one JSON-encoded E per line) for paired reading.
func NewFixtureReader[E any](inputFile, expectedFile string) (*FixtureReader[E], error) {
	inputF, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	expectedF, err := os.Open(expectedFile)
	if err != nil {
		inputF.Close()
		return nil, err
	}

	return &FixtureReader[E]{
		inputScanner:    bufio.NewScanner(inputF),
		expectedScanner: bufio.NewScanner(expectedF),
		inputF:          inputF,
		expectedF:       expectedF,
		nameBase:        filepath.Base(inputFile),
	}, nil
}

// Next returns the next fixture pair. Once either file reaches EOF, Next
// returns (nil, nil) on every subsequent call.
func (fr *FixtureReader[E]) Next() (*Pair[E], error) {
	if fr.closed {
		return nil, nil
	}

	if fr.inputScanner.Scan() && fr.expectedScanner.Scan() {
		inputLine := fr.inputScanner.Text()
		expectedLine := fr.expectedScanner.Bytes()
		fr.line++

		var expected E
		if err := json.Unmarshal(expectedLine, &expected); err != nil {
			return nil, fmt.Errorf("%s: %w", fr.CaseName(), err)
		}

		return &Pair[E]{Input: inputLine, Expected: expected}, nil
	}

	fr.Close()
	return nil, nil
}

// Line returns the 1-based line number of the last pair read.
func (fr *FixtureReader[E]) Line() int {
	return fr.line
}

// CaseName identifies the current case as "{inputFilename}#{line}".
func (fr *FixtureReader[E]) CaseName() string {
	return fmt.Sprintf("%s#%d", fr.nameBase, fr.line)
}

// Close closes both underlying files. It is safe to call more than once.
func (fr *FixtureReader[E]) Close() {
	if !fr.closed {
		fr.inputF.Close()
		fr.expectedF.Close()
		fr.closed = true
	}
}
