// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

// Package lattice implements the Viterbi/A* pathfinding core: a step-indexed
// directed acyclic graph of candidate nodes, a forward dynamic-programming
// best-path solver, and an A* N-best path enumerator.
package lattice

import "errors"

// Errors returned by lattice construction and search. Use errors.Is to
// test for a specific kind; all are wrapped with fmt.Errorf at the call
// site to attach context.
var (
	// ErrUnreachableStep is returned by PushBack when a candidate node's
	// preceding step has no settled predecessor pool.
	ErrUnreachableStep = errors.New("lattice: unreachable preceding step")
	// ErrEmptyLattice is returned by operations that require at least one
	// step to have been pushed before BOS/EOS settle.
	ErrEmptyLattice = errors.New("lattice: no steps pushed")
	// ErrNoPath is returned by BestPath and the N-best enumerator when BOS
	// and EOS are disconnected.
	ErrNoPath = errors.New("lattice: no path from BOS to EOS")
	// ErrInvalidOperation is returned for misuse, such as settling EOS
	// twice or pushing after settling.
	ErrInvalidOperation = errors.New("lattice: invalid operation")
)
