// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package lattice

import "math"

// unsettled marks a node whose forward path cost has not yet been computed;
// it never survives past PushBack/SettleEOS for a reachable node.
const unsettled = math.MaxInt64

// noPredecessor marks a node with no best predecessor, which is only ever
// true of BOS.
const noPredecessor = -1

// Node is one candidate in the lattice: a key spanning
// [PrecedingStep, step-of-this-node), its own cost, and — once Viterbi has
// settled it — the best cumulative path cost from BOS and a reference to
// the predecessor achieving it. See spec.md §3.2.
type Node struct {
	// Key is the opaque token this node represents (typically the bytes
	// of a dictionary entry surface form).
	Key []byte
	// PrecedingStep is the step index at which this node's span begins.
	PrecedingStep int
	// NodeCost is the cost of occupying this node, supplied by the
	// Vocabulary.
	NodeCost int64
	// PathCost is the minimum cumulative cost from BOS to this node,
	// populated by PushBack's incremental Viterbi pass.
	PathCost int64
	// BestPred is the index, within the predecessor step's node slice, of
	// the predecessor achieving PathCost. It is noPredecessor for BOS.
	BestPred int
}

// bosNode returns the distinguished begin-of-sequence node occupying step 0.
func bosNode() Node {
	return Node{PrecedingStep: -1, NodeCost: 0, PathCost: 0, BestPred: noPredecessor}
}
