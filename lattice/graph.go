// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package lattice

import "fmt"

// eosStep is the sentinel target step recorded in a forward edge that
// terminates at EOS rather than at another node.
const eosStep = -1

// edge is a forward transition recorded during construction: from some
// node to the node at (toStep, toIdx), or to EOS if toStep == eosStep.
// cost is the full edge weight transition_cost(from, key(to)) +
// node_cost(to), matching the weight Viterbi and the N-best A* heuristic
// both need.
type edge struct {
	toStep int
	toIdx  int
	cost   int64
}

// addCost saturates at unsettled (treated as +infinity) instead of
// overflowing, so propagating cost through an unreachable predecessor
// never wraps around to a spuriously small value.
func addCost(a, b int64) int64 {
	if a >= unsettled {
		return unsettled
	}
	sum := a + b
	if sum < a {
		return unsettled
	}
	return sum
}

// Lattice is a step-indexed DAG of candidate nodes built incrementally by
// [Lattice.PushBack], settled by [Lattice.SettleEOS], and then searched by
// [Lattice.BestPath] or an [NBestEnumerator]. See spec.md §3.2/§4.5.
type Lattice struct {
	vocab      Vocabulary
	steps      [][]Node
	fwd        [][][]edge
	eos        Node
	eosSettled bool
}

// NewLattice creates a lattice whose BOS node occupies step 0, per
// spec.md §4.5 item 1.
func NewLattice(vocab Vocabulary) *Lattice {
	return &Lattice{
		vocab: vocab,
		steps: [][]Node{{bosNode()}},
		fwd:   [][][]edge{make([][]edge, 1)},
	}
}

// StepCount returns the number of steps pushed so far, including the BOS
// step but not EOS (which is not step-indexed).
func (l *Lattice) StepCount() int { return len(l.steps) }

// NodesAt returns the settled nodes at step i. It panics if i is out of
// range, matching slice-indexing semantics; callers should keep i within
// [0, StepCount()).
func (l *Lattice) NodesAt(i int) []Node {
	return l.steps[i]
}

// PushBack adds the candidate nodes ending at the next step, per
// spec.md §4.5 item 2. Each candidate's SpanStart must name a step that
// already has at least one settled node (its predecessor pool); otherwise
// PushBack returns ErrUnreachableStep. PushBack performs the incremental
// forward Viterbi pass described in spec.md §4.5: for each candidate it
// computes the minimum path cost over its predecessor pool and records the
// predecessor achieving it, with first-seen tie-break.
func (l *Lattice) PushBack(candidates []Candidate) error {
	if l.eosSettled {
		return fmt.Errorf("%w: lattice already settled", ErrInvalidOperation)
	}
	step := len(l.steps)
	nodes := make([]Node, len(candidates))
	for ci, c := range candidates {
		if c.SpanStart < 0 || c.SpanStart >= len(l.steps) {
			return fmt.Errorf("%w: span start %d for candidate %d", ErrUnreachableStep, c.SpanStart, ci)
		}
		preds := l.steps[c.SpanStart]
		if len(preds) == 0 {
			return fmt.Errorf("%w: no predecessors settled at step %d", ErrUnreachableStep, c.SpanStart)
		}
		bestCost := int64(unsettled)
		bestPred := -1
		edgeCosts := make([]int64, len(preds))
		for pi, p := range preds {
			ec := l.vocab.TransitionCost(p, c.Key) + c.NodeCost
			edgeCosts[pi] = ec
			total := addCost(p.PathCost, ec)
			if total < bestCost {
				bestCost = total
				bestPred = pi
			}
		}
		nodes[ci] = Node{
			Key:           c.Key,
			PrecedingStep: c.SpanStart,
			NodeCost:      c.NodeCost,
			PathCost:      bestCost,
			BestPred:      bestPred,
		}
		for pi := range preds {
			l.fwd[c.SpanStart][pi] = append(l.fwd[c.SpanStart][pi], edge{toStep: step, toIdx: ci, cost: edgeCosts[pi]})
		}
	}
	l.steps = append(l.steps, nodes)
	l.fwd = append(l.fwd, make([][]edge, len(nodes)))
	return nil
}

// SettleEOS links every node at the last populated step to EOS, per
// spec.md §4.5 item 3. It must be called exactly once, after the final
// PushBack.
func (l *Lattice) SettleEOS(eosKey []byte) error {
	if l.eosSettled {
		return fmt.Errorf("%w: EOS already settled", ErrInvalidOperation)
	}
	lastStep := len(l.steps) - 1
	preds := l.steps[lastStep]
	if lastStep == 0 || len(preds) == 0 {
		return fmt.Errorf("%w: no nodes to link to EOS", ErrEmptyLattice)
	}
	bestCost := int64(unsettled)
	bestPred := -1
	for pi, p := range preds {
		ec := l.vocab.TransitionCost(p, eosKey)
		total := addCost(p.PathCost, ec)
		if total < bestCost {
			bestCost = total
			bestPred = pi
		}
		l.fwd[lastStep][pi] = append(l.fwd[lastStep][pi], edge{toStep: eosStep, cost: ec})
	}
	l.eos = Node{Key: eosKey, PrecedingStep: lastStep, NodeCost: 0, PathCost: bestCost, BestPred: bestPred}
	l.eosSettled = true
	return nil
}
