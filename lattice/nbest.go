// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package lattice

import (
	"container/heap"
	"fmt"
)

// frontierNode addresses one node in the lattice, or EOS.
type frontierNode struct {
	step  int
	idx   int
	isEOS bool
}

// frontierEntry is one partial path on the A* frontier: the path from BOS
// to head, represented as a parent chain rather than a copied slice so
// that expanding N frontier entries costs O(1) extra per entry instead of
// O(path length).
type frontierEntry struct {
	head      frontierNode
	g         int64 // cost from BOS to head
	f         int64 // g + tailCost(head), the A* priority
	seq       int   // insertion order, for first-seen tie-break
	pathIndex int   // depth from BOS (0 at the first non-BOS node)
	parent    *frontierEntry
}

// frontierHeap is a container/heap priority queue ordered by ascending f,
// with ties broken by earliest insertion (spec.md §4.7/§9: "first-seen").
type frontierHeap []*frontierEntry

func (h frontierHeap) Len() int { return len(h) }
func (h frontierHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h frontierHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x any)   { *h = append(*h, x.(*frontierEntry)) }
func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NBestEnumerator lazily enumerates BOS→EOS paths in nondecreasing total
// cost, per spec.md §4.7. Obtain one from [Lattice.NBestEnumerator]; it is
// a finite, non-restartable sequence — call [NBestEnumerator.Next]
// repeatedly until it reports no more paths.
type NBestEnumerator struct {
	lattice    *Lattice
	constraint *Constraint
	tail       [][]int64 // tail[step][idx] = exact min cost from that node to EOS
	frontier   frontierHeap
	nextSeq    int
	emitted    int
	done       bool
	err        error
}

// NBestEnumerator constructs an N-best enumerator over l. l must have had
// [Lattice.SettleEOS] called already. constraint may be nil to admit every
// path. The heuristic (exact tail cost to EOS) is computed once, up front,
// by a backward DP over the transposed adjacency recorded during
// construction — admissible and consistent by construction, per
// spec.md §4.7. It returns ErrNoPath if BOS and EOS are disconnected.
func (l *Lattice) NBestEnumerator(constraint *Constraint) (*NBestEnumerator, error) {
	if !l.eosSettled {
		return nil, fmt.Errorf("%w: EOS not settled", ErrInvalidOperation)
	}
	if l.eos.PathCost >= unsettled {
		return nil, fmt.Errorf("%w: BOS and EOS are disconnected", ErrNoPath)
	}

	tail := make([][]int64, len(l.steps))
	for step := len(l.steps) - 1; step >= 0; step-- {
		tail[step] = make([]int64, len(l.steps[step]))
		for idx := range l.steps[step] {
			best := int64(unsettled)
			for _, e := range l.fwd[step][idx] {
				var succTail int64
				if e.toStep == eosStep {
					succTail = 0
				} else {
					succTail = tail[e.toStep][e.toIdx]
				}
				total := addCost(e.cost, succTail)
				if total < best {
					best = total
				}
			}
			tail[step][idx] = best
		}
	}

	e := &NBestEnumerator{lattice: l, constraint: constraint, tail: tail}
	bosHead := frontierNode{step: 0, idx: 0}
	start := &frontierEntry{head: bosHead, g: 0, f: tail[0][0], seq: e.nextSeq, pathIndex: -1}
	e.nextSeq++
	e.frontier = frontierHeap{start}
	heap.Init(&e.frontier)
	return e, nil
}

// Next returns the next lowest-cost path, or ok=false once N-best
// enumeration is exhausted (the frontier is empty and every BOS→EOS path
// has been emitted). err is non-nil only on an internal failure; callers
// should stop calling Next after any non-nil error.
func (e *NBestEnumerator) Next() (path *Path, ok bool, err error) {
	if e.done {
		return nil, false, e.err
	}
	for e.frontier.Len() > 0 {
		entry := heap.Pop(&e.frontier).(*frontierEntry)
		if entry.head.isEOS {
			e.emitted++
			return e.reconstruct(entry), true, nil
		}
		if err := e.expand(entry); err != nil {
			e.done = true
			e.err = err
			return nil, false, err
		}
	}
	e.done = true
	return nil, false, nil
}

// expand pushes one new frontier entry per successor of entry.head that
// the constraint, if any, admits.
func (e *NBestEnumerator) expand(entry *frontierEntry) error {
	step, idx := entry.head.step, entry.head.idx
	for _, edge := range e.lattice.fwd[step][idx] {
		var succ frontierNode
		var succNode Node
		var succTail int64
		if edge.toStep == eosStep {
			succ = frontierNode{isEOS: true}
			succNode = e.lattice.eos
			succTail = 0
		} else {
			succ = frontierNode{step: edge.toStep, idx: edge.toIdx}
			succNode = e.lattice.steps[edge.toStep][edge.toIdx]
			succTail = e.tail[edge.toStep][edge.toIdx]
		}
		childIndex := entry.pathIndex + 1
		if !e.constraint.admits(childIndex, succNode) {
			continue
		}
		g := addCost(entry.g, edge.cost)
		f := addCost(g, succTail)
		child := &frontierEntry{head: succ, g: g, f: f, seq: e.nextSeq, pathIndex: childIndex, parent: entry}
		e.nextSeq++
		heap.Push(&e.frontier, child)
	}
	return nil
}

// reconstruct walks entry's parent chain back to BOS and reverses it into
// a Path.
func (e *NBestEnumerator) reconstruct(entry *frontierEntry) *Path {
	nodes := make([]Node, 0)
	for cur := entry; cur != nil; cur = cur.parent {
		var n Node
		if cur.head.isEOS {
			n = e.lattice.eos
		} else {
			n = e.lattice.steps[cur.head.step][cur.head.idx]
		}
		nodes = append(nodes, n)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	// Every admitted entry passed e.constraint.admits at each expansion
	// step, so an emitted path has satisfied the constraint throughout.
	return &Path{nodes: nodes, cost: entry.g, constraintSatisfied: true}
}
