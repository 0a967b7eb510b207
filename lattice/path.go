// Copyright 2024 tetengo-go authors. Licensed under the MIT license.

package lattice

import (
	"fmt"
	"strings"
)

// Path is an ordered sequence of nodes from BOS to EOS with its total cost
// and a constraint-satisfaction flag, per spec.md §3.2. The first and last
// elements of Nodes are always the BOS and EOS nodes respectively.
type Path struct {
	nodes               []Node
	cost                int64
	constraintSatisfied bool
}

// Nodes returns the path's nodes in BOS-to-EOS order. Callers must not
// mutate the returned slice.
func (p *Path) Nodes() []Node { return p.nodes }

// Cost returns the path's total cost: the sum of every node's cost plus
// every transition's cost along the path.
func (p *Path) Cost() int64 { return p.cost }

// ConstraintSatisfied reports whether the path satisfies the [Constraint]
// under which it was produced (see spec.md §4.7). [Lattice.BestPath] never
// applies a constraint, so its result always reports true; a path returned
// by [NBestEnumerator.Next] reports true because an entry only reaches EOS
// after every constraint element has admitted it along the way.
func (p *Path) ConstraintSatisfied() bool { return p.constraintSatisfied }

// String renders the path as its keys joined by " -> ", with BOS/EOS
// rendered literally, for logging and debugging.
func (p *Path) String() string {
	parts := make([]string, len(p.nodes))
	for i, n := range p.nodes {
		switch {
		case i == 0:
			parts[i] = "BOS"
		case i == len(p.nodes)-1:
			parts[i] = "EOS"
		default:
			parts[i] = string(n.Key)
		}
	}
	return fmt.Sprintf("%s (cost=%d)", strings.Join(parts, " -> "), p.cost)
}
