// Package cfg is the control-flow graph of one function body as the
// dataflow engine sees it: nodes tagged with syntactic elements, plain
// edges, and a reverse post-order for forward propagation. The front end
// materializes break/continue and early returns as ordinary edges, so the
// engine needs no special exits.
package cfg

import (
	"fmt"

	"fortio.org/safecast"

	"ferrous/internal/hir"
)

// Index identifies a node inside one Graph. Node 0 is the invalid
// sentinel.
type Index uint32

// NoIndex marks the absence of a node reference.
const NoIndex Index = 0

// IsValid reports whether the index refers to an allocated node.
func (i Index) IsValid() bool { return i != NoIndex }

// Node is one CFG vertex. A single syntactic element may be spread over
// several nodes (loop heads, scope exits), which is why kills and gens
// resolve through the LocalIndex rather than the element itself.
type Node struct {
	Elem  hir.NodeID
	Succs []Index
	Preds []Index
}

// Graph is an append-only CFG arena.
type Graph struct {
	nodes []Node
	entry Index
	exit  Index
}

// New builds an empty graph.
func New() *Graph {
	return &Graph{nodes: []Node{{}}}
}

// AddNode allocates a node for elem. The first node added becomes the
// entry until SetEntry overrides it.
func (g *Graph) AddNode(elem hir.NodeID) Index {
	value, err := safecast.Conv[uint32](len(g.nodes))
	if err != nil {
		panic(fmt.Errorf("cfg arena overflow: %w", err))
	}
	idx := Index(value)
	g.nodes = append(g.nodes, Node{Elem: elem})
	if !g.entry.IsValid() {
		g.entry = idx
	}
	g.exit = idx
	return idx
}

// AddEdge links from → to.
func (g *Graph) AddEdge(from, to Index) {
	if !g.has(from) || !g.has(to) {
		return
	}
	g.nodes[from].Succs = append(g.nodes[from].Succs, to)
	g.nodes[to].Preds = append(g.nodes[to].Preds, from)
}

// SetEntry overrides the entry node.
func (g *Graph) SetEntry(idx Index) {
	if g.has(idx) {
		g.entry = idx
	}
}

// SetExit overrides the exit node.
func (g *Graph) SetExit(idx Index) {
	if g.has(idx) {
		g.exit = idx
	}
}

// Entry returns the entry node.
func (g *Graph) Entry() Index { return g.entry }

// Exit returns the exit node.
func (g *Graph) Exit() Index { return g.exit }

// NumNodes returns the arena size including the sentinel slot; dataflow
// state arrays are dimensioned by it.
func (g *Graph) NumNodes() int {
	if g == nil {
		return 1
	}
	return len(g.nodes)
}

// Elem returns the syntactic element of a node.
func (g *Graph) Elem(idx Index) hir.NodeID {
	if !g.has(idx) {
		return hir.NoNodeID
	}
	return g.nodes[idx].Elem
}

// Succs returns the successor list of a node. Callers must not mutate it.
func (g *Graph) Succs(idx Index) []Index {
	if !g.has(idx) {
		return nil
	}
	return g.nodes[idx].Succs
}

// Preds returns the predecessor list of a node. Callers must not mutate it.
func (g *Graph) Preds(idx Index) []Index {
	if !g.has(idx) {
		return nil
	}
	return g.nodes[idx].Preds
}

func (g *Graph) has(idx Index) bool {
	return g != nil && idx.IsValid() && int(idx) < len(g.nodes)
}

// NodesInPostOrder returns the nodes reachable from entry in DFS
// post-order. Reversing it gives the propagation order for forward
// analyses.
func (g *Graph) NodesInPostOrder() []Index {
	if g == nil || !g.entry.IsValid() {
		return nil
	}
	visited := make([]bool, len(g.nodes))
	order := make([]Index, 0, len(g.nodes)-1)

	var walk func(idx Index)
	walk = func(idx Index) {
		visited[idx] = true
		for _, succ := range g.nodes[idx].Succs {
			if !visited[succ] {
				walk(succ)
			}
		}
		order = append(order, idx)
	}
	walk(g.entry)
	return order
}

// ReversePostOrder returns the forward propagation order.
func (g *Graph) ReversePostOrder() []Index {
	post := g.NodesInPostOrder()
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// LocalIndex maps a syntactic element to the nodes generated from it.
type LocalIndex map[hir.NodeID][]Index

// BuildLocalIndex indexes the graph by element.
func (g *Graph) BuildLocalIndex() LocalIndex {
	idx := make(LocalIndex, len(g.nodes))
	for i := 1; i < len(g.nodes); i++ {
		elem := g.nodes[i].Elem
		if !elem.IsValid() {
			continue
		}
		idx[elem] = append(idx[elem], Index(i))
	}
	return idx
}
