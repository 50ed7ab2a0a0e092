//  Copyright (c) 2026 the Nullinfer Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typegraph

import (
	"fmt"
	"sync"

	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/util/orderedmap"
)

// TypeWithNode pairs a resolved host type with the nullability node of its
// outermost reference layer. Args carries the inner layers: type arguments
// for generic instantiations, or the single element layer for arrays.
type TypeWithNode struct {
	Type lang.Type
	Node *Node
	Args []TypeWithNode
}

// TypeSystem is the global node store: it owns the arena of nullability
// nodes, the two sinks, the edges, the per-unit syntax→node mappings and the
// memoised symbol types. Builders accumulate into unit-local buffers and
// publish through Flush under a single mutex, keeping lock contention
// proportional to the number of translation units.
type TypeSystem struct {
	mu sync.Mutex

	nodes []*Node
	edges []*Edge

	nullableSink *Node
	nonNullSink  *Node
	oblivious    *Node

	symbolTypes    *orderedmap.OrderedMap[lang.Symbol, TypeWithNode]
	mappings       map[*lang.CompilationUnit]*Mapping
	inputPositions []*Node
}

// NewTypeSystem returns a type system holding only the two sinks.
func NewTypeSystem() *TypeSystem {
	ts := &TypeSystem{
		symbolTypes: orderedmap.New[lang.Symbol, TypeWithNode](),
		mappings:    make(map[*lang.CompilationUnit]*Mapping),
	}
	ts.nullableSink = &Node{Name: "<nullable>", typ: Nullable, sink: true, index: 0}
	ts.nonNullSink = &Node{Name: "<nonnull>", typ: NonNull, sink: true, index: 1}
	ts.nodes = append(ts.nodes, ts.nullableSink, ts.nonNullSink)
	ts.oblivious = &Node{Name: "<oblivious>", typ: Oblivious, index: -1}
	return ts
}

// NullableSink returns the node with its label fixed at Nullable; it is the
// source of the max-flow computation.
func (ts *TypeSystem) NullableSink() *Node { return ts.nullableSink }

// NonNullSink returns the node with its label fixed at NonNull; it is the
// sink of the max-flow computation.
func (ts *TypeSystem) NonNullSink() *Node { return ts.nonNullSink }

// ObliviousNode returns the shared singleton for value-typed and otherwise
// non-applicable positions. It never appears in the graph.
func (ts *TypeSystem) ObliviousNode() *Node { return ts.oblivious }

// AllNodes returns the node arena in creation order, sinks first. The order
// is deterministic given a deterministic flush order. Callers must treat the
// slice as read-only.
func (ts *TypeSystem) AllNodes() []*Node { return ts.nodes }

// AllEdges returns every edge in creation order. Read-only for callers.
func (ts *TypeSystem) AllEdges() []*Edge { return ts.edges }

// NodesInInputPositions returns the caller-controlled nodes (parameters and
// other input positions) eligible for the nullable-biased tie-break.
func (ts *TypeSystem) NodesInInputPositions() []*Node { return ts.inputPositions }

// Mapping returns the syntax→node mapping for a unit, or nil before the
// unit's node builder has flushed.
func (ts *TypeSystem) Mapping(unit *lang.CompilationUnit) *Mapping {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.mappings[unit]
}

// SymbolType returns the memoised TypeWithNode for a declared symbol,
// creating it on first use for symbols that have no declaration in the
// analysed units (builtin members such as string.Length). The same symbol
// always yields the identical TypeWithNode, which is what carries nullability
// constraints across translation units.
func (ts *TypeSystem) SymbolType(sym lang.Symbol, typ lang.Type) TypeWithNode {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if twn, ok := ts.symbolTypes.Load(sym); ok {
		return twn
	}
	twn := ts.typeWithFreshNodesLocked(typ, lang.Position{}, sym.SymbolName())
	ts.symbolTypes.Store(sym, twn)
	return twn
}

// typeWithFreshNodesLocked builds a TypeWithNode shaped like t with a fresh
// node per reference layer. Callers hold ts.mu.
func (ts *TypeSystem) typeWithFreshNodesLocked(t lang.Type, loc lang.Position, name string) TypeWithNode {
	twn := TypeWithNode{Type: t, Node: ts.oblivious}
	if t == nil {
		return twn
	}
	if lang.IsReference(t) {
		twn.Node = ts.newNodeLocked(loc, name)
	}
	switch t := t.(type) {
	case *lang.ClassType:
		for i, a := range t.Args {
			twn.Args = append(twn.Args, ts.typeWithFreshNodesLocked(a, loc, fmt.Sprintf("%s<%d>", name, i)))
		}
	case *lang.ArrayType:
		twn.Args = append(twn.Args, ts.typeWithFreshNodesLocked(t.Elem, loc, name+"[]"))
	}
	return twn
}

func (ts *TypeSystem) newNodeLocked(loc lang.Position, name string) *Node {
	n := &Node{Name: name, Loc: loc, typ: Infer, index: len(ts.nodes)}
	ts.nodes = append(ts.nodes, n)
	return n
}

// AddEdge registers a directed flow edge on both endpoints. Duplicate edges
// are permitted; the solver treats them as parallel capacity. Edges touching
// the oblivious node are dropped. The returned edge may be nil.
func (ts *TypeSystem) AddEdge(src, tgt *Node, capacity int64, label string) *Edge {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.addEdgeLocked(src, tgt, capacity, label, false)
}

func (ts *TypeSystem) addEdgeLocked(src, tgt *Node, capacity int64, label string, isError bool) *Edge {
	if src == nil || tgt == nil || src.typ == Oblivious || tgt.typ == Oblivious {
		return nil
	}
	e := &Edge{Source: src, Target: tgt, Capacity: capacity, initial: capacity, Label: label, IsError: isError}
	src.Out = append(src.Out, e)
	tgt.In = append(tgt.In, e)
	ts.edges = append(ts.edges, e)
	return e
}

// Unify merges the equivalence classes of a and b and welds them together
// with a pair of infinite-capacity edges so the min cut can never separate
// them. The sinks are never merged.
func (ts *TypeSystem) Unify(a, b *Node) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.unifyLocked(a, b)
}

func (ts *TypeSystem) unifyLocked(a, b *Node) {
	if a == nil || b == nil || a.typ == Oblivious || b.typ == Oblivious {
		return
	}
	ra, rb := a.Rep(), b.Rep()
	if ra == rb {
		return
	}
	if ra.sink || rb.sink {
		panic(fmt.Sprintf("unification of sink node %q with %q", ra.Name, rb.Name))
	}
	if ra.rank < rb.rank {
		ra, rb = rb, ra
	}
	rb.replacedWith = ra
	if ra.rank == rb.rank {
		ra.rank++
	}
	ts.addEdgeLocked(ra, rb, InfiniteCapacity, "unify", false)
	ts.addEdgeLocked(rb, ra, InfiniteCapacity, "unify", false)
}

// ResetSinksForInference moves the two sinks back to Infer so label
// propagation can rediscover them from the residual graph. This is the only
// sanctioned way a label returns to Infer.
func (ts *TypeSystem) ResetSinksForInference() {
	ts.nullableSink.resetForInference()
	ts.nonNullSink.resetForInference()
}

// VerifyLabels checks the post-inference invariants: every node has left
// Infer, every node agrees with its representative, and the oblivious
// singleton was never dragged into the graph. A violation indicates a builder
// bug and is fatal.
func (ts *TypeSystem) VerifyLabels() error {
	for _, n := range ts.nodes {
		if n.typ == Infer {
			return fmt.Errorf("node %v left undecided after inference", n)
		}
		if n.typ != n.Rep().typ {
			return fmt.Errorf("node %v disagrees with its representative %v", n, n.Rep())
		}
	}
	if ts.oblivious.typ != Oblivious || len(ts.oblivious.In) > 0 || len(ts.oblivious.Out) > 0 {
		return fmt.Errorf("oblivious node reached by inference")
	}
	return nil
}

// Mapping is the published syntax→node mapping of one translation unit.
type Mapping struct {
	nodes map[lang.Node]*Node
}

// Node returns the nullability node for a syntax node, or nil.
func (m *Mapping) Node(n lang.Node) *Node {
	if m == nil {
		return nil
	}
	return m.nodes[n]
}

// Len returns the number of mapped syntax nodes.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.nodes)
}
