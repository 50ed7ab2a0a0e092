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
	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/util/orderedmap"
)

// Builder is a translation-unit-local accumulation buffer. The parallel
// builder passes create nodes, mappings, symbol registrations, unifications
// and edges into a Builder without taking the global lock, then publish
// everything with one Flush call. Flushing builders in deterministic unit
// order makes the arena order deterministic.
type Builder struct {
	ts   *TypeSystem
	unit *lang.CompilationUnit

	nodes          []*Node
	mapping        map[lang.Node]*Node
	symbols        *orderedmap.OrderedMap[lang.Symbol, TypeWithNode]
	inputPositions []*Node
	unifications   [][2]*Node
	edges          []pendingEdge
}

type pendingEdge struct {
	src, tgt *Node
	capacity int64
	label    string
	isError  bool
}

// NewBuilder returns an empty buffer for one translation unit.
func (ts *TypeSystem) NewBuilder(unit *lang.CompilationUnit) *Builder {
	return &Builder{
		ts:      ts,
		unit:    unit,
		mapping: make(map[lang.Node]*Node),
		symbols: orderedmap.New[lang.Symbol, TypeWithNode](),
	}
}

// Unit returns the translation unit this builder accumulates for.
func (b *Builder) Unit() *lang.CompilationUnit { return b.unit }

// NewNode allocates an Infer node local to this builder; it joins the global
// arena at flush time.
func (b *Builder) NewNode(loc lang.Position, name string) *Node {
	n := &Node{Name: name, Loc: loc, typ: Infer, index: -1}
	b.nodes = append(b.nodes, n)
	return n
}

// Oblivious returns the shared singleton for non-nullable positions.
func (b *Builder) Oblivious() *Node { return b.ts.oblivious }

// SetNode records the syntax→node mapping entry for a syntax node.
func (b *Builder) SetNode(syntax lang.Node, node *Node) {
	b.mapping[syntax] = node
}

// RegisterSymbolType records the composite type of a declared symbol. The
// first registration for a symbol wins, preserving node identity for every
// later lookup.
func (b *Builder) RegisterSymbolType(sym lang.Symbol, twn TypeWithNode) {
	if _, ok := b.symbols.Load(sym); ok {
		return
	}
	b.symbols.Store(sym, twn)
}

// MarkInputPosition registers node as caller-controlled for the nullable
// tie-break.
func (b *Builder) MarkInputPosition(node *Node) {
	if node == nil || node.typ == Oblivious {
		return
	}
	node.inputPosition = true
	b.inputPositions = append(b.inputPositions, node)
}

// MarkPinnedNullable records that the input itself asserts the node nullable;
// the edge pass welds it to the nullable sink.
func (b *Builder) MarkPinnedNullable(node *Node) {
	if node == nil || node.typ == Oblivious {
		return
	}
	node.pinnedNullable = true
}

// AddEdge queues a flow edge for the flush.
func (b *Builder) AddEdge(src, tgt *Node, capacity int64, label string) {
	b.edges = append(b.edges, pendingEdge{src: src, tgt: tgt, capacity: capacity, label: label})
}

// AddErrorEdge queues a flow edge whose saturation is user-visible: flow
// through it means a nullable value reaches a required-non-null context.
func (b *Builder) AddErrorEdge(src, tgt *Node, capacity int64, label string) {
	b.edges = append(b.edges, pendingEdge{src: src, tgt: tgt, capacity: capacity, label: label, isError: true})
}

// Unify queues an equivalence-class merge for the flush.
func (b *Builder) Unify(a, x *Node) {
	b.unifications = append(b.unifications, [2]*Node{a, x})
}

// Flush publishes the buffer into the global type system under its mutex.
// Call once per builder; the driver flushes builders in unit order.
func (ts *TypeSystem) Flush(b *Builder) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, n := range b.nodes {
		n.index = len(ts.nodes)
		ts.nodes = append(ts.nodes, n)
	}

	m := ts.mappings[b.unit]
	if m == nil {
		m = &Mapping{nodes: make(map[lang.Node]*Node)}
		ts.mappings[b.unit] = m
	}
	for syntax, node := range b.mapping {
		m.nodes[syntax] = node
	}

	b.symbols.OrderedRange(func(sym lang.Symbol, twn TypeWithNode) bool {
		if _, ok := ts.symbolTypes.Load(sym); !ok {
			ts.symbolTypes.Store(sym, twn)
		}
		return true
	})

	ts.inputPositions = append(ts.inputPositions, b.inputPositions...)

	for _, u := range b.unifications {
		ts.unifyLocked(u[0], u[1])
	}
	for _, e := range b.edges {
		ts.addEdgeLocked(e.src, e.tgt, e.capacity, e.label, e.isError)
	}
}
