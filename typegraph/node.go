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

// Package typegraph implements the typed nullability graph: the node store,
// flow edges, union-find unification and the memoised symbol→type mapping
// shared by the builder passes and the solver.
package typegraph

import (
	"fmt"

	"github.com/inferlab/nullinfer/lang"
)

// NullType is the label of a nullability node.
type NullType int8

const (
	// Oblivious marks value-typed or otherwise non-applicable positions; it
	// never changes and never participates in inference.
	Oblivious NullType = iota
	// Nullable marks positions that must tolerate null.
	Nullable
	// NonNull marks positions that must not be null.
	NonNull
	// Infer marks positions the solver has not decided yet.
	Infer
)

func (t NullType) String() string {
	switch t {
	case Oblivious:
		return "oblivious"
	case Nullable:
		return "nullable"
	case NonNull:
		return "nonnull"
	case Infer:
		return "infer"
	}
	return fmt.Sprintf("NullType(%d)", int8(t))
}

// Node is one inferrable nullability position. Nodes are created during the
// node-building pass, wired during the edge-building pass, and labelled
// during propagation; afterwards the graph is read-only.
type Node struct {
	// Name is a human-readable label for debugging and edge labels.
	Name string
	// Loc is the source position of the syntax that created the node.
	Loc lang.Position
	// In and Out are the adjacency lists.
	In  []*Edge
	Out []*Edge

	typ NullType
	// replacedWith points at the node this one has been merged into by
	// unification; nil for an equivalence-class representative.
	replacedWith *Node
	rank         int
	// pinnedNullable is set by the node builder for positions whose
	// nullability is asserted by the input itself (explicit annotations under
	// annotation pinning); the edge builder turns it into an infinite-capacity
	// edge from the nullable sink.
	pinnedNullable bool
	inputPosition  bool
	sink           bool
	index          int
}

// NullType returns the node's current label.
func (n *Node) NullType() NullType { return n.typ }

// Index returns the node's stable position in the arena.
func (n *Node) Index() int { return n.index }

// IsSink reports whether n is one of the two special sink nodes.
func (n *Node) IsSink() bool { return n.sink }

// IsInputPosition reports whether n is a caller-controlled position eligible
// for the nullable-biased tie-break.
func (n *Node) IsInputPosition() bool { return n.inputPosition }

// PinnedNullable reports whether the input itself asserts this node nullable.
func (n *Node) PinnedNullable() bool { return n.pinnedNullable }

// Rep returns the representative of the node's equivalence class.
func (n *Node) Rep() *Node {
	r := n
	for r.replacedWith != nil {
		r = r.replacedWith
	}
	return r
}

// SetNullType transitions the node's label out of Infer. Re-labelling a
// decided node or touching an oblivious node indicates a builder bug and
// panics; the driver converts the panic into a fatal analysis error.
func (n *Node) SetNullType(t NullType) {
	if n.typ == t {
		return
	}
	if n.typ != Infer {
		panic(fmt.Sprintf("nullability node %q relabelled %v -> %v", n.Name, n.typ, t))
	}
	if t == Oblivious {
		panic(fmt.Sprintf("nullability node %q labelled oblivious by inference", n.Name))
	}
	n.typ = t
}

// resetForInference moves a sink back to Infer ahead of label propagation.
// Only the two sinks are ever reset.
func (n *Node) resetForInference() {
	if !n.sink {
		panic(fmt.Sprintf("reset of non-sink node %q", n.Name))
	}
	n.typ = Infer
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d(%v)", n.Name, n.index, n.typ)
}
