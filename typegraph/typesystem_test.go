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

package typegraph_test

import (
	"sync"
	"testing"

	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	. "github.com/inferlab/nullinfer/nullinfertest"
)

func TestSinks(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	require.Equal(t, typegraph.Nullable, ts.NullableSink().NullType())
	require.Equal(t, typegraph.NonNull, ts.NonNullSink().NullType())
	require.True(t, ts.NullableSink().IsSink())
	require.Len(t, ts.AllNodes(), 2)
	require.Equal(t, typegraph.Oblivious, ts.ObliviousNode().NullType())
}

func TestBuilderFlushAssignsStableIndices(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	unit := Unit("a")
	b := ts.NewBuilder(unit)
	n1 := b.NewNode(lang.Position{Line: 1}, "first")
	n2 := b.NewNode(lang.Position{Line: 2}, "second")
	ts.Flush(b)

	require.Equal(t, 2, n1.Index(), "nodes join the arena after the sinks")
	require.Equal(t, 3, n2.Index())
	require.Len(t, ts.AllNodes(), 4)
}

func TestEdgesDropObliviousEndpoints(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	n := b.NewNode(lang.Position{}, "n")
	ts.Flush(b)

	require.Nil(t, ts.AddEdge(n, ts.ObliviousNode(), 1, "x"))
	require.Nil(t, ts.AddEdge(ts.ObliviousNode(), n, 1, "x"))
	require.Nil(t, ts.AddEdge(nil, n, 1, "x"))
	require.Empty(t, ts.AllEdges())

	e := ts.AddEdge(ts.NullableSink(), n, 1, "ok")
	require.NotNil(t, e)
	require.Equal(t, int64(1), e.Initial())
	require.Len(t, n.In, 1)
	require.Len(t, ts.NullableSink().Out, 1)
}

func TestUnify(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	a := b.NewNode(lang.Position{}, "a")
	x := b.NewNode(lang.Position{}, "x")
	y := b.NewNode(lang.Position{}, "y")
	ts.Flush(b)

	ts.Unify(a, x)
	require.Same(t, a.Rep(), x.Rep())

	// Unification welds the classes with a pair of infinite edges.
	require.Len(t, ts.AllEdges(), 2)
	for _, e := range ts.AllEdges() {
		require.Equal(t, typegraph.InfiniteCapacity, e.Capacity)
	}

	ts.Unify(x, y)
	require.Same(t, a.Rep(), y.Rep())

	// Re-unifying members of one class is a no-op.
	before := len(ts.AllEdges())
	ts.Unify(a, y)
	require.Len(t, ts.AllEdges(), before)
}

func TestUnifySinkPanics(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	n := b.NewNode(lang.Position{}, "n")
	ts.Flush(b)

	require.Panics(t, func() { ts.Unify(n, ts.NullableSink()) })
}

func TestSymbolTypeMemoised(t *testing.T) {
	t.Parallel()

	unit := Unit("a", Class("Program",
		ExprMethod("Test", T("string"), []*lang.ParamDecl{Param("x", T("string"))}, Id("x"))))
	prog, err := lang.Bind([]*lang.CompilationUnit{unit})
	require.NoError(t, err)
	sym := prog.SymbolFor(unit.Classes[0].Methods[0].Params[0])
	require.NotNil(t, sym)

	ts := typegraph.NewTypeSystem()
	first := ts.SymbolType(sym, lang.StringType)
	second := ts.SymbolType(sym, lang.StringType)
	require.Same(t, first.Node, second.Node, "symbol types are identity-stable")

	// Concurrent readers all observe the same node.
	var wg sync.WaitGroup
	nodes := make([]*typegraph.Node, 8)
	for i := range nodes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			nodes[i] = ts.SymbolType(sym, lang.StringType).Node
		}()
	}
	wg.Wait()
	for _, n := range nodes {
		require.Same(t, first.Node, n)
	}
}

func TestRegisteredSymbolTypeWinsOverLazy(t *testing.T) {
	t.Parallel()

	unit := Unit("a", Class("Program",
		ExprMethod("Test", T("string"), []*lang.ParamDecl{Param("x", T("string"))}, Id("x"))))
	prog, err := lang.Bind([]*lang.CompilationUnit{unit})
	require.NoError(t, err)
	sym := prog.SymbolFor(unit.Classes[0].Methods[0].Params[0])

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(unit)
	n := b.NewNode(lang.Position{}, "x")
	b.RegisterSymbolType(sym, typegraph.TypeWithNode{Type: lang.StringType, Node: n})
	ts.Flush(b)

	require.Same(t, n, ts.SymbolType(sym, lang.StringType).Node)
}

func TestSetNullTypeInvariants(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	n := b.NewNode(lang.Position{}, "n")
	ts.Flush(b)

	n.SetNullType(typegraph.Nullable)
	require.NotPanics(t, func() { n.SetNullType(typegraph.Nullable) }, "same label is a no-op")
	require.Panics(t, func() { n.SetNullType(typegraph.NonNull) }, "labels never flip")
	require.Panics(t, func() { ts.ObliviousNode().SetNullType(typegraph.Nullable) })
}

func TestVerifyLabels(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	n := b.NewNode(lang.Position{}, "n")
	ts.Flush(b)

	require.Error(t, ts.VerifyLabels(), "undecided nodes are an invariant violation")
	n.SetNullType(typegraph.NonNull)
	require.NoError(t, ts.VerifyLabels())
}

func TestMappingPublishedPerUnit(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	unit := Unit("a")
	other := Unit("b")
	typ := T("string")
	b := ts.NewBuilder(unit)
	n := b.NewNode(lang.Position{}, "s")
	b.SetNode(typ, n)
	ts.Flush(b)

	require.Same(t, n, ts.Mapping(unit).Node(typ))
	require.Nil(t, ts.Mapping(other).Node(typ))
	require.Equal(t, 1, ts.Mapping(unit).Len())
}

func TestInputPositions(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	n := b.NewNode(lang.Position{}, "param")
	b.MarkInputPosition(n)
	b.MarkInputPosition(b.Oblivious())
	ts.Flush(b)

	require.Equal(t, []*typegraph.Node{n}, ts.NodesInInputPositions())
	require.True(t, n.IsInputPosition())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
