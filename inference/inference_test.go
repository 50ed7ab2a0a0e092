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

package inference_test

import (
	"context"
	"testing"

	"github.com/inferlab/nullinfer/inference"
	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	. "github.com/inferlab/nullinfer/nullinfertest"
)

// graph is a small harness for hand-built flow graphs.
type graph struct {
	ts *typegraph.TypeSystem
	b  *typegraph.Builder
}

func newGraph() *graph {
	ts := typegraph.NewTypeSystem()
	return &graph{ts: ts, b: ts.NewBuilder(Unit("test"))}
}

func (g *graph) node(name string) *typegraph.Node {
	return g.b.NewNode(lang.Position{}, name)
}

func (g *graph) solve(t *testing.T) {
	t.Helper()
	g.ts.Flush(g.b)
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))
}

func (g *graph) propagate(t *testing.T) {
	t.Helper()
	require.NoError(t, inference.PropagateLabels(context.Background(), g.ts))
}

func TestComputeFlowSaturatesChain(t *testing.T) {
	t.Parallel()

	g := newGraph()
	a, b := g.node("a"), g.node("b")
	g.ts.Flush(g.b)
	e1 := g.ts.AddEdge(g.ts.NullableSink(), a, 1, "1")
	e2 := g.ts.AddEdge(a, b, 1, "2")
	e3 := g.ts.AddEdge(b, g.ts.NonNullSink(), 1, "3")
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))

	for _, e := range []*typegraph.Edge{e1, e2, e3} {
		require.Equal(t, int64(1), e.Flow)
		require.Equal(t, int64(0), e.Capacity, "residual replaces the capacity")
		require.True(t, e.Saturated())
	}
}

func TestComputeFlowPicksMinimumCut(t *testing.T) {
	t.Parallel()

	// Two nullable sources feed one node over two unit edges, and that node
	// has a single unit demand; the cut is the one demand edge, not the two
	// feeding edges.
	g := newGraph()
	s1, s2, mid := g.node("s1"), g.node("s2"), g.node("mid")
	g.ts.Flush(g.b)
	g.ts.AddEdge(g.ts.NullableSink(), s1, typegraph.InfiniteCapacity, "src")
	g.ts.AddEdge(g.ts.NullableSink(), s2, typegraph.InfiniteCapacity, "src")
	g.ts.AddEdge(s1, mid, 1, "narrow")
	g.ts.AddEdge(s2, mid, 1, "narrow")
	bottleneck := g.ts.AddEdge(mid, g.ts.NonNullSink(), 1, "demand")
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))

	require.Equal(t, int64(1), bottleneck.Flow, "only one unit fits through")
	require.True(t, bottleneck.Saturated())
}

func TestComputeFlowCancellation(t *testing.T) {
	t.Parallel()

	g := newGraph()
	g.ts.Flush(g.b)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, inference.ComputeFlow(ctx, g.ts), context.Canceled)
}

func TestPropagateUnconstrainedGraph(t *testing.T) {
	t.Parallel()

	g := newGraph()
	a := g.node("a")
	g.solve(t)
	g.propagate(t)

	require.Equal(t, typegraph.NonNull, a.NullType(), "unconstrained nodes default non-null")
	require.Equal(t, typegraph.Nullable, g.ts.NullableSink().NullType(), "sinks regain their labels")
	require.Equal(t, typegraph.NonNull, g.ts.NonNullSink().NullType())
}

func TestPropagateNonNullPhaseSkipsSaturatedEdges(t *testing.T) {
	t.Parallel()

	// nullable -> a -> nonnull: the chain saturates, so a must not be pulled
	// non-null; the nullable phase claims it instead.
	g := newGraph()
	a := g.node("a")
	g.ts.Flush(g.b)
	g.ts.AddEdge(g.ts.NullableSink(), a, typegraph.InfiniteCapacity, "pin")
	g.ts.AddEdge(a, g.ts.NonNullSink(), 1, "demand")
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))
	g.propagate(t)

	require.Equal(t, typegraph.Nullable, a.NullType())
}

func TestPropagateNonNullPhaseRunsFirst(t *testing.T) {
	t.Parallel()

	// b reaches the non-null sink with residual capacity; a feeds b over a
	// saturated edge and is claimed nullable.
	g := newGraph()
	a, b := g.node("a"), g.node("b")
	g.ts.Flush(g.b)
	g.ts.AddEdge(g.ts.NullableSink(), a, typegraph.InfiniteCapacity, "pin")
	g.ts.AddEdge(a, b, 1, "flow")
	g.ts.AddEdge(b, g.ts.NonNullSink(), 1, "demand")
	g.ts.AddEdge(b, g.ts.NonNullSink(), 1, "second demand")
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))
	g.propagate(t)

	require.Equal(t, typegraph.NonNull, b.NullType(),
		"a residual path to the non-null sink wins over nullable reachability")
	require.Equal(t, typegraph.Nullable, a.NullType())
}

func TestPropagateZeroCapacityEdgesInvisibleToNullablePhase(t *testing.T) {
	t.Parallel()

	g := newGraph()
	a, b := g.node("a"), g.node("b")
	g.ts.Flush(g.b)
	g.ts.AddEdge(g.ts.NullableSink(), a, typegraph.InfiniteCapacity, "pin")
	g.ts.AddEdge(a, b, 0, "protected")
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))
	g.propagate(t)

	require.Equal(t, typegraph.Nullable, a.NullType())
	require.Equal(t, typegraph.NonNull, b.NullType(),
		"a protected edge must not drag its target nullable")
}

func TestPropagateParameterBias(t *testing.T) {
	t.Parallel()

	g := newGraph()
	param, ret, other := g.node("param"), g.node("ret"), g.node("other")
	g.b.MarkInputPosition(param)
	g.b.AddEdge(param, ret, 1, "return")
	g.solve(t)
	g.propagate(t)

	require.Equal(t, typegraph.Nullable, param.NullType(), "undecided parameters bias nullable")
	require.Equal(t, typegraph.Nullable, ret.NullType(), "and the bias spreads forward")
	require.Equal(t, typegraph.NonNull, other.NullType())
}

func TestPropagateUnifiedClassAgrees(t *testing.T) {
	t.Parallel()

	g := newGraph()
	a, b := g.node("a"), g.node("b")
	g.b.Unify(a, b)
	g.ts.Flush(g.b)
	g.ts.AddEdge(g.ts.NullableSink(), a, typegraph.InfiniteCapacity, "pin")
	require.NoError(t, inference.ComputeFlow(context.Background(), g.ts))
	g.propagate(t)

	require.Equal(t, typegraph.Nullable, a.NullType())
	require.Equal(t, typegraph.Nullable, b.NullType(), "unified nodes share one label")
	require.Same(t, a.Rep(), b.Rep())
}

func TestPropagateCancellationBetweenPhases(t *testing.T) {
	t.Parallel()

	g := newGraph()
	g.node("a")
	g.solve(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, inference.PropagateLabels(ctx, g.ts), context.Canceled)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
