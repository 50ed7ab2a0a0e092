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

package diagnostic_test

import (
	"context"
	"testing"

	"github.com/inferlab/nullinfer/diagnostic"
	"github.com/inferlab/nullinfer/inference"
	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	. "github.com/inferlab/nullinfer/nullinfertest"
)

func TestCollectReportsFlowThroughErrorEdges(t *testing.T) {
	t.Parallel()

	ts := typegraph.NewTypeSystem()
	b := ts.NewBuilder(Unit("a"))
	later := b.NewNode(lang.Position{File: "b.cs", Line: 3}, "later")
	early := b.NewNode(lang.Position{File: "a.cs", Line: 1}, "early")
	quiet := b.NewNode(lang.Position{File: "a.cs", Line: 2}, "quiet")
	b.AddEdge(ts.NullableSink(), later, typegraph.InfiniteCapacity, "pin")
	b.AddEdge(ts.NullableSink(), early, typegraph.InfiniteCapacity, "pin")
	b.AddErrorEdge(later, ts.NonNullSink(), 1, "dereference of F")
	b.AddErrorEdge(early, ts.NonNullSink(), 1, "dereference of G")
	b.AddErrorEdge(quiet, ts.NonNullSink(), 1, "dereference of H")
	ts.Flush(b)

	require.Empty(t, diagnostic.Collect(ts), "nothing to report before the solver runs")

	require.NoError(t, inference.ComputeFlow(context.Background(), ts))
	got := diagnostic.Collect(ts)
	require.Len(t, got, 2, "the edge without nullable inflow stays quiet")
	require.Equal(t, "a.cs", got[0].Pos.File, "sorted by position")
	require.Contains(t, got[0].Message, "dereference of G")
	require.Equal(t, "b.cs", got[1].Pos.File)
	require.Contains(t, got[1].Message, "dereference of F")
	require.Contains(t, got[0].String(), "a.cs:1:0")
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
