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

// Package inference runs the solver half of the engine: the max-flow
// computation between the two sinks and the two-phase label propagation over
// the residual graph.
package inference

import (
	"context"
	"math"

	"github.com/inferlab/nullinfer/typegraph"
)

// predecessor records how the BFS reached a node: through a forward edge with
// remaining capacity, or backwards against an edge carrying flow.
type predecessor struct {
	edge    *typegraph.Edge
	forward bool
}

// ComputeFlow runs Edmonds–Karp from the nullable sink to the non-null sink.
// Shortest augmenting paths over integer capacities make the result
// deterministic for a deterministic graph. When it returns, every edge's
// Capacity has been rewritten to its residual capacity; saturated edges form
// the minimum-cut frontier. Cancellation is honoured between augmenting
// paths.
func ComputeFlow(ctx context.Context, ts *typegraph.TypeSystem) error {
	src, dst := ts.NullableSink(), ts.NonNullSink()
	for {
		if err := context.Cause(ctx); err != nil {
			return err
		}
		pred := shortestAugmentingPath(src, dst)
		if pred == nil {
			break
		}

		bottleneck := int64(math.MaxInt64)
		for v := dst; v != src; {
			p := pred[v]
			if r := residual(p); r < bottleneck {
				bottleneck = r
			}
			v = from(p)
		}
		for v := dst; v != src; {
			p := pred[v]
			if p.forward {
				p.edge.Flow += bottleneck
			} else {
				p.edge.Flow -= bottleneck
			}
			v = from(p)
		}
	}

	for _, e := range ts.AllEdges() {
		e.Capacity -= e.Flow
	}
	return nil
}

func residual(p predecessor) int64 {
	if p.forward {
		return p.edge.Capacity - p.edge.Flow
	}
	return p.edge.Flow
}

func from(p predecessor) *typegraph.Node {
	if p.forward {
		return p.edge.Source
	}
	return p.edge.Target
}

// shortestAugmentingPath finds a shortest path from src to dst in the
// residual graph, returning the predecessor map or nil if dst is
// unreachable. Adjacency lists are visited in creation order, keeping the
// augmentation sequence deterministic.
func shortestAugmentingPath(src, dst *typegraph.Node) map[*typegraph.Node]predecessor {
	pred := make(map[*typegraph.Node]predecessor)
	visited := map[*typegraph.Node]bool{src: true}
	queue := []*typegraph.Node{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range u.Out {
			if e.Capacity-e.Flow <= 0 || visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			pred[e.Target] = predecessor{edge: e, forward: true}
			if e.Target == dst {
				return pred
			}
			queue = append(queue, e.Target)
		}
		for _, e := range u.In {
			if e.Flow <= 0 || visited[e.Source] {
				continue
			}
			visited[e.Source] = true
			pred[e.Source] = predecessor{edge: e, forward: false}
			if e.Source == dst {
				return pred
			}
			queue = append(queue, e.Source)
		}
	}
	return nil
}
