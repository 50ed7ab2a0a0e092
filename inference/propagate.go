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

package inference

import (
	"context"

	"github.com/inferlab/nullinfer/typegraph"
)

// PropagateLabels assigns every node its final label from the residual graph
// left behind by ComputeFlow. The ordering is deliberate: non-null first with
// saturated edges hidden, nullable second over all originally-traversable
// edges, input positions biased nullable, everything else non-null. Running
// the non-null phase first reports as close to a required-non-null point as
// possible; the nullable bias on parameters keeps inferred APIs permissive.
func PropagateLabels(ctx context.Context, ts *typegraph.TypeSystem) error {
	ts.ResetSinksForInference()

	// Non-null phase: everything that can reach the non-null sink without
	// crossing the minimum cut must be non-null.
	inferNonNull(ts.NonNullSink())

	if err := context.Cause(ctx); err != nil {
		return err
	}

	// Nullable phase: everything reachable from the nullable sink through
	// edges that were traversable before the flow ran must tolerate null.
	// Residual capacities are ignored here; only edges created with zero
	// capacity ("already protected") stay invisible.
	inferNullable(ts.NullableSink())

	// Parameter tie-break: an input position the two phases left undecided
	// becomes nullable, and the label spreads exactly like the nullable
	// phase. The unification edges carry it across the node's equivalence
	// class.
	for _, n := range ts.NodesInInputPositions() {
		if r := n.Rep(); r.NullType() == typegraph.Infer {
			inferNullable(r)
		}
	}

	// Final sweep: copy the representative's label where one exists, default
	// the rest to non-null.
	for _, n := range ts.AllNodes() {
		if n.NullType() != typegraph.Infer {
			continue
		}
		if r := n.Rep(); r.NullType() != typegraph.Infer {
			n.SetNullType(r.NullType())
		} else {
			n.SetNullType(typegraph.NonNull)
		}
	}

	return ts.VerifyLabels()
}

// inferNonNull labels start and every node with a residual-positive path to
// it NonNull, walking incoming edges in reverse and skipping saturated edges.
func inferNonNull(start *typegraph.Node) {
	if start.NullType() != typegraph.Infer {
		return
	}
	start.SetNullType(typegraph.NonNull)
	stack := []*typegraph.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.In {
			if e.Capacity <= 0 || e.Source.NullType() != typegraph.Infer {
				continue
			}
			e.Source.SetNullType(typegraph.NonNull)
			stack = append(stack, e.Source)
		}
	}
}

// inferNullable labels start and everything reachable from it over
// positively-created edges Nullable, stopping at already-decided nodes.
func inferNullable(start *typegraph.Node) {
	if start.NullType() != typegraph.Infer {
		return
	}
	start.SetNullType(typegraph.Nullable)
	stack := []*typegraph.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range n.Out {
			if e.Initial() <= 0 || e.Target.NullType() != typegraph.Infer {
				continue
			}
			e.Target.SetNullType(typegraph.Nullable)
			stack = append(stack, e.Target)
		}
	}
}
