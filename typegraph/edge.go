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

import "fmt"

// InfiniteCapacity is the capacity of edges no augmenting path may ever cut:
// unification edges and pinned-nullable assertions. Large enough that sums
// along any realistic path cannot overflow int64.
const InfiniteCapacity int64 = 1 << 40

// Edge is one directed flow constraint: `Source → Target` reads "if Source
// can be null then Target must tolerate null". Edges are never removed; the
// solver rewrites Capacity to the residual capacity and records Flow.
type Edge struct {
	Source *Node
	Target *Node
	// Capacity is the edge capacity before the max-flow run and the residual
	// capacity after it.
	Capacity int64
	// Flow is the flow the solver pushed through the edge; meaningful only
	// after the solver has run.
	Flow int64
	// IsError marks edges asserted required-non-null by the user; nonzero
	// flow through such an edge is surfaced as a diagnostic.
	IsError bool
	// Label records the edge's origin for diagnostics, e.g. "assignment" or
	// "argument of Get".
	Label string

	initial int64
}

// Initial returns the capacity the edge was created with. Zero-capacity
// edges record a flow-protected constraint and are skipped by the nullable
// propagation phase.
func (e *Edge) Initial() int64 { return e.initial }

// Saturated reports whether the edge lies on the minimum-cut frontier, i.e.
// its residual capacity is zero. Meaningful only after the solver has run.
func (e *Edge) Saturated() bool { return e.Capacity == 0 }

func (e *Edge) String() string {
	return fmt.Sprintf("%s -> %s [%s cap=%d flow=%d]", e.Source.Name, e.Target.Name, e.Label, e.Capacity, e.Flow)
}
