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

// Package diagnostic turns the solved nullability graph's violated non-null
// assertions into user-facing, position-sorted diagnostics.
package diagnostic

import (
	"fmt"
	"slices"
	"strings"

	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
)

// Diagnostic is one user-visible warning: a nullable value flows into a
// context the program requires to be non-null.
type Diagnostic struct {
	Pos     lang.Position
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%v: %s", d.Pos, d.Message)
}

// Collect gathers every error edge the solver pushed flow through. Run it
// only after the solver has rewritten capacities; before that no edge carries
// flow and the result is empty. The result is sorted by position, then
// message, for stable reporting.
func Collect(ts *typegraph.TypeSystem) []Diagnostic {
	var out []Diagnostic
	for _, e := range ts.AllEdges() {
		if !e.IsError || e.Flow <= 0 {
			continue
		}
		out = append(out, Diagnostic{
			Pos:     e.Source.Loc,
			Message: fmt.Sprintf("nullable value used where a non-null value is required (%s)", e.Label),
		})
	}
	slices.SortFunc(out, func(a, b Diagnostic) int {
		if c := a.Pos.Compare(b.Pos); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	return out
}
