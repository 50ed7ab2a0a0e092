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

package lang

// FlowState is the host flow analysis' verdict about a value right before a
// syntax node is evaluated.
type FlowState int

const (
	// FlowUnknown means the flow analysis has nothing to say.
	FlowUnknown FlowState = iota
	// FlowMaybeNull means the value may be null at this point.
	FlowMaybeNull
	// FlowNotNull means the value is definitely not null at this point.
	FlowNotNull
)

// Model is the semantic model the engine consumes. It must be read-only after
// construction: the engine shares one model across concurrent builder
// goroutines. Lookups on syntax the model has never seen return zero values
// (nil symbol, nil type, FlowUnknown); the engine degrades such positions to
// oblivious rather than failing.
type Model interface {
	// SymbolFor resolves the symbol a syntax node declares or references, or
	// nil if unresolved.
	SymbolFor(n Node) Symbol
	// TypeFor resolves the type of an expression, or nil if unresolved.
	TypeFor(e Expr) Type
	// ResolveType resolves a syntactic type reference, or nil if unresolved.
	ResolveType(t *TypeSyntax) Type
	// IsReferenceType reports whether t is a reference type.
	IsReferenceType(t Type) bool
	// CanBeMadeNullable reports whether a `?` annotation is meaningful on t:
	// reference types and unconstrained type parameters qualify.
	CanBeMadeNullable(t Type) bool
	// FlowStateBefore reports the host flow analysis' knowledge about the
	// value of n immediately before its evaluation.
	FlowStateBefore(n Node) FlowState
}
