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

// Package nullinfer infers nullability annotations for a statically typed
// object-oriented language. Given compilation units and a semantic model, it
// builds a typed flow graph between every reference-typed syntactic position,
// solves a max-flow problem between a nullable and a non-null sink, labels
// each position from the residual graph, and can emit the units with the
// inferred annotations applied.
package nullinfer

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/inferlab/nullinfer/config"
	"github.com/inferlab/nullinfer/constraint"
	"github.com/inferlab/nullinfer/diagnostic"
	"github.com/inferlab/nullinfer/inference"
	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
	"golang.org/x/sync/errgroup"
)

// Result is what one analysis surfaces to the caller: the non-fatal findings.
// Fatal conditions (builder bugs, cancellation) are returned as errors from
// Analyze instead.
type Result struct {
	// Diagnostics are the violated non-null assertions: places where the
	// inferred flow pushes a nullable value into a context the program
	// requires to be non-null.
	Diagnostics []diagnostic.Diagnostic
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelism bounds the number of translation units analysed
// concurrently in the builder stages.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.conf.Parallelism = n }
}

// WithAnnotationPinning makes explicit `?` markers in the input assert
// nullability. Leave it off for input produced by the all-nullable
// normaliser, where every marker is synthetic.
func WithAnnotationPinning() Option {
	return func(e *Engine) { e.pinAnnotations = true }
}

// Engine runs the inference pipeline over a fixed set of units. An engine is
// single-shot: analyse once, then query. A cancelled or failed engine is in
// an unspecified state and must be discarded.
type Engine struct {
	units          []*lang.CompilationUnit
	model          lang.Model
	ts             *typegraph.TypeSystem
	conf           config.Config
	pinAnnotations bool
	analyzed       bool
	diagnostics    []diagnostic.Diagnostic
}

// NewEngine returns an engine for the given units and their semantic model.
func NewEngine(units []*lang.CompilationUnit, model lang.Model, opts ...Option) *Engine {
	e := &Engine{
		units: units,
		model: model,
		ts:    typegraph.NewTypeSystem(),
		conf:  config.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TypeSystem exposes the underlying graph, read-only after Analyze.
func (e *Engine) TypeSystem() *typegraph.TypeSystem { return e.ts }

// Analyze runs the full pipeline: the node pass across units in parallel, the
// edge pass across units in parallel, then the max-flow solve and the label
// propagation. Cancellation is checked before each unit and between the
// propagation phases. Internal invariant violations are recovered into the
// returned error; they indicate a builder bug, not bad input.
func (e *Engine) Analyze(ctx context.Context) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("internal error: %v\n%s", r, debug.Stack())
		}
	}()
	if e.analyzed {
		return nil, fmt.Errorf("engine already analyzed; create a fresh engine")
	}
	e.analyzed = true

	// Node pass: unit-parallel, then one flush per unit in deterministic
	// unit order so node indices are reproducible.
	builders := make([]*typegraph.Builder, len(e.units))
	if err := e.forEachUnit(ctx, func(i int, unit *lang.CompilationUnit) {
		b := e.ts.NewBuilder(unit)
		constraint.NewNodeBuilder(b, e.model, e.pinAnnotations).Build()
		builders[i] = b
	}); err != nil {
		return nil, err
	}
	for _, b := range builders {
		e.ts.Flush(b)
	}

	// Edge pass: every node and symbol type is published and read-only now,
	// so the walks only read shared state until their own flush.
	if err := e.forEachUnit(ctx, func(i int, unit *lang.CompilationUnit) {
		b := e.ts.NewBuilder(unit)
		constraint.NewEdgeBuilder(b, e.ts, e.model).Build()
		builders[i] = b
	}); err != nil {
		return nil, err
	}
	for _, b := range builders {
		e.ts.Flush(b)
	}

	if err := inference.ComputeFlow(ctx, e.ts); err != nil {
		return nil, err
	}
	if err := inference.PropagateLabels(ctx, e.ts); err != nil {
		return nil, err
	}

	e.diagnostics = diagnostic.Collect(e.ts)
	return &Result{Diagnostics: e.diagnostics}, nil
}

func (e *Engine) forEachUnit(ctx context.Context, f func(i int, unit *lang.CompilationUnit)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.conf.EffectiveParallelism())
	for i, unit := range e.units {
		i, unit := i, unit
		g.Go(func() (err error) {
			// Builder panics must not escape the worker goroutine; convert
			// them into the fatal analysis error they represent.
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("internal error analyzing unit %q: %v\n%s", unit.Name, r, debug.Stack())
				}
			}()
			if err := context.Cause(gctx); err != nil {
				return err
			}
			f(i, unit)
			return nil
		})
	}
	return g.Wait()
}

// Annotations applies the inferred labels to every unit and returns the
// rewritten units in input order. Positions the graph knows nothing about
// (value types, unresolved syntax) keep their existing markers.
func (e *Engine) Annotations() []*lang.CompilationUnit {
	out := make([]*lang.CompilationUnit, len(e.units))
	for i, unit := range e.units {
		m := e.ts.Mapping(unit)
		out[i] = lang.ApplyAnnotations(unit, func(ts *lang.TypeSyntax) lang.Annotation {
			n := m.Node(ts)
			if n == nil {
				return lang.AnnotationKeep
			}
			switch n.Rep().NullType() {
			case typegraph.Nullable:
				return lang.AnnotationNullable
			case typegraph.NonNull:
				return lang.AnnotationNonNull
			}
			return lang.AnnotationKeep
		})
	}
	return out
}
