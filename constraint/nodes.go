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

// Package constraint implements the two builder passes over a translation
// unit: the node pass creates one nullability node per reference-typed
// syntactic position, the edge pass wires the nodes with flow constraints.
package constraint

import (
	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
)

// NodeBuilder is the first pass over one translation unit. It creates nodes,
// records the syntax→node mapping, registers declared symbol types and marks
// input positions. It emits no edges and reads no other unit.
type NodeBuilder struct {
	b     *typegraph.Builder
	model lang.Model
	// pinAnnotations makes explicit `?` markers assert nullability. It is off
	// in the normalised pipeline, where every marker is synthetic.
	pinAnnotations bool

	// memo keeps one TypeWithNode per type syntax so shared syntax (a var
	// initialiser reused as the local's type shape) resolves to the same
	// nodes.
	memo map[*lang.TypeSyntax]typegraph.TypeWithNode
}

// NewNodeBuilder returns a node builder writing into b.
func NewNodeBuilder(b *typegraph.Builder, model lang.Model, pinAnnotations bool) *NodeBuilder {
	return &NodeBuilder{
		b:              b,
		model:          model,
		pinAnnotations: pinAnnotations,
		memo:           make(map[*lang.TypeSyntax]typegraph.TypeWithNode),
	}
}

// Build walks the builder's translation unit.
func (nb *NodeBuilder) Build() {
	for _, cd := range nb.b.Unit().Classes {
		nb.class(cd)
	}
}

func (nb *NodeBuilder) class(cd *lang.ClassDecl) {
	for _, fd := range cd.Fields {
		twn := nb.typeFromSyntax(fd.Type)
		if sym := nb.model.SymbolFor(fd); sym != nil {
			nb.b.RegisterSymbolType(sym, twn)
		}
		nb.expr(fd.Init)
	}
	for _, md := range cd.Methods {
		nb.method(md)
	}
}

func (nb *NodeBuilder) method(md *lang.MethodDecl) {
	if md.Return != nil {
		twn := nb.typeFromSyntax(md.Return)
		if sym := nb.model.SymbolFor(md); sym != nil {
			nb.b.RegisterSymbolType(sym, twn)
		}
	}
	for _, pd := range md.Params {
		twn := nb.typeFromSyntax(pd.Type)
		if sym := nb.model.SymbolFor(pd); sym != nil {
			nb.b.RegisterSymbolType(sym, twn)
		}
		nb.b.MarkInputPosition(twn.Node)
	}
	nb.expr(md.Expr)
	nb.stmts(md.Body)
}

// typeFromSyntax creates the node tree for one syntactic type reference and
// records the mapping. Value-typed layers share the oblivious singleton.
func (nb *NodeBuilder) typeFromSyntax(ts *lang.TypeSyntax) typegraph.TypeWithNode {
	if ts == nil {
		return typegraph.TypeWithNode{Node: nb.b.Oblivious()}
	}
	if twn, ok := nb.memo[ts]; ok {
		return twn
	}
	t := nb.model.ResolveType(ts)
	node := nb.b.Oblivious()
	if nb.model.CanBeMadeNullable(t) {
		node = nb.b.NewNode(ts.Pos(), syntaxName(ts))
		if nb.pinAnnotations && ts.Nullable {
			nb.b.MarkPinnedNullable(node)
		}
	}
	nb.b.SetNode(ts, node)
	twn := typegraph.TypeWithNode{Type: t, Node: node}
	if ts.IsArray() {
		twn.Args = append(twn.Args, nb.typeFromSyntax(ts.Elem))
	}
	for _, arg := range ts.Args {
		twn.Args = append(twn.Args, nb.typeFromSyntax(arg))
	}
	nb.memo[ts] = twn
	return twn
}

func syntaxName(ts *lang.TypeSyntax) string {
	if ts.IsArray() {
		return syntaxName(ts.Elem) + "[]"
	}
	return ts.Name
}

func (nb *NodeBuilder) stmts(stmts []lang.Stmt) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *lang.LocalDecl:
			nb.local(s)
		case *lang.Assign:
			nb.expr(s.Target)
			nb.expr(s.Value)
		case *lang.Return:
			nb.expr(s.Value)
		case *lang.If:
			nb.expr(s.Cond)
			nb.stmts(s.Then)
			nb.stmts(s.Else)
		case *lang.ExprStmt:
			nb.expr(s.X)
		}
	}
}

func (nb *NodeBuilder) local(s *lang.LocalDecl) {
	nb.expr(s.Init)

	twn := typegraph.TypeWithNode{Node: nb.b.Oblivious()}
	switch {
	case s.Type != nil:
		twn = nb.typeFromSyntax(s.Type)
	default:
		// `var`: share the initialiser's node structure when it is a `new`
		// expression, otherwise shape fresh nodes from the inferred type.
		if n, ok := s.Init.(*lang.New); ok {
			twn = nb.typeFromSyntax(n.Type)
		} else if s.Init != nil {
			twn = nb.freshFromType(nb.model.TypeFor(s.Init), s.Pos(), s.Name)
		}
	}
	if sym := nb.model.SymbolFor(s); sym != nil {
		nb.b.RegisterSymbolType(sym, twn)
	}
}

// freshFromType builds a node tree shaped like a resolved type, for positions
// with no syntax of their own.
func (nb *NodeBuilder) freshFromType(t lang.Type, loc lang.Position, name string) typegraph.TypeWithNode {
	twn := typegraph.TypeWithNode{Type: t, Node: nb.b.Oblivious()}
	if t == nil {
		return twn
	}
	if nb.model.CanBeMadeNullable(t) {
		twn.Node = nb.b.NewNode(loc, name)
	}
	switch t := t.(type) {
	case *lang.ClassType:
		for _, a := range t.Args {
			twn.Args = append(twn.Args, nb.freshFromType(a, loc, name))
		}
	case *lang.ArrayType:
		twn.Args = append(twn.Args, nb.freshFromType(t.Elem, loc, name+"[]"))
	}
	return twn
}

// expr allocates result nodes for the expression forms whose nullability is
// not carried by a declared symbol: null and string literals, call sites,
// coalescing results and conditional accesses.
func (nb *NodeBuilder) expr(e lang.Expr) {
	switch e := e.(type) {
	case nil:
		return
	case *lang.NullLit:
		nb.b.SetNode(e, nb.b.NewNode(e.Pos(), "null"))
	case *lang.StringLit:
		nb.b.SetNode(e, nb.b.NewNode(e.Pos(), "string literal"))
	case *lang.Member:
		nb.expr(e.X)
		nb.registerBuiltinMember(e)
		if e.Conditional {
			nb.b.SetNode(e, nb.resultNode(e, "conditional access"))
		}
	case *lang.Call:
		nb.expr(e.Fun)
		for _, a := range e.Args {
			nb.expr(a)
		}
		nb.b.SetNode(e, nb.resultNode(e, "call"))
	case *lang.Index:
		nb.expr(e.X)
		nb.expr(e.I)
	case *lang.Coalesce:
		nb.expr(e.X)
		nb.expr(e.Y)
		nb.b.SetNode(e, nb.resultNode(e, "??"))
	case *lang.NotNull:
		nb.expr(e.X)
	case *lang.New:
		nb.typeFromSyntax(e.Type)
		for _, a := range e.Args {
			nb.expr(a)
		}
	case *lang.Binary:
		nb.expr(e.X)
		nb.expr(e.Y)
	}
}

// registerBuiltinMember registers the composite type of a builtin member
// (string.Length, object.ToString) at its first syntactic use. Builtins have
// no declaring unit, so the use site takes on the registration; the flush
// order keeps the winning registration deterministic.
func (nb *NodeBuilder) registerBuiltinMember(e lang.Expr) {
	switch sym := nb.model.SymbolFor(e).(type) {
	case *lang.FieldSymbol:
		if sym.Decl == nil {
			nb.b.RegisterSymbolType(sym, nb.freshFromType(sym.Type, e.Pos(), sym.SymbolName()))
		}
	case *lang.MethodSymbol:
		if sym.Builtin {
			nb.b.RegisterSymbolType(sym, nb.freshFromType(sym.Result, e.Pos(), sym.SymbolName()))
		}
	}
}

// resultNode allocates a node for an expression result when its type can be
// nullable, else the oblivious singleton.
func (nb *NodeBuilder) resultNode(e lang.Expr, name string) *typegraph.Node {
	if nb.model.CanBeMadeNullable(nb.model.TypeFor(e)) {
		return nb.b.NewNode(e.Pos(), name)
	}
	return nb.b.Oblivious()
}
