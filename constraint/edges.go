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

package constraint

import (
	"github.com/inferlab/nullinfer/lang"
	"github.com/inferlab/nullinfer/typegraph"
)

// variance controls the direction of recursive assignment edges.
type variance int8

const (
	covariant variance = iota
	contravariant
	invariant
)

// EdgeBuilder is the second pass over one translation unit. Every syntax
// node's nullability node is resolvable through the mapping built by the node
// pass, and every symbol's TypeWithNode through the type system, so the walk
// can emit flow edges for assignments, returns, argument passing, generic
// substitution, dereferences and inheritance.
type EdgeBuilder struct {
	b       *typegraph.Builder
	ts      *typegraph.TypeSystem
	model   lang.Model
	mapping *typegraph.Mapping
}

// NewEdgeBuilder returns an edge builder for b's unit. The node pass for the
// unit must have flushed already.
func NewEdgeBuilder(b *typegraph.Builder, ts *typegraph.TypeSystem, model lang.Model) *EdgeBuilder {
	return &EdgeBuilder{b: b, ts: ts, model: model, mapping: ts.Mapping(b.Unit())}
}

// Build walks the unit in statement order; edge emission order is therefore
// deterministic.
func (eb *EdgeBuilder) Build() {
	for _, cd := range eb.b.Unit().Classes {
		eb.class(cd)
	}
}

func (eb *EdgeBuilder) class(cd *lang.ClassDecl) {
	assigned := eb.fieldsAssignedInConstructors(cd)
	for _, fd := range cd.Fields {
		eb.pinned(fd.Type)
		twn := eb.typeFromMapping(fd.Type)
		switch {
		case fd.Init != nil:
			v := eb.expr(fd.Init)
			eb.assign(v, twn, covariant, "field initializer")
		case !assigned[eb.model.SymbolFor(fd)]:
			// A field with no initialiser and no constructor assignment
			// starts out null.
			eb.b.AddEdge(eb.ts.NullableSink(), twn.Node, typegraph.InfiniteCapacity, "uninitialized field")
		}
	}
	for _, md := range cd.Methods {
		eb.method(md)
	}
}

// fieldsAssignedInConstructors collects fields assigned on any path through
// any constructor. Assignment anywhere counts; the builder does not do
// definite-assignment analysis over constructor bodies.
func (eb *EdgeBuilder) fieldsAssignedInConstructors(cd *lang.ClassDecl) map[lang.Symbol]bool {
	assigned := make(map[lang.Symbol]bool)
	for _, md := range cd.Methods {
		if md.Name != cd.Name {
			continue
		}
		var visit func(stmts []lang.Stmt)
		visit = func(stmts []lang.Stmt) {
			for _, s := range stmts {
				switch s := s.(type) {
				case *lang.Assign:
					if sym := eb.model.SymbolFor(s.Target); sym != nil {
						if f, ok := sym.(*lang.FieldSymbol); ok {
							assigned[f] = true
						}
					}
				case *lang.If:
					visit(s.Then)
					visit(s.Else)
				}
			}
		}
		visit(md.Body)
	}
	return assigned
}

func (eb *EdgeBuilder) method(md *lang.MethodDecl) {
	eb.pinned(md.Return)
	for _, pd := range md.Params {
		eb.pinned(pd.Type)
	}

	msym, _ := eb.model.SymbolFor(md).(*lang.MethodSymbol)
	if msym != nil && msym.Overrides != nil {
		eb.unifyOverride(msym, msym.Overrides)
	}

	if md.Expr != nil {
		v := eb.expr(md.Expr)
		if msym != nil && md.Return != nil {
			eb.assign(v, eb.symbolTWN(msym), covariant, "return")
		}
	}
	eb.stmts(md.Body, msym)
}

// unifyOverride welds an override's signature to its base method's:
// parameters contravariantly, the return covariantly — both as unification,
// since reference-type positions are invariant under nullability.
func (eb *EdgeBuilder) unifyOverride(m, base *lang.MethodSymbol) {
	for i, p := range m.Params {
		if i >= len(base.Params) {
			break
		}
		eb.unifyDeep(eb.symbolTWN(p), eb.symbolTWN(base.Params[i]))
	}
	if m.Result != nil && m.Result != lang.VoidType {
		eb.unifyDeep(eb.symbolTWN(m), eb.symbolTWN(base))
	}
}

func (eb *EdgeBuilder) unifyDeep(a, b typegraph.TypeWithNode) {
	eb.b.Unify(a.Node, b.Node)
	for i := range a.Args {
		if i >= len(b.Args) {
			break
		}
		eb.unifyDeep(a.Args[i], b.Args[i])
	}
}

// pinned emits the nullable-sink assertion for every node the node pass
// marked as pinned in this type reference.
func (eb *EdgeBuilder) pinned(ts *lang.TypeSyntax) {
	if ts == nil {
		return
	}
	if n := eb.mapping.Node(ts); n != nil && n.PinnedNullable() {
		eb.b.AddEdge(eb.ts.NullableSink(), n, typegraph.InfiniteCapacity, "annotation")
	}
	eb.pinned(ts.Elem)
	for _, a := range ts.Args {
		eb.pinned(a)
	}
}

func (eb *EdgeBuilder) stmts(stmts []lang.Stmt, msym *lang.MethodSymbol) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *lang.LocalDecl:
			eb.pinned(s.Type)
			if s.Init == nil {
				continue
			}
			v := eb.expr(s.Init)
			sym := eb.model.SymbolFor(s)
			if sym == nil {
				continue
			}
			dst := eb.symbolTWN(sym)
			if dst.Node != v.Node {
				eb.assign(v, dst, covariant, "initialization")
			}
		case *lang.Assign:
			t := eb.expr(s.Target)
			v := eb.expr(s.Value)
			eb.assign(v, t, covariant, "assignment")
		case *lang.Return:
			if s.Value == nil {
				continue
			}
			v := eb.expr(s.Value)
			if msym != nil && msym.Result != lang.VoidType && !msym.IsConstructor() {
				eb.assign(v, eb.symbolTWN(msym), covariant, "return")
			}
		case *lang.If:
			eb.expr(s.Cond)
			eb.stmts(s.Then, msym)
			eb.stmts(s.Else, msym)
		case *lang.ExprStmt:
			eb.expr(s.X)
		}
	}
}

// expr evaluates an expression to its TypeWithNode, emitting the edges its
// evaluation implies.
func (eb *EdgeBuilder) expr(e lang.Expr) typegraph.TypeWithNode {
	switch e := e.(type) {
	case *lang.Ident:
		sym := eb.model.SymbolFor(e)
		if sym == nil {
			return eb.obliviousTWN(e)
		}
		return eb.symbolTWN(sym)

	case *lang.NullLit:
		n := eb.mapping.Node(e)
		eb.b.AddEdge(eb.ts.NullableSink(), n, typegraph.InfiniteCapacity, "null literal")
		return typegraph.TypeWithNode{Type: lang.NullConst, Node: n}

	case *lang.StringLit:
		return typegraph.TypeWithNode{Type: lang.StringType, Node: eb.mapping.Node(e)}

	case *lang.IntLit:
		return typegraph.TypeWithNode{Type: lang.IntType, Node: eb.b.Oblivious()}

	case *lang.Member:
		return eb.member(e)

	case *lang.Call:
		return eb.call(e)

	case *lang.Index:
		x := eb.expr(e.X)
		eb.expr(e.I)
		eb.deref(e.X, x, "index access")
		// The element value carries the array's element layer.
		if len(x.Args) > 0 {
			return x.Args[0]
		}
		return eb.obliviousTWN(e)

	case *lang.Coalesce:
		x := eb.expr(e.X)
		y := eb.expr(e.Y)
		res := eb.mapping.Node(e)
		// The left operand's value reaches the result only when non-null;
		// the edge is kept at zero capacity as an "already protected" record.
		eb.b.AddEdge(x.Node, res, 0, "coalesce operand")
		eb.b.AddEdge(y.Node, res, 1, "coalesce operand")
		eb.tieArgs(x, y, invariant, "coalesce operand")
		return typegraph.TypeWithNode{Type: eb.model.TypeFor(e), Node: res, Args: y.Args}

	case *lang.NotNull:
		x := eb.expr(e.X)
		eb.b.AddEdge(x.Node, eb.ts.NonNullSink(), 1, "null suppression")
		return x

	case *lang.New:
		twn := eb.typeFromMapping(e.Type)
		ctor, _ := eb.model.SymbolFor(e).(*lang.MethodSymbol)
		for i, arg := range e.Args {
			a := eb.expr(arg)
			if ctor != nil && i < len(ctor.Params) {
				p := eb.substitute(eb.symbolTWN(ctor.Params[i]), twn)
				eb.assign(a, p, covariant, "argument of "+ctor.Name)
			}
		}
		return twn

	case *lang.Binary:
		eb.expr(e.X)
		eb.expr(e.Y)
		return typegraph.TypeWithNode{Type: lang.BoolType, Node: eb.b.Oblivious()}
	}
	return typegraph.TypeWithNode{Node: eb.b.Oblivious()}
}

func (eb *EdgeBuilder) member(e *lang.Member) typegraph.TypeWithNode {
	recv := eb.expr(e.X)
	sym := eb.model.SymbolFor(e)
	var mtwn typegraph.TypeWithNode
	if sym != nil {
		mtwn = eb.substitute(eb.symbolTWN(sym), recv)
	} else {
		mtwn = eb.obliviousTWN(e)
	}

	if e.Conditional {
		res := eb.mapping.Node(e)
		eb.b.AddEdge(mtwn.Node, res, 1, "conditional access")
		eb.b.AddEdge(eb.ts.NullableSink(), res, typegraph.InfiniteCapacity, "conditional access")
		return typegraph.TypeWithNode{Type: eb.model.TypeFor(e), Node: res, Args: mtwn.Args}
	}

	eb.deref(e.X, recv, "dereference of "+e.Name)
	return mtwn
}

func (eb *EdgeBuilder) call(e *lang.Call) typegraph.TypeWithNode {
	var recv typegraph.TypeWithNode
	var msym *lang.MethodSymbol
	switch fun := e.Fun.(type) {
	case *lang.Member:
		recv = eb.expr(fun.X)
		msym, _ = eb.model.SymbolFor(fun).(*lang.MethodSymbol)
		// `x?.M()` places no dereference demand on x; the result handling
		// below marks the call result nullable instead.
		if !fun.Conditional {
			eb.deref(fun.X, recv, "call of "+fun.Name)
		}
	case *lang.Ident:
		msym, _ = eb.model.SymbolFor(fun).(*lang.MethodSymbol)
	}

	for i, arg := range e.Args {
		a := eb.expr(arg)
		if msym != nil && i < len(msym.Params) {
			p := eb.substitute(eb.symbolTWN(msym.Params[i]), recv)
			eb.assign(a, p, covariant, "argument of "+msym.Name)
		}
	}

	res := eb.mapping.Node(e)
	if msym == nil || msym.Result == lang.VoidType {
		return typegraph.TypeWithNode{Type: eb.model.TypeFor(e), Node: res}
	}
	ret := eb.substitute(eb.symbolTWN(msym), recv)
	eb.b.AddEdge(ret.Node, res, 1, "return of "+msym.Name)
	if fun, ok := e.Fun.(*lang.Member); ok && fun.Conditional {
		eb.b.AddEdge(eb.ts.NullableSink(), res, typegraph.InfiniteCapacity, "conditional access")
	}
	return typegraph.TypeWithNode{Type: eb.model.TypeFor(e), Node: res, Args: ret.Args}
}

// deref emits the required-non-null demand for a receiver. The demand is
// downgraded to a zero-capacity "already protected" edge when the host's flow
// analysis guarantees the receiver, or when the receiver is an explicit `!`
// suppression.
func (eb *EdgeBuilder) deref(recvExpr lang.Expr, recv typegraph.TypeWithNode, label string) {
	capacity := int64(1)
	if _, suppressed := recvExpr.(*lang.NotNull); suppressed || eb.model.FlowStateBefore(recvExpr) == lang.FlowNotNull {
		capacity = 0
	}
	eb.b.AddErrorEdge(recv.Node, eb.ts.NonNullSink(), capacity, label)
}

// assign emits the flow edges for a value of type src flowing into a position
// of type dst. The outermost layer follows the requested variance; matched
// type-argument layers recurse invariantly, array element layers keep the
// outer variance.
func (eb *EdgeBuilder) assign(src, dst typegraph.TypeWithNode, v variance, label string) {
	switch v {
	case covariant:
		eb.b.AddEdge(src.Node, dst.Node, 1, label)
	case contravariant:
		eb.b.AddEdge(dst.Node, src.Node, 1, label)
	case invariant:
		eb.b.AddEdge(src.Node, dst.Node, 1, label)
		eb.b.AddEdge(dst.Node, src.Node, 1, label)
	}
	eb.tieArgs(src, dst, v, label)
}

func (eb *EdgeBuilder) tieArgs(src, dst typegraph.TypeWithNode, v variance, label string) {
	for i := range src.Args {
		if i >= len(dst.Args) {
			break
		}
		inner := invariant
		if _, isArray := dst.Type.(*lang.ArrayType); isArray {
			inner = v
		}
		eb.assign(src.Args[i], dst.Args[i], inner, label)
	}
}

// substitute replaces type-parameter layers of a member's type with the
// receiver instantiation's argument layers, welding the two layers together
// with invariant edges so constraints propagate through the instantiation.
func (eb *EdgeBuilder) substitute(twn, recv typegraph.TypeWithNode) typegraph.TypeWithNode {
	ct, ok := recv.Type.(*lang.ClassType)
	if !ok || len(recv.Args) == 0 {
		return twn
	}
	return eb.substituteWith(twn, ct, recv)
}

func (eb *EdgeBuilder) substituteWith(twn typegraph.TypeWithNode, ct *lang.ClassType, recv typegraph.TypeWithNode) typegraph.TypeWithNode {
	if tp, ok := twn.Type.(*lang.TypeParamType); ok && tp.Sym.Owner == ct.Sym && tp.Sym.Index < len(recv.Args) {
		arg := recv.Args[tp.Sym.Index]
		eb.b.AddEdge(twn.Node, arg.Node, 1, "type argument")
		eb.b.AddEdge(arg.Node, twn.Node, 1, "type argument")
		return typegraph.TypeWithNode{Type: arg.Type, Node: twn.Node, Args: arg.Args}
	}
	out := typegraph.TypeWithNode{Type: twn.Type, Node: twn.Node}
	for _, a := range twn.Args {
		out.Args = append(out.Args, eb.substituteWith(a, ct, recv))
	}
	return out
}

// typeFromMapping reconstructs the TypeWithNode of a type reference from the
// mapping the node pass published.
func (eb *EdgeBuilder) typeFromMapping(ts *lang.TypeSyntax) typegraph.TypeWithNode {
	if ts == nil {
		return typegraph.TypeWithNode{Node: eb.b.Oblivious()}
	}
	node := eb.mapping.Node(ts)
	if node == nil {
		node = eb.b.Oblivious()
	}
	twn := typegraph.TypeWithNode{Type: eb.model.ResolveType(ts), Node: node}
	if ts.IsArray() {
		twn.Args = append(twn.Args, eb.typeFromMapping(ts.Elem))
	}
	for _, arg := range ts.Args {
		twn.Args = append(twn.Args, eb.typeFromMapping(arg))
	}
	return twn
}

// symbolTWN resolves the memoised composite type of a symbol, creating it for
// builtin members on first use.
func (eb *EdgeBuilder) symbolTWN(sym lang.Symbol) typegraph.TypeWithNode {
	return eb.ts.SymbolType(sym, symbolValueType(sym))
}

func (eb *EdgeBuilder) obliviousTWN(e lang.Expr) typegraph.TypeWithNode {
	return typegraph.TypeWithNode{Type: eb.model.TypeFor(e), Node: eb.b.Oblivious()}
}

func symbolValueType(sym lang.Symbol) lang.Type {
	switch sym := sym.(type) {
	case *lang.FieldSymbol:
		return sym.Type
	case *lang.ParamSymbol:
		return sym.Type
	case *lang.LocalSymbol:
		return sym.Type
	case *lang.MethodSymbol:
		return sym.Result
	}
	return nil
}
