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

import "fmt"

// Program is the bound form of a set of compilation units. It implements
// Model and is read-only after Bind returns, so it may be shared freely
// across the engine's builder goroutines.
type Program struct {
	Units []*CompilationUnit

	classes map[string]*ClassSymbol
	symbols map[Node]Symbol
	types   map[Expr]Type
	syntax  map[*TypeSyntax]Type
	flow    map[Node]FlowState

	// Hidden class symbols backing members of the builtin reference types.
	stringClass *ClassSymbol
	objectClass *ClassSymbol
}

var _ Model = (*Program)(nil)

// Bind resolves symbols and types for the given units and runs the per-method
// flow analysis. Unresolvable names are left unbound (nil symbol / nil type)
// so that analysis can degrade gracefully; only structural problems such as
// duplicate class names are reported as errors.
func Bind(units []*CompilationUnit) (*Program, error) {
	p := &Program{
		Units:   units,
		classes: make(map[string]*ClassSymbol),
		symbols: make(map[Node]Symbol),
		types:   make(map[Expr]Type),
		syntax:  make(map[*TypeSyntax]Type),
		flow:    make(map[Node]FlowState),
	}
	p.declareBuiltins()

	// Pass 1: declare classes, type parameters, and member stubs.
	for _, unit := range units {
		for _, cd := range unit.Classes {
			if _, ok := p.classes[cd.Name]; ok {
				return nil, fmt.Errorf("duplicate class %q at %v", cd.Name, cd.Pos())
			}
			cs := &ClassSymbol{Name: cd.Name, Decl: cd}
			for i, tp := range cd.TypeParams {
				cs.TypeParams = append(cs.TypeParams, &TypeParamSymbol{Name: tp, Owner: cs, Index: i})
			}
			p.classes[cd.Name] = cs
			p.symbols[cd] = cs
		}
	}

	// Pass 2: resolve member signatures (field types, parameter and return
	// types, base classes), then override links once every class has its
	// methods, so declaration order cannot hide a base method.
	for _, unit := range units {
		for _, cd := range unit.Classes {
			p.bindSignatures(p.classes[cd.Name])
		}
	}
	for _, unit := range units {
		for _, cd := range unit.Classes {
			p.bindOverrides(p.classes[cd.Name])
		}
	}

	// Pass 3: type field initialisers and method bodies, and compute flow
	// facts.
	for _, unit := range units {
		for _, cd := range unit.Classes {
			cs := p.classes[cd.Name]
			p.bindFieldInits(cs)
			for _, ms := range cs.Methods {
				p.bindBody(ms)
				p.analyzeFlow(ms)
			}
		}
	}
	return p, nil
}

// bindFieldInits types field initialiser expressions in a synthetic
// initialiser scope of the owning class.
func (p *Program) bindFieldInits(cs *ClassSymbol) {
	sc := &scope{
		method: &MethodSymbol{Name: "<init>", Owner: cs, Result: VoidType},
		locals: make(map[string]*LocalSymbol),
	}
	for _, fs := range cs.Fields {
		if fs.Decl != nil && fs.Decl.Init != nil {
			p.typeExpr(fs.Decl.Init, sc)
		}
	}
}

func (p *Program) declareBuiltins() {
	p.objectClass = &ClassSymbol{Name: "object"}
	toString := &MethodSymbol{Name: "ToString", Owner: p.objectClass, Result: StringType, Builtin: true}
	p.objectClass.Methods = append(p.objectClass.Methods, toString)

	p.stringClass = &ClassSymbol{Name: "string", Base: p.objectClass}
	length := &FieldSymbol{Name: "Length", Owner: p.stringClass, Type: IntType}
	p.stringClass.Fields = append(p.stringClass.Fields, length)
}

func (p *Program) bindSignatures(cs *ClassSymbol) {
	cd := cs.Decl
	if cd.Base != nil {
		if bt, ok := p.resolveType(cd.Base, cs).(*ClassType); ok {
			cs.Base = bt.Sym
		}
	}
	for _, fd := range cd.Fields {
		fs := &FieldSymbol{Name: fd.Name, Owner: cs, Decl: fd, Type: p.resolveType(fd.Type, cs)}
		cs.Fields = append(cs.Fields, fs)
		p.symbols[fd] = fs
	}
	for _, md := range cd.Methods {
		ms := &MethodSymbol{Name: md.Name, Owner: cs, Decl: md}
		if md.Return != nil {
			ms.Result = p.resolveType(md.Return, cs)
		} else {
			ms.Result = VoidType
		}
		for i, pd := range md.Params {
			ps := &ParamSymbol{Name: pd.Name, Method: ms, Decl: pd, Index: i, Type: p.resolveType(pd.Type, cs)}
			ms.Params = append(ms.Params, ps)
			p.symbols[pd] = ps
		}
		cs.Methods = append(cs.Methods, ms)
		p.symbols[md] = ms
	}
}

func (p *Program) bindOverrides(cs *ClassSymbol) {
	for _, ms := range cs.Methods {
		if ms.Decl == nil || !ms.Decl.Override {
			continue
		}
		for base := cs.Base; base != nil; base = base.Base {
			if m := base.methodNamed(ms.Name); m != nil {
				ms.Overrides = m
				break
			}
		}
	}
}

func (c *ClassSymbol) methodNamed(name string) *MethodSymbol {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (c *ClassSymbol) fieldNamed(name string) *FieldSymbol {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// resolveType resolves a type syntax in the scope of class cs (whose type
// parameters are visible). Unresolved names yield nil.
func (p *Program) resolveType(ts *TypeSyntax, cs *ClassSymbol) Type {
	if ts == nil {
		return nil
	}
	if t, ok := p.syntax[ts]; ok {
		return t
	}
	var t Type
	switch {
	case ts.IsArray():
		if elem := p.resolveType(ts.Elem, cs); elem != nil {
			t = &ArrayType{Elem: elem}
		}
	default:
		t = p.resolveNamed(ts, cs)
	}
	if t != nil {
		p.syntax[ts] = t
	}
	return t
}

func (p *Program) resolveNamed(ts *TypeSyntax, cs *ClassSymbol) Type {
	switch ts.Name {
	case "string":
		return StringType
	case "object":
		return ObjectType
	case "int":
		return IntType
	case "bool":
		return BoolType
	case "void":
		return VoidType
	}
	if cs != nil {
		for _, tp := range cs.TypeParams {
			if tp.Name == ts.Name {
				return &TypeParamType{Sym: tp}
			}
		}
	}
	decl, ok := p.classes[ts.Name]
	if !ok {
		return nil
	}
	ct := &ClassType{Sym: decl}
	for _, arg := range ts.Args {
		ct.Args = append(ct.Args, p.resolveType(arg, cs))
	}
	return ct
}

// scope is the lexical environment of one method body.
type scope struct {
	method *MethodSymbol
	locals map[string]*LocalSymbol
}

func (p *Program) bindBody(ms *MethodSymbol) {
	md := ms.Decl
	if md == nil {
		return
	}
	sc := &scope{method: ms, locals: make(map[string]*LocalSymbol)}
	if md.Expr != nil {
		p.typeExpr(md.Expr, sc)
	}
	p.bindStmts(md.Body, sc)
}

func (p *Program) bindStmts(stmts []Stmt, sc *scope) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *LocalDecl:
			var t Type
			if s.Type != nil {
				t = p.resolveType(s.Type, sc.method.Owner)
			}
			if s.Init != nil {
				it := p.typeExpr(s.Init, sc)
				if t == nil {
					t = it
				}
			}
			ls := &LocalSymbol{Name: s.Name, Method: sc.method, Decl: s, Type: t}
			sc.locals[s.Name] = ls
			p.symbols[s] = ls
		case *Assign:
			p.typeExpr(s.Target, sc)
			p.typeExpr(s.Value, sc)
		case *Return:
			if s.Value != nil {
				p.typeExpr(s.Value, sc)
			}
		case *If:
			p.typeExpr(s.Cond, sc)
			p.bindStmts(s.Then, sc)
			p.bindStmts(s.Else, sc)
		case *ExprStmt:
			p.typeExpr(s.X, sc)
		}
	}
}

func (p *Program) typeExpr(e Expr, sc *scope) Type {
	if t, ok := p.types[e]; ok {
		return t
	}
	var t Type
	switch e := e.(type) {
	case *Ident:
		if sym := p.resolveIdent(e, sc); sym != nil {
			p.symbols[e] = sym
			t = symbolValueType(sym)
		}
	case *NullLit:
		t = NullConst
	case *StringLit:
		t = StringType
	case *IntLit:
		t = IntType
	case *Member:
		recv := p.typeExpr(e.X, sc)
		if sym := p.lookupMember(recv, e.Name); sym != nil {
			p.symbols[e] = sym
			t = substituteType(symbolValueType(sym), recv)
		}
	case *Call:
		t = p.typeCall(e, sc)
	case *Index:
		xt := p.typeExpr(e.X, sc)
		p.typeExpr(e.I, sc)
		if at, ok := xt.(*ArrayType); ok {
			t = at.Elem
		}
	case *Coalesce:
		xt := p.typeExpr(e.X, sc)
		yt := p.typeExpr(e.Y, sc)
		t = xt
		if t == nil || t == NullConst {
			t = yt
		}
	case *NotNull:
		t = p.typeExpr(e.X, sc)
	case *New:
		t = p.resolveType(e.Type, sc.method.Owner)
		if ct, ok := t.(*ClassType); ok {
			if ctor := ct.Sym.methodNamed(ct.Sym.Name); ctor != nil {
				p.symbols[e] = ctor
			}
		}
		for _, a := range e.Args {
			p.typeExpr(a, sc)
		}
	case *Binary:
		p.typeExpr(e.X, sc)
		p.typeExpr(e.Y, sc)
		t = BoolType
	}
	if t != nil {
		p.types[e] = t
	}
	return t
}

func (p *Program) typeCall(e *Call, sc *scope) Type {
	switch fun := e.Fun.(type) {
	case *Member:
		recv := p.typeExpr(fun.X, sc)
		sym, _ := p.lookupMember(recv, fun.Name).(*MethodSymbol)
		if sym != nil {
			p.symbols[fun] = sym
			p.symbols[e] = sym
		}
		for _, a := range e.Args {
			p.typeExpr(a, sc)
		}
		if sym == nil {
			return nil
		}
		return substituteType(sym.Result, recv)
	case *Ident:
		sym := sc.method.Owner.methodNamed(fun.Name)
		if sym != nil {
			p.symbols[fun] = sym
			p.symbols[e] = sym
		}
		for _, a := range e.Args {
			p.typeExpr(a, sc)
		}
		if sym == nil {
			return nil
		}
		return sym.Result
	}
	for _, a := range e.Args {
		p.typeExpr(a, sc)
	}
	return nil
}

func (p *Program) resolveIdent(e *Ident, sc *scope) Symbol {
	if ls, ok := sc.locals[e.Name]; ok {
		return ls
	}
	for _, ps := range sc.method.Params {
		if ps.Name == e.Name {
			return ps
		}
	}
	for c := sc.method.Owner; c != nil; c = c.Base {
		if f := c.fieldNamed(e.Name); f != nil {
			return f
		}
	}
	return nil
}

// lookupMember finds member name on receiver type recv, walking base classes
// and falling through to the builtin object members for any reference type.
func (p *Program) lookupMember(recv Type, name string) Symbol {
	var start *ClassSymbol
	switch recv := recv.(type) {
	case *ClassType:
		start = recv.Sym
	case *BasicType:
		if recv == StringType {
			start = p.stringClass
		} else if recv.Reference {
			start = p.objectClass
		}
	case *ArrayType, *TypeParamType:
		start = p.objectClass
	}
	for c := start; c != nil; c = c.Base {
		if f := c.fieldNamed(name); f != nil {
			return f
		}
		if m := c.methodNamed(name); m != nil {
			return m
		}
	}
	if start != nil && start != p.objectClass {
		return p.lookupMemberObject(name)
	}
	return nil
}

func (p *Program) lookupMemberObject(name string) Symbol {
	if m := p.objectClass.methodNamed(name); m != nil {
		return m
	}
	return nil
}

// symbolValueType is the type a use of the symbol evaluates to.
func symbolValueType(sym Symbol) Type {
	switch sym := sym.(type) {
	case *FieldSymbol:
		return sym.Type
	case *ParamSymbol:
		return sym.Type
	case *LocalSymbol:
		return sym.Type
	case *MethodSymbol:
		return sym.Result
	}
	return nil
}

// substituteType replaces type parameters of the receiver's class with the
// receiver's type arguments, recursively.
func substituteType(t Type, recv Type) Type {
	ct, ok := recv.(*ClassType)
	if !ok || len(ct.Args) == 0 || t == nil {
		return t
	}
	return substituteWith(t, ct)
}

func substituteWith(t Type, ct *ClassType) Type {
	switch t := t.(type) {
	case *TypeParamType:
		if t.Sym.Owner == ct.Sym && t.Sym.Index < len(ct.Args) {
			return ct.Args[t.Sym.Index]
		}
	case *ArrayType:
		return &ArrayType{Elem: substituteWith(t.Elem, ct)}
	case *ClassType:
		if len(t.Args) == 0 {
			return t
		}
		out := &ClassType{Sym: t.Sym, Args: make([]Type, len(t.Args))}
		for i, a := range t.Args {
			out.Args[i] = substituteWith(a, ct)
		}
		return out
	}
	return t
}

// SymbolFor implements Model.
func (p *Program) SymbolFor(n Node) Symbol { return p.symbols[n] }

// TypeFor implements Model.
func (p *Program) TypeFor(e Expr) Type { return p.types[e] }

// ResolveType implements Model. Type syntax is resolved during binding; this
// is a cache lookup.
func (p *Program) ResolveType(t *TypeSyntax) Type { return p.syntax[t] }

// IsReferenceType implements Model.
func (p *Program) IsReferenceType(t Type) bool { return t != nil && IsReference(t) }

// CanBeMadeNullable implements Model.
func (p *Program) CanBeMadeNullable(t Type) bool { return t != nil && t != NullConst && IsReference(t) }

// FlowStateBefore implements Model.
func (p *Program) FlowStateBefore(n Node) FlowState { return p.flow[n] }
