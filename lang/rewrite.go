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

// Annotation is the decision the inferred-annotation rewriter applies to one
// syntactic type position.
type Annotation int

const (
	// AnnotationKeep leaves the existing marker untouched (oblivious
	// positions).
	AnnotationKeep Annotation = iota
	// AnnotationNullable writes a `?` marker.
	AnnotationNullable
	// AnnotationNonNull strips any `?` marker.
	AnnotationNonNull
)

// MakeAllNullable returns a copy of the unit in which every syntactic type
// position that can carry a `?` marker does. The engine expects its input in
// this normalised form. The decision is syntactic: only the value builtins
// (int, bool, void) are exempt; arrays, type parameters, classes and the
// reference builtins all qualify.
func MakeAllNullable(unit *CompilationUnit) *CompilationUnit {
	return rewriteUnit(unit, func(ts *TypeSyntax) Annotation {
		if ts.IsArray() {
			return AnnotationNullable
		}
		switch ts.Name {
		case "int", "bool", "void":
			return AnnotationNonNull
		}
		return AnnotationNullable
	})
}

// ApplyAnnotations returns a copy of the unit with each type position
// annotated per decide. decide is called with the original unit's syntax
// nodes, so callers can key decisions on syntax identity.
func ApplyAnnotations(unit *CompilationUnit, decide func(*TypeSyntax) Annotation) *CompilationUnit {
	return rewriteUnit(unit, decide)
}

func rewriteUnit(unit *CompilationUnit, decide func(*TypeSyntax) Annotation) *CompilationUnit {
	rw := rewriter{decide: decide}
	out := &CompilationUnit{Name: unit.Name}
	for _, cd := range unit.Classes {
		out.Classes = append(out.Classes, rw.class(cd))
	}
	return out
}

type rewriter struct {
	decide func(*TypeSyntax) Annotation
}

func (rw rewriter) class(cd *ClassDecl) *ClassDecl {
	out := &ClassDecl{P: cd.P, Name: cd.Name, TypeParams: append([]string(nil), cd.TypeParams...)}
	// A base-type reference is not a value position; it never carries a
	// nullability marker.
	out.Base = cd.Base.Clone()
	for _, fd := range cd.Fields {
		out.Fields = append(out.Fields, &FieldDecl{P: fd.P, Name: fd.Name, Type: rw.typeSyntax(fd.Type), Init: rw.expr(fd.Init)})
	}
	for _, md := range cd.Methods {
		out.Methods = append(out.Methods, rw.method(md))
	}
	return out
}

func (rw rewriter) method(md *MethodDecl) *MethodDecl {
	out := &MethodDecl{P: md.P, Name: md.Name, Static: md.Static, Override: md.Override}
	out.Return = rw.typeSyntax(md.Return)
	for _, pd := range md.Params {
		out.Params = append(out.Params, &ParamDecl{P: pd.P, Name: pd.Name, Type: rw.typeSyntax(pd.Type)})
	}
	out.Expr = rw.expr(md.Expr)
	out.Body = rw.stmts(md.Body)
	return out
}

func (rw rewriter) typeSyntax(ts *TypeSyntax) *TypeSyntax {
	if ts == nil {
		return nil
	}
	out := &TypeSyntax{P: ts.P, Name: ts.Name, Nullable: ts.Nullable}
	out.Elem = rw.typeSyntax(ts.Elem)
	for _, a := range ts.Args {
		out.Args = append(out.Args, rw.typeSyntax(a))
	}
	switch rw.decide(ts) {
	case AnnotationNullable:
		out.Nullable = true
	case AnnotationNonNull:
		out.Nullable = false
	}
	return out
}

func (rw rewriter) stmts(stmts []Stmt) []Stmt {
	var out []Stmt
	for _, s := range stmts {
		out = append(out, rw.stmt(s))
	}
	return out
}

func (rw rewriter) stmt(s Stmt) Stmt {
	switch s := s.(type) {
	case *LocalDecl:
		return &LocalDecl{P: s.P, Name: s.Name, Type: rw.typeSyntax(s.Type), Init: rw.expr(s.Init)}
	case *Assign:
		return &Assign{P: s.P, Target: rw.expr(s.Target), Value: rw.expr(s.Value)}
	case *Return:
		return &Return{P: s.P, Value: rw.expr(s.Value)}
	case *If:
		return &If{P: s.P, Cond: rw.expr(s.Cond), Then: rw.stmts(s.Then), Else: rw.stmts(s.Else)}
	case *ExprStmt:
		return &ExprStmt{P: s.P, X: rw.expr(s.X)}
	}
	return s
}

func (rw rewriter) expr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Ident:
		return &Ident{P: e.P, Name: e.Name}
	case *NullLit:
		return &NullLit{P: e.P}
	case *StringLit:
		return &StringLit{P: e.P, Value: e.Value}
	case *IntLit:
		return &IntLit{P: e.P, Value: e.Value}
	case *Member:
		return &Member{P: e.P, X: rw.expr(e.X), Name: e.Name, Conditional: e.Conditional}
	case *Call:
		out := &Call{P: e.P, Fun: rw.expr(e.Fun)}
		for _, a := range e.Args {
			out.Args = append(out.Args, rw.expr(a))
		}
		return out
	case *Index:
		return &Index{P: e.P, X: rw.expr(e.X), I: rw.expr(e.I)}
	case *Coalesce:
		return &Coalesce{P: e.P, X: rw.expr(e.X), Y: rw.expr(e.Y)}
	case *NotNull:
		return &NotNull{P: e.P, X: rw.expr(e.X)}
	case *New:
		out := &New{P: e.P, Type: rw.typeSyntax(e.Type)}
		for _, a := range e.Args {
			out.Args = append(out.Args, rw.expr(a))
		}
		return out
	case *Binary:
		return &Binary{P: e.P, Op: e.Op, X: rw.expr(e.X), Y: rw.expr(e.Y)}
	}
	return e
}
