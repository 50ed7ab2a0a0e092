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

// Package nullinfertest provides compact constructors for building test
// programs. Each helper returns a fresh syntax node, so calling a test's
// program-builder twice yields two structurally identical but distinct ASTs,
// which is exactly what the determinism tests need.
package nullinfertest

import "github.com/inferlab/nullinfer/lang"

// Unit builds a compilation unit.
func Unit(name string, classes ...*lang.ClassDecl) *lang.CompilationUnit {
	return &lang.CompilationUnit{Name: name, Classes: classes}
}

// Class builds a class from field and method members.
func Class(name string, members ...any) *lang.ClassDecl {
	return GenericClass(name, nil, members...)
}

// GenericClass builds a class with type parameters.
func GenericClass(name string, typeParams []string, members ...any) *lang.ClassDecl {
	cd := &lang.ClassDecl{Name: name, TypeParams: typeParams}
	for _, m := range members {
		switch m := m.(type) {
		case *lang.FieldDecl:
			cd.Fields = append(cd.Fields, m)
		case *lang.MethodDecl:
			cd.Methods = append(cd.Methods, m)
		}
	}
	return cd
}

// T builds a named type reference, optionally generic.
func T(name string, args ...*lang.TypeSyntax) *lang.TypeSyntax {
	return &lang.TypeSyntax{Name: name, Args: args}
}

// TN builds a nullable named type reference.
func TN(name string, args ...*lang.TypeSyntax) *lang.TypeSyntax {
	ts := T(name, args...)
	ts.Nullable = true
	return ts
}

// ArrayOf builds an array type reference.
func ArrayOf(elem *lang.TypeSyntax) *lang.TypeSyntax {
	return &lang.TypeSyntax{Elem: elem}
}

// Field builds a field without initialiser.
func Field(name string, typ *lang.TypeSyntax) *lang.FieldDecl {
	return &lang.FieldDecl{Name: name, Type: typ}
}

// FieldInit builds a field with an initialiser.
func FieldInit(name string, typ *lang.TypeSyntax, init lang.Expr) *lang.FieldDecl {
	return &lang.FieldDecl{Name: name, Type: typ, Init: init}
}

// Param builds a parameter.
func Param(name string, typ *lang.TypeSyntax) *lang.ParamDecl {
	return &lang.ParamDecl{Name: name, Type: typ}
}

// Method builds a block-bodied method. A nil ret means void (or a
// constructor when the name matches the class).
func Method(name string, ret *lang.TypeSyntax, params []*lang.ParamDecl, body ...lang.Stmt) *lang.MethodDecl {
	return &lang.MethodDecl{Name: name, Return: ret, Params: params, Body: body}
}

// ExprMethod builds an expression-bodied method.
func ExprMethod(name string, ret *lang.TypeSyntax, params []*lang.ParamDecl, expr lang.Expr) *lang.MethodDecl {
	return &lang.MethodDecl{Name: name, Return: ret, Params: params, Expr: expr}
}

// Statements.

// Ret builds a return statement; pass nil for a bare return.
func Ret(e lang.Expr) *lang.Return { return &lang.Return{Value: e} }

// Set builds an assignment statement.
func Set(target, value lang.Expr) *lang.Assign { return &lang.Assign{Target: target, Value: value} }

// Local builds a typed local declaration; typ may be nil for `var`.
func Local(name string, typ *lang.TypeSyntax, init lang.Expr) *lang.LocalDecl {
	return &lang.LocalDecl{Name: name, Type: typ, Init: init}
}

// IfThen builds an if statement without else.
func IfThen(cond lang.Expr, then ...lang.Stmt) *lang.If {
	return &lang.If{Cond: cond, Then: then}
}

// IfElse builds an if statement with an else branch.
func IfElse(cond lang.Expr, then []lang.Stmt, els []lang.Stmt) *lang.If {
	return &lang.If{Cond: cond, Then: then, Else: els}
}

// Do wraps an expression into a statement.
func Do(e lang.Expr) *lang.ExprStmt { return &lang.ExprStmt{X: e} }

// Expressions.

// Id builds an identifier reference.
func Id(name string) *lang.Ident { return &lang.Ident{Name: name} }

// Null builds the null literal.
func Null() *lang.NullLit { return &lang.NullLit{} }

// Str builds a string literal.
func Str(v string) *lang.StringLit { return &lang.StringLit{Value: v} }

// Int builds an integer literal.
func Int(v int) *lang.IntLit { return &lang.IntLit{Value: v} }

// Dot builds a member access.
func Dot(x lang.Expr, name string) *lang.Member { return &lang.Member{X: x, Name: name} }

// CDot builds a conditional member access (`x?.name`).
func CDot(x lang.Expr, name string) *lang.Member {
	return &lang.Member{X: x, Name: name, Conditional: true}
}

// CallE builds a call expression.
func CallE(fun lang.Expr, args ...lang.Expr) *lang.Call { return &lang.Call{Fun: fun, Args: args} }

// Invoke builds a method call on a receiver.
func Invoke(recv lang.Expr, name string, args ...lang.Expr) *lang.Call {
	return CallE(Dot(recv, name), args...)
}

// At builds an array index expression.
func At(x, i lang.Expr) *lang.Index { return &lang.Index{X: x, I: i} }

// Co builds a null-coalescing expression.
func Co(x, y lang.Expr) *lang.Coalesce { return &lang.Coalesce{X: x, Y: y} }

// Bang builds a null-suppression expression (`x!`).
func Bang(x lang.Expr) *lang.NotNull { return &lang.NotNull{X: x} }

// NewOf builds an object creation expression.
func NewOf(typ *lang.TypeSyntax, args ...lang.Expr) *lang.New {
	return &lang.New{Type: typ, Args: args}
}

// Eq builds an equality comparison.
func Eq(x, y lang.Expr) *lang.Binary { return &lang.Binary{Op: "==", X: x, Y: y} }

// Ne builds an inequality comparison.
func Ne(x, y lang.Expr) *lang.Binary { return &lang.Binary{Op: "!=", X: x, Y: y} }
