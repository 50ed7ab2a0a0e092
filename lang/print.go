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

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a compilation unit as source text. The rendering is
// deterministic, making printed units directly comparable in round-trip
// tests.
func Print(unit *CompilationUnit) string {
	var pr printer
	for i, cd := range unit.Classes {
		if i > 0 {
			pr.line("")
		}
		pr.class(cd)
	}
	return pr.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (pr *printer) line(s string) {
	if s != "" {
		pr.b.WriteString(strings.Repeat("    ", pr.indent))
		pr.b.WriteString(s)
	}
	pr.b.WriteByte('\n')
}

func (pr *printer) class(cd *ClassDecl) {
	head := "class " + cd.Name
	if len(cd.TypeParams) > 0 {
		head += "<" + strings.Join(cd.TypeParams, ", ") + ">"
	}
	if cd.Base != nil {
		head += " : " + typeString(cd.Base)
	}
	pr.line(head + " {")
	pr.indent++
	for _, fd := range cd.Fields {
		s := typeString(fd.Type) + " " + fd.Name
		if fd.Init != nil {
			s += " = " + exprString(fd.Init)
		}
		pr.line(s + ";")
	}
	for _, md := range cd.Methods {
		pr.method(md, cd.Name)
	}
	pr.indent--
	pr.line("}")
}

func (pr *printer) method(md *MethodDecl, className string) {
	var head string
	if md.Static {
		head += "static "
	}
	if md.Override {
		head += "override "
	}
	switch {
	case md.Return != nil:
		head += typeString(md.Return) + " "
	case md.Name == className:
		// Constructors carry no return type.
	default:
		head += "void "
	}
	params := make([]string, len(md.Params))
	for i, pd := range md.Params {
		params[i] = typeString(pd.Type) + " " + pd.Name
	}
	head += md.Name + "(" + strings.Join(params, ", ") + ")"
	if md.Expr != nil {
		pr.line(head + " => " + exprString(md.Expr) + ";")
		return
	}
	pr.line(head + " {")
	pr.indent++
	pr.stmts(md.Body)
	pr.indent--
	pr.line("}")
}

func (pr *printer) stmts(stmts []Stmt) {
	for _, s := range stmts {
		pr.stmt(s)
	}
}

func (pr *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *LocalDecl:
		head := "var"
		if s.Type != nil {
			head = typeString(s.Type)
		}
		head += " " + s.Name
		if s.Init != nil {
			head += " = " + exprString(s.Init)
		}
		pr.line(head + ";")
	case *Assign:
		pr.line(exprString(s.Target) + " = " + exprString(s.Value) + ";")
	case *Return:
		if s.Value == nil {
			pr.line("return;")
		} else {
			pr.line("return " + exprString(s.Value) + ";")
		}
	case *If:
		pr.line("if (" + exprString(s.Cond) + ") {")
		pr.indent++
		pr.stmts(s.Then)
		pr.indent--
		if len(s.Else) > 0 {
			pr.line("} else {")
			pr.indent++
			pr.stmts(s.Else)
			pr.indent--
		}
		pr.line("}")
	case *ExprStmt:
		pr.line(exprString(s.X) + ";")
	}
}

func typeString(ts *TypeSyntax) string {
	if ts == nil {
		return "?"
	}
	var s string
	if ts.IsArray() {
		s = typeString(ts.Elem) + "[]"
	} else {
		s = ts.Name
		if len(ts.Args) > 0 {
			parts := make([]string, len(ts.Args))
			for i, a := range ts.Args {
				parts[i] = typeString(a)
			}
			s += "<" + strings.Join(parts, ", ") + ">"
		}
	}
	if ts.Nullable {
		s += "?"
	}
	return s
}

func exprString(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *NullLit:
		return "null"
	case *StringLit:
		return strconv.Quote(e.Value)
	case *IntLit:
		return strconv.Itoa(e.Value)
	case *Member:
		op := "."
		if e.Conditional {
			op = "?."
		}
		return exprString(e.X) + op + e.Name
	case *Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return exprString(e.Fun) + "(" + strings.Join(args, ", ") + ")"
	case *Index:
		return exprString(e.X) + "[" + exprString(e.I) + "]"
	case *Coalesce:
		return exprString(e.X) + " ?? " + exprString(e.Y)
	case *NotNull:
		return exprString(e.X) + "!"
	case *New:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return "new " + typeString(e.Type) + "(" + strings.Join(args, ", ") + ")"
	case *Binary:
		return exprString(e.X) + " " + e.Op + " " + exprString(e.Y)
	}
	return fmt.Sprintf("<%T>", e)
}
