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

// The flow analysis is deliberately small: it tracks, per method and per
// statement position, the set of names known to be non-null, and records a
// FlowNotNull fact for every identifier use covered by such a fact. The engine
// consumes these facts to downgrade dereference edges to "already protected".
//
// Facts come from null tests:
//
//	if (x == null) return ...;   // x is non-null afterwards, if all paths exit
//	if (x != null) { ... }       // x is non-null inside the branch
//
// (and likewise the else branch of `x == null`, and the code after an
// `x != null` test whose else branch always exits), and from initialising or
// assigning x a definitely non-null value (a literal, `new`, or `y!`). Any
// other assignment to x clears the fact.

func (p *Program) analyzeFlow(ms *MethodSymbol) {
	if ms.Decl == nil {
		return
	}
	notNull := make(map[string]bool)
	if ms.Decl.Expr != nil {
		p.flowExpr(ms.Decl.Expr, notNull)
	}
	p.flowStmts(ms.Decl.Body, notNull)
}

func (p *Program) flowStmts(stmts []Stmt, notNull map[string]bool) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *LocalDecl:
			if s.Init != nil {
				p.flowExpr(s.Init, notNull)
				notNull[s.Name] = exprDefinitelyNotNull(s.Init)
			}
		case *Assign:
			p.flowExpr(s.Value, notNull)
			p.flowExpr(s.Target, notNull)
			if id, ok := s.Target.(*Ident); ok {
				notNull[id.Name] = exprDefinitelyNotNull(s.Value)
			}
		case *Return:
			if s.Value != nil {
				p.flowExpr(s.Value, notNull)
			}
		case *ExprStmt:
			p.flowExpr(s.X, notNull)
		case *If:
			p.flowIf(s, notNull)
		}
	}
}

func (p *Program) flowIf(s *If, notNull map[string]bool) {
	p.flowExpr(s.Cond, notNull)

	name, isNullTest, negated := nullTest(s.Cond)
	thenFacts := copyFacts(notNull)
	elseFacts := copyFacts(notNull)
	if isNullTest {
		if negated {
			// if (x != null) { then: x non-null } else { nothing }
			thenFacts[name] = true
			delete(elseFacts, name)
		} else {
			// if (x == null) { then: x maybe null } else { x non-null }
			delete(thenFacts, name)
			elseFacts[name] = true
		}
	}
	p.flowStmts(s.Then, thenFacts)
	p.flowStmts(s.Else, elseFacts)

	// Facts surviving the statement: names assigned in either branch are
	// unknown afterwards; a positive null test whose branch always exits
	// leaves the tested name non-null on the fall-through path.
	for _, n := range assignedNames(s.Then) {
		delete(notNull, n)
	}
	for _, n := range assignedNames(s.Else) {
		delete(notNull, n)
	}
	if isNullTest && !negated && allPathsExit(s.Then) {
		notNull[name] = true
	}
	if isNullTest && negated && len(s.Else) > 0 && allPathsExit(s.Else) {
		notNull[name] = true
	}
}

// flowExpr records a FlowNotNull fact for every identifier use covered by the
// current fact set, recursing into subexpressions.
func (p *Program) flowExpr(e Expr, notNull map[string]bool) {
	switch e := e.(type) {
	case *Ident:
		if notNull[e.Name] {
			p.flow[e] = FlowNotNull
		}
	case *Member:
		p.flowExpr(e.X, notNull)
	case *Call:
		p.flowExpr(e.Fun, notNull)
		for _, a := range e.Args {
			p.flowExpr(a, notNull)
		}
	case *Index:
		p.flowExpr(e.X, notNull)
		p.flowExpr(e.I, notNull)
	case *Coalesce:
		p.flowExpr(e.X, notNull)
		p.flowExpr(e.Y, notNull)
	case *NotNull:
		p.flowExpr(e.X, notNull)
	case *New:
		for _, a := range e.Args {
			p.flowExpr(a, notNull)
		}
	case *Binary:
		p.flowExpr(e.X, notNull)
		p.flowExpr(e.Y, notNull)
	}
}

// nullTest recognises `x == null` and `x != null` (either operand order).
func nullTest(cond Expr) (name string, ok bool, negated bool) {
	b, isBinary := cond.(*Binary)
	if !isBinary || (b.Op != "==" && b.Op != "!=") {
		return "", false, false
	}
	id, okX := b.X.(*Ident)
	_, nullY := b.Y.(*NullLit)
	if !okX || !nullY {
		_, nullX := b.X.(*NullLit)
		id, okX = b.Y.(*Ident)
		if !okX || !nullX {
			return "", false, false
		}
	}
	return id.Name, true, b.Op == "!="
}

// exprDefinitelyNotNull reports whether an expression always evaluates to a
// non-null value, without consulting inference.
func exprDefinitelyNotNull(e Expr) bool {
	switch e.(type) {
	case *StringLit, *IntLit, *New, *NotNull:
		return true
	}
	return false
}

func copyFacts(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func assignedNames(stmts []Stmt) []string {
	var names []string
	for _, s := range stmts {
		switch s := s.(type) {
		case *Assign:
			if id, ok := s.Target.(*Ident); ok {
				names = append(names, id.Name)
			}
		case *If:
			names = append(names, assignedNames(s.Then)...)
			names = append(names, assignedNames(s.Else)...)
		}
	}
	return names
}

// allPathsExit reports whether every execution path through stmts ends in a
// return statement.
func allPathsExit(stmts []Stmt) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Return:
			return true
		case *If:
			if len(s.Else) > 0 && allPathsExit(s.Then) && allPathsExit(s.Else) {
				return true
			}
		}
	}
	return false
}
