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

// Symbol is a resolved declaration. Symbols are shared across translation
// units; the engine keys its memoised type information on symbol identity.
type Symbol interface {
	SymbolName() string
	symbol()
}

// ClassSymbol is a declared class.
type ClassSymbol struct {
	Name       string
	Decl       *ClassDecl
	TypeParams []*TypeParamSymbol
	Base       *ClassSymbol
	Fields     []*FieldSymbol
	Methods    []*MethodSymbol
}

// FieldSymbol is a declared instance field.
type FieldSymbol struct {
	Name  string
	Owner *ClassSymbol
	Decl  *FieldDecl
	Type  Type
}

// MethodSymbol is a declared method (or constructor when Name equals the
// owner's name). Overrides links to the base-class method this one overrides.
type MethodSymbol struct {
	Name      string
	Owner     *ClassSymbol
	Decl      *MethodDecl
	Params    []*ParamSymbol
	Result    Type
	Overrides *MethodSymbol
	// Builtin marks synthesised members of builtin reference types, e.g.
	// string.Length and object.ToString. Builtin members have no Decl.
	Builtin bool
}

// IsConstructor reports whether m is a constructor of its owner.
func (m *MethodSymbol) IsConstructor() bool {
	return m.Owner != nil && m.Name == m.Owner.Name
}

// ParamSymbol is one declared parameter of a method.
type ParamSymbol struct {
	Name   string
	Method *MethodSymbol
	Decl   *ParamDecl
	Index  int
	Type   Type
}

// LocalSymbol is a local variable of a method body.
type LocalSymbol struct {
	Name   string
	Method *MethodSymbol
	Decl   *LocalDecl
	Type   Type
}

// TypeParamSymbol is a class type parameter.
type TypeParamSymbol struct {
	Name  string
	Owner *ClassSymbol
	Index int
}

func (s *ClassSymbol) SymbolName() string     { return s.Name }
func (s *FieldSymbol) SymbolName() string     { return s.Owner.Name + "." + s.Name }
func (s *MethodSymbol) SymbolName() string    { return s.Owner.Name + "." + s.Name }
func (s *ParamSymbol) SymbolName() string     { return s.Name }
func (s *LocalSymbol) SymbolName() string     { return s.Name }
func (s *TypeParamSymbol) SymbolName() string { return s.Name }

func (*ClassSymbol) symbol()     {}
func (*FieldSymbol) symbol()     {}
func (*MethodSymbol) symbol()    {}
func (*ParamSymbol) symbol()     {}
func (*LocalSymbol) symbol()     {}
func (*TypeParamSymbol) symbol() {}
