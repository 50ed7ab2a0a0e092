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

import "strings"

// Type is a resolved host-language type.
type Type interface {
	String() string
	typ()
}

// BasicType is a builtin type. Reference distinguishes reference builtins
// (string, object) from value builtins (int, bool, void).
type BasicType struct {
	Name      string
	Reference bool
}

func (t *BasicType) String() string { return t.Name }
func (*BasicType) typ()             {}

// Builtin types. These are shared singletons; the binder and the engine
// compare them by identity.
var (
	StringType = &BasicType{Name: "string", Reference: true}
	ObjectType = &BasicType{Name: "object", Reference: true}
	IntType    = &BasicType{Name: "int"}
	BoolType   = &BasicType{Name: "bool"}
	VoidType   = &BasicType{Name: "void"}

	// NullConst is the type of the null literal.
	NullConst = &BasicType{Name: "<null>", Reference: true}
)

// ClassType is an instantiation of a declared class; Args is empty for
// non-generic classes and aligns with Sym.TypeParams otherwise.
type ClassType struct {
	Sym  *ClassSymbol
	Args []Type
}

func (t *ClassType) String() string {
	if len(t.Args) == 0 {
		return t.Sym.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Sym.Name + "<" + strings.Join(parts, ", ") + ">"
}
func (*ClassType) typ() {}

// ArrayType is an array of Elem.
type ArrayType struct {
	Elem Type
}

func (t *ArrayType) String() string { return t.Elem.String() + "[]" }
func (*ArrayType) typ()             {}

// TypeParamType references a class type parameter.
type TypeParamType struct {
	Sym *TypeParamSymbol
}

func (t *TypeParamType) String() string { return t.Sym.Name }
func (*TypeParamType) typ()             {}

// IsReference reports whether a value of type t is a reference (and can
// therefore be null at runtime). Unconstrained type parameters count: they may
// be instantiated with a reference type.
func IsReference(t Type) bool {
	switch t := t.(type) {
	case *BasicType:
		return t.Reference
	case *ClassType, *ArrayType, *TypeParamType:
		return true
	}
	return false
}
