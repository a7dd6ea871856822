// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ir

// The intermediate representation sits between the canonical kernel tree and
// the emitted ECMAScript.  Unlike the source tree it is semantic rather than
// syntactic: functions carry their calling convention, call sites carry
// theirs, and surface sugar no longer exists.  Each stage that follows
// (resolution, generation) consumes this tree without referring back to the
// source, except through spans for diagnostics.

// Node is implemented by every IR node.
type Node interface {
	irNode()
}

// Decl is a top-level declaration within a module.
type Decl interface {
	Node
	irDecl()
}

// Stmt is a statement within a block.
type Stmt interface {
	Node
	irStmt()
}

// Expr is an expression.
type Expr interface {
	Node
	irExpr()
}

// ===================================================================
// Module
// ===================================================================

// Module is an ordered sequence of top-level declarations, together with its
// import and export tables and the identifier rename table computed during
// desugaring.
type Module struct {
	// Module name (the stem of its file name).
	Name string
	// Top-level declarations, in source order.
	Decls []Decl
	// Import table, in source order.
	Imports []Import
	// Export table, in source order.
	Exports []string
	// Rename table mapping hyphenated source identifiers to their emitted
	// camelCase spellings.
	Renames map[string]string
}

// Import records one import form.
type Import struct {
	// Names bound in the importing module.
	Names []string
	// Module specifier, verbatim from the source.
	Specifier string
	// Whether the specifier denotes a peer source module (compiled
	// side-by-side), as opposed to an external ECMAScript module which is
	// passed through unchanged.
	Peer bool
}

// ===================================================================
// Declarations
// ===================================================================

// Param is a single function parameter.
type Param struct {
	// Parameter name, as written in the source.  The generator applies the
	// rename table when emitting it.
	Name string
	// Optional type tag (empty when unannotated).  Types inform generation
	// but are never enforced.
	Type string
	// Optional default expression (nil when required).
	Default Expr
	// Declaration-order index.
	Index int
}

// Required checks whether this parameter must be supplied at every call site.
func (p *Param) Required() bool {
	return p.Default == nil
}

// FunctionDecl is a function declaration.  A single node type covers both
// calling conventions; IsNamed decides which one applies, and NamedParamIds
// records the recognised parameter names (in declaration order) when it does.
type FunctionDecl struct {
	Name   string
	Params []Param
	// Optional return-type tag (empty when unannotated).
	ReturnType string
	Body       *Block
	// IsNamed marks a keyed callee: the function takes a single record
	// argument keyed by parameter name.
	IsNamed bool
	// HasExplicitReturn records whether the source body contained a return
	// form in tail position.  When false (and the return type is not Void),
	// lowering has already turned the last value into a return statement.
	HasExplicitReturn bool
	// IsAnonymous marks a function expression (fn form).
	IsAnonymous bool
	// NamedParamIds holds the declared parameter names, in order, for a keyed
	// callee.  Empty when IsNamed is false.
	NamedParamIds []string
}

// VarDecl is a variable declaration.
type VarDecl struct {
	Name    string
	Init    Expr
	Mutable bool
}

// ===================================================================
// Statements
// ===================================================================

// Block is an ordered sequence of statements.
type Block struct {
	Stmts []Stmt
}

// IfStmt is a conditional statement.  Else may be nil, a further Block, or
// (for chains) another IfStmt.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else Stmt
}

// ReturnStmt returns a value (or nothing) from the enclosing function.
type ReturnStmt struct {
	// Value may be nil for a bare return.
	Value Expr
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	Expr Expr
}

// ===================================================================
// Expressions
// ===================================================================

// CallExpr applies a callee to arguments.  When IsNamedArgs is true, Args and
// ArgNames run in parallel: the call site supplied each argument under an
// explicit name, and the resolver has yet to (or has) reshaped it into the
// single-record convention.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	// IsNamedArgs marks a keyed call site.
	IsNamedArgs bool
	// ArgNames holds the supplied names, parallel to Args, when IsNamedArgs.
	ArgNames []string
}

// ObjectLit is an object literal with keys in declared order.  ParamKeys
// marks a record synthesised by the resolver for a keyed call: its keys are
// parameter identifiers (subject to renaming), not data.
type ObjectLit struct {
	Keys      []string
	Values    []Expr
	ParamKeys bool
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Elements []Expr
}

// MemberExpr accesses a property of an object.
type MemberExpr struct {
	Object   Expr
	Property string
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op  string
	Lhs Expr
	Rhs Expr
}

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

// CondExpr is a conditional in expression position (emitted as a ternary).
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

// FunctionExpr wraps a function declaration appearing in expression position.
type FunctionExpr struct {
	Fn *FunctionDecl
}

// Identifier references a binding by name.
type Identifier struct {
	Name string
}

// Literal is a literal value: float64, string, bool, or nil.
type Literal struct {
	Value any
}

// ===================================================================
// Marker implementations
// ===================================================================

func (*Module) irNode()       {}
func (*FunctionDecl) irNode() {}
func (*VarDecl) irNode()      {}
func (*Block) irNode()        {}
func (*IfStmt) irNode()       {}
func (*ReturnStmt) irNode()   {}
func (*ExprStmt) irNode()     {}
func (*CallExpr) irNode()     {}
func (*ObjectLit) irNode()    {}
func (*ArrayLit) irNode()     {}
func (*MemberExpr) irNode()   {}
func (*BinaryExpr) irNode()   {}
func (*UnaryExpr) irNode()    {}
func (*CondExpr) irNode()     {}
func (*FunctionExpr) irNode() {}
func (*Identifier) irNode()   {}
func (*Literal) irNode()      {}

func (*FunctionDecl) irDecl() {}
func (*VarDecl) irDecl()      {}
func (*ExprStmt) irDecl()     {}

func (*IfStmt) irStmt()     {}
func (*ReturnStmt) irStmt() {}
func (*ExprStmt) irStmt()   {}
func (*VarDecl) irStmt()    {}
func (*Block) irStmt()      {}

func (*CallExpr) irExpr()     {}
func (*ObjectLit) irExpr()    {}
func (*ArrayLit) irExpr()     {}
func (*MemberExpr) irExpr()   {}
func (*BinaryExpr) irExpr()   {}
func (*UnaryExpr) irExpr()    {}
func (*CondExpr) irExpr()     {}
func (*FunctionExpr) irExpr() {}
func (*Identifier) irExpr()   {}
func (*Literal) irExpr()      {}
