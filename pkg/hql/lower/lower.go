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
package lower

import (
	"fmt"
	"strings"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/hql/desugar"
	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// Lower walks a canonical kernel tree and produces the typed IR for one
// module.  Alongside the module it returns a source map for the IR, so that
// the resolver can still report errors against the original text.
func Lower(srcfile *source.File, srcmap *source.Maps[ast.Node], name string,
	terms []ast.Node, info *desugar.ModuleInfo) (*ir.Module, *source.Map[ir.Node], []source.SyntaxError) {
	//
	l := &lowerer{
		srcmap: srcmap,
		irmap:  source.NewSourceMap[ir.Node](*srcfile),
		info:   info,
		module: &ir.Module{Name: name, Renames: info.Renames},
		scope:  newScope(nil),
	}
	// First pass: bring every top-level binding into scope, so that
	// definitions may refer to each other regardless of order.
	errors := l.collectTopLevel(terms)
	errors = append(errors, l.validateExports()...)
	// Second pass: lower each declaration.
	for _, term := range terms {
		errs := l.lowerTopLevel(term)
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, nil, errors
	}
	//
	return l.module, l.irmap, nil
}

// Lowerer holds the state threaded through one module's lowering.
type lowerer struct {
	// Source maps nodes back to the spans in their original source files.
	srcmap *source.Maps[ast.Node]
	// Spans for the IR under construction.
	irmap *source.Map[ir.Node]
	// Function metadata from the desugarer.
	info *desugar.ModuleInfo
	// Module under construction.
	module *ir.Module
	// Current binding scope.
	scope *scope
	// Witnessing nodes for exported names, for error reporting.
	exportAt map[string]ast.Node
}

// ===================================================================
// Scopes
// ===================================================================

// Globals which the emitted code may reference without a binding.  These
// mirror the standard objects available to any modern module loader.
var globals = map[string]bool{
	"console": true, "Math": true, "JSON": true, "Object": true,
	"Array": true, "String": true, "Number": true, "Boolean": true,
	"Date": true, "Promise": true, "Error": true, "Map": true, "Set": true,
	"globalThis": true, "undefined": true, "NaN": true, "Infinity": true,
	"parseInt": true, "parseFloat": true, "isNaN": true,
}

type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent, make(map[string]bool)}
}

func (s *scope) bind(name string) {
	s.names[name] = true
}

func (s *scope) bound(name string) bool {
	for p := s; p != nil; p = p.parent {
		if p.names[name] {
			return true
		}
	}
	//
	return globals[name]
}

// Enter a fresh nested scope.
func (l *lowerer) push() {
	l.scope = newScope(l.scope)
}

// Leave the current scope.
func (l *lowerer) pop() {
	l.scope = l.scope.parent
}

// ===================================================================
// Top level
// ===================================================================

// Bring every top-level binding into scope, and record the module's import
// and export tables.
func (l *lowerer) collectTopLevel(terms []ast.Node) []source.SyntaxError {
	var errors []source.SyntaxError
	//
	for _, term := range terms {
		list := term.AsList()
		if list == nil || list.Head() == nil {
			continue
		}
		//
		switch list.Head().Name {
		case "defn", "def":
			if list.Len() >= 2 && list.Get(1).AsSymbol() != nil {
				l.scope.bind(list.Get(1).AsSymbol().Name)
			}
		case "import":
			imp, errs := l.parseImport(list)
			errors = append(errors, errs...)
			//
			if len(errs) == 0 {
				l.module.Imports = append(l.module.Imports, imp)
				//
				for _, n := range imp.Names {
					l.scope.bind(n)
				}
			}
		case "export":
			names, errs := l.parseExport(list)
			errors = append(errors, errs...)
			l.module.Exports = append(l.module.Exports, names...)
		}
	}
	//
	return errors
}

// Lower one top-level form into zero or more module declarations.
func (l *lowerer) lowerTopLevel(term ast.Node) []source.SyntaxError {
	list := term.AsList()
	//
	if list != nil && list.Head() != nil {
		switch list.Head().Name {
		case "import", "export":
			// Already collected.
			return nil
		case "defn":
			fn, errs := l.lowerFunction(list, false)
			//
			if len(errs) == 0 {
				l.module.Decls = append(l.module.Decls, fn)
			}
			//
			return errs
		case "def":
			decl, errs := l.lowerDef(list)
			//
			if len(errs) == 0 {
				l.module.Decls = append(l.module.Decls, decl)
			}
			//
			return errs
		}
	}
	// A bare top-level expression.
	expr, errs := l.lowerExpr(term)
	//
	if len(errs) == 0 {
		stmt := &ir.ExprStmt{Expr: expr}
		l.map2(stmt, term)
		l.module.Decls = append(l.module.Decls, stmt)
	}
	//
	return errs
}

// Lower a (def name expr) form.
func (l *lowerer) lowerDef(list *ast.List) (ir.Decl, []source.SyntaxError) {
	if list.Len() != 3 || list.Get(1).AsSymbol() == nil {
		return nil, l.errorOn(list, source.ParseError, "malformed def")
	}
	//
	init, errs := l.lowerExpr(list.Get(2))
	if len(errs) > 0 {
		return nil, errs
	}
	//
	decl := &ir.VarDecl{Name: list.Get(1).AsSymbol().Name, Init: init}
	l.map2(decl, list)
	//
	return decl, nil
}

// ===================================================================
// Functions
// ===================================================================

// Lower a canonical function form, carrying its metadata onto the IR node.
func (l *lowerer) lowerFunction(list *ast.List, anonymous bool) (*ir.FunctionDecl, []source.SyntaxError) {
	var (
		meta   = l.info.MetaOf(list)
		name   string
		bodyAt = 2
		errors []source.SyntaxError
	)
	//
	if !anonymous {
		name = list.Get(1).AsSymbol().Name
		bodyAt = 3
	}
	//
	fn := &ir.FunctionDecl{
		Name:              name,
		ReturnType:        meta.ReturnType,
		IsNamed:           meta.Named,
		HasExplicitReturn: meta.ExplicitReturn,
		IsAnonymous:       anonymous,
	}
	//
	if meta.Named {
		fn.NamedParamIds = meta.NamedParamIds()
	}
	// Parameters (and their defaults) live in the function's scope; a default
	// may reference any parameter declared before it.
	l.push()
	defer l.pop()
	//
	for _, p := range meta.Params {
		param := ir.Param{Name: p.Name, Type: p.Type, Index: p.Index}
		//
		if p.Default != nil {
			dflt, errs := l.lowerExpr(p.Default)
			errors = append(errors, errs...)
			param.Default = dflt
		}
		//
		l.scope.bind(p.Name)
		fn.Params = append(fn.Params, param)
	}
	// Implicit return applies unless the body ends in an explicit one, or the
	// function is declared Void.
	tail := !meta.ExplicitReturn && meta.ReturnType != "Void"
	//
	body, errs := l.lowerBlock(list.Get(bodyAt).AsList(), tail)
	errors = append(errors, errs...)
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	fn.Body = body
	l.map2(fn, list)
	//
	return fn, nil
}

// ===================================================================
// Statements
// ===================================================================

// Lower a (do ...) block.  When tail is set, the final form is lowered in
// tail position, producing the function's implicit return.
func (l *lowerer) lowerBlock(block *ast.List, tail bool) (*ir.Block, []source.SyntaxError) {
	if block == nil || !block.MatchSymbols(1, "do") {
		panic("malformed kernel block")
	}
	//
	var (
		stmts  []ir.Stmt
		errors []source.SyntaxError
		forms  = block.Elements[1:]
	)
	//
	for i, form := range forms {
		stmt, errs := l.lowerStmt(form, tail && i == len(forms)-1)
		errors = append(errors, errs...)
		//
		if len(errs) == 0 {
			stmts = append(stmts, stmt...)
		}
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	return &ir.Block{Stmts: stmts}, nil
}

// Lower a form in statement position.
func (l *lowerer) lowerStmt(term ast.Node, tail bool) ([]ir.Stmt, []source.SyntaxError) {
	if list := term.AsList(); list != nil && list.Head() != nil {
		switch list.Head().Name {
		case "return":
			return l.lowerReturn(list)
		case "if":
			return l.lowerIfStmt(list, tail)
		case "do":
			block, errs := l.lowerBlock(list, tail)
			//
			if len(errs) > 0 {
				return nil, errs
			}
			//
			return block.Stmts, nil
		case "let":
			return l.lowerLetStmt(list, tail)
		case "def":
			decl, errs := l.lowerDef(list)
			//
			if len(errs) > 0 {
				return nil, errs
			}
			//
			l.scope.bind(decl.(*ir.VarDecl).Name)
			//
			return []ir.Stmt{decl.(*ir.VarDecl)}, nil
		}
	}
	// Expression statement; in tail position it becomes the implicit return.
	expr, errs := l.lowerExpr(term)
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	var stmt ir.Stmt
	//
	if tail {
		stmt = &ir.ReturnStmt{Value: expr}
	} else {
		stmt = &ir.ExprStmt{Expr: expr}
	}
	//
	l.map2(stmt, term)
	//
	return []ir.Stmt{stmt}, nil
}

// Lower an explicit (return) or (return expr).
func (l *lowerer) lowerReturn(list *ast.List) ([]ir.Stmt, []source.SyntaxError) {
	stmt := &ir.ReturnStmt{}
	//
	switch list.Len() {
	case 1:
		// bare return
	case 2:
		value, errs := l.lowerExpr(list.Get(1))
		//
		if len(errs) > 0 {
			return nil, errs
		}
		//
		stmt.Value = value
	default:
		return nil, l.errorOn(list, source.ParseError, "malformed return")
	}
	//
	l.map2(stmt, list)
	//
	return []ir.Stmt{stmt}, nil
}

// Lower an if form in statement position.
func (l *lowerer) lowerIfStmt(list *ast.List, tail bool) ([]ir.Stmt, []source.SyntaxError) {
	if list.Len() != 3 && list.Len() != 4 {
		return nil, l.errorOn(list, source.ArityError,
			fmt.Sprintf("if expects 2 or 3 arguments, got %d", list.Len()-1))
	}
	//
	cond, errors := l.lowerExpr(list.Get(1))
	//
	thenStmts, errs := l.lowerStmt(list.Get(2), tail)
	errors = append(errors, errs...)
	//
	stmt := &ir.IfStmt{Cond: cond, Then: &ir.Block{Stmts: thenStmts}}
	//
	if list.Len() == 4 {
		elseStmts, errs := l.lowerStmt(list.Get(3), tail)
		errors = append(errors, errs...)
		// Chains stay chains; anything else becomes a block.
		if len(elseStmts) == 1 {
			if chained, ok := elseStmts[0].(*ir.IfStmt); ok {
				stmt.Else = chained
			}
		}
		//
		if stmt.Else == nil {
			stmt.Else = &ir.Block{Stmts: elseStmts}
		}
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	l.map2(stmt, list)
	//
	return []ir.Stmt{stmt}, nil
}

// Lower a let form in statement position: its bindings become immutable
// variable declarations within a nested block.
func (l *lowerer) lowerLetStmt(list *ast.List, tail bool) ([]ir.Stmt, []source.SyntaxError) {
	var (
		errors []source.SyntaxError
		stmts  []ir.Stmt
	)
	//
	l.push()
	defer l.pop()
	//
	for _, binding := range list.Get(1).AsList().Elements {
		pair := binding.AsList()
		//
		init, errs := l.lowerExpr(pair.Get(1))
		errors = append(errors, errs...)
		//
		name := pair.Get(0).AsSymbol().Name
		l.scope.bind(name)
		//
		decl := &ir.VarDecl{Name: name, Init: init}
		l.map2(decl, binding)
		stmts = append(stmts, decl)
	}
	//
	body, errs := l.lowerBlock(list.Get(2).AsList(), tail)
	errors = append(errors, errs...)
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	stmts = append(stmts, body.Stmts...)
	// The bindings shadow within a nested block.
	block := &ir.Block{Stmts: stmts}
	l.map2(block, list)
	//
	return []ir.Stmt{block}, nil
}

// ===================================================================
// Helpers
// ===================================================================

// Record the span of an IR node, inherited from the source node it lowers.
func (l *lowerer) map2(node ir.Node, from ast.Node) {
	if l.srcmap.Has(from) && !l.irmap.Has(node) {
		span := l.spanOf(from)
		l.irmap.Put(node, span)
	}
}

func (l *lowerer) spanOf(from ast.Node) source.Span {
	return l.srcmap.Get(from)
}

func (l *lowerer) errorOn(node ast.Node, kind source.ErrorKind,
	msg string) []source.SyntaxError {
	return l.srcmap.SyntaxErrors(node, kind, msg)
}

// Split a member path ("a.b.c") into its segments.
func splitPath(name string) []string {
	return strings.Split(name, ".")
}
