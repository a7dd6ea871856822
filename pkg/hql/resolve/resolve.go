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
package resolve

import (
	"fmt"

	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// Resolve reconciles every call site in a module with the calling convention
// of its target.  A positional callee must be called positionally; a keyed
// callee may be called either keyed or positionally, and in both cases the
// site is rewritten to pass the single record argument the callee expects.
// Call sites whose target cannot be resolved to a function declaration (e.g.
// a function value flowing through a variable) are left untouched, except
// that a keyed site always requires a resolvable keyed target.
//
// The imported table supplies function declarations visible through peer
// imports; it may be nil when resolving a module in isolation.
func Resolve(irmap *source.Map[ir.Node], module *ir.Module,
	imported map[string]*ir.FunctionDecl) []source.SyntaxError {
	//
	r := &resolver{irmap, make(map[string]*ir.FunctionDecl)}
	// Imported functions first, so local definitions shadow them.
	for name, fn := range imported {
		r.functions[name] = fn
	}
	//
	for _, decl := range module.Decls {
		if fn, ok := decl.(*ir.FunctionDecl); ok {
			r.functions[fn.Name] = fn
		}
	}
	//
	var errors []source.SyntaxError
	//
	for _, decl := range module.Decls {
		errors = append(errors, r.resolveDecl(decl)...)
	}
	//
	return errors
}

// Resolver holds the function table for one module.
type resolver struct {
	// Spans for IR nodes, for diagnostics.
	irmap *source.Map[ir.Node]
	// Every function declaration a call in this module might target.
	functions map[string]*ir.FunctionDecl
}

func (r *resolver) resolveDecl(decl ir.Decl) []source.SyntaxError {
	switch d := decl.(type) {
	case *ir.FunctionDecl:
		return r.resolveFunction(d)
	case *ir.VarDecl:
		return r.resolveExpr(d.Init)
	case *ir.ExprStmt:
		return r.resolveExpr(d.Expr)
	}
	//
	panic("unknown declaration")
}

func (r *resolver) resolveFunction(fn *ir.FunctionDecl) []source.SyntaxError {
	var errors []source.SyntaxError
	//
	for _, p := range fn.Params {
		if p.Default != nil {
			errors = append(errors, r.resolveExpr(p.Default)...)
		}
	}
	//
	return append(errors, r.resolveBlock(fn.Body)...)
}

func (r *resolver) resolveBlock(block *ir.Block) []source.SyntaxError {
	var errors []source.SyntaxError
	//
	for _, stmt := range block.Stmts {
		errors = append(errors, r.resolveStmt(stmt)...)
	}
	//
	return errors
}

func (r *resolver) resolveStmt(stmt ir.Stmt) []source.SyntaxError {
	switch s := stmt.(type) {
	case *ir.Block:
		return r.resolveBlock(s)
	case *ir.IfStmt:
		errors := r.resolveExpr(s.Cond)
		errors = append(errors, r.resolveBlock(s.Then)...)
		//
		if s.Else != nil {
			errors = append(errors, r.resolveStmt(s.Else)...)
		}
		//
		return errors
	case *ir.ReturnStmt:
		if s.Value != nil {
			return r.resolveExpr(s.Value)
		}
		//
		return nil
	case *ir.ExprStmt:
		return r.resolveExpr(s.Expr)
	case *ir.VarDecl:
		return r.resolveExpr(s.Init)
	}
	//
	panic("unknown statement")
}

func (r *resolver) resolveExpr(expr ir.Expr) []source.SyntaxError {
	switch e := expr.(type) {
	case *ir.CallExpr:
		return r.resolveCall(e)
	case *ir.ObjectLit:
		var errors []source.SyntaxError
		for _, v := range e.Values {
			errors = append(errors, r.resolveExpr(v)...)
		}
		//
		return errors
	case *ir.ArrayLit:
		var errors []source.SyntaxError
		for _, v := range e.Elements {
			errors = append(errors, r.resolveExpr(v)...)
		}
		//
		return errors
	case *ir.MemberExpr:
		return r.resolveExpr(e.Object)
	case *ir.BinaryExpr:
		return append(r.resolveExpr(e.Lhs), r.resolveExpr(e.Rhs)...)
	case *ir.UnaryExpr:
		return r.resolveExpr(e.Operand)
	case *ir.CondExpr:
		errors := r.resolveExpr(e.Cond)
		errors = append(errors, r.resolveExpr(e.Then)...)
		//
		return append(errors, r.resolveExpr(e.Else)...)
	case *ir.FunctionExpr:
		return r.resolveFunction(e.Fn)
	case *ir.Identifier, *ir.Literal:
		return nil
	}
	//
	panic("unknown expression")
}

// Resolve a single call site against its target's convention.
func (r *resolver) resolveCall(call *ir.CallExpr) []source.SyntaxError {
	var errors []source.SyntaxError
	// Arguments first.
	for _, arg := range call.Args {
		errors = append(errors, r.resolveExpr(arg)...)
	}
	//
	errors = append(errors, r.resolveExpr(call.Callee)...)
	//
	if len(errors) > 0 {
		return errors
	}
	// Only identifier callees can be checked against a declaration.
	id, ok := call.Callee.(*ir.Identifier)
	//
	if !ok {
		if call.IsNamedArgs {
			return r.errorOn(call, source.ConventionMismatch,
				"keyed call requires a directly named function")
		}
		//
		return nil
	}
	//
	target, ok := r.functions[id.Name]
	//
	if !ok {
		// A keyed call must always resolve to a keyed declaration.
		if call.IsNamedArgs {
			return r.errorOn(call, source.UnboundIdentifier,
				fmt.Sprintf("keyed call to \"%s\", which is not a known function", id.Name))
		}
		// Nothing further can be checked.
		return nil
	}
	//
	if call.IsNamedArgs {
		return r.resolveKeyedCall(call, target)
	}
	//
	return r.resolvePositionalCall(call, target)
}

// Resolve a keyed call site: validate the supplied keys against the declared
// parameters and rewrite the site into the single-record shape.
func (r *resolver) resolveKeyedCall(call *ir.CallExpr, target *ir.FunctionDecl) []source.SyntaxError {
	if !target.IsNamed {
		return r.errorOn(call, source.ConventionMismatch,
			fmt.Sprintf("keyed call to positional function \"%s\"", target.Name))
	}
	//
	var (
		errors   []source.SyntaxError
		supplied = make(map[string]ir.Expr, len(call.Args))
	)
	// Every supplied key must name a declared parameter, exactly once.
	for i, key := range call.ArgNames {
		if _, ok := supplied[key]; ok {
			errors = append(errors, *r.syntaxError(call, source.ConventionMismatch,
				fmt.Sprintf("parameter \"%s\" supplied twice", key)))
			continue
		}
		//
		if paramOf(target, key) == nil {
			errors = append(errors, *r.syntaxError(call, source.ConventionMismatch,
				fmt.Sprintf("function \"%s\" has no parameter \"%s\"", target.Name, key)))
			continue
		}
		//
		supplied[key] = call.Args[i]
	}
	// Every parameter without a default must be supplied.  Missing keys with
	// defaults stay absent; the callee's prologue resolves them.
	for _, p := range target.Params {
		if _, ok := supplied[p.Name]; !ok && p.Required() {
			errors = append(errors, *r.syntaxError(call, source.ArityError,
				fmt.Sprintf("missing required parameter \"%s\" of \"%s\"", p.Name, target.Name)))
		}
	}
	//
	if len(errors) > 0 {
		return errors
	}
	// Rewrite into the record shape, properties in declared order.
	record := &ir.ObjectLit{ParamKeys: true}
	//
	for _, p := range target.Params {
		if value, ok := supplied[p.Name]; ok {
			record.Keys = append(record.Keys, p.Name)
			record.Values = append(record.Values, value)
		}
	}
	//
	call.Args = []ir.Expr{record}
	call.ArgNames = nil
	call.IsNamedArgs = false
	//
	return nil
}

// Resolve a positional call site.  For a keyed target the arguments are
// zipped, in declaration order, into the record the callee expects.
func (r *resolver) resolvePositionalCall(call *ir.CallExpr, target *ir.FunctionDecl) []source.SyntaxError {
	if len(call.Args) > len(target.Params) {
		return r.errorOn(call, source.ArityError,
			fmt.Sprintf("function \"%s\" expects at most %d argument(s), got %d",
				target.Name, len(target.Params), len(call.Args)))
	}
	// The missing tail must consist entirely of defaulted parameters.
	for _, p := range target.Params[len(call.Args):] {
		if p.Required() {
			return r.errorOn(call, source.ArityError,
				fmt.Sprintf("missing required argument \"%s\" of \"%s\"", p.Name, target.Name))
		}
	}
	//
	if !target.IsNamed {
		// Positional to positional: nothing to rewrite; missing defaulted
		// tail arguments are filled by the emitted default parameters.
		return nil
	}
	// Positional to keyed: zip arguments to parameter names.
	record := &ir.ObjectLit{ParamKeys: true}
	//
	for i, arg := range call.Args {
		record.Keys = append(record.Keys, target.Params[i].Name)
		record.Values = append(record.Values, arg)
	}
	//
	call.Args = []ir.Expr{record}
	//
	return nil
}

func paramOf(fn *ir.FunctionDecl, name string) *ir.Param {
	for i := range fn.Params {
		if fn.Params[i].Name == name {
			return &fn.Params[i]
		}
	}
	//
	return nil
}

func (r *resolver) syntaxError(node ir.Node, kind source.ErrorKind, msg string) *source.SyntaxError {
	span := r.irmap.Get(node)
	srcfile := r.irmap.Source()
	//
	return srcfile.SyntaxError(span, kind, msg)
}

func (r *resolver) errorOn(node ir.Node, kind source.ErrorKind, msg string) []source.SyntaxError {
	return []source.SyntaxError{*r.syntaxError(node, kind, msg)}
}
