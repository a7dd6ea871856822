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
package codegen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/stoewer/go-strcase"
)

// The name under which a keyed callee receives its record argument.  The "$"
// keeps it clear of anything a rename can produce from a source identifier.
const recordParam = "$opts"

// Generate emits the ECMAScript module text for a given IR module.  For
// identical input the output is byte-identical: declaration order, object key
// order and renaming are all deterministic.
func Generate(module *ir.Module) string {
	g := &generator{renames: module.Renames}
	//
	for _, imp := range module.Imports {
		g.genImport(imp)
	}
	//
	if len(module.Imports) > 0 {
		g.line("")
	}
	//
	for i, decl := range module.Decls {
		if i > 0 {
			g.line("")
		}
		//
		g.genDecl(decl)
	}
	//
	if len(module.Exports) > 0 {
		names := make([]string, len(module.Exports))
		for i, name := range module.Exports {
			names[i] = g.rename(name)
		}
		//
		g.line("")
		g.line(fmt.Sprintf("export { %s };", strings.Join(names, ", ")))
	}
	//
	return g.buf.String()
}

// Generator accumulates the output text for one module.
type generator struct {
	buf    strings.Builder
	indent int
	// Rename table computed during desugaring.
	renames map[string]string
}

// ===================================================================
// Identifiers
// ===================================================================

// Apply the rename table to an identifier.  Hyphenated names not present in
// the table (e.g. parameters of an imported function) still receive the same
// deterministic camelCase transform, so both sides of a module boundary
// agree on spelling.
func (g *generator) rename(name string) string {
	if target, ok := g.renames[name]; ok {
		return target
	} else if strings.Contains(name, "-") {
		return strcase.LowerCamelCase(name)
	}
	//
	return name
}

// ===================================================================
// Declarations
// ===================================================================

func (g *generator) genImport(imp ir.Import) {
	names := make([]string, len(imp.Names))
	for i, name := range imp.Names {
		names[i] = g.rename(name)
	}
	// Peer modules are emitted side-by-side; external specifiers pass
	// through unchanged.
	specifier := imp.Specifier
	if imp.Peer {
		specifier = strings.TrimSuffix(specifier, ".hql") + ".mjs"
	}
	//
	g.line(fmt.Sprintf("import { %s } from %s;", strings.Join(names, ", "),
		strconv.Quote(specifier)))
}

func (g *generator) genDecl(decl ir.Decl) {
	switch d := decl.(type) {
	case *ir.FunctionDecl:
		g.genFunction(d)
	case *ir.VarDecl:
		g.genVarDecl(d)
	case *ir.ExprStmt:
		g.line(g.expr(d.Expr) + ";")
	default:
		panic("unknown declaration")
	}
}

// A positional function whose whole body is one implicitly-returned
// expression emits as a concise arrow, so no return keyword appears at all.
func (g *generator) arrowable(fn *ir.FunctionDecl) (ir.Expr, bool) {
	if fn.IsNamed || fn.HasExplicitReturn || fn.ReturnType == "Void" {
		return nil, false
	} else if len(fn.Body.Stmts) != 1 {
		return nil, false
	}
	//
	ret, ok := fn.Body.Stmts[0].(*ir.ReturnStmt)
	//
	if !ok || ret.Value == nil {
		return nil, false
	}
	//
	return ret.Value, true
}

// Emit the parameter list of a positional function.
func (g *generator) paramList(fn *ir.FunctionDecl) string {
	params := make([]string, len(fn.Params))
	//
	for i, p := range fn.Params {
		params[i] = g.rename(p.Name)
		//
		if p.Default != nil {
			params[i] += " = " + g.expr(p.Default)
		}
	}
	//
	return strings.Join(params, ", ")
}

// Emit the expression body of an arrow, guarding the object-literal hazard.
func (g *generator) arrowBody(body ir.Expr) string {
	text := g.expr(body)
	//
	if _, ok := body.(*ir.ObjectLit); ok {
		return "(" + text + ")"
	}
	//
	return text
}

// Emit a function declaration.  A positional callee lists its parameters
// directly, with defaults in default-parameter syntax.  A keyed callee takes
// the single record argument and destructures it in a prologue; a defaulted
// parameter tests property presence, so an explicit null (or zero) is never
// confused with absence.
func (g *generator) genFunction(fn *ir.FunctionDecl) {
	if body, ok := g.arrowable(fn); ok && !fn.IsAnonymous {
		g.line(fmt.Sprintf("const %s = (%s) => %s;", g.rename(fn.Name),
			g.paramList(fn), g.arrowBody(body)))
		//
		return
	}
	//
	g.genFunctionStmt(fn)
}

func (g *generator) genFunctionStmt(fn *ir.FunctionDecl) {
	header := "function " + g.rename(fn.Name)
	//
	if fn.IsAnonymous {
		header = "function "
	}
	//
	if fn.IsNamed {
		g.line(header + "(" + recordParam + ") {")
		g.indent++
		//
		for _, p := range fn.Params {
			name := g.rename(p.Name)
			//
			if p.Default == nil {
				g.line(fmt.Sprintf("const %s = %s.%s;", name, recordParam, name))
			} else {
				g.line(fmt.Sprintf("const %s = %s in %s ? %s.%s : %s;",
					name, strconv.Quote(name), recordParam, recordParam, name,
					g.expr(p.Default)))
			}
		}
	} else {
		g.line(header + "(" + g.paramList(fn) + ") {")
		g.indent++
	}
	//
	g.genStmts(fn.Body.Stmts)
	g.indent--
	g.line("}")
}

func (g *generator) genVarDecl(decl *ir.VarDecl) {
	keyword := "const"
	if decl.Mutable {
		keyword = "let"
	}
	//
	g.line(fmt.Sprintf("%s %s = %s;", keyword, g.rename(decl.Name), g.expr(decl.Init)))
}

// ===================================================================
// Statements
// ===================================================================

func (g *generator) genStmts(stmts []ir.Stmt) {
	for _, stmt := range stmts {
		g.genStmt(stmt)
	}
}

func (g *generator) genStmt(stmt ir.Stmt) {
	switch s := stmt.(type) {
	case *ir.VarDecl:
		g.genVarDecl(s)
	case *ir.ExprStmt:
		g.line(g.expr(s.Expr) + ";")
	case *ir.ReturnStmt:
		if s.Value == nil {
			g.line("return;")
		} else {
			g.line("return " + g.expr(s.Value) + ";")
		}
	case *ir.Block:
		g.line("{")
		g.indent++
		g.genStmts(s.Stmts)
		g.indent--
		g.line("}")
	case *ir.IfStmt:
		g.lineOpen("")
		g.genIf(s)
	default:
		panic("unknown statement")
	}
}

// Emit a conditional, continuing whatever line is currently open (which is
// how an else-if chain stays on one line).
func (g *generator) genIf(stmt *ir.IfStmt) {
	g.append("if (" + g.expr(stmt.Cond) + ") {\n")
	g.indent++
	g.genStmts(stmt.Then.Stmts)
	g.indent--
	//
	switch chained := stmt.Else.(type) {
	case nil:
		g.line("}")
	case *ir.IfStmt:
		g.lineOpen("} else ")
		g.genIf(chained)
	case *ir.Block:
		g.line("} else {")
		g.indent++
		g.genStmts(chained.Stmts)
		g.indent--
		g.line("}")
	default:
		panic("unknown else statement")
	}
}

// ===================================================================
// Output buffer
// ===================================================================

// Emit a complete line at the current indentation.
func (g *generator) line(text string) {
	if text == "" {
		g.buf.WriteString("\n")
		return
	}
	//
	g.buf.WriteString(strings.Repeat("  ", g.indent))
	g.buf.WriteString(text)
	g.buf.WriteString("\n")
}

// Begin a line without terminating it.
func (g *generator) lineOpen(text string) {
	g.buf.WriteString(strings.Repeat("  ", g.indent))
	g.buf.WriteString(text)
}

// Append to the current (open) line.
func (g *generator) append(text string) {
	g.buf.WriteString(text)
}

// Check whether a key can appear unquoted in an object literal.
func isPlainKey(key string) bool {
	if key == "" {
		return false
	}
	//
	for i, c := range key {
		if unicode.IsLetter(c) || c == '_' || c == '$' {
			continue
		} else if i > 0 && unicode.IsDigit(c) {
			continue
		}
		//
		return false
	}
	//
	return true
}
