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

	"github.com/boraseoksoon/hql/pkg/hql/ir"
)

// Emit an expression.
func (g *generator) expr(expr ir.Expr) string {
	switch e := expr.(type) {
	case *ir.Literal:
		return g.literal(e)
	case *ir.Identifier:
		return g.rename(e.Name)
	case *ir.MemberExpr:
		return g.operand(e.Object, memberContext) + "." + e.Property
	case *ir.BinaryExpr:
		return g.binary(e)
	case *ir.UnaryExpr:
		return e.Op + g.operand(e.Operand, unaryContext)
	case *ir.CondExpr:
		return g.operand(e.Cond, condContext) + " ? " +
			g.operand(e.Then, condContext) + " : " + g.operand(e.Else, condContext)
	case *ir.ArrayLit:
		return g.array(e)
	case *ir.ObjectLit:
		return g.object(e)
	case *ir.FunctionExpr:
		return g.functionExpr(e.Fn)
	case *ir.CallExpr:
		return g.call(e)
	}
	//
	panic("unknown expression")
}

func (g *generator) literal(lit *ir.Literal) string {
	switch v := lit.Value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		//
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	}
	//
	panic(fmt.Sprintf("unknown literal %v", lit.Value))
}

func (g *generator) array(lit *ir.ArrayLit) string {
	elements := make([]string, len(lit.Elements))
	for i, e := range lit.Elements {
		elements[i] = g.expr(e)
	}
	//
	return "[" + strings.Join(elements, ", ") + "]"
}

func (g *generator) object(lit *ir.ObjectLit) string {
	if len(lit.Keys) == 0 {
		return "{}"
	}
	//
	properties := make([]string, len(lit.Keys))
	//
	for i, key := range lit.Keys {
		// Records synthesised for keyed calls carry parameter identifiers,
		// which rename like any other identifier; map data does not.
		if lit.ParamKeys {
			key = g.rename(key)
		}
		//
		if !isPlainKey(key) {
			key = strconv.Quote(key)
		}
		//
		properties[i] = key + ": " + g.expr(lit.Values[i])
	}
	//
	return "{ " + strings.Join(properties, ", ") + " }"
}

// Emit a function expression, inline.
func (g *generator) functionExpr(fn *ir.FunctionDecl) string {
	if body, ok := g.arrowable(fn); ok {
		return "(" + g.paramList(fn) + ") => " + g.arrowBody(body)
	}
	// Function expressions reuse the statement emitter on a nested buffer.
	nested := &generator{indent: g.indent, renames: g.renames}
	nested.genFunctionStmt(fn)
	// Drop the trailing newline and leading indentation.
	text := strings.TrimSuffix(nested.buf.String(), "\n")
	//
	return strings.TrimPrefix(text, strings.Repeat("  ", g.indent))
}

// Emit a call.  The str form is handled here: it concatenates its operands
// by string coercion, using a template literal whenever every operand is
// simple enough to inline.
func (g *generator) call(call *ir.CallExpr) string {
	if id, ok := call.Callee.(*ir.Identifier); ok && id.Name == "str" {
		return g.strConcat(call.Args)
	}
	//
	args := make([]string, len(call.Args))
	for i, arg := range call.Args {
		args[i] = g.expr(arg)
	}
	//
	return g.operand(call.Callee, calleeContext) + "(" + strings.Join(args, ", ") + ")"
}

// Emit a str concatenation.
func (g *generator) strConcat(args []ir.Expr) string {
	if len(args) == 0 {
		return `""`
	}
	// A template literal is safe when every operand is a literal or an
	// identifier.
	safe := true
	//
	for _, arg := range args {
		switch arg.(type) {
		case *ir.Literal, *ir.Identifier:
			// ok
		default:
			safe = false
		}
	}
	//
	if safe {
		var buf strings.Builder
		//
		buf.WriteString("`")
		//
		for _, arg := range args {
			if lit, ok := arg.(*ir.Literal); ok {
				if s, ok := lit.Value.(string); ok {
					buf.WriteString(escapeTemplate(s))
					continue
				}
			}
			//
			buf.WriteString("${")
			buf.WriteString(g.expr(arg))
			buf.WriteString("}")
		}
		//
		buf.WriteString("`")
		//
		return buf.String()
	}
	// Otherwise, coerce explicitly.
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = "String(" + g.expr(arg) + ")"
	}
	//
	return strings.Join(parts, " + ")
}

func escapeTemplate(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	//
	return s
}

// ===================================================================
// Parenthesisation
// ===================================================================

type context uint

const (
	// Left operand of a binary operator.
	lhsContext context = iota
	// Right operand of a binary operator.
	rhsContext
	// Operand of a unary operator.
	unaryContext
	// Any leg of a conditional.
	condContext
	// Callee of a call.
	calleeContext
	// Object of a member access.
	memberContext
)

func (g *generator) binary(e *ir.BinaryExpr) string {
	lhs := g.expr(e.Lhs)
	// A left-nested chain of the same operator needs no grouping.
	if nested, ok := e.Lhs.(*ir.BinaryExpr); ok && nested.Op != e.Op {
		lhs = "(" + lhs + ")"
	} else if needsParens(e.Lhs, lhsContext) {
		lhs = "(" + lhs + ")"
	}
	//
	return lhs + " " + e.Op + " " + g.operand(e.Rhs, rhsContext)
}

// Emit an operand, parenthesised where its shape demands it.
func (g *generator) operand(expr ir.Expr, ctx context) string {
	text := g.expr(expr)
	//
	if needsParens(expr, ctx) {
		return "(" + text + ")"
	}
	//
	return text
}

func needsParens(expr ir.Expr, ctx context) bool {
	switch e := expr.(type) {
	case *ir.FunctionExpr:
		return true
	case *ir.CondExpr:
		return true
	case *ir.BinaryExpr:
		return ctx != lhsContext
	case *ir.UnaryExpr:
		return ctx == memberContext
	case *ir.Literal:
		// A number followed by a dot is a lexical hazard.
		_, isNumber := e.Value.(float64)
		return ctx == memberContext && isNumber
	}
	//
	return false
}
