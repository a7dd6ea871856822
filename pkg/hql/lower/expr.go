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

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// Binary operator applications map onto their ECMAScript spellings.
var binaryOps = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"=": "===", "!=": "!==", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
}

// Comparison operators admit exactly two operands; the arithmetic operators
// fold over two or more.
var comparisonOps = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// Lower a form in expression position.
func (l *lowerer) lowerExpr(term ast.Node) (ir.Expr, []source.SyntaxError) {
	switch n := term.(type) {
	case *ast.Number:
		return l.literal(n.Value, term), nil
	case *ast.String:
		return l.literal(n.Value, term), nil
	case *ast.Bool:
		return l.literal(n.Value, term), nil
	case *ast.Nil:
		return l.literal(nil, term), nil
	case *ast.Symbol:
		return l.lowerSymbol(n)
	case *ast.List:
		return l.lowerListExpr(n)
	}
	//
	panic("unknown ast node")
}

func (l *lowerer) literal(value any, from ast.Node) ir.Expr {
	lit := &ir.Literal{Value: value}
	l.map2(lit, from)
	//
	return lit
}

// Lower a symbol reference: either a plain identifier or a member path.
func (l *lowerer) lowerSymbol(sym *ast.Symbol) (ir.Expr, []source.SyntaxError) {
	if sym.IsMarker() {
		return nil, l.errorOn(sym, source.ParseError,
			fmt.Sprintf("stray named-parameter marker \"%s\"", sym.Name))
	}
	//
	segments := splitPath(sym.Name)
	//
	if !l.scope.bound(segments[0]) {
		return nil, l.errorOn(sym, source.UnboundIdentifier,
			fmt.Sprintf("unbound identifier \"%s\"", segments[0]))
	}
	//
	var expr ir.Expr = &ir.Identifier{Name: segments[0]}
	l.map2(expr, sym)
	//
	for _, property := range segments[1:] {
		expr = &ir.MemberExpr{Object: expr, Property: property}
		l.map2(expr, sym)
	}
	//
	return expr, nil
}

// Lower a list in expression position.
func (l *lowerer) lowerListExpr(list *ast.List) (ir.Expr, []source.SyntaxError) {
	if list.Len() == 0 {
		return nil, l.errorOn(list, source.ParseError, "empty application")
	}
	//
	if head := list.Head(); head != nil {
		switch head.Name {
		case "fn":
			fn, errs := l.lowerFunction(list, true)
			//
			if len(errs) > 0 {
				return nil, errs
			}
			//
			expr := &ir.FunctionExpr{Fn: fn}
			l.map2(expr, list)
			//
			return expr, nil
		case "if":
			return l.lowerIfExpr(list)
		case "do":
			return l.lowerDoExpr(list)
		case "let":
			return l.lowerLetExpr(list)
		case "quote":
			if list.Len() != 2 {
				return nil, l.errorOn(list, source.ParseError, "malformed quote")
			}
			//
			return l.lowerQuoted(list.Get(1), false)
		case "quasiquote":
			if list.Len() != 2 {
				return nil, l.errorOn(list, source.ParseError, "malformed quasiquote")
			}
			//
			return l.lowerQuoted(list.Get(1), true)
		case "vector":
			return l.lowerVector(list)
		case "hash-map":
			return l.lowerHashMap(list)
		case "str":
			return l.lowerStr(list)
		case "not":
			if list.Len() != 2 {
				return nil, l.errorOn(list, source.ArityError,
					fmt.Sprintf("not expects 1 argument, got %d", list.Len()-1))
			}
			//
			operand, errs := l.lowerExpr(list.Get(1))
			if len(errs) > 0 {
				return nil, errs
			}
			//
			expr := &ir.UnaryExpr{Op: "!", Operand: operand}
			l.map2(expr, list)
			//
			return expr, nil
		case "return", "def", "defn", "fx", "import", "export", "defmacro":
			return nil, l.errorOn(list, source.ParseError,
				fmt.Sprintf("%s not permitted in expression position", head.Name))
		}
		//
		if _, ok := binaryOps[head.Name]; ok {
			return l.lowerOperator(list)
		}
	}
	//
	return l.lowerCall(list)
}

// Lower an if form in expression position, emitted as a ternary.
func (l *lowerer) lowerIfExpr(list *ast.List) (ir.Expr, []source.SyntaxError) {
	if list.Len() != 3 && list.Len() != 4 {
		return nil, l.errorOn(list, source.ArityError,
			fmt.Sprintf("if expects 2 or 3 arguments, got %d", list.Len()-1))
	}
	//
	cond, errors := l.lowerExpr(list.Get(1))
	thenExpr, errs := l.lowerExpr(list.Get(2))
	errors = append(errors, errs...)
	//
	var elseExpr ir.Expr = &ir.Literal{Value: nil}
	//
	if list.Len() == 4 {
		elseExpr, errs = l.lowerExpr(list.Get(3))
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	expr := &ir.CondExpr{Cond: cond, Then: thenExpr, Else: elseExpr}
	l.map2(expr, list)
	//
	return expr, nil
}

// Lower a do form in expression position.  A single-form do unwraps; a
// multi-form do becomes an immediately-invoked function so its value is the
// last form's value.
func (l *lowerer) lowerDoExpr(list *ast.List) (ir.Expr, []source.SyntaxError) {
	if list.Len() == 2 {
		return l.lowerExpr(list.Get(1))
	}
	//
	block, errs := l.lowerBlock(list, true)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return l.iife(block, list), nil
}

// Lower a let form in expression position, as an immediately-invoked
// function enclosing its bindings.
func (l *lowerer) lowerLetExpr(list *ast.List) (ir.Expr, []source.SyntaxError) {
	stmts, errs := l.lowerLetStmt(list, true)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	block := stmts[0].(*ir.Block)
	//
	return l.iife(block, list), nil
}

// Wrap a block into an immediately-invoked anonymous function.
func (l *lowerer) iife(block *ir.Block, from ast.Node) ir.Expr {
	fn := &ir.FunctionDecl{Body: block, IsAnonymous: true}
	expr := &ir.CallExpr{Callee: &ir.FunctionExpr{Fn: fn}}
	//
	l.map2(fn, from)
	l.map2(expr, from)
	//
	return expr
}

// Lower quoted data.  Symbols become strings, lists become arrays, literals
// stay literals.  Under a quasiquote, unquote holes are lowered as ordinary
// expressions.
func (l *lowerer) lowerQuoted(term ast.Node, quasi bool) (ir.Expr, []source.SyntaxError) {
	switch n := term.(type) {
	case *ast.Number:
		return l.literal(n.Value, term), nil
	case *ast.String:
		return l.literal(n.Value, term), nil
	case *ast.Bool:
		return l.literal(n.Value, term), nil
	case *ast.Nil:
		return l.literal(nil, term), nil
	case *ast.Symbol:
		return l.literal(n.Name, term), nil
	case *ast.List:
		if quasi && n.MatchSymbols(2, "unquote") {
			return l.lowerExpr(n.Get(1))
		} else if quasi && n.Head() != nil && n.Head().Name == "unquote-splicing" {
			return nil, l.errorOn(n, source.ParseError,
				"unquote-splicing only permitted inside a macro template")
		}
		//
		var (
			errors   []source.SyntaxError
			elements = make([]ir.Expr, len(n.Elements))
		)
		//
		for i, element := range n.Elements {
			var errs []source.SyntaxError
			elements[i], errs = l.lowerQuoted(element, quasi)
			errors = append(errors, errs...)
		}
		//
		if len(errors) > 0 {
			return nil, errors
		}
		//
		expr := &ir.ArrayLit{Elements: elements}
		l.map2(expr, term)
		//
		return expr, nil
	}
	//
	panic("unknown ast node")
}

// Lower a (vector ...) constructor into an array literal.
func (l *lowerer) lowerVector(list *ast.List) (ir.Expr, []source.SyntaxError) {
	var (
		errors   []source.SyntaxError
		elements = make([]ir.Expr, list.Len()-1)
	)
	//
	for i, element := range list.Elements[1:] {
		var errs []source.SyntaxError
		elements[i], errs = l.lowerExpr(element)
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	expr := &ir.ArrayLit{Elements: elements}
	l.map2(expr, list)
	//
	return expr, nil
}

// Lower a (hash-map k v ...) constructor into an object literal.  Keys may be
// strings, symbols, or name: markers; they are data, never renamed.
func (l *lowerer) lowerHashMap(list *ast.List) (ir.Expr, []source.SyntaxError) {
	args := list.Elements[1:]
	//
	if len(args)%2 != 0 {
		return nil, l.errorOn(list, source.ArityError,
			"hash-map expects an even number of arguments")
	}
	//
	var (
		errors []source.SyntaxError
		obj    = &ir.ObjectLit{}
	)
	//
	for i := 0; i < len(args); i += 2 {
		var key string
		//
		switch k := args[i].(type) {
		case *ast.String:
			key = k.Value
		case *ast.Symbol:
			key = k.Name
			if k.IsMarker() {
				key = k.MarkerName()
			}
		default:
			errors = append(errors, *l.srcmap.SyntaxError(args[i], source.ParseError,
				"map key must be a string or symbol"))
			continue
		}
		//
		value, errs := l.lowerExpr(args[i+1])
		errors = append(errors, errs...)
		//
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, value)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	l.map2(obj, list)
	//
	return obj, nil
}

// Lower a (str ...) concatenation.  The generator decides between a template
// literal and explicit coercion.
func (l *lowerer) lowerStr(list *ast.List) (ir.Expr, []source.SyntaxError) {
	var (
		errors []source.SyntaxError
		args   = make([]ir.Expr, list.Len()-1)
	)
	//
	for i, element := range list.Elements[1:] {
		var errs []source.SyntaxError
		args[i], errs = l.lowerExpr(element)
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	callee := &ir.Identifier{Name: "str"}
	expr := &ir.CallExpr{Callee: callee, Args: args}
	l.map2(callee, list)
	l.map2(expr, list)
	//
	return expr, nil
}

// Lower an operator application.  Arithmetic operators fold left over two or
// more operands; comparisons take exactly two; a one-argument "-" negates.
func (l *lowerer) lowerOperator(list *ast.List) (ir.Expr, []source.SyntaxError) {
	var (
		op     = list.Head().Name
		args   = list.Elements[1:]
		errors []source.SyntaxError
	)
	//
	if comparisonOps[op] && len(args) != 2 {
		return nil, l.errorOn(list, source.ArityError,
			fmt.Sprintf("%s expects 2 arguments, got %d", op, len(args)))
	} else if op == "-" && len(args) == 1 {
		operand, errs := l.lowerExpr(args[0])
		//
		if len(errs) > 0 {
			return nil, errs
		}
		//
		expr := &ir.UnaryExpr{Op: "-", Operand: operand}
		l.map2(expr, list)
		//
		return expr, nil
	} else if len(args) < 2 {
		return nil, l.errorOn(list, source.ArityError,
			fmt.Sprintf("%s expects at least 2 arguments, got %d", op, len(args)))
	}
	//
	operands := make([]ir.Expr, len(args))
	//
	for i, arg := range args {
		var errs []source.SyntaxError
		operands[i], errs = l.lowerExpr(arg)
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	// Fold left.
	expr := operands[0]
	//
	for _, rhs := range operands[1:] {
		expr = &ir.BinaryExpr{Op: binaryOps[op], Lhs: expr, Rhs: rhs}
		l.map2(expr, list)
	}
	//
	return expr, nil
}

// Lower a function application, detecting the keyed call-site shape.  Any
// name: marker among the arguments makes the whole call keyed; a site which
// mixes keyed and positional arguments is rejected outright.
func (l *lowerer) lowerCall(list *ast.List) (ir.Expr, []source.SyntaxError) {
	var (
		callee ir.Expr
		errors []source.SyntaxError
		args   = list.Elements[1:]
	)
	// Method-call sugar: (.method obj args...) invokes a member.
	if head := list.Head(); head != nil && len(head.Name) > 1 && head.Name[0] == '.' {
		if len(args) == 0 {
			return nil, l.errorOn(list, source.ArityError,
				"method call requires a receiver")
		}
		//
		receiver, errs := l.lowerExpr(args[0])
		if len(errs) > 0 {
			return nil, errs
		}
		//
		callee = &ir.MemberExpr{Object: receiver, Property: head.Name[1:]}
		l.map2(callee, list)
		args = args[1:]
	} else {
		var errs []source.SyntaxError
		//
		callee, errs = l.lowerExpr(list.Get(0))
		if len(errs) > 0 {
			return nil, errs
		}
	}
	//
	call := &ir.CallExpr{Callee: callee}
	// Detect keyed arguments.
	keyed := false
	//
	for _, arg := range args {
		if sym := arg.AsSymbol(); sym != nil && sym.IsMarker() {
			keyed = true
			break
		}
	}
	//
	if keyed {
		if len(args)%2 != 0 {
			return nil, l.errorOn(list, source.ConventionMismatch,
				"call mixes keyed and positional arguments")
		}
		//
		for i := 0; i < len(args); i += 2 {
			marker := args[i].AsSymbol()
			//
			if marker == nil || !marker.IsMarker() {
				return nil, l.errorOn(list, source.ConventionMismatch,
					"call mixes keyed and positional arguments")
			}
			//
			value, errs := l.lowerExpr(args[i+1])
			errors = append(errors, errs...)
			//
			call.ArgNames = append(call.ArgNames, marker.MarkerName())
			call.Args = append(call.Args, value)
		}
		//
		call.IsNamedArgs = true
	} else {
		for _, arg := range args {
			value, errs := l.lowerExpr(arg)
			errors = append(errors, errs...)
			call.Args = append(call.Args, value)
		}
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	l.map2(call, list)
	//
	return call, nil
}
