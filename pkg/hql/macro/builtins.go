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
package macro

import (
	"errors"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
)

// The built-in macros rewrite derived surface forms into the kernel language.
// They are installed into the process-wide scope at startup and, hence, are
// available to every compilation.

func init() {
	installBuiltin("cond", TransformerFunc(condMacro))
	installBuiltin("when", TransformerFunc(whenMacro))
	installBuiltin("unless", TransformerFunc(unlessMacro))
	installBuiltin("and", TransformerFunc(andMacro))
	installBuiltin("or", TransformerFunc(orMacro))
}

// (cond t1 e1 t2 e2 ... [true d]) ==> nested if forms.  Tests and
// consequents alternate; the symbol true at a test position introduces the
// default clause.
func condMacro(args []ast.Node, env *Env) (ast.Node, error) {
	if len(args)%2 != 0 {
		return nil, errors.New("cond requires an even number of forms")
	} else if len(args) == 0 {
		return ast.NewNil(), nil
	}
	// Fold pairs right-to-left into nested conditionals.
	var result ast.Node = ast.NewNil()
	//
	for i := len(args) - 2; i >= 0; i -= 2 {
		test, consequent := args[i], args[i+1]
		// A literal true test is the default clause.
		if b, ok := test.(*ast.Bool); ok && b.Value {
			if i+2 != len(args) {
				return nil, errors.New("default cond clause must come last")
			}
			//
			result = consequent
			//
			continue
		}
		//
		result = ast.ListOf(ast.NewSymbol("if"), test, consequent, result)
	}
	//
	return result, nil
}

// (when c body...) ==> (if c (do body...) nil)
func whenMacro(args []ast.Node, env *Env) (ast.Node, error) {
	if len(args) < 2 {
		return nil, errors.New("when requires a condition and a body")
	}
	//
	body := append([]ast.Node{ast.NewSymbol("do")}, args[1:]...)
	//
	return ast.ListOf(ast.NewSymbol("if"), args[0], ast.NewList(body), ast.NewNil()), nil
}

// (unless c body...) ==> (if c nil (do body...))
func unlessMacro(args []ast.Node, env *Env) (ast.Node, error) {
	if len(args) < 2 {
		return nil, errors.New("unless requires a condition and a body")
	}
	//
	body := append([]ast.Node{ast.NewSymbol("do")}, args[1:]...)
	//
	return ast.ListOf(ast.NewSymbol("if"), args[0], ast.NewNil(), ast.NewList(body)), nil
}

// (and) ==> true; (and x) ==> x; (and x rest...) ==> binds x to a fresh
// temporary so it is evaluated exactly once, short-circuiting on falsiness.
func andMacro(args []ast.Node, env *Env) (ast.Node, error) {
	switch len(args) {
	case 0:
		return ast.NewBool(true), nil
	case 1:
		return args[0], nil
	}
	//
	tmp := ast.NewSymbol(env.Gensym().Fresh("and"))
	rest := append([]ast.Node{ast.NewSymbol("and")}, args[1:]...)
	//
	return letSingle(tmp, args[0],
		ast.ListOf(ast.NewSymbol("if"), tmp, ast.NewList(rest), tmp)), nil
}

// (or) ==> false; (or x) ==> x; (or x rest...) ==> binds x to a fresh
// temporary so it is evaluated exactly once, short-circuiting on truthiness.
func orMacro(args []ast.Node, env *Env) (ast.Node, error) {
	switch len(args) {
	case 0:
		return ast.NewBool(false), nil
	case 1:
		return args[0], nil
	}
	//
	tmp := ast.NewSymbol(env.Gensym().Fresh("or"))
	rest := append([]ast.Node{ast.NewSymbol("or")}, args[1:]...)
	//
	return letSingle(tmp, args[0],
		ast.ListOf(ast.NewSymbol("if"), tmp, tmp, ast.NewList(rest))), nil
}

// Construct (let ((sym init)) body).
func letSingle(sym *ast.Symbol, init ast.Node, body ast.Node) ast.Node {
	binding := ast.ListOf(sym, init)
	//
	return ast.ListOf(ast.NewSymbol("let"), ast.ListOf(binding), body)
}

// Sanity check used by tests: a built-in must exist for
// every surface form the desugarer assumes has been eliminated.
func hasBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
