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
	"fmt"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// DEFAULT_EXPANSION_BUDGET is the number of macro expansions permitted for a
// single top-level form before expansion is assumed to be non-terminating.
const DEFAULT_EXPANSION_BUDGET = uint(64)

// Expand rewrites a sequence of top-level forms until no form headed by a
// macro symbol remains.  Top-level defmacro forms are registered into the
// per-compilation scope of the given environment (before any later form is
// expanded) and dropped from the output.  Expansion is outermost-first with
// re-expansion of each result, which gives the usual call-by-name macro
// semantics.
func Expand(env *Env, srcmap *source.Maps[ast.Node], terms []ast.Node,
	budget uint) ([]ast.Node, []source.SyntaxError) {
	//
	var (
		expanded []ast.Node
		errors   []source.SyntaxError
	)
	//
	e := &expander{env, srcmap, budget, declaredMacros(terms), 0}
	//
	for _, term := range terms {
		// Top-level macro definitions never survive expansion.
		if isDefMacro(term) {
			if err := e.register(term.(*ast.List)); err != nil {
				errors = append(errors, *err)
			}
			//
			continue
		}
		// Reset the per-form budget.
		e.remaining = e.budget
		//
		nterm, errs := e.expand(term)
		errors = append(errors, errs...)
		//
		if len(errs) == 0 {
			expanded = append(expanded, nterm)
		}
	}
	//
	return expanded, errors
}

// Expander performs the fixed-point rewrite of a module's top-level forms.
type expander struct {
	env *Env
	// Source maps nodes back to the spans in their original source files.
	srcmap *source.Maps[ast.Node]
	// Per-form expansion budget.
	budget uint
	// Names of every macro declared anywhere in the module.  Used to tell a
	// forward reference apart from an ordinary function call.
	declared map[string]bool
	// Budget remaining for the form currently being expanded.
	remaining uint
}

// Expand a term until its head is no longer a macro, then recursively expand
// beneath it.
func (e *expander) expand(term ast.Node) (ast.Node, []source.SyntaxError) {
	list := term.AsList()
	// Only lists can be macro invocations.
	if list == nil {
		return term, nil
	}
	//
	if head := list.Head(); head != nil {
		switch head.Name {
		case "quote":
			// Expansion is suspended beneath a quote.
			return term, nil
		case "quasiquote":
			return e.expandQuasi(list)
		case "defmacro":
			return nil, e.errorOn(term, source.MacroRuntimeError,
				"defmacro only permitted at the top level")
		}
		//
		if transformer, ok := e.env.Lookup(head.Name); ok {
			return e.invoke(list, head.Name, transformer)
		} else if e.declared[head.Name] {
			// Declared later in this module, but not registered yet.
			return nil, e.errorOn(term, source.UnknownMacro,
				fmt.Sprintf("macro \"%s\" used before its definition", head.Name))
		}
	}
	// Not a macro invocation; expand the elements.
	return e.expandElements(list)
}

// Invoke a macro transformer and re-expand its result.
func (e *expander) invoke(list *ast.List, name string,
	transformer Transformer) (ast.Node, []source.SyntaxError) {
	// Enforce the per-form budget.
	if e.remaining == 0 {
		return nil, e.errorOn(list, source.MacroExpansionLimit,
			fmt.Sprintf("expansion of \"%s\" exceeded the budget", name))
	}
	//
	e.remaining--
	//
	result, err := transformer.Transform(list.Elements[1:], e.env)
	//
	if err != nil {
		return nil, e.errorOn(list, source.MacroRuntimeError, err.Error())
	} else if result == nil {
		return nil, e.errorOn(list, source.MacroRuntimeError,
			fmt.Sprintf("macro \"%s\" produced no term", name))
	}
	// Carry the invocation's span onto the replacement.
	e.copySpans(list, result)
	// Re-expand the result (call-by-name semantics).
	return e.expand(result)
}

// Expand the elements of a non-macro list.
func (e *expander) expandElements(list *ast.List) (ast.Node, []source.SyntaxError) {
	var (
		errors   []source.SyntaxError
		elements = make([]ast.Node, len(list.Elements))
		changed  = false
	)
	//
	for i, element := range list.Elements {
		nelement, errs := e.expand(element)
		errors = append(errors, errs...)
		//
		elements[i] = nelement
		changed = changed || nelement != element
	}
	//
	if len(errors) > 0 {
		return nil, errors
	} else if !changed {
		// Nothing was rewritten, so the original term stands.  This keeps
		// expansion idempotent on already-expanded trees.
		return list, nil
	}
	//
	nlist := ast.NewList(elements)
	e.srcmap.Copy(list, nlist)
	//
	return nlist, errors
}

// Expand beneath a quasiquote.  Expansion only proceeds within unquote and
// unquote-splicing holes; everything else is treated as data.
func (e *expander) expandQuasi(quasi *ast.List) (ast.Node, []source.SyntaxError) {
	if quasi.Len() != 2 {
		return nil, e.errorOn(quasi, source.MacroRuntimeError, "malformed quasiquote")
	}
	//
	body, errors := e.expandQuasiTerm(quasi.Get(1))
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	nquasi := ast.ListOf(ast.NewSymbol("quasiquote"), body)
	e.srcmap.Copy(quasi, nquasi)
	//
	return nquasi, nil
}

func (e *expander) expandQuasiTerm(term ast.Node) (ast.Node, []source.SyntaxError) {
	list := term.AsList()
	//
	if list == nil {
		return term, nil
	} else if list.MatchSymbols(2, "unquote") || list.MatchSymbols(2, "unquote-splicing") {
		hole, errs := e.expand(list.Get(1))
		//
		if len(errs) > 0 {
			return nil, errs
		}
		//
		nlist := ast.ListOf(list.Get(0), hole)
		e.srcmap.Copy(list, nlist)
		//
		return nlist, nil
	}
	//
	var (
		errors   []source.SyntaxError
		elements = make([]ast.Node, len(list.Elements))
	)
	//
	for i, element := range list.Elements {
		var errs []source.SyntaxError
		elements[i], errs = e.expandQuasiTerm(element)
		errors = append(errors, errs...)
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	nlist := ast.NewList(elements)
	e.srcmap.Copy(list, nlist)
	//
	return nlist, nil
}

// Register a top-level defmacro form.
func (e *expander) register(list *ast.List) *source.SyntaxError {
	template, err := newTemplate(list)
	//
	if err != nil {
		return e.srcmap.SyntaxError(list, source.MacroRuntimeError, err.Error())
	}
	//
	if err := e.env.Define(template.name, template); err != nil {
		return e.srcmap.SyntaxError(list, source.MacroRuntimeError, err.Error())
	}
	//
	return nil
}

// Copy the span of a macro invocation onto every span-less node of its
// replacement, so later stages can report errors against the invocation site.
func (e *expander) copySpans(from ast.Node, to ast.Node) {
	if to == nil || e.srcmap.Has(to) {
		return
	}
	//
	e.srcmap.Copy(from, to)
	//
	if list := to.AsList(); list != nil {
		for _, element := range list.Elements {
			e.copySpans(from, element)
		}
	}
}

func (e *expander) errorOn(node ast.Node, kind source.ErrorKind,
	msg string) []source.SyntaxError {
	return e.srcmap.SyntaxErrors(node, kind, msg)
}

// Collect the names declared by every top-level defmacro in a module.
func declaredMacros(terms []ast.Node) map[string]bool {
	declared := make(map[string]bool)
	//
	for _, term := range terms {
		if isDefMacro(term) {
			list := term.(*ast.List)
			//
			if list.Len() >= 2 && list.Get(1).AsSymbol() != nil {
				declared[list.Get(1).AsSymbol().Name] = true
			}
		}
	}
	//
	return declared
}

func isDefMacro(term ast.Node) bool {
	list := term.AsList()
	return list != nil && list.MatchSymbols(1, "defmacro")
}
