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
package desugar

import (
	"fmt"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// ParamInfo describes one parameter of a desugared function: its (source)
// name, an optional type tag, an optional default expression and its
// declaration-order index.
type ParamInfo struct {
	Name string
	// Optional type tag (empty when unannotated).
	Type string
	// Optional default expression (nil when the parameter is required).
	Default ast.Node
	// Declaration-order index.
	Index int
}

// FunctionMeta carries the metadata attached to every canonical function
// form: the parameter records, the optional return-type tag, whether the
// definition was declared with any named-parameter marker, and whether the
// body syntactically contains a return in tail position.
type FunctionMeta struct {
	Params     []ParamInfo
	ReturnType string
	// Named records whether any parameter used the name: marker form.  A
	// named function is a keyed callee: it receives a single record argument.
	Named bool
	// ExplicitReturn records whether the body ends in an explicit return.
	ExplicitReturn bool
}

// NamedParamIds returns the declared parameter names, in order.
func (m *FunctionMeta) NamedParamIds() []string {
	ids := make([]string, len(m.Params))
	for i, p := range m.Params {
		ids[i] = p.Name
	}
	//
	return ids
}

// ModuleInfo is the desugarer's side output: function metadata keyed by the
// canonical function node, plus the module's identifier rename table.
type ModuleInfo struct {
	// Functions maps each canonical defn/fn list node to its metadata.
	Functions map[ast.Node]*FunctionMeta
	// Renames maps hyphenated source identifiers to their camelCase
	// spellings.
	Renames map[string]string
}

// MetaOf returns the metadata for a given canonical function node.
func (m *ModuleInfo) MetaOf(node ast.Node) *FunctionMeta {
	meta, ok := m.Functions[node]
	//
	if !ok {
		panic("missing function metadata")
	}
	//
	return meta
}

// Desugar collapses the extended function surface of a macro-expanded module
// into the canonical kernel form, leaving only the fixed kernel of forms
// behind.  Alongside the rewritten tree it produces the function metadata and
// the module's rename table.
func Desugar(srcmap *source.Maps[ast.Node], terms []ast.Node) ([]ast.Node, *ModuleInfo, []source.SyntaxError) {
	d := &desugarer{
		srcmap: srcmap,
		info: &ModuleInfo{
			Functions: make(map[ast.Node]*FunctionMeta),
			Renames:   make(map[string]string),
		},
	}
	//
	var (
		canonical []ast.Node
		errors    []source.SyntaxError
	)
	//
	for _, term := range terms {
		nterm, errs := d.desugarTopLevel(term)
		errors = append(errors, errs...)
		//
		if len(errs) == 0 {
			canonical = append(canonical, nterm)
		}
	}
	// Compute the rename table over the canonical tree.
	if len(errors) == 0 {
		errors = d.computeRenames(canonical)
	}
	//
	return canonical, d.info, errors
}

// Desugarer rewrites one module.
type desugarer struct {
	// Source maps nodes back to the spans in their original source files.
	srcmap *source.Maps[ast.Node]
	// Accumulated side output.
	info *ModuleInfo
}

// Desugar a top-level form.
func (d *desugarer) desugarTopLevel(term ast.Node) (ast.Node, []source.SyntaxError) {
	list := term.AsList()
	//
	if list == nil {
		return term, nil
	}
	//
	if head := list.Head(); head != nil {
		switch head.Name {
		case "defn", "fx":
			return d.desugarFunction(list, false)
		case "import", "export":
			// Handled by the linker; passed through untouched.
			return term, nil
		case "return":
			return nil, d.errorOn(term, source.ReturnOutsideFunction,
				"return outside function")
		}
	}
	// Ordinary expression (or def); rewrite beneath it.
	return d.desugarExpr(term, false)
}

// Desugar an expression.  The inFunction flag tracks whether a return form is
// legal here.
func (d *desugarer) desugarExpr(term ast.Node, inFunction bool) (ast.Node, []source.SyntaxError) {
	list := term.AsList()
	//
	if list == nil {
		return term, nil
	}
	//
	if head := list.Head(); head != nil {
		switch head.Name {
		case "fn":
			return d.desugarFunction(list, true)
		case "defn", "fx":
			return nil, d.errorOn(term, source.ParseError,
				fmt.Sprintf("%s only permitted at the top level", head.Name))
		case "quote", "quasiquote":
			// Data; nothing to rewrite beneath.
			return term, nil
		case "let":
			return d.desugarLet(list, inFunction)
		case "return":
			if !inFunction {
				return nil, d.errorOn(term, source.ReturnOutsideFunction,
					"return outside function")
			}
		}
	}
	// Rewrite the elements.
	return d.desugarElements(list, inFunction)
}

// Desugar the elements of a list, preserving the original node when nothing
// beneath it changed.
func (d *desugarer) desugarElements(list *ast.List, inFunction bool) (ast.Node, []source.SyntaxError) {
	var (
		errors   []source.SyntaxError
		elements = make([]ast.Node, len(list.Elements))
		changed  = false
	)
	//
	for i, element := range list.Elements {
		nelement, errs := d.desugarExpr(element, inFunction)
		errors = append(errors, errs...)
		//
		elements[i] = nelement
		changed = changed || nelement != element
	}
	//
	if len(errors) > 0 {
		return nil, errors
	} else if !changed {
		return list, nil
	}
	//
	nlist := ast.NewList(elements)
	d.srcmap.Copy(list, nlist)
	//
	return nlist, nil
}

// Desugar a let form into the canonical shape (let ((x e) ...) (do body)).
// The surface admits both the bracketed flat form (let [x 1 y 2] ...) --
// which reads as (let (vector x 1 y 2) ...) -- and explicit binding pairs.
func (d *desugarer) desugarLet(list *ast.List, inFunction bool) (ast.Node, []source.SyntaxError) {
	if list.Len() < 3 {
		return nil, d.errorOn(list, source.ParseError, "malformed let")
	}
	//
	bindings := list.Get(1).AsList()
	if bindings == nil {
		return nil, d.errorOn(list.Get(1), source.ParseError, "malformed let bindings")
	}
	//
	var (
		pairs  []ast.Node
		errors []source.SyntaxError
	)
	//
	if bindings.MatchSymbols(1, "vector") {
		// Flat form: alternating names and initialisers.
		flat := bindings.Elements[1:]
		//
		if len(flat)%2 != 0 {
			return nil, d.errorOn(bindings, source.ParseError,
				"let requires an even number of binding forms")
		}
		//
		for i := 0; i < len(flat); i += 2 {
			name := flat[i].AsSymbol()
			if name == nil {
				return nil, d.errorOn(flat[i], source.ParseError,
					"let binding name must be a symbol")
			}
			//
			init, errs := d.desugarExpr(flat[i+1], inFunction)
			errors = append(errors, errs...)
			//
			pair := ast.ListOf(name, init)
			d.srcmap.Copy(flat[i], pair)
			pairs = append(pairs, pair)
		}
	} else {
		// Paired form: each binding is a two-element list.
		for _, binding := range bindings.Elements {
			pair := binding.AsList()
			//
			if pair == nil || pair.Len() != 2 || pair.Get(0).AsSymbol() == nil {
				return nil, d.errorOn(binding, source.ParseError, "malformed let binding")
			}
			//
			init, errs := d.desugarExpr(pair.Get(1), inFunction)
			errors = append(errors, errs...)
			//
			npair := ast.ListOf(pair.Get(0), init)
			d.srcmap.Copy(binding, npair)
			pairs = append(pairs, npair)
		}
	}
	//
	body, errs := d.desugarBody(list.Elements[2:], inFunction)
	errors = append(errors, errs...)
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	npairs := ast.NewList(pairs)
	d.srcmap.Copy(list.Get(1), npairs)
	//
	nlet := ast.ListOf(ast.NewSymbol("let"), npairs, body)
	d.srcmap.Copy(list, nlet)
	//
	return nlet, nil
}

// Desugar a sequence of body forms into a single (do ...) block.
func (d *desugarer) desugarBody(forms []ast.Node, inFunction bool) (ast.Node, []source.SyntaxError) {
	var (
		errors   []source.SyntaxError
		elements = []ast.Node{ast.NewSymbol("do")}
	)
	//
	for _, form := range forms {
		nform, errs := d.desugarExpr(form, inFunction)
		errors = append(errors, errs...)
		//
		if len(errs) == 0 {
			elements = append(elements, nform)
		}
	}
	//
	if len(errors) > 0 {
		return nil, errors
	}
	//
	block := ast.NewList(elements)
	//
	if len(forms) > 0 {
		d.srcmap.Copy(forms[0], block)
		d.srcmap.Copy(forms[0], block.Get(0))
	}
	//
	return block, nil
}

func (d *desugarer) errorOn(node ast.Node, kind source.ErrorKind,
	msg string) []source.SyntaxError {
	return d.srcmap.SyntaxErrors(node, kind, msg)
}
