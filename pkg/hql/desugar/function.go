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
	"strings"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// Desugar a function definition (defn/fx, or an fn expression) into the
// canonical kernel shape:
//
//	(defn name (p1 p2 ...) (do body...))
//	(fn (p1 p2 ...) (do body...))
//
// with the parameter records, return-type tag, named flag and explicit-return
// flag attached as metadata.  Both defn and fx lower to the same kernel defn;
// the two surface keywords differ in nothing else.
func (d *desugarer) desugarFunction(list *ast.List, anonymous bool) (ast.Node, []source.SyntaxError) {
	var (
		name     *ast.Symbol
		paramsAt = 1
	)
	//
	if !anonymous {
		if list.Len() < 3 {
			return nil, d.errorOn(list, source.ParseError, "malformed function definition")
		}
		//
		if name = list.Get(1).AsSymbol(); name == nil || name.IsMarker() {
			return nil, d.errorOn(list.Get(1), source.ParseError,
				"function name must be a symbol")
		}
		//
		paramsAt = 2
	} else if list.Len() < 2 {
		return nil, d.errorOn(list, source.ParseError, "malformed fn expression")
	}
	//
	paramList := list.Get(paramsAt).AsList()
	if paramList == nil {
		return nil, d.errorOn(list.Get(paramsAt), source.ParseError,
			"malformed parameter list")
	}
	//
	params, named, errors := d.parseParams(paramList)
	if len(errors) > 0 {
		return nil, errors
	}
	// Consume an optional return-type annotation.
	rest := list.Elements[paramsAt+1:]
	returnType, rest, errs := d.parseReturnType(rest)
	//
	if errs != nil {
		return nil, errs
	} else if len(rest) == 0 {
		return nil, d.errorOn(list, source.ParseError, "missing function body")
	}
	// Wrap the body in an implicit (do ...).
	body, errs := d.desugarBody(rest, true)
	if errs != nil {
		return nil, errs
	}
	// Construct the canonical form.
	paramSyms := make([]ast.Node, len(params))
	for i, p := range params {
		paramSyms[i] = ast.NewSymbol(p.Name)
		d.srcmap.Copy(paramList, paramSyms[i])
	}
	//
	nparams := ast.NewList(paramSyms)
	d.srcmap.Copy(paramList, nparams)
	//
	var canonical *ast.List
	//
	if anonymous {
		canonical = ast.ListOf(ast.NewSymbol("fn"), nparams, body)
	} else {
		canonical = ast.ListOf(ast.NewSymbol("defn"), name, nparams, body)
	}
	//
	d.srcmap.Copy(list, canonical)
	d.srcmap.Copy(list, canonical.Get(0))
	// Attach the metadata.
	d.info.Functions[canonical] = &FunctionMeta{
		Params:         params,
		ReturnType:     returnType,
		Named:          named,
		ExplicitReturn: tailHasReturn(body),
	}
	//
	return canonical, nil
}

// Parse an optional (-> T) or inline -> T return annotation from the forms
// following the parameter list.
func (d *desugarer) parseReturnType(rest []ast.Node) (string, []ast.Node, []source.SyntaxError) {
	if len(rest) == 0 {
		return "", rest, nil
	}
	// Parenthesised form.
	if annotation := rest[0].AsList(); annotation != nil && annotation.MatchSymbols(2, "->") {
		tag := annotation.Get(1).AsSymbol()
		//
		if tag == nil || annotation.Len() != 2 {
			return "", nil, d.errorOn(rest[0], source.ParseError,
				"malformed return-type annotation")
		}
		//
		return tag.Name, rest[1:], nil
	}
	// Inline form.
	if arrow := rest[0].AsSymbol(); arrow != nil && arrow.Name == "->" {
		if len(rest) < 2 || rest[1].AsSymbol() == nil {
			return "", nil, d.errorOn(rest[0], source.ParseError,
				"malformed return-type annotation")
		}
		//
		return rest[1].AsSymbol().Name, rest[2:], nil
	}
	//
	return "", rest, nil
}

// Parse a surface parameter list, left to right, into parameter records.
// The grammar admits, in any combination: plain names, typed names
// (x: T), trailing defaults (= expr), and grouped defaults ((x = expr) or
// (x: T = expr)).  Any name: marker makes the whole function named.
func (d *desugarer) parseParams(list *ast.List) ([]ParamInfo, bool, []source.SyntaxError) {
	var (
		params []ParamInfo
		named  bool
		seen   = make(map[string]int)
		errors []source.SyntaxError
	)
	//
	elements := list.Elements
	//
	for i := 0; i < len(elements); i++ {
		element := elements[i]
		//
		switch {
		case isEqualsSymbol(element):
			// A trailing default for the preceding parameter.
			if len(params) == 0 {
				return nil, false, d.errorOn(element, source.ParseError,
					"default value without a parameter")
			} else if i+1 == len(elements) {
				return nil, false, d.errorOn(element, source.ParseError,
					"missing default expression")
			}
			//
			last := &params[len(params)-1]
			if last.Default != nil {
				return nil, false, d.errorOn(element, source.ParseError,
					fmt.Sprintf("parameter \"%s\" already has a default", last.Name))
			}
			//
			dflt, errs := d.desugarExpr(elements[i+1], true)
			if len(errs) > 0 {
				return nil, false, errs
			}
			//
			last.Default = dflt
			i++
		case element.AsSymbol() != nil:
			sym := element.AsSymbol()
			record := ParamInfo{Name: sym.Name, Index: len(params)}
			// A marker introduces a typed, named parameter.
			if sym.IsMarker() {
				named = true
				record.Name = sym.MarkerName()
				// The type tag follows immediately.
				if i+1 == len(elements) || elements[i+1].AsSymbol() == nil ||
					elements[i+1].AsSymbol().IsMarker() || isEqualsSymbol(elements[i+1]) {
					return nil, false, d.errorOn(element, source.ParseError,
						fmt.Sprintf("missing type annotation for parameter \"%s\"", record.Name))
				}
				//
				record.Type = elements[i+1].AsSymbol().Name
				i++
			}
			//
			params = append(params, record)
		case element.AsList() != nil:
			record, errs := d.parseGroupedParam(element.AsList(), &named)
			if len(errs) > 0 {
				return nil, false, errs
			}
			//
			record.Index = len(params)
			params = append(params, record)
		default:
			return nil, false, d.errorOn(element, source.ParseError, "malformed parameter")
		}
	}
	// Reject duplicates.
	for i, p := range params {
		if prev, ok := seen[p.Name]; ok {
			errors = append(errors, *d.srcmap.SyntaxError(list, source.DuplicateParam,
				fmt.Sprintf("parameter \"%s\" declared twice (positions %d and %d)",
					p.Name, prev+1, i+1)))
		}
		//
		seen[p.Name] = i
	}
	// A default may reference earlier parameters, but not later ones (nor
	// itself).
	for i, p := range params {
		if p.Default == nil {
			continue
		}
		//
		for _, free := range freeSymbols(p.Default) {
			if at, ok := seen[free]; ok && at >= i {
				errors = append(errors, *d.srcmap.SyntaxError(list, source.InvalidDefault,
					fmt.Sprintf("default of \"%s\" references \"%s\" before it is bound",
						p.Name, free)))
			}
		}
	}
	//
	if len(errors) > 0 {
		return nil, false, errors
	}
	//
	return params, named, nil
}

// Parse a grouped parameter: (x = expr), (x: T) or (x: T = expr).
func (d *desugarer) parseGroupedParam(group *ast.List, named *bool) (ParamInfo, []source.SyntaxError) {
	var record ParamInfo
	//
	if group.Len() < 2 || group.Get(0).AsSymbol() == nil {
		return record, d.errorOn(group, source.ParseError, "malformed parameter")
	}
	//
	sym := group.Get(0).AsSymbol()
	rest := group.Elements[1:]
	record.Name = sym.Name
	//
	if sym.IsMarker() {
		*named = true
		record.Name = sym.MarkerName()
		//
		if len(rest) == 0 || rest[0].AsSymbol() == nil || rest[0].AsSymbol().IsMarker() {
			return record, d.errorOn(group, source.ParseError,
				fmt.Sprintf("missing type annotation for parameter \"%s\"", record.Name))
		}
		//
		record.Type = rest[0].AsSymbol().Name
		rest = rest[1:]
	}
	//
	if len(rest) > 0 {
		if len(rest) != 2 || !isEqualsSymbol(rest[0]) {
			return record, d.errorOn(group, source.ParseError, "malformed parameter default")
		}
		//
		dflt, errs := d.desugarExpr(rest[1], true)
		if len(errs) > 0 {
			return record, errs
		}
		//
		record.Default = dflt
	}
	//
	return record, nil
}

// Determine whether a body block syntactically ends in an explicit return.
// Conditionals count only when every branch does.
func tailHasReturn(form ast.Node) bool {
	list := form.AsList()
	//
	if list == nil || list.Len() == 0 {
		return false
	}
	//
	if head := list.Head(); head != nil {
		switch head.Name {
		case "return":
			return true
		case "do":
			if list.Len() == 1 {
				return false
			}
			//
			return tailHasReturn(list.Get(list.Len() - 1))
		case "if":
			return list.Len() == 4 &&
				tailHasReturn(list.Get(2)) && tailHasReturn(list.Get(3))
		case "let":
			return list.Len() == 3 && tailHasReturn(list.Get(2))
		}
	}
	//
	return false
}

// Collect the free symbol names of a term, skipping quoted data.  Member
// paths contribute their leading segment.
func freeSymbols(term ast.Node) []string {
	var names []string
	//
	collectFreeSymbols(term, &names)
	//
	return names
}

func collectFreeSymbols(term ast.Node, names *[]string) {
	switch n := term.(type) {
	case *ast.Symbol:
		if !n.IsMarker() {
			name, _, _ := strings.Cut(n.Name, ".")
			*names = append(*names, name)
		}
	case *ast.List:
		if n.MatchSymbols(1, "quote") || n.MatchSymbols(1, "quasiquote") {
			return
		}
		//
		for _, element := range n.Elements {
			collectFreeSymbols(element, names)
		}
	}
}

func isEqualsSymbol(term ast.Node) bool {
	sym := term.AsSymbol()
	return sym != nil && sym.Name == "="
}
