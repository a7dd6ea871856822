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
	"fmt"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
)

// Template is the transformer behind a user defmacro.  The macro body is a
// term with holes; invoking the macro fills the holes with the (unevaluated)
// argument terms.  Within a quasiquoted body the usual rules apply: bare
// symbols are data, (unquote p) inserts the argument bound to p, and
// (unquote-splicing p) splices a list argument into the enclosing list.
// Outside a quasiquote, parameter symbols substitute directly.
//
// Hygiene: a (gensym "prefix") form anywhere in the body is replaced by a
// fresh identifier on every invocation.  Within a single invocation all
// occurrences with the same prefix denote the same identifier, so a macro can
// bind and reference its own temporaries without capturing user names.
type template struct {
	name   string
	params []string
	body   ast.Node
}

var _ Transformer = (*template)(nil)

// Construct a template from a (defmacro name (params...) body) form.
func newTemplate(list *ast.List) (*template, error) {
	if list.Len() != 4 {
		return nil, errors.New("malformed defmacro")
	}
	//
	name := list.Get(1).AsSymbol()
	paramList := list.Get(2).AsList()
	//
	if name == nil || paramList == nil {
		return nil, errors.New("malformed defmacro")
	}
	//
	var (
		params []string
		seen   = make(map[string]bool)
	)
	//
	for _, p := range paramList.Elements {
		sym := p.AsSymbol()
		//
		if sym == nil {
			return nil, errors.New("macro parameters must be symbols")
		} else if seen[sym.Name] {
			return nil, fmt.Errorf("duplicate macro parameter \"%s\"", sym.Name)
		}
		//
		seen[sym.Name] = true
		params = append(params, sym.Name)
	}
	//
	return &template{name.Name, params, list.Get(3)}, nil
}

// Transform implementation for Transformer.
func (t *template) Transform(args []ast.Node, env *Env) (ast.Node, error) {
	if len(args) != len(t.params) {
		return nil, fmt.Errorf("macro \"%s\" expects %d argument(s), got %d",
			t.name, len(t.params), len(args))
	}
	//
	binding := make(map[string]ast.Node, len(args))
	for i, p := range t.params {
		binding[p] = args[i]
	}
	//
	fill := &filler{binding, env.Gensym(), make(map[string]string)}
	// A quasiquoted body unwraps to its filled contents; anything else is an
	// implicit template.
	if body := t.body.AsList(); body != nil && body.MatchSymbols(2, "quasiquote") {
		return fill.quasi(body.Get(1))
	}
	//
	return fill.direct(t.body)
}

// Filler performs one invocation's worth of hole-filling.
type filler struct {
	binding map[string]ast.Node
	gensym  *Gensym
	// Fresh names minted during this invocation, keyed by prefix.
	minted map[string]string
}

// Fill a template term outside any quasiquote: parameter symbols substitute
// directly.
func (f *filler) direct(term ast.Node) (ast.Node, error) {
	switch n := term.(type) {
	case *ast.Symbol:
		if arg, ok := f.binding[n.Name]; ok {
			return ast.Copy(arg), nil
		}
		//
		return ast.NewSymbol(n.Name), nil
	case *ast.List:
		if fresh, ok, err := f.fillGensym(n); ok {
			return fresh, err
		}
		//
		elements := make([]ast.Node, len(n.Elements))
		//
		for i, element := range n.Elements {
			filled, err := f.direct(element)
			if err != nil {
				return nil, err
			}
			//
			elements[i] = filled
		}
		//
		return ast.NewList(elements), nil
	}
	//
	return ast.Copy(term), nil
}

// Fill a quasiquoted template term: bare symbols are data; unquote and
// unquote-splicing are the holes.
func (f *filler) quasi(term ast.Node) (ast.Node, error) {
	list := term.AsList()
	//
	if list == nil {
		return ast.Copy(term), nil
	}
	//
	if fresh, ok, err := f.fillGensym(list); ok {
		return fresh, err
	}
	//
	if list.MatchSymbols(2, "unquote") {
		return f.hole(list.Get(1))
	} else if list.Head() != nil && list.Head().Name == "unquote-splicing" {
		return nil, errors.New("unquote-splicing outside list position")
	}
	//
	var elements []ast.Node
	//
	for _, element := range list.Elements {
		// Splices expand in list position.
		if inner := element.AsList(); inner != nil && inner.MatchSymbols(2, "unquote-splicing") {
			filled, err := f.hole(inner.Get(1))
			if err != nil {
				return nil, err
			}
			//
			spliced := filled.AsList()
			if spliced == nil {
				return nil, errors.New("unquote-splicing requires a list argument")
			}
			//
			elements = append(elements, spliced.Elements...)
			//
			continue
		}
		//
		filled, err := f.quasi(element)
		if err != nil {
			return nil, err
		}
		//
		elements = append(elements, filled)
	}
	//
	return ast.NewList(elements), nil
}

// Fill an unquote hole.  Since macro templates are not evaluated, a hole may
// only reference a parameter or mint a fresh identifier.
func (f *filler) hole(term ast.Node) (ast.Node, error) {
	if sym := term.AsSymbol(); sym != nil {
		if arg, ok := f.binding[sym.Name]; ok {
			return ast.Copy(arg), nil
		}
		//
		return nil, fmt.Errorf("unquote of unbound name \"%s\"", sym.Name)
	}
	//
	if list := term.AsList(); list != nil {
		if fresh, ok, err := f.fillGensym(list); ok {
			return fresh, err
		}
	}
	//
	return nil, errors.New("unquote requires a macro parameter or gensym form")
}

// Recognise and fill a (gensym "prefix") form.
func (f *filler) fillGensym(list *ast.List) (ast.Node, bool, error) {
	if !list.MatchSymbols(1, "gensym") {
		return nil, false, nil
	}
	//
	prefix := "g"
	//
	switch list.Len() {
	case 1:
		// default prefix
	case 2:
		str, ok := list.Get(1).(*ast.String)
		if !ok {
			return nil, true, errors.New("gensym prefix must be a string literal")
		}
		//
		prefix = str.Value
	default:
		return nil, true, errors.New("malformed gensym form")
	}
	// Within one invocation, the same prefix denotes the same identifier.
	if name, ok := f.minted[prefix]; ok {
		return ast.NewSymbol(name), true, nil
	}
	//
	name := f.gensym.Fresh(prefix)
	f.minted[prefix] = name
	//
	return ast.NewSymbol(name), true, nil
}
