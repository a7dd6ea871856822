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
	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// ParseImportForm extracts the bindings and specifier of an import form:
//
//	(import name from "./peer.hql")
//	(import [a b] from "./peer.hql")
//	(import [a b] "https://example.org/mod.js")
//
// The optional from symbol is decorative.  A specifier ending in the source
// extension denotes a peer module compiled side-by-side; anything else is an
// external ECMAScript module, passed through verbatim.
func ParseImportForm(srcmap *source.Maps[ast.Node], list *ast.List) (ir.Import, []source.SyntaxError) {
	var imp ir.Import
	//
	args := list.Elements[1:]
	// Drop the decorative from.
	if len(args) == 3 {
		if sym := args[1].AsSymbol(); sym != nil && sym.Name == "from" {
			args = []ast.Node{args[0], args[2]}
		}
	}
	//
	if len(args) != 2 {
		return imp, srcmap.SyntaxErrors(list, source.ParseError, "malformed import")
	}
	// Bindings: a single name, or a bracketed group.
	switch names := args[0].(type) {
	case *ast.Symbol:
		imp.Names = []string{names.Name}
	case *ast.List:
		if !names.MatchSymbols(1, "vector") {
			return imp, srcmap.SyntaxErrors(args[0], source.ParseError, "malformed import bindings")
		}
		//
		for _, element := range names.Elements[1:] {
			sym := element.AsSymbol()
			//
			if sym == nil {
				return imp, srcmap.SyntaxErrors(element, source.ParseError,
					"import binding must be a symbol")
			}
			//
			imp.Names = append(imp.Names, sym.Name)
		}
	default:
		return imp, srcmap.SyntaxErrors(args[0], source.ParseError, "malformed import bindings")
	}
	// Specifier.
	spec, ok := args[1].(*ast.String)
	if !ok {
		return imp, srcmap.SyntaxErrors(args[1], source.ParseError,
			"import specifier must be a string")
	}
	//
	imp.Specifier = spec.Value
	imp.Peer = strings.HasSuffix(spec.Value, ".hql")
	//
	return imp, nil
}

// Parse an import form in this module.
func (l *lowerer) parseImport(list *ast.List) (ir.Import, []source.SyntaxError) {
	return ParseImportForm(l.srcmap, list)
}

// Parse an export form: (export name), (export n1 n2 ...) or (export [n1 n2]).
func (l *lowerer) parseExport(list *ast.List) ([]string, []source.SyntaxError) {
	var names []string
	//
	if list.Len() < 2 {
		return nil, l.errorOn(list, source.ParseError, "malformed export")
	}
	//
	elements := list.Elements[1:]
	// Unwrap a bracketed group.
	if group := elements[0].AsList(); len(elements) == 1 && group != nil {
		if !group.MatchSymbols(1, "vector") {
			return nil, l.errorOn(elements[0], source.ParseError, "malformed export")
		}
		//
		elements = group.Elements[1:]
	}
	//
	for _, element := range elements {
		sym := element.AsSymbol()
		//
		if sym == nil || sym.IsMarker() {
			return nil, l.errorOn(element, source.ParseError,
				"export name must be a symbol")
		}
		//
		if l.exportAt == nil {
			l.exportAt = make(map[string]ast.Node)
		}
		//
		l.exportAt[sym.Name] = sym
		names = append(names, sym.Name)
	}
	//
	return names, nil
}

// Check every exported name is bound at the top level of this module.  Runs
// after the first pass, once every top-level binding is in scope.
func (l *lowerer) validateExports() []source.SyntaxError {
	var errors []source.SyntaxError
	//
	for _, name := range l.module.Exports {
		if !l.scope.bound(name) {
			errors = append(errors, *l.srcmap.SyntaxError(l.exportAt[name],
				source.UnboundIdentifier,
				fmt.Sprintf("export of undefined name \"%s\"", name)))
		}
	}
	//
	return errors
}
