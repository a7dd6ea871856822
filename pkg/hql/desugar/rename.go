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
	"sort"
	"strings"
	"unicode"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/util/source"
	"github.com/stoewer/go-strcase"
)

// Kernel heads are never emitted as identifiers, so they stay out of the
// rename table.
var kernelHeads = map[string]bool{
	"def": true, "defn": true, "fn": true, "if": true, "let": true,
	"do": true, "quote": true, "quasiquote": true, "unquote": true,
	"unquote-splicing": true, "return": true, "import": true, "export": true,
	"vector": true, "hash-map": true, "str": true, "from": true,
}

// Compute the module's rename table: every hyphenated identifier maps to its
// camelCase spelling.  The table is computed exactly once, here, and applied
// during generation; this keeps every later pass in agreement about
// identifier spelling and makes collisions detectable rather than silently
// aliasing two names.
func (d *desugarer) computeRenames(terms []ast.Node) []source.SyntaxError {
	var (
		names  = make(map[string]ast.Node)
		errors []source.SyntaxError
	)
	//
	for _, term := range terms {
		collectIdentifiers(term, names)
	}
	// Default expressions live in the metadata rather than the canonical
	// tree, but they are emitted all the same.
	for _, meta := range d.info.Functions {
		for _, p := range meta.Params {
			if p.Default != nil {
				collectIdentifiers(p.Default, names)
			}
		}
	}
	// Sort for deterministic reporting.
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	//
	sort.Strings(sorted)
	// Emitted spelling back to the source name which owns it.
	occupied := make(map[string]string)
	//
	for _, name := range sorted {
		target := name
		//
		if isHyphenated(name) {
			target = strcase.LowerCamelCase(name)
		}
		//
		if owner, ok := occupied[target]; ok && owner != name {
			errors = append(errors, *d.srcmap.SyntaxError(names[name], source.DuplicateParam,
				fmt.Sprintf("identifiers \"%s\" and \"%s\" collide after renaming (both emit \"%s\")",
					owner, name, target)))
			//
			continue
		}
		//
		occupied[target] = name
		//
		if target != name {
			d.info.Renames[name] = target
		}
	}
	//
	return errors
}

// Collect every identifier occurring in a term, keyed to one witnessing node
// for error reporting.  Quoted data and kernel heads are skipped; marker
// symbols contribute their parameter name; member paths contribute their
// segments.
func collectIdentifiers(term ast.Node, names map[string]ast.Node) {
	switch n := term.(type) {
	case *ast.Symbol:
		name := n.Name
		//
		if n.IsMarker() {
			name = n.MarkerName()
		}
		//
		for _, segment := range strings.Split(name, ".") {
			if isIdentifier(segment) {
				if _, ok := names[segment]; !ok {
					names[segment] = n
				}
			}
		}
	case *ast.List:
		if n.MatchSymbols(1, "quote") || n.MatchSymbols(1, "quasiquote") {
			return
		}
		//
		elements := n.Elements
		// Skip kernel heads.
		if head := n.Head(); head != nil && kernelHeads[head.Name] {
			elements = elements[1:]
		}
		//
		for _, element := range elements {
			collectIdentifiers(element, names)
		}
	}
}

// An identifier, for renaming purposes, starts with a letter or underscore.
// This keeps operator symbols (e.g. "-", "<=") out of the table.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	//
	first := []rune(name)[0]
	//
	return unicode.IsLetter(first) || first == '_'
}

func isHyphenated(name string) bool {
	return strings.Contains(name, "-")
}
