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
package linker

import (
	"context"
	"fmt"
	"strings"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/hql/lower"
	"github.com/boraseoksoon/hql/pkg/hql/reader"
	"github.com/boraseoksoon/hql/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// CompiledModule is one unit of linker output.
type CompiledModule struct {
	// Source path of the module.
	Path string
	// Module name (the stem of its file name).
	Name string
	// Emitted ECMAScript text.
	Text string
}

// Compile discovers the set of source modules reachable from an entry module
// via its import forms, orders them topologically, and compiles each through
// the per-module pipeline, publishing every module's export table to its
// importers.  Mutually recursive modules are rejected.  On any failure the
// per-module errors are aggregated and no output at all is produced.  The
// returned error covers failures loading the entry module itself, and
// cancellation: a compilation is cancellable at module boundaries only — an
// in-flight module always finishes or is discarded whole.
func Compile(ctx context.Context, config Config, loader Loader,
	entry string) ([]CompiledModule, []source.SyntaxError, error) {
	l := &linkerState{
		config: config,
		loader: loader,
		nodes:  make(map[string]*node),
	}
	// Load the entry module.
	root, err := l.load(entry)
	if err != nil {
		return nil, nil, err
	}
	// Discover and order the module graph.
	errors := l.visit(root)
	//
	if len(errors) > 0 {
		return nil, errors, nil
	}
	// Compile in dependency order.
	outputs := make([]CompiledModule, 0, len(l.order))
	compiled := make(map[string]*ir.Module)
	failed := make(map[string]bool)
	//
	for _, n := range l.order {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		// A module whose dependency failed is not worth the cascade of
		// spurious errors.
		skip := false
		//
		for _, e := range n.edges {
			skip = skip || (e.imp.Peer && failed[e.resolved])
		}
		//
		if skip {
			failed[n.path] = true
			continue
		}
		//
		log.Debugf("linking %s", n.path)
		//
		imported, errs := l.bindImports(n, compiled)
		//
		if len(errs) == 0 {
			var module *ir.Module
			var text string
			//
			module, text, errs = CompileModule(l.config, n.srcfile, imported)
			//
			if len(errs) == 0 {
				compiled[n.path] = module
				outputs = append(outputs, CompiledModule{n.path, module.Name, text})
			}
		}
		//
		if len(errs) > 0 {
			failed[n.path] = true
		}
		//
		errors = append(errors, errs...)
	}
	// No best-effort output: any failure anywhere discards the lot.
	if len(errors) > 0 {
		return nil, errors, nil
	}
	//
	return outputs, nil, nil
}

// Per-link state.
type linkerState struct {
	config Config
	loader Loader
	// Every module discovered so far, keyed by resolved path.
	nodes map[string]*node
	// Topological (dependencies-first) order, filled as the traversal
	// finishes each module.
	order []*node
	// Traversal stack, for reporting cycles.
	stack []*edge
}

// Traversal colouring.
const (
	white = uint(iota) // undiscovered
	grey               // on the traversal stack
	black              // finished
)

type node struct {
	path    string
	srcfile *source.File
	state   uint
	edges   []edge
	// Errors found while scanning this module's import forms.
	scanErrs []source.SyntaxError
}

type edge struct {
	from *node
	imp  ir.Import
	// Resolved path of the target (peer imports only).
	resolved string
	// Span of the import form, in the importing module.
	span source.Span
}

// Load a module and scan its import forms.
func (l *linkerState) load(path string) (*node, error) {
	if n, ok := l.nodes[path]; ok {
		return n, nil
	}
	//
	srcfile, err := l.loader.Load(path)
	if err != nil {
		return nil, err
	}
	//
	n := &node{path: path, srcfile: srcfile}
	l.nodes[path] = n
	l.scan(n)
	//
	return n, nil
}

// Scan a module's top-level forms for imports.  Parse failures are recorded
// here and surface once, when the graph is reported.
func (l *linkerState) scan(n *node) {
	terms, srcmap, err := reader.ParseAll(n.srcfile)
	//
	if err != nil {
		n.scanErrs = []source.SyntaxError{*err}
		return
	}
	//
	srcmaps := source.NewSourceMaps[ast.Node]()
	srcmaps.Join(srcmap)
	//
	for _, term := range terms {
		list := term.AsList()
		//
		if list == nil || !list.MatchSymbols(1, "import") {
			continue
		}
		//
		imp, errs := lower.ParseImportForm(srcmaps, list)
		//
		if len(errs) > 0 {
			n.scanErrs = append(n.scanErrs, errs...)
			continue
		}
		//
		e := edge{from: n, imp: imp, span: srcmap.Get(term)}
		//
		if imp.Peer {
			e.resolved = l.loader.Resolve(n.path, imp.Specifier)
		}
		//
		n.edges = append(n.edges, e)
	}
}

// Depth-first traversal, producing the dependencies-first order and
// rejecting cycles.
func (l *linkerState) visit(n *node) []source.SyntaxError {
	errors := n.scanErrs
	n.state = grey
	//
	for i := range n.edges {
		e := &n.edges[i]
		// External modules are opaque identities; only peers join the graph.
		if !e.imp.Peer {
			continue
		}
		//
		target, err := l.load(e.resolved)
		//
		if err != nil {
			errors = append(errors, *n.srcfile.SyntaxError(e.span, source.MissingModule,
				fmt.Sprintf("cannot load module \"%s\"", e.imp.Specifier)))
			//
			continue
		}
		//
		switch target.state {
		case grey:
			errors = append(errors, l.reportCycle(e, target)...)
		case white:
			l.stack = append(l.stack, e)
			errors = append(errors, l.visit(target)...)
			l.stack = l.stack[:len(l.stack)-1]
		}
	}
	//
	n.state = black
	l.order = append(l.order, n)
	//
	return errors
}

// Report a cycle: one error per edge of the cycle, each against the span of
// the import form in the module it occurs in.
func (l *linkerState) reportCycle(back *edge, head *node) []source.SyntaxError {
	var (
		cycle  []*edge
		names  []string
		within = false
	)
	// The cycle consists of the stack edges from the ancestor down, plus the
	// back edge which closed it.
	for i := range l.stack {
		if l.stack[i].from == head {
			within = true
		}
		//
		if within {
			cycle = append(cycle, l.stack[i])
		}
	}
	//
	cycle = append(cycle, back)
	//
	for _, e := range cycle {
		names = append(names, moduleName(e.from.path))
	}
	//
	description := strings.Join(names, " -> ")
	errors := make([]source.SyntaxError, len(cycle))
	//
	for i, e := range cycle {
		errors[i] = *e.from.srcfile.SyntaxError(e.span, source.CyclicImport,
			fmt.Sprintf("cyclic import (%s -> %s)", description, moduleName(head.path)))
	}
	//
	return errors
}

// Bind one module's peer imports against the export tables of its (already
// compiled) dependencies, producing the function table the resolver needs.
func (l *linkerState) bindImports(n *node,
	compiled map[string]*ir.Module) (map[string]*ir.FunctionDecl, []source.SyntaxError) {
	//
	var (
		errors   []source.SyntaxError
		imported = make(map[string]*ir.FunctionDecl)
	)
	//
	for _, e := range n.edges {
		if !e.imp.Peer {
			continue
		}
		//
		exporter, ok := compiled[e.resolved]
		if !ok {
			// The exporter failed to compile; its own errors are already
			// reported.
			continue
		}
		//
		exports := make(map[string]bool, len(exporter.Exports))
		for _, name := range exporter.Exports {
			exports[name] = true
		}
		//
		for _, name := range e.imp.Names {
			if !exports[name] {
				errors = append(errors, *n.srcfile.SyntaxError(e.span, source.MissingExport,
					fmt.Sprintf("module \"%s\" does not export \"%s\"", exporter.Name, name)))
				//
				continue
			}
			// Exported functions feed calling-convention resolution; other
			// exported bindings are opaque values.
			for _, decl := range exporter.Decls {
				if fn, ok := decl.(*ir.FunctionDecl); ok && fn.Name == name {
					imported[name] = fn
				}
			}
		}
	}
	//
	return imported, errors
}
