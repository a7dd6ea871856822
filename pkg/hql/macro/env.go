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
)

// Transformer is a macro implementation.  It receives the unevaluated
// argument terms of an invocation and produces the replacement term.  Macros
// are user (or built-in) code invoked at compile time; the compiler interacts
// with them solely through this interface.
type Transformer interface {
	// Transform rewrites a macro invocation with the given arguments into a
	// replacement term.
	Transform(args []ast.Node, env *Env) (ast.Node, error)
}

// TransformerFunc adapts an ordinary function into a Transformer.
type TransformerFunc func(args []ast.Node, env *Env) (ast.Node, error)

// Transform implementation for TransformerFunc.
func (f TransformerFunc) Transform(args []ast.Node, env *Env) (ast.Node, error) {
	return f(args, env)
}

// Env is a macro environment.  It consists of two disjoint scopes: the
// process-wide built-in scope (installed once at startup and shared,
// copy-on-write, by every compilation) and a per-compilation scope seeded by
// top-level defmacro forms.  The built-in layer is never mutated; user
// definitions only ever touch the per-compilation layer.
type Env struct {
	// Shared built-in scope.  Read-only.
	builtins map[string]Transformer
	// Per-compilation scope.
	user map[string]Transformer
	// Fresh identifier generator for this compilation.
	gensym *Gensym
}

// NewEnv constructs a fresh macro environment on top of the process-wide
// built-in scope.
func NewEnv() *Env {
	return &Env{
		builtins: builtins,
		user:     make(map[string]Transformer),
		gensym:   NewGensym(),
	}
}

// Lookup finds the transformer registered under a given name, checking the
// per-compilation scope before the built-in scope.
func (e *Env) Lookup(name string) (Transformer, bool) {
	if t, ok := e.user[name]; ok {
		return t, true
	}
	//
	t, ok := e.builtins[name]
	//
	return t, ok
}

// Define registers a user macro in the per-compilation scope.  Redefining a
// built-in, or a macro already defined in this compilation, is an error.
func (e *Env) Define(name string, transformer Transformer) error {
	if _, ok := e.builtins[name]; ok {
		return fmt.Errorf("macro \"%s\" shadows a built-in", name)
	} else if _, ok := e.user[name]; ok {
		return fmt.Errorf("macro \"%s\" is already defined", name)
	}
	//
	e.user[name] = transformer
	//
	return nil
}

// Gensym returns the fresh identifier generator associated with this
// environment.
func (e *Env) Gensym() *Gensym {
	return e.gensym
}

// builtins is the process-wide built-in scope.  It is populated by init
// functions in this package and never mutated thereafter.
var builtins = make(map[string]Transformer)

// Install a built-in macro.  Only called during package initialisation.
func installBuiltin(name string, transformer Transformer) {
	if _, ok := builtins[name]; ok {
		panic(fmt.Sprintf("duplicate built-in macro \"%s\"", name))
	}
	//
	builtins[name] = transformer
}
