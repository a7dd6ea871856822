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
package hql

import (
	"context"

	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/hql/linker"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// SyntaxError defines the kind of errors that can be reported by this
// compiler.  Syntax errors are always associated with some line in one of the
// original source files.
type SyntaxError = source.SyntaxError

// CompilationConfig encapsulates various options which can affect
// compilation.
type CompilationConfig = linker.Config

// CompiledModule is one unit of output: a source path, a module name and the
// emitted ECMAScript text.
type CompiledModule = linker.CompiledModule

// CompileSourceFile compiles exactly one source file into ECMAScript module
// text, in isolation.  Peer imports are not followed; use Compile for a
// module graph.  This process can fail if the source file is mal-formed, or
// contains syntax errors or other forms of error (e.g. an unknown macro or a
// call-site convention mismatch).
func CompileSourceFile(config CompilationConfig, srcfile *source.File) (string, []SyntaxError) {
	_, text, errs := linker.CompileModule(config, srcfile, nil)
	//
	return text, errs
}

// CompileSourceFileModule is like CompileSourceFile, but additionally returns
// the resolved IR module.  This is really a helper for e.g. the testing
// environment and the debugging commands.
func CompileSourceFileModule(config CompilationConfig, srcfile *source.File) (*ir.Module, string, []SyntaxError) {
	return linker.CompileModule(config, srcfile, nil)
}

// Compile compiles the graph of modules reachable from a given entry module,
// returning one output per module in dependency order.  The returned error
// covers failures loading the entry module itself, and cancellation (which
// only takes effect at module boundaries); everything else surfaces as
// syntax errors against the relevant source file.
func Compile(ctx context.Context, config CompilationConfig, loader linker.Loader,
	entry string) ([]CompiledModule, []SyntaxError, error) {
	//
	return linker.Compile(ctx, config, loader, entry)
}
