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
	"path/filepath"
	"strings"
	"time"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/hql/codegen"
	"github.com/boraseoksoon/hql/pkg/hql/desugar"
	"github.com/boraseoksoon/hql/pkg/hql/ir"
	"github.com/boraseoksoon/hql/pkg/hql/lower"
	"github.com/boraseoksoon/hql/pkg/hql/macro"
	"github.com/boraseoksoon/hql/pkg/hql/reader"
	"github.com/boraseoksoon/hql/pkg/hql/resolve"
	"github.com/boraseoksoon/hql/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Config encapsulates the options which affect compilation.
type Config struct {
	// Per-form macro expansion budget.  Zero selects the default.
	ExpansionBudget uint
}

// Budget returns the effective expansion budget.
func (c Config) Budget() uint {
	if c.ExpansionBudget == 0 {
		return macro.DEFAULT_EXPANSION_BUDGET
	}
	//
	return c.ExpansionBudget
}

// CompileModule runs the pure per-module pipeline: read, expand, desugar,
// lower, resolve, generate.  The imported table carries function declarations
// visible through peer imports (nil when compiling in isolation).  For a
// given source text and imported table the result is deterministic: the
// macro environment and gensym counter are fresh per module.
func CompileModule(config Config, srcfile *source.File,
	imported map[string]*ir.FunctionDecl) (*ir.Module, string, []source.SyntaxError) {
	//
	start := time.Now()
	// Read
	terms, srcmap, err := reader.ParseAll(srcfile)
	if err != nil {
		return nil, "", []source.SyntaxError{*err}
	}
	//
	srcmaps := source.NewSourceMaps[ast.Node]()
	srcmaps.Join(srcmap)
	// Expand
	env := macro.NewEnv()
	expanded, errs := macro.Expand(env, srcmaps, terms, config.Budget())
	//
	if len(errs) > 0 {
		return nil, "", errs
	}
	// Desugar
	canonical, info, errs := desugar.Desugar(srcmaps, expanded)
	if len(errs) > 0 {
		return nil, "", errs
	}
	// Lower
	module, irmap, errs := lower.Lower(srcfile, srcmaps, moduleName(srcfile.Filename()),
		canonical, info)
	//
	if len(errs) > 0 {
		return nil, "", errs
	}
	// Resolve calling conventions
	if errs = resolve.Resolve(irmap, module, imported); len(errs) > 0 {
		return nil, "", errs
	}
	// Generate
	text := codegen.Generate(module)
	//
	log.Debugf("compiled %s in %s", srcfile.Filename(), time.Since(start))
	//
	return module, text, nil
}

// The module name is the stem of the file name.
func moduleName(filename string) string {
	base := filepath.Base(filename)
	//
	return strings.TrimSuffix(base, filepath.Ext(base))
}
