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
	"strings"
	"testing"

	"github.com/boraseoksoon/hql/pkg/util/source"
)

// ============================================================================
// Graph compilation
// ============================================================================

func TestLink_0(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [add] from \"./math.hql\")\n(add 1 2)",
		"math.hql": "(defn add (x y) (+ x y))\n(export [add])",
	}
	//
	outputs := CheckLinkOk(t, loader, "main.hql")
	//
	if len(outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outputs))
	}
	// Dependencies come first.
	if outputs[0].Name != "math" || outputs[1].Name != "main" {
		t.Errorf("unexpected order: %s, %s", outputs[0].Name, outputs[1].Name)
	}
	//
	if !strings.Contains(outputs[1].Text, "import { add } from \"./math.mjs\";") {
		t.Errorf("import binding wrong:\n%s", outputs[1].Text)
	}
	//
	if !strings.Contains(outputs[0].Text, "export { add };") {
		t.Errorf("export table wrong:\n%s", outputs[0].Text)
	}
}

// Calling-convention resolution crosses module boundaries: a positional call
// to an imported keyed function still zips into the record shape.
func TestLink_1(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [scale] from \"./math.hql\")\n(scale 5)",
		"math.hql": "(fx scale (x: Int k: Int = 2) (* x k))\n(export [scale])",
	}
	//
	outputs := CheckLinkOk(t, loader, "main.hql")
	//
	if !strings.Contains(outputs[1].Text, "scale({ x: 5 });") {
		t.Errorf("imported keyed callee not resolved:\n%s", outputs[1].Text)
	}
}

// A diamond graph compiles each module exactly once, dependencies first.
func TestLink_2(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [f] from \"./a.hql\")\n(import [g] from \"./b.hql\")\n(f (g 1))",
		"a.hql":    "(import [base] from \"./base.hql\")\n(defn f (x) (base x))\n(export [f])",
		"b.hql":    "(import [base] from \"./base.hql\")\n(defn g (x) (base x))\n(export [g])",
		"base.hql": "(defn base (x) x)\n(export [base])",
	}
	//
	outputs := CheckLinkOk(t, loader, "main.hql")
	//
	if len(outputs) != 4 {
		t.Fatalf("expected 4 outputs, got %d", len(outputs))
	}
	//
	order := make([]string, len(outputs))
	for i, m := range outputs {
		order[i] = m.Name
	}
	//
	if strings.Join(order, " ") != "base a b main" {
		t.Errorf("unexpected order: %v", order)
	}
}

// External module specifiers are opaque: they pass through unchanged and
// never join the graph.
func TestLink_3(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [serve] from \"https://deno.land/std/http/mod.js\")\n(serve 8080)",
	}
	//
	outputs := CheckLinkOk(t, loader, "main.hql")
	//
	if len(outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outputs))
	}
	//
	if !strings.Contains(outputs[0].Text, "import { serve } from \"https://deno.land/std/http/mod.js\";") {
		t.Errorf("external import not preserved:\n%s", outputs[0].Text)
	}
}

// ============================================================================
// Failure modes
// ============================================================================

// Mutually recursive modules are rejected, with one error in each module.
func TestLink_Cycle(t *testing.T) {
	loader := MapLoader{
		"a.hql": "(import [g] from \"./b.hql\")\n(defn f (x) (g x))\n(export [f])",
		"b.hql": "(import [f] from \"./a.hql\")\n(defn g (x) (f x))\n(export [g])",
	}
	//
	outputs, errs, err := Compile(context.Background(), Config{}, loader, "a.hql")
	//
	if err != nil {
		t.Fatalf("unexpected i/o error: %s", err)
	} else if outputs != nil {
		t.Fatalf("no output may be produced for a cyclic graph")
	} else if len(errs) < 2 {
		t.Fatalf("expected an error per cycle edge, got %d", len(errs))
	}
	//
	files := make(map[string]bool)
	//
	for _, e := range errs {
		if e.Kind() != source.CyclicImport {
			t.Errorf("expected cyclic import, got %s", e.Kind())
		}
		//
		files[e.SourceFile().Filename()] = true
	}
	//
	if !files["a.hql"] || !files["b.hql"] {
		t.Errorf("cycle errors should span both modules, got %v", files)
	}
}

func TestLink_MissingModule(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [f] from \"./nope.hql\")\n(f 1)",
	}
	//
	CheckLinkErr(t, source.MissingModule, loader, "main.hql")
}

func TestLink_MissingExport(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [mul] from \"./math.hql\")\n(mul 1 2)",
		"math.hql": "(defn mul (x y) (* x y))",
	}
	//
	CheckLinkErr(t, source.MissingExport, loader, "main.hql")
}

// A failure in one module discards the whole graph's output.
func TestLink_NoPartialOutput(t *testing.T) {
	loader := MapLoader{
		"main.hql": "(import [f] from \"./bad.hql\")\n(f 1)",
		"bad.hql":  "(defn f (x) (+ x zz))\n(export [f])",
	}
	//
	outputs, errs, err := Compile(context.Background(), Config{}, loader, "main.hql")
	//
	if err != nil {
		t.Fatalf("unexpected i/o error: %s", err)
	} else if outputs != nil {
		t.Fatalf("no partial output may be produced")
	} else if len(errs) == 0 || errs[0].Kind() != source.UnboundIdentifier {
		t.Fatalf("expected the underlying module error")
	}
}

func TestLink_MissingEntry(t *testing.T) {
	_, _, err := Compile(context.Background(), Config{}, MapLoader{}, "main.hql")
	//
	if err == nil {
		t.Fatalf("missing entry module should fail")
	}
}

// ============================================================================
// Helpers
// ============================================================================

func CheckLinkOk(t *testing.T, loader MapLoader, entry string) []CompiledModule {
	t.Helper()
	//
	outputs, errs, err := Compile(context.Background(), Config{}, loader, entry)
	//
	if err != nil {
		t.Fatalf("linking failed: %s", err)
	} else if len(errs) > 0 {
		t.Fatalf("linking failed: %s", errs[0].Error())
	}
	//
	return outputs
}

func CheckLinkErr(t *testing.T, kind source.ErrorKind, loader MapLoader, entry string) {
	t.Helper()
	//
	_, errs, err := Compile(context.Background(), Config{}, loader, entry)
	//
	if err != nil {
		t.Fatalf("unexpected i/o error: %s", err)
	} else if len(errs) == 0 {
		t.Fatalf("linking should fail")
	} else if errs[0].Kind() != kind {
		t.Errorf("failed with %s, expected %s", errs[0].Kind(), kind)
	}
}
