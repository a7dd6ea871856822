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
	"strings"
	"testing"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/hql/reader"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// ============================================================================
// Built-in macros
// ============================================================================

func TestExpand_0(t *testing.T) {
	// Non-macro forms are untouched.
	CheckExpand(t, "(f x y)", "(f x y)")
}

func TestExpand_1(t *testing.T) {
	CheckExpand(t, "(cond (= x 1) a true b)", "(if (= x 1) a b)")
}

func TestExpand_2(t *testing.T) {
	CheckExpand(t, "(cond p a q b)", "(if p a (if q b nil))")
}

func TestExpand_3(t *testing.T) {
	CheckExpand(t, "(when p a b)", "(if p (do a b) nil)")
}

func TestExpand_4(t *testing.T) {
	CheckExpand(t, "(unless p a)", "(if p nil (do a))")
}

func TestExpand_5(t *testing.T) {
	CheckExpand(t, "(and)", "true")
}

func TestExpand_6(t *testing.T) {
	CheckExpand(t, "(and x)", "x")
}

func TestExpand_7(t *testing.T) {
	CheckExpand(t, "(and x y)", "(let ((and$1 x)) (if and$1 y and$1))")
}

func TestExpand_8(t *testing.T) {
	CheckExpand(t, "(or x y)", "(let ((or$1 x)) (if or$1 or$1 y))")
}

func TestExpand_9(t *testing.T) {
	// Temporaries stay fresh across nested expansions.
	CheckExpand(t, "(or x (or y z))",
		"(let ((or$1 x)) (if or$1 or$1 (let ((or$2 y)) (if or$2 or$2 z))))")
}

func TestExpand_10(t *testing.T) {
	// Expansion is suspended beneath a quote.
	CheckExpand(t, "'(when p a)", "(quote (when p a))")
}

func TestExpand_11(t *testing.T) {
	// Quasiquote expands only within unquote holes.
	CheckExpand(t, "`(when ~(and x) b)", "(quasiquote (when (unquote x) b))")
}

// ============================================================================
// User macros
// ============================================================================

func TestDefMacro_0(t *testing.T) {
	CheckExpandAll(t,
		"(defmacro twice (e) `(+ ~e ~e)) (twice x)",
		"(+ x x)")
}

func TestDefMacro_1(t *testing.T) {
	// A macro definition never survives expansion.
	CheckExpandAll(t, "(defmacro noop (e) e)", "")
}

func TestDefMacro_2(t *testing.T) {
	// Direct (non-quasiquoted) bodies substitute parameters directly.
	CheckExpandAll(t,
		"(defmacro my-if (c a b) (if c a b)) (my-if p 1 2)",
		"(if p 1 2)")
}

func TestDefMacro_3(t *testing.T) {
	// Splicing inserts a list argument's elements in place.
	CheckExpandAll(t,
		"(defmacro call-all (args) `(f ~@args)) (call-all (x y z))",
		"(f x y z)")
}

func TestDefMacro_4(t *testing.T) {
	// Macro results are themselves expanded.
	CheckExpandAll(t,
		"(defmacro w (e) `(when true ~e)) (w x)",
		"(if true (do x) nil)")
}

func TestDefMacro_5(t *testing.T) {
	// Gensym mints the same fresh name within one invocation, and a new one
	// on the next.
	expanded := expandString(t,
		"(defmacro dup (e) `(let ((gensym \"t\") ~e) (+ (gensym \"t\") (gensym \"t\")))) (dup 1) (dup 2)")
	//
	if len(expanded) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(expanded))
	}
	//
	first, second := expanded[0].String(), expanded[1].String()
	//
	if !strings.Contains(first, "t$1") || strings.Contains(first, "t$2") {
		t.Errorf("first invocation should use t$1 throughout: %s", first)
	}
	//
	if !strings.Contains(second, "t$2") {
		t.Errorf("second invocation should use a fresh temporary: %s", second)
	}
}

// ============================================================================
// Failure modes
// ============================================================================

func TestExpand_Invalid_0(t *testing.T) {
	// Forward reference to a macro defined later in the module.
	CheckExpandErr(t, source.UnknownMacro, "(twice x) (defmacro twice (e) `(+ ~e ~e))")
}

func TestExpand_Invalid_1(t *testing.T) {
	// Self-recursive macro exhausts the expansion budget.
	CheckExpandErr(t, source.MacroExpansionLimit, "(defmacro loop (e) `(loop ~e)) (loop x)")
}

func TestExpand_Invalid_2(t *testing.T) {
	// Wrong number of macro arguments.
	CheckExpandErr(t, source.MacroRuntimeError, "(defmacro twice (e) `(+ ~e ~e)) (twice x y)")
}

func TestExpand_Invalid_3(t *testing.T) {
	CheckExpandErr(t, source.MacroRuntimeError, "(cond a)")
}

func TestExpand_Invalid_4(t *testing.T) {
	// Macros may not shadow built-ins.
	CheckExpandErr(t, source.MacroRuntimeError, "(defmacro cond (e) e)")
}

func TestExpand_Invalid_5(t *testing.T) {
	// Nested defmacro is rejected.
	CheckExpandErr(t, source.MacroRuntimeError, "(f (defmacro g (e) e))")
}

func TestExpand_Invalid_6(t *testing.T) {
	// Splicing a non-list argument.
	CheckExpandErr(t, source.MacroRuntimeError,
		"(defmacro s (e) `(f ~@e)) (s x)")
}

// ============================================================================
// Idempotence
// ============================================================================

// Expansion is a fixed point: expanding an already-expanded tree changes
// nothing.
func TestExpand_Idempotent(t *testing.T) {
	inputs := []string{
		"(cond p a q b true c)",
		"(when p (or a b))",
		"(defn f (x) (and x (not x)))",
	}
	//
	for _, input := range inputs {
		once := expandString(t, input)
		//
		env := NewEnv()
		srcmaps := source.NewSourceMaps[ast.Node]()
		twice, errs := Expand(env, srcmaps, once, DEFAULT_EXPANSION_BUDGET)
		//
		if len(errs) > 0 {
			t.Fatalf("re-expansion of %s failed: %s", input, errs[0].Message())
		} else if len(twice) != len(once) {
			t.Fatalf("re-expansion of %s changed arity", input)
		}
		//
		for i := range once {
			if !ast.Equal(once[i], twice[i]) {
				t.Errorf("re-expansion of %s produced %s, expected %s", input,
					twice[i].String(), once[i].String())
			}
		}
	}
}

// Every surface form the desugarer assumes eliminated has a built-in.
func TestExpand_Builtins(t *testing.T) {
	for _, name := range []string{"cond", "when", "unless", "and", "or"} {
		if !hasBuiltin(name) {
			t.Errorf("missing built-in macro %s", name)
		}
	}
}

// ============================================================================
// Helpers
// ============================================================================

func expandString(t *testing.T, input string) []ast.Node {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	terms, srcmap, err := reader.ParseAll(srcfile)
	//
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	srcmaps := source.NewSourceMaps[ast.Node]()
	srcmaps.Join(srcmap)
	//
	expanded, errs := Expand(NewEnv(), srcmaps, terms, DEFAULT_EXPANSION_BUDGET)
	if len(errs) > 0 {
		t.Fatalf("expanding \"%s\" failed: %s", input, errs[0].Message())
	}
	//
	return expanded
}

func CheckExpand(t *testing.T, input string, expected string) {
	t.Helper()
	CheckExpandAll(t, input, expected)
}

func CheckExpandAll(t *testing.T, input string, expected string) {
	t.Helper()
	//
	expanded := expandString(t, input)
	//
	var parts []string
	for _, term := range expanded {
		parts = append(parts, term.String())
	}
	//
	actual := strings.Join(parts, " ")
	//
	if actual != expected {
		t.Errorf("expanding \"%s\" produced \"%s\", expected \"%s\"", input, actual, expected)
	}
}

func CheckExpandErr(t *testing.T, kind source.ErrorKind, input string) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	terms, srcmap, err := reader.ParseAll(srcfile)
	//
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	srcmaps := source.NewSourceMaps[ast.Node]()
	srcmaps.Join(srcmap)
	//
	_, errs := Expand(NewEnv(), srcmaps, terms, DEFAULT_EXPANSION_BUDGET)
	//
	if len(errs) == 0 {
		t.Fatalf("expanding \"%s\" should fail", input)
	} else if errs[0].Kind() != kind {
		t.Errorf("expanding \"%s\" failed with %s, expected %s", input,
			errs[0].Kind(), kind)
	}
}
