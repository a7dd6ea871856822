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
	"strings"
	"testing"

	"github.com/boraseoksoon/hql/pkg/util/source"
)

// ============================================================================
// End-to-end scenarios
// ============================================================================

// A plain defn is a positional function whose body returns its last value.
func TestCompile_PositionalFunction(t *testing.T) {
	text := compile(t, "(defn add (x y) (+ x y))\n(add 2 3)")
	expected := "const add = (x, y) => x + y;\n\nadd(2, 3);\n"
	//
	if text != expected {
		t.Errorf("got:\n%s\nexpected:\n%s", text, expected)
	}
}

// A marker parameter makes the callee keyed: it receives one record, reads
// absent defaults by property presence, and positional call sites zip into
// the same record shape.
func TestCompile_KeyedFunction(t *testing.T) {
	text := compile(t, "(fx addN (x: Int y: Int = 0) (-> Int) (+ x y))\n(addN x: 5)\n(addN 5 7)")
	expected := "function addN($opts) {\n" +
		"  const x = $opts.x;\n" +
		"  const y = \"y\" in $opts ? $opts.y : 0;\n" +
		"  return x + y;\n" +
		"}\n" +
		"\n" +
		"addN({ x: 5 });\n" +
		"\n" +
		"addN({ x: 5, y: 7 });\n"
	//
	if text != expected {
		t.Errorf("got:\n%s\nexpected:\n%s", text, expected)
	}
}

// An explicit return is emitted verbatim; an implicit one emits no return
// keyword at all.
func TestCompile_ExplicitReturn(t *testing.T) {
	text := compile(t, "(defn g (x y) (return (+ x y)))\n(g 1 2)")
	//
	if !strings.Contains(text, "return x + y;") {
		t.Errorf("explicit return missing:\n%s", text)
	}
	//
	text = compile(t, "(defn g2 (x y) (+ x y))\n(g2 1 2)")
	//
	if strings.Contains(text, "return") {
		t.Errorf("no return keyword should appear:\n%s", text)
	}
}

// Keyed call sites pass a single object with properties in declared order.
func TestCompile_KeyedCallSite(t *testing.T) {
	text := compile(t, "(fx area (width: Int height: Int) (* width height))\n(area width: 5 height: 10)")
	//
	if !strings.Contains(text, "area({ width: 5, height: 10 });") {
		t.Errorf("keyed call shape wrong:\n%s", text)
	}
}

// The cond form expands into an if chain; a defaulted String parameter
// selects the branch.
func TestCompile_CondChain(t *testing.T) {
	text := compile(t,
		"(fx calc (a: Number b: Number op: String = \"add\") "+
			"(cond (= op \"add\") (+ a b) (= op \"mul\") (* a b) true 0))")
	//
	for _, fragment := range []string{
		"const op = \"op\" in $opts ? $opts.op : \"add\";",
		"if (op === \"add\") {",
		"    return a + b;",
		"} else if (op === \"mul\") {",
		"    return a * b;",
		"} else {",
		"    return 0;",
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("missing %q in:\n%s", fragment, text)
		}
	}
}

// ============================================================================
// Convention symmetry
// ============================================================================

// Calling a keyed callee positionally or fully keyed produces byte-identical
// output.
func TestCompile_ConventionSymmetry(t *testing.T) {
	decl := "(fx k (p1: Int p2: Int) (+ p1 p2))\n"
	//
	positional := compile(t, decl+"(k 1 2)")
	keyed := compile(t, decl+"(k p1: 1 p2: 2)")
	//
	if positional != keyed {
		t.Errorf("positional:\n%s\nkeyed:\n%s", positional, keyed)
	}
}

// ============================================================================
// Renaming
// ============================================================================

func TestCompile_Renaming(t *testing.T) {
	text := compile(t, "(defn calculate-area (square-width) (* square-width square-width))\n(calculate-area 5)")
	//
	if !strings.Contains(text, "const calculateArea = (squareWidth) => squareWidth * squareWidth;") {
		t.Errorf("definition not renamed:\n%s", text)
	} else if !strings.Contains(text, "calculateArea(5);") {
		t.Errorf("call site not renamed:\n%s", text)
	} else if strings.Contains(text, "calculate-area") {
		t.Errorf("hyphenated identifier leaked:\n%s", text)
	}
}

// Record keys of a keyed call rename together with the parameter they name.
func TestCompile_RenamedRecordKeys(t *testing.T) {
	text := compile(t, "(fx area (max-width: Int) max-width)\n(area max-width: 7)")
	//
	if !strings.Contains(text, "const maxWidth = $opts.maxWidth;") {
		t.Errorf("prologue not renamed:\n%s", text)
	} else if !strings.Contains(text, "area({ maxWidth: 7 });") {
		t.Errorf("record key not renamed:\n%s", text)
	}
}

// Map literal keys are data, not identifiers, so they never rename.
func TestCompile_MapKeysUntouched(t *testing.T) {
	text := compile(t, "(def config {content-type \"text\"})")
	//
	if !strings.Contains(text, "\"content-type\": \"text\"") {
		t.Errorf("map key should be quoted verbatim:\n%s", text)
	}
}

// ============================================================================
// Void suppression
// ============================================================================

// A Void function emits no trailing return, even though an implicit value
// exists.
func TestCompile_VoidSuppression(t *testing.T) {
	text := compile(t, "(defn log-it (x) -> Void (console.log x))")
	//
	if strings.Contains(text, "return") {
		t.Errorf("Void should suppress the implicit return:\n%s", text)
	} else if !strings.Contains(text, "console.log(x);") {
		t.Errorf("body missing:\n%s", text)
	}
}

// ============================================================================
// String concatenation
// ============================================================================

func TestCompile_StrTemplate(t *testing.T) {
	text := compile(t, "(defn greet (name) (str \"hi \" name))")
	//
	if !strings.Contains(text, "`hi ${name}`") {
		t.Errorf("template literal expected:\n%s", text)
	}
}

func TestCompile_StrCoercion(t *testing.T) {
	text := compile(t, "(defn f (x) (str (+ x 1) \"!\"))")
	//
	if !strings.Contains(text, "String(x + 1) + String(\"!\")") {
		t.Errorf("explicit coercion expected:\n%s", text)
	}
}

// ============================================================================
// Determinism
// ============================================================================

// Identical input produces byte-identical output.
func TestCompile_Deterministic(t *testing.T) {
	input := "(defmacro inc (e) `(+ ~e 1))\n" +
		"(fx f (a: Int b: Int = 2) (or (inc a) b))\n" +
		"(f a: 1)"
	//
	first := compile(t, input)
	second := compile(t, input)
	//
	if first != second {
		t.Errorf("output not deterministic")
	}
}

// ============================================================================
// Failure modes
// ============================================================================

func TestCompile_Invalid_0(t *testing.T) {
	// Mixing keyed and positional arguments at one site.
	CheckCompileErr(t, source.ConventionMismatch,
		"(fx f (x: Int y: Int) (+ x y))\n(f x: 1 2)")
}

func TestCompile_Invalid_1(t *testing.T) {
	// A keyed call targeting a positional function.
	CheckCompileErr(t, source.ConventionMismatch,
		"(defn f (x y) x)\n(f x: 1 y: 2)")
}

func TestCompile_Invalid_2(t *testing.T) {
	// Too few positional arguments, and no default to cover the gap.
	CheckCompileErr(t, source.ArityError, "(defn f (x y) x)\n(f 1)")
}

func TestCompile_Invalid_3(t *testing.T) {
	// A keyed call supplying an undeclared key.
	CheckCompileErr(t, source.ConventionMismatch, "(fx f (x: Int) x)\n(f y: 1)")
}

func TestCompile_Invalid_4(t *testing.T) {
	// A keyed call missing a required key.
	CheckCompileErr(t, source.ArityError, "(fx f (x: Int y: Int) x)\n(f x: 1)")
}

func TestCompile_Invalid_5(t *testing.T) {
	CheckCompileErr(t, source.UnboundIdentifier, "(defn f (x) (+ x zz))")
}

func TestCompile_Invalid_6(t *testing.T) {
	// A keyed call to something which is not a function declaration.
	CheckCompileErr(t, source.UnboundIdentifier, "(def f 1)\n(f x: 1)")
}

func TestCompile_Invalid_7(t *testing.T) {
	// Too many positional arguments.
	CheckCompileErr(t, source.ArityError, "(defn f (x) x)\n(f 1 2)")
}

// A missing tail argument with a default is not an error.
func TestCompile_DefaultTail(t *testing.T) {
	text := compile(t, "(defn f (x y = 2) (+ x y))\n(f 1)")
	//
	if !strings.Contains(text, "const f = (x, y = 2) => x + y;") {
		t.Errorf("default-parameter syntax expected:\n%s", text)
	} else if !strings.Contains(text, "f(1);") {
		t.Errorf("call should stay positional:\n%s", text)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func compile(t *testing.T, input string) string {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	text, errs := CompileSourceFile(CompilationConfig{}, srcfile)
	//
	if len(errs) > 0 {
		t.Fatalf("compiling %q failed: %s", input, errs[0].Error())
	}
	//
	return text
}

func CheckCompileErr(t *testing.T, kind source.ErrorKind, input string) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	_, errs := CompileSourceFile(CompilationConfig{}, srcfile)
	//
	if len(errs) == 0 {
		t.Fatalf("compiling %q should fail", input)
	} else if errs[0].Kind() != kind {
		t.Errorf("compiling %q failed with %s, expected %s", input, errs[0].Kind(), kind)
	}
}
