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
package reader

import (
	"testing"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// ============================================================================
// Positive Tests
// ============================================================================

func TestReader_0(t *testing.T) {
	CheckOk(t, nil, "")
}

func TestReader_1(t *testing.T) {
	CheckOk(t, ast.EmptyList(), "()")
}

func TestReader_2(t *testing.T) {
	CheckOk(t, ast.NewSymbol("symbol"), "symbol")
}

func TestReader_3(t *testing.T) {
	CheckOk(t, ast.NewNumber(12345), "12345")
}

func TestReader_4(t *testing.T) {
	CheckOk(t, ast.NewNumber(-1.5), "-1.5")
}

func TestReader_5(t *testing.T) {
	CheckOk(t, ast.NewNumber(250), "2.5e2")
}

func TestReader_6(t *testing.T) {
	// A sign on its own is a symbol, not a number.
	CheckOk(t, ast.NewSymbol("+"), "+")
}

func TestReader_7(t *testing.T) {
	// Guard against the permissive forms strconv accepts.
	CheckOk(t, ast.NewSymbol("inf"), "inf")
}

func TestReader_8(t *testing.T) {
	CheckOk(t, ast.NewBool(true), "true")
}

func TestReader_9(t *testing.T) {
	CheckOk(t, ast.NewBool(false), "false")
}

func TestReader_10(t *testing.T) {
	CheckOk(t, ast.NewNil(), "nil")
}

func TestReader_11(t *testing.T) {
	CheckOk(t, ast.NewString("hello"), "\"hello\"")
}

func TestReader_12(t *testing.T) {
	CheckOk(t, ast.NewString("a\nb\t\"c\""), "\"a\\nb\\t\\\"c\\\"\"")
}

func TestReader_13(t *testing.T) {
	e1 := ast.ListOf(ast.NewSymbol("+"), ast.NewNumber(1), ast.NewNumber(2))
	CheckOk(t, e1, "(+ 1 2)")
}

func TestReader_14(t *testing.T) {
	inner := ast.ListOf(ast.NewSymbol("g"), ast.NewSymbol("y"))
	e1 := ast.ListOf(ast.NewSymbol("f"), ast.NewSymbol("x"), inner)
	CheckOk(t, e1, "(f x (g y))")
}

func TestReader_15(t *testing.T) {
	// Vector literals desugar at read time.
	e1 := ast.ListOf(ast.NewSymbol("vector"), ast.NewNumber(1), ast.NewNumber(2))
	CheckOk(t, e1, "[1 2]")
}

func TestReader_16(t *testing.T) {
	// Map literals desugar at read time.
	e1 := ast.ListOf(ast.NewSymbol("hash-map"), ast.NewSymbol("a"), ast.NewNumber(1))
	CheckOk(t, e1, "{a 1}")
}

func TestReader_17(t *testing.T) {
	e1 := ast.ListOf(ast.NewSymbol("quote"), ast.NewSymbol("x"))
	CheckOk(t, e1, "'x")
}

func TestReader_18(t *testing.T) {
	e1 := ast.ListOf(ast.NewSymbol("quasiquote"),
		ast.ListOf(ast.NewSymbol("a"), ast.ListOf(ast.NewSymbol("unquote"), ast.NewSymbol("b"))))
	CheckOk(t, e1, "`(a ~b)")
}

func TestReader_19(t *testing.T) {
	e1 := ast.ListOf(ast.NewSymbol("unquote-splicing"), ast.NewSymbol("xs"))
	CheckOk(t, e1, "~@xs")
}

func TestReader_20(t *testing.T) {
	// A named-parameter marker is just a symbol with a trailing colon.
	e1 := ast.ListOf(ast.NewSymbol("f"), ast.NewSymbol("x:"), ast.NewNumber(1))
	CheckOk(t, e1, "(f x: 1)")
}

func TestReader_21(t *testing.T) {
	// A bare colon is an ordinary symbol.
	CheckOk(t, ast.NewSymbol(":"), ":")
}

func TestReader_22(t *testing.T) {
	e1 := ast.ListOf(ast.NewSymbol("f"), ast.NewSymbol("x"))
	CheckOk(t, e1, "; leading comment\n(f x) ; trailing comment")
}

func TestReader_23(t *testing.T) {
	// The default marker is passed through as two ordinary tokens.
	e1 := ast.ListOf(ast.NewSymbol("y"), ast.NewSymbol("="), ast.NewNumber(0))
	CheckOk(t, e1, "(y = 0)")
}

func TestReader_24(t *testing.T) {
	CheckOk(t, ast.NewSymbol("kebab-case-name"), "kebab-case-name")
}

// ============================================================================
// Negative Tests
// ============================================================================

func TestReader_Invalid_0(t *testing.T) {
	CheckErr(t, source.ParseError, "(")
}

func TestReader_Invalid_1(t *testing.T) {
	CheckErr(t, source.ParseError, ")")
}

func TestReader_Invalid_2(t *testing.T) {
	CheckErr(t, source.ParseError, "(f (g x)")
}

func TestReader_Invalid_3(t *testing.T) {
	CheckErr(t, source.ParseError, "[1 2")
}

func TestReader_Invalid_4(t *testing.T) {
	CheckErr(t, source.LexError, "\"abc")
}

func TestReader_Invalid_5(t *testing.T) {
	CheckErr(t, source.LexError, "\"a\\qb\"")
}

func TestReader_Invalid_6(t *testing.T) {
	CheckErr(t, source.ParseError, "'")
}

func TestReader_Invalid_7(t *testing.T) {
	// The unbalanced error points at the opening delimiter.
	srcfile := source.NewSourceFile("test.hql", []byte("  (f x"))
	_, _, err := ParseAll(srcfile)
	//
	if err == nil {
		t.Fatalf("expected parse error")
	} else if err.Span().Start() != 2 {
		t.Fatalf("error should point at the opening delimiter, got span %d..%d",
			err.Span().Start(), err.Span().End())
	}
}

// ============================================================================
// Round trip
// ============================================================================

// Unparsing any well-formed term and reading it back yields a structurally
// equal term.
func TestReader_RoundTrip(t *testing.T) {
	inputs := []string{
		"(defn add (x y) (+ x y))",
		"(fx add-n (x: Int y: Int = 0) (-> Int) (+ x y))",
		"[1 2 [3 4]]",
		"{name \"hql\" version 1}",
		"'(a b (c d))",
		"(let [x 1 y 2] (* x y))",
		"(str \"a\" 1 true nil)",
	}
	//
	for _, input := range inputs {
		srcfile := source.NewSourceFile("test.hql", []byte(input))
		//
		terms, _, err := ParseAll(srcfile)
		if err != nil {
			t.Fatalf("parsing %s: %s", input, err)
		}
		//
		for _, term := range terms {
			reread := parseOne(t, term.String())
			//
			if !ast.Equal(term, reread) {
				t.Errorf("round trip of %s produced %s", input, reread.String())
			}
		}
	}
}

// Spans always reference the file they were read from.
func TestReader_Spans(t *testing.T) {
	srcfile := source.NewSourceFile("test.hql", []byte("(f (g 1))"))
	//
	terms, srcmap, err := ParseAll(srcfile)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	//
	outer := terms[0].(*ast.List)
	span := srcmap.Get(outer)
	//
	if span.Start() != 0 || span.End() != 9 {
		t.Errorf("unexpected span %d..%d for outer list", span.Start(), span.End())
	}
	//
	inner := srcmap.Get(outer.Get(1))
	if inner.Start() != 3 || inner.End() != 8 {
		t.Errorf("unexpected span %d..%d for inner list", inner.Start(), inner.End())
	}
}

// ============================================================================
// Helpers
// ============================================================================

func CheckOk(t *testing.T, expected ast.Node, input string) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	terms, _, err := ParseAll(srcfile)
	//
	if err != nil {
		t.Fatalf("parsing \"%s\" failed: %s", input, err)
	}
	//
	if expected == nil {
		if len(terms) != 0 {
			t.Errorf("parsing \"%s\" should produce nothing", input)
		}
		//
		return
	}
	//
	if len(terms) != 1 {
		t.Fatalf("parsing \"%s\" produced %d terms", input, len(terms))
	} else if !ast.Equal(expected, terms[0]) {
		t.Errorf("parsing \"%s\" produced %s, expected %s", input,
			terms[0].String(), expected.String())
	}
}

func CheckErr(t *testing.T, kind source.ErrorKind, input string) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	_, _, err := ParseAll(srcfile)
	//
	if err == nil {
		t.Fatalf("parsing \"%s\" should fail", input)
	} else if err.Kind() != kind {
		t.Errorf("parsing \"%s\" failed with %s, expected %s", input, err.Kind(), kind)
	}
}

func parseOne(t *testing.T, input string) ast.Node {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.hql", []byte(input))
	terms, _, err := ParseAll(srcfile)
	//
	if err != nil || len(terms) != 1 {
		t.Fatalf("parsing \"%s\" failed", input)
	}
	//
	return terms[0]
}
