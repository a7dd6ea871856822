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
package ast

import "testing"

func TestAst_Equal_0(t *testing.T) {
	lhs := ListOf(NewSymbol("f"), NewNumber(1), NewString("x"))
	rhs := ListOf(NewSymbol("f"), NewNumber(1), NewString("x"))
	//
	if !Equal(lhs, rhs) {
		t.Errorf("%s and %s should be equal", lhs, rhs)
	}
}

func TestAst_Equal_1(t *testing.T) {
	lhs := ListOf(NewSymbol("f"), NewNumber(1))
	rhs := ListOf(NewSymbol("f"), NewNumber(2))
	//
	if Equal(lhs, rhs) {
		t.Errorf("%s and %s should differ", lhs, rhs)
	}
}

func TestAst_Equal_2(t *testing.T) {
	// A symbol and a string with the same spelling are different terms.
	if Equal(NewSymbol("x"), NewString("x")) {
		t.Errorf("symbol and string should differ")
	}
}

func TestAst_Equal_3(t *testing.T) {
	if !Equal(NewNil(), NewNil()) || Equal(NewNil(), NewBool(false)) {
		t.Errorf("nil equality broken")
	}
}

func TestAst_Copy(t *testing.T) {
	term := ListOf(NewSymbol("f"), ListOf(NewSymbol("g"), NewNumber(1)))
	copied := Copy(term)
	//
	if !Equal(term, copied) {
		t.Errorf("copy should be structurally equal")
	} else if term == copied {
		t.Errorf("copy should be a fresh node")
	}
}

func TestAst_Marker(t *testing.T) {
	if !NewSymbol("name:").IsMarker() {
		t.Errorf("name: should be a marker")
	} else if NewSymbol("name:").MarkerName() != "name" {
		t.Errorf("marker name should strip the colon")
	} else if NewSymbol(":").IsMarker() {
		t.Errorf("a bare colon is not a marker")
	} else if NewSymbol("name").IsMarker() {
		t.Errorf("name is not a marker")
	}
}

func TestAst_String(t *testing.T) {
	term := ListOf(NewSymbol("f"), NewNumber(1.5), NewString("a\"b"), NewBool(true), NewNil())
	expected := "(f 1.5 \"a\\\"b\" true nil)"
	//
	if term.String() != expected {
		t.Errorf("got %s, expected %s", term.String(), expected)
	}
}

func TestAst_MatchSymbols(t *testing.T) {
	term := ListOf(NewSymbol("defn"), NewSymbol("f"), EmptyList())
	//
	if !term.MatchSymbols(2, "defn") {
		t.Errorf("should match defn head")
	} else if term.MatchSymbols(2, "fx") {
		t.Errorf("should not match fx head")
	}
}
