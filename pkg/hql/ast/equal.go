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

// Equal determines whether two terms are structurally equal.  Node identity
// and source spans are irrelevant here; two independently constructed terms
// with the same shape are equal.
func Equal(lhs Node, rhs Node) bool {
	switch l := lhs.(type) {
	case *Number:
		r, ok := rhs.(*Number)
		return ok && l.Value == r.Value
	case *String:
		r, ok := rhs.(*String)
		return ok && l.Value == r.Value
	case *Bool:
		r, ok := rhs.(*Bool)
		return ok && l.Value == r.Value
	case *Nil:
		_, ok := rhs.(*Nil)
		return ok
	case *Symbol:
		r, ok := rhs.(*Symbol)
		return ok && l.Name == r.Name
	case *List:
		r, ok := rhs.(*List)
		//
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		//
		for i := range l.Elements {
			if !Equal(l.Elements[i], r.Elements[i]) {
				return false
			}
		}
		//
		return true
	}
	// Unreachable for well-formed trees.
	panic("unknown ast node")
}

// Copy constructs a structurally equal copy of a given term, where every node
// in the result is fresh.  This matters for source maps, which are keyed by
// node identity.
func Copy(node Node) Node {
	switch n := node.(type) {
	case *Number:
		return NewNumber(n.Value)
	case *String:
		return NewString(n.Value)
	case *Bool:
		return NewBool(n.Value)
	case *Nil:
		return NewNil()
	case *Symbol:
		return NewSymbol(n.Name)
	case *List:
		elements := make([]Node, len(n.Elements))
		for i, e := range n.Elements {
			elements[i] = Copy(e)
		}
		//
		return NewList(elements)
	}
	//
	panic("unknown ast node")
}
