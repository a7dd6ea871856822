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
package source

// ErrorKind classifies the syntax errors which can arise during compilation.
// Every error is associated with exactly one kind, and every kind is fatal for
// the module in which it arises.
type ErrorKind uint

const (
	// LexError indicates a failure tokenising a source file, such as an
	// unterminated string literal or an invalid escape sequence.
	LexError ErrorKind = iota
	// ParseError indicates malformed surface syntax, such as unbalanced
	// delimiters.
	ParseError
	// UnknownMacro indicates a list form whose head symbol looks like a macro
	// invocation, but for which no macro is registered.
	UnknownMacro
	// MacroExpansionLimit indicates the per-form expansion budget was
	// exhausted, which almost certainly means a macro expands forever.
	MacroExpansionLimit
	// MacroRuntimeError indicates a macro transformer itself failed.
	MacroRuntimeError
	// DuplicateParam indicates the same parameter name was declared twice in
	// one function signature.
	DuplicateParam
	// InvalidDefault indicates a default expression which refers to a
	// parameter declared after it (or to itself).
	InvalidDefault
	// ReturnOutsideFunction indicates a return form outside any function
	// body.
	ReturnOutsideFunction
	// ConventionMismatch indicates a call site whose shape does not match the
	// calling convention of its target (e.g. a keyed call to a positional
	// function).
	ConventionMismatch
	// ArityError indicates a call with the wrong number of arguments, or a
	// keyed call missing a required parameter.
	ArityError
	// UnboundIdentifier indicates a symbol which is neither a parameter, a
	// let binding, a top-level definition, an import, nor a known global.
	UnboundIdentifier
	// CyclicImport indicates two or more modules which import each other.
	CyclicImport
	// MissingModule indicates an import whose target module cannot be loaded.
	MissingModule
	// MissingExport indicates an import of a name its target does not export.
	MissingExport
	// IOError indicates a failure reading source text or writing output.
	IOError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case UnknownMacro:
		return "unknown macro"
	case MacroExpansionLimit:
		return "macro expansion limit"
	case MacroRuntimeError:
		return "macro runtime error"
	case DuplicateParam:
		return "duplicate parameter"
	case InvalidDefault:
		return "invalid default"
	case ReturnOutsideFunction:
		return "return outside function"
	case ConventionMismatch:
		return "convention mismatch"
	case ArityError:
		return "arity error"
	case UnboundIdentifier:
		return "unbound identifier"
	case CyclicImport:
		return "cyclic import"
	case MissingModule:
		return "missing module"
	case MissingExport:
		return "missing export"
	case IOError:
		return "i/o error"
	}
	//
	return "unknown error"
}
