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
	"fmt"
	"strconv"
	"unicode"

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/util/source"
)

// Parse a given source file into a single term, or return an error if the
// text is malformed.  A source map is also returned which maps every
// constructed node back to its span in the original text.
func Parse(s *source.File) (ast.Node, *source.Map[ast.Node], *source.SyntaxError) {
	p := NewParser(s)
	// Parse the input
	term, err := p.Parse()
	// Sanity check everything was parsed
	if err == nil && p.index != len(p.text) {
		return nil, nil, p.error(source.ParseError, "unexpected remainder")
	}
	// Done
	return term, p.SourceMap(), err
}

// ParseAll converts a given source file into zero or more terms, or returns
// an error if the text is malformed.  The key distinction from Parse is that
// this function continues parsing after the first term is encountered.
func ParseAll(s *source.File) ([]ast.Node, *source.Map[ast.Node], *source.SyntaxError) {
	p := NewParser(s)
	//
	terms := make([]ast.Node, 0)
	// Parse the input
	for {
		term, err := p.Parse()
		// Sanity check everything was parsed
		if err != nil {
			return terms, p.srcmap, err
		} else if term == nil {
			// EOF reached
			return terms, p.srcmap, nil
		}

		terms = append(terms, term)
	}
}

// Parser represents a parser in the process of parsing a given source file
// into one or more terms.
type Parser struct {
	// Source file being parsed
	srcfile *source.File
	// Cache (for simplicity)
	text []rune
	// Determine current position within text
	index int
	// Mapping from constructed terms to their spans in the original text.
	srcmap *source.Map[ast.Node]
}

// NewParser constructs a new instance of Parser
func NewParser(srcfile *source.File) *Parser {
	// Construct initial parser.
	return &Parser{
		srcfile: srcfile,
		text:    srcfile.Contents(),
		index:   0,
		srcmap:  source.NewSourceMap[ast.Node](*srcfile),
	}
}

// SourceMap returns the internal source map constructed during parsing.
// Using this one can determine, for each node, where in the original text it
// originated.  This is helpful, for example, when reporting syntax errors.
func (p *Parser) SourceMap() *source.Map[ast.Node] {
	return p.srcmap
}

// Parse the next term from the input, or produce an error.  Returns nil at
// the end of the input.
func (p *Parser) Parse() (ast.Node, *source.SyntaxError) {
	var (
		term ast.Node
		err  *source.SyntaxError
	)
	// Skip over any whitespace.  This is important to get the correct starting
	// point for this term.
	p.skipWhiteSpace()
	// Record start of this term
	start := p.index
	// Catch end-of-file
	if p.index == len(p.text) {
		return nil, nil
	}
	//
	switch c := p.text[p.index]; {
	case c == ')' || c == ']' || c == '}':
		return nil, p.error(source.ParseError, fmt.Sprintf("unexpected \"%c\"", c))
	case c == '(':
		term, err = p.parseCompound(start, ')', "")
	case c == '[':
		// Vector literals desugar at read time.
		term, err = p.parseCompound(start, ']', "vector")
	case c == '{':
		// Map literals desugar at read time.
		term, err = p.parseCompound(start, '}', "hash-map")
	case c == '"':
		term, err = p.parseString()
	case c == '\'':
		term, err = p.parsePrefixed(start, 1, "quote")
	case c == '`':
		term, err = p.parsePrefixed(start, 1, "quasiquote")
	case c == '~' && p.index+1 < len(p.text) && p.text[p.index+1] == '@':
		term, err = p.parsePrefixed(start, 2, "unquote-splicing")
	case c == '~':
		term, err = p.parsePrefixed(start, 1, "unquote")
	default:
		term = p.parseAtom()
	}
	// Check for error
	if err != nil {
		return nil, err
	}
	// Register item in source map
	p.srcmap.Put(term, source.NewSpan(start, p.index))
	// Done
	return term, nil
}

// Parse a delimited sequence of terms.  When head is non-empty the result is
// a list prefixed with the given symbol (this implements the vector and map
// reading sugar).  An unbalanced sequence is reported against the opening
// delimiter.
func (p *Parser) parseCompound(start int, terminator rune, head string) (ast.Node, *source.SyntaxError) {
	var elements []ast.Node
	// Desugared forms carry their constructor symbol up front.
	if head != "" {
		sym := ast.NewSymbol(head)
		p.srcmap.Put(sym, source.NewSpan(start, start+1))
		elements = append(elements, sym)
	}
	// Consume opening delimiter
	p.index++
	//
	for {
		p.skipWhiteSpace()
		// Check for terminator (or premature end-of-file).
		if p.index == len(p.text) {
			span := source.NewSpan(start, start+1)
			return nil, p.srcfile.SyntaxError(span, source.ParseError, "unbalanced delimiter")
		} else if p.text[p.index] == terminator {
			p.index++
			return ast.NewList(elements), nil
		}
		// Parse next element
		element, err := p.Parse()
		if err != nil {
			return nil, err
		}
		// Continue around!
		elements = append(elements, element)
	}
}

// Parse a quotation prefix (quote, quasiquote, unquote, unquote-splicing)
// followed by a term, yielding the corresponding two-element list.
func (p *Parser) parsePrefixed(start int, width int, head string) (ast.Node, *source.SyntaxError) {
	// Consume prefix
	p.index += width
	// Parse the prefixed term
	term, err := p.Parse()
	//
	if err != nil {
		return nil, err
	} else if term == nil {
		span := source.NewSpan(start, start+width)
		return nil, p.srcfile.SyntaxError(span, source.ParseError,
			fmt.Sprintf("dangling %s prefix", head))
	}
	//
	sym := ast.NewSymbol(head)
	p.srcmap.Put(sym, source.NewSpan(start, start+width))
	//
	return ast.ListOf(sym, term), nil
}

// Parse a string literal, processing the standard escapes.
func (p *Parser) parseString() (ast.Node, *source.SyntaxError) {
	var (
		start = p.index
		runes []rune
	)
	// Consume opening quote
	p.index++
	//
	for p.index < len(p.text) {
		switch c := p.text[p.index]; c {
		case '"':
			p.index++
			return ast.NewString(string(runes)), nil
		case '\\':
			r, err := p.parseEscape()
			if err != nil {
				return nil, err
			}
			//
			runes = append(runes, r)
		case '\n':
			// Strings may not span lines.
			span := source.NewSpan(start, start+1)
			return nil, p.srcfile.SyntaxError(span, source.LexError, "unterminated string")
		default:
			runes = append(runes, c)
			p.index++
		}
	}
	//
	span := source.NewSpan(start, start+1)
	//
	return nil, p.srcfile.SyntaxError(span, source.LexError, "unterminated string")
}

// Parse a single escape sequence within a string literal.
func (p *Parser) parseEscape() (rune, *source.SyntaxError) {
	start := p.index
	// Consume backslash
	p.index++
	//
	if p.index == len(p.text) {
		span := source.NewSpan(start, start+1)
		return 0, p.srcfile.SyntaxError(span, source.LexError, "unterminated string")
	}
	// Consume escape character
	c := p.text[p.index]
	p.index++
	//
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\', '"', '\'':
		return c, nil
	}
	//
	span := source.NewSpan(start, start+2)
	//
	return 0, p.srcfile.SyntaxError(span, source.LexError,
		fmt.Sprintf("invalid escape \"\\%c\"", c))
}

// Parse an atom, which is either a literal (number, boolean, nil) or a
// symbol.  Observe that named-parameter markers (e.g. "name:") are simply
// symbols whose name ends with a colon; the reader does not treat them
// specially beyond that.
func (p *Parser) parseAtom() ast.Node {
	token := string(p.parseToken())
	// Literals take precedence over symbols.
	switch token {
	case "true":
		return ast.NewBool(true)
	case "false":
		return ast.NewBool(false)
	case "nil":
		return ast.NewNil()
	}
	//
	if isNumeric(token) {
		if value, err := strconv.ParseFloat(token, 64); err == nil {
			return ast.NewNumber(value)
		}
	}
	// Must be a symbol
	return ast.NewSymbol(token)
}

// Extract the longest run of token characters from the current position.
func (p *Parser) parseToken() []rune {
	// Parse token
	i := len(p.text)

	for j := p.index; j < i; j++ {
		c := p.text[j]
		if c == '(' || c == ')' || c == '{' || c == '}' || c == '[' || c == ']' ||
			c == '"' || c == ';' || unicode.IsSpace(c) {
			i = j
			break
		}
	}
	// Reached end of token
	token := p.text[p.index:i]
	p.index = i

	return token
}

// skipWhiteSpace skips over any whitespace, including comments.
func (p *Parser) skipWhiteSpace() {
	for p.index < len(p.text) && (unicode.IsSpace(p.text[p.index]) || p.text[p.index] == ';') {
		// Skip comment
		if p.text[p.index] == ';' {
			i := len(p.text)
			//
			for j := p.index; j < i; j++ {
				c := p.text[j]
				if c == '\n' {
					i = j + 1
					break
				}
			}
			// Skip comment
			p.index = i
		} else {
			// skip space
			p.index++
		}
	}
}

// Check whether a given token is plausibly numeric, guarding against the
// permissive forms accepted by strconv (e.g. "inf", "NaN").
func isNumeric(token string) bool {
	digits := false
	//
	for i, c := range token {
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '+' || c == '-':
			if i != 0 {
				// Exponent signs are handled below.
				if i < 1 || (token[i-1] != 'e' && token[i-1] != 'E') {
					return false
				}
			}
		case c == '.':
			// ok
		case c == 'e' || c == 'E':
			if !digits {
				return false
			}
		default:
			return false
		}
	}
	//
	return digits
}

// Construct a parser error at the current position in the input stream.
func (p *Parser) error(kind source.ErrorKind, msg string) *source.SyntaxError {
	span := source.NewSpan(p.index, p.index+1)
	return p.srcfile.SyntaxError(span, kind, msg)
}
