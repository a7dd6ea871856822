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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/boraseoksoon/hql/pkg/util/source"
	"golang.org/x/term"
)

// Print a batch of syntax errors with appropriate highlighting.
func printSyntaxErrors(errs []source.SyntaxError) {
	for i := range errs {
		printSyntaxError(&errs[i])
	}
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(err *source.SyntaxError) {
	span := err.Span()
	line := err.FirstEnclosingLine()
	lineOffset := span.Start() - line.Start()
	// Calculate length (ensures don't overflow line)
	length := min(line.Length()-lineOffset, span.Length())
	// Print error + line number
	fmt.Printf("%s:%d:%d-%d %s: %s\n", err.SourceFile().Filename(),
		line.Number(), 1+lineOffset, 1+lineOffset+length, err.Kind(), err.Message())
	// Print separator line
	fmt.Println()
	// Print line, clamped to the terminal
	text := line.String()
	width := terminalWidth()
	//
	if len(text) > width {
		text = text[:width]
		length = min(length, max(0, width-lineOffset))
	}
	//
	fmt.Println(text)
	// Print indent (todo: account for tabs)
	if lineOffset < width {
		fmt.Print(strings.Repeat(" ", lineOffset))
		// Print highlight
		fmt.Println(strings.Repeat("^", max(1, length)))
	}
}

// Determine the width available for highlighting, falling back to a sensible
// default when not attached to a terminal.
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	//
	return 80
}
