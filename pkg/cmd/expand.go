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

	"github.com/boraseoksoon/hql/pkg/hql/ast"
	"github.com/boraseoksoon/hql/pkg/hql/desugar"
	"github.com/boraseoksoon/hql/pkg/hql/macro"
	"github.com/boraseoksoon/hql/pkg/hql/reader"
	"github.com/boraseoksoon/hql/pkg/util/source"
	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand [flags] input_file",
	Short: "print the kernel form of an HQL module.",
	Long: `Read a single module, run macro expansion and surface desugaring, and print
	 the resulting canonical kernel tree.  Useful when debugging macros.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		budget := GetUint(cmd, "budget")
		if budget == 0 {
			budget = macro.DEFAULT_EXPANSION_BUDGET
		}
		//
		bytes, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("%s: %s\n", args[0], err)
			os.Exit(2)
		}
		//
		srcfile := source.NewSourceFile(args[0], bytes)
		//
		terms, srcmap, lexErr := reader.ParseAll(srcfile)
		if lexErr != nil {
			printSyntaxError(lexErr)
			os.Exit(1)
		}
		//
		srcmaps := source.NewSourceMaps[ast.Node]()
		srcmaps.Join(srcmap)
		//
		expanded, errs := macro.Expand(macro.NewEnv(), srcmaps, terms, budget)
		//
		if len(errs) == 0 {
			expanded, _, errs = desugar.Desugar(srcmaps, expanded)
		}
		//
		if len(errs) > 0 {
			printSyntaxErrors(errs)
			os.Exit(1)
		}
		//
		for _, term := range expanded {
			fmt.Println(term.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
	expandCmd.Flags().Uint("budget", 0, "override the macro expansion budget")
}
