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

	"github.com/boraseoksoon/hql/pkg/hql"
	"github.com/boraseoksoon/hql/pkg/hql/linker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var transpileCmd = &cobra.Command{
	Use:   "transpile [flags] input_file [output_file]",
	Short: "transpile HQL source into ECMAScript modules.",
	Long: `Transpile the module graph reachable from a given entry file into ECMAScript
	 module text, one output per input module.  The optional output path applies to
	 the entry module; peer modules are emitted side-by-side with their sources.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var config hql.CompilationConfig
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		config.ExpansionBudget = GetUint(cmd, "budget")
		//
		entry := args[0]
		output := swapExtension(entry)
		//
		if len(args) == 2 {
			output = args[1]
		}
		// Compile the graph
		modules, errs, err := hql.Compile(cmd.Context(), config, linker.FileLoader{}, entry)
		//
		if err != nil {
			fmt.Printf("%s: %s\n", entry, err)
			os.Exit(2)
		} else if len(errs) > 0 {
			printSyntaxErrors(errs)
			os.Exit(1)
		}
		// Write one output unit per module
		for _, m := range modules {
			target := swapExtension(m.Path)
			//
			if m.Path == entry {
				target = output
			}
			//
			if err := os.WriteFile(target, []byte(m.Text), 0644); err != nil {
				fmt.Printf("%s: %s\n", target, err)
				os.Exit(2)
			}
			//
			log.Debugf("wrote %s", target)
		}
	},
}

// Swap the source extension for the emitted one.
func swapExtension(path string) string {
	return strings.TrimSuffix(path, ".hql") + ".mjs"
}

func init() {
	rootCmd.AddCommand(transpileCmd)
	transpileCmd.Flags().Uint("budget", 0, "override the macro expansion budget")
}
