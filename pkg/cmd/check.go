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

	"github.com/boraseoksoon/hql/pkg/hql"
	"github.com/boraseoksoon/hql/pkg/hql/linker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] input_file",
	Short: "check HQL source without emitting output.",
	Long: `Run the full compilation pipeline over the module graph reachable from a given
	 entry file, reporting any errors, without writing any output.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var config hql.CompilationConfig
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		config.ExpansionBudget = GetUint(cmd, "budget")
		//
		modules, errs, err := hql.Compile(cmd.Context(), config, linker.FileLoader{}, args[0])
		//
		if err != nil {
			fmt.Printf("%s: %s\n", args[0], err)
			os.Exit(2)
		} else if len(errs) > 0 {
			printSyntaxErrors(errs)
			os.Exit(1)
		}
		//
		fmt.Printf("checked %d module(s)\n", len(modules))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Uint("budget", 0, "override the macro expansion budget")
}
