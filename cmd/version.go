// Copyright 2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukcgt/cgtcalc/exemption"
	"github.com/ukcgt/cgtcalc/pkginfo"
)

var (
	deps  bool
	short bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and exemption data info",
	Run: func(cmd *cobra.Command, args []string) {
		if short {
			fmt.Println(pkginfo.Version)
			return
		}

		fmt.Println(pkginfo.BuildVersionString())
		fmt.Printf("\nExemption data: %s\n", exemptionYearRange())

		if deps {
			fmt.Printf("\n\n")
			fmt.Println(strings.Join(pkginfo.GetDependencyList(), "\n"))
		}
	},
}

// exemptionYearRange summarizes which tax years have an annual exempt
// amount configured (embedded plus overrides), e.g. "2014/15 - 2024/25".
func exemptionYearRange() string {
	table := exemption.Load()

	var years []int
	for year := 1990; year <= 2100; year++ {
		if _, ok := table.Exemption(year); ok {
			years = append(years, year)
		}
	}
	if len(years) == 0 {
		return "none configured"
	}
	sort.Ints(years)

	first, last := years[0], years[len(years)-1]
	return fmt.Sprintf("%d/%02d - %d/%02d", first, (first+1)%100, last, (last+1)%100)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&deps, "deps", "d", false, "print dependencies")
	versionCmd.Flags().BoolVarP(&short, "short", "s", false, "only print version number")
}
