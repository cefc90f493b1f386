// Copyright 2024
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
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/dsl"
	"github.com/ukcgt/cgtcalc/exemption"
	"github.com/ukcgt/cgtcalc/format"
	"github.com/ukcgt/cgtcalc/fx"
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate <transactions-file>",
	Short: "Compute a capital gains report from a transaction file",
	Long: `The calculate sub-command reads transactions (plain-text format, or JSON
when the file ends in .json), matches every disposal under the HMRC share
matching rules, and prints the tax report. Foreign amounts need HMRC
monthly exchange rates in the directory given by --fxDir.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inputFN := args[0]

		content, err := os.ReadFile(inputFN)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", inputFN).Msg("could not read transaction file")
		}

		var txs []cgt.Transaction
		if strings.HasSuffix(strings.ToLower(inputFN), ".json") {
			txs, err = dsl.ParseJSON(content)
		} else {
			txs, err = dsl.ParseString(string(content))
		}
		if err != nil {
			log.Fatal().Err(err).Str("FileName", inputFN).Msg("could not parse transactions")
		}

		rates := fx.NewTable()
		if fxDir := viper.GetString("fx.dir"); fxDir != "" {
			if rates, err = fx.LoadDir(fxDir); err != nil {
				log.Fatal().Err(err).Str("FxDir", fxDir).Msg("could not load exchange rates")
			}
			log.Info().Str("FxDir", fxDir).Int("NumRates", rates.Len()).Msg("loaded exchange rates")
		}

		report, warnings, err := cgt.Calculate(txs, rates, exemption.Load())
		if err != nil {
			log.Fatal().Err(err).Msg("calculation failed")
		}
		if len(warnings) > 0 {
			log.Warn().Int("NumWarnings", len(warnings)).Msg("input produced validation warnings")
		}

		switch viper.GetString("output.format") {
		case "json":
			rendered, err := format.JSON(report)
			if err != nil {
				log.Fatal().Err(err).Msg("could not render report")
			}
			fmt.Println(string(rendered))
		default:
			fmt.Print(format.Plain(report))
		}
	},
}

func init() {
	rootCmd.AddCommand(calculateCmd)

	calculateCmd.Flags().StringP("format", "f", "text", "output format (text or json)")
	if err := viper.BindPFlag("output.format", calculateCmd.Flags().Lookup("format")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for format failed")
	}
}
