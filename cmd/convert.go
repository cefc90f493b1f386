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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ukcgt/cgtcalc/convert"
	"github.com/ukcgt/cgtcalc/dsl"
)

var (
	convertJSON     bool
	convertAwardsFN string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <schwab-transactions.csv>",
	Short: "Convert a Schwab CSV export into the transaction format",
	Long: `The convert sub-command reads a Schwab brokerage-transactions CSV export
and writes the equivalent transactions to stdout, in the plain-text
format by default or as JSON with --json. Vested award shares take their
cost from the equity awards export given with --awards. Dollar amounts
stay in USD; run 'cgtcalc fx download' to fetch the exchange rates
calculate needs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inputFN := args[0]

		content, err := os.ReadFile(inputFN)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", inputFN).Msg("could not read export file")
		}

		var awards *convert.Awards
		if convertAwardsFN != "" {
			awardsContent, err := os.ReadFile(convertAwardsFN)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", convertAwardsFN).Msg("could not read awards file")
			}
			if awards, err = convert.ParseAwards(awardsContent); err != nil {
				log.Fatal().Err(err).Str("FileName", convertAwardsFN).Msg("could not parse awards file")
			}
		}

		txs, err := convert.Schwab(content, awards)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", inputFN).Msg("could not convert export")
		}
		log.Info().Int("NumTransactions", len(txs)).Msg("converted Schwab export")

		if convertJSON {
			rendered, err := dsl.MarshalJSON(txs)
			if err != nil {
				log.Fatal().Err(err).Msg("could not marshal transactions")
			}
			fmt.Println(string(rendered))
		} else {
			fmt.Println(dsl.Serialize(txs))
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "emit JSON instead of the plain-text format")
	convertCmd.Flags().StringVar(&convertAwardsFN, "awards", "", "Schwab equity awards JSON export (prices vested award shares)")
}
