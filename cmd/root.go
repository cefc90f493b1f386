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
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cgtcalc",
	Short: "cgtcalc computes UK Capital Gains Tax reports from share-trading records",
	Long: `cgtcalc reads a list of share acquisitions, disposals, dividends,
capital returns, and splits and produces a UK Capital Gains Tax report:
disposals matched under the HMRC share matching rules (Same Day, Bed &
Breakfast 30-day, Section 104 holding), realized gains and losses per tax
year, and the residual Section 104 holdings.

Transactions are accepted in a plain-text format:

	2024-01-15 BUY AAPL 100 @ 150 USD FEES 10 USD
	2024-06-20 SELL AAPL 50 @ 180 USD

or as a JSON array. Amounts in foreign currencies are converted to
sterling with HMRC monthly exchange rates; fetch those with 'cgtcalc fx
download'. Broker exports can be turned into the transaction format with
'cgtcalc convert'.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cgtcalc.toml)")
	rootCmd.PersistentFlags().String("fxDir", "", "directory holding HMRC monthly exchange rate files")
	if err := viper.BindPFlag("fx.dir", rootCmd.PersistentFlags().Lookup("fxDir")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for fxDir failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".cgtcalc" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".cgtcalc")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
