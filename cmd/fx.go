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
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ukcgt/cgtcalc/fx"
)

var (
	fxFromYear int
	fxToYear   int
)

// fxCmd represents the fx command
var fxCmd = &cobra.Command{
	Use:   "fx",
	Short: "Manage HMRC monthly exchange rates",
}

var fxDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download HMRC monthly exchange rate files",
	Long: `Fetches the HMRC monthly exchange rate XML file for every month in the
given year range into the --fxDir directory. Files already present are
left untouched, so re-running only fetches what is missing.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir := viper.GetString("fx.dir")
		if dir == "" {
			log.Fatal().Msg("no rate directory set; pass --fxDir")
		}

		from := time.Date(fxFromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(fxToYear, time.December, 1, 0, 0, 0, 0, time.UTC)
		now := time.Now().UTC()
		if to.After(now) {
			to = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		}

		if err := fx.Download(context.Background(), dir, from, to); err != nil {
			log.Fatal().Err(err).Msg("rate download failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(fxCmd)
	fxCmd.AddCommand(fxDownloadCmd)

	currentYear := time.Now().UTC().Year()
	fxDownloadCmd.Flags().IntVar(&fxFromYear, "from", currentYear-1, "first year to fetch")
	fxDownloadCmd.Flags().IntVar(&fxToYear, "to", currentYear, "last year to fetch")
}
