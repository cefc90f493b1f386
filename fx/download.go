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
package fx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/ukcgt/cgtcalc/pkginfo"
)

const rateURL = "https://www.trade-tariff.service.gov.uk/api/v2/exchange_rates/files/monthly_xml_%d-%d.xml"

// Download fetches HMRC monthly exchange rate files for each month from
// from through to inclusive, writing them into dir under the
// exrates-monthly-MMYY.xml naming scheme LoadDir expects. Months already
// present on disk are skipped.
func Download(ctx context.Context, dir string, from, to time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating rate directory %s: %w", dir, err)
	}

	client := resty.New()
	client.SetRetryCount(3)
	client.SetRetryWaitTime(2 * time.Second)
	client.SetHeader("User-Agent", pkginfo.UserAgent())

	month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)

	for !month.After(end) {
		fn := filepath.Join(dir, fmt.Sprintf("exrates-monthly-%02d%02d.xml", int(month.Month()), month.Year()%100))
		if _, err := os.Stat(fn); err == nil {
			log.Debug().Str("File", fn).Msg("rate file already downloaded")
			month = month.AddDate(0, 1, 0)
			continue
		}

		url := fmt.Sprintf(rateURL, month.Year(), int(month.Month()))
		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", url, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode())
		}

		// make sure the payload parses and covers the month we asked for
		// before writing it to disk
		parsed, err := ParseMonthly(bytes.NewReader(resp.Body()))
		if err != nil {
			return fmt.Errorf("validating %s: %w", url, err)
		}
		if parsed.Year != month.Year() || parsed.Month != month.Month() {
			return fmt.Errorf("rate file from %s covers %04d-%02d, expected %04d-%02d",
				url, parsed.Year, parsed.Month, month.Year(), month.Month())
		}

		if err := os.WriteFile(fn, resp.Body(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", fn, err)
		}

		log.Info().Str("File", fn).Int("NumRates", len(parsed.Rates)).Msg("downloaded monthly exchange rates")
		month = month.AddDate(0, 1, 0)
	}

	return nil
}
