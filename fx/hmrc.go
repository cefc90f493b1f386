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
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

// monthList mirrors the HMRC monthly exchange rate XML schema.
type monthList struct {
	XMLName xml.Name       `xml:"exchangeRateMonthList"`
	Period  string         `xml:"Period,attr"`
	Rates   []exchangeRate `xml:"exchangeRate"`
}

type exchangeRate struct {
	CurrencyCode string `xml:"currencyCode"`
	RateNew      string `xml:"rateNew"`
}

// MonthlyRates is the parsed content of a single HMRC rate file.
type MonthlyRates struct {
	Year  int
	Month time.Month
	Rates map[money.Currency]decimal.Decimal
}

// fileNameRe matches HMRC monthly rate files, e.g. exrates-monthly-0424.xml
// covers April 2024.
var fileNameRe = regexp.MustCompile(`^exrates-monthly-(\d{2})(\d{2})\.xml$`)

// ParseMonthly parses an HMRC monthly exchange rate XML document. The
// declared Period attribute ("01/Apr/2024 to 30/Apr/2024") determines the
// month the rates apply to.
func ParseMonthly(r io.Reader) (*MonthlyRates, error) {
	var doc monthList
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed exchange rate document: %w", err)
	}

	start, err := periodStart(doc.Period)
	if err != nil {
		return nil, err
	}

	parsed := &MonthlyRates{
		Year:  start.Year(),
		Month: start.Month(),
		Rates: make(map[money.Currency]decimal.Decimal, len(doc.Rates)),
	}

	for _, entry := range doc.Rates {
		currency, err := money.ParseCurrency(entry.CurrencyCode)
		if err != nil {
			log.Warn().Str("CurrencyCode", entry.CurrencyCode).Msg("skipping rate entry with unparseable currency code")
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(entry.RateNew))
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q for %s: %w", entry.RateNew, currency, err)
		}
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("non-positive rate %s for %s", rate, currency)
		}
		parsed.Rates[currency] = rate
	}

	return parsed, nil
}

func periodStart(period string) (time.Time, error) {
	parts := strings.Split(period, " to ")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid Period attribute %q", period)
	}
	start, err := time.Parse("02/Jan/2006", strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid Period attribute %q: %w", period, err)
	}
	return start, nil
}

// LoadDir reads every exrates-monthly-MMYY.xml file under dir into a rate
// table. A file whose declared period disagrees with its name is rejected.
func LoadDir(dir string) (*Table, error) {
	table := NewTable()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rate directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := fileNameRe.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		fileMonth, _ := strconv.Atoi(matches[1])
		fileYear, _ := strconv.Atoi(matches[2])
		fileYear += 2000

		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening rate file %s: %w", path, err)
		}
		parsed, err := ParseMonthly(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing rate file %s: %w", path, err)
		}

		if parsed.Year != fileYear || parsed.Month != time.Month(fileMonth) {
			return nil, fmt.Errorf("rate file %s declares period %04d-%02d, name implies %04d-%02d",
				entry.Name(), parsed.Year, parsed.Month, fileYear, fileMonth)
		}

		for currency, rate := range parsed.Rates {
			table.Add(currency, parsed.Year, parsed.Month, rate)
		}

		log.Debug().Str("File", entry.Name()).Int("NumRates", len(parsed.Rates)).Msg("loaded monthly exchange rates")
	}

	return table, nil
}
