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
package convert

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Awards holds the fair market value per (symbol, date) from a Schwab
// equity awards JSON export. Vested award shares carry no price in the
// brokerage transactions export; their acquisition cost comes from here.
type Awards struct {
	fmv map[awardKey]decimal.Decimal
}

type awardKey struct {
	symbol string
	date   time.Time
}

// awardsJSON mirrors the Schwab equity awards export.
type awardsJSON struct {
	Transactions []struct {
		Date               string `json:"Date"`
		Symbol             string `json:"Symbol"`
		TransactionDetails []struct {
			Details struct {
				FairMarketValuePrice string `json:"FairMarketValuePrice"`
			} `json:"Details"`
		} `json:"TransactionDetails"`
	} `json:"Transactions"`
}

// ParseAwards reads a Schwab equity awards JSON export. Later entries for
// the same symbol and date win.
func ParseAwards(data []byte) (*Awards, error) {
	var doc awardsJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing awards JSON: %w", err)
	}

	awards := &Awards{fmv: make(map[awardKey]decimal.Decimal, len(doc.Transactions))}
	for _, entry := range doc.Transactions {
		date, err := parseSchwabDate(entry.Date)
		if err != nil {
			return nil, fmt.Errorf("award for %s: %w", entry.Symbol, err)
		}
		if len(entry.TransactionDetails) == 0 {
			return nil, fmt.Errorf("award for %s on %s has no transaction details", entry.Symbol, entry.Date)
		}
		price, err := parseSchwabDecimal(entry.TransactionDetails[0].Details.FairMarketValuePrice)
		if err != nil {
			return nil, fmt.Errorf("award for %s on %s: %w", entry.Symbol, entry.Date, err)
		}
		awards.fmv[awardKey{symbol: strings.ToUpper(entry.Symbol), date: date}] = price
	}

	return awards, nil
}

// FMV returns the fair market value for a symbol on a date, looking back
// up to seven days for awards whose dates drift from the settlement row.
func (a *Awards) FMV(date time.Time, symbol string) (decimal.Decimal, bool) {
	if a == nil {
		return decimal.Decimal{}, false
	}
	symbol = strings.ToUpper(symbol)
	for daysBack := 0; daysBack <= 7; daysBack++ {
		if fmv, ok := a.fmv[awardKey{symbol: symbol, date: date.AddDate(0, 0, -daysBack)}]; ok {
			return fmv, true
		}
	}
	return decimal.Decimal{}, false
}

// MissingFairMarketValueError reports a vested award with no usable FMV
// in the awards export.
type MissingFairMarketValueError struct {
	Date   time.Time
	Symbol string
}

func (e *MissingFairMarketValueError) Error() string {
	return fmt.Sprintf("no fair market value for %s award on %s; pass the equity awards export",
		e.Symbol, e.Date.Format("2006-01-02"))
}
