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

// Package convert turns broker export files into transactions the
// calculator understands.
package convert

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/money"
)

const usd = money.Currency("USD")

// schwabRow is one line of a Schwab brokerage-transactions CSV export.
// All monetary values in the export are US dollars.
type schwabRow struct {
	Date        string `csv:"Date"`
	Action      string `csv:"Action"`
	Symbol      string `csv:"Symbol"`
	Description string `csv:"Description"`
	Quantity    string `csv:"Quantity"`
	Price       string `csv:"Price"`
	Fees        string `csv:"Fees & Comm"`
	Amount      string `csv:"Amount"`
}

// splitRe matches split descriptions such as "NVDA 10 FOR 1 STOCK SPLIT".
var splitRe = regexp.MustCompile(`(\d+)\s+FOR\s+(\d+)`)

// nonCgtActions are cash movements and account entries that never affect
// share holdings.
var nonCgtActions = map[string]bool{
	"Adjustment":         true,
	"Credit Interest":    true,
	"Journal":            true,
	"Misc Cash Entry":    true,
	"MoneyLink Transfer": true,
	"Service Fee":        true,
	"Wire Funds Adj":     true,
	"Wire Sent":          true,
}

// Schwab converts a Schwab brokerage-transactions CSV export into
// chronologically ordered transactions. Dividend withholding rows are
// folded into the dividend they belong to, and Cancel Sell rows remove
// the sell they reverse. Vested award shares (Stock Plan Activity) take
// their acquisition cost from the awards export; without a usable fair
// market value the conversion fails.
func Schwab(data []byte, awards *Awards) ([]cgt.Transaction, error) {
	var rows []*schwabRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing Schwab CSV: %w", err)
	}

	var txs []cgt.Transaction
	var withholdings []withholding
	var cancellations []cancellation

	for i, row := range rows {
		tx, side, err := convertRow(row, awards)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if side != nil {
			if side.withholding != nil {
				withholdings = append(withholdings, *side.withholding)
			}
			if side.cancellation != nil {
				cancellations = append(cancellations, *side.cancellation)
			}
		}
		if tx != nil {
			txs = append(txs, *tx)
		}
	}

	applyWithholdings(txs, withholdings)
	txs = applyCancellations(txs, cancellations)

	// exports arrive newest first
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})

	return txs, nil
}

type withholding struct {
	date   time.Time
	ticker string
	amount decimal.Decimal
}

// cancellation is a Cancel Sell row waiting for the sell it reverses.
// The original sell may appear later in the export since Schwab lists
// newest rows first.
type cancellation struct {
	date   time.Time
	ticker string
	qty    decimal.Decimal
	price  decimal.Decimal
}

// sideEffect carries the rows that do not become transactions themselves
// but alter others.
type sideEffect struct {
	withholding  *withholding
	cancellation *cancellation
}

func convertRow(row *schwabRow, awards *Awards) (*cgt.Transaction, *sideEffect, error) {
	action := strings.TrimSpace(row.Action)
	if nonCgtActions[action] {
		return nil, nil, nil
	}

	date, err := parseSchwabDate(row.Date)
	if err != nil {
		return nil, nil, err
	}
	ticker := strings.ToUpper(strings.TrimSpace(row.Symbol))

	switch action {
	case "Buy", "Sell":
		qty, price, fees, err := parseTradeFields(row)
		if err != nil {
			return nil, nil, err
		}
		var op cgt.Operation = cgt.Buy{
			Quantity:  qty,
			UnitPrice: money.Amount{Value: price, Currency: usd},
			Fees:      money.Amount{Value: fees, Currency: usd},
		}
		if action == "Sell" {
			op = cgt.Sell{
				Quantity:  qty,
				UnitPrice: money.Amount{Value: price, Currency: usd},
				Fees:      money.Amount{Value: fees, Currency: usd},
			}
		}
		return &cgt.Transaction{Date: date, Ticker: ticker, Op: op}, nil, nil

	case "Cancel Sell":
		// reverses a prior sell (e.g. a Schwab price correction); the
		// cancelled sell never happened
		qty, price, _, err := parseTradeFields(row)
		if err != nil {
			return nil, nil, err
		}
		return nil, &sideEffect{cancellation: &cancellation{
			date: date, ticker: ticker, qty: qty, price: price,
		}}, nil

	case "Stock Plan Activity":
		// RSU vesting rows carry no price; the acquisition cost is the
		// fair market value from the awards export
		qty, err := parseSchwabDecimal(row.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("quantity: %w", err)
		}
		fmv, ok := awards.FMV(date, ticker)
		if !ok {
			return nil, nil, &MissingFairMarketValueError{Date: date, Symbol: ticker}
		}
		return &cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Buy{
			Quantity:  qty.Abs(),
			UnitPrice: money.Amount{Value: fmv, Currency: usd},
			Fees:      money.Amount{Value: decimal.Zero, Currency: usd},
		}}, nil, nil

	case "Cash Dividend", "Qualified Dividend", "Short Term Cap Gain", "Long Term Cap Gain":
		amount, err := parseSchwabDecimal(row.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("amount: %w", err)
		}
		return &cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Dividend{
			Quantity:    decimal.Zero,
			TotalValue:  money.Amount{Value: amount.Abs(), Currency: usd},
			TaxWithheld: money.Amount{Value: decimal.Zero, Currency: usd},
		}}, nil, nil

	case "NRA Withholding", "NRA Tax Adj":
		amount, err := parseSchwabDecimal(row.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("amount: %w", err)
		}
		return nil, &sideEffect{withholding: &withholding{date: date, ticker: ticker, amount: amount.Abs()}}, nil

	case "Stock Split":
		matches := splitRe.FindStringSubmatch(strings.ToUpper(row.Description))
		if matches == nil {
			return nil, nil, fmt.Errorf("could not read split ratio from description %q", row.Description)
		}
		numerator, _ := decimal.NewFromString(matches[1])
		denominator, _ := decimal.NewFromString(matches[2])
		return &cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Split{
			Ratio: numerator.Div(denominator),
		}}, nil, nil
	}

	log.Warn().Str("Action", action).Str("Date", row.Date).Str("Symbol", row.Symbol).
		Msg("skipping unrecognized Schwab action")
	return nil, nil, nil
}

func parseTradeFields(row *schwabRow) (qty, price, fees decimal.Decimal, err error) {
	if qty, err = parseSchwabDecimal(row.Quantity); err != nil {
		return qty, price, fees, fmt.Errorf("quantity: %w", err)
	}
	qty = qty.Abs()
	if price, err = parseSchwabDecimal(row.Price); err != nil {
		return qty, price, fees, fmt.Errorf("price: %w", err)
	}
	fees = decimal.Zero
	if strings.TrimSpace(row.Fees) != "" {
		if fees, err = parseSchwabDecimal(row.Fees); err != nil {
			return qty, price, fees, fmt.Errorf("fees: %w", err)
		}
	}
	return qty, price, fees, nil
}

// applyCancellations removes, for each Cancel Sell, the sell with the
// same date, ticker, quantity, and price. Unmatched cancellations are
// logged and dropped.
func applyCancellations(txs []cgt.Transaction, cancellations []cancellation) []cgt.Transaction {
	for _, cancel := range cancellations {
		removed := false
		for i := range txs {
			sellOp, ok := txs[i].Op.(cgt.Sell)
			if !ok || !txs[i].Date.Equal(cancel.date) || txs[i].Ticker != cancel.ticker {
				continue
			}
			if !sellOp.Quantity.Equal(cancel.qty) || !sellOp.UnitPrice.Value.Equal(cancel.price) {
				continue
			}
			txs = append(txs[:i], txs[i+1:]...)
			removed = true
			break
		}
		if !removed {
			log.Warn().Time("Date", cancel.date).Str("Ticker", cancel.ticker).
				Str("Quantity", cancel.qty.String()).
				Msg("Cancel Sell has no matching sell to cancel")
		}
	}
	return txs
}

// applyWithholdings attaches each tax-withholding row to a dividend with
// the same date and ticker.
func applyWithholdings(txs []cgt.Transaction, withholdings []withholding) {
	for _, wh := range withholdings {
		applied := false
		for i := range txs {
			if !txs[i].Date.Equal(wh.date) || txs[i].Ticker != wh.ticker {
				continue
			}
			dividend, ok := txs[i].Op.(cgt.Dividend)
			if !ok {
				continue
			}
			dividend.TaxWithheld.Value = dividend.TaxWithheld.Value.Add(wh.amount)
			txs[i].Op = dividend
			applied = true
			break
		}
		if !applied {
			log.Warn().Time("Date", wh.date).Str("Ticker", wh.ticker).
				Msg("tax withholding without a matching dividend")
		}
	}
}

// parseSchwabDate reads MM/DD/YYYY, tolerating the "as of" suffix some
// rows carry.
func parseSchwabDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if i := strings.Index(value, " as of "); i >= 0 {
		value = value[:i]
	}
	date, err := time.Parse("01/02/2006", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return cgt.Date(date.Year(), date.Month(), date.Day()), nil
}

// parseSchwabDecimal strips the dollar sign and thousands separators
// Schwab formats numbers with.
func parseSchwabDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", "\"", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	return decimal.NewFromString(cleaned)
}
