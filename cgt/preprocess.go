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
package cgt

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

// RateSource resolves a monthly rate expressed as units of foreign
// currency per one pound sterling.
type RateSource interface {
	Rate(currency money.Currency, year int, month time.Month) (decimal.Decimal, bool)
}

// Timeline is the validated, GBP-converted, date-sorted, same-day-merged
// transaction list the matching engine runs over.
type Timeline []Transaction

// Preprocess validates the input, converts every foreign amount to GBP
// using the month the transaction falls in, stable-sorts by date, and
// merges adjacent same-day same-ticker buy pairs and sell pairs. The
// returned warnings never fail the run.
func Preprocess(txs []Transaction, rates RateSource) (Timeline, []Issue, error) {
	validation := Validate(txs)
	for _, warning := range validation.Warnings {
		log.Warn().Str("Ticker", warning.Ticker).Time("Date", warning.Date).Msg(warning.Message)
	}
	if !validation.IsValid() {
		return nil, validation.Warnings, &InvalidTransactionError{Issues: validation.Errors}
	}

	timeline := make(Timeline, len(txs))
	for i, tx := range txs {
		converted, err := convertToGBP(tx, rates)
		if err != nil {
			return nil, validation.Warnings, err
		}
		timeline[i] = converted
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Date.Before(timeline[j].Date)
	})

	return mergeSameDay(timeline), validation.Warnings, nil
}

func convertToGBP(tx Transaction, rates RateSource) (Transaction, error) {
	convert := func(a money.Amount) (money.Amount, error) {
		if a.IsGBP() {
			a.GBP = a.Value
			return a, nil
		}
		rate, ok := rates.Rate(a.Currency, tx.Date.Year(), tx.Date.Month())
		if !ok {
			return a, &MissingFxRateError{Currency: a.Currency, Year: tx.Date.Year(), Month: tx.Date.Month()}
		}
		a.GBP = a.Value.Div(rate)
		return a, nil
	}

	var err error
	switch op := tx.Op.(type) {
	case Buy:
		if op.UnitPrice, err = convert(op.UnitPrice); err != nil {
			return tx, err
		}
		if op.Fees, err = convert(op.Fees); err != nil {
			return tx, err
		}
		tx.Op = op
	case Sell:
		if op.UnitPrice, err = convert(op.UnitPrice); err != nil {
			return tx, err
		}
		if op.Fees, err = convert(op.Fees); err != nil {
			return tx, err
		}
		tx.Op = op
	case Dividend:
		if op.TotalValue, err = convert(op.TotalValue); err != nil {
			return tx, err
		}
		if op.TaxWithheld, err = convert(op.TaxWithheld); err != nil {
			return tx, err
		}
		tx.Op = op
	case CapReturn:
		if op.TotalValue, err = convert(op.TotalValue); err != nil {
			return tx, err
		}
		if op.Fees, err = convert(op.Fees); err != nil {
			return tx, err
		}
		tx.Op = op
	}
	return tx, nil
}

// mergeSameDay folds adjacent records sharing date, ticker, and operation
// kind (buy with buy, sell with sell) into one record with summed
// quantity and fees and a quantity-weighted GBP unit price. Mixed pairs
// and the remaining operation kinds are never merged.
func mergeSameDay(timeline Timeline) Timeline {
	if len(timeline) == 0 {
		return timeline
	}

	merged := make(Timeline, 0, len(timeline))
	current := timeline[0]

	for _, next := range timeline[1:] {
		if next.Date.Equal(current.Date) && next.Ticker == current.Ticker {
			if combined, ok := mergeOps(current.Op, next.Op); ok {
				current.Op = combined
				continue
			}
		}
		merged = append(merged, current)
		current = next
	}

	return append(merged, current)
}

func mergeOps(a, b Operation) (Operation, bool) {
	switch first := a.(type) {
	case Buy:
		second, ok := b.(Buy)
		if !ok {
			return nil, false
		}
		qty, price, fees := combine(first.Quantity, first.UnitPrice, first.Fees,
			second.Quantity, second.UnitPrice, second.Fees)
		return Buy{Quantity: qty, UnitPrice: price, Fees: fees}, true
	case Sell:
		second, ok := b.(Sell)
		if !ok {
			return nil, false
		}
		qty, price, fees := combine(first.Quantity, first.UnitPrice, first.Fees,
			second.Quantity, second.UnitPrice, second.Fees)
		return Sell{Quantity: qty, UnitPrice: price, Fees: fees}, true
	}
	return nil, false
}

func combine(q1 decimal.Decimal, p1, f1 money.Amount, q2 decimal.Decimal, p2, f2 money.Amount) (decimal.Decimal, money.Amount, money.Amount) {
	qty := q1.Add(q2)
	total := q1.Mul(p1.GBP).Add(q2.Mul(p2.GBP))
	price := decimal.Zero
	if !qty.IsZero() {
		price = total.Div(qty)
	}
	return qty, money.NewGBP(price), money.NewGBP(f1.GBP.Add(f2.GBP))
}
