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
package cgt_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/money"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return cgt.Date(year, month, dayOfMonth)
}

func buy(date time.Time, ticker, qty, price, fees string) cgt.Transaction {
	return cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Buy{
		Quantity:  dec(qty),
		UnitPrice: money.NewGBP(dec(price)),
		Fees:      money.NewGBP(dec(fees)),
	}}
}

func sell(date time.Time, ticker, qty, price, fees string) cgt.Transaction {
	return cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Sell{
		Quantity:  dec(qty),
		UnitPrice: money.NewGBP(dec(price)),
		Fees:      money.NewGBP(dec(fees)),
	}}
}

func dividend(date time.Time, ticker, qty, total, tax string) cgt.Transaction {
	return cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Dividend{
		Quantity:    dec(qty),
		TotalValue:  money.NewGBP(dec(total)),
		TaxWithheld: money.NewGBP(dec(tax)),
	}}
}

func capReturn(date time.Time, ticker, qty, total, fees string) cgt.Transaction {
	return cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.CapReturn{
		Quantity:   dec(qty),
		TotalValue: money.NewGBP(dec(total)),
		Fees:       money.NewGBP(dec(fees)),
	}}
}

func split(date time.Time, ticker, ratio string) cgt.Transaction {
	return cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Split{Ratio: dec(ratio)}}
}

func unsplit(date time.Time, ticker, ratio string) cgt.Transaction {
	return cgt.Transaction{Date: date, Ticker: ticker, Op: cgt.Unsplit{Ratio: dec(ratio)}}
}

// emptyRates is a rate source with no rates at all.
type emptyRates struct{}

func (emptyRates) Rate(money.Currency, int, time.Month) (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
}

// fixedRates serves one rate for every currency and month.
type fixedRates struct {
	rate decimal.Decimal
}

func (r fixedRates) Rate(money.Currency, int, time.Month) (decimal.Decimal, bool) {
	return r.rate, true
}

// trackingRates records whether a lookup ever happened.
type trackingRates struct {
	consulted *bool
}

func (r trackingRates) Rate(money.Currency, int, time.Month) (decimal.Decimal, bool) {
	*r.consulted = true
	return decimal.NewFromInt(1), true
}

// staticExemptions maps start years to exempt amounts.
type staticExemptions map[int]string

func (e staticExemptions) Exemption(startYear int) (decimal.Decimal, bool) {
	amount, ok := e[startYear]
	if !ok {
		return decimal.Decimal{}, false
	}
	return dec(amount), true
}
