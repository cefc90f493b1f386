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
	"time"

	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

// Key identifies a monthly HMRC rate: currency plus the calendar month it
// applies to.
type Key struct {
	Currency money.Currency
	Year     int
	Month    time.Month
}

// Table holds monthly rates expressed as units of foreign currency per
// one pound sterling.
type Table struct {
	rates map[Key]decimal.Decimal
}

func NewTable() *Table {
	return &Table{rates: make(map[Key]decimal.Decimal)}
}

// Add stores the rate for a currency and month, replacing any previous
// value.
func (t *Table) Add(currency money.Currency, year int, month time.Month, perGBP decimal.Decimal) {
	t.rates[Key{Currency: currency, Year: year, Month: month}] = perGBP
}

// Rate returns the per-GBP rate for a currency and month.
func (t *Table) Rate(currency money.Currency, year int, month time.Month) (decimal.Decimal, bool) {
	rate, ok := t.rates[Key{Currency: currency, Year: year, Month: month}]
	return rate, ok
}

func (t *Table) Len() int {
	return len(t.rates)
}
