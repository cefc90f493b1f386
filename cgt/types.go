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
	"time"

	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

// Date builds the civil day (y, m, d) as a UTC midnight. All transaction
// dates in the engine are civil days; no timezone math is applied.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// Transaction is a single dated event against one ticker.
type Transaction struct {
	Date   time.Time
	Ticker string
	Op     Operation
}

// Operation is the closed set of event kinds a Transaction can carry.
type Operation interface {
	isOperation()
}

// Buy acquires shares.
type Buy struct {
	Quantity  decimal.Decimal
	UnitPrice money.Amount
	Fees      money.Amount
}

// Sell disposes of shares.
type Sell struct {
	Quantity  decimal.Decimal
	UnitPrice money.Amount
	Fees      money.Amount
}

// Dividend records income. A zero Quantity is a cash dividend; a positive
// Quantity is an accumulation-fund dividend that raises the cost basis of
// the shares it was paid on.
type Dividend struct {
	Quantity    decimal.Decimal
	TotalValue  money.Amount
	TaxWithheld money.Amount
}

// CapReturn is a return of capital that lowers the cost basis of the
// shares it was paid on.
type CapReturn struct {
	Quantity   decimal.Decimal
	TotalValue money.Amount
	Fees       money.Amount
}

// Split multiplies share counts by Ratio without changing aggregate cost.
type Split struct {
	Ratio decimal.Decimal
}

// Unsplit divides share counts by Ratio without changing aggregate cost.
type Unsplit struct {
	Ratio decimal.Decimal
}

func (Buy) isOperation()       {}
func (Sell) isOperation()      {}
func (Dividend) isOperation()  {}
func (CapReturn) isOperation() {}
func (Split) isOperation()     {}
func (Unsplit) isOperation()   {}

// MatchRule identifies which HMRC matching rule produced a Match.
type MatchRule string

const (
	RuleSameDay         MatchRule = "SameDay"
	RuleBedAndBreakfast MatchRule = "BedAndBreakfast"
	RuleSection104      MatchRule = "Section104"
)

// Match assigns part of a disposal to cost basis under one matching rule.
// AcquisitionDate is set for SameDay and BedAndBreakfast matches and nil
// for Section104.
type Match struct {
	Rule            MatchRule
	Quantity        decimal.Decimal
	AllowableCost   decimal.Decimal
	GainOrLoss      decimal.Decimal
	AcquisitionDate *time.Time
}

// Disposal is the reported unit: all same-day sells of one ticker merged,
// with the ordered matches that cover its quantity.
type Disposal struct {
	Date          time.Time
	Ticker        string
	Quantity      decimal.Decimal
	GrossProceeds decimal.Decimal
	Proceeds      decimal.Decimal
	Matches       []Match
}

// Section104Holding is the pooled average-cost position for one ticker.
type Section104Holding struct {
	Ticker    string
	Quantity  decimal.Decimal
	TotalCost decimal.Decimal
}

// TaxYearSummary collects the disposals falling in one UK tax year.
// ExemptAmount is nil when the year has no configured annual exempt
// amount.
type TaxYearSummary struct {
	Period          TaxPeriod
	Disposals       []Disposal
	TotalGain       decimal.Decimal
	TotalLoss       decimal.Decimal
	NetGain         decimal.Decimal
	ExemptAmount    *decimal.Decimal
	DividendIncome  decimal.Decimal
	DividendTaxPaid decimal.Decimal
}

// DisposalCount returns the number of merged disposals in the year.
func (y *TaxYearSummary) DisposalCount() int {
	return len(y.Disposals)
}

// GrossProceeds sums the gross proceeds of every disposal in the year,
// the SA108 box 21 figure.
func (y *TaxYearSummary) GrossProceeds() decimal.Decimal {
	total := decimal.Zero
	for _, d := range y.Disposals {
		total = total.Add(d.GrossProceeds)
	}
	return total
}

// TaxableGain is the net gain left after the annual exempt amount, floored
// at zero. Without a configured exemption it equals the positive net gain.
func (y *TaxYearSummary) TaxableGain() decimal.Decimal {
	taxable := y.NetGain
	if y.ExemptAmount != nil {
		taxable = taxable.Sub(*y.ExemptAmount)
	}
	if taxable.IsNegative() {
		return decimal.Zero
	}
	return taxable
}

// TaxReport is the complete output: tax years ordered by start year plus
// the Section 104 state after the last transaction.
type TaxReport struct {
	TaxYears     []TaxYearSummary
	Holdings     []Section104Holding
	Transactions []Transaction
}
