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

// Package cgt implements the HMRC share matching rules for UK Capital
// Gains Tax: Same Day (TCGA92/S105(1)), Bed & Breakfast 30-day
// (TCGA92/S106A), and the Section 104 average-cost pool.
package cgt

import (
	"sort"

	"github.com/shopspring/decimal"
)

func init() {
	// quantities and unit costs divide into long fractions; the default
	// 16 digits is not enough to keep gains stable across pool drains
	decimal.DivisionPrecision = 28
}

// Calculate runs the full pipeline: preprocess, ledger construction, cost
// adjustments, matching, and tax-year aggregation. Validation warnings
// are returned alongside the report; any error is fatal.
func Calculate(txs []Transaction, rates RateSource, exemptions ExemptionSource) (*TaxReport, []Issue, error) {
	timeline, warnings, err := Preprocess(txs, rates)
	if err != nil {
		return nil, warnings, err
	}

	matcher := newMatcher()
	matches, pools, err := matcher.process(timeline)
	if err != nil {
		return nil, warnings, err
	}

	report := buildReport(timeline, matches, pools, exemptions)

	report.Transactions = make([]Transaction, len(txs))
	copy(report.Transactions, txs)
	sort.SliceStable(report.Transactions, func(i, j int) bool {
		if !report.Transactions[i].Date.Equal(report.Transactions[j].Date) {
			return report.Transactions[i].Date.Before(report.Transactions[j].Date)
		}
		return report.Transactions[i].Ticker < report.Transactions[j].Ticker
	})

	return report, warnings, nil
}
