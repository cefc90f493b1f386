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

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ExemptionSource supplies the annual exempt amount for a tax year
// identified by its start year.
type ExemptionSource interface {
	Exemption(startYear int) (decimal.Decimal, bool)
}

type disposalKey struct {
	date   string
	ticker string
}

// buildReport groups matches into merged disposals, buckets them by UK
// tax year, and attaches dividend income and the final Section 104
// holdings.
func buildReport(timeline Timeline, matches []matchResult, pools map[string]*Section104Holding, exemptions ExemptionSource) *TaxReport {
	disposals := groupDisposals(matches)

	years := make(map[TaxPeriod]*TaxYearSummary)
	yearOf := func(p TaxPeriod) *TaxYearSummary {
		summary := years[p]
		if summary == nil {
			summary = &TaxYearSummary{Period: p}
			years[p] = summary
		}
		return summary
	}

	for _, disposal := range disposals {
		summary := yearOf(PeriodOf(disposal.Date))
		summary.Disposals = append(summary.Disposals, disposal)
		for _, match := range disposal.Matches {
			switch match.GainOrLoss.Sign() {
			case 1:
				summary.TotalGain = summary.TotalGain.Add(match.GainOrLoss)
			case -1:
				summary.TotalLoss = summary.TotalLoss.Add(match.GainOrLoss.Neg())
			}
		}
	}

	for _, tx := range timeline {
		dividend, ok := tx.Op.(Dividend)
		if !ok {
			continue
		}
		summary := yearOf(PeriodOf(tx.Date))
		summary.DividendIncome = summary.DividendIncome.Add(dividend.TotalValue.GBP)
		summary.DividendTaxPaid = summary.DividendTaxPaid.Add(dividend.TaxWithheld.GBP)
	}

	report := &TaxReport{}
	for _, summary := range years {
		summary.NetGain = summary.TotalGain.Sub(summary.TotalLoss)
		if amount, ok := exemptions.Exemption(summary.Period.StartYear()); ok {
			summary.ExemptAmount = &amount
		} else {
			err := &UnsupportedExemptionYearError{Year: summary.Period.StartYear()}
			log.Warn().Int("StartYear", summary.Period.StartYear()).Msg(err.Error())
		}
		report.TaxYears = append(report.TaxYears, *summary)
	}
	sort.Slice(report.TaxYears, func(i, j int) bool {
		return report.TaxYears[i].Period < report.TaxYears[j].Period
	})

	report.Holdings = finalHoldings(pools)

	return report
}

// groupDisposals merges the matches sharing a date and ticker into one
// Disposal, preserving emission order within and across disposals.
func groupDisposals(matches []matchResult) []Disposal {
	var disposals []Disposal
	index := make(map[disposalKey]int)

	for _, result := range matches {
		key := disposalKey{date: result.date.Format("2006-01-02"), ticker: result.ticker}
		i, ok := index[key]
		if !ok {
			i = len(disposals)
			index[key] = i
			disposals = append(disposals, Disposal{Date: result.date, Ticker: result.ticker})
		}
		disposal := &disposals[i]
		disposal.Quantity = disposal.Quantity.Add(result.match.Quantity)
		disposal.GrossProceeds = disposal.GrossProceeds.Add(result.grossProceeds)
		disposal.Proceeds = disposal.Proceeds.Add(result.proceeds)
		disposal.Matches = append(disposal.Matches, result.match)
	}

	return disposals
}

// finalHoldings filters the pools to live positions and orders them by
// ticker so output is deterministic.
func finalHoldings(pools map[string]*Section104Holding) []Section104Holding {
	tickers := make([]string, 0, len(pools))
	for ticker := range pools {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var holdings []Section104Holding
	for _, ticker := range tickers {
		pool := pools[ticker]
		if pool.Quantity.Sign() > 0 {
			holdings = append(holdings, *pool)
		}
	}
	return holdings
}
