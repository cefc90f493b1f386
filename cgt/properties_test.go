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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/format"
)

// a mixed history exercising every rule: same-day, B&B across a split,
// pool draws, a capital return, and multiple tax years
func mixedHistory() []cgt.Transaction {
	return []cgt.Transaction{
		buy(day(2021, time.May, 10), "AAA", "200", "12", "8"),
		buy(day(2021, time.July, 2), "BBB", "50", "80", "4"),
		sell(day(2021, time.September, 14), "AAA", "60", "15", "3"),
		buy(day(2021, time.September, 20), "AAA", "25", "16", "1"),
		capReturn(day(2022, time.January, 11), "AAA", "165", "330", "0"),
		split(day(2022, time.March, 4), "AAA", "2"),
		sell(day(2022, time.June, 8), "AAA", "100", "9", "5"),
		sell(day(2022, time.June, 8), "BBB", "20", "95", "2"),
		buy(day(2022, time.June, 8), "BBB", "10", "90", "1"),
		sell(day(2023, time.February, 1), "BBB", "15", "100", "0"),
	}
}

var _ = Describe("calculation properties", func() {
	exemptions := staticExemptions{2021: "12300", 2022: "12300"}

	It("covers every disposal exactly with its matches", func() {
		report, _, err := cgt.Calculate(mixedHistory(), emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())

		for _, year := range report.TaxYears {
			for _, disposal := range year.Disposals {
				matched := decimal.Zero
				cost := decimal.Zero
				gain := decimal.Zero
				for _, match := range disposal.Matches {
					matched = matched.Add(match.Quantity)
					cost = cost.Add(match.AllowableCost)
					gain = gain.Add(match.GainOrLoss)
				}
				Expect(matched.Equal(disposal.Quantity)).To(BeTrue(),
					"disposal %s %s: matches sum to %s", disposal.Ticker, disposal.Date, matched)
				Expect(gain.Equal(disposal.Proceeds.Sub(cost))).To(BeTrue(),
					"disposal %s %s: gains do not reconcile with proceeds and cost", disposal.Ticker, disposal.Date)
			}
		}
	})

	It("orders matches Same Day before B&B before Section 104", func() {
		report, _, err := cgt.Calculate(mixedHistory(), emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())

		rank := map[cgt.MatchRule]int{
			cgt.RuleSameDay:         0,
			cgt.RuleBedAndBreakfast: 1,
			cgt.RuleSection104:      2,
		}
		for _, year := range report.TaxYears {
			for _, disposal := range year.Disposals {
				last := -1
				for _, match := range disposal.Matches {
					Expect(rank[match.Rule]).To(BeNumerically(">=", last))
					last = rank[match.Rule]
				}
			}
		}
	})

	It("reconciles each year's net gain with its totals", func() {
		report, _, err := cgt.Calculate(mixedHistory(), emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())

		for _, year := range report.TaxYears {
			Expect(year.NetGain.Equal(year.TotalGain.Sub(year.TotalLoss))).To(BeTrue())
		}
	})

	It("is deterministic byte for byte", func() {
		first, _, err := cgt.Calculate(mixedHistory(), emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())
		second, _, err := cgt.Calculate(mixedHistory(), emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())

		firstJSON, err := format.JSON(first)
		Expect(err).NotTo(HaveOccurred())
		secondJSON, err := format.JSON(second)
		Expect(err).NotTo(HaveOccurred())
		Expect(firstJSON).To(Equal(secondJSON))
	})

	It("never consults exchange rates for an all-GBP history", func() {
		consulted := false
		report, _, err := cgt.Calculate(mixedHistory(), trackingRates{consulted: &consulted}, exemptions)
		Expect(err).NotTo(HaveOccurred())
		Expect(consulted).To(BeFalse())

		baseline, _, err := cgt.Calculate(mixedHistory(), emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())

		withRates, err := format.JSON(report)
		Expect(err).NotTo(HaveOccurred())
		withoutRates, err := format.JSON(baseline)
		Expect(err).NotTo(HaveOccurred())
		Expect(withRates).To(Equal(withoutRates))
	})

	It("conserves shares between matches and the closing pool", func() {
		// no splits here so quantities compare directly
		txs := []cgt.Transaction{
			buy(day(2021, time.May, 10), "CCC", "100", "10", "0"),
			buy(day(2021, time.June, 1), "CCC", "40", "11", "0"),
			sell(day(2021, time.June, 1), "CCC", "25", "12", "0"),
			sell(day(2021, time.August, 1), "CCC", "55", "13", "0"),
		}
		report, _, err := cgt.Calculate(txs, emptyRates{}, exemptions)
		Expect(err).NotTo(HaveOccurred())

		matched := decimal.Zero
		for _, year := range report.TaxYears {
			for _, disposal := range year.Disposals {
				matched = matched.Add(disposal.Quantity)
			}
		}
		pooled := decimal.Zero
		for _, holding := range report.Holdings {
			pooled = pooled.Add(holding.Quantity)
		}

		// bought 140, sold 80
		Expect(matched.String()).To(Equal("80"))
		Expect(pooled.String()).To(Equal("60"))
	})
})
