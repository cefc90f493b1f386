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
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/money"
)

var _ = Describe("Preprocess", func() {
	It("rejects a buy with zero quantity", func() {
		txs := []cgt.Transaction{buy(day(2023, time.May, 1), "AAA", "0", "10", "0")}
		_, _, err := cgt.Preprocess(txs, emptyRates{})

		var invalid *cgt.InvalidTransactionError
		Expect(errors.As(err, &invalid)).To(BeTrue())
	})

	It("rejects a split with a non-positive ratio", func() {
		txs := []cgt.Transaction{split(day(2023, time.May, 1), "AAA", "0")}
		_, _, err := cgt.Preprocess(txs, emptyRates{})

		var invalid *cgt.InvalidTransactionError
		Expect(errors.As(err, &invalid)).To(BeTrue())
	})

	It("warns but does not fail on a sell with no prior buy", func() {
		txs := []cgt.Transaction{
			sell(day(2023, time.May, 1), "AAA", "10", "10", "0"),
			buy(day(2023, time.May, 2), "AAA", "10", "10", "0"),
		}
		_, warnings, err := cgt.Preprocess(txs, emptyRates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].Severity).To(Equal(cgt.SeverityWarning))
	})

	It("sorts by date and keeps input order on ties", func() {
		txs := []cgt.Transaction{
			buy(day(2023, time.May, 2), "BBB", "10", "10", "0"),
			buy(day(2023, time.May, 1), "AAA", "10", "10", "0"),
			sell(day(2023, time.May, 2), "BBB", "5", "12", "0"),
		}
		timeline, _, err := cgt.Preprocess(txs, emptyRates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(timeline).To(HaveLen(3))
		Expect(timeline[0].Ticker).To(Equal("AAA"))
		Expect(timeline[1].Op).To(BeAssignableToTypeOf(cgt.Buy{}))
		Expect(timeline[2].Op).To(BeAssignableToTypeOf(cgt.Sell{}))
	})

	It("merges adjacent same-day buys with a quantity-weighted price", func() {
		txs := []cgt.Transaction{
			buy(day(2023, time.May, 1), "AAA", "100", "10", "2"),
			buy(day(2023, time.May, 1), "AAA", "50", "13", "1"),
		}
		timeline, _, err := cgt.Preprocess(txs, emptyRates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(timeline).To(HaveLen(1))

		merged := timeline[0].Op.(cgt.Buy)
		Expect(merged.Quantity.String()).To(Equal("150"))
		// (100*10 + 50*13) / 150
		Expect(merged.UnitPrice.GBP.String()).To(Equal("11"))
		Expect(merged.Fees.GBP.String()).To(Equal("3"))
	})

	It("does not merge a buy with a same-day sell", func() {
		txs := []cgt.Transaction{
			buy(day(2023, time.May, 1), "AAA", "100", "10", "0"),
			sell(day(2023, time.May, 1), "AAA", "50", "12", "0"),
		}
		timeline, _, err := cgt.Preprocess(txs, emptyRates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(timeline).To(HaveLen(2))
	})

	It("does not merge same-day buys of different tickers", func() {
		txs := []cgt.Transaction{
			buy(day(2023, time.May, 1), "AAA", "100", "10", "0"),
			buy(day(2023, time.May, 1), "BBB", "50", "12", "0"),
		}
		timeline, _, err := cgt.Preprocess(txs, emptyRates{})
		Expect(err).NotTo(HaveOccurred())
		Expect(timeline).To(HaveLen(2))
	})

	It("converts foreign amounts with the transaction month's rate", func() {
		txs := []cgt.Transaction{{
			Date:   day(2024, time.February, 10),
			Ticker: "USSTK",
			Op: cgt.Buy{
				Quantity:  dec("10"),
				UnitPrice: money.Amount{Value: dec("125"), Currency: money.Currency("USD")},
				Fees:      money.Amount{Value: dec("5"), Currency: money.Currency("USD")},
			},
		}}
		timeline, _, err := cgt.Preprocess(txs, fixedRates{rate: dec("1.25")})
		Expect(err).NotTo(HaveOccurred())

		converted := timeline[0].Op.(cgt.Buy)
		Expect(converted.UnitPrice.GBP.String()).To(Equal("100"))
		Expect(converted.Fees.GBP.String()).To(Equal("4"))
		Expect(converted.UnitPrice.Value.String()).To(Equal("125"))
		Expect(converted.UnitPrice.Currency).To(Equal(money.Currency("USD")))
	})
})

var _ = Describe("TaxPeriod", func() {
	It("places dates before 6 April in the prior tax year", func() {
		Expect(cgt.PeriodOf(day(2024, time.March, 15)).String()).To(Equal("2023/24"))
		Expect(cgt.PeriodOf(day(2024, time.April, 5)).String()).To(Equal("2023/24"))
	})

	It("starts a new tax year on 6 April", func() {
		Expect(cgt.PeriodOf(day(2024, time.April, 6)).String()).To(Equal("2024/25"))
		Expect(cgt.PeriodOf(day(2024, time.December, 31)).String()).To(Equal("2024/25"))
	})

	It("spans 6 April to 5 April", func() {
		period := cgt.TaxPeriod(2023)
		Expect(period.Start().Equal(day(2023, time.April, 6))).To(BeTrue())
		Expect(period.End().Equal(day(2024, time.April, 5))).To(BeTrue())
	})
})
