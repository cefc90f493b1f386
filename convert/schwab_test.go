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
package convert_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/convert"
	"github.com/ukcgt/cgtcalc/money"
)

const schwabExport = `"Date","Action","Symbol","Description","Quantity","Price","Fees & Comm","Amount"
"06/20/2024","Sell","AAPL","APPLE INC","25","$210.50","$0.85","$5261.65"
"06/10/2024","NRA Withholding","MSFT","MICROSOFT CORP","","","","-$11.25"
"06/10/2024","Cash Dividend","MSFT","MICROSOFT CORP","","","","$75.00"
"06/07/2024","Stock Split","NVDA","NVDA 10 FOR 1 STOCK SPLIT","","","",""
"05/15/2024","Stock Plan Activity","MSFT","RESTRICTED STOCK UNITS","12","","",""
"03/12/2024","Cancel Sell","AAPL","APPLE INC","10","$172.00","",""
"03/12/2024","Sell","AAPL","APPLE INC","10","$172.00","","$1720.00"
"01/16/2024","Buy","AAPL","APPLE INC","50","$185.00","","-$9250.00"
"01/10/2024","MoneyLink Transfer","","TRANSFER FROM BANK","","","","$10000.00"
`

const awardsExport = `{
  "Transactions": [
    {"Date": "05/14/2024", "Symbol": "MSFT",
     "TransactionDetails": [{"Details": {"FairMarketValuePrice": "$420.25"}}]}
  ]
}`

var _ = Describe("Schwab", func() {
	var txs []cgt.Transaction

	BeforeEach(func() {
		awards, err := convert.ParseAwards([]byte(awardsExport))
		Expect(err).NotTo(HaveOccurred())
		txs, err = convert.Schwab([]byte(schwabExport), awards)
		Expect(err).NotTo(HaveOccurred())
	})

	It("drops cash movements and orders the rest chronologically", func() {
		Expect(txs).To(HaveLen(5))
		for i := 1; i < len(txs); i++ {
			Expect(txs[i].Date.Before(txs[i-1].Date)).To(BeFalse())
		}
	})

	It("converts trades with dollar prices and fees", func() {
		first := txs[0]
		Expect(first.Date.Equal(cgt.Date(2024, time.January, 16))).To(BeTrue())
		op := first.Op.(cgt.Buy)
		Expect(op.Quantity.String()).To(Equal("50"))
		Expect(op.UnitPrice.Value.String()).To(Equal("185"))
		Expect(op.UnitPrice.Currency).To(Equal(money.Currency("USD")))

		last := txs[len(txs)-1]
		sellOp := last.Op.(cgt.Sell)
		Expect(sellOp.Quantity.String()).To(Equal("25"))
		Expect(sellOp.Fees.Value.String()).To(Equal("0.85"))
	})

	It("removes the sell a Cancel Sell reverses", func() {
		for _, tx := range txs {
			if op, ok := tx.Op.(cgt.Sell); ok {
				Expect(op.Quantity.String()).NotTo(Equal("10"),
					"cancelled sell on %s must not survive", tx.Date.Format("2006-01-02"))
			}
		}
	})

	It("prices stock plan activity at the award's fair market value", func() {
		var award *cgt.Buy
		for _, tx := range txs {
			if op, ok := tx.Op.(cgt.Buy); ok && tx.Ticker == "MSFT" {
				award = &op
			}
		}
		Expect(award).NotTo(BeNil())
		Expect(award.Quantity.String()).To(Equal("12"))
		// FMV keyed one day earlier exercises the lookback
		Expect(award.UnitPrice.Value.String()).To(Equal("420.25"))
		Expect(award.UnitPrice.Currency).To(Equal(money.Currency("USD")))
	})

	It("folds tax withholding into the same-day dividend", func() {
		var div *cgt.Dividend
		for _, tx := range txs {
			if op, ok := tx.Op.(cgt.Dividend); ok {
				div = &op
			}
		}
		Expect(div).NotTo(BeNil())
		Expect(div.TotalValue.Value.String()).To(Equal("75"))
		Expect(div.TaxWithheld.Value.String()).To(Equal("11.25"))
	})

	It("reads the split ratio from the description", func() {
		var ratio string
		for _, tx := range txs {
			if op, ok := tx.Op.(cgt.Split); ok {
				ratio = op.Ratio.String()
			}
		}
		Expect(ratio).To(Equal("10"))
	})

	It("fails on vested awards without a fair market value", func() {
		_, err := convert.Schwab([]byte(schwabExport), nil)

		var missing *convert.MissingFairMarketValueError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Symbol).To(Equal("MSFT"))
	})
})

var _ = Describe("ParseAwards", func() {
	It("strips dollar signs and keys by symbol and date", func() {
		awards, err := convert.ParseAwards([]byte(awardsExport))
		Expect(err).NotTo(HaveOccurred())

		fmv, ok := awards.FMV(cgt.Date(2024, time.May, 14), "msft")
		Expect(ok).To(BeTrue())
		Expect(fmv.String()).To(Equal("420.25"))
	})

	It("looks back at most seven days", func() {
		awards, err := convert.ParseAwards([]byte(awardsExport))
		Expect(err).NotTo(HaveOccurred())

		_, ok := awards.FMV(cgt.Date(2024, time.May, 21), "MSFT")
		Expect(ok).To(BeTrue())
		_, ok = awards.FMV(cgt.Date(2024, time.May, 22), "MSFT")
		Expect(ok).To(BeFalse())
	})

	It("rejects entries without transaction details", func() {
		_, err := convert.ParseAwards([]byte(`{"Transactions": [{"Date": "05/14/2024", "Symbol": "MSFT", "TransactionDetails": []}]}`))
		Expect(err).To(HaveOccurred())
	})
})
