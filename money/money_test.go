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
package money_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

var _ = Describe("ParseCurrency", func() {
	It("normalizes valid codes to upper case", func() {
		currency, err := money.ParseCurrency(" usd ")
		Expect(err).NotTo(HaveOccurred())
		Expect(currency.String()).To(Equal("USD"))
	})

	It("rejects codes that are not three letters", func() {
		_, err := money.ParseCurrency("US")
		Expect(err).To(HaveOccurred())
		_, err = money.ParseCurrency("U5D")
		Expect(err).To(HaveOccurred())
	})

	It("knows the minor units of zero- and three-decimal currencies and defaults to two", func() {
		Expect(money.Currency("JPY").MinorUnits()).To(Equal(0))
		Expect(money.Currency("KWD").MinorUnits()).To(Equal(3))
		Expect(money.GBP.MinorUnits()).To(Equal(2))
	})
})

var _ = Describe("Amount", func() {
	It("keeps the GBP field equal to the value for sterling", func() {
		amount := money.NewGBP(decimal.RequireFromString("12.34"))
		Expect(amount.IsGBP()).To(BeTrue())
		Expect(amount.GBP.Equal(amount.Value)).To(BeTrue())
	})

	It("carries the converted figure for foreign amounts", func() {
		amount := money.NewForeign(
			decimal.RequireFromString("100"),
			money.Currency("USD"),
			decimal.RequireFromString("80"))
		Expect(amount.IsGBP()).To(BeFalse())
		Expect(amount.GBP.String()).To(Equal("80"))
		Expect(amount.String()).To(Equal("100 USD"))
	})
})
