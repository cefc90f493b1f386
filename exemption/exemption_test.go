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
package exemption_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ukcgt/cgtcalc/exemption"
)

var _ = Describe("Embedded", func() {
	It("knows the exempt amount for every recent tax year", func() {
		table := exemption.Embedded()
		for year := 2014; year <= 2024; year++ {
			_, ok := table.Exemption(year)
			Expect(ok).To(BeTrue(), "missing exemption for %d", year)
		}
	})

	It("reflects the 2023 and 2024 reductions", func() {
		table := exemption.Embedded()

		amount, ok := table.Exemption(2023)
		Expect(ok).To(BeTrue())
		Expect(amount.String()).To(Equal("6000"))

		amount, ok = table.Exemption(2024)
		Expect(ok).To(BeTrue())
		Expect(amount.String()).To(Equal("3000"))
	})

	It("has no amount for unconfigured years", func() {
		table := exemption.Embedded()
		_, ok := table.Exemption(2010)
		Expect(ok).To(BeFalse())
		_, ok = table.Exemption(2035)
		Expect(ok).To(BeFalse())
	})
})
