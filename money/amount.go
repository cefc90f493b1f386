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
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value with its currency and GBP equivalent. For
// GBP amounts the GBP field equals Value; for foreign amounts it holds
// the converted figure produced by the FX pass.
type Amount struct {
	Value    decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
	GBP      decimal.Decimal `json:"gbp"`
}

// NewGBP builds an Amount denominated in sterling.
func NewGBP(value decimal.Decimal) Amount {
	return Amount{Value: value, Currency: GBP, GBP: value}
}

// NewForeign builds an Amount in a non-GBP currency together with its GBP
// equivalent from FX conversion.
func NewForeign(value decimal.Decimal, currency Currency, gbp decimal.Decimal) Amount {
	return Amount{Value: value, Currency: currency, GBP: gbp}
}

// Zero is the zero GBP amount.
func Zero() Amount {
	return NewGBP(decimal.Zero)
}

func (a Amount) IsGBP() bool {
	return a.Currency.IsGBP()
}

func (a Amount) IsZero() bool {
	return a.Value.IsZero()
}

func (a Amount) IsNegative() bool {
	return a.Value.IsNegative()
}

// String renders the amount as "<value> <code>", the form the DSL uses.
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Value.String(), a.Currency)
}
