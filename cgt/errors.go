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
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

// InvalidTransactionError reports input that fails validation: zero or
// negative quantities, negative prices or fees, non-positive ratios.
type InvalidTransactionError struct {
	Issues []Issue
}

func (e *InvalidTransactionError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid transaction: %s", e.Issues[0])
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("%d invalid transactions:\n%s", len(e.Issues), strings.Join(msgs, "\n"))
}

// MissingFxRateError reports that a foreign amount could not be converted
// because no monthly rate is available.
type MissingFxRateError struct {
	Currency money.Currency
	Year     int
	Month    time.Month
}

func (e *MissingFxRateError) Error() string {
	return fmt.Sprintf("no exchange rate for %s in %04d-%02d", e.Currency, e.Year, int(e.Month))
}

// DisposalExceedsHoldingsError reports a sell that could not be fully
// matched after all three passes.
type DisposalExceedsHoldingsError struct {
	Date      time.Time
	Ticker    string
	Unmatched decimal.Decimal
}

func (e *DisposalExceedsHoldingsError) Error() string {
	return fmt.Sprintf("disposal of %s on %s exceeds holdings by %s shares",
		e.Ticker, e.Date.Format("2006-01-02"), e.Unmatched)
}

// UnsupportedExemptionYearError reports a tax year with no configured
// annual exempt amount.
type UnsupportedExemptionYearError struct {
	Year int
}

func (e *UnsupportedExemptionYearError) Error() string {
	return fmt.Sprintf("no annual exempt amount configured for tax year %d/%02d", e.Year, (e.Year+1)%100)
}
