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
	"time"

	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/money"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
)

// Issue is a single validation finding against one transaction.
type Issue struct {
	Severity Severity
	Record   int
	Date     time.Time
	Ticker   string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s (record %d): %s on %s - %s",
		i.Severity, i.Record, i.Ticker, i.Date.Format("2006-01-02"), i.Message)
}

// ValidationResult partitions findings into fatal errors and warnings.
type ValidationResult struct {
	Errors   []Issue
	Warnings []Issue
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(record int, tx Transaction, msg string) {
	r.Errors = append(r.Errors, Issue{
		Severity: SeverityError, Record: record, Date: tx.Date, Ticker: tx.Ticker, Message: msg,
	})
}

func (r *ValidationResult) addWarning(record int, tx Transaction, msg string) {
	r.Warnings = append(r.Warnings, Issue{
		Severity: SeverityWarning, Record: record, Date: tx.Date, Ticker: tx.Ticker, Message: msg,
	})
}

// Validate checks every transaction before calculation. Zero or negative
// quantities (a DIVIDEND may have zero quantity: that is a cash
// dividend), negative prices, values, fees or tax, and non-positive split
// ratios are errors. A sell with no earlier buy for the ticker is a
// warning only; callers decide whether to proceed.
func Validate(txs []Transaction) *ValidationResult {
	result := &ValidationResult{}

	firstBuy := make(map[string]time.Time)
	for _, tx := range txs {
		if _, ok := tx.Op.(Buy); !ok {
			continue
		}
		if prev, ok := firstBuy[tx.Ticker]; !ok || tx.Date.Before(prev) {
			firstBuy[tx.Ticker] = tx.Date
		}
	}

	for i, tx := range txs {
		record := i + 1

		if tx.Ticker == "" {
			result.addError(record, tx, "missing ticker")
		}

		switch op := tx.Op.(type) {
		case Buy:
			checkQuantity(result, record, tx, "BUY", op.Quantity)
			checkMoney(result, record, tx, "BUY", op.UnitPrice, op.Fees)
		case Sell:
			checkQuantity(result, record, tx, "SELL", op.Quantity)
			checkMoney(result, record, tx, "SELL", op.UnitPrice, op.Fees)
			if buyDate, ok := firstBuy[tx.Ticker]; !ok || tx.Date.Before(buyDate) {
				result.addWarning(record, tx, "SELL before any BUY for this ticker")
			}
		case Dividend:
			if op.Quantity.IsNegative() {
				result.addError(record, tx, fmt.Sprintf("DIVIDEND with negative quantity: %s", op.Quantity))
			}
			if op.TotalValue.IsNegative() {
				result.addError(record, tx, fmt.Sprintf("DIVIDEND with negative value: %s", op.TotalValue.Value))
			}
			if op.TaxWithheld.IsNegative() {
				result.addError(record, tx, fmt.Sprintf("DIVIDEND with negative tax: %s", op.TaxWithheld.Value))
			}
		case CapReturn:
			checkQuantity(result, record, tx, "CAPRETURN", op.Quantity)
			if op.TotalValue.IsNegative() {
				result.addError(record, tx, fmt.Sprintf("CAPRETURN with negative value: %s", op.TotalValue.Value))
			}
			if op.Fees.IsNegative() {
				result.addError(record, tx, fmt.Sprintf("CAPRETURN with negative fees: %s", op.Fees.Value))
			}
		case Split:
			checkRatio(result, record, tx, "SPLIT", op.Ratio)
		case Unsplit:
			checkRatio(result, record, tx, "UNSPLIT", op.Ratio)
		}
	}

	return result
}

func checkQuantity(result *ValidationResult, record int, tx Transaction, action string, qty decimal.Decimal) {
	if qty.IsZero() {
		result.addError(record, tx, fmt.Sprintf("%s with zero quantity", action))
	}
	if qty.IsNegative() {
		result.addError(record, tx, fmt.Sprintf("%s with negative quantity: %s", action, qty))
	}
}

func checkMoney(result *ValidationResult, record int, tx Transaction, action string, price, fees money.Amount) {
	if price.IsNegative() {
		result.addError(record, tx, fmt.Sprintf("%s with negative price: %s", action, price.Value))
	}
	if fees.IsNegative() {
		result.addError(record, tx, fmt.Sprintf("%s with negative fees: %s", action, fees.Value))
	}
}

func checkRatio(result *ValidationResult, record int, tx Transaction, action string, ratio decimal.Decimal) {
	if ratio.Sign() <= 0 {
		result.addError(record, tx, fmt.Sprintf("%s with non-positive ratio: %s", action, ratio))
	}
}
