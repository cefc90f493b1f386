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
package dsl

import (
	"fmt"
	"strings"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/money"
)

// SerializeTransaction renders one transaction as a DSL line. Zero FEES
// and TAX clauses are omitted; Parse of the result yields the original
// transaction back.
func SerializeTransaction(tx cgt.Transaction) string {
	date := tx.Date.Format("2006-01-02")

	switch op := tx.Op.(type) {
	case cgt.Buy:
		return tradeLine(date, "BUY", tx.Ticker, op.Quantity.String(), op.UnitPrice, op.Fees)
	case cgt.Sell:
		return tradeLine(date, "SELL", tx.Ticker, op.Quantity.String(), op.UnitPrice, op.Fees)
	case cgt.Dividend:
		line := fmt.Sprintf("%s DIVIDEND %s %s TOTAL %s", date, tx.Ticker, op.Quantity, formatAmount(op.TotalValue))
		if !op.TaxWithheld.IsZero() {
			line += " TAX " + formatAmount(op.TaxWithheld)
		}
		return line
	case cgt.CapReturn:
		line := fmt.Sprintf("%s CAPRETURN %s %s TOTAL %s", date, tx.Ticker, op.Quantity, formatAmount(op.TotalValue))
		if !op.Fees.IsZero() {
			line += " FEES " + formatAmount(op.Fees)
		}
		return line
	case cgt.Split:
		return fmt.Sprintf("%s SPLIT %s RATIO %s", date, tx.Ticker, op.Ratio)
	case cgt.Unsplit:
		return fmt.Sprintf("%s UNSPLIT %s RATIO %s", date, tx.Ticker, op.Ratio)
	}

	return ""
}

// Serialize renders a transaction list as a DSL document, one line per
// transaction.
func Serialize(txs []cgt.Transaction) string {
	lines := make([]string, len(txs))
	for i, tx := range txs {
		lines[i] = SerializeTransaction(tx)
	}
	return strings.Join(lines, "\n")
}

func tradeLine(date, action, ticker, qty string, price, fees money.Amount) string {
	line := fmt.Sprintf("%s %s %s %s @ %s", date, action, ticker, qty, formatAmount(price))
	if !fees.IsZero() {
		line += " FEES " + formatAmount(fees)
	}
	return line
}

func formatAmount(a money.Amount) string {
	return fmt.Sprintf("%s %s", a.Value, a.Currency)
}
