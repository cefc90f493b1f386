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
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/money"
)

// jsonMoney accepts either a bare decimal string (GBP) or an object with
// amount and currency fields.
type jsonMoney struct {
	amount   decimal.Decimal
	currency money.Currency
	set      bool
}

func (m *jsonMoney) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		currency, err := money.ParseCurrency(obj.Currency)
		if err != nil {
			return err
		}
		m.amount = obj.Amount
		m.currency = currency
		m.set = true
		return nil
	}

	var value decimal.Decimal
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	m.amount = value
	m.currency = money.GBP
	m.set = true
	return nil
}

func (m jsonMoney) toAmount() money.Amount {
	if !m.set || m.currency.IsGBP() {
		return money.NewGBP(m.amount)
	}
	return money.Amount{Value: m.amount, Currency: m.currency}
}

type jsonTransaction struct {
	Date        string          `json:"date"`
	Ticker      string          `json:"ticker"`
	Action      string          `json:"action"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       jsonMoney       `json:"price"`
	Fees        jsonMoney       `json:"fees"`
	TotalValue  jsonMoney       `json:"total_value"`
	TaxWithheld jsonMoney       `json:"tax_withheld"`
	Ratio       decimal.Decimal `json:"ratio"`
}

// ParseJSON reads the JSON transaction form: an array of objects with
// date, ticker, a case-insensitive action, and the action's fields.
func ParseJSON(data []byte) ([]cgt.Transaction, error) {
	var records []jsonTransaction
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing transaction JSON: %w", err)
	}

	txs := make([]cgt.Transaction, 0, len(records))
	for i, record := range records {
		tx, err := record.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r *jsonTransaction) toTransaction() (cgt.Transaction, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return cgt.Transaction{}, fmt.Errorf("invalid date %q", r.Date)
	}

	tx := cgt.Transaction{
		Date:   cgt.Date(date.Year(), date.Month(), date.Day()),
		Ticker: strings.ToUpper(strings.TrimSpace(r.Ticker)),
	}

	switch strings.ToUpper(strings.TrimSpace(r.Action)) {
	case "BUY":
		tx.Op = cgt.Buy{Quantity: r.Quantity, UnitPrice: r.Price.toAmount(), Fees: r.Fees.toAmount()}
	case "SELL":
		tx.Op = cgt.Sell{Quantity: r.Quantity, UnitPrice: r.Price.toAmount(), Fees: r.Fees.toAmount()}
	case "DIVIDEND":
		tx.Op = cgt.Dividend{Quantity: r.Quantity, TotalValue: r.TotalValue.toAmount(), TaxWithheld: r.TaxWithheld.toAmount()}
	case "CAPRETURN":
		tx.Op = cgt.CapReturn{Quantity: r.Quantity, TotalValue: r.TotalValue.toAmount(), Fees: r.Fees.toAmount()}
	case "SPLIT":
		tx.Op = cgt.Split{Ratio: r.Ratio}
	case "UNSPLIT":
		tx.Op = cgt.Unsplit{Ratio: r.Ratio}
	default:
		return cgt.Transaction{}, fmt.Errorf("unknown action %q", r.Action)
	}

	return tx, nil
}

type jsonOutMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type jsonOutTransaction struct {
	Date        string        `json:"date"`
	Ticker      string        `json:"ticker"`
	Action      string        `json:"action"`
	Quantity    string        `json:"quantity,omitempty"`
	Price       *jsonOutMoney `json:"price,omitempty"`
	Fees        *jsonOutMoney `json:"fees,omitempty"`
	TotalValue  *jsonOutMoney `json:"total_value,omitempty"`
	TaxWithheld *jsonOutMoney `json:"tax_withheld,omitempty"`
	Ratio       string        `json:"ratio,omitempty"`
}

// MarshalJSON renders transactions in the JSON input form.
func MarshalJSON(txs []cgt.Transaction) ([]byte, error) {
	records := make([]jsonOutTransaction, len(txs))
	for i, tx := range txs {
		record := jsonOutTransaction{
			Date:   tx.Date.Format("2006-01-02"),
			Ticker: tx.Ticker,
		}
		switch op := tx.Op.(type) {
		case cgt.Buy:
			record.Action = "BUY"
			record.Quantity = op.Quantity.String()
			record.Price = outMoney(op.UnitPrice)
			record.Fees = outMoney(op.Fees)
		case cgt.Sell:
			record.Action = "SELL"
			record.Quantity = op.Quantity.String()
			record.Price = outMoney(op.UnitPrice)
			record.Fees = outMoney(op.Fees)
		case cgt.Dividend:
			record.Action = "DIVIDEND"
			record.Quantity = op.Quantity.String()
			record.TotalValue = outMoney(op.TotalValue)
			record.TaxWithheld = outMoney(op.TaxWithheld)
		case cgt.CapReturn:
			record.Action = "CAPRETURN"
			record.Quantity = op.Quantity.String()
			record.TotalValue = outMoney(op.TotalValue)
			record.Fees = outMoney(op.Fees)
		case cgt.Split:
			record.Action = "SPLIT"
			record.Ratio = op.Ratio.String()
		case cgt.Unsplit:
			record.Action = "UNSPLIT"
			record.Ratio = op.Ratio.String()
		}
		records[i] = record
	}

	return json.MarshalIndent(records, "", "  ")
}

func outMoney(a money.Amount) *jsonOutMoney {
	return &jsonOutMoney{Amount: a.Value.String(), Currency: a.Currency.String()}
}
