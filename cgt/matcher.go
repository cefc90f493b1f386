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
	"time"

	"github.com/shopspring/decimal"
)

// bnbWindowDays is the Bed & Breakfast matching window (TCGA92/S106A).
const bnbWindowDays = 30

// matchResult is one emitted match together with the proceeds portion it
// accounts for.
type matchResult struct {
	date          time.Time
	ticker        string
	grossProceeds decimal.Decimal
	proceeds      decimal.Decimal
	match         Match
}

type reservationKey struct {
	date   time.Time
	ticker string
}

// matcher runs the HMRC share matching rules over a preprocessed
// timeline: per date, every sell is matched (Same Day, then Bed &
// Breakfast, then Section 104) before the day's buy remainders enter the
// Section 104 pool and splits are applied.
type matcher struct {
	ledgers map[string]*AcquisitionLedger
	pools   map[string]*Section104Holding
	matches []matchResult

	// sameDayReservations holds, per acquisition date and ticker, the
	// share quantity still set aside for Same Day matching while Bed &
	// Breakfast passes for earlier sells walk through. Initialized on
	// first touch to the total same-day sell quantity.
	sameDayReservations map[reservationKey]decimal.Decimal
}

func newMatcher() *matcher {
	return &matcher{
		ledgers:             make(map[string]*AcquisitionLedger),
		pools:               make(map[string]*Section104Holding),
		sameDayReservations: make(map[reservationKey]decimal.Decimal),
	}
}

// process consumes the timeline and returns the emitted matches plus the
// final Section 104 state.
func (m *matcher) process(timeline Timeline) ([]matchResult, map[string]*Section104Holding, error) {
	m.buildLedgers(timeline)
	m.applyCostAdjustments(timeline)

	i := 0
	for i < len(timeline) {
		dayEnd := i
		for dayEnd < len(timeline) && timeline[dayEnd].Date.Equal(timeline[i].Date) {
			dayEnd++
		}

		// sells first: Same Day matching must see the day's buy lots
		// before they reach the pool
		for j := i; j < dayEnd; j++ {
			if _, ok := timeline[j].Op.(Sell); ok {
				if err := m.matchSell(j, timeline); err != nil {
					return nil, nil, err
				}
			}
		}

		for j := i; j < dayEnd; j++ {
			if _, ok := timeline[j].Op.(Buy); ok {
				m.moveBuyToPool(timeline[j])
			}
		}

		for j := i; j < dayEnd; j++ {
			m.applyPoolAction(timeline[j])
		}

		i = dayEnd
	}

	return m.matches, m.pools, nil
}

func (m *matcher) buildLedgers(timeline Timeline) {
	for idx, tx := range timeline {
		buy, ok := tx.Op.(Buy)
		if !ok {
			continue
		}
		ledger := m.ledgers[tx.Ticker]
		if ledger == nil {
			ledger = &AcquisitionLedger{}
			m.ledgers[tx.Ticker] = ledger
		}
		ledger.addLot(idx, tx.Date, buy.Quantity, buy.UnitPrice.GBP, buy.Fees.GBP)
	}
}

// applyCostAdjustments runs the cost-adjustment pass: CAPRETURN lowers
// and accumulation dividends (positive quantity) raise the cost of the
// lots alive at the event.
func (m *matcher) applyCostAdjustments(timeline Timeline) {
	for _, tx := range timeline {
		ledger := m.ledgers[tx.Ticker]
		if ledger == nil {
			continue
		}
		switch op := tx.Op.(type) {
		case CapReturn:
			adjustment := op.TotalValue.GBP.Sub(op.Fees.GBP).Neg()
			ledger.applyCostAdjustment(tx.Date, op.Quantity, adjustment, tx.Ticker, timeline)
		case Dividend:
			if op.Quantity.Sign() > 0 {
				ledger.applyCostAdjustment(tx.Date, op.Quantity, op.TotalValue.GBP, tx.Ticker, timeline)
			}
		}
	}
}

// matchSell matches one sell through the three passes in rule-priority
// order.
func (m *matcher) matchSell(sellIdx int, timeline Timeline) error {
	tx := timeline[sellIdx]
	sell := tx.Op.(Sell)
	if sell.Quantity.Sign() <= 0 {
		return nil
	}

	remaining := sell.Quantity
	gross := sell.Quantity.Mul(sell.UnitPrice.GBP)
	fees := sell.Fees.GBP

	// portion splits gross proceeds and fees pro rata over a partial
	// match
	portion := func(qty decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		grossPortion := gross.Mul(qty).Div(sell.Quantity)
		feesPortion := fees.Mul(qty).Div(sell.Quantity)
		return grossPortion, grossPortion.Sub(feesPortion)
	}

	m.matchSameDay(tx, &remaining, portion)
	m.matchBedAndBreakfast(sellIdx, timeline, tx, &remaining, portion)
	m.matchSection104(tx, &remaining, portion)

	if remaining.Sign() > 0 {
		return &DisposalExceedsHoldingsError{Date: tx.Date, Ticker: tx.Ticker, Unmatched: remaining}
	}
	return nil
}

func (m *matcher) matchSameDay(tx Transaction, remaining *decimal.Decimal, portion func(decimal.Decimal) (decimal.Decimal, decimal.Decimal)) {
	ledger := m.ledgers[tx.Ticker]
	if ledger == nil {
		return
	}

	available := ledger.AvailableOn(tx.Date)
	if available.Sign() <= 0 || remaining.Sign() <= 0 {
		return
	}

	matched := decimal.Min(*remaining, available)
	cost := ledger.ConsumeOn(tx.Date, matched)
	grossPortion, netPortion := portion(matched)
	acqDate := tx.Date

	m.matches = append(m.matches, matchResult{
		date:          tx.Date,
		ticker:        tx.Ticker,
		grossProceeds: grossPortion,
		proceeds:      netPortion,
		match: Match{
			Rule:            RuleSameDay,
			Quantity:        matched,
			AllowableCost:   cost,
			GainOrLoss:      netPortion.Sub(cost),
			AcquisitionDate: &acqDate,
		},
	})

	*remaining = remaining.Sub(matched)
}

// matchBedAndBreakfast walks the timeline forward from the sell looking
// for acquisitions within 30 days. Splits and unsplits between the sell
// and a candidate buy are folded into a cumulative ratio that converts
// buy-time quantities into sell-time units. Shares a later same-day sell
// is entitled to are reserved before this pass may draw
// (TCGA92/S106A(9) subordinates B&B to the Same Day rule).
func (m *matcher) matchBedAndBreakfast(sellIdx int, timeline Timeline, tx Transaction, remaining *decimal.Decimal, portion func(decimal.Decimal) (decimal.Decimal, decimal.Decimal)) {
	ledger := m.ledgers[tx.Ticker]
	if ledger == nil {
		return
	}

	cumulativeRatio := decimal.NewFromInt(1)

	for idx := sellIdx + 1; idx < len(timeline); idx++ {
		if remaining.Sign() <= 0 {
			break
		}
		candidate := timeline[idx]
		if candidate.Ticker != tx.Ticker {
			continue
		}

		days := daysBetween(tx.Date, candidate.Date)
		if days > bnbWindowDays {
			break
		}
		if days <= 0 {
			continue
		}

		switch op := candidate.Op.(type) {
		case Split:
			cumulativeRatio = cumulativeRatio.Mul(op.Ratio)
		case Unsplit:
			cumulativeRatio = cumulativeRatio.Div(op.Ratio)
		case Buy:
			lot := ledger.lotAt(idx)
			if lot == nil {
				continue
			}
			availableBuy := m.afterSameDayReservation(candidate, timeline, lot.Available())
			if availableBuy.Sign() <= 0 {
				continue
			}

			availableSell := availableBuy.Div(cumulativeRatio)
			matchedSell := decimal.Min(*remaining, availableSell)
			if matchedSell.Sign() <= 0 {
				continue
			}
			matchedBuy := matchedSell.Mul(cumulativeRatio)

			cost := ledger.consumeLot(idx, matchedBuy)
			grossPortion, netPortion := portion(matchedSell)
			acqDate := candidate.Date

			m.matches = append(m.matches, matchResult{
				date:          tx.Date,
				ticker:        tx.Ticker,
				grossProceeds: grossPortion,
				proceeds:      netPortion,
				match: Match{
					Rule:            RuleBedAndBreakfast,
					Quantity:        matchedSell,
					AllowableCost:   cost,
					GainOrLoss:      netPortion.Sub(cost),
					AcquisitionDate: &acqDate,
				},
			})

			*remaining = remaining.Sub(matchedSell)
		}
	}
}

// afterSameDayReservation withholds from a candidate buy the shares its
// own date's sells are entitled to under the Same Day rule. The
// reservation pool is shared across every B&B visit to that date and
// ticker so interleaved buys cannot over-reserve.
func (m *matcher) afterSameDayReservation(buyTx Transaction, timeline Timeline, available decimal.Decimal) decimal.Decimal {
	if available.Sign() <= 0 {
		return decimal.Zero
	}

	key := reservationKey{date: buyTx.Date, ticker: buyTx.Ticker}
	reservation, ok := m.sameDayReservations[key]
	if !ok {
		reservation = sameDaySellQuantity(buyTx.Date, buyTx.Ticker, timeline)
	}
	if reservation.IsNegative() {
		reservation = decimal.Zero
	}

	reserveNow := decimal.Min(available, reservation)
	m.sameDayReservations[key] = reservation.Sub(reserveNow)

	return available.Sub(reserveNow)
}

func sameDaySellQuantity(date time.Time, ticker string, timeline Timeline) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range timeline {
		if !tx.Date.Equal(date) || tx.Ticker != ticker {
			continue
		}
		if sell, ok := tx.Op.(Sell); ok {
			total = total.Add(sell.Quantity)
		}
	}
	return total
}

func (m *matcher) matchSection104(tx Transaction, remaining *decimal.Decimal, portion func(decimal.Decimal) (decimal.Decimal, decimal.Decimal)) {
	if remaining.Sign() <= 0 {
		return
	}
	pool := m.pools[tx.Ticker]
	if pool == nil || pool.Quantity.Sign() <= 0 {
		return
	}

	matched := decimal.Min(*remaining, pool.Quantity)

	var cost decimal.Decimal
	if matched.Equal(pool.Quantity) {
		// full drain takes the exact pool cost so an emptied pool
		// carries no residue
		cost = pool.TotalCost
	} else {
		cost = matched.Mul(pool.TotalCost.Div(pool.Quantity))
	}

	pool.Quantity = pool.Quantity.Sub(matched)
	pool.TotalCost = pool.TotalCost.Sub(cost)

	grossPortion, netPortion := portion(matched)

	m.matches = append(m.matches, matchResult{
		date:          tx.Date,
		ticker:        tx.Ticker,
		grossProceeds: grossPortion,
		proceeds:      netPortion,
		match: Match{
			Rule:          RuleSection104,
			Quantity:      matched,
			AllowableCost: cost,
			GainOrLoss:    netPortion.Sub(cost),
		},
	})

	*remaining = remaining.Sub(matched)
}

// moveBuyToPool transfers whatever Same Day and B&B matching left of the
// day's acquisitions into the Section 104 pool at adjusted cost.
func (m *matcher) moveBuyToPool(tx Transaction) {
	ledger := m.ledgers[tx.Ticker]
	if ledger == nil {
		return
	}

	remaining := ledger.AvailableOn(tx.Date)
	if remaining.Sign() <= 0 {
		return
	}

	cost := ledger.MoveToPoolOn(tx.Date, remaining)
	pool := m.pools[tx.Ticker]
	if pool == nil {
		pool = &Section104Holding{Ticker: tx.Ticker}
		m.pools[tx.Ticker] = pool
	}
	pool.Quantity = pool.Quantity.Add(remaining)
	pool.TotalCost = pool.TotalCost.Add(cost)
}

func (m *matcher) applyPoolAction(tx Transaction) {
	pool := m.pools[tx.Ticker]
	if pool == nil {
		return
	}
	switch op := tx.Op.(type) {
	case Split:
		pool.Quantity = pool.Quantity.Mul(op.Ratio)
	case Unsplit:
		pool.Quantity = pool.Quantity.Div(op.Ratio)
	}
}
