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

// AcquisitionLot tracks one buy and how its shares were used: consumed by
// Same Day or Bed & Breakfast matching, or moved into the Section 104
// pool. Invariant: consumed + inPool never exceeds originalQty.
type AcquisitionLot struct {
	timelineIdx  int
	date         time.Time
	originalQty  decimal.Decimal
	unitPriceGBP decimal.Decimal
	feesGBP      decimal.Decimal
	costOffset   decimal.Decimal
	consumed     decimal.Decimal
	inPool       decimal.Decimal
}

// Available is the share count not yet matched or pooled.
func (l *AcquisitionLot) Available() decimal.Decimal {
	return l.originalQty.Sub(l.consumed).Sub(l.inPool)
}

// AdjustedCost is the full lot cost including fees and any CAPRETURN or
// accumulation-dividend offsets.
func (l *AcquisitionLot) AdjustedCost() decimal.Decimal {
	return l.originalQty.Mul(l.unitPriceGBP).Add(l.feesGBP).Add(l.costOffset)
}

// AdjustedUnitCost is AdjustedCost spread over the original quantity.
func (l *AcquisitionLot) AdjustedUnitCost() decimal.Decimal {
	if l.originalQty.IsZero() {
		return decimal.Zero
	}
	return l.AdjustedCost().Div(l.originalQty)
}

func (l *AcquisitionLot) Date() time.Time {
	return l.date
}

func (l *AcquisitionLot) OriginalQty() decimal.Decimal {
	return l.originalQty
}

func (l *AcquisitionLot) Consumed() decimal.Decimal {
	return l.consumed
}

func (l *AcquisitionLot) InPool() decimal.Decimal {
	return l.inPool
}

// AcquisitionLedger holds the chronological acquisition lots of a single
// ticker.
type AcquisitionLedger struct {
	lots []*AcquisitionLot
}

func (g *AcquisitionLedger) addLot(timelineIdx int, date time.Time, qty, unitPriceGBP, feesGBP decimal.Decimal) {
	g.lots = append(g.lots, &AcquisitionLot{
		timelineIdx:  timelineIdx,
		date:         date,
		originalQty:  qty,
		unitPriceGBP: unitPriceGBP,
		feesGBP:      feesGBP,
	})
}

// Lots exposes the ledger's lots in timeline order.
func (g *AcquisitionLedger) Lots() []*AcquisitionLot {
	return g.lots
}

func (g *AcquisitionLedger) lotAt(timelineIdx int) *AcquisitionLot {
	for _, lot := range g.lots {
		if lot.timelineIdx == timelineIdx {
			return lot
		}
	}
	return nil
}

// AvailableOn sums the unconsumed shares of every lot dated exactly on
// date.
func (g *AcquisitionLedger) AvailableOn(date time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range g.lots {
		if lot.date.Equal(date) {
			total = total.Add(lot.Available())
		}
	}
	return total
}

// ConsumeOn draws qty shares from the lots of a single date in timeline
// order for Same Day matching, returning the adjusted cost of the shares
// drawn.
func (g *AcquisitionLedger) ConsumeOn(date time.Time, qty decimal.Decimal) decimal.Decimal {
	remaining := qty
	cost := decimal.Zero
	for _, lot := range g.lots {
		if remaining.Sign() <= 0 {
			break
		}
		if !lot.date.Equal(date) {
			continue
		}
		available := lot.Available()
		if available.Sign() <= 0 {
			continue
		}
		drawn := decimal.Min(remaining, available)
		cost = cost.Add(drawn.Mul(lot.AdjustedUnitCost()))
		lot.consumed = lot.consumed.Add(drawn)
		remaining = remaining.Sub(drawn)
	}
	return cost
}

// consumeLot draws qty buy-time shares from the lot created at a specific
// timeline position, for Bed & Breakfast matching. Returns the adjusted
// cost of the shares drawn.
func (g *AcquisitionLedger) consumeLot(timelineIdx int, qty decimal.Decimal) decimal.Decimal {
	lot := g.lotAt(timelineIdx)
	if lot == nil {
		return decimal.Zero
	}
	lot.consumed = lot.consumed.Add(qty)
	return qty.Mul(lot.AdjustedUnitCost())
}

// MoveToPoolOn marks qty shares of the lots on date as transferred to the
// Section 104 pool, returning their adjusted cost.
func (g *AcquisitionLedger) MoveToPoolOn(date time.Time, qty decimal.Decimal) decimal.Decimal {
	remaining := qty
	cost := decimal.Zero
	for _, lot := range g.lots {
		if remaining.Sign() <= 0 {
			break
		}
		if !lot.date.Equal(date) {
			continue
		}
		available := lot.Available()
		if available.Sign() <= 0 {
			continue
		}
		moved := decimal.Min(remaining, available)
		cost = cost.Add(moved.Mul(lot.AdjustedUnitCost()))
		lot.inPool = lot.inPool.Add(moved)
		remaining = remaining.Sub(moved)
	}
	return cost
}

// applyCostAdjustment apportions a CAPRETURN or accumulation-dividend
// adjustment across the lots still held when the event happened. The
// share of each lot is estimated with FIFO-proportional consumption
// against the sells that predate the event.
func (g *AcquisitionLedger) applyCostAdjustment(eventDate time.Time, basis, adjustment decimal.Decimal, ticker string, timeline Timeline) {
	if basis.IsZero() {
		return
	}

	for _, lot := range g.lots {
		if !lot.date.Before(eventDate) {
			continue
		}
		alive := g.aliveAtEvent(lot, eventDate, ticker, timeline)
		if alive.Sign() > 0 {
			lot.costOffset = lot.costOffset.Add(adjustment.Mul(alive).Div(basis))
		}
	}
}

// aliveAtEvent estimates how many shares of a lot were still held when
// the event occurred. Each sell with lot.date < sell.date < eventDate
// reduces every lot that predates it in proportion to the lot's size.
// Only dates decide which sells count, so tie-break order in the input
// never shifts the apportionment.
func (g *AcquisitionLedger) aliveAtEvent(lot *AcquisitionLot, eventDate time.Time, ticker string, timeline Timeline) decimal.Decimal {
	remaining := lot.originalQty

	for idx, tx := range timeline {
		if !tx.Date.Before(eventDate) {
			break
		}
		if tx.Ticker != ticker {
			continue
		}
		sell, ok := tx.Op.(Sell)
		if !ok || !tx.Date.After(lot.date) {
			continue
		}

		totalBefore := decimal.Zero
		for _, other := range g.lots {
			if !other.date.After(tx.Date) && other.timelineIdx < idx {
				totalBefore = totalBefore.Add(other.originalQty)
			}
		}
		if totalBefore.Sign() > 0 {
			proportion := lot.originalQty.Div(totalBefore)
			consumed := decimal.Min(sell.Quantity.Mul(proportion), remaining)
			remaining = remaining.Sub(consumed)
		}
	}

	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
