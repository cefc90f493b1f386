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
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ukcgt/cgtcalc/cgt"
	"github.com/ukcgt/cgtcalc/pkginfo"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true)
	gainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	printer = message.NewPrinter(language.BritishEnglish)
)

// gbp renders a GBP amount rounded half-away-from-zero to pennies, with
// thousands separators.
func gbp(d decimal.Decimal) string {
	rounded := d.Round(2)
	f, _ := rounded.Float64()
	return printer.Sprintf("£%v", number.Decimal(f, number.Scale(2)))
}

func qty(d decimal.Decimal) string {
	return d.String()
}

// Plain renders a human-readable report: a summary table per tax year,
// the per-disposal match breakdown, the closing Section 104 holdings,
// and the trade list.
func Plain(report *cgt.TaxReport) string {
	var out strings.Builder

	out.WriteString(sectionStyle.Render("# SUMMARY"))
	out.WriteString("\n\n")
	writeSummary(&out, report)

	out.WriteString("\n")
	out.WriteString(sectionStyle.Render("# TAX YEAR DETAILS"))
	out.WriteString("\n")
	for i := range report.TaxYears {
		writeYearDetail(&out, &report.TaxYears[i])
	}

	out.WriteString("\n")
	out.WriteString(sectionStyle.Render("# HOLDINGS"))
	out.WriteString("\n\n")
	writeHoldings(&out, report)

	out.WriteString("\n")
	out.WriteString(sectionStyle.Render("# TRANSACTIONS"))
	out.WriteString("\n\n")
	writeTransactions(&out, report)

	fmt.Fprintf(&out, "\nGenerated by %s\n", pkginfo.Generator())

	return out.String()
}

func writeSummary(out *strings.Builder, report *cgt.TaxReport) {
	const rowFormat = "%-10s %-10s %-14s %-14s %-14s %-14s %-12s %-14s\n"

	fmt.Fprintf(out, rowFormat, "Tax year", "Disposals", "Net gain", "Gains", "Losses", "Proceeds", "Exemption", "Taxable gain")
	out.WriteString(strings.Repeat("=", 108))
	out.WriteString("\n")

	for i := range report.TaxYears {
		year := &report.TaxYears[i]
		exemptionText := "-"
		if year.ExemptAmount != nil {
			exemptionText = gbp(*year.ExemptAmount)
		}
		fmt.Fprintf(out, rowFormat,
			year.Period.String(),
			fmt.Sprintf("%d", year.DisposalCount()),
			gbp(year.NetGain),
			gbp(year.TotalGain),
			gbp(year.TotalLoss),
			gbp(year.GrossProceeds()),
			exemptionText,
			gbp(year.TaxableGain()))

		if year.DividendIncome.Sign() > 0 {
			if year.DividendTaxPaid.Sign() > 0 {
				fmt.Fprintf(out, "Dividend income: %s (tax withheld: %s)\n", gbp(year.DividendIncome), gbp(year.DividendTaxPaid))
			} else {
				fmt.Fprintf(out, "Dividend income: %s\n", gbp(year.DividendIncome))
			}
		}
	}
}

func writeYearDetail(out *strings.Builder, year *cgt.TaxYearSummary) {
	out.WriteString("\n")
	out.WriteString(sectionStyle.Render("## " + year.Period.String()))
	out.WriteString("\n\n")

	for i, disposal := range year.Disposals {
		fmt.Fprintf(out, "%d. SOLD %s %s on %s for %s (gross %s)\n",
			i+1, qty(disposal.Quantity), disposal.Ticker,
			disposal.Date.Format("2006-01-02"),
			gbp(disposal.Proceeds), gbp(disposal.GrossProceeds))

		for _, match := range disposal.Matches {
			gainText := gainStyle.Render("gain " + gbp(match.GainOrLoss))
			if match.GainOrLoss.Sign() < 0 {
				gainText = lossStyle.Render("loss " + gbp(match.GainOrLoss.Neg()))
			}
			switch match.Rule {
			case cgt.RuleSection104:
				fmt.Fprintf(out, "   - %s: %s shares, cost %s, %s\n",
					match.Rule, qty(match.Quantity), gbp(match.AllowableCost), gainText)
			default:
				fmt.Fprintf(out, "   - %s: %s shares acquired %s, cost %s, %s\n",
					match.Rule, qty(match.Quantity),
					match.AcquisitionDate.Format("2006-01-02"),
					gbp(match.AllowableCost), gainText)
			}
		}
	}

	if len(year.Disposals) == 0 {
		out.WriteString("No disposals.\n")
	}
}

func writeHoldings(out *strings.Builder, report *cgt.TaxReport) {
	if len(report.Holdings) == 0 {
		out.WriteString("NONE\n")
		return
	}
	for _, holding := range report.Holdings {
		avgCost := holding.TotalCost.Div(holding.Quantity)
		fmt.Fprintf(out, "%s: %s units, total cost %s (%s avg)\n",
			holding.Ticker, qty(holding.Quantity), gbp(holding.TotalCost), gbp(avgCost))
	}
}

func writeTransactions(out *strings.Builder, report *cgt.TaxReport) {
	count := 0
	for _, tx := range report.Transactions {
		switch op := tx.Op.(type) {
		case cgt.Buy:
			fmt.Fprintf(out, "%s BUY %s %s @ %s %s\n",
				tx.Date.Format("2006-01-02"), qty(op.Quantity), tx.Ticker,
				op.UnitPrice.Value, op.UnitPrice.Currency)
			count++
		case cgt.Sell:
			fmt.Fprintf(out, "%s SELL %s %s @ %s %s\n",
				tx.Date.Format("2006-01-02"), qty(op.Quantity), tx.Ticker,
				op.UnitPrice.Value, op.UnitPrice.Currency)
			count++
		}
	}
	if count == 0 {
		out.WriteString("NONE\n")
	}
}
